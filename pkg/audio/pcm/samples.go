package pcm

import "encoding/binary"

// ApplyGain scales 16-bit samples in b by gain in place. Gain 1.0 is a
// no-op, 0.0 silences. Results are clipped to the int16 range.
func ApplyGain(b []byte, gain float32) {
	if gain == 1.0 {
		return
	}
	for i := 0; i+1 < len(b); i += 2 {
		s := int16(binary.LittleEndian.Uint16(b[i:]))
		v := float32(s) * gain
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(b[i:], uint16(int16(v)))
	}
}

// Silence zeroes b.
func Silence(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
