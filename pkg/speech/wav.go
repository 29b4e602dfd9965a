package speech

import (
	"encoding/binary"

	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
)

// encodeWAV wraps raw 16-bit PCM in a canonical 44-byte RIFF/WAVE header.
// Both backends ship audio as WAV; with the full data in hand the chunk
// sizes are known up front, so no seeking writer is needed.
func encodeWAV(format pcm.Format, data []byte) []byte {
	out := make([]byte, 44+len(data))

	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+len(data)))
	copy(out[8:], "WAVE")

	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:], uint16(format.Channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(format.SampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(format.BytesRate()))
	binary.LittleEndian.PutUint16(out[32:], uint16(format.FrameBytes()))
	binary.LittleEndian.PutUint16(out[34:], 16) // bits per sample

	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(len(data)))
	copy(out[44:], data)

	return out
}
