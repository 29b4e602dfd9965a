package resampler

import (
	"fmt"
	"io"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
)

// Resampler wraps an io.Reader and converts audio from a source format to
// a destination format. It must be closed with Close to release resources.
type Resampler interface {
	io.ReadCloser
	CloseWithError(error) error
}

type converter struct {
	srcFmt pcm.Format
	src    io.Reader

	dstFmt  pcm.Format
	readBuf []byte

	mu        sync.Mutex
	closeErr  error
	core      resampling.Resampler
	leftover  []byte
	rateShift bool
}

var _ Resampler = (*converter)(nil)

// New creates a Resampler that converts audio from srcFmt to dstFmt. It
// supports sample rate conversion and mono<->stereo channel conversion.
func New(src io.Reader, srcFmt, dstFmt pcm.Format) (Resampler, error) {
	if !srcFmt.Valid() || !dstFmt.Valid() {
		return nil, fmt.Errorf("resampler: invalid format %v -> %v", srcFmt, dstFmt)
	}

	rateShift := srcFmt.SampleRate != dstFmt.SampleRate

	var core resampling.Resampler
	if rateShift {
		config := &resampling.Config{
			InputRate:  float64(srcFmt.SampleRate),
			OutputRate: float64(dstFmt.SampleRate),
			Channels:   dstFmt.Channels,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		}
		var err error
		core, err = resampling.New(config)
		if err != nil {
			return nil, fmt.Errorf("resampler: %w", err)
		}
	}

	return &converter{
		srcFmt:    srcFmt,
		src:       newFrameReader(src, srcFmt.FrameBytes()),
		dstFmt:    dstFmt,
		core:      core,
		rateShift: rateShift,
	}, nil
}

// Read copies converted audio data into p. It returns the number of bytes
// written and any encountered error. Not safe for concurrent use.
func (c *converter) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) < c.dstFmt.FrameBytes() {
		return 0, io.ErrShortBuffer
	}
	p = p[:c.dstFmt.AlignDown(int64(len(p)))]

	c.mu.Lock()
	defer c.mu.Unlock()

	// Return leftover from a previous oversized conversion first.
	if len(c.leftover) > 0 {
		n := copy(p, c.leftover)
		c.leftover = c.leftover[n:]
		return n, nil
	}

	if c.closeErr != nil {
		return 0, c.closeErr
	}

	if !c.rateShift {
		return c.readChannelConv(p, len(p))
	}
	return c.readResampled(p)
}

func (c *converter) readResampled(p []byte) (int, error) {
	// Over-read the source proportionally to the rate ratio so one source
	// read roughly fills p after conversion.
	ratio := float64(c.srcFmt.SampleRate) / float64(c.dstFmt.SampleRate)
	need := int(float64(len(p))*ratio) + c.srcFmt.FrameBytes()*4

	buf := make([]byte, 0, len(p))
	n, readErr := c.readChannelConvBuf(need)
	if n == 0 {
		if readErr != nil {
			return 0, readErr
		}
		return 0, io.EOF
	}

	// int16 LE -> normalized float64
	frames := n / 2
	input := make([]float64, frames)
	for i := range frames {
		s := int16(c.readBuf[i*2]) | int16(c.readBuf[i*2+1])<<8
		input[i] = float64(s) / 32768.0
	}

	output, err := c.core.Process(input)
	if err != nil {
		return 0, fmt.Errorf("resampler: %w", err)
	}
	if len(output) == 0 {
		return 0, readErr
	}

	for _, s := range output {
		v := int16(s * 32767.0)
		if s > 1.0 {
			v = 32767
		} else if s < -1.0 {
			v = -32768
		}
		buf = append(buf, byte(v), byte(v>>8))
	}
	buf = buf[:c.dstFmt.AlignDown(int64(len(buf)))]

	wn := copy(p, buf)
	if len(buf) > wn {
		c.leftover = append(c.leftover, buf[wn:]...)
	}
	return wn, readErr
}

// readChannelConv reads from the source with channel conversion only and
// copies the result into p.
func (c *converter) readChannelConv(p []byte, dstLen int) (int, error) {
	n, err := c.readChannelConvBuf(dstLen)
	if n == 0 {
		return 0, err
	}
	copy(p, c.readBuf[:n])
	return n, err
}

// readChannelConvBuf reads source data into c.readBuf, applying
// mono<->stereo conversion, and returns the converted byte count.
func (c *converter) readChannelConvBuf(dstLen int) (int, error) {
	if cap(c.readBuf) < dstLen*2 {
		c.readBuf = make([]byte, dstLen*2)
	}

	switch {
	case c.srcFmt.Channels == 2 && c.dstFmt.Channels == 1:
		// Downmix: read double, average pairs.
		rn, err := c.src.Read(c.readBuf[:dstLen*2])
		if rn == 0 {
			return 0, err
		}
		return stereoToMono(c.readBuf[:rn]), err
	case c.srcFmt.Channels == 1 && c.dstFmt.Channels == 2:
		// Upmix: read half, duplicate samples.
		rn, err := c.src.Read(c.readBuf[:dstLen/2])
		if rn == 0 {
			return 0, err
		}
		return monoToStereo(c.readBuf[:rn*2]), err
	default:
		rn, err := c.src.Read(c.readBuf[:dstLen])
		return rn, err
	}
}

// Close releases resources. Subsequent Reads return io.ErrClosedPipe.
func (c *converter) Close() error {
	return c.CloseWithError(fmt.Errorf("resampler: %w", io.ErrClosedPipe))
}

// CloseWithError releases resources with a custom error returned by
// subsequent Reads.
func (c *converter) CloseWithError(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeErr == nil {
		c.closeErr = err
	}
	c.core = nil
	return nil
}

// stereoToMono converts stereo 16-bit samples to mono in-place by averaging
// L and R channels. Returns the mono byte count.
func stereoToMono(b []byte) int {
	frames := len(b) / 4
	for i := range frames {
		j := i * 4
		k := i * 2
		l := int16(b[j]) | int16(b[j+1])<<8
		r := int16(b[j+2]) | int16(b[j+3])<<8
		m := int16((int32(l) + int32(r)) / 2)
		b[k] = byte(m)
		b[k+1] = byte(m >> 8)
	}
	return frames * 2
}

// monoToStereo converts mono 16-bit samples to stereo in-place by
// duplicating each sample. b must have capacity for the stereo result.
func monoToStereo(b []byte) int {
	stereoLen := len(b)
	frames := stereoLen / 4
	for i := frames - 1; i >= 0; i-- {
		s0, s1 := b[i*2], b[i*2+1]
		j := i * 4
		b[j], b[j+1] = s0, s1
		b[j+2], b[j+3] = s0, s1
	}
	return stereoLen
}
