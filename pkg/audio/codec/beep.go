package codec

import (
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"

	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
)

// streamDecoder adapts a beep streamer to the Decoder contract, converting
// normalized float64 samples to interleaved 16-bit little-endian PCM at
// the source channel count.
type streamDecoder struct {
	s      beep.StreamSeekCloser
	format pcm.Format
	frames int64

	buf  [512][2]float64
	done bool
}

// NewStreamDecoder wraps a beep decoder. Mono sources keep one channel;
// everything else is emitted as stereo.
func NewStreamDecoder(s beep.StreamSeekCloser, f beep.Format) Decoder {
	channels := 2
	if f.NumChannels == 1 {
		channels = 1
	}
	frames := int64(-1)
	if n := s.Len(); n > 0 {
		frames = int64(n)
	}
	return &streamDecoder{
		s:      s,
		format: pcm.Format{SampleRate: int(f.SampleRate), Channels: channels},
		frames: frames,
	}
}

func (d *streamDecoder) Format() pcm.Format { return d.format }

func (d *streamDecoder) Frames() int64 { return d.frames }

func (d *streamDecoder) Read(p []byte) (int, error) {
	if d.done {
		return 0, io.EOF
	}
	fb := d.format.FrameBytes()
	if len(p) < fb {
		return 0, io.ErrShortBuffer
	}

	want := len(p) / fb
	if want > len(d.buf) {
		want = len(d.buf)
	}

	n, ok := d.s.Stream(d.buf[:want])
	if n == 0 && !ok {
		d.done = true
		if err := d.s.Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return 0, io.EOF
	}

	for i := range n {
		off := i * fb
		putSample(p[off:], d.buf[i][0])
		if d.format.Channels == 2 {
			putSample(p[off+2:], d.buf[i][1])
		}
	}
	return n * fb, nil
}

func (d *streamDecoder) Close() error {
	d.done = true
	return d.s.Close()
}

// putSample writes a normalized sample as int16 little-endian, clipping
// out-of-range values.
func putSample(b []byte, s float64) {
	v := int(s * 32767)
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
