package portaudio

import (
	"errors"
	"sync"
	"time"

	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
)

// OutputStream plays little-endian 16-bit PCM on the default output device.
// Write blocks until the device consumes the block, so a caller writing
// fixed-size blocks is paced at real time. It implements io.WriteCloser.
type OutputStream struct {
	stream *stream
	format pcm.Format
	frames int
	buffer []int16
	mu     sync.Mutex
	closed bool
}

// NewOutputStream opens the default output device for playback.
// blockDuration sets the device buffer size; writes should not exceed it.
func NewOutputStream(format pcm.Format, blockDuration time.Duration) (*OutputStream, error) {
	if !format.Valid() {
		return nil, errors.New("portaudio: invalid format")
	}
	framesPerBuffer := int(format.FramesInDuration(blockDuration))
	if framesPerBuffer <= 0 {
		return nil, errors.New("portaudio: block duration too short")
	}

	stream, err := openStream(format.Channels, float64(format.SampleRate), framesPerBuffer)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}

	return &OutputStream{
		stream: stream,
		format: format,
		frames: framesPerBuffer,
		buffer: make([]int16, framesPerBuffer*format.Channels),
	}, nil
}

// Write plays p, interpreted as little-endian int16 frames. It blocks
// until the device has consumed the samples and always reports the full
// length written on success.
func (os *OutputStream) Write(p []byte) (int, error) {
	os.mu.Lock()
	defer os.mu.Unlock()

	if os.closed {
		return 0, errors.New("stream closed")
	}

	written := 0
	for len(p) > 0 {
		chunk := p
		if max := len(os.buffer) * 2; len(chunk) > max {
			chunk = chunk[:max]
		}
		n := len(chunk) / 2
		for i := 0; i < n; i++ {
			os.buffer[i] = int16(chunk[i*2]) | int16(chunk[i*2+1])<<8
		}
		if err := os.stream.Write(os.buffer[:n]); err != nil {
			return written, err
		}
		written += n * 2
		p = p[n*2:]
	}
	return written, nil
}

// Format returns the PCM format the stream was opened with.
func (os *OutputStream) Format() pcm.Format {
	return os.format
}

// BlockBytes returns the size in bytes of one device buffer.
func (os *OutputStream) BlockBytes() int {
	return len(os.buffer) * 2
}

// Close stops and closes the stream.
func (os *OutputStream) Close() error {
	os.mu.Lock()
	defer os.mu.Unlock()

	if os.closed {
		return nil
	}
	os.closed = true

	return os.stream.Close()
}
