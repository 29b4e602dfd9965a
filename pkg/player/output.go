package player

import (
	"fmt"
	"io"
	"time"

	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
	"github.com/verbatim-audio/verbatim/pkg/audio/portaudio"
)

// Output is a playback sink consuming little-endian 16-bit PCM. Write must
// block until the device has consumed the block; that back-pressure is what
// paces the feed loop at real time.
type Output interface {
	io.WriteCloser
}

// OutputOpener opens an Output for the given format. The player opens the
// device lazily on the first Play and closes it on Stop, Load and Close.
type OutputOpener func(format pcm.Format, block time.Duration) (Output, error)

// OutputDeviceError wraps a failure to open or write the output device.
// It surfaces synchronously from the call that opened the stream.
type OutputDeviceError struct {
	Err error
}

func (e *OutputDeviceError) Error() string {
	return fmt.Sprintf("output device: %v", e.Err)
}

func (e *OutputDeviceError) Unwrap() error { return e.Err }

// DefaultOutput opens the default PortAudio output device.
func DefaultOutput(format pcm.Format, block time.Duration) (Output, error) {
	return portaudio.NewOutputStream(format, block)
}
