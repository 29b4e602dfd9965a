// Package codec defines the decode contract shared by all supported audio
// containers and a registry dispatching a container format to its decoder.
//
// Decoder packages register themselves in init, in the manner of the image
// package. Importing a decoder package for its side effect enables that
// container:
//
//	import _ "github.com/verbatim-audio/verbatim/pkg/audio/codec/mp3"
//
// Adding a container means adding one decoder package and one Register
// call; nothing else changes.
package codec

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
)

// Errors reported by decoders.
var (
	// ErrUnsupportedFormat reports that no decoder matches the input.
	ErrUnsupportedFormat = errors.New("codec: unsupported format")

	// ErrDecode reports a corrupt stream. Data decoded before the error
	// remains valid.
	ErrDecode = errors.New("codec: corrupt stream")
)

// Format identifies a supported audio container.
type Format int

const (
	Unknown Format = iota
	Mp3
	M4a
	Wav
	Flac
)

// String returns the conventional file extension for the format.
func (f Format) String() string {
	switch f {
	case Mp3:
		return "mp3"
	case M4a:
		return "m4a"
	case Wav:
		return "wav"
	case Flac:
		return "flac"
	}
	return "unknown"
}

// Input describes the data handed to an Opener. R is always set and
// positioned at the start of the stream. Path is set when the input is
// backed by a file on disk; decoders that need seekable or re-openable
// input (m4a) prefer it.
type Input struct {
	Path string
	R    io.Reader
}

// Decoder produces a finite, non-restartable stream of interleaved 16-bit
// little-endian PCM. Format is valid once the decoder is open.
type Decoder interface {
	io.ReadCloser

	// Format returns the PCM format of the decoded output.
	Format() pcm.Format

	// Frames returns the total number of sample frames if known up
	// front, or -1 when the container does not carry that information.
	Frames() int64
}

// Opener opens a Decoder over the given input. Open-time failures such as
// an unsupported codec variant are returned immediately.
type Opener func(in Input) (Decoder, error)

var (
	openersMu sync.RWMutex
	openers   = map[Format]Opener{}
)

// Register makes an Opener available for a container format.
// It panics on duplicate registration.
func Register(f Format, o Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	if _, dup := openers[f]; dup {
		panic(fmt.Sprintf("codec: duplicate registration for %v", f))
	}
	openers[f] = o
}

// Open dispatches to the registered Opener for the format.
func Open(f Format, in Input) (Decoder, error) {
	openersMu.RLock()
	o, ok := openers[f]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no decoder for %v", ErrUnsupportedFormat, f)
	}
	return o(in)
}

// Registered reports whether a decoder exists for the format.
func Registered(f Format) bool {
	openersMu.RLock()
	defer openersMu.RUnlock()
	_, ok := openers[f]
	return ok
}
