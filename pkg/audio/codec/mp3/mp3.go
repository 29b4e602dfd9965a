// Package mp3 registers the MP3 decoder.
package mp3

import (
	"fmt"
	"io"

	"github.com/gopxl/beep/v2/mp3"

	"github.com/verbatim-audio/verbatim/pkg/audio/codec"
)

func init() {
	codec.Register(codec.Mp3, open)
}

func open(in codec.Input) (codec.Decoder, error) {
	rc, ok := in.R.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(in.R)
	}
	s, format, err := mp3.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w: %v", codec.ErrUnsupportedFormat, err)
	}
	return codec.NewStreamDecoder(s, format), nil
}
