// Package flac registers the FLAC decoder.
package flac

import (
	"fmt"

	"github.com/gopxl/beep/v2/flac"

	"github.com/verbatim-audio/verbatim/pkg/audio/codec"
)

func init() {
	codec.Register(codec.Flac, open)
}

func open(in codec.Input) (codec.Decoder, error) {
	s, format, err := flac.Decode(in.R)
	if err != nil {
		return nil, fmt.Errorf("flac: %w: %v", codec.ErrUnsupportedFormat, err)
	}
	return codec.NewStreamDecoder(s, format), nil
}
