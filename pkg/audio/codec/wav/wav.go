// Package wav registers the WAV decoder.
package wav

import (
	"fmt"

	"github.com/gopxl/beep/v2/wav"

	"github.com/verbatim-audio/verbatim/pkg/audio/codec"
)

func init() {
	codec.Register(codec.Wav, open)
}

func open(in codec.Input) (codec.Decoder, error) {
	s, format, err := wav.Decode(in.R)
	if err != nil {
		return nil, fmt.Errorf("wav: %w: %v", codec.ErrUnsupportedFormat, err)
	}
	return codec.NewStreamDecoder(s, format), nil
}
