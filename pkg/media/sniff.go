package media

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/verbatim-audio/verbatim/pkg/audio/codec"
)

// sniffLen is how many leading bytes format detection looks at.
const sniffLen = 12

// DetectBytes identifies a container by its magic bytes. It returns
// codec.Unknown when nothing matches.
func DetectBytes(b []byte) codec.Format {
	switch {
	case len(b) >= 12 && bytes.Equal(b[:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WAVE")):
		return codec.Wav
	case len(b) >= 4 && bytes.Equal(b[:4], []byte("fLaC")):
		return codec.Flac
	case len(b) >= 8 && bytes.Equal(b[4:8], []byte("ftyp")):
		return codec.M4a
	case len(b) >= 3 && bytes.Equal(b[:3], []byte("ID3")):
		return codec.Mp3
	case len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0:
		// Bare MPEG frame sync, an untagged mp3.
		return codec.Mp3
	}
	return codec.Unknown
}

// detectExtension maps a file extension to a container format.
func detectExtension(path string) codec.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return codec.Mp3
	case ".m4a", ".mp4":
		return codec.M4a
	case ".wav":
		return codec.Wav
	case ".flac":
		return codec.Flac
	}
	return codec.Unknown
}
