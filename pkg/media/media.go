// Package media resolves an input source (a file path or an in-memory
// byte buffer) into a running decode session. Container detection is
// content-first: file extensions are used as a hint but never trusted
// over the magic bytes.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/verbatim-audio/verbatim/pkg/audio/codec"

	_ "github.com/verbatim-audio/verbatim/pkg/audio/codec/flac"
	_ "github.com/verbatim-audio/verbatim/pkg/audio/codec/m4a"
	_ "github.com/verbatim-audio/verbatim/pkg/audio/codec/mp3"
	_ "github.com/verbatim-audio/verbatim/pkg/audio/codec/wav"
)

// Source is an immutable input descriptor: either a path on disk or an
// owned byte buffer.
type Source struct {
	path string
	data []byte
}

// FromPath creates a Source referring to a file on disk.
func FromPath(path string) Source {
	return Source{path: path}
}

// FromBytes creates a Source owning the given buffer. The caller must not
// modify b afterwards.
func FromBytes(b []byte) Source {
	return Source{data: b}
}

// Path returns the file path, or "" for byte-backed sources.
func (s Source) Path() string { return s.path }

// Zero reports whether the source is empty.
func (s Source) Zero() bool {
	return s.path == "" && s.data == nil
}

// String identifies the source for logging.
func (s Source) String() string {
	if s.path != "" {
		return s.path
	}
	return fmt.Sprintf("bytes(%d)", len(s.data))
}

// Open detects the source's container format and opens a decoder over it.
// For path sources the file handle is held for the life of the decoder and
// released by its Close (or immediately on open failure).
func Open(src Source) (codec.Decoder, codec.Format, error) {
	if src.path != "" {
		return openPath(src.path)
	}

	format := DetectBytes(src.data)
	if format == codec.Unknown {
		return nil, codec.Unknown, fmt.Errorf("media: %w", codec.ErrUnsupportedFormat)
	}
	dec, err := codec.Open(format, codec.Input{R: bytes.NewReader(src.data)})
	if err != nil {
		return nil, format, err
	}
	return dec, format, nil
}

func openPath(path string) (codec.Decoder, codec.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, codec.Unknown, fmt.Errorf("media: %w", err)
	}

	format, err := detectFile(f, path)
	if err != nil {
		f.Close()
		return nil, codec.Unknown, err
	}

	dec, err := codec.Open(format, codec.Input{Path: path, R: f})
	if err != nil {
		f.Close()
		return nil, format, err
	}
	return &fileDecoder{Decoder: dec, f: f}, format, nil
}

// detectFile sniffs the file header, falling back to the extension when
// the content is inconclusive.
func detectFile(f *os.File, path string) (codec.Format, error) {
	header := make([]byte, sniffLen)
	n, err := f.Read(header)
	if err != nil && !errors.Is(err, io.EOF) {
		return codec.Unknown, fmt.Errorf("media: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return codec.Unknown, fmt.Errorf("media: %w", err)
	}

	format := DetectBytes(header[:n])
	if format == codec.Unknown {
		format = detectExtension(path)
	}
	if format == codec.Unknown {
		return codec.Unknown, fmt.Errorf("media: %w", codec.ErrUnsupportedFormat)
	}
	return format, nil
}

// fileDecoder ties the lifetime of the backing file handle to the decoder.
type fileDecoder struct {
	codec.Decoder
	f *os.File
}

func (d *fileDecoder) Close() error {
	err := d.Decoder.Close()
	if cerr := d.f.Close(); err == nil {
		err = cerr
	}
	return err
}
