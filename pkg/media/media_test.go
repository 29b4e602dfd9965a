package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/verbatim-audio/verbatim/pkg/audio/codec"
)

func TestDetectBytes(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
		want codec.Format
	}{
		{"wav", []byte("RIFF\x24\x08\x00\x00WAVEfmt "), codec.Wav},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), codec.Flac},
		{"m4a", []byte("\x00\x00\x00\x20ftypM4A "), codec.M4a},
		{"mp3 id3", []byte("ID3\x04\x00\x00\x00\x00\x00\x00"), codec.Mp3},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, codec.Mp3},
		{"garbage", []byte("not audio at all"), codec.Unknown},
		{"empty", nil, codec.Unknown},
		{"riff but not wave", []byte("RIFF\x24\x08\x00\x00AVI LIST"), codec.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectBytes(tt.b); got != tt.want {
				t.Errorf("DetectBytes = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectFileIgnoresLyingExtension(t *testing.T) {
	// A WAV header in a file named .mp3: content wins.
	dir := t.TempDir()
	path := filepath.Join(dir, "lying.mp3")
	if err := os.WriteFile(path, []byte("RIFF\x24\x08\x00\x00WAVEfmt "), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, err := detectFile(f, path)
	if err != nil {
		t.Fatal(err)
	}
	if got != codec.Wav {
		t.Errorf("detectFile = %v, want Wav", got)
	}
}

func TestDetectFileExtensionFallback(t *testing.T) {
	// Inconclusive content, trustworthy extension.
	dir := t.TempDir()
	path := filepath.Join(dir, "short.flac")
	if err := os.WriteFile(path, []byte{0x01}, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, err := detectFile(f, path)
	if err != nil {
		t.Fatal(err)
	}
	if got != codec.Flac {
		t.Errorf("detectFile = %v, want Flac", got)
	}
}

func TestOpenUnsupported(t *testing.T) {
	_, _, err := Open(FromBytes([]byte("definitely not audio")))
	if !errors.Is(err, codec.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestSourceString(t *testing.T) {
	if got := FromPath("/tmp/a.mp3").String(); got != "/tmp/a.mp3" {
		t.Errorf("path source String = %q", got)
	}
	if got := FromBytes(make([]byte, 42)).String(); got != "bytes(42)" {
		t.Errorf("bytes source String = %q", got)
	}
	if !(Source{}).Zero() {
		t.Error("zero Source not reported as Zero")
	}
}

func TestFormatDuration(t *testing.T) {
	for _, tt := range []struct {
		d    time.Duration
		want string
	}{
		{64 * time.Second, "01:04"},
		{5422 * time.Second, "01:30:22"},
		{0, "00:00"},
		{59 * time.Second, "00:59"},
		{time.Hour, "01:00:00"},
	} {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
