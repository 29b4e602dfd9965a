package speech

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
)

func TestEncodeWAV(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	got := encodeWAV(pcm.Format{SampleRate: 16000, Channels: 1}, data)

	if len(got) != 44+len(data) {
		t.Fatalf("len = %d, want %d", len(got), 44+len(data))
	}
	if !bytes.Equal(got[0:4], []byte("RIFF")) || !bytes.Equal(got[8:12], []byte("WAVE")) {
		t.Error("bad RIFF/WAVE tags")
	}
	if n := binary.LittleEndian.Uint32(got[4:]); n != uint32(36+len(data)) {
		t.Errorf("riff size = %d", n)
	}
	if rate := binary.LittleEndian.Uint32(got[24:]); rate != 16000 {
		t.Errorf("sample rate = %d", rate)
	}
	if br := binary.LittleEndian.Uint32(got[28:]); br != 32000 {
		t.Errorf("byte rate = %d", br)
	}
	if ba := binary.LittleEndian.Uint16(got[32:]); ba != 2 {
		t.Errorf("block align = %d", ba)
	}
	if n := binary.LittleEndian.Uint32(got[40:]); n != uint32(len(data)) {
		t.Errorf("data size = %d", n)
	}
	if !bytes.Equal(got[44:], data) {
		t.Error("payload mismatch")
	}
}
