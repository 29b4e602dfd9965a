package resampler

import (
	"bytes"
	"io"
	"testing"

	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
)

func TestPassthrough(t *testing.T) {
	fmt16k := pcm.Format{SampleRate: 16000, Channels: 1}
	src := []byte{1, 0, 2, 0, 3, 0, 4, 0}

	r, err := New(bytes.NewReader(src), fmt16k, fmt16k)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, src) {
		t.Errorf("passthrough = %v, want %v", got, src)
	}
}

func TestMonoToStereoConversion(t *testing.T) {
	mono := pcm.Format{SampleRate: 16000, Channels: 1}
	stereo := pcm.Format{SampleRate: 16000, Channels: 2}
	src := []byte{1, 0, 2, 0}

	r, err := New(bytes.NewReader(src), mono, stereo)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 0, 1, 0, 2, 0, 2, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("upmix = %v, want %v", got, want)
	}
}

func TestStereoToMonoConversion(t *testing.T) {
	stereo := pcm.Format{SampleRate: 16000, Channels: 2}
	mono := pcm.Format{SampleRate: 16000, Channels: 1}
	// L=100, R=200 -> 150; L=10, R=20 -> 15
	src := []byte{100, 0, 200, 0, 10, 0, 20, 0}

	r, err := New(bytes.NewReader(src), stereo, mono)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{150, 0, 15, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("downmix = %v, want %v", got, want)
	}
}

func TestRateConversionProducesOutput(t *testing.T) {
	src := pcm.Format{SampleRate: 44100, Channels: 1}
	dst := pcm.Format{SampleRate: 16000, Channels: 1}

	in := make([]byte, src.BytesRate()/10) // 100ms of silence
	r, err := New(bytes.NewReader(in), src, dst)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	// ~100ms at the destination rate, allow generous converter latency.
	want := int(dst.BytesRate() / 10)
	if len(got) == 0 || len(got) > want*2 {
		t.Errorf("converted %d bytes, want around %d", len(got), want)
	}
	if len(got)%2 != 0 {
		t.Errorf("converted length %d not sample aligned", len(got))
	}
}

func TestClosedResampler(t *testing.T) {
	f := pcm.Format{SampleRate: 16000, Channels: 1}
	r, err := New(bytes.NewReader(make([]byte, 64)), f, f)
	if err != nil {
		t.Fatal(err)
	}
	r.Close()
	if _, err := r.Read(make([]byte, 16)); err == nil {
		t.Error("Read after Close returned nil error")
	}
}

func TestFrameReaderAlignment(t *testing.T) {
	// Source that dribbles out unaligned chunks.
	src := &dribbleReader{data: []byte{1, 2, 3, 4, 5, 6, 7, 8}, step: 3}
	fr := newFrameReader(src, 4)

	var out []byte
	buf := make([]byte, 8)
	for {
		n, err := fr.Read(buf)
		if n%4 != 0 {
			t.Fatalf("unaligned read of %d bytes", n)
		}
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Equal(out, src.data) {
		t.Errorf("reassembled = %v, want %v", out, src.data)
	}
}

type dribbleReader struct {
	data []byte
	off  int
	step int
}

func (d *dribbleReader) Read(p []byte) (int, error) {
	if d.off >= len(d.data) {
		return 0, io.EOF
	}
	n := d.step
	if n > len(d.data)-d.off {
		n = len(d.data) - d.off
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, d.data[d.off:d.off+n])
	d.off += n
	return n, nil
}
