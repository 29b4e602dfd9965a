package pcm

import (
	"testing"
	"time"
)

func TestFormatMath(t *testing.T) {
	f := Format{SampleRate: 16000, Channels: 1}

	if got := f.FrameBytes(); got != 2 {
		t.Errorf("FrameBytes = %d, want 2", got)
	}
	if got := f.BytesRate(); got != 32000 {
		t.Errorf("BytesRate = %d, want 32000", got)
	}
	if got := f.BytesInDuration(time.Second); got != 32000 {
		t.Errorf("BytesInDuration(1s) = %d, want 32000", got)
	}
	if got := f.Duration(32000); got != time.Second {
		t.Errorf("Duration(32000) = %v, want 1s", got)
	}
	if got := f.FramesInDuration(20 * time.Millisecond); got != 320 {
		t.Errorf("FramesInDuration(20ms) = %d, want 320", got)
	}
}

func TestFormatMathStereo(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 2}

	if got := f.FrameBytes(); got != 4 {
		t.Errorf("FrameBytes = %d, want 4", got)
	}
	if got := f.BytesRate(); got != 176400 {
		t.Errorf("BytesRate = %d, want 176400", got)
	}
	// One second round trips exactly.
	if got := f.Duration(f.BytesInDuration(time.Second)); got != time.Second {
		t.Errorf("round trip = %v, want 1s", got)
	}
	if got := f.AlignDown(7); got != 4 {
		t.Errorf("AlignDown(7) = %d, want 4", got)
	}
}

func TestFormatValid(t *testing.T) {
	for _, tt := range []struct {
		f    Format
		want bool
	}{
		{Format{16000, 1}, true},
		{Format{48000, 2}, true},
		{Format{}, false},
		{Format{16000, 0}, false},
		{Format{16000, 3}, false},
		{Format{-1, 1}, false},
	} {
		if got := tt.f.Valid(); got != tt.want {
			t.Errorf("%+v Valid = %v, want %v", tt.f, got, tt.want)
		}
	}
}
