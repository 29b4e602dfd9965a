package transcript

import (
	"testing"
	"time"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestActiveAt(t *testing.T) {
	segs := Segments{
		{Text: "hello", Start: 0, End: ms(1200)},
		{Text: "world", Start: ms(1500), End: ms(2000)},
	}

	tests := []struct {
		pos      time.Duration
		wantText string
		wantOK   bool
	}{
		{ms(800), "hello", true},
		{ms(1300), "", false}, // gap
		{ms(1700), "world", true},
		{0, "hello", true},
		{ms(1200), "", false}, // End is exclusive, and still in the gap
		{ms(1500), "world", true},
		{ms(2000), "", false}, // past the last segment
		{ms(5000), "", false},
	}
	for _, tt := range tests {
		got, ok := segs.ActiveAt(tt.pos)
		if ok != tt.wantOK || got.Text != tt.wantText {
			t.Errorf("ActiveAt(%v) = (%q, %v), want (%q, %v)",
				tt.pos, got.Text, ok, tt.wantText, tt.wantOK)
		}
	}
}

func TestActiveAtEmpty(t *testing.T) {
	if _, ok := Segments(nil).ActiveAt(ms(100)); ok {
		t.Error("ActiveAt on empty segments returned a segment")
	}
}

func TestValidate(t *testing.T) {
	good := Segments{
		{Text: "a", Start: 0, End: ms(100)},
		{Text: "b", Start: ms(100), End: ms(200)},
		{Text: "c", Start: ms(500), End: ms(900)},
	}
	if err := good.Validate(ms(1000)); err != nil {
		t.Errorf("Validate(good) = %v", err)
	}

	overlapping := Segments{
		{Text: "a", Start: 0, End: ms(100)},
		{Text: "b", Start: ms(50), End: ms(200)},
	}
	if err := overlapping.Validate(0); err == nil {
		t.Error("Validate accepted overlapping segments")
	}

	inverted := Segments{{Text: "a", Start: ms(200), End: ms(100)}}
	if err := inverted.Validate(0); err == nil {
		t.Error("Validate accepted an inverted interval")
	}

	tooLong := Segments{{Text: "a", Start: 0, End: ms(2000)}}
	if err := tooLong.Validate(ms(1000)); err == nil {
		t.Error("Validate accepted a segment past total duration")
	}
}

func TestSegmentsDuration(t *testing.T) {
	segs := Segments{
		{Text: "a", Start: 0, End: ms(100)},
		{Text: "b", Start: ms(200), End: ms(450)},
	}
	if got := segs.Duration(); got != ms(450) {
		t.Errorf("Duration = %v, want 450ms", got)
	}
	if got := Segments(nil).Duration(); got != 0 {
		t.Errorf("empty Duration = %v, want 0", got)
	}
}
