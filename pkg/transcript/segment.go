// Package transcript models time-aligned transcript segments and keeps
// them synchronized with playback: position to active segment, and
// segment activation back to a playback seek.
package transcript

import (
	"fmt"
	"sort"
	"time"
)

// Segment is one timestamped transcript unit (a word or phrase). Its
// interval is [Start, End) on the audio timeline.
type Segment struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// Segments is an ordered, non-overlapping sequence of segments. Gaps
// between segments are allowed (silence).
type Segments []Segment

// Validate checks ordering, non-overlap and, when total > 0, that no
// timestamp exceeds the total duration.
func (s Segments) Validate(total time.Duration) error {
	prevEnd := time.Duration(0)
	for i, seg := range s {
		if seg.Start < 0 || seg.End < seg.Start {
			return fmt.Errorf("transcript: segment %d has invalid interval [%v, %v)", i, seg.Start, seg.End)
		}
		if seg.Start < prevEnd {
			return fmt.Errorf("transcript: segment %d overlaps its predecessor", i)
		}
		if total > 0 && seg.End > total {
			return fmt.Errorf("transcript: segment %d ends at %v, past total %v", i, seg.End, total)
		}
		prevEnd = seg.End
	}
	return nil
}

// ActiveAt returns the segment whose interval contains pos, or false when
// pos falls in a gap. Lookup is a binary search; this is called once per
// render tick.
func (s Segments) ActiveAt(pos time.Duration) (Segment, bool) {
	// First segment ending after pos.
	i := sort.Search(len(s), func(i int) bool {
		return s[i].End > pos
	})
	if i < len(s) && s[i].Start <= pos {
		return s[i], true
	}
	return Segment{}, false
}

// Duration returns the end timestamp of the last segment.
func (s Segments) Duration() time.Duration {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].End
}
