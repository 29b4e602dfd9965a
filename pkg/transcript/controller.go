package transcript

import (
	"sync"
	"time"
)

// Seeker is the slice of the playback engine the controller needs.
type Seeker interface {
	Seek(time.Duration) error
}

// Controller keeps the transcript display and playback position mutually
// consistent. It owns the segment list for the lifetime of a session.
//
// Until SetSegments is called (transcription complete), every lookup
// returns no segment and Activate is a no-op.
type Controller struct {
	seeker Seeker

	mu     sync.RWMutex
	segs   Segments
	ready  bool
	active Segment
	hasAct bool
}

// NewController creates a controller issuing seeks to the given seeker.
func NewController(seeker Seeker) *Controller {
	return &Controller{seeker: seeker}
}

// SetSegments installs the completed transcript and immediately
// recomputes the active segment for the current position, so a session
// that finishes transcribing mid-playback never shows a stale gap until
// the next position update.
func (c *Controller) SetSegments(segs Segments, pos time.Duration) {
	c.mu.Lock()
	c.segs = segs
	c.ready = true
	c.active, c.hasAct = segs.ActiveAt(pos)
	c.mu.Unlock()
}

// Clear discards the segment list, returning the controller to its
// pre-transcription state. Called when a new source loads.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.segs = nil
	c.ready = false
	c.active, c.hasAct = Segment{}, false
	c.mu.Unlock()
}

// Ready reports whether a transcript is installed.
func (c *Controller) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Segments returns the installed transcript, or nil before completion.
func (c *Controller) Segments() Segments {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.segs
}

// ActiveAt returns the segment containing pos and refreshes the cached
// active segment. Returns false in a gap or before the transcript is
// installed.
func (c *Controller) ActiveAt(pos time.Duration) (Segment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return Segment{}, false
	}
	c.active, c.hasAct = c.segs.ActiveAt(pos)
	return c.active, c.hasAct
}

// Active returns the last computed active segment without a lookup.
func (c *Controller) Active() (Segment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active, c.hasAct
}

// Activate handles a user click on a segment by seeking playback to the
// segment's start. It is a no-op until the transcript is installed.
func (c *Controller) Activate(seg Segment) error {
	c.mu.RLock()
	ready := c.ready
	c.mu.RUnlock()
	if !ready {
		return nil
	}
	return c.seeker.Seek(seg.Start)
}
