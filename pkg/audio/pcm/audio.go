package pcm

import (
	"sync"
	"time"
)

// Audio is the retained decode buffer for one source. The decoder appends
// to it from a background goroutine until the stream is exhausted; once
// Finish is called the buffer is immutable and may be read concurrently
// without coordination.
//
// Readers use ReadAt, which never blocks: a read past the decoded prefix
// returns what is available (possibly nothing). This is what the playback
// feed loop relies on to keep the output device serviced without waiting
// on the decoder.
type Audio struct {
	format Format

	mu       sync.RWMutex
	data     []byte
	complete bool
	err      error

	done chan struct{}
}

// NewAudio creates an empty retained buffer for the given format.
// If total frames are known up front, sizeHint avoids regrowth.
func NewAudio(format Format, sizeHint int64) *Audio {
	var data []byte
	if sizeHint > 0 {
		data = make([]byte, 0, sizeHint)
	}
	return &Audio{
		format: format,
		data:   data,
		done:   make(chan struct{}),
	}
}

// Format returns the PCM format of the buffered audio.
func (a *Audio) Format() Format { return a.format }

// Append adds decoded bytes to the buffer. It must only be called by the
// decoding goroutine, and never after Finish.
func (a *Audio) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	a.mu.Lock()
	a.data = append(a.data, p...)
	a.mu.Unlock()
}

// Finish marks decoding as complete. A non-nil err records a mid-stream
// decode failure; the decoded prefix remains readable.
func (a *Audio) Finish(err error) {
	a.mu.Lock()
	if !a.complete {
		a.complete = true
		a.err = err
		close(a.done)
	}
	a.mu.Unlock()
}

// Len returns the number of decoded bytes available so far.
func (a *Audio) Len() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return int64(len(a.data))
}

// Complete reports whether decoding has finished.
func (a *Audio) Complete() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.complete
}

// Err returns the decode error recorded by Finish, if any.
func (a *Audio) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

// Duration returns the duration of the decoded prefix.
func (a *Audio) Duration() time.Duration {
	return a.format.Duration(a.Len())
}

// ReadAt copies decoded bytes starting at off into p. It never blocks;
// it returns the number of bytes copied, which is zero when off is at or
// past the decoded prefix. The second result reports whether the end of
// the completed stream has been reached.
func (a *Audio) ReadAt(p []byte, off int64) (n int, end bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if off < int64(len(a.data)) {
		n = copy(p, a.data[off:])
	}
	end = a.complete && off+int64(n) >= int64(len(a.data))
	return n, end
}

// Bytes returns the decoded data. It must only be called after decoding
// is complete; the returned slice is shared and must not be modified.
func (a *Audio) Bytes() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data
}

// Done returns a channel that is closed when decoding finishes.
func (a *Audio) Done() <-chan struct{} { return a.done }
