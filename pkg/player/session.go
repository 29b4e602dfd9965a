package player

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/verbatim-audio/verbatim/pkg/audio/codec"
	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
	"github.com/verbatim-audio/verbatim/pkg/media"
	"github.com/verbatim-audio/verbatim/pkg/speech"
)

// session is the per-source playback state. Load replaces it wholesale, so
// a session never outlives its source: the feed loop, transcription job and
// decode goroutine of the old session are all torn down first.
type session struct {
	id        string
	source    media.Source
	container codec.Format
	format    pcm.Format
	audio     *pcm.Audio

	// frames is the probed total frame count, 0 when the container does
	// not announce it. It lets Duration answer before decoding finishes.
	frames int64

	cancelDecode context.CancelFunc

	cursor    atomic.Int64 // byte offset into audio, frame-aligned
	underruns atomic.Int64

	job *speech.Job
}

// totalBytes returns the best known size of the fully decoded stream.
func (s *session) totalBytes() int64 {
	if s.audio.Complete() {
		return s.audio.Len()
	}
	if s.frames > 0 {
		return s.frames * int64(s.format.FrameBytes())
	}
	return s.audio.Len()
}

// atEnd reports whether the cursor sits at the end of a finished stream.
func (s *session) atEnd() bool {
	return s.audio.Complete() && s.cursor.Load() >= s.audio.Len()
}

// cursorReader adapts the retained buffer to an io.Reader that follows the
// session cursor. It never blocks: a read past the decoded prefix of an
// unfinished stream yields silence and counts an underrun, so the output
// device keeps its cadence while the decoder catches up.
//
// The cursor is advanced with compare-and-swap so that a concurrent Seek
// always wins over an in-flight read.
type cursorReader struct {
	s *session
}

func (r *cursorReader) Read(p []byte) (int, error) {
	off := r.s.cursor.Load()
	n, end := r.s.audio.ReadAt(p, off)
	if n > 0 {
		r.s.cursor.CompareAndSwap(off, off+int64(n))
		return n, nil
	}
	if end {
		return 0, io.EOF
	}
	r.s.underruns.Add(1)
	pcm.Silence(p)
	return len(p), nil
}

func (r *cursorReader) Close() error { return nil }
