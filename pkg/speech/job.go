package speech

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
	"github.com/verbatim-audio/verbatim/pkg/transcript"
)

// State is the observable transcription lifecycle state.
type State int

const (
	NotRequested State = iota
	Running
	Complete
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NotRequested:
		return "NotRequested"
	case Running:
		return "Running"
	case Complete:
		return "Complete"
	case Failed:
		return "Failed"
	}
	return "Unknown"
}

// JobOption configures a Job.
type JobOption func(*Job)

// WithLogger sets the job's logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) JobOption {
	return func(j *Job) { j.log = log }
}

// WithOnComplete sets a callback invoked from the job goroutine when
// segments become available. The callback must be quick and must not call
// back into the job.
func WithOnComplete(fn func(transcript.Segments)) JobOption {
	return func(j *Job) { j.onComplete = fn }
}

// Job runs a transcriber over one source's decoded audio at most once.
//
// Start while Running is a no-op; Start after Complete keeps the cached
// result; Start after a transient failure retries. Cancel (or cancelling
// the context passed to Start) aborts the run and returns the job to
// NotRequested — a cancelled run never publishes stale segments.
type Job struct {
	transcriber Transcriber
	audio       *pcm.Audio
	log         *slog.Logger
	onComplete  func(transcript.Segments)

	mu     sync.Mutex
	state  State
	segs   transcript.Segments
	err    error
	cancel context.CancelFunc
	gen    int // incremented per cancel, fences stale goroutine results
}

// NewJob creates a Job for the given fully-or-partially decoded audio.
// The transcriber only runs once decoding completes.
func NewJob(t Transcriber, audio *pcm.Audio, opts ...JobOption) *Job {
	j := &Job{
		transcriber: t,
		audio:       audio,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start begins transcription in the background. It returns immediately;
// completion is observed via State, Segments or the OnComplete callback.
func (j *Job) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	switch j.state {
	case Running, Complete:
		return
	case Failed:
		if !IsTransient(j.err) {
			return
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	j.state = Running
	j.err = nil
	j.cancel = cancel
	j.gen++
	gen := j.gen

	go j.run(ctx, gen)
}

func (j *Job) run(ctx context.Context, gen int) {
	start := time.Now()

	// The backends need the whole stream; wait out the decoder.
	select {
	case <-j.audio.Done():
	case <-ctx.Done():
		j.finish(gen, nil, ctx.Err())
		return
	}

	segs, err := j.transcriber.Transcribe(ctx, j.audio)
	if err == nil {
		if verr := segs.Validate(j.audio.Duration()); verr != nil {
			err = Permanent(verr)
		}
	}
	if err == nil {
		j.log.Debug("transcription complete",
			"segments", len(segs),
			"elapsed", time.Since(start))
	}
	j.finish(gen, segs, err)
}

func (j *Job) finish(gen int, segs transcript.Segments, err error) {
	j.mu.Lock()
	if gen != j.gen {
		// A cancel superseded this run; its result is stale.
		j.mu.Unlock()
		return
	}
	j.cancel = nil

	var notify func(transcript.Segments)
	switch {
	case err == nil:
		j.state = Complete
		j.segs = segs
		notify = j.onComplete
	case errors.Is(err, context.Canceled):
		j.state = NotRequested
	default:
		j.state = Failed
		j.err = err
		j.log.Warn("transcription failed", "err", err)
	}
	j.mu.Unlock()

	if notify != nil {
		notify(segs)
	}
}

// Cancel aborts a running transcription and discards any result it would
// have produced. Safe to call in any state.
func (j *Job) Cancel() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.gen++
	if j.state == Running {
		j.state = NotRequested
	}
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// State returns the current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Segments returns the completed transcript, or false before Complete.
func (j *Job) Segments() (transcript.Segments, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != Complete {
		return nil, false
	}
	return j.segs, true
}

// Err returns the failure recorded by the last run, if any.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}
