package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/verbatim-audio/verbatim/pkg/audio/codec"
	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
	"github.com/verbatim-audio/verbatim/pkg/speech"
	"github.com/verbatim-audio/verbatim/pkg/transcript"
)

// scriptedTranscriber returns canned segments, optionally blocking until
// released or cancelled.
type scriptedTranscriber struct {
	mu    sync.Mutex
	runs  int
	segs  transcript.Segments
	block chan struct{}
}

func (st *scriptedTranscriber) Transcribe(ctx context.Context, audio *pcm.Audio) (transcript.Segments, error) {
	st.mu.Lock()
	st.runs++
	st.mu.Unlock()
	if st.block != nil {
		select {
		case <-st.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return st.segs, nil
}

func (st *scriptedTranscriber) runCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.runs
}

func waitTranscription(t *testing.T, p *Player, want speech.State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if p.TranscriptionState() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("transcription state = %v, want %v", p.TranscriptionState(), want)
}

func TestTranscribeAndAlign(t *testing.T) {
	st := &scriptedTranscriber{segs: transcript.Segments{
		{Text: "hello", Start: 0, End: 1200 * time.Millisecond},
		{Text: "world", Start: 1500 * time.Millisecond, End: 2 * time.Second},
	}}
	p := New(WithOutputOpener(fakeOpener(&fakeOutput{})), WithTranscriber(st))
	defer p.Close()
	loadWAV(t, p, 2*time.Second)

	if _, ok := p.ActiveSegment(); ok {
		t.Fatal("active segment before transcription")
	}
	if p.TranscriptionState() != speech.NotRequested {
		t.Fatalf("initial transcription state = %v", p.TranscriptionState())
	}

	if err := p.Transcribe(context.Background()); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	waitTranscription(t, p, speech.Complete)

	if segs := p.Segments(); len(segs) != 2 {
		t.Fatalf("Segments = %v", segs)
	}

	if err := p.Seek(800 * time.Millisecond); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if seg, ok := p.ActiveSegment(); !ok || seg.Text != "hello" {
		t.Errorf("active at 0.8s = (%v, %v), want hello", seg, ok)
	}

	if err := p.Seek(1300 * time.Millisecond); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if seg, ok := p.ActiveSegment(); ok {
		t.Errorf("active in gap at 1.3s = %v, want none", seg)
	}

	// Click-to-seek: activating a segment moves playback to its start.
	if err := p.ActivateSegment(p.Segments()[1]); err != nil {
		t.Fatalf("ActivateSegment: %v", err)
	}
	if got := p.Position(); got != 1500*time.Millisecond {
		t.Errorf("position after activation = %v, want 1.5s", got)
	}
	if seg, ok := p.ActiveSegment(); !ok || seg.Text != "world" {
		t.Errorf("active after activation = (%v, %v), want world", seg, ok)
	}
}

func TestTranscribeCachesResult(t *testing.T) {
	st := &scriptedTranscriber{segs: transcript.Segments{
		{Text: "once", Start: 0, End: time.Second},
	}}
	p := New(WithOutputOpener(fakeOpener(&fakeOutput{})), WithTranscriber(st))
	defer p.Close()
	loadWAV(t, p, 2*time.Second)

	ctx := context.Background()
	if err := p.Transcribe(ctx); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	waitTranscription(t, p, speech.Complete)

	if err := p.Transcribe(ctx); err != nil {
		t.Fatalf("repeat Transcribe: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if got := st.runCount(); got != 1 {
		t.Errorf("backend ran %d times, want 1", got)
	}
	if segs := p.Segments(); len(segs) != 1 || segs[0].Text != "once" {
		t.Errorf("cached Segments = %v", segs)
	}
}

func TestLoadCancelsRunningTranscription(t *testing.T) {
	release := make(chan struct{})
	st := &scriptedTranscriber{
		segs:  transcript.Segments{{Text: "stale", Start: 0, End: time.Second}},
		block: release,
	}
	p := New(WithOutputOpener(fakeOpener(&fakeOutput{})), WithTranscriber(st))
	defer p.Close()
	loadWAV(t, p, 2*time.Second)

	if err := p.Transcribe(context.Background()); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	waitTranscription(t, p, speech.Running)

	loadWAV(t, p, time.Second) // cancels the in-flight job

	if got := p.TranscriptionState(); got != speech.NotRequested {
		t.Fatalf("state after reload = %v, want NotRequested", got)
	}

	// Even if the old backend call finishes successfully, its result must
	// never surface.
	close(release)
	time.Sleep(20 * time.Millisecond)
	if segs := p.Segments(); segs != nil {
		t.Errorf("stale segments surfaced after reload: %v", segs)
	}
	if got := p.TranscriptionState(); got != speech.NotRequested {
		t.Errorf("state = %v, want NotRequested", got)
	}
}

func TestTranscribeWithoutSourceOrBackend(t *testing.T) {
	p := New(WithOutputOpener(fakeOpener(&fakeOutput{})))
	defer p.Close()

	if err := p.Transcribe(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Errorf("Transcribe before load: %v", err)
	}

	loadWAV(t, p, time.Second)
	if err := p.Transcribe(context.Background()); !errors.Is(err, ErrNoTranscriber) {
		t.Errorf("Transcribe without backend: %v", err)
	}
}

func TestTranscribeFlacRejected(t *testing.T) {
	p := New(WithOutputOpener(fakeOpener(&fakeOutput{})), WithTranscriber(&scriptedTranscriber{}))
	defer p.Close()

	a := pcm.NewAudio(testFormat, 0)
	a.Finish(nil)
	p.mu.Lock()
	p.session = &session{
		id:           "flac",
		container:    codec.Flac,
		format:       testFormat,
		audio:        a,
		cancelDecode: func() {},
	}
	p.state = Ready
	p.mu.Unlock()

	err := p.Transcribe(context.Background())
	if !errors.Is(err, speech.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
	if got := p.TranscriptionState(); got != speech.NotRequested {
		t.Errorf("state = %v, want NotRequested", got)
	}
}

func TestReconciliationOnLateCompletion(t *testing.T) {
	release := make(chan struct{})
	st := &scriptedTranscriber{
		segs:  transcript.Segments{{Text: "late", Start: 0, End: 2 * time.Second}},
		block: release,
	}
	p := New(WithOutputOpener(fakeOpener(&fakeOutput{})), WithTranscriber(st))
	defer p.Close()
	loadWAV(t, p, 2*time.Second)

	if err := p.Seek(time.Second); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if err := p.Transcribe(context.Background()); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	waitTranscription(t, p, speech.Running)

	// Completion arrives with playback already positioned mid-stream; the
	// controller must recompute the active segment immediately.
	close(release)
	waitTranscription(t, p, speech.Complete)
	if seg, ok := p.ctrl.Active(); !ok || seg.Text != "late" {
		t.Errorf("active after late completion = (%v, %v), want late", seg, ok)
	}
}
