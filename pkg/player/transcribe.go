package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/verbatim-audio/verbatim/pkg/audio/codec"
	"github.com/verbatim-audio/verbatim/pkg/speech"
	"github.com/verbatim-audio/verbatim/pkg/transcript"
)

// ErrNoTranscriber is returned by Transcribe when no backend was configured.
var ErrNoTranscriber = errors.New("player: no transcriber configured")

// Transcribe requests speech-to-text for the loaded source. It returns
// immediately; the job runs in the background once decoding finishes and
// its outcome is observed via TranscriptionState. Repeat calls while the
// job runs are no-ops, and after completion the cached result stands.
//
// flac sources are rejected up front: none of the backends accept them.
func (p *Player) Transcribe(ctx context.Context) error {
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()

	if s == nil {
		return ErrNoSource
	}
	if s.container == codec.Flac {
		return fmt.Errorf("%w: %s", speech.ErrUnsupportedFormat, s.container)
	}
	if s.job == nil {
		return ErrNoTranscriber
	}

	s.job.Start(ctx)
	return nil
}

// TranscriptionState reports the state of the transcription job for the
// loaded source. NotRequested when nothing is loaded or no job exists.
func (p *Player) TranscriptionState() speech.State {
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()

	if s == nil || s.job == nil {
		return speech.NotRequested
	}
	return s.job.State()
}

// TranscriptionErr returns the error of a failed transcription job.
func (p *Player) TranscriptionErr() error {
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()

	if s == nil || s.job == nil {
		return nil
	}
	return s.job.Err()
}

// Segments returns the transcript, or nil until transcription completes.
func (p *Player) Segments() transcript.Segments {
	return p.ctrl.Segments()
}

// ActiveSegment returns the transcript segment containing the current
// playback position, if transcription is complete and the position does
// not fall in a gap.
func (p *Player) ActiveSegment() (transcript.Segment, bool) {
	return p.ctrl.ActiveAt(p.Position())
}

// ActivateSegment seeks playback to the start of seg, for click-to-seek.
// A no-op until transcription completes.
func (p *Player) ActivateSegment(seg transcript.Segment) error {
	return p.ctrl.Activate(seg)
}

// onTranscribed hands a finished transcript to the alignment controller,
// which immediately recomputes the active segment for the current position
// so mid-playback completion never leaves a stale blank.
func (p *Player) onTranscribed(s *session, segs transcript.Segments) {
	p.mu.Lock()
	current := p.session == s
	p.mu.Unlock()
	if !current {
		return
	}
	p.ctrl.SetSegments(segs, p.Position())
	p.log.Info("transcript ready", "session", s.id, "segments", len(segs))
}
