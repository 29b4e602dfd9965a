// Package player is the playback engine: it owns the output stream, the
// decode-ahead buffer and the transport state machine, and exposes the
// snapshot queries a host UI polls once per render tick.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verbatim-audio/verbatim/pkg/audio/codec"
	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
	"github.com/verbatim-audio/verbatim/pkg/audio/resampler"
	"github.com/verbatim-audio/verbatim/pkg/media"
	"github.com/verbatim-audio/verbatim/pkg/speech"
	"github.com/verbatim-audio/verbatim/pkg/transcript"
)

// State is the playback state machine.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Playing
	Paused
	Seeking
	Stopped
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Seeking:
		return "seeking"
	case Stopped:
		return "stopped"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("player: closed")
	// ErrNoSource is returned by transport operations before a successful Load.
	ErrNoSource = errors.New("player: no source loaded")
)

const defaultBlock = 20 * time.Millisecond

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(p *Player) { p.log = log }
}

// WithOutputFormat forces a fixed device format; sources in any other
// format are converted in the feed loop. By default the device is opened
// in the source format and no conversion happens.
func WithOutputFormat(f pcm.Format) Option {
	return func(p *Player) { p.outFormat = f }
}

// WithBlockDuration sets the size of the blocks the feed loop writes to
// the output device. Defaults to 20ms.
func WithBlockDuration(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.block = d
		}
	}
}

// WithOutputOpener replaces the output device factory. Tests use this to
// inject a fake device.
func WithOutputOpener(open OutputOpener) Option {
	return func(p *Player) { p.opener = open }
}

// WithTranscriber sets the speech-to-text backend used by Transcribe.
func WithTranscriber(t speech.Transcriber) Option {
	return func(p *Player) { p.transcriber = t }
}

// WithTranscriberName selects a backend registered on the default speech
// mux by name.
func WithTranscriberName(name string) Option {
	return func(p *Player) { p.transcriber, _ = speech.Lookup(name) }
}

// feedHandle tracks one running feed goroutine.
type feedHandle struct {
	stop chan struct{}
	done chan struct{}
}

// Player plays one loaded source at a time. All methods are safe for
// concurrent use; position and state queries are non-blocking snapshots.
type Player struct {
	log         *slog.Logger
	opener      OutputOpener
	outFormat   pcm.Format // zero value: follow the source
	block       time.Duration
	transcriber speech.Transcriber

	volume pcm.AtomicFloat32

	ctrl *transcript.Controller

	mu      sync.Mutex
	state   State
	err     error
	session *session
	out     Output
	feedH   *feedHandle
	closed  bool
}

var _ transcript.Seeker = (*Player)(nil)

// New creates an idle player.
func New(opts ...Option) *Player {
	p := &Player{
		log:    slog.Default(),
		opener: DefaultOutput,
		block:  defaultBlock,
		volume: pcm.NewAtomicFloat32(1),
		state:  Idle,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.ctrl = transcript.NewController(p)
	return p
}

// Load binds a new source, replacing any previous one. Teardown order
// matters: the output feed stops first, then the in-flight transcription is
// cancelled, then the old decode buffer is released, so nothing reads a
// buffer that is going away. On success the player is Ready and decoding
// continues in the background.
func (p *Player) Load(ctx context.Context, source media.Source) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	h := p.detachFeedLocked()
	out := p.out
	p.out = nil
	old := p.session
	p.session = nil
	p.state = Loading
	p.err = nil
	p.mu.Unlock()

	stopFeed(h)
	if out != nil {
		out.Close()
	}
	if old != nil {
		if old.job != nil {
			old.job.Cancel()
		}
		old.cancelDecode()
	}
	p.ctrl.Clear()

	dec, container, err := media.Open(source)
	if err != nil {
		p.mu.Lock()
		p.state = Errored
		p.err = err
		p.mu.Unlock()
		return err
	}

	format := dec.Format()
	frames := dec.Frames()
	audio := pcm.NewAudio(format, frames*int64(format.FrameBytes()))

	dctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:           uuid.NewString(),
		source:       source,
		container:    container,
		format:       format,
		audio:        audio,
		frames:       frames,
		cancelDecode: cancel,
	}
	if p.transcriber != nil {
		s.job = speech.NewJob(p.transcriber, audio,
			speech.WithLogger(p.log),
			speech.WithOnComplete(func(segs transcript.Segments) {
				p.onTranscribed(s, segs)
			}))
	}

	go p.decode(dctx, s, dec)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		cancel()
		if s.job != nil {
			s.job.Cancel()
		}
		return ErrClosed
	}
	p.session = s
	p.state = Ready
	p.mu.Unlock()

	p.log.Info("source loaded",
		"session", s.id,
		"source", source,
		"container", container,
		"format", format)
	return nil
}

// decode drains the decoder into the retained buffer. A mid-stream failure
// is recorded but not fatal: the decoded prefix stays playable.
func (p *Player) decode(ctx context.Context, s *session, dec codec.Decoder) {
	defer dec.Close()

	buf := make([]byte, 64*1024)
	for {
		if ctx.Err() != nil {
			s.audio.Finish(ctx.Err())
			return
		}
		n, err := dec.Read(buf)
		if n > 0 {
			s.audio.Append(buf[:n])
		}
		if err == io.EOF {
			s.audio.Finish(nil)
			p.log.Debug("decode complete",
				"session", s.id,
				"duration", s.audio.Duration())
			return
		}
		if err != nil {
			s.audio.Finish(err)
			p.log.Warn("decode failed mid-stream",
				"session", s.id,
				"decoded", s.audio.Duration(),
				"err", err)
			p.mu.Lock()
			if p.session == s {
				p.err = err
			}
			p.mu.Unlock()
			return
		}
	}
}

// Play starts or resumes playback from the current position. The output
// device is opened lazily here; an open failure is returned as an
// *OutputDeviceError and leaves the state unchanged. Playing from the end
// of a finished stream restarts at zero.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	s := p.session
	if s == nil {
		return ErrNoSource
	}
	switch p.state {
	case Playing:
		return nil
	case Ready, Paused:
	default:
		return fmt.Errorf("player: cannot play while %s", p.state)
	}

	outFmt := s.format
	if p.outFormat.Valid() {
		outFmt = p.outFormat
	}
	if p.out == nil {
		out, err := p.opener(outFmt, p.block)
		if err != nil {
			return &OutputDeviceError{Err: err}
		}
		p.out = out
	}

	var src io.ReadCloser = &cursorReader{s: s}
	if outFmt != s.format {
		conv, err := resampler.New(src, s.format, outFmt)
		if err != nil {
			return err
		}
		src = conv
	}

	if s.atEnd() {
		s.cursor.Store(0)
	}

	h := &feedHandle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	p.feedH = h
	p.state = Playing

	blockBytes := int(outFmt.BytesInDuration(p.block))
	go p.feed(s, h, src, p.out, blockBytes)
	return nil
}

// feed writes fixed-duration blocks from the retained buffer to the output
// device until stopped or the stream ends. The device's blocking Write is
// what paces it at real time.
func (p *Player) feed(s *session, h *feedHandle, src io.ReadCloser, out Output, blockBytes int) {
	defer close(h.done)
	defer src.Close()

	buf := make([]byte, blockBytes)
	for {
		select {
		case <-h.stop:
			return
		default:
		}

		n, err := src.Read(buf)
		if n > 0 {
			if gain := p.volume.Load(); gain != 1 {
				pcm.ApplyGain(buf[:n], gain)
			}
			if _, werr := out.Write(buf[:n]); werr != nil {
				p.feedFailed(s, h, &OutputDeviceError{Err: werr})
				return
			}
		}
		switch {
		case err == io.EOF:
			p.feedEnded(s, h)
			return
		case err != nil:
			p.feedFailed(s, h, err)
			return
		}
	}
}

// feedEnded parks the player in Paused at the end of the stream. A
// subsequent Play replays from the start.
func (p *Player) feedEnded(s *session, h *feedHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != s || p.feedH != h {
		return
	}
	p.feedH = nil
	p.state = Paused
	s.cursor.Store(s.audio.Len())
	p.log.Debug("playback reached end of stream", "session", s.id)
}

func (p *Player) feedFailed(s *session, h *feedHandle, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != s || p.feedH != h {
		return
	}
	p.feedH = nil
	p.state = Errored
	p.err = err
	p.log.Warn("playback failed", "session", s.id, "err", err)
}

// Pause halts the output feed and preserves the position.
func (p *Player) Pause() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.state != Playing {
		p.mu.Unlock()
		return nil
	}
	h := p.detachFeedLocked()
	p.state = Paused
	p.mu.Unlock()

	stopFeed(h)
	return nil
}

// Seek moves the position to ts, clamped to [0, duration]. Valid while
// Ready, Playing or Paused; a running feed picks the new position up on its
// next block, and the latest of concurrent seeks wins.
func (p *Player) Seek(ts time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	s := p.session
	if s == nil {
		return ErrNoSource
	}
	switch p.state {
	case Ready, Playing, Paused:
	default:
		return fmt.Errorf("player: cannot seek while %s", p.state)
	}

	prior := p.state
	p.state = Seeking

	if ts < 0 {
		ts = 0
	}
	off := s.format.AlignDown(s.format.BytesInDuration(ts))
	if total := s.totalBytes(); off > total {
		off = total
	}
	s.cursor.Store(off)

	p.state = prior
	return nil
}

// Stop halts playback, releases the output device, and resets the
// position to zero.
func (p *Player) Stop() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	h := p.detachFeedLocked()
	out := p.out
	p.out = nil
	s := p.session
	p.state = Stopped
	p.mu.Unlock()

	stopFeed(h)
	if out != nil {
		out.Close()
	}
	if s != nil {
		s.cursor.Store(0)
	}
	return nil
}

// Position returns the current playback position. It is zero while Idle,
// Loading or Stopped.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.session
	if s == nil {
		return 0
	}
	switch p.state {
	case Idle, Loading, Stopped:
		return 0
	}
	return s.format.Duration(s.cursor.Load())
}

// Duration returns the total duration of the loaded source. Before the
// decoder finishes it answers from the container's probed frame count when
// available, otherwise from the decoded prefix.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()

	if s == nil {
		return 0
	}
	return s.format.Duration(s.totalBytes())
}

// State returns the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the most recent playback or decode error.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Underruns returns how many times the feed loop found the cursor ahead of
// the decoded prefix and had to emit silence.
func (p *Player) Underruns() int64 {
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()

	if s == nil {
		return 0
	}
	return s.underruns.Load()
}

// SetVolume sets the playback gain, clamped to [0, 1].
func (p *Player) SetVolume(v float32) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	p.volume.Store(v)
}

// Volume returns the playback gain.
func (p *Player) Volume() float32 {
	return p.volume.Load()
}

// Close releases everything. The player is unusable afterwards.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	h := p.detachFeedLocked()
	out := p.out
	p.out = nil
	s := p.session
	p.session = nil
	p.state = Idle
	p.mu.Unlock()

	stopFeed(h)
	if out != nil {
		out.Close()
	}
	if s != nil {
		if s.job != nil {
			s.job.Cancel()
		}
		s.cancelDecode()
	}
	p.ctrl.Clear()
	return nil
}

// detachFeedLocked takes ownership of the running feed handle, if any.
// The caller must stop it with stopFeed after releasing the mutex: the
// feed goroutine takes the same mutex on exit.
func (p *Player) detachFeedLocked() *feedHandle {
	h := p.feedH
	p.feedH = nil
	return h
}

func stopFeed(h *feedHandle) {
	if h == nil {
		return
	}
	close(h.stop)
	<-h.done
}
