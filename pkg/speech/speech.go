// Package speech runs speech-to-text over decoded audio and manages the
// asynchronous lifecycle around it: one cancellable job per loaded
// source, observable state, and a cached result.
//
// Backends implement Transcriber and can be registered on a Mux by name,
// so a host can select one at runtime:
//
//	speech.Handle("openai", speech.NewOpenAI(apiKey))
package speech

import (
	"context"
	"fmt"
	"sync"

	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
	"github.com/verbatim-audio/verbatim/pkg/transcript"
)

// Transcriber is the interface that wraps the Transcribe method.
//
// Transcribe runs speech-to-text over fully decoded audio and returns the
// ordered, timestamped segment sequence. Implementations must honor
// context cancellation promptly.
type Transcriber interface {
	Transcribe(ctx context.Context, audio *pcm.Audio) (transcript.Segments, error)
}

// TranscribeFunc is an adapter to allow the use of ordinary functions as
// Transcribers.
type TranscribeFunc func(ctx context.Context, audio *pcm.Audio) (transcript.Segments, error)

// Transcribe calls the underlying function.
func (f TranscribeFunc) Transcribe(ctx context.Context, audio *pcm.Audio) (transcript.Segments, error) {
	return f(ctx, audio)
}

// DefaultMux is the default registry for transcriber backends.
var DefaultMux = NewMux()

// Handle registers a Transcriber for the given name with the default mux.
func Handle(name string, t Transcriber) error {
	return DefaultMux.Handle(name, t)
}

// Lookup returns the Transcriber registered for name with the default mux.
func Lookup(name string) (Transcriber, error) {
	return DefaultMux.Lookup(name)
}

// Mux is a registry of named transcriber backends.
type Mux struct {
	mu sync.RWMutex
	m  map[string]Transcriber
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{m: make(map[string]Transcriber)}
}

// Handle registers a Transcriber for the given name.
func (m *Mux) Handle(name string, t Transcriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.m[name]; dup {
		return fmt.Errorf("speech: transcriber %q already registered", name)
	}
	m.m[name] = t
	return nil
}

// HandleFunc registers a TranscribeFunc for the given name.
func (m *Mux) HandleFunc(name string, f TranscribeFunc) error {
	return m.Handle(name, f)
}

// Lookup returns the Transcriber registered for name.
func (m *Mux) Lookup(name string) (Transcriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.m[name]
	if !ok {
		return nil, fmt.Errorf("speech: no transcriber registered for %q", name)
	}
	return t, nil
}
