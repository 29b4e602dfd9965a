package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
	"github.com/verbatim-audio/verbatim/pkg/audio/resampler"
	"github.com/verbatim-audio/verbatim/pkg/transcript"
)

// whisperFormat is the input format whisper.cpp expects.
var whisperFormat = pcm.Format{SampleRate: 16000, Channels: 1}

// WhisperCpp implements Transcriber by invoking a whisper.cpp CLI binary
// (whisper-cli) with JSON output. Audio is resampled to 16kHz mono WAV
// before the run. This keeps transcription fully local.
type WhisperCpp struct {
	bin      string
	model    string
	language string
}

var _ Transcriber = (*WhisperCpp)(nil)

// WhisperCppOption configures the whisper.cpp backend.
type WhisperCppOption func(*WhisperCpp)

// WithWhisperBinary sets the CLI binary path. Defaults to "whisper-cli"
// resolved from PATH.
func WithWhisperBinary(bin string) WhisperCppOption {
	return func(w *WhisperCpp) { w.bin = bin }
}

// WithWhisperLanguage sets the spoken language hint (e.g. "en").
// Defaults to auto-detection.
func WithWhisperLanguage(lang string) WhisperCppOption {
	return func(w *WhisperCpp) { w.language = lang }
}

// NewWhisperCpp creates a local whisper.cpp backend using the given
// ggml model file.
func NewWhisperCpp(modelPath string, opts ...WhisperCppOption) *WhisperCpp {
	w := &WhisperCpp{
		bin:   "whisper-cli",
		model: modelPath,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// whisperOutput is whisper.cpp's -oj result shape; offsets are
// milliseconds from the start of the input.
type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// Transcribe resamples the audio to whisper's input format, writes it to
// a temporary WAV file and runs the CLI over it.
func (w *WhisperCpp) Transcribe(ctx context.Context, audio *pcm.Audio) (transcript.Segments, error) {
	data, err := w.prepare(audio)
	if err != nil {
		return nil, Permanent(err)
	}

	dir, err := os.MkdirTemp("", "whisper-*")
	if err != nil {
		return nil, Transient(err)
	}
	defer os.RemoveAll(dir)

	wavPath := filepath.Join(dir, "audio.wav")
	if err := os.WriteFile(wavPath, encodeWAV(whisperFormat, data), 0o600); err != nil {
		return nil, Transient(err)
	}
	outPrefix := filepath.Join(dir, "out")

	args := []string{
		"-m", w.model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
	}
	if w.language != "" {
		args = append(args, "-l", w.language)
	}

	cmd := exec.CommandContext(ctx, w.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Permanent(fmt.Errorf("%s: %w: %s", w.bin, err, stderr.String()))
	}

	raw, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, Permanent(fmt.Errorf("whisper output: %w", err))
	}
	var out whisperOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, Permanent(fmt.Errorf("whisper output: %w", err))
	}
	if len(out.Transcription) == 0 {
		return nil, Permanent(fmt.Errorf("no speech recognized"))
	}

	segs := make(transcript.Segments, 0, len(out.Transcription))
	for _, t := range out.Transcription {
		segs = append(segs, transcript.Segment{
			Text:  t.Text,
			Start: time.Duration(t.Offsets.From) * time.Millisecond,
			End:   time.Duration(t.Offsets.To) * time.Millisecond,
		})
	}
	return segs, nil
}

// prepare converts the decoded buffer to 16kHz mono.
func (w *WhisperCpp) prepare(audio *pcm.Audio) ([]byte, error) {
	if audio.Format() == whisperFormat {
		return audio.Bytes(), nil
	}
	r, err := resampler.New(bytes.NewReader(audio.Bytes()), audio.Format(), whisperFormat)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
