package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/verbatim-audio/verbatim/pkg/audio/pcm"
	"github.com/verbatim-audio/verbatim/pkg/transcript"
)

const openAIDefaultModel = openai.AudioModelWhisper1

// OpenAI implements Transcriber using the OpenAI audio transcriptions
// API with segment-level timestamps.
//
// This can also be used with any OpenAI-compatible provider by setting
// WithBaseURL.
type OpenAI struct {
	client *openai.Client
	model  string
}

var _ Transcriber = (*OpenAI)(nil)

// OpenAIOption configures the OpenAI backend.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// WithModel overrides the transcription model. Defaults to whisper-1.
func WithModel(model string) OpenAIOption {
	return func(c *openAIConfig) { c.model = model }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openAIConfig) { c.baseURL = url }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *openAIConfig) { c.httpClient = hc }
}

// NewOpenAI creates an OpenAI transcription backend.
//
// The apiKey is required and can be obtained from:
// https://platform.openai.com/api-keys
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	cfg := openAIConfig{
		model:      openAIDefaultModel,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.httpClient),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &OpenAI{
		client: &client,
		model:  cfg.model,
	}
}

// verboseTranscription is the verbose_json response shape; the SDK's
// typed response carries only the flat text, so the body is decoded
// directly.
type verboseTranscription struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads the decoded audio as WAV and maps the returned
// timestamped segments onto the audio timeline.
func (o *OpenAI) Transcribe(ctx context.Context, audio *pcm.Audio) (transcript.Segments, error) {
	wav := encodeWAV(audio.Format(), audio.Bytes())

	params := openai.AudioTranscriptionNewParams{
		File:                   openai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
		Model:                  o.model,
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}

	var raw []byte
	_, err := o.client.Audio.Transcriptions.New(ctx, params, option.WithResponseBodyInto(&raw))
	if err != nil {
		return nil, classifyOpenAIErr(err)
	}

	var vt verboseTranscription
	if err := json.Unmarshal(raw, &vt); err != nil {
		return nil, Permanent(fmt.Errorf("decode response: %w", err))
	}
	if len(vt.Segments) == 0 && vt.Text == "" {
		return nil, Permanent(fmt.Errorf("no speech recognized"))
	}

	segs := make(transcript.Segments, 0, len(vt.Segments))
	for _, s := range vt.Segments {
		segs = append(segs, transcript.Segment{
			Text:  s.Text,
			Start: time.Duration(s.Start * float64(time.Second)),
			End:   time.Duration(s.End * float64(time.Second)),
		})
	}
	return segs, nil
}

// classifyOpenAIErr sorts API failures into retryable and terminal.
func classifyOpenAIErr(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		if apierr.StatusCode == http.StatusTooManyRequests ||
			apierr.StatusCode >= http.StatusInternalServerError {
			return Transient(err)
		}
		return Permanent(err)
	}
	// Transport-level failures are worth a retry.
	return Transient(err)
}
