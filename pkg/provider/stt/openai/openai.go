// Package openai provides an STT provider backed by the OpenAI audio
// transcription API (Whisper).
package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hiyahq/hiya/pkg/provider/stt"
)

const defaultModel = oai.AudioModelWhisper1

// config holds optional configuration for the provider.
type config struct {
	model    string
	baseURL  string
	language string
	timeout  time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithModel selects the transcription model (default "whisper-1").
func WithModel(model string) Option {
	return func(c *config) {
		c.model = model
	}
}

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithLanguage sets the ISO-639-1 input language hint (e.g., "en").
// Empty lets the model auto-detect.
func WithLanguage(lang string) Option {
	return func(c *config) {
		c.language = lang
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// Provider implements stt.Provider using the OpenAI transcription endpoint.
type Provider struct {
	client   oai.Client
	model    string
	language string
}

// Compile-time interface check.
var _ stt.Provider = (*Provider)(nil)

// New constructs a new OpenAI STT Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}

	cfg := &config{model: defaultModel}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Provider{
		client:   oai.NewClient(reqOpts...),
		model:    cfg.model,
		language: cfg.language,
	}, nil
}

// Transcribe implements stt.Provider. It submits the complete recording as a
// multipart upload and returns the transcript text.
func (p *Provider) Transcribe(ctx context.Context, r io.Reader, filename string) (string, error) {
	params := oai.AudioTranscriptionNewParams{
		Model: p.model,
		File:  oai.File(r, filename, "application/octet-stream"),
	}
	if p.language != "" {
		params.Language = oai.String(p.language)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: transcribe: %w", err)
	}
	return resp.Text, nil
}
