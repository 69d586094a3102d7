// Package openai provides a TTS provider backed by the OpenAI speech API.
package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hiyahq/hiya/pkg/provider/tts"
)

const (
	defaultModel = oai.SpeechModelGPT4oMiniTTS
	defaultVoice = "alloy"
)

// config holds optional configuration for the provider.
type config struct {
	model   string
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithModel selects the speech model (default "gpt-4o-mini-tts").
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

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// Provider implements tts.Provider using the OpenAI speech endpoint.
// Output is MP3-encoded audio.
type Provider struct {
	client oai.Client
	model  string
}

// Compile-time interface check.
var _ tts.Provider = (*Provider)(nil)

// New constructs a new OpenAI TTS Provider. apiKey must be non-empty.
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
		client: oai.NewClient(reqOpts...),
		model:  cfg.model,
	}, nil
}

// Synthesize implements tts.Provider. It returns the complete MP3 payload.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("openai: text must not be empty")
	}

	voiceID := voice.ID
	if voiceID == "" {
		voiceID = defaultVoice
	}

	params := oai.AudioSpeechNewParams{
		Model:          p.model,
		Voice:          oai.AudioSpeechNewParamsVoice(voiceID),
		Input:          text,
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatMP3,
	}
	if voice.SpeedFactor > 0 {
		params.Speed = oai.Float(voice.SpeedFactor)
	}

	resp, err := p.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: synthesize: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read audio body: %w", err)
	}
	return audio, nil
}
