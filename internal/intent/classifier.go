package intent

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hiyahq/hiya/pkg/provider/llm"
)

const systemPrompt = "You assist a voice-enabled concierge named Hiya Flyer Companion. " +
	"Classify the user's utterance into an actionable intent. " +
	"Supported intents: 'calendar_lookup', 'send_email', 'push_notification', " +
	"'smalltalk', 'clarification', 'unknown'. " +
	"When relevant, extract structured parameters such as temporal windows, keywords, " +
	"recipient information, channels (email, push), and any follow up question necessary " +
	"to fulfill the task. " +
	"Always respond with a single JSON object with the fields " +
	`"intent" (string), "confidence" (number between 0 and 1), ` +
	`"parameters" (object), "follow_up" (string or null) and "summary" (string). ` +
	"Respond with JSON only, no surrounding prose or code fences."

// classification temperature is kept low so the verdict is stable for the
// same utterance.
const defaultTemperature = 0.1

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger used for degradation diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Classifier) {
		c.log = log
	}
}

// WithTemperature overrides the sampling temperature sent to the backend.
func WithTemperature(t float64) Option {
	return func(c *Classifier) {
		c.temperature = t
	}
}

// Classifier turns utterances into Classifications using an LLM backend.
// A nil provider is valid and yields the unconfigured degradation, so the
// assistant keeps working (in a reduced capacity) without any LLM credentials.
type Classifier struct {
	provider    llm.Provider
	temperature float64
	log         *slog.Logger
}

// NewClassifier creates a Classifier over provider. provider may be nil.
func NewClassifier(provider llm.Provider, opts ...Option) *Classifier {
	c := &Classifier{
		provider:    provider,
		temperature: defaultTemperature,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an LLM backend is available.
func (c *Classifier) Configured() bool {
	return c.provider != nil
}

// Classify asks the backend to classify utterance. It never returns an
// error: backend and parsing failures degrade to the "unknown" intent with
// zero confidence, and the raw model output is preserved in Summary when it
// could not be parsed.
func (c *Classifier) Classify(ctx context.Context, utterance string) Classification {
	if c.provider == nil {
		c.log.Warn("intent: no LLM backend configured, classifying as unknown")
		return unknownClassification("", "")
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: utterance},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		c.log.Error("intent: classification request failed", "error", err)
		return unknownClassification("", "")
	}
	if resp == nil {
		c.log.Error("intent: classification request returned no response")
		return unknownClassification("", "")
	}

	return c.parse(resp.Content)
}

// parse decodes the model's JSON verdict, normalizing missing fields so
// downstream handlers never see a nil parameter map or an empty intent.
func (c *Classifier) parse(payload string) Classification {
	var raw struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
		Parameters Params  `json:"parameters"`
		FollowUp   *string `json:"follow_up"`
		Summary    string  `json:"summary"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		if json.Valid([]byte(payload)) {
			// Valid JSON, but not the object shape we asked for.
			c.log.Warn("intent: model returned a non-object payload", "payload", payload)
			return unknownClassification("I received an unexpected reply. Please try again.", payload)
		}
		c.log.Warn("intent: model returned unparsable output", "payload", payload)
		return unknownClassification("I could not parse the model response. Could you rephrase?", payload)
	}

	out := Classification{
		Intent:     raw.Intent,
		Confidence: raw.Confidence,
		Parameters: raw.Parameters,
		Summary:    raw.Summary,
	}
	if raw.FollowUp != nil {
		out.FollowUp = *raw.FollowUp
	}
	if out.Intent == "" {
		out.Intent = IntentUnknown
	}
	if out.Parameters == nil {
		out.Parameters = Params{}
	}
	if out.Summary == "" {
		out.Summary = payload
	}
	return out
}

func unknownClassification(followUp, summary string) Classification {
	return Classification{
		Intent:     IntentUnknown,
		Confidence: 0.0,
		Parameters: Params{},
		FollowUp:   followUp,
		Summary:    summary,
	}
}
