// Package assistant is the conversation turn orchestrator. It ties the speech
// adapter, the intent classifier, the integration clients, and the persistence
// gateway together into a single linear pipeline: one audio file in, one
// TurnResult out.
//
// The pipeline never aborts. Every stage failure is contained — degraded to a
// fallback value and appended to the turn's error list — so the caller always
// receives a complete TurnResult with a non-empty transcription and reply.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hiyahq/hiya/internal/integration/calendar"
	"github.com/hiyahq/hiya/internal/integration/pushover"
	"github.com/hiyahq/hiya/internal/intent"
	"github.com/hiyahq/hiya/internal/observe"
	"github.com/hiyahq/hiya/internal/store"
)

// Fallback strings used when a stage cannot produce its natural output.
const (
	fallbackTranscription = "I could not transcribe your audio. Please try again."
	fallbackReply         = "I processed your request."
)

// Speech is the slice of the speech adapter the orchestrator consumes.
type Speech interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	Synthesize(ctx context.Context, text string) string
}

// Classifier produces an intent verdict for an utterance. It must not fail;
// degradations are encoded in the Classification itself.
type Classifier interface {
	Classify(ctx context.Context, utterance string) intent.Classification
}

// CalendarClient is the calendar integration surface.
type CalendarClient interface {
	Configured() bool
	ListUpcomingEvents(ctx context.Context, query string, withinDays, maxResults int) ([]calendar.Event, error)
}

// PushClient is the push notification integration surface.
type PushClient interface {
	Configured() bool
	Send(ctx context.Context, msg pushover.Message) (map[string]any, error)
}

// EmailClient is the email integration surface.
type EmailClient interface {
	Configured() bool
	Send(ctx context.Context, to, subject, body string) (map[string]any, error)
}

// Store is the slice of the persistence gateway the orchestrator consumes.
type Store interface {
	AppendConversation(ctx context.Context, c *store.Conversation) error
	SyncCalendarEvents(ctx context.Context, userID int64, events []store.CalendarEvent) error
}

// Notification records the outcome of one outbound notification attempt.
type Notification struct {
	// Channel names the delivery channel, e.g. "pushover" or "sendgrid".
	Channel string `json:"channel"`

	// Result is the provider's parsed response payload.
	Result map[string]any `json:"result"`
}

// TurnResult is the immutable outcome of one voice interaction turn.
type TurnResult struct {
	// Transcription is the recognized user utterance. Never empty; a failed
	// transcription is substituted with a fixed user-facing message.
	Transcription string `json:"transcription"`

	// Reply is the assistant's textual answer. Never empty.
	Reply string `json:"reply"`

	// AudioPath references the synthesized reply audio, or "" when synthesis
	// was skipped or failed.
	AudioPath string `json:"audio_path,omitempty"`

	// Intent is the classified intent name.
	Intent string `json:"intent"`

	// Confidence is the classifier confidence in [0.0, 1.0].
	Confidence float64 `json:"confidence"`

	// CalendarEvents holds the provider-shaped events produced by this turn.
	CalendarEvents []calendar.Event `json:"calendar_events"`

	// Notifications holds the outcome of each notification sent this turn.
	Notifications []Notification `json:"notifications"`

	// Errors lists the contained stage failures, in pipeline order.
	Errors []string `json:"errors"`
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the logger used for stage diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(a *Assistant) {
		a.log = log
	}
}

// WithMetrics sets the metrics instance used for stage instrumentation.
// Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *Assistant) {
		a.metrics = m
	}
}

// Assistant orchestrates conversation turns for a single user identity fixed
// at construction. Safe for concurrent use when its collaborators are.
type Assistant struct {
	userID     int64
	speech     Speech
	classifier Classifier
	calendar   CalendarClient
	push       PushClient
	email      EmailClient
	store      Store
	log        *slog.Logger
	metrics    *observe.Metrics
}

// New creates an Assistant bound to userID. All collaborators are required;
// "unconfigured" integrations are expressed by clients whose Configured
// method reports false, not by nil fields.
func New(
	userID int64,
	speech Speech,
	classifier Classifier,
	cal CalendarClient,
	push PushClient,
	email EmailClient,
	st Store,
	opts ...Option,
) *Assistant {
	a := &Assistant{
		userID:     userID,
		speech:     speech,
		classifier: classifier,
		calendar:   cal,
		push:       push,
		email:      email,
		store:      st,
		log:        slog.Default(),
		metrics:    observe.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunTurn executes one complete voice interaction: transcribe, classify,
// dispatch, synthesize, persist. It always returns a usable TurnResult; stage
// failures are reported through the result's Errors field.
func (a *Assistant) RunTurn(ctx context.Context, audioPath string) *TurnResult {
	var errs []string

	sttStart := time.Now()
	transcription, err := a.speech.Transcribe(ctx, audioPath)
	a.metrics.TranscriptionDuration.Record(ctx, time.Since(sttStart).Seconds())
	if err != nil {
		a.log.Error("assistant: transcription failed", "error", err)
		a.metrics.RecordStageError(ctx, "transcription")
		errs = append(errs, fmt.Sprintf("Transcription failed: %v", err))
		transcription = ""
	}
	if transcription == "" {
		// The substituted message is deliberately also what gets classified;
		// the classifier reports unknown/low confidence on it.
		transcription = fallbackTranscription
	} else {
		a.log.Info("assistant: transcription result", "text", transcription)
	}

	clsStart := time.Now()
	cls := a.classifier.Classify(ctx, transcription)
	a.metrics.ClassificationDuration.Record(ctx, time.Since(clsStart).Seconds())

	exec := a.execute(ctx, cls)
	errs = append(errs, exec.Errs...)

	reply := exec.Reply
	if reply == "" {
		reply = cls.Summary
	}
	if reply == "" {
		reply = fallbackReply
	}

	ttsStart := time.Now()
	audioOut := a.speech.Synthesize(ctx, reply)
	a.metrics.SynthesisDuration.Record(ctx, time.Since(ttsStart).Seconds())

	if err := a.store.AppendConversation(ctx, &store.Conversation{
		UserID:      a.userID,
		UserMessage: transcription,
		Reply:       reply,
		Intent:      cls.Intent,
		Confidence:  int(cls.Confidence * 100),
	}); err != nil {
		a.log.Error("assistant: persisting conversation failed", "error", err)
		a.metrics.RecordStageError(ctx, "persistence")
		errs = append(errs, fmt.Sprintf("Failed to record the conversation: %v", err))
	}

	return &TurnResult{
		Transcription:  transcription,
		Reply:          reply,
		AudioPath:      audioOut,
		Intent:         cls.Intent,
		Confidence:     cls.Confidence,
		CalendarEvents: exec.Events,
		Notifications:  exec.Notifications,
		Errors:         errs,
	}
}
