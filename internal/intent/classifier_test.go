package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hiyahq/hiya/pkg/provider/llm"
	llmmock "github.com/hiyahq/hiya/pkg/provider/llm/mock"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	t.Run("parses a well-formed verdict", func(t *testing.T) {
		t.Parallel()

		provider := &llmmock.Provider{
			CompleteResponse: &llm.CompletionResponse{Content: `{
				"intent": "send_email",
				"confidence": 0.92,
				"parameters": {"to_email": "ada@example.com", "body": "running late"},
				"follow_up": null,
				"summary": "Send an email saying you are running late."
			}`},
		}
		c := NewClassifier(provider)

		got := c.Classify(context.Background(), "email ada that I'm running late")
		if got.Intent != IntentSendEmail {
			t.Errorf("want intent %q, got %q", IntentSendEmail, got.Intent)
		}
		if got.Confidence != 0.92 {
			t.Errorf("want confidence 0.92, got %v", got.Confidence)
		}
		if got.Parameters.String("to_email", "recipient") != "ada@example.com" {
			t.Errorf("recipient not extracted: %+v", got.Parameters)
		}
		if got.FollowUp != "" {
			t.Errorf("want empty follow-up, got %q", got.FollowUp)
		}
	})

	t.Run("sends the utterance and the concierge prompt", func(t *testing.T) {
		t.Parallel()

		provider := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: `{"intent":"smalltalk","confidence":1,"parameters":{}}`}}
		c := NewClassifier(provider)
		c.Classify(context.Background(), "hello there")

		calls := provider.Calls()
		if len(calls) != 1 {
			t.Fatalf("want 1 completion call, got %d", len(calls))
		}
		req := calls[0].Req
		if !strings.Contains(req.SystemPrompt, "Hiya Flyer Companion") {
			t.Error("system prompt does not name the concierge")
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "hello there" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
	})

	t.Run("nil provider degrades to unknown", func(t *testing.T) {
		t.Parallel()

		c := NewClassifier(nil)
		if c.Configured() {
			t.Error("Configured() = true for nil provider")
		}
		got := c.Classify(context.Background(), "anything")
		if got.Intent != IntentUnknown || got.Confidence != 0 {
			t.Errorf("want unknown/0, got %q/%v", got.Intent, got.Confidence)
		}
		if got.Parameters == nil {
			t.Error("parameters map is nil")
		}
	})

	t.Run("backend error degrades to unknown", func(t *testing.T) {
		t.Parallel()

		provider := &llmmock.Provider{CompleteErr: errors.New("upstream timeout")}
		c := NewClassifier(provider)
		got := c.Classify(context.Background(), "anything")
		if got.Intent != IntentUnknown || got.Confidence != 0 {
			t.Errorf("want unknown/0, got %q/%v", got.Intent, got.Confidence)
		}
	})

	t.Run("unparsable output keeps the raw text", func(t *testing.T) {
		t.Parallel()

		provider := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "Sure! Here is the classification you asked for."}}
		c := NewClassifier(provider)
		got := c.Classify(context.Background(), "anything")
		if got.Intent != IntentUnknown {
			t.Errorf("want unknown, got %q", got.Intent)
		}
		if got.FollowUp != "I could not parse the model response. Could you rephrase?" {
			t.Errorf("unexpected follow-up: %q", got.FollowUp)
		}
		if got.Summary != "Sure! Here is the classification you asked for." {
			t.Errorf("raw output not preserved: %q", got.Summary)
		}
	})

	t.Run("non-object JSON degrades with a retry prompt", func(t *testing.T) {
		t.Parallel()

		provider := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: `["calendar_lookup"]`}}
		c := NewClassifier(provider)
		got := c.Classify(context.Background(), "anything")
		if got.Intent != IntentUnknown {
			t.Errorf("want unknown, got %q", got.Intent)
		}
		if got.FollowUp != "I received an unexpected reply. Please try again." {
			t.Errorf("unexpected follow-up: %q", got.FollowUp)
		}
	})

	t.Run("missing fields are defaulted", func(t *testing.T) {
		t.Parallel()

		provider := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: `{"confidence": 0.4}`}}
		c := NewClassifier(provider)
		got := c.Classify(context.Background(), "anything")
		if got.Intent != IntentUnknown {
			t.Errorf("want unknown for missing intent, got %q", got.Intent)
		}
		if got.Parameters == nil {
			t.Error("parameters map is nil")
		}
		if got.Summary != `{"confidence": 0.4}` {
			t.Errorf("summary not backfilled with payload: %q", got.Summary)
		}
	})
}

func TestParams(t *testing.T) {
	t.Parallel()

	p := Params{
		"keyword":     "flight",
		"subject":     "travel",
		"blank":       "   ",
		"within_days": float64(3),
		"max_results": "10",
		"priority":    2,
		"bogus":       []any{"x"},
	}

	t.Run("string alias order", func(t *testing.T) {
		t.Parallel()
		if got := p.String("keyword", "subject"); got != "flight" {
			t.Errorf("want first alias, got %q", got)
		}
		if got := p.String("missing", "subject"); got != "travel" {
			t.Errorf("want fallback alias, got %q", got)
		}
		if got := p.String("blank", "missing"); got != "" {
			t.Errorf("want empty for blank values, got %q", got)
		}
	})

	t.Run("int coercion", func(t *testing.T) {
		t.Parallel()
		if got := p.Int("within_days", 7); got != 3 {
			t.Errorf("float64: want 3, got %d", got)
		}
		if got := p.Int("max_results", 5); got != 10 {
			t.Errorf("string digits: want 10, got %d", got)
		}
		if got := p.Int("priority", 0); got != 2 {
			t.Errorf("int: want 2, got %d", got)
		}
		if got := p.Int("missing", 7); got != 7 {
			t.Errorf("default: want 7, got %d", got)
		}
		if got := p.Int("bogus", 5); got != 5 {
			t.Errorf("non-numeric: want default 5, got %d", got)
		}
	})
}
