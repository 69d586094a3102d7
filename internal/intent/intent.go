// Package intent classifies a user utterance into one of the assistant's
// actionable intents by asking an LLM backend for a structured JSON verdict.
//
// Classification is deliberately infallible: any backend or parsing problem
// degrades to the "unknown" intent with zero confidence so that a turn can
// always proceed to a spoken reply.
package intent

import (
	"strconv"
	"strings"
)

// Recognized intents. Anything else the model emits is passed through
// verbatim and lands in the dispatcher's default arm.
const (
	IntentCalendarLookup   = "calendar_lookup"
	IntentSendEmail        = "send_email"
	IntentPushNotification = "push_notification"
	IntentSmalltalk        = "smalltalk"
	IntentClarification    = "clarification"
	IntentUnknown          = "unknown"
)

// Params holds the free-form parameters the model extracted from the
// utterance, e.g. recipient addresses, keywords, or time windows.
type Params map[string]any

// String returns the first non-empty string value among keys, or "" when
// none is set. Handlers use this to honor parameter aliases such as
// "keyword"/"subject".
func (p Params) String(keys ...string) string {
	for _, k := range keys {
		if s, ok := p[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Int returns the value at key coerced to an int, or def when the key is
// absent or not numeric. JSON numbers arrive as float64; string digits are
// tolerated because models occasionally quote them.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// Classification is the structured verdict for one utterance.
type Classification struct {
	// Intent is the predicted intent name. Never empty; defaults to "unknown".
	Intent string `json:"intent"`

	// Confidence is the model's self-reported confidence in [0.0, 1.0].
	Confidence float64 `json:"confidence"`

	// Parameters carries extracted task parameters. Never nil.
	Parameters Params `json:"parameters"`

	// FollowUp is an optional clarifying question to relay to the user.
	FollowUp string `json:"follow_up"`

	// Summary is a short restatement of the request, or the raw model output
	// when the reply could not be parsed.
	Summary string `json:"summary"`
}
