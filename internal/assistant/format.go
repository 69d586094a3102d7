package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/hiyahq/hiya/internal/integration/calendar"
	"github.com/hiyahq/hiya/internal/store"
)

// spokenTimeLayout renders event boundaries the way the reply is spoken,
// e.g. "Mar 14 at 9:26 AM".
const spokenTimeLayout = "Jan 2 at 3:04 PM"

const untitledEvent = "Untitled event"

// formatCalendarReply renders the spoken summary of a calendar lookup.
func formatCalendarReply(events []calendar.Event, keyword string) string {
	if len(events) == 0 {
		return "I didn't find any upcoming events that match your request."
	}

	var keywordText string
	if keyword != "" {
		keywordText = fmt.Sprintf(" related to %s", keyword)
	}

	lines := []string{fmt.Sprintf("Here are your next %d events%s:", len(events), keywordText)}
	for _, ev := range events {
		lines = append(lines, formatEventLine(ev))
	}
	return strings.Join(lines, "\n")
}

// formatEventLine renders one event as "- {title} on {start} until {end} at
// {location}", omitting the "until" part when the end is absent or equal to
// the start, and the "at" part when there is no location.
func formatEventLine(ev calendar.Event) string {
	summary := ev.Summary
	if summary == "" {
		summary = untitledEvent
	}
	start := formatEventTime(ev.Start.Value())
	entry := fmt.Sprintf("- %s on %s", summary, start)
	if end := ev.End.Value(); end != "" {
		if display := formatEventTime(end); display != start {
			entry += fmt.Sprintf(" until %s", display)
		}
	}
	if ev.Location != "" {
		entry += fmt.Sprintf(" at %s", ev.Location)
	}
	return entry
}

// formatEventTime renders an RFC 3339 or date-only boundary for speech.
// An empty value reads as "an unspecified time"; an unparsable value is
// passed through verbatim rather than dropped.
func formatEventTime(value string) string {
	if value == "" {
		return "an unspecified time"
	}
	t, ok := parseEventTime(value)
	if !ok {
		return value
	}
	return t.Format(spokenTimeLayout)
}

func parseEventTime(value string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// toStoreEvents maps provider-shaped events onto local cache rows. Events
// without an id are carried through; the store skips them during the upsert.
func toStoreEvents(userID int64, events []calendar.Event) []store.CalendarEvent {
	out := make([]store.CalendarEvent, 0, len(events))
	for _, ev := range events {
		title := ev.Summary
		if title == "" {
			title = untitledEvent
		}

		start, ok := parseEventTime(ev.Start.Value())
		if !ok {
			start = time.Now().UTC()
		}

		var end *time.Time
		if v := ev.End.Value(); v != "" {
			if t, ok := parseEventTime(v); ok {
				end = &t
			}
		}

		out = append(out, store.CalendarEvent{
			UserID:      userID,
			ExternalID:  ev.ID,
			Title:       title,
			Description: ev.Description,
			StartTime:   start,
			EndTime:     end,
		})
	}
	return out
}
