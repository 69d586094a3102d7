package assistant

import (
	"context"
	"fmt"

	"github.com/hiyahq/hiya/internal/integration/calendar"
	"github.com/hiyahq/hiya/internal/integration/pushover"
	"github.com/hiyahq/hiya/internal/intent"
)

// Default values applied when the classifier did not extract a parameter.
const (
	defaultWithinDays = 7
	defaultMaxResults = 5
	defaultPushTitle  = "Reminder from Hiya Assistant"
	defaultSubject    = "Update from Hiya Assistant"
)

// handlerResult is the uniform outcome of one intent handler.
type handlerResult struct {
	Reply         string
	Events        []calendar.Event
	Notifications []Notification
	Errs          []string
}

// execute dispatches the classified intent to its handler. Unrecognized
// intents land in the default arm; there is no error path out of dispatch.
func (a *Assistant) execute(ctx context.Context, cls intent.Classification) handlerResult {
	switch cls.Intent {
	case intent.IntentCalendarLookup:
		return a.handleCalendarLookup(ctx, cls.Parameters)
	case intent.IntentPushNotification:
		return a.handlePushNotification(ctx, cls.Parameters)
	case intent.IntentSendEmail:
		return a.handleSendEmail(ctx, cls.Parameters)
	case intent.IntentSmalltalk:
		return a.handleSmalltalk(cls.Parameters)
	case intent.IntentClarification:
		return a.handleClarification(cls)
	default:
		return a.handleUnknown()
	}
}

func (a *Assistant) handleCalendarLookup(ctx context.Context, p intent.Params) handlerResult {
	keyword := p.String("keyword", "subject")
	withinDays := p.Int("within_days", defaultWithinDays)
	maxResults := p.Int("max_results", defaultMaxResults)

	var res handlerResult

	if !a.calendar.Configured() {
		res.Errs = append(res.Errs,
			"Google Calendar integration is not configured. Set GOOGLE_CALENDAR_ACCESS_TOKEN.")
		return res
	}

	events, err := a.calendar.ListUpcomingEvents(ctx, keyword, withinDays, maxResults)
	if err != nil {
		a.log.Error("assistant: calendar lookup failed", "error", err)
		a.metrics.RecordStageError(ctx, "calendar_lookup")
		res.Errs = append(res.Errs, fmt.Sprintf("Calendar lookup failed: %v", err))
		return res
	}

	res.Events = events
	res.Reply = formatCalendarReply(events, keyword)

	if err := a.store.SyncCalendarEvents(ctx, a.userID, toStoreEvents(a.userID, events)); err != nil {
		a.log.Error("assistant: calendar sync failed", "error", err)
		a.metrics.RecordStageError(ctx, "calendar_sync")
		res.Errs = append(res.Errs, fmt.Sprintf("Calendar sync failed: %v", err))
	}

	if res.Reply == "" && len(res.Errs) == 0 {
		res.Reply = "I could not find any matching events in your calendar."
	}
	return res
}

func (a *Assistant) handlePushNotification(ctx context.Context, p intent.Params) handlerResult {
	message := p.String("message", "content")
	if message == "" {
		return handlerResult{Reply: "What would you like me to include in the push notification?"}
	}

	title := p.String("title")
	if title == "" {
		title = defaultPushTitle
	}
	priority := p.Int("priority", 0)

	var res handlerResult
	if !a.push.Configured() {
		res.Errs = append(res.Errs, "Pushover credentials are not configured.")
	} else {
		result, err := a.push.Send(ctx, pushover.Message{
			Message:  message,
			Title:    title,
			Priority: priority,
		})
		if err != nil {
			a.log.Error("assistant: push notification failed", "error", err)
			a.metrics.RecordStageError(ctx, "push_notification")
			a.metrics.RecordNotification(ctx, "pushover", "error")
			res.Errs = append(res.Errs, fmt.Sprintf("Pushover notification failed: %v", err))
		} else {
			a.metrics.RecordNotification(ctx, "pushover", "ok")
			res.Notifications = append(res.Notifications, Notification{Channel: "pushover", Result: result})
		}
	}

	if len(res.Errs) == 0 {
		res.Reply = "I sent your push notification."
	} else {
		res.Reply = "I could not send the push notification."
	}
	return res
}

func (a *Assistant) handleSendEmail(ctx context.Context, p intent.Params) handlerResult {
	to := p.String("to_email", "recipient")
	subject := p.String("subject")
	if subject == "" {
		subject = defaultSubject
	}
	body := p.String("body", "message")

	if to == "" {
		return handlerResult{Reply: "Who should I email? Please provide an email address."}
	}
	if body == "" {
		return handlerResult{Reply: "What would you like me to say in the email?"}
	}

	var res handlerResult
	if !a.email.Configured() {
		res.Errs = append(res.Errs, "SendGrid credentials are not configured.")
	} else {
		result, err := a.email.Send(ctx, to, subject, body)
		if err != nil {
			a.log.Error("assistant: sending email failed", "error", err)
			a.metrics.RecordStageError(ctx, "send_email")
			a.metrics.RecordNotification(ctx, "sendgrid", "error")
			res.Errs = append(res.Errs, fmt.Sprintf("SendGrid email failed: %v", err))
		} else {
			a.metrics.RecordNotification(ctx, "sendgrid", "ok")
			res.Notifications = append(res.Notifications, Notification{Channel: "sendgrid", Result: result})
		}
	}

	if len(res.Errs) == 0 {
		res.Reply = "I sent the email as requested."
	} else {
		res.Reply = "I could not send the email."
	}
	return res
}

func (a *Assistant) handleSmalltalk(p intent.Params) handlerResult {
	reply := p.String("reply")
	if reply == "" {
		reply = "Happy to help! What else can I do for you?"
	}
	return handlerResult{Reply: reply}
}

func (a *Assistant) handleClarification(cls intent.Classification) handlerResult {
	question := cls.FollowUp
	if question == "" {
		question = cls.Parameters.String("question")
	}
	if question == "" {
		question = "Could you clarify what you need?"
	}
	return handlerResult{Reply: question}
}

func (a *Assistant) handleUnknown() handlerResult {
	return handlerResult{Reply: "I'm not sure how to help with that yet, but I'm learning every day!"}
}
