// Package store persists conversation turns and synced calendar events.
//
// The store is append-only for conversation log entries (one row per completed
// turn, never updated or deleted) and upsert-only for calendar events, which
// are a local cache of remote entries keyed by provider-assigned external id.
// Stale cached events are never removed here — they age out of query windows
// rather than being mirrored.
package store

import (
	"context"
	"time"
)

// Conversation is one logged voice interaction turn.
type Conversation struct {
	ID          int64
	UserID      int64
	UserMessage string
	Reply       string
	Intent      string

	// Confidence is the classifier confidence scaled to an integer percentage
	// (0–100).
	Confidence int

	CreatedAt time.Time
}

// CalendarEvent is a locally cached copy of a remote calendar entry.
type CalendarEvent struct {
	ID          int64
	UserID      int64
	ExternalID  string
	Title       string
	Description string
	StartTime   time.Time
	EndTime     *time.Time
}

// User is the owning account row for conversations and calendar events.
// Account creation and authentication live outside this service; the store
// only resolves existing identities.
type User struct {
	ID        int64
	Username  string
	Email     string
	IsActive  bool
	CreatedAt time.Time
}

// Store is the persistence gateway consumed by the turn orchestrator and the
// HTTP API. Implementations must be safe for concurrent use; each method is
// one transactional scope.
type Store interface {
	// AppendConversation inserts a conversation log row. The row's ID and
	// CreatedAt are populated on return.
	AppendConversation(ctx context.Context, c *Conversation) error

	// SyncCalendarEvents upserts the given events for userID, keyed on
	// (user_id, external_id), within a single transaction. Calling it twice
	// with unchanged events leaves exactly one row per external id.
	SyncCalendarEvents(ctx context.Context, userID int64, events []CalendarEvent) error

	// RecentConversations returns up to limit log entries for userID, newest
	// first.
	RecentConversations(ctx context.Context, userID int64, limit int) ([]Conversation, error)

	// GetUser retrieves a user by id. Returns (nil, nil) when no such user exists.
	GetUser(ctx context.Context, id int64) (*User, error)
}
