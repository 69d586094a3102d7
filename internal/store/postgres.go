package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the Hiya tables. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    is_active     BOOLEAN NOT NULL DEFAULT true,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_login    TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS conversations (
    id           BIGSERIAL PRIMARY KEY,
    user_id      BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    user_message TEXT NOT NULL,
    ai_response  TEXT NOT NULL,
    intent       TEXT NOT NULL DEFAULT '',
    confidence   INT NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_conversations_user_time ON conversations(user_id, created_at DESC);
CREATE TABLE IF NOT EXISTS calendar_events (
    id          BIGSERIAL PRIMARY KEY,
    user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    external_id TEXT NOT NULL,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    start_time  TIMESTAMPTZ NOT NULL,
    end_time    TIMESTAMPTZ,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (user_id, external_id)
);
`

// DB is the database interface used by [PostgresStore]. *pgxpool.Pool
// satisfies this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// pool. The caller is responsible for calling [PostgresStore.Migrate] to
// ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the tables
// and indexes if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// AppendConversation inserts a conversation log row and fills in the generated
// ID and CreatedAt.
func (s *PostgresStore) AppendConversation(ctx context.Context, c *Conversation) error {
	const query = `
		INSERT INTO conversations (user_id, user_message, ai_response, intent, confidence)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`

	err := s.db.QueryRow(ctx, query,
		c.UserID, c.UserMessage, c.Reply, c.Intent, c.Confidence,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: append conversation: %w", err)
	}
	return nil
}

// upsertEventSQL inserts a calendar event or, when a row with the same
// (user_id, external_id) exists, refreshes its mutable fields.
const upsertEventSQL = `
	INSERT INTO calendar_events (user_id, external_id, title, description, start_time, end_time)
	VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (user_id, external_id) DO UPDATE SET
		title       = EXCLUDED.title,
		description = EXCLUDED.description,
		start_time  = EXCLUDED.start_time,
		end_time    = EXCLUDED.end_time,
		updated_at  = now()`

// SyncCalendarEvents upserts events for userID inside a single transaction.
// Events with an empty ExternalID are skipped. The transaction is rolled back
// if any upsert fails, so a sync is all-or-nothing.
func (s *PostgresStore) SyncCalendarEvents(ctx context.Context, userID int64, events []CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin sync: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, ev := range events {
		if ev.ExternalID == "" {
			continue
		}
		if _, err := tx.Exec(ctx, upsertEventSQL,
			userID, ev.ExternalID, ev.Title, ev.Description, ev.StartTime, ev.EndTime,
		); err != nil {
			return fmt.Errorf("store: upsert event %q: %w", ev.ExternalID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit sync: %w", err)
	}
	return nil
}

// RecentConversations returns up to limit conversation log rows for userID,
// newest first.
func (s *PostgresStore) RecentConversations(ctx context.Context, userID int64, limit int) ([]Conversation, error) {
	const query = `
		SELECT id, user_id, user_message, ai_response, intent, confidence, created_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.UserMessage, &c.Reply, &c.Intent, &c.Confidence, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan conversation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate conversations: %w", err)
	}
	return out, nil
}

// GetUser retrieves a user by id. Returns (nil, nil) if no user with the given
// id exists.
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*User, error) {
	const query = `
		SELECT id, username, email, is_active, created_at
		FROM users
		WHERE id = $1`

	var u User
	err := s.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Username, &u.Email, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get user %d: %w", id, err)
	}
	return &u, nil
}
