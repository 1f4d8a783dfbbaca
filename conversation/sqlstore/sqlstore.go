// Package sqlstore persists conversation event logs in a SQL database via
// database/sql. It works with any driver speaking standard placeholders in
// the "$n" form rewritten per dialect; tests and the examples use the pure-Go
// modernc.org/sqlite driver.
//
// Keeping only the storage concern here mirrors the split between the
// conversation package (domain contracts) and its backends: swap this for the
// in-memory store at the wiring layer without touching calling code.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/troupe-ai/troupe/conversation"
	"github.com/troupe-ai/troupe/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversation_events (
	conversation_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	event_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	payload TEXT NOT NULL,
	PRIMARY KEY (conversation_id, seq)
);
`

// Store is a durable EventStore over database/sql. Events are stored as JSON
// payloads with a per-conversation sequence number preserving emission order.
type Store struct {
	db *sql.DB
}

// New wraps an opened database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the backing table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Append adds events to the end of the conversation's log inside one
// transaction so a batch (e.g. decision + auto escalation) lands atomically.
func (s *Store) Append(ctx context.Context, conversationID string, events ...conversation.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var next int64
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM conversation_events WHERE conversation_id = $1`,
		conversationID,
	)
	if err := row.Scan(&next); err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	for i, ev := range events {
		kind, payload, err := conversation.MarshalEvent(ev)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO conversation_events (conversation_id, seq, event_id, kind, payload)
			 VALUES ($1, $2, $3, $4, $5)`,
			conversationID, next+int64(i), ev.Meta().EventID, string(kind), string(payload),
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", ev.Meta().EventID, err)
		}
	}

	return tx.Commit()
}

// Load returns the full ordered log for a conversation.
func (s *Store) Load(ctx context.Context, conversationID string) ([]conversation.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, payload FROM conversation_events WHERE conversation_id = $1 ORDER BY seq`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []conversation.Event
	for rows.Next() {
		var kind, payload string
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, err
		}
		ev, err := conversation.UnmarshalEvent(conversation.Kind(kind), []byte(payload))
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, core.ErrConversationNotFound
	}
	return events, nil
}

// Has reports whether any events exist for the id.
func (s *Store) Has(ctx context.Context, conversationID string) (bool, error) {
	var n int
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM conversation_events WHERE conversation_id = $1`, conversationID)
	if err := row.Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return n > 0, nil
}
