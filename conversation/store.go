package conversation

import (
	"context"
	"sync"

	"github.com/troupe-ai/troupe/core"
)

// EventStore is the durable log boundary. Implementations only need
// append-and-replay semantics: events arrive in emission order per
// conversation id and Load returns them in that same order.
type EventStore interface {
	// Append adds events to the end of the conversation's log.
	Append(ctx context.Context, conversationID string, events ...Event) error

	// Load returns the full ordered log for a conversation, or
	// ErrConversationNotFound when no events exist for the id.
	Load(ctx context.Context, conversationID string) ([]Event, error)
}

// MemoryStore is a volatile EventStore keeping logs in a process-local map.
// It is safe for concurrent access and returns defensive copies so callers
// cannot mutate stored history.
type MemoryStore struct {
	mu   sync.RWMutex
	logs map[string][]Event
}

// NewMemoryStore constructs an empty in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[string][]Event)}
}

// Append adds events to the conversation's log.
func (s *MemoryStore) Append(_ context.Context, conversationID string, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	s.logs[conversationID] = append(s.logs[conversationID], events...)
	s.mu.Unlock()
	return nil
}

// Load returns a copy of the conversation's ordered log.
func (s *MemoryStore) Load(_ context.Context, conversationID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.logs[conversationID]
	if !ok {
		return nil, core.ErrConversationNotFound
	}
	events := make([]Event, len(log))
	copy(events, log)
	return events, nil
}
