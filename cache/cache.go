// Package cache provides the short-lived tool result cache used by the
// protocol server. The Cache interface is deliberately small (get/set/
// invalidate keyed by a composite key) so the in-memory implementation used in
// tests can be swapped for a distributed backend without changing call sites.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Key is the composite cache key: tool name, normalized arguments and the
// conversation the result belongs to. Two calls share a slot only when all
// three components are identical.
type Key struct {
	Tool           string
	Arguments      map[string]any
	ConversationID string
}

// String renders the canonical key representation. Arguments are normalized
// via JSON marshaling, which sorts object keys, so argument ordering in the
// caller does not produce distinct keys.
func (k Key) String() string {
	args, err := json.Marshal(k.Arguments)
	if err != nil {
		args = []byte(fmt.Sprintf("%v", k.Arguments))
	}
	return fmt.Sprintf("tool:%s|conv:%s|args:%s", k.Tool, k.ConversationID, args)
}

// Cache stores serialized tool results under composite keys with a per-entry
// TTL. Writes are last-writer-wins; a read racing a write returns either the
// old or the new value, never a torn one.
type Cache interface {
	// Get returns the cached value for key if present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl. A non-positive ttl is a no-op.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes key if present.
	Invalidate(ctx context.Context, key string) error
}
