package core

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewID generates a UUID string used for message, conversation and invocation
// identifiers.
func NewID() string { return uuid.NewString() }

// NewEventID generates a ULID string for audit log events. ULIDs sort
// lexicographically by creation time, which keeps a persisted event log
// readable in emission order without an extra sort key.
func NewEventID() string { return ulid.Make().String() }
