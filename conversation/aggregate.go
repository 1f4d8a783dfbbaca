package conversation

import (
	"time"

	"github.com/troupe-ai/troupe/core"
)

// Conversation is the aggregate state derived by folding the event log. All
// fields are products of apply; mutating them directly has no effect on the
// stored history.
type Conversation struct {
	ID        string         `json:"id"`
	AgentType string         `json:"agent_type"`
	UserID    string         `json:"user_id,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	Decisions            int  `json:"decisions"`
	ToolCalls            int  `json:"tool_calls"`
	Interventions        int  `json:"interventions"`
	AwaitingIntervention bool `json:"awaiting_intervention"`

	// Events is the ordered applied-event list. Replaying the stored log
	// yields a list identical in type, order and payload to the one produced
	// by the original sequence of operations.
	Events []Event `json:"events"`
}

// apply folds one event into the aggregate. It is deterministic and free of
// side effects so replay equals live application.
func (c *Conversation) apply(ev Event) {
	switch e := ev.(type) {
	case ConversationStarted:
		c.ID = e.ConversationID
		c.AgentType = e.AgentType
		c.UserID = e.UserID
		c.Context = e.Context
		c.StartedAt = e.Timestamp
	case AIDecisionMade:
		c.Decisions++
	case ToolExecuted:
		c.ToolCalls++
	case HumanInterventionRequested:
		c.Interventions++
		c.AwaitingIntervention = true
	}
	c.UpdatedAt = ev.Meta().Timestamp
	c.Events = append(c.Events, ev)
}

// Replay folds an ordered event list into a fresh aggregate. The list must
// start with ConversationStarted.
func Replay(events []Event) (*Conversation, error) {
	if len(events) == 0 {
		return nil, core.ErrConversationNotFound
	}
	if _, ok := events[0].(ConversationStarted); !ok {
		return nil, core.NewError(core.CodeConversationNotFound,
			"event log does not begin with %s", KindConversationStarted)
	}
	c := &Conversation{}
	for _, ev := range events {
		c.apply(ev)
	}
	return c, nil
}
