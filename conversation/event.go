package conversation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/troupe-ai/troupe/core"
)

// Kind tags the concrete event variant for storage and replay dispatch.
type Kind string

const (
	// KindConversationStarted opens a conversation; only valid first event.
	KindConversationStarted Kind = "conversation_started"
	// KindAIDecisionMade records an automated decision with its confidence.
	KindAIDecisionMade Kind = "ai_decision_made"
	// KindToolExecuted records one tool invocation and its outcome.
	KindToolExecuted Kind = "tool_executed"
	// KindHumanInterventionRequested records an escalation for human review.
	KindHumanInterventionRequested Kind = "human_intervention_requested"
)

// Intervention types carried by HumanInterventionRequested events.
const (
	// InterventionLowConfidence marks the automatic escalation that follows a
	// decision below the confidence threshold.
	InterventionLowConfidence = "low_confidence"
	// InterventionRequired marks a manual escalation requested by a caller.
	InterventionRequired = "intervention_required"
	// InterventionOverride marks a human override of a prior decision.
	InterventionOverride = "override"
)

// EventMeta carries the fields common to every event. EventID is a ULID so
// ids sort in emission order; Timestamp is UTC.
type EventMeta struct {
	EventID        string    `json:"event_id"`
	ConversationID string    `json:"conversation_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// Event is one immutable entry of the audit log. After emission an event is
// never mutated or deleted.
type Event interface {
	Kind() Kind
	Meta() EventMeta
}

// cloneMap deep-copies a payload map so events hold their own history; a
// caller mutating its map after the call cannot rewrite an appended event.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func newMeta(conversationID string) EventMeta {
	return EventMeta{
		EventID:        core.NewEventID(),
		ConversationID: conversationID,
		Timestamp:      time.Now().UTC(),
	}
}

// ConversationStarted opens a conversation with its initial context.
type ConversationStarted struct {
	EventMeta
	AgentType string         `json:"agent_type"`
	UserID    string         `json:"user_id,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

// Kind implements Event.
func (ConversationStarted) Kind() Kind { return KindConversationStarted }

// Meta implements Event.
func (e ConversationStarted) Meta() EventMeta { return e.EventMeta }

// AIDecisionMade records a decision, its reasoning and its confidence.
type AIDecisionMade struct {
	EventMeta
	Decision   string  `json:"decision"`
	Reasoning  string  `json:"reasoning,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Kind implements Event.
func (AIDecisionMade) Kind() Kind { return KindAIDecisionMade }

// Meta implements Event.
func (e AIDecisionMade) Meta() EventMeta { return e.EventMeta }

// ToolExecuted records one tool invocation: inputs, result summary, wall-clock
// duration and whether the handler succeeded.
type ToolExecuted struct {
	EventMeta
	Tool       string         `json:"tool"`
	Params     map[string]any `json:"params,omitempty"`
	Result     any            `json:"result,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	Success    bool           `json:"success"`
}

// Kind implements Event.
func (ToolExecuted) Kind() Kind { return KindToolExecuted }

// Meta implements Event.
func (e ToolExecuted) Meta() EventMeta { return e.EventMeta }

// HumanInterventionRequested escalates the conversation for human review,
// either automatically (low confidence) or explicitly (manual escalation or
// override).
type HumanInterventionRequested struct {
	EventMeta
	Reason           string         `json:"reason"`
	Context          map[string]any `json:"context,omitempty"`
	SuggestedAction  string         `json:"suggested_action,omitempty"`
	InterventionType string         `json:"intervention_type"`
}

// Kind implements Event.
func (HumanInterventionRequested) Kind() Kind { return KindHumanInterventionRequested }

// Meta implements Event.
func (e HumanInterventionRequested) Meta() EventMeta { return e.EventMeta }

// MarshalEvent serializes an event to its kind tag plus JSON payload for
// durable storage.
func MarshalEvent(ev Event) (Kind, []byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return "", nil, fmt.Errorf("marshal %s event: %w", ev.Kind(), err)
	}
	return ev.Kind(), payload, nil
}

// UnmarshalEvent reverses MarshalEvent, reconstructing the concrete variant
// from its kind tag and payload.
func UnmarshalEvent(kind Kind, payload []byte) (Event, error) {
	switch kind {
	case KindConversationStarted:
		var ev ConversationStarted
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case KindAIDecisionMade:
		var ev AIDecisionMade
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case KindToolExecuted:
		var ev ToolExecuted
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case KindHumanInterventionRequested:
		var ev HumanInterventionRequested
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
}
