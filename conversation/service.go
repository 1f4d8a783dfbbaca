package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/troupe-ai/troupe/core"
	"github.com/troupe-ai/troupe/logging"
)

// DefaultEscalationThreshold is the confidence below which a decision
// automatically raises a human intervention.
const DefaultEscalationThreshold = 0.8

// ErrAlreadyStarted is returned by Start when the conversation id already has
// events. Callers racing to open the same conversation can match it with
// errors.Is and proceed.
var ErrAlreadyStarted = core.NewError(core.CodeExecutionFailed, "conversation already started")

// Options configures a Service.
type Options struct {
	// Store holds the durable event log. Defaults to an in-memory store.
	Store EventStore
	// EscalationThreshold overrides DefaultEscalationThreshold.
	EscalationThreshold float64
	// Logger receives per-operation diagnostics. Defaults to no-op.
	Logger logging.Logger
}

// WithStore overrides the event store backend.
func WithStore(store EventStore) func(o *Options) {
	return func(o *Options) { o.Store = store }
}

// WithEscalationThreshold overrides the auto-escalation confidence threshold.
func WithEscalationThreshold(threshold float64) func(o *Options) {
	return func(o *Options) { o.EscalationThreshold = threshold }
}

// WithLogger sets the service logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Service exposes the conversation operations. Every operation appends events
// through a per-conversation mutex so the event order for one id matches call
// order exactly; operations on different ids run fully in parallel.
type Service struct {
	store     EventStore
	threshold float64
	logger    logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService constructs a Service with optional overrides.
func NewService(optFns ...func(o *Options)) *Service {
	opts := Options{
		Store:               NewMemoryStore(),
		EscalationThreshold: DefaultEscalationThreshold,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Service{
		store:     opts.Store,
		threshold: opts.EscalationThreshold,
		logger:    logging.OrNoOp(opts.Logger),
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockFor returns the serialization mutex for one conversation id, creating
// it on first use. Lock instances are never removed; the set of live
// conversation ids is bounded by the surrounding process lifetime.
func (s *Service) lockFor(conversationID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[conversationID] = lock
	}
	return lock
}

// Start opens a conversation by emitting ConversationStarted. Starting an id
// that already has events is rejected so the started event stays the unique
// log head.
func (s *Service) Start(ctx context.Context, conversationID, agentType, userID string, contextData map[string]any) error {
	lock := s.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.Load(ctx, conversationID); err == nil {
		return fmt.Errorf("conversation %q: %w", conversationID, ErrAlreadyStarted)
	} else if !errors.Is(err, core.ErrConversationNotFound) {
		return err
	}

	ev := ConversationStarted{
		EventMeta: newMeta(conversationID),
		AgentType: agentType,
		UserID:    userID,
		Context:   cloneMap(contextData),
	}
	if err := s.store.Append(ctx, conversationID, ev); err != nil {
		return err
	}
	s.logger.Info("conversation.started", "conversation_id", conversationID, "agent_type", agentType)
	return nil
}

// MakeDecision emits AIDecisionMade. When confidence falls below the
// configured threshold, the matching HumanInterventionRequested event is
// appended in the same serialized write, before control returns, so no other
// caller's event can interleave between the pair.
func (s *Service) MakeDecision(ctx context.Context, conversationID, decision, reasoning string, confidence float64) error {
	lock := s.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.requireStarted(ctx, conversationID); err != nil {
		return err
	}

	events := []Event{AIDecisionMade{
		EventMeta:  newMeta(conversationID),
		Decision:   decision,
		Reasoning:  reasoning,
		Confidence: confidence,
	}}

	if confidence < s.threshold {
		events = append(events, HumanInterventionRequested{
			EventMeta: newMeta(conversationID),
			Reason:    "Low confidence decision",
			Context: map[string]any{
				"decision":   decision,
				"confidence": confidence,
			},
			InterventionType: InterventionLowConfidence,
		})
		s.logger.Warn("conversation.decision.escalated",
			"conversation_id", conversationID, "decision", decision, "confidence", confidence)
	}

	return s.store.Append(ctx, conversationID, events...)
}

// ExecuteTool emits ToolExecuted recording the tool's outcome.
func (s *Service) ExecuteTool(ctx context.Context, conversationID, tool string, params map[string]any, result any, durationMS int64, success bool) error {
	lock := s.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.requireStarted(ctx, conversationID); err != nil {
		return err
	}

	return s.store.Append(ctx, conversationID, ToolExecuted{
		EventMeta:  newMeta(conversationID),
		Tool:       tool,
		Params:     cloneMap(params),
		Result:     cloneValue(result),
		DurationMS: durationMS,
		Success:    success,
	})
}

// RequestIntervention emits a manual escalation for human review.
func (s *Service) RequestIntervention(ctx context.Context, conversationID, reason string, contextData map[string]any) error {
	lock := s.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.requireStarted(ctx, conversationID); err != nil {
		return err
	}

	return s.store.Append(ctx, conversationID, HumanInterventionRequested{
		EventMeta:        newMeta(conversationID),
		Reason:           reason,
		Context:          cloneMap(contextData),
		InterventionType: InterventionRequired,
	})
}

// RecordOverride emits the escalation variant documenting that a human
// replaced an automated decision. Context carries both decision values and
// SuggestedAction is the overriding decision.
func (s *Service) RecordOverride(ctx context.Context, conversationID, original, overridden, reason string) error {
	lock := s.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.requireStarted(ctx, conversationID); err != nil {
		return err
	}

	return s.store.Append(ctx, conversationID, HumanInterventionRequested{
		EventMeta: newMeta(conversationID),
		Reason:    reason,
		Context: map[string]any{
			"original_decision":   original,
			"overridden_decision": overridden,
		},
		SuggestedAction:  overridden,
		InterventionType: InterventionOverride,
	})
}

// Get reconstructs the conversation aggregate by replaying its stored log.
func (s *Service) Get(ctx context.Context, conversationID string) (*Conversation, error) {
	events, err := s.store.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return Replay(events)
}

// Started reports whether a conversation exists for the id.
func (s *Service) Started(ctx context.Context, conversationID string) bool {
	_, err := s.store.Load(ctx, conversationID)
	return err == nil
}

func (s *Service) requireStarted(ctx context.Context, conversationID string) error {
	_, err := s.store.Load(ctx, conversationID)
	return err
}
