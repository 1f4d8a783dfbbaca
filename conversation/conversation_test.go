package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troupe-ai/troupe/conversation"
	"github.com/troupe-ai/troupe/core"
)

// Interface compliance (compile-time assertion)
var _ conversation.EventStore = (*conversation.MemoryStore)(nil)

func startedService(t *testing.T, id string, optFns ...func(o *conversation.Options)) *conversation.Service {
	t.Helper()
	svc := conversation.NewService(optFns...)
	require.NoError(t, svc.Start(context.Background(), id, "orchestrator", "user-1", map[string]any{"channel": "test"}))
	return svc
}

func kinds(events []conversation.Event) []conversation.Kind {
	out := make([]conversation.Kind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind()
	}
	return out
}

func TestService_StartIsOnlyValidFirstEvent(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t, "conv-1")

	// Starting again is rejected; the log head stays unique.
	assert.ErrorIs(t, svc.Start(ctx, "conv-1", "orchestrator", "", nil), conversation.ErrAlreadyStarted)

	// Operations on unstarted conversations are rejected.
	err := svc.MakeDecision(ctx, "unknown", "d", "r", 0.9)
	require.Error(t, err)
	assert.Equal(t, core.CodeConversationNotFound, core.CodeOf(err))
}

func TestService_LowConfidenceDecisionEmitsEscalationPair(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t, "conv-1")

	require.NoError(t, svc.MakeDecision(ctx, "conv-1", "approve transfer", "weak signal", 0.45))

	conv, err := svc.Get(ctx, "conv-1")
	require.NoError(t, err)
	require.Equal(t, []conversation.Kind{
		conversation.KindConversationStarted,
		conversation.KindAIDecisionMade,
		conversation.KindHumanInterventionRequested,
	}, kinds(conv.Events))

	intervention, ok := conv.Events[2].(conversation.HumanInterventionRequested)
	require.True(t, ok)
	assert.Equal(t, "Low confidence decision", intervention.Reason)
	assert.Equal(t, conversation.InterventionLowConfidence, intervention.InterventionType)
	assert.Equal(t, "approve transfer", intervention.Context["decision"])
	assert.Equal(t, 0.45, intervention.Context["confidence"])
	assert.True(t, conv.AwaitingIntervention)
}

func TestService_HighConfidenceDecisionEmitsSingleEvent(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t, "conv-1")

	require.NoError(t, svc.MakeDecision(ctx, "conv-1", "answer", "clear match", 0.92))

	conv, err := svc.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, []conversation.Kind{
		conversation.KindConversationStarted,
		conversation.KindAIDecisionMade,
	}, kinds(conv.Events))
	assert.False(t, conv.AwaitingIntervention)
}

func TestService_ThresholdIsConfigurable(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t, "conv-1", conversation.WithEscalationThreshold(0.5))

	require.NoError(t, svc.MakeDecision(ctx, "conv-1", "answer", "ok", 0.6))

	conv, err := svc.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Len(t, conv.Events, 2) // no escalation at 0.6 >= 0.5
}

func TestService_ManualInterventionAndOverride(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t, "conv-1")

	require.NoError(t, svc.RequestIntervention(ctx, "conv-1", "customer asked for a human", map[string]any{"queue": "support"}))
	require.NoError(t, svc.RecordOverride(ctx, "conv-1", "deny transfer", "allow transfer", "policy exception"))

	conv, err := svc.Get(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, conv.Events, 3)

	manual := conv.Events[1].(conversation.HumanInterventionRequested)
	assert.Equal(t, conversation.InterventionRequired, manual.InterventionType)
	assert.Equal(t, "customer asked for a human", manual.Reason)

	override := conv.Events[2].(conversation.HumanInterventionRequested)
	assert.Equal(t, conversation.InterventionOverride, override.InterventionType)
	assert.Equal(t, "allow transfer", override.SuggestedAction)
	assert.Equal(t, "deny transfer", override.Context["original_decision"])
	assert.Equal(t, "allow transfer", override.Context["overridden_decision"])
	assert.Equal(t, 2, conv.Interventions)
}

func TestService_ReplayMatchesLiveSequence(t *testing.T) {
	ctx := context.Background()
	store := conversation.NewMemoryStore()
	svc := conversation.NewService(conversation.WithStore(store))

	require.NoError(t, svc.Start(ctx, "conv-1", "orchestrator", "user-1", map[string]any{"channel": "test"}))
	require.NoError(t, svc.MakeDecision(ctx, "conv-1", "route to advisor", "keyword match", 0.92))
	require.NoError(t, svc.ExecuteTool(ctx, "conv-1", "get_balance", map[string]any{"account_id": "a-1"}, map[string]any{"balance": "42.00"}, 12, true))
	require.NoError(t, svc.MakeDecision(ctx, "conv-1", "approve transfer", "ambiguous amount", 0.45))

	first, err := svc.Get(ctx, "conv-1")
	require.NoError(t, err)
	require.Equal(t, []conversation.Kind{
		conversation.KindConversationStarted,
		conversation.KindAIDecisionMade,
		conversation.KindToolExecuted,
		conversation.KindAIDecisionMade,
		conversation.KindHumanInterventionRequested,
	}, kinds(first.Events))

	// A second replay from the same stored log reconstructs the identical
	// applied-event list: same types, same order, same payloads.
	second, err := svc.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, first.Events, second.Events)
	assert.Equal(t, first.Decisions, second.Decisions)
	assert.Equal(t, first.ToolCalls, second.ToolCalls)

	// Replaying the raw log directly yields the same aggregate.
	events, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	replayed, err := conversation.Replay(events)
	require.NoError(t, err)
	assert.Equal(t, first.Events, replayed.Events)
}

func TestService_GetUnknownConversation(t *testing.T) {
	svc := conversation.NewService()
	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConversationNotFound) || core.CodeOf(err) == core.CodeConversationNotFound)
}

func TestService_ConcurrentDecisionsKeepEscalationAdjacent(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t, "conv-1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			confidence := 0.95
			if i%2 == 0 {
				confidence = 0.3
			}
			_ = svc.MakeDecision(ctx, "conv-1", fmt.Sprintf("decision-%d", i), "", confidence)
		}(i)
	}
	wg.Wait()

	conv, err := svc.Get(ctx, "conv-1")
	require.NoError(t, err)

	// Every low-confidence decision is directly followed by its escalation.
	for i, ev := range conv.Events {
		decision, ok := ev.(conversation.AIDecisionMade)
		if !ok || decision.Confidence >= conversation.DefaultEscalationThreshold {
			continue
		}
		require.Greater(t, len(conv.Events), i+1, "escalation missing after low-confidence decision")
		next, ok := conv.Events[i+1].(conversation.HumanInterventionRequested)
		require.True(t, ok, "event after low-confidence decision is %T", conv.Events[i+1])
		assert.Equal(t, conversation.InterventionLowConfidence, next.InterventionType)
	}
}

func TestService_EventsHoldTheirOwnPayloadCopies(t *testing.T) {
	ctx := context.Background()
	svc := conversation.NewService()

	contextData := map[string]any{"channel": "test", "tags": []any{"vip"}}
	require.NoError(t, svc.Start(ctx, "conv-1", "orchestrator", "user-1", contextData))

	params := map[string]any{"account_id": "a-1", "filters": map[string]any{"min": 10}}
	result := map[string]any{"balance": "42.00"}
	require.NoError(t, svc.ExecuteTool(ctx, "conv-1", "get_balance", params, result, 12, true))

	// Mutating the caller's maps after the fact must not rewrite stored history.
	contextData["channel"] = "tampered"
	contextData["tags"].([]any)[0] = "tampered"
	params["account_id"] = "tampered"
	params["filters"].(map[string]any)["min"] = 999
	result["balance"] = "0.00"

	conv, err := svc.Get(ctx, "conv-1")
	require.NoError(t, err)

	started := conv.Events[0].(conversation.ConversationStarted)
	assert.Equal(t, "test", started.Context["channel"])
	assert.Equal(t, []any{"vip"}, started.Context["tags"])

	executed := conv.Events[1].(conversation.ToolExecuted)
	assert.Equal(t, "a-1", executed.Params["account_id"])
	assert.Equal(t, map[string]any{"min": 10}, executed.Params["filters"])
	assert.Equal(t, map[string]any{"balance": "42.00"}, executed.Result)
}

func TestReplay_RejectsLogsWithoutStartEvent(t *testing.T) {
	_, err := conversation.Replay(nil)
	assert.Error(t, err)
}

func TestEventRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := startedService(t, "conv-1")
	require.NoError(t, svc.ExecuteTool(ctx, "conv-1", "check_policy", map[string]any{"subject": "transfer"}, "allowed", 3, true))

	conv, err := svc.Get(ctx, "conv-1")
	require.NoError(t, err)

	for _, ev := range conv.Events {
		kind, payload, err := conversation.MarshalEvent(ev)
		require.NoError(t, err)
		decoded, err := conversation.UnmarshalEvent(kind, payload)
		require.NoError(t, err)
		assert.Equal(t, ev.Kind(), decoded.Kind())
		assert.Equal(t, ev.Meta(), decoded.Meta())
	}
}
