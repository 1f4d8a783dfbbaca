// Package troupe provides a high-level façade over the orchestration pipeline:
// route the query to capability handlers, execute their tool calls through the
// protocol server, compose the partial results into one answer, and record
// every decision, tool execution and escalation in the conversation audit log.
//
// Most applications interact with this package by:
//  1. Creating a Troupe via New() (optionally overriding the in-memory stores)
//  2. Registering tools (RegisterTool) and agents (RegisterAgent)
//  3. Calling Process for each incoming query
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable event store, a shared cache and a
// structured logger.
package troupe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/troupe-ai/troupe/cache"
	"github.com/troupe-ai/troupe/composer"
	"github.com/troupe-ai/troupe/conversation"
	"github.com/troupe-ai/troupe/core"
	"github.com/troupe-ai/troupe/intent"
	"github.com/troupe-ai/troupe/logging"
	"github.com/troupe-ai/troupe/protocol"
	"github.com/troupe-ai/troupe/registry"
	"github.com/troupe-ai/troupe/router"
)

// Options configures a Troupe instance.
type Options struct {
	// Registry holds the tools. Defaults to a fresh non-strict registry.
	Registry *registry.Registry
	// Cache backs the protocol server's result cache. Defaults to in-memory.
	Cache cache.Cache
	// EventStore holds the conversation audit log. Defaults to in-memory.
	EventStore conversation.EventStore
	// Fallback is the agent answering queries no other agent claims.
	Fallback core.Agent
	// Intent, when set, classifies queries before routing; the extraction
	// confidence is recorded as a decision and drives auto-escalation.
	Intent intent.Extractor
	// EscalationThreshold is the confidence floor below which decisions
	// raise an automatic human intervention.
	EscalationThreshold float64
	// CallTimeout bounds each tool execution.
	CallTimeout time.Duration
	// AgentType labels started conversations (e.g. "orchestrator").
	AgentType string
	// Logger defaults to no-op.
	Logger logging.Logger

	// ProtocolOptions are applied to the protocol server after the options
	// derived from the fields above, for less common tuning (rate limits,
	// custom authorizer, server identity).
	ProtocolOptions []func(o *protocol.Options)
}

// WithRegistry supplies a pre-populated tool registry.
func WithRegistry(reg *registry.Registry) func(o *Options) {
	return func(o *Options) { o.Registry = reg }
}

// WithCache overrides the tool result cache backend.
func WithCache(c cache.Cache) func(o *Options) {
	return func(o *Options) { o.Cache = c }
}

// WithEventStore overrides the conversation event log backend.
func WithEventStore(store conversation.EventStore) func(o *Options) {
	return func(o *Options) { o.EventStore = store }
}

// WithFallback designates the agent answering unclaimed queries.
func WithFallback(agent core.Agent) func(o *Options) {
	return func(o *Options) { o.Fallback = agent }
}

// WithIntent enables intent extraction before routing.
func WithIntent(extractor intent.Extractor) func(o *Options) {
	return func(o *Options) { o.Intent = extractor }
}

// WithEscalationThreshold sets the auto-escalation confidence floor.
func WithEscalationThreshold(threshold float64) func(o *Options) {
	return func(o *Options) { o.EscalationThreshold = threshold }
}

// WithCallTimeout bounds individual tool executions.
func WithCallTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) { o.CallTimeout = d }
}

// WithAgentType labels conversations started by Process.
func WithAgentType(agentType string) func(o *Options) {
	return func(o *Options) { o.AgentType = agentType }
}

// WithLogger sets the logger shared across the pipeline.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithProtocolOptions appends extra protocol server options.
func WithProtocolOptions(optFns ...func(o *protocol.Options)) func(o *Options) {
	return func(o *Options) { o.ProtocolOptions = append(o.ProtocolOptions, optFns...) }
}

// Troupe wires the registry, protocol server, router, composer and
// conversation service into one request pipeline. Public methods are safe for
// concurrent use.
type Troupe struct {
	registry      *registry.Registry
	server        *protocol.Server
	router        *router.Router
	composer      *composer.Composer
	conversations *conversation.Service
	extractor     intent.Extractor
	agentType     string
	logger        logging.Logger
}

// New creates a Troupe with optional overrides. Any unset collaborator is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Troupe {
	opts := Options{
		Registry:            registry.New(),
		Cache:               cache.NewMemoryCache(),
		EventStore:          conversation.NewMemoryStore(),
		EscalationThreshold: conversation.DefaultEscalationThreshold,
		CallTimeout:         30 * time.Second,
		AgentType:           "orchestrator",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)

	conversations := conversation.NewService(
		conversation.WithStore(opts.EventStore),
		conversation.WithEscalationThreshold(opts.EscalationThreshold),
		conversation.WithLogger(logger),
	)

	serverOpts := []func(o *protocol.Options){
		protocol.WithCache(opts.Cache),
		protocol.WithRecorder(conversations),
		protocol.WithCallTimeout(opts.CallTimeout),
		protocol.WithLogger(logger),
	}
	serverOpts = append(serverOpts, opts.ProtocolOptions...)

	routerOpts := []func(o *router.Options){router.WithLogger(logger)}
	if opts.Fallback != nil {
		routerOpts = append(routerOpts, router.WithFallback(opts.Fallback))
	}

	return &Troupe{
		registry:      opts.Registry,
		server:        protocol.NewServer(opts.Registry, serverOpts...),
		router:        router.New(routerOpts...),
		composer:      composer.New(),
		conversations: conversations,
		extractor:     opts.Intent,
		agentType:     opts.AgentType,
		logger:        logger,
	}
}

// RegisterTool adds a tool to the registry.
func (t *Troupe) RegisterTool(tool core.Tool) error { return t.registry.Register(tool) }

// RegisterAgent adds a capability handler to the router.
func (t *Troupe) RegisterAgent(agent core.Agent) { t.router.Register(agent) }

// Server exposes the protocol server for direct invocation requests.
func (t *Troupe) Server() *protocol.Server { return t.server }

// Conversations exposes the audit log service for escalations, overrides and
// replay.
func (t *Troupe) Conversations() *conversation.Service { return t.conversations }

// AgentScores exposes the router's full score map for diagnostics.
func (t *Troupe) AgentScores(query string) map[string]float64 {
	return t.router.AgentScores(query)
}

// ProcessOptions carries optional per-request context.
type ProcessOptions struct {
	UserID         string
	ConversationID string
}

// WithUser attaches the caller's user id to the request.
func WithUser(userID string) func(o *ProcessOptions) {
	return func(o *ProcessOptions) { o.UserID = userID }
}

// WithConversation continues an existing conversation instead of opening a
// new one.
func WithConversation(conversationID string) func(o *ProcessOptions) {
	return func(o *ProcessOptions) { o.ConversationID = conversationID }
}

// Process runs the full pipeline for one query: ensure a conversation exists,
// optionally extract intent, route to agents, execute them, compose the final
// response and record the closing decision.
//
// A failing agent never aborts the request; its result is omitted and
// composition degrades to fewer inputs (or the fixed fallback when all fail).
func (t *Troupe) Process(ctx context.Context, query string, optFns ...func(o *ProcessOptions)) (core.ComposedResponse, error) {
	start := time.Now()

	opts := ProcessOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	conversationID := opts.ConversationID
	if conversationID == "" {
		conversationID = core.NewID()
	}
	// Losing a concurrent race to open the same conversation is fine; the
	// winner's ConversationStarted is the shared log head.
	err := t.conversations.Start(ctx, conversationID, t.agentType, opts.UserID, map[string]any{
		"initial_query": query,
	})
	if err != nil && !errors.Is(err, conversation.ErrAlreadyStarted) {
		return core.ComposedResponse{}, fmt.Errorf("start conversation: %w", err)
	}

	t.extractIntent(ctx, conversationID, query)

	selected := t.router.Route(ctx, query)
	results := t.executeAgents(ctx, selected, query, opts.UserID, conversationID)

	resp := t.composer.Compose(results, query)
	resp.ResponseTimeMS = time.Since(start).Milliseconds()
	resp.Metadata["conversation_id"] = conversationID

	reasoning := fmt.Sprintf("composed from %d agent result(s)", len(results))
	if err := t.conversations.MakeDecision(ctx, conversationID, "respond", reasoning, resp.Confidence); err != nil {
		t.logger.Warn("process.decision_failed", "conversation_id", conversationID, "error", err.Error())
	}

	return resp, nil
}

// extractIntent runs the optional extractor and records its outcome as a
// decision so a low-confidence classification escalates like any other.
func (t *Troupe) extractIntent(ctx context.Context, conversationID, query string) {
	if t.extractor == nil {
		return
	}
	res, err := t.extractor.ProcessQuery(ctx, query)
	if err != nil {
		t.logger.Warn("process.intent_failed", "conversation_id", conversationID, "error", err.Error())
		return
	}
	decision := "intent:" + res.Intent
	if err := t.conversations.MakeDecision(ctx, conversationID, decision, res.Explanation, res.Confidence); err != nil {
		t.logger.Warn("process.decision_failed", "conversation_id", conversationID, "error", err.Error())
	}
}

// executeAgents runs the selected agents concurrently, preserving routing
// order in the result slice. Failed agents leave a gap that is compacted out.
func (t *Troupe) executeAgents(ctx context.Context, agents []core.Agent, query, userID, conversationID string) []core.AgentResult {
	slots := make([]*core.AgentResult, len(agents))
	var wg sync.WaitGroup

	for i, agent := range agents {
		wg.Add(1)
		go func(i int, agent core.Agent) {
			defer wg.Done()
			execCtx := &core.ExecContext{
				UserID:         userID,
				ConversationID: conversationID,
				Invoker:        t.server,
				Logger:         t.logger,
			}
			result, err := agent.Execute(ctx, query, execCtx)
			if err != nil {
				t.logger.Warn("process.agent_failed", "agent", agent.Name(), "error", err.Error())
				return
			}
			if result.Agent == "" {
				result.Agent = agent.Name()
			}
			slots[i] = &result
		}(i, agent)
	}
	wg.Wait()

	results := make([]core.AgentResult, 0, len(agents))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results
}
