// Package testutil provides shared test doubles: a scriptable agent and a
// handler-counting tool.
package testutil

import (
	"context"
	"sync/atomic"

	"github.com/troupe-ai/troupe/core"
)

// StubAgent is a deterministic core.Agent for routing and composition tests.
// It returns a fixed score and a fixed result (or error).
type StubAgent struct {
	AgentName  string
	FixedScore float64
	Content    string
	Tools      []string
	Confidence float64
	Err        error
	// Execute overrides the canned behavior when set.
	ExecuteFn func(ctx context.Context, query string, execCtx *core.ExecContext) (core.AgentResult, error)
}

// Name implements core.Agent.
func (a *StubAgent) Name() string { return a.AgentName }

// Score implements core.Agent.
func (a *StubAgent) Score(string) float64 { return a.FixedScore }

// Execute implements core.Agent.
func (a *StubAgent) Execute(ctx context.Context, query string, execCtx *core.ExecContext) (core.AgentResult, error) {
	if a.ExecuteFn != nil {
		return a.ExecuteFn(ctx, query, execCtx)
	}
	if a.Err != nil {
		return core.AgentResult{}, a.Err
	}
	return core.AgentResult{
		Agent:      a.AgentName,
		Content:    a.Content,
		ToolsUsed:  a.Tools,
		Confidence: a.Confidence,
	}, nil
}

// CountingTool wraps a tool function and counts handler invocations so tests
// can assert a handler never ran (validation short-circuit) or ran exactly
// once (cache hit).
type CountingTool struct {
	Def   core.ToolDefinition
	Fn    func(ctx context.Context, args map[string]any) (any, error)
	calls atomic.Int64
}

// Definition implements core.Tool.
func (t *CountingTool) Definition() core.ToolDefinition { return t.Def }

// Execute implements core.Tool, incrementing the call counter.
func (t *CountingTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	t.calls.Add(1)
	return t.Fn(ctx, args)
}

// Calls returns how many times the handler ran.
func (t *CountingTool) Calls() int64 { return t.calls.Load() }
