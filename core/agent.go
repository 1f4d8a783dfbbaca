package core

import (
	"context"

	"github.com/troupe-ai/troupe/logging"
)

// Agent is the capability handler plugin interface. An agent scores its own
// relevance to a query and, when selected by the router, produces a partial
// answer that the composer merges into the final response.
//
// Implementations must:
//   - Return a non-negative score from Score
//   - Be safe for concurrent use; selected agents run in parallel
//   - Use the ExecContext's Invoker for all tool calls so validation,
//     caching and audit logging apply uniformly
type Agent interface {
	// Name returns the unique identifier for this agent within a router.
	Name() string

	// Score rates the agent's relevance to the query. Zero means "not mine".
	Score(query string) float64

	// Execute produces this agent's contribution to the answer.
	Execute(ctx context.Context, query string, execCtx *ExecContext) (AgentResult, error)
}

// ExecContext carries the per-request collaborators an agent may use during
// execution. It is request-scoped and must not be retained after Execute
// returns.
type ExecContext struct {
	// UserID is the optional caller identity, forwarded to tool authorization.
	UserID string
	// ConversationID scopes tool result caching and audit log appends.
	ConversationID string
	// Invoker executes tools through the protocol server.
	Invoker ToolInvoker
	// Logger is never nil; a no-op logger is substituted when unset.
	Logger logging.Logger
}

// CallTool is a convenience helper issuing a call-tool request through the
// context's invoker with the context's user and conversation identity.
func (c *ExecContext) CallTool(ctx context.Context, tool string, args map[string]any) InvocationResponse {
	return c.Invoker.Handle(ctx, InvocationRequest{
		Method:         MethodCallTool,
		Tool:           tool,
		Arguments:      args,
		UserID:         c.UserID,
		ConversationID: c.ConversationID,
	})
}

// AgentResult is one agent's immutable partial answer.
type AgentResult struct {
	Agent       string         `json:"agent"`
	Content     string         `json:"content"`
	Confidence  float64        `json:"confidence,omitempty"`
	ToolOutputs map[string]any `json:"tool_outputs,omitempty"`
	ToolsUsed   []string       `json:"tools_used,omitempty"`
}
