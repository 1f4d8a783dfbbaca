package core

import "context"

// ToolDefinition declaratively describes a callable capability: its identity,
// contract schemas and caching / authorization requirements.
//
// Schemas are minimal JSON Schema objects (type/properties/required/pattern
// subset). They are treated as immutable once the tool is registered.
type ToolDefinition struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Category        string         `json:"category"`
	InputSchema     map[string]any `json:"input_schema"`
	OutputSchema    map[string]any `json:"output_schema,omitempty"`
	Capabilities    []string       `json:"capabilities,omitempty"`
	Cacheable       bool           `json:"cacheable"`
	CacheTTLSeconds int            `json:"cache_ttl_seconds,omitempty"`
	RequiresAuth    bool           `json:"requires_auth"`
}

// Tool is the plugin interface for schema-described operations exposed through
// the protocol server.
//
// Implementations should:
//   - Provide a stable, unique Name in their Definition
//   - Keep Execute side effects idempotent where the tool is marked cacheable
//   - Respect context cancellation; Execute is the only I/O point in a call
//   - Be safe for concurrent use
type Tool interface {
	// Definition returns the immutable contract for this tool.
	Definition() ToolDefinition

	// Execute runs the tool with already-validated arguments.
	Execute(ctx context.Context, args map[string]any) (any, error)
}

// FuncTool adapts a plain Go function into a Tool. It carries no internal
// mutable state after construction and is safe for concurrent use.
type FuncTool struct {
	def ToolDefinition
	fn  func(ctx context.Context, args map[string]any) (any, error)
}

// NewFuncTool constructs a FuncTool from an explicit definition and function.
//
// Example:
//
//	balance := core.NewFuncTool(
//	  core.ToolDefinition{
//	    Name:        "get_balance",
//	    Description: "Look up the balance of an account",
//	    Category:    "accounts",
//	    InputSchema: map[string]any{
//	      "type": "object",
//	      "properties": map[string]any{
//	        "account_id": map[string]any{"type": "string"},
//	      },
//	      "required": []string{"account_id"},
//	    },
//	    Cacheable:       true,
//	    CacheTTLSeconds: 30,
//	  },
//	  func(ctx context.Context, args map[string]any) (any, error) {
//	    return map[string]any{"balance": 1042.17}, nil
//	  },
//	)
func NewFuncTool(def ToolDefinition, fn func(ctx context.Context, args map[string]any) (any, error)) *FuncTool {
	return &FuncTool{def: def, fn: fn}
}

// Definition returns the tool contract.
func (t *FuncTool) Definition() ToolDefinition { return t.def }

// Execute invokes the wrapped function.
func (t *FuncTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	return t.fn(ctx, args)
}
