package core

import "context"

// Method enumerates the verbs understood by the invocation protocol server.
type Method string

const (
	// MethodInitialize returns the server capability descriptor.
	MethodInitialize Method = "initialize"
	// MethodListTools returns every registered tool contract.
	MethodListTools Method = "list-tools"
	// MethodListPrompts returns the static invocation template catalog.
	MethodListPrompts Method = "list-prompts"
	// MethodCallTool validates and executes a named tool.
	MethodCallTool Method = "call-tool"
)

// Valid reports whether the method is one of the known protocol verbs.
func (m Method) Valid() bool {
	switch m {
	case MethodInitialize, MethodListTools, MethodListPrompts, MethodCallTool:
		return true
	}
	return false
}

// InvocationRequest is one structured call into the protocol server.
// Tool and Arguments are only meaningful for MethodCallTool. UserID and
// ConversationID are optional caller context: UserID feeds authorization
// checks, ConversationID scopes caching and audit log appends.
type InvocationRequest struct {
	Method         Method         `json:"method"`
	Tool           string         `json:"tool,omitempty"`
	Arguments      map[string]any `json:"arguments,omitempty"`
	UserID         string         `json:"user_id,omitempty"`
	ConversationID string         `json:"conversation_id,omitempty"`
}

// ResponseMetadata carries observability fields attached to every response.
type ResponseMetadata struct {
	DurationMS int64 `json:"duration_ms"`
	CacheHit   bool  `json:"cache_hit"`
}

// InvocationResponse is the result of one request. Exactly one of Data / Err
// is populated, mirrored by the Success flag.
type InvocationResponse struct {
	Success  bool             `json:"success"`
	Data     any              `json:"data,omitempty"`
	Err      *Error           `json:"error,omitempty"`
	Metadata ResponseMetadata `json:"metadata"`
}

// OK builds a successful response carrying data.
func OK(data any) InvocationResponse {
	return InvocationResponse{Success: true, Data: data}
}

// Fail builds a failed response with a stable error code and message.
func Fail(code ErrorCode, format string, args ...any) InvocationResponse {
	return InvocationResponse{Success: false, Err: NewError(code, format, args...)}
}

// ToolInvoker is the narrow protocol-server surface handed to agents so they
// can execute tools without depending on the protocol package.
type ToolInvoker interface {
	Handle(ctx context.Context, req InvocationRequest) InvocationResponse
}
