package core

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable, user-visible error classification. Codes never change
// once released; messages may.
type ErrorCode string

const (
	// CodeToolNotFound indicates a call-tool request named an unregistered tool.
	CodeToolNotFound ErrorCode = "TOOL_NOT_FOUND"
	// CodeInvalidInput indicates the arguments failed input schema validation.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	// CodeUnauthorized indicates a tool required authorization and the caller
	// supplied no resolvable user identity.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// CodeExecutionFailed indicates the tool handler returned an error or the
	// call exceeded its timeout.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"
	// CodeDuplicateCapability indicates a strict-mode registry rejected a
	// second registration under an existing name.
	CodeDuplicateCapability ErrorCode = "DUPLICATE_CAPABILITY"
	// CodeConversationNotFound indicates a replay was requested for an unknown
	// conversation id.
	CodeConversationNotFound ErrorCode = "CONVERSATION_NOT_FOUND"
)

// Error is the structured error surfaced at component boundaries. It pairs a
// stable code with a human-readable message so callers can branch on Code
// without parsing text.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// NewError creates a structured Error with the given code and formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the ErrorCode from err if it wraps a *Error, otherwise it
// returns CodeExecutionFailed as the generic classification.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeExecutionFailed
}

var (
	// ErrToolNotFound is the sentinel for registry lookups of unknown tools.
	ErrToolNotFound = &Error{Code: CodeToolNotFound, Message: "tool not found"}
	// ErrConversationNotFound is the sentinel for unknown conversation ids.
	ErrConversationNotFound = &Error{Code: CodeConversationNotFound, Message: "conversation not found"}
)
