// Package protocol implements the invocation protocol server: method dispatch
// over initialize / list-tools / list-prompts / call-tool against a tool
// registry, with schema validation, authorization, result caching and audit
// log appends on the call path.
package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/troupe-ai/troupe/cache"
	"github.com/troupe-ai/troupe/core"
	"github.com/troupe-ai/troupe/internal/schemautil"
	"github.com/troupe-ai/troupe/logging"
	"github.com/troupe-ai/troupe/registry"
)

// Version identifies the protocol revision advertised by initialize.
const Version = "1.0"

// Authorizer decides whether a user id may call tools that require
// authorization. The default accepts any non-empty id; deployments plug in a
// real identity resolver here.
type Authorizer interface {
	Authorize(ctx context.Context, userID string) bool
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, userID string) bool

// Authorize implements Authorizer.
func (f AuthorizerFunc) Authorize(ctx context.Context, userID string) bool { return f(ctx, userID) }

// EventRecorder receives the audit trail of tool executions. Satisfied by
// *conversation.Service; kept as a local interface so the protocol package
// does not depend on a concrete log implementation.
type EventRecorder interface {
	ExecuteTool(ctx context.Context, conversationID, tool string, params map[string]any, result any, durationMS int64, success bool) error
}

// Options configures a Server.
type Options struct {
	// Cache holds tool results for cacheable tools. Defaults to in-memory.
	Cache cache.Cache
	// Recorder receives ToolExecuted appends when a conversation id is
	// present on the request. Nil disables audit appends.
	Recorder EventRecorder
	// Authorizer guards tools that require authorization. Defaults to
	// "any non-empty user id".
	Authorizer Authorizer
	// CallTimeout bounds each tool handler execution. Zero means no bound
	// beyond the caller's context.
	CallTimeout time.Duration
	// RateLimit caps call-tool requests per second across the server.
	// Zero disables limiting.
	RateLimit rate.Limit
	// RateBurst is the limiter burst size when RateLimit is set.
	RateBurst int
	// ServerName and ServerVersion identify the server in initialize.
	ServerName    string
	ServerVersion string
	// Logger receives per-call diagnostics. Defaults to no-op.
	Logger logging.Logger
}

// WithCache overrides the result cache backend.
func WithCache(c cache.Cache) func(o *Options) {
	return func(o *Options) { o.Cache = c }
}

// WithRecorder sets the audit event recorder.
func WithRecorder(r EventRecorder) func(o *Options) {
	return func(o *Options) { o.Recorder = r }
}

// WithAuthorizer sets the authorization check for protected tools.
func WithAuthorizer(a Authorizer) func(o *Options) {
	return func(o *Options) { o.Authorizer = a }
}

// WithCallTimeout bounds individual tool executions.
func WithCallTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) { o.CallTimeout = d }
}

// WithRateLimit enables the call-tool rate limiter.
func WithRateLimit(limit rate.Limit, burst int) func(o *Options) {
	return func(o *Options) { o.RateLimit = limit; o.RateBurst = burst }
}

// WithLogger sets the server logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Server dispatches invocation requests against a tool registry. It holds no
// per-request state and is safe for concurrent use.
type Server struct {
	registry    *registry.Registry
	cache       cache.Cache
	recorder    EventRecorder
	authorizer  Authorizer
	callTimeout time.Duration
	limiter     *rate.Limiter
	name        string
	version     string
	logger      logging.Logger
}

// NewServer constructs a protocol server over the given registry.
func NewServer(reg *registry.Registry, optFns ...func(o *Options)) *Server {
	opts := Options{
		Cache:         cache.NewMemoryCache(),
		Authorizer:    AuthorizerFunc(func(_ context.Context, userID string) bool { return userID != "" }),
		ServerName:    "troupe",
		ServerVersion: "1.0.0",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		registry:    reg,
		cache:       opts.Cache,
		recorder:    opts.Recorder,
		authorizer:  opts.Authorizer,
		callTimeout: opts.CallTimeout,
		name:        opts.ServerName,
		version:     opts.ServerVersion,
		logger:      logging.OrNoOp(opts.Logger),
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(opts.RateLimit, burst)
	}
	return s
}

// Handle dispatches one invocation request. It never panics across the
// boundary and always returns a structured response; failures carry a stable
// error code, never raw internals.
func (s *Server) Handle(ctx context.Context, req core.InvocationRequest) core.InvocationResponse {
	switch req.Method {
	case core.MethodInitialize:
		return s.initialize()
	case core.MethodListTools:
		return s.listTools()
	case core.MethodListPrompts:
		return s.listPrompts()
	case core.MethodCallTool:
		return s.callTool(ctx, req)
	default:
		return core.Fail(core.CodeInvalidInput, "unknown method %q", req.Method)
	}
}

// initialize returns the fixed capability descriptor.
func (s *Server) initialize() core.InvocationResponse {
	return core.OK(map[string]any{
		"protocol_version": Version,
		"server": map[string]any{
			"name":    s.name,
			"version": s.version,
		},
		"methods": []string{
			string(core.MethodInitialize),
			string(core.MethodListTools),
			string(core.MethodListPrompts),
			string(core.MethodCallTool),
		},
	})
}

// listTools returns every registered tool contract in registration order.
func (s *Server) listTools() core.InvocationResponse {
	tools := s.registry.List()
	out := make([]core.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.Definition())
	}
	return core.OK(map[string]any{"tools": out})
}

// callTool runs the critical path: resolve, validate, authorize, cache,
// execute, validate output, cache store, audit append.
func (s *Server) callTool(ctx context.Context, req core.InvocationRequest) core.InvocationResponse {
	if s.limiter != nil && !s.limiter.Allow() {
		return core.Fail(core.CodeExecutionFailed, "rate limited")
	}

	entry, err := s.registry.Resolve(req.Tool)
	if err != nil {
		return core.Fail(core.CodeToolNotFound, "tool %q is not registered", req.Tool)
	}
	def := entry.Tool.Definition()

	// Absent arguments mean an empty object, not null; argument-less tools
	// stay callable against an object-typed input schema.
	if req.Arguments == nil {
		req.Arguments = map[string]any{}
	}

	if err := schemautil.Validate(entry.InputSchema, req.Arguments); err != nil {
		return core.Fail(core.CodeInvalidInput, "%s", schemautil.FirstViolation(err))
	}

	if def.RequiresAuth && !s.authorizer.Authorize(ctx, req.UserID) {
		return core.Fail(core.CodeUnauthorized, "tool %q requires an authorized user", def.Name)
	}

	key := cache.Key{Tool: def.Name, Arguments: req.Arguments, ConversationID: req.ConversationID}.String()
	if def.Cacheable {
		if raw, ok, cerr := s.cache.Get(ctx, key); cerr == nil && ok {
			var data any
			if jerr := json.Unmarshal(raw, &data); jerr == nil {
				s.logger.Debug("protocol.call.cache_hit", "tool", def.Name)
				return core.InvocationResponse{
					Success:  true,
					Data:     data,
					Metadata: core.ResponseMetadata{CacheHit: true},
				}
			}
		} else if cerr != nil {
			s.logger.Warn("protocol.call.cache_error", "tool", def.Name, "error", cerr.Error())
		}
	}

	execCtx := ctx
	cancel := func() {}
	if s.callTimeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, s.callTimeout)
	}
	start := time.Now()
	result, execErr := entry.Tool.Execute(execCtx, req.Arguments)
	duration := time.Since(start).Milliseconds()
	cancel()

	if execErr != nil {
		s.record(ctx, req, def.Name, nil, duration, false)
		if errors.Is(execErr, context.DeadlineExceeded) {
			return core.Fail(core.CodeExecutionFailed, "timeout")
		}
		s.logger.Error("protocol.call.failed", "tool", def.Name, "error", execErr.Error())
		return core.Fail(core.CodeOf(execErr), "tool %q failed: %s", def.Name, execErr.Error())
	}

	// Output schema mismatches are logged, not fatal; tool authors own the
	// correctness of their declared outputs.
	if err := schemautil.Validate(entry.OutputSchema, result); err != nil {
		s.logger.Warn("protocol.call.output_mismatch", "tool", def.Name,
			"violation", schemautil.FirstViolation(err))
	}

	if def.Cacheable {
		if raw, jerr := json.Marshal(result); jerr == nil {
			ttl := time.Duration(def.CacheTTLSeconds) * time.Second
			if cerr := s.cache.Set(ctx, key, raw, ttl); cerr != nil {
				s.logger.Warn("protocol.call.cache_store_failed", "tool", def.Name, "error", cerr.Error())
			}
		}
	}

	s.record(ctx, req, def.Name, result, duration, true)
	s.logger.Info("protocol.call.success", "tool", def.Name, "duration_ms", duration)

	return core.InvocationResponse{
		Success:  true,
		Data:     result,
		Metadata: core.ResponseMetadata{DurationMS: duration},
	}
}

// record appends a ToolExecuted event when the request carries a conversation
// id. Append failures degrade to a warning; the tool result still reaches the
// caller.
func (s *Server) record(ctx context.Context, req core.InvocationRequest, tool string, result any, durationMS int64, success bool) {
	if s.recorder == nil || req.ConversationID == "" {
		return
	}
	if err := s.recorder.ExecuteTool(ctx, req.ConversationID, tool, req.Arguments, summarize(result), durationMS, success); err != nil {
		s.logger.Warn("protocol.call.audit_failed", "tool", tool, "error", err.Error())
	}
}

// summarize trims large tool results before they enter the audit log.
func summarize(result any) any {
	s, ok := result.(string)
	if ok && len(s) > 512 {
		return s[:512]
	}
	return result
}
