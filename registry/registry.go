// Package registry holds typed tool definitions and their executable handlers.
// It is the leaf component of the invocation pipeline: registration happens at
// process start and the mapping is read-mostly afterwards.
package registry

import (
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/troupe-ai/troupe/core"
	"github.com/troupe-ai/troupe/internal/schemautil"
)

// Entry pairs a registered tool with its compiled schema validators so the
// protocol server validates without recompiling per call.
type Entry struct {
	Tool         core.Tool
	InputSchema  *jsonschema.Schema
	OutputSchema *jsonschema.Schema
}

// Options configures a Registry.
type Options struct {
	// Strict rejects re-registration under an existing name with
	// DUPLICATE_CAPABILITY instead of replacing it.
	Strict bool
}

// WithStrict enables strict registration mode.
func WithStrict(strict bool) func(o *Options) {
	return func(o *Options) { o.Strict = strict }
}

// Registry is an in-memory, concurrency-safe tool registry. List preserves
// registration order; replacing a tool keeps its original position.
type Registry struct {
	mu      sync.RWMutex
	strict  bool
	entries map[string]*Entry
	order   []string
}

// New constructs an empty registry.
func New(optFns ...func(o *Options)) *Registry {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{strict: opts.Strict, entries: make(map[string]*Entry)}
}

// Register adds a tool plus its handler, replacing any prior tool of the same
// name unless strict mode is enabled. Schemas are compiled here so structural
// problems (malformed schema documents) surface at registration time, not on
// the call path.
func (r *Registry) Register(tool core.Tool) error {
	def := tool.Definition()

	in, err := schemautil.Compile(def.Name+"-input", def.InputSchema)
	if err != nil {
		return err
	}
	out, err := schemautil.Compile(def.Name+"-output", def.OutputSchema)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[def.Name]; exists {
		if r.strict {
			return core.NewError(core.CodeDuplicateCapability, "tool %q is already registered", def.Name)
		}
	} else {
		r.order = append(r.order, def.Name)
	}
	r.entries[def.Name] = &Entry{Tool: tool, InputSchema: in, OutputSchema: out}
	return nil
}

// Get returns the tool registered under name or ErrToolNotFound.
func (r *Registry) Get(name string) (core.Tool, error) {
	entry, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return entry.Tool, nil
}

// Resolve returns the full registry entry (tool + compiled schemas) for name.
func (r *Registry) Resolve(name string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok {
		return nil, core.ErrToolNotFound
	}
	return entry, nil
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// List returns all registered tools in registration order.
func (r *Registry) List() []core.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]core.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.entries[name].Tool)
	}
	return tools
}
