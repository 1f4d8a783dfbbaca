// Package router scores and ranks capability handlers ("agents") against an
// incoming query. Routing is deterministic: weighted keyword overlap ranks
// agents, ties break by registration order, and a designated fallback agent
// guarantees routing never returns empty.
package router

import (
	"context"
	"sync"

	"github.com/troupe-ai/troupe/core"
	"github.com/troupe-ai/troupe/logging"
)

// MaxSelected caps how many agents one query routes to. Bounding the subset
// keeps downstream composition cost flat and avoids diluting the final answer
// with low-relevance contributions.
const MaxSelected = 3

// Options configures a Router.
type Options struct {
	// Fallback is returned when every registered agent scores zero. When nil,
	// the router falls back to the agent named "general", then to the first
	// registered agent.
	Fallback core.Agent
	// Logger receives routing diagnostics. Defaults to no-op.
	Logger logging.Logger
}

// WithFallback designates the agent returned for queries no agent claims.
func WithFallback(agent core.Agent) func(o *Options) {
	return func(o *Options) { o.Fallback = agent }
}

// WithLogger sets the router logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Router holds the registered agents in registration order. Registration is
// idempotent by name: re-registering replaces the agent but keeps its
// original rank position.
type Router struct {
	mu       sync.RWMutex
	agents   map[string]core.Agent
	order    []string
	fallback core.Agent
	logger   logging.Logger
}

// New constructs an empty router.
func New(optFns ...func(o *Options)) *Router {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	r := &Router{
		agents:   make(map[string]core.Agent),
		fallback: opts.Fallback,
		logger:   logging.OrNoOp(opts.Logger),
	}
	if opts.Fallback != nil {
		r.register(opts.Fallback)
	}
	return r
}

// Register adds an agent, replacing any prior agent of the same name.
func (r *Router) Register(agent core.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.register(agent)
}

func (r *Router) register(agent core.Agent) {
	if _, exists := r.agents[agent.Name()]; !exists {
		r.order = append(r.order, agent.Name())
	}
	r.agents[agent.Name()] = agent
}

// Route returns at most MaxSelected agents with positive scores, ranked
// descending; ties break by registration order. When every agent scores zero
// the designated fallback is returned alone, so the result is never empty as
// long as any agent is registered.
func (r *Router) Route(_ context.Context, query string) []core.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		agent core.Agent
		score float64
		rank  int
	}

	candidates := make([]scored, 0, len(r.order))
	for rank, name := range r.order {
		agent := r.agents[name]
		if score := agent.Score(query); score > 0 {
			candidates = append(candidates, scored{agent: agent, score: score, rank: rank})
		}
	}

	if len(candidates) == 0 {
		if fb := r.fallbackLocked(); fb != nil {
			r.logger.Debug("router.route.fallback", "agent", fb.Name())
			return []core.Agent{fb}
		}
		return nil
	}

	// Insertion sort keeps the ordering stable on rank for equal scores;
	// candidate counts are small.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0; j-- {
			a, b := candidates[j-1], candidates[j]
			if b.score > a.score || (b.score == a.score && b.rank < a.rank) {
				candidates[j-1], candidates[j] = b, a
			} else {
				break
			}
		}
	}

	n := len(candidates)
	if n > MaxSelected {
		n = MaxSelected
	}
	selected := make([]core.Agent, 0, n)
	for _, c := range candidates[:n] {
		selected = append(selected, c.agent)
	}
	return selected
}

// AgentScores returns the score of every registered agent for the query,
// including zero-scored agents. The map always contains exactly one entry per
// registered agent.
func (r *Router) AgentScores(query string) map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	scores := make(map[string]float64, len(r.order))
	for _, name := range r.order {
		scores[name] = r.agents[name].Score(query)
	}
	return scores
}

// fallbackLocked resolves the fallback agent under the read lock: the
// designated one, else the agent named "general", else the first registered.
func (r *Router) fallbackLocked() core.Agent {
	if r.fallback != nil {
		return r.fallback
	}
	if general, ok := r.agents["general"]; ok {
		return general
	}
	if len(r.order) > 0 {
		return r.agents[r.order[0]]
	}
	return nil
}
