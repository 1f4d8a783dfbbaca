// Package composer merges one or more agents' partial results into a single
// answer with an aggregate confidence score. The composer owns the confidence
// assignment policy; agents do not need to report confidence upstream.
package composer

import (
	"fmt"
	"strings"

	"github.com/troupe-ai/troupe/core"
)

const (
	// FallbackConfidence is assigned when no agent produced a result.
	FallbackConfidence = 0.3
	// SingleConfidence is assigned when exactly one agent answered.
	SingleConfidence = 0.85
	// MultiBaselineConfidence is the per-agent baseline used for results
	// that carry no explicit confidence of their own.
	MultiBaselineConfidence = 0.75
)

// FallbackContent is returned when composition has no inputs at all.
const FallbackContent = "I wasn't able to find an answer to that. " +
	"Could you rephrase the question or provide more detail?"

// Options configures a Composer.
type Options struct {
	// FallbackContent overrides the default empty-result message.
	FallbackContent string
}

// WithFallbackContent overrides the fixed fallback message.
func WithFallbackContent(content string) func(o *Options) {
	return func(o *Options) { o.FallbackContent = content }
}

// Composer builds the final ComposedResponse. It is stateless and safe for
// concurrent use.
type Composer struct {
	fallbackContent string
}

// New constructs a Composer.
func New(optFns ...func(o *Options)) *Composer {
	opts := Options{FallbackContent: FallbackContent}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Composer{fallbackContent: opts.FallbackContent}
}

// Compose merges the agents' results:
//
//   - no results: fixed fallback content with confidence 0.3
//   - one result: content passes through unchanged with confidence 0.85
//   - several results: each agent's labeled contribution concatenated, tool
//     lists unioned in first-seen order, metadata multi_agent=true, and
//     confidence the mean of per-result confidences (baseline 0.75 for
//     results that report none)
//
// ResponseTimeMS is left zero; the orchestrator fills it in.
func (c *Composer) Compose(results []core.AgentResult, originalQuery string) core.ComposedResponse {
	resp := core.ComposedResponse{
		MessageID:  core.NewID(),
		AgentsUsed: []string{},
		ToolsUsed:  []string{},
		Metadata:   map[string]any{"query": originalQuery},
	}

	switch len(results) {
	case 0:
		resp.Content = c.fallbackContent
		resp.Confidence = FallbackConfidence
	case 1:
		resp.Content = results[0].Content
		resp.Confidence = SingleConfidence
		resp.AgentsUsed = []string{results[0].Agent}
		resp.ToolsUsed = unionTools(results)
	default:
		parts := make([]string, 0, len(results))
		var sum float64
		for _, r := range results {
			parts = append(parts, fmt.Sprintf("%s: %s", r.Agent, r.Content))
			resp.AgentsUsed = append(resp.AgentsUsed, r.Agent)
			if r.Confidence > 0 {
				sum += r.Confidence
			} else {
				sum += MultiBaselineConfidence
			}
		}
		resp.Content = strings.Join(parts, "\n\n")
		resp.Confidence = sum / float64(len(results))
		resp.ToolsUsed = unionTools(results)
		resp.Metadata["multi_agent"] = true
	}

	return resp
}

// unionTools merges the results' tool lists preserving first-seen order with
// no duplicates.
func unionTools(results []core.AgentResult) []string {
	seen := make(map[string]bool)
	tools := []string{}
	for _, r := range results {
		for _, tool := range r.ToolsUsed {
			if !seen[tool] {
				seen[tool] = true
				tools = append(tools, tool)
			}
		}
	}
	return tools
}
