package router

import (
	"context"
	"strings"
	"unicode"

	"github.com/troupe-ai/troupe/core"
)

// Trigger is one term an agent declares interest in, with a relevance weight.
// Exact domain terms ("balance", "transfer") should carry higher weights than
// generic ones ("account", "help") so specific agents outrank broad ones.
type Trigger struct {
	Term   string
	Weight float64
}

// KeywordAgent is a core.Agent scored by weighted keyword overlap between the
// query's tokens and the agent's declared trigger terms. Execution is
// delegated to the supplied function, which receives an ExecContext for tool
// calls.
type KeywordAgent struct {
	name     string
	triggers []Trigger
	execute  func(ctx context.Context, query string, execCtx *core.ExecContext) (core.AgentResult, error)
}

// NewKeywordAgent constructs a keyword-scored agent.
//
// Multi-word trigger terms match as phrases against the normalized query;
// single words match per token.
func NewKeywordAgent(
	name string,
	triggers []Trigger,
	execute func(ctx context.Context, query string, execCtx *core.ExecContext) (core.AgentResult, error),
) *KeywordAgent {
	return &KeywordAgent{name: name, triggers: triggers, execute: execute}
}

// Name returns the agent's unique identifier.
func (a *KeywordAgent) Name() string { return a.name }

// Score sums the weights of trigger terms present in the query.
func (a *KeywordAgent) Score(query string) float64 {
	normalized := normalize(query)
	tokens := tokenSet(normalized)

	var score float64
	for _, tr := range a.triggers {
		term := normalize(tr.Term)
		if strings.ContainsRune(term, ' ') {
			if strings.Contains(normalized, term) {
				score += tr.Weight
			}
		} else if tokens[term] {
			score += tr.Weight
		}
	}
	return score
}

// Execute delegates to the wrapped function.
func (a *KeywordAgent) Execute(ctx context.Context, query string, execCtx *core.ExecContext) (core.AgentResult, error) {
	return a.execute(ctx, query, execCtx)
}

// normalize lowercases the text and collapses every non-alphanumeric run to a
// single space so tokenization is punctuation-insensitive.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
		} else if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func tokenSet(normalized string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(normalized) {
		tokens[tok] = true
	}
	return tokens
}
