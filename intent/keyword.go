package intent

import (
	"context"
	"strings"
	"unicode"
)

// Pattern declares one recognizable intent: the terms that signal it and the
// entity types extracted from matching tokens.
type Pattern struct {
	Intent string
	// Terms maps a signal term to its weight. Matched weights accumulate
	// into the result confidence (capped at 1).
	Terms map[string]float64
	// Entities maps a literal token to the entity type it represents.
	Entities map[string]string
}

// KeywordExtractor is a deterministic, dependency-free Extractor scoring
// intents by weighted term overlap. Useful in tests and as a degraded-mode
// fallback when no model backend is configured.
type KeywordExtractor struct {
	patterns []Pattern
}

// NewKeywordExtractor constructs an extractor over the given patterns.
// Patterns are evaluated in order; the highest accumulated weight wins.
func NewKeywordExtractor(patterns []Pattern) *KeywordExtractor {
	return &KeywordExtractor{patterns: patterns}
}

// ProcessQuery implements Extractor.
func (e *KeywordExtractor) ProcessQuery(_ context.Context, text string) (Result, error) {
	tokens := tokenize(text)

	best := Result{Intent: "unknown", Confidence: 0.2, Explanation: "no pattern matched"}
	for _, p := range e.patterns {
		var score float64
		var matched []string
		for term, weight := range p.Terms {
			if tokens[term] {
				score += weight
				matched = append(matched, term)
			}
		}
		if score <= best.Confidence || score == 0 {
			continue
		}
		if score > 1 {
			score = 1
		}
		res := Result{
			Intent:      p.Intent,
			Confidence:  score,
			Explanation: "matched terms: " + strings.Join(matched, ", "),
		}
		for token, entityType := range p.Entities {
			if tokens[token] {
				res.Entities = append(res.Entities, Entity{Type: entityType, Value: token})
			}
		}
		best = res
	}
	return best, nil
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens[b.String()] = true
			b.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}
