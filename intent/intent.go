// Package intent defines the opaque natural-language intent extraction
// boundary. The orchestrator treats an Extractor as a black box returning
// intent + entities + confidence; the deterministic keyword extractor here
// serves tests and offline use, while the anthropic and openai sub-packages
// delegate to hosted models.
package intent

import "context"

// Entity is one typed value recognized in the query text.
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Result is the outcome of intent extraction for one query.
type Result struct {
	Intent      string   `json:"intent"`
	Entities    []Entity `json:"entities,omitempty"`
	Confidence  float64  `json:"confidence"`
	Explanation string   `json:"explanation,omitempty"`
}

// Extractor turns free text into a structured intent. Implementations must be
// safe for concurrent use.
type Extractor interface {
	ProcessQuery(ctx context.Context, text string) (Result, error)
}
