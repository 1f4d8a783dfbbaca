package core

// ComposedResponse is the single final answer produced by merging one or more
// agents' results. Confidence is always within [0,1]; AgentsUsed and ToolsUsed
// preserve first-seen order with no duplicates.
type ComposedResponse struct {
	MessageID      string         `json:"message_id"`
	Content        string         `json:"content"`
	Confidence     float64        `json:"confidence"`
	AgentsUsed     []string       `json:"agents_used"`
	ToolsUsed      []string       `json:"tools_used"`
	ResponseTimeMS int64          `json:"response_time_ms"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}
