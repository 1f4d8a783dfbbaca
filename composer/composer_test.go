package composer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troupe-ai/troupe/composer"
	"github.com/troupe-ai/troupe/core"
)

func TestCompose_NoResultsFallsBack(t *testing.T) {
	c := composer.New()
	resp := c.Compose(nil, "what happened?")

	assert.Equal(t, composer.FallbackContent, resp.Content)
	assert.InDelta(t, composer.FallbackConfidence, resp.Confidence, 1e-9)
	assert.Empty(t, resp.AgentsUsed)
	assert.Empty(t, resp.ToolsUsed)
	assert.NotEmpty(t, resp.MessageID)
	assert.Equal(t, "what happened?", resp.Metadata["query"])
	assert.NotContains(t, resp.Metadata, "multi_agent")
}

func TestCompose_CustomFallbackContent(t *testing.T) {
	c := composer.New(composer.WithFallbackContent("try again"))
	resp := c.Compose(nil, "q")
	assert.Equal(t, "try again", resp.Content)
}

func TestCompose_SingleResultPassesThrough(t *testing.T) {
	c := composer.New()
	resp := c.Compose([]core.AgentResult{{
		Agent:     "Financial Advisor",
		Content:   "Your balance is $1,042.17.",
		ToolsUsed: []string{"get_balance"},
	}}, "What is my balance?")

	assert.Equal(t, "Your balance is $1,042.17.", resp.Content)
	assert.InDelta(t, composer.SingleConfidence, resp.Confidence, 1e-9)
	assert.Equal(t, []string{"Financial Advisor"}, resp.AgentsUsed)
	assert.Equal(t, []string{"get_balance"}, resp.ToolsUsed)
	assert.NotContains(t, resp.Metadata, "multi_agent")
}

func TestCompose_MultipleResultsConcatenateLabeled(t *testing.T) {
	c := composer.New()
	resp := c.Compose([]core.AgentResult{
		{Agent: "Financial Advisor", Content: "Balance looks healthy.", ToolsUsed: []string{"get_balance"}},
		{Agent: "Compliance Officer", Content: "No policy concerns.", ToolsUsed: []string{"check_policy", "get_balance"}},
	}, "review my account")

	assert.Equal(t,
		"Financial Advisor: Balance looks healthy.\n\nCompliance Officer: No policy concerns.",
		resp.Content)
	assert.Equal(t, []string{"Financial Advisor", "Compliance Officer"}, resp.AgentsUsed)
	assert.Equal(t, []string{"get_balance", "check_policy"}, resp.ToolsUsed)
	assert.Equal(t, true, resp.Metadata["multi_agent"])
	assert.InDelta(t, composer.MultiBaselineConfidence, resp.Confidence, 1e-9)
}

func TestCompose_MultiConfidenceAveragesReportedValues(t *testing.T) {
	c := composer.New()
	resp := c.Compose([]core.AgentResult{
		{Agent: "a", Content: "x", Confidence: 0.9},
		{Agent: "b", Content: "y", Confidence: 0.5},
	}, "q")
	assert.InDelta(t, 0.7, resp.Confidence, 1e-9)

	// A result that reports no confidence contributes the baseline.
	resp = c.Compose([]core.AgentResult{
		{Agent: "a", Content: "x", Confidence: 0.9},
		{Agent: "b", Content: "y"},
	}, "q")
	assert.InDelta(t, (0.9+composer.MultiBaselineConfidence)/2, resp.Confidence, 1e-9)
}

func TestCompose_MessageIDsAreUnique(t *testing.T) {
	c := composer.New()
	first := c.Compose(nil, "q")
	second := c.Compose(nil, "q")
	require.NotEqual(t, first.MessageID, second.MessageID)
}
