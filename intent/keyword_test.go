package intent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troupe-ai/troupe/intent"
)

var _ intent.Extractor = (*intent.KeywordExtractor)(nil)

func bankingPatterns() []intent.Pattern {
	return []intent.Pattern{
		{
			Intent: "check_balance",
			Terms:  map[string]float64{"balance": 0.6, "account": 0.3},
			Entities: map[string]string{
				"checking": "account_type",
				"savings":  "account_type",
			},
		},
		{
			Intent: "transfer_funds",
			Terms:  map[string]float64{"transfer": 0.6, "send": 0.5, "wire": 0.4},
		},
	}
}

func TestKeywordExtractor_NoMatchReturnsUnknown(t *testing.T) {
	e := intent.NewKeywordExtractor(bankingPatterns())
	res, err := e.ProcessQuery(context.Background(), "tell me a joke")
	require.NoError(t, err)

	assert.Equal(t, "unknown", res.Intent)
	assert.InDelta(t, 0.2, res.Confidence, 1e-9)
	assert.Empty(t, res.Entities)
}

func TestKeywordExtractor_HighestScoringPatternWins(t *testing.T) {
	e := intent.NewKeywordExtractor(bankingPatterns())

	res, err := e.ProcessQuery(context.Background(), "What is my account balance?")
	require.NoError(t, err)
	assert.Equal(t, "check_balance", res.Intent)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)

	res, err = e.ProcessQuery(context.Background(), "send a wire transfer")
	require.NoError(t, err)
	assert.Equal(t, "transfer_funds", res.Intent)
	assert.InDelta(t, 1, res.Confidence, 1e-9) // capped
}

func TestKeywordExtractor_ExtractsEntities(t *testing.T) {
	e := intent.NewKeywordExtractor(bankingPatterns())
	res, err := e.ProcessQuery(context.Background(), "balance of my savings account")
	require.NoError(t, err)

	assert.Equal(t, "check_balance", res.Intent)
	require.Len(t, res.Entities, 1)
	assert.Equal(t, intent.Entity{Type: "account_type", Value: "savings"}, res.Entities[0])
}

func TestKeywordExtractor_LowWeightMatchStaysUnknown(t *testing.T) {
	e := intent.NewKeywordExtractor([]intent.Pattern{{
		Intent: "weak",
		Terms:  map[string]float64{"maybe": 0.15},
	}})
	res, err := e.ProcessQuery(context.Background(), "maybe later")
	require.NoError(t, err)
	assert.Equal(t, "unknown", res.Intent)
}

func TestKeywordExtractor_TokenizationIsPunctuationInsensitive(t *testing.T) {
	e := intent.NewKeywordExtractor(bankingPatterns())
	res, err := e.ProcessQuery(context.Background(), "BALANCE?!")
	require.NoError(t, err)
	assert.Equal(t, "check_balance", res.Intent)
}
