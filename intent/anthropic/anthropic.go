// Package anthropic provides an intent extractor backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/troupe-ai/troupe/intent"
)

const systemPrompt = `You classify user requests for an assistant that routes
queries to capability handlers. Respond with a single JSON object and nothing
else, shaped as:
{"intent": "<snake_case_label>", "entities": [{"type": "...", "value": "..."}],
"confidence": <0..1>, "explanation": "<one sentence>"}`

// Options configures the Anthropic extractor (model id, max tokens, API key).
type Options struct {
	Model     anthropic.Model
	MaxTokens int64
	APIKey    string
}

// Extractor wraps the Anthropic Messages API behind the intent.Extractor
// interface.
type Extractor struct {
	client *anthropic.Client
	opts   Options
}

// New creates an extractor using the official client. The API key falls back
// to the SDK's environment lookup when unset.
func New(optFns ...func(o *Options)) *Extractor {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens: 512,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Extractor{client: &client, opts: opts}
}

// NewFromClient creates an extractor from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Extractor {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens: 512,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Extractor{client: client, opts: opts}
}

// ProcessQuery implements intent.Extractor.
func (e *Extractor) ProcessQuery(ctx context.Context, text string) (intent.Result, error) {
	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.opts.Model,
		MaxTokens: e.opts.MaxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return intent.Result{}, fmt.Errorf("anthropic api error: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.AsText().Text)
		}
	}
	return parseResult(out.String())
}

// parseResult decodes the model's JSON answer, tolerating surrounding prose.
func parseResult(text string) (intent.Result, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return intent.Result{}, fmt.Errorf("no JSON object in model output")
	}
	var res intent.Result
	if err := json.Unmarshal([]byte(text[start:end+1]), &res); err != nil {
		return intent.Result{}, fmt.Errorf("decode intent: %w", err)
	}
	if res.Confidence < 0 {
		res.Confidence = 0
	}
	if res.Confidence > 1 {
		res.Confidence = 1
	}
	return res, nil
}
