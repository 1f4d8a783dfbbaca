// Package openai provides an intent extractor backed by the OpenAI Chat
// Completions API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/troupe-ai/troupe/intent"
)

const systemPrompt = `You classify user requests for an assistant that routes
queries to capability handlers. Respond with a single JSON object and nothing
else, shaped as:
{"intent": "<snake_case_label>", "entities": [{"type": "...", "value": "..."}],
"confidence": <0..1>, "explanation": "<one sentence>"}`

// Options configures the OpenAI extractor.
type Options struct {
	Model               string
	MaxCompletionTokens int64
}

// Extractor wraps the OpenAI Chat Completions API behind the intent.Extractor
// interface.
type Extractor struct {
	client *openai.Client
	opts   Options
}

// New creates an extractor using the official client with environment
// credentials.
func New(optFns ...func(o *Options)) *Extractor {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an extractor from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Extractor {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		MaxCompletionTokens: 512,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Extractor{client: client, opts: opts}
}

// ProcessQuery implements intent.Extractor.
func (e *Extractor) ProcessQuery(ctx context.Context, text string) (intent.Result, error) {
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               e.opts.Model,
		MaxCompletionTokens: openai.Int(e.opts.MaxCompletionTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return intent.Result{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return intent.Result{}, fmt.Errorf("no choices returned")
	}
	return parseResult(resp.Choices[0].Message.Content)
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
