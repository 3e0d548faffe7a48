package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiClassifier works with any OpenAI-compatible endpoint.
type openaiClassifier struct {
	client openai.Client
	model  string
}

// newOpenAIClassifier returns nil when apiKey is empty.
func newOpenAIClassifier(cfg ProviderConfig) *openaiClassifier {
	if cfg.APIKey == "" {
		return nil
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &openaiClassifier{client: openai.NewClient(opts...), model: model}
}

func (o *openaiClassifier) Classify(ctx context.Context, text string) (Label, error) {
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(Instructions),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(10),
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		status := 0
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return Unknown, WrapError(fmt.Errorf("chat completion failed: %w", err), ProviderOpenAI, status)
	}
	if len(resp.Choices) == 0 {
		return Unknown, ErrUnparseable
	}

	slog.DebugContext(ctx, "openai classification completed",
		"model", o.model,
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds())
	return ParseLabel(resp.Choices[0].Message.Content)
}

func (o *openaiClassifier) Provider() Provider {
	return ProviderOpenAI
}

func (o *openaiClassifier) Close() error {
	return nil
}
