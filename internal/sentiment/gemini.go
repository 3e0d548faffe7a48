package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

type geminiClassifier struct {
	client *genai.Client
	model  string
}

// newGeminiClassifier returns nil when apiKey is empty.
func newGeminiClassifier(ctx context.Context, cfg ProviderConfig) (*geminiClassifier, error) {
	if cfg.APIKey == "" {
		return nil, nil //nolint:nilnil // provider disabled without a key
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &geminiClassifier{client: client, model: model}, nil
}

func (g *geminiClassifier) Classify(ctx context.Context, text string) (Label, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(Instructions, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		MaxOutputTokens:   10,
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(text), config)
	if err != nil {
		var apiErr genai.APIError
		status := 0
		if errors.As(err, &apiErr) {
			status = apiErr.Code
		}
		return Unknown, WrapError(fmt.Errorf("generate content failed: %w", err), ProviderGemini, status)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Unknown, ErrUnparseable
	}
	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		reply.WriteString(part.Text)
	}

	if resp.UsageMetadata != nil {
		slog.DebugContext(ctx, "gemini classification completed",
			"model", g.model,
			"total_tokens", resp.UsageMetadata.TotalTokenCount,
			"duration_ms", time.Since(start).Milliseconds())
	}
	return ParseLabel(reply.String())
}

func (g *geminiClassifier) Provider() Provider {
	return ProviderGemini
}

// Close is a no-op; the genai client holds no resources.
func (g *geminiClassifier) Close() error {
	return nil
}
