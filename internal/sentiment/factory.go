package sentiment

import (
	"context"
	"fmt"
	"log/slog"
)

// New builds a chain from the configured providers in cfg.Providers
// order. A config without keys yields a disabled chain, not an error.
func New(ctx context.Context, cfg Config, recorder Recorder) (*Chain, error) {
	var classifiers []Classifier
	for _, p := range cfg.ConfiguredProviders() {
		switch p {
		case ProviderGemini:
			g, err := newGeminiClassifier(ctx, cfg.Gemini)
			if err != nil {
				return nil, fmt.Errorf("gemini: %w", err)
			}
			classifiers = append(classifiers, g)
		case ProviderOpenAI:
			classifiers = append(classifiers, newOpenAIClassifier(cfg.OpenAI))
		}
	}

	if len(classifiers) == 0 {
		slog.InfoContext(ctx, "sentiment classification disabled: no provider configured")
	} else {
		slog.InfoContext(ctx, "sentiment classification enabled",
			"providers", cfg.ConfiguredProviders())
	}
	return NewChain(classifiers, cfg.Retry, recorder), nil
}
