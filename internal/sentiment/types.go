// Package sentiment labels user feedback as positive, neutral or negative
// using LLM providers (Gemini via google.golang.org/genai, any
// OpenAI-compatible endpoint via openai-go) with retry and provider
// fallback.
package sentiment

import (
	"context"
	"time"
)

// Provider names an LLM backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

func (p Provider) String() string {
	return string(p)
}

// Label is a sentiment class. Values match the storage labels.
type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
	Unknown  Label = "unknown"
)

// Classifier labels a single message.
type Classifier interface {
	Classify(ctx context.Context, text string) (Label, error)
	Provider() Provider
	Close() error
}

// Result is a label and the provider that produced it.
type Result struct {
	Label    Label    `json:"label"`
	Provider Provider `json:"provider,omitempty"`
}

// RetryConfig defines retry behavior for a single provider.
type RetryConfig struct {
	MaxAttempts  int // including the first attempt
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// Retry configuration defaults
const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
)

// DefaultRetryConfig returns the retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}

// ProviderConfig holds credentials and model for one provider.
type ProviderConfig struct {
	APIKey  string
	BaseURL string // OpenAI-compatible providers only; empty = api.openai.com
	Model   string
}

// Config selects and orders providers.
type Config struct {
	Providers []Provider // fallback order; unconfigured providers are skipped
	Gemini    ProviderConfig
	OpenAI    ProviderConfig
	Retry     RetryConfig
}

// Default models
const (
	DefaultGeminiModel = "gemini-2.5-flash-lite"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// HasProvider returns true if the provider has an API key.
func (c *Config) HasProvider(p Provider) bool {
	switch p {
	case ProviderGemini:
		return c.Gemini.APIKey != ""
	case ProviderOpenAI:
		return c.OpenAI.APIKey != ""
	default:
		return false
	}
}

// ConfiguredProviders returns the providers with API keys, in c.Providers order.
func (c *Config) ConfiguredProviders() []Provider {
	out := make([]Provider, 0, len(c.Providers))
	for _, p := range c.Providers {
		if c.HasProvider(p) {
			out = append(out, p)
		}
	}
	return out
}
