package llm

import (
	"context"
	"fmt"
	"strings"

	"doc-compliance-checker/internal/config"
)

// Client is the narrow capability the report generator and rewriter depend on.
// Any provider implementation should satisfy this.
type Client interface {
	// GenerateJSON asks the model for a single JSON object
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	// GenerateText asks the model for a plain-text completion
	GenerateText(ctx context.Context, prompt string) (string, error)
	Close() error
}

// NewFromConfig returns a Client for the configured provider.
// A missing credential for a real provider is an error.
func NewFromConfig(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		c, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "openai":
		c, err := NewOpenAIClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "mock":
		return &MockClient{}, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
	}
}

func modelWithDefault(model, def string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return def
}
