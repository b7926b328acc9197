package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Provider names accepted by NewGenerator.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// NewGenerator creates a Generator for the configured provider.
func NewGenerator(provider string, cfg *Config, logger *zap.Logger) (Generator, error) {
	switch provider {
	case ProviderOpenAI, "":
		client, err := NewOpenAIClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create openai generator: %w", err)
		}
		return client, nil
	case ProviderAnthropic:
		client, err := NewAnthropicClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic generator: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", provider)
	}
}

// offlineGenerator is the deployment without a text generator: always
// unhealthy, every generation attempt fails as unavailable. Computed job
// types and the rest of the service keep working.
type offlineGenerator struct{}

// NewOfflineGenerator returns a Generator that is permanently offline.
func NewOfflineGenerator() Generator {
	return &offlineGenerator{}
}

var _ Generator = (*offlineGenerator)(nil)

func (g *offlineGenerator) Generate(ctx context.Context, prompt string, systemPrompt string) (string, error) {
	return "", NewError(ErrorTypeUnavailable, "no text generator configured", nil)
}

func (g *offlineGenerator) Health(ctx context.Context) bool { return false }

func (g *offlineGenerator) Model() string { return "" }
