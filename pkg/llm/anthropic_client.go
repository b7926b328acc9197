package llm

import (
	"context"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client  *anthropic.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewAnthropicClient creates a generator backed by Anthropic.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, NewError(ErrorTypeUnavailable, "api key is required", nil)
	}
	if cfg.Model == "" {
		return nil, NewError(ErrorTypeUnavailable, "model is required", nil)
	}

	var opts []anthropic.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.Endpoint))
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = time.Minute
	}

	return &AnthropicClient{
		client:  anthropic.NewClient(cfg.APIKey, opts...),
		model:   cfg.Model,
		timeout: timeout,
		logger:  logger.Named("llm"),
	}, nil
}

// Generate implements Generator.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string, systemPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		System:    systemPrompt,
		MaxTokens: 4096,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		c.logger.Error("generation request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", ClassifyError(err)
	}

	text := resp.GetFirstContentText()
	if text == "" {
		return "", NewError(ErrorTypeParseFailed, "no text content in response", nil)
	}

	c.logger.Info("generation request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

// Health implements Generator with a minimal one-token request; Anthropic
// exposes no cheaper probe.
func (c *AnthropicClient) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	_, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage("ping"),
		},
	})
	if err != nil {
		c.logger.Warn("generator health probe failed", zap.Error(err))
		return false
	}
	return true
}

// Model implements Generator.
func (c *AnthropicClient) Model() string {
	return c.model
}

var _ Generator = (*AnthropicClient)(nil)
