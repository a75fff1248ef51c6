package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicGenerator generates panels through the Anthropic Messages API.
// Works with both the direct Anthropic API and Azure AI Foundry.
type AnthropicGenerator struct {
	client anthropic.Client
	cfg    Config
}

// NewAnthropicGenerator creates an Anthropic generator.
func NewAnthropicGenerator(cfg Config) *AnthropicGenerator {
	cfg.Provider = "anthropic"
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5"
	}

	var opts []option.RequestOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	for k, v := range cfg.ExtraHeaders {
		opts = append(opts, option.WithHeader(k, v))
	}

	return &AnthropicGenerator{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
	}
}

// Provider returns "anthropic".
func (g *AnthropicGenerator) Provider() string { return g.cfg.Provider }

// Model returns the model name.
func (g *AnthropicGenerator) Model() string { return g.cfg.Model }

// Generate sends one message and parses the reply.
func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if g.cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", g.cfg.Provider, ErrMissingCredential)
	}

	c := compose(g.cfg, req)
	ctx, span := startSpan(ctx, g.cfg, req, c)
	defer span.End()

	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.cfg.Model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(g.cfg.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: c.system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(c.user)),
		},
	})
	if err != nil {
		failSpan(span, "api_error", err)
		g.cfg.Metrics.RecordGeneration(ctx, g.cfg.Provider, "error")
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	// Concatenate every text block; tool or thinking blocks carry no panel content.
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	raw := b.String()

	usage := Usage{
		InputTokens:     resp.Usage.InputTokens,
		OutputTokens:    resp.Usage.OutputTokens,
		CacheReadTokens: resp.Usage.CacheReadInputTokens,
	}
	endSpanWithReply(span, raw, usage, string(resp.StopReason))
	if raw == "" {
		failSpan(span, "empty_response", ErrNoContent)
	}
	return finish(ctx, g.cfg, raw, usage)
}
