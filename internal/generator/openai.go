package generator

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
)

// OpenAIGenerator generates panels through an OpenAI-compatible Chat
// Completions API. Thesys C1 is the default backend; OpenAI and any
// compatible endpoint work as well.
type OpenAIGenerator struct {
	client openai.Client
	cfg    Config
}

// NewOpenAIGenerator creates an OpenAI-compatible generator. An empty
// provider means "thesys", and for Thesys the base URL and model default
// to the C1 embed endpoint.
func NewOpenAIGenerator(cfg Config) *OpenAIGenerator {
	if cfg.Provider == "" {
		cfg.Provider = "thesys"
	}
	if cfg.Provider == "thesys" {
		if cfg.BaseURL == "" {
			cfg.BaseURL = ThesysBaseURL
		}
		if cfg.Model == "" {
			cfg.Model = ThesysModel
		}
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
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

	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

// Provider returns the configured provider name.
func (g *OpenAIGenerator) Provider() string { return g.cfg.Provider }

// Model returns the model name.
func (g *OpenAIGenerator) Model() string { return g.cfg.Model }

// Generate sends one chat completion and parses the reply.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if g.cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", g.cfg.Provider, ErrMissingCredential)
	}

	c := compose(g.cfg, req)
	ctx, span := startSpan(ctx, g.cfg, req, c)
	defer span.End()

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.system),
			openai.UserMessage(c.user),
		},
		Temperature: openai.Float(g.cfg.Temperature),
		MaxTokens:   openai.Int(c.maxTokens),
	})
	if err != nil {
		failSpan(span, "api_error", err)
		g.cfg.Metrics.RecordGeneration(ctx, g.cfg.Provider, "error")
		return nil, fmt.Errorf("%s API call failed: %w", g.cfg.Provider, err)
	}

	span.SetAttributes(
		attribute.String("gen_ai.response.model", resp.Model),
		attribute.String("gen_ai.response.id", resp.ID),
	)

	usage := Usage{
		InputTokens:     resp.Usage.PromptTokens,
		OutputTokens:    resp.Usage.CompletionTokens,
		CacheReadTokens: resp.Usage.PromptTokensDetails.CachedTokens,
	}

	if len(resp.Choices) == 0 {
		failSpan(span, "empty_response", ErrNoContent)
		return finish(ctx, g.cfg, "", usage)
	}

	raw := resp.Choices[0].Message.Content
	endSpanWithReply(span, raw, usage, string(resp.Choices[0].FinishReason))
	if raw == "" {
		failSpan(span, "empty_response", ErrNoContent)
	}
	return finish(ctx, g.cfg, raw, usage)
}
