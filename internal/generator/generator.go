// Package generator calls the remote generative-UI model for one panel.
//
// A generator composes the system prompt from the prompt registry, sends a
// single request and splits the reply into panel content and dashboard
// commands. It never interprets the content itself.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/timvw/dashgen/internal/dashboard"
	"github.com/timvw/dashgen/internal/otel"
	"github.com/timvw/dashgen/internal/prompts"
	"github.com/timvw/dashgen/internal/protocol"
)

var (
	// ErrMissingCredential is returned when no API key could be resolved.
	ErrMissingCredential = errors.New("no API key configured")
	// ErrNoContent is returned when the model answered without any text.
	ErrNoContent = errors.New("no content returned")
)

// Default Thesys C1 endpoint and model.
const (
	ThesysBaseURL = "https://api.thesys.dev/v1/embed"
	ThesysModel   = "c1/anthropic/claude-sonnet-4/v-20251230"

	DefaultTemperature = 0.7
)

// Generator produces the content of one panel.
type Generator interface {
	// Generate performs one remote generation for req.
	Generate(ctx context.Context, req Request) (*Result, error)

	// Provider returns the provider name (e.g. "thesys", "anthropic").
	Provider() string

	// Model returns the model name.
	Model() string
}

// Request is everything the remote side needs to render one panel.
type Request struct {
	PanelKey string           `json:"panelKey,omitempty"`
	Prompt   string           `json:"prompt,omitempty"`
	Kind     protocol.Kind    `json:"kind"`
	Panels   []dashboard.Info `json:"panels"`
}

// UnmarshalJSON accepts the legacy field names panelId and panelType, and
// "c1" as a kind. A missing kind means rich.
func (r *Request) UnmarshalJSON(data []byte) error {
	var wire struct {
		PanelKey  string           `json:"panelKey"`
		PanelID   string           `json:"panelId"`
		Prompt    string           `json:"prompt"`
		Kind      string           `json:"kind"`
		PanelType string           `json:"panelType"`
		Panels    []dashboard.Info `json:"panels"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	key := wire.PanelKey
	if key == "" {
		key = wire.PanelID
	}
	rawKind := wire.Kind
	if rawKind == "" {
		rawKind = wire.PanelType
	}
	kind := protocol.KindRich
	if rawKind != "" {
		k, ok := protocol.ParseKind(rawKind)
		if !ok {
			return fmt.Errorf("unknown panel kind %q", rawKind)
		}
		kind = k
	}

	*r = Request{PanelKey: key, Prompt: wire.Prompt, Kind: kind, Panels: wire.Panels}
	return nil
}

// Result is a decoded generation.
type Result struct {
	Content  string             `json:"content"`
	Commands []protocol.Command `json:"commands"`

	// Raw is the unparsed model reply.
	Raw string `json:"-"`
	// Malformed is set when a command block was present but undecodable.
	Malformed bool  `json:"-"`
	Usage     Usage `json:"-"`
}

// Usage is the token accounting of one generation.
type Usage struct {
	InputTokens     int64
	OutputTokens    int64
	CacheReadTokens int64
}

// Config holds the settings shared by the model-backed generators.
type Config struct {
	// Provider names the backend for telemetry ("thesys", "openai", "anthropic").
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	// MaxTokens overrides the registry budget when positive.
	MaxTokens   int64
	Temperature float64
	// ExtraHeaders are sent with every request.
	ExtraHeaders map[string]string

	// Registry resolves instruction sets. Nil means prompts.Default().
	Registry *prompts.Registry
	// Metrics may be nil.
	Metrics *otel.Metrics
}

func (c Config) registry() *prompts.Registry {
	if c.Registry != nil {
		return c.Registry
	}
	return defaultRegistry
}

var defaultRegistry = prompts.Default()

// composed is a fully resolved model request.
type composed struct {
	system    string
	user      string
	maxTokens int64
}

func compose(cfg Config, req Request) composed {
	reg := cfg.registry()
	maxTokens := reg.MaxTokens(req.PanelKey)
	if cfg.MaxTokens > 0 {
		maxTokens = cfg.MaxTokens
	}
	return composed{
		system:    reg.System(req.PanelKey, req.Kind, req.Panels),
		user:      reg.UserPrompt(req.PanelKey, req.Kind, req.Prompt),
		maxTokens: maxTokens,
	}
}

// finish splits the raw reply and records the result.
func finish(ctx context.Context, cfg Config, raw string, usage Usage) (*Result, error) {
	if raw == "" {
		cfg.Metrics.RecordGeneration(ctx, cfg.Provider, "error")
		return nil, fmt.Errorf("%s: %w", cfg.Provider, ErrNoContent)
	}

	parsed := protocol.Parse(raw)
	if parsed.Malformed {
		cfg.Metrics.RecordDecodeFailure(ctx)
	}
	cfg.Metrics.RecordTokens(ctx, cfg.Provider, cfg.Model, usage.InputTokens, usage.OutputTokens, usage.CacheReadTokens)
	cfg.Metrics.RecordGeneration(ctx, cfg.Provider, "ok")

	return &Result{
		Content:   parsed.Content,
		Commands:  parsed.Commands,
		Raw:       raw,
		Malformed: parsed.Malformed,
		Usage:     usage,
	}, nil
}
