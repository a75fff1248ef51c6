package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "dashgen"

// Metrics holds the dashgen metric instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	InputTokens     metric.Int64Counter
	OutputTokens    metric.Int64Counter
	CacheReadTokens metric.Int64Counter

	// Generations counts remote generation calls by provider and outcome.
	Generations metric.Int64Counter
	// FetchDuration is the wall time of a panel fetch, in milliseconds.
	FetchDuration metric.Int64Histogram

	// Commands counts applied commands by type and result.
	Commands metric.Int64Counter
	// DecodeFailures counts command blocks that failed to decode.
	DecodeFailures metric.Int64Counter

	ResponseCacheHits   metric.Int64Counter
	ResponseCacheMisses metric.Int64Counter
}

// NewMetrics creates the instruments from the global MeterProvider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.InputTokens, "llm.tokens.input", "LLM input tokens consumed", "{token}"},
		{&m.OutputTokens, "llm.tokens.output", "LLM output tokens consumed", "{token}"},
		{&m.CacheReadTokens, "llm.tokens.cache_read", "Input tokens served from the provider prompt cache", "{token}"},
		{&m.Generations, "generations.total", "Generation calls partitioned by provider and outcome", ""},
		{&m.Commands, "commands.total", "Dashboard commands partitioned by type and result", ""},
		{&m.DecodeFailures, "protocol.decode_failures", "Command blocks that were present but could not be decoded", ""},
		{&m.ResponseCacheHits, "response_cache.hits", "Panel requests served from the response cache", ""},
		{&m.ResponseCacheMisses, "response_cache.misses", "Panel requests that missed the response cache", ""},
	}
	for _, c := range counters {
		opts := []metric.Int64CounterOption{metric.WithDescription(c.desc)}
		if c.unit != "" {
			opts = append(opts, metric.WithUnit(c.unit))
		}
		counter, err := meter.Int64Counter(c.name, opts...)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	m.FetchDuration, err = meter.Int64Histogram("panel.fetch.duration",
		metric.WithDescription("Wall time of a panel fetch"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordTokens records token usage for one generation.
func (m *Metrics) RecordTokens(ctx context.Context, provider, model string, input, output, cacheRead int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
	)
	m.InputTokens.Add(ctx, input, attrs)
	m.OutputTokens.Add(ctx, output, attrs)
	if cacheRead > 0 {
		m.CacheReadTokens.Add(ctx, cacheRead, attrs)
	}
}

// RecordGeneration records one generation call. outcome is "ok" or "error".
func (m *Metrics) RecordGeneration(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	m.Generations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("outcome", outcome),
	))
}

// RecordFetch records the duration and outcome of a panel fetch.
func (m *Metrics) RecordFetch(ctx context.Context, d time.Duration, outcome string) {
	if m == nil {
		return
	}
	m.FetchDuration.Record(ctx, d.Milliseconds(), metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordCommand records one applied (or skipped) dashboard command.
func (m *Metrics) RecordCommand(ctx context.Context, commandType, result string) {
	if m == nil {
		return
	}
	if commandType == "" {
		commandType = "unknown"
	}
	m.Commands.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command.type", commandType),
		attribute.String("command.result", result),
	))
}

// RecordDecodeFailure records a command block that could not be decoded.
func (m *Metrics) RecordDecodeFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.DecodeFailures.Add(ctx, 1)
}

// RecordCacheHit records a response cache hit.
func (m *Metrics) RecordCacheHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.ResponseCacheHits.Add(ctx, 1)
}

// RecordCacheMiss records a response cache miss.
func (m *Metrics) RecordCacheMiss(ctx context.Context) {
	if m == nil {
		return
	}
	m.ResponseCacheMisses.Add(ctx, 1)
}
