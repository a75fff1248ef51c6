package generator

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("dashgen/generator")

// startSpan opens a GenAI client span named "chat <model>" following the
// OpenTelemetry GenAI semantic conventions.
func startSpan(ctx context.Context, cfg Config, req Request, c composed) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "chat "+cfg.Model,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.operation.name", "chat"),
			attribute.String("gen_ai.provider.name", cfg.Provider),
			attribute.String("gen_ai.request.model", cfg.Model),
			attribute.Int64("gen_ai.request.max_tokens", c.maxTokens),
			attribute.Float64("gen_ai.request.temperature", cfg.Temperature),
			attribute.String("dashgen.panel.key", req.PanelKey),
			attribute.String("dashgen.panel.kind", string(req.Kind)),
			attribute.Int("dashgen.panels", len(req.Panels)),

			// Langfuse renders spans with this attribute as generations.
			attribute.String("langfuse.observation.type", "generation"),
		),
	)

	input := []map[string]string{
		{"role": "system", "content": c.system},
		{"role": "user", "content": c.user},
	}
	if data, err := json.Marshal(input); err == nil {
		span.SetAttributes(attribute.String("gen_ai.input.messages", string(data)))
	}
	return ctx, span
}

// endSpanWithReply records the model reply on span.
func endSpanWithReply(span trace.Span, raw string, usage Usage, finishReason string) {
	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", usage.InputTokens),
		attribute.Int64("gen_ai.usage.output_tokens", usage.OutputTokens),
	)
	if finishReason != "" {
		span.SetAttributes(attribute.StringSlice("gen_ai.response.finish_reasons", []string{finishReason}))
	}
	output := []map[string]string{{"role": "assistant", "content": raw}}
	if data, err := json.Marshal(output); err == nil {
		span.SetAttributes(attribute.String("gen_ai.output.messages", string(data)))
	}
}

// failSpan marks span as failed with the given error type.
func failSpan(span trace.Span, errType string, err error) {
	span.SetAttributes(attribute.String("error.type", errType))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
