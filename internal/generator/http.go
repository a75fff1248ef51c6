package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/timvw/dashgen/internal/dashboard"
	"github.com/timvw/dashgen/internal/otel"
	"github.com/timvw/dashgen/internal/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PanelPath is the route served by `dashgen serve`.
const PanelPath = "/api/panel"

// PanelResponse is the JSON body of a panel endpoint reply. Successful
// replies carry Content and Commands; failures carry Error.
type PanelResponse struct {
	Content  string             `json:"content"`
	Commands []protocol.Command `json:"commands"`
	Error    string             `json:"error,omitempty"`
}

// HTTPGenerator delegates generation to a remote panel endpoint, typically
// another dashgen instance running `serve`.
type HTTPGenerator struct {
	endpoint string
	client   *http.Client
	metrics  *otel.Metrics
}

// NewHTTPGenerator creates a generator that posts to baseURL + PanelPath.
// A baseURL that already ends in PanelPath is used as is.
func NewHTTPGenerator(baseURL string, timeout time.Duration, metrics *otel.Metrics) *HTTPGenerator {
	endpoint := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(endpoint, PanelPath) {
		endpoint += PanelPath
	}
	return &HTTPGenerator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		metrics:  metrics,
	}
}

// Provider returns "http".
func (g *HTTPGenerator) Provider() string { return "http" }

// Model returns the endpoint URL.
func (g *HTTPGenerator) Model() string { return g.endpoint }

// Generate posts req to the panel endpoint. Non-2xx replies fail with the
// decoded error field, or "API error: <status>" when there is none.
func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "POST "+PanelPath,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodPost),
			attribute.String("url.full", g.endpoint),
			attribute.String("dashgen.panel.key", req.PanelKey),
		),
	)
	defer span.End()

	result, err := g.do(ctx, span, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.metrics.RecordGeneration(ctx, g.Provider(), "error")
		return nil, err
	}
	g.metrics.RecordGeneration(ctx, g.Provider(), "ok")
	return result, nil
}

func (g *HTTPGenerator) do(ctx context.Context, span trace.Span, req Request) (*Result, error) {
	if req.Panels == nil {
		req.Panels = []dashboard.Info{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding panel request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating panel request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("panel request failed: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading panel response: %w", err)
	}

	var decoded PanelResponse
	decodeErr := json.Unmarshal(data, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && decoded.Error != "" {
			return nil, errors.New(decoded.Error)
		}
		return nil, fmt.Errorf("API error: %s", resp.Status)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding panel response: %w", decodeErr)
	}
	if decoded.Error != "" {
		return nil, errors.New(decoded.Error)
	}

	commands := decoded.Commands
	if commands == nil {
		commands = []protocol.Command{}
	}
	return &Result{
		Content:  decoded.Content,
		Commands: commands,
		Raw:      string(data),
	}, nil
}
