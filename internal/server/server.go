// Package server exposes panel generation over HTTP.
//
// POST /api/panel is the endpoint the dashboard talks to when it runs with
// a remote endpoint. POST /api/dashboard is the older single-panel route
// that returns only markup.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/dashgen/internal/generator"
	"github.com/timvw/dashgen/internal/logger"
	dgotel "github.com/timvw/dashgen/internal/otel"
	"github.com/timvw/dashgen/internal/protocol"
)

var tracer = otel.Tracer("dashgen/server")

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server serves generation requests.
type Server struct {
	Generator generator.Generator
	Cache     *ResponseCache  // nil disables caching
	Metrics   *dgotel.Metrics // nil-safe
}

// New returns a server backed by gen.
func New(gen generator.Generator, cache *ResponseCache, metrics *dgotel.Metrics) *Server {
	return &Server{Generator: gen, Cache: cache, Metrics: metrics}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(generator.PanelPath, s.handlePanel)
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("serving", "addr", addr, "provider", s.Generator.Provider(), "model", s.Generator.Model())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type legacyRequest struct {
	PanelKey   string `json:"panelKey"`
	PanelID    string `json:"panelId"`
	UserPrompt string `json:"userPrompt"`
}

type legacyResponse struct {
	HTML string `json:"html"`
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
		return
	}

	var req generator.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return
	}

	res, err := s.generate(r.Context(), req)
	if err != nil {
		logger.Error("panel generation failed", "panelKey", req.PanelKey, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	commands := res.Commands
	if commands == nil {
		commands = []protocol.Command{}
	}
	writeJSON(w, http.StatusOK, generator.PanelResponse{Content: res.Content, Commands: commands})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
		return
	}

	var body legacyRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return
	}
	key := body.PanelKey
	if key == "" {
		key = body.PanelID
	}

	res, err := s.generate(r.Context(), generator.Request{
		PanelKey: key,
		Prompt:   body.UserPrompt,
		Kind:     protocol.KindRich,
	})
	if err != nil {
		logger.Error("dashboard generation failed", "panelKey", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, legacyResponse{HTML: res.Content})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	entries, hits := s.Cache.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"provider": s.Generator.Provider(),
		"model":    s.Generator.Model(),
		"cache": map[string]any{
			"enabled": s.Cache.Enabled(),
			"entries": entries,
			"hits":    hits,
		},
	})
}

func (s *Server) generate(ctx context.Context, req generator.Request) (*generator.Result, error) {
	ctx, span := tracer.Start(ctx, "generate_panel",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("panel.key", req.PanelKey),
			attribute.String("panel.kind", string(req.Kind)),
			attribute.Int("panels", len(req.Panels)),
		))
	defer span.End()

	if s.Cache.Enabled() {
		if cached, ok := s.Cache.Lookup(req); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			s.Metrics.RecordCacheHit(ctx)
			return cached, nil
		}
		s.Metrics.RecordCacheMiss(ctx)
	}

	res, err := s.Generator.Generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.Cache.Store(req, *res)
	return res, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("writing response failed", "error", err)
	}
}
