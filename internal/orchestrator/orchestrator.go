// Package orchestrator runs the fetch lifecycle of dashboard panels.
//
// A fetch is split in two halves. Fetch marks the panel loading and returns
// a Pending call that performs the single remote request; the caller runs it
// wherever blocking is allowed (a tea.Cmd in the dashboard). Complete folds
// the Completion back into the store and must run on the same loop that
// owns all other store mutations. Fetches are not fenced: when two fetches
// for the same panel overlap, whichever completes last wins.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/dashgen/internal/dashboard"
	"github.com/timvw/dashgen/internal/generator"
	"github.com/timvw/dashgen/internal/logger"
	dgotel "github.com/timvw/dashgen/internal/otel"
	"github.com/timvw/dashgen/internal/protocol"
)

var tracer = otel.Tracer("dashgen/orchestrator")

// Pending performs one remote call. It blocks and must not touch the store.
type Pending func() Completion

// Completion is the outcome of one remote call for one panel.
type Completion struct {
	PanelID  string
	Result   *generator.Result
	Err      error
	Duration time.Duration
}

// Orchestrator connects a panel store to a generator.
type Orchestrator struct {
	Store     *dashboard.Store
	Generator generator.Generator
	Metrics   *dgotel.Metrics // nil-safe
	// Timeout bounds each remote call. Zero means no limit.
	Timeout time.Duration
}

// New returns an orchestrator over store and gen.
func New(store *dashboard.Store, gen generator.Generator, metrics *dgotel.Metrics) *Orchestrator {
	return &Orchestrator{Store: store, Generator: gen, Metrics: metrics}
}

// Fetch starts a fetch for panelID. The panel is marked loading with its
// error cleared; existing content stays visible. The request prompt is
// override when non-empty, else the panel's stored prompt. It reports false
// when the panel does not exist.
func (o *Orchestrator) Fetch(ctx context.Context, panelID, override string) (Pending, bool) {
	p, ok := o.Store.Get(panelID)
	if !ok {
		return nil, false
	}
	o.Store.MarkLoading(panelID)

	prompt := override
	if prompt == "" {
		prompt = p.Prompt
	}
	req := generator.Request{
		PanelKey: p.Key,
		Prompt:   prompt,
		Kind:     p.Kind,
		Panels:   o.Store.Snapshot(),
	}

	return func() Completion {
		return o.call(ctx, panelID, req)
	}, true
}

func (o *Orchestrator) call(ctx context.Context, panelID string, req generator.Request) Completion {
	ctx, span := tracer.Start(ctx, "panel.fetch",
		trace.WithAttributes(
			attribute.String("panel.id", panelID),
			attribute.String("panel.key", req.PanelKey),
			attribute.String("panel.kind", string(req.Kind)),
		))
	defer span.End()

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := o.Generator.Generate(ctx, req)
	if err == nil && res == nil {
		err = fmt.Errorf("%s: %w", o.Generator.Provider(), generator.ErrNoContent)
	}
	c := Completion{PanelID: panelID, Result: res, Err: err, Duration: time.Since(start)}

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("commands", len(res.Commands)))
	}
	o.Metrics.RecordFetch(ctx, c.Duration, outcome)
	return c
}

// Complete applies c to the store. On failure the panel gets the error and
// keeps its content. On success the content is replaced and every embedded
// command is applied in order. A panel removed while its fetch was in
// flight is not recreated, but the commands still apply since they address
// the whole dashboard.
func (o *Orchestrator) Complete(c Completion) dashboard.Outcome {
	if c.Err != nil {
		if !o.Store.Fail(c.PanelID, c.Err.Error()) {
			logger.Debug("fetch failed for removed panel", "panel", c.PanelID, "error", c.Err)
		} else {
			logger.Warn("panel fetch failed", "panel", c.PanelID, "error", c.Err)
		}
		return dashboard.Outcome{}
	}

	content := ""
	if c.Result != nil {
		content = c.Result.Content
	}
	if !o.Store.Resolve(c.PanelID, content) {
		logger.Debug("fetch completed for removed panel", "panel", c.PanelID)
	}
	if c.Result == nil || len(c.Result.Commands) == 0 {
		return dashboard.Outcome{}
	}

	out := dashboard.Apply(o.Store, c.Result.Commands)
	o.record(out)
	return out
}

// ApplyCommands applies commands from a source other than a fetch (the
// command inbox) with the same accounting as Complete.
func (o *Orchestrator) ApplyCommands(cmds []protocol.Command) dashboard.Outcome {
	out := dashboard.Apply(o.Store, cmds)
	o.record(out)
	return out
}

func (o *Orchestrator) record(out dashboard.Outcome) {
	ctx := context.Background()
	for _, r := range out.Results {
		o.Metrics.RecordCommand(ctx, r.Type, string(r.Result))
	}
}

// FetchSync runs a whole fetch inline, for callers without an event loop.
// It reports false when the panel does not exist.
func (o *Orchestrator) FetchSync(ctx context.Context, panelID, override string) (Completion, dashboard.Outcome, bool) {
	pending, ok := o.Fetch(ctx, panelID, override)
	if !ok {
		return Completion{}, dashboard.Outcome{}, false
	}
	c := pending()
	return c, o.Complete(c), true
}
