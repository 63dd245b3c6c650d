// Package gridsample rebuilds an application's element tree by probing a
// grid of screen points, taking a shallow snapshot at each hit and merging
// the partial views by element identity.
package gridsample

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhinvv1/WebDriverAgent/internal/attrcache"
	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
	"github.com/abhinvv1/WebDriverAgent/internal/model"
	"github.com/abhinvv1/WebDriverAgent/internal/platform"
)

// Engine samples one application through a platform backend.
type Engine struct {
	backend  platform.Backend
	resolver *attrcache.Resolver
	logger   *slog.Logger
}

// NewEngine creates an engine. Attribute reads go through resolver so that
// repeated runs and serialization share cached values.
func NewEngine(backend platform.Backend, resolver *attrcache.Resolver, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{backend: backend, resolver: resolver, logger: logger}
}

// Resolver returns the engine's attribute resolver.
func (e *Engine) Resolver() *attrcache.Resolver { return e.resolver }

// BuildTree runs one grid sampling pass. Points are probed sequentially in
// row-major order. Per-point failures are counted and skipped; the run only
// fails when the application cannot be resolved or the first probe hits a
// platform failure. Exhausting the time budget or cancelling ctx stops the
// run early with a partial result.
func (e *Engine) BuildTree(ctx context.Context, cfg Config) (*Result, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := e.logger.With("run_id", runID)
	ctx, span := startRunSpan(ctx, runID, cfg)
	defer span.End()

	app, err := e.backend.Application(ctx)
	if err != nil {
		return nil, e.failRun(span, apperrors.Wrap(apperrors.ErrCodePlatformQuery, "resolving application", err))
	}
	frame, err := e.backend.Frame(ctx)
	if err != nil {
		return nil, e.failRun(span, apperrors.Wrap(apperrors.ErrCodePlatformQuery, "reading application frame", err))
	}
	appElement := model.NewElement(app.Identity, e.resolver.Bind(app))
	if _, err := appElement.Attributes(ctx); err != nil {
		return nil, e.failRun(span, err)
	}

	state := newRunState(app, appElement, cfg.MaxTreeDepth)
	points := GridPoints(frame, cfg.SamplesX, cfg.SamplesY)
	res := &Result{
		Status:   StatusComplete,
		RunID:    runID,
		Points:   len(points),
		Frame:    frame,
		Failures: make(map[apperrors.ErrorCode]int),
	}
	log.Debug("sampling started",
		"points", len(points),
		"frame", fmt.Sprintf("%+v", frame),
		"max_depth_for_point", cfg.MaxDepthForPoint)

	for i, pt := range points {
		probe := e.probe(ctx, state, cfg, pt)
		state.iterationCount++
		res.Probes = append(res.Probes, probe)
		probeDuration.Observe(probe.Duration.Seconds())
		probesTotal.WithLabelValues(string(probe.Outcome)).Inc()

		if ctx.Err() != nil {
			res.Status = StatusPartial
			res.StopReason = "cancelled"
			break
		}

		switch probe.Outcome {
		case OutcomeHit:
			res.Hits++
		case OutcomeMiss:
			res.Misses++
		case OutcomeDuplicate:
			res.Duplicates++
		case OutcomeFailed:
			if i == 0 && probe.Code == apperrors.ErrCodePlatformQuery {
				err := apperrors.WrapWithContext(apperrors.ErrCodePlatformQuery, "first probe failed",
					errors.New(probe.Error), map[string]any{"x": pt.X, "y": pt.Y})
				return nil, e.failRun(span, err)
			}
			res.Failures[probe.Code]++
			log.Debug("probe failed",
				"x", pt.X,
				"y", pt.Y,
				"code", probe.Code,
				"error", probe.Error)
		}

		if time.Since(state.startTime) >= cfg.TimeBudget && i < len(points)-1 {
			res.Status = StatusPartial
			res.StopReason = "time budget exceeded"
			break
		}
	}

	res.Iterations = state.iterationCount
	res.Root = state.assemble()
	res.Nodes = len(state.nodes)
	res.Elapsed = time.Since(state.startTime)
	if len(res.Failures) == 0 {
		res.Failures = nil
	}

	runsTotal.WithLabelValues(string(res.Status)).Inc()
	treeNodes.Observe(float64(res.Nodes))
	setRunSpanResult(span, res)

	level := slog.LevelInfo
	if res.Status == StatusPartial || res.FailureCount() > 0 {
		level = slog.LevelWarn
	}
	log.Log(ctx, level, "sampling finished",
		"status", res.Status,
		"nodes", res.Nodes,
		"hits", res.Hits,
		"misses", res.Misses,
		"duplicates", res.Duplicates,
		"failures", res.FailureCount(),
		"elapsed", res.Elapsed,
		"stop_reason", res.StopReason)
	return res, nil
}

// probe handles one grid point.
func (e *Engine) probe(ctx context.Context, state *runState, cfg Config, pt platform.Point) Probe {
	start := time.Now()
	p := Probe{Point: pt}

	ctx, span := startProbeSpan(ctx, pt)
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	defer cancel()

	fail := func(err error) Probe {
		p.Outcome = OutcomeFailed
		p.Code = apperrors.CodeOf(err)
		p.Error = err.Error()
		p.Duration = time.Since(start)
		span.RecordError(err)
		span.SetAttributes(attribute.String("probe.outcome", string(p.Outcome)))
		return p
	}
	done := func(o Outcome) Probe {
		p.Outcome = o
		p.Duration = time.Since(start)
		span.SetAttributes(attribute.String("probe.outcome", string(o)))
		return p
	}

	hit, err := e.backend.HitTest(ctx, pt)
	if err != nil {
		return fail(classify(err, "hit test", pt))
	}
	if hit == nil || hit.Element.Identity == state.root.ref.Identity {
		return done(OutcomeMiss)
	}
	p.Identity = hit.Element.Identity
	if state.processedIdentities[hit.Element.Identity] {
		return done(OutcomeDuplicate)
	}

	raw, err := e.backend.Snapshot(ctx, hit.Element.Handle, cfg.pointDepth())
	if err != nil {
		return fail(classify(err, "snapshot", pt))
	}

	// Resolve attributes of everything new before touching the tree, so a
	// probe either merges fully or not at all.
	fresh := state.collectFresh(hit.Ancestors, raw)
	elements := make(map[model.Identity]*model.Element, len(fresh))
	for _, ref := range fresh {
		el := model.NewElement(ref.Identity, e.resolver.Bind(ref))
		if _, err := el.Attributes(ctx); err != nil {
			return fail(classify(err, "reading attributes", pt))
		}
		elements[ref.Identity] = el
	}

	p.Added = state.graft(hit.Ancestors, raw, elements)
	return done(OutcomeHit)
}

// classify maps a platform failure to an error kind.
func classify(err error, op string, pt platform.Point) error {
	if code := apperrors.CodeOf(err); code != "" {
		return err
	}
	details := map[string]any{"x": pt.X, "y": pt.Y}
	switch {
	case errors.Is(err, platform.ErrOutOfBounds):
		return apperrors.WrapWithContext(apperrors.ErrCodePointOutOfBounds, op, err, details)
	case errors.Is(err, platform.ErrDetached):
		return apperrors.WrapWithContext(apperrors.ErrCodeElementDetached, op, err, details)
	default:
		return apperrors.WrapWithContext(apperrors.ErrCodePlatformQuery, op, err, details)
	}
}

func (e *Engine) failRun(span trace.Span, err error) error {
	runsTotal.WithLabelValues("failed").Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
