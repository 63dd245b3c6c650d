package gridsample

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhinvv1/WebDriverAgent/internal/platform"
)

var tracer = otel.Tracer("gridtree.gridsample")

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtree_sampling_runs_total",
			Help: "Total number of sampling runs by status",
		},
		[]string{"status"},
	)

	probesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtree_probes_total",
			Help: "Total number of grid point probes by outcome",
		},
		[]string{"outcome"},
	)

	probeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridtree_probe_duration_seconds",
			Help:    "Latency of a single grid point probe",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	treeNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridtree_tree_nodes",
			Help:    "Number of nodes in reconstructed trees",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)

func startRunSpan(ctx context.Context, runID string, cfg Config) (context.Context, trace.Span) {
	return tracer.Start(ctx, "gridsample.BuildTree",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("grid.samples_x", cfg.SamplesX),
			attribute.Int("grid.samples_y", cfg.SamplesY),
			attribute.Int("grid.max_depth_for_point", cfg.MaxDepthForPoint),
			attribute.String("grid.time_budget", cfg.TimeBudget.String()),
		),
	)
}

func setRunSpanResult(span trace.Span, res *Result) {
	span.SetAttributes(
		attribute.String("run.status", string(res.Status)),
		attribute.Int("run.nodes", res.Nodes),
		attribute.Int("run.hits", res.Hits),
		attribute.Int("run.misses", res.Misses),
		attribute.Int("run.duplicates", res.Duplicates),
		attribute.Int("run.failures", res.FailureCount()),
	)
}

func startProbeSpan(ctx context.Context, pt platform.Point) (context.Context, trace.Span) {
	return tracer.Start(ctx, "gridsample.probe",
		trace.WithAttributes(
			attribute.Float64("point.x", pt.X),
			attribute.Float64("point.y", pt.Y),
		),
	)
}

func startFetchSpan(ctx context.Context, name string, pt platform.Point, depth int) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.Float64("point.x", pt.X),
			attribute.Float64("point.y", pt.Y),
			attribute.Int("fetch.max_depth", depth),
		),
	)
}
