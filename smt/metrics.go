package smt

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("symcost.smt")
	meter  = otel.Meter("symcost.smt")
)

var (
	queriesTotal    metric.Int64Counter
	unknownTotal    metric.Int64Counter
	checkIterations metric.Int64Histogram
	checkLatency    metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		queriesTotal, err = meter.Int64Counter(
			"smt_queries_total",
			metric.WithDescription("Total number of satisfiability checks"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		unknownTotal, err = meter.Int64Counter(
			"smt_unknown_total",
			metric.WithDescription("Checks that ended without a verdict"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		checkIterations, err = meter.Int64Histogram(
			"smt_check_iterations",
			metric.WithDescription("SAT/theory round trips per check"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		checkLatency, err = meter.Float64Histogram(
			"smt_query_duration_seconds",
			metric.WithDescription("Duration of satisfiability checks"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})

	return metricsErr
}

func recordCheck(ctx context.Context, logic Logic, res Result) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("logic", logic.String()),
		attribute.String("status", res.Status.String()),
	)

	queriesTotal.Add(ctx, 1, attrs)

	if res.Status == Unknown {
		unknownTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("logic", logic.String())))
	}

	checkIterations.Record(ctx, int64(res.Iterations), attrs)
	checkLatency.Record(ctx, res.Duration.Seconds(), attrs)
}

func startCheckSpan(ctx context.Context, logic Logic) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Solver.Check",
		trace.WithAttributes(attribute.String("smt.logic", logic.String())),
	)
}

func setCheckSpanResult(span trace.Span, res Result) {
	span.SetAttributes(
		attribute.String("smt.status", res.Status.String()),
		attribute.Int("smt.iterations", res.Iterations),
	)

	if res.Reason != "" {
		span.SetAttributes(attribute.String("smt.reason", res.Reason))
	}
}
