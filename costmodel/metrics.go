package costmodel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("symcost.costmodel")
	meter  = otel.Meter("symcost.costmodel")
)

var (
	oracleHits     metric.Int64Counter
	oracleMisses   metric.Int64Counter
	comparisons    metric.Int64Counter
	relaxedRetries metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		oracleHits, err = meter.Int64Counter(
			"oracle_cache_hits_total",
			metric.WithDescription("Cardinality queries answered from the memo"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		oracleMisses, err = meter.Int64Counter(
			"oracle_cache_misses_total",
			metric.WithDescription("Cardinality queries sent to the solver"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		comparisons, err = meter.Int64Counter(
			"cost_comparisons_total",
			metric.WithDescription("Cost comparisons by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		relaxedRetries, err = meter.Int64Counter(
			"cost_relaxed_retries_total",
			metric.WithDescription("Comparisons retried over the reals"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})

	return metricsErr
}

func recordOracleLookup(ctx context.Context, hit bool) {
	if err := initMetrics(); err != nil {
		return
	}

	if hit {
		oracleHits.Add(ctx, 1)
		return
	}

	oracleMisses.Add(ctx, 1)
}

func recordComparison(ctx context.Context, o Ordering) {
	if err := initMetrics(); err != nil {
		return
	}

	comparisons.Add(ctx, 1, metric.WithAttributes(attribute.String("ordering", o.String())))
}

func recordRelaxedRetry(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}

	relaxedRetries.Add(ctx, 1)
}

func startCompareSpan(ctx context.Context, a, b *Cost) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Comparator.Compare",
		trace.WithAttributes(
			attribute.String("cost.a", a.Formula().String()),
			attribute.String("cost.b", b.Formula().String()),
		),
	)
}
