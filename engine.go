package symcost

import (
	"context"
	"log/slog"

	"github.com/shibukawa/symcost/costmodel"
	"github.com/shibukawa/symcost/smt"
	"github.com/shibukawa/symcost/syntax"
)

// Engine wires a solver, a cardinality oracle, a cost model and a
// comparator together from a Config.
type Engine struct {
	config     *Config
	solver     *smt.Solver
	oracle     *costmodel.Oracle
	model      *costmodel.Model
	comparator *costmodel.Comparator
	ranker     *costmodel.Ranker
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine builds an engine. A nil config means defaults.
func NewEngine(config *Config, opts ...EngineOption) *Engine {
	if config == nil {
		config = getDefaultConfig()
	}

	e := &Engine{config: config, logger: slog.Default()}
	for _, o := range opts {
		o(e)
	}

	e.solver = smt.New(smt.Config{
		Timeout:        config.Solver.Timeout,
		MaxIterations:  config.Solver.MaxIterations,
		MaxConstraints: config.Solver.MaxConstraints,
		Logger:         e.logger,
	})

	e.oracle = costmodel.NewOracle(e.solver,
		costmodel.WithCacheCapacity(config.Oracle.CacheCapacity),
		costmodel.WithOracleLogger(e.logger),
	)

	e.model = costmodel.NewModel(
		costmodel.WithLargeCardinalities(config.Cost.LargeCardinalities()),
		costmodel.WithLargeCardinalityThreshold(config.Cost.LargeCardinalityThreshold),
		costmodel.WithSimpleCostModel(config.Cost.SimpleCostModel),
		costmodel.WithModelLogger(e.logger),
	)

	e.comparator = costmodel.NewComparator(e.solver, e.oracle,
		costmodel.WithTimeout(config.Solver.Timeout),
		costmodel.WithRelaxedTimeout(config.Solver.RelaxedTimeout),
		costmodel.WithIncremental(config.Oracle.Incremental),
		costmodel.WithIndicators(config.Oracle.UseIndicators),
		costmodel.WithComparatorLogger(e.logger),
	)

	e.ranker = costmodel.NewRanker(e.comparator, config.Ranking.Parallelism)

	return e
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() *Config { return e.config }

// Oracle returns the cardinality oracle.
func (e *Engine) Oracle() *costmodel.Oracle { return e.oracle }

// Cost computes the cost of expr in pool.
func (e *Engine) Cost(expr syntax.Exp, pool costmodel.Pool) (*costmodel.Cost, error) {
	return e.model.Cost(expr, pool)
}

// IsMonotonic reports whether the cost model is monotonic.
func (e *Engine) IsMonotonic() bool { return e.model.IsMonotonic() }

// Compare orders two costs under assumptions.
func (e *Engine) Compare(ctx context.Context, a, b *costmodel.Cost, assumptions syntax.Exp) (costmodel.Ordering, error) {
	return e.comparator.Compare(ctx, a, b, assumptions)
}

// Always reports whether a op b holds in every model.
func (e *Engine) Always(ctx context.Context, op syntax.Op, a, b *costmodel.Cost) (bool, error) {
	return e.comparator.Always(ctx, op, a, b, nil)
}

// Explain reports how two costs compare, with counterexamples.
func (e *Engine) Explain(ctx context.Context, a, b *costmodel.Cost) (*costmodel.Report, error) {
	return e.comparator.Explain(ctx, a, b)
}

// Rank compares every pair of candidates.
func (e *Engine) Rank(ctx context.Context, candidates []costmodel.Candidate, assumptions syntax.Exp) (*costmodel.Ranking, error) {
	return e.ranker.Rank(ctx, candidates, assumptions)
}

// Costs computes the cost of every workload candidate.
func (e *Engine) Costs(w *Workload) ([]costmodel.Candidate, error) {
	out := make([]costmodel.Candidate, 0, len(w.Candidates))

	for _, c := range w.Candidates {
		cost, err := e.Cost(c.Expr, c.Pool)
		if err != nil {
			return nil, err
		}

		out = append(out, costmodel.Candidate{Name: c.Name, Cost: cost})
	}

	return out, nil
}

// RankWorkload costs and ranks every candidate of w under its assumptions.
func (e *Engine) RankWorkload(ctx context.Context, w *Workload) (*costmodel.Ranking, error) {
	candidates, err := e.Costs(w)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("ranking workload", slog.Int("candidates", len(candidates)))

	return e.Rank(ctx, candidates, w.Assumptions)
}
