package costmodel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shibukawa/symcost/smt"
	"github.com/shibukawa/symcost/syntax"
)

// Default solver budgets for one comparison.
const (
	DefaultTimeout        = time.Second
	DefaultRelaxedTimeout = 5 * time.Second
)

// SessionSolver can open incremental sessions.
type SessionSolver interface {
	Solver
	NewSession(opts ...smt.Option) *smt.Session
}

// Comparator orders costs. It is safe for concurrent use.
type Comparator struct {
	solver         Solver
	oracle         *Oracle
	timeout        time.Duration
	relaxedTimeout time.Duration
	incremental    bool
	indicators     bool
	logger         *slog.Logger
}

// ComparatorOption configures a Comparator.
type ComparatorOption func(*Comparator)

// WithTimeout sets the budget of the first, integer query.
func WithTimeout(d time.Duration) ComparatorOption {
	return func(c *Comparator) { c.timeout = d }
}

// WithRelaxedTimeout sets the budget of the retry over the reals.
func WithRelaxedTimeout(d time.Duration) ComparatorOption {
	return func(c *Comparator) { c.relaxedTimeout = d }
}

// WithIncremental orders cardinalities through one solver session per
// comparison instead of independent queries.
func WithIncremental(on bool) ComparatorOption {
	return func(c *Comparator) { c.incremental = on }
}

// WithIndicators batches cardinality questions as boolean indicators
// asserted into the incremental session. It has no effect unless
// incremental mode is on.
func WithIndicators(on bool) ComparatorOption {
	return func(c *Comparator) { c.indicators = on }
}

// WithComparatorLogger sets the logger.
func WithComparatorLogger(l *slog.Logger) ComparatorOption {
	return func(c *Comparator) { c.logger = l }
}

// NewComparator creates a comparator. oracle may be nil, in which case one
// is created over solver.
func NewComparator(solver Solver, oracle *Oracle, opts ...ComparatorOption) *Comparator {
	c := &Comparator{
		solver:         solver,
		oracle:         oracle,
		timeout:        DefaultTimeout,
		relaxedTimeout: DefaultRelaxedTimeout,
		logger:         slog.Default(),
	}

	for _, o := range opts {
		o(c)
	}

	if c.oracle == nil {
		c.oracle = NewOracle(solver, WithOracleLogger(c.logger))
	}

	return c
}

// Oracle returns the cardinality oracle in use.
func (c *Comparator) Oracle() *Oracle { return c.oracle }

func mergeCardinalities(a, b *Cost) []Cardinality {
	seen := map[string]bool{}

	var out []Cardinality

	for _, cost := range []*Cost{a, b} {
		for _, card := range cost.cardinalities {
			if !seen[card.Var.Name] {
				seen[card.Var.Name] = true
				out = append(out, card)
			}
		}
	}

	return out
}

type indicator struct {
	lhs, rhs *syntax.Var
	flag     *syntax.Var
}

// OrderCardinalities relates the cardinality variables of a and b: every
// variable is non-negative, variables of alpha-equivalent collections are
// equal, and v1 <= v2 wherever the oracle proves the collections ordered.
func (c *Comparator) OrderCardinalities(ctx context.Context, a, b *Cost, assumptions syntax.Exp) (syntax.Exp, error) {
	if assumptions == nil {
		assumptions = syntax.True
	}

	cards := mergeCardinalities(a, b)

	var session *smt.Session

	if c.incremental {
		if ss, ok := c.solver.(SessionSolver); ok {
			session = ss.NewSession(smt.WithTimeout(c.timeout))
			session.Assert(assumptions)
		} else {
			c.logger.Debug("solver has no sessions, ordering cardinalities one query at a time")
		}
	}

	var (
		res     []syntax.Exp
		pending []indicator
	)

	for i, x := range cards {
		res = append(res, syntax.Ge(x.Var, syntax.Zero))

		for j, y := range cards {
			if i == j || !syntax.SameType(x.Of.Type(), y.Of.Type()) {
				continue
			}

			if syntax.AlphaEquivalent(x.Of, y.Of) {
				res = append(res, syntax.Eq(x.Var, y.Var))
				continue
			}

			if session != nil && c.indicators {
				f, err := c.oracle.CardinalityLEFormula(x.Of, y.Of)
				if err != nil {
					return nil, err
				}

				flag := syntax.FreshVar(syntax.Bool)
				session.Assert(syntax.Eq(flag, f))
				pending = append(pending, indicator{lhs: x.Var, rhs: y.Var, flag: flag})

				continue
			}

			var (
				le  bool
				err error
			)

			if session != nil {
				le, err = c.oracle.SessionLE(ctx, session, x.Of, y.Of)
			} else {
				le, err = c.oracle.CardinalityLE(ctx, x.Of, y.Of, assumptions)
			}

			if err != nil {
				return nil, err
			}

			if !le {
				continue
			}

			lt, err := c.oracle.CardinalityLTStrict(ctx, x.Of, y.Of, assumptions)
			if err != nil {
				return nil, err
			}

			if lt {
				res = append(res, syntax.Lt(x.Var, y.Var))
			} else {
				res = append(res, syntax.Le(x.Var, y.Var))
			}
		}
	}

	for _, p := range pending {
		ok, err := session.Valid(ctx, p.flag)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			continue
		}

		if ok {
			res = append(res, syntax.Le(p.lhs, p.rhs))
		}
	}

	return syntax.All(res...), nil
}

// implication is assumptions(a) ∧ assumptions(b) ∧ cards ⇒ formula(a) op formula(b).
func implication(op syntax.Op, a, b *Cost, cards syntax.Exp) syntax.Exp {
	return syntax.Implies(
		syntax.All(a.assumptions, b.assumptions, cards),
		syntax.Compare(a.formula, op, b.formula),
	)
}

// relax turns the cardinality variables mentioned in cards into reals.
func relax(f, cards syntax.Exp) syntax.Exp {
	m := map[string]syntax.Exp{}
	for _, v := range syntax.FreeVars(cards) {
		m[v.Name] = syntax.NewVar(v.Name, syntax.Real)
	}

	return syntax.Subst(f, m)
}

// Always reports whether formula(a) op formula(b) holds in every model of
// both costs' assumptions and cards. When cards is nil it is computed with
// OrderCardinalities. An undecided integer query is retried over the reals;
// a second failure answers false. Only context errors are returned for
// well-formed input.
func (c *Comparator) Always(ctx context.Context, op syntax.Op, a, b *Cost, cards syntax.Exp) (bool, error) {
	if !op.IsComparison() || op == syntax.OpNe {
		return false, fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}

	if cards == nil {
		var err error

		cards, err = c.OrderCardinalities(ctx, a, b, syntax.True)
		if err != nil {
			return false, err
		}
	}

	if x, ok := a.formula.(*syntax.Num); ok {
		if y, ok := b.formula.(*syntax.Num); ok {
			return syntax.EvalBool(syntax.Compare(x, op, y))
		}
	}

	f := implication(op, a, b, cards)

	ok, err := c.solver.Valid(ctx, f, smt.WithLogic(smt.LIA), smt.WithTimeout(c.timeout))
	if err == nil {
		return ok, nil
	}

	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	c.logger.Warn("not able to solve", slog.String("formula", f.String()), slog.String("error", err.Error()))
	recordRelaxedRetry(ctx)

	ok, err = c.solver.Valid(ctx, relax(f, cards), smt.WithLogic(smt.NRA), smt.WithTimeout(c.relaxedTimeout))
	if err == nil {
		return ok, nil
	}

	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	c.logger.Warn("giving up", slog.String("formula", f.String()), slog.String("error", err.Error()))

	return false, nil
}

// Compare orders a against b. Costs that are provably equal are ordered by
// their secondary costs, smaller being better.
func (c *Comparator) Compare(ctx context.Context, a, b *Cost, assumptions syntax.Exp) (Ordering, error) {
	ctx, span := startCompareSpan(ctx, a, b)
	defer span.End()

	cards, err := c.OrderCardinalities(ctx, a, b, assumptions)
	if err != nil {
		return Unordered, err
	}

	o1, err := c.Always(ctx, syntax.OpLe, a, b, cards)
	if err != nil {
		return Unordered, err
	}

	o2, err := c.Always(ctx, syntax.OpLe, b, a, cards)
	if err != nil {
		return Unordered, err
	}

	var o Ordering

	switch {
	case o1 && !o2:
		o = Better
	case o2 && !o1:
		o = Worse
	case o1 && o2:
		switch a.secondary.Cmp(b.secondary) {
		case -1:
			o = Better
		case 1:
			o = Worse
		}
	}

	recordComparison(ctx, o)

	return o, nil
}

// AlwaysWorseThan reports whether a can never be cheaper than b.
func (c *Comparator) AlwaysWorseThan(ctx context.Context, a, b *Cost, cards syntax.Exp) (bool, error) {
	return c.Always(ctx, syntax.OpGt, a, b, cards)
}

// AlwaysBetterThan reports whether a can never be more expensive than b.
func (c *Comparator) AlwaysBetterThan(ctx context.Context, a, b *Cost, cards syntax.Exp) (bool, error) {
	return c.Always(ctx, syntax.OpLt, a, b, cards)
}

// SometimesWorseThan reports whether a may be more expensive than b.
func (c *Comparator) SometimesWorseThan(ctx context.Context, a, b *Cost, cards syntax.Exp) (bool, error) {
	ok, err := c.Always(ctx, syntax.OpLe, a, b, cards)
	return !ok && err == nil, err
}

// SometimesBetterThan reports whether a may be cheaper than b.
func (c *Comparator) SometimesBetterThan(ctx context.Context, a, b *Cost, cards syntax.Exp) (bool, error) {
	ok, err := c.Always(ctx, syntax.OpGe, a, b, cards)
	return !ok && err == nil, err
}
