package costmodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/shibukawa/symcost/smt"
	"github.com/shibukawa/symcost/syntax"
)

// Solver is the validity checker the oracle and comparator rely on.
// *smt.Solver implements it.
type Solver interface {
	Valid(ctx context.Context, f syntax.Exp, opts ...smt.Option) (bool, error)
}

// Oracle decides whether one collection is provably no larger than another.
type Oracle struct {
	solver Solver
	memo   *LRU[memoKey, bool]
	group  singleflight.Group
	logger *slog.Logger
}

// memoKey identifies a query by the alpha-equivalence keys of its parts.
type memoKey struct {
	lhs, rhs, assumptions string
}

// String joins the parts length-prefixed so no part can run into the next.
func (k memoKey) String() string {
	return fmt.Sprintf("%d:%s%d:%s%d:%s", len(k.lhs), k.lhs, len(k.rhs), k.rhs, len(k.assumptions), k.assumptions)
}

// OracleOption configures an Oracle.
type OracleOption func(*Oracle)

// WithCacheCapacity bounds the memo.
func WithCacheCapacity(n int) OracleOption {
	return func(o *Oracle) { o.memo = NewLRU[memoKey, bool](n) }
}

// WithOracleLogger sets the logger.
func WithOracleLogger(l *slog.Logger) OracleOption {
	return func(o *Oracle) { o.logger = l }
}

// NewOracle creates an oracle answering through solver.
func NewOracle(solver Solver, opts ...OracleOption) *Oracle {
	o := &Oracle{
		solver: solver,
		memo:   NewLRU[memoKey, bool](DefaultCacheCapacity),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// CardinalityLEFormula returns len(c1) <= len(c2) without solving it.
func (o *Oracle) CardinalityLEFormula(c1, c2 syntax.Exp) (syntax.Exp, error) {
	if err := sameCollectionType(c1, c2); err != nil {
		return nil, err
	}

	return syntax.Le(syntax.Length(c1), syntax.Length(c2)), nil
}

// CardinalityLE reports whether len(c1) <= len(c2) holds whenever
// assumptions do. Undecided queries answer false and are not memoized.
func (o *Oracle) CardinalityLE(ctx context.Context, c1, c2, assumptions syntax.Exp) (bool, error) {
	f, err := o.CardinalityLEFormula(c1, c2)
	if err != nil {
		return false, err
	}

	if _, ok := c1.(*syntax.EmptyColl); ok {
		return true, nil
	}

	if assumptions == nil {
		assumptions = syntax.True
	}

	key := memoKey{lhs: syntax.Key(c1), rhs: syntax.Key(c2), assumptions: syntax.Key(assumptions)}

	if v, ok := o.memo.Get(key); ok {
		recordOracleLookup(ctx, true)
		return v, nil
	}

	recordOracleLookup(ctx, false)

	v, err, _ := o.group.Do(key.String(), func() (any, error) {
		le, err := o.solver.Valid(ctx, syntax.Implies(assumptions, f))
		if err != nil {
			return false, err
		}

		o.memo.Set(key, le)

		return le, nil
	})

	switch {
	case err == nil:
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(err, smt.ErrUnknown):
		o.logger.Debug("cardinality query undecided",
			slog.String("lhs", c1.String()),
			slog.String("rhs", c2.String()),
			slog.String("error", err.Error()),
		)

		return false, nil
	default:
		return false, err
	}

	le := v.(bool)

	o.logger.Debug("cardinality query",
		slog.String("lhs", c1.String()),
		slog.String("rhs", c2.String()),
		slog.Bool("le", le),
	)

	return le, nil
}

// SessionLE is CardinalityLE against a session holding the assumptions.
// Results are not memoized since the session may change between calls.
func (o *Oracle) SessionLE(ctx context.Context, session *smt.Session, c1, c2 syntax.Exp) (bool, error) {
	f, err := o.CardinalityLEFormula(c1, c2)
	if err != nil {
		return false, err
	}

	if _, ok := c1.(*syntax.EmptyColl); ok {
		return true, nil
	}

	le, err := session.Valid(ctx, f)

	switch {
	case err == nil:
		return le, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(err, smt.ErrUnknown):
		return false, nil
	}

	return false, err
}

// CardinalityLTStrict would prove len(c1) < len(c2). It never does.
func (o *Oracle) CardinalityLTStrict(_ context.Context, _, _, _ syntax.Exp) (bool, error) {
	return false, nil
}

// Reset empties the memo.
func (o *Oracle) Reset() {
	o.memo.Purge()
}

// Stats reports memo counters.
func (o *Oracle) Stats() CacheStats {
	return o.memo.Stats()
}

func sameCollectionType(c1, c2 syntax.Exp) error {
	if !syntax.IsCollection(c1.Type()) || !syntax.SameType(c1.Type(), c2.Type()) {
		return fmt.Errorf("%w: %s vs %s", ErrTypeMismatch, c1.Type(), c2.Type())
	}

	return nil
}
