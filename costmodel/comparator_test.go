package costmodel

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/symcost/smt"
	"github.com/shibukawa/symcost/syntax"
)

var comparedExprs = []string{
	"x",
	"(len xs)",
	scanSrc,
	lookupSrc,
	"(len (filter xs (lambda e (> e 0))))",
	"(in x (+ xs ys))",
}

func mustCost(t *testing.T, m *Model, src string, pool Pool) *Cost {
	t.Helper()

	c, err := m.Cost(syntax.MustParse(src, env), pool)
	assert.NoError(t, err)

	return c
}

func TestCompareIsReflexive(t *testing.T) {
	m := NewModel()
	cmp := NewComparator(newTestSolver(), nil)

	for _, src := range comparedExprs {
		for _, pool := range []Pool{RuntimePool, StatePool} {
			t.Run(pool.String()+" "+src, func(t *testing.T) {
				a := mustCost(t, m, src, pool)
				b := mustCost(t, m, src, pool)

				o, err := cmp.Compare(context.Background(), a, b, syntax.True)
				assert.NoError(t, err)
				assert.Equal(t, Unordered, o)
			})
		}
	}
}

func TestCompareIsAntisymmetric(t *testing.T) {
	m := NewModel()
	cmp := NewComparator(newTestSolver(), nil)
	ctx := context.Background()

	for i, s1 := range comparedExprs {
		for _, s2 := range comparedExprs[i+1:] {
			t.Run(s1+" vs "+s2, func(t *testing.T) {
				a := mustCost(t, m, s1, RuntimePool)
				b := mustCost(t, m, s2, RuntimePool)

				ab, err := cmp.Compare(ctx, a, b, syntax.True)
				assert.NoError(t, err)

				ba, err := cmp.Compare(ctx, b, a, syntax.True)
				assert.NoError(t, err)

				assert.Equal(t, ab, ba.Flip())
			})
		}
	}
}

func TestZeroDominates(t *testing.T) {
	m := NewModel()
	cmp := NewComparator(newTestSolver(), nil)
	ctx := context.Background()

	for _, src := range comparedExprs {
		for _, pool := range []Pool{RuntimePool, StatePool} {
			t.Run(pool.String()+" "+src, func(t *testing.T) {
				c := mustCost(t, m, src, pool)

				better, err := cmp.AlwaysBetterThan(ctx, Zero, c, nil)
				assert.NoError(t, err)

				if better {
					return
				}

				le, err := cmp.Always(ctx, syntax.OpLe, Zero, c, nil)
				assert.NoError(t, err)

				ge, err := cmp.Always(ctx, syntax.OpGe, Zero, c, nil)
				assert.NoError(t, err)

				assert.True(t, le && ge, "zero neither beats nor ties %s", c)
			})
		}
	}
}

func TestLargeCardinalityEffect(t *testing.T) {
	cmp := NewComparator(newTestSolver(), nil)
	ctx := context.Background()

	large := NewModel()
	lookup := mustCost(t, large, lookupSrc, RuntimePool)
	scan := mustCost(t, large, scanSrc, RuntimePool)

	better, err := cmp.AlwaysBetterThan(ctx, lookup, scan, nil)
	assert.NoError(t, err)
	assert.True(t, better)

	o, err := cmp.Compare(ctx, lookup, scan, syntax.True)
	assert.NoError(t, err)
	assert.Equal(t, Better, o)

	small := NewModel(WithLargeCardinalities(false))
	lookup = mustCost(t, small, lookupSrc, RuntimePool)
	scan = mustCost(t, small, scanSrc, RuntimePool)

	o, err = cmp.Compare(ctx, lookup, scan, syntax.True)
	assert.NoError(t, err)
	assert.Equal(t, Unordered, o)
}

func TestSometimes(t *testing.T) {
	cmp := NewComparator(newTestSolver(), nil)
	ctx := context.Background()

	m := NewModel(WithLargeCardinalities(false))
	lookup := mustCost(t, m, lookupSrc, RuntimePool)
	scan := mustCost(t, m, scanSrc, RuntimePool)

	for _, f := range []func(context.Context, *Cost, *Cost, syntax.Exp) (bool, error){
		cmp.SometimesWorseThan,
		cmp.SometimesBetterThan,
	} {
		ok, err := f(ctx, lookup, scan, nil)
		assert.NoError(t, err)
		assert.True(t, ok)

		ok, err = f(ctx, scan, lookup, nil)
		assert.NoError(t, err)
		assert.True(t, ok)
	}

	worse, err := cmp.AlwaysWorseThan(ctx, scan, lookup, nil)
	assert.NoError(t, err)
	assert.False(t, worse)
}

func TestFilterCostFormula(t *testing.T) {
	m := NewModel()
	cmp := NewComparator(newTestSolver(), nil)

	c := mustCost(t, m, "(filter xs (lambda y (> y 0)))", RuntimePool)
	v := c.Cardinalities()[0].Var

	// 2 + cost(xs) + |xs| * cost(y > 0)
	expected, err := NewCost(nil, RuntimePool, syntax.Plus(syntax.Plus(syntax.NumInt(2), syntax.One), syntax.Times(v, syntax.NumInt(3))), c.Secondary(), syntax.True, nil)
	assert.NoError(t, err)

	eq, err := cmp.Always(context.Background(), syntax.OpEq, c, expected, nil)
	assert.NoError(t, err)
	assert.True(t, eq)

	off, err := NewCost(nil, RuntimePool, syntax.Plus(syntax.NumInt(2), syntax.Times(v, syntax.NumInt(3))), c.Secondary(), syntax.True, nil)
	assert.NoError(t, err)

	eq, err = cmp.Always(context.Background(), syntax.OpEq, c, off, nil)
	assert.NoError(t, err)
	assert.False(t, eq)
}

func TestUnknownFallsBackOnce(t *testing.T) {
	s := unknownSolver()
	cmp := NewComparator(s, nil)

	v := syntax.NewVar("v", syntax.Int)
	xs := syntax.NewVar("xs", &syntax.TBag{Elem: syntax.Int})

	a, err := NewCost(nil, RuntimePool, syntax.Times(v, v), Zero.Secondary(), nil, []Cardinality{{Var: v, Of: xs}})
	assert.NoError(t, err)

	ok, err := cmp.Always(context.Background(), syntax.OpLe, a, Zero, syntax.Ge(v, syntax.Zero))
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(2), s.calls.Load())

	relaxed := syntax.FreeVars(s.formulas[1])
	assert.Equal(t, 1, len(relaxed))
	assert.Equal(t, syntax.Real.String(), relaxed[0].T.String())
}

func TestNonlinearComparisonTerminates(t *testing.T) {
	cmp := NewComparator(newTestSolver(), nil)

	v := syntax.NewVar("v", syntax.Int)
	w := syntax.NewVar("w", syntax.Int)
	xs := syntax.NewVar("xs", &syntax.TBag{Elem: syntax.Int})
	ys := syntax.NewVar("ys", &syntax.TBag{Elem: syntax.Int})

	a, err := NewCost(nil, RuntimePool, syntax.Times(v, w), Zero.Secondary(), nil, []Cardinality{{Var: v, Of: xs}, {Var: w, Of: ys}})
	assert.NoError(t, err)

	b, err := NewCost(nil, RuntimePool, syntax.Plus(v, w), Zero.Secondary(), nil, nil)
	assert.NoError(t, err)

	_, err = cmp.Always(context.Background(), syntax.OpLe, a, b, nil)
	assert.NoError(t, err)
}

func TestCanceledComparison(t *testing.T) {
	cmp := NewComparator(newTestSolver(), nil)
	m := NewModel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cmp.Compare(ctx, mustCost(t, m, scanSrc, RuntimePool), mustCost(t, m, "(len xs)", RuntimePool), syntax.True)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestUnsupportedOperator(t *testing.T) {
	cmp := NewComparator(unknownSolver(), nil)

	_, err := cmp.Always(context.Background(), syntax.OpNe, Zero, Zero, nil)
	assert.IsError(t, err, ErrUnsupportedOperator)

	_, err = cmp.Always(context.Background(), syntax.OpAnd, Zero, Zero, nil)
	assert.IsError(t, err, ErrUnsupportedOperator)
}

func TestLiteralFormulasSkipSolver(t *testing.T) {
	s := unknownSolver()
	cmp := NewComparator(s, nil)
	m := NewModel()

	a := mustCost(t, m, scanSrc, StatePool)

	ok, err := cmp.Always(context.Background(), syntax.OpLe, Zero, a, nil)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(0), s.calls.Load())
}

func TestOrderCardinalitiesModes(t *testing.T) {
	m := NewModel(WithLargeCardinalities(false))
	c := mustCost(t, m, "(len (dropfront xs))", RuntimePool)

	cards := c.Cardinalities()
	assert.Equal(t, 2, len(cards))

	vx, vd := cards[0].Var, cards[1].Var

	tests := []struct {
		name string
		opts []ComparatorOption
	}{
		{name: "one shot"},
		{name: "incremental", opts: []ComparatorOption{WithIncremental(true)}},
		{name: "indicators", opts: []ComparatorOption{WithIncremental(true), WithIndicators(true)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			solver := newTestSolver()
			cmp := NewComparator(solver, nil, tt.opts...)
			ctx := context.Background()

			order, err := cmp.OrderCardinalities(ctx, c, Zero, syntax.True)
			assert.NoError(t, err)

			shrinks, err := solver.Valid(ctx, syntax.Implies(order, syntax.Le(vd, vx)), smt.WithLogic(smt.LIA))
			assert.NoError(t, err)
			assert.True(t, shrinks)

			grows, err := solver.Valid(ctx, syntax.Implies(order, syntax.Le(vx, vd)), smt.WithLogic(smt.LIA))
			assert.NoError(t, err)
			assert.False(t, grows)
		})
	}
}

func TestOrderCardinalitiesEquatesAlphaEquivalent(t *testing.T) {
	m := NewModel()
	cmp := NewComparator(unknownSolver(), nil)

	a := mustCost(t, m, scanSrc, RuntimePool)
	b := mustCost(t, m, "(len xs)", RuntimePool)

	order, err := cmp.OrderCardinalities(context.Background(), a, b, syntax.True)
	assert.NoError(t, err)

	va, vb := a.Cardinalities()[0].Var, b.Cardinalities()[0].Var
	want := syntax.All(
		syntax.Ge(va, syntax.Zero),
		syntax.Eq(va, vb),
		syntax.Ge(vb, syntax.Zero),
		syntax.Eq(vb, va),
	)
	assert.Equal(t, want.String(), order.String())
}

func TestCompareRestsOnCardinalityHeuristics(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{name: "difference", a: "(sum (state (- xs ys)))", b: "(sum (state xs))"},
		{name: "conditional", a: "(sum (state (if (> x 0) xs ys)))", b: "(+ (sum (state xs)) (sum (state ys)))"},
	}

	m := NewModel()
	ctx := context.Background()
	// an oracle that never proves anything leaves the heuristics as the only
	// link between a's cardinalities and b's
	cmp := NewComparator(newTestSolver(), NewOracle(unknownSolver()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustCost(t, m, tt.a, RuntimePool)
			b := mustCost(t, m, tt.b, RuntimePool)

			o, err := cmp.Compare(ctx, a, b, syntax.True)
			assert.NoError(t, err)
			assert.Equal(t, Better, o)

			bare, err := NewCost(a.Expr(), a.Pool(), a.Formula(), a.Secondary(), syntax.True, a.Cardinalities())
			assert.NoError(t, err)

			o, err = cmp.Compare(ctx, bare, b, syntax.True)
			assert.NoError(t, err)
			assert.Equal(t, Unordered, o)
		})
	}
}
