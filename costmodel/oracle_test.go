package costmodel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/symcost/smt"
	"github.com/shibukawa/symcost/syntax"
)

func newTestSolver() *smt.Solver {
	return smt.New(smt.Config{Timeout: 5 * time.Second})
}

// countingSolver answers every query with err and records what it was asked.
type countingSolver struct {
	err   error
	calls atomic.Int32

	mu       sync.Mutex
	formulas []syntax.Exp
}

func (s *countingSolver) Valid(_ context.Context, f syntax.Exp, _ ...smt.Option) (bool, error) {
	s.calls.Add(1)

	s.mu.Lock()
	s.formulas = append(s.formulas, f)
	s.mu.Unlock()

	return false, s.err
}

func unknownSolver() *countingSolver {
	return &countingSolver{err: fmt.Errorf("%w: timeout", smt.ErrUnknown)}
}

func TestLRU(t *testing.T) {
	c := NewLRU[string, int](2)

	c.Set("a", 1)
	c.Set("b", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Set("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok)

	_, ok = c.Get("a")
	assert.True(t, ok)

	assert.Equal(t, CacheStats{Size: 2, Hits: 2, Misses: 1, Evictions: 1}, c.Stats())

	c.Purge()
	assert.Equal(t, CacheStats{}, c.Stats())
}

func TestMemoKeyParts(t *testing.T) {
	a := memoKey{lhs: `"a|b"`, rhs: `"c"`, assumptions: "true"}
	b := memoKey{lhs: `"a`, rhs: `b|"c"`, assumptions: "true"}

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a.String(), b.String())

	c := NewLRU[memoKey, bool](4)
	c.Set(a, true)

	_, ok := c.Get(b)
	assert.False(t, ok)
}

func TestOracleEmptyCollectionIsSmallest(t *testing.T) {
	s := unknownSolver()
	o := NewOracle(s)

	for _, src := range []string{"xs", "(filter xs (lambda y (> y x)))", "(empty Bag<Int>)"} {
		for _, assumptions := range []syntax.Exp{syntax.True, syntax.False, syntax.MustParse("(> (len xs) 5)", env)} {
			le, err := o.CardinalityLE(context.Background(), syntax.MustParse("(empty Bag<Int>)", env), syntax.MustParse(src, env), assumptions)
			assert.NoError(t, err)
			assert.True(t, le)
		}
	}

	assert.Equal(t, int32(0), s.calls.Load())
}

func TestOracleTypeMismatch(t *testing.T) {
	o := NewOracle(unknownSolver())

	_, err := o.CardinalityLE(context.Background(), syntax.MustParse("xs", env), syntax.MustParse("x", env), nil)
	assert.IsError(t, err, ErrTypeMismatch)

	_, err = o.CardinalityLEFormula(syntax.MustParse("xs", env), syntax.MustParse("(map xs (lambda y true))", env))
	assert.IsError(t, err, ErrTypeMismatch)
}

func TestOracleCardinalityLE(t *testing.T) {
	filtered := syntax.MustParse("(filter xs (lambda y (> y x)))", env)
	xs := syntax.MustParse("xs", env)
	ys := syntax.MustParse("ys", env)

	tests := []struct {
		name        string
		lhs, rhs    syntax.Exp
		assumptions syntax.Exp
		want        bool
	}{
		{name: "filter is no larger", lhs: filtered, rhs: xs, want: true},
		{name: "source may be larger", lhs: xs, rhs: filtered, want: false},
		{name: "unrelated", lhs: xs, rhs: ys, want: false},
		{name: "assumed", lhs: xs, rhs: ys, assumptions: syntax.MustParse("(< (len xs) (len ys))", env), want: true},
		{name: "concatenation", lhs: xs, rhs: syntax.MustParse("(+ xs ys)", env), want: true},
	}

	o := NewOracle(newTestSolver())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			le, err := o.CardinalityLE(context.Background(), tt.lhs, tt.rhs, tt.assumptions)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, le)
		})
	}
}

func TestOracleSetUnion(t *testing.T) {
	sets := syntax.Env{
		"s": &syntax.TSet{Elem: syntax.Int},
		"u": &syntax.TSet{Elem: syntax.Int},
	}

	union := syntax.MustParse("(+ s u)", sets)
	self := syntax.MustParse("(+ s s)", sets)
	s := syntax.MustParse("s", sets)

	tests := []struct {
		name        string
		lhs, rhs    syntax.Exp
		assumptions syntax.Exp
		want        bool
	}{
		// s = {1}, u = {2}: |s ∪ u| = 2 > |s ∪ s| = 1
		{name: "union may exceed self union", lhs: union, rhs: self, assumptions: syntax.MustParse("(<= (len u) (len s))", sets), want: false},
		{name: "union contains operand", lhs: s, rhs: union, want: true},
	}

	o := NewOracle(newTestSolver())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			le, err := o.CardinalityLE(context.Background(), tt.lhs, tt.rhs, tt.assumptions)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, le)
		})
	}
}

func TestOracleMemo(t *testing.T) {
	o := NewOracle(newTestSolver(), WithCacheCapacity(8))
	ctx := context.Background()

	// the bound variable name does not matter
	a := syntax.MustParse("(filter xs (lambda y (> y x)))", env)
	b := syntax.MustParse("(filter xs (lambda z (> z x)))", env)
	xs := syntax.MustParse("xs", env)

	le, err := o.CardinalityLE(ctx, a, xs, syntax.True)
	assert.NoError(t, err)
	assert.True(t, le)

	le, err = o.CardinalityLE(ctx, b, xs, syntax.True)
	assert.NoError(t, err)
	assert.True(t, le)

	stats := o.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	o.Reset()
	assert.Equal(t, 0, o.Stats().Size)
}

func TestOracleUnknownIsNotMemoized(t *testing.T) {
	s := unknownSolver()
	o := NewOracle(s)

	for range 2 {
		le, err := o.CardinalityLE(context.Background(), syntax.MustParse("xs", env), syntax.MustParse("ys", env), nil)
		assert.NoError(t, err)
		assert.False(t, le)
	}

	assert.Equal(t, int32(2), s.calls.Load())
	assert.Equal(t, 0, o.Stats().Size)
}

func TestOracleSolverErrorIsReturned(t *testing.T) {
	o := NewOracle(&countingSolver{err: smt.ErrUnsupported})

	_, err := o.CardinalityLE(context.Background(), syntax.MustParse("xs", env), syntax.MustParse("ys", env), nil)
	assert.IsError(t, err, smt.ErrUnsupported)
}

func TestOracleStrictIsConservative(t *testing.T) {
	o := NewOracle(newTestSolver())

	lt, err := o.CardinalityLTStrict(context.Background(), syntax.MustParse("(empty Bag<Int>)", env), syntax.MustParse("(singleton x)", env), syntax.True)
	assert.NoError(t, err)
	assert.False(t, lt)
}

func TestOracleSessionLE(t *testing.T) {
	solver := newTestSolver()
	o := NewOracle(solver)
	xs := syntax.MustParse("xs", env)
	ys := syntax.MustParse("ys", env)

	session := solver.NewSession()

	le, err := o.SessionLE(context.Background(), session, xs, ys)
	assert.NoError(t, err)
	assert.False(t, le)

	session.Assert(syntax.MustParse("(<= (len xs) (len ys))", env))

	le, err = o.SessionLE(context.Background(), session, xs, ys)
	assert.NoError(t, err)
	assert.True(t, le)
}
