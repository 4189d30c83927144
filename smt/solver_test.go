package smt

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/symcost/syntax"
)

var env = syntax.Env{
	"xs": &syntax.TBag{Elem: syntax.Int},
	"ys": &syntax.TBag{Elem: syntax.Int},
	"x":  syntax.Int,
	"y":  syntax.Int,
	"r":  syntax.Real,
	"b":  syntax.Bool,
}

func newTestSolver() *Solver {
	return New(Config{Timeout: 5 * time.Second})
}

func TestValid(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		want    bool
	}{
		{name: "length is nonnegative", formula: "(>= (len xs) 0)", want: true},
		{name: "successor", formula: "(<= x (+ x 1))", want: true},
		{name: "strict self comparison", formula: "(< x x)", want: false},
		{name: "filter shrinks", formula: "(<= (len (filter xs (lambda e (> e x)))) (len xs))", want: true},
		{name: "concatenation grows", formula: "(>= (len (+ xs ys)) (len xs))", want: true},
		{name: "difference shrinks", formula: "(<= (len (- xs ys)) (len xs))", want: true},
		{name: "empty has no elements", formula: "(== (len (empty Bag<Int>)) 0)", want: true},
		{name: "singleton", formula: "(== (len (singleton x)) 1)", want: true},
		{name: "mapped size", formula: "(== (len (map xs (lambda e (+ e 1)))) (len xs))", want: true},
		{name: "conditional bounded", formula: "(<= (if b 1 2) 2)", want: true},
		{name: "conditional not constant", formula: "(== (if b 1 2) 1)", want: false},
		{name: "boolean reflexive", formula: "(== b b)", want: true},
		{name: "implication chain", formula: "(=> (and (< x y) (< y 3)) (< x 2))", want: true},
		{name: "integers have no gaps", formula: "(=> (< x 1) (<= x 0))", want: true},
		{name: "dropfront removes at most one", formula: "(>= (+ (len (dropfront xs)) 1) (len xs))", want: true},
		{name: "literal", formula: "(<= 1 2)", want: true},
	}

	s := newTestSolver()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := syntax.MustParse(tt.formula, env)

			got, err := s.Valid(context.Background(), f)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetUnionLength(t *testing.T) {
	sets := syntax.Env{
		"s": &syntax.TSet{Elem: syntax.Int},
		"u": &syntax.TSet{Elem: syntax.Int},
	}

	tests := []struct {
		name    string
		formula string
		want    bool
	}{
		{name: "union contains left", formula: "(>= (len (+ s u)) (len s))", want: true},
		{name: "union contains right", formula: "(>= (len (+ s u)) (len u))", want: true},
		{name: "union bounded by sum", formula: "(<= (len (+ s u)) (+ (len s) (len u)))", want: true},
		{name: "union need not be disjoint", formula: "(== (len (+ s u)) (+ (len s) (len u)))", want: false},
		{name: "self union", formula: "(=> (<= (len u) (len s)) (<= (len (+ s u)) (len (+ s s))))", want: false},
	}

	s := newTestSolver()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Valid(context.Background(), syntax.MustParse(tt.formula, sets))
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSatisfiable(t *testing.T) {
	s := newTestSolver()
	ctx := context.Background()

	got, err := s.Satisfiable(ctx, syntax.MustParse("(and (exists xs) (empty? xs))", env))
	assert.NoError(t, err)
	assert.False(t, got)

	got, err = s.Satisfiable(ctx, syntax.MustParse("(== (* 2 x) 1)", env))
	assert.NoError(t, err)
	assert.False(t, got)

	got, err = s.Satisfiable(ctx, syntax.MustParse("(== (* 2 x) 1)", env), WithLogic(NRA))
	assert.NoError(t, err)
	assert.True(t, got)

	got, err = s.Satisfiable(ctx, syntax.MustParse("(and (< 0 r) (< r 1))", env))
	assert.NoError(t, err)
	assert.True(t, got)
}

func TestNonlinearNeedsNRA(t *testing.T) {
	s := newTestSolver()
	ctx := context.Background()
	f := syntax.MustParse("(>= (* x x) 0)", env)

	_, err := s.Valid(ctx, f, WithLogic(LIA))
	assert.IsError(t, err, ErrUnknown)

	got, err := s.Valid(ctx, f, WithLogic(NRA))
	assert.NoError(t, err)
	assert.True(t, got)
}

func TestCounterexample(t *testing.T) {
	s := newTestSolver()

	m, found, err := s.Counterexample(context.Background(), syntax.MustParse("(<= x y)", env))
	assert.NoError(t, err)
	assert.True(t, found)
	assert.True(t, m.Numbers["x"].Cmp(m.Numbers["y"]) > 0)

	_, found, err = s.Counterexample(context.Background(), syntax.MustParse("(<= x x)", env))
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestCheckRejectsNonBoolean(t *testing.T) {
	_, err := newTestSolver().Check(context.Background(), syntax.MustParse("(+ x 1)", env))
	assert.IsError(t, err, ErrNotBoolean)
}

func TestCanceledContextIsUnknown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestSolver().Check(ctx, syntax.MustParse("(< x y)", env))
	assert.NoError(t, err)
	assert.Equal(t, Unknown, res.Status)
}

func TestSession(t *testing.T) {
	s := newTestSolver()
	ctx := context.Background()

	sess := s.NewSession()
	assert.NotEqual(t, "", sess.ID())

	sess.Assert(syntax.MustParse("(> x 10)", env))

	ok, err := sess.Valid(ctx, syntax.MustParse("(> x 5)", env))
	assert.NoError(t, err)
	assert.True(t, ok)

	sess.Push()
	sess.Assert(syntax.MustParse("(< x 3)", env))

	res, err := sess.Check(ctx, syntax.True)
	assert.NoError(t, err)
	assert.Equal(t, Unsat, res.Status)

	assert.NoError(t, sess.Pop())

	res, err = sess.Check(ctx, syntax.True)
	assert.NoError(t, err)
	assert.Equal(t, Sat, res.Status)

	assert.IsError(t, sess.Pop(), ErrEmptyScope)
}

func TestParseLogic(t *testing.T) {
	l, err := ParseLogic("QF_NRA")
	assert.NoError(t, err)
	assert.Equal(t, NRA, l)

	l, err = ParseLogic("lia")
	assert.NoError(t, err)
	assert.Equal(t, LIA, l)

	_, err = ParseLogic("QF_BV")
	assert.IsError(t, err, ErrUnsupported)
}
