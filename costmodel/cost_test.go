package costmodel

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/shibukawa/symcost/syntax"
)

func TestNewCost(t *testing.T) {
	xs := syntax.NewVar("xs", &syntax.TBag{Elem: syntax.Int})
	v := syntax.NewVar("v", syntax.Int)
	r := syntax.NewVar("r", syntax.Real)

	tests := []struct {
		name        string
		formula     syntax.Exp
		assumptions syntax.Exp
		cards       []Cardinality
		wantErr     bool
	}{
		{name: "valid", formula: syntax.Plus(v, syntax.One), assumptions: syntax.Ge(v, syntax.Zero), cards: []Cardinality{{Var: v, Of: xs}}},
		{name: "nil assumptions", formula: syntax.One},
		{name: "boolean formula", formula: syntax.True, wantErr: true},
		{name: "real assumption variable", formula: syntax.One, assumptions: syntax.Gt(r, syntax.Zero), wantErr: true},
		{name: "duplicate cardinality", formula: v, cards: []Cardinality{{Var: v, Of: xs}, {Var: v, Of: xs}}, wantErr: true},
		{name: "cardinality of a scalar", formula: v, cards: []Cardinality{{Var: v, Of: v}}, wantErr: true},
		{name: "non-integer cardinality variable", formula: syntax.One, cards: []Cardinality{{Var: r, Of: xs}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCost(xs, RuntimePool, tt.formula, decimal.Zero, tt.assumptions, tt.cards)
			if tt.wantErr {
				assert.IsError(t, err, ErrInvalidCost)
				return
			}

			assert.NoError(t, err)
			assert.NotZero(t, c.Assumptions())
		})
	}
}

func TestCostIsImmutable(t *testing.T) {
	xs := syntax.NewVar("xs", &syntax.TBag{Elem: syntax.Int})
	v := syntax.NewVar("v", syntax.Int)
	cards := []Cardinality{{Var: v, Of: xs}}

	c, err := NewCost(xs, RuntimePool, v, decimal.Zero, nil, cards)
	assert.NoError(t, err)

	cards[0].Of = v
	got := c.Cardinalities()
	got[0].Var = nil

	assert.Equal(t, "xs", c.Cardinalities()[0].Of.String())
	assert.Equal(t, "v", c.Cardinalities()[0].Var.Name)
}

func TestCostString(t *testing.T) {
	xs := syntax.NewVar("xs", &syntax.TBag{Elem: syntax.Int})
	v := syntax.NewVar("v", syntax.Int)

	c, err := NewCost(xs, RuntimePool, syntax.Plus(v, syntax.One), decimal.Zero, syntax.Gt(v, syntax.NumInt(1000)), []Cardinality{{Var: v, Of: xs}})
	assert.NoError(t, err)
	assert.Equal(t, "cost[(+ v 1) subject to (> v 1000), v = (len xs)]", c.String())
}

func TestParsePool(t *testing.T) {
	tests := []struct {
		in      string
		want    Pool
		wantErr bool
	}{
		{in: "runtime", want: RuntimePool},
		{in: "State", want: StatePool},
		{in: "", want: RuntimePool},
		{in: "disk", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePool(tt.in)
			if tt.wantErr {
				assert.IsError(t, err, ErrUnknownPool)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, mustParsePool(t, got.String()))
		})
	}
}

func mustParsePool(t *testing.T, s string) Pool {
	t.Helper()

	p, err := ParsePool(s)
	assert.NoError(t, err)

	return p
}

func TestOrderingFlip(t *testing.T) {
	assert.Equal(t, Worse, Better.Flip())
	assert.Equal(t, Better, Worse.Flip())
	assert.Equal(t, Unordered, Unordered.Flip())
	assert.Equal(t, "better", Better.String())
}

func TestSum(t *testing.T) {
	a := syntax.NewVar("a", syntax.Int)
	b := syntax.NewVar("b", syntax.Int)
	c := syntax.NewVar("c", syntax.Int)

	tests := []struct {
		name string
		in   []syntax.Exp
		want string
	}{
		{name: "empty", want: "0"},
		{name: "literals merge", in: []syntax.Exp{syntax.One, syntax.NumInt(2)}, want: "3"},
		{name: "zero dropped", in: []syntax.Exp{a, syntax.Zero}, want: "a"},
		{name: "nested sums flatten", in: []syntax.Exp{syntax.Plus(a, syntax.One), b, syntax.NumInt(2), c}, want: "(+ (+ a b) (+ c 3))"},
		{name: "products kept", in: []syntax.Exp{syntax.Times(a, b), syntax.One}, want: "(+ (* a b) 1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sum(tt.in...).String())
		})
	}
}

func TestProduct(t *testing.T) {
	a := syntax.NewVar("a", syntax.Int)

	assert.Equal(t, "6", product(syntax.NumInt(2), syntax.NumInt(3)).String())
	assert.Equal(t, "0", product(a, syntax.Zero).String())
	assert.Equal(t, "a", product(syntax.One, a).String())
	assert.Equal(t, "(* a 4)", product(a, syntax.NumInt(4)).String())
}
