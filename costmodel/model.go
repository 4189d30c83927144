package costmodel

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/shibukawa/symcost/syntax"
)

// Heuristic weights. Only their ordering matters: ExtremeCost dominates
// MildPenalty, which dominates the unit cost of a node.
const (
	ExtremeCost = 1000
	MildPenalty = 10
	Traversal   = 2

	// DefaultLargeCardinality is the size free collections are assumed to exceed.
	DefaultLargeCardinality = 1000
)

var (
	extremeCost = syntax.NumInt(ExtremeCost)
	mildPenalty = syntax.NumInt(MildPenalty)
	traversal   = syntax.NumInt(Traversal)
	hundred     = decimal.NewFromInt(100)
)

// Model assigns symbolic costs to expressions.
type Model struct {
	assumeLarge bool
	threshold   int64
	simple      bool
	logger      *slog.Logger
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithLargeCardinalities toggles the assumption that every free collection
// is larger than the threshold.
func WithLargeCardinalities(on bool) ModelOption {
	return func(m *Model) { m.assumeLarge = on }
}

// WithLargeCardinalityThreshold changes the size free collections are assumed to exceed.
func WithLargeCardinalityThreshold(n int64) ModelOption {
	return func(m *Model) { m.threshold = n }
}

// WithSimpleCostModel replaces symbolic costing by a plain node count.
func WithSimpleCostModel(on bool) ModelOption {
	return func(m *Model) { m.simple = on }
}

// WithModelLogger sets the logger.
func WithModelLogger(l *slog.Logger) ModelOption {
	return func(m *Model) { m.logger = l }
}

// NewModel creates a model. Large-cardinality assumptions are on by default.
func NewModel(opts ...ModelOption) *Model {
	m := &Model{
		assumeLarge: true,
		threshold:   DefaultLargeCardinality,
		logger:      slog.Default(),
	}

	for _, o := range opts {
		o(m)
	}

	return m
}

// IsMonotonic reports whether cheaper subexpressions always give a cheaper
// whole. They do not: costs multiply by cardinalities and carry fixed penalties.
func (m *Model) IsMonotonic() bool { return false }

// Cost computes the cost of evaluating e in the given pool.
func (m *Model) Cost(e syntax.Exp, pool Pool) (*Cost, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil expression", ErrInvalidCost)
	}

	if m.simple {
		return NewCost(e, pool, syntax.Zero, decimal.NewFromInt(int64(syntax.Size(e))), syntax.True, nil)
	}

	if pool == StatePool {
		return NewCost(e, pool, syntax.Zero, stateCost(e), syntax.True, nil)
	}

	c := &costing{cards: map[string]*syntax.Var{}}

	if m.assumeLarge {
		for _, v := range syntax.FreeVars(e) {
			if syntax.IsCollection(v.T) {
				c.assumptions = append(c.assumptions, syntax.Gt(c.cardinality(v), syntax.NumInt(m.threshold)))
			}
		}
	}

	f := c.visit(e)

	cost, err := NewCost(e, pool, f, c.secondary, syntax.All(c.assumptions...), c.order)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("cost assigned",
		slog.String("expr", e.String()),
		slog.String("pool", pool.String()),
		slog.String("formula", f.String()),
		slog.Int("cardinalities", len(c.order)),
	)

	return cost, nil
}

func stateCost(e syntax.Exp) decimal.Decimal {
	return decimal.NewFromInt(int64(syntax.Size(e))).Div(hundred)
}

// costing is the scratch state of one Cost call.
type costing struct {
	cards       map[string]*syntax.Var
	order       []Cardinality
	assumptions []syntax.Exp
	secondary   decimal.Decimal
}

// cardinality returns a term for the length of collection e. Compositional
// collections are measured from their parts; everything else gets a fresh
// variable, shared among alpha-equivalent subexpressions.
func (c *costing) cardinality(e syntax.Exp) syntax.Exp {
	switch n := e.(type) {
	case *syntax.EmptyColl:
		return syntax.Zero
	case *syntax.Singleton:
		return syntax.One
	case *syntax.BinOp:
		if n.Op == syntax.OpAdd {
			return Sum(c.cardinality(n.L), c.cardinality(n.R))
		}
	case *syntax.Map:
		return c.cardinality(n.E)
	case *syntax.StateVar:
		return c.cardinality(n.E)
	}

	key := syntax.Key(e)
	if v, ok := c.cards[key]; ok {
		return v
	}

	v := syntax.FreshVar(syntax.Int)
	c.cards[key] = v
	c.order = append(c.order, Cardinality{Var: v, Of: e})

	switch n := e.(type) {
	case *syntax.Filter:
		c.shrinkGuard(v, c.cardinality(n.E))
	case *syntax.UnaryOp:
		if n.Op == syntax.UDistinct {
			c.shrinkGuard(v, c.cardinality(n.E))
		}
	case *syntax.BinOp:
		if n.Op == syntax.OpSub {
			c.assumptions = append(c.assumptions, syntax.Le(v, c.cardinality(n.L)))
		}
	case *syntax.Cond:
		c.assumptions = append(c.assumptions, syntax.Or(
			syntax.Eq(v, c.cardinality(n.Then)),
			syntax.Eq(v, c.cardinality(n.Else)),
		))
	}

	return v
}

// shrinkGuard bounds a filtered or deduplicated size v by its source size
// src, and keeps it from collapsing: 5v >= 4src.
func (c *costing) shrinkGuard(v, src syntax.Exp) {
	c.assumptions = append(c.assumptions,
		syntax.Le(v, src),
		syntax.Ge(syntax.Times(v, syntax.NumInt(5)), syntax.Times(src, syntax.NumInt(4))),
	)
}

// sizeof is the storage cost of e.
func (c *costing) sizeof(e syntax.Exp) syntax.Exp {
	if syntax.IsCollection(e.Type()) {
		return c.cardinality(e)
	}

	return syntax.One
}

func (c *costing) visit(e syntax.Exp) syntax.Exp {
	fold := &syntax.BottomUp[syntax.Exp]{
		Handle: c.handle,
		Join: func(_ syntax.Exp, children []syntax.Exp) syntax.Exp {
			return Sum(append([]syntax.Exp{syntax.One}, children...)...)
		},
	}

	return fold.Visit(e)
}

// perElement is the cost of running f once for every element of src.
func (c *costing) perElement(src syntax.Exp, f syntax.Exp, visit func(syntax.Exp) syntax.Exp) syntax.Exp {
	return Sum(traversal, visit(src), product(c.cardinality(src), visit(f)))
}

func (c *costing) handle(e syntax.Exp, visit func(syntax.Exp) syntax.Exp) (syntax.Exp, bool) {
	switch n := e.(type) {
	case *syntax.StateVar:
		c.secondary = c.secondary.Add(stateCost(n.E))
		return Sum(syntax.One, c.sizeof(n.E)), true
	case *syntax.UnaryOp:
		costs := []syntax.Exp{syntax.One, visit(n.E)}

		switch n.Op {
		case syntax.USum, syntax.UDistinct, syntax.UAreUnique, syntax.UAll, syntax.UAny, syntax.ULength:
			costs = append(costs, c.cardinality(n.E))
		}

		return Sum(costs...), true
	case *syntax.BinOp:
		costs := []syntax.Exp{syntax.One, visit(n.L), visit(n.R)}

		switch {
		case n.Op == syntax.OpIn:
			costs = append(costs, c.cardinality(n.R))
		case n.Op == syntax.OpEq && syntax.IsCollection(n.L.Type()),
			n.Op == syntax.OpSub && syntax.IsCollection(n.T):
			costs = append(costs, extremeCost, c.cardinality(n.L), c.cardinality(n.R))
		}

		return Sum(costs...), true
	case *syntax.Lambda:
		return visit(n.Apply(syntax.FreshVar(n.Arg.T))), true
	case *syntax.MapGet:
		return Sum(mildPenalty, visit(n.Map), visit(n.Key)), true
	case *syntax.MakeMap:
		return Sum(extremeCost, visit(n.E), product(c.cardinality(n.E), visit(n.Value))), true
	case *syntax.Filter:
		return c.perElement(n.E, n.P, visit), true
	case *syntax.Map:
		return c.perElement(n.E, n.F, visit), true
	case *syntax.FlatMap:
		return c.perElement(n.E, n.F, visit), true
	case *syntax.ArgMin:
		return c.perElement(n.E, n.F, visit), true
	case *syntax.ArgMax:
		return c.perElement(n.E, n.F, visit), true
	case *syntax.DropFront:
		return Sum(mildPenalty, visit(n.E), c.cardinality(n.E)), true
	case *syntax.DropBack:
		return Sum(mildPenalty, visit(n.E), c.cardinality(n.E)), true
	}

	return nil, false
}
