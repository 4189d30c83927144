// Package costmodel assigns symbolic costs to candidate expressions and
// compares them with the help of a solver.
//
// A Cost is an integer formula over cardinality variables, each standing for
// the size of one collection-valued subexpression, together with the
// assumptions that constrain those variables. Two costs are compared by
// asking whether one formula is at most the other in every model of the
// joint assumptions. Many pairs are incomparable; the engine says so instead
// of guessing.
package costmodel

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shibukawa/symcost/syntax"
)

// Pool tells whether an expression is recomputed per query or kept as state.
type Pool int

const (
	RuntimePool Pool = iota
	StatePool
)

func (p Pool) String() string {
	if p == StatePool {
		return "state"
	}

	return "runtime"
}

// ParsePool parses "runtime" or "state".
func ParsePool(s string) (Pool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "runtime", "":
		return RuntimePool, nil
	case "state":
		return StatePool, nil
	}

	return RuntimePool, fmt.Errorf("%w: %q", ErrUnknownPool, s)
}

// Ordering is the outcome of comparing two costs.
type Ordering int

const (
	Unordered Ordering = iota
	Better
	Worse
)

func (o Ordering) String() string {
	switch o {
	case Better:
		return "better"
	case Worse:
		return "worse"
	}

	return "unordered"
}

// Flip returns the ordering seen from the other side.
func (o Ordering) Flip() Ordering {
	switch o {
	case Better:
		return Worse
	case Worse:
		return Better
	}

	return Unordered
}

// Cardinality records that Var stands for the length of Of.
type Cardinality struct {
	Var *syntax.Var
	Of  syntax.Exp
}

// Cost is an immutable symbolic cost.
type Cost struct {
	expr          syntax.Exp
	pool          Pool
	formula       syntax.Exp
	secondary     decimal.Decimal
	assumptions   syntax.Exp
	cardinalities []Cardinality
}

// Zero is the cost of doing nothing.
var Zero = &Cost{formula: syntax.Zero, assumptions: syntax.True}

// NewCost builds a cost, checking that formula is an Int term, that every
// free variable of assumptions is an Int, and that cardinality variables are
// distinct Int variables denoting collections.
func NewCost(e syntax.Exp, pool Pool, formula syntax.Exp, secondary decimal.Decimal, assumptions syntax.Exp, cards []Cardinality) (*Cost, error) {
	if formula == nil || !syntax.SameType(formula.Type(), syntax.Int) {
		return nil, fmt.Errorf("%w: formula %v is not an Int", ErrInvalidCost, formula)
	}

	if assumptions == nil {
		assumptions = syntax.True
	}

	for _, v := range syntax.FreeVars(assumptions) {
		if !syntax.SameType(v.T, syntax.Int) {
			return nil, fmt.Errorf("%w: assumption variable %s has type %s", ErrInvalidCost, v.Name, v.T)
		}
	}

	seen := make(map[string]bool, len(cards))

	for _, c := range cards {
		if c.Var == nil || !syntax.SameType(c.Var.T, syntax.Int) {
			return nil, fmt.Errorf("%w: cardinality variable must be an Int", ErrInvalidCost)
		}

		if seen[c.Var.Name] {
			return nil, fmt.Errorf("%w: duplicate cardinality variable %s", ErrInvalidCost, c.Var.Name)
		}

		if c.Of == nil || !syntax.IsCollection(c.Of.Type()) {
			return nil, fmt.Errorf("%w: %s does not denote a collection", ErrInvalidCost, c.Var.Name)
		}

		seen[c.Var.Name] = true
	}

	return &Cost{
		expr:          e,
		pool:          pool,
		formula:       formula,
		secondary:     secondary,
		assumptions:   assumptions,
		cardinalities: append([]Cardinality(nil), cards...),
	}, nil
}

// Expr is the expression the cost was computed for; nil for Zero.
func (c *Cost) Expr() syntax.Exp { return c.expr }

// Pool is the pool the cost was computed for.
func (c *Cost) Pool() Pool { return c.pool }

// Formula is the symbolic cost.
func (c *Cost) Formula() syntax.Exp { return c.formula }

// Secondary is the tie-breaker used when formulas are provably equal.
func (c *Cost) Secondary() decimal.Decimal { return c.secondary }

// Assumptions constrain the cardinality variables.
func (c *Cost) Assumptions() syntax.Exp { return c.assumptions }

// Cardinalities lists the cardinality variables in allocation order.
func (c *Cost) Cardinalities() []Cardinality {
	return append([]Cardinality(nil), c.cardinalities...)
}

func (c *Cost) String() string {
	parts := make([]string, len(c.cardinalities))
	for i, card := range c.cardinalities {
		parts[i] = fmt.Sprintf("%s = (len %s)", card.Var.Name, card.Of)
	}

	return fmt.Sprintf("cost[%s subject to %s, %s]", c.formula, c.assumptions, strings.Join(parts, ", "))
}
