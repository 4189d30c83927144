package syntax

import (
	"fmt"
	"sync/atomic"
)

// Frequently used literals.
var (
	True  Exp = &BoolLit{Val: true}
	False Exp = &BoolLit{Val: false}
	Zero      = NumInt(0)
	One       = NumInt(1)
)

var freshCounter atomic.Uint64

// NumInt returns an integer literal.
func NumInt(n int64) *Num {
	return &Num{Val: n}
}

// NewVar returns a variable of the given type.
func NewVar(name string, t Type) *Var {
	return &Var{Name: name, T: t}
}

// FreshVar returns a variable whose name is unique within the process.
// Fresh names start with an underscore, which the reader never produces.
func FreshVar(t Type) *Var {
	return &Var{Name: fmt.Sprintf("_v%d", freshCounter.Add(1)), T: t}
}

// NewLambda builds a lambda over a fresh argument of type arg.
func NewLambda(arg Type, body func(x *Var) Exp) *Lambda {
	x := FreshVar(arg)
	return &Lambda{Arg: x, Body: body(x)}
}

func arith(op Op, a, b Exp) Exp {
	t := a.Type()
	if SameType(t, Int) && SameType(b.Type(), Real) {
		t = Real
	}

	return &BinOp{Op: op, L: a, R: b, T: t}
}

// Plus returns a + b.
func Plus(a, b Exp) Exp { return arith(OpAdd, a, b) }

// Minus returns a - b.
func Minus(a, b Exp) Exp { return arith(OpSub, a, b) }

// Times returns a * b.
func Times(a, b Exp) Exp { return arith(OpMul, a, b) }

// Compare returns the boolean comparison a op b.
func Compare(a Exp, op Op, b Exp) Exp {
	return &BinOp{Op: op, L: a, R: b, T: Bool}
}

// Le returns a <= b.
func Le(a, b Exp) Exp { return Compare(a, OpLe, b) }

// Lt returns a < b.
func Lt(a, b Exp) Exp { return Compare(a, OpLt, b) }

// Ge returns a >= b.
func Ge(a, b Exp) Exp { return Compare(a, OpGe, b) }

// Gt returns a > b.
func Gt(a, b Exp) Exp { return Compare(a, OpGt, b) }

// Eq returns a == b.
func Eq(a, b Exp) Exp { return Compare(a, OpEq, b) }

// And returns a and b, dropping literal true operands.
func And(a, b Exp) Exp {
	if isBool(a, true) {
		return b
	}

	if isBool(b, true) {
		return a
	}

	return &BinOp{Op: OpAnd, L: a, R: b, T: Bool}
}

// Or returns a or b, dropping literal false operands.
func Or(a, b Exp) Exp {
	if isBool(a, false) {
		return b
	}

	if isBool(b, false) {
		return a
	}

	return &BinOp{Op: OpOr, L: a, R: b, T: Bool}
}

// Implies returns a => b.
func Implies(a, b Exp) Exp {
	if isBool(a, true) {
		return b
	}

	return &BinOp{Op: OpImplies, L: a, R: b, T: Bool}
}

// Not returns the negation of a.
func Not(a Exp) Exp {
	if b, ok := a.(*BoolLit); ok {
		return &BoolLit{Val: !b.Val}
	}

	return &UnaryOp{Op: UNot, E: a, T: Bool}
}

// All returns the conjunction of es (true when empty).
func All(es ...Exp) Exp {
	out := True
	for _, e := range es {
		out = And(out, e)
	}

	return out
}

// AnyOf returns the disjunction of es (false when empty).
func AnyOf(es ...Exp) Exp {
	out := False
	for _, e := range es {
		out = Or(out, e)
	}

	return out
}

// Length returns len(c) for a collection c.
func Length(c Exp) Exp {
	return &UnaryOp{Op: ULength, E: c, T: Int}
}

// NewFilter returns filter(e, p).
func NewFilter(e Exp, p *Lambda) *Filter {
	return &Filter{E: e, P: p}
}

// NewMap returns map(e, f) typed after e's collection kind.
func NewMap(e Exp, f *Lambda) *Map {
	return &Map{E: e, F: f, T: WithElem(e.Type(), f.Body.Type())}
}

// NewMakeMap returns the map from elements of e to value(e).
func NewMakeMap(e Exp, value *Lambda) *MakeMap {
	return &MakeMap{E: e, Value: value, T: &TMap{Key: ElemType(e.Type()), Value: value.Body.Type()}}
}

// NewSingleton returns the one-element bag of e.
func NewSingleton(e Exp) *Singleton {
	return &Singleton{E: e, T: &TBag{Elem: e.Type()}}
}

func isBool(e Exp, v bool) bool {
	b, ok := e.(*BoolLit)
	return ok && b.Val == v
}
