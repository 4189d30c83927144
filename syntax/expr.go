package syntax

// Exp is an immutable, typed expression tree node.
type Exp interface {
	Type() Type
	// Children returns the direct subexpressions in evaluation order.
	// The binder of a Lambda is not a child.
	Children() []Exp
	String() string
	isExp()
}

// Op is a binary operator.
type Op string

// Binary operators. Arithmetic operators on collections mean concatenation (+)
// and multiset difference (-).
const (
	OpAdd     Op = "+"
	OpSub     Op = "-"
	OpMul     Op = "*"
	OpEq      Op = "=="
	OpNe      Op = "!="
	OpLt      Op = "<"
	OpLe      Op = "<="
	OpGt      Op = ">"
	OpGe      Op = ">="
	OpAnd     Op = "and"
	OpOr      Op = "or"
	OpImplies Op = "=>"
	OpIn      Op = "in"
)

// IsComparison reports whether op is one of == != < <= > >=.
func (op Op) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}

	return false
}

// UOp is a unary operator.
type UOp string

// Unary operators.
const (
	UNot       UOp = "not"
	UNeg       UOp = "neg"
	USum       UOp = "sum"
	UDistinct  UOp = "distinct"
	UAreUnique UOp = "unique?"
	UAll       UOp = "all"
	UAny       UOp = "any"
	ULength    UOp = "len"
	UExists    UOp = "exists"
	UEmpty     UOp = "empty?"
	UThe       UOp = "the"
)

// Num is an integer literal.
type Num struct {
	Val int64
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Val bool
}

// Str is a string literal.
type Str struct {
	Val string
}

// Var is a (free or lambda-bound) variable.
type Var struct {
	Name string
	T    Type
}

// BinOp applies a binary operator.
type BinOp struct {
	Op Op
	L  Exp
	R  Exp
	T  Type
}

// UnaryOp applies a unary operator.
type UnaryOp struct {
	Op UOp
	E  Exp
	T  Type
}

// Cond is if-then-else.
type Cond struct {
	If   Exp
	Then Exp
	Else Exp
}

// EmptyColl is the empty collection of type T.
type EmptyColl struct {
	T Type
}

// Singleton is the one-element bag holding E.
type Singleton struct {
	E Exp
	T Type
}

// Lambda is a one-argument function literal.
type Lambda struct {
	Arg  *Var
	Body Exp
}

// Filter keeps the elements of E satisfying P.
type Filter struct {
	E Exp
	P *Lambda
}

// Map applies F to each element of E.
type Map struct {
	E Exp
	F *Lambda
	T Type
}

// FlatMap applies F to each element of E and concatenates the results.
type FlatMap struct {
	E Exp
	F *Lambda
	T Type
}

// ArgMin selects the element of E minimising F.
type ArgMin struct {
	E Exp
	F *Lambda
}

// ArgMax selects the element of E maximising F.
type ArgMax struct {
	E Exp
	F *Lambda
}

// MakeMap builds a map whose keys are the elements of E and whose values are Value(k).
type MakeMap struct {
	E     Exp
	Value *Lambda
	T     Type
}

// MapGet looks Key up in Map.
type MapGet struct {
	Map Exp
	Key Exp
}

// DropFront removes the first element of E.
type DropFront struct {
	E Exp
}

// DropBack removes the last element of E.
type DropBack struct {
	E Exp
}

// StateVar marks E as materialized auxiliary state.
type StateVar struct {
	E Exp
}

// Tuple builds a tuple.
type Tuple struct {
	Elems []Exp
}

// TupleGet projects component Index of E.
type TupleGet struct {
	E     Exp
	Index int
}

// GetField reads a record field.
type GetField struct {
	E     Exp
	Field string
}

func (*Num) isExp()       {}
func (*BoolLit) isExp()   {}
func (*Str) isExp()       {}
func (*Var) isExp()       {}
func (*BinOp) isExp()     {}
func (*UnaryOp) isExp()   {}
func (*Cond) isExp()      {}
func (*EmptyColl) isExp() {}
func (*Singleton) isExp() {}
func (*Lambda) isExp()    {}
func (*Filter) isExp()    {}
func (*Map) isExp()       {}
func (*FlatMap) isExp()   {}
func (*ArgMin) isExp()    {}
func (*ArgMax) isExp()    {}
func (*MakeMap) isExp()   {}
func (*MapGet) isExp()    {}
func (*DropFront) isExp() {}
func (*DropBack) isExp()  {}
func (*StateVar) isExp()  {}
func (*Tuple) isExp()     {}
func (*TupleGet) isExp()  {}
func (*GetField) isExp()  {}

func (*Num) Type() Type       { return Int }
func (*BoolLit) Type() Type   { return Bool }
func (*Str) Type() Type       { return String }
func (e *Var) Type() Type     { return e.T }
func (e *BinOp) Type() Type   { return e.T }
func (e *UnaryOp) Type() Type { return e.T }
func (e *Cond) Type() Type    { return e.Then.Type() }
func (e *EmptyColl) Type() Type {
	return e.T
}
func (e *Singleton) Type() Type { return e.T }
func (e *Lambda) Type() Type {
	return &TFunc{Arg: e.Arg.T, Result: e.Body.Type()}
}
func (e *Filter) Type() Type  { return e.E.Type() }
func (e *Map) Type() Type     { return e.T }
func (e *FlatMap) Type() Type { return e.T }
func (e *ArgMin) Type() Type  { return ElemType(e.E.Type()) }
func (e *ArgMax) Type() Type  { return ElemType(e.E.Type()) }
func (e *MakeMap) Type() Type { return e.T }
func (e *MapGet) Type() Type {
	if m, ok := e.Map.Type().(*TMap); ok {
		return m.Value
	}

	return nil
}
func (e *DropFront) Type() Type { return e.E.Type() }
func (e *DropBack) Type() Type  { return e.E.Type() }
func (e *StateVar) Type() Type  { return e.E.Type() }
func (e *Tuple) Type() Type {
	ts := make([]Type, len(e.Elems))
	for i, x := range e.Elems {
		ts[i] = x.Type()
	}

	return &TTuple{Elems: ts}
}
func (e *TupleGet) Type() Type {
	if t, ok := e.E.Type().(*TTuple); ok && e.Index >= 0 && e.Index < len(t.Elems) {
		return t.Elems[e.Index]
	}

	return nil
}
func (e *GetField) Type() Type {
	if r, ok := e.E.Type().(*TRecord); ok {
		for _, f := range r.Fields {
			if f.Name == e.Field {
				return f.Type
			}
		}
	}

	return nil
}

func (*Num) Children() []Exp       { return nil }
func (*BoolLit) Children() []Exp   { return nil }
func (*Str) Children() []Exp       { return nil }
func (*Var) Children() []Exp       { return nil }
func (e *BinOp) Children() []Exp   { return []Exp{e.L, e.R} }
func (e *UnaryOp) Children() []Exp { return []Exp{e.E} }
func (e *Cond) Children() []Exp    { return []Exp{e.If, e.Then, e.Else} }
func (*EmptyColl) Children() []Exp { return nil }
func (e *Singleton) Children() []Exp {
	return []Exp{e.E}
}
func (e *Lambda) Children() []Exp    { return []Exp{e.Body} }
func (e *Filter) Children() []Exp    { return []Exp{e.E, e.P} }
func (e *Map) Children() []Exp       { return []Exp{e.E, e.F} }
func (e *FlatMap) Children() []Exp   { return []Exp{e.E, e.F} }
func (e *ArgMin) Children() []Exp    { return []Exp{e.E, e.F} }
func (e *ArgMax) Children() []Exp    { return []Exp{e.E, e.F} }
func (e *MakeMap) Children() []Exp   { return []Exp{e.E, e.Value} }
func (e *MapGet) Children() []Exp    { return []Exp{e.Map, e.Key} }
func (e *DropFront) Children() []Exp { return []Exp{e.E} }
func (e *DropBack) Children() []Exp  { return []Exp{e.E} }
func (e *StateVar) Children() []Exp  { return []Exp{e.E} }
func (e *Tuple) Children() []Exp     { return e.Elems }
func (e *TupleGet) Children() []Exp  { return []Exp{e.E} }
func (e *GetField) Children() []Exp  { return []Exp{e.E} }

// Apply substitutes x for the lambda's argument in its body.
func (e *Lambda) Apply(x Exp) Exp {
	return Subst(e.Body, map[string]Exp{e.Arg.Name: x})
}
