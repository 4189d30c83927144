package syntax

import "strings"

// Type is the static type of an expression.
type Type interface {
	String() string
	isType()
}

// Prim is a scalar type identified by name (Int, Bool, Real, String or a native handle type).
type Prim struct {
	Name string
}

// Built-in scalar types.
var (
	Int    Type = &Prim{Name: "Int"}
	Bool   Type = &Prim{Name: "Bool"}
	Real   Type = &Prim{Name: "Real"}
	String Type = &Prim{Name: "String"}
)

// TBag is an unordered collection with duplicates.
type TBag struct {
	Elem Type
}

// TSet is an unordered collection without duplicates.
type TSet struct {
	Elem Type
}

// TList is an ordered collection.
type TList struct {
	Elem Type
}

// TMap maps keys to values.
type TMap struct {
	Key   Type
	Value Type
}

// TTuple is a fixed-arity product.
type TTuple struct {
	Elems []Type
}

// Field is one named component of a record type.
type Field struct {
	Name string
	Type Type
}

// TRecord is a product with named fields.
type TRecord struct {
	Fields []Field
}

// TFunc is the type of a lambda.
type TFunc struct {
	Arg    Type
	Result Type
}

func (*Prim) isType()    {}
func (*TBag) isType()    {}
func (*TSet) isType()    {}
func (*TList) isType()   {}
func (*TMap) isType()    {}
func (*TTuple) isType()  {}
func (*TRecord) isType() {}
func (*TFunc) isType()   {}

func (t *Prim) String() string { return t.Name }
func (t *TBag) String() string { return "Bag<" + t.Elem.String() + ">" }
func (t *TSet) String() string { return "Set<" + t.Elem.String() + ">" }
func (t *TList) String() string {
	return "List<" + t.Elem.String() + ">"
}

func (t *TMap) String() string {
	return "Map<" + t.Key.String() + "," + t.Value.String() + ">"
}

func (t *TTuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}

	return "Tuple<" + strings.Join(parts, ",") + ">"
}

func (t *TRecord) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.Name + ":" + f.Type.String()
	}

	return "{" + strings.Join(parts, ",") + "}"
}

func (t *TFunc) String() string {
	return "Func<" + t.Arg.String() + "," + t.Result.String() + ">"
}

// SameType reports whether two types are structurally identical.
func SameType(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.String() == b.String()
}

// IsCollection reports whether t is a bag, set or list.
func IsCollection(t Type) bool {
	switch t.(type) {
	case *TBag, *TSet, *TList:
		return true
	}

	return false
}

// IsNumeric reports whether t is Int or Real.
func IsNumeric(t Type) bool {
	return SameType(t, Int) || SameType(t, Real)
}

// ElemType returns the element type of a collection, or nil.
func ElemType(t Type) Type {
	switch c := t.(type) {
	case *TBag:
		return c.Elem
	case *TSet:
		return c.Elem
	case *TList:
		return c.Elem
	}

	return nil
}

// WithElem returns a collection of the same kind as t holding elem.
// Sets become bags since mapping may introduce duplicates.
func WithElem(t Type, elem Type) Type {
	if _, ok := t.(*TList); ok {
		return &TList{Elem: elem}
	}

	return &TBag{Elem: elem}
}
