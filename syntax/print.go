package syntax

import (
	"strconv"
	"strings"
)

// Format renders e in the s-expression syntax accepted by Parse.
func Format(e Exp) string {
	var sb strings.Builder
	format(&sb, e)

	return sb.String()
}

func format(sb *strings.Builder, e Exp) {
	switch n := e.(type) {
	case *Num:
		sb.WriteString(strconv.FormatInt(n.Val, 10))
	case *BoolLit:
		sb.WriteString(strconv.FormatBool(n.Val))
	case *Str:
		sb.WriteString(strconv.Quote(n.Val))
	case *Var:
		sb.WriteString(n.Name)
	case *EmptyColl:
		sb.WriteString("(empty ")
		sb.WriteString(typeName(n.T))
		sb.WriteString(")")
	case *Lambda:
		sb.WriteString("(lambda ")
		sb.WriteString(n.Arg.Name)
		sb.WriteString(" ")
		format(sb, n.Body)
		sb.WriteString(")")
	case *TupleGet:
		sb.WriteString("(nth ")
		format(sb, n.E)
		sb.WriteString(" ")
		sb.WriteString(strconv.Itoa(n.Index))
		sb.WriteString(")")
	case *GetField:
		sb.WriteString("(. ")
		format(sb, n.E)
		sb.WriteString(" ")
		sb.WriteString(n.Field)
		sb.WriteString(")")
	default:
		sb.WriteString("(")
		sb.WriteString(head(e))

		for _, c := range e.Children() {
			sb.WriteString(" ")
			format(sb, c)
		}

		sb.WriteString(")")
	}
}

func (e *Num) String() string       { return Format(e) }
func (e *BoolLit) String() string   { return Format(e) }
func (e *Str) String() string       { return Format(e) }
func (e *Var) String() string       { return e.Name }
func (e *BinOp) String() string     { return Format(e) }
func (e *UnaryOp) String() string   { return Format(e) }
func (e *Cond) String() string      { return Format(e) }
func (e *EmptyColl) String() string { return Format(e) }
func (e *Singleton) String() string { return Format(e) }
func (e *Lambda) String() string    { return Format(e) }
func (e *Filter) String() string    { return Format(e) }
func (e *Map) String() string       { return Format(e) }
func (e *FlatMap) String() string   { return Format(e) }
func (e *ArgMin) String() string    { return Format(e) }
func (e *ArgMax) String() string    { return Format(e) }
func (e *MakeMap) String() string   { return Format(e) }
func (e *MapGet) String() string    { return Format(e) }
func (e *DropFront) String() string { return Format(e) }
func (e *DropBack) String() string  { return Format(e) }
func (e *StateVar) String() string  { return Format(e) }
func (e *Tuple) String() string     { return Format(e) }
func (e *TupleGet) String() string  { return Format(e) }
func (e *GetField) String() string  { return Format(e) }
