package syntax

import (
	"strconv"
	"strings"
)

// Key returns a canonical string for e that is equal for two expressions
// exactly when they are alpha-equivalent. Lambda binders are replaced by
// their binding depth, so x => x + 1 and y => y + 1 share a key.
func Key(e Exp) string {
	var sb strings.Builder
	writeKey(&sb, e, map[string]int{}, 0)

	return sb.String()
}

// AlphaEquivalent reports whether a and b differ only in bound variable names.
func AlphaEquivalent(a, b Exp) bool {
	if a == nil || b == nil {
		return a == b
	}

	return Key(a) == Key(b)
}

func writeKey(sb *strings.Builder, e Exp, bound map[string]int, depth int) {
	switch n := e.(type) {
	case *Num:
		sb.WriteString(strconv.FormatInt(n.Val, 10))
		return
	case *BoolLit:
		sb.WriteString(strconv.FormatBool(n.Val))
		return
	case *Str:
		sb.WriteString(strconv.Quote(n.Val))
		return
	case *Var:
		if d, ok := bound[n.Name]; ok {
			sb.WriteString("#")
			sb.WriteString(strconv.Itoa(d))

			return
		}

		sb.WriteString("$")
		sb.WriteString(n.Name)
		sb.WriteString(":")
		sb.WriteString(typeName(n.T))

		return
	case *Lambda:
		prev, shadowed := bound[n.Arg.Name]
		bound[n.Arg.Name] = depth
		sb.WriteString("(\\")
		sb.WriteString(typeName(n.Arg.T))
		sb.WriteString(" ")
		writeKey(sb, n.Body, bound, depth+1)
		sb.WriteString(")")

		if shadowed {
			bound[n.Arg.Name] = prev
		} else {
			delete(bound, n.Arg.Name)
		}

		return
	}

	sb.WriteString("(")
	sb.WriteString(head(e))
	sb.WriteString(":")
	sb.WriteString(typeName(e.Type()))

	for _, c := range e.Children() {
		sb.WriteString(" ")
		writeKey(sb, c, bound, depth)
	}

	sb.WriteString(")")
}

// head names the node kind and its non-child payload.
func head(e Exp) string {
	switch n := e.(type) {
	case *BinOp:
		return string(n.Op)
	case *UnaryOp:
		return string(n.Op)
	case *Cond:
		return "if"
	case *EmptyColl:
		return "empty"
	case *Singleton:
		return "singleton"
	case *Filter:
		return "filter"
	case *Map:
		return "map"
	case *FlatMap:
		return "flatmap"
	case *ArgMin:
		return "argmin"
	case *ArgMax:
		return "argmax"
	case *MakeMap:
		return "makemap"
	case *MapGet:
		return "get"
	case *DropFront:
		return "dropfront"
	case *DropBack:
		return "dropback"
	case *StateVar:
		return "state"
	case *Tuple:
		return "tuple"
	case *TupleGet:
		return "nth " + strconv.Itoa(n.Index)
	case *GetField:
		return ". " + n.Field
	}

	return "?"
}

func typeName(t Type) string {
	if t == nil {
		return "?"
	}

	return t.String()
}
