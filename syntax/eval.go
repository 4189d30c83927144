package syntax

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	celOnce sync.Once
	celEnv  *cel.Env
	celErr  error
)

func literalEnv() (*cel.Env, error) {
	celOnce.Do(func() {
		celEnv, celErr = cel.NewEnv()
	})

	return celEnv, celErr
}

// IsLiteral reports whether e is built only from integer and boolean literals
// with arithmetic, comparison, logical and conditional operators.
func IsLiteral(e Exp) bool {
	switch n := e.(type) {
	case *Num, *BoolLit:
		return true
	case *BinOp:
		switch n.Op {
		case OpIn:
			return false
		case OpAdd, OpSub, OpMul:
			if !IsNumeric(n.T) {
				return false
			}
		}

		return IsLiteral(n.L) && IsLiteral(n.R)
	case *UnaryOp:
		return (n.Op == UNot || n.Op == UNeg) && IsLiteral(n.E)
	case *Cond:
		return IsLiteral(n.If) && IsLiteral(n.Then) && IsLiteral(n.Else)
	}

	return false
}

// Eval evaluates a literal expression. The result is an int64 or a bool.
func Eval(e Exp) (any, error) {
	switch n := e.(type) {
	case *Num:
		return n.Val, nil
	case *BoolLit:
		return n.Val, nil
	}

	if !IsLiteral(e) {
		return nil, fmt.Errorf("%w: %s", ErrNotLiteral, e)
	}

	var sb strings.Builder
	writeCEL(&sb, e)

	env, err := literalEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(sb.String())
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	result, _, err := program.Eval(map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("CEL evaluation error: %w", err)
	}

	switch v := result.Value().(type) {
	case int64, bool:
		return v, nil
	}

	return nil, fmt.Errorf("%w: unexpected result %v", ErrNotLiteral, result.Value())
}

// EvalBool evaluates a literal boolean expression.
func EvalBool(e Exp) (bool, error) {
	v, err := Eval(e)
	if err != nil {
		return false, err
	}

	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is not boolean", ErrNotLiteral, e)
	}

	return b, nil
}

func writeCEL(sb *strings.Builder, e Exp) {
	switch n := e.(type) {
	case *Num:
		sb.WriteString(strconv.FormatInt(n.Val, 10))
	case *BoolLit:
		sb.WriteString(strconv.FormatBool(n.Val))
	case *UnaryOp:
		if n.Op == UNot {
			sb.WriteString("!(")
		} else {
			sb.WriteString("-(")
		}

		writeCEL(sb, n.E)
		sb.WriteString(")")
	case *Cond:
		sb.WriteString("((")
		writeCEL(sb, n.If)
		sb.WriteString(") ? (")
		writeCEL(sb, n.Then)
		sb.WriteString(") : (")
		writeCEL(sb, n.Else)
		sb.WriteString("))")
	case *BinOp:
		if n.Op == OpImplies {
			sb.WriteString("(!(")
			writeCEL(sb, n.L)
			sb.WriteString(") || (")
			writeCEL(sb, n.R)
			sb.WriteString("))")

			return
		}

		op := string(n.Op)
		switch n.Op {
		case OpAnd:
			op = "&&"
		case OpOr:
			op = "||"
		}

		sb.WriteString("((")
		writeCEL(sb, n.L)
		sb.WriteString(") ")
		sb.WriteString(op)
		sb.WriteString(" (")
		writeCEL(sb, n.R)
		sb.WriteString("))")
	}
}

// FoldConstants replaces every maximal literal subexpression of e by its value.
func FoldConstants(e Exp) Exp {
	switch e.(type) {
	case *Num, *BoolLit:
		return e
	}

	if IsLiteral(e) {
		v, err := Eval(e)
		if err == nil {
			switch x := v.(type) {
			case int64:
				return NumInt(x)
			case bool:
				return &BoolLit{Val: x}
			}
		}

		return e
	}

	switch n := e.(type) {
	case *BinOp:
		return &BinOp{Op: n.Op, L: FoldConstants(n.L), R: FoldConstants(n.R), T: n.T}
	case *UnaryOp:
		return &UnaryOp{Op: n.Op, E: FoldConstants(n.E), T: n.T}
	case *Cond:
		return &Cond{If: FoldConstants(n.If), Then: FoldConstants(n.Then), Else: FoldConstants(n.Else)}
	}

	return e
}
