package smt

import (
	"fmt"
	"math/big"

	"github.com/shibukawa/symcost/syntax"
)

// formula is the negation normal form of a boolean expression. Arithmetic
// atoms only ever occur positively; negation is folded into the atom itself.
type formula interface{ isFormula() }

type fConst bool

type fAnd []formula

type fOr []formula

type fProp struct {
	id  int
	pos bool
}

type fAtom struct {
	a atom
}

func (fConst) isFormula() {}
func (fAnd) isFormula()   {}
func (fOr) isFormula()    {}
func (fProp) isFormula()  {}
func (fAtom) isFormula()  {}

func and(fs ...formula) formula {
	var out fAnd

	for _, f := range fs {
		switch n := f.(type) {
		case fConst:
			if !n {
				return fConst(false)
			}
		case fAnd:
			out = append(out, n...)
		default:
			out = append(out, f)
		}
	}

	switch len(out) {
	case 0:
		return fConst(true)
	case 1:
		return out[0]
	}

	return out
}

func or(fs ...formula) formula {
	var out fOr

	for _, f := range fs {
		switch n := f.(type) {
		case fConst:
			if n {
				return fConst(true)
			}
		case fOr:
			out = append(out, n...)
		default:
			out = append(out, f)
		}
	}

	switch len(out) {
	case 0:
		return fConst(false)
	case 1:
		return out[0]
	}

	return out
}

// lit turns p rel 0 into a formula, deciding constant comparisons on the spot.
func lit(p poly, r rel) formula {
	if p.isConst() {
		return fConst(constHolds(p.constant(), r))
	}

	return fAtom{a: atom{p: p, rel: r}}
}

// translator maps expressions onto columns, propositions and axioms.
// Columns are named c0, c1, ... so that monomial keys stay parseable.
type translator struct {
	columns  map[string]string
	display  map[string]string
	ints     map[string]bool
	props    map[string]int
	propName []string
	axioms   []formula
}

func newTranslator() *translator {
	return &translator{
		columns: map[string]string{},
		display: map[string]string{},
		ints:    map[string]bool{},
		props:   map[string]int{},
	}
}

func (t *translator) column(key, display string, integer bool) (string, bool) {
	if c, ok := t.columns[key]; ok {
		return c, false
	}

	c := fmt.Sprintf("c%d", len(t.columns))
	t.columns[key] = c
	t.display[c] = display
	t.ints[c] = integer

	return c, true
}

func (t *translator) prop(e syntax.Exp, pos bool) formula {
	key := syntax.Key(e)

	id, ok := t.props[key]
	if !ok {
		id = len(t.propName)
		t.props[key] = id
		t.propName = append(t.propName, syntax.Format(e))
	}

	return fProp{id: id, pos: pos}
}

// boolean translates e under the given polarity: pos=false yields the
// negation normal form of not e.
func (t *translator) boolean(e syntax.Exp, pos bool) (formula, error) {
	switch n := e.(type) {
	case *syntax.BoolLit:
		return fConst(n.Val == pos), nil
	case *syntax.UnaryOp:
		switch n.Op {
		case syntax.UNot:
			return t.boolean(n.E, !pos)
		case syntax.UExists:
			l, err := t.length(n.E)
			if err != nil {
				return nil, err
			}

			return t.compare(constPoly(new(big.Rat)), syntax.OpLt, l, pos), nil
		case syntax.UEmpty:
			l, err := t.length(n.E)
			if err != nil {
				return nil, err
			}

			return t.compare(l, syntax.OpEq, constPoly(new(big.Rat)), pos), nil
		}
	case *syntax.BinOp:
		switch n.Op {
		case syntax.OpAnd, syntax.OpOr, syntax.OpImplies:
			return t.connective(n, pos)
		}

		if !n.Op.IsComparison() {
			break
		}

		lt, rt := n.L.Type(), n.R.Type()

		if syntax.IsNumeric(lt) && syntax.IsNumeric(rt) {
			l, err := t.term(n.L)
			if err != nil {
				return nil, err
			}

			r, err := t.term(n.R)
			if err != nil {
				return nil, err
			}

			return t.compare(l, n.Op, r, pos), nil
		}

		if (n.Op == syntax.OpEq || n.Op == syntax.OpNe) && syntax.SameType(lt, syntax.Bool) {
			return t.iff(n.L, n.R, pos == (n.Op == syntax.OpEq))
		}
	case *syntax.Cond:
		if !syntax.SameType(n.Type(), syntax.Bool) {
			break
		}

		return t.ite(n.If, func(branch syntax.Exp) (formula, error) {
			return t.boolean(branch, pos)
		}, n.Then, n.Else)
	}

	if !syntax.SameType(e.Type(), syntax.Bool) {
		return nil, fmt.Errorf("%w: %s has type %s", ErrNotBoolean, e, e.Type())
	}

	return t.prop(e, pos), nil
}

func (t *translator) connective(n *syntax.BinOp, pos bool) (formula, error) {
	lpos := pos
	if n.Op == syntax.OpImplies {
		lpos = !pos
	}

	l, err := t.boolean(n.L, lpos)
	if err != nil {
		return nil, err
	}

	r, err := t.boolean(n.R, pos)
	if err != nil {
		return nil, err
	}

	conj := n.Op == syntax.OpAnd
	if !pos {
		conj = !conj
	}

	if conj {
		return and(l, r), nil
	}

	return or(l, r), nil
}

// iff encodes a <=> b when same is true and a xor b otherwise.
func (t *translator) iff(a, b syntax.Exp, same bool) (formula, error) {
	ap, err := t.boolean(a, true)
	if err != nil {
		return nil, err
	}

	an, err := t.boolean(a, false)
	if err != nil {
		return nil, err
	}

	bp, err := t.boolean(b, same)
	if err != nil {
		return nil, err
	}

	bn, err := t.boolean(b, !same)
	if err != nil {
		return nil, err
	}

	return or(and(ap, bp), and(an, bn)), nil
}

func (t *translator) ite(cond syntax.Exp, branch func(syntax.Exp) (formula, error), then, els syntax.Exp) (formula, error) {
	cp, err := t.boolean(cond, true)
	if err != nil {
		return nil, err
	}

	cn, err := t.boolean(cond, false)
	if err != nil {
		return nil, err
	}

	a, err := branch(then)
	if err != nil {
		return nil, err
	}

	b, err := branch(els)
	if err != nil {
		return nil, err
	}

	return or(and(cp, a), and(cn, b)), nil
}

// compare encodes l op r, or its negation when pos is false.
func (t *translator) compare(l poly, op syntax.Op, r poly, pos bool) formula {
	if !pos {
		op = negateOp(op)
	}

	d := l.sub(r)

	switch op {
	case syntax.OpLe:
		return lit(d, relLe)
	case syntax.OpLt:
		return lit(d, relLt)
	case syntax.OpGe:
		return lit(d.neg(), relLe)
	case syntax.OpGt:
		return lit(d.neg(), relLt)
	case syntax.OpEq:
		return lit(d, relEq)
	}

	return or(lit(d, relLt), lit(d.neg(), relLt))
}

func negateOp(op syntax.Op) syntax.Op {
	switch op {
	case syntax.OpLe:
		return syntax.OpGt
	case syntax.OpLt:
		return syntax.OpGe
	case syntax.OpGe:
		return syntax.OpLt
	case syntax.OpGt:
		return syntax.OpLe
	case syntax.OpEq:
		return syntax.OpNe
	}

	return syntax.OpEq
}

// term translates a numeric expression into a polynomial over columns.
func (t *translator) term(e syntax.Exp) (poly, error) {
	switch n := e.(type) {
	case *syntax.Num:
		return constPoly(ratInt(n.Val)), nil
	case *syntax.BinOp:
		switch n.Op {
		case syntax.OpAdd, syntax.OpSub, syntax.OpMul:
			if !syntax.IsNumeric(n.T) {
				break
			}

			l, err := t.term(n.L)
			if err != nil {
				return nil, err
			}

			r, err := t.term(n.R)
			if err != nil {
				return nil, err
			}

			switch n.Op {
			case syntax.OpAdd:
				return l.add(r), nil
			case syntax.OpSub:
				return l.sub(r), nil
			}

			return l.mul(r), nil
		}
	case *syntax.UnaryOp:
		switch n.Op {
		case syntax.UNeg:
			p, err := t.term(n.E)
			if err != nil {
				return nil, err
			}

			return p.neg(), nil
		case syntax.ULength:
			return t.length(n.E)
		}
	case *syntax.Cond:
		if syntax.IsNumeric(n.Type()) {
			return t.numericIte(n)
		}
	}

	if !syntax.IsNumeric(e.Type()) {
		return nil, fmt.Errorf("%w: %s is not numeric", ErrUnsupported, e)
	}

	c, _ := t.column(syntax.Key(e), syntax.Format(e), syntax.SameType(e.Type(), syntax.Int))

	return varPoly(c), nil
}

func (t *translator) numericIte(n *syntax.Cond) (poly, error) {
	key := syntax.Key(n)

	c, created := t.column(key, syntax.Format(n), syntax.SameType(n.Type(), syntax.Int))
	v := varPoly(c)

	if !created {
		return v, nil
	}

	ax, err := t.ite(n.If, func(branch syntax.Exp) (formula, error) {
		p, err := t.term(branch)
		if err != nil {
			return nil, err
		}

		return lit(v.sub(p), relEq), nil
	}, n.Then, n.Else)
	if err != nil {
		return nil, err
	}

	t.axioms = append(t.axioms, ax)

	return v, nil
}

// length returns the column standing for the size of collection c, adding
// the axioms that tie it to the sizes of c's parts.
func (t *translator) length(c syntax.Exp) (poly, error) {
	col, created := t.column("len "+syntax.Key(c), "(len "+syntax.Format(c)+")", true)
	v := varPoly(col)

	if !created {
		return v, nil
	}

	t.axioms = append(t.axioms, lit(v.neg(), relLe))

	of := func(e syntax.Exp) (poly, error) { return t.length(e) }

	switch n := c.(type) {
	case *syntax.EmptyColl:
		t.axioms = append(t.axioms, lit(v, relEq))
	case *syntax.Singleton:
		t.axioms = append(t.axioms, lit(v.sub(constPoly(ratInt(1))), relEq))
	case *syntax.BinOp:
		l, err := of(n.L)
		if err != nil {
			return nil, err
		}

		r, err := of(n.R)
		if err != nil {
			return nil, err
		}

		switch n.Op {
		case syntax.OpAdd:
			if _, ok := n.Type().(*syntax.TSet); ok {
				// Set union: max(l, r) <= v <= l + r.
				t.axioms = append(t.axioms,
					lit(l.sub(v), relLe),
					lit(r.sub(v), relLe),
					lit(v.sub(l).sub(r), relLe),
				)

				break
			}

			t.axioms = append(t.axioms, lit(v.sub(l).sub(r), relEq))
		case syntax.OpSub:
			t.axioms = append(t.axioms, lit(v.sub(l), relLe), lit(l.sub(r).sub(v), relLe))
		}
	case *syntax.Map:
		return v, t.sameLength(v, n.E)
	case *syntax.StateVar:
		return v, t.sameLength(v, n.E)
	case *syntax.Filter:
		return v, t.atMost(v, n.E, false)
	case *syntax.UnaryOp:
		if n.Op == syntax.UDistinct {
			return v, t.atMost(v, n.E, false)
		}
	case *syntax.DropFront:
		return v, t.atMost(v, n.E, true)
	case *syntax.DropBack:
		return v, t.atMost(v, n.E, true)
	case *syntax.Cond:
		ax, err := t.ite(n.If, func(branch syntax.Exp) (formula, error) {
			p, err := of(branch)
			if err != nil {
				return nil, err
			}

			return lit(v.sub(p), relEq), nil
		}, n.Then, n.Else)
		if err != nil {
			return nil, err
		}

		t.axioms = append(t.axioms, ax)
	}

	return v, nil
}

func (t *translator) sameLength(v poly, src syntax.Exp) error {
	l, err := t.length(src)
	if err != nil {
		return err
	}

	t.axioms = append(t.axioms, lit(v.sub(l), relEq))

	return nil
}

// atMost bounds v by the size of src; dropOne additionally bounds it below
// by one less than that size.
func (t *translator) atMost(v poly, src syntax.Exp, dropOne bool) error {
	l, err := t.length(src)
	if err != nil {
		return err
	}

	t.axioms = append(t.axioms, lit(v.sub(l), relLe))

	if dropOne {
		t.axioms = append(t.axioms, lit(l.sub(v).sub(constPoly(ratInt(1))), relLe))
	}

	return nil
}

// translate returns the axioms conjoined with e.
func (t *translator) translate(e syntax.Exp) (formula, error) {
	f, err := t.boolean(e, true)
	if err != nil {
		return nil, err
	}

	return and(append(append([]formula{}, t.axioms...), f)...), nil
}
