package costmodel

import "github.com/shibukawa/symcost/syntax"

// Sum adds es. Nested sums are flattened, zero literals dropped, the
// remaining literals merged into one, and the rest arranged as a balanced
// tree so that the solver sees shallow terms.
func Sum(es ...syntax.Exp) syntax.Exp {
	var terms []syntax.Exp

	var total int64

	hasNum := false

	for _, e := range es {
		for _, t := range breakSum(e) {
			if n, ok := t.(*syntax.Num); ok {
				total += n.Val
				hasNum = true

				continue
			}

			terms = append(terms, t)
		}
	}

	if hasNum && total != 0 {
		terms = append(terms, syntax.NumInt(total))
	}

	if len(terms) == 0 {
		return syntax.Zero
	}

	return balanced(terms)
}

func breakSum(e syntax.Exp) []syntax.Exp {
	if b, ok := e.(*syntax.BinOp); ok && b.Op == syntax.OpAdd && syntax.IsNumeric(b.T) {
		return append(breakSum(b.L), breakSum(b.R)...)
	}

	return []syntax.Exp{e}
}

func balanced(es []syntax.Exp) syntax.Exp {
	if len(es) == 1 {
		return es[0]
	}

	mid := len(es) / 2

	return syntax.Plus(balanced(es[:mid]), balanced(es[mid:]))
}

// product multiplies two cost terms, folding literal operands.
func product(a, b syntax.Exp) syntax.Exp {
	x, aNum := a.(*syntax.Num)
	y, bNum := b.(*syntax.Num)

	switch {
	case aNum && bNum:
		return syntax.NumInt(x.Val * y.Val)
	case aNum && x.Val == 0, bNum && y.Val == 0:
		return syntax.Zero
	case aNum && x.Val == 1:
		return b
	case bNum && y.Val == 1:
		return a
	}

	return syntax.Times(a, b)
}
