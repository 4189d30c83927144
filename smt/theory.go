package smt

import (
	"math/big"
	"sort"
)

type rel int

const (
	relLe rel = iota // p <= 0
	relLt            // p < 0
	relEq            // p == 0
)

var relNames = map[rel]string{relLe: "<=0", relLt: "<0", relEq: "==0"}

// atom is the arithmetic constraint p rel 0.
type atom struct {
	p   poly
	rel rel
}

func (a atom) key() string { return a.p.key() + relNames[a.rel] }

func (a atom) holds(vals map[string]*big.Rat) bool {
	v := a.p.eval(vals)

	switch a.rel {
	case relLe:
		return v.Sign() <= 0
	case relLt:
		return v.Sign() < 0
	}

	return v.Sign() == 0
}

func constHolds(c *big.Rat, r rel) bool {
	switch r {
	case relLe:
		return c.Sign() <= 0
	case relLt:
		return c.Sign() < 0
	}

	return c.Sign() == 0
}

type verdict int

const (
	verdictSat verdict = iota
	verdictUnsat
	verdictUnknown
)

func (v verdict) String() string {
	switch v {
	case verdictSat:
		return "sat"
	case verdictUnsat:
		return "unsat"
	}

	return "unknown"
}

type theoryResult struct {
	verdict verdict
	model   map[string]*big.Rat
	reason  string
}

// theory decides conjunctions of arithmetic atoms over rationals, with
// integer tightening for integer columns under LIA and a sign-aware
// linearization of monomials under NRA. It answers unknown rather than guess.
type theory struct {
	logic          Logic
	ints           map[string]bool
	maxConstraints int
}

type substitution struct {
	v string
	e poly
}

type row struct {
	p      poly
	strict bool
}

type elimination struct {
	col  string
	rows []row
}

func unknown(reason string) theoryResult {
	return theoryResult{verdict: verdictUnknown, reason: reason}
}

func (t *theory) isInt(col string) bool {
	return t.logic == LIA && t.ints[col]
}

func (t *theory) check(atoms []atom) theoryResult {
	cons := make([]atom, len(atoms))
	copy(cons, atoms)

	cons, substs, ok := t.eliminateEqualities(cons)
	if !ok {
		return theoryResult{verdict: verdictUnsat}
	}

	nonlinear := map[string]bool{}
	for _, a := range cons {
		for m := range a.p {
			if len(factors(m)) > 1 {
				nonlinear[m] = true
			}
		}
	}

	if len(nonlinear) > 0 {
		if t.logic == LIA {
			return unknown("nonlinear term under " + t.logic.String())
		}

		cons = append(cons, linearizationFacts(cons, nonlinear)...)
	}

	var rows []row

	for _, a := range cons {
		a, ok := t.tighten(a)
		if !ok {
			return theoryResult{verdict: verdictUnsat}
		}

		switch a.rel {
		case relEq:
			rows = append(rows, row{p: a.p}, row{p: a.p.neg()})
		default:
			rows = append(rows, row{p: a.p, strict: a.rel == relLt})
		}
	}

	order, v := t.fourierMotzkin(rows)
	if v != verdictSat {
		if v == verdictUnknown {
			return unknown("constraint budget exceeded")
		}

		return theoryResult{verdict: v}
	}

	vals, ok := t.backSubstitute(order)
	if !ok {
		return unknown("no integer point in the relaxed region")
	}

	for m := range nonlinear {
		delete(vals, m)
	}

	for i := len(substs) - 1; i >= 0; i-- {
		vals[substs[i].v] = substs[i].e.eval(vals)
	}

	for _, a := range atoms {
		for _, col := range a.p.columns() {
			if _, ok := vals[col]; !ok {
				vals[col] = new(big.Rat)
			}
		}
	}

	for _, a := range atoms {
		if !a.holds(vals) {
			return unknown("candidate model does not satisfy " + a.key())
		}
	}

	for col, v := range vals {
		if t.isInt(col) && !v.IsInt() {
			return unknown("candidate model assigns a fraction to an integer")
		}
	}

	return theoryResult{verdict: verdictSat, model: vals}
}

// eliminateEqualities solves equalities for a variable occurring linearly and
// substitutes it away. ok is false when a constant constraint fails.
func (t *theory) eliminateEqualities(cons []atom) ([]atom, []substitution, bool) {
	var substs []substitution

	for {
		idx, v, coef := -1, "", (*big.Rat)(nil)

		for i, a := range cons {
			if a.rel != relEq {
				continue
			}

			if v, coef = t.pivot(a.p); v != "" {
				idx = i
				break
			}
		}

		if idx < 0 {
			break
		}

		rest := cons[idx].p.clone()
		delete(rest, v)

		e := rest.scale(new(big.Rat).Neg(new(big.Rat).Inv(coef)))
		substs = append(substs, substitution{v: v, e: e})

		next := make([]atom, 0, len(cons)-1)

		for i, a := range cons {
			if i == idx {
				continue
			}

			p := a.p.subst(v, e)
			if p.isConst() {
				if !constHolds(p.constant(), a.rel) {
					return nil, nil, false
				}

				continue
			}

			next = append(next, atom{p: p, rel: a.rel})
		}

		cons = next
	}

	for _, a := range cons {
		if a.p.isConst() && !constHolds(a.p.constant(), a.rel) {
			return nil, nil, false
		}
	}

	return cons, substs, true
}

func (p poly) clone() poly {
	out := make(poly, len(p))
	for m, c := range p {
		out[m] = new(big.Rat).Set(c)
	}

	return out
}

// pivot picks a column of p that can be solved for. Integer columns qualify
// only when the solution stays integral.
func (t *theory) pivot(p poly) (string, *big.Rat) {
	for _, col := range p.columns() {
		coef, ok := p.linearIn(col)
		if !ok {
			continue
		}

		if t.isInt(col) && !t.integralSolution(p, col, coef) {
			continue
		}

		return col, coef
	}

	return "", nil
}

func (t *theory) integralSolution(p poly, col string, coef *big.Rat) bool {
	if coef.Cmp(ratInt(1)) != 0 && coef.Cmp(ratInt(-1)) != 0 {
		return false
	}

	for m, c := range p {
		if !c.IsInt() {
			return false
		}

		if m != "" && m != col && !t.isInt(m) {
			return false
		}
	}

	return true
}

// tighten rewrites an all-integer linear atom with integer coefficients
// divided by their gcd and rounds the constant. ok is false when an equality
// has no integer solution.
func (t *theory) tighten(a atom) (atom, bool) {
	for m := range a.p {
		if m != "" && !t.isInt(m) {
			return a, true
		}
	}

	lcm := big.NewInt(1)
	for _, c := range a.p {
		d := c.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}

	p := a.p.scale(new(big.Rat).SetInt(lcm))
	r := a.rel

	if r == relLt {
		p = p.add(constPoly(ratInt(1)))
		r = relLe
	}

	g := new(big.Int)
	for m, c := range p {
		if m == "" {
			continue
		}

		g.GCD(nil, nil, g, new(big.Int).Abs(c.Num()))
	}

	if g.Sign() == 0 || g.Cmp(big.NewInt(1)) == 0 {
		return atom{p: p, rel: r}, true
	}

	c := p.constant().Num()
	out := poly{}

	for m, coef := range p {
		if m == "" {
			continue
		}

		out[m] = new(big.Rat).SetInt(new(big.Int).Quo(coef.Num(), g))
	}

	if r == relEq {
		if new(big.Int).Rem(c, g).Sign() != 0 {
			return a, false
		}

		out.addTerm("", new(big.Rat).SetInt(new(big.Int).Quo(c, g)))

		return atom{p: out, rel: r}, true
	}

	out.addTerm("", new(big.Rat).SetInt(ceilDiv(c, g)))

	return atom{p: out, rel: r}, true
}

func ceilDiv(a, b *big.Int) *big.Int {
	q, m := new(big.Int).DivMod(a, b, new(big.Int))
	if m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}

	return q
}

// linearizationFacts adds valid linear consequences about the nonlinear
// monomials: even powers and products of nonnegative columns are
// nonnegative, and (x-a)(y-b) >= 0 whenever x >= a and y >= b.
func linearizationFacts(cons []atom, nonlinear map[string]bool) []atom {
	lower := lowerBounds(cons)

	ms := make([]string, 0, len(nonlinear))
	for m := range nonlinear {
		ms = append(ms, m)
	}

	sort.Strings(ms)

	var out []atom

	for _, m := range ms {
		fs := factors(m)

		if evenPowers(fs) || allNonnegative(fs, lower) {
			out = append(out, atom{p: varPoly(m).neg(), rel: relLe})
		}

		if len(fs) != 2 {
			continue
		}

		a, okA := lower[fs[0]]
		b, okB := lower[fs[1]]

		if !okA || !okB {
			continue
		}

		// m - b*x - a*y + a*b >= 0
		p := varPoly(m).
			sub(varPoly(fs[0]).scale(b)).
			sub(varPoly(fs[1]).scale(a)).
			add(constPoly(new(big.Rat).Mul(a, b)))
		out = append(out, atom{p: p.neg(), rel: relLe})
	}

	return out
}

func evenPowers(fs []string) bool {
	count := map[string]int{}
	for _, f := range fs {
		count[f]++
	}

	for _, n := range count {
		if n%2 != 0 {
			return false
		}
	}

	return true
}

func allNonnegative(fs []string, lower map[string]*big.Rat) bool {
	for _, f := range fs {
		lb, ok := lower[f]
		if !ok || lb.Sign() < 0 {
			return false
		}
	}

	return true
}

// lowerBounds collects x >= c facts from single-column linear atoms.
func lowerBounds(cons []atom) map[string]*big.Rat {
	out := map[string]*big.Rat{}

	for _, a := range cons {
		cols := a.p.columns()
		if len(cols) != 1 || a.p.degree() != 1 {
			continue
		}

		x := cols[0]
		coef := a.p[x]

		if coef.Sign() > 0 && a.rel != relEq {
			continue
		}

		// coef*x + c rel 0 with coef < 0 gives x >= -c/coef
		bound := new(big.Rat).Quo(new(big.Rat).Neg(a.p.constant()), coef)
		if cur, ok := out[x]; !ok || bound.Cmp(cur) > 0 {
			out[x] = bound
		}
	}

	return out
}

func normalizeRow(r row) row {
	ms := make([]string, 0, len(r.p))
	for m := range r.p {
		if m != "" {
			ms = append(ms, m)
		}
	}

	if len(ms) == 0 {
		return r
	}

	sort.Strings(ms)

	k := new(big.Rat).Abs(r.p[ms[0]])

	return row{p: r.p.scale(new(big.Rat).Inv(k)), strict: r.strict}
}

// fourierMotzkin eliminates every column and returns the elimination order
// with the rows that mentioned each column, for model reconstruction.
func (t *theory) fourierMotzkin(rows []row) ([]elimination, verdict) {
	var order []elimination

	for {
		seen := map[string]bool{}
		live := rows[:0:0]

		for _, r := range rows {
			if r.p.isConst() {
				c := r.p.constant()
				if c.Sign() > 0 || (r.strict && c.Sign() == 0) {
					return nil, verdictUnsat
				}

				continue
			}

			r = normalizeRow(r)

			k := r.p.key()
			if r.strict {
				k += "<"
			}

			if seen[k] {
				continue
			}

			seen[k] = true
			live = append(live, r)
		}

		rows = live

		if len(rows) == 0 {
			return order, verdictSat
		}

		if t.maxConstraints > 0 && len(rows) > t.maxConstraints {
			return nil, verdictUnknown
		}

		col := pickColumn(rows)

		var pos, neg, rest []row

		for _, r := range rows {
			switch c, ok := r.p[col]; {
			case !ok:
				rest = append(rest, r)
			case c.Sign() > 0:
				pos = append(pos, r)
			default:
				neg = append(neg, r)
			}
		}

		mentioned := append(append([]row{}, pos...), neg...)
		order = append(order, elimination{col: col, rows: mentioned})

		for _, p := range pos {
			for _, n := range neg {
				a := new(big.Rat).Inv(p.p[col])
				b := new(big.Rat).Inv(new(big.Rat).Neg(n.p[col]))
				combined := p.p.scale(a).add(n.p.scale(b))
				delete(combined, col)
				rest = append(rest, row{p: combined, strict: p.strict || n.strict})
			}
		}

		rows = rest
	}
}

// pickColumn chooses the column whose elimination creates the fewest rows.
func pickColumn(rows []row) string {
	pos := map[string]int{}
	neg := map[string]int{}

	for _, r := range rows {
		for m, c := range r.p {
			if m == "" {
				continue
			}

			if c.Sign() > 0 {
				pos[m]++
			} else {
				neg[m]++
			}
		}
	}

	cols := make([]string, 0, len(pos)+len(neg))
	for m := range pos {
		cols = append(cols, m)
	}

	for m := range neg {
		if _, ok := pos[m]; !ok {
			cols = append(cols, m)
		}
	}

	sort.Strings(cols)

	best, bestScore := "", 0
	for _, m := range cols {
		score := pos[m]*neg[m] - pos[m] - neg[m]
		if best == "" || score < bestScore {
			best, bestScore = m, score
		}
	}

	return best
}

func (t *theory) backSubstitute(order []elimination) (map[string]*big.Rat, bool) {
	vals := map[string]*big.Rat{}

	for i := len(order) - 1; i >= 0; i-- {
		e := order[i]

		var lo, hi *big.Rat

		var loStrict, hiStrict bool

		for _, r := range e.rows {
			a := r.p[e.col]

			others := r.p.clone()
			delete(others, e.col)

			bound := new(big.Rat).Quo(new(big.Rat).Neg(others.evalColumns(vals)), a)

			if a.Sign() > 0 {
				if hi == nil || bound.Cmp(hi) < 0 || (bound.Cmp(hi) == 0 && r.strict) {
					hi, hiStrict = bound, r.strict
				}
			} else {
				if lo == nil || bound.Cmp(lo) > 0 || (bound.Cmp(lo) == 0 && r.strict) {
					lo, loStrict = bound, r.strict
				}
			}
		}

		x, ok := pickValue(lo, loStrict, hi, hiStrict, t.isInt(e.col))
		if !ok {
			return nil, false
		}

		vals[e.col] = x
	}

	return vals, true
}

func pickValue(lo *big.Rat, loStrict bool, hi *big.Rat, hiStrict bool, integer bool) (*big.Rat, bool) {
	feasible := func(x *big.Rat) bool {
		if lo != nil {
			if c := x.Cmp(lo); c < 0 || (c == 0 && loStrict) {
				return false
			}
		}

		if hi != nil {
			if c := x.Cmp(hi); c > 0 || (c == 0 && hiStrict) {
				return false
			}
		}

		return true
	}

	var candidates []*big.Rat

	candidates = append(candidates, new(big.Rat))

	if integer {
		if lo != nil {
			c := ceilRat(lo)
			if loStrict && c.Cmp(lo) == 0 {
				c.Add(c, ratInt(1))
			}

			candidates = append(candidates, c)
		}

		if hi != nil {
			c := floorRat(hi)
			if hiStrict && c.Cmp(hi) == 0 {
				c.Sub(c, ratInt(1))
			}

			candidates = append(candidates, c)
		}
	} else {
		if lo != nil {
			candidates = append(candidates, lo, new(big.Rat).Add(lo, ratInt(1)))
		}

		if hi != nil {
			candidates = append(candidates, hi, new(big.Rat).Sub(hi, ratInt(1)))
		}

		if lo != nil && hi != nil {
			mid := new(big.Rat).Add(lo, hi)
			candidates = append(candidates, mid.Quo(mid, ratInt(2)))
		}
	}

	for _, c := range candidates {
		if feasible(c) {
			return c, true
		}
	}

	return nil, false
}

func floorRat(x *big.Rat) *big.Rat {
	q := new(big.Int).Div(x.Num(), x.Denom())
	return new(big.Rat).SetInt(q)
}

func ceilRat(x *big.Rat) *big.Rat {
	return new(big.Rat).SetInt(ceilDiv(x.Num(), x.Denom()))
}
