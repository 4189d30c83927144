package smt

import (
	"math/big"
	"sort"
	"strings"
)

// poly is a polynomial with rational coefficients. Keys are monomials: the
// sorted names of their factors joined by '*'. The empty key is the constant term.
type poly map[string]*big.Rat

func ratInt(n int64) *big.Rat { return new(big.Rat).SetInt64(n) }

func constPoly(c *big.Rat) poly {
	p := poly{}
	if c.Sign() != 0 {
		p[""] = new(big.Rat).Set(c)
	}

	return p
}

func varPoly(name string) poly {
	return poly{name: ratInt(1)}
}

func (p poly) addTerm(m string, c *big.Rat) {
	if c.Sign() == 0 {
		return
	}

	if cur, ok := p[m]; ok {
		sum := new(big.Rat).Add(cur, c)
		if sum.Sign() == 0 {
			delete(p, m)
		} else {
			p[m] = sum
		}

		return
	}

	p[m] = new(big.Rat).Set(c)
}

func (p poly) add(q poly) poly {
	out := make(poly, len(p)+len(q))
	for m, c := range p {
		out.addTerm(m, c)
	}

	for m, c := range q {
		out.addTerm(m, c)
	}

	return out
}

func (p poly) scale(k *big.Rat) poly {
	out := make(poly, len(p))
	if k.Sign() == 0 {
		return out
	}

	for m, c := range p {
		out[m] = new(big.Rat).Mul(c, k)
	}

	return out
}

func (p poly) neg() poly { return p.scale(ratInt(-1)) }

func (p poly) sub(q poly) poly { return p.add(q.neg()) }

func (p poly) mul(q poly) poly {
	out := poly{}
	for m1, c1 := range p {
		for m2, c2 := range q {
			out.addTerm(mulMono(m1, m2), new(big.Rat).Mul(c1, c2))
		}
	}

	return out
}

func factors(m string) []string {
	if m == "" {
		return nil
	}

	return strings.Split(m, "*")
}

func mulMono(a, b string) string {
	fs := append(factors(a), factors(b)...)
	sort.Strings(fs)

	return strings.Join(fs, "*")
}

func (p poly) constant() *big.Rat {
	if c, ok := p[""]; ok {
		return c
	}

	return new(big.Rat)
}

func (p poly) isConst() bool {
	for m := range p {
		if m != "" {
			return false
		}
	}

	return true
}

func (p poly) degree() int {
	d := 0
	for m := range p {
		if n := len(factors(m)); n > d {
			d = n
		}
	}

	return d
}

// columns returns the names occurring in p, sorted.
func (p poly) columns() []string {
	seen := map[string]bool{}
	for m := range p {
		for _, f := range factors(m) {
			seen[f] = true
		}
	}

	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}

	sort.Strings(out)

	return out
}

// linearIn returns the coefficient of v when v occurs in p only as the
// degree-one monomial v.
func (p poly) linearIn(v string) (*big.Rat, bool) {
	var coef *big.Rat

	for m, c := range p {
		if m == v {
			coef = c
			continue
		}

		for _, f := range factors(m) {
			if f == v {
				return nil, false
			}
		}
	}

	return coef, coef != nil
}

func (p poly) subst(v string, q poly) poly {
	out := poly{}

	for m, c := range p {
		k := 0
		var rest []string

		for _, f := range factors(m) {
			if f == v {
				k++
			} else {
				rest = append(rest, f)
			}
		}

		term := poly{strings.Join(rest, "*"): c}
		for range k {
			term = term.mul(q)
		}

		out = out.add(term)
	}

	return out
}

func (p poly) eval(vals map[string]*big.Rat) *big.Rat {
	sum := new(big.Rat)

	for m, c := range p {
		term := new(big.Rat).Set(c)
		for _, f := range factors(m) {
			if v, ok := vals[f]; ok {
				term.Mul(term, v)
			} else {
				term.SetInt64(0)
			}
		}

		sum.Add(sum, term)
	}

	return sum
}

// evalColumns evaluates p treating every monomial as an opaque column.
func (p poly) evalColumns(vals map[string]*big.Rat) *big.Rat {
	sum := new(big.Rat)

	for m, c := range p {
		if m == "" {
			sum.Add(sum, c)
			continue
		}

		if v, ok := vals[m]; ok {
			sum.Add(sum, new(big.Rat).Mul(c, v))
		}
	}

	return sum
}

func (p poly) key() string {
	ms := make([]string, 0, len(p))
	for m := range p {
		ms = append(ms, m)
	}

	sort.Strings(ms)

	var sb strings.Builder
	for _, m := range ms {
		sb.WriteString(p[m].RatString())
		sb.WriteString("·")
		sb.WriteString(m)
		sb.WriteString(" ")
	}

	return sb.String()
}
