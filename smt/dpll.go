package smt

import (
	"context"
	"math/big"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// cnode mirrors a formula with the circuit literal standing for it.
type cnode struct {
	lit  z.Lit
	and  bool
	kids []*cnode
	atom *atom
}

type circuit struct {
	c     *logic.C
	props map[int]z.Lit
	atoms map[string]*cnode
}

func newCircuit() *circuit {
	return &circuit{
		c:     logic.NewC(),
		props: map[int]z.Lit{},
		atoms: map[string]*cnode{},
	}
}

func (b *circuit) build(f formula) *cnode {
	switch n := f.(type) {
	case fConst:
		if n {
			return &cnode{lit: b.c.T}
		}

		return &cnode{lit: b.c.F}
	case fProp:
		m, ok := b.props[n.id]
		if !ok {
			m = b.c.Lit()
			b.props[n.id] = m
		}

		if !n.pos {
			m = m.Not()
		}

		return &cnode{lit: m}
	case fAtom:
		k := n.a.key()
		if node, ok := b.atoms[k]; ok {
			return node
		}

		a := n.a
		node := &cnode{lit: b.c.Lit(), atom: &a}
		b.atoms[k] = node

		return node
	case fAnd:
		node := &cnode{and: true}
		lits := make([]z.Lit, len(n))

		for i, k := range n {
			kid := b.build(k)
			node.kids = append(node.kids, kid)
			lits[i] = kid.lit
		}

		node.lit = b.c.Ands(lits...)

		return node
	case fOr:
		node := &cnode{}
		lits := make([]z.Lit, len(n))

		for i, k := range n {
			kid := b.build(k)
			node.kids = append(node.kids, kid)
			lits[i] = kid.lit
		}

		node.lit = b.c.Ors(lits...)

		return node
	}

	return &cnode{lit: b.c.F}
}

// implicant collects theory atoms that suffice to make node true under the
// current assignment: every child of a conjunction, the first true child of
// a disjunction.
func implicant(g *gini.Gini, node *cnode, out map[*cnode]bool) {
	if node.atom != nil {
		out[node] = true
		return
	}

	if node.and {
		for _, k := range node.kids {
			implicant(g, k, out)
		}

		return
	}

	for _, k := range node.kids {
		if g.Value(k.lit) {
			implicant(g, k, out)
			return
		}
	}
}

type search struct {
	theory        *theory
	maxIterations int
	minimizeLimit int
}

type searchResult struct {
	verdict    verdict
	model      map[string]*big.Rat
	props      map[int]bool
	iterations int
	reason     string
}

// run decides f by lazy clause generation: gini proposes a boolean model,
// the theory checks the arithmetic atoms it relies on, and conflicts come
// back as blocking clauses.
func (s *search) run(ctx context.Context, f formula, deadline time.Time) searchResult {
	if c, ok := f.(fConst); ok {
		if c {
			return searchResult{verdict: verdictSat, model: map[string]*big.Rat{}, props: map[int]bool{}}
		}

		return searchResult{verdict: verdictUnsat}
	}

	b := newCircuit()
	root := b.build(f)

	g := gini.New()
	b.c.ToCnf(g)

	incomplete := ""

	for iter := 1; ; iter++ {
		if err := ctx.Err(); err != nil {
			return searchResult{verdict: verdictUnknown, iterations: iter - 1, reason: err.Error()}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return searchResult{verdict: verdictUnknown, iterations: iter - 1, reason: "timeout"}
		}

		if s.maxIterations > 0 && iter > s.maxIterations {
			return searchResult{verdict: verdictUnknown, iterations: iter - 1, reason: "iteration limit reached"}
		}

		g.Assume(root.lit)

		switch g.GoSolve().Try(remaining) {
		case -1:
			if incomplete != "" {
				return searchResult{verdict: verdictUnknown, iterations: iter, reason: incomplete}
			}

			return searchResult{verdict: verdictUnsat, iterations: iter}
		case 0:
			return searchResult{verdict: verdictUnknown, iterations: iter, reason: "timeout"}
		}

		chosen := map[*cnode]bool{}
		implicant(g, root, chosen)

		nodes := make([]*cnode, 0, len(chosen))
		atoms := make([]atom, 0, len(chosen))

		for node := range chosen {
			nodes = append(nodes, node)
			atoms = append(atoms, *node.atom)
		}

		res := s.theory.check(atoms)

		switch res.verdict {
		case verdictSat:
			props := make(map[int]bool, len(b.props))
			for id, m := range b.props {
				props[id] = g.Value(m)
			}

			return searchResult{verdict: verdictSat, model: res.model, props: props, iterations: iter}
		case verdictUnknown:
			incomplete = res.reason
		case verdictUnsat:
			nodes = s.minimize(nodes)
		}

		for _, node := range nodes {
			g.Add(node.lit.Not())
		}

		g.Add(z.LitNull)
	}
}

// minimize drops atoms from an inconsistent set while it stays inconsistent,
// so that the blocking clause prunes more of the search space.
func (s *search) minimize(nodes []*cnode) []*cnode {
	if len(nodes) > s.minimizeLimit {
		return nodes
	}

	core := append([]*cnode{}, nodes...)

	for i := 0; i < len(core); {
		trial := make([]atom, 0, len(core)-1)
		for j, node := range core {
			if j != i {
				trial = append(trial, *node.atom)
			}
		}

		if s.theory.check(trial).verdict == verdictUnsat {
			core = append(core[:i], core[i+1:]...)
			continue
		}

		i++
	}

	return core
}
