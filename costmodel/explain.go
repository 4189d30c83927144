package costmodel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shibukawa/symcost/smt"
	"github.com/shibukawa/symcost/syntax"
)

// CounterexampleSolver can exhibit a model falsifying a formula.
type CounterexampleSolver interface {
	Counterexample(ctx context.Context, f syntax.Exp, opts ...smt.Option) (smt.Model, bool, error)
}

// Verdict is the answer to one "always" question in a report.
type Verdict string

const (
	VerdictYes     Verdict = "yes"
	VerdictNo      Verdict = "no"
	VerdictUnknown Verdict = "unknown"
)

// Check is one "is a always op b?" question with its answer.
type Check struct {
	Op      syntax.Op
	Verdict Verdict
	// Model falsifies the question when Verdict is VerdictNo.
	Model *smt.Model
	// Relaxed marks a Model found only with cardinalities taken as reals
	// and holding non-integer values. It need not have an integer witness.
	Relaxed bool
	// A and B are both formulas evaluated under Model.
	A syntax.Exp
	B syntax.Exp
}

// Report explains how two costs compare.
type Report struct {
	A, B          *Cost
	AtoB, BtoA    Ordering
	Cardinalities []Cardinality
	Orderings     syntax.Exp
	Checks        []Check
}

var explainOps = []syntax.Op{syntax.OpLe, syntax.OpLt, syntax.OpGt, syntax.OpGe}

// Explain compares a and b both ways and, for each of <= < > >=, either
// confirms that a always stands in that relation to b or shows a model
// where it does not.
func (c *Comparator) Explain(ctx context.Context, a, b *Cost) (*Report, error) {
	ce, ok := c.solver.(CounterexampleSolver)
	if !ok {
		return nil, ErrNoCounterexamples
	}

	atob, err := c.Compare(ctx, a, b, syntax.True)
	if err != nil {
		return nil, err
	}

	btoa, err := c.Compare(ctx, b, a, syntax.True)
	if err != nil {
		return nil, err
	}

	cards, err := c.OrderCardinalities(ctx, a, b, syntax.True)
	if err != nil {
		return nil, err
	}

	r := &Report{
		A:             a,
		B:             b,
		AtoB:          atob,
		BtoA:          btoa,
		Cardinalities: mergeCardinalities(a, b),
		Orderings:     cards,
	}

	for _, op := range explainOps {
		check, err := c.explainOp(ctx, ce, op, a, b, cards)
		if err != nil {
			return nil, err
		}

		r.Checks = append(r.Checks, check)
	}

	return r, nil
}

func (c *Comparator) explainOp(ctx context.Context, ce CounterexampleSolver, op syntax.Op, a, b *Cost, cards syntax.Exp) (Check, error) {
	check := Check{Op: op, Verdict: VerdictUnknown}
	f := implication(op, a, b, cards)

	attempts := []struct {
		f       syntax.Exp
		logic   smt.Logic
		timeout smt.Option
	}{
		{f, smt.LIA, smt.WithTimeout(c.timeout)},
		{relax(f, cards), smt.NRA, smt.WithTimeout(c.relaxedTimeout)},
	}

	for i, at := range attempts {
		m, found, err := ce.Counterexample(ctx, at.f, smt.WithLogic(at.logic), at.timeout)

		switch {
		case err == nil && !found:
			check.Verdict = VerdictYes
			return check, nil
		case err == nil:
			check.Verdict = VerdictNo
			check.Model = &m
			check.Relaxed = i > 0 && !integral(m)
			check.A = evalUnder(a.formula, m)
			check.B = evalUnder(b.formula, m)

			return check, nil
		case ctx.Err() != nil:
			return check, ctx.Err()
		case !errors.Is(err, smt.ErrUnknown):
			c.logger.Warn("not able to solve", slog.String("formula", f.String()), slog.String("error", err.Error()))
		}
	}

	return check, nil
}

func integral(m smt.Model) bool {
	for _, v := range m.Numbers {
		if !v.IsInt() {
			return false
		}
	}

	return true
}

// evalUnder substitutes the integer values of m into e and folds constants.
func evalUnder(e syntax.Exp, m smt.Model) syntax.Exp {
	sub := map[string]syntax.Exp{}

	for name, v := range m.Numbers {
		if v.IsInt() && v.Num().IsInt64() {
			sub[name] = syntax.NumInt(v.Num().Int64())
		}
	}

	return syntax.FoldConstants(syntax.Subst(e, sub))
}

// WriteTo prints the report in a human-readable layout.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "comparing costs...\n")
	fmt.Fprintf(&sb, "  e1 = %s\n", exprString(r.A))
	fmt.Fprintf(&sb, "  c1 = %s\n", r.A)
	fmt.Fprintf(&sb, "  e2 = %s\n", exprString(r.B))
	fmt.Fprintf(&sb, "  c2 = %s\n", r.B)
	fmt.Fprintf(&sb, "  c1 compared to c2 = %s\n", r.AtoB)
	fmt.Fprintf(&sb, "  c2 compared to c1 = %s\n", r.BtoA)
	fmt.Fprintf(&sb, "secondaries...\n")
	fmt.Fprintf(&sb, "  s1 = %s\n", r.A.Secondary())
	fmt.Fprintf(&sb, "  s2 = %s\n", r.B.Secondary())
	fmt.Fprintf(&sb, "variable meanings...\n")

	for _, card := range r.Cardinalities {
		fmt.Fprintf(&sb, "  %s = len %s\n", card.Var.Name, card.Of)
	}

	fmt.Fprintf(&sb, "explicit assumptions...\n")
	fmt.Fprintf(&sb, "  %s\n", r.A.Assumptions())
	fmt.Fprintf(&sb, "  %s\n", r.B.Assumptions())
	fmt.Fprintf(&sb, "joint orderings...\n")
	fmt.Fprintf(&sb, "  %s\n", r.Orderings)

	for _, ch := range r.Checks {
		fmt.Fprintf(&sb, "c1 always %s c2?\n", ch.Op)

		switch ch.Verdict {
		case VerdictYes:
			fmt.Fprintf(&sb, "  YES\n")
		case VerdictNo:
			if ch.Relaxed {
				fmt.Fprintf(&sb, "  NO over the reals: %s\n", ch.Model)
			} else {
				fmt.Fprintf(&sb, "  NO: %s\n", ch.Model)
			}

			fmt.Fprintf(&sb, "  c1 = %s\n", ch.A)
			fmt.Fprintf(&sb, "  c2 = %s\n", ch.B)
		default:
			fmt.Fprintf(&sb, "  UNKNOWN\n")
		}
	}

	n, err := io.WriteString(w, sb.String())

	return int64(n), err
}

func exprString(c *Cost) string {
	if c.Expr() == nil {
		return "-"
	}

	return c.Expr().String()
}
