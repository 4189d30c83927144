package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/shibukawa/symcost"
	"github.com/shibukawa/symcost/costmodel"
	"github.com/shibukawa/symcost/syntax"
)

// CostCmd represents the cost command
type CostCmd struct {
	Workload   string   `arg:"" help:"Workload file" type:"path"`
	Candidates []string `arg:"" optional:"" help:"Candidate names (default: all)"`
}

// Run executes the cost command
func (cmd *CostCmd) Run(ctx *Context) error {
	s, err := openSession(ctx, cmd.Workload)
	if err != nil {
		return err
	}
	defer s.close()

	costs, err := s.engine.Costs(s.workload)
	if err != nil {
		return fmt.Errorf("failed to compute costs: %w", err)
	}

	if len(cmd.Candidates) > 0 {
		costs, err = pick(costs, cmd.Candidates...)
		if err != nil {
			return err
		}
	}

	for _, c := range costs {
		printCost(ctx.out(), c)
	}

	return nil
}

// pick returns the named candidates in the order given.
func pick(costs []costmodel.Candidate, names ...string) ([]costmodel.Candidate, error) {
	out := make([]costmodel.Candidate, 0, len(names))

	for _, name := range names {
		found := false

		for _, c := range costs {
			if c.Name == name {
				out = append(out, c)
				found = true

				break
			}
		}

		if !found {
			return nil, fmt.Errorf("%w: %s", symcost.ErrCandidateNotFound, name)
		}
	}

	return out, nil
}

func printCost(w io.Writer, c costmodel.Candidate) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, "%s [%s]\n", c.Name, c.Cost.Pool())
	fmt.Fprintf(w, "  expr:      %s\n", c.Cost.Expr())
	fmt.Fprintf(w, "  formula:   %s\n", c.Cost.Formula())
	fmt.Fprintf(w, "  secondary: %s\n", c.Cost.Secondary())

	if !syntax.IsLiteral(c.Cost.Assumptions()) {
		fmt.Fprintf(w, "  assuming:  %s\n", c.Cost.Assumptions())
	}

	for _, card := range c.Cost.Cardinalities() {
		fmt.Fprintf(w, "  %s = len %s\n", card.Var.Name, card.Of)
	}
}
