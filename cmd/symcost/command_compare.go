package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/shibukawa/symcost/costmodel"
)

// CompareCmd represents the compare command
type CompareCmd struct {
	Workload string `arg:"" help:"Workload file" type:"path"`
	A        string `arg:"" help:"First candidate"`
	B        string `arg:"" help:"Second candidate"`
}

// Run executes the compare command
func (cmd *CompareCmd) Run(ctx *Context) error {
	if cmd.A == cmd.B {
		return fmt.Errorf("%w: %s", ErrSameCandidate, cmd.A)
	}

	s, err := openSession(ctx, cmd.Workload)
	if err != nil {
		return err
	}
	defer s.close()

	costs, err := s.engine.Costs(s.workload)
	if err != nil {
		return fmt.Errorf("failed to compute costs: %w", err)
	}

	pair, err := pick(costs, cmd.A, cmd.B)
	if err != nil {
		return err
	}

	o, err := s.engine.Compare(context.Background(), pair[0].Cost, pair[1].Cost, s.workload.Assumptions)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	out := ctx.out()

	if ctx.Verbose {
		printCost(out, pair[0])
		printCost(out, pair[1])
	}

	switch o {
	case costmodel.Better:
		color.New(color.FgGreen).Fprintf(out, "%s is better than %s\n", cmd.A, cmd.B)
	case costmodel.Worse:
		color.New(color.FgRed).Fprintf(out, "%s is worse than %s\n", cmd.A, cmd.B)
	default:
		color.New(color.FgYellow).Fprintf(out, "%s and %s are unordered\n", cmd.A, cmd.B)
	}

	return nil
}
