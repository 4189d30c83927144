package main

import (
	"context"
	"fmt"
)

// ExplainCmd represents the explain command
type ExplainCmd struct {
	Workload string `arg:"" help:"Workload file" type:"path"`
	A        string `arg:"" help:"First candidate"`
	B        string `arg:"" help:"Second candidate"`
}

// Run executes the explain command
func (cmd *ExplainCmd) Run(ctx *Context) error {
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

	report, err := s.engine.Explain(context.Background(), pair[0].Cost, pair[1].Cost)
	if err != nil {
		return fmt.Errorf("explain failed: %w", err)
	}

	_, err = report.WriteTo(ctx.out())

	return err
}
