package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
)

const sampleConfig = `# symcost configuration
cost:
  assume_large_cardinalities: true
  large_cardinality_threshold: 1000
  simple_cost_model: false
solver:
  timeout: 1s
  relaxed_timeout: 5s
oracle:
  cache_capacity: 65536
  incremental: false
  use_indicators: false
ranking:
  parallelism: 0
log:
  level: info
  format: text
`

const sampleWorkload = `# Candidate plans answering "is x in xs?"
variables:
  xs: Bag<Int>
  x: Int
assumptions: []
candidates:
  - name: scan
    expr: "(exists (filter xs (lambda y (== y x))))"
  - name: lookup
    expr: "(get (state (makemap xs (lambda k true))) x)"
  - name: index
    pool: state
    expr: "(makemap xs (lambda k true))"
`

// InitCmd represents the init command
type InitCmd struct {
	Dir   string `arg:"" optional:"" help:"Target directory" default:"." type:"path"`
	Force bool   `help:"Overwrite existing files"`
}

// Run executes the init command
func (cmd *InitCmd) Run(ctx *Context) error {
	if err := os.MkdirAll(cmd.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	files := []struct {
		name    string
		content string
	}{
		{name: "symcost.yaml", content: sampleConfig},
		{name: "workload.yaml", content: sampleWorkload},
	}

	for _, f := range files {
		path := filepath.Join(cmd.Dir, f.name)

		if !cmd.Force {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%w: %s", ErrFileExists, path)
			}
		}

		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		if !ctx.Quiet {
			color.New(color.FgGreen).Fprintf(ctx.out(), "Created: %s\n", path)
		}
	}

	return nil
}
