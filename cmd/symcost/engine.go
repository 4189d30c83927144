package main

import (
	"fmt"
	"io"
	"os"

	"github.com/shibukawa/symcost"
)

// session bundles what every command needs: the engine, the loaded
// workload and a closer for the log file.
type session struct {
	engine   *symcost.Engine
	workload *symcost.Workload
	close    func() error
}

// openSession loads the configuration and workload and builds an engine.
func openSession(ctx *Context, workloadPath string) (*session, error) {
	config, err := symcost.LoadConfig(ctx.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if ctx.Verbose {
		config.Log.Level = "debug"
	} else if ctx.Quiet {
		config.Log.Level = "error"
	}

	var (
		logOut io.Writer = os.Stderr
		closer           = func() error { return nil }
	)

	if config.Log.Output != "" {
		f, err := os.OpenFile(config.Log.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoLogDestination, err)
		}

		logOut = f
		closer = f.Close
	}

	w, err := symcost.LoadWorkload(workloadPath)
	if err != nil {
		_ = closer()
		return nil, fmt.Errorf("failed to load workload: %w", err)
	}

	engine := symcost.NewEngine(config, symcost.WithLogger(symcost.NewLogger(config.Log, logOut)))

	return &session{engine: engine, workload: w, close: closer}, nil
}
