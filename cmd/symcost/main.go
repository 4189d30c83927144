package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool

	// Out receives command output. Nil means stdout.
	Out io.Writer
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}

	return c.Out
}

// CLI represents the command-line interface
var CLI struct {
	Config  string     `help:"Configuration file path" default:"symcost.yaml"`
	Verbose bool       `help:"Enable verbose output" short:"v"`
	Quiet   bool       `help:"Suppress output" short:"q"`
	Init    InitCmd    `cmd:"" help:"Write a sample configuration and workload"`
	Cost    CostCmd    `cmd:"" help:"Show the cost of workload candidates"`
	Compare CompareCmd `cmd:"" help:"Compare two workload candidates"`
	Rank    RankCmd    `cmd:"" help:"Rank every workload candidate"`
	Explain ExplainCmd `cmd:"" help:"Explain how two candidates compare"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(ctx *Context) error {
	fmt.Fprintln(ctx.out(), "symcost v0.1.0")
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("symcost"),
		kong.Description("Symbolic cost comparison for query plans"),
	)

	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
