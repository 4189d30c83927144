package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"

	"github.com/shibukawa/symcost/costmodel"
)

// RankCmd represents the rank command
type RankCmd struct {
	Workload string `arg:"" help:"Workload file" type:"path"`
	Format   string `short:"f" help:"Output format (text, yaml)" default:"text" enum:"text,yaml"`
}

type rankedCandidate struct {
	Name      string `yaml:"name"`
	Pool      string `yaml:"pool"`
	Formula   string `yaml:"formula"`
	Secondary string `yaml:"secondary"`
	Score     int    `yaml:"score"`
	Frontier  bool   `yaml:"frontier"`
}

type rankOutput struct {
	Frontier   []string          `yaml:"frontier"`
	Candidates []rankedCandidate `yaml:"candidates"`
}

// Run executes the rank command
func (cmd *RankCmd) Run(ctx *Context) error {
	s, err := openSession(ctx, cmd.Workload)
	if err != nil {
		return err
	}
	defer s.close()

	ranking, err := s.engine.RankWorkload(context.Background(), s.workload)
	if err != nil {
		return fmt.Errorf("ranking failed: %w", err)
	}

	switch cmd.Format {
	case "text":
		printRanking(ctx.out(), ranking)
		return nil
	case "yaml":
		data, err := yaml.Marshal(toRankOutput(ranking))
		if err != nil {
			return fmt.Errorf("failed to encode ranking: %w", err)
		}

		_, err = ctx.out().Write(data)

		return err
	}

	return fmt.Errorf("%w: %s", ErrUnknownFormat, cmd.Format)
}

func toRankOutput(r *costmodel.Ranking) rankOutput {
	onFrontier := make(map[int]bool, len(r.Frontier))
	for _, i := range r.Frontier {
		onFrontier[i] = true
	}

	var out rankOutput

	for _, i := range r.Frontier {
		out.Frontier = append(out.Frontier, r.Candidates[i].Name)
	}

	for _, i := range r.Order() {
		c := r.Candidates[i]
		out.Candidates = append(out.Candidates, rankedCandidate{
			Name:      c.Name,
			Pool:      c.Cost.Pool().String(),
			Formula:   c.Cost.Formula().String(),
			Secondary: c.Cost.Secondary().String(),
			Score:     r.Score(i),
			Frontier:  onFrontier[i],
		})
	}

	return out
}

var orderingSymbols = map[costmodel.Ordering]string{
	costmodel.Better:    "<",
	costmodel.Worse:     ">",
	costmodel.Unordered: "?",
}

func printRanking(w io.Writer, r *costmodel.Ranking) {
	width := 0
	for _, c := range r.Candidates {
		width = max(width, len(c.Name))
	}

	// every column is as wide as the largest index
	cell := len(strconv.Itoa(max(len(r.Candidates)-1, 0)))

	onFrontier := make(map[int]bool, len(r.Frontier))
	for _, i := range r.Frontier {
		onFrontier[i] = true
	}

	fmt.Fprintf(w, "%-*s", width+2, "")

	for j := range r.Candidates {
		fmt.Fprintf(w, " %*d", cell, j)
	}

	fmt.Fprintln(w)

	for i, c := range r.Candidates {
		marker := " "
		if onFrontier[i] {
			marker = "*"
		}

		cells := make([]string, len(r.Candidates))

		for j := range r.Candidates {
			symbol := orderingSymbols[r.Matrix[i][j]]
			if i == j {
				symbol = "="
			}

			cells[j] = fmt.Sprintf("%*s", cell, symbol)
		}

		line := fmt.Sprintf("%s %-*s %s", marker, width, c.Name, strings.Join(cells, " "))
		if onFrontier[i] {
			color.New(color.FgGreen).Fprintln(w, line)
		} else {
			fmt.Fprintln(w, line)
		}
	}
}
