package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/fatih/color"

	"github.com/shibukawa/symcost"
	"github.com/shibukawa/symcost/costmodel"
)

func setupProject(t *testing.T) (*Context, string, *bytes.Buffer) {
	t.Helper()

	color.NoColor = true

	dir := t.TempDir()

	var buf bytes.Buffer

	ctx := &Context{Config: filepath.Join(dir, "symcost.yaml"), Quiet: true, Out: &buf}

	err := (&InitCmd{Dir: dir}).Run(ctx)
	assert.NoError(t, err)

	return ctx, filepath.Join(dir, "workload.yaml"), &buf
}

func TestInitCmd(t *testing.T) {
	ctx, _, _ := setupProject(t)
	dir := filepath.Dir(ctx.Config)

	t.Run("RefusesToOverwrite", func(t *testing.T) {
		err := (&InitCmd{Dir: dir}).Run(ctx)
		assert.IsError(t, err, ErrFileExists)
	})

	t.Run("Force", func(t *testing.T) {
		err := (&InitCmd{Dir: dir, Force: true}).Run(ctx)
		assert.NoError(t, err)
	})

	t.Run("SampleConfigLoads", func(t *testing.T) {
		config, err := symcost.LoadConfig(ctx.Config)
		assert.NoError(t, err)
		assert.True(t, config.Cost.LargeCardinalities())
	})
}

func TestCostCmd(t *testing.T) {
	ctx, workload, buf := setupProject(t)

	t.Run("AllCandidates", func(t *testing.T) {
		buf.Reset()

		err := (&CostCmd{Workload: workload}).Run(ctx)
		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "scan [runtime]")
		assert.Contains(t, buf.String(), "lookup [runtime]")
		assert.Contains(t, buf.String(), "index [state]")
	})

	t.Run("Selected", func(t *testing.T) {
		buf.Reset()

		err := (&CostCmd{Workload: workload, Candidates: []string{"lookup"}}).Run(ctx)
		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "lookup [runtime]")
		assert.NotContains(t, buf.String(), "scan")
	})

	t.Run("UnknownCandidate", func(t *testing.T) {
		err := (&CostCmd{Workload: workload, Candidates: []string{"missing"}}).Run(ctx)
		assert.IsError(t, err, symcost.ErrCandidateNotFound)
	})

	t.Run("MissingWorkload", func(t *testing.T) {
		err := (&CostCmd{Workload: filepath.Join(t.TempDir(), "none.yaml")}).Run(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load workload")
	})
}

func TestCompareCmd(t *testing.T) {
	ctx, workload, buf := setupProject(t)

	tests := []struct {
		a, b string
		want string
	}{
		{a: "lookup", b: "scan", want: "lookup is better than scan"},
		{a: "scan", b: "lookup", want: "scan is worse than lookup"},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			buf.Reset()

			err := (&CompareCmd{Workload: workload, A: tt.a, B: tt.b}).Run(ctx)
			assert.NoError(t, err)
			assert.Contains(t, buf.String(), tt.want)
		})
	}

	t.Run("SameCandidate", func(t *testing.T) {
		err := (&CompareCmd{Workload: workload, A: "scan", B: "scan"}).Run(ctx)
		assert.IsError(t, err, ErrSameCandidate)
	})
}

func TestRankCmd(t *testing.T) {
	ctx, workload, buf := setupProject(t)

	t.Run("Text", func(t *testing.T) {
		buf.Reset()

		err := (&RankCmd{Workload: workload, Format: "text"}).Run(ctx)
		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "* index")
		assert.Contains(t, buf.String(), "  scan")
	})

	t.Run("YAML", func(t *testing.T) {
		buf.Reset()

		err := (&RankCmd{Workload: workload, Format: "yaml"}).Run(ctx)
		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "frontier:")
		assert.Contains(t, buf.String(), "name: lookup")
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		err := (&RankCmd{Workload: workload, Format: "xml"}).Run(ctx)
		assert.IsError(t, err, ErrUnknownFormat)
	})
}

func TestPrintRankingAlignsWideIndexes(t *testing.T) {
	color.NoColor = true

	const n = 12

	r := &costmodel.Ranking{Matrix: make([][]costmodel.Ordering, n)}
	for i := range n {
		r.Candidates = append(r.Candidates, costmodel.Candidate{Name: fmt.Sprintf("plan%d", i)})
		r.Matrix[i] = make([]costmodel.Ordering, n)
	}

	r.Matrix[10][11] = costmodel.Better
	r.Matrix[11][10] = costmodel.Worse
	r.Frontier = []int{10}

	var buf bytes.Buffer
	printRanking(&buf, r)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, n+1, len(lines))

	for _, line := range lines[1:] {
		assert.Equal(t, len(lines[0]), len(line), "%q", line)
	}

	header := lines[0]
	row := lines[11]
	assert.Equal(t, "10", header[strings.Index(row, "=")-1:strings.Index(row, "=")+1])
	assert.True(t, strings.HasPrefix(row, "* plan10"))
	assert.True(t, strings.HasSuffix(row, " =  <"))
}

func TestExplainCmd(t *testing.T) {
	ctx, workload, buf := setupProject(t)

	err := (&ExplainCmd{Workload: workload, A: "lookup", B: "scan"}).Run(ctx)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "c1 compared to c2 = better")
	assert.Contains(t, buf.String(), "secondaries...")
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer

	err := (&VersionCmd{}).Run(&Context{Out: &buf})
	assert.NoError(t, err)
	assert.Equal(t, "symcost v0.1.0\n", buf.String())
}
