package costmodel

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/symcost/syntax"
)

func TestRank(t *testing.T) {
	m := NewModel()
	cmp := NewComparator(newTestSolver(), nil)

	candidates := []Candidate{
		{Name: "scan", Cost: mustCost(t, m, scanSrc, RuntimePool)},
		{Name: "lookup", Cost: mustCost(t, m, lookupSrc, RuntimePool)},
		{Name: "compare all", Cost: mustCost(t, m, "(== xs ys)", RuntimePool)},
	}

	ranking, err := NewRanker(cmp, 2).Rank(context.Background(), candidates, syntax.True)
	assert.NoError(t, err)

	assert.Equal(t, Worse, ranking.Matrix[0][1])
	assert.Equal(t, Better, ranking.Matrix[1][0])
	assert.Equal(t, Unordered, ranking.Matrix[1][1])

	for i := range candidates {
		for j := range candidates {
			assert.Equal(t, ranking.Matrix[i][j], ranking.Matrix[j][i].Flip())
		}
	}

	assert.Equal(t, []int{1}, ranking.Frontier)
	assert.Equal(t, 1, ranking.Order()[0])
	assert.Equal(t, 2, ranking.Score(1))
}

func TestRankSingleCandidate(t *testing.T) {
	cmp := NewComparator(unknownSolver(), nil)

	ranking, err := NewRanker(cmp, 0).Rank(context.Background(), []Candidate{{Name: "zero", Cost: Zero}}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []int{0}, ranking.Frontier)
	assert.Equal(t, [][]Ordering{{Unordered}}, ranking.Matrix)
}

func TestRankCanceled(t *testing.T) {
	m := NewModel()
	cmp := NewComparator(newTestSolver(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRanker(cmp, 1).Rank(ctx, []Candidate{
		{Name: "scan", Cost: mustCost(t, m, scanSrc, RuntimePool)},
		{Name: "length", Cost: mustCost(t, m, "(len xs)", RuntimePool)},
	}, syntax.True)
	assert.IsError(t, err, context.Canceled)
}
