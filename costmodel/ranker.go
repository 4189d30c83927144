package costmodel

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/shibukawa/symcost/syntax"
)

// Candidate is a named cost taking part in a ranking.
type Candidate struct {
	Name string
	Cost *Cost
}

// Ranking is the outcome of comparing every pair of candidates.
type Ranking struct {
	Candidates []Candidate
	// Matrix[i][j] is how candidate i compares to candidate j.
	Matrix [][]Ordering
	// Frontier lists, in input order, the indexes of candidates no other
	// candidate is better than.
	Frontier []int
}

// Score counts the candidates i beats minus those that beat it.
func (r *Ranking) Score(i int) int {
	score := 0

	for _, o := range r.Matrix[i] {
		switch o {
		case Better:
			score++
		case Worse:
			score--
		}
	}

	return score
}

// Order returns candidate indexes by descending score, stable on input order.
func (r *Ranking) Order() []int {
	idx := make([]int, len(r.Candidates))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return r.Score(idx[a]) > r.Score(idx[b])
	})

	return idx
}

// Ranker compares candidates pairwise in parallel.
type Ranker struct {
	comparator  *Comparator
	parallelism int
}

// NewRanker creates a ranker running at most parallelism comparisons at
// once. Non-positive parallelism means GOMAXPROCS.
func NewRanker(c *Comparator, parallelism int) *Ranker {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	return &Ranker{comparator: c, parallelism: parallelism}
}

// Rank compares every pair of candidates under assumptions.
func (r *Ranker) Rank(ctx context.Context, candidates []Candidate, assumptions syntax.Exp) (*Ranking, error) {
	n := len(candidates)

	matrix := make([][]Ordering, n)
	for i := range matrix {
		matrix[i] = make([]Ordering, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			g.Go(func() error {
				o, err := r.comparator.Compare(gctx, candidates[i].Cost, candidates[j].Cost, assumptions)
				if err != nil {
					return err
				}

				// each goroutine owns cells (i,j) and (j,i)
				matrix[i][j] = o
				matrix[j][i] = o.Flip()

				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranking := &Ranking{Candidates: candidates, Matrix: matrix}

	for i := 0; i < n; i++ {
		dominated := false

		for j := 0; j < n; j++ {
			if matrix[j][i] == Better {
				dominated = true
				break
			}
		}

		if !dominated {
			ranking.Frontier = append(ranking.Frontier, i)
		}
	}

	return ranking, nil
}
