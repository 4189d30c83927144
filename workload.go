package symcost

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/shibukawa/symcost/costmodel"
	"github.com/shibukawa/symcost/syntax"
)

// Workload is a set of candidate expressions over shared variables.
type Workload struct {
	Variables   syntax.Env
	Assumptions syntax.Exp
	Candidates  []Candidate
}

// Candidate is one parsed workload entry.
type Candidate struct {
	Name string
	Pool costmodel.Pool
	Expr syntax.Exp
}

type workloadFile struct {
	Variables   map[string]string   `yaml:"variables"`
	Assumptions []string            `yaml:"assumptions"`
	Candidates  []workloadCandidate `yaml:"candidates"`
}

type workloadCandidate struct {
	Name string `yaml:"name"`
	Pool string `yaml:"pool"`
	Expr string `yaml:"expr"`
}

// LoadWorkload reads and parses a workload YAML file.
func LoadWorkload(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workload file: %w", err)
	}

	w, err := ParseWorkload(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return w, nil
}

// ParseWorkload parses workload YAML.
func ParseWorkload(data []byte) (*Workload, error) {
	var file workloadFile

	err := yaml.UnmarshalWithOptions(data, &file, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkload, err)
	}

	env := syntax.Env{}

	names := make([]string, 0, len(file.Variables))
	for name := range file.Variables {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		t, err := syntax.ParseType(file.Variables[name])
		if err != nil {
			return nil, fmt.Errorf("%w: variable %s: %w", ErrInvalidWorkload, name, err)
		}

		env[name] = t
	}

	assumptions := make([]syntax.Exp, 0, len(file.Assumptions))

	for i, src := range file.Assumptions {
		e, err := syntax.Parse(src, env)
		if err != nil {
			return nil, fmt.Errorf("%w: assumption %d: %w", ErrInvalidWorkload, i+1, err)
		}

		if !syntax.SameType(e.Type(), syntax.Bool) {
			return nil, fmt.Errorf("%w: assumption %d has type %s", ErrNonBooleanAssumption, i+1, e.Type())
		}

		assumptions = append(assumptions, e)
	}

	if len(file.Candidates) == 0 {
		return nil, ErrNoCandidates
	}

	w := &Workload{Variables: env, Assumptions: syntax.All(assumptions...)}
	seen := map[string]bool{}

	for i, c := range file.Candidates {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("candidate%d", i+1)
		}

		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCandidate, name)
		}

		seen[name] = true

		pool, err := costmodel.ParsePool(c.Pool)
		if err != nil {
			return nil, fmt.Errorf("%w: candidate %s: %w", ErrInvalidWorkload, name, err)
		}

		e, err := syntax.Parse(c.Expr, env)
		if err != nil {
			return nil, fmt.Errorf("%w: candidate %s: %w", ErrInvalidWorkload, name, err)
		}

		w.Candidates = append(w.Candidates, Candidate{Name: name, Pool: pool, Expr: e})
	}

	return w, nil
}

// Candidate returns the candidate with the given name.
func (w *Workload) Candidate(name string) (Candidate, error) {
	for _, c := range w.Candidates {
		if c.Name == name {
			return c, nil
		}
	}

	return Candidate{}, fmt.Errorf("%w: %s", ErrCandidateNotFound, name)
}
