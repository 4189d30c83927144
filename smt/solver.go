// Package smt decides quantifier-free formulas over integer and real
// arithmetic mixed with uninterpreted propositions and collection sizes.
//
// Boolean structure is handled by the gini SAT solver. Arithmetic atoms are
// checked lazily by an exact rational Fourier-Motzkin procedure, with
// integer tightening under LIA and a conservative linearization of monomials
// under NRA. Every query is bounded by a wall-clock timeout; when the budget
// runs out the answer is ErrUnknown, never a guess.
package smt

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/shibukawa/symcost/syntax"
)

// Logic selects the arithmetic fragment a query is decided in.
type Logic int

const (
	// LIA is linear integer arithmetic. Nonlinear terms make a query unknown.
	LIA Logic = iota
	// NRA is nonlinear real arithmetic. Integer columns are relaxed to reals.
	NRA
)

func (l Logic) String() string {
	if l == NRA {
		return "QF_NRA"
	}

	return "QF_LIA"
}

// ParseLogic accepts QF_LIA / QF_NRA as well as the short forms lia / nra.
func ParseLogic(s string) (Logic, error) {
	switch strings.TrimPrefix(strings.ToUpper(s), "QF_") {
	case "LIA":
		return LIA, nil
	case "NRA":
		return NRA, nil
	}

	return LIA, fmt.Errorf("%w: unknown logic %q", ErrUnsupported, s)
}

// Status is the outcome of a satisfiability check.
type Status int

const (
	Unknown Status = iota
	Sat
	Unsat
)

func (s Status) String() string {
	switch s {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	}

	return "unknown"
}

// Model is a satisfying assignment, keyed by the printed form of each term.
type Model struct {
	Numbers map[string]*big.Rat
	Bools   map[string]bool
}

func (m Model) String() string {
	parts := make([]string, 0, len(m.Numbers)+len(m.Bools))

	for k, v := range m.Numbers {
		parts = append(parts, k+" = "+v.RatString())
	}

	for k, v := range m.Bools {
		parts = append(parts, fmt.Sprintf("%s = %t", k, v))
	}

	sort.Strings(parts)

	return strings.Join(parts, ", ")
}

// Result describes one check.
type Result struct {
	Status     Status
	Model      Model
	Iterations int
	Reason     string
	Duration   time.Duration
}

// Config bounds the work done per query.
type Config struct {
	// Timeout applies when a query does not carry its own.
	Timeout time.Duration
	// MaxIterations caps the SAT/theory round trips; zero means unlimited.
	MaxIterations int
	// MaxConstraints caps the rows Fourier-Motzkin may hold at once.
	MaxConstraints int
	Logger         *slog.Logger
}

// DefaultConfig returns the limits used when none are configured.
func DefaultConfig() Config {
	return Config{
		Timeout:        time.Second,
		MaxIterations:  10000,
		MaxConstraints: 4096,
	}
}

// Option adjusts a single query.
type Option func(*query)

type query struct {
	logic   Logic
	timeout time.Duration
}

// WithLogic selects the arithmetic fragment.
func WithLogic(l Logic) Option {
	return func(q *query) { q.logic = l }
}

// WithTimeout overrides the configured timeout.
func WithTimeout(d time.Duration) Option {
	return func(q *query) { q.timeout = d }
}

// Solver answers satisfiability and validity queries. It is safe for
// concurrent use; each query builds its own SAT instance.
type Solver struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a solver.
func New(cfg Config) *Solver {
	def := DefaultConfig()

	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	if cfg.MaxConstraints <= 0 {
		cfg.MaxConstraints = def.MaxConstraints
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Solver{cfg: cfg, logger: logger}
}

// Check decides whether f is satisfiable.
func (s *Solver) Check(ctx context.Context, f syntax.Exp, opts ...Option) (Result, error) {
	q := query{logic: LIA, timeout: s.cfg.Timeout}
	for _, o := range opts {
		o(&q)
	}

	if !syntax.SameType(f.Type(), syntax.Bool) {
		return Result{}, fmt.Errorf("%w: %s has type %s", ErrNotBoolean, f, f.Type())
	}

	ctx, span := startCheckSpan(ctx, q.logic)
	defer span.End()

	start := time.Now()

	res, err := s.check(ctx, f, q)
	res.Duration = time.Since(start)

	recordCheck(ctx, q.logic, res)
	setCheckSpanResult(span, res)

	if res.Status == Unknown {
		s.logger.Debug("smt query undecided",
			slog.String("logic", q.logic.String()),
			slog.String("reason", res.Reason),
			slog.Int("iterations", res.Iterations),
			slog.Duration("elapsed", res.Duration),
		)
	}

	return res, err
}

func (s *Solver) check(ctx context.Context, f syntax.Exp, q query) (Result, error) {
	if syntax.IsLiteral(f) {
		v, err := syntax.EvalBool(f)
		if err != nil {
			return Result{}, err
		}

		if v {
			return Result{Status: Sat, Model: Model{Numbers: map[string]*big.Rat{}, Bools: map[string]bool{}}}, nil
		}

		return Result{Status: Unsat}, nil
	}

	tr := newTranslator()

	form, err := tr.translate(f)
	if err != nil {
		return Result{}, err
	}

	sr := (&search{
		theory: &theory{
			logic:          q.logic,
			ints:           tr.ints,
			maxConstraints: s.cfg.MaxConstraints,
		},
		maxIterations: s.cfg.MaxIterations,
		minimizeLimit: 16,
	}).run(ctx, form, time.Now().Add(q.timeout))

	res := Result{Iterations: sr.iterations, Reason: sr.reason}

	switch sr.verdict {
	case verdictSat:
		res.Status = Sat
		res.Model = tr.model(sr)
	case verdictUnsat:
		res.Status = Unsat
	default:
		res.Status = Unknown
	}

	return res, nil
}

func (t *translator) model(sr searchResult) Model {
	m := Model{Numbers: map[string]*big.Rat{}, Bools: map[string]bool{}}

	for col, v := range sr.model {
		if name, ok := t.display[col]; ok {
			m.Numbers[name] = v
		}
	}

	for col, name := range t.display {
		if _, ok := m.Numbers[name]; !ok {
			if _, set := sr.model[col]; !set {
				m.Numbers[name] = new(big.Rat)
			}
		}
	}

	for id, v := range sr.props {
		m.Bools[t.propName[id]] = v
	}

	return m
}

// Satisfiable reports whether some assignment makes f true.
func (s *Solver) Satisfiable(ctx context.Context, f syntax.Exp, opts ...Option) (bool, error) {
	res, err := s.Check(ctx, f, opts...)
	if err != nil {
		return false, err
	}

	switch res.Status {
	case Sat:
		return true, nil
	case Unsat:
		return false, nil
	}

	return false, fmt.Errorf("%w: %s", ErrUnknown, res.Reason)
}

// Valid reports whether f holds under every assignment.
func (s *Solver) Valid(ctx context.Context, f syntax.Exp, opts ...Option) (bool, error) {
	sat, err := s.Satisfiable(ctx, syntax.Not(f), opts...)
	if err != nil {
		return false, err
	}

	return !sat, nil
}

// Counterexample searches for an assignment falsifying f. found is false
// when f is valid.
func (s *Solver) Counterexample(ctx context.Context, f syntax.Exp, opts ...Option) (Model, bool, error) {
	res, err := s.Check(ctx, syntax.Not(f), opts...)
	if err != nil {
		return Model{}, false, err
	}

	switch res.Status {
	case Sat:
		return res.Model, true, nil
	case Unsat:
		return Model{}, false, nil
	}

	return Model{}, false, fmt.Errorf("%w: %s", ErrUnknown, res.Reason)
}
