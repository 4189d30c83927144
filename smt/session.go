package smt

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/shibukawa/symcost/syntax"
)

// Session keeps a stack of assertions that every later query is checked
// against. Push and Pop bracket temporary assertions.
type Session struct {
	id     string
	solver *Solver
	opts   []Option

	mu     sync.Mutex
	stack  []syntax.Exp
	scopes []int
}

// NewSession opens a session whose queries use opts by default.
func (s *Solver) NewSession(opts ...Option) *Session {
	sess := &Session{
		id:     uuid.NewString(),
		solver: s,
		opts:   opts,
	}

	s.logger.Debug("smt session opened", slog.String("session", sess.id))

	return sess
}

// ID identifies the session in logs and traces.
func (s *Session) ID() string { return s.id }

// Assert adds f to the current scope.
func (s *Session) Assert(f syntax.Exp) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stack = append(s.stack, f)
}

// Push opens a scope.
func (s *Session) Push() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scopes = append(s.scopes, len(s.stack))
}

// Pop discards every assertion made since the matching Push.
func (s *Session) Pop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.scopes) == 0 {
		return ErrEmptyScope
	}

	n := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	s.stack = s.stack[:n]

	return nil
}

// Assertions returns the conjunction of everything asserted.
func (s *Session) Assertions() syntax.Exp {
	s.mu.Lock()
	defer s.mu.Unlock()

	return syntax.All(s.stack...)
}

// Check decides whether the assertions together with f are satisfiable.
func (s *Session) Check(ctx context.Context, f syntax.Exp, opts ...Option) (Result, error) {
	all := append(append([]Option{}, s.opts...), opts...)
	return s.solver.Check(ctx, syntax.And(s.Assertions(), f), all...)
}

// Valid reports whether the assertions imply f.
func (s *Session) Valid(ctx context.Context, f syntax.Exp, opts ...Option) (bool, error) {
	all := append(append([]Option{}, s.opts...), opts...)
	return s.solver.Valid(ctx, syntax.Implies(s.Assertions(), f), all...)
}
