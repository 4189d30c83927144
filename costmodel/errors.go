package costmodel

import "errors"

var (
	// ErrInvalidCost is returned when a cost violates its construction invariants.
	ErrInvalidCost = errors.New("costmodel: invalid cost")

	// ErrTypeMismatch indicates a comparison between differently typed collections.
	ErrTypeMismatch = errors.New("costmodel: type mismatch")

	// ErrUnknownPool is returned when parsing an unrecognised pool name.
	ErrUnknownPool = errors.New("costmodel: unknown pool")

	// ErrUnsupportedOperator is returned when costs are compared with an operator other than < <= == >= >.
	ErrUnsupportedOperator = errors.New("costmodel: unsupported comparison operator")

	// ErrNoCounterexamples is returned by Explain when the solver cannot produce models.
	ErrNoCounterexamples = errors.New("costmodel: solver does not produce counterexamples")
)
