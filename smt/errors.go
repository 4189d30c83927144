package smt

import "errors"

var (
	// ErrUnknown is returned when the solver could not decide a query within
	// its time, iteration or constraint budget.
	ErrUnknown = errors.New("smt: unknown")

	// ErrNotBoolean indicates a query whose expression is not boolean.
	ErrNotBoolean = errors.New("smt: formula is not boolean")

	// ErrUnsupported indicates a subterm the arithmetic translation cannot handle.
	ErrUnsupported = errors.New("smt: unsupported term")

	// ErrEmptyScope is returned by Session.Pop without a matching Push.
	ErrEmptyScope = errors.New("smt: no scope to pop")
)
