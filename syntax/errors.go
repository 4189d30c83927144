package syntax

import "errors"

var (
	// ErrInvalidExpression indicates that an expression string could not be read.
	ErrInvalidExpression = errors.New("syntax: invalid expression")

	// ErrInvalidType indicates a malformed type or an ill-typed expression.
	ErrInvalidType = errors.New("syntax: invalid type")

	// ErrUnknownVariable indicates a reference to an undeclared variable.
	ErrUnknownVariable = errors.New("syntax: unknown variable")

	// ErrNotLiteral is returned when evaluating an expression that is not fully literal.
	ErrNotLiteral = errors.New("syntax: expression is not a literal")
)
