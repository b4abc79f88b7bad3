package compiler

import "errors"

var (
	// ErrUnresolvedSymbol is returned when an identifier is not in scope.
	ErrUnresolvedSymbol = errors.New("unresolved symbol")
	// ErrDuplicateSymbol is returned when a name is defined twice in one scope.
	ErrDuplicateSymbol = errors.New("duplicate symbol")
	ErrUnsupported     = errors.New("unsupported construct")
)
