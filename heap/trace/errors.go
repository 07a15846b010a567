package trace

import "errors"

var (
	// ErrInvalidOp indicates an operation that cannot be replayed.
	ErrInvalidOp = errors.New("trace: invalid operation")

	// ErrCorrupted indicates a payload did not hold the pattern written to it.
	ErrCorrupted = errors.New("trace: payload corrupted")
)
