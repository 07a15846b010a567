package heap

import "errors"

var (
	// ErrNoMemory indicates the primitive could not provide the requested bytes.
	ErrNoMemory = errors.New("heap: out of memory")

	// ErrClosed indicates use of an arena after Close.
	ErrClosed = errors.New("heap: arena closed")

	// ErrInvalidSize indicates a non-positive size was passed to a primitive.
	ErrInvalidSize = errors.New("heap: invalid size")

	// ErrNotMapped indicates Unmap was called with a region the mapper does not own.
	ErrNotMapped = errors.New("heap: region not mapped")
)
