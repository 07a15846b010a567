package alloc

import "errors"

var (
	// ErrInvalidSize indicates a non-positive size or a negative count.
	ErrInvalidSize = errors.New("alloc: invalid size")

	// ErrOverflow indicates the request size overflowed while computing the block size.
	ErrOverflow = errors.New("alloc: size overflow")

	// ErrNoSpace indicates the heap or the mapper could not provide memory.
	ErrNoSpace = errors.New("alloc: out of memory")

	// ErrFreed indicates an operation on a block that was already released.
	ErrFreed = errors.New("alloc: block already freed")

	// ErrBadPtr indicates a pointer that does not address a block of this allocator.
	ErrBadPtr = errors.New("alloc: bad pointer")

	// ErrBreakMoved indicates the heap break was moved outside the allocator's control.
	ErrBreakMoved = errors.New("alloc: heap break moved")

	// ErrCorrupt indicates the directory violates a structural invariant.
	ErrCorrupt = errors.New("alloc: corrupt directory")
)
