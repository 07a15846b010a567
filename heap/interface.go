package heap

// Heap is the heap-extension primitive: one contiguous region whose end (the
// break) moves by a signed delta.
type Heap interface {
	// Sbrk moves the break by delta bytes and returns the previous break.
	// Sbrk(0) reports the current break. On failure the break is unchanged.
	Sbrk(delta int) (prev int, err error)

	// Bytes returns the region [0, break). Implementations may return a new
	// slice after Sbrk; callers must re-fetch it after growing.
	Bytes() []byte
}

// Mapper is the anonymous-mapping primitive and its release counterpart.
type Mapper interface {
	// Map returns a fresh read/write region of exactly size bytes.
	Map(size int) ([]byte, error)

	// Unmap releases a region previously returned by Map. The slice must be
	// the one Map returned, not a re-slice of it.
	Unmap(region []byte) error
}
