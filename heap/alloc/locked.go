package alloc

import "sync"

// Locked serialises every entry point of a BestFitAllocator behind one mutex,
// making it safe for concurrent use. The algorithms are unchanged.
//
// Slices returned by Bytes are not protected: callers must not touch a
// payload while another goroutine may free or resize it.
type Locked struct {
	mu sync.Mutex
	bf *BestFitAllocator
}

// NewLocked wraps bf. bf must not be used directly afterwards.
func NewLocked(bf *BestFitAllocator) *Locked {
	return &Locked{bf: bf}
}

func (l *Locked) Alloc(size int) (Ptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bf.Alloc(size)
}

func (l *Locked) Calloc(count, elemSize int) (Ptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bf.Calloc(count, elemSize)
}

func (l *Locked) Realloc(p Ptr, size int) (Ptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bf.Realloc(p, size)
}

func (l *Locked) Free(p Ptr) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bf.Free(p)
}

func (l *Locked) Bytes(p Ptr) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bf.Bytes(p)
}

// Stats returns a snapshot of the wrapped allocator's counters.
func (l *Locked) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bf.Stats()
}

// Usage walks the wrapped allocator's directory.
func (l *Locked) Usage() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bf.Usage()
}

// Check verifies the wrapped allocator's invariants.
func (l *Locked) Check() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bf.Check()
}
