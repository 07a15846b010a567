package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// DefaultReserve is the address space NewArena reserves when callers have no
// better estimate. Only committed pages consume memory.
const DefaultReserve = 256 << 20

// Arena is a break-managed region backed by an address-space reservation
// (unix) or preallocated Go memory. The backing never moves, so payload
// slices handed out before a Sbrk remain valid after it.
type Arena struct {
	region    []byte // whole reservation
	brk       int    // current break, offset into region
	committed int    // prefix of region that is readable and writable
	pageSize  int

	// commit makes a page-aligned sub-slice of region usable. Nil when the
	// whole region is usable from the start.
	commit func(b []byte) error
	// unreserve releases region on Close. Nil for Go memory.
	unreserve func(b []byte) error
}

// NewMemArena returns an arena of at most limit bytes backed by Go memory.
// The memory is allocated up front; it is intended for tests and for
// platforms without mmap.
func NewMemArena(limit int) *Arena {
	if limit < 0 {
		limit = 0
	}
	return &Arena{
		region:    make([]byte, limit),
		committed: limit,
		pageSize:  format.Alignment,
	}
}

// Sbrk moves the break by delta bytes and returns the previous break.
// Growth past the reservation fails with ErrNoMemory and leaves the break
// unchanged. Bytes released by a negative delta are cleared, so memory past
// the break always reads as zero.
func (a *Arena) Sbrk(delta int) (int, error) {
	if a == nil || a.region == nil {
		return 0, ErrClosed
	}
	prev := a.brk
	if delta == 0 {
		return prev, nil
	}

	next, ok := buf.AddOverflowSafe(prev, delta)
	if !ok || next < 0 || next > len(a.region) {
		return 0, fmt.Errorf("heap: sbrk(%d) at break %d exceeds reservation of %d bytes: %w",
			delta, prev, len(a.region), ErrNoMemory)
	}

	if next > a.committed && a.commit != nil {
		end := min(format.AlignUp(next, a.pageSize), len(a.region))
		if err := a.commit(a.region[a.committed:end]); err != nil {
			return 0, fmt.Errorf("heap: commit %d bytes at %d: %w: %w",
				end-a.committed, a.committed, ErrNoMemory, err)
		}
		a.committed = end
	}

	if next < prev {
		clear(a.region[next:prev])
	}
	a.brk = next
	return prev, nil
}

// Bytes returns the region [0, break) with its capacity clipped at the break.
func (a *Arena) Bytes() []byte {
	if a == nil || a.region == nil {
		return nil
	}
	return a.region[:a.brk:a.brk]
}

// Break returns the current break.
func (a *Arena) Break() int {
	if a == nil {
		return 0
	}
	return a.brk
}

// Cap returns the reservation size, the largest break Sbrk can reach.
func (a *Arena) Cap() int {
	if a == nil {
		return 0
	}
	return len(a.region)
}

// Committed returns the number of bytes currently backed by memory.
func (a *Arena) Committed() int {
	if a == nil {
		return 0
	}
	return a.committed
}

// Close releases the reservation. Slices obtained from Bytes must not be
// used afterwards. Closing twice is a no-op.
func (a *Arena) Close() error {
	if a == nil || a.region == nil {
		return nil
	}
	var err error
	if a.unreserve != nil {
		err = a.unreserve(a.region)
	}
	a.region = nil
	a.brk = 0
	a.committed = 0
	return err
}
