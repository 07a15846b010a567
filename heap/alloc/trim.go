package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Trim hands a FREE tail block back to the heap by moving the break down,
// and returns the number of bytes released. The directory head is never
// released, so an arena that is entirely free keeps its first block.
//
// Trim coalesces first, so it also folds any pending free neighbours.
func (bf *BestFitAllocator) Trim() (int, error) {
	if !bf.ready {
		return 0, nil
	}
	bf.coalesce()

	prev, tail := -1, bf.head
	bf.walk(func(off int, h format.Header) bool {
		if h.Next != format.NoNext {
			prev = off
		} else {
			tail = off
		}
		return true
	})

	data := bf.h.Bytes()
	if prev < 0 || format.BlockStatus(data, tail) != format.StatusFree {
		return 0, nil
	}

	brk, err := bf.h.Sbrk(0)
	if err != nil {
		return 0, fmt.Errorf("alloc: trim: %w", err)
	}
	if brk != bf.end {
		return 0, fmt.Errorf("%w: expected break %d, found %d", ErrBreakMoved, bf.end, brk)
	}

	n := HeaderSize + format.BlockSize(data, tail)
	if _, err := bf.h.Sbrk(-n); err != nil {
		return 0, fmt.Errorf("alloc: trim %d bytes: %w", n, err)
	}
	format.SetBlockNext(bf.h.Bytes(), prev, format.NoNext)
	bf.end -= n

	bf.stats.TrimCalls++
	bf.stats.TrimBytes += int64(n)
	bf.log.Debug("heap trimmed", "released", n, "break", bf.end)
	return n, nil
}
