package alloc

import (
	"fmt"
	"math"

	"github.com/joshuapare/heapkit/internal/format"
)

// ensureArena creates the arena on first use: InitialArenaSize bytes from the
// heap, covered by a single FREE block that becomes the directory head.
func (bf *BestFitAllocator) ensureArena() error {
	if bf.ready {
		return nil
	}

	prev, err := bf.h.Sbrk(InitialArenaSize)
	if err != nil {
		return fmt.Errorf("%w: initial arena of %d bytes: %w", ErrNoSpace, InitialArenaSize, err)
	}
	if !format.IsAligned(prev) {
		_, _ = bf.h.Sbrk(-InitialArenaSize)
		return fmt.Errorf("%w: break %d is not %d-byte aligned", ErrBreakMoved, prev, Alignment)
	}

	bf.ready = true
	bf.head = prev
	bf.end = prev + InitialArenaSize
	bf.stats.GrowCalls++
	bf.stats.GrowBytes += InitialArenaSize

	format.PutHeader(bf.h.Bytes(), bf.head, format.Header{
		Size:   InitialArenaSize - HeaderSize,
		Status: format.StatusFree,
		Next:   format.NoNext,
	})

	bf.log.Debug("arena created", "base", prev, "size", InitialArenaSize)
	if bf.onGrow != nil {
		bf.onGrow(InitialArenaSize)
	}
	return nil
}

// coalesce merges every run of address-adjacent FREE blocks into its first
// block. The merged size absorbs the swallowed headers. One forward pass
// suffices because a merge never creates a new FREE pair behind the cursor.
func (bf *BestFitAllocator) coalesce() {
	if !bf.ready {
		return
	}
	data := bf.h.Bytes()
	cur := bf.head
	for {
		next := format.BlockNext(data, cur)
		if next == format.NoNext {
			return
		}
		if format.BlockStatus(data, cur) == format.StatusFree &&
			format.BlockStatus(data, next) == format.StatusFree {
			format.SetBlockSize(data, cur, format.BlockSize(data, cur)+HeaderSize+format.BlockSize(data, next))
			format.SetBlockNext(data, cur, format.BlockNext(data, next))
			bf.stats.CoalesceMerges++
			continue
		}
		cur = next
	}
}

// findBestFit returns the smallest FREE block holding need bytes, or -1.
// Among equal sizes the first one in address order wins. last is always the
// true tail of the directory, whether or not a fit was found.
func (bf *BestFitAllocator) findBestFit(need int) (best, last int) {
	data := bf.h.Bytes()
	best = -1
	bestSize := math.MaxInt

	cur := bf.head
	for {
		size := format.BlockSize(data, cur)
		if format.BlockStatus(data, cur) == format.StatusFree && size >= need && size < bestSize {
			best, bestSize = cur, size
		}
		last = cur
		cur = format.BlockNext(data, cur)
		if cur == format.NoNext {
			return best, last
		}
	}
}

// splitIfLarge truncates the block at off to need bytes when the remainder
// can hold a header plus MinPayload, linking the remainder as a FREE block
// right after it. The status of the block at off is left unchanged.
func (bf *BestFitAllocator) splitIfLarge(off, need int) bool {
	data := bf.h.Bytes()
	size := format.BlockSize(data, off)
	if size < need+HeaderSize+format.MinPayload {
		return false
	}

	tail := off + HeaderSize + need
	format.PutHeader(data, tail, format.Header{
		Size:   size - need - HeaderSize,
		Status: format.StatusFree,
		Next:   format.BlockNext(data, off),
	})
	format.SetBlockSize(data, off, need)
	format.SetBlockNext(data, off, tail)

	bf.stats.SplitCount++
	return true
}

// extendFor grows the heap so that a block of need bytes exists at the end
// of the directory and returns its offset. A FREE tail is widened in place by
// the shortfall; otherwise a new block is appended after last.
func (bf *BestFitAllocator) extendFor(last, need int) (int, error) {
	data := bf.h.Bytes()

	if format.BlockStatus(data, last) == format.StatusFree {
		if err := bf.growHeap(need - format.BlockSize(data, last)); err != nil {
			return -1, err
		}
		format.SetBlockSize(bf.h.Bytes(), last, need)
		return last, nil
	}

	off := format.BlockEnd(data, last)
	if err := bf.growHeap(HeaderSize + need); err != nil {
		return -1, err
	}

	data = bf.h.Bytes()
	format.PutHeader(data, off, format.Header{
		Size:   need,
		Status: format.StatusAlloc,
		Next:   format.NoNext,
	})
	format.SetBlockNext(data, last, off)
	return off, nil
}

// growHeap moves the break forward by delta bytes. The previous break must
// be the end of the directory; if something else moved it, the request is
// undone and ErrBreakMoved returned.
func (bf *BestFitAllocator) growHeap(delta int) error {
	prev, err := bf.h.Sbrk(delta)
	if err != nil {
		bf.log.Debug("heap growth failed", "delta", delta, "break", bf.end, "err", err)
		return fmt.Errorf("%w: grow heap by %d bytes: %w", ErrNoSpace, delta, err)
	}
	if prev != bf.end {
		_, _ = bf.h.Sbrk(-delta)
		return fmt.Errorf("%w: expected break %d, found %d", ErrBreakMoved, bf.end, prev)
	}

	bf.end += delta
	bf.stats.GrowCalls++
	bf.stats.GrowBytes += int64(delta)

	bf.log.Debug("heap grown", "delta", delta, "break", bf.end)
	if bf.onGrow != nil {
		bf.onGrow(delta)
	}
	return nil
}

// walk calls fn for every directory block in address order until fn
// returns false.
func (bf *BestFitAllocator) walk(fn func(off int, h format.Header) bool) {
	if !bf.ready {
		return
	}
	data := bf.h.Bytes()
	for cur := bf.head; ; {
		h := format.Header{
			Size:   format.BlockSize(data, cur),
			Status: format.BlockStatus(data, cur),
			Next:   format.BlockNext(data, cur),
		}
		if !fn(cur, h) || h.Next == format.NoNext {
			return
		}
		cur = h.Next
	}
}
