package alloc

import (
	"github.com/joshuapare/heapkit/internal/format"
)

// Realloc resizes the allocation at p.
//
//   - p == Nil behaves as Alloc(size).
//   - A block that was already freed yields ErrFreed and is left untouched.
//   - size == 0 frees p and returns Nil with no error.
//   - Mapped blocks, and any size at or above MmapThreshold, are moved to
//     fresh storage with min(old, size) bytes copied.
//   - A smaller size shrinks the block in place, splitting off the excess
//     when it is large enough, and returns p.
//   - A larger size first absorbs FREE successors; a block at the end of the
//     directory grows the heap by the shortfall; a block hemmed in by a live
//     neighbour is moved to fresh storage.
//
// Whenever a fresh allocation fails, the error is returned and p remains
// valid with its original contents.
func (bf *BestFitAllocator) Realloc(p Ptr, size int) (Ptr, error) {
	bf.stats.ReallocCalls++

	if p == Nil {
		return bf.alloc(size)
	}

	var off, oldSize int
	var status format.Status
	if p.IsMapped() {
		region, ok := bf.mapped[p]
		if !ok {
			return Nil, ErrBadPtr
		}
		oldSize, status = format.BlockSize(region, 0), format.StatusMapped
	} else {
		o, h, err := bf.lookup(p)
		if err != nil {
			return Nil, err
		}
		off, oldSize, status = o, h.Size, h.Status
	}

	if status == format.StatusFree {
		return Nil, ErrFreed
	}
	if size == 0 {
		return Nil, bf.free(p)
	}
	if size < 0 {
		return Nil, ErrInvalidSize
	}

	if status == format.StatusMapped || size >= MmapThreshold {
		return bf.relocate(p, min(oldSize, size), size)
	}

	need := format.Align8(size)
	if need <= oldSize {
		bf.splitIfLarge(off, need)
		bf.stats.InPlaceShrinks++
		return p, nil
	}
	return bf.growInPlace(p, off, oldSize, need)
}

// growInPlace widens the arena block at off to need bytes by absorbing the
// FREE blocks that follow it, stopping as soon as the target is met. If the
// run reaches the end of the directory the heap is grown by the shortfall.
// If a live block is in the way, the payload moves to fresh storage.
func (bf *BestFitAllocator) growInPlace(p Ptr, off, oldSize, need int) (Ptr, error) {
	data := bf.h.Bytes()
	size := oldSize
	next := format.BlockNext(data, off)

	for next != format.NoNext && format.BlockStatus(data, next) == format.StatusFree {
		size += HeaderSize + format.BlockSize(data, next)
		next = format.BlockNext(data, next)
		format.SetBlockSize(data, off, size)
		format.SetBlockNext(data, off, next)
		bf.stats.CoalesceMerges++

		if size >= need {
			bf.splitIfLarge(off, need)
			bf.stats.InPlaceGrows++
			return p, nil
		}
	}

	if next == format.NoNext {
		if err := bf.growHeap(need - size); err != nil {
			return Nil, err
		}
		format.SetBlockSize(bf.h.Bytes(), off, need)
		bf.stats.InPlaceGrows++
		return p, nil
	}

	return bf.relocate(p, oldSize, need)
}

// relocate moves the payload at p into a fresh allocation of size bytes,
// copying keep bytes, then frees p. If either step fails p is left live.
func (bf *BestFitAllocator) relocate(p Ptr, keep, size int) (Ptr, error) {
	np, err := bf.alloc(size)
	if err != nil {
		return Nil, err
	}
	copy(bf.Bytes(np), bf.Bytes(p)[:keep])

	if err := bf.free(p); err != nil {
		_ = bf.free(np)
		return Nil, err
	}

	bf.stats.Relocations++
	bf.log.Debug("block relocated", "from", p, "to", np, "kept", keep, "size", size)
	return np, nil
}
