package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// allocMapped serves a request from its own mapping of header+payload bytes.
// The block is stamped MAPPED and never linked into the directory.
func (bf *BestFitAllocator) allocMapped(size int) (Ptr, error) {
	if _, ok := buf.AddOverflowSafe(size, HeaderSize+format.AlignmentMask); !ok {
		return Nil, ErrOverflow
	}
	need := format.Align8(size)

	region, err := bf.m.Map(HeaderSize + need)
	if err != nil {
		bf.log.Debug("mapping failed", "size", HeaderSize+need, "err", err)
		return Nil, fmt.Errorf("%w: map %d bytes: %w", ErrNoSpace, HeaderSize+need, err)
	}
	format.PutHeader(region, 0, format.Header{
		Size:   need,
		Status: format.StatusMapped,
		Next:   format.NoNext,
	})

	bf.nextMapID++
	p := mappedTag | Ptr(bf.nextMapID)
	bf.mapped[p] = region

	bf.stats.MapCalls++
	bf.stats.MappedBytes += int64(len(region))
	bf.log.Debug("block mapped", "ptr", p, "payload", need, "region", len(region))
	return p, nil
}

// freeMapped unmaps the whole region behind p. The pointer stays valid if
// the unmap fails.
func (bf *BestFitAllocator) freeMapped(p Ptr) error {
	region, ok := bf.mapped[p]
	if !ok {
		return ErrBadPtr
	}
	if err := bf.m.Unmap(region); err != nil {
		return fmt.Errorf("alloc: unmap %v: %w", p, err)
	}
	delete(bf.mapped, p)

	bf.stats.UnmapCalls++
	bf.stats.MappedBytes -= int64(len(region))
	bf.log.Debug("block unmapped", "ptr", p, "region", len(region))
	return nil
}
