package alloc

import (
	"fmt"
	"sort"

	"github.com/joshuapare/heapkit/internal/format"
)

// Stats holds allocator counters. They only ever grow, except MappedBytes
// and MappedRegions which track live mappings.
type Stats struct {
	AllocCalls   int // Alloc() calls
	CallocCalls  int // Calloc() calls
	ReallocCalls int // Realloc() calls
	FreeCalls    int // Free() calls with a non-nil pointer

	AllocFastPath int // arena requests served by an existing free block
	AllocSlowPath int // arena requests that grew the heap

	GrowCalls int   // successful heap growths, the initial arena included
	GrowBytes int64 // bytes added to the arena

	SplitCount     int // blocks split in two
	CoalesceMerges int // adjacent free blocks merged away

	InPlaceShrinks int // Realloc shrinks that kept the pointer
	InPlaceGrows   int // Realloc grows that kept the pointer
	Relocations    int // Realloc calls that moved the payload

	MapCalls      int   // regions mapped for large blocks
	UnmapCalls    int   // regions unmapped
	MappedBytes   int64 // bytes in live mapped regions, headers included
	MappedRegions int   // live mapped regions

	TrimCalls int   // Trim calls that released memory
	TrimBytes int64 // bytes handed back to the heap by Trim
}

// Stats returns a snapshot of the allocator counters.
func (bf *BestFitAllocator) Stats() Stats {
	s := bf.stats
	s.MappedRegions = len(bf.mapped)
	return s
}

// Usage summarises the arena as found by walking the directory. Adjacent
// free blocks that have not been coalesced yet are counted separately.
type Usage struct {
	ArenaBytes      int // break minus head
	HeaderBytes     int // bytes spent on directory headers
	FreeBytes       int // payload bytes in FREE blocks
	AllocatedBytes  int // payload bytes in ALLOCATED blocks
	FreeBlocks      int
	AllocatedBlocks int
	LargestFree     int // payload of the largest FREE block
	MappedRegions   int
	MappedBytes     int // live mapped bytes, headers included
}

// Usage walks the directory and the mapped table.
func (bf *BestFitAllocator) Usage() Usage {
	var u Usage
	if bf.ready {
		u.ArenaBytes = bf.end - bf.head
	}
	bf.walk(func(_ int, h format.Header) bool {
		u.HeaderBytes += HeaderSize
		switch h.Status {
		case format.StatusFree:
			u.FreeBlocks++
			u.FreeBytes += h.Size
			u.LargestFree = max(u.LargestFree, h.Size)
		case format.StatusAlloc:
			u.AllocatedBlocks++
			u.AllocatedBytes += h.Size
		}
		return true
	})
	for _, region := range bf.mapped {
		u.MappedRegions++
		u.MappedBytes += len(region)
	}
	return u
}

// Blocks returns the directory in address order. It does not coalesce.
func (bf *BestFitAllocator) Blocks() []Block {
	var blocks []Block
	bf.walk(func(off int, h format.Header) bool {
		blocks = append(blocks, Block{
			Ptr:    payloadPtr(off),
			Offset: off,
			Size:   h.Size,
			Status: h.Status,
		})
		return true
	})
	return blocks
}

// MappedBlocks returns the live mapped blocks ordered by pointer.
func (bf *BestFitAllocator) MappedBlocks() []Block {
	blocks := make([]Block, 0, len(bf.mapped))
	for p, region := range bf.mapped {
		blocks = append(blocks, Block{
			Ptr:    p,
			Size:   format.BlockSize(region, 0),
			Status: format.BlockStatus(region, 0),
		})
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Ptr < blocks[j].Ptr })
	return blocks
}

// Check verifies the structural invariants: every directory header decodes,
// holds FREE or ALLOCATED, and is immediately followed by its successor; the
// tail ends exactly at the break; mapped blocks carry MAPPED headers that
// fit their regions and link nowhere.
func (bf *BestFitAllocator) Check() error {
	if bf.ready {
		data := bf.h.Bytes()
		if len(data) < bf.end {
			return fmt.Errorf("%w: heap holds %d bytes, directory ends at %d", ErrCorrupt, len(data), bf.end)
		}
		for cur, n := bf.head, 0; ; n++ {
			h, err := format.ParseHeader(data, cur)
			if err != nil {
				return fmt.Errorf("%w: block %d: %w", ErrCorrupt, n, err)
			}
			if h.Status == format.StatusMapped {
				return fmt.Errorf("%w: block %d at %d is MAPPED", ErrCorrupt, n, cur)
			}
			end := cur + HeaderSize + h.Size
			if end > bf.end {
				return fmt.Errorf("%w: block %d at %d ends at %d past break %d", ErrCorrupt, n, cur, end, bf.end)
			}
			if h.Next == format.NoNext {
				if end != bf.end {
					return fmt.Errorf("%w: tail at %d ends at %d, break is %d", ErrCorrupt, cur, end, bf.end)
				}
				break
			}
			if h.Next != end {
				return fmt.Errorf("%w: block %d at %d links to %d, expected %d", ErrCorrupt, n, cur, h.Next, end)
			}
			cur = h.Next
		}
	}

	for p, region := range bf.mapped {
		h, err := format.ParseHeader(region, 0)
		if err != nil {
			return fmt.Errorf("%w: mapped %v: %w", ErrCorrupt, p, err)
		}
		if h.Status != format.StatusMapped || h.Next != format.NoNext {
			return fmt.Errorf("%w: mapped %v has status %v next %d", ErrCorrupt, p, h.Status, h.Next)
		}
		if HeaderSize+h.Size > len(region) {
			return fmt.Errorf("%w: mapped %v payload %d exceeds region %d", ErrCorrupt, p, h.Size, len(region))
		}
	}
	return nil
}
