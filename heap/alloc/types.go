package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

const (
	// Alignment is the unit every payload size is rounded up to.
	Alignment = format.Alignment

	// HeaderSize is the size of the header preceding every payload.
	HeaderSize = format.BlockHeaderSize

	// MmapThreshold is the Alloc size at and above which a dedicated mapping is used.
	MmapThreshold = 128 * 1024

	// CallocMmapThreshold is the aligned header+payload size at and above
	// which Calloc uses a dedicated mapping. Mappings arrive zeroed from the
	// OS, so large zeroed requests skip the arena.
	CallocMmapThreshold = 4 * 1024

	// InitialArenaSize is the size of the first arena reservation.
	InitialArenaSize = 128 * 1024
)

// Ptr is a handle to a payload owned by an allocator.
//
// Arena pointers are the arena offset of the payload; the block header sits
// HeaderSize bytes earlier. Mapped pointers have the top bit set and carry
// the id of their region.
type Ptr uint64

// Nil is the null pointer.
const Nil Ptr = 0

const mappedTag Ptr = 1 << 63

// IsMapped reports whether p addresses a dedicated mapping.
func (p Ptr) IsMapped() bool { return p&mappedTag != 0 }

func (p Ptr) String() string {
	switch {
	case p == Nil:
		return "nil"
	case p.IsMapped():
		return fmt.Sprintf("map#%d", uint64(p&^mappedTag))
	default:
		return fmt.Sprintf("0x%x", uint64(p))
	}
}

// Status is the state recorded in a block header.
type Status = format.Status

const (
	StatusFree   = format.StatusFree
	StatusAlloc  = format.StatusAlloc
	StatusMapped = format.StatusMapped
)

// Block describes one block for introspection.
type Block struct {
	Ptr    Ptr    // payload handle
	Offset int    // header offset in the arena, 0 for mapped blocks
	Size   int    // payload bytes
	Status Status // FREE, ALLOCATED or MAPPED
}

// Allocator defines the heap entry points shared by BestFitAllocator and
// its Locked wrapper.
type Allocator interface {
	// Alloc allocates size bytes and returns a handle to the payload.
	Alloc(size int) (Ptr, error)

	// Calloc allocates count*elemSize bytes, all zero.
	Calloc(count, elemSize int) (Ptr, error)

	// Realloc resizes the allocation at p, preserving min(old, size) bytes.
	// On failure the allocation at p is left untouched.
	Realloc(p Ptr, size int) (Ptr, error)

	// Free releases the allocation at p. Free(Nil) is a no-op.
	Free(p Ptr) error

	// Bytes returns the payload of a live allocation, or nil.
	Bytes(p Ptr) []byte
}

var (
	_ Allocator = (*BestFitAllocator)(nil)
	_ Allocator = (*Locked)(nil)
)
