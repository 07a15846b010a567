// Package format describes the binary layout of the allocator's block
// headers. The goal is to keep encoding and decoding in one place, free of
// allocator policy, so the directory code can treat headers as plain values.
package format

// Block header layout (little-endian):
//
//	Offset  Size  Description
//	0x00    8     Payload size in bytes, always a multiple of Alignment.
//	0x08    4     Status (see Status).
//	0x0C    4     Reserved, zero.
//	0x10    8     Arena offset of the next header; 0 ends the directory.
//	0x18    ...   Payload.
const (
	// BlockHeaderSize is the fixed size of every block header.
	BlockHeaderSize = 0x18

	BlockSizeOffset     = 0x00
	BlockStatusOffset   = 0x08
	BlockReservedOffset = 0x0C
	BlockNextOffset     = 0x10

	// Alignment is the payload alignment unit. It must be a power of two.
	Alignment = 8

	// AlignmentMask is Alignment - 1.
	AlignmentMask = Alignment - 1

	// MinPayload is the smallest payload a split may leave behind.
	MinPayload = Alignment

	// NoNext marks the last header of the directory. The head is never a
	// successor and every successor lies above it, so offset 0 is free to
	// use as the end marker.
	NoNext = 0
)

// Status is the state recorded in a block header.
type Status uint32

const (
	// StatusInvalid is never written; zeroed memory decodes to it.
	StatusInvalid Status = 0
	// StatusFree marks a directory block available for reuse.
	StatusFree Status = 1
	// StatusAlloc marks a directory block owned by a caller.
	StatusAlloc Status = 2
	// StatusMapped marks a block living in its own mapped region.
	StatusMapped Status = 3
)

// Valid reports whether s is one of the three defined states.
func (s Status) Valid() bool {
	return s == StatusFree || s == StatusAlloc || s == StatusMapped
}

func (s Status) String() string {
	switch s {
	case StatusFree:
		return "FREE"
	case StatusAlloc:
		return "ALLOCATED"
	case StatusMapped:
		return "MAPPED"
	default:
		return "INVALID"
	}
}
