package format

import (
	"fmt"
	"math"
)

// Header is a decoded block header.
type Header struct {
	Size   int    // Payload bytes (excludes the header)
	Status Status // FREE, ALLOCATED or MAPPED
	Next   int    // Offset of the next header, NoNext at the tail
}

// ParseHeader decodes the header at off. It validates that the header fits,
// that the status is defined and that the size is aligned. It does not check
// that the payload fits; the directory walker does that against the break.
func ParseHeader(b []byte, off int) (Header, error) {
	if off < 0 || off > len(b)-BlockHeaderSize {
		return Header{}, fmt.Errorf("header at %d: %w", off, ErrTruncated)
	}
	st := Status(ReadU32(b, off+BlockStatusOffset))
	if !st.Valid() {
		return Header{}, fmt.Errorf("header at %d: %w (%d)", off, ErrBadStatus, st)
	}
	size := ReadU64(b, off+BlockSizeOffset)
	next := ReadU64(b, off+BlockNextOffset)
	if size > math.MaxInt || next > math.MaxInt {
		return Header{}, fmt.Errorf("header at %d: %w", off, ErrTruncated)
	}
	if !IsAligned(int(size)) {
		return Header{}, fmt.Errorf("header at %d: %w (%d)", off, ErrMisaligned, size)
	}
	return Header{Size: int(size), Status: st, Next: int(next)}, nil
}

// PutHeader encodes h at off. The reserved word is cleared.
func PutHeader(b []byte, off int, h Header) {
	PutU64(b, off+BlockSizeOffset, uint64(h.Size))
	PutU32(b, off+BlockStatusOffset, uint32(h.Status))
	PutU32(b, off+BlockReservedOffset, 0)
	PutU64(b, off+BlockNextOffset, uint64(h.Next))
}

// Field accessors for the hot paths of the directory walk. They skip the
// validation done by ParseHeader and assume off addresses a live header.

// BlockSize returns the payload size recorded at off.
func BlockSize(b []byte, off int) int {
	return int(ReadU64(b, off+BlockSizeOffset))
}

// SetBlockSize records a payload size at off.
func SetBlockSize(b []byte, off, size int) {
	PutU64(b, off+BlockSizeOffset, uint64(size))
}

// BlockStatus returns the status recorded at off.
func BlockStatus(b []byte, off int) Status {
	return Status(ReadU32(b, off+BlockStatusOffset))
}

// SetBlockStatus records a status at off.
func SetBlockStatus(b []byte, off int, st Status) {
	PutU32(b, off+BlockStatusOffset, uint32(st))
}

// BlockNext returns the successor offset recorded at off.
func BlockNext(b []byte, off int) int {
	return int(ReadU64(b, off+BlockNextOffset))
}

// SetBlockNext records a successor offset at off.
func SetBlockNext(b []byte, off, next int) {
	PutU64(b, off+BlockNextOffset, uint64(next))
}

// BlockEnd returns the offset one past the payload of the block at off.
func BlockEnd(b []byte, off int) int {
	return off + BlockHeaderSize + BlockSize(b, off)
}
