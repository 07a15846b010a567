//go:build unix

package heap

import (
	"fmt"
	"math"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/heapkit/internal/format"
)

// NewArena reserves reserve bytes of address space (rounded up to the page
// size) without committing memory. Pages become readable and writable as
// Sbrk moves the break over them.
func NewArena(reserve int) (*Arena, error) {
	page := unix.Getpagesize()
	if reserve <= 0 || reserve > math.MaxInt-page {
		return nil, fmt.Errorf("heap: reservation of %d bytes: %w", reserve, ErrInvalidSize)
	}
	size := format.AlignUp(reserve, page)

	region, err := unix.Mmap(-1, 0, size, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("heap: reserve %d bytes: %w", size, err)
	}

	return &Arena{
		region:    region,
		pageSize:  page,
		commit:    commitReadWrite,
		unreserve: unix.Munmap,
	}, nil
}

func commitReadWrite(b []byte) error {
	return unix.Mprotect(b, unix.PROT_READ|unix.PROT_WRITE)
}
