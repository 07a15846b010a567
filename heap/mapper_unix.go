//go:build unix

package heap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// AnonMapper maps private anonymous memory with mmap(2).
type AnonMapper struct{}

// Map returns a zeroed read/write mapping of size bytes.
func (AnonMapper) Map(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("heap: map %d bytes: %w", size, ErrInvalidSize)
	}
	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("heap: map %d bytes: %w: %w", size, ErrNoMemory, err)
	}
	return region, nil
}

// Unmap releases a region returned by Map.
func (AnonMapper) Unmap(region []byte) error {
	if len(region) == 0 {
		return fmt.Errorf("heap: unmap empty region: %w", ErrNotMapped)
	}
	if err := unix.Munmap(region); err != nil {
		return fmt.Errorf("heap: unmap %d bytes: %w", len(region), err)
	}
	return nil
}
