//go:build !unix

package heap

import "fmt"

// NewArena returns a Go-memory arena of reserve bytes on platforms without
// mmap. Unlike the unix version the whole reservation is allocated up front.
func NewArena(reserve int) (*Arena, error) {
	if reserve <= 0 {
		return nil, fmt.Errorf("heap: reservation of %d bytes: %w", reserve, ErrInvalidSize)
	}
	return NewMemArena(reserve), nil
}
