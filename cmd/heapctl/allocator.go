package main

import (
	"errors"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
)

// memArenaLimit bounds the Go-memory arena used without --os.
const memArenaLimit = 256 << 20

// newAllocator builds the allocator the commands run against. The cleanup
// releases every mapping and the arena.
func newAllocator() (*alloc.BestFitAllocator, func() error, error) {
	opts := &alloc.Options{Logger: logger}
	if useOS {
		return alloc.NewDefault(opts)
	}

	arena := heap.NewMemArena(memArenaLimit)
	bf, err := alloc.NewBestFit(arena, &heap.MemMapper{}, opts)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error {
		return errors.Join(bf.Close(), arena.Close())
	}
	return bf, cleanup, nil
}
