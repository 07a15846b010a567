package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
)

const testArenaLimit = 64 << 20

// newTestAllocator returns an allocator over a Go-memory arena and a counting
// in-memory mapper, so tests can inspect break movement and mapping traffic.
func newTestAllocator(t testing.TB) (*BestFitAllocator, *heap.Arena, *heap.CountingMapper) {
	t.Helper()
	return newTestAllocatorWithLimit(t, testArenaLimit)
}

func newTestAllocatorWithLimit(t testing.TB, limit int) (*BestFitAllocator, *heap.Arena, *heap.CountingMapper) {
	t.Helper()
	arena := heap.NewMemArena(limit)
	mapper := heap.NewCountingMapper(&heap.MemMapper{})
	bf, err := NewBestFit(arena, mapper, nil)
	require.NoError(t, err)
	return bf, arena, mapper
}

// mustAlloc allocates size bytes or fails the test.
func mustAlloc(t testing.TB, bf *BestFitAllocator, size int) Ptr {
	t.Helper()
	p, err := bf.Alloc(size)
	require.NoError(t, err)
	require.NotEqual(t, Nil, p)
	return p
}

// assertInvariants checks the directory structure and that live blocks are
// pairwise disjoint.
func assertInvariants(t testing.TB, bf *BestFitAllocator) {
	t.Helper()
	require.NoError(t, bf.Check())

	prevEnd := 0
	for _, b := range bf.Blocks() {
		require.GreaterOrEqual(t, b.Offset, prevEnd, "block at %d overlaps its predecessor", b.Offset)
		require.Zero(t, b.Size%Alignment, "block at %d has unaligned size %d", b.Offset, b.Size)
		prevEnd = b.Offset + HeaderSize + b.Size
	}
}

// fillPattern writes a position-dependent pattern derived from seed.
func fillPattern(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i*7)
	}
}

// requirePattern verifies the first n bytes of b against fillPattern(seed).
func requirePattern(t testing.TB, b []byte, n int, seed byte) {
	t.Helper()
	require.GreaterOrEqual(t, len(b), n)
	for i := 0; i < n; i++ {
		if b[i] != seed+byte(i*7) {
			t.Fatalf("byte %d: got 0x%02x want 0x%02x", i, b[i], seed+byte(i*7))
		}
	}
}

// blockAt returns the directory block whose payload is p.
func blockAt(t testing.TB, bf *BestFitAllocator, p Ptr) Block {
	t.Helper()
	for _, b := range bf.Blocks() {
		if b.Ptr == p {
			return b
		}
	}
	t.Fatalf("no directory block for %v", p)
	return Block{}
}

// freeSizes returns the payload sizes of FREE blocks in address order.
func freeSizes(bf *BestFitAllocator) []int {
	var sizes []int
	for _, b := range bf.Blocks() {
		if b.Status == StatusFree {
			sizes = append(sizes, b.Size)
		}
	}
	return sizes
}
