package alloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
)

func TestNewBestFit_RejectsNilCollaborators(t *testing.T) {
	_, err := NewBestFit(nil, &heap.MemMapper{}, nil)
	require.Error(t, err)
	_, err = NewBestFit(heap.NewMemArena(1024), nil, nil)
	require.Error(t, err)
}

func TestAlloc_InvalidSizeDoesNotTouchHeap(t *testing.T) {
	bf, arena, mapper := newTestAllocator(t)

	for _, size := range []int{0, -1, -4096} {
		p, err := bf.Alloc(size)
		require.ErrorIs(t, err, ErrInvalidSize)
		assert.Equal(t, Nil, p)
	}
	assert.Zero(t, arena.Break(), "invalid requests must not grow the heap")
	assert.Zero(t, mapper.Maps)
	assert.Nil(t, bf.Blocks())
}

func TestAlloc_FirstRequestCreatesArena(t *testing.T) {
	bf, arena, _ := newTestAllocator(t)
	var grows []int
	bf.onGrow = func(delta int) { grows = append(grows, delta) }

	p := mustAlloc(t, bf, 8)

	assert.Equal(t, []int{InitialArenaSize}, grows)
	assert.Equal(t, InitialArenaSize, arena.Break())
	assert.Equal(t, Ptr(HeaderSize), p, "first payload follows the head header")

	blocks := bf.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, Block{Ptr: p, Offset: 0, Size: 8, Status: StatusAlloc}, blocks[0])
	assert.Equal(t, StatusFree, blocks[1].Status)
	assert.Equal(t, InitialArenaSize-2*HeaderSize-8, blocks[1].Size)
	assertInvariants(t, bf)
}

// TestAlloc_Alignment verifies that the recorded payload is the smallest
// multiple of 8 holding the request.
func TestAlloc_Alignment(t *testing.T) {
	bf, _, _ := newTestAllocator(t)

	for size := 1; size <= 200; size++ {
		p := mustAlloc(t, bf, size)
		got, err := bf.Size(p)
		require.NoError(t, err)
		want := (size + 7) / 8 * 8
		require.Equal(t, want, got, "size %d", size)
		require.Len(t, bf.Bytes(p), want)
		require.Zero(t, int(p)%Alignment, "payload %v is not aligned", p)
	}
	assertInvariants(t, bf)
}

// TestAlloc_NoOverlap writes a distinct pattern to every live block and
// verifies nothing was clobbered.
func TestAlloc_NoOverlap(t *testing.T) {
	bf, _, _ := newTestAllocator(t)

	ptrs := make([]Ptr, 0, 64)
	for i := range 64 {
		p := mustAlloc(t, bf, 16+i*24)
		fillPattern(bf.Bytes(p), byte(i))
		ptrs = append(ptrs, p)
	}
	for i := 0; i < len(ptrs); i += 3 {
		require.NoError(t, bf.Free(ptrs[i]))
	}
	for i := range 32 {
		p := mustAlloc(t, bf, 8+i*8)
		fillPattern(bf.Bytes(p), 0xF0)
	}

	for i, p := range ptrs {
		if i%3 == 0 {
			continue
		}
		requirePattern(t, bf.Bytes(p), 16+i*24, byte(i))
	}
	assertInvariants(t, bf)
}

func TestAlloc_MissWithFreeTailGrowsTailInPlace(t *testing.T) {
	bf, arena, _ := newTestAllocator(t)

	mustAlloc(t, bf, 130000)
	// Remaining tail: 131048 - 130000 - 24 = 1024 bytes free.
	require.Equal(t, []int{1024}, freeSizes(bf))
	tailOff := bf.Blocks()[1].Offset

	p := mustAlloc(t, bf, 2000)

	assert.Equal(t, payloadPtr(tailOff), p, "free tail must be reused, not a new node")
	assert.Equal(t, InitialArenaSize+2000-1024, arena.Break(), "heap grows by the shortfall only")
	assert.Len(t, bf.Blocks(), 2)
	assert.Equal(t, 2000, blockAt(t, bf, p).Size)
	assert.Equal(t, 1, bf.Stats().AllocSlowPath)
	assertInvariants(t, bf)
}

func TestAlloc_MissWithAllocatedTailAppendsBlock(t *testing.T) {
	bf, arena, _ := newTestAllocator(t)

	mustAlloc(t, bf, 130000)
	mustAlloc(t, bf, 1024) // exact fit for the tail, no split

	p := mustAlloc(t, bf, 100)

	assert.Equal(t, Ptr(InitialArenaSize+HeaderSize), p, "new block starts at the old break")
	assert.Equal(t, InitialArenaSize+HeaderSize+104, arena.Break())
	blocks := bf.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, Block{Ptr: p, Offset: InitialArenaSize, Size: 104, Status: StatusAlloc}, blocks[2])
	assertInvariants(t, bf)
}

func TestAlloc_HeapExhaustion(t *testing.T) {
	bf, arena, _ := newTestAllocatorWithLimit(t, InitialArenaSize)

	mustAlloc(t, bf, 130000)
	mustAlloc(t, bf, 1024)

	p, err := bf.Alloc(100)
	require.ErrorIs(t, err, ErrNoSpace)
	require.ErrorIs(t, err, heap.ErrNoMemory, "primitive error must stay visible")
	assert.Equal(t, Nil, p)
	assert.Equal(t, InitialArenaSize, arena.Break())
	assertInvariants(t, bf)
}

func TestAlloc_InitialArenaFailure(t *testing.T) {
	bf, _, _ := newTestAllocatorWithLimit(t, InitialArenaSize-1)

	p, err := bf.Alloc(8)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, Nil, p)
	assert.Nil(t, bf.Blocks())

	// Large requests do not need the arena.
	p, err = bf.Alloc(MmapThreshold)
	require.NoError(t, err)
	assert.True(t, p.IsMapped())
}

func TestAlloc_ForeignBreakMovementDetected(t *testing.T) {
	bf, arena, _ := newTestAllocator(t)

	mustAlloc(t, bf, 130000)
	mustAlloc(t, bf, 1024)

	_, err := arena.Sbrk(64)
	require.NoError(t, err)

	_, err = bf.Alloc(100)
	require.ErrorIs(t, err, ErrBreakMoved)
	assert.Equal(t, InitialArenaSize+64, arena.Break(), "foreign break must be left as found")
}

func TestFree_NilIsNoOp(t *testing.T) {
	bf, arena, _ := newTestAllocator(t)

	require.NoError(t, bf.Free(Nil))
	require.NoError(t, bf.Free(Nil))
	assert.Zero(t, arena.Break())
	assert.Zero(t, bf.Stats().FreeCalls)
}

func TestFree_DoubleFreeRejectedWithoutMutation(t *testing.T) {
	bf, _, _ := newTestAllocator(t)
	p := mustAlloc(t, bf, 64)
	mustAlloc(t, bf, 8)

	require.NoError(t, bf.Free(p))
	before := bf.Blocks()
	require.ErrorIs(t, bf.Free(p), ErrFreed)
	assert.Equal(t, before, bf.Blocks())
}

func TestFree_DoesNotCoalesceEagerly(t *testing.T) {
	bf, _, _ := newTestAllocator(t)
	a := mustAlloc(t, bf, 32)
	b := mustAlloc(t, bf, 32)
	mustAlloc(t, bf, 8)

	require.NoError(t, bf.Free(a))
	require.NoError(t, bf.Free(b))

	blocks := bf.Blocks()
	assert.Equal(t, StatusFree, blocks[0].Status)
	assert.Equal(t, StatusFree, blocks[1].Status, "neighbours stay separate until the next search")
	assert.Zero(t, bf.Stats().CoalesceMerges)
}

func TestFree_BadPointers(t *testing.T) {
	bf, _, _ := newTestAllocator(t)

	require.ErrorIs(t, bf.Free(Ptr(64)), ErrBadPtr, "no arena yet")

	p := mustAlloc(t, bf, 64)
	require.ErrorIs(t, bf.Free(p+4), ErrBadPtr, "misaligned")
	require.ErrorIs(t, bf.Free(p+8), ErrBadPtr, "inside a payload")
	require.ErrorIs(t, bf.Free(Ptr(InitialArenaSize+HeaderSize)), ErrBadPtr, "past the break")
	require.ErrorIs(t, bf.Free(mappedTag|99), ErrBadPtr, "unknown mapping")
	require.NoError(t, bf.Free(p))
}

func TestBytes_AndSize(t *testing.T) {
	bf, _, _ := newTestAllocator(t)
	p := mustAlloc(t, bf, 13)

	b := bf.Bytes(p)
	assert.Len(t, b, 16)
	assert.Equal(t, 16, cap(b), "payload capacity must be clipped")

	require.NoError(t, bf.Free(p))
	assert.Nil(t, bf.Bytes(p), "freed payloads are not reachable")
	_, err := bf.Size(p)
	require.ErrorIs(t, err, ErrFreed)

	assert.Nil(t, bf.Bytes(Nil))
	_, err = bf.Size(Nil)
	require.ErrorIs(t, err, ErrBadPtr)
}

func TestIndependentAllocators(t *testing.T) {
	a1, _, _ := newTestAllocator(t)
	a2, _, _ := newTestAllocator(t)

	p1 := mustAlloc(t, a1, 64)
	p2 := mustAlloc(t, a2, 64)
	assert.Equal(t, p1, p2, "fresh contexts start from the same layout")

	fillPattern(a1.Bytes(p1), 1)
	fillPattern(a2.Bytes(p2), 2)
	requirePattern(t, a1.Bytes(p1), 64, 1)
	requirePattern(t, a2.Bytes(p2), 64, 2)
}

func TestPtr_String(t *testing.T) {
	assert.Equal(t, "nil", Nil.String())
	assert.Equal(t, "0x18", Ptr(24).String())
	assert.Equal(t, "map#3", (mappedTag | 3).String())
}

func TestClose_UnmapsLiveRegions(t *testing.T) {
	bf, _, mapper := newTestAllocator(t)
	mustAlloc(t, bf, MmapThreshold)
	mustAlloc(t, bf, MmapThreshold*2)
	require.Equal(t, 2, mapper.Live())

	require.NoError(t, bf.Close())
	assert.Zero(t, mapper.Live())
	assert.Empty(t, bf.MappedBlocks())
}

func TestErrors_AreDistinct(t *testing.T) {
	all := []error{ErrInvalidSize, ErrOverflow, ErrNoSpace, ErrFreed, ErrBadPtr, ErrBreakMoved, ErrCorrupt}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Fatalf("%v matches %v", a, b)
			}
		}
	}
}

func TestFree_HeaderLookalikeInsidePayloadRejected(t *testing.T) {
	bf, _, _ := newTestAllocator(t)
	a := mustAlloc(t, bf, 64)
	mustAlloc(t, bf, 8)

	// Make the payload bytes at a+16 decode as a valid ALLOCATED header.
	payload := bf.Bytes(a)
	clear(payload)
	payload[24] = byte(StatusAlloc)
	inner := a + 40

	require.ErrorIs(t, bf.Free(inner), ErrBadPtr)
	assert.Nil(t, bf.Bytes(inner))
	_, err := bf.Realloc(inner, 16)
	require.ErrorIs(t, err, ErrBadPtr)
	_, err = bf.Size(inner)
	require.ErrorIs(t, err, ErrBadPtr)

	assert.Equal(t, byte(StatusAlloc), bf.Bytes(a)[24], "payload must not be modified")
	assert.Equal(t, StatusAlloc, blockAt(t, bf, a).Status)
	assertInvariants(t, bf)
}
