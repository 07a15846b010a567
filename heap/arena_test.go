package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemArena_SbrkGrowsAndReportsPreviousBreak(t *testing.T) {
	a := NewMemArena(1024)

	prev, err := a.Sbrk(0)
	require.NoError(t, err)
	assert.Equal(t, 0, prev)

	prev, err = a.Sbrk(256)
	require.NoError(t, err)
	assert.Equal(t, 0, prev, "first growth starts at break 0")
	assert.Len(t, a.Bytes(), 256)

	prev, err = a.Sbrk(128)
	require.NoError(t, err)
	assert.Equal(t, 256, prev)
	assert.Equal(t, 384, a.Break())
	assert.Equal(t, 384, cap(a.Bytes()), "capacity must be clipped at the break")
}

func TestMemArena_SbrkPastLimitFails(t *testing.T) {
	a := NewMemArena(512)
	_, err := a.Sbrk(500)
	require.NoError(t, err)

	_, err = a.Sbrk(16)
	require.ErrorIs(t, err, ErrNoMemory)
	assert.Equal(t, 500, a.Break(), "failed sbrk must leave the break unchanged")
}

func TestMemArena_ShrinkClearsReleasedBytes(t *testing.T) {
	a := NewMemArena(256)
	_, err := a.Sbrk(64)
	require.NoError(t, err)
	data := a.Bytes()
	for i := range data {
		data[i] = 0xAA
	}

	prev, err := a.Sbrk(-32)
	require.NoError(t, err)
	assert.Equal(t, 64, prev)

	_, err = a.Sbrk(32)
	require.NoError(t, err)
	regrown := a.Bytes()
	for i := 32; i < 64; i++ {
		require.Zero(t, regrown[i], "byte %d should read zero after shrink and regrow", i)
	}
	assert.Equal(t, byte(0xAA), regrown[31])
}

func TestMemArena_NegativeBreakRejected(t *testing.T) {
	a := NewMemArena(64)
	_, err := a.Sbrk(-8)
	require.ErrorIs(t, err, ErrNoMemory)
}

func TestArena_BackingDoesNotMoveOnGrowth(t *testing.T) {
	a := NewMemArena(4096)
	_, err := a.Sbrk(64)
	require.NoError(t, err)
	first := a.Bytes()
	first[0] = 0x5A

	_, err = a.Sbrk(2048)
	require.NoError(t, err)
	assert.Same(t, &first[0], &a.Bytes()[0], "arena backing must stay in place")
	assert.Equal(t, byte(0x5A), a.Bytes()[0])
}

func TestArena_Close(t *testing.T) {
	a := NewMemArena(64)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "second close is a no-op")

	_, err := a.Sbrk(8)
	require.ErrorIs(t, err, ErrClosed)
	assert.Nil(t, a.Bytes())
}

func TestNewArena_RejectsNonPositiveReserve(t *testing.T) {
	_, err := NewArena(0)
	require.ErrorIs(t, err, ErrInvalidSize)
}
