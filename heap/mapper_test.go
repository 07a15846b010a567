package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemMapper_MapUnmap(t *testing.T) {
	var m MemMapper
	r1, err := m.Map(100)
	require.NoError(t, err)
	r2, err := m.Map(50)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Live())
	assert.Equal(t, 150, m.LiveBytes())

	require.NoError(t, m.Unmap(r1))
	require.ErrorIs(t, m.Unmap(r1), ErrNotMapped, "double unmap must be rejected")
	require.NoError(t, m.Unmap(r2))
	assert.Zero(t, m.Live())
	assert.Zero(t, m.LiveBytes())
}

func TestMemMapper_LimitInjectsFailure(t *testing.T) {
	m := MemMapper{Limit: 128}
	_, err := m.Map(100)
	require.NoError(t, err)
	_, err = m.Map(64)
	require.ErrorIs(t, err, ErrNoMemory)
}

func TestMemMapper_RejectsReslicedRegion(t *testing.T) {
	var m MemMapper
	r, err := m.Map(64)
	require.NoError(t, err)
	require.ErrorIs(t, m.Unmap(r[:32]), ErrNotMapped)
	require.NoError(t, m.Unmap(r))
}

func TestMemMapper_InvalidSize(t *testing.T) {
	var m MemMapper
	_, err := m.Map(0)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestCountingMapper_TracksLiveRegions(t *testing.T) {
	c := NewCountingMapper(&MemMapper{Limit: 256})

	r, err := c.Map(200)
	require.NoError(t, err)
	_, err = c.Map(200)
	require.Error(t, err)
	assert.Equal(t, 1, c.Failures)
	assert.Equal(t, 1, c.Live())
	assert.Equal(t, 200, c.LiveBytes())

	require.NoError(t, c.Unmap(r))
	assert.Zero(t, c.Live())
	assert.Zero(t, c.LiveBytes())
}
