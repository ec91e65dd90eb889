package csr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectTargets(s *Store, i int) []uint32 {
	var out []uint32
	s.Each(i, func(slot int, target uint32, weight float32) {
		out = append(out, target)
	})
	return out
}

func TestAddOrBumpAppendsAcrossSegments(t *testing.T) {
	s := New(3, 0)
	require.NoError(t, s.AddOrBump(0, 1, 0.5))
	require.NoError(t, s.AddOrBump(0, 2, 0.25))
	require.NoError(t, s.AddOrBump(1, 2, 0.75))

	assert.Equal(t, []uint32{1, 2}, collectTargets(s, 0))
	assert.Equal(t, []uint32{2}, collectTargets(s, 1))
	assert.Equal(t, []uint32(nil), collectTargets(s, 2))
}

func TestAddOrBumpAccumulatesExisting(t *testing.T) {
	s := New(2, 0)
	require.NoError(t, s.AddOrBump(0, 1, 0.5))
	require.NoError(t, s.AddOrBump(0, 1, 0.25))

	var w float32
	s.Each(0, func(slot int, target uint32, weight float32) { w = weight })
	assert.InDelta(t, 0.75, w, 1e-6)
	assert.Equal(t, 1, s.ValidCount())
}

func TestTombstoneReuse(t *testing.T) {
	s := New(1, 0)
	require.NoError(t, s.AddOrBump(0, 1, 0.1))
	require.NoError(t, s.AddOrBump(0, 2, 0.2))

	slot := s.Find(0, 1)
	s.Tombstone(slot)
	assert.Equal(t, 1, s.Tombstones())
	assert.Equal(t, 1, s.ValidCount())

	// Reusing the tombstone should not grow the segment.
	require.NoError(t, s.AddOrBump(0, 3, 0.3))
	assert.Equal(t, 2, s.ValidCount())
	assert.Equal(t, 0, s.Tombstones())
	assert.ElementsMatch(t, []uint32{2, 3}, collectTargets(s, 0))
}

func TestCompactRemovesTombstonesPreservingOrder(t *testing.T) {
	s := New(2, 0)
	require.NoError(t, s.AddOrBump(0, 10, 1))
	require.NoError(t, s.AddOrBump(0, 20, 2))
	require.NoError(t, s.AddOrBump(0, 30, 3))
	require.NoError(t, s.AddOrBump(1, 40, 4))

	s.Tombstone(s.Find(0, 20))
	require.Equal(t, 1, s.Tombstones())

	s.Compact()
	assert.Equal(t, 0, s.Tombstones())
	assert.Equal(t, []uint32{10, 30}, collectTargets(s, 0))
	assert.Equal(t, []uint32{40}, collectTargets(s, 1))
}

func TestCompactTriggerThreshold(t *testing.T) {
	s := New(1, 0)
	require.NoError(t, s.AddOrBump(0, 1, 0.1))
	require.NoError(t, s.AddOrBump(0, 2, 0.1))
	require.NoError(t, s.AddOrBump(0, 3, 0.1))
	require.NoError(t, s.AddOrBump(0, 4, 0.1))

	s.Tombstone(s.Find(0, 1))
	assert.False(t, s.ShouldCompact(0.25))
	s.Tombstone(s.Find(0, 2))
	assert.True(t, s.ShouldCompact(0.25))
}

func TestAddUnitExtendsOffsets(t *testing.T) {
	s := New(1, 0)
	require.NoError(t, s.AddOrBump(0, 5, 1))
	s.AddUnit()
	assert.Equal(t, 2, s.UnitCount())
	assert.Equal(t, []uint32(nil), collectTargets(s, 1))
}

func TestCapacityExceeded(t *testing.T) {
	s := New(1, 1)
	require.NoError(t, s.AddOrBump(0, 1, 1))
	err := s.AddOrBump(0, 2, 1)
	require.Error(t, err)
}

func TestNoDuplicateTargetsWithinSegment(t *testing.T) {
	s := New(1, 0)
	for i := uint32(0); i < 20; i++ {
		require.NoError(t, s.AddOrBump(0, i%5, 0.1))
	}
	seen := map[uint32]bool{}
	s.Each(0, func(slot int, target uint32, weight float32) {
		assert.False(t, seen[target], "duplicate target in segment")
		seen[target] = true
	})
	assert.Equal(t, 5, len(seen))
}
