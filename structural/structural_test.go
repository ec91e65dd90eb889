package structural

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maplumi/braine-sub000/csr"
	"github.com/maplumi/braine-sub000/rng"
	"github.com/maplumi/braine-sub000/unit"
)

func buildPool(n int) *unit.Pool {
	p := unit.New()
	for i := 0; i < n; i++ {
		p.AppendUnit(0, 0, 0, 1, 0)
	}
	return p
}

func defaultParams() Params {
	return Params{
		ForgetRate:            0.1,
		PruneBelow:            0.05,
		CompactAgeInterval:    1000,
		CompactTombstoneRatio: 0.25,
	}
}

func TestMaintainDecaysAndPrunes(t *testing.T) {
	pool := buildPool(2)
	store := csr.New(2, 0)
	require.NoError(t, store.AddOrBump(0, 1, 0.04))

	p := defaultParams()
	res := Maintain(pool, store, p)
	assert.Equal(t, 1, res.PrunedLastStep)
	assert.Equal(t, 1, store.Tombstones())
}

func TestMaintainProtectsEngramEdges(t *testing.T) {
	pool := buildPool(2)
	pool.SensorOf[0] = 0
	pool.Reserved[1] = true
	store := csr.New(2, 0)
	require.NoError(t, store.AddOrBump(0, 1, 0.04))

	p := defaultParams()
	res := Maintain(pool, store, p)
	assert.Equal(t, 0, res.PrunedLastStep)
	assert.Equal(t, 0, store.Tombstones())
	slot := store.Find(0, 1)
	assert.InDelta(t, float64(p.PruneBelow), float64(store.Weights[slot]), 1e-6)
}

func TestMaintainLeavesHealthyEdgesAlone(t *testing.T) {
	pool := buildPool(2)
	store := csr.New(2, 0)
	require.NoError(t, store.AddOrBump(0, 1, 0.5))

	p := defaultParams()
	Maintain(pool, store, p)
	slot := store.Find(0, 1)
	assert.InDelta(t, 0.45, float64(store.Weights[slot]), 1e-5)
}

func TestShouldCompactByAge(t *testing.T) {
	store := csr.New(2, 0)
	p := defaultParams()
	assert.True(t, ShouldCompact(1000, store, p))
	assert.False(t, ShouldCompact(999, store, p))
}

func TestShouldCompactByRatio(t *testing.T) {
	pool := buildPool(2)
	store := csr.New(2, 0)
	require.NoError(t, store.AddOrBump(0, 1, 0.5))
	store.Tombstone(store.Find(0, 1))
	p := defaultParams()
	_ = pool
	assert.True(t, ShouldCompact(1, store, p))
}

func TestShouldGrowUsesMeanAbsWeight(t *testing.T) {
	store := csr.New(2, 0)
	require.NoError(t, store.AddOrBump(0, 1, 0.9))
	assert.True(t, ShouldGrow(store, 0.5))
	assert.False(t, ShouldGrow(store, 0.95))
}

func TestGrowUnitsExpandsPoolAndWires(t *testing.T) {
	pool := buildPool(4)
	store := csr.New(4, 0)
	r := rng.NewSource(1)

	ids := GrowUnits(pool, store, 2, 3, r)
	require.Len(t, ids, 2)
	assert.Equal(t, 6, pool.Len())
	assert.Equal(t, 6, store.UnitCount())
}

func TestGrowForGroupWiresToMembers(t *testing.T) {
	pool := buildPool(4)
	store := csr.New(4, 0)
	r := rng.NewSource(2)

	ids := GrowForGroup(pool, store, []int32{0, 1}, 1, 2, 2, 2, r)
	require.Len(t, ids, 1)
	assert.Equal(t, 5, pool.Len())
	toGroup := store.Find(int(ids[0]), 0) >= 0 || store.Find(int(ids[0]), 1) >= 0
	assert.True(t, toGroup)
}

func TestMaybeNeurogenesisRespectsCap(t *testing.T) {
	pool := buildPool(2)
	store := csr.New(2, 0)
	require.NoError(t, store.AddOrBump(0, 1, 0.9))
	r := rng.NewSource(3)

	grown := MaybeNeurogenesis(pool, store, 0.5, 5, 3, r, 1)
	assert.Equal(t, 1, grown)
	assert.Equal(t, 3, pool.Len())
}

func TestMaybeNeurogenesisNoopWhenNotDense(t *testing.T) {
	pool := buildPool(2)
	store := csr.New(2, 0)
	require.NoError(t, store.AddOrBump(0, 1, 0.1))
	r := rng.NewSource(4)

	grown := MaybeNeurogenesis(pool, store, 0.9, 5, 10, r, 1)
	assert.Equal(t, 0, grown)
	assert.Equal(t, 2, pool.Len())
}

func TestImprintClaimsQuietUnitOnStrongStimulation(t *testing.T) {
	pool := buildPool(3)
	pool.SensorOf[0] = 0
	pool.SensorOf[1] = 0
	store := csr.New(3, 0)
	r := rng.NewSource(5)

	ok := Imprint(pool, store, []int32{0, 1}, 0.6, 0.2, r)
	require.True(t, ok)

	var claimed = -1
	for i := 0; i < pool.Len(); i++ {
		if pool.Reserved[i] {
			claimed = i
		}
	}
	require.Equal(t, 2, claimed)
	slot := store.Find(0, uint32(claimed))
	require.GreaterOrEqual(t, slot, 0)
	assert.InDelta(t, 0.2, float64(store.Weights[slot]), 1e-6)
}

func TestImprintSkipsBelowStrengthThreshold(t *testing.T) {
	pool := buildPool(3)
	store := csr.New(3, 0)
	r := rng.NewSource(6)

	ok := Imprint(pool, store, []int32{0, 1}, 0.1, 0.2, r)
	assert.False(t, ok)
}

func TestImprintSkipsWhenGroupAlreadyWired(t *testing.T) {
	pool := buildPool(3)
	store := csr.New(3, 0)
	require.NoError(t, store.AddOrBump(0, 2, 5))
	r := rng.NewSource(7)

	ok := Imprint(pool, store, []int32{0, 1}, 0.9, 0.2, r)
	assert.False(t, ok)
}

func TestImprintSkipsWhenNoQuietUnitAvailable(t *testing.T) {
	pool := buildPool(2)
	pool.SensorOf[0] = 0
	pool.ActionOf[1] = 0
	store := csr.New(2, 0)
	r := rng.NewSource(8)

	ok := Imprint(pool, store, []int32{0}, 0.9, 0.2, r)
	assert.False(t, ok)
}
