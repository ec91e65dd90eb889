package dynamics

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
		p.AppendUnit(0.1*float32(i%5), 0, 0.01, 0.05, 0)
	}
	return p
}

func buildStore(n int) *csr.Store {
	s := csr.New(n, 0)
	for i := 0; i < n; i++ {
		_ = s.AddOrBump(i, uint32((i+1)%n), 0.2)
		_ = s.AddOrBump(i, uint32((i+2)%n), -0.1)
	}
	return s
}

func defaultParams() Params {
	return Params{
		Dt:                 0.05,
		BaseFreq:           1.0,
		GlobalInhibition:   0.1,
		InhibitionMode:     InhibitionSigned,
		NoiseAmp:           0,
		NoisePhase:         0,
		AmpSaturationBeta:  0.1,
		ActivityTraceDecay: 0.1,
		PhaseCouplingMode:  PhaseCouplingSin,
		PhaseCouplingK:     1,
		PhaseCouplingGain:  0.5,
		SalienceDecay:      0.05,
		SalienceGain:       0.2,
		CoactiveThreshold:  0.3,
	}
}

func TestInvariantsHoldAfterStep(t *testing.T) {
	n := 20
	pool := buildPool(n)
	store := buildStore(n)
	rnd := rng.NewSource(1)
	params := defaultParams()
	params.NoiseAmp = 0.2
	params.NoisePhase = 0.2

	backend := NewScalarBackend()
	for tick := 0; tick < 50; tick++ {
		backend.Step(pool, store, rnd, params)
		for i := 0; i < n; i++ {
			assert.GreaterOrEqual(t, pool.Amp[i], float32(unit.AmpMin))
			assert.LessOrEqual(t, pool.Amp[i], float32(unit.AmpMax))
			assert.GreaterOrEqual(t, pool.Phase[i], float32(unit.PhaseMin)-1e-4)
			assert.LessOrEqual(t, pool.Phase[i], float32(unit.PhaseMax)+1e-4)
		}
	}
}

func TestPendingClearedAfterStep(t *testing.T) {
	n := 5
	pool := buildPool(n)
	store := buildStore(n)
	pool.AddStimulus(0, 1.0)
	backend := NewScalarBackend()
	backend.Step(pool, store, rng.NewSource(1), defaultParams())
	assert.Equal(t, float32(0), pool.Pending[0])
}

func backendsAgree(t *testing.T, build func() Backend) {
	n := 30
	poolA := buildPool(n)
	poolB := buildPool(n)
	store := buildStore(n)
	params := defaultParams()
	params.NoiseAmp = 0.1
	params.NoisePhase = 0.1

	ref := NewScalarBackend()
	other := build()

	rndA := rng.NewSource(55)
	rndB := rng.NewSource(55)

	for tick := 0; tick < 30; tick++ {
		ref.Step(poolA, store, rndA, params)
		other.Step(poolB, store, rndB, params)
	}
	for i := 0; i < n; i++ {
		assert.InDelta(t, poolA.Amp[i], poolB.Amp[i], 1e-5)
		assert.InDelta(t, poolA.Phase[i], poolB.Phase[i], 1e-5)
	}
}

func TestVectorizedAgreesWithScalar(t *testing.T) {
	backendsAgree(t, func() Backend { return NewVectorizedBackend() })
}

func TestThreadedAgreesWithScalar(t *testing.T) {
	backendsAgree(t, func() Backend { return NewThreadedBackend(4) })
}

func TestOffloadedAgreesWithScalar(t *testing.T) {
	backendsAgree(t, func() Backend {
		b := NewOffloadedBackend(nil)
		t.Cleanup(b.Close)
		return b
	})
}

func TestDeviceGuardReleasesOnce(t *testing.T) {
	b1 := NewOffloadedBackend(nil)
	b2 := NewOffloadedBackend(nil)
	b1.Close()
	b1.Close() // idempotent
	require.NotNil(t, b2.device)
	b2.Close()
}

func TestNeighborInfluenceComputation(t *testing.T) {
	pool := buildPool(3)
	pool.Amp[1] = 1.0
	pool.Amp[2] = -1.0
	store := csr.New(3, 0)
	require.NoError(t, store.AddOrBump(0, 1, 0.5))
	require.NoError(t, store.AddOrBump(0, 2, 0.5))

	params := defaultParams()
	A, _ := NeighborInfluence(0, pool, store, params)
	assert.InDelta(t, 0.0, A, 1e-6) // 0.5*1 + 0.5*(-1) == 0
}

func TestInhibitionModes(t *testing.T) {
	A := []float32{1, -2, 3}
	assert.InDelta(t, float32(2.0/3.0), InhibitionMean(A, InhibitionSigned), 1e-6)
	assert.InDelta(t, float32(2.0), InhibitionMean(A, InhibitionAbs), 1e-6)
	assert.InDelta(t, float32(4.0/3.0), InhibitionMean(A, InhibitionRectified), 1e-6)
}
