package dynamics

import (
	"github.com/maplumi/braine-sub000/csr"
	"github.com/maplumi/braine-sub000/rng"
	"github.com/maplumi/braine-sub000/unit"
)

// Backend is the capability set {step}. Every tier runs identical physics
// (kernel.go) and differs only in how the per-unit work is scheduled. Step
// must pre-generate noise from rnd on the caller's goroutine before any
// fan-out, keeping randomness on a single stream, and must advance rnd
// deterministically regardless of worker count.
type Backend interface {
	Step(pool *unit.Pool, store *csr.Store, rnd *rng.Source, p Params)
}

// pregenNoise draws 2*N uniform-noise samples from the single RNG stream on
// the calling goroutine, before any fan-out to workers or a device. This is
// the only point in a tick that touches rnd.
func pregenNoise(n int, rnd *rng.Source, p Params) (noiseA, noiseP []float32) {
	noiseA = make([]float32, n)
	noiseP = make([]float32, n)
	for i := 0; i < n; i++ {
		noiseA[i] = rnd.UniformF32(-p.NoiseAmp, p.NoiseAmp)
		noiseP[i] = rnd.UniformF32(-p.NoisePhase, p.NoisePhase)
	}
	return
}

// computeInfluences fills the per-unit A and P arrays for every unit. It is
// the shared read-only pass every backend runs before applying the kernel's
// write step; reads of pool/store here never race because no writes happen
// until UpdateUnit is called per-unit afterward.
func computeInfluences(pool *unit.Pool, store *csr.Store, p Params, A, P []float32) {
	for i := range A {
		A[i], P[i] = NeighborInfluence(i, pool, store, p)
	}
}
