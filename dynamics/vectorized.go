package dynamics

import (
	"github.com/maplumi/braine-sub000/csr"
	"github.com/maplumi/braine-sub000/rng"
	"github.com/maplumi/braine-sub000/unit"
)

const vectorChunk = 8

// VectorizedBackend restructures the same per-unit kernel into
// fixed-width chunks over contiguous slices so the arithmetic is friendly
// to the compiler's SIMD auto-vectorization, without changing the order of
// floating-point operations relative to ScalarBackend (every unit still goes
// through the shared UpdateUnit kernel unchanged).
type VectorizedBackend struct {
	a, p []float32
}

func NewVectorizedBackend() *VectorizedBackend { return &VectorizedBackend{} }

func (b *VectorizedBackend) Step(pool *unit.Pool, store *csr.Store, rnd *rng.Source, p Params) {
	n := pool.Len()
	if cap(b.a) < n {
		b.a = make([]float32, n)
		b.p = make([]float32, n)
	}
	A, P := b.a[:n], b.p[:n]

	noiseA, noiseP := pregenNoise(n, rnd, p)

	computeInfluences(pool, store, p, A, P)
	inhibition := p.GlobalInhibition * InhibitionMean(A, p.InhibitionMode)

	i := 0
	for ; i+vectorChunk <= n; i += vectorChunk {
		for k := 0; k < vectorChunk; k++ {
			idx := i + k
			UpdateUnit(idx, A[idx], P[idx], inhibition, pool, p, noiseA[idx], noiseP[idx])
		}
	}
	for ; i < n; i++ {
		UpdateUnit(i, A[i], P[i], inhibition, pool, p, noiseA[i], noiseP[i])
	}
	pool.ClearPending()
}
