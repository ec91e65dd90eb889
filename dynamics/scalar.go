package dynamics

import (
	"github.com/maplumi/braine-sub000/csr"
	"github.com/maplumi/braine-sub000/rng"
	"github.com/maplumi/braine-sub000/unit"
)

// ScalarBackend is the reference, single-goroutine implementation. Every
// other backend must agree with it up to floating-point rounding; it
// exists primarily as that reference and as the right choice for small
// unit counts where fan-out overhead would dominate.
type ScalarBackend struct {
	a, p []float32 // scratch, reused across ticks to avoid per-tick allocation
}

func NewScalarBackend() *ScalarBackend { return &ScalarBackend{} }

func (b *ScalarBackend) Step(pool *unit.Pool, store *csr.Store, rnd *rng.Source, p Params) {
	n := pool.Len()
	if cap(b.a) < n {
		b.a = make([]float32, n)
		b.p = make([]float32, n)
	}
	A, P := b.a[:n], b.p[:n]

	noiseA, noiseP := pregenNoise(n, rnd, p)

	computeInfluences(pool, store, p, A, P)
	inhibition := p.GlobalInhibition * InhibitionMean(A, p.InhibitionMode)

	for i := 0; i < n; i++ {
		UpdateUnit(i, A[i], P[i], inhibition, pool, p, noiseA[i], noiseP[i])
	}
	pool.ClearPending()
}
