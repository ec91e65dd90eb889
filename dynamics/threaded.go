package dynamics

import (
	"runtime"
	"sync"

	"github.com/maplumi/braine-sub000/csr"
	"github.com/maplumi/braine-sub000/rng"
	"github.com/maplumi/braine-sub000/unit"
)

// ThreadedBackend fans the per-unit update out across a worker pool,
// partitioning the unit range into contiguous chunks (one per goroutine) so
// writes never alias: each worker only ever writes pool indices inside its
// own disjoint chunk. All noise is pre-generated on the caller's goroutine
// before fan-out, so the single RNG stream is never touched concurrently.
type ThreadedBackend struct {
	NumWorkers int // 0 = runtime.GOMAXPROCS(0)

	a, p []float32
	wg   sync.WaitGroup
}

func NewThreadedBackend(numWorkers int) *ThreadedBackend {
	return &ThreadedBackend{NumWorkers: numWorkers}
}

func (b *ThreadedBackend) workers() int {
	if b.NumWorkers > 0 {
		return b.NumWorkers
	}
	if w := runtime.GOMAXPROCS(0); w > 0 {
		return w
	}
	return 1
}

func (b *ThreadedBackend) Step(pool *unit.Pool, store *csr.Store, rnd *rng.Source, p Params) {
	n := pool.Len()
	if cap(b.a) < n {
		b.a = make([]float32, n)
		b.p = make([]float32, n)
	}
	A, P := b.a[:n], b.p[:n]

	noiseA, noiseP := pregenNoise(n, rnd, p)

	workers := b.workers()
	if workers > n {
		workers = n
	}
	if workers <= 1 || n == 0 {
		computeInfluences(pool, store, p, A, P)
		inhibition := p.GlobalInhibition * InhibitionMean(A, p.InhibitionMode)
		for i := 0; i < n; i++ {
			UpdateUnit(i, A[i], P[i], inhibition, pool, p, noiseA[i], noiseP[i])
		}
		pool.ClearPending()
		return
	}

	chunk := (n + workers - 1) / workers

	// Phase 1: neighbor influence, read-only over pool/store.
	b.fanOut(n, chunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			A[i], P[i] = NeighborInfluence(i, pool, store, p)
		}
	})

	inhibition := p.GlobalInhibition * InhibitionMean(A, p.InhibitionMode)

	// Phase 2: per-unit write, disjoint index ranges per worker.
	b.fanOut(n, chunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			UpdateUnit(i, A[i], P[i], inhibition, pool, p, noiseA[i], noiseP[i])
		}
	})

	pool.ClearPending()
}

func (b *ThreadedBackend) fanOut(n, chunk int, work func(lo, hi int)) {
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		b.wg.Add(1)
		go func(lo, hi int) {
			defer b.wg.Done()
			work(lo, hi)
		}(lo, hi)
	}
	b.wg.Wait()
}
