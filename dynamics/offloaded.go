package dynamics

import (
	"sync"

	"github.com/maplumi/braine-sub000/csr"
	"github.com/maplumi/braine-sub000/rng"
	"github.com/maplumi/braine-sub000/unit"
)

// Device is the compute-device contract for the offloaded-dense backend.
// Only the dense per-unit update is offloaded; sparse neighbor
// accumulation always stays on the host. A real GPU/accelerator binding
// would implement this interface against its own submit/readback queue;
// DefaultDevice below is the CPU reference implementation used when no
// such binding is wired in.
type Device interface {
	// ComputeDense runs UpdateUnit for every unit in [lo,hi) against pool,
	// given precomputed neighbor influences, inhibition, and noise. It may
	// block (device synchronization) before returning.
	ComputeDense(pool *unit.Pool, p Params, A, P []float32, inhibition float32, noiseA, noiseP []float32, lo, hi int)
}

// DefaultDevice runs ComputeDense on the calling goroutine; it exists so
// the offloaded backend's lifecycle and interface boundary can be exercised
// without a real accelerator present.
type DefaultDevice struct{}

func (DefaultDevice) ComputeDense(pool *unit.Pool, p Params, A, P []float32, inhibition float32, noiseA, noiseP []float32, lo, hi int) {
	for i := lo; i < hi; i++ {
		UpdateUnit(i, A[i], P[i], inhibition, pool, p, noiseA[i], noiseP[i])
	}
}

var (
	deviceMu   sync.Mutex
	deviceHnd  Device
	deviceRefs int
)

// DeviceGuard releases a device acquisition exactly once. Callers must
// defer guard.Release() immediately after a successful AcquireDevice, so
// the handle is torn down on every exit path including a panic unwind.
type DeviceGuard struct {
	released bool
}

// Release decrements the process-wide device reference count, tearing the
// handle down when it reaches zero. Safe to call more than once.
func (g *DeviceGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	deviceMu.Lock()
	defer deviceMu.Unlock()
	deviceRefs--
	if deviceRefs <= 0 {
		deviceHnd = nil
		deviceRefs = 0
	}
}

// AcquireDevice lazily initializes the process-wide device handle on first
// use, the only shared process-wide state in the package; init/teardown
// follows the owner's lifecycle. Returns a guard the owner must release.
func AcquireDevice(factory func() Device) (Device, *DeviceGuard) {
	deviceMu.Lock()
	defer deviceMu.Unlock()
	if deviceHnd == nil {
		if factory == nil {
			factory = func() Device { return DefaultDevice{} }
		}
		deviceHnd = factory()
	}
	deviceRefs++
	return deviceHnd, &DeviceGuard{}
}

// OffloadedBackend keeps sparse neighbor accumulation on the host and
// submits only the dense per-unit update to Device. Cancellation/timeout:
// like every backend, a submitted tick is treated as an uninterruptible
// unit of work; the device boundary may additionally block briefly for
// synchronization between submit and readback.
type OffloadedBackend struct {
	device Device
	guard  *DeviceGuard
	a, p   []float32
}

// NewOffloadedBackend acquires (and on Close releases) a device handle. If
// device is nil, the lazily-initialized default CPU device is used.
func NewOffloadedBackend(device Device) *OffloadedBackend {
	dev, guard := AcquireDevice(func() Device {
		if device != nil {
			return device
		}
		return DefaultDevice{}
	})
	return &OffloadedBackend{device: dev, guard: guard}
}

// Close releases the backend's device acquisition. Safe to call multiple
// times; safe to defer immediately after construction.
func (b *OffloadedBackend) Close() {
	if b.guard != nil {
		b.guard.Release()
	}
}

func (b *OffloadedBackend) Step(pool *unit.Pool, store *csr.Store, rnd *rng.Source, p Params) {
	n := pool.Len()
	if cap(b.a) < n {
		b.a = make([]float32, n)
		b.p = make([]float32, n)
	}
	A, P := b.a[:n], b.p[:n]

	noiseA, noiseP := pregenNoise(n, rnd, p)

	computeInfluences(pool, store, p, A, P)
	inhibition := p.GlobalInhibition * InhibitionMean(A, p.InhibitionMode)

	b.device.ComputeDense(pool, p, A, P, inhibition, noiseA, noiseP, 0, n)
	pool.ClearPending()
}
