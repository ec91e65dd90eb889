// kernel.go holds the pure, backend-agnostic per-unit update math. Every
// backend (scalar, vectorized, threaded, offloaded) calls exactly these
// two functions per unit; they differ only in how they loop and fan out
// work, never in the arithmetic, so results agree up to floating-point
// rounding.
package dynamics

import (
	"math"

	"github.com/maplumi/braine-sub000/csr"
	"github.com/maplumi/braine-sub000/unit"
)

// NeighborInfluence computes the amplitude and phase neighbor-influence
// terms A_i and P_i for unit i. The CSR store used throughout this module
// is keyed so that Each(i, ...) enumerates i's afferents (units it
// receives influence from), which keeps this a single forward scan with no
// transpose step at tick time; see brain's topology construction.
func NeighborInfluence(i int, pool *unit.Pool, store *csr.Store, p Params) (amp, phase float32) {
	var A, P float32
	phi_i := pool.Phase[i]
	store.Each(i, func(slot int, target uint32, weight float32) {
		j := int(target)
		A += weight * pool.Amp[j]
		delta := wrapDelta(pool.Phase[j] - phi_i)
		P += weight * phaseCoupling(delta, p)
	})
	P *= p.PhaseCouplingGain
	return A, P
}

func wrapDelta(d float32) float32 {
	return unit.WrapPhase(d)
}

func phaseCoupling(delta float32, p Params) float32 {
	switch p.PhaseCouplingMode {
	case PhaseCouplingSin:
		return float32(math.Sin(float64(delta)))
	case PhaseCouplingTanh:
		return float32(math.Tanh(float64(delta) * float64(p.PhaseCouplingK)))
	default: // linear
		return delta * p.PhaseCouplingK
	}
}

// InhibitionMean reduces the per-unit amplitude-influence array A to a
// single scalar per the configured InhibitionMode.
func InhibitionMean(A []float32, mode InhibitionMode) float32 {
	if len(A) == 0 {
		return 0
	}
	var sum float32
	for _, a := range A {
		switch mode {
		case InhibitionAbs:
			sum += float32(math.Abs(float64(a)))
		case InhibitionRectified:
			if a > 0 {
				sum += a
			}
		default:
			sum += a
		}
	}
	return sum / float32(len(A))
}

// UpdateUnit advances unit i's amplitude, phase, activity trace and
// salience by one tick given its precomputed neighbor influences, the
// global inhibition scalar, and pre-generated noise samples. It mutates
// pool in place and returns nothing: callers writing to disjoint indices
// (as all backends do) may call this concurrently.
func UpdateUnit(i int, A, P, inhibition float32, pool *unit.Pool, p Params, noiseA, noisePhase float32) {
	a := pool.Amp[i]
	damping := pool.Decay[i] * a
	saturation := -p.AmpSaturationBeta * a * a * a
	u := pool.Pending[i]

	da := (pool.Bias[i] + u + A - inhibition - damping + saturation + noiseA) * p.Dt
	newAmp := unit.ClampAmp(a + da)

	dphi := (p.BaseFreq + P + noisePhase) * p.Dt
	newPhase := unit.WrapPhase(pool.Phase[i] + dphi)

	pos := float32(0)
	if newAmp > 0 {
		pos = newAmp
	}
	newTrace := (1-p.ActivityTraceDecay)*pool.ActivTrace[i] + p.ActivityTraceDecay*pos

	excess := newTrace - p.CoactiveThreshold
	if excess < 0 {
		excess = 0
	}
	newSalience := unit.ClampSalience((1-p.SalienceDecay)*pool.Salience[i] + p.SalienceGain*excess)

	pool.Amp[i] = newAmp
	pool.Phase[i] = newPhase
	pool.ActivTrace[i] = newTrace
	pool.Salience[i] = newSalience
}
