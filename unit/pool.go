// Package unit implements the per-unit scalar arrays: amplitude, phase,
// bias, decay, salience, the derived slow activity trace, and the per-unit
// masks (reserved/learning-enabled/group membership) plus the
// pending-input accumulation buffer. Everything here is a struct-of-arrays
// so the dynamics kernel can stream over it without per-unit pointer
// chasing, keeping flat parallel slices the way a connectivity registry
// keeps its own bookkeeping flat.
package unit

import "math"

const (
	AmpMin      = -2.0
	AmpMax      = 2.0
	PhaseMin    = -math.Pi
	PhaseMax    = math.Pi
	BiasMin     = -0.5
	BiasMax     = 0.5
	SalienceMin = 0.0
	SalienceMax = 10.0
)

// Pool holds every unit's scalar state as parallel slices, all the same
// length (unit count).
type Pool struct {
	Amp        []float32 // amplitude, a in [-2,2]
	Phase      []float32 // phase, phi in [-pi,pi]
	Bias       []float32 // b in [-0.5,0.5]
	Decay      []float32 // lambda > 0
	Salience   []float32 // s in [0,10]
	ActivTrace []float32 // derived, not persisted: EMA of max(0,a)

	Reserved        []bool // concept units never in a sensor/action group
	LearningEnabled []bool
	SensorOf        []int32 // >= 0 if in some sensor group, -1 otherwise
	ActionOf        []int32 // >= 0 if in some action group, -1 otherwise

	Pending []float32 // per-tick stimulus accumulation, cleared after each step
}

// New allocates an empty pool (zero units). Use AppendUnit to add units.
func New() *Pool {
	return &Pool{}
}

// Len returns the number of units in the pool.
func (p *Pool) Len() int { return len(p.Amp) }

// Clamp bounds for unit fields, applied after every dynamics/plasticity
// write so range invariants hold unconditionally.
func ClampAmp(a float32) float32 { return clamp32(a, AmpMin, AmpMax) }

func ClampBias(b float32) float32 { return clamp32(b, BiasMin, BiasMax) }

func ClampSalience(s float32) float32 { return clamp32(s, SalienceMin, SalienceMax) }

// WrapPhase wraps phi into [-pi,pi].
func WrapPhase(phi float32) float32 {
	p := float64(phi)
	for p > math.Pi {
		p -= 2 * math.Pi
	}
	for p < -math.Pi {
		p += 2 * math.Pi
	}
	return float32(p)
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AppendUnit adds one unit with the given initial scalars, defaulting masks
// to "not reserved, learning enabled, no group membership".
func (p *Pool) AppendUnit(amp, phase, bias, decay, salience float32) {
	p.Amp = append(p.Amp, ClampAmp(amp))
	p.Phase = append(p.Phase, WrapPhase(phase))
	p.Bias = append(p.Bias, ClampBias(bias))
	p.Decay = append(p.Decay, decay)
	p.Salience = append(p.Salience, ClampSalience(salience))
	p.ActivTrace = append(p.ActivTrace, 0)
	p.Reserved = append(p.Reserved, false)
	p.LearningEnabled = append(p.LearningEnabled, true)
	p.SensorOf = append(p.SensorOf, -1)
	p.ActionOf = append(p.ActionOf, -1)
	p.Pending = append(p.Pending, 0)
}

// Reserve pre-allocates capacity for `extra` additional units, so
// neurogenesis can grow the pool without repeated reallocation spikes.
func (p *Pool) Reserve(extra int) {
	grow := func(s []float32) []float32 {
		if cap(s)-len(s) >= extra {
			return s
		}
		n := make([]float32, len(s), len(s)+extra)
		copy(n, s)
		return n
	}
	p.Amp = grow(p.Amp)
	p.Phase = grow(p.Phase)
	p.Bias = grow(p.Bias)
	p.Decay = grow(p.Decay)
	p.Salience = grow(p.Salience)
	p.ActivTrace = grow(p.ActivTrace)
	p.Pending = grow(p.Pending)

	growB := func(s []bool) []bool {
		if cap(s)-len(s) >= extra {
			return s
		}
		n := make([]bool, len(s), len(s)+extra)
		copy(n, s)
		return n
	}
	p.Reserved = growB(p.Reserved)
	p.LearningEnabled = growB(p.LearningEnabled)

	growI := func(s []int32) []int32 {
		if cap(s)-len(s) >= extra {
			return s
		}
		n := make([]int32, len(s), len(s)+extra)
		copy(n, s)
		return n
	}
	p.SensorOf = growI(p.SensorOf)
	p.ActionOf = growI(p.ActionOf)
}

// ClearPending zeroes the pending-input buffer, run after every dynamics
// tick once pending_input has been folded into the update.
func (p *Pool) ClearPending() {
	for i := range p.Pending {
		p.Pending[i] = 0
	}
}

// AddStimulus accumulates strength into unit i's pending-input buffer; the
// dynamics kernel reads it as u_i in the amplitude increment.
func (p *Pool) AddStimulus(i int, strength float32) {
	p.Pending[i] += strength
}

// IsQuiet reports whether unit i has near-zero activity trace and isn't
// already part of a group: the candidate pool for imprinting.
func (p *Pool) IsQuiet(i int, threshold float32) bool {
	return p.ActivTrace[i] < threshold && p.SensorOf[i] < 0 && p.ActionOf[i] < 0 && !p.Reserved[i]
}
