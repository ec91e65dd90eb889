// Package plasticity implements the local three-factor learning rule: a
// per-edge eligibility trace updated every tick from coactivity and phase
// alignment, committed to weight changes only when a neuromodulator signal
// clears a deadband, and rescaled to stay within a per-step L1 budget. The
// eligibility trace lives on csr.Store.Elig, a parallel array the store
// itself keeps in lockstep with Targets/Weights across structural
// mutations (insert, tombstone reuse, compaction).
package plasticity

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/maplumi/braine-sub000/csr"
	"github.com/maplumi/braine-sub000/unit"
)

// Engine owns the optional attention-gate active set. A zero-value Engine
// has no active gate and every edge participates normally.
type Engine struct {
	active []bool // nil = ungated
}

// AttentionGate restricts the eligible unit set to the top topFraction of
// units by activity trace, until ResetLearningGates is called. topFraction
// is clamped to (0,1].
func (e *Engine) AttentionGate(pool *unit.Pool, topFraction float32) {
	n := pool.Len()
	if n == 0 {
		return
	}
	if topFraction <= 0 {
		topFraction = 1e-6
	}
	if topFraction > 1 {
		topFraction = 1
	}
	keep := int(float32(n) * topFraction)
	if keep < 1 {
		keep = 1
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	// Partial selection: simple full sort is fine at gate-set granularity
	// (an infrequent operational call, not a per-tick hot path).
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if pool.ActivTrace[idx[j]] > pool.ActivTrace[idx[i]] {
				idx[i], idx[j] = idx[j], idx[i]
			}
		}
	}

	active := make([]bool, n)
	for k := 0; k < keep; k++ {
		active[idx[k]] = true
	}
	e.active = active
}

// ResetLearningGates clears any active attention gate; every edge
// participates in eligibility/commit again.
func (e *Engine) ResetLearningGates() {
	e.active = nil
}

func (e *Engine) gated(i, j int) bool {
	if e.active == nil {
		return false
	}
	return !(e.active[i] && e.active[j])
}

func softplus(x, sigma float32) float32 {
	if sigma <= 0 {
		if x > 0 {
			return x
		}
		return 0
	}
	return sigma * float32(math.Log1p(math.Exp(float64(x/sigma))))
}

func sigmoidGate(l, kappa, softness float32) float32 {
	if softness <= 0 {
		if l >= kappa {
			return 1
		}
		return 0
	}
	return float32(1 / (1 + math.Exp(-float64(softness*(l-kappa)))))
}

// align returns a phase-locking value in [0,1] from two phases: 1 when
// in-phase, 0 when in anti-phase, using the standard cosine phase-locking
// measure.
func align(phiI, phiJ float32) float32 {
	delta := unit.WrapPhase(phiI - phiJ)
	return (float32(math.Cos(float64(delta))) + 1) / 2
}

// UpdateEligibility runs the no-weight-change half of the tick, reading
// the unit pool's activity traces/phases written by the dynamics step just
// completed.
func (e *Engine) UpdateEligibility(pool *unit.Pool, store *csr.Store, p Params) {
	n := store.UnitCount()
	for i := 0; i < n; i++ {
		abarI := pool.ActivTrace[i]
		phiI := pool.Phase[i]
		store.Each(i, func(slot int, target uint32, weight float32) {
			j := int(target)
			if e.gated(i, j) {
				return
			}
			abarJ := pool.ActivTrace[j]
			if p.ActiveSetTau > 0 && abarI < p.ActiveSetTau && abarJ < p.ActiveSetTau {
				return
			}
			ci := softplus(abarI-p.CoactiveThreshold, p.CoactiveSoftness)
			cj := softplus(abarJ-p.CoactiveThreshold, p.CoactiveSoftness)
			c := float32(math.Sqrt(float64(ci * cj)))

			l := align(phiI, pool.Phase[j])
			sigma := sigmoidGate(l, p.PhaseLockThreshold, p.PhaseGateSoftness)
			corr := (1-sigma)*(-0.05) + sigma*l

			prev := store.Elig[slot]
			next := (1-p.EligibilityDecay)*prev + p.EligibilityGain*c*corr
			store.Elig[slot] = clamp32(next, -2, 2)
		})
	}
}

// CommitResult summarizes a neuromodulated commit for learning_stats().
type CommitResult struct {
	Committed       bool
	PlasticityL1    float32 // sum|delta w| actually applied
	PlasticityEdges int     // number of edges with nonzero delta w
	BudgetUsed      float32 // PlasticityL1 / budget, 0 if budget is unbounded
	EligibilityL1   float32 // sum|eligibility| across all valid edges, post-update
}

// Commit applies the neuromodulated weight update when |m| clears the
// learning deadband. It always returns an EligibilityL1 figure
// (diagnostic), even when no commit occurs.
func (e *Engine) Commit(pool *unit.Pool, store *csr.Store, p Params, m float32) CommitResult {
	result := CommitResult{EligibilityL1: eligibilityL1(store)}

	if float32(math.Abs(float64(m))) <= p.LearningDeadband {
		return result
	}

	type pending struct {
		slot int
		i, j int
		dw   float32
	}
	var deltas []pending

	n := store.UnitCount()
	for i := 0; i < n; i++ {
		store.Each(i, func(slot int, target uint32, weight float32) {
			j := int(target)
			if e.gated(i, j) {
				return
			}
			dw := clamp32(p.HebbRate*m*store.Elig[slot], -0.25, 0.25)
			if dw != 0 {
				deltas = append(deltas, pending{slot: slot, i: i, j: j, dw: dw})
			}
		})
	}

	if len(deltas) == 0 {
		result.Committed = true
		return result
	}

	abs := make([]float64, len(deltas))
	for k, d := range deltas {
		abs[k] = math.Abs(float64(d.dw))
	}
	l1 := floats.Sum(abs)

	scale := float32(1.0)
	budgetUsed := float32(0)
	if p.PlasticityBudget > 0 && l1 > float64(p.PlasticityBudget) {
		scale = p.PlasticityBudget / float32(l1)
		budgetUsed = 1.0
	} else if p.PlasticityBudget > 0 {
		budgetUsed = float32(l1) / p.PlasticityBudget
	}

	var applied float64
	for _, d := range deltas {
		dw := d.dw * scale
		store.Weights[d.slot] = clamp32(store.Weights[d.slot]+dw, -1.5, 1.5)
		applied += math.Abs(float64(dw))
	}

	result.Committed = true
	result.PlasticityL1 = float32(applied)
	result.PlasticityEdges = len(deltas)
	result.BudgetUsed = budgetUsed
	return result
}

func eligibilityL1(store *csr.Store) float32 {
	if len(store.Elig) == 0 {
		return 0
	}
	abs := make([]float64, 0, len(store.Elig))
	n := store.UnitCount()
	for i := 0; i < n; i++ {
		store.Each(i, func(slot int, target uint32, weight float32) {
			abs = append(abs, math.Abs(float64(store.Elig[slot])))
		})
	}
	return float32(floats.Sum(abs))
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
