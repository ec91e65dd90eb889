// Package action implements readout of action-group activity into a
// selectable action name: a pure-dynamics habit score, a causal-memory-
// derived meaning score, their weighted combination with exploration
// noise, and a non-mutating breakdown for introspection.
package action

import (
	"github.com/maplumi/braine-sub000/causal"
	"github.com/maplumi/braine-sub000/group"
	"github.com/maplumi/braine-sub000/rng"
	"github.com/maplumi/braine-sub000/symbol"
	"github.com/maplumi/braine-sub000/unit"
)

// Candidate names one allowed action group and the context-paired symbol
// used for its conditional meaning term. PairSymbol is symbol.Invalid if no
// such pairing has been observed yet, in which case M_k^cond is 0 since
// causal.Memory.Strength treats an unseen symbol as 0.
type Candidate struct {
	Name       string
	Group      *group.Group
	ActionSym  symbol.ID
	PairSymbol symbol.ID
}

// HabitScore returns sum_i a_i over the action group's member units.
func HabitScore(pool *unit.Pool, g *group.Group) float32 {
	var sum float32
	for _, id := range g.Ids {
		sum += pool.Amp[id]
	}
	return sum
}

// HabitNorm returns clip(sum(max(0,a_i))/(2*|group|), 0, 1).
func HabitNorm(pool *unit.Pool, g *group.Group) float32 {
	if len(g.Ids) == 0 {
		return 0
	}
	var sum float32
	for _, id := range g.Ids {
		if pool.Amp[id] > 0 {
			sum += pool.Amp[id]
		}
	}
	v := sum / (2 * float32(len(g.Ids)))
	return clip(v, 0, 1)
}

func clip(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Meaning returns M_k = M_k^cond + globalWeight*M_k^global, where
// M_k^global = S(actionSym,rewardPos) -
// S(actionSym,rewardNeg) and M_k^cond is the same difference computed on
// pairSym (0 if pairSym is symbol.Invalid).
func Meaning(mem *causal.Memory, actionSym, pairSym, rewardPos, rewardNeg symbol.ID, globalWeight float32) float32 {
	global := mem.Strength(actionSym, rewardPos) - mem.Strength(actionSym, rewardNeg)
	var cond float32
	if pairSym != symbol.Invalid {
		cond = mem.Strength(pairSym, rewardPos) - mem.Strength(pairSym, rewardNeg)
	}
	return cond + globalWeight*global
}

// CombinedScore returns habitWeight*habitNorm + alpha*meaning.
func CombinedScore(habitNorm, meaning, alpha float32, p Params) float32 {
	return p.HabitWeight*habitNorm + alpha*meaning
}

// Breakdown is one candidate's introspection row.
type Breakdown struct {
	Name      string
	HabitNorm float32
	Meaning   float32
	Score     float32
}

// ScoreBreakdown computes each candidate's (habit_norm, meaning, score)
// without any exploration noise and without mutating state: pure
// introspection.
func ScoreBreakdown(pool *unit.Pool, mem *causal.Memory, candidates []Candidate, rewardPos, rewardNeg symbol.ID, alpha float32, p Params) []Breakdown {
	out := make([]Breakdown, len(candidates))
	for k, c := range candidates {
		hn := HabitNorm(pool, c.Group)
		m := Meaning(mem, c.ActionSym, c.PairSymbol, rewardPos, rewardNeg, p.GlobalMeaningWeight)
		out[k] = Breakdown{
			Name:      c.Name,
			HabitNorm: hn,
			Meaning:   m,
			Score:     CombinedScore(hn, m, alpha, p),
		}
	}
	return out
}

// SelectHabitOnly picks the candidate with the highest habit-only score
// (alpha=0, no meaning term, no exploration), i.e. select_action without
// a causal-memory bias. Ties break by ascending candidate index.
func SelectHabitOnly(pool *unit.Pool, candidates []Candidate, p Params) (string, float32) {
	best := -1
	var bestScore float32
	for k, c := range candidates {
		s := HabitNorm(pool, c.Group) * p.HabitWeight
		if best < 0 || s > bestScore {
			best = k
			bestScore = s
		}
	}
	if best < 0 {
		return "", 0
	}
	return candidates[best].Name, bestScore
}

// SelectWithMeaning combines habit and meaning scores, applies Gaussian
// exploration noise per candidate, and with probability epsilon picks
// uniformly at random instead of the argmax. Ties after noise break by
// ascending candidate index.
func SelectWithMeaning(pool *unit.Pool, mem *causal.Memory, candidates []Candidate, rewardPos, rewardNeg symbol.ID, alpha float32, p Params, r *rng.Source) (string, float32) {
	if len(candidates) == 0 {
		return "", 0
	}
	if p.Epsilon > 0 && r.Float32() < p.Epsilon {
		pick := r.IntN(len(candidates))
		hn := HabitNorm(pool, candidates[pick].Group)
		m := Meaning(mem, candidates[pick].ActionSym, candidates[pick].PairSymbol, rewardPos, rewardNeg, p.GlobalMeaningWeight)
		return candidates[pick].Name, CombinedScore(hn, m, alpha, p)
	}

	best := -1
	var bestScore float32
	for k, c := range candidates {
		hn := HabitNorm(pool, c.Group)
		m := Meaning(mem, c.ActionSym, c.PairSymbol, rewardPos, rewardNeg, p.GlobalMeaningWeight)
		s := CombinedScore(hn, m, alpha, p)
		if p.ExplorationNoise > 0 {
			s += float32(p.ExplorationNoise) * r.Gaussian()
		}
		if best < 0 || s > bestScore {
			best = k
			bestScore = s
		}
	}
	return candidates[best].Name, bestScore
}
