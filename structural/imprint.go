package structural

import (
	"github.com/maplumi/braine-sub000/csr"
	"github.com/maplumi/braine-sub000/rng"
	"github.com/maplumi/braine-sub000/unit"
)

// ImprintStrengthMin and ImprintOutgoingMax are the one-shot imprinting
// trigger thresholds: a sensor group fires strongly (at or above
// ImprintStrengthMin) while its total outgoing |weight| is at or below
// ImprintOutgoingMax, meaning it has not yet claimed a concept unit.
const (
	ImprintStrengthMin = 0.4
	ImprintOutgoingMax = 3.0
	ImprintQuietTrace  = 0.1

	imprintWeightMin = -1.5
	imprintWeightMax = 1.5
)

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Imprint wires a quiet unit into a bidirectional engram with groupIDs when
// the strong/novel-stimulation trigger fires, returning whether a unit was
// claimed. It is the one-shot sensor<->concept binding operation: the new
// engram connects outward at imprintRate and returns at 0.7*imprintRate,
// clamped to the same range every other weight update respects, with a
// small bias bump so the claimed unit starts participating in its own
// right.
func Imprint(pool *unit.Pool, store *csr.Store, groupIDs []int32, strength, imprintRate float32, r *rng.Source) bool {
	if strength < ImprintStrengthMin {
		return false
	}
	if !groupOutgoingBelow(store, groupIDs, ImprintOutgoingMax) {
		return false
	}

	concept := findQuietUnit(pool, r)
	if concept < 0 {
		return false
	}

	out := clamp32(imprintRate, imprintWeightMin, imprintWeightMax)
	back := clamp32(0.7*imprintRate, imprintWeightMin, imprintWeightMax)

	pool.Reserved[concept] = true
	c := uint32(concept)
	for _, gid := range groupIDs {
		_ = store.AddOrBump(int(gid), c, out)
		if slot := store.Find(int(gid), c); slot >= 0 {
			store.Weights[slot] = clamp32(store.Weights[slot], imprintWeightMin, imprintWeightMax)
		}
		_ = store.AddOrBump(concept, uint32(gid), back)
		if slot := store.Find(concept, uint32(gid)); slot >= 0 {
			store.Weights[slot] = clamp32(store.Weights[slot], imprintWeightMin, imprintWeightMax)
		}
	}
	pool.Bias[concept] = unit.ClampBias(pool.Bias[concept] + 0.04)
	return true
}

func groupOutgoingBelow(store *csr.Store, groupIDs []int32, max float32) bool {
	var total float32
	for _, gid := range groupIDs {
		store.Each(int(gid), func(slot int, target uint32, weight float32) {
			if weight < 0 {
				total += -weight
			} else {
				total += weight
			}
		})
	}
	return total <= max
}

// findQuietUnit scans for the first unit with near-zero activity and no
// existing group membership, starting from a randomized offset so repeated
// imprint events don't always claim the lowest-indexed quiet unit.
func findQuietUnit(pool *unit.Pool, r *rng.Source) int {
	n := pool.Len()
	if n == 0 {
		return -1
	}
	start := r.IntN(n)
	for k := 0; k < n; k++ {
		i := (start + k) % n
		if pool.IsQuiet(i, ImprintQuietTrace) {
			return i
		}
	}
	return -1
}
