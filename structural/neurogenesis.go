package structural

import (
	"github.com/maplumi/braine-sub000/csr"
	"github.com/maplumi/braine-sub000/rng"
	"github.com/maplumi/braine-sub000/unit"
)

// ShouldGrow reports whether the mean absolute weight over all valid edges
// exceeds threshold, the neurogenesis trigger: a densely loaded graph is
// the signal that more capacity is needed.
func ShouldGrow(store *csr.Store, threshold float64) bool {
	n := store.UnitCount()
	var sum float64
	var count int
	for i := 0; i < n; i++ {
		store.Each(i, func(slot int, target uint32, weight float32) {
			sum += abs64(float64(weight))
			count++
		})
	}
	if count == 0 {
		return false
	}
	return sum/float64(count) > threshold
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// GrowUnits appends count fresh concept units (amp 0, random phase, small
// positive bias, default decay) and wires each with connectivity random
// outgoing edges and connectivity/2 random incoming edges, all with small
// positive initial weight.
func GrowUnits(pool *unit.Pool, store *csr.Store, count, connectivity int, r *rng.Source) []int32 {
	if count <= 0 {
		return nil
	}
	pool.Reserve(count)
	store.Reserve(count * (connectivity + connectivity/2 + 1))

	base := int32(pool.Len())
	ids := make([]int32, 0, count)
	for k := 0; k < count; k++ {
		phase := r.UniformF32(-3.14159265, 3.14159265)
		pool.AppendUnit(0, phase, 0.05, 1.0, 0)
		store.AddUnit()
		ids = append(ids, base+int32(k))
	}

	n := int32(pool.Len())
	for _, id := range ids {
		for k := 0; k < connectivity; k++ {
			tgt := uint32(r.IntN(int(n)))
			if tgt == uint32(id) {
				continue
			}
			_ = store.AddOrBump(int(id), tgt, 0.05+r.Float32()*0.05)
		}
		for k := 0; k < connectivity/2; k++ {
			src := int(r.IntN(int(n)))
			if int32(src) == id {
				continue
			}
			_ = store.AddOrBump(src, uint32(id), 0.05+r.Float32()*0.05)
		}
	}
	return ids
}

// GrowForGroup appends count fresh units preferentially wired to and from
// the members of groupIDs: each new unit receives inN random incoming edges
// from the group and outN random outgoing edges to the group, on top of the
// baseline connectivity GrowUnits would have given it.
func GrowForGroup(pool *unit.Pool, store *csr.Store, groupIDs []int32, count, connectivity, inN, outN int, r *rng.Source) []int32 {
	if count <= 0 || len(groupIDs) == 0 {
		return GrowUnits(pool, store, count, connectivity, r)
	}
	ids := GrowUnits(pool, store, count, connectivity, r)
	for _, id := range ids {
		for k := 0; k < inN; k++ {
			src := groupIDs[r.IntN(len(groupIDs))]
			_ = store.AddOrBump(int(src), uint32(id), 0.05+r.Float32()*0.05)
		}
		for k := 0; k < outN; k++ {
			tgt := groupIDs[r.IntN(len(groupIDs))]
			_ = store.AddOrBump(int(id), uint32(tgt), 0.05+r.Float32()*0.05)
		}
	}
	return ids
}

// MaybeNeurogenesis grows min(count, maxUnits-currentUnits) units if
// ShouldGrow reports the graph is densely loaded, returning the number of
// units actually grown, bounded by the configured unit cap.
func MaybeNeurogenesis(pool *unit.Pool, store *csr.Store, threshold float64, count, maxUnits int, r *rng.Source, connectivity int) int {
	if !ShouldGrow(store, threshold) {
		return 0
	}
	room := maxUnits - pool.Len()
	if room <= 0 {
		return 0
	}
	if count > room {
		count = room
	}
	GrowUnits(pool, store, count, connectivity, r)
	return count
}
