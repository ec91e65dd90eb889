// Package structural implements structural maintenance of the connection
// graph: multiplicative weight decay, engram-protected sensor<->concept
// edges, tombstone pruning, periodic/threshold compaction, and growth
// (neurogenesis, group-targeted growth). The decay-then-prune shape mirrors
// a glial health-monitoring sweep, generalized from per-synapse biological
// bookkeeping to a flat CSR weight array.
package structural

import (
	"math"

	"github.com/maplumi/braine-sub000/csr"
	"github.com/maplumi/braine-sub000/unit"
)

// IsEngramEdge reports whether the edge i->j connects a sensor-group unit
// to a reserved concept unit (in either direction). Such edges decay but
// are never pruned to zero.
func IsEngramEdge(pool *unit.Pool, i, j int) bool {
	iSensor := pool.SensorOf[i] >= 0
	jSensor := pool.SensorOf[j] >= 0
	iConcept := pool.Reserved[i]
	jConcept := pool.Reserved[j]
	return (iSensor && jConcept) || (iConcept && jSensor)
}

// Result summarizes one call to Maintain, feeding diagnostics().
type Result struct {
	PrunedLastStep int
}

// Maintain runs the per-tick decay/protect/prune pass over every valid
// edge in store.
func Maintain(pool *unit.Pool, store *csr.Store, p Params) Result {
	var res Result
	n := store.UnitCount()
	for i := 0; i < n; i++ {
		store.Each(i, func(slot int, target uint32, weight float32) {
			j := int(target)
			w := weight * (1 - p.ForgetRate)

			if IsEngramEdge(pool, i, j) {
				if float32(math.Abs(float64(w))) < p.PruneBelow {
					w = sign32(w) * p.PruneBelow
				}
				store.Weights[slot] = w
				return
			}

			if float32(math.Abs(float64(w))) < p.PruneBelow {
				store.Tombstone(slot)
				res.PrunedLastStep++
				return
			}
			store.Weights[slot] = w
		})
	}
	return res
}

func sign32(v float32) float32 {
	if v < 0 {
		return -1
	}
	if v > 0 {
		return 1
	}
	// zero weight decaying to exactly zero: protect as positive so the
	// engram edge doesn't collapse to a true zero.
	return 1
}

// ShouldCompact reports whether age-based or tombstone-ratio-based
// compaction is due (age counter wrapping to 0 mod the interval, or the
// tombstone ratio exceeding threshold).
func ShouldCompact(ageSteps uint64, store *csr.Store, p Params) bool {
	interval := p.CompactAgeInterval
	if interval == 0 {
		interval = 1000
	}
	if ageSteps != 0 && ageSteps%interval == 0 {
		return true
	}
	return store.ShouldCompact(p.CompactTombstoneRatio)
}
