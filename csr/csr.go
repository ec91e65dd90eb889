// Package csr implements the sparse directed connection store: three
// parallel arrays (targets, weights, offsets) keyed by source unit,
// with in-segment tombstone reuse and threshold-driven compaction. This is
// the structural backbone the dynamics and plasticity engines iterate over
// every tick, so segment iteration must stay allocation-free and
// tombstone-aware.
package csr

import "github.com/maplumi/braine-sub000/braineerr"

// Invalid marks a tombstoned slot: an edge entry whose target is no longer
// valid. Its weight is always 0.
const Invalid uint32 = 1<<32 - 1

// Store is the CSR connection table for N units. Segment i spans
// offsets[i]:offsets[i+1] in targets/weights.
type Store struct {
	Targets []uint32
	Weights []float32
	Offsets []uint32

	// Elig is the per-edge plasticity eligibility trace, kept as a
	// parallel array so every structural mutation below (insert,
	// tombstone-reuse, compact) moves it in lockstep with Targets/Weights
	// instead of requiring the plasticity engine to track slot moves
	// itself.
	Elig []float32

	tombstones int
	maxEdges   int // 0 = unbounded
}

// New creates an empty store sized for n units, each starting with an empty
// segment. maxEdges, if nonzero, caps the total number of edge slots
// (valid+tombstoned) the store will ever hold.
func New(n int, maxEdges int) *Store {
	return &Store{
		Offsets:  make([]uint32, n+1),
		maxEdges: maxEdges,
	}
}

// UnitCount returns the number of source segments (N).
func (s *Store) UnitCount() int { return len(s.Offsets) - 1 }

// AddUnit appends a new, empty segment for a newly created unit. Offsets
// grows by one entry, copying the last offset forward.
func (s *Store) AddUnit() {
	last := s.Offsets[len(s.Offsets)-1]
	s.Offsets = append(s.Offsets, last)
}

// Tombstones returns the number of tombstoned slots currently in the store.
func (s *Store) Tombstones() int { return s.tombstones }

// Len returns the total number of slots (valid + tombstoned).
func (s *Store) Len() int { return len(s.Targets) }

// ValidCount returns the number of valid (non-tombstoned) edges.
func (s *Store) ValidCount() int { return len(s.Targets) - s.tombstones }

// TombstoneRatio is tombstones/total, 0 if there are no edges at all.
func (s *Store) TombstoneRatio() float64 {
	if len(s.Targets) == 0 {
		return 0
	}
	return float64(s.tombstones) / float64(len(s.Targets))
}

// Segment returns the [start,end) slice bounds for unit i's segment.
func (s *Store) Segment(i int) (start, end uint32) {
	return s.Offsets[i], s.Offsets[i+1]
}

// Each iterates the valid edges in unit i's segment in storage order,
// skipping tombstones. fn receives the slot index (stable until the next
// structural mutation), target unit, and weight.
func (s *Store) Each(i int, fn func(slot int, target uint32, weight float32)) {
	start, end := s.Segment(i)
	for k := start; k < end; k++ {
		if s.Targets[k] == Invalid {
			continue
		}
		fn(int(k), s.Targets[k], s.Weights[k])
	}
}

// Find returns the slot index of the edge i->tgt within unit i's segment,
// or -1 if none exists (tombstones are not matched).
func (s *Store) Find(i int, tgt uint32) int {
	start, end := s.Segment(i)
	for k := start; k < end; k++ {
		if s.Targets[k] == tgt {
			return int(k)
		}
	}
	return -1
}

// AddOrBump implements the add-or-bump operation: if an edge i->tgt
// already exists, its weight is adjusted by delta; otherwise a
// tombstone within i's segment is reused, or a new slot is appended by
// shifting trailing segments forward and bumping offsets. Weight is clamped
// to [-1.5,1.5] by the caller (plasticity/imprint); this function only
// manages topology.
func (s *Store) AddOrBump(i int, tgt uint32, delta float32) error {
	if existing := s.Find(i, tgt); existing >= 0 {
		s.Weights[existing] += delta
		return nil
	}
	start, end := s.Segment(i)
	for k := start; k < end; k++ {
		if s.Targets[k] == Invalid {
			s.Targets[k] = tgt
			s.Weights[k] = delta
			s.Elig[k] = 0
			s.tombstones--
			return nil
		}
	}
	if s.maxEdges > 0 && len(s.Targets) >= s.maxEdges {
		return braineerr.New(braineerr.CapacityExceeded, "csr: edge capacity exhausted")
	}
	s.insertAt(i, int(end), tgt, delta)
	return nil
}

// insertAt inserts a new (target,weight) slot at position pos (the end of
// unit i's segment), shifting everything after it forward by one and
// bumping the offset of every unit after i. This is O(edges after pos);
// callers that build many edges up front should prefer pre-reserving
// capacity and appending to the last segment first.
func (s *Store) insertAt(i, pos int, tgt uint32, weight float32) {
	s.Targets = append(s.Targets, 0)
	copy(s.Targets[pos+1:], s.Targets[pos:len(s.Targets)-1])
	s.Targets[pos] = tgt

	s.Weights = append(s.Weights, 0)
	copy(s.Weights[pos+1:], s.Weights[pos:len(s.Weights)-1])
	s.Weights[pos] = weight

	s.Elig = append(s.Elig, 0)
	copy(s.Elig[pos+1:], s.Elig[pos:len(s.Elig)-1])
	s.Elig[pos] = 0

	for u := i + 1; u < len(s.Offsets); u++ {
		s.Offsets[u]++
	}
}

// Reserve pre-allocates capacity for at least extra additional edge slots,
// so bulk construction (initial topology, neurogenesis) can append without
// repeated reallocation.
func (s *Store) Reserve(extra int) {
	if cap(s.Targets)-len(s.Targets) >= extra {
		return
	}
	nt := make([]uint32, len(s.Targets), len(s.Targets)+extra)
	copy(nt, s.Targets)
	s.Targets = nt
	nw := make([]float32, len(s.Weights), len(s.Weights)+extra)
	copy(nw, s.Weights)
	s.Weights = nw
	ne := make([]float32, len(s.Elig), len(s.Elig)+extra)
	copy(ne, s.Elig)
	s.Elig = ne
}

// Tombstone marks the edge at slot as invalid without shifting any other
// data; it is the pruning primitive used by structural maintenance.
func (s *Store) Tombstone(slot int) {
	if s.Targets[slot] == Invalid {
		return
	}
	s.Targets[slot] = Invalid
	s.Weights[slot] = 0
	s.Elig[slot] = 0
	s.tombstones++
}

// Compact rebuilds the store with all tombstones removed, preserving
// within-segment edge ordering. It is triggered by the owner every N steps
// or when TombstoneRatio() exceeds a threshold (default 0.25).
func (s *Store) Compact() {
	if s.tombstones == 0 {
		return
	}
	n := s.UnitCount()
	newTargets := make([]uint32, 0, len(s.Targets)-s.tombstones)
	newWeights := make([]float32, 0, len(s.Weights)-s.tombstones)
	newElig := make([]float32, 0, len(s.Elig)-s.tombstones)
	newOffsets := make([]uint32, n+1)
	for i := 0; i < n; i++ {
		newOffsets[i] = uint32(len(newTargets))
		start, end := s.Segment(i)
		for k := start; k < end; k++ {
			if s.Targets[k] == Invalid {
				continue
			}
			newTargets = append(newTargets, s.Targets[k])
			newWeights = append(newWeights, s.Weights[k])
			newElig = append(newElig, s.Elig[k])
		}
	}
	newOffsets[n] = uint32(len(newTargets))
	s.Targets = newTargets
	s.Weights = newWeights
	s.Elig = newElig
	s.Offsets = newOffsets
	s.tombstones = 0
}

// ShouldCompact reports whether the tombstone ratio exceeds threshold (the
// structural-maintenance policy call, default 0.25).
func (s *Store) ShouldCompact(threshold float64) bool {
	return s.TombstoneRatio() > threshold
}
