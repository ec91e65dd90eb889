package structural

// Params is the subset of brain configuration structural maintenance reads
// every tick plus the fixed compaction age interval.
type Params struct {
	ForgetRate float32 // multiplicative decay per tick
	PruneBelow float32 // epsilon: |w| floor before tombstoning/engram-clamp

	CompactAgeInterval    uint64  // e.g. 1000
	CompactTombstoneRatio float64 // e.g. 0.25
}
