// Package causal implements the bounded symbolic causal/meaning memory:
// exponentially decayed per-symbol counts and directed transition counts
// between observations, with periodic floor pruning and a clipped
// causal-strength score used by action readout's meaning term.
package causal

import (
	"sort"

	"github.com/maplumi/braine-sub000/symbol"
)

const (
	pruneEvery = 256
	pruneFloor = 0.001
)

func edgeKey(a, b symbol.ID) uint64 {
	return uint64(a)<<32 | uint64(b)
}

// Memory owns the two bounded count maps and the previous-observation
// symbol set.
type Memory struct {
	Decay float32

	base      map[symbol.ID]float32
	edges     map[uint64]float32
	baseTotal float32

	prevSymbols []symbol.ID
	observeCount uint64
}

// New creates an empty causal memory with the given per-observation decay
// rate.
func New(decay float32) *Memory {
	return &Memory{
		Decay: decay,
		base:  make(map[symbol.ID]float32),
		edges: make(map[uint64]float32),
	}
}

// dedup returns syms with duplicates removed, preserving first-seen order.
func dedup(syms []symbol.ID) []symbol.ID {
	seen := make(map[symbol.ID]bool, len(syms))
	out := make([]symbol.ID, 0, len(syms))
	for _, s := range syms {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Observe runs one causal-memory update: decays every count, increments
// base counts for the current (deduped) symbol set, adds directed edges
// from every previous symbol to every current symbol plus a half-weight
// unordered edge within the current set, prunes every 256th call, and
// replaces prev_symbols with the current set.
func (m *Memory) Observe(syms []symbol.ID) {
	current := dedup(syms)

	decay := float32(1) - m.Decay
	for s, v := range m.base {
		nv := v * decay
		m.base[s] = nv
		m.baseTotal -= v - nv
	}
	for k, v := range m.edges {
		m.edges[k] = v * decay
	}

	for _, s := range current {
		m.base[s] += 1
		m.baseTotal += 1
	}

	for _, a := range m.prevSymbols {
		for _, b := range current {
			m.edges[edgeKey(a, b)] += 1
		}
	}

	for i, a := range current {
		for j, b := range current {
			if i == j {
				continue
			}
			m.edges[edgeKey(a, b)] += 0.5
		}
	}

	m.observeCount++
	if m.observeCount%pruneEvery == 0 {
		m.prune()
	}

	m.prevSymbols = current
}

// ClearPrevSymbols empties prev_symbols without touching base/edges, used
// to give the next tick a clean transition boundary without contributing
// a causal update.
func (m *Memory) ClearPrevSymbols() {
	m.prevSymbols = nil
}

func (m *Memory) prune() {
	for s, v := range m.base {
		if v < pruneFloor {
			m.baseTotal -= v
			delete(m.base, s)
		}
	}
	for k, v := range m.edges {
		if v < pruneFloor {
			delete(m.edges, k)
		}
	}
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

// Strength returns the clipped causal strength S(a,b) = clip(P(b|a) - P(b)).
// Both undefined symbols yield 0, not NaN: an edge/base count of 0 is a
// legitimate "never observed" state rather than an error.
func (m *Memory) Strength(a, b symbol.ID) float32 {
	baseA := m.base[a]
	if baseA <= 0 {
		return 0
	}
	pBGivenA := clip(m.edges[edgeKey(a, b)]/baseA, 0, 1)

	var pB float32
	if m.baseTotal > 0 {
		pB = clip(m.base[b]/m.baseTotal, 0, 1)
	}
	return clip(pBGivenA-pB, -1, 1)
}

// BaseTotal returns the running sum of base counts (diagnostic/invariant
// check: base_total == sum(base.values())).
func (m *Memory) BaseTotal() float32 { return m.baseTotal }

// BaseCount returns the current decayed count for symbol s.
func (m *Memory) BaseCount(s symbol.ID) float32 { return m.base[s] }

// SymbolCount returns the number of distinct symbols with a nonzero base
// count, a cheap diagnostics() figure.
func (m *Memory) SymbolCount() int { return len(m.base) }

// EdgeCount returns the number of distinct directed transitions tracked.
func (m *Memory) EdgeCount() int { return len(m.edges) }

// BaseEntry is a (symbol, count) pair for persistence (CAUS chunk).
type BaseEntry struct {
	Symbol symbol.ID
	Count  float32
}

// EdgeEntry is a (key, count) pair for persistence, key = edgeKey(a,b).
type EdgeEntry struct {
	Key   uint64
	Count float32
}

// Snapshot exposes the internal state for serialization in a fixed,
// deterministic order (sorted by key) so repeated saves of an unchanged
// memory produce byte-identical chunks.
func (m *Memory) Snapshot() (base []BaseEntry, edges []EdgeEntry, prevSymbols []symbol.ID) {
	base = make([]BaseEntry, 0, len(m.base))
	for s, v := range m.base {
		base = append(base, BaseEntry{Symbol: s, Count: v})
	}
	sortBase(base)

	edges = make([]EdgeEntry, 0, len(m.edges))
	for k, v := range m.edges {
		edges = append(edges, EdgeEntry{Key: k, Count: v})
	}
	sortEdges(edges)

	prevSymbols = append([]symbol.ID(nil), m.prevSymbols...)
	return base, edges, prevSymbols
}

func sortBase(e []BaseEntry) {
	sort.Slice(e, func(i, j int) bool { return e[i].Symbol < e[j].Symbol })
}

func sortEdges(e []EdgeEntry) {
	sort.Slice(e, func(i, j int) bool { return e[i].Key < e[j].Key })
}

// LoadFrom rebuilds a causal memory from persisted entries (CAUS chunk),
// recomputing base_total from the loaded base entries.
func LoadFrom(decay float32, base []BaseEntry, edges []EdgeEntry, prevSymbols []symbol.ID, observeCount uint64) *Memory {
	m := New(decay)
	for _, e := range base {
		m.base[e.Symbol] = e.Count
		m.baseTotal += e.Count
	}
	for _, e := range edges {
		m.edges[e.Key] = e.Count
	}
	m.prevSymbols = append([]symbol.ID(nil), prevSymbols...)
	m.observeCount = observeCount
	return m
}
