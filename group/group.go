// Package group implements named subsets of unit ids used as sensors
// (stimulus injection channels) and actions (readout channels). Membership
// is mirrored by the owner into the unit pool's SensorOf/ActionOf masks, so
// checking "is this unit a sensor" is an O(1) slice read. This package does
// not read those masks and does not check groups for overlapping ids.
package group

import "github.com/maplumi/braine-sub000/braineerr"

// Kind distinguishes sensor groups (receive stimulus) from action groups
// (readout) from a generic "other" kind used by persisted groups that are
// neither (kept for forward compatibility with the GRPS chunk format).
type Kind int

const (
	Sensor Kind = iota
	Action
	Other
)

func (k Kind) String() string {
	switch k {
	case Sensor:
		return "sensor"
	case Action:
		return "action"
	default:
		return "other"
	}
}

// Group is a named, ordered set of unit indices.
type Group struct {
	Name string
	Kind Kind
	Ids  []int32
}

// Table owns every defined group, keyed by name.
type Table struct {
	byName map[string]*Group
	order  []string // definition order, for deterministic persistence
}

// New creates an empty group table.
func New() *Table {
	return &Table{byName: make(map[string]*Group)}
}

// Get returns the group named name, or nil if undefined.
func (t *Table) Get(name string) *Group {
	return t.byName[name]
}

// All returns every group in definition order.
func (t *Table) All() []*Group {
	out := make([]*Group, 0, len(t.order))
	for _, n := range t.order {
		out = append(out, t.byName[n])
	}
	return out
}

// Define registers group `name` with the given kind and member ids.
// Idempotent: redefining with the same kind and a superset of ids
// (specifically, a non-contracting id list) succeeds and merges new ids in;
// redefining with a different kind, or a strictly narrower id list, fails
// with NameConflict.
func (t *Table) Define(name string, kind Kind, ids []int32) (*Group, error) {
	existing, ok := t.byName[name]
	if !ok {
		g := &Group{Name: name, Kind: kind, Ids: append([]int32(nil), ids...)}
		t.byName[name] = g
		t.order = append(t.order, name)
		return g, nil
	}
	if existing.Kind != kind {
		return nil, braineerr.New(braineerr.NameConflict, "group "+name+" already defined with a different kind")
	}
	if len(ids) < len(existing.Ids) {
		return nil, braineerr.New(braineerr.NameConflict, "group "+name+" cannot contract in width")
	}
	existing.Ids = mergeIds(existing.Ids, ids)
	return existing, nil
}

// EnsureMinWidth grows group name (which must already exist, or is created
// as kind if absent) to at least width members by appending fresh unit ids
// obtained from alloc, a callback that allocates and returns a new unit
// index. It is a no-op if the group already has >= width members.
func (t *Table) EnsureMinWidth(name string, kind Kind, width int, alloc func() int32) (*Group, error) {
	g, ok := t.byName[name]
	if !ok {
		g = &Group{Name: name, Kind: kind}
		t.byName[name] = g
		t.order = append(t.order, name)
	} else if g.Kind != kind {
		return nil, braineerr.New(braineerr.NameConflict, "group "+name+" already defined with a different kind")
	}
	for len(g.Ids) < width {
		g.Ids = append(g.Ids, alloc())
	}
	return g, nil
}

func mergeIds(base, extra []int32) []int32 {
	seen := make(map[int32]bool, len(base))
	for _, id := range base {
		seen[id] = true
	}
	out := append([]int32(nil), base...)
	for _, id := range extra {
		if !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out
}

// LoadFrom rebuilds a group table from persisted (name, kind, ids) triples,
// preserving their original order.
func LoadFrom(groups []Group) *Table {
	t := New()
	for _, g := range groups {
		cp := g
		cp.Ids = append([]int32(nil), g.Ids...)
		t.byName[g.Name] = &cp
		t.order = append(t.order, g.Name)
	}
	return t
}
