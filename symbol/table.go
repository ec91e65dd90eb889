// Package symbol implements the bijection between short string names and
// dense integer symbol ids used by stimulus, action, and causal-memory
// bookkeeping. Ids are stable for the lifetime of a brain instance and are
// never reused, so a persisted causal-memory edge keyed by id remains
// meaningful after reload as long as the symbol table chunk is replayed
// first.
package symbol

// ID is a dense, nonnegative integer identifying an interned symbol.
type ID uint32

// Invalid is returned by Lookup when a name has never been interned.
const Invalid ID = 1<<32 - 1

// Table interns symbol names to dense ids. The forward and reverse
// directions share the same backing string storage (each name is stored
// once, in names); the id->name direction is just an index into that slice,
// so there is no duplicate allocation of the string data.
type Table struct {
	byName map[string]ID
	names  []string
}

// New creates an empty symbol table.
func New() *Table {
	return &Table{byName: make(map[string]ID)}
}

// Intern returns the id for name, assigning a new dense id if name has not
// been seen before. Interning is append-only: once assigned, an id is never
// reassigned or reclaimed for the lifetime of the table.
func (t *Table) Intern(name string) ID {
	if id, ok := t.byName[name]; ok {
		return id
	}
	id := ID(len(t.names))
	t.names = append(t.names, name)
	t.byName[name] = id
	return id
}

// Lookup returns the id for name without interning it, or Invalid and false
// if name is unknown.
func (t *Table) Lookup(name string) (ID, bool) {
	id, ok := t.byName[name]
	if !ok {
		return Invalid, false
	}
	return id, true
}

// Name returns the string for id, and false if id is out of range.
func (t *Table) Name(id ID) (string, bool) {
	if int(id) < 0 || int(id) >= len(t.names) {
		return "", false
	}
	return t.names[id], true
}

// Len returns the number of interned symbols.
func (t *Table) Len() int { return len(t.names) }

// Names returns the full name list indexed by id. Callers must not mutate
// the returned slice.
func (t *Table) Names() []string { return t.names }

// Entries is a (name, id) pair used for deterministic serialization order.
type Entries struct {
	Name string
	ID   ID
}

// All returns every (name, id) pair in id order, suitable for writing the
// SYMB persistence chunk.
func (t *Table) All() []Entries {
	out := make([]Entries, len(t.names))
	for i, n := range t.names {
		out[i] = Entries{Name: n, ID: ID(i)}
	}
	return out
}

// LoadFrom rebuilds the table from a (name, id) pair list previously
// produced by All, as read back from a SYMB persistence chunk. It is only
// valid on a fresh, empty table.
func LoadFrom(entries []Entries) *Table {
	t := New()
	maxID := ID(0)
	for _, e := range entries {
		if e.ID+1 > maxID {
			maxID = e.ID + 1
		}
	}
	t.names = make([]string, maxID)
	for _, e := range entries {
		t.names[e.ID] = e.Name
		t.byName[e.Name] = e.ID
	}
	return t
}
