// Package ident interns identifier and field names into small integer ids.
// It is a standalone table: internal/linker and internal/evaluator resolve
// names by string and do not import this package, so no map in the
// pipeline is keyed by ident.ID.
//
// Unlike DWScript's case-insensitive identifier table, EdgeRules names are
// case-sensitive, so Normalize is the identity function; it is kept as a
// named step so the table's shape matches the teacher's pkg/ident design
// and remains the single place a future case-folding rule would go.
package ident

// ID is a dense identifier assigned in first-seen order.
type ID int32

// Table interns strings to IDs and back.
type Table struct {
	byName []string
	ids    map[string]ID
}

// NewTable creates an empty interning table.
func NewTable() *Table {
	return &Table{ids: make(map[string]ID)}
}

// Normalize is the identity function for EdgeRules's case-sensitive names.
func Normalize(name string) string { return name }

// Intern returns the ID for name, assigning a new one on first sight.
func (t *Table) Intern(name string) ID {
	name = Normalize(name)
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := ID(len(t.byName))
	t.byName = append(t.byName, name)
	t.ids[name] = id
	return id
}

// Lookup returns the ID already assigned to name, if any.
func (t *Table) Lookup(name string) (ID, bool) {
	id, ok := t.ids[Normalize(name)]
	return id, ok
}

// Name returns the interned string for id. Panics on an out-of-range id,
// which would indicate an internal integrity error (an ID minted by a
// different table, or a stale one after a table reset).
func (t *Table) Name(id ID) string {
	return t.byName[id]
}

// Len returns the number of interned names.
func (t *Table) Len() int { return len(t.byName) }
