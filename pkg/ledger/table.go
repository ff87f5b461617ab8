// Package ledger provides the record table and id sequence shared by the
// assessment registry and the market ledger.
package ledger

import (
	"maps"
	"slices"
)

// Table is an id keyed record store with its own id sequence.
// Like Sequence it relies on the caller for locking.
type Table[T any] struct {
	rows map[int64]T
	seq  Sequence
}

// NewTable creates an empty table whose first insert receives id 1
func NewTable[T any]() *Table[T] {
	return &Table[T]{rows: make(map[int64]T)}
}

// Insert allocates the next id, builds the record for it and stores it
func (t *Table[T]) Insert(build func(id int64) T) T {
	id := t.seq.Next()
	row := build(id)
	t.rows[id] = row
	return row
}

// Get returns the record stored under id
func (t *Table[T]) Get(id int64) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

// Put replaces an existing record. It reports false when id was never inserted.
func (t *Table[T]) Put(id int64, row T) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	t.rows[id] = row
	return true
}

// Len returns the number of stored records
func (t *Table[T]) Len() int {
	return len(t.rows)
}

// LastID returns the id issued by the most recent insert
func (t *Table[T]) LastID() int64 {
	return t.seq.Last()
}

// List returns all records ordered by id
func (t *Table[T]) List() []T {
	ids := slices.Sorted(maps.Keys(t.rows))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

// Clone copies the table, including its sequence position. Records are copied
// by value, so T should not share mutable state between copies.
func (t *Table[T]) Clone() *Table[T] {
	return &Table[T]{
		rows: maps.Clone(t.rows),
		seq:  t.seq,
	}
}
