// Copyright (c) 2024 The aggregation-interpreter Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package ident interns column names into dense, first-seen-order indices.
//
// This is the "identifier table" of spec section 3: every distinct column
// name encountered while parsing (or while the loader resolves a schema)
// gets exactly one index, assigned in the order it was first seen.
package ident

// Table interns names to dense indices in first-seen order.
//
// A Table is not safe for concurrent use; a Prepare owns exactly one.
type Table struct {
	names []string
	index map[string]int
}

// NewTable returns an empty identifier table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Intern returns the index for name, assigning a new one if name hasn't
// been seen before.
func (t *Table) Intern(name string) int {
	if idx, ok := t.index[name]; ok {
		return idx
	}
	idx := len(t.names)
	t.names = append(t.names, name)
	t.index[name] = idx
	return idx
}

// Lookup returns the index already assigned to name, if any.
func (t *Table) Lookup(name string) (int, bool) {
	idx, ok := t.index[name]
	return idx, ok
}

// Name returns the name interned at idx. It panics if idx is out of range,
// since every idx handed out by this package is produced by Intern and
// ought to be total over the table, per spec section 6.3.
func (t *Table) Name(idx int) string {
	return t.names[idx]
}

// Len returns the number of distinct identifiers interned so far.
func (t *Table) Len() int {
	return len(t.names)
}

// Names returns the interned names in first-seen order. The returned slice
// must not be mutated by the caller.
func (t *Table) Names() []string {
	return t.names
}
