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

package ident

import "testing"

func TestInternFirstSeenOrder(t *testing.T) {
	tbl := NewTable()
	a := tbl.Intern("a")
	b := tbl.Intern("b")
	a2 := tbl.Intern("a")

	if a != 0 || b != 1 {
		t.Fatalf("expected a=0, b=1, got a=%d b=%d", a, b)
	}
	if a2 != a {
		t.Fatalf("re-interning %q should return the same index, got %d want %d", "a", a2, a)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 distinct identifiers, got %d", tbl.Len())
	}
	if tbl.Name(0) != "a" || tbl.Name(1) != "b" {
		t.Fatalf("unexpected names: %v", tbl.Names())
	}
}

func TestLookupMissing(t *testing.T) {
	tbl := NewTable()
	tbl.Intern("x")
	if _, ok := tbl.Lookup("y"); ok {
		t.Fatalf("Lookup(%q) should report not-found", "y")
	}
	if idx, ok := tbl.Lookup("x"); !ok || idx != 0 {
		t.Fatalf("Lookup(%q) = (%d, %v), want (0, true)", "x", idx, ok)
	}
}
