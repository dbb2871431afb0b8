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

package record

import "testing"

func TestMapCatalog(t *testing.T) {
	cat := NewMapCatalog("t", []string{"a", "b", "c"})
	if !cat.TableExists("t") {
		t.Fatalf("expected table t to exist")
	}
	if cat.TableExists("u") {
		t.Fatalf("expected table u to not exist")
	}
	idx, ok := cat.ColumnIndex("b")
	if !ok || idx != 1 {
		t.Fatalf("ColumnIndex(b) = %d, %v; want 1, true", idx, ok)
	}
	if _, ok := cat.ColumnIndex("z"); ok {
		t.Fatalf("expected unknown column z to fail lookup")
	}
	if got := cat.ColumnName(2); got != "c" {
		t.Fatalf("ColumnName(2) = %q, want c", got)
	}
}

func TestCellConstructors(t *testing.T) {
	cases := []struct {
		cell    Cell
		numeric bool
	}{
		{Int(1), true},
		{Uint(1), true},
		{Float(1), true},
		{Str("x"), false},
	}
	for _, c := range cases {
		if got := c.cell.IsNumeric(); got != c.numeric {
			t.Errorf("%v.IsNumeric() = %v, want %v", c.cell.Kind, got, c.numeric)
		}
	}
}

func TestRecordAt(t *testing.T) {
	r := Record{Cells: []Cell{Int(1), Float(2.5)}}
	if got := r.At(0).I; got != 1 {
		t.Errorf("At(0).I = %d, want 1", got)
	}
	if got := r.At(1).F; got != 2.5 {
		t.Errorf("At(1).F = %v, want 2.5", got)
	}
}
