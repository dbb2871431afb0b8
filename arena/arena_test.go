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

package arena

import (
	"errors"
	"testing"
)

func TestAllocStaysInInitialPage(t *testing.T) {
	a := New(256)
	b, err := a.Alloc(16)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if len(b) != 16 {
		t.Fatalf("len = %d, want 16", len(b))
	}
	_, byUser := a.Stats()
	if byUser != 16 {
		t.Fatalf("byUser = %d, want 16", byUser)
	}
}

func TestAllocGrowsPages(t *testing.T) {
	a := New(64)
	for i := 0; i < 100; i++ {
		if _, err := a.Alloc(32); err != nil {
			t.Fatalf("Alloc #%d: %v", i, err)
		}
	}
	if len(a.pages) == 0 {
		t.Fatalf("expected at least one page growth after 100 allocations")
	}
}

func TestAllocRejectsHugeRequest(t *testing.T) {
	a := New(256)
	_, err := a.Alloc(maxRequest)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestCopyBytesIndependentOfSource(t *testing.T) {
	a := New(256)
	src := []byte("hello")
	dst, err := a.CopyBytes(src)
	if err != nil {
		t.Fatalf("CopyBytes: %v", err)
	}
	src[0] = 'H'
	if string(dst) != "hello" {
		t.Fatalf("arena copy aliased caller's buffer: got %q", dst)
	}
}
