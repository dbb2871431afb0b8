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

package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/svenssonaxel/aggregation-interpreter/undo"
)

func TestPrintUnderlinesSpan(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	src := []byte("SELECT x FROM t")
	r.Print(src, 7, 1, "unknown column")

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "> ") {
		t.Errorf("source line = %q, want prefix '> '", lines[1])
	}
	if !strings.HasPrefix(lines[2], "! ") {
		t.Errorf("caret line = %q, want prefix '! '", lines[2])
	}
	if !strings.Contains(lines[2], "^") {
		t.Errorf("caret line = %q, want a caret", lines[2])
	}
}

func TestRestoreUndoesDestructiveDecode(t *testing.T) {
	buf := []byte(`ab\cd`)
	var log undo.Log
	log.Overwrite(buf, 2, []byte{'c'})
	log.Overwrite(buf, 3, []byte{'d'})

	Restore(buf, &log)
	if string(buf) != `ab\cd` {
		t.Errorf("after Restore, buf = %q, want %q", buf, `ab\cd`)
	}
}

func TestHasWidthSkipsContinuationBytes(t *testing.T) {
	// "é" = 0xC3 0xA9 (2-byte UTF-8 sequence).
	src := []byte{'a', 0xC3, 0xA9, 'b'}
	if !hasWidth(src, 0) {
		t.Errorf("pos 0 ('a') should have width")
	}
	if !hasWidth(src, 1) {
		t.Errorf("pos 1 (lead byte) should have width")
	}
	if hasWidth(src, 2) {
		t.Errorf("pos 2 (continuation byte) should not have width")
	}
	if !hasWidth(src, 3) {
		t.Errorf("pos 3 ('b') should have width")
	}
}
