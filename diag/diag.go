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

// Package diag prints the caret diagnostics spec section 7 requires: the
// offending source, line by line, each followed by a caret line marking
// the error's byte span, ported from RestSQLPreparer::parse's error-print
// loop and its has_width helper (original_source/parser-and-compiler/RestSQLPreparer.cpp).
package diag

import (
	"fmt"
	"io"

	"github.com/svenssonaxel/aggregation-interpreter/undo"
)

// Reporter prints caret diagnostics against one statement's source.
type Reporter struct {
	w io.Writer
}

// NewReporter returns a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Print reports one error against src (which must already have any
// destructive-decode undo log replayed over it -- see Restore) at the
// byte range [pos, pos+length). length == 0 marks a single insertion
// point (e.g. "unexpected end of input") rather than an underlined span.
func (r *Reporter) Print(src []byte, pos, length int, msg string) {
	fmt.Fprintf(r.w, "Syntax error in SQL statement: %s\n", msg)
	errStart := pos
	errStop := pos + length
	if length == 0 {
		errStop = pos + 1 // still mark one caret column
	}

	lineStart := 0
	for p := 0; p <= len(src); p++ {
		if lineStart == p {
			fmt.Fprint(r.w, "> ")
		}
		isEOL := false
		if p == len(src) {
			if len(src) == 0 || src[len(src)-1] != '\n' {
				fmt.Fprint(r.w, "\n")
				isEOL = true
			}
		} else if c := src[p]; c == '\n' {
			fmt.Fprint(r.w, "\n")
			isEOL = true
		} else if c != '\r' {
			r.w.Write([]byte{c})
		}
		if isEOL && errStart <= p && lineStart <= errStop {
			fmt.Fprint(r.w, "! ")
			m := lineStart
			for m < errStart {
				if hasWidth(src, m) {
					fmt.Fprint(r.w, " ")
				}
				m++
			}
			for m < errStop && (func() bool {
				if p == errStart {
					return m <= p
				}
				return m < p
			})() {
				if hasWidth(src, m) {
					fmt.Fprint(r.w, "^")
				}
				m++
			}
			fmt.Fprint(r.w, "\n")
		}
		if isEOL {
			lineStart = p + 1
		}
	}
}

// Restore replays log over buf to undo destructive in-place decoding
// (e.g. sql.Lexer's backtick-escape collapsing) before Print reads it,
// per spec section 9's byte-for-byte source restoration invariant.
func Restore(buf []byte, log *undo.Log) {
	log.Replay(buf)
}

// hasWidth reports whether the byte at pos contributes a caret column:
// false only for a continuation byte that is part of a valid multi-byte
// UTF-8 prefix, ported verbatim (in control flow) from
// RestSQLPreparer::has_width.
func hasWidth(s []byte, pos int) bool {
	c := s[pos]
	if c&0xc0 != 0x80 {
		return true
	}
	if pos < 1 {
		return true
	}
	c = s[pos-1]
	if c&0xe0 == 0xc0 {
		return false
	}
	if c&0xf0 == 0xe0 {
		return false
	}
	if c&0xf8 == 0xf0 {
		return false
	}
	if c&0xc0 != 0x80 {
		return true
	}
	if pos < 2 {
		return true
	}
	c = s[pos-2]
	if c&0xf0 == 0xe0 {
		return false
	}
	if c&0xf8 == 0xf0 {
		return false
	}
	if c&0xc0 != 0x80 {
		return true
	}
	if pos < 3 {
		return true
	}
	c = s[pos-3]
	if c&0xf8 == 0xf0 {
		return false
	}
	return true
}
