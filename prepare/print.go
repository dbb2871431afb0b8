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

package prepare

import (
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"

	"github.com/svenssonaxel/aggregation-interpreter/sql"
)

// Print writes the query's id, its reconstructed statement shape, and its
// compiled disassembly to w, the way RestSQLPreparer::print and
// AggregationAPICompiler::print_program do. The trailing fingerprint is a
// diagnostic aid only -- never a cache key (explicit Non-goal: no
// persistent query plan cache). Must be called from Compiled.
func (p *Prepare) Print(w io.Writer) error {
	if p.state != Compiled {
		panic("prepare: Print called out of order, state is " + p.state.String())
	}
	words, err := p.prog.Encode()
	if err != nil {
		return err
	}
	sum := blake2b.Sum256(wordsToBytes(words))
	fmt.Fprintf(w, "-- query %s (fingerprint %x)\n", p.queryID, sum[:8])
	fmt.Fprintln(w, describeStatement(p.stmt))
	fmt.Fprint(w, p.prog.Disassemble())
	return nil
}

func wordsToBytes(words []uint32) []byte {
	b := make([]byte, 4*len(words))
	for i, w := range words {
		b[4*i] = byte(w)
		b[4*i+1] = byte(w >> 8)
		b[4*i+2] = byte(w >> 16)
		b[4*i+3] = byte(w >> 24)
	}
	return b
}

func describeStatement(stmt *sql.SelectStatement) string {
	s := "SELECT "
	for i, out := range stmt.Outputs {
		if i > 0 {
			s += ", "
		}
		s += describeOutput(out)
	}
	s += " FROM " + stmt.Table
	if len(stmt.GroupBy) > 0 {
		s += " GROUP BY "
		for i, g := range stmt.GroupBy {
			if i > 0 {
				s += ", "
			}
			s += g
		}
	}
	return s
}

func describeOutput(out sql.Output) string {
	if out.Kind == sql.OutputColumn {
		return out.Column
	}
	arg := "*"
	if out.Arg != nil {
		arg = describeExpr(out.Arg)
	}
	return out.Agg.String() + "(" + arg + ")"
}

func describeExpr(e sql.Expr) string {
	switch n := e.(type) {
	case *sql.ColumnRef:
		return n.Name
	case *sql.BinaryExpr:
		return "(" + describeExpr(n.Left) + " " + binOpSymbol(n.Op) + " " + describeExpr(n.Right) + ")"
	default:
		return "?"
	}
}

func binOpSymbol(op sql.BinOp) string {
	switch op {
	case sql.OpAdd:
		return "+"
	case sql.OpSub:
		return "-"
	case sql.OpMul:
		return "*"
	case sql.OpDiv:
		return "/"
	case sql.OpMod:
		return "%"
	default:
		return "?"
	}
}
