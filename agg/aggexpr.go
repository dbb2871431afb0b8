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

// Package agg holds the aggregate output list, the symbolic register-file
// model, and the code generator that lowers an exprdag.Builder graph plus
// that list into a bytecode.Program (spec sections 4.1, 4.2). This is
// where the generalised AggregationAPICompiler::compile() algorithm lives:
// cache-hit/leaf/binary code generation, seize_register with spill and
// recompute-cost estimation, and the dead-code elimination pass.
package agg

import (
	"fmt"

	"github.com/svenssonaxel/aggregation-interpreter/exprdag"
	"github.com/svenssonaxel/aggregation-interpreter/record"
)

// Type identifies which aggregate function an AggExpr folds records into.
type Type int

const (
	Sum Type = iota
	Min
	Max
	Count
)

func (t Type) String() string {
	switch t {
	case Sum:
		return "SUM"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Count:
		return "COUNT"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Expr is one declared SELECT aggregate output: an aggregate function
// applied to an expression DAG handle. Arg may be exprdag.Invalid only
// for Count, representing COUNT(*) (spec section 4.4: "Count ignores its
// source in the VM").
type Expr struct {
	Type Type
	Arg  exprdag.Handle
}

// ColumnTyper resolves the declared arithmetic type of a physical column,
// the part of the external Catalog contract (spec section 6.3, expanded
// per section 2 OVERVIEW: "Schema resolution... declared types") the code
// generator needs to bake per-instruction type tags into the bytecode.
type ColumnTyper interface {
	ColumnKind(colIdx int) record.Kind
}

// List is the ordered set of aggregate outputs a SELECT declares. Order of
// declaration determines result slot indices (spec section 3).
type List struct {
	dag   *exprdag.Builder
	exprs []Expr
}

// NewList returns an empty aggregate list over dag. dag must outlive List.
func NewList(dag *exprdag.Builder) *List {
	return &List{dag: dag}
}

// Add records (aggType, arg) as the next aggregate output in declaration
// order and bumps arg's DAG usage count, unless aggType is Count and arg
// is exprdag.Invalid (COUNT(*), which references no expression).
func (l *List) Add(aggType Type, arg exprdag.Handle) error {
	if arg == exprdag.Invalid {
		if aggType != Count {
			return fmt.Errorf("agg: only COUNT may omit its argument")
		}
	} else {
		l.dag.Use(arg)
	}
	l.exprs = append(l.exprs, Expr{Type: aggType, Arg: arg})
	return nil
}

// Len returns the number of declared aggregate outputs.
func (l *List) Len() int { return len(l.exprs) }

// At returns the aggregate output declared at position i.
func (l *List) At(i int) Expr { return l.exprs[i] }
