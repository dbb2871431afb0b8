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

// Package prepare implements the Prepare state machine spec section 4.5
// describes: Initialised -> Parsing -> Parsed -> Loading -> Loaded ->
// Compiling -> Compiled, with a sticky Failed state reachable from any of
// the working states, ported from RestSQLPreparer.{hpp,cpp}'s own state
// enum and method bodies.
package prepare

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/svenssonaxel/aggregation-interpreter/agg"
	"github.com/svenssonaxel/aggregation-interpreter/bytecode"
	"github.com/svenssonaxel/aggregation-interpreter/exprdag"
	"github.com/svenssonaxel/aggregation-interpreter/record"
	"github.com/svenssonaxel/aggregation-interpreter/sql"
)

// State is Prepare's lifecycle position.
type State int

const (
	Initialised State = iota
	Parsing
	Parsed
	Loading
	Loaded
	Compiling
	Compiled
	Failed
)

func (s State) String() string {
	switch s {
	case Initialised:
		return "INITIALISED"
	case Parsing:
		return "PARSING"
	case Parsed:
		return "PARSED"
	case Loading:
		return "LOADING"
	case Loaded:
		return "LOADED"
	case Compiling:
		return "COMPILING"
	case Compiled:
		return "COMPILED"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SemanticError reports a load-time failure: an unknown table or column,
// or a bare column output that isn't part of the GROUP BY list (spec
// section 6.3's schema-resolution rules).
type SemanticError struct {
	Msg string
}

func (e *SemanticError) Error() string { return "prepare: " + e.Msg }

// Catalog is the external schema collaborator a Prepare loads against:
// record.Catalog's name/index resolution plus agg.ColumnTyper's declared
// column types (spec section 6.3). record.MapCatalog implements both.
type Catalog interface {
	record.Catalog
	agg.ColumnTyper
}

// Prepare drives one SQL statement from source text through parsing,
// semantic loading, and bytecode compilation. The zero value is not
// usable; use New.
type Prepare struct {
	queryID string
	sqlText string
	catalog Catalog

	state State
	err   error

	stmt *sql.SelectStatement
	lex  *sql.Lexer

	dag         *exprdag.Builder
	aggs        *agg.List
	groupByCols []int
	// outputOrder mirrors stmt.Outputs, but for OutputColumn entries it
	// records the group-by column index instead of an agg slot, so
	// Print and any result-projection step can walk SELECT order once
	// compiled without re-consulting the AST.
	outputOrder []outputRef

	prog *bytecode.Program
}

type outputRef struct {
	isAgg   bool
	colIdx  int // valid when !isAgg
	aggSlot int // valid when isAgg
}

// New returns a freshly Initialised Prepare for sqlText against catalog,
// stamped with a fresh queryID (mirrors cmd/snellerd/handler_query.go's
// per-request correlation id).
func New(sqlText string, catalog Catalog) *Prepare {
	return &Prepare{
		queryID: uuid.New().String(),
		sqlText: sqlText,
		catalog: catalog,
		state:   Initialised,
	}
}

// QueryID returns this Prepare's correlation id.
func (p *Prepare) QueryID() string { return p.queryID }

// State reports the current lifecycle state.
func (p *Prepare) State() State { return p.state }

// Err returns the sticky error once State is Failed, or nil.
func (p *Prepare) Err() error { return p.err }

// Lexer returns the Lexer used to parse this statement, once Parse has
// run, so a caller can recover its source buffer and undo log for a
// diag.Reporter even after a later Load/Compile failure.
func (p *Prepare) Lexer() *sql.Lexer { return p.lex }

func (p *Prepare) fail(err error) error {
	p.state = Failed
	p.err = err
	return err
}

// Parse lexes and parses the SQL text into a pure AST (spec section 6.2).
// Must be called from Initialised.
func (p *Prepare) Parse() error {
	if p.state != Initialised {
		panic("prepare: Parse called out of order, state is " + p.state.String())
	}
	p.state = Parsing
	stmt, lex, err := sql.Parse(p.sqlText)
	p.lex = lex
	if err != nil {
		return p.fail(fmt.Errorf("parse: %w", err))
	}
	p.stmt = stmt
	p.state = Parsed
	return nil
}

func aggTypeOf(f sql.AggFunc) agg.Type {
	switch f {
	case sql.Count:
		return agg.Count
	case sql.Sum:
		return agg.Sum
	case sql.Min:
		return agg.Min
	case sql.Max:
		return agg.Max
	default:
		panic("prepare: unrecognised sql.AggFunc")
	}
}

func exprOpOf(op sql.BinOp) exprdag.Op {
	switch op {
	case sql.OpAdd:
		return exprdag.Add
	case sql.OpSub:
		return exprdag.Minus
	case sql.OpMul:
		return exprdag.Mul
	case sql.OpDiv:
		return exprdag.Div
	case sql.OpMod:
		return exprdag.Rem
	default:
		panic("prepare: unrecognised sql.BinOp")
	}
}

// translateExpr is the dedicated AST -> DAG translation pass SPEC_FULL.md
// section 4 describes: sql.Parse never touches exprdag, so every
// column reference is resolved against the catalog here, at Load time.
func (p *Prepare) translateExpr(e sql.Expr) (exprdag.Handle, error) {
	switch n := e.(type) {
	case *sql.ColumnRef:
		idx, ok := p.catalog.ColumnIndex(n.Name)
		if !ok {
			return exprdag.Invalid, &SemanticError{Msg: fmt.Sprintf("unknown column %q", n.Name)}
		}
		return p.dag.Load(idx), nil
	case *sql.BinaryExpr:
		left, err := p.translateExpr(n.Left)
		if err != nil {
			return exprdag.Invalid, err
		}
		right, err := p.translateExpr(n.Right)
		if err != nil {
			return exprdag.Invalid, err
		}
		h, err := p.dag.Binary(exprOpOf(n.Op), left, right)
		if err != nil {
			return exprdag.Invalid, &SemanticError{Msg: err.Error()}
		}
		return h, nil
	default:
		panic("prepare: unrecognised sql.Expr")
	}
}

// Load resolves every identifier in the parsed statement against the
// Catalog and builds the expression DAG and aggregate list (spec section
// 6.3). Must be called from Parsed.
func (p *Prepare) Load() error {
	if p.state != Parsed {
		panic("prepare: Load called out of order, state is " + p.state.String())
	}
	p.state = Loading

	if !p.catalog.TableExists(p.stmt.Table) {
		return p.fail(fmt.Errorf("load: %w", &SemanticError{Msg: fmt.Sprintf("unknown table %q", p.stmt.Table)}))
	}

	p.dag = exprdag.NewBuilder()
	p.aggs = agg.NewList(p.dag)

	for _, name := range p.stmt.GroupBy {
		idx, ok := p.catalog.ColumnIndex(name)
		if !ok {
			return p.fail(fmt.Errorf("load: %w", &SemanticError{Msg: fmt.Sprintf("unknown GROUP BY column %q", name)}))
		}
		p.groupByCols = append(p.groupByCols, idx)
	}

	for _, out := range p.stmt.Outputs {
		switch out.Kind {
		case sql.OutputColumn:
			if !slices.Contains(p.stmt.GroupBy, out.Column) {
				return p.fail(fmt.Errorf("load: %w", &SemanticError{
					Msg: fmt.Sprintf("column %q must appear in GROUP BY since the SELECT list also aggregates", out.Column),
				}))
			}
			idx, ok := p.catalog.ColumnIndex(out.Column)
			if !ok {
				return p.fail(fmt.Errorf("load: %w", &SemanticError{Msg: fmt.Sprintf("unknown column %q", out.Column)}))
			}
			p.outputOrder = append(p.outputOrder, outputRef{isAgg: false, colIdx: idx})
		case sql.OutputAggregate:
			arg := exprdag.Invalid
			if out.Arg != nil {
				h, err := p.translateExpr(out.Arg)
				if err != nil {
					return p.fail(fmt.Errorf("load: %w", err))
				}
				arg = h
			}
			if err := p.aggs.Add(aggTypeOf(out.Agg), arg); err != nil {
				return p.fail(fmt.Errorf("load: %w", &SemanticError{Msg: err.Error()}))
			}
			p.outputOrder = append(p.outputOrder, outputRef{isAgg: true, aggSlot: p.aggs.Len() - 1})
		}
	}

	p.state = Loaded
	return nil
}

// Compile lowers the loaded DAG and aggregate list into a bytecode.Program
// (spec section 4.2). Must be called from Loaded.
func (p *Prepare) Compile() error {
	if p.state != Loaded {
		panic("prepare: Compile called out of order, state is " + p.state.String())
	}
	p.state = Compiling
	c := agg.NewCompiler(p.dag, p.aggs, p.catalog, p.groupByCols)
	prog, err := c.Compile()
	if err != nil {
		return p.fail(fmt.Errorf("compile: %w", err))
	}
	p.prog = prog
	p.state = Compiled
	return nil
}

// Program returns the compiled bytecode.Program, or nil before Compiled.
func (p *Prepare) Program() *bytecode.Program { return p.prog }

// Statement returns the parsed AST, or nil before Parsed.
func (p *Prepare) Statement() *sql.SelectStatement { return p.stmt }

// Run drives Parse, Load, and Compile in sequence, stopping at the first
// failure (its state and Err already reflect the failure's stage).
func (p *Prepare) Run() error {
	if err := p.Parse(); err != nil {
		return err
	}
	if err := p.Load(); err != nil {
		return err
	}
	return p.Compile()
}
