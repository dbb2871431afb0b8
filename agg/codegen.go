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

package agg

import (
	"fmt"

	"github.com/svenssonaxel/aggregation-interpreter/bytecode"
	"github.com/svenssonaxel/aggregation-interpreter/exprdag"
	"github.com/svenssonaxel/aggregation-interpreter/record"
)

// State is a Compiler's position in the PROGRAMMING -> COMPILING ->
// {COMPILED, FAILED} state machine (spec section 4.1).
type State int

const (
	Programming State = iota
	Compiling
	Compiled
	Failed
)

func (s State) String() string {
	switch s {
	case Programming:
		return "PROGRAMMING"
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

// CompileError reports a code generation failure: register pressure that
// cannot be satisfied even with full spilling, or an aggregate list that
// is empty (spec section 4.2's two named failure modes).
type CompileError struct {
	Msg string
}

func (e *CompileError) Error() string { return "agg: " + e.Msg }

// Compiler drives code generation for one Builder + List: it owns no
// state beyond what's needed to walk PROGRAMMING -> COMPILING ->
// {COMPILED, FAILED} exactly once, mirroring AggregationAPICompiler.
type Compiler struct {
	Dag         *exprdag.Builder
	Aggs        *List
	Typer       ColumnTyper
	GroupByCols []int

	state State
}

// NewCompiler returns a Compiler ready to accept further Dag/Aggs mutation
// (PROGRAMMING state) before Compile is called.
func NewCompiler(dag *exprdag.Builder, aggs *List, typer ColumnTyper, groupByCols []int) *Compiler {
	return &Compiler{Dag: dag, Aggs: aggs, Typer: typer, GroupByCols: groupByCols}
}

// State reports the compiler's current state.
func (c *Compiler) State() State { return c.state }

// Compile lowers the DAG and aggregate list into a bytecode.Program. It
// transitions PROGRAMMING -> COMPILING -> COMPILED on success or FAILED on
// error. Calling Compile more than once is a programmer error once it has
// left PROGRAMMING.
func (c *Compiler) Compile() (*bytecode.Program, error) {
	if c.state != Programming {
		panic(fmt.Sprintf("agg: Compile called in state %s, want PROGRAMMING", c.state))
	}
	c.state = Compiling
	if c.Aggs.Len() == 0 {
		c.state = Failed
		return nil, &CompileError{Msg: "empty aggregate list"}
	}
	g := newGen(c.Dag, c.Typer)
	instrs, err := g.run(c.Aggs)
	if err != nil {
		c.state = Failed
		return nil, err
	}
	instrs = eliminateDeadCode(instrs)
	aggTypes := make([]bytecode.AggResultType, c.Aggs.Len())
	for i := 0; i < c.Aggs.Len(); i++ {
		a := c.Aggs.At(i)
		if a.Type == Count {
			aggTypes[i] = bytecode.AggResultType{Type: bytecode.TypeBigInt, Unsigned: true}
			continue
		}
		typ, unsigned, err := g.resolveType(a.Arg)
		if err != nil {
			c.state = Failed
			return nil, err
		}
		aggTypes[i] = bytecode.AggResultType{Type: typ, Unsigned: unsigned}
	}
	prog := &bytecode.Program{
		Header: bytecode.Header{
			GroupByCols: append([]int(nil), c.GroupByCols...),
			AggTypes:    aggTypes,
		},
		Instructions: instrs,
	}
	c.state = Compiled
	return prog, nil
}

// gen holds the codegen-time symbolic VM: which Expr each register caches,
// the reentrancy lock counters, and memoised type/recompute-cost tables.
type gen struct {
	dag   *exprdag.Builder
	typer ColumnTyper

	regCache [bytecode.NumRegs]exprdag.Handle
	locked   [bytecode.NumRegs]int

	typeCache map[exprdag.Handle]resolvedType
	instrs    []bytecode.Instruction
}

type resolvedType struct {
	typ      bytecode.Type
	unsigned bool
}

func newGen(dag *exprdag.Builder, typer ColumnTyper) *gen {
	g := &gen{dag: dag, typer: typer, typeCache: make(map[exprdag.Handle]resolvedType)}
	for i := range g.regCache {
		g.regCache[i] = exprdag.Invalid
	}
	// Seed the running program_usage counter from usage (spec section
	// 4.2): compileExpr only ever decrements it, so it must start where
	// refcounting left off, not at Go's zero value.
	for i := 0; i < dag.Len(); i++ {
		n := dag.Node(exprdag.Handle(i))
		n.ProgramUsage = n.Usage
	}
	return g
}

func (g *gen) run(aggs *List) ([]bytecode.Instruction, error) {
	for i := 0; i < aggs.Len(); i++ {
		a := aggs.At(i)
		var reg bytecode.Reg
		if a.Arg == exprdag.Invalid {
			reg = 0 // COUNT(*): compiler still assigns a register, per spec 4.2.
		} else {
			r, err := g.compileExpr(a.Arg, true)
			if err != nil {
				return nil, err
			}
			reg = r
			if g.dag.Node(a.Arg).ProgramUsage == 0 {
				g.uncacheReg(reg)
			}
		}
		op := aggOpcode(a.Type)
		g.instrs = append(g.instrs, bytecode.Instruction{
			Op:    op,
			TypeA: aggResultTypeOf(g, a),
			RegA:  reg,
			Imm:   uint16(i),
		})
	}
	if err := g.assertFullyConsumed(aggs); err != nil {
		return nil, err
	}
	return g.instrs, nil
}

func aggResultTypeOf(g *gen, a Expr) bytecode.Type {
	if a.Type == Count || a.Arg == exprdag.Invalid {
		return bytecode.TypeBigInt
	}
	t, _, err := g.resolveType(a.Arg)
	if err != nil {
		return bytecode.TypeBigInt
	}
	return t
}

func aggOpcode(t Type) bytecode.Opcode {
	switch t {
	case Sum:
		return bytecode.OpSum
	case Min:
		return bytecode.OpMin
	case Max:
		return bytecode.OpMax
	case Count:
		return bytecode.OpCount
	default:
		panic(fmt.Sprintf("agg: unknown aggregate type %d", t))
	}
}

// assertFullyConsumed verifies the spec section 8 refcount invariant:
// every Expr reachable from some AggExpr has ProgramUsage == 0 once
// compilation completes.
func (g *gen) assertFullyConsumed(aggs *List) error {
	for i := 0; i < aggs.Len(); i++ {
		a := aggs.At(i)
		if a.Arg == exprdag.Invalid {
			continue
		}
		if u := g.dag.Node(a.Arg).ProgramUsage; u != 0 {
			return &CompileError{Msg: fmt.Sprintf("internal error: expr %d has program_usage=%d after compile", a.Arg, u)}
		}
	}
	return nil
}

// resolveType computes the widened (type, unsigned) pair an Expr's value
// is stored as once materialised into a register, per spec section 4.3's
// mixed-type widening rule, memoised over the DAG.
func (g *gen) resolveType(h exprdag.Handle) (bytecode.Type, bool, error) {
	if rt, ok := g.typeCache[h]; ok {
		return rt.typ, rt.unsigned, nil
	}
	node := g.dag.Node(h)
	var rt resolvedType
	if node.Op == exprdag.Load {
		typ, unsigned, err := kindToType(g.typer.ColumnKind(node.ColIdx))
		if err != nil {
			return 0, false, err
		}
		rt = resolvedType{typ, unsigned}
	} else {
		lt, lu, err := g.resolveType(node.Left)
		if err != nil {
			return 0, false, err
		}
		rt2, ru, err := g.resolveType(node.Right)
		if err != nil {
			return 0, false, err
		}
		typ, unsigned := bytecode.Widen(lt, lu, rt2, ru)
		rt = resolvedType{typ, unsigned}
	}
	g.typeCache[h] = rt
	return rt.typ, rt.unsigned, nil
}

func kindToType(k record.Kind) (bytecode.Type, bool, error) {
	switch k {
	case record.Int64:
		return bytecode.TypeBigInt, false, nil
	case record.Uint64:
		return bytecode.TypeBigInt, true, nil
	case record.Float64:
		return bytecode.TypeDouble, false, nil
	default:
		return 0, false, fmt.Errorf("agg: column of kind %s is not valid in arithmetic", k)
	}
}

// cachedReg returns the register currently caching h, if any.
func (g *gen) cachedReg(h exprdag.Handle) (bytecode.Reg, bool) {
	for i, cached := range g.regCache {
		if cached == h {
			return bytecode.Reg(i), true
		}
	}
	return 0, false
}

func (g *gen) cacheSet(reg bytecode.Reg, h exprdag.Handle) {
	g.regCache[reg] = h
}

func (g *gen) uncacheReg(reg bytecode.Reg) {
	g.regCache[reg] = exprdag.Invalid
}

func (g *gen) lock(reg bytecode.Reg)   { g.locked[reg]++ }
func (g *gen) unlock(reg bytecode.Reg) { g.locked[reg]-- }

// seizeRegister picks a destination register per spec section 4.2:
// prefer an empty register; else a register whose cached Expr has no
// pending uses; else evict the register that is cheapest to recompute;
// never touch a locked register.
func (g *gen) seizeRegister() (bytecode.Reg, error) {
	for i, cached := range g.regCache {
		if cached == exprdag.Invalid {
			return bytecode.Reg(i), nil
		}
	}
	for i, cached := range g.regCache {
		if g.locked[i] > 0 {
			continue
		}
		if g.dag.Node(cached).ProgramUsage == 0 {
			g.uncacheReg(bytecode.Reg(i))
			return bytecode.Reg(i), nil
		}
	}
	best := -1
	bestCost := -1
	for i := range g.regCache {
		if g.locked[i] > 0 {
			continue
		}
		memo := make(map[exprdag.Handle]int)
		cost := g.estimateRecost(g.regCache[i], bytecode.Reg(i), memo)
		if best == -1 || cost < bestCost {
			best = i
			bestCost = cost
		}
	}
	if best == -1 {
		return 0, &CompileError{Msg: "register pressure exceeds hardware register file"}
	}
	g.uncacheReg(bytecode.Reg(best))
	return bytecode.Reg(best), nil
}

// estimateRecost estimates the number of additional instructions needed
// to rematerialise h's value without using register exclude, recursively
// and with memoisation over the DAG (spec section 4.2).
func (g *gen) estimateRecost(h exprdag.Handle, exclude bytecode.Reg, memo map[exprdag.Handle]int) int {
	if v, ok := memo[h]; ok {
		return v
	}
	node := g.dag.Node(h)
	cost := 1 // the instruction that (re)produces this node itself
	if node.Op != exprdag.Load {
		for _, child := range [2]exprdag.Handle{node.Left, node.Right} {
			if reg, ok := g.cachedReg(child); ok && reg != exclude {
				continue // already available elsewhere, free
			}
			cost += g.estimateRecost(child, exclude, memo)
		}
	}
	memo[h] = cost
	return cost
}

// compileExpr realises h's value into a register, following the
// cache-hit/leaf/binary algorithm of spec section 4.2. consume reports
// whether this call represents a genuine new use of h (decrementing its
// ProgramUsage) as opposed to a non-consuming recompute forced by
// eviction of an already-compiled node that other, still-pending,
// consumers need.
func (g *gen) compileExpr(h exprdag.Handle, consume bool) (bytecode.Reg, error) {
	node := g.dag.Node(h)
	if reg, ok := g.cachedReg(h); ok {
		if consume {
			node.ProgramUsage--
		}
		return reg, nil
	}

	if node.Op == exprdag.Load {
		reg, err := g.seizeRegister()
		if err != nil {
			return 0, err
		}
		typ, unsigned, err := g.resolveType(h)
		if err != nil {
			return 0, err
		}
		g.instrs = append(g.instrs, bytecode.Instruction{
			Op: bytecode.OpLoadCol, TypeA: typ, UnsignedA: unsigned,
			RegA: reg, Imm: uint16(node.ColIdx),
		})
		g.cacheSet(reg, h)
		node.HasBeenCompiled = true
		if consume {
			node.ProgramUsage--
		}
		return reg, nil
	}

	// Binary node. The first compilation of a node is the one that spends
	// its children's ProgramUsage; a forced recompute (because h's cached
	// register was evicted while other consumers still needed it) must
	// not spend them a second time.
	firstTime := !node.HasBeenCompiled

	left, right := node.Left, node.Right
	if !node.EvalLeftFirst {
		left, right = right, left
	}

	rl, err := g.compileExpr(left, firstTime)
	if err != nil {
		return 0, err
	}
	g.lock(rl)
	rr, err := g.compileExpr(right, firstTime)
	if err != nil {
		g.unlock(rl)
		return 0, err
	}

	leftNode := g.dag.Node(left)
	workReg := rl
	if leftNode.ProgramUsage > 0 {
		tmp, err := g.seizeRegister()
		if err != nil {
			g.unlock(rl)
			return 0, err
		}
		g.instrs = append(g.instrs, bytecode.Instruction{Op: bytecode.OpMov, RegA: tmp, RegB: rl})
		workReg = tmp
	} else {
		g.uncacheReg(rl)
	}

	typA, unsignedA, err := g.resolveType(left)
	if err != nil {
		g.unlock(rl)
		return 0, err
	}
	typB, unsignedB, err := g.resolveType(right)
	if err != nil {
		g.unlock(rl)
		return 0, err
	}
	g.instrs = append(g.instrs, bytecode.Instruction{
		Op: arithOpcode(node.Op),
		TypeA: typA, UnsignedA: unsignedA,
		TypeB: typB, UnsignedB: unsignedB,
		RegA: workReg, RegB: rr,
	})

	rightNode := g.dag.Node(right)
	if rightNode.ProgramUsage == 0 {
		g.uncacheReg(rr)
	}

	g.cacheSet(workReg, h)
	node.HasBeenCompiled = true
	if consume {
		node.ProgramUsage--
	}
	g.unlock(rl)
	return workReg, nil
}

func arithOpcode(op exprdag.Op) bytecode.Opcode {
	switch op {
	case exprdag.Add:
		return bytecode.OpPlus
	case exprdag.Minus:
		return bytecode.OpMinus
	case exprdag.Mul:
		return bytecode.OpMul
	case exprdag.Div:
		return bytecode.OpDiv
	case exprdag.Rem:
		return bytecode.OpRem
	default:
		panic(fmt.Sprintf("agg: unknown arithmetic op %s", op))
	}
}
