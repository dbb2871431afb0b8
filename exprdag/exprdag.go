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

// Package exprdag builds the shared-subexpression graph described in spec
// section 3 and 4.1: a DAG of Load/arithmetic nodes, hash-consed so that
// two structurally identical expressions are represented by one physical
// node, each carrying a Sethi-Ullman-style register estimate.
//
// Following the re-architecture spec section 9 recommends, nodes are not
// individually-allocated pointers into an arena; they live in a Builder-
// owned slice and are addressed by dense Handle indices. This sidesteps
// cycles by construction and turns the refcount into a plain int field on
// a slice element.
package exprdag

import "fmt"

// Op identifies the operation a Node performs.
type Op int

const (
	Load Op = iota
	Add
	Minus
	Mul
	Div
	Rem
)

func (op Op) String() string {
	switch op {
	case Load:
		return "Load"
	case Add:
		return "Add"
	case Minus:
		return "Minus"
	case Mul:
		return "Mul"
	case Div:
		return "Div"
	case Rem:
		return "Rem"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// IsArithmetic reports whether op is one of the binary arithmetic ops
// (everything but Load).
func (op Op) IsArithmetic() bool {
	return op != Load
}

// Handle identifies a Node within a Builder. Two handles compare equal
// exactly when they refer to the same (hash-consed) node, which is what
// makes the invariant "load(x) == load(x)" in spec section 8 hold as plain
// Go value equality.
type Handle int

// Invalid is the zero-value-adjacent sentinel for "no node", used for the
// Left/Right fields of a Load node.
const Invalid Handle = -1

// Node is one DAG node: either a Load of a column, or a binary arithmetic
// operation over two earlier-constructed nodes.
type Node struct {
	Op            Op
	Left, Right   Handle // Invalid for Load
	ColIdx        int    // valid for Load only
	Usage         int    // refcount from other Nodes and from AggExprs; seeds ProgramUsage
	EstRegs       int    // Sethi-Ullman register estimate, computed once
	EvalLeftFirst bool   // true: evaluate Left before Right to minimise pressure

	// Codegen scratch. These belong to the code generator conceptually,
	// but spec section 3 places them on Expr "for convenience", and so do
	// we: it avoids a second array indexed in lockstep with Builder.nodes.
	ProgramUsage    int
	HasBeenCompiled bool
}

type binKey struct {
	op          Op
	left, right Handle
}

// Builder owns the node slice and the hash-cons tables. The zero value is
// not usable; use NewBuilder.
type Builder struct {
	nodes   []Node
	loadIdx map[int]Handle
	binIdx  map[binKey]Handle
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		loadIdx: make(map[int]Handle),
		binIdx:  make(map[binKey]Handle),
	}
}

// Load returns the (hash-consed) node that loads column colIdx: two calls
// with the same colIdx return the same Handle.
func (b *Builder) Load(colIdx int) Handle {
	if h, ok := b.loadIdx[colIdx]; ok {
		return h
	}
	h := b.push(Node{Op: Load, ColIdx: colIdx, Left: Invalid, Right: Invalid, EstRegs: 1})
	b.loadIdx[colIdx] = h
	return h
}

// Binary returns the (hash-consed) node for "x op y". Construction is
// non-commutative: Binary(Add, x, y) and Binary(Add, y, x) are distinct
// nodes unless x == y, per spec section 4.1.
func (b *Builder) Binary(op Op, x, y Handle) (Handle, error) {
	if op == Load {
		return Invalid, fmt.Errorf("exprdag: Load is not a binary operator")
	}
	if !b.valid(x) || !b.valid(y) {
		return Invalid, fmt.Errorf("exprdag: operand handle out of range")
	}
	key := binKey{op, x, y}
	if h, ok := b.binIdx[key]; ok {
		// x and y already have their single edge into this node from
		// when it was first constructed; a repeat call just hands the
		// same node back to a new consumer, who will bump h's own
		// usage (via another Binary or Aggregate call) when they use it.
		return h, nil
	}
	xn, yn := &b.nodes[x], &b.nodes[y]
	evalLeftFirst := xn.EstRegs >= yn.EstRegs
	estRegs := xn.EstRegs
	if yn.EstRegs > estRegs {
		estRegs = yn.EstRegs
	}
	if xn.EstRegs == yn.EstRegs {
		estRegs++
	}
	h := b.push(Node{
		Op: op, Left: x, Right: y,
		EstRegs: estRegs, EvalLeftFirst: evalLeftFirst,
	})
	b.binIdx[key] = h
	b.Use(x)
	b.Use(y)
	return h, nil
}

func (b *Builder) push(n Node) Handle {
	b.nodes = append(b.nodes, n)
	return Handle(len(b.nodes) - 1)
}

func (b *Builder) valid(h Handle) bool {
	return h >= 0 && int(h) < len(b.nodes)
}

// Use records an additional reference to h, from a parent Node or an
// AggExpr. Callers building anything that references a Handle a second
// time (aggregate arguments, in particular) must call this explicitly;
// Binary already calls it for its own operands.
func (b *Builder) Use(h Handle) {
	b.nodes[h].Usage++
}

// Node returns a pointer to the node at h. The pointer is invalidated by
// any subsequent call to Load or Binary (which may grow the backing
// slice); callers must not retain it across those calls.
func (b *Builder) Node(h Handle) *Node {
	return &b.nodes[h]
}

// Len returns the number of distinct (hash-consed) nodes built so far.
func (b *Builder) Len() int {
	return len(b.nodes)
}
