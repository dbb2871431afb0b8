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

package exprdag

import "testing"

func TestLoadIsHashConsed(t *testing.T) {
	b := NewBuilder()
	x := b.Load(3)
	y := b.Load(3)
	if x != y {
		t.Fatalf("Load(3) twice returned different handles: %v, %v", x, y)
	}
	if b.Len() != 1 {
		t.Fatalf("expected 1 node, got %d", b.Len())
	}
}

func TestBinaryIsHashConsedButNotCommutative(t *testing.T) {
	b := NewBuilder()
	a := b.Load(0)
	c := b.Load(1)

	ac1, err := b.Binary(Add, a, c)
	if err != nil {
		t.Fatalf("Binary: %v", err)
	}
	ac2, err := b.Binary(Add, a, c)
	if err != nil {
		t.Fatalf("Binary: %v", err)
	}
	if ac1 != ac2 {
		t.Fatalf("Binary(Add,a,c) twice returned different handles")
	}

	ca, err := b.Binary(Add, c, a)
	if err != nil {
		t.Fatalf("Binary: %v", err)
	}
	if ca == ac1 {
		t.Fatalf("Binary(Add,a,c) and Binary(Add,c,a) must not be hash-consed together")
	}
}

// TestSharedSubexpressionUsage reproduces spec section 8 scenario 3:
// sum((a+b)*(a+b)) must hash-cons a+b to a single node referenced twice.
func TestSharedSubexpressionUsage(t *testing.T) {
	b := NewBuilder()
	a := b.Load(0)
	bb := b.Load(1)

	ab, err := b.Binary(Add, a, bb)
	if err != nil {
		t.Fatalf("Binary: %v", err)
	}
	mul, err := b.Binary(Mul, ab, ab)
	if err != nil {
		t.Fatalf("Binary: %v", err)
	}
	b.Use(mul) // as if Aggregate(Sum, mul) had been called

	if got := b.Node(ab).Usage; got != 2 {
		t.Fatalf("a+b usage = %d, want 2 (used as both operands of the multiply)", got)
	}
	if got := b.Node(mul).Usage; got != 1 {
		t.Fatalf("(a+b)*(a+b) usage = %d, want 1", got)
	}
	if got := b.Node(a).Usage; got != 1 {
		t.Fatalf("a usage = %d, want 1", got)
	}
	if b.Len() != 4 {
		t.Fatalf("expected 4 distinct nodes (a, b, a+b, (a+b)*(a+b)) got %d", b.Len())
	}
}

func TestEstRegsSethiUllman(t *testing.T) {
	b := NewBuilder()
	a := b.Load(0)
	c := b.Load(1)

	// Leaves always estimate 1 register.
	if b.Node(a).EstRegs != 1 {
		t.Fatalf("Load est_regs = %d, want 1", b.Node(a).EstRegs)
	}

	ac, err := b.Binary(Add, a, c)
	if err != nil {
		t.Fatalf("Binary: %v", err)
	}
	// Both operands cost 1 register; equal cost bumps the estimate by one.
	if got := b.Node(ac).EstRegs; got != 2 {
		t.Fatalf("a+c est_regs = %d, want 2", got)
	}
	if !b.Node(ac).EvalLeftFirst {
		t.Fatalf("equal-cost operands should evaluate left first (tie-break)")
	}

	d := b.Load(2)
	acd, err := b.Binary(Mul, ac, d)
	if err != nil {
		t.Fatalf("Binary: %v", err)
	}
	// Left costs 2, right costs 1: estimate is max(2,1) with no bump.
	if got := b.Node(acd).EstRegs; got != 2 {
		t.Fatalf("(a+c)*d est_regs = %d, want 2", got)
	}
	if !b.Node(acd).EvalLeftFirst {
		t.Fatalf("heavier left operand should be evaluated first")
	}
}

func TestBinaryRejectsLoadOp(t *testing.T) {
	b := NewBuilder()
	x := b.Load(0)
	if _, err := b.Binary(Load, x, x); err == nil {
		t.Fatalf("expected error constructing a binary node with op=Load")
	}
}
