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

// Package bytecode defines the fixed 32-bit instruction word format the
// code generator emits and the interpreter executes: a header describing
// the program shape followed by a flat instruction stream, no relocation
// or external symbol table required.
package bytecode

import "fmt"

// Opcode is the 6-bit operation code occupying bits [31:26] of a word.
type Opcode uint8

const (
	OpCount Opcode = iota
	OpLoadCol
	OpSum
	OpMin
	OpMax
	OpPlus // Add
	OpMinus
	OpMul
	OpDiv
	OpRem
	OpMov
)

func (op Opcode) String() string {
	switch op {
	case OpCount:
		return "COUNT"
	case OpLoadCol:
		return "LOADCOL"
	case OpSum:
		return "SUM"
	case OpMin:
		return "MIN"
	case OpMax:
		return "MAX"
	case OpPlus:
		return "ADD"
	case OpMinus:
		return "SUB"
	case OpMul:
		return "MUL"
	case OpDiv:
		return "DIV"
	case OpRem:
		return "REM"
	case OpMov:
		return "MOV"
	default:
		return fmt.Sprintf("Opcode(%d)", uint8(op))
	}
}

// IsAggregate reports whether op folds a register value into a per-group
// aggregate result slot.
func (op Opcode) IsAggregate() bool {
	switch op {
	case OpCount, OpSum, OpMin, OpMax:
		return true
	default:
		return false
	}
}

// IsArithmetic reports whether op is a two-register arithmetic operation.
func (op Opcode) IsArithmetic() bool {
	switch op {
	case OpPlus, OpMinus, OpMul, OpDiv, OpRem:
		return true
	default:
		return false
	}
}

// Type is the runtime type tag carried by a register or aggregate slot.
type Type uint8

const (
	TypeBigInt Type = iota
	TypeDouble
)

func (t Type) String() string {
	switch t {
	case TypeBigInt:
		return "BIGINT"
	case TypeDouble:
		return "DOUBLE"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Reg is a register-file index, valid in [0, NumRegs).
type Reg uint8

// NumRegs is the size of the register file (spec: REGS = 16).
const NumRegs = 16

// Magic gates the bytecode format version; Init rejects any program whose
// header word 0 doesn't carry it in its high 16 bits.
const Magic = 0x0721

// Widen implements spec section 4.3's mixed-type arithmetic rule: if
// either side is Double, the other is converted to Double; otherwise if
// either side is unsigned BigInt, both are treated as unsigned. Both the
// code generator (to decide an expression's static result type) and the
// interpreter (to decide how to combine two register values) must apply
// this identically, so it lives once here.
func Widen(aTyp Type, aUnsigned bool, bTyp Type, bUnsigned bool) (Type, bool) {
	if aTyp == TypeDouble || bTyp == TypeDouble {
		return TypeDouble, false
	}
	return TypeBigInt, aUnsigned || bUnsigned
}
