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

package bytecode

import "fmt"

// Instruction is the decoded, semantically-named form of one 32-bit word.
// Not every field is meaningful for every Op; see Encode/Decode for which
// fields each opcode reads and writes.
type Instruction struct {
	Op Opcode

	// TypeA/UnsignedA describe the "A" operand: the value type written by
	// LoadCol, the result/left-operand type of an arithmetic op, the
	// moved value's type for Mov, or the (redundant, self-describing)
	// result type for an aggregate fold.
	TypeA Type
	UnsignedA bool

	// TypeB/UnsignedB describe the right-hand operand of an arithmetic op.
	// Unused for every other opcode.
	TypeB Type
	UnsignedB bool

	// RegA/RegB are register-file indices. Their meaning depends on Op:
	//   LoadCol:   RegA = destination register. RegB unused.
	//   Mov:       RegA = destination, RegB = source.
	//   arithmetic: RegA = destination AND left operand, RegB = right operand.
	//   aggregate: RegA = source register holding the folded value. RegB unused.
	RegA, RegB Reg

	// Imm carries the column index (LoadCol) or the aggregate result
	// slot index (aggregate ops). Unused for Mov and arithmetic ops,
	// which encode both their operands in RegA/RegB instead.
	Imm uint16
}

const (
	shiftOp      = 26
	shiftUnsignedA   = 25
	shiftTypeA   = 21
	shiftUnsignedB   = 20
	shiftTypeB   = 16 // also: register index of the sole operand, for LoadCol/aggregate ops
	maskOp       = 0x3F
	maskFlag     = 0x1
	maskType     = 0xF
	maskImm      = 0xFFFF
	shiftPackRegA = 12
	shiftPackRegB = 8
	maskPackReg   = 0xF
)

// Encode packs ins into one 32-bit instruction word.
func (ins Instruction) Encode() uint32 {
	w := uint32(ins.Op&maskOp) << shiftOp
	if ins.UnsignedA {
		w |= 1 << shiftUnsignedA
	}
	w |= uint32(ins.TypeA&maskType) << shiftTypeA
	if ins.UnsignedB {
		w |= 1 << shiftUnsignedB
	}

	switch {
	case ins.Op == OpLoadCol:
		w |= uint32(ins.RegA&maskPackReg) << shiftTypeB
		w |= uint32(ins.Imm) & maskImm
	case ins.Op.IsAggregate():
		w |= uint32(ins.RegA&maskPackReg) << shiftTypeB
		w |= uint32(ins.Imm) & maskImm
	case ins.Op == OpMov || ins.Op.IsArithmetic():
		w |= uint32(ins.TypeB&maskType) << shiftTypeB
		packed := (uint32(ins.RegA&maskPackReg) << shiftPackRegA) | (uint32(ins.RegB&maskPackReg) << shiftPackRegB)
		w |= packed & maskImm
	}
	return w
}

// Decode unpacks a 32-bit instruction word.
func Decode(w uint32) Instruction {
	op := Opcode((w >> shiftOp) & maskOp)
	ins := Instruction{
		Op:        op,
		UnsignedA: (w>>shiftUnsignedA)&maskFlag != 0,
		TypeA:     Type((w >> shiftTypeA) & maskType),
		UnsignedB: (w>>shiftUnsignedB)&maskFlag != 0,
	}
	switch {
	case op == OpLoadCol:
		ins.RegA = Reg((w >> shiftTypeB) & maskPackReg)
		ins.Imm = uint16(w & maskImm)
	case op.IsAggregate():
		ins.RegA = Reg((w >> shiftTypeB) & maskPackReg)
		ins.Imm = uint16(w & maskImm)
	case op == OpMov || op.IsArithmetic():
		ins.TypeB = Type((w >> shiftTypeB) & maskType)
		imm := uint32(w & maskImm)
		ins.RegA = Reg((imm >> shiftPackRegA) & maskPackReg)
		ins.RegB = Reg((imm >> shiftPackRegB) & maskPackReg)
	}
	return ins
}

// String renders a human-readable disassembly of one instruction, in the
// register-name/quoted-identifier style print() uses for the whole program.
func (ins Instruction) String() string {
	switch {
	case ins.Op == OpLoadCol:
		return fmt.Sprintf("LOADCOL r%d, col=%d (%s)", ins.RegA, ins.Imm, typeName(ins.TypeA, ins.UnsignedA))
	case ins.Op.IsAggregate():
		return fmt.Sprintf("%s agg[%d], r%d (%s)", ins.Op, ins.Imm, ins.RegA, typeName(ins.TypeA, ins.UnsignedA))
	case ins.Op == OpMov:
		return fmt.Sprintf("MOV r%d, r%d", ins.RegA, ins.RegB)
	case ins.Op.IsArithmetic():
		return fmt.Sprintf("%s r%d, r%d (%s, %s)", ins.Op, ins.RegA, ins.RegB, typeName(ins.TypeA, ins.UnsignedA), typeName(ins.TypeB, ins.UnsignedB))
	default:
		return fmt.Sprintf("?%d", ins.Op)
	}
}

func typeName(t Type, unsigned bool) string {
	if t == TypeDouble {
		return "DOUBLE"
	}
	if unsigned {
		return "BIGINT UNSIGNED"
	}
	return "BIGINT"
}
