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

import "github.com/svenssonaxel/aggregation-interpreter/bytecode"

// eliminateDeadCode removes instructions whose result is never used, per
// spec section 4.2: a Mov whose destination is overwritten before being
// read, or any instruction whose sole output register is never read and
// is not an aggregate fold. Both cases fall out of one backward liveness
// sweep over register reads/writes: aggregate instructions have no
// register output (they write to a result slot, always kept), every other
// instruction's destination register is live only if some later
// instruction reads it before it is next written.
func eliminateDeadCode(instrs []bytecode.Instruction) []bytecode.Instruction {
	live := make(map[bytecode.Reg]bool)
	keep := make([]bool, len(instrs))
	for i := len(instrs) - 1; i >= 0; i-- {
		ins := instrs[i]
		writes, w := destOf(ins)
		reads := readsOf(ins)
		if w && !live[writes] {
			keep[i] = false
		} else {
			keep[i] = true
			if w {
				delete(live, writes)
			}
			for _, r := range reads {
				live[r] = true
			}
		}
	}
	out := make([]bytecode.Instruction, 0, len(instrs))
	for i, ins := range instrs {
		if keep[i] {
			out = append(out, ins)
		}
	}
	return out
}

// destOf reports the register an instruction writes, if any. Aggregate
// folds write to a result slot, not a register, so they report ok=false
// and are always kept by the liveness sweep above.
func destOf(ins bytecode.Instruction) (reg bytecode.Reg, ok bool) {
	switch {
	case ins.Op.IsAggregate():
		return 0, false
	case ins.Op == bytecode.OpLoadCol, ins.Op == bytecode.OpMov, ins.Op.IsArithmetic():
		return ins.RegA, true
	default:
		return 0, false
	}
}

// readsOf reports the registers an instruction reads.
func readsOf(ins bytecode.Instruction) []bytecode.Reg {
	switch {
	case ins.Op.IsAggregate():
		return []bytecode.Reg{ins.RegA}
	case ins.Op == bytecode.OpMov:
		return []bytecode.Reg{ins.RegB}
	case ins.Op.IsArithmetic():
		// In-place: RegA is both destination and left operand.
		return []bytecode.Reg{ins.RegA, ins.RegB}
	default:
		return nil
	}
}
