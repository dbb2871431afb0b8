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

package vm

import (
	"github.com/svenssonaxel/aggregation-interpreter/bytecode"
	"github.com/svenssonaxel/aggregation-interpreter/record"
)

// Slot is one per-group aggregate result: spec section 3's "(type,
// running_value, count) per group, typed per the program header." Count
// is incremented by Sum and Count folds; Min/Max leave it untouched and
// track "no contribution yet" with hasValue instead.
type Slot struct {
	Type     bytecode.Type
	Unsigned bool

	I int64
	U uint64
	F float64

	Count int64

	hasValue bool // Min/Max: whether any value has been folded in yet
	errored  bool // a division-by-zero poisoned this slot's final value
}

// Null reports whether this slot's value is the NULL-like result spec
// section 4.3 describes for integer division by zero.
func (s Slot) Null() bool { return s.errored }

// newSlots allocates a fresh slot array for a newly seen group, typed per
// the program header. Identities (Sum/Count start at zero, Min/Max wait
// for their first contribution) fall out of the zero value plus
// hasValue, rather than needing a separate +inf/-inf sentinel per spec
// section 4.4's "first non-empty write sets it."
func newSlots(types []bytecode.AggResultType) []Slot {
	slots := make([]Slot, len(types))
	for i, t := range types {
		slots[i] = Slot{Type: t.Type, Unsigned: t.Unsigned}
	}
	return slots
}

// GroupResult is one group's output: the group-by key values, in declared
// order, and its aggregate result slots, in SELECT declaration order
// (spec section 4.4's Finalize).
type GroupResult struct {
	Key   []record.Cell
	Slots []Slot
}
