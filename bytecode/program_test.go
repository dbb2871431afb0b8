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

import (
	"reflect"
	"testing"
)

func sampleProgram() *Program {
	return &Program{
		Header: Header{
			GroupByCols: []int{0},
			AggTypes: []AggResultType{
				{Type: TypeBigInt, Unsigned: false},
				{Type: TypeDouble},
			},
		},
		Instructions: []Instruction{
			{Op: OpLoadCol, TypeA: TypeBigInt, RegA: 0, Imm: 0},
			{Op: OpCount, TypeA: TypeBigInt, UnsignedA: true, RegA: 0, Imm: 0},
			{Op: OpLoadCol, TypeA: TypeDouble, RegA: 1, Imm: 1},
			{Op: OpSum, TypeA: TypeDouble, RegA: 1, Imm: 1},
		},
	}
}

func TestProgramRoundTrip(t *testing.T) {
	p := sampleProgram()
	words, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeProgram(words)
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	if !reflect.DeepEqual(got.Header, p.Header) {
		t.Errorf("header mismatch: got %+v, want %+v", got.Header, p.Header)
	}
	if !reflect.DeepEqual(got.Instructions, p.Instructions) {
		t.Errorf("instructions mismatch: got %+v, want %+v", got.Instructions, p.Instructions)
	}
}

func TestDecodeProgramBadMagic(t *testing.T) {
	words := []uint32{0, 0}
	if _, err := DecodeProgram(words); err == nil {
		t.Fatalf("expected an error for bad magic")
	}
}

func TestDecodeProgramTruncated(t *testing.T) {
	p := sampleProgram()
	words, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := DecodeProgram(words[:len(words)-1]); err == nil {
		t.Fatalf("expected a length-mismatch error for a truncated program")
	}
}

func TestDecodeProgramHeaderTruncated(t *testing.T) {
	// Header claims 5 group-by columns but supplies none.
	words := []uint32{uint32(Magic)<<16 | 2, 5 << 16}
	if _, err := DecodeProgram(words); err == nil {
		t.Fatalf("expected an error for a truncated header")
	}
}

func TestDisassembleDoesNotPanic(t *testing.T) {
	p := sampleProgram()
	if out := p.Disassemble(); out == "" {
		t.Fatalf("expected non-empty disassembly")
	}
}
