// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wazcore

import "testing"

func TestImmutableGlobalRejectsWrite(t *testing.T) {
	g := NewGlobal(GlobalType{ValueType: I32, Mutable: false}, I32Value(1))
	if err := g.Set(I32Value(2)); err == nil {
		t.Fatal("expected an error writing to an immutable global")
	}
}

func TestMutableGlobalAcceptsWrite(t *testing.T) {
	g := NewGlobal(GlobalType{ValueType: I32, Mutable: true}, I32Value(1))
	if err := g.Set(I32Value(2)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if g.Get().I32() != 2 {
		t.Fatalf("Get().I32() = %d, want 2", g.Get().I32())
	}
}

func TestTableGrowRejectsPastMax(t *testing.T) {
	max := uint32(2)
	tbl := NewTable(TableType{RefType: FuncRefType, Limits: Limits{Min: 1, Max: &max}})
	if prev := tbl.Grow(1, NullFuncRef); prev != 1 {
		t.Fatalf("Grow(1) = %d, want 1", prev)
	}
	if prev := tbl.Grow(1, NullFuncRef); prev != -1 {
		t.Fatalf("Grow(1) past max = %d, want -1", prev)
	}
}

func TestTableRefOutOfBoundsTraps(t *testing.T) {
	tbl := NewTable(TableType{RefType: FuncRefType, Limits: Limits{Min: 1}})
	_, err := tbl.Ref(5)
	trap, ok := isTrap(err)
	if !ok || trap.Kind != TrapOutOfBoundsTableAccess {
		t.Fatalf("expected TrapOutOfBoundsTableAccess, got %v", err)
	}
}

func TestNewTableFillsWithCanonicalNull(t *testing.T) {
	tbl := NewTable(TableType{RefType: FuncRefType, Limits: Limits{Min: 3}})
	for i := int32(0); i < 3; i++ {
		v, err := tbl.Ref(i)
		if err != nil {
			t.Fatalf("Ref(%d): %v", i, err)
		}
		if !v.IsNull() {
			t.Fatalf("Ref(%d) = %+v, want null", i, v)
		}
	}
}

func TestComputeConstantValueEvaluatesI32Const(t *testing.T) {
	var i32Val int32 = -7
	instrs := []Instruction{
		{Opcode: opI32Const, Operands: []uint64{uint64(uint32(i32Val))}},
		{Opcode: opEnd},
	}
	v, err := computeConstantValue(nil, instrs)
	if err != nil {
		t.Fatalf("computeConstantValue: %v", err)
	}
	if v.I32() != -7 {
		t.Fatalf("v.I32() = %d, want -7", v.I32())
	}
}
