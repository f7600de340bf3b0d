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

func TestMemoryLoadStoreRoundTrip(t *testing.T) {
	m := NewMemory(MemoryType{Limits: Limits{Min: 1}})
	if err := m.StoreUint32(100, 0xdeadbeef); err != nil {
		t.Fatalf("StoreUint32: %v", err)
	}
	v, err := m.LoadUint32(100)
	if err != nil {
		t.Fatalf("LoadUint32: %v", err)
	}
	if v != 0xdeadbeef {
		t.Fatalf("LoadUint32 = %#x, want 0xdeadbeef", v)
	}
}

func TestMemoryOutOfBoundsAccessTraps(t *testing.T) {
	m := NewMemory(MemoryType{Limits: Limits{Min: 1}})
	_, err := m.LoadByte(pageSize)
	trap, ok := isTrap(err)
	if !ok || trap.Kind != TrapOutOfBoundsMemoryAccess {
		t.Fatalf("expected TrapOutOfBoundsMemoryAccess, got %v", err)
	}
}

func TestMemoryGrowRejectsPastMax(t *testing.T) {
	max := uint32(2)
	m := NewMemory(MemoryType{Limits: Limits{Min: 1, Max: &max}})
	if prev := m.Grow(1); prev != 1 {
		t.Fatalf("Grow(1) = %d, want 1", prev)
	}
	if prev := m.Grow(1); prev != -1 {
		t.Fatalf("Grow(1) past max = %d, want -1", prev)
	}
}

func TestMemoryReadDoesNotAliasBackingBuffer(t *testing.T) {
	m := NewMemory(MemoryType{Limits: Limits{Min: 1}})
	if err := m.StoreByte(0, 0x42); err != nil {
		t.Fatalf("StoreByte: %v", err)
	}
	data, err := m.Read(0, 1)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	data[0] = 0xFF
	b, err := m.LoadByte(0)
	if err != nil {
		t.Fatalf("LoadByte: %v", err)
	}
	if b != 0x42 {
		t.Fatalf("underlying memory mutated through Read's result: got %#x", b)
	}
}

func TestInitPassiveSegmentOversizedTraps(t *testing.T) {
	m := NewMemory(MemoryType{Limits: Limits{Min: 1}})
	m.setDataSegments([][]byte{{1, 2, 3}})
	err := m.InitPassiveSegment(0, 0, 0, 10)
	trap, ok := isTrap(err)
	if !ok || trap.Kind != TrapOutOfBoundsMemoryAccess {
		t.Fatalf("expected TrapOutOfBoundsMemoryAccess, got %v", err)
	}
}

func TestInitPassiveSegmentSmallerSizeCopiesBytes(t *testing.T) {
	m := NewMemory(MemoryType{Limits: Limits{Min: 1}})
	m.setDataSegments([][]byte{{1, 2, 3, 4}})
	if err := m.InitPassiveSegment(0, 10, 1, 2); err != nil {
		t.Fatalf("InitPassiveSegment: %v", err)
	}
	data, err := m.Read(10, 2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if data[0] != 2 || data[1] != 3 {
		t.Fatalf("copied bytes = %v, want [2 3]", data)
	}
}

func TestInitPassiveSegmentAfterDropTraps(t *testing.T) {
	m := NewMemory(MemoryType{Limits: Limits{Min: 1}})
	m.setDataSegments([][]byte{{1, 2, 3}})
	m.Drop(0)
	_, ok := isTrap(m.InitPassiveSegment(0, 0, 0, 1))
	if !ok {
		t.Fatal("expected a trap after Drop")
	}
}
