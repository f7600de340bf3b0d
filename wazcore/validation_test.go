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

func minimalValidModule() *Module {
	return &Module{
		Types: []FunctionType{{Returns: []ValueType{I32}}},
		Funcs: []Function{{TypeIndex: 0, Body: []byte{0x41, 0x00, 0x0B}}},
	}
}

func TestValidateModuleAcceptsWellFormedModule(t *testing.T) {
	if err := ValidateModule(minimalValidModule()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateModuleRejectsOutOfRangeFunctionTypeIndex(t *testing.T) {
	mod := minimalValidModule()
	mod.Funcs[0].TypeIndex = 5
	if err := ValidateModule(mod); err == nil {
		t.Fatal("expected an error for an out-of-range function type index")
	}
}

func TestValidateModuleRejectsOutOfRangeExportIndex(t *testing.T) {
	mod := minimalValidModule()
	mod.Exports = []Export{{Name: "f", IndexType: FunctionIndexType, Index: 9}}
	if err := ValidateModule(mod); err == nil {
		t.Fatal("expected an error for an out-of-range export index")
	}
}

func TestValidateModuleRejectsOutOfRangeStartIndex(t *testing.T) {
	mod := minimalValidModule()
	bad := uint32(3)
	mod.StartIndex = &bad
	if err := ValidateModule(mod); err == nil {
		t.Fatal("expected an error for an out-of-range start function index")
	}
}

func TestValidateModuleRejectsMultipleMemories(t *testing.T) {
	mod := minimalValidModule()
	mod.Memories = []MemoryType{{Limits: Limits{Min: 1}}, {Limits: Limits{Min: 1}}}
	if err := ValidateModule(mod); err == nil {
		t.Fatal("expected an error for multiple memories")
	}
}

func TestValidateModuleRejectsActiveElementWithBadTableIndex(t *testing.T) {
	mod := minimalValidModule()
	mod.Elements = []ElementSegment{{Mode: ActiveElementMode, TableIndex: 2}}
	if err := ValidateModule(mod); err == nil {
		t.Fatal("expected an error for an out-of-range element table index")
	}
}

func TestValidateModuleRejectsActiveDataWithBadMemoryIndex(t *testing.T) {
	mod := minimalValidModule()
	mod.DataSegments = []DataSegment{{Mode: ActiveDataMode, MemoryIndex: 1}}
	if err := ValidateModule(mod); err == nil {
		t.Fatal("expected an error for an out-of-range data segment memory index")
	}
}
