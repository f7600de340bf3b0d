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

// uleb128 encodes v as unsigned LEB128, mirroring the decoding side in
// leb128.go so hand-built module fixtures don't need magic byte constants.
func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func section(id byte, payload []byte) []byte {
	out := []byte{id}
	out = append(out, uleb128(uint32(len(payload)))...)
	out = append(out, payload...)
	return out
}

func vector(count uint32, items ...[]byte) []byte {
	out := uleb128(count)
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func nameBytes(s string) []byte {
	out := uleb128(uint32(len(s)))
	return append(out, []byte(s)...)
}

// buildAddModule encodes a module exporting one function, "add", of type
// (i32, i32) -> i32, computed as local.get 0; local.get 1; i32.add; end.
func buildAddModule(t *testing.T) []byte {
	t.Helper()

	header := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

	funcType := append([]byte{0x60}, vector(2, []byte{byte(I32)}, []byte{byte(I32)})...)
	funcType = append(funcType, vector(1, []byte{byte(I32)})...)
	typeSection := section(1, vector(1, funcType))

	functionSection := section(3, vector(1, uleb128(0)))

	exportEntry := append(nameBytes("add"), 0x00)
	exportEntry = append(exportEntry, uleb128(0)...)
	exportSection := section(7, vector(1, exportEntry))

	body := []byte{
		0x00,             // zero local-declaration groups
		0x20, 0x00,       // local.get 0
		0x20, 0x01,       // local.get 1
		0x6A,             // i32.add
		0x0B,             // end
	}
	codeEntry := append(uleb128(uint32(len(body))), body...)
	codeSection := section(10, vector(1, codeEntry))

	out := append([]byte{}, header...)
	out = append(out, typeSection...)
	out = append(out, functionSection...)
	out = append(out, exportSection...)
	out = append(out, codeSection...)
	return out
}

func TestParseModuleDecodesAddFunction(t *testing.T) {
	data := buildAddModule(t)
	mod, err := ParseModule(data)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	if len(mod.Types) != 1 {
		t.Fatalf("len(mod.Types) = %d, want 1", len(mod.Types))
	}
	if len(mod.Funcs) != 1 {
		t.Fatalf("len(mod.Funcs) = %d, want 1", len(mod.Funcs))
	}
	if len(mod.Exports) != 1 || mod.Exports[0].Name != "add" {
		t.Fatalf("mod.Exports = %+v", mod.Exports)
	}
}

func TestInstantiateAndInvokeAddFunction(t *testing.T) {
	data := buildAddModule(t)
	rt := NewRuntime()
	inst, err := rt.InstantiateModuleFromBytes(data)
	if err != nil {
		t.Fatalf("InstantiateModuleFromBytes: %v", err)
	}
	results, err := inst.Invoke("add", I32Value(2), I32Value(40))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(results) != 1 || results[0].I32() != 42 {
		t.Fatalf("results = %+v, want [42]", results)
	}
}

func TestInstantiateRejectsBadMagic(t *testing.T) {
	_, err := ParseModule([]byte{0x00, 0x00, 0x00, 0x00})
	if err == nil {
		t.Fatal("expected an error for a bad magic number")
	}
}

func TestExportNamesPreservesDeclarationOrder(t *testing.T) {
	data := buildAddModule(t)
	rt := NewRuntime()
	inst, err := rt.InstantiateModuleFromBytes(data)
	if err != nil {
		t.Fatalf("InstantiateModuleFromBytes: %v", err)
	}
	names := inst.ExportNames()
	if len(names) != 1 || names[0] != "add" {
		t.Fatalf("ExportNames() = %v, want [add]", names)
	}
}
