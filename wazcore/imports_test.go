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

func moduleWithOneFuncImport() *Module {
	return &Module{
		Types:   []FunctionType{{Params: []ValueType{I32}, Returns: []ValueType{I32}}},
		Imports: []Import{{ModuleName: "env", Name: "double", Type: FunctionTypeIndex(0)}},
	}
}

func TestResolveImportsAcceptsHostFn(t *testing.T) {
	mod := moduleWithOneFuncImport()
	var fn HostFn = func(inst *ModuleInstance, args []Value) ([]Value, error) {
		return []Value{I32Value(args[0].I32() * 2)}, nil
	}
	resolved, err := ResolveImports(mod, map[string]map[string]any{
		"env": {"double": fn},
	})
	if err != nil {
		t.Fatalf("ResolveImports: %v", err)
	}
	if len(resolved.Functions) != 1 {
		t.Fatalf("len(resolved.Functions) = %d, want 1", len(resolved.Functions))
	}
	results, err := resolved.Functions[0].(*HostFunc).Fn(nil, []Value{I32Value(21)})
	if err != nil {
		t.Fatalf("calling resolved host func: %v", err)
	}
	if results[0].I32() != 42 {
		t.Fatalf("results[0].I32() = %d, want 42", results[0].I32())
	}
}

func TestResolveImportsAcceptsBareFuncLiteral(t *testing.T) {
	mod := moduleWithOneFuncImport()
	resolved, err := ResolveImports(mod, map[string]map[string]any{
		"env": {"double": func(inst *ModuleInstance, args []Value) ([]Value, error) {
			return []Value{args[0]}, nil
		}},
	})
	if err != nil {
		t.Fatalf("ResolveImports: %v", err)
	}
	if len(resolved.Functions) != 1 {
		t.Fatalf("len(resolved.Functions) = %d, want 1", len(resolved.Functions))
	}
}

func TestResolveImportsTrapsOnMissingNamespace(t *testing.T) {
	mod := moduleWithOneFuncImport()
	_, err := ResolveImports(mod, map[string]map[string]any{})
	trap, ok := isTrap(err)
	if !ok || trap.Kind != TrapMissingHostImport {
		t.Fatalf("expected TrapMissingHostImport, got %v", err)
	}
}

func TestResolveImportsTrapsOnMissingName(t *testing.T) {
	mod := moduleWithOneFuncImport()
	_, err := ResolveImports(mod, map[string]map[string]any{"env": {}})
	trap, ok := isTrap(err)
	if !ok || trap.Kind != TrapMissingHostImport {
		t.Fatalf("expected TrapMissingHostImport, got %v", err)
	}
}

func TestResolveImportsGlobalAcceptsBareScalar(t *testing.T) {
	mod := &Module{
		Imports: []Import{{ModuleName: "env", Name: "counter", Type: GlobalType{ValueType: I32, Mutable: false}}},
	}
	resolved, err := ResolveImports(mod, map[string]map[string]any{
		"env": {"counter": int32(7)},
	})
	if err != nil {
		t.Fatalf("ResolveImports: %v", err)
	}
	if len(resolved.Globals) != 1 || resolved.Globals[0].Get().I32() != 7 {
		t.Fatalf("resolved global = %+v", resolved.Globals)
	}
}

func TestResolveImportsMemoryRejectsInsufficientMin(t *testing.T) {
	mod := &Module{
		Imports: []Import{{ModuleName: "env", Name: "mem", Type: MemoryType{Limits: Limits{Min: 4}}}},
	}
	provided := NewMemory(MemoryType{Limits: Limits{Min: 1}})
	_, err := ResolveImports(mod, map[string]map[string]any{
		"env": {"mem": provided},
	})
	if err == nil {
		t.Fatal("expected an error when the provided memory is smaller than required")
	}
}

func TestModuleImportBuilderBuildsExpectedShape(t *testing.T) {
	built := NewModuleImportBuilder("env").
		AddGlobal("base", I32Value(1024), false).
		Build()
	ns, ok := built["env"]
	if !ok {
		t.Fatal(`Build() missing "env" namespace`)
	}
	g, ok := ns["base"].(*Global)
	if !ok {
		t.Fatalf(`ns["base"] = %T, want *Global`, ns["base"])
	}
	if g.Get().I32() != 1024 {
		t.Fatalf("g.Get().I32() = %d, want 1024", g.Get().I32())
	}
}
