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

import "fmt"

// ResolvedImports holds the concrete objects a module's import section
// resolved to, in declaration order, ready to be appended ahead of the
// module's own function/table/memory/global definitions during
// instantiation.
type ResolvedImports struct {
	Functions []FunctionInstance
	Tables    []*Table
	Memories  []*Memory
	Globals   []*Global
}

// HostFn is the signature an embedder implements to supply a function
// import: it receives the calling instance (so it can reach back into that
// instance's own memory or table) and the already-type-checked arguments.
type HostFn func(inst *ModuleInstance, args []Value) ([]Value, error)

// ResolveImports resolves the imports declared by module against the
// embedder-supplied namespace map, produced by ModuleImportBuilder.Build or
// assembled by hand. imports is namespace name -> import name -> one of
// HostFn, *HostFunc, FunctionInstance, *Global, *Table, *Memory, or a bare
// Go scalar (int32/int64/float32/float64) for a global import's initial
// value.
func ResolveImports(module *Module, imports map[string]map[string]any) (*ResolvedImports, error) {
	resolved := &ResolvedImports{}
	for _, imp := range module.Imports {
		ns, ok := imports[imp.ModuleName]
		if !ok {
			return nil, newTrapf(TrapMissingHostImport, fmt.Errorf("missing import module %q", imp.ModuleName))
		}
		obj, ok := ns[imp.Name]
		if !ok {
			return nil, newTrapf(TrapMissingHostImport, fmt.Errorf("%s.%s not provided", imp.ModuleName, imp.Name))
		}

		switch t := imp.Type.(type) {
		case FunctionTypeIndex:
			fn, err := resolveFunctionImport(module, t, imp, obj)
			if err != nil {
				return nil, err
			}
			resolved.Functions = append(resolved.Functions, fn)

		case GlobalType:
			g, err := resolveGlobalImport(t, imp, obj)
			if err != nil {
				return nil, err
			}
			resolved.Globals = append(resolved.Globals, g)

		case MemoryType:
			mem, ok := obj.(*Memory)
			if !ok {
				return nil, fmt.Errorf("%s.%s is not a memory", imp.ModuleName, imp.Name)
			}
			provided := Limits{Min: uint32(mem.Size()), Max: mem.Limits.Max}
			if !limitsSatisfy(provided, t.Limits) {
				return nil, fmt.Errorf("%s.%s: memory limits mismatch", imp.ModuleName, imp.Name)
			}
			resolved.Memories = append(resolved.Memories, mem)

		case TableType:
			tbl, ok := obj.(*Table)
			if !ok {
				return nil, fmt.Errorf("%s.%s is not a table", imp.ModuleName, imp.Name)
			}
			if tbl.Type.RefType != t.RefType {
				return nil, fmt.Errorf("%s.%s: reference type mismatch", imp.ModuleName, imp.Name)
			}
			provided := Limits{Min: uint32(tbl.Size()), Max: tbl.Type.Limits.Max}
			if !limitsSatisfy(provided, t.Limits) {
				return nil, fmt.Errorf("%s.%s: table limits mismatch", imp.ModuleName, imp.Name)
			}
			resolved.Tables = append(resolved.Tables, tbl)

		default:
			return nil, fmt.Errorf("%s.%s: unrecognized import type %T", imp.ModuleName, imp.Name, imp.Type)
		}
	}
	return resolved, nil
}

func resolveFunctionImport(module *Module, t FunctionTypeIndex, imp Import, obj any) (FunctionInstance, error) {
	want := &module.Types[t]
	switch f := obj.(type) {
	case HostFn:
		return &HostFunc{Type: want, Fn: f, Name: imp.Name}, nil
	case func(*ModuleInstance, []Value) ([]Value, error):
		return &HostFunc{Type: want, Fn: f, Name: imp.Name}, nil
	case FunctionInstance:
		if !want.typesMatch(f.FuncType()) {
			return nil, fmt.Errorf("%s.%s: function type mismatch", imp.ModuleName, imp.Name)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%s.%s is not a function", imp.ModuleName, imp.Name)
	}
}

func resolveGlobalImport(t GlobalType, imp Import, obj any) (*Global, error) {
	switch v := obj.(type) {
	case *Global:
		if v.mutable != t.Mutable {
			return nil, fmt.Errorf("%s.%s: global mutability mismatch", imp.ModuleName, imp.Name)
		}
		if v.Type != t.ValueType {
			return nil, fmt.Errorf("%s.%s: global value type mismatch", imp.ModuleName, imp.Name)
		}
		return v, nil
	case Value:
		if v.Type != t.ValueType {
			return nil, fmt.Errorf("%s.%s: global value type mismatch", imp.ModuleName, imp.Name)
		}
		return NewGlobal(t, v), nil
	case int32:
		return newTypedGlobalImport(t, imp, I32, I32Value(v))
	case int64:
		return newTypedGlobalImport(t, imp, I64, I64Value(v))
	case float32:
		return newTypedGlobalImport(t, imp, F32, F32Value(v))
	case float64:
		return newTypedGlobalImport(t, imp, F64, F64Value(v))
	default:
		return nil, fmt.Errorf("%s.%s is not a valid global import", imp.ModuleName, imp.Name)
	}
}

func newTypedGlobalImport(t GlobalType, imp Import, want ValueType, v Value) (*Global, error) {
	if t.ValueType != want {
		return nil, fmt.Errorf("%s.%s: global value type mismatch", imp.ModuleName, imp.Name)
	}
	return NewGlobal(t, v), nil
}

// limitsSatisfy reports whether a provided (min, max) pair is compatible
// with a required one: the provided minimum must be at least as large, and
// if a maximum is required, the provided maximum must be present and no
// looser.
func limitsSatisfy(provided, required Limits) bool {
	if provided.Min < required.Min {
		return false
	}
	if required.Max == nil {
		return true
	}
	return provided.Max != nil && *provided.Max <= *required.Max
}
