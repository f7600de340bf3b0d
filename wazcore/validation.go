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

// ValidateModule checks the structural invariants a well-formed binary
// module must satisfy before instantiation: the type indices of imports and
// functions, export indices, the start function, and the table, function and
// memory indices of element and data segments must resolve inside their index
// spaces, and at most one memory may be present. Indices inside function
// bodies are not checked, and the function/code count agreement is checked
// by ParseModule rather than here. It does not
// perform the full type-stack validation of a WASM implementation intended
// to run untrusted input directly from the wire — that is a separate
// concern from executing an already-decoded instruction stream, and callers
// that need it should run a dedicated validator (e.g. wasm-tools validate)
// ahead of ParseModule.
func ValidateModule(module *Module) error {
	numFuncs := len(module.Funcs)
	numImportedFuncs := 0
	numImportedTables := 0
	numImportedMemories := 0
	numImportedGlobals := 0
	for _, imp := range module.Imports {
		switch imp.Type.(type) {
		case FunctionTypeIndex:
			numImportedFuncs++
		case TableType:
			numImportedTables++
		case MemoryType:
			numImportedMemories++
		case GlobalType:
			numImportedGlobals++
		}
	}
	totalFuncs := numImportedFuncs + numFuncs
	totalTables := numImportedTables + len(module.Tables)
	totalMemories := numImportedMemories + len(module.Memories)
	totalGlobals := numImportedGlobals + len(module.Globals)

	for i, imp := range module.Imports {
		if t, ok := imp.Type.(FunctionTypeIndex); ok {
			if int(t) >= len(module.Types) {
				return fmt.Errorf("import %d: type index %d out of range", i, t)
			}
		}
	}
	for i, fn := range module.Funcs {
		if int(fn.TypeIndex) >= len(module.Types) {
			return fmt.Errorf("function %d: type index %d out of range", i, fn.TypeIndex)
		}
	}
	for i, exp := range module.Exports {
		var bound int
		switch exp.IndexType {
		case FunctionIndexType:
			bound = totalFuncs
		case TableIndexType:
			bound = totalTables
		case MemoryIndexType:
			bound = totalMemories
		case GlobalIndexType:
			bound = totalGlobals
		}
		if int(exp.Index) >= bound {
			return fmt.Errorf("export %d (%q): index %d out of range", i, exp.Name, exp.Index)
		}
	}
	if module.StartIndex != nil && int(*module.StartIndex) >= totalFuncs {
		return fmt.Errorf("start function index %d out of range", *module.StartIndex)
	}
	for i, es := range module.Elements {
		if es.Mode == ActiveElementMode && int(es.TableIndex) >= totalTables {
			return fmt.Errorf("element segment %d: table index %d out of range", i, es.TableIndex)
		}
		for _, fi := range es.Funcs {
			if int(fi) >= totalFuncs {
				return fmt.Errorf("element segment %d: function index %d out of range", i, fi)
			}
		}
	}
	for i, ds := range module.DataSegments {
		if ds.Mode == ActiveDataMode && int(ds.MemoryIndex) >= totalMemories {
			return fmt.Errorf("data segment %d: memory index %d out of range", i, ds.MemoryIndex)
		}
	}
	if totalMemories > 1 {
		return fmt.Errorf("multiple memories are not supported: got %d", totalMemories)
	}
	return nil
}
