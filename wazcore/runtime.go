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

import (
	"bytes"
	"fmt"
	"io"
	"maps"
)

// Runtime is the entry point for parsing and instantiating modules. A
// Runtime owns exactly one VM (fuel budget, call depth limit, logger),
// shared by every ModuleInstance it produces.
type Runtime struct {
	vm     *VM
	config Config
}

// NewRuntime creates a Runtime with DefaultConfig.
func NewRuntime() *Runtime {
	return &Runtime{config: DefaultConfig()}
}

// WithConfig replaces the runtime's Config. Must be called before the first
// InstantiateModule* call; the underlying VM is built lazily from whatever
// Config is current at that point.
func (r *Runtime) WithConfig(config Config) *Runtime {
	r.config = config
	return r
}

func (r *Runtime) ensureVM() {
	if r.vm == nil {
		r.vm = newVM(r.config)
	}
}

// InstantiateModule parses and instantiates a module with no imports.
func (r *Runtime) InstantiateModule(wasm io.Reader) (*ModuleInstance, error) {
	return r.InstantiateModuleWithImports(wasm)
}

// InstantiateModuleFromBytes is InstantiateModule for an in-memory buffer.
func (r *Runtime) InstantiateModuleFromBytes(data []byte) (*ModuleInstance, error) {
	return r.InstantiateModule(bytes.NewReader(data))
}

// InstantiateModuleWithImports parses wasm and instantiates it against the
// union of the given import namespaces (later maps' entries win on a name
// collision within the same namespace).
func (r *Runtime) InstantiateModuleWithImports(wasm io.Reader, imports ...map[string]map[string]any) (*ModuleInstance, error) {
	r.ensureVM()
	data, err := io.ReadAll(wasm)
	if err != nil {
		return nil, fmt.Errorf("reading module bytes: %w", err)
	}
	module, err := ParseModule(data)
	if err != nil {
		return nil, fmt.Errorf("parsing module: %w", err)
	}
	if err := ValidateModule(module); err != nil {
		return nil, fmt.Errorf("validating module: %w", err)
	}

	merged := make(map[string]map[string]any)
	for _, ns := range imports {
		for name, exports := range ns {
			if merged[name] == nil {
				merged[name] = make(map[string]any)
			}
			maps.Copy(merged[name], exports)
		}
	}

	return r.instantiate(module, merged)
}

func (r *Runtime) instantiate(module *Module, imports map[string]map[string]any) (*ModuleInstance, error) {
	resolved, err := ResolveImports(module, imports)
	if err != nil {
		return nil, err
	}

	inst := &ModuleInstance{
		types:   module.Types,
		exports: make(map[string]exportBinding),
		vm:      r.vm,
	}

	inst.functions = append(inst.functions, resolved.Functions...)
	for _, fn := range module.Funcs {
		instructions, err := decodeFunctionBody(fn.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding function body: %w", err)
		}
		inst.functions = append(inst.functions, &WasmFunction{
			Type:         &module.Types[fn.TypeIndex],
			LocalTypes:   fn.Locals,
			Instructions: instructions,
		})
	}

	inst.tables = append(inst.tables, resolved.Tables...)
	for _, tt := range module.Tables {
		inst.tables = append(inst.tables, NewTable(tt))
	}

	inst.memory = firstOrNil(resolved.Memories)
	for _, mt := range module.Memories {
		if inst.memory == nil {
			inst.memory = NewMemory(mt)
		}
	}
	if inst.memory != nil {
		segments := make([][]byte, len(module.DataSegments))
		for i, d := range module.DataSegments {
			segments[i] = d.Content
		}
		inst.memory.setDataSegments(segments)
	}

	inst.globals = append(inst.globals, resolved.Globals...)
	for _, gv := range module.Globals {
		val, err := evalConstExpr(inst, gv.InitExpression)
		if err != nil {
			return nil, fmt.Errorf("evaluating global initializer: %w", err)
		}
		inst.globals = append(inst.globals, NewGlobal(gv.Type, val))
	}

	for _, es := range module.Elements {
		elem, err := buildRuntimeElement(inst, es)
		if err != nil {
			return nil, err
		}
		inst.elements = append(inst.elements, elem)
	}

	if err := initActiveElements(inst, module); err != nil {
		return nil, err
	}
	if err := initActiveData(inst, module); err != nil {
		return nil, err
	}

	for _, exp := range module.Exports {
		inst.exports[exp.Name] = exportBinding{kind: exp.IndexType, index: exp.Index}
		inst.exportOrder = append(inst.exportOrder, exp.Name)
	}

	if module.StartIndex != nil {
		if _, err := r.vm.call(inst, int32(*module.StartIndex), nil, false); err != nil {
			return nil, fmt.Errorf("running start function: %w", err)
		}
	}

	return inst, nil
}

func firstOrNil(mems []*Memory) *Memory {
	if len(mems) == 0 {
		return nil
	}
	return mems[0]
}

// evalConstExpr decodes and evaluates a constant-expression byte sequence
// (a global initializer or an element/data offset), without going through
// the general interpreter loop: the constant expression grammar is a strict
// subset of the full instruction set.
func evalConstExpr(inst *ModuleInstance, raw []byte) (Value, error) {
	instructions, err := decodeFunctionBody(raw)
	if err != nil {
		return Value{}, err
	}
	return computeConstantValue(inst, instructions)
}

func buildRuntimeElement(inst *ModuleInstance, es ElementSegment) (*RuntimeElement, error) {
	if len(es.Exprs) > 0 {
		exprs := make([][]Instruction, len(es.Exprs))
		for i, raw := range es.Exprs {
			decoded, err := decodeFunctionBody(raw)
			if err != nil {
				return nil, fmt.Errorf("decoding element expression: %w", err)
			}
			exprs[i] = decoded
		}
		return newExprElement(es.Kind, exprs), nil
	}
	return newFuncElement(es.Kind, es.Funcs), nil
}

func initActiveElements(inst *ModuleInstance, module *Module) error {
	for i, es := range module.Elements {
		if es.Mode != ActiveElementMode {
			continue
		}
		offsetVal, err := evalConstExpr(inst, es.OffsetExpression)
		if err != nil {
			return fmt.Errorf("evaluating element offset: %w", err)
		}
		table := inst.Table(int32(es.TableIndex))
		if table == nil {
			return fmt.Errorf("element segment references undefined table %d", es.TableIndex)
		}
		refs, err := inst.elements[i].refs(inst)
		if err != nil {
			return err
		}
		if err := table.InitRefs(offsetVal.I32(), 0, int32(len(refs)), refs); err != nil {
			return err
		}
		// An active segment is consumed at instantiation time and cannot be
		// targeted by table.init afterwards.
		inst.elements[i].drop()
	}
	return nil
}

func initActiveData(inst *ModuleInstance, module *Module) error {
	for i, ds := range module.DataSegments {
		if ds.Mode != ActiveDataMode {
			continue
		}
		offsetVal, err := evalConstExpr(inst, ds.OffsetExpression)
		if err != nil {
			return fmt.Errorf("evaluating data offset: %w", err)
		}
		mem := inst.Memory()
		if mem == nil {
			return fmt.Errorf("data segment references undefined memory")
		}
		if err := mem.InitPassiveSegment(uint32(i), uint32(offsetVal.I32()), 0, uint32(len(ds.Content))); err != nil {
			return err
		}
		mem.Drop(uint32(i))
	}
	return nil
}

// ModuleImportBuilder assembles one namespace's worth of imports with a
// fluent, type-checked API, mirroring how a host module wires WASI or a
// bespoke env import object.
//
// Example:
//
//	env := wazcore.NewModuleImportBuilder("env").
//	    AddHostFunc("log", &wazcore.FunctionType{Params: []wazcore.ValueType{wazcore.I32}}, logFn).
//	    AddMemory("memory", wazcore.NewMemory(wazcore.MemoryType{Limits: wazcore.Limits{Min: 1}})).
//	    AddGlobal("offset", wazcore.I32Value(1024), false).
//	    Build()
//
//	instance, err := runtime.InstantiateModuleWithImports(wasmReader, env)
type ModuleImportBuilder struct {
	moduleName string
	imports    map[string]any
}

// NewModuleImportBuilder starts building imports for the given namespace.
func NewModuleImportBuilder(moduleName string) *ModuleImportBuilder {
	return &ModuleImportBuilder{moduleName: moduleName, imports: make(map[string]any)}
}

// AddHostFunc registers a host function import under name.
func (b *ModuleImportBuilder) AddHostFunc(name string, typ *FunctionType, fn HostFn) *ModuleImportBuilder {
	b.imports[name] = &HostFunc{Type: typ, Fn: fn, Name: name}
	return b
}

// AddMemory registers a memory import.
func (b *ModuleImportBuilder) AddMemory(name string, mem *Memory) *ModuleImportBuilder {
	b.imports[name] = mem
	return b
}

// AddTable registers a table import.
func (b *ModuleImportBuilder) AddTable(name string, table *Table) *ModuleImportBuilder {
	b.imports[name] = table
	return b
}

// AddGlobal registers a global import with an initial value and mutability.
func (b *ModuleImportBuilder) AddGlobal(name string, initial Value, mutable bool) *ModuleImportBuilder {
	b.imports[name] = NewGlobal(GlobalType{ValueType: initial.Type, Mutable: mutable}, initial)
	return b
}

// AddModuleExports imports every export of an already-instantiated module
// under this namespace, letting one module's instance feed another's
// imports without the embedder re-declaring each binding by hand.
func (b *ModuleImportBuilder) AddModuleExports(instance *ModuleInstance) *ModuleImportBuilder {
	for name := range instance.exports {
		if exp, ok := instance.GetExport(name); ok {
			b.imports[name] = exp
		}
	}
	return b
}

// Build finalizes the namespace into the map shape InstantiateModuleWithImports expects.
func (b *ModuleImportBuilder) Build() map[string]map[string]any {
	return map[string]map[string]any{b.moduleName: b.imports}
}
