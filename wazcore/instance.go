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

// FunctionInstance is either a decoded module function or an imported host
// function, addressed uniformly by function index.
type FunctionInstance interface {
	FuncType() *FunctionType
	isHost() bool
}

// WasmFunction is a function defined by the instantiated module itself.
type WasmFunction struct {
	Type         *FunctionType
	LocalTypes   []ValueType
	Instructions []Instruction
	Name         string
}

func (f *WasmFunction) FuncType() *FunctionType { return f.Type }
func (f *WasmFunction) isHost() bool            { return false }

// HostFunc is a function supplied by the embedder at instantiation time.
type HostFunc struct {
	Type *FunctionType
	Fn   func(inst *ModuleInstance, args []Value) ([]Value, error)
	Name string
}

func (f *HostFunc) FuncType() *FunctionType { return f.Type }
func (f *HostFunc) isHost() bool            { return true }

// InstanceView is the interface the interpreter consumes from its host: the
// narrow surface C8's opcode handlers need to read/mutate module state.
// The interpreter never reaches past this interface into module decoding.
type InstanceView interface {
	FunctionType(funcID int32) int32
	Type(typeID int32) *FunctionType
	Function(funcID int32) FunctionInstance
	FunctionCount() int32

	Table(i int32) *Table
	Memory() *Memory

	ReadGlobal(i int32) (Value, error)
	WriteGlobal(i int32, v Value) error

	Element(i int32) *RuntimeElement
	ElementCount() int32
	SetElement(i int32, e *RuntimeElement)
}

// ModuleInstance is the concrete, instantiated form of a parsed Module: its
// resolved imports plus its own functions, tables, memory, globals, and
// element segments.
type ModuleInstance struct {
	types     []FunctionType
	functions []FunctionInstance
	tables    []*Table
	memory    *Memory
	globals   []*Global
	elements  []*RuntimeElement
	exports   map[string]exportBinding
	exportOrder []string

	vm *VM
}

type exportBinding struct {
	kind  IndexType
	index uint32
}

var _ InstanceView = (*ModuleInstance)(nil)

func (m *ModuleInstance) FunctionType(funcID int32) int32 {
	fn := m.functions[funcID]
	for i := range m.types {
		if &m.types[i] == fn.FuncType() {
			return int32(i)
		}
	}
	// Types are compared by identity above for the common case; fall back
	// to structural equality (host functions built ad hoc via
	// ModuleImportBuilder never share backing storage with m.types).
	for i, t := range m.types {
		if t.typesMatch(fn.FuncType()) {
			return int32(i)
		}
	}
	return -1
}

func (m *ModuleInstance) Type(typeID int32) *FunctionType {
	if typeID < 0 || int(typeID) >= len(m.types) {
		return nil
	}
	return &m.types[typeID]
}

func (m *ModuleInstance) Function(funcID int32) FunctionInstance {
	if funcID < 0 || int(funcID) >= len(m.functions) {
		return nil
	}
	return m.functions[funcID]
}

func (m *ModuleInstance) FunctionCount() int32 { return int32(len(m.functions)) }

func (m *ModuleInstance) Table(i int32) *Table {
	if i < 0 || int(i) >= len(m.tables) {
		return nil
	}
	return m.tables[i]
}

func (m *ModuleInstance) Memory() *Memory { return m.memory }

func (m *ModuleInstance) readGlobal(i int) (Value, error) { return m.ReadGlobal(int32(i)) }

func (m *ModuleInstance) ReadGlobal(i int32) (Value, error) {
	if i < 0 || int(i) >= len(m.globals) {
		return Value{}, fatalf("global index %d out of range", i)
	}
	return m.globals[i].Get(), nil
}

func (m *ModuleInstance) WriteGlobal(i int32, v Value) error {
	if i < 0 || int(i) >= len(m.globals) {
		return fatalf("global index %d out of range", i)
	}
	return m.globals[i].Set(v)
}

func (m *ModuleInstance) Element(i int32) *RuntimeElement {
	if i < 0 || int(i) >= len(m.elements) {
		return nil
	}
	return m.elements[i]
}

func (m *ModuleInstance) ElementCount() int32 { return int32(len(m.elements)) }

func (m *ModuleInstance) SetElement(i int32, e *RuntimeElement) {
	if i >= 0 && int(i) < len(m.elements) {
		m.elements[i] = e
	}
}

// ExportNames returns the module's export names in declaration order,
// suitable for listing without exposing the internal exports map.
func (m *ModuleInstance) ExportNames() []string {
	return m.exportOrder
}

// GetExport resolves an export name to its underlying value, one of
// FunctionInstance, *Table, *Memory, or *Global.
func (m *ModuleInstance) GetExport(name string) (any, bool) {
	binding, ok := m.exports[name]
	if !ok {
		return nil, false
	}
	switch binding.kind {
	case FunctionIndexType:
		return m.functions[binding.index], true
	case TableIndexType:
		return m.tables[binding.index], true
	case MemoryIndexType:
		return m.memory, true
	case GlobalIndexType:
		return m.globals[binding.index], true
	default:
		return nil, false
	}
}

// Invoke calls an exported function by name, per the call(funcId, args,
// popResults) contract with popResults=true.
func (m *ModuleInstance) Invoke(name string, args ...Value) ([]Value, error) {
	exp, ok := m.GetExport(name)
	if !ok {
		return nil, fatalf("no export named %q", name)
	}
	fn, ok := exp.(FunctionInstance)
	if !ok {
		return nil, fatalf("export %q is not a function", name)
	}
	funcID := int32(-1)
	for i, f := range m.functions {
		if f == fn {
			funcID = int32(i)
			break
		}
	}
	return m.vm.call(m, funcID, args, true)
}
