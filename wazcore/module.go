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

// IndexType tags which index space an Export or ImportType refers to.
type IndexType int

const (
	FunctionIndexType IndexType = iota
	TableIndexType
	MemoryIndexType
	GlobalIndexType
)

// Function is a module-defined function as decoded from the code section:
// its declared type, its additional local slot types, and its raw
// (undecoded) body bytes. The decoder (decoder.go) turns Body into
// []Instruction at instantiation time.
type Function struct {
	TypeIndex uint32
	Locals    []ValueType
	Body      []byte
}

// ImportType is a marker interface for the kind of thing an Import
// resolves to.
type ImportType interface{ isImportType() }

type FunctionTypeIndex uint32

func (FunctionTypeIndex) isImportType() {}
func (TableType) isImportType()         {}
func (MemoryType) isImportType()        {}
func (GlobalType) isImportType()        {}

// Import represents one entry of the import section.
type Import struct {
	ModuleName string
	Name       string
	Type       ImportType
}

// Export represents one entry of the export section.
type Export struct {
	Name      string
	IndexType IndexType
	Index     uint32
}

// ElementMode controls how an element segment is realised at instantiation.
type ElementMode int

const (
	ActiveElementMode ElementMode = iota
	PassiveElementMode
	DeclarativeElementMode
)

// ElementSegment is a parsed (but not yet decoded-to-Instruction) element
// segment: either a flat list of function indices, or a list of constant
// expressions each yielding a reference.
type ElementSegment struct {
	Mode  ElementMode
	Kind  ValueType
	Funcs []int32
	Exprs [][]byte // raw constant-expression bytecode, one per entry

	TableIndex       uint32
	OffsetExpression []byte
}

// DataMode controls how a data segment is realised at instantiation.
type DataMode int

const (
	ActiveDataMode DataMode = iota
	PassiveDataMode
)

// DataSegment is a parsed data segment.
type DataSegment struct {
	Mode             DataMode
	Content          []byte
	MemoryIndex      uint32
	OffsetExpression []byte
}

// GlobalVariable is a parsed module-defined global: its type plus the raw
// constant-expression bytecode for its initial value.
type GlobalVariable struct {
	Type           GlobalType
	InitExpression []byte
}

// Module is the fully parsed, not-yet-instantiated form of a binary WASM
// module. Decoding/validation of this shape are declared out of scope for
// the execution core; the core only ever sees the InstanceView built from
// an instantiated Module.
type Module struct {
	Types       []FunctionType
	Imports     []Import
	Exports     []Export
	StartIndex  *uint32
	Tables      []TableType
	Memories    []MemoryType
	Funcs       []Function
	Elements    []ElementSegment
	Globals     []GlobalVariable
	DataSegments []DataSegment
}
