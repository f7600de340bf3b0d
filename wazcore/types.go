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

import "slices"

// ValueType classifies the individual values the VM computes with and the
// values a local, global, or stack slot accepts. The constants reuse the
// WASM binary encoding so a parsed type byte can be cast directly.
type ValueType byte

const (
	I32           ValueType = 0x7f
	I64           ValueType = 0x7e
	F32           ValueType = 0x7d
	F64           ValueType = 0x7c
	FuncRefType   ValueType = 0x70
	ExternRefType ValueType = 0x6f
)

func (t ValueType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case FuncRefType:
		return "funcref"
	case ExternRefType:
		return "externref"
	default:
		return "unknown"
	}
}

func (t ValueType) isReference() bool {
	return t == FuncRefType || t == ExternRefType
}

// Limits bound the size of a table or memory.
type Limits struct {
	Min uint32
	Max *uint32
}

// TableType classifies a table: the reference type it stores and its size
// limits.
type TableType struct {
	RefType ValueType
	Limits  Limits
}

// MemoryType classifies a memory by its page-count limits.
type MemoryType struct {
	Limits Limits
}

// GlobalType classifies a global by its value type and mutability.
type GlobalType struct {
	ValueType ValueType
	Mutable   bool
}

// FunctionType classifies the signature of a function.
type FunctionType struct {
	Params  []ValueType
	Returns []ValueType
}

// typesMatch reports whether the two signatures are identical, parameter
// for parameter and result for result. Used by call_indirect's dynamic type
// check.
func (ft *FunctionType) typesMatch(other *FunctionType) bool {
	if ft == other {
		return true
	}
	if ft == nil || other == nil {
		return false
	}
	return slices.Equal(ft.Params, other.Params) && slices.Equal(ft.Returns, other.Returns)
}
