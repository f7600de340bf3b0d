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

import "math"

// nullRef is the reserved sentinel for a null funcref/externref: all-ones in
// the underlying bit pattern.
const nullRef uint64 = 0xFFFFFFFFFFFFFFFF

// Value is a tagged 64-bit cell: the VM's universal operand. Unlike a raw
// untagged bit pattern, Value carries its own type so call argument
// extraction and local stores can validate the tag against the expected
// type, per the core's call contract.
type Value struct {
	Type ValueType
	bits uint64
}

// TRUE and FALSE are the canonical i32 booleans pushed by comparison and
// test opcodes.
var (
	TRUE  = I32Value(1)
	FALSE = I32Value(0)
)

func I32Value(v int32) Value { return Value{Type: I32, bits: uint64(uint32(v))} }
func I64Value(v int64) Value { return Value{Type: I64, bits: uint64(v)} }
func F32Value(v float32) Value {
	return Value{Type: F32, bits: uint64(math.Float32bits(v))}
}
func F64Value(v float64) Value { return Value{Type: F64, bits: math.Float64bits(v)} }

// FuncRefValue constructs a funcref pointing at the given function index.
func FuncRefValue(idx int32) Value {
	if idx < 0 {
		return NullFuncRef
	}
	return Value{Type: FuncRefType, bits: uint64(uint32(idx))}
}

// ExternRefValue constructs an externref wrapping an opaque host handle.
func ExternRefValue(handle int32) Value {
	if handle < 0 {
		return NullExternRef
	}
	return Value{Type: ExternRefType, bits: uint64(uint32(handle))}
}

// NullFuncRef and NullExternRef are the canonical null references for each
// reference type.
var (
	NullFuncRef   = Value{Type: FuncRefType, bits: nullRef}
	NullExternRef = Value{Type: ExternRefType, bits: nullRef}
)

func (v Value) I32() int32     { return int32(uint32(v.bits)) }
func (v Value) I64() int64     { return int64(v.bits) }
func (v Value) F32() float32   { return math.Float32frombits(uint32(v.bits)) }
func (v Value) F64() float64   { return math.Float64frombits(v.bits) }
func (v Value) RefIndex() int32 {
	if v.bits == nullRef {
		return -1
	}
	return int32(uint32(v.bits))
}

// IsNull reports whether a reference-typed Value is the canonical null.
func (v Value) IsNull() bool {
	return v.Type.isReference() && v.bits == nullRef
}

// IsTrue reports whether an i32 Value is non-zero, the VM's notion of
// "truthy" for IF and BR_IF predicates.
func (v Value) IsTrue() bool { return v.bits != 0 }

func defaultValue(t ValueType) Value {
	switch t {
	case I32, I64, F32, F64:
		return Value{Type: t}
	case FuncRefType:
		return NullFuncRef
	case ExternRefType:
		return NullExternRef
	default:
		panic("unreachable value type")
	}
}
