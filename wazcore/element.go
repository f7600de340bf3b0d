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

// elementKind distinguishes the three ways an element segment's entries can
// be represented at runtime.
type elementKind int

const (
	// elementFunc holds bare function indices (the compact binary encoding).
	elementFunc elementKind = iota
	// elementExpr holds one decoded constant expression per entry, each of
	// which yields a reference when evaluated.
	elementExpr
	// elementType holds a single constant expression shared by callers that
	// need the segment's declared reference type without indexing.
	elementType
)

// RuntimeElement is a runtime element segment, one of Func/Elem/Type per
// the source module's encoding.
type RuntimeElement struct {
	kind    elementKind
	refType ValueType
	dropped bool

	funcIndexes []int32
	exprs       [][]Instruction
}

func newFuncElement(refType ValueType, indexes []int32) *RuntimeElement {
	return &RuntimeElement{kind: elementFunc, refType: refType, funcIndexes: indexes}
}

func newExprElement(refType ValueType, exprs [][]Instruction) *RuntimeElement {
	return &RuntimeElement{kind: elementExpr, refType: refType, exprs: exprs}
}

func (e *RuntimeElement) size() int32 {
	if e.kind == elementFunc {
		return int32(len(e.funcIndexes))
	}
	return int32(len(e.exprs))
}

func (e *RuntimeElement) drop() { e.dropped = true }

// refs materialises the segment's entries as Values, evaluating any
// constant expressions against the given instance. Used by table.init and
// by active-segment instantiation.
func (e *RuntimeElement) refs(inst *ModuleInstance) ([]Value, error) {
	switch e.kind {
	case elementFunc:
		out := make([]Value, len(e.funcIndexes))
		for i, idx := range e.funcIndexes {
			out[i] = FuncRefValue(idx)
		}
		return out, nil
	default:
		out := make([]Value, len(e.exprs))
		for i, expr := range e.exprs {
			v, err := computeConstantValue(inst, expr)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
}

// computeConstantValue evaluates a constant expression (one of
// i32/i64/f32/f64.const, global.get of an immutable import, ref.null,
// ref.func) against module state, per the element/data/global initializer
// grammar. It never invokes the general interpreter loop: constant
// expressions are restricted enough to evaluate directly.
func computeConstantValue(inst *ModuleInstance, expr []Instruction) (Value, error) {
	var stack []Value
	for _, ins := range expr {
		switch ins.Opcode {
		case opI32Const:
			stack = append(stack, I32Value(int32(ins.Operands[0])))
		case opI64Const:
			stack = append(stack, I64Value(int64(ins.Operands[0])))
		case opF32Const:
			stack = append(stack, F32Value(math.Float32frombits(uint32(ins.Operands[0]))))
		case opF64Const:
			stack = append(stack, F64Value(math.Float64frombits(ins.Operands[0])))
		case opGlobalGet:
			g, err := inst.readGlobal(int(ins.Operands[0]))
			if err != nil {
				return Value{}, err
			}
			stack = append(stack, g)
		case opRefNull:
			stack = append(stack, defaultValue(ValueType(ins.Operands[0])))
		case opRefFunc:
			stack = append(stack, FuncRefValue(int32(ins.Operands[0])))
		case opEnd:
			// terminator of the expression; nothing to do.
		default:
			return Value{}, fatalf("unsupported constant expression opcode %v", ins.Opcode)
		}
	}
	if len(stack) == 0 {
		return Value{}, fatalf("empty constant expression")
	}
	return stack[len(stack)-1], nil
}
