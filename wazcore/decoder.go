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

// scopeKind distinguishes the four kinds of open scope the decoder tracks
// while backpatching branch and if/else targets: the three explicit
// structured-control opcodes, plus the implicit function-level scope every
// body opens before its first real instruction.
type scopeKind int

const (
	scopeFunction scopeKind = iota
	scopeBlock
	scopeLoop
	scopeIf
)

// branchPatch is a deferred write: once the scope it targets closes (its
// matching END is decoded), instrs[instrIdx]'s label (LabelTrue, or
// LabelTable[slot] when slot >= 0) is set to the resolved address.
type branchPatch struct {
	instrIdx int
	slot     int
}

type openScope struct {
	kind    scopeKind
	opener  int // index of the BLOCK/LOOP/IF instruction; -1 for scopeFunction
	elseIdx int // index of the matching ELSE, or -1 if none seen yet
	pending []branchPatch
}

// decodeFunctionBody turns one function's raw code-section bytes into a
// flat, position-resolved instruction stream: every BR/BR_IF/BR_TABLE and
// IF/ELSE target is already an absolute index into the returned slice, so
// the interpreter never has to re-scan for a matching END at run time.
func decodeFunctionBody(body []byte) ([]Instruction, error) {
	c := newByteCursor(body)
	instrs := make([]Instruction, 0, len(body)/2)
	stack := []*openScope{{kind: scopeFunction, opener: -1, elseIdx: -1}}

	for c.hasMore() {
		idx := len(instrs)
		op, operands, err := decodeOpcodeAndOperands(c)
		if err != nil {
			return nil, fmt.Errorf("decoding instruction at byte %d: %w", c.pos, err)
		}
		ins := Instruction{Opcode: op, Operands: operands, LabelTrue: noLabel, LabelFalse: noLabel}

		switch op {
		case opBlock:
			instrs = append(instrs, ins)
			stack = append(stack, &openScope{kind: scopeBlock, opener: idx, elseIdx: -1})

		case opLoop:
			instrs = append(instrs, ins)
			stack = append(stack, &openScope{kind: scopeLoop, opener: idx, elseIdx: -1})

		case opIf:
			instrs = append(instrs, ins)
			stack = append(stack, &openScope{kind: scopeIf, opener: idx, elseIdx: -1})

		case opElse:
			top := stack[len(stack)-1]
			instrs[top.opener].LabelFalse = idx + 1
			instrs[top.opener].HasElse = true
			top.elseIdx = idx
			instrs = append(instrs, ins)

		case opEnd:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			instrs = append(instrs, ins)
			after := idx + 1

			if top.kind == scopeIf {
				if top.elseIdx < 0 {
					instrs[top.opener].LabelFalse = after
				} else {
					instrs[top.elseIdx].LabelTrue = after
				}
			}
			for _, p := range top.pending {
				if p.slot < 0 {
					instrs[p.instrIdx].LabelTrue = after
				} else {
					instrs[p.instrIdx].LabelTable[p.slot] = after
				}
			}

		case opBr, opBrIf:
			instrs = append(instrs, ins)
			target := stack[len(stack)-1-int(operands[0])]
			if target.kind == scopeLoop {
				instrs[idx].LabelTrue = target.opener + 1
			} else {
				target.pending = append(target.pending, branchPatch{instrIdx: idx, slot: -1})
			}

		case opBrTable:
			ins.LabelTable = make([]int, len(operands))
			instrs = append(instrs, ins)
			for slot, depth := range operands {
				target := stack[len(stack)-1-int(depth)]
				if target.kind == scopeLoop {
					instrs[idx].LabelTable[slot] = target.opener + 1
				} else {
					target.pending = append(target.pending, branchPatch{instrIdx: idx, slot: slot})
				}
			}

		default:
			instrs = append(instrs, ins)
		}
	}
	return instrs, nil
}

// decodeOpcodeAndOperands reads one opcode and its immediates, per the
// binary encoding of each instruction's operand shape.
func decodeOpcodeAndOperands(c *byteCursor) (Opcode, []uint64, error) {
	raw, err := c.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	var op Opcode
	if raw == 0xFC {
		sub, err := c.readU32()
		if err != nil {
			return 0, nil, err
		}
		op = extendedOpcodeBase + Opcode(sub)
	} else {
		op = Opcode(raw)
	}

	switch op {
	case opBlock, opLoop, opIf:
		bt, err := c.readS33()
		if err != nil {
			return 0, nil, err
		}
		return op, []uint64{uint64(bt)}, nil

	case opBr, opBrIf, opCall, opLocalGet, opLocalSet, opLocalTee,
		opGlobalGet, opGlobalSet, opTableGet, opTableSet, opRefFunc, opRefNull:
		v, err := c.readU32()
		if err != nil {
			return 0, nil, err
		}
		return op, []uint64{uint64(v)}, nil

	case opMemorySize, opMemoryGrow:
		v, err := c.readU32()
		if err != nil {
			return 0, nil, err
		}
		return op, []uint64{uint64(v)}, nil

	case opBrTable:
		n, err := c.readU32()
		if err != nil {
			return 0, nil, err
		}
		operands := make([]uint64, n+1)
		for i := range operands {
			v, err := c.readU32()
			if err != nil {
				return 0, nil, err
			}
			operands[i] = uint64(v)
		}
		return op, operands, nil

	case opCallIndirect:
		typeIdx, err := c.readU32()
		if err != nil {
			return 0, nil, err
		}
		tableIdx, err := c.readU32()
		if err != nil {
			return 0, nil, err
		}
		return op, []uint64{uint64(typeIdx), uint64(tableIdx)}, nil

	case opI32Load, opI64Load, opF32Load, opF64Load,
		opI32Load8S, opI32Load8U, opI32Load16S, opI32Load16U,
		opI64Load8S, opI64Load8U, opI64Load16S, opI64Load16U, opI64Load32S, opI64Load32U,
		opI32Store, opI64Store, opF32Store, opF64Store,
		opI32Store8, opI32Store16, opI64Store8, opI64Store16, opI64Store32:
		align, err := c.readU32()
		if err != nil {
			return 0, nil, err
		}
		offset, err := c.readU32()
		if err != nil {
			return 0, nil, err
		}
		return op, []uint64{uint64(align), uint64(offset)}, nil

	case opSelectT:
		n, err := c.readU32()
		if err != nil {
			return 0, nil, err
		}
		if _, err := c.readBytes(int(n)); err != nil {
			return 0, nil, err
		}
		return op, nil, nil

	case opI32Const:
		v, err := c.readS32()
		if err != nil {
			return 0, nil, err
		}
		return op, []uint64{uint64(uint32(v))}, nil

	case opI64Const:
		v, err := c.readS64()
		if err != nil {
			return 0, nil, err
		}
		return op, []uint64{uint64(v)}, nil

	case opF32Const:
		bits, err := c.readF32Bits()
		if err != nil {
			return 0, nil, err
		}
		return op, []uint64{uint64(bits)}, nil

	case opF64Const:
		bits, err := c.readF64Bits()
		if err != nil {
			return 0, nil, err
		}
		return op, []uint64{bits}, nil

	case opMemoryInit, opMemoryCopy, opTableInit, opTableCopy:
		a, err := c.readU32()
		if err != nil {
			return 0, nil, err
		}
		b, err := c.readU32()
		if err != nil {
			return 0, nil, err
		}
		return op, []uint64{uint64(a), uint64(b)}, nil

	case opDataDrop, opElemDrop, opMemoryFill, opTableGrow, opTableSize, opTableFill:
		v, err := c.readU32()
		if err != nil {
			return 0, nil, err
		}
		return op, []uint64{uint64(v)}, nil

	default:
		return op, nil, nil
	}
}
