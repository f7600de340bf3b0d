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

// Opcode identifies a single VM instruction. Base opcodes reuse the WASM
// binary encoding directly; the 0xFC-prefixed "extended" opcodes (bulk
// memory/table ops, saturating truncation) are folded into the 0xFC00
// range so the whole opcode space fits one flat uint16 for dispatch.
type Opcode uint16

const extendedOpcodeBase = 0xFC00

const (
	opUnreachable Opcode = 0x00
	opNop         Opcode = 0x01
	opBlock       Opcode = 0x02
	opLoop        Opcode = 0x03
	opIf          Opcode = 0x04
	opElse        Opcode = 0x05
	opEnd         Opcode = 0x0B
	opBr          Opcode = 0x0C
	opBrIf        Opcode = 0x0D
	opBrTable     Opcode = 0x0E
	opReturn      Opcode = 0x0F
	opCall        Opcode = 0x10
	opCallIndirect Opcode = 0x11

	opDrop      Opcode = 0x1A
	opSelect    Opcode = 0x1B
	opSelectT   Opcode = 0x1C

	opLocalGet  Opcode = 0x20
	opLocalSet  Opcode = 0x21
	opLocalTee  Opcode = 0x22
	opGlobalGet Opcode = 0x23
	opGlobalSet Opcode = 0x24

	opTableGet Opcode = 0x25
	opTableSet Opcode = 0x26

	opI32Load    Opcode = 0x28
	opI64Load    Opcode = 0x29
	opF32Load    Opcode = 0x2A
	opF64Load    Opcode = 0x2B
	opI32Load8S  Opcode = 0x2C
	opI32Load8U  Opcode = 0x2D
	opI32Load16S Opcode = 0x2E
	opI32Load16U Opcode = 0x2F
	opI64Load8S  Opcode = 0x30
	opI64Load8U  Opcode = 0x31
	opI64Load16S Opcode = 0x32
	opI64Load16U Opcode = 0x33
	opI64Load32S Opcode = 0x34
	opI64Load32U Opcode = 0x35
	opI32Store   Opcode = 0x36
	opI64Store   Opcode = 0x37
	opF32Store   Opcode = 0x38
	opF64Store   Opcode = 0x39
	opI32Store8  Opcode = 0x3A
	opI32Store16 Opcode = 0x3B
	opI64Store8  Opcode = 0x3C
	opI64Store16 Opcode = 0x3D
	opI64Store32 Opcode = 0x3E
	opMemorySize Opcode = 0x3F
	opMemoryGrow Opcode = 0x40

	opI32Const Opcode = 0x41
	opI64Const Opcode = 0x42
	opF32Const Opcode = 0x43
	opF64Const Opcode = 0x44

	opI32Eqz Opcode = 0x45
	opI32Eq  Opcode = 0x46
	opI32Ne  Opcode = 0x47
	opI32LtS Opcode = 0x48
	opI32LtU Opcode = 0x49
	opI32GtS Opcode = 0x4A
	opI32GtU Opcode = 0x4B
	opI32LeS Opcode = 0x4C
	opI32LeU Opcode = 0x4D
	opI32GeS Opcode = 0x4E
	opI32GeU Opcode = 0x4F

	opI64Eqz Opcode = 0x50
	opI64Eq  Opcode = 0x51
	opI64Ne  Opcode = 0x52
	opI64LtS Opcode = 0x53
	opI64LtU Opcode = 0x54
	opI64GtS Opcode = 0x55
	opI64GtU Opcode = 0x56
	opI64LeS Opcode = 0x57
	opI64LeU Opcode = 0x58
	opI64GeS Opcode = 0x59
	opI64GeU Opcode = 0x5A

	opF32Eq Opcode = 0x5B
	opF32Ne Opcode = 0x5C
	opF32Lt Opcode = 0x5D
	opF32Gt Opcode = 0x5E
	opF32Le Opcode = 0x5F
	opF32Ge Opcode = 0x60

	opF64Eq Opcode = 0x61
	opF64Ne Opcode = 0x62
	opF64Lt Opcode = 0x63
	opF64Gt Opcode = 0x64
	opF64Le Opcode = 0x65
	opF64Ge Opcode = 0x66

	opI32Clz    Opcode = 0x67
	opI32Ctz    Opcode = 0x68
	opI32Popcnt Opcode = 0x69
	opI32Add    Opcode = 0x6A
	opI32Sub    Opcode = 0x6B
	opI32Mul    Opcode = 0x6C
	opI32DivS   Opcode = 0x6D
	opI32DivU   Opcode = 0x6E
	opI32RemS   Opcode = 0x6F
	opI32RemU   Opcode = 0x70
	opI32And    Opcode = 0x71
	opI32Or     Opcode = 0x72
	opI32Xor    Opcode = 0x73
	opI32Shl    Opcode = 0x74
	opI32ShrS   Opcode = 0x75
	opI32ShrU   Opcode = 0x76
	opI32Rotl   Opcode = 0x77
	opI32Rotr   Opcode = 0x78

	opI64Clz    Opcode = 0x79
	opI64Ctz    Opcode = 0x7A
	opI64Popcnt Opcode = 0x7B
	opI64Add    Opcode = 0x7C
	opI64Sub    Opcode = 0x7D
	opI64Mul    Opcode = 0x7E
	opI64DivS   Opcode = 0x7F
	opI64DivU   Opcode = 0x80
	opI64RemS   Opcode = 0x81
	opI64RemU   Opcode = 0x82
	opI64And    Opcode = 0x83
	opI64Or     Opcode = 0x84
	opI64Xor    Opcode = 0x85
	opI64Shl    Opcode = 0x86
	opI64ShrS   Opcode = 0x87
	opI64ShrU   Opcode = 0x88
	opI64Rotl   Opcode = 0x89
	opI64Rotr   Opcode = 0x8A

	opF32Abs      Opcode = 0x8B
	opF32Neg      Opcode = 0x8C
	opF32Ceil     Opcode = 0x8D
	opF32Floor    Opcode = 0x8E
	opF32Trunc    Opcode = 0x8F
	opF32Nearest  Opcode = 0x90
	opF32Sqrt     Opcode = 0x91
	opF32Add      Opcode = 0x92
	opF32Sub      Opcode = 0x93
	opF32Mul      Opcode = 0x94
	opF32Div      Opcode = 0x95
	opF32Min      Opcode = 0x96
	opF32Max      Opcode = 0x97
	opF32Copysign Opcode = 0x98

	opF64Abs      Opcode = 0x99
	opF64Neg      Opcode = 0x9A
	opF64Ceil     Opcode = 0x9B
	opF64Floor    Opcode = 0x9C
	opF64Trunc    Opcode = 0x9D
	opF64Nearest  Opcode = 0x9E
	opF64Sqrt     Opcode = 0x9F
	opF64Add      Opcode = 0xA0
	opF64Sub      Opcode = 0xA1
	opF64Mul      Opcode = 0xA2
	opF64Div      Opcode = 0xA3
	opF64Min      Opcode = 0xA4
	opF64Max      Opcode = 0xA5
	opF64Copysign Opcode = 0xA6

	opI32WrapI64        Opcode = 0xA7
	opI32TruncF32S      Opcode = 0xA8
	opI32TruncF32U      Opcode = 0xA9
	opI32TruncF64S      Opcode = 0xAA
	opI32TruncF64U      Opcode = 0xAB
	opI64ExtendI32S     Opcode = 0xAC
	opI64ExtendI32U     Opcode = 0xAD
	opI64TruncF32S      Opcode = 0xAE
	opI64TruncF32U      Opcode = 0xAF
	opI64TruncF64S      Opcode = 0xB0
	opI64TruncF64U      Opcode = 0xB1
	opF32ConvertI32S    Opcode = 0xB2
	opF32ConvertI32U    Opcode = 0xB3
	opF32ConvertI64S    Opcode = 0xB4
	opF32ConvertI64U    Opcode = 0xB5
	opF32DemoteF64      Opcode = 0xB6
	opF64ConvertI32S    Opcode = 0xB7
	opF64ConvertI32U    Opcode = 0xB8
	opF64ConvertI64S    Opcode = 0xB9
	opF64ConvertI64U    Opcode = 0xBA
	opF64PromoteF32     Opcode = 0xBB
	opI32ReinterpretF32 Opcode = 0xBC
	opI64ReinterpretF64 Opcode = 0xBD
	opF32ReinterpretI32 Opcode = 0xBE
	opF64ReinterpretI64 Opcode = 0xBF

	opI32Extend8S  Opcode = 0xC0
	opI32Extend16S Opcode = 0xC1
	opI64Extend8S  Opcode = 0xC2
	opI64Extend16S Opcode = 0xC3
	opI64Extend32S Opcode = 0xC4

	opRefNull   Opcode = 0xD0
	opRefIsNull Opcode = 0xD1
	opRefFunc   Opcode = 0xD2
)

// Extended (0xFC-prefixed) opcodes, folded into the 0xFC00 range.
const (
	opI32TruncSatF32S Opcode = extendedOpcodeBase + 0
	opI32TruncSatF32U Opcode = extendedOpcodeBase + 1
	opI32TruncSatF64S Opcode = extendedOpcodeBase + 2
	opI32TruncSatF64U Opcode = extendedOpcodeBase + 3
	opI64TruncSatF32S Opcode = extendedOpcodeBase + 4
	opI64TruncSatF32U Opcode = extendedOpcodeBase + 5
	opI64TruncSatF64S Opcode = extendedOpcodeBase + 6
	opI64TruncSatF64U Opcode = extendedOpcodeBase + 7

	opMemoryInit Opcode = extendedOpcodeBase + 8
	opDataDrop   Opcode = extendedOpcodeBase + 9
	opMemoryCopy Opcode = extendedOpcodeBase + 10
	opMemoryFill Opcode = extendedOpcodeBase + 11
	opTableInit  Opcode = extendedOpcodeBase + 12
	opElemDrop   Opcode = extendedOpcodeBase + 13
	opTableCopy  Opcode = extendedOpcodeBase + 14
	opTableGrow  Opcode = extendedOpcodeBase + 15
	opTableSize  Opcode = extendedOpcodeBase + 16
	opTableFill  Opcode = extendedOpcodeBase + 17
)

// noLabel marks an Instruction field that does not resolve to a jump
// target.
const noLabel = -1

// Instruction is a single decoded, position-resolved unit of a function
// body: opcode plus its immediates, with block/branch targets already
// resolved to absolute indices into the owning function's instruction
// slice (rather than re-scanned at dispatch time).
type Instruction struct {
	Opcode Opcode
	// Operands holds the raw decoded immediates (memory/table indices,
	// constant bit patterns, local/global indices, and similar). Its
	// layout is opcode-specific; see decoder.go.
	Operands []uint64

	// LabelTrue/LabelFalse are absolute instruction indices: for IF,
	// LabelFalse is the target when the condition is false (the then arm
	// falls through); for BR/BR_IF/ELSE, LabelTrue is the branch target.
	LabelTrue  int
	LabelFalse int

	// LabelTable holds BR_TABLE's targets, default last.
	LabelTable []int

	// HasElse is set on an IF instruction once the decoder sees its matching
	// ELSE, distinguishing "false branch jumps into the ELSE arm's body"
	// (still open, closes at its own END) from "false branch jumps past a
	// missing ELSE straight to after END" (must close its own block first).
	HasElse bool
}
