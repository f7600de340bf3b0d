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
	"errors"
	"fmt"
	"io"
)

// sectionID identifies one of the top-level sections of a binary module,
// numbered by its section ID (the data count section, 12, appears before
// the code section in a module).
type sectionID byte

const (
	sectionCustom sectionID = iota
	sectionType
	sectionImport
	sectionFunction
	sectionTable
	sectionMemory
	sectionGlobal
	sectionExport
	sectionStart
	sectionElement
	sectionCode
	sectionData
	sectionDataCount
)

var (
	errBadMagic          = errors.New("not a wasm module: bad magic number")
	errBadVersion        = errors.New("unsupported wasm version")
	errElementKindNotZero = errors.New("element kind must be funcref (0x00)")
)

const (
	wasmMagic   = 0x6d736100 // "\0asm"
	wasmVersion = uint32(1)
)

// defaultTableIndex is the implicit table index used by element segment
// encodings that don't carry an explicit one.
const defaultTableIndex = 0

// parser turns raw binary module bytes into a Module. It performs no
// validation beyond what's needed to decode the section framing correctly;
// full validation is a separate, out-of-scope concern.
type parser struct {
	c *byteCursor
}

// ParseModule decodes a binary WASM module.
func ParseModule(data []byte) (*Module, error) {
	p := &parser{c: newByteCursor(data)}
	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	mod := &Module{}
	var codeBodies []Function
	var funcTypeIndexes []uint32

	for p.c.hasMore() {
		id, err := p.c.ReadByte()
		if err != nil {
			return nil, err
		}
		size, err := p.c.readU32()
		if err != nil {
			return nil, fmt.Errorf("reading section %d size: %w", id, err)
		}
		payload, err := p.c.readBytes(int(size))
		if err != nil {
			return nil, fmt.Errorf("reading section %d payload: %w", id, err)
		}
		sp := &parser{c: newByteCursor(payload)}

		switch sectionID(id) {
		case sectionCustom:
			// Custom sections (name section, producers, etc.) carry no
			// semantics the execution core needs; skip the payload.
		case sectionType:
			mod.Types, err = parseVector(sp, sp.parseFunctionType)
		case sectionImport:
			mod.Imports, err = parseVector(sp, sp.parseImport)
		case sectionFunction:
			funcTypeIndexes, err = parseVector(sp, sp.parseIndex)
		case sectionTable:
			var tableTypes []TableType
			tableTypes, err = parseVector(sp, sp.parseTableType)
			for _, tt := range tableTypes {
				mod.Tables = append(mod.Tables, tt)
			}
		case sectionMemory:
			var memTypes []MemoryType
			memTypes, err = parseVector(sp, sp.parseMemoryType)
			mod.Memories = append(mod.Memories, memTypes...)
		case sectionGlobal:
			mod.Globals, err = parseVector(sp, sp.parseGlobalVariable)
		case sectionExport:
			mod.Exports, err = parseVector(sp, sp.parseExport)
		case sectionStart:
			var idx uint32
			idx, err = sp.parseIndex()
			mod.StartIndex = &idx
		case sectionElement:
			mod.Elements, err = parseVector(sp, sp.parseElementSegment)
		case sectionCode:
			codeBodies, err = parseVector(sp, sp.parseCodeEntry)
		case sectionData:
			mod.DataSegments, err = parseVector(sp, sp.parseDataSegment)
		case sectionDataCount:
			// The data count is only needed by validators that check
			// memory.init/data.drop indices ahead of the data section;
			// the execution core resolves those lazily at run time.
		default:
			return nil, fmt.Errorf("unknown section id %d", id)
		}
		if err != nil {
			return nil, fmt.Errorf("parsing section %d: %w", id, err)
		}
	}

	if len(funcTypeIndexes) != len(codeBodies) {
		return nil, fmt.Errorf("function section declares %d functions but code section has %d bodies", len(funcTypeIndexes), len(codeBodies))
	}
	mod.Funcs = make([]Function, len(codeBodies))
	for i, body := range codeBodies {
		mod.Funcs[i] = Function{TypeIndex: funcTypeIndexes[i], Locals: body.Locals, Body: body.Body}
	}
	return mod, nil
}

func (p *parser) parseHeader() error {
	magic, err := p.c.readBytes(4)
	if err != nil {
		return err
	}
	if uint32(magic[0])|uint32(magic[1])<<8|uint32(magic[2])<<16|uint32(magic[3])<<24 != wasmMagic {
		return errBadMagic
	}
	version, err := p.c.readBytes(4)
	if err != nil {
		return err
	}
	if uint32(version[0])|uint32(version[1])<<8|uint32(version[2])<<16|uint32(version[3])<<24 != wasmVersion {
		return errBadVersion
	}
	return nil
}

func (p *parser) parseFunctionType() (FunctionType, error) {
	b, err := p.c.ReadByte()
	if err != nil {
		return FunctionType{}, err
	}
	if b != 0x60 {
		return FunctionType{}, fmt.Errorf("invalid function type tag 0x%x", b)
	}
	params, err := parseVector(p, p.parseValueType)
	if err != nil {
		return FunctionType{}, err
	}
	results, err := parseVector(p, p.parseValueType)
	if err != nil {
		return FunctionType{}, err
	}
	return FunctionType{Params: params, Returns: results}, nil
}

func (p *parser) parseValueType() (ValueType, error) {
	b, err := p.c.ReadByte()
	if err != nil {
		return 0, err
	}
	switch ValueType(b) {
	case I32, I64, F32, F64, FuncRefType, ExternRefType:
		return ValueType(b), nil
	default:
		return 0, fmt.Errorf("invalid value type 0x%x", b)
	}
}

func (p *parser) parseImport() (Import, error) {
	moduleName, err := p.parseUtf8String()
	if err != nil {
		return Import{}, err
	}
	name, err := p.parseUtf8String()
	if err != nil {
		return Import{}, err
	}
	kind, err := p.c.ReadByte()
	if err != nil {
		return Import{}, err
	}
	var typ ImportType
	switch kind {
	case 0x00:
		idx, err := p.parseIndex()
		if err != nil {
			return Import{}, err
		}
		typ = FunctionTypeIndex(idx)
	case 0x01:
		tt, err := p.parseTableType()
		if err != nil {
			return Import{}, err
		}
		typ = tt
	case 0x02:
		mt, err := p.parseMemoryType()
		if err != nil {
			return Import{}, err
		}
		typ = mt
	case 0x03:
		gt, err := p.parseGlobalType()
		if err != nil {
			return Import{}, err
		}
		typ = gt
	default:
		return Import{}, fmt.Errorf("invalid import kind 0x%x", kind)
	}
	return Import{ModuleName: moduleName, Name: name, Type: typ}, nil
}

func (p *parser) parseTableType() (TableType, error) {
	b, err := p.c.ReadByte()
	if err != nil {
		return TableType{}, err
	}
	if ValueType(b) != FuncRefType && ValueType(b) != ExternRefType {
		return TableType{}, fmt.Errorf("invalid table reference type 0x%x", b)
	}
	limits, err := p.parseLimits()
	if err != nil {
		return TableType{}, err
	}
	return TableType{RefType: ValueType(b), Limits: limits}, nil
}

func (p *parser) parseMemoryType() (MemoryType, error) {
	limits, err := p.parseLimits()
	if err != nil {
		return MemoryType{}, err
	}
	return MemoryType{Limits: limits}, nil
}

func (p *parser) parseGlobalType() (GlobalType, error) {
	vt, err := p.parseValueType()
	if err != nil {
		return GlobalType{}, err
	}
	m, err := p.c.ReadByte()
	if err != nil {
		return GlobalType{}, err
	}
	if m != 0 && m != 1 {
		return GlobalType{}, fmt.Errorf("invalid global mutability 0x%x", m)
	}
	return GlobalType{ValueType: vt, Mutable: m == 1}, nil
}

func (p *parser) parseGlobalVariable() (GlobalVariable, error) {
	gt, err := p.parseGlobalType()
	if err != nil {
		return GlobalVariable{}, err
	}
	init, err := p.parseConstExpression()
	if err != nil {
		return GlobalVariable{}, err
	}
	return GlobalVariable{Type: gt, InitExpression: init}, nil
}

func (p *parser) parseExport() (Export, error) {
	name, err := p.parseUtf8String()
	if err != nil {
		return Export{}, err
	}
	kind, err := p.c.ReadByte()
	if err != nil {
		return Export{}, err
	}
	idx, err := p.parseIndex()
	if err != nil {
		return Export{}, err
	}
	var it IndexType
	switch kind {
	case 0x00:
		it = FunctionIndexType
	case 0x01:
		it = TableIndexType
	case 0x02:
		it = MemoryIndexType
	case 0x03:
		it = GlobalIndexType
	default:
		return Export{}, fmt.Errorf("invalid export kind 0x%x", kind)
	}
	return Export{Name: name, IndexType: it, Index: idx}, nil
}

// codeEntry is the intermediate shape of one code-section entry, before its
// declared function type index (from the earlier function section) is
// joined in by ParseModule.
type codeEntry = Function

func (p *parser) parseCodeEntry() (codeEntry, error) {
	size, err := p.c.readU32()
	if err != nil {
		return codeEntry{}, err
	}
	body, err := p.c.readBytes(int(size))
	if err != nil {
		return codeEntry{}, err
	}
	bp := &parser{c: newByteCursor(body)}
	locals, err := bp.parseLocals()
	if err != nil {
		return codeEntry{}, err
	}
	rest := body[bp.c.pos:]
	// The body ends with an explicit END opcode that decodeFunctionBody
	// also expects to consume as the function's own closing scope, so it's
	// kept rather than trimmed here.
	return codeEntry{Locals: locals, Body: rest}, nil
}

func (p *parser) parseLocals() ([]ValueType, error) {
	groups, err := p.c.readU32()
	if err != nil {
		return nil, err
	}
	var locals []ValueType
	for i := uint32(0); i < groups; i++ {
		count, err := p.c.readU32()
		if err != nil {
			return nil, err
		}
		vt, err := p.parseValueType()
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < count; j++ {
			locals = append(locals, vt)
		}
	}
	return locals, nil
}

func (p *parser) parseDataSegment() (DataSegment, error) {
	mode, err := p.c.readU32()
	if err != nil {
		return DataSegment{}, err
	}
	switch mode {
	case 0:
		offset, err := p.parseConstExpression()
		if err != nil {
			return DataSegment{}, err
		}
		content, err := p.parseByteVector()
		if err != nil {
			return DataSegment{}, err
		}
		return DataSegment{Mode: ActiveDataMode, Content: content, OffsetExpression: offset}, nil
	case 1:
		content, err := p.parseByteVector()
		if err != nil {
			return DataSegment{}, err
		}
		return DataSegment{Mode: PassiveDataMode, Content: content}, nil
	case 2:
		memIdx, err := p.parseIndex()
		if err != nil {
			return DataSegment{}, err
		}
		offset, err := p.parseConstExpression()
		if err != nil {
			return DataSegment{}, err
		}
		content, err := p.parseByteVector()
		if err != nil {
			return DataSegment{}, err
		}
		return DataSegment{Mode: ActiveDataMode, Content: content, MemoryIndex: memIdx, OffsetExpression: offset}, nil
	default:
		return DataSegment{}, fmt.Errorf("invalid data segment mode %d", mode)
	}
}

func (p *parser) parseElementSegment() (ElementSegment, error) {
	flags, err := p.c.readU32()
	if err != nil {
		return ElementSegment{}, fmt.Errorf("reading element flags: %w", err)
	}

	readFuncIndexElemKind := func() error {
		b, err := p.c.ReadByte()
		if err != nil {
			return err
		}
		if b != 0x00 {
			return errElementKindNotZero
		}
		return nil
	}

	switch flags {
	case 0:
		offset, err := p.parseConstExpression()
		if err != nil {
			return ElementSegment{}, err
		}
		idxs, err := parseVector(p, p.parseIndex)
		if err != nil {
			return ElementSegment{}, err
		}
		return ElementSegment{Mode: ActiveElementMode, Kind: FuncRefType, Funcs: uint32SliceToInt32(idxs), TableIndex: defaultTableIndex, OffsetExpression: offset}, nil
	case 1:
		if err := readFuncIndexElemKind(); err != nil {
			return ElementSegment{}, err
		}
		idxs, err := parseVector(p, p.parseIndex)
		if err != nil {
			return ElementSegment{}, err
		}
		return ElementSegment{Mode: PassiveElementMode, Kind: FuncRefType, Funcs: uint32SliceToInt32(idxs)}, nil
	case 2:
		tableIdx, err := p.parseIndex()
		if err != nil {
			return ElementSegment{}, err
		}
		offset, err := p.parseConstExpression()
		if err != nil {
			return ElementSegment{}, err
		}
		if err := readFuncIndexElemKind(); err != nil {
			return ElementSegment{}, err
		}
		idxs, err := parseVector(p, p.parseIndex)
		if err != nil {
			return ElementSegment{}, err
		}
		return ElementSegment{Mode: ActiveElementMode, Kind: FuncRefType, Funcs: uint32SliceToInt32(idxs), TableIndex: tableIdx, OffsetExpression: offset}, nil
	case 3:
		if err := readFuncIndexElemKind(); err != nil {
			return ElementSegment{}, err
		}
		idxs, err := parseVector(p, p.parseIndex)
		if err != nil {
			return ElementSegment{}, err
		}
		return ElementSegment{Mode: DeclarativeElementMode, Kind: FuncRefType, Funcs: uint32SliceToInt32(idxs)}, nil
	case 4:
		offset, err := p.parseConstExpression()
		if err != nil {
			return ElementSegment{}, err
		}
		exprs, err := parseVector(p, p.parseConstExpression)
		if err != nil {
			return ElementSegment{}, err
		}
		return ElementSegment{Mode: ActiveElementMode, Kind: FuncRefType, Exprs: exprs, TableIndex: defaultTableIndex, OffsetExpression: offset}, nil
	case 5:
		kind, err := p.parseValueType()
		if err != nil {
			return ElementSegment{}, err
		}
		exprs, err := parseVector(p, p.parseConstExpression)
		if err != nil {
			return ElementSegment{}, err
		}
		return ElementSegment{Mode: PassiveElementMode, Kind: kind, Exprs: exprs}, nil
	case 6:
		tableIdx, err := p.parseIndex()
		if err != nil {
			return ElementSegment{}, err
		}
		offset, err := p.parseConstExpression()
		if err != nil {
			return ElementSegment{}, err
		}
		kind, err := p.parseValueType()
		if err != nil {
			return ElementSegment{}, err
		}
		exprs, err := parseVector(p, p.parseConstExpression)
		if err != nil {
			return ElementSegment{}, err
		}
		return ElementSegment{Mode: ActiveElementMode, Kind: kind, Exprs: exprs, TableIndex: tableIdx, OffsetExpression: offset}, nil
	case 7:
		kind, err := p.parseValueType()
		if err != nil {
			return ElementSegment{}, err
		}
		exprs, err := parseVector(p, p.parseConstExpression)
		if err != nil {
			return ElementSegment{}, err
		}
		return ElementSegment{Mode: DeclarativeElementMode, Kind: kind, Exprs: exprs}, nil
	default:
		return ElementSegment{}, fmt.Errorf("invalid element flags %d", flags)
	}
}

// parseConstExpression reads one constant expression (used for global
// initializers and element/data offsets) by scanning forward until the
// closing END opcode, byte by byte, since neither the enclosing vector nor
// the expression itself is length-prefixed in the binary format.
func (p *parser) parseConstExpression() ([]byte, error) {
	start := p.c.pos
	depth := 0
	for {
		b, err := p.c.ReadByte()
		if err != nil {
			return nil, io.ErrUnexpectedEOF
		}
		switch Opcode(b) {
		case opBlock, opLoop, opIf:
			depth++
			if _, err := p.c.readS33(); err != nil {
				return nil, err
			}
		case opEnd:
			if depth == 0 {
				return p.c.data[start : p.c.pos-1], nil
			}
			depth--
		case opGlobalGet, opRefFunc:
			if _, err := p.c.readU32(); err != nil {
				return nil, err
			}
		case opRefNull:
			if _, err := p.c.readU32(); err != nil {
				return nil, err
			}
		case opI32Const:
			if _, err := p.c.readS32(); err != nil {
				return nil, err
			}
		case opI64Const:
			if _, err := p.c.readS64(); err != nil {
				return nil, err
			}
		case opF32Const:
			if _, err := p.c.readF32Bits(); err != nil {
				return nil, err
			}
		case opF64Const:
			if _, err := p.c.readF64Bits(); err != nil {
				return nil, err
			}
		default:
			// Any other opcode, including the i32/i64 arithmetic of
			// extended constant expressions, is rejected.
			return nil, fmt.Errorf("unsupported opcode 0x%x in constant expression", b)
		}
	}
}

func (p *parser) parseLimits() (Limits, error) {
	b, err := p.c.ReadByte()
	if err != nil {
		return Limits{}, err
	}
	switch b {
	case 0:
		min, err := p.c.readU32()
		if err != nil {
			return Limits{}, err
		}
		return Limits{Min: min}, nil
	case 1:
		min, err := p.c.readU32()
		if err != nil {
			return Limits{}, err
		}
		max, err := p.c.readU32()
		if err != nil {
			return Limits{}, err
		}
		return Limits{Min: min, Max: &max}, nil
	default:
		return Limits{}, fmt.Errorf("invalid limits flag 0x%x", b)
	}
}

func (p *parser) parseIndex() (uint32, error) {
	return p.c.readU32()
}

func (p *parser) parseUtf8String() (string, error) {
	n, err := p.c.readU32()
	if err != nil {
		return "", err
	}
	b, err := p.c.readBytes(int(n))
	if err != nil {
		return "", fmt.Errorf("reading string bytes: %w", err)
	}
	return string(b), nil
}

func (p *parser) parseByteVector() ([]byte, error) {
	n, err := p.c.readU32()
	if err != nil {
		return nil, err
	}
	return p.c.readBytes(int(n))
}

func parseVector[T any](p *parser, parse func() (T, error)) ([]T, error) {
	n, err := p.c.readU32()
	if err != nil {
		return nil, err
	}
	items := make([]T, n)
	for i := range items {
		v, err := parse()
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return items, nil
}

func uint32SliceToInt32(in []uint32) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}
