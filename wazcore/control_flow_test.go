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
	"math"
	"testing"
)

// This file decodes and runs hand-built binary modules through the full
// parse -> instantiate -> invoke pipeline, exercising control-flow, call,
// and bulk-memory dispatch paths that buildAddModule's straight-line
// function never touches.

// sleb128 encodes v as signed LEB128, needed for i32.const/i64.const
// immediates that uleb128 (parser_test.go) can't represent.
func sleb128(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7F)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			out = append(out, b)
			return out
		}
		out = append(out, b|0x80)
	}
}

func f32Bytes(bits uint32) []byte {
	return []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
}

func f64Bytes(bits uint64) []byte {
	out := make([]byte, 8)
	for i := range out {
		out[i] = byte(bits >> (8 * i))
	}
	return out
}

// funcType encodes a (params) -> (returns) function type entry, including
// its leading 0x60 tag.
func funcType(params, returns []ValueType) []byte {
	paramBytes := make([][]byte, len(params))
	for i, p := range params {
		paramBytes[i] = []byte{byte(p)}
	}
	returnBytes := make([][]byte, len(returns))
	for i, r := range returns {
		returnBytes[i] = []byte{byte(r)}
	}
	out := append([]byte{0x60}, vector(uint32(len(params)), paramBytes...)...)
	return append(out, vector(uint32(len(returns)), returnBytes...)...)
}

func exportFunc(name string, index uint32) []byte {
	entry := append(nameBytes(name), 0x00)
	return append(entry, uleb128(index)...)
}

func codeSectionOf(body []byte) []byte {
	entry := append(uleb128(uint32(len(body))), body...)
	return section(10, vector(1, entry))
}

const wasmHeader = "\x00\x61\x73\x6d\x01\x00\x00\x00"

// buildBlockBranchModule encodes a single exported function, "brtest", of
// type () -> i32:
//
//	block (result i32)
//	  i32.const 7
//	  i32.const 8
//	  br 0
//	end
func buildBlockBranchModule(t *testing.T) []byte {
	t.Helper()
	typeSection := section(1, vector(1, funcType(nil, []ValueType{I32})))
	functionSection := section(3, vector(1, uleb128(0)))
	exportSection := section(7, vector(1, exportFunc("brtest", 0)))
	body := []byte{
		0x00,             // no locals
		0x02, byte(I32),  // block (result i32)
		0x41, 0x07, // i32.const 7
		0x41, 0x08, // i32.const 8
		0x0C, 0x00, // br 0
		0x0B, // end block
		0x0B, // end function
	}
	out := []byte(wasmHeader)
	out = append(out, typeSection...)
	out = append(out, functionSection...)
	out = append(out, exportSection...)
	out = append(out, codeSectionOf(body)...)
	return out
}

func TestBlockBranchCarriesResultValuePastLeftoverOperands(t *testing.T) {
	rt := NewRuntime()
	inst, err := rt.InstantiateModuleFromBytes(buildBlockBranchModule(t))
	if err != nil {
		t.Fatalf("InstantiateModuleFromBytes: %v", err)
	}
	results, err := inst.Invoke("brtest")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(results) != 1 || results[0].I32() != 8 {
		t.Fatalf("results = %+v, want [8]", results)
	}
}

// buildIfNoElseModule encodes an exported function, "iftest", of type
// (i32) -> i32:
//
//	local.get 0
//	if
//	  nop
//	end
//	i32.const 42
//
// The IF carries no result (and no ELSE), so nothing it does affects the
// final value; a false condition must still leave the block correctly
// closed so the trailing i32.const 42 is the function's only return value
// on both the taken and skipped paths.
func buildIfNoElseModule(t *testing.T) []byte {
	t.Helper()
	typeSection := section(1, vector(1, funcType([]ValueType{I32}, []ValueType{I32})))
	functionSection := section(3, vector(1, uleb128(0)))
	exportSection := section(7, vector(1, exportFunc("iftest", 0)))
	body := []byte{
		0x00,       // no locals
		0x20, 0x00, // local.get 0
		0x04, 0x40, // if (empty block type)
		0x01, // nop
		0x0B, // end if
		0x41, 0x2A, // i32.const 42
		0x0B, // end function
	}
	out := []byte(wasmHeader)
	out = append(out, typeSection...)
	out = append(out, functionSection...)
	out = append(out, exportSection...)
	out = append(out, codeSectionOf(body)...)
	return out
}

func TestIfNoElseFalseConditionClosesBlockBeforeContinuing(t *testing.T) {
	rt := NewRuntime()
	inst, err := rt.InstantiateModuleFromBytes(buildIfNoElseModule(t))
	if err != nil {
		t.Fatalf("InstantiateModuleFromBytes: %v", err)
	}
	results, err := inst.Invoke("iftest", I32Value(0))
	if err != nil {
		t.Fatalf("Invoke(0): %v", err)
	}
	if len(results) != 1 || results[0].I32() != 42 {
		t.Fatalf("results = %+v, want [42]", results)
	}
}

func TestIfNoElseTrueConditionClosesBlockBeforeContinuing(t *testing.T) {
	rt := NewRuntime()
	inst, err := rt.InstantiateModuleFromBytes(buildIfNoElseModule(t))
	if err != nil {
		t.Fatalf("InstantiateModuleFromBytes: %v", err)
	}
	results, err := inst.Invoke("iftest", I32Value(1))
	if err != nil {
		t.Fatalf("Invoke(1): %v", err)
	}
	if len(results) != 1 || results[0].I32() != 42 {
		t.Fatalf("results = %+v, want [42]", results)
	}
}

// buildIfElseModule encodes an exported function, "ifelsetest", of type
// (i32) -> i32:
//
//	local.get 0
//	if (result i32)
//	  i32.const 111
//	else
//	  i32.const 222
//	end
//	i32.const 1000
//	i32.add
//
// Taking the then arm falls out through the ELSE opcode rather than
// executing END directly, so closing the IF block there has to happen
// explicitly for the trailing i32.add to see the right operand.
func buildIfElseModule(t *testing.T) []byte {
	t.Helper()
	typeSection := section(1, vector(1, funcType([]ValueType{I32}, []ValueType{I32})))
	functionSection := section(3, vector(1, uleb128(0)))
	exportSection := section(7, vector(1, exportFunc("ifelsetest", 0)))
	body := []byte{
		0x00,            // no locals
		0x20, 0x00,      // local.get 0
		0x04, byte(I32), // if (result i32)
		0x41, 0xEF, 0x00, // i32.const 111
		0x05, // else
	}
	body = append(body, append([]byte{0x41}, sleb128(222)...)...) // i32.const 222
	body = append(body, 0x0B)                                     // end if
	body = append(body, append([]byte{0x41}, sleb128(1000)...)...)
	body = append(body,
		0x6A, // i32.add
		0x0B, // end function
	)
	out := []byte(wasmHeader)
	out = append(out, typeSection...)
	out = append(out, functionSection...)
	out = append(out, exportSection...)
	out = append(out, codeSectionOf(body)...)
	return out
}

func TestIfElseThenArmTakenClosesBlockBeforeContinuing(t *testing.T) {
	rt := NewRuntime()
	inst, err := rt.InstantiateModuleFromBytes(buildIfElseModule(t))
	if err != nil {
		t.Fatalf("InstantiateModuleFromBytes: %v", err)
	}
	results, err := inst.Invoke("ifelsetest", I32Value(1))
	if err != nil {
		t.Fatalf("Invoke(1): %v", err)
	}
	if len(results) != 1 || results[0].I32() != 1111 {
		t.Fatalf("results = %+v, want [1111]", results)
	}
}

func TestIfElseFalseArmRunsElseBody(t *testing.T) {
	rt := NewRuntime()
	inst, err := rt.InstantiateModuleFromBytes(buildIfElseModule(t))
	if err != nil {
		t.Fatalf("InstantiateModuleFromBytes: %v", err)
	}
	results, err := inst.Invoke("ifelsetest", I32Value(0))
	if err != nil {
		t.Fatalf("Invoke(0): %v", err)
	}
	if len(results) != 1 || results[0].I32() != 1222 {
		t.Fatalf("results = %+v, want [1222]", results)
	}
}

// buildCallIndirectNullModule encodes a table of size 1 (slot 0 left at its
// canonical null) and an exported function, "callit", of type () -> i32
// that calls through slot 0.
func buildCallIndirectNullModule(t *testing.T) []byte {
	t.Helper()
	typeSection := section(1, vector(1, funcType(nil, []ValueType{I32})))
	functionSection := section(3, vector(1, uleb128(0)))
	tableType := []byte{byte(FuncRefType), 0x00, 0x01} // funcref, limits{min:1}
	tableSection := section(4, vector(1, tableType))
	exportSection := section(7, vector(1, exportFunc("callit", 0)))
	body := []byte{
		0x00,       // no locals
		0x41, 0x00, // i32.const 0 (table slot)
		0x11, 0x00, 0x00, // call_indirect (type 0) (table 0)
		0x0B, // end
	}
	out := []byte(wasmHeader)
	out = append(out, typeSection...)
	out = append(out, functionSection...)
	out = append(out, tableSection...)
	out = append(out, exportSection...)
	out = append(out, codeSectionOf(body)...)
	return out
}

func TestCallIndirectOnNullSlotTraps(t *testing.T) {
	rt := NewRuntime()
	inst, err := rt.InstantiateModuleFromBytes(buildCallIndirectNullModule(t))
	if err != nil {
		t.Fatalf("InstantiateModuleFromBytes: %v", err)
	}
	_, err = inst.Invoke("callit")
	trap, ok := isTrap(err)
	if !ok || trap.Kind != TrapUninitializedElement {
		t.Fatalf("Invoke: got %v, want TrapUninitializedElement", err)
	}
}

// buildMemoryInitModule encodes a memory of 1 page, a passive data segment
// holding "TEST", and an exported function, "init", of type (i32) -> ()
// that runs memory.init with the caller-supplied size.
func buildMemoryInitModule(t *testing.T) []byte {
	t.Helper()
	typeSection := section(1, vector(1, funcType([]ValueType{I32}, nil)))
	functionSection := section(3, vector(1, uleb128(0)))
	memorySection := section(5, vector(1, []byte{0x00, 0x01})) // limits{min:1}
	segmentContent := []byte("TEST")
	dataEntry := append([]byte{0x01}, uleb128(uint32(len(segmentContent)))...)
	dataEntry = append(dataEntry, segmentContent...)
	dataSection := section(11, vector(1, dataEntry))
	exportSection := section(7, vector(1, exportFunc("init", 0)))
	body := []byte{
		0x00,       // no locals
		0x41, 0x00, // i32.const 0 (dst)
		0x41, 0x00, // i32.const 0 (src)
		0x20, 0x00, // local.get 0 (size)
		0xFC, 0x08, 0x00, 0x00, // memory.init 0 0
		0x0B, // end
	}
	out := []byte(wasmHeader)
	out = append(out, typeSection...)
	out = append(out, functionSection...)
	out = append(out, memorySection...)
	out = append(out, exportSection...)
	out = append(out, codeSectionOf(body)...)
	out = append(out, dataSection...)
	return out
}

func TestMemoryInitOversizedSizeTraps(t *testing.T) {
	rt := NewRuntime()
	inst, err := rt.InstantiateModuleFromBytes(buildMemoryInitModule(t))
	if err != nil {
		t.Fatalf("InstantiateModuleFromBytes: %v", err)
	}
	_, err = inst.Invoke("init", I32Value(5))
	trap, ok := isTrap(err)
	if !ok || trap.Kind != TrapOutOfBoundsMemoryAccess {
		t.Fatalf("Invoke(5): got %v, want TrapOutOfBoundsMemoryAccess", err)
	}
}

func TestMemoryInitWithinBoundsCopiesSegmentBytes(t *testing.T) {
	rt := NewRuntime()
	inst, err := rt.InstantiateModuleFromBytes(buildMemoryInitModule(t))
	if err != nil {
		t.Fatalf("InstantiateModuleFromBytes: %v", err)
	}
	if _, err := inst.Invoke("init", I32Value(4)); err != nil {
		t.Fatalf("Invoke(4): %v", err)
	}
	data, err := inst.Memory().Read(0, 4)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "TEST" {
		t.Fatalf("Read(0, 4) = %q, want %q", data, "TEST")
	}
}

// buildDivOverflowModule encodes an exported function, "divtest", of type
// () -> i32 computing math.MinInt32 / -1.
func buildDivOverflowModule(t *testing.T) []byte {
	t.Helper()
	typeSection := section(1, vector(1, funcType(nil, []ValueType{I32})))
	functionSection := section(3, vector(1, uleb128(0)))
	exportSection := section(7, vector(1, exportFunc("divtest", 0)))
	body := []byte{0x00}
	body = append(body, 0x41)
	body = append(body, sleb128(math.MinInt32)...)
	body = append(body, 0x41)
	body = append(body, sleb128(-1)...)
	body = append(body, 0x6D, 0x0B) // i32.div_s, end
	out := []byte(wasmHeader)
	out = append(out, typeSection...)
	out = append(out, functionSection...)
	out = append(out, exportSection...)
	out = append(out, codeSectionOf(body)...)
	return out
}

func TestDivS32OverflowTrapsThroughDecodedModule(t *testing.T) {
	rt := NewRuntime()
	inst, err := rt.InstantiateModuleFromBytes(buildDivOverflowModule(t))
	if err != nil {
		t.Fatalf("InstantiateModuleFromBytes: %v", err)
	}
	_, err = inst.Invoke("divtest")
	trap, ok := isTrap(err)
	if !ok || trap.Kind != TrapIntegerOverflow {
		t.Fatalf("Invoke: got %v, want TrapIntegerOverflow", err)
	}
}

// buildF32NegNaNModule encodes an exported function, "negtest", of type
// () -> f32 computing f32.neg of a quiet NaN.
func buildF32NegNaNModule(t *testing.T) []byte {
	t.Helper()
	typeSection := section(1, vector(1, funcType(nil, []ValueType{F32})))
	functionSection := section(3, vector(1, uleb128(0)))
	exportSection := section(7, vector(1, exportFunc("negtest", 0)))
	body := []byte{0x00, 0x43}
	body = append(body, f32Bytes(0x7FC00000)...)
	body = append(body, 0x8C, 0x0B) // f32.neg, end
	out := []byte(wasmHeader)
	out = append(out, typeSection...)
	out = append(out, functionSection...)
	out = append(out, exportSection...)
	out = append(out, codeSectionOf(body)...)
	return out
}

func TestF32NegFlipsSignBitOnNaNThroughDecodedModule(t *testing.T) {
	rt := NewRuntime()
	inst, err := rt.InstantiateModuleFromBytes(buildF32NegNaNModule(t))
	if err != nil {
		t.Fatalf("InstantiateModuleFromBytes: %v", err)
	}
	results, err := inst.Invoke("negtest")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	got := math.Float32bits(results[0].F32())
	want := uint32(0x7FC00000) | 0x80000000
	if got != want {
		t.Fatalf("bits = 0x%08X, want 0x%08X", got, want)
	}
}

// buildTruncF64SToI64Module encodes an exported function, "trunctest", of
// type () -> i64 computing i64.trunc_f64_s of a NaN, and its saturating
// sibling, "trunctestsat", using i64.trunc_sat_f64_s on the same input.
func buildTruncF64SToI64Module(t *testing.T) []byte {
	t.Helper()
	typeSection := section(1, vector(1, funcType(nil, []ValueType{I64})))
	functionSection := section(3, vector(2, uleb128(0), uleb128(0)))
	exportSection := section(7, vector(2, exportFunc("trunctest", 0), exportFunc("trunctestsat", 1)))

	nanBits := f64Bytes(0x7FF8000000000000)
	trapBody := append([]byte{0x00, 0x44}, nanBits...)
	trapBody = append(trapBody, 0xB0, 0x0B) // i64.trunc_f64_s, end
	satBody := append([]byte{0x00, 0x44}, nanBits...)
	satBody = append(satBody, 0xFC, 0x06, 0x0B) // i64.trunc_sat_f64_s, end

	out := []byte(wasmHeader)
	out = append(out, typeSection...)
	out = append(out, functionSection...)
	out = append(out, exportSection...)
	codeEntry1 := append(uleb128(uint32(len(trapBody))), trapBody...)
	codeEntry2 := append(uleb128(uint32(len(satBody))), satBody...)
	out = append(out, section(10, vector(2, codeEntry1, codeEntry2))...)
	return out
}

func TestTruncF64SToI64NaNTrapsThroughDecodedModule(t *testing.T) {
	rt := NewRuntime()
	inst, err := rt.InstantiateModuleFromBytes(buildTruncF64SToI64Module(t))
	if err != nil {
		t.Fatalf("InstantiateModuleFromBytes: %v", err)
	}
	_, err = inst.Invoke("trunctest")
	trap, ok := isTrap(err)
	if !ok || trap.Kind != TrapInvalidConversionToInt {
		t.Fatalf("Invoke(trunctest): got %v, want TrapInvalidConversionToInt", err)
	}
}

func TestTruncSatF64SToI64NaNYieldsZeroThroughDecodedModule(t *testing.T) {
	rt := NewRuntime()
	inst, err := rt.InstantiateModuleFromBytes(buildTruncF64SToI64Module(t))
	if err != nil {
		t.Fatalf("InstantiateModuleFromBytes: %v", err)
	}
	results, err := inst.Invoke("trunctestsat")
	if err != nil {
		t.Fatalf("Invoke(trunctestsat): %v", err)
	}
	if len(results) != 1 || results[0].I64() != 0 {
		t.Fatalf("results = %+v, want [0]", results)
	}
}
