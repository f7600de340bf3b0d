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

// Block type immediates, decoded as a signed LEB128 by decoder.go: a
// non-negative value is a type-section index (multi-value block), and each
// negative value below is a direct encoding of "no result" or a single
// result type, mirroring the WASM binary format's blocktype grammar.
const (
	blockTypeEmpty     int64 = -0x40
	blockTypeI32       int64 = -0x01
	blockTypeI64       int64 = -0x02
	blockTypeF32       int64 = -0x03
	blockTypeF64       int64 = -0x04
	blockTypeFuncRef   int64 = -0x10
	blockTypeExternRef int64 = -0x11
)

// blockArity computes the number of result values a BLOCK/LOOP/IF/function
// scope declares: 0 for an empty scope, 1 for a single value-type scope,
// and len(type.Returns) for a function-type (multi-value) scope.
func blockArity(inst InstanceView, encoded int64) int {
	switch encoded {
	case blockTypeEmpty:
		return 0
	case blockTypeI32, blockTypeI64, blockTypeF32, blockTypeF64, blockTypeFuncRef, blockTypeExternRef:
		return 1
	default:
		ft := inst.Type(int32(encoded))
		if ft == nil {
			return 0
		}
		return len(ft.Returns)
	}
}

// completeControlTransfer closes the given block: it pops arity result
// values, drops the block's leftover operands by truncating the stack back
// to the block's entry height, and pushes the saved results back on top. A
// normal (non-branching) END uses b.resultArity; a BR/BR_IF/BR_TABLE uses
// b.branchArity, which differs from resultArity only for a loop label.
func completeControlTransfer(f *StackFrame, stack *ValueStack, b blockRecord, arity int) {
	results := stack.popN(arity)
	f.dropValuesOutOfBlock(stack, b)
	stack.pushAll(results)
}

// closeBlock pops the frame's innermost block and completes its control
// transfer with the block's own result arity, exactly as a normal END does.
// IF's false branch (no ELSE arm) and ELSE (then arm taken) both jump past
// their matching END instead of executing it, so they have to perform this
// closing work themselves. Reports whether closing this block also closes
// the function itself.
func closeBlock(frame *StackFrame, stack *ValueStack) bool {
	b := frame.popBlock()
	closesFunction := frame.blockDepth() == 0
	completeControlTransfer(frame, stack, b, b.resultArity)
	return closesFunction
}
