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

// blockRecord is the per-block-entry bookkeeping a StackFrame keeps: the
// operand-stack height at entry (needed to drop excess operands on exit)
// and whether the block is a structured control frame (BLOCK/LOOP/IF, as
// opposed to a bookkeeping-only scope).
type blockRecord struct {
	stackHeight    int
	resultArity    int
	branchArity    int
	isControlFrame bool
	isLoop         bool
}

// StackFrame is a single activation: instruction cursor, locals, and
// block/label bookkeeping for one function invocation (or, for a host
// function, a placeholder used only to keep the call chain observable).
type StackFrame struct {
	Instructions []Instruction
	FuncID       int32
	Instance     *ModuleInstance
	Locals       []Value

	pc         int
	blocks     []blockRecord
	shouldReturn bool
}

// NewStackFrame builds a frame with locals initialised from args, followed
// by one default-typed zero per entry in localTypes.
func NewStackFrame(instructions []Instruction, instance *ModuleInstance, funcID int32, args []Value, localTypes []ValueType) *StackFrame {
	locals := make([]Value, len(args)+len(localTypes))
	copy(locals, args)
	for i, t := range localTypes {
		locals[len(args)+i] = defaultValue(t)
	}
	return &StackFrame{
		Instructions: instructions,
		FuncID:       funcID,
		Instance:     instance,
		Locals:       locals,
		blocks:       make([]blockRecord, 0, 16),
	}
}

// loadCurrentInstruction returns the instruction at pc and advances the
// cursor by one.
func (f *StackFrame) loadCurrentInstruction() Instruction {
	ins := f.Instructions[f.pc]
	f.pc++
	return ins
}

// jumpTo sets the cursor to an absolute instruction index.
func (f *StackFrame) jumpTo(label int) { f.pc = label }

// terminated reports whether the cursor has moved past the last
// instruction.
func (f *StackFrame) terminated() bool { return f.pc >= len(f.Instructions) }

// registerBlockEntry pushes a new block record for a freshly entered
// BLOCK/LOOP/IF/bookkeeping scope, recording the current stack height and
// the scope's declared result arity.
func (f *StackFrame) registerBlockEntry(stack *ValueStack, resultArity int, isControlFrame bool) {
	f.blocks = append(f.blocks, blockRecord{
		stackHeight:    stack.size(),
		resultArity:    resultArity,
		branchArity:    resultArity,
		isControlFrame: isControlFrame,
	})
}

// registerLoopEntry is registerBlockEntry for a LOOP scope specifically: a
// branch back to a loop label restarts the loop with zero values in flight,
// unlike a branch out of a block or function, which carries the block's
// result values.
func (f *StackFrame) registerLoopEntry(stack *ValueStack, resultArity int) {
	f.blocks = append(f.blocks, blockRecord{
		stackHeight:    stack.size(),
		resultArity:    resultArity,
		branchArity:    0,
		isControlFrame: true,
		isLoop:         true,
	})
}

// currentBlock returns the innermost open block record.
func (f *StackFrame) currentBlock() *blockRecord {
	return &f.blocks[len(f.blocks)-1]
}

// popBlock closes the innermost open block, returning its record.
func (f *StackFrame) popBlock() blockRecord {
	n := len(f.blocks) - 1
	b := f.blocks[n]
	f.blocks = f.blocks[:n]
	return b
}

// dropValuesOutOfBlock pops values until the stack height matches the
// recorded entry height of the given block.
func (f *StackFrame) dropValuesOutOfBlock(stack *ValueStack, b blockRecord) {
	stack.dropTo(b.stackHeight)
}

// isLastBlock reports whether closing the current (innermost) block also
// closes the function body itself.
func (f *StackFrame) isLastBlock() bool { return len(f.blocks) == 1 }

func (f *StackFrame) blockDepth() int { return len(f.blocks) }
