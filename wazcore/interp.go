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

// pushBool pushes the canonical i32 boolean for cond.
func pushBool(stack *ValueStack, cond bool) {
	if cond {
		stack.push(TRUE)
	} else {
		stack.push(FALSE)
	}
}

// branch performs a control transfer depth levels up the current frame's
// open block stack: depth 0 is the innermost block, matching the relative
// label indices the binary encoding uses directly. Branching to a loop
// label re-enters the loop (its block record survives); branching to any
// other label exits it, and exiting the outermost (function) block ends the
// call.
func (vm *VM) branch(frame *StackFrame, stack *ValueStack, depth int, targetPC int) {
	idx := len(frame.blocks) - 1 - depth
	b := frame.blocks[idx]
	closesFunction := idx == 0
	completeControlTransfer(frame, stack, b, b.branchArity)
	if b.isLoop {
		frame.blocks = frame.blocks[:idx+1]
	} else {
		frame.blocks = frame.blocks[:idx]
		if closesFunction {
			frame.shouldReturn = true
		}
	}
	frame.jumpTo(targetPC)
}

// dispatch executes a single decoded instruction against the given frame
// and the call's shared operand stack, mutating callStack for CALL,
// CALL_INDIRECT, and control-transfer opcodes.
func (vm *VM) dispatch(stack *ValueStack, callStack *[]*StackFrame, frame *StackFrame, ins Instruction) error {
	switch ins.Opcode {

	case opUnreachable:
		return newTrap(TrapUnreachable)
	case opNop:
		// no-op

	case opBlock:
		frame.registerBlockEntry(stack, blockArity(frame.Instance, int64(ins.Operands[0])), true)
	case opLoop:
		frame.registerLoopEntry(stack, blockArity(frame.Instance, int64(ins.Operands[0])))
	case opIf:
		cond := stack.pop()
		frame.registerBlockEntry(stack, blockArity(frame.Instance, int64(ins.Operands[0])), true)
		if !cond.IsTrue() {
			// A no-else IF's false branch jumps past its own END, so it must
			// close its own block first; an if/else's false branch instead
			// jumps into the ELSE arm's body, which runs to its own END.
			if !ins.HasElse {
				if closeBlock(frame, stack) {
					frame.shouldReturn = true
				}
			}
			frame.jumpTo(ins.LabelFalse)
		}
	case opElse:
		// Reached only by falling out of the "then" arm: close the IF block
		// (matching what END would have done) and skip the else arm
		// entirely, jumping straight past the matching END.
		if closeBlock(frame, stack) {
			frame.shouldReturn = true
		}
		frame.jumpTo(ins.LabelTrue)
	case opEnd:
		if closeBlock(frame, stack) {
			frame.shouldReturn = true
		}

	case opBr:
		vm.branch(frame, stack, int(ins.Operands[0]), ins.LabelTrue)
	case opBrIf:
		cond := stack.pop()
		if cond.IsTrue() {
			vm.branch(frame, stack, int(ins.Operands[0]), ins.LabelTrue)
		}
	case opBrTable:
		selector := stack.pop().I32()
		last := len(ins.LabelTable) - 1
		i := int(selector)
		if i < 0 || i > last {
			i = last
		}
		vm.branch(frame, stack, int(ins.Operands[i]), ins.LabelTable[i])
	case opReturn:
		vm.branch(frame, stack, frame.blockDepth()-1, len(frame.Instructions))

	case opCall:
		return vm.callDirect(stack, callStack, frame.Instance, int32(ins.Operands[0]))
	case opCallIndirect:
		return vm.callIndirect(stack, callStack, frame.Instance, int32(ins.Operands[0]), int32(ins.Operands[1]))

	case opDrop:
		stack.drop()
	case opSelect, opSelectT:
		cond := stack.pop()
		v2 := stack.pop()
		v1 := stack.pop()
		if cond.IsTrue() {
			stack.push(v1)
		} else {
			stack.push(v2)
		}

	case opLocalGet:
		stack.push(frame.Locals[ins.Operands[0]])
	case opLocalSet:
		frame.Locals[ins.Operands[0]] = stack.pop()
	case opLocalTee:
		frame.Locals[ins.Operands[0]] = stack.peek()
	case opGlobalGet:
		v, err := frame.Instance.ReadGlobal(int32(ins.Operands[0]))
		if err != nil {
			return err
		}
		stack.push(v)
	case opGlobalSet:
		return frame.Instance.WriteGlobal(int32(ins.Operands[0]), stack.pop())

	case opTableGet:
		table := frame.Instance.Table(int32(ins.Operands[0]))
		v, err := table.Ref(stack.pop().I32())
		if err != nil {
			return err
		}
		stack.push(v)
	case opTableSet:
		table := frame.Instance.Table(int32(ins.Operands[0]))
		v := stack.pop()
		idx := stack.pop().I32()
		if err := table.SetRef(idx, v); err != nil {
			return err
		}

	default:
		return vm.dispatchMemoryAndArithmetic(stack, frame, ins)
	}
	return nil
}

func memAddr(ins Instruction, dynamic int32) uint64 {
	return effectiveAddress(ins.Operands[1], dynamic)
}

// dispatchMemoryAndArithmetic covers every opcode that neither touches
// control flow nor the call stack: memory access, numeric constants,
// comparisons, arithmetic, conversions, references, and the bulk
// memory/table extended opcodes.
func (vm *VM) dispatchMemoryAndArithmetic(stack *ValueStack, frame *StackFrame, ins Instruction) error {
	mem := frame.Instance.Memory()
	switch ins.Opcode {

	case opI32Load:
		v, err := mem.LoadUint32(memAddr(ins, stack.pop().I32()))
		if err != nil {
			return err
		}
		stack.push(I32Value(int32(v)))
	case opI64Load:
		v, err := mem.LoadUint64(memAddr(ins, stack.pop().I32()))
		if err != nil {
			return err
		}
		stack.push(I64Value(int64(v)))
	case opF32Load:
		v, err := mem.LoadFloat32(memAddr(ins, stack.pop().I32()))
		if err != nil {
			return err
		}
		stack.push(F32Value(v))
	case opF64Load:
		v, err := mem.LoadFloat64(memAddr(ins, stack.pop().I32()))
		if err != nil {
			return err
		}
		stack.push(F64Value(v))
	case opI32Load8S:
		v, err := mem.LoadByte(memAddr(ins, stack.pop().I32()))
		if err != nil {
			return err
		}
		stack.push(I32Value(signExtend8To32(v)))
	case opI32Load8U:
		v, err := mem.LoadByte(memAddr(ins, stack.pop().I32()))
		if err != nil {
			return err
		}
		stack.push(I32Value(zeroExtend8To32(v)))
	case opI32Load16S:
		v, err := mem.LoadUint16(memAddr(ins, stack.pop().I32()))
		if err != nil {
			return err
		}
		stack.push(I32Value(signExtend16To32(v)))
	case opI32Load16U:
		v, err := mem.LoadUint16(memAddr(ins, stack.pop().I32()))
		if err != nil {
			return err
		}
		stack.push(I32Value(zeroExtend16To32(v)))
	case opI64Load8S:
		v, err := mem.LoadByte(memAddr(ins, stack.pop().I32()))
		if err != nil {
			return err
		}
		stack.push(I64Value(signExtend8To64(v)))
	case opI64Load8U:
		v, err := mem.LoadByte(memAddr(ins, stack.pop().I32()))
		if err != nil {
			return err
		}
		stack.push(I64Value(zeroExtend8To64(v)))
	case opI64Load16S:
		v, err := mem.LoadUint16(memAddr(ins, stack.pop().I32()))
		if err != nil {
			return err
		}
		stack.push(I64Value(signExtend16To64(v)))
	case opI64Load16U:
		v, err := mem.LoadUint16(memAddr(ins, stack.pop().I32()))
		if err != nil {
			return err
		}
		stack.push(I64Value(zeroExtend16To64(v)))
	case opI64Load32S:
		v, err := mem.LoadUint32(memAddr(ins, stack.pop().I32()))
		if err != nil {
			return err
		}
		stack.push(I64Value(signExtend32To64(v)))
	case opI64Load32U:
		v, err := mem.LoadUint32(memAddr(ins, stack.pop().I32()))
		if err != nil {
			return err
		}
		stack.push(I64Value(zeroExtend32To64(v)))

	case opI32Store:
		v := stack.pop().I32()
		return mem.StoreUint32(memAddr(ins, stack.pop().I32()), uint32(v))
	case opI64Store:
		v := stack.pop().I64()
		return mem.StoreUint64(memAddr(ins, stack.pop().I32()), uint64(v))
	case opF32Store:
		v := stack.pop().F32()
		return mem.StoreFloat32(memAddr(ins, stack.pop().I32()), v)
	case opF64Store:
		v := stack.pop().F64()
		return mem.StoreFloat64(memAddr(ins, stack.pop().I32()), v)
	case opI32Store8:
		v := stack.pop().I32()
		return mem.StoreByte(memAddr(ins, stack.pop().I32()), byte(v))
	case opI32Store16:
		v := stack.pop().I32()
		return mem.StoreUint16(memAddr(ins, stack.pop().I32()), uint16(v))
	case opI64Store8:
		v := stack.pop().I64()
		return mem.StoreByte(memAddr(ins, stack.pop().I32()), byte(v))
	case opI64Store16:
		v := stack.pop().I64()
		return mem.StoreUint16(memAddr(ins, stack.pop().I32()), uint16(v))
	case opI64Store32:
		v := stack.pop().I64()
		return mem.StoreUint32(memAddr(ins, stack.pop().I32()), uint32(v))

	case opMemorySize:
		stack.push(I32Value(mem.Size()))
	case opMemoryGrow:
		delta := stack.pop().I32()
		stack.push(I32Value(mem.Grow(delta)))

	case opI32Const:
		stack.push(I32Value(int32(uint32(ins.Operands[0]))))
	case opI64Const:
		stack.push(I64Value(int64(ins.Operands[0])))
	case opF32Const:
		stack.push(Value{Type: F32, bits: ins.Operands[0]})
	case opF64Const:
		stack.push(Value{Type: F64, bits: ins.Operands[0]})

	case opI32Eqz:
		pushBool(stack, stack.pop().I32() == 0)
	case opI32Eq:
		b, a := stack.pop().I32(), stack.pop().I32()
		pushBool(stack, numEqual(a, b))
	case opI32Ne:
		b, a := stack.pop().I32(), stack.pop().I32()
		pushBool(stack, numNotEqual(a, b))
	case opI32LtS:
		b, a := stack.pop().I32(), stack.pop().I32()
		pushBool(stack, numLessThan(a, b))
	case opI32LtU:
		b, a := stack.pop().I32(), stack.pop().I32()
		pushBool(stack, lessThanU32(a, b))
	case opI32GtS:
		b, a := stack.pop().I32(), stack.pop().I32()
		pushBool(stack, numGreaterThan(a, b))
	case opI32GtU:
		b, a := stack.pop().I32(), stack.pop().I32()
		pushBool(stack, greaterThanU32(a, b))
	case opI32LeS:
		b, a := stack.pop().I32(), stack.pop().I32()
		pushBool(stack, numLessOrEqual(a, b))
	case opI32LeU:
		b, a := stack.pop().I32(), stack.pop().I32()
		pushBool(stack, lessOrEqualU32(a, b))
	case opI32GeS:
		b, a := stack.pop().I32(), stack.pop().I32()
		pushBool(stack, numGreaterOrEq(a, b))
	case opI32GeU:
		b, a := stack.pop().I32(), stack.pop().I32()
		pushBool(stack, greaterOrEqualU32(a, b))

	case opI64Eqz:
		pushBool(stack, stack.pop().I64() == 0)
	case opI64Eq:
		b, a := stack.pop().I64(), stack.pop().I64()
		pushBool(stack, numEqual(a, b))
	case opI64Ne:
		b, a := stack.pop().I64(), stack.pop().I64()
		pushBool(stack, numNotEqual(a, b))
	case opI64LtS:
		b, a := stack.pop().I64(), stack.pop().I64()
		pushBool(stack, numLessThan(a, b))
	case opI64LtU:
		b, a := stack.pop().I64(), stack.pop().I64()
		pushBool(stack, lessThanU64(a, b))
	case opI64GtS:
		b, a := stack.pop().I64(), stack.pop().I64()
		pushBool(stack, numGreaterThan(a, b))
	case opI64GtU:
		b, a := stack.pop().I64(), stack.pop().I64()
		pushBool(stack, greaterThanU64(a, b))
	case opI64LeS:
		b, a := stack.pop().I64(), stack.pop().I64()
		pushBool(stack, numLessOrEqual(a, b))
	case opI64LeU:
		b, a := stack.pop().I64(), stack.pop().I64()
		pushBool(stack, lessOrEqualU64(a, b))
	case opI64GeS:
		b, a := stack.pop().I64(), stack.pop().I64()
		pushBool(stack, numGreaterOrEq(a, b))
	case opI64GeU:
		b, a := stack.pop().I64(), stack.pop().I64()
		pushBool(stack, greaterOrEqualU64(a, b))

	case opF32Eq:
		b, a := stack.pop().F32(), stack.pop().F32()
		pushBool(stack, numEqual(a, b))
	case opF32Ne:
		b, a := stack.pop().F32(), stack.pop().F32()
		pushBool(stack, numNotEqual(a, b))
	case opF32Lt:
		b, a := stack.pop().F32(), stack.pop().F32()
		pushBool(stack, numLessThan(a, b))
	case opF32Gt:
		b, a := stack.pop().F32(), stack.pop().F32()
		pushBool(stack, numGreaterThan(a, b))
	case opF32Le:
		b, a := stack.pop().F32(), stack.pop().F32()
		pushBool(stack, numLessOrEqual(a, b))
	case opF32Ge:
		b, a := stack.pop().F32(), stack.pop().F32()
		pushBool(stack, numGreaterOrEq(a, b))

	case opF64Eq:
		b, a := stack.pop().F64(), stack.pop().F64()
		pushBool(stack, numEqual(a, b))
	case opF64Ne:
		b, a := stack.pop().F64(), stack.pop().F64()
		pushBool(stack, numNotEqual(a, b))
	case opF64Lt:
		b, a := stack.pop().F64(), stack.pop().F64()
		pushBool(stack, numLessThan(a, b))
	case opF64Gt:
		b, a := stack.pop().F64(), stack.pop().F64()
		pushBool(stack, numGreaterThan(a, b))
	case opF64Le:
		b, a := stack.pop().F64(), stack.pop().F64()
		pushBool(stack, numLessOrEqual(a, b))
	case opF64Ge:
		b, a := stack.pop().F64(), stack.pop().F64()
		pushBool(stack, numGreaterOrEq(a, b))

	case opI32Clz:
		stack.push(I32Value(clz32(stack.pop().I32())))
	case opI32Ctz:
		stack.push(I32Value(ctz32(stack.pop().I32())))
	case opI32Popcnt:
		stack.push(I32Value(popcnt32(stack.pop().I32())))
	case opI32Add:
		b, a := stack.pop().I32(), stack.pop().I32()
		stack.push(I32Value(add(a, b)))
	case opI32Sub:
		b, a := stack.pop().I32(), stack.pop().I32()
		stack.push(I32Value(sub(a, b)))
	case opI32Mul:
		b, a := stack.pop().I32(), stack.pop().I32()
		stack.push(I32Value(mul(a, b)))
	case opI32DivS:
		b, a := stack.pop().I32(), stack.pop().I32()
		v, err := divS32(a, b)
		if err != nil {
			return err
		}
		stack.push(I32Value(v))
	case opI32DivU:
		b, a := stack.pop().I32(), stack.pop().I32()
		v, err := divU32(a, b)
		if err != nil {
			return err
		}
		stack.push(I32Value(v))
	case opI32RemS:
		b, a := stack.pop().I32(), stack.pop().I32()
		v, err := remS32(a, b)
		if err != nil {
			return err
		}
		stack.push(I32Value(v))
	case opI32RemU:
		b, a := stack.pop().I32(), stack.pop().I32()
		v, err := remU32(a, b)
		if err != nil {
			return err
		}
		stack.push(I32Value(v))
	case opI32And:
		b, a := stack.pop().I32(), stack.pop().I32()
		stack.push(I32Value(and(a, b)))
	case opI32Or:
		b, a := stack.pop().I32(), stack.pop().I32()
		stack.push(I32Value(or(a, b)))
	case opI32Xor:
		b, a := stack.pop().I32(), stack.pop().I32()
		stack.push(I32Value(xor(a, b)))
	case opI32Shl:
		b, a := stack.pop().I32(), stack.pop().I32()
		stack.push(I32Value(shl32(a, b)))
	case opI32ShrS:
		b, a := stack.pop().I32(), stack.pop().I32()
		stack.push(I32Value(shrS32(a, b)))
	case opI32ShrU:
		b, a := stack.pop().I32(), stack.pop().I32()
		stack.push(I32Value(shrU32(a, b)))
	case opI32Rotl:
		b, a := stack.pop().I32(), stack.pop().I32()
		stack.push(I32Value(rotl32(a, b)))
	case opI32Rotr:
		b, a := stack.pop().I32(), stack.pop().I32()
		stack.push(I32Value(rotr32(a, b)))

	case opI64Clz:
		stack.push(I64Value(clz64(stack.pop().I64())))
	case opI64Ctz:
		stack.push(I64Value(ctz64(stack.pop().I64())))
	case opI64Popcnt:
		stack.push(I64Value(popcnt64(stack.pop().I64())))
	case opI64Add:
		b, a := stack.pop().I64(), stack.pop().I64()
		stack.push(I64Value(add(a, b)))
	case opI64Sub:
		b, a := stack.pop().I64(), stack.pop().I64()
		stack.push(I64Value(sub(a, b)))
	case opI64Mul:
		b, a := stack.pop().I64(), stack.pop().I64()
		stack.push(I64Value(mul(a, b)))
	case opI64DivS:
		b, a := stack.pop().I64(), stack.pop().I64()
		v, err := divS64(a, b)
		if err != nil {
			return err
		}
		stack.push(I64Value(v))
	case opI64DivU:
		b, a := stack.pop().I64(), stack.pop().I64()
		v, err := divU64(a, b)
		if err != nil {
			return err
		}
		stack.push(I64Value(v))
	case opI64RemS:
		b, a := stack.pop().I64(), stack.pop().I64()
		v, err := remS64(a, b)
		if err != nil {
			return err
		}
		stack.push(I64Value(v))
	case opI64RemU:
		b, a := stack.pop().I64(), stack.pop().I64()
		v, err := remU64(a, b)
		if err != nil {
			return err
		}
		stack.push(I64Value(v))
	case opI64And:
		b, a := stack.pop().I64(), stack.pop().I64()
		stack.push(I64Value(and(a, b)))
	case opI64Or:
		b, a := stack.pop().I64(), stack.pop().I64()
		stack.push(I64Value(or(a, b)))
	case opI64Xor:
		b, a := stack.pop().I64(), stack.pop().I64()
		stack.push(I64Value(xor(a, b)))
	case opI64Shl:
		b, a := stack.pop().I64(), stack.pop().I64()
		stack.push(I64Value(shl64(a, b)))
	case opI64ShrS:
		b, a := stack.pop().I64(), stack.pop().I64()
		stack.push(I64Value(shrS64(a, b)))
	case opI64ShrU:
		b, a := stack.pop().I64(), stack.pop().I64()
		stack.push(I64Value(shrU64(a, b)))
	case opI64Rotl:
		b, a := stack.pop().I64(), stack.pop().I64()
		stack.push(I64Value(rotl64(a, b)))
	case opI64Rotr:
		b, a := stack.pop().I64(), stack.pop().I64()
		stack.push(I64Value(rotr64(a, b)))

	case opF32Abs:
		stack.push(F32Value(absF32(stack.pop().F32())))
	case opF32Neg:
		stack.push(F32Value(negF32(stack.pop().F32())))
	case opF32Ceil:
		stack.push(F32Value(ceilF32(stack.pop().F32())))
	case opF32Floor:
		stack.push(F32Value(floorF32(stack.pop().F32())))
	case opF32Trunc:
		stack.push(F32Value(truncF32(stack.pop().F32())))
	case opF32Nearest:
		stack.push(F32Value(nearestF32(stack.pop().F32())))
	case opF32Sqrt:
		stack.push(F32Value(sqrtF32(stack.pop().F32())))
	case opF32Add:
		b, a := stack.pop().F32(), stack.pop().F32()
		stack.push(F32Value(add(a, b)))
	case opF32Sub:
		b, a := stack.pop().F32(), stack.pop().F32()
		stack.push(F32Value(sub(a, b)))
	case opF32Mul:
		b, a := stack.pop().F32(), stack.pop().F32()
		stack.push(F32Value(mul(a, b)))
	case opF32Div:
		b, a := stack.pop().F32(), stack.pop().F32()
		stack.push(F32Value(a / b))
	case opF32Min:
		b, a := stack.pop().F32(), stack.pop().F32()
		stack.push(F32Value(minF32(a, b)))
	case opF32Max:
		b, a := stack.pop().F32(), stack.pop().F32()
		stack.push(F32Value(maxF32(a, b)))
	case opF32Copysign:
		b, a := stack.pop().F32(), stack.pop().F32()
		stack.push(F32Value(copysignF32(a, b)))

	case opF64Abs:
		stack.push(F64Value(absF64(stack.pop().F64())))
	case opF64Neg:
		stack.push(F64Value(negF64(stack.pop().F64())))
	case opF64Ceil:
		stack.push(F64Value(ceilF64(stack.pop().F64())))
	case opF64Floor:
		stack.push(F64Value(floorF64(stack.pop().F64())))
	case opF64Trunc:
		stack.push(F64Value(truncF64(stack.pop().F64())))
	case opF64Nearest:
		stack.push(F64Value(nearestF64(stack.pop().F64())))
	case opF64Sqrt:
		stack.push(F64Value(sqrtF64(stack.pop().F64())))
	case opF64Add:
		b, a := stack.pop().F64(), stack.pop().F64()
		stack.push(F64Value(add(a, b)))
	case opF64Sub:
		b, a := stack.pop().F64(), stack.pop().F64()
		stack.push(F64Value(sub(a, b)))
	case opF64Mul:
		b, a := stack.pop().F64(), stack.pop().F64()
		stack.push(F64Value(mul(a, b)))
	case opF64Div:
		b, a := stack.pop().F64(), stack.pop().F64()
		stack.push(F64Value(a / b))
	case opF64Min:
		b, a := stack.pop().F64(), stack.pop().F64()
		stack.push(F64Value(minF64(a, b)))
	case opF64Max:
		b, a := stack.pop().F64(), stack.pop().F64()
		stack.push(F64Value(maxF64(a, b)))
	case opF64Copysign:
		b, a := stack.pop().F64(), stack.pop().F64()
		stack.push(F64Value(copysignF64(a, b)))

	case opI32WrapI64:
		stack.push(I32Value(wrapI64ToI32(stack.pop().I64())))
	case opI32TruncF32S:
		v, err := truncF32SToI32(stack.pop().F32())
		if err != nil {
			return err
		}
		stack.push(I32Value(v))
	case opI32TruncF32U:
		v, err := truncF32UToI32(stack.pop().F32())
		if err != nil {
			return err
		}
		stack.push(I32Value(v))
	case opI32TruncF64S:
		v, err := truncF64SToI32(stack.pop().F64())
		if err != nil {
			return err
		}
		stack.push(I32Value(v))
	case opI32TruncF64U:
		v, err := truncF64UToI32(stack.pop().F64())
		if err != nil {
			return err
		}
		stack.push(I32Value(v))
	case opI64ExtendI32S:
		stack.push(I64Value(extendI32SToI64(stack.pop().I32())))
	case opI64ExtendI32U:
		stack.push(I64Value(extendI32UToI64(stack.pop().I32())))
	case opI64TruncF32S:
		v, err := truncF32SToI64(stack.pop().F32())
		if err != nil {
			return err
		}
		stack.push(I64Value(v))
	case opI64TruncF32U:
		v, err := truncF32UToI64(stack.pop().F32())
		if err != nil {
			return err
		}
		stack.push(I64Value(v))
	case opI64TruncF64S:
		v, err := truncF64SToI64(stack.pop().F64())
		if err != nil {
			return err
		}
		stack.push(I64Value(v))
	case opI64TruncF64U:
		v, err := truncF64UToI64(stack.pop().F64())
		if err != nil {
			return err
		}
		stack.push(I64Value(v))
	case opF32ConvertI32S:
		stack.push(F32Value(convertI32SToF32(stack.pop().I32())))
	case opF32ConvertI32U:
		stack.push(F32Value(convertI32UToF32(stack.pop().I32())))
	case opF32ConvertI64S:
		stack.push(F32Value(convertI64SToF32(stack.pop().I64())))
	case opF32ConvertI64U:
		stack.push(F32Value(convertI64UToF32(stack.pop().I64())))
	case opF32DemoteF64:
		stack.push(F32Value(demoteF64ToF32(stack.pop().F64())))
	case opF64ConvertI32S:
		stack.push(F64Value(convertI32SToF64(stack.pop().I32())))
	case opF64ConvertI32U:
		stack.push(F64Value(convertI32UToF64(stack.pop().I32())))
	case opF64ConvertI64S:
		stack.push(F64Value(convertI64SToF64(stack.pop().I64())))
	case opF64ConvertI64U:
		stack.push(F64Value(convertI64UToF64(stack.pop().I64())))
	case opF64PromoteF32:
		stack.push(F64Value(promoteF32ToF64(stack.pop().F32())))
	case opI32ReinterpretF32:
		stack.push(I32Value(reinterpretF32ToI32(stack.pop().F32())))
	case opI64ReinterpretF64:
		stack.push(I64Value(reinterpretF64ToI64(stack.pop().F64())))
	case opF32ReinterpretI32:
		stack.push(F32Value(reinterpretI32ToF32(stack.pop().I32())))
	case opF64ReinterpretI64:
		stack.push(F64Value(reinterpretI64ToF64(stack.pop().I64())))

	case opI32Extend8S:
		stack.push(I32Value(extend8SToI32(stack.pop().I32())))
	case opI32Extend16S:
		stack.push(I32Value(extend16SToI32(stack.pop().I32())))
	case opI64Extend8S:
		stack.push(I64Value(extend8SToI64(stack.pop().I64())))
	case opI64Extend16S:
		stack.push(I64Value(extend16SToI64(stack.pop().I64())))
	case opI64Extend32S:
		stack.push(I64Value(extend32SToI64(stack.pop().I64())))

	case opRefNull:
		stack.push(defaultValue(ValueType(ins.Operands[0])))
	case opRefIsNull:
		pushBool(stack, stack.pop().IsNull())
	case opRefFunc:
		stack.push(FuncRefValue(int32(ins.Operands[0])))

	case opI32TruncSatF32S:
		stack.push(I32Value(truncSatF32SToI32(stack.pop().F32())))
	case opI32TruncSatF32U:
		stack.push(I32Value(truncSatF32UToI32(stack.pop().F32())))
	case opI32TruncSatF64S:
		stack.push(I32Value(truncSatF64SToI32(stack.pop().F64())))
	case opI32TruncSatF64U:
		stack.push(I32Value(truncSatF64UToI32(stack.pop().F64())))
	case opI64TruncSatF32S:
		stack.push(I64Value(truncSatF32SToI64(stack.pop().F32())))
	case opI64TruncSatF32U:
		stack.push(I64Value(truncSatF32UToI64(stack.pop().F32())))
	case opI64TruncSatF64S:
		stack.push(I64Value(truncSatF64SToI64(stack.pop().F64())))
	case opI64TruncSatF64U:
		stack.push(I64Value(truncSatF64UToI64(stack.pop().F64())))

	case opMemoryInit:
		size := uint32(stack.pop().I32())
		src := uint32(stack.pop().I32())
		dst := uint32(stack.pop().I32())
		return mem.InitPassiveSegment(uint32(ins.Operands[0]), dst, src, size)
	case opDataDrop:
		mem.Drop(uint32(ins.Operands[0]))
	case opMemoryCopy:
		size := uint32(stack.pop().I32())
		src := uint32(stack.pop().I32())
		dst := uint32(stack.pop().I32())
		return mem.Copy(dst, src, size)
	case opMemoryFill:
		size := uint32(stack.pop().I32())
		val := byte(stack.pop().I32())
		dst := uint32(stack.pop().I32())
		return mem.Fill(dst, size, val)

	case opTableInit:
		elem := frame.Instance.Element(int32(ins.Operands[0]))
		table := frame.Instance.Table(int32(ins.Operands[1]))
		size := stack.pop().I32()
		src := stack.pop().I32()
		dst := stack.pop().I32()
		if elem.dropped {
			return newTrap(TrapOutOfBoundsTableAccess)
		}
		refs, err := elem.refs(frame.Instance)
		if err != nil {
			return err
		}
		return table.InitRefs(dst, src, size, refs)
	case opElemDrop:
		frame.Instance.Element(int32(ins.Operands[0])).drop()
	case opTableCopy:
		dstTable := frame.Instance.Table(int32(ins.Operands[0]))
		srcTable := frame.Instance.Table(int32(ins.Operands[1]))
		n := stack.pop().I32()
		src := stack.pop().I32()
		dst := stack.pop().I32()
		return srcTable.Copy(dstTable, dst, src, n)
	case opTableGrow:
		table := frame.Instance.Table(int32(ins.Operands[0]))
		n := stack.pop().I32()
		val := stack.pop()
		stack.push(I32Value(table.Grow(n, val)))
	case opTableSize:
		table := frame.Instance.Table(int32(ins.Operands[0]))
		stack.push(I32Value(table.Size()))
	case opTableFill:
		table := frame.Instance.Table(int32(ins.Operands[0]))
		n := stack.pop().I32()
		val := stack.pop()
		idx := stack.pop().I32()
		return table.Fill(idx, n, val)

	default:
		return errNilDispatchSlot
	}
	return nil
}
