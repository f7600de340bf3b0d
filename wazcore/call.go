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

import "go.uber.org/zap"

// popTypedArgs pops len(params) values in reverse and validates each
// popped Value's type tag against the expected parameter type. A mismatch
// is a fatal programming error: a validated module never emits this.
func popTypedArgs(stack *ValueStack, params []ValueType) ([]Value, error) {
	n := len(params)
	args := stack.popN(n)
	for i, p := range params {
		if args[i].Type != p {
			return nil, errValueTypeMismatch
		}
	}
	return args, nil
}

// invoke dispatches a resolved callee: a module function gets a fresh
// StackFrame pushed onto the call stack (the outer run loop then re-enters
// it), while a host function runs to completion immediately, wrapped in a
// placeholder frame for stack-trace fidelity.
func (vm *VM) invoke(stack *ValueStack, callStack *[]*StackFrame, inst *ModuleInstance, funcID int32, fn FunctionInstance, args []Value) error {
	if len(*callStack) >= vm.config.MaxCallStackDepth {
		return newTrap(TrapCallStackExhausted)
	}
	switch f := fn.(type) {
	case *HostFunc:
		return vm.invokeHost(stack, callStack, inst, funcID, f, args)
	case *WasmFunction:
		frame := NewStackFrame(f.Instructions, inst, funcID, args, f.LocalTypes)
		frame.registerBlockEntry(stack, len(f.Type.Returns), true)
		*callStack = append(*callStack, frame)
		return nil
	default:
		return fatalf("unknown function kind for function %d", funcID)
	}
}

func (vm *VM) invokeHost(stack *ValueStack, callStack *[]*StackFrame, inst *ModuleInstance, funcID int32, f *HostFunc, args []Value) (err error) {
	placeholder := &StackFrame{FuncID: funcID, Instance: inst}
	*callStack = append(*callStack, placeholder)
	vm.config.logger().Debug("host call", zap.Int32("funcID", funcID), zap.Int("argCount", len(args)))

	var results []Value
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fatalf("panic in host function %d: %v", funcID, r)
			}
		}()
		results, err = f.Fn(inst, args)
	}()

	*callStack = (*callStack)[:len(*callStack)-1]
	if err != nil {
		return err
	}
	stack.pushAll(results)
	return nil
}

// callDirect implements CALL: read funcId, resolve type, pop args, invoke.
func (vm *VM) callDirect(stack *ValueStack, callStack *[]*StackFrame, inst *ModuleInstance, funcID int32) error {
	fn := inst.Function(funcID)
	if fn == nil {
		return fatalf("no function at index %d", funcID)
	}
	args, err := popTypedArgs(stack, fn.FuncType().Params)
	if err != nil {
		return err
	}
	return vm.invoke(stack, callStack, inst, funcID, fn, args)
}

// callIndirect implements CALL_INDIRECT: resolve the expected type and
// table, pop the slot index, resolve the funcref, and dynamically check
// its type before invoking.
func (vm *VM) callIndirect(stack *ValueStack, callStack *[]*StackFrame, inst *ModuleInstance, expectedTypeID int32, tableIndex int32) error {
	table := inst.Table(tableIndex)
	if table == nil {
		return newTrap(TrapUndefinedElement)
	}
	slot := stack.pop().I32()
	ref, err := table.Ref(slot)
	if err != nil {
		return err
	}
	if ref.IsNull() {
		return newTrap(TrapUninitializedElement)
	}
	funcID := ref.RefIndex()
	fn := inst.Function(funcID)
	if fn == nil {
		return newTrap(TrapUndefinedElement)
	}
	expected := inst.Type(expectedTypeID)
	if !expected.typesMatch(fn.FuncType()) {
		return newTrap(TrapIndirectCallTypeMismatch)
	}
	args, err := popTypedArgs(stack, fn.FuncType().Params)
	if err != nil {
		return err
	}
	return vm.invoke(stack, callStack, inst, funcID, fn, args)
}
