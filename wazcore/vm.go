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

// VM is the shared execution engine behind every ModuleInstance produced by
// a single Runtime: its Config (fuel budget, call depth limit, logger) is
// fixed at construction and every call() is independent, so a *VM is safe
// to use for concurrent calls into different instances.
type VM struct {
	config Config
}

func newVM(cfg Config) *VM {
	if cfg.MaxCallStackDepth <= 0 {
		cfg.MaxCallStackDepth = 1000
	}
	if cfg.CallStackPreallocationSize <= 0 {
		cfg.CallStackPreallocationSize = 1000
	}
	return &VM{config: cfg}
}

// call is the single entry point every exported invocation, host callback,
// and REPL command funnels through: validate the argument types against the
// callee's declared signature, run to completion (or to the first trap),
// and optionally pop the results back to the caller.
func (vm *VM) call(inst *ModuleInstance, funcID int32, args []Value, popResults bool) (results []Value, err error) {
	fn := inst.Function(funcID)
	if fn == nil {
		return nil, fatalf("no function at index %d", funcID)
	}
	params := fn.FuncType().Params
	if len(args) != len(params) {
		return nil, fatalf("function %d expects %d arguments, got %d", funcID, len(params), len(args))
	}
	for i, p := range params {
		if args[i].Type != p {
			return nil, errValueTypeMismatch
		}
	}

	logger := vm.config.logger()
	logger.Debug("call", zap.Int32("funcID", funcID), zap.Int("argCount", len(args)))

	defer func() {
		if r := recover(); r != nil {
			err = fatalf("panic during call to function %d: %v", funcID, r)
		}
	}()

	if host, ok := fn.(*HostFunc); ok {
		results, err = invokeHostDirect(inst, funcID, host, args)
		return results, err
	}

	wasmFn, ok := fn.(*WasmFunction)
	if !ok {
		return nil, fatalf("unknown function kind for function %d", funcID)
	}

	stack := newValueStack(vm.config.CallStackPreallocationSize)
	callStack := make([]*StackFrame, 0, 16)
	frame := NewStackFrame(wasmFn.Instructions, inst, funcID, args, wasmFn.LocalTypes)
	frame.registerBlockEntry(stack, len(wasmFn.Type.Returns), true)
	callStack = append(callStack, frame)

	if runErr := vm.run(stack, &callStack); runErr != nil {
		logger.Debug("trap", zap.Int32("funcID", funcID), zap.Error(runErr))
		return nil, runErr
	}

	if popResults {
		results = stack.popN(len(wasmFn.Type.Returns))
	}
	return results, nil
}

// invokeHostDirect runs a host function called directly from call (as
// opposed to CALL/CALL_INDIRECT from inside a running frame, handled by
// invokeHost in call.go), recovering panics the same way.
func invokeHostDirect(inst *ModuleInstance, funcID int32, f *HostFunc, args []Value) (results []Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fatalf("panic in host function %d: %v", funcID, r)
		}
	}()
	return f.Fn(inst, args)
}

// run drives the interpreter loop: repeatedly dispatch the current frame's
// next instruction until the call stack empties (the outermost function
// returned) or a trap or fatal error propagates out.
func (vm *VM) run(stack *ValueStack, callStack *[]*StackFrame) error {
	fuel := vm.config.Fuel
	for len(*callStack) > 0 {
		frame := (*callStack)[len(*callStack)-1]
		if frame.shouldReturn || frame.terminated() {
			*callStack = (*callStack)[:len(*callStack)-1]
			continue
		}

		if vm.config.EnableFuel {
			if fuel == 0 {
				return vm.annotateTrap(newTrap(TrapOutOfFuel), *callStack)
			}
			fuel--
		}

		ins := frame.loadCurrentInstruction()
		if err := vm.dispatch(stack, callStack, frame, ins); err != nil {
			return vm.annotateTrap(err, *callStack)
		}
	}
	return nil
}

// annotateTrap fills in a *Trap's stack trace from the live call stack at
// the moment the trap was raised, innermost frame first.
func (vm *VM) annotateTrap(err error, callStack []*StackFrame) error {
	trap, ok := isTrap(err)
	if !ok || trap.Trace != nil {
		return err
	}
	trace := make([]StackTraceEntry, len(callStack))
	for i := range callStack {
		f := callStack[len(callStack)-1-i]
		pc := f.pc
		if pc > 0 {
			pc--
		}
		trace[i] = StackTraceEntry{FuncID: f.FuncID, PC: pc}
	}
	trap.Trace = trace
	return trap
}
