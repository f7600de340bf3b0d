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
)

// TrapKind names one of the canonical trap conditions the core can raise.
// Traps are catchable, VM-semantic errors: they unwind the current call but
// never corrupt the embedder's process.
type TrapKind string

const (
	TrapUnreachable               TrapKind = "unreachable"
	TrapIntegerDivideByZero       TrapKind = "integer divide by zero"
	TrapIntegerOverflow           TrapKind = "integer overflow"
	TrapInvalidConversionToInt    TrapKind = "invalid conversion to integer"
	TrapOutOfBoundsMemoryAccess   TrapKind = "out of bounds memory access"
	TrapOutOfBoundsTableAccess    TrapKind = "out of bounds table access"
	TrapUninitializedElement      TrapKind = "uninitialized element"
	TrapIndirectCallTypeMismatch  TrapKind = "indirect call type mismatch"
	TrapUndefinedElement          TrapKind = "undefined element"
	TrapMissingHostImport         TrapKind = "Missing host import"
	TrapOutOfFuel                 TrapKind = "out of fuel"
	TrapCallStackExhausted        TrapKind = "call stack exhausted"
)

// StackTraceEntry records one activation frame at the moment a trap
// unwound it, mirroring the frame list a debugger would present.
type StackTraceEntry struct {
	FuncID int32
	PC     int
}

// Trap is a VM-visible error that terminates execution of the current call.
// It is always returned as a normal Go error from call, never panicked past
// the call boundary.
type Trap struct {
	Kind  TrapKind
	Cause error
	Trace []StackTraceEntry
}

func (t *Trap) Error() string {
	if t.Cause != nil {
		return fmt.Sprintf("trap: %s: %v", t.Kind, t.Cause)
	}
	return fmt.Sprintf("trap: %s", t.Kind)
}

func (t *Trap) Unwrap() error { return t.Cause }

func newTrap(kind TrapKind) *Trap {
	return &Trap{Kind: kind}
}

func newTrapf(kind TrapKind, cause error) *Trap {
	return &Trap{Kind: kind, Cause: cause}
}

// isTrap reports whether err is (or wraps) a *Trap.
func isTrap(err error) (*Trap, bool) {
	var t *Trap
	if errors.As(err, &t) {
		return t, true
	}
	return nil, false
}

// Fatal errors below are invariant violations: they indicate a bug in the
// embedder or a malformed module that validation should have rejected, not
// a condition the WASM program itself can trigger or recover from. They are
// distinguished from *Trap by Go's own type system: a caller doing
// errors.As(err, &trap) simply will not match one of these.

var (
	errImmutableGlobalWrite = errors.New("attempted write to immutable global")
	errValueTypeMismatch    = errors.New("value type mismatch in argument extraction")
	errNilDispatchSlot      = errors.New("unreachable opcode in dispatch table")
)

func fatalf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
