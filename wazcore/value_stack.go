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

// ValueStack is the interpreter's operand stack: a LIFO of Values. It is
// private to a single call and never touched concurrently, so "atomic
// relative to the interpreter thread" (the original contract) reduces to
// plain sequential access here.
type ValueStack struct {
	data []Value
}

func newValueStack(prealloc int) *ValueStack {
	if prealloc <= 0 {
		prealloc = 512
	}
	return &ValueStack{data: make([]Value, 0, prealloc)}
}

func (s *ValueStack) push(v Value) { s.data = append(s.data, v) }

// pop removes and returns the top Value. Callers rely on prior validation
// (or, at minimum, well-typed WASM) to guarantee the stack is non-empty.
func (s *ValueStack) pop() Value {
	n := len(s.data) - 1
	v := s.data[n]
	s.data = s.data[:n]
	return v
}

func (s *ValueStack) peek() Value {
	return s.data[len(s.data)-1]
}

func (s *ValueStack) drop() {
	s.data = s.data[:len(s.data)-1]
}

func (s *ValueStack) size() int { return len(s.data) }

// popN pops n values and returns them bottom-first (original stack order).
func (s *ValueStack) popN(n int) []Value {
	newLen := len(s.data) - n
	values := make([]Value, n)
	copy(values, s.data[newLen:])
	s.data = s.data[:newLen]
	return values
}

// pushAll pushes values in the order given (bottom-first push order).
func (s *ValueStack) pushAll(values []Value) {
	s.data = append(s.data, values...)
}

// dropTo truncates the stack to the given height, discarding everything
// above it. Used by dropValuesOutOfBlock (frame.go).
func (s *ValueStack) dropTo(height int) {
	s.data = s.data[:height]
}
