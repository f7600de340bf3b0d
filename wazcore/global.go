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

// Global is a typed, optionally mutable cell.
type Global struct {
	Type  ValueType
	value Value

	mutable bool
}

func NewGlobal(t GlobalType, initial Value) *Global {
	return &Global{Type: t.ValueType, value: initial, mutable: t.Mutable}
}

func (g *Global) Get() Value { return g.value }

// Set writes v, rejecting the write if the global is immutable. Writing an
// immutable global is an invariant violation, not a trap: a validated
// module never emits global.set against an immutable index.
func (g *Global) Set(v Value) error {
	if !g.mutable {
		return errImmutableGlobalWrite
	}
	g.value = v
	return nil
}
