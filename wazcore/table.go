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

// Table is a resizable, ordered sequence of references with a max limit.
// Mutation only happens via SetRef and growth via Grow.
type Table struct {
	Type     TableType
	elements []Value
}

// NewTable allocates a Table filled with the canonical null of its
// reference type, up to the type's minimum size.
func NewTable(t TableType) *Table {
	null := defaultValue(t.RefType)
	elements := make([]Value, t.Limits.Min)
	for i := range elements {
		elements[i] = null
	}
	return &Table{Type: t, elements: elements}
}

func (t *Table) Size() int32 { return int32(len(t.elements)) }

func (t *Table) checkBounds(index, n int32) error {
	if index < 0 || n < 0 || uint64(uint32(index))+uint64(uint32(n)) > uint64(len(t.elements)) {
		return newTrap(TrapOutOfBoundsTableAccess)
	}
	return nil
}

// Ref returns the element at index.
func (t *Table) Ref(index int32) (Value, error) {
	if err := t.checkBounds(index, 1); err != nil {
		return Value{}, err
	}
	return t.elements[index], nil
}

// SetRef installs v at index.
func (t *Table) SetRef(index int32, v Value) error {
	if err := t.checkBounds(index, 1); err != nil {
		return err
	}
	t.elements[index] = v
	return nil
}

// Grow appends n copies of val, returning the previous size, or -1 if the
// table's maximum would be exceeded.
func (t *Table) Grow(n int32, val Value) int32 {
	if n < 0 {
		return -1
	}
	previous := t.Size()
	if t.Type.Limits.Max != nil {
		if uint64(uint32(previous))+uint64(uint32(n)) > uint64(*t.Type.Limits.Max) {
			return -1
		}
	}
	for i := int32(0); i < n; i++ {
		t.elements = append(t.elements, val)
	}
	return previous
}

// Fill sets n elements starting at index to val.
func (t *Table) Fill(index, n int32, val Value) error {
	if err := t.checkBounds(index, n); err != nil {
		return err
	}
	for i := int32(0); i < n; i++ {
		t.elements[index+i] = val
	}
	return nil
}

// Copy copies n elements from src to dst[dstIndex:] out of t[srcIndex:].
// Go's builtin copy already handles overlap correctly regardless of the
// relative order of source and destination, so no explicit
// ascending/descending direction switch is required.
func (t *Table) Copy(dst *Table, dstIndex, srcIndex, n int32) error {
	if err := t.checkBounds(srcIndex, n); err != nil {
		return err
	}
	if err := dst.checkBounds(dstIndex, n); err != nil {
		return err
	}
	copy(dst.elements[dstIndex:int64(dstIndex)+int64(n)], t.elements[srcIndex:int64(srcIndex)+int64(n)])
	return nil
}

// InitRefs installs size ref Values computed elsewhere (constant
// expressions) into the table starting at dstOffset.
func (t *Table) InitRefs(dstOffset, srcOffset, size int32, refs []Value) error {
	if size < 0 || srcOffset < 0 ||
		uint64(uint32(srcOffset))+uint64(uint32(size)) > uint64(len(refs)) {
		return newTrap(TrapOutOfBoundsTableAccess)
	}
	if err := t.checkBounds(dstOffset, size); err != nil {
		return err
	}
	copy(t.elements[dstOffset:int64(dstOffset)+int64(size)], refs[srcOffset:int64(srcOffset)+int64(size)])
	return nil
}
