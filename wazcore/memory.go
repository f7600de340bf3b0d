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

	"github.com/wazcore/wazcore/wasihost"
)

const (
	pageSize = 65536
	maxPages = uint32(1 << 15)
)

// Memory is a contiguous byte buffer organised in 64 KiB pages. Its
// backing storage reserves the declared maximum up front via wasihost, so
// Grow never has to copy already-committed pages.
type Memory struct {
	Limits Limits
	buf    *wasihost.Buffer

	// dataSegments backs InitPassiveSegment/Drop; a dropped segment keeps
	// its slot and is marked in dropped, so a second drop is a no-op
	// rather than an index error.
	dataSegments [][]byte
	dropped      []bool
}

// NewMemory allocates a Memory sized to its minimum page count, reserving
// storage up to its maximum (or the implicit ceiling of maxPages).
func NewMemory(t MemoryType) *Memory {
	limit := maxPages
	if t.Limits.Max != nil {
		limit = *t.Limits.Max
	}
	buf := wasihost.NewBuffer(int(t.Limits.Min)*pageSize, int(limit)*pageSize)
	return &Memory{Limits: t.Limits, buf: buf}
}

func (m *Memory) setDataSegments(segments [][]byte) {
	m.dataSegments = segments
	m.dropped = make([]bool, len(segments))
}

// Size returns the current size in pages.
func (m *Memory) Size() int32 { return int32(len(m.buf.Bytes()) / pageSize) }

func (m *Memory) bytesSize() uint64 { return uint64(len(m.buf.Bytes())) }

// Grow extends the memory by delta pages, returning the previous page
// count, or -1 if the growth would exceed the memory's limit.
func (m *Memory) Grow(delta int32) int32 {
	if delta < 0 {
		return -1
	}
	current := m.Size()
	limit := maxPages
	if m.Limits.Max != nil {
		limit = *m.Limits.Max
	}
	if uint64(current)+uint64(delta) > uint64(limit) {
		return -1
	}
	if !m.buf.Grow(int(uint64(current)+uint64(delta)) * pageSize) {
		return -1
	}
	return current
}

func (m *Memory) checkBounds(offset uint64, size uint64) error {
	if offset+size > m.bytesSize() {
		return newTrap(TrapOutOfBoundsMemoryAccess)
	}
	return nil
}

func effectiveAddress(staticOffset uint64, dynamicAddr int32) uint64 {
	return staticOffset + uint64(uint32(dynamicAddr))
}

// LoadByte / LoadUint16 / LoadUint32 / LoadUint64 read little-endian
// unsigned integers; the interpreter sign- or zero-extends to the stack
// cell width per opcode.
func (m *Memory) LoadByte(addr uint64) (byte, error) {
	if err := m.checkBounds(addr, 1); err != nil {
		return 0, err
	}
	return m.buf.Bytes()[addr], nil
}

func (m *Memory) LoadUint16(addr uint64) (uint16, error) {
	if err := m.checkBounds(addr, 2); err != nil {
		return 0, err
	}
	data := m.buf.Bytes()
	return uint16(data[addr]) | uint16(data[addr+1])<<8, nil
}

func (m *Memory) LoadUint32(addr uint64) (uint32, error) {
	if err := m.checkBounds(addr, 4); err != nil {
		return 0, err
	}
	b := m.buf.Bytes()[addr : addr+4]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

func (m *Memory) LoadUint64(addr uint64) (uint64, error) {
	if err := m.checkBounds(addr, 8); err != nil {
		return 0, err
	}
	b := m.buf.Bytes()[addr : addr+8]
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

func (m *Memory) LoadFloat32(addr uint64) (float32, error) {
	bits, err := m.LoadUint32(addr)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

func (m *Memory) LoadFloat64(addr uint64) (float64, error) {
	bits, err := m.LoadUint64(addr)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func (m *Memory) StoreByte(addr uint64, v byte) error {
	if err := m.checkBounds(addr, 1); err != nil {
		return err
	}
	m.buf.Bytes()[addr] = v
	return nil
}

func (m *Memory) StoreUint16(addr uint64, v uint16) error {
	if err := m.checkBounds(addr, 2); err != nil {
		return err
	}
	data := m.buf.Bytes()
	data[addr] = byte(v)
	data[addr+1] = byte(v >> 8)
	return nil
}

func (m *Memory) StoreUint32(addr uint64, v uint32) error {
	if err := m.checkBounds(addr, 4); err != nil {
		return err
	}
	b := m.buf.Bytes()[addr : addr+4]
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	return nil
}

func (m *Memory) StoreUint64(addr uint64, v uint64) error {
	if err := m.checkBounds(addr, 8); err != nil {
		return err
	}
	b := m.buf.Bytes()[addr : addr+8]
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
	return nil
}

func (m *Memory) StoreFloat32(addr uint64, v float32) error {
	return m.StoreUint32(addr, math.Float32bits(v))
}

func (m *Memory) StoreFloat64(addr uint64, v float64) error {
	return m.StoreUint64(addr, math.Float64bits(v))
}

// Read copies out length bytes starting at offset, for embedder inspection
// (e.g. a REPL's memory dump command); it never aliases the underlying
// buffer.
func (m *Memory) Read(offset, length uint32) ([]byte, error) {
	if err := m.checkBounds(uint64(offset), uint64(length)); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, m.buf.Bytes()[offset:uint64(offset)+uint64(length)])
	return out, nil
}

// Fill writes val to n bytes starting at offset.
func (m *Memory) Fill(offset, n uint32, val byte) error {
	if err := m.checkBounds(uint64(offset), uint64(n)); err != nil {
		return err
	}
	region := m.buf.Bytes()[offset : uint64(offset)+uint64(n)]
	for i := range region {
		region[i] = val
	}
	return nil
}

// Copy copies n bytes from srcOffset to dstOffset within the same memory,
// choosing a direction that is safe under overlap.
func (m *Memory) Copy(dstOffset, srcOffset, n uint32) error {
	if err := m.checkBounds(uint64(srcOffset), uint64(n)); err != nil {
		return err
	}
	if err := m.checkBounds(uint64(dstOffset), uint64(n)); err != nil {
		return err
	}
	data := m.buf.Bytes()
	copy(data[dstOffset:uint64(dstOffset)+uint64(n)], data[srcOffset:uint64(srcOffset)+uint64(n)])
	return nil
}

// InitPassiveSegment copies size bytes from segment segId (at srcOffset)
// into memory at dst.
func (m *Memory) InitPassiveSegment(segId uint32, dst, srcOffset, size uint32) error {
	if int(segId) >= len(m.dataSegments) || m.dropped[segId] {
		return newTrap(TrapOutOfBoundsMemoryAccess)
	}
	content := m.dataSegments[segId]
	if uint64(srcOffset)+uint64(size) > uint64(len(content)) {
		return newTrap(TrapOutOfBoundsMemoryAccess)
	}
	if err := m.checkBounds(uint64(dst), uint64(size)); err != nil {
		return err
	}
	copy(m.buf.Bytes()[dst:uint64(dst)+uint64(size)], content[srcOffset:uint64(srcOffset)+uint64(size)])
	return nil
}

// Drop marks a passive data segment unavailable for further init calls.
func (m *Memory) Drop(segId uint32) {
	if int(segId) < len(m.dropped) {
		m.dropped[segId] = true
	}
}
