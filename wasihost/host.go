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

// Package wasihost provides host-platform-backed allocation for linear
// memory. On platforms with anonymous mmap, a Buffer reserves its full
// declared maximum up front as lazily committed virtual address space, so Grow
// never has to copy previously-committed pages the way append-growing a
// Go slice would once its capacity is exceeded.
package wasihost

// Buffer is a page-growable byte buffer sized to a declared maximum at
// construction time. Bytes returns the committed prefix; Grow extends it
// without moving already-committed bytes, up to the reserved maximum.
type Buffer struct {
	reserved []byte
	length   int
	release  func() error
}

// NewBuffer reserves maxLen bytes of backing storage and commits the
// first initialLen bytes. If the host platform offers no cheaper
// reservation strategy, or the reservation fails, it falls back to a
// plain heap allocation of maxLen bytes.
func NewBuffer(initialLen, maxLen int) *Buffer {
	if maxLen < initialLen {
		maxLen = initialLen
	}
	reserved, release, err := mmapReserve(maxLen)
	if err != nil {
		reserved = make([]byte, maxLen)
		release = func() error { return nil }
	}
	return &Buffer{reserved: reserved, length: initialLen, release: release}
}

// Bytes returns the committed portion of the buffer. The returned slice
// aliases the buffer's backing storage; callers that need an independent
// copy must copy it themselves.
func (b *Buffer) Bytes() []byte {
	return b.reserved[:b.length]
}

// Grow extends the committed length to newLen, reporting whether the
// reservation was large enough to satisfy it. It never reallocates.
func (b *Buffer) Grow(newLen int) bool {
	if newLen > len(b.reserved) {
		return false
	}
	if newLen > b.length {
		clear(b.reserved[b.length:newLen])
	}
	b.length = newLen
	return true
}

// Close releases the underlying reservation. A Buffer whose backing came
// from the heap fallback treats Close as a no-op.
func (b *Buffer) Close() error {
	if b.release == nil {
		return nil
	}
	return b.release()
}
