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

//go:build unix

package wasihost

import "golang.org/x/sys/unix"

// mmapReserve reserves n bytes of anonymous, zero-filled virtual memory.
// The kernel commits physical pages lazily as they are touched, so
// reserving the full declared maximum of a linear memory costs address
// space, not RAM, until the module actually grows into it.
func mmapReserve(n int) ([]byte, func() error, error) {
	if n == 0 {
		n = 1
	}
	data, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
