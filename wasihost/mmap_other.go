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

//go:build !unix

package wasihost

// mmapReserve has no cheaper reservation strategy outside unix; the
// caller falls back to a plain heap allocation.
func mmapReserve(n int) ([]byte, func() error, error) {
	return nil, nil, errUnsupported
}

type unsupportedError struct{}

func (unsupportedError) Error() string { return "wasihost: mmap reservation unsupported on this platform" }

var errUnsupported = unsupportedError{}
