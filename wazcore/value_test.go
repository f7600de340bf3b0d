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

import "testing"

func TestValueRoundTripsPerType(t *testing.T) {
	if v := I32Value(-42); v.I32() != -42 {
		t.Fatalf("I32Value(-42).I32() = %d", v.I32())
	}
	if v := I64Value(-1); v.I64() != -1 {
		t.Fatalf("I64Value(-1).I64() = %d", v.I64())
	}
	if v := F32Value(3.5); v.F32() != 3.5 {
		t.Fatalf("F32Value(3.5).F32() = %v", v.F32())
	}
	if v := F64Value(3.5); v.F64() != 3.5 {
		t.Fatalf("F64Value(3.5).F64() = %v", v.F64())
	}
}

func TestNullFuncRefIsNullAndHasNegativeIndex(t *testing.T) {
	if !NullFuncRef.IsNull() {
		t.Fatal("NullFuncRef.IsNull() = false")
	}
	if idx := NullFuncRef.RefIndex(); idx != -1 {
		t.Fatalf("NullFuncRef.RefIndex() = %d, want -1", idx)
	}
}

func TestFuncRefValueOfNegativeIndexIsNull(t *testing.T) {
	if v := FuncRefValue(-1); !v.IsNull() {
		t.Fatal("FuncRefValue(-1) should be the canonical null")
	}
}

func TestNonNullFuncRefRoundTrips(t *testing.T) {
	v := FuncRefValue(7)
	if v.IsNull() {
		t.Fatal("FuncRefValue(7).IsNull() = true")
	}
	if idx := v.RefIndex(); idx != 7 {
		t.Fatalf("RefIndex() = %d, want 7", idx)
	}
}

func TestIsTrue(t *testing.T) {
	if I32Value(0).IsTrue() {
		t.Fatal("I32Value(0).IsTrue() = true")
	}
	if !I32Value(1).IsTrue() {
		t.Fatal("I32Value(1).IsTrue() = false")
	}
}

func TestDefaultValueForEachType(t *testing.T) {
	if v := defaultValue(I32); v.I32() != 0 {
		t.Fatalf("defaultValue(I32).I32() = %d", v.I32())
	}
	if v := defaultValue(FuncRefType); !v.IsNull() {
		t.Fatal("defaultValue(FuncRefType) should be null")
	}
}
