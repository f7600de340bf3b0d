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
	"testing"
)

func TestDivS32OverflowTraps(t *testing.T) {
	_, err := divS32(math.MinInt32, -1)
	trap, ok := isTrap(err)
	if !ok {
		t.Fatalf("expected a trap, got %v", err)
	}
	if trap.Kind != TrapIntegerOverflow {
		t.Fatalf("expected TrapIntegerOverflow, got %v", trap.Kind)
	}
}

func TestDivS32ByZeroTraps(t *testing.T) {
	_, err := divS32(1, 0)
	trap, ok := isTrap(err)
	if !ok || trap.Kind != TrapIntegerDivideByZero {
		t.Fatalf("expected TrapIntegerDivideByZero, got %v", err)
	}
}

func TestRemS32MinByMinusOneIsZeroNotOverflow(t *testing.T) {
	v, err := remS32(math.MinInt32, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0 {
		t.Fatalf("expected 0, got %d", v)
	}
}

func TestTruncF64SToI64NaNTraps(t *testing.T) {
	_, err := truncF64SToI64(math.NaN())
	trap, ok := isTrap(err)
	if !ok || trap.Kind != TrapInvalidConversionToInt {
		t.Fatalf("expected TrapInvalidConversionToInt, got %v", err)
	}
}

func TestTruncF64SToI64OverflowTraps(t *testing.T) {
	_, err := truncF64SToI64(1e20)
	trap, ok := isTrap(err)
	if !ok || trap.Kind != TrapIntegerOverflow {
		t.Fatalf("expected TrapIntegerOverflow, got %v", err)
	}
}

func TestTruncSatF64SToI64ClampsPathologicalInputs(t *testing.T) {
	cases := []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e20, -1e20}
	for _, c := range cases {
		v := truncSatF64SToI64(c)
		if math.IsNaN(c) && v != 0 {
			t.Errorf("truncSatF64SToI64(NaN) = %d, want 0", v)
		}
		if c == math.Inf(1) && v != math.MaxInt64 {
			t.Errorf("truncSatF64SToI64(+Inf) = %d, want MaxInt64", v)
		}
		if c == math.Inf(-1) && v != math.MinInt64 {
			t.Errorf("truncSatF64SToI64(-Inf) = %d, want MinInt64", v)
		}
	}
}

func TestNegF32FlipsSignBitOnNaN(t *testing.T) {
	nan := float32(math.NaN())
	got := math.Float32bits(negF32(nan))
	want := math.Float32bits(nan) ^ f32SignBit
	if got != want {
		t.Fatalf("negF32(NaN) bit pattern = %#x, want %#x", got, want)
	}
}

func TestCopysignF64PreservesNaNSign(t *testing.T) {
	nan := math.NaN()
	got := copysignF64(nan, -1)
	if math.Float64bits(got)&f64SignBit == 0 {
		t.Fatalf("copysignF64(NaN, -1) did not set the sign bit")
	}
}

func TestNearestF64RoundsHalfToEvenAndPreservesNegativeZero(t *testing.T) {
	if v := nearestF64(2.5); v != 2 {
		t.Errorf("nearestF64(2.5) = %v, want 2", v)
	}
	if v := nearestF64(3.5); v != 4 {
		t.Errorf("nearestF64(3.5) = %v, want 4", v)
	}
	got := nearestF64(-0.3)
	if got != 0 || math.Signbit(got) != true {
		t.Errorf("nearestF64(-0.3) = %v, want -0", got)
	}
}

func TestRotl32RoundTrip(t *testing.T) {
	v := int32(0x12345678)
	if got := rotr32(rotl32(v, 5), 5); got != v {
		t.Fatalf("rotr32(rotl32(v,5),5) = %#x, want %#x", got, v)
	}
}

func TestConvertI64UToF64PreservesMagnitudeAboveMaxInt64(t *testing.T) {
	var u uint64 = math.MaxUint64
	got := convertI64UToF64(int64(u))
	want := float64(u)
	if math.Abs(got-want) > want*1e-9 {
		t.Fatalf("convertI64UToF64(MaxUint64) = %v, want ~%v", got, want)
	}
}

func TestConvertI64UToF32RoundsToNearestEvenAboveMaxInt64(t *testing.T) {
	cases := []uint64{
		math.MaxUint64,
		1 << 63,
		1<<63 + 1,
		9223372586610589697,
	}
	for _, u := range cases {
		got := convertI64UToF32(int64(u))
		want := float32(u)
		if got != want {
			t.Errorf("convertI64UToF32(%d) = %v, want %v", u, got, want)
		}
	}
}

func TestSignExtend8To32(t *testing.T) {
	if got := signExtend8To32(0xFF); got != -1 {
		t.Fatalf("signExtend8To32(0xFF) = %d, want -1", got)
	}
	if got := zeroExtend8To32(0xFF); got != 255 {
		t.Fatalf("zeroExtend8To32(0xFF) = %d, want 255", got)
	}
}
