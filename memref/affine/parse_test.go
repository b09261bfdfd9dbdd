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

package affine_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/memlayout/memref/affine"
)

func TestParseMap(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{
			src:  "(d0, d1) -> (d0, d1)",
			want: "(d0, d1) -> (d0, d1)",
		},
		{
			src:  "(i, j)[s] -> (16*s + 4*i + j)",
			want: "(d0, d1)[s0] -> (16 * s0 + 4 * d0 + d1)",
		},
		{
			src:  "(d0, d1) -> (d0 * 4 - d1 - 3)",
			want: "(d0, d1) -> (d0 * 4 - d1 - 3)",
		},
		{
			src:  "(d0) -> (-d0 * 2)",
			want: "(d0) -> (d0 * -1 * 2)",
		},
		{
			src:  "(d0, d1) -> ((d0 + d1) * 3)",
			want: "(d0, d1) -> ((d0 + d1) * 3)",
		},
		{
			src:  "(d0, d1) -> (d0 floordiv 4, d1 mod 2, d0 ceildiv 3)",
			want: "(d0, d1) -> (d0 floordiv 4, d1 mod 2, d0 ceildiv 3)",
		},
		{
			src:  "(d0)[s0, s1] -> (d0 * (s0 mod s1))",
			want: "(d0)[s0, s1] -> (d0 * (s0 mod s1))",
		},
		{
			src:  "()[s0] -> (s0)",
			want: "()[s0] -> (s0)",
		},
		{
			src:  "(d0) -> (d0 - (d0 + 1))",
			want: "(d0) -> (d0 - (d0 + 1))",
		},
		{
			src: `(d0,
				d1) -> (0x10 * d0 + d1)`,
			want: "(d0, d1) -> (16 * d0 + d1)",
		},
	}
	for i, test := range tests {
		m, err := affine.ParseMap(test.src)
		if err != nil {
			t.Errorf("test %d: cannot parse %q: %v", i, test.src, err)
			continue
		}
		got := m.String()
		if got != test.want {
			t.Errorf("test %d: incorrect map: got %s but want %s", i, got, test.want)
		}
		// Parsing the string representation gives the same map.
		m2, err := affine.ParseMap(got)
		if err != nil {
			t.Errorf("test %d: cannot parse %q: %v", i, got, err)
			continue
		}
		if m2.String() != got {
			t.Errorf("test %d: incorrect round trip: got %s but want %s", i, m2.String(), got)
		}
	}
}

func TestParseMapErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{
			src:  "(d0) -> (d1)",
			want: "affine_map:1:10: undefined identifier d1",
		},
		{
			src:  "(d0, d0) -> (d0)",
			want: "affine_map:1:6: d0 redeclared",
		},
		{
			src:  "(d0)[d0] -> (d0)",
			want: "affine_map:1:6: d0 redeclared",
		},
		{
			src:  "(d0) -> ()",
			want: "affine_map:1:10: affine map requires at least one result",
		},
		{
			src:  "(d0) -> (d0 mod 0)",
			want: "affine_map:1:13: mod by zero",
		},
		{
			src:  "(d0) -> (d0) extra",
			want: "affine_map:1:14: unexpected extra after affine map",
		},
		{
			src:  "(mod) -> (mod)",
			want: "affine_map:1:2: mod cannot be used as a dimension identifier",
		},
		{
			src:  "(d0) (d0)",
			want: "affine_map:1:6: expected - but got (",
		},
		{
			src:  "(d0) -> (d0 +)",
			want: "affine_map:1:14: expected an affine expression but got )",
		},
		{
			src:  "(d0) -> (99999999999999999999 * d0)",
			want: "affine_map:1:10: invalid integer constant 99999999999999999999",
		},
		{
			src:  "(d0,) -> (d0)",
			want: "affine_map:1:5: expected dimension identifier but got )",
		},
		{
			src:  "(d0)[s0,] -> (d0)",
			want: "affine_map:1:9: expected symbol identifier but got ]",
		},
	}
	for i, test := range tests {
		_, err := affine.ParseMap(test.src)
		if err == nil {
			t.Errorf("test %d: expected an error parsing %q", i, test.src)
			continue
		}
		if !strings.HasPrefix(err.Error(), test.want) {
			t.Errorf("test %d: incorrect error: got %q but want %q", i, err.Error(), test.want)
		}
	}
}

func TestIsIdentity(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{src: "(d0, d1, d2) -> (d0, d1, d2)", want: true},
		{src: "(d0) -> (d0)", want: true},
		{src: "(d0, d1) -> (d1, d0)", want: false},
		{src: "(d0, d1)[s0] -> (d0, d1)", want: false},
		{src: "(d0, d1) -> (d0 * 2 + d1)", want: false},
	}
	for i, test := range tests {
		m, err := affine.ParseMap(test.src)
		if err != nil {
			t.Fatalf("test %d: %v", i, err)
		}
		if got := m.IsIdentity(); got != test.want {
			t.Errorf("test %d: %s: got IsIdentity()=%v but want %v", i, m, got, test.want)
		}
	}
	if !affine.IdentityMap(4).IsIdentity() {
		t.Errorf("%s is not an identity map", affine.IdentityMap(4))
	}
}

func TestNewMapPanics(t *testing.T) {
	tests := []struct {
		numDims, numSymbols int
		result              affine.Expr
	}{
		{numDims: 1, result: affine.D(1)},
		{numDims: 1, numSymbols: 0, result: affine.S(0)},
		{numDims: 2, numSymbols: 1, result: affine.Sum(affine.D(0), affine.S(2))},
	}
	for i, test := range tests {
		func() {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("test %d: NewMap(%d, %d, %s) did not panic", i, test.numDims, test.numSymbols, test.result)
				}
			}()
			affine.NewMap(test.numDims, test.numSymbols, test.result)
		}()
	}
}

func TestExprString(t *testing.T) {
	tests := []struct {
		expr affine.Expr
		want string
	}{
		{expr: affine.C(-3), want: "-3"},
		{expr: affine.Sub(affine.D(0), affine.C(3)), want: "d0 - 3"},
		{expr: affine.Sub(affine.D(0), affine.S(1)), want: "d0 - s1"},
		{expr: affine.Prod(affine.Sum(affine.D(0), affine.D(1)), affine.C(2)), want: "(d0 + d1) * 2"},
		{expr: affine.Prod(affine.C(2), affine.Sum(affine.D(0), affine.D(1))), want: "2 * (d0 + d1)"},
		{expr: affine.Sum(affine.D(0), affine.Sum(affine.D(1), affine.D(2))), want: "d0 + (d1 + d2)"},
		{expr: affine.NewBinary(affine.Mod, affine.NewBinary(affine.FloorDiv, affine.D(0), affine.C(2)), affine.C(3)), want: "d0 floordiv 2 mod 3"},
		{expr: affine.NewBinary(affine.FloorDiv, affine.D(0), affine.NewBinary(affine.Mul, affine.S(0), affine.C(2))), want: "d0 floordiv (s0 * 2)"},
	}
	for i, test := range tests {
		if diff := cmp.Diff(test.want, test.expr.String()); diff != "" {
			t.Errorf("test %d: incorrect string representation (-want +got):\n%s", i, diff)
		}
	}
}

func TestHasDims(t *testing.T) {
	tests := []struct {
		expr affine.Expr
		want bool
	}{
		{expr: affine.C(4), want: false},
		{expr: affine.Sum(affine.S(0), affine.C(1)), want: false},
		{expr: affine.Prod(affine.S(0), affine.Sum(affine.C(1), affine.D(2))), want: true},
	}
	for i, test := range tests {
		if got := affine.HasDims(test.expr); got != test.want {
			t.Errorf("test %d: HasDims(%s): got %v but want %v", i, test.expr, got, test.want)
		}
	}
}
