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

package memref_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/memlayout/memref"
)

func TestValue(t *testing.T) {
	tests := []struct {
		val       memref.Value
		isDynamic bool
		str       string
	}{
		{val: memref.Static(0), str: "0"},
		{val: memref.Static(-1), str: "-1"},
		{val: memref.Static(42), str: "42"},
		{val: memref.Dynamic(), isDynamic: true, str: "?"},
		{val: memref.Value{}, isDynamic: true, str: "?"},
	}
	for i, test := range tests {
		if got := test.val.IsDynamic(); got != test.isDynamic {
			t.Errorf("test %d: got IsDynamic()=%v but want %v", i, got, test.isDynamic)
		}
		if got := test.val.String(); got != test.str {
			t.Errorf("test %d: incorrect string: got %s but want %s", i, got, test.str)
		}
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		x, y memref.Value
		want bool
	}{
		{x: memref.Static(3), y: memref.Static(3), want: true},
		{x: memref.Static(3), y: memref.Static(4), want: false},
		{x: memref.Dynamic(), y: memref.Dynamic(), want: true},
		{x: memref.Static(0), y: memref.Dynamic(), want: false},
		{x: memref.Static(-1), y: memref.Dynamic(), want: false},
	}
	for i, test := range tests {
		if got := test.x.Equal(test.y); got != test.want {
			t.Errorf("test %d: %s.Equal(%s): got %v but want %v", i, test.x, test.y, got, test.want)
		}
		if got := cmp.Equal(test.x, test.y); got != test.want {
			t.Errorf("test %d: cmp.Equal(%s, %s): got %v but want %v", i, test.x, test.y, got, test.want)
		}
	}
}

func TestShape(t *testing.T) {
	tests := []struct {
		src         string
		want        memref.Shape
		numElements memref.Value
	}{
		{
			src:         "2x3x4",
			want:        memref.NewShape(2, 3, 4),
			numElements: memref.Static(24),
		},
		{
			src:         "2x?x4",
			want:        memref.Shape{memref.Static(2), memref.Dynamic(), memref.Static(4)},
			numElements: memref.Dynamic(),
		},
		{
			src:         "",
			want:        memref.Shape{},
			numElements: memref.Static(1),
		},
		{
			src:         "0x5",
			want:        memref.NewShape(0, 5),
			numElements: memref.Static(0),
		},
	}
	for i, test := range tests {
		got, err := memref.ParseShape(test.src)
		if err != nil {
			t.Errorf("test %d: cannot parse shape %q: %v", i, test.src, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("test %d: incorrect shape (-want +got):\n%s", i, diff)
		}
		if got.String() != test.src {
			t.Errorf("test %d: incorrect string: got %q but want %q", i, got.String(), test.src)
		}
		if n := got.NumElements(); !n.Equal(test.numElements) {
			t.Errorf("test %d: incorrect number of elements: got %s but want %s", i, n, test.numElements)
		}
	}
}

func TestParseShapeErrors(t *testing.T) {
	for i, src := range []string{"2xx3", "2x-1", "ax3", "2x3x"} {
		if _, err := memref.ParseShape(src); err == nil {
			t.Errorf("test %d: expected an error parsing shape %q", i, src)
		}
	}
}
