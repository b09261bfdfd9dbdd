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

// Package memref describes multi-dimensional memory references and computes
// their strided form.
//
// A memref is strided if the linear address of an element is
//
//	offset + index[0]*stride[0] + ... + index[n-1]*stride[n-1]
//
// where offset and strides are either fixed integers or dynamic values only known at run time.
package memref

import (
	"fmt"
	"math"
	"math/bits"
)

// Value is an integer known statically or a dynamic value only known at run time.
// The zero value is dynamic.
type Value struct {
	val    int64
	static bool
}

// Static returns a value known at compile time.
func Static(v int64) Value {
	return Value{val: v, static: true}
}

// Dynamic returns a value only known at run time.
func Dynamic() Value {
	return Value{}
}

// Statics returns a slice of static values.
func Statics(vs ...int64) []Value {
	r := make([]Value, len(vs))
	for i, v := range vs {
		r[i] = Static(v)
	}
	return r
}

// IsDynamic returns true if the value is only known at run time.
func (v Value) IsDynamic() bool {
	return !v.static
}

// Int returns the static value and true, or false if the value is dynamic.
func (v Value) Int() (int64, bool) {
	return v.val, v.static
}

// Equal returns true if both values are dynamic or if both values are static and equal.
func (v Value) Equal(o Value) bool {
	if v.static != o.static {
		return false
	}
	return !v.static || v.val == o.val
}

// String returns the value or ? if the value is dynamic.
func (v Value) String() string {
	if !v.static {
		return "?"
	}
	return fmt.Sprint(v.val)
}

// mulSizes multiplies two non-negative values.
// Any dynamic operand, or an overflow, gives a dynamic value.
func mulSizes(x, y Value) Value {
	if x.IsDynamic() || y.IsDynamic() {
		return Dynamic()
	}
	hi, lo := bits.Mul64(uint64(x.val), uint64(y.val))
	if hi != 0 || lo > math.MaxInt64 {
		return Dynamic()
	}
	return Static(int64(lo))
}
