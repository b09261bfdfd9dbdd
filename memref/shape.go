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

package memref

import (
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Shape is the size of each dimension of a memref.
type Shape []Value

// NewShape returns a shape where all dimensions have a static size.
func NewShape(sizes ...int64) Shape {
	return Shape(Statics(sizes...))
}

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// IsStatic returns true if all the sizes are known statically.
func (s Shape) IsStatic() bool {
	for _, size := range s {
		if size.IsDynamic() {
			return false
		}
	}
	return true
}

// NumElements returns the number of elements in the memref.
// The number of elements is dynamic if a size is dynamic.
func (s Shape) NumElements() Value {
	n := Static(1)
	for _, size := range s {
		n = mulSizes(n, size)
	}
	return n
}

func (s Shape) check() {
	for i, size := range s {
		v, ok := size.Int()
		if ok && v < 0 {
			exceptions.Panicf("dimension %d of shape %s has a negative size", i, s)
		}
	}
}

// String returns the sizes separated by x, for example 2x?x4.
func (s Shape) String() string {
	ss := make([]string, len(s))
	for i, size := range s {
		ss[i] = size.String()
	}
	return strings.Join(ss, "x")
}

func parseSize(s string) (Value, bool) {
	if s == "?" {
		return Dynamic(), true
	}
	if s == "" || s[0] < '0' || s[0] > '9' {
		return Value{}, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Value{}, false
	}
	return Static(v), true
}

// ParseShape parses sizes separated by x. A dynamic size is written ?.
func ParseShape(s string) (Shape, error) {
	if s == "" {
		return Shape{}, nil
	}
	parts := strings.Split(s, "x")
	shape := make(Shape, len(parts))
	for i, part := range parts {
		size, ok := parseSize(strings.TrimSpace(part))
		if !ok {
			return nil, errors.Errorf("invalid size %q in shape %q", part, s)
		}
		shape[i] = size
	}
	return shape, nil
}
