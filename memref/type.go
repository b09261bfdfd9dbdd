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
	"fmt"
	"strings"

	"github.com/gx-org/memlayout/memref/affine"
)

type (
	// Layout specifies how the indices of a memref map to a linear address.
	// A nil layout is the identity layout.
	Layout interface {
		layout()
		String() string
	}

	// IdentityLayout is a row-major layout with a zero offset:
	// the last dimension varies the fastest.
	IdentityLayout struct{}

	// MapLayout is a layout specified by an affine map from the indices to the linear address.
	MapLayout struct {
		Map *affine.Map
	}

	// StridedLayout is a layout explicitly given in strided form.
	StridedLayout struct {
		Offset  Value
		Strides []Value
	}
)

var (
	_ Layout = (*IdentityLayout)(nil)
	_ Layout = (*MapLayout)(nil)
	_ Layout = (*StridedLayout)(nil)
)

func (*IdentityLayout) layout() {}
func (*MapLayout) layout()      {}
func (*StridedLayout) layout()  {}

// String returns an empty string: the identity layout is never printed.
func (*IdentityLayout) String() string {
	return ""
}

// String representation of the layout.
func (l *MapLayout) String() string {
	return fmt.Sprintf("affine_map<%s>", l.Map)
}

func joinValues(vs []Value) string {
	ss := make([]string, len(vs))
	for i, v := range vs {
		ss[i] = v.String()
	}
	return strings.Join(ss, ", ")
}

// String representation of the layout.
// The offset is omitted if it is statically zero.
func (l *StridedLayout) String() string {
	var s strings.Builder
	s.WriteString("strided<[")
	s.WriteString(joinValues(l.Strides))
	s.WriteString("]")
	if !l.Offset.Equal(Static(0)) {
		fmt.Fprintf(&s, ", offset: %s", l.Offset)
	}
	s.WriteString(">")
	return s.String()
}

// Type is a memref type: a shape, an element type, and a layout.
type Type struct {
	Shape       Shape
	ElementType string
	// Layout of the memref. A nil layout is the identity layout.
	Layout Layout
}

// NewType returns a new memref type.
func NewType(shape Shape, elementType string, layout Layout) *Type {
	return &Type{Shape: shape, ElementType: elementType, Layout: layout}
}

// Rank returns the number of dimensions of the memref.
func (t *Type) Rank() int {
	return t.Shape.Rank()
}

// StridesAndOffset returns the strided form of the memref layout.
func (t *Type) StridesAndOffset() Result {
	return StridesAndOffset(t.Shape, t.Layout)
}

// String representation of the memref type, for example
// memref<4x?xf32, affine_map<(d0, d1) -> (d0 + d1 * 4)>>.
func (t *Type) String() string {
	var s strings.Builder
	s.WriteString("memref<")
	for _, size := range t.Shape {
		s.WriteString(size.String())
		s.WriteString("x")
	}
	s.WriteString(t.ElementType)
	if t.Layout != nil {
		if layout := t.Layout.String(); layout != "" {
			s.WriteString(", ")
			s.WriteString(layout)
		}
	}
	s.WriteString(">")
	return s.String()
}
