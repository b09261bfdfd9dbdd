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

	"github.com/gomlx/exceptions"
	"github.com/gx-org/memlayout/internal/fmterr"
	"github.com/gx-org/memlayout/memref/affine"
	"github.com/pkg/errors"
)

type (
	// Result of the computation of the strided form of a layout.
	// A result is either *Strided or *NotStrided.
	Result interface {
		result()
		String() string
	}

	// Strided is the strided form of a layout.
	Strided struct {
		Offset  Value
		Strides []Value
	}

	// NotStrided is returned when a layout cannot be written in strided form.
	NotStrided struct {
		Reason string
	}
)

var (
	_ Result = (*Strided)(nil)
	_ Result = (*NotStrided)(nil)
)

func (*Strided) result()    {}
func (*NotStrided) result() {}

// Layout returns the strided form as a layout.
func (s *Strided) Layout() *StridedLayout {
	return &StridedLayout{Offset: s.Offset, Strides: append([]Value{}, s.Strides...)}
}

// Address returns the linear address of an element given its indices.
// Returns false if the offset or a stride is dynamic.
func (s *Strided) Address(indices []int64) (int64, bool) {
	if len(indices) != len(s.Strides) {
		exceptions.Panicf("got %d indices for a rank %d strided layout", len(indices), len(s.Strides))
	}
	addr, ok := s.Offset.Int()
	if !ok {
		return 0, false
	}
	for i, stride := range s.Strides {
		st, ok := stride.Int()
		if !ok {
			return 0, false
		}
		addr += indices[i] * st
	}
	return addr, true
}

// String representation of the strided form.
func (s *Strided) String() string {
	return fmt.Sprintf("offset: %s strides: %s", s.Offset, joinValues(s.Strides))
}

// String representation of the result.
func (n *NotStrided) String() string {
	return "not strided: " + n.Reason
}

// StridesAndOffset computes the strided form of a layout given the shape of a memref.
// A nil layout is the identity layout.
//
// It panics if the layout does not match the rank of the shape or if a size is negative.
// The computation does not modify its inputs and can be called concurrently.
func StridesAndOffset(shape Shape, layout Layout) Result {
	shape.check()
	switch layoutT := layout.(type) {
	case nil:
		return identityStrides(shape)
	case *IdentityLayout:
		return identityStrides(shape)
	case *MapLayout:
		return mapStrides(shape, layoutT.Map)
	case *StridedLayout:
		if len(layoutT.Strides) != shape.Rank() {
			exceptions.Panicf("strided layout %s has %d strides for a shape of rank %d", layoutT, len(layoutT.Strides), shape.Rank())
		}
		return &Strided{
			Offset:  layoutT.Offset,
			Strides: append([]Value{}, layoutT.Strides...),
		}
	}
	exceptions.Panicf("layout type %T not supported", layout)
	return nil
}

// identityStrides computes the strides of a row-major layout.
// The stride of a dimension is the product of the sizes of all the following dimensions.
func identityStrides(shape Shape) *Strided {
	strides := make([]Value, shape.Rank())
	running := Static(1)
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = running
		running = mulSizes(running, shape[i])
	}
	return &Strided{Offset: Static(0), Strides: strides}
}

func mapStrides(shape Shape, m *affine.Map) Result {
	if m == nil {
		exceptions.Panicf("map layout without an affine map")
	}
	if m.NumDims != shape.Rank() {
		exceptions.Panicf("affine map %s has %d dimensions for a shape of rank %d", m, m.NumDims, shape.Rank())
	}
	switch {
	case len(m.Results) == 0:
		exceptions.Panicf("affine map %s has no result", m)
	case m.IsIdentity():
		return identityStrides(shape)
	case len(m.Results) > 1:
		return &NotStrided{Reason: fmt.Sprintf("affine map %s has %d results", m, len(m.Results))}
	}
	lin, err := affine.Decompose(m.Results[0], m.NumDims)
	if errors.Is(err, affine.ErrNotAffine) {
		return &NotStrided{Reason: err.Error()}
	}
	if errors.Is(err, affine.ErrDivisionByZero) {
		exceptions.Panicf("malformed affine map %s: %v", m, err)
	}
	if err != nil {
		panic(fmterr.Internal(err))
	}
	strides := make([]Value, len(lin.Dims))
	for i, coeff := range lin.Dims {
		strides[i] = coeffValue(coeff)
	}
	return &Strided{Offset: coeffValue(lin.Offset), Strides: strides}
}

// coeffValue converts a coefficient to a value.
// Coefficients depending on symbols, or which do not fit in 64 bits, are dynamic.
func coeffValue(c affine.Coeff) Value {
	if c.Symbolic || !c.Val.IsInt64() {
		return Dynamic()
	}
	return Static(c.Val.Int64())
}
