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

	"github.com/gx-org/memlayout/memref/affine"
	"github.com/pkg/errors"
)

const (
	typePrefix    = "memref<"
	mapPrefix     = "affine_map<"
	stridedPrefix = "strided<"
)

// ParseType parses a memref type. For example:
//
//	memref<2x?x4xf32>
//	memref<4x4xf32, affine_map<(d0, d1)[s0] -> (s0 * 16 + d0 * 4 + d1)>>
//	memref<4x4xf32, strided<[4, 1], offset: ?>>
func ParseType(src string) (*Type, error) {
	s := strings.TrimSpace(src)
	if !strings.HasPrefix(s, typePrefix) || !strings.HasSuffix(s, ">") {
		return nil, errors.Errorf("%q is not a memref type", src)
	}
	body := s[len(typePrefix) : len(s)-1]
	shapeAndElt, layoutSrc, hasLayout := strings.Cut(body, ",")
	shape, elt, err := parseShapeAndElement(strings.TrimSpace(shapeAndElt))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid memref type %q", src)
	}
	t := &Type{Shape: shape, ElementType: elt}
	if !hasLayout {
		return t, nil
	}
	t.Layout, err = parseLayout(strings.TrimSpace(layoutSrc), shape.Rank())
	if err != nil {
		return nil, errors.Wrapf(err, "invalid layout in memref type %q", src)
	}
	return t, nil
}

// MustParseType parses a memref type and panics if an error occurs.
func MustParseType(src string) *Type {
	t, err := ParseType(src)
	if err != nil {
		panic(err)
	}
	return t
}

func parseShapeAndElement(s string) (Shape, string, error) {
	parts := strings.Split(s, "x")
	shape := Shape{}
	for len(parts) > 1 {
		size, ok := parseSize(parts[0])
		if !ok {
			break
		}
		shape = append(shape, size)
		parts = parts[1:]
	}
	elt := strings.Join(parts, "x")
	if elt == "" {
		return nil, "", errors.Errorf("missing element type")
	}
	if _, isSize := parseSize(elt); isSize {
		return nil, "", errors.Errorf("missing element type after size %s", elt)
	}
	return shape, elt, nil
}

func parseLayout(s string, rank int) (Layout, error) {
	switch {
	case strings.HasPrefix(s, mapPrefix) && strings.HasSuffix(s, ">"):
		m, err := affine.ParseMap(s[len(mapPrefix) : len(s)-1])
		if err != nil {
			return nil, err
		}
		if m.NumDims != rank {
			return nil, errors.Errorf("affine map %s has %d dimensions but the memref has rank %d", m, m.NumDims, rank)
		}
		return &MapLayout{Map: m}, nil
	case strings.HasPrefix(s, stridedPrefix) && strings.HasSuffix(s, ">"):
		layout, err := parseStrided(s[len(stridedPrefix) : len(s)-1])
		if err != nil {
			return nil, err
		}
		if len(layout.Strides) != rank {
			return nil, errors.Errorf("strided layout %s has %d strides but the memref has rank %d", layout, len(layout.Strides), rank)
		}
		return layout, nil
	}
	return nil, errors.Errorf("layout %q not supported", s)
}

func parseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "?" {
		return Dynamic(), nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Value{}, errors.Errorf("invalid value %q", s)
	}
	return Static(v), nil
}

// parseStrided parses [s0, s1, ...] optionally followed by , offset: o.
func parseStrided(s string) (*StridedLayout, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") {
		return nil, errors.Errorf("expected [ to start the list of strides in %q", s)
	}
	stridesSrc, rest, ok := strings.Cut(s[1:], "]")
	if !ok {
		return nil, errors.Errorf("missing ] to end the list of strides in %q", s)
	}
	layout := &StridedLayout{Offset: Static(0), Strides: []Value{}}
	if strings.TrimSpace(stridesSrc) != "" {
		for _, strideSrc := range strings.Split(stridesSrc, ",") {
			stride, err := parseValue(strideSrc)
			if err != nil {
				return nil, err
			}
			layout.Strides = append(layout.Strides, stride)
		}
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return layout, nil
	}
	offsetSrc, ok := strings.CutPrefix(rest, ",")
	if ok {
		offsetSrc, ok = strings.CutPrefix(strings.TrimSpace(offsetSrc), "offset:")
	}
	if !ok {
		return nil, errors.Errorf("expected offset after strides but got %q", rest)
	}
	var err error
	layout.Offset, err = parseValue(offsetSrc)
	if err != nil {
		return nil, err
	}
	return layout, nil
}
