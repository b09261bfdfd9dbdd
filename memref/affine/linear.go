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

package affine

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"
)

type (
	// Coeff is a coefficient of a linear combination.
	// A symbolic coefficient depends on symbols and has no static value.
	Coeff struct {
		Val      *big.Int
		Symbolic bool
	}

	// Linear is an expression decomposed into an offset plus one coefficient per dimension:
	//
	//	Offset + Dims[0]*d0 + ... + Dims[n-1]*dn-1
	Linear struct {
		Offset Coeff
		Dims   []Coeff
	}
)

func zeroCoeff() Coeff {
	return Coeff{Val: big.NewInt(0)}
}

func (c *Coeff) add(t *Term, numFactors int) {
	if t.NumFactors() > numFactors {
		c.Symbolic = true
		return
	}
	c.Val = new(big.Int).Add(c.Val, t.Coeff)
}

// String representation of the coefficient.
func (c Coeff) String() string {
	if c.Symbolic {
		return "?"
	}
	return c.Val.String()
}

// Linear decomposes the canonical expression into an offset and one coefficient per dimension.
func (c *Canonical) Linear(numDims int) (*Linear, error) {
	lin := &Linear{
		Offset: zeroCoeff(),
		Dims:   make([]Coeff, numDims),
	}
	for i := range lin.Dims {
		lin.Dims[i] = zeroCoeff()
	}
	for _, t := range c.Terms() {
		dims := t.Dims()
		switch len(dims) {
		case 0:
			lin.Offset.add(t, 0)
		case 1:
			dim := dims[0]
			if dim >= numDims {
				return nil, errors.Errorf("term %s refers to d%d but the expression has %d dimensions", t, dim, numDims)
			}
			lin.Dims[dim].add(t, 1)
		default:
			return nil, errors.Wrapf(ErrNotAffine, "term %s multiplies dimensions together", t)
		}
	}
	return lin, nil
}

// Decompose normalises an expression and decomposes it as a linear combination of dimensions.
func Decompose(x Expr, numDims int) (*Linear, error) {
	can, err := Normalize(x)
	if err != nil {
		return nil, err
	}
	return can.Linear(numDims)
}

// String representation of the linear combination.
func (lin *Linear) String() string {
	return fmt.Sprintf("offset: %s coeffs: %v", lin.Offset, lin.Dims)
}
