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
	"github.com/pkg/errors"
)

// Eval evaluates an expression given values for dimensions and symbols.
func Eval(x Expr, dims, symbols []int64) (int64, error) {
	switch xT := x.(type) {
	case *Const:
		return xT.Val, nil
	case *Dim:
		if xT.Index >= len(dims) {
			return 0, errors.Errorf("no value for %s", xT)
		}
		return dims[xT.Index], nil
	case *Symbol:
		if xT.Index >= len(symbols) {
			return 0, errors.Errorf("no value for %s", xT)
		}
		return symbols[xT.Index], nil
	case *Binary:
		return evalBinary(xT, dims, symbols)
	}
	return 0, errors.Errorf("affine expression %T not supported", x)
}

func evalBinary(b *Binary, dims, symbols []int64) (int64, error) {
	x, err := Eval(b.X, dims, symbols)
	if err != nil {
		return 0, err
	}
	y, err := Eval(b.Y, dims, symbols)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case Add:
		return x + y, nil
	case Mul:
		return x * y, nil
	}
	if y == 0 {
		return 0, errors.Wrapf(ErrDivisionByZero, "evaluating %s", b)
	}
	q, r := x/y, x%y
	sameSign := (r < 0) == (y < 0)
	switch b.Op {
	case FloorDiv:
		if r != 0 && !sameSign {
			q--
		}
		return q, nil
	case CeilDiv:
		if r != 0 && sameSign {
			q++
		}
		return q, nil
	case Mod:
		if r != 0 && !sameSign {
			r += y
		}
		return r, nil
	}
	return 0, errors.Errorf("affine operator %s not supported", b.Op)
}
