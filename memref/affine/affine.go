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

// Package affine implements affine expressions and affine maps describing
// how the indices of a memref are mapped to a linear memory address.
package affine

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
)

// Op is a binary affine operator.
type Op int

const (
	// Add is the addition of two expressions.
	Add Op = iota
	// Mul is the multiplication of two expressions.
	Mul
	// FloorDiv is the division rounded towards negative infinity.
	FloorDiv
	// CeilDiv is the division rounded towards positive infinity.
	CeilDiv
	// Mod is the remainder of FloorDiv. The result has the sign of the divisor.
	Mod
)

var opStrings = map[Op]string{
	Add:      "+",
	Mul:      "*",
	FloorDiv: "floordiv",
	CeilDiv:  "ceildiv",
	Mod:      "mod",
}

// String representation of the operator.
func (op Op) String() string {
	s, ok := opStrings[op]
	if !ok {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return s
}

func (op Op) precedence() int {
	if op == Add {
		return 1
	}
	return 2
}

type (
	// Expr is an affine expression.
	Expr interface {
		node()
		String() string
	}

	// Const is an integer constant.
	Const struct {
		Val int64
	}

	// Dim refers to the index of a memref dimension.
	Dim struct {
		Index int
	}

	// Symbol refers to a value only known at run time.
	Symbol struct {
		Index int
	}

	// Binary is a binary expression.
	Binary struct {
		Op   Op
		X, Y Expr
	}
)

var (
	_ Expr = (*Const)(nil)
	_ Expr = (*Dim)(nil)
	_ Expr = (*Symbol)(nil)
	_ Expr = (*Binary)(nil)
)

func (*Const) node()  {}
func (*Dim) node()    {}
func (*Symbol) node() {}
func (*Binary) node() {}

// C returns a constant expression.
func C(v int64) *Const { return &Const{Val: v} }

// D returns a reference to the i-th dimension.
func D(i int) *Dim { return &Dim{Index: i} }

// S returns a reference to the i-th symbol.
func S(i int) *Symbol { return &Symbol{Index: i} }

// NewBinary returns a binary expression.
func NewBinary(op Op, x, y Expr) *Binary {
	return &Binary{Op: op, X: x, Y: y}
}

// Sum returns the sum of all the expressions.
func Sum(x Expr, ys ...Expr) Expr {
	for _, y := range ys {
		x = NewBinary(Add, x, y)
	}
	return x
}

// Prod returns the product of all the expressions.
func Prod(x Expr, ys ...Expr) Expr {
	for _, y := range ys {
		x = NewBinary(Mul, x, y)
	}
	return x
}

// Neg returns the negation of an expression.
func Neg(x Expr) Expr {
	if c, ok := x.(*Const); ok {
		return C(-c.Val)
	}
	return NewBinary(Mul, x, C(-1))
}

// Sub returns x - y.
func Sub(x, y Expr) Expr {
	return NewBinary(Add, x, Neg(y))
}

// String representation of the constant.
func (c *Const) String() string { return fmt.Sprint(c.Val) }

// String representation of the dimension.
func (d *Dim) String() string { return fmt.Sprintf("d%d", d.Index) }

// String representation of the symbol.
func (s *Symbol) String() string { return fmt.Sprintf("s%d", s.Index) }

// String representation of the binary expression.
func (b *Binary) String() string {
	var s strings.Builder
	writeBinary(&s, b)
	return s.String()
}

func precedence(x Expr) int {
	b, ok := x.(*Binary)
	if !ok {
		return 3
	}
	return b.Op.precedence()
}

func writeOperand(s *strings.Builder, x Expr, paren bool) {
	if paren {
		s.WriteString("(")
	}
	switch xT := x.(type) {
	case *Binary:
		writeBinary(s, xT)
	default:
		s.WriteString(x.String())
	}
	if paren {
		s.WriteString(")")
	}
}

// negated returns y if x is -y.
func negated(x Expr) (Expr, bool) {
	switch xT := x.(type) {
	case *Const:
		if xT.Val < 0 && xT.Val != -xT.Val {
			return C(-xT.Val), true
		}
	case *Binary:
		c, ok := xT.Y.(*Const)
		if xT.Op == Mul && ok && c.Val == -1 {
			return xT.X, true
		}
	}
	return nil, false
}

func writeBinary(s *strings.Builder, b *Binary) {
	prec := b.Op.precedence()
	writeOperand(s, b.X, precedence(b.X) < prec)
	if b.Op == Add {
		if y, ok := negated(b.Y); ok {
			s.WriteString(" - ")
			writeOperand(s, y, precedence(y) <= prec)
			return
		}
	}
	s.WriteString(" ")
	s.WriteString(b.Op.String())
	s.WriteString(" ")
	writeOperand(s, b.Y, precedence(b.Y) <= prec)
}

// Walk calls f on every node of the expression in depth-first order.
// Walk stops if f returns false.
func Walk(x Expr, f func(Expr) bool) bool {
	if !f(x) {
		return false
	}
	b, ok := x.(*Binary)
	if !ok {
		return true
	}
	return Walk(b.X, f) && Walk(b.Y, f)
}

// HasDims returns true if the expression refers to at least one dimension.
func HasDims(x Expr) bool {
	found := false
	Walk(x, func(x Expr) bool {
		if _, ok := x.(*Dim); ok {
			found = true
		}
		return !found
	})
	return found
}

// Map maps the indices of a memref and a set of symbols to one or more results.
type Map struct {
	NumDims    int
	NumSymbols int
	Results    []Expr
}

// NewMap returns a new affine map.
// It panics if a result refers to a dimension or a symbol out of range.
func NewMap(numDims, numSymbols int, results ...Expr) *Map {
	m := &Map{NumDims: numDims, NumSymbols: numSymbols, Results: results}
	for _, res := range results {
		Walk(res, func(x Expr) bool {
			switch xT := x.(type) {
			case *Dim:
				if xT.Index < 0 || xT.Index >= numDims {
					exceptions.Panicf("affine map with %d dimensions cannot refer to %s", numDims, xT)
				}
			case *Symbol:
				if xT.Index < 0 || xT.Index >= numSymbols {
					exceptions.Panicf("affine map with %d symbols cannot refer to %s", numSymbols, xT)
				}
			}
			return true
		})
	}
	return m
}

// IdentityMap returns the identity map with a given number of dimensions.
func IdentityMap(numDims int) *Map {
	results := make([]Expr, numDims)
	for i := range results {
		results[i] = D(i)
	}
	return NewMap(numDims, 0, results...)
}

// IsIdentity returns true if the map returns its dimensions in order.
func (m *Map) IsIdentity() bool {
	if m.NumSymbols != 0 || len(m.Results) != m.NumDims {
		return false
	}
	for i, res := range m.Results {
		dim, ok := res.(*Dim)
		if !ok || dim.Index != i {
			return false
		}
	}
	return true
}

func writeList(s *strings.Builder, prefix string, n int) {
	for i := range n {
		if i > 0 {
			s.WriteString(", ")
		}
		fmt.Fprintf(s, "%s%d", prefix, i)
	}
}

// String representation of the map.
func (m *Map) String() string {
	var s strings.Builder
	s.WriteString("(")
	writeList(&s, "d", m.NumDims)
	s.WriteString(")")
	if m.NumSymbols > 0 {
		s.WriteString("[")
		writeList(&s, "s", m.NumSymbols)
		s.WriteString("]")
	}
	s.WriteString(" -> (")
	for i, res := range m.Results {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(res.String())
	}
	s.WriteString(")")
	return s.String()
}
