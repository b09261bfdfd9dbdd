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
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

var (
	// ErrNotAffine is returned when an expression uses its dimensions
	// in a way that cannot be written as a linear combination.
	ErrNotAffine = errors.New("not affine")

	// ErrDivisionByZero is returned when a divisor simplifies to zero.
	ErrDivisionByZero = errors.New("division by zero")
)

type factorKind int

const (
	dimFactor factorKind = iota
	symbolFactor
	// opaqueFactor is a division or a modulo involving only symbols and constants.
	opaqueFactor
)

type factor struct {
	kind  factorKind
	index int
	expr  Expr
	key   string

	// Operands of an opaque factor, kept normalised so that
	// coefficients larger than int64 do not need to be rebuilt.
	op       Op
	num, den *Canonical
}

// asExpr returns the factor as an expression.
func (f factor) asExpr() (Expr, error) {
	if f.kind != opaqueFactor {
		return f.expr, nil
	}
	x, err := f.num.Expr()
	if err != nil {
		return nil, err
	}
	y, err := f.den.Expr()
	if err != nil {
		return nil, err
	}
	return NewBinary(f.op, x, y), nil
}

func (f factor) less(g factor) bool {
	if f.kind != g.kind {
		return f.kind < g.kind
	}
	if f.index != g.index {
		return f.index < g.index
	}
	return f.key < g.key
}

type (
	// Term is a product of factors multiplied by a constant coefficient.
	Term struct {
		Coeff   *big.Int
		factors []factor
		key     string
	}

	// Canonical is a normalised expression: a sum of terms where like terms have been merged,
	// terms with a zero coefficient removed, and constants folded.
	Canonical struct {
		terms map[string]*Term
	}
)

func newTerm(coeff *big.Int, factors ...factor) *Term {
	sort.Slice(factors, func(i, j int) bool {
		return factors[i].less(factors[j])
	})
	keys := make([]string, len(factors))
	for i, f := range factors {
		keys[i] = f.key
	}
	return &Term{Coeff: coeff, factors: factors, key: strings.Join(keys, "*")}
}

// IsConstant returns true if the term has no factor.
func (t *Term) IsConstant() bool {
	return len(t.factors) == 0
}

// Dims returns the indices of the dimensions in the term.
// A dimension may appear more than once.
func (t *Term) Dims() []int {
	var dims []int
	for _, f := range t.factors {
		if f.kind == dimFactor {
			dims = append(dims, f.index)
		}
	}
	return dims
}

// NumFactors returns the number of factors in the term, excluding the coefficient.
func (t *Term) NumFactors() int {
	return len(t.factors)
}

func (t *Term) mul(u *Term) *Term {
	factors := append(append([]factor{}, t.factors...), u.factors...)
	return newTerm(new(big.Int).Mul(t.Coeff, u.Coeff), factors...)
}

// Expr returns the term as an expression.
func (t *Term) Expr() (Expr, error) {
	if !t.Coeff.IsInt64() {
		return nil, errors.Errorf("coefficient %s overflows int64", t.Coeff)
	}
	coeff := t.Coeff.Int64()
	if len(t.factors) == 0 {
		return C(coeff), nil
	}
	var x Expr
	for _, f := range t.factors {
		fx, err := f.asExpr()
		if err != nil {
			return nil, err
		}
		if x == nil {
			x = fx
			continue
		}
		x = NewBinary(Mul, x, fx)
	}
	if coeff == 1 {
		return x, nil
	}
	return NewBinary(Mul, x, C(coeff)), nil
}

// String representation of the term.
func (t *Term) String() string {
	if len(t.factors) == 0 {
		return t.Coeff.String()
	}
	if t.Coeff.Cmp(one) == 0 {
		return t.key
	}
	return fmt.Sprintf("%s*%s", t.Coeff, t.key)
}

var one = big.NewInt(1)

func constant(v *big.Int) *Canonical {
	c := &Canonical{terms: make(map[string]*Term)}
	c.addTerm(newTerm(v))
	return c
}

func single(f factor) *Canonical {
	c := &Canonical{terms: make(map[string]*Term)}
	c.addTerm(newTerm(big.NewInt(1), f))
	return c
}

func (c *Canonical) addTerm(t *Term) {
	prev, ok := c.terms[t.key]
	if !ok {
		if t.Coeff.Sign() != 0 {
			c.terms[t.key] = t
		}
		return
	}
	sum := newTerm(new(big.Int).Add(prev.Coeff, t.Coeff), prev.factors...)
	if sum.Coeff.Sign() == 0 {
		delete(c.terms, t.key)
		return
	}
	c.terms[t.key] = sum
}

func (c *Canonical) add(d *Canonical) *Canonical {
	r := &Canonical{terms: make(map[string]*Term, len(c.terms)+len(d.terms))}
	for _, t := range c.terms {
		r.addTerm(t)
	}
	for _, t := range d.terms {
		r.addTerm(t)
	}
	return r
}

func (c *Canonical) mul(d *Canonical) (*Canonical, error) {
	r := &Canonical{terms: make(map[string]*Term)}
	for _, ti := range c.terms {
		for _, tj := range d.terms {
			prod := ti.mul(tj)
			if dims := prod.Dims(); len(dims) > 1 {
				return nil, errors.Wrapf(ErrNotAffine, "product of %s and %s", dimNames(ti), dimNames(tj))
			}
			r.addTerm(prod)
		}
	}
	return r, nil
}

func dimNames(t *Term) string {
	var names []string
	for _, dim := range t.Dims() {
		names = append(names, D(dim).String())
	}
	return strings.Join(names, "*")
}

// Terms returns the terms of the expression in canonical order:
// terms with dimensions first, sorted by dimension, then symbolic terms,
// then the constant term.
func (c *Canonical) Terms() []*Term {
	keys := maps.Keys(c.terms)
	sort.Slice(keys, func(i, j int) bool {
		ti, tj := c.terms[keys[i]], c.terms[keys[j]]
		if ti.IsConstant() != tj.IsConstant() {
			return tj.IsConstant()
		}
		n := min(len(ti.factors), len(tj.factors))
		for k := range n {
			fi, fj := ti.factors[k], tj.factors[k]
			if fi.less(fj) {
				return true
			}
			if fj.less(fi) {
				return false
			}
		}
		return len(ti.factors) < len(tj.factors)
	})
	terms := make([]*Term, len(keys))
	for i, key := range keys {
		terms[i] = c.terms[key]
	}
	return terms
}

// Constant returns the value of the expression if it has no dimension and no symbol.
func (c *Canonical) Constant() (*big.Int, bool) {
	switch len(c.terms) {
	case 0:
		return big.NewInt(0), true
	case 1:
		for _, t := range c.terms {
			if t.IsConstant() {
				return t.Coeff, true
			}
		}
	}
	return nil, false
}

// HasDims returns true if a term refers to a dimension.
func (c *Canonical) HasDims() bool {
	for _, t := range c.terms {
		if len(t.Dims()) > 0 {
			return true
		}
	}
	return false
}

// Expr rebuilds an expression from the canonical form.
func (c *Canonical) Expr() (Expr, error) {
	var x Expr
	for _, t := range c.Terms() {
		tx, err := t.Expr()
		if err != nil {
			return nil, err
		}
		if x == nil {
			x = tx
			continue
		}
		x = NewBinary(Add, x, tx)
	}
	if x == nil {
		return C(0), nil
	}
	return x, nil
}

// String representation of the canonical form.
func (c *Canonical) String() string {
	terms := c.Terms()
	if len(terms) == 0 {
		return "0"
	}
	ss := make([]string, len(terms))
	for i, t := range terms {
		ss[i] = t.String()
	}
	return strings.Join(ss, " + ")
}

// Normalize flattens an expression into its canonical sum of products.
// It returns an error wrapping ErrNotAffine if two dimensions are multiplied together
// or if a dimension appears in a floordiv, ceildiv or mod.
func Normalize(x Expr) (*Canonical, error) {
	switch xT := x.(type) {
	case *Const:
		return constant(big.NewInt(xT.Val)), nil
	case *Dim:
		return single(factor{kind: dimFactor, index: xT.Index, expr: xT, key: xT.String()}), nil
	case *Symbol:
		return single(factor{kind: symbolFactor, index: xT.Index, expr: xT, key: xT.String()}), nil
	case *Binary:
		return normalizeBinary(xT)
	default:
		return nil, errors.Errorf("affine expression %T not supported", x)
	}
}

func normalizeBinary(b *Binary) (*Canonical, error) {
	x, err := Normalize(b.X)
	if err != nil {
		return nil, err
	}
	y, err := Normalize(b.Y)
	if err != nil {
		return nil, err
	}
	switch b.Op {
	case Add:
		return x.add(y), nil
	case Mul:
		return x.mul(y)
	case FloorDiv, CeilDiv, Mod:
		return normalizeDivision(b.Op, x, y)
	default:
		return nil, errors.Errorf("affine operator %s not supported", b.Op)
	}
}

func normalizeDivision(op Op, x, y *Canonical) (*Canonical, error) {
	if x.HasDims() {
		return nil, errors.Wrapf(ErrNotAffine, "%s of %s", op, x)
	}
	if y.HasDims() {
		return nil, errors.Wrapf(ErrNotAffine, "%s by %s", op, y)
	}
	yVal, yConst := y.Constant()
	if yConst && yVal.Sign() == 0 {
		return nil, errors.Wrapf(ErrDivisionByZero, "%s by %s", op, y)
	}
	xVal, xConst := x.Constant()
	if xConst && yConst {
		return constant(fold(op, xVal, yVal)), nil
	}
	return single(factor{
		kind: opaqueFactor,
		key:  fmt.Sprintf("(%s %s %s)", operandString(x), op, operandString(y)),
		op:   op,
		num:  x,
		den:  y,
	}), nil
}

// operandString returns the string of a division operand,
// with parentheses if the operand is a sum of more than one term.
func operandString(x *Canonical) string {
	if len(x.terms) > 1 {
		return "(" + x.String() + ")"
	}
	return x.String()
}

// fold computes a floordiv, ceildiv or mod between two constants. y cannot be zero.
func fold(op Op, x, y *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(x, y, new(big.Int))
	sameSign := r.Sign() == y.Sign()
	switch op {
	case FloorDiv:
		if r.Sign() != 0 && !sameSign {
			q.Sub(q, big.NewInt(1))
		}
		return q
	case CeilDiv:
		if r.Sign() != 0 && sameSign {
			q.Add(q, big.NewInt(1))
		}
		return q
	}
	// Mod: x - floordiv(x, y) * y
	floor := fold(FloorDiv, x, y)
	return new(big.Int).Sub(x, floor.Mul(floor, y))
}
