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
	"go/scanner"
	"go/token"
	"strconv"

	"github.com/gx-org/memlayout/internal/fmterr"
	"github.com/pkg/errors"
)

// keywords are the binary operators spelled as identifiers.
var keywords = map[string]Op{
	"floordiv": FloorDiv,
	"ceildiv":  CeilDiv,
	"mod":      Mod,
}

type parser struct {
	fset    *token.FileSet
	scanner scanner.Scanner
	scanErr error

	pos token.Pos
	tok token.Token
	lit string

	dims    map[string]int
	symbols map[string]int
}

// ParseMap parses an affine map written as
//
//	(d0, d1)[s0] -> (d0 * 4 + d1 + s0)
//
// Dimensions and symbols can use any identifier which is not a keyword.
func ParseMap(src string) (*Map, error) {
	p := newParser(src)
	m, err := p.parseMap()
	if p.scanErr != nil {
		return nil, p.scanErr
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newParser(src string) *parser {
	p := &parser{
		fset:    token.NewFileSet(),
		dims:    make(map[string]int),
		symbols: make(map[string]int),
	}
	file := p.fset.AddFile("affine_map", -1, len(src))
	p.scanner.Init(file, []byte(src), func(pos token.Position, msg string) {
		if p.scanErr != nil {
			return
		}
		p.scanErr = errors.Errorf("%s: %s", pos, msg)
	}, 0)
	p.next()
	return p
}

func (p *parser) next() {
	for {
		p.pos, p.tok, p.lit = p.scanner.Scan()
		// Skip semicolons automatically inserted by the scanner.
		if p.tok != token.SEMICOLON || p.lit != "\n" {
			return
		}
	}
}

func (p *parser) errorf(format string, a ...any) error {
	return fmterr.Errorf(p.fset, p.pos, format, a...)
}

func (p *parser) tokString() string {
	if p.lit != "" {
		return p.lit
	}
	return p.tok.String()
}

func (p *parser) expect(tok token.Token) error {
	if p.tok != tok {
		return p.errorf("expected %s but got %s", tok, p.tokString())
	}
	p.next()
	return nil
}

func (p *parser) parseIdents(close token.Token, into map[string]int, kind string) error {
	for p.tok != close {
		if len(into) > 0 {
			if err := p.expect(token.COMMA); err != nil {
				return err
			}
		}
		if p.tok != token.IDENT {
			return p.errorf("expected %s identifier but got %s", kind, p.tokString())
		}
		if _, isKeyword := keywords[p.lit]; isKeyword {
			return p.errorf("%s cannot be used as a %s identifier", p.lit, kind)
		}
		_, isDim := p.dims[p.lit]
		_, isSymbol := p.symbols[p.lit]
		if isDim || isSymbol {
			return p.errorf("%s redeclared", p.lit)
		}
		into[p.lit] = len(into)
		p.next()
	}
	p.next()
	return nil
}

func (p *parser) parseMap() (*Map, error) {
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	if err := p.parseIdents(token.RPAREN, p.dims, "dimension"); err != nil {
		return nil, err
	}
	if p.tok == token.LBRACK {
		p.next()
		if err := p.parseIdents(token.RBRACK, p.symbols, "symbol"); err != nil {
			return nil, err
		}
	}
	// The scanner splits -> into - and >.
	if err := p.expect(token.SUB); err != nil {
		return nil, err
	}
	if err := p.expect(token.GTR); err != nil {
		return nil, err
	}
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var results []Expr
	for p.tok != token.RPAREN {
		if len(results) > 0 {
			if err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
		}
		res, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	if len(results) == 0 {
		return nil, p.errorf("affine map requires at least one result")
	}
	p.next()
	if p.tok != token.EOF {
		return nil, p.errorf("unexpected %s after affine map", p.tokString())
	}
	return &Map{
		NumDims:    len(p.dims),
		NumSymbols: len(p.symbols),
		Results:    results,
	}, nil
}

func (p *parser) parseExpr() (Expr, error) {
	x, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok == token.ADD || p.tok == token.SUB {
		tok := p.tok
		p.next()
		y, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if tok == token.ADD {
			x = NewBinary(Add, x, y)
		} else {
			x = Sub(x, y)
		}
	}
	return x, nil
}

func (p *parser) binaryOp() (Op, bool) {
	switch p.tok {
	case token.MUL:
		return Mul, true
	case token.IDENT:
		op, ok := keywords[p.lit]
		return op, ok
	}
	return 0, false
}

func (p *parser) parseTerm() (Expr, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.binaryOp()
		if !ok {
			return x, nil
		}
		opPos := p.pos
		p.next()
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if c, isConst := y.(*Const); isConst && c.Val == 0 && op != Mul {
			return nil, fmterr.Errorf(p.fset, opPos, "%s by zero", op)
		}
		x = NewBinary(op, x, y)
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if p.tok != token.SUB {
		return p.parsePrimary()
	}
	p.next()
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return Neg(x), nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.tok {
	case token.INT:
		val, err := strconv.ParseInt(p.lit, 0, 64)
		if err != nil {
			return nil, p.errorf("invalid integer constant %s: %v", p.lit, err)
		}
		p.next()
		return C(val), nil
	case token.IDENT:
		name := p.lit
		if i, ok := p.dims[name]; ok {
			p.next()
			return D(i), nil
		}
		if i, ok := p.symbols[name]; ok {
			p.next()
			return S(i), nil
		}
		return nil, p.errorf("undefined identifier %s", name)
	case token.LPAREN:
		p.next()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return x, nil
	}
	return nil, p.errorf("expected an affine expression but got %s", p.tokString())
}
