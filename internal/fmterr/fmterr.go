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

// Package fmterr formats errors given a position in a layout source.
package fmterr

import (
	"fmt"
	"go/token"
	"io"
	"runtime/debug"

	"github.com/pkg/errors"
)

type (
	// ErrorWithPos is an error attached to a position in a layout source.
	ErrorWithPos interface {
		error
		FSet() *token.FileSet
		Pos() token.Pos
		Err() error
	}

	errorWithPos struct {
		fset *token.FileSet
		pos  token.Pos
		err  error
	}
)

// Position adds source position information to an error.
func Position(fset *token.FileSet, pos token.Pos, err error) ErrorWithPos {
	return errorWithPos{
		fset: fset,
		pos:  pos,
		err:  err,
	}
}

// Errorf returns a formatted error at a given position.
func Errorf(fset *token.FileSet, pos token.Pos, format string, a ...any) error {
	return Position(fset, pos, errors.Errorf(format, a...))
}

// Internal marks an error as internal, potentially adding additional information.
func Internal(err error) error {
	return fmt.Errorf("memlayout internal error. This is a bug. Please report it. Error:\n%+v", err)
}

// Error returns a string description of the error.
func (err errorWithPos) Error() (s string) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		s = fmt.Sprintf("recovered from panic when building error message: %T:\n%v", err.err, string(debug.Stack()))
	}()
	if err.fset == nil || !err.pos.IsValid() {
		return err.err.Error()
	}
	return PosString(err.fset, err.pos) + " " + err.err.Error()
}

// Unwrap the error.
func (err errorWithPos) Unwrap() error {
	return err.err
}

// Format writes the error into the state of the formatter.
func (err errorWithPos) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			formatVerbose(err, s)
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, err.Error())
	case 'q':
		fmt.Fprintf(s, "%q", err.Error())
	}
}

func formatVerbose(err error, s fmt.State) {
	io.WriteString(s, err.Error())
	var withSt interface {
		StackTrace() errors.StackTrace
	}
	if !errors.As(err, &withSt) {
		return
	}
	fmt.Fprintf(s, "\nError generated at:%+v\n", withSt.StackTrace())
}

// FSet returns the file set the position refers to.
func (err errorWithPos) FSet() *token.FileSet {
	return err.fset
}

// Pos returns the position of the error in the file set.
func (err errorWithPos) Pos() token.Pos {
	return err.pos
}

// Err returns the error without position information.
func (err errorWithPos) Err() error {
	return err.err
}

// PosString returns a position as a string that can be used for an error.
func PosString(fset *token.FileSet, pos token.Pos) string {
	return fset.Position(pos).String() + ":"
}
