/*
   rescmaskc - pipeline error taxonomy

   Copyright 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

// Package rescerr holds the small closed set of error kinds the pipeline can
// raise, plus the non-fatal Warning type that stages accumulate instead of
// returning.
package rescerr

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal pipeline error.
type Kind int

const (
	// KindInput marks a rejection of the source program itself (parse
	// failure, declared name collides with a reserved prefix, unsupported
	// construct).
	KindInput Kind = iota
	// KindInvariant marks a violation of an internal pipeline invariant
	// (ambiguous def/use classification, a value used before its mask is
	// defined, a region the divider could not cut to one instruction).
	KindInvariant
	// KindSolver marks an anomaly surfaced while bit-blasting (a formula
	// node the walker does not recognize, an unresolved equality with no
	// topological tiebreaker).
	KindSolver
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input rejected"
	case KindInvariant:
		return "invariant violated"
	case KindSolver:
		return "solver anomaly"
	default:
		return "error"
	}
}

// Error is a fatal pipeline error tagged with its Kind and the stage that
// raised it.
type Error struct {
	Kind  Kind
	Stage string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Stage, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a fatal Error.
func New(kind Kind, stage, msg string) error {
	return &Error{Kind: kind, Stage: stage, Msg: msg}
}

// Wrap builds a fatal Error around an underlying cause.
func Wrap(kind Kind, stage, msg string, err error) error {
	return &Error{Kind: kind, Stage: stage, Msg: msg, Err: err}
}

// Is reports whether err (or anything it wraps) is a rescerr.Error of kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// Warning is a non-fatal diagnostic a stage wants logged and rendered as a
// comment in the emitted source, without aborting the compile.
type Warning struct {
	Stage string
	Msg   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Stage, w.Msg)
}

// Warnf builds a Warning.
func Warnf(stage, format string, args ...any) Warning {
	return Warning{Stage: stage, Msg: fmt.Sprintf(format, args...)}
}
