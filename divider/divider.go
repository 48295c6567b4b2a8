/*
   rescmaskc - region divider

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

// Package divider cuts a single-bit Region into minimal sub-Regions for the
// masker to process independently.
package divider

import "github.com/rescmask/rescmaskc/ir"

// Strategy selects a concrete divider. Today only StrategyTrivial is
// implemented; the field exists so a basic-block or fan-in divider can be
// added later behind the same capability, per a tagged enumeration rather
// than virtual dispatch.
type Strategy int

const (
	StrategyTrivial Strategy = iota
)

// Divider cuts a Region by move into a sequence of sub-Regions, sharing the
// original symbol table rather than copying it into each piece.
type Divider interface {
	Divide(r ir.Region) []ir.Region
}

// New returns the Divider for strategy.
func New(strategy Strategy) Divider {
	switch strategy {
	case StrategyTrivial:
		return Trivial{}
	default:
		return Trivial{}
	}
}

// Trivial assigns exactly one source instruction per sub-Region, followed by
// a comment separator, matching §4.3 of the design.
type Trivial struct{}

// Divide implements Divider.
func (Trivial) Divide(r ir.Region) []ir.Region {
	out := make([]ir.Region, 0, len(r.Insts))
	for _, inst := range r.Insts {
		sub := ir.Region{Syms: r.Syms}
		sub.Append(inst)
		sub.Append(ir.Instruction{Op: ir.OpSep})
		out = append(out, sub)
	}
	return out
}
