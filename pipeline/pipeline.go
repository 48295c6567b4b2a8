/*
   rescmaskc - pipeline orchestration

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

// Package pipeline wires the bit-blaster, divider, masker, collector and
// concatenator into the single strict linear compile described by the
// design: each stage consumes its predecessor by move and hands its
// successor the result.
package pipeline

import (
	"github.com/rescmask/rescmaskc/bitblast"
	"github.com/rescmask/rescmaskc/collector"
	"github.com/rescmask/rescmaskc/concatenator"
	"github.com/rescmask/rescmaskc/config"
	"github.com/rescmask/rescmaskc/divider"
	"github.com/rescmask/rescmaskc/ir"
	"github.com/rescmask/rescmaskc/masker"
	"github.com/rescmask/rescmaskc/rescerr"
)

// Compiler runs the full pipeline for one source function at a time. A
// fresh Compiler must be constructed per function so its counters reset,
// matching the design's "must be reset between invocations" contract.
type Compiler struct {
	ir *ir.Compiler
}

// New returns a Compiler ready to run one compile.
func New() *Compiler {
	return &Compiler{ir: ir.NewCompiler()}
}

// Result is everything a compile produced.
type Result struct {
	Region   ir.Region
	Warnings []rescerr.Warning
}

// Compile runs BitBlaster -> RegionDivider -> RegionMasker -> RegionCollector
// -> RegionConcatenator over r, honoring flags.Z3BlastingEnabled and
// flags.GapFillingEnabled.
func (c *Compiler) Compile(r ir.Region, ret ir.Value, flags config.Flags) (Result, error) {
	var warnings []rescerr.Warning

	blasted := r
	if flags.Z3BlastingEnabled {
		blaster := bitblast.New(c.ir)
		br, err := blaster.Blast(r, ret)
		if err != nil {
			return Result{}, rescerr.Wrap(rescerr.KindSolver, "pipeline", "bit-blaster failed", err)
		}
		blasted = br.Region
		warnings = append(warnings, br.Warnings...)
	}

	div := divider.New(divider.StrategyTrivial)
	pieces := div.Divide(blasted)

	gadget := masker.Gadget{}
	masked := make([]ir.MaskedRegion, 0, len(pieces))
	for _, p := range pieces {
		mr, ins, outs, err := gadget.Mask(p, c.ir)
		if err != nil {
			return Result{}, rescerr.Wrap(rescerr.KindInvariant, "pipeline", "masker failed", err)
		}
		masked = append(masked, ir.MaskedRegion{Region: mr, Inputs: ins, Outputs: outs})
	}

	col := collector.Collect(masked)
	final, err := concatenator.Concatenate(masked, col, flags.GapFillingEnabled, c.ir)
	if err != nil {
		return Result{}, rescerr.Wrap(rescerr.KindInvariant, "pipeline", "concatenator failed", err)
	}

	return Result{Region: final, Warnings: warnings}, nil
}
