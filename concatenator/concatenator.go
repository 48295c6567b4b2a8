/*
   rescmaskc - region concatenator (swap-and-patch)

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

// Package concatenator stitches a sequence of masked regions into one final
// Region, running the swap-and-patch rewrite that keeps a value's masking
// random bit consistent the first time it crosses a region boundary, and
// patches every later use with the accumulated difference.
package concatenator

import (
	"github.com/rescmask/rescmaskc/collector"
	"github.com/rescmask/rescmaskc/ir"
	"github.com/rescmask/rescmaskc/rescerr"
)

const stage = "concatenator"

type diffPair [2]string

// Concatenate walks every instruction of every masked region in program
// order, copying it to a single output Region. When gapFilling is false the
// swap-and-patch rewrite is skipped entirely (debug-only passthrough mode);
// c mints the scratch names the patch blocks need.
func Concatenate(regions []ir.MaskedRegion, res *collector.Result, gapFilling bool, c *ir.Compiler) (ir.Region, error) {
	out := ir.Region{Syms: ir.NewSymbolTable()}
	for _, mr := range regions {
		out.Syms.Merge(mr.Region.Syms)
	}

	if !gapFilling {
		for _, mr := range regions {
			out.Insts = append(out.Insts, mr.Region.Insts...)
		}
		return out, nil
	}

	var2def := make(map[string]int)
	xorDiff := make(map[string]diffPair)
	usedOnce := make(map[string]bool)

	for _, mr := range regions {
		for _, inst := range mr.Region.Insts {
			if inst.IsMove() {
				res.Alias.Union(inst.Res, inst.Lhs)
				out.Append(inst)
				continue
			}
			if inst.Op != ir.OpXor {
				out.Append(inst)
				continue
			}
			if err := processXor(&out, res, var2def, xorDiff, usedOnce, c, inst); err != nil {
				return ir.Region{}, err
			}
		}
	}
	return out, nil
}

func processXor(
	out *ir.Region,
	res *collector.Result,
	var2def map[string]int,
	xorDiff map[string]diffPair,
	usedOnce map[string]bool,
	c *ir.Compiler,
	inst ir.Instruction,
) error {
	lhsRoot := res.Alias.Find(inst.Lhs)
	rhsRoot := res.Alias.Find(inst.Rhs)

	isDef := res.Tracks(inst.Res)
	isLUse := res.Tracks(lhsRoot)
	isRUse := res.Tracks(rhsRoot)

	count := 0
	for _, b := range []bool{isDef, isLUse, isRUse} {
		if b {
			count++
		}
	}
	if count > 1 {
		return rescerr.New(rescerr.KindInvariant, stage, "ambiguous def/use classification for "+inst.Res)
	}

	switch {
	case isDef:
		var2def[inst.Res] = len(out.Insts)
		out.Append(inst)
	case isLUse:
		return useXor(out, res, var2def, xorDiff, usedOnce, c, inst, lhsRoot, true)
	case isRUse:
		return useXor(out, res, var2def, xorDiff, usedOnce, c, inst, rhsRoot, false)
	default:
		out.Append(inst)
	}
	return nil
}

// useXor handles a use instruction whose lhs (useIsLhs) or rhs resolves to
// tracked output x.
func useXor(
	out *ir.Region,
	res *collector.Result,
	var2def map[string]int,
	xorDiff map[string]diffPair,
	usedOnce map[string]bool,
	c *ir.Compiler,
	inst ir.Instruction,
	x string,
	useIsLhs bool,
) error {
	randUse := inst.Lhs
	if useIsLhs {
		randUse = inst.Rhs
	}

	if usedOnce[x] {
		out.Append(inst)
		diff, ok := xorDiff[x]
		if !ok {
			return rescerr.New(rescerr.KindInvariant, stage, "missing xor_diff for "+x)
		}
		patchReplace(out, c, inst.Res, diff)
		return nil
	}

	defIdx, ok := var2def[x]
	if !ok {
		return rescerr.New(rescerr.KindInvariant, stage, "use of "+x+" before its def")
	}
	defInst := out.Insts[defIdx]

	names := res.Names(x)
	if len(names) == 0 {
		return rescerr.New(rescerr.KindInvariant, stage, "no recorded random bit for "+x)
	}
	defRandName := names[0]

	usedOnce[x] = true
	xorDiff[x] = diffPair{randUse, defRandName}

	newUse := inst
	if useIsLhs {
		newUse.Rhs = defRandName
	} else {
		newUse.Lhs = defRandName
	}

	newDef := defInst
	switch defRandName {
	case defInst.Rhs:
		newDef.Rhs = randUse
	case defInst.Lhs:
		newDef.Lhs = randUse
	}
	out.Insts[defIdx] = newDef
	out.Append(newUse)
	return nil
}

// patchReplace emits the "// {replaced(X): ... // :replaced}" block that
// folds both recorded differences into res.
func patchReplace(out *ir.Region, c *ir.Compiler, res string, diff diffPair) {
	out.Append(ir.Instruction{Op: ir.OpComment, Comment: "{replaced(" + res + "):"})
	tmp := c.FreshTemp()
	out.Append(ir.Instruction{Op: ir.OpXor, Res: tmp, Lhs: res, Rhs: diff[0]})
	out.Append(ir.Instruction{Op: ir.OpXor, Res: res, Lhs: tmp, Rhs: diff[1]})
	out.Append(ir.Instruction{Op: ir.OpComment, Comment: ":replaced}"})
}
