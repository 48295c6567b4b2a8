/*
   rescmaskc - region collector

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

// Package collector runs the dataflow scan over a sequence of masked
// regions: it builds the alias union-find (every move instruction is an
// edge) and, for each region output that an XOR defines with a random
// operand or that a later XOR consumes with one, the set of random-bit
// names it has been XOR'd with.
package collector

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/rescmask/rescmaskc/ir"
)

// AliasGraph is a union-find over variable names with path compression on
// every Find.
type AliasGraph struct {
	parent map[string]string
}

// NewAliasGraph returns an empty graph.
func NewAliasGraph() *AliasGraph {
	return &AliasGraph{parent: make(map[string]string)}
}

// Find returns x's equivalence-class representative, compressing the path
// it walked.
func (g *AliasGraph) Find(x string) string {
	p, ok := g.parent[x]
	if !ok || p == x {
		return x
	}
	root := g.Find(p)
	g.parent[x] = root
	return root
}

// Union adds the edge res -> find(lhs), making res part of lhs's class.
func (g *AliasGraph) Union(res, lhs string) {
	g.parent[res] = g.Find(lhs)
}

// randRegistry assigns dense ids to random-bit names on first sight so they
// can live in a bitset.BitSet instead of a map[string]struct{}.
type randRegistry struct {
	idOf   map[string]uint
	nameOf []string
}

func newRandRegistry() *randRegistry {
	return &randRegistry{idOf: make(map[string]uint)}
}

func (r *randRegistry) id(name string) uint {
	if id, ok := r.idOf[name]; ok {
		return id
	}
	id := uint(len(r.nameOf))
	r.idOf[name] = id
	r.nameOf = append(r.nameOf, name)
	return id
}

func (r *randRegistry) name(id uint) string {
	return r.nameOf[id]
}

// Result is everything the collector computed: the alias graph and, per
// tracked output variable, the bitset of random-bit ids it was XOR'd with.
type Result struct {
	Alias       *AliasGraph
	Output2Xors map[string]*bitset.BitSet
	rands       *randRegistry
}

// Names returns the random-bit names recorded for v, sorted for
// determinism, or nil if v is not tracked.
func (r *Result) Names(v string) []string {
	bs, ok := r.Output2Xors[v]
	if !ok {
		return nil
	}
	names := make([]string, 0, bs.Count())
	for i, e := bs.NextSet(0); e; i, e = bs.NextSet(i + 1) {
		names = append(names, r.rands.name(i))
	}
	sort.Strings(names)
	return names
}

// Tracks reports whether v is a key of Output2Xors.
func (r *Result) Tracks(v string) bool {
	_, ok := r.Output2Xors[v]
	return ok
}

func (r *Result) add(v, randName string) {
	bs, ok := r.Output2Xors[v]
	if !ok {
		bs = bitset.New(8)
		r.Output2Xors[v] = bs
	}
	bs.Set(r.rands.id(randName))
}

// isRandName reports whether name looks like a random-bit value, by symbol
// table lookup falling back to the "r<digits>" naming convention the
// compiler's FreshRandom mints.
func isRandName(syms ir.SymbolTable, name string) bool {
	if v, ok := syms.Lookup(name); ok {
		return v.Prop == ir.PropRandom
	}
	return len(name) > 1 && name[0] == 'r' && isDigits(name[1:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Collect scans every instruction of every masked region in order,
// producing the alias graph and output2xors map described in the design.
func Collect(regions []ir.MaskedRegion) *Result {
	res := &Result{
		Alias:       NewAliasGraph(),
		Output2Xors: make(map[string]*bitset.BitSet),
		rands:       newRandRegistry(),
	}

	isOutput := make(map[string]bool)
	for _, mr := range regions {
		for _, o := range mr.Outputs {
			isOutput[o] = true
		}
	}

	for _, mr := range regions {
		syms := mr.Region.Syms
		for _, inst := range mr.Region.Insts {
			switch {
			case inst.IsMove():
				res.Alias.Union(inst.Res, inst.Lhs)
			case inst.Op == ir.OpXor:
				collectXor(res, syms, isOutput, inst)
			}
		}
	}
	return res
}

func collectXor(res *Result, syms ir.SymbolTable, isOutput map[string]bool, inst ir.Instruction) {
	if isOutput[inst.Res] {
		// Definition: find the random operand, preferring rhs when both
		// sides are RND.
		switch {
		case isRandName(syms, inst.Rhs):
			res.add(inst.Res, inst.Rhs)
		case isRandName(syms, inst.Lhs):
			res.add(inst.Res, inst.Lhs)
		}
		return
	}

	lhsRoot := res.Alias.Find(inst.Lhs)
	rhsRoot := res.Alias.Find(inst.Rhs)
	switch {
	case isOutput[lhsRoot]:
		if isRandName(syms, inst.Rhs) {
			res.add(lhsRoot, inst.Rhs)
		}
	case isOutput[rhsRoot]:
		if isRandName(syms, inst.Lhs) {
			res.add(rhsRoot, inst.Lhs)
		}
	}
}
