/*
   rescmaskc - three-address IR shared by every pipeline stage

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

// Package ir defines the three-address representation (3AIR) every pipeline
// stage reads and produces: values, instructions, regions and the small
// per-compile counters that mint fresh names.
package ir

import (
	"fmt"
	"strings"
)

// Width follows the source language's own convention: a positive value is
// the bit count of an unsigned integer, a negative value is the bit count
// (negated) of a signed integer, and 1 means a plain bool.
type Width int

// BoolWidth is the width of a single boolean wire.
const BoolWidth Width = 1

// Bits returns the number of bits this width occupies, regardless of sign.
func (w Width) Bits() int {
	if w < 0 {
		return int(-w)
	}
	return int(w)
}

// Signed reports whether the width denotes a signed integer type.
func (w Width) Signed() bool {
	return w < 0
}

// Prop is a value's taint/role classification.
type Prop int

// Property lattice, in the same order the front-end visitor assigns it.
const (
	PropUnknown Prop = iota
	PropMasked
	PropPublic
	PropRandom
	PropConst
	PropSecret
	PropOutput
)

func (p Prop) String() string {
	switch p {
	case PropUnknown:
		return "UNK"
	case PropMasked:
		return "MASKED"
	case PropPublic:
		return "PUB"
	case PropRandom:
		return "RND"
	case PropConst:
		return "CST"
	case PropSecret:
		return "SECRET"
	case PropOutput:
		return "OUTPUT"
	default:
		return "UNK"
	}
}

// Decl is an opaque handle back to whatever declared a value (a front-end
// AST node, a synthesized declaration, or nil). The pipeline never inspects
// it; it only carries it through so diagnostics can point somewhere.
type Decl any

// Value is one entry of a Region's symbol table: a name, its bit width, its
// security property, and where it came from.
type Value struct {
	Name   string
	Width  Width
	Prop   Prop
	Origin Decl
}

// None is the zero Value, used to mark the absent rhs of a unary instruction.
var None = Value{}

// IsNone reports whether v is the absent-operand sentinel.
func (v Value) IsNone() bool {
	return v.Name == ""
}

// Hash mirrors the reference implementation's fallback identity: when a
// value still carries a real declaration it hashes that declaration,
// otherwise it falls back to the length of its name. This is only ever used
// to bucket values for debugging output, never for correctness.
func (v Value) Hash() int {
	if v.Origin != nil {
		return len(fmt.Sprintf("%p", v.Origin))
	}
	return len(v.Name)
}

// Op identifies an instruction's operator, including the four bookkeeping
// pseudo-ops the bit-blaster and emitter use to move values in and out of
// the per-bit decomposition.
type Op string

// Real operators.
const (
	OpAssign Op = "="
	OpXor    Op = "^"
	OpAnd    Op = "&"
	OpOr     Op = "|"
	OpNot    Op = "~"
	OpEq     Op = "=="
	OpLAnd   Op = "&&"
	OpLOr    Op = "||"
	OpLNot   Op = "!"
	OpAdd    Op = "+"
	OpSub    Op = "-"
	OpMul    Op = "*"
)

// Bookkeeping pseudo-ops, named after the reference implementation's own
// markers so a reader of the emitted source recognizes them immediately.
const (
	OpVarToZ3  Op = "/var=>z3/"
	OpZ3ToVar  Op = "/z3=>var/"
	OpClear    Op = "/clear/"
	OpComment  Op = "//"
	OpSep      Op = "//--"
)

// IsBitwise reports whether op decomposes into independent per-bit
// operations with no cross-bit carry, which is exactly the set the
// bit-blaster can expand without guessing a decoding policy.
func (op Op) IsBitwise() bool {
	switch op {
	case OpXor, OpAnd, OpOr, OpNot, OpLNot, OpEq, OpLAnd, OpLOr, OpAssign:
		return true
	default:
		return false
	}
}

// IsArithmetic reports whether op carries cross-bit dependencies that the
// bit-blaster refuses to guess a decoding for (see the Design Notes on
// arithmetic operators).
func (op Op) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul:
		return true
	default:
		return false
	}
}

// Instruction is one three-address statement: res = lhs op rhs, or for a
// unary op, res = op lhs (Rhs is the empty string).
type Instruction struct {
	Op      Op
	Res     string
	Lhs     string
	Rhs     string
	Comment string // optional trailing annotation, never parsed back in
}

// IsUnary reports whether this instruction has no rhs operand.
func (i Instruction) IsUnary() bool {
	return i.Rhs == ""
}

// IsMove reports whether this is a plain alias assignment (res = lhs).
func (i Instruction) IsMove() bool {
	return i.Op == OpAssign && i.Rhs == ""
}

// String renders the instruction the way it will appear in emitted source.
func (i Instruction) String() string {
	var b strings.Builder
	switch i.Op {
	case OpComment:
		b.WriteString("// ")
		b.WriteString(i.Comment)
		return b.String()
	case OpSep:
		return "//"
	case OpClear:
		fmt.Fprintf(&b, "%s = /clear/", i.Res)
	case OpZ3ToVar:
		fmt.Fprintf(&b, "%s = /z3=>var/ %s", i.Res, i.Lhs)
	case OpVarToZ3:
		fmt.Fprintf(&b, "/var=>z3/ %s = %s", i.Res, i.Lhs)
	default:
		if i.IsUnary() {
			fmt.Fprintf(&b, "%s = %s%s", i.Res, i.Op, i.Lhs)
		} else {
			fmt.Fprintf(&b, "%s = %s %s %s", i.Res, i.Lhs, i.Op, i.Rhs)
		}
	}
	if i.Comment != "" {
		fmt.Fprintf(&b, " // %s", i.Comment)
	}
	return b.String()
}

// SymbolTable maps a value's name to its declaration.
type SymbolTable map[string]Value

// NewSymbolTable returns an empty table.
func NewSymbolTable() SymbolTable {
	return make(SymbolTable)
}

// Declare adds or overwrites v's entry.
func (t SymbolTable) Declare(v Value) {
	t[v.Name] = v
}

// Lookup returns a value and whether it was declared.
func (t SymbolTable) Lookup(name string) (Value, bool) {
	v, ok := t[name]
	return v, ok
}

// Merge copies every entry of other into t, keeping t's own entry on a name
// collision (the concatenator relies on this: each region's locally minted
// random bits never collide with another region's by construction, but a
// caller merging user-declared symbols should resolve collisions before
// calling Merge).
func (t SymbolTable) Merge(other SymbolTable) {
	for name, v := range other {
		if _, exists := t[name]; !exists {
			t[name] = v
		}
	}
}

// Region is a straight-line sequence of instructions sharing one symbol
// table. The divider cuts a Region into one-instruction Regions; the
// collector and concatenator reassemble Regions back together.
type Region struct {
	Insts []Instruction
	Syms  SymbolTable
}

// NewRegion returns an empty region with a fresh symbol table.
func NewRegion() Region {
	return Region{Syms: NewSymbolTable()}
}

// Append adds an instruction in place.
func (r *Region) Append(i Instruction) {
	r.Insts = append(r.Insts, i)
}

// Dump renders every instruction, one per line, for debugging/logging.
func (r Region) Dump() string {
	var b strings.Builder
	for _, i := range r.Insts {
		b.WriteString(i.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// MaskedRegion pairs a masked Region with the variable names the masker
// recorded as its inputs and outputs, the unit the collector and
// concatenator operate on.
type MaskedRegion struct {
	Region  Region
	Inputs  []string
	Outputs []string
}

// Compiler owns the counters that must be reset between invocations: the
// random-bit id, the topological id, and the scratch-temp id the
// concatenator mints for its patch blocks. It is always constructed fresh per source function, mirroring the
// way the teacher's CPU state lives on a CPU instance rather than in package
// globals.
type Compiler struct {
	randomSeq int
	topoSeq   int
	tempSeq   int
}

// NewCompiler returns a Compiler with counters reset to their initial
// values. randomSeq starts at the reference implementation's ID_START=10 so
// that freshly minted random names never collide with a small handful of
// hand-written fixture names used in tests.
func NewCompiler() *Compiler {
	return &Compiler{randomSeq: 10}
}

// FreshRandom mints a new RND-property boolean value named "r<N>".
func (c *Compiler) FreshRandom() Value {
	name := fmt.Sprintf("r%d", c.randomSeq)
	c.randomSeq++
	return Value{Name: name, Width: BoolWidth, Prop: PropRandom}
}

// NextTopo returns the next topological-order id. The bit-blaster does not
// call it; it computes its own per-name topological index.
func (c *Compiler) NextTopo() int {
	id := c.topoSeq
	c.topoSeq++
	return id
}

// FreshTemp mints a scratch name ("t<N>") for an intermediate value that
// never appears in the symbol table's public surface.
func (c *Compiler) FreshTemp() string {
	name := fmt.Sprintf("t%d", c.tempSeq)
	c.tempSeq++
	return name
}
