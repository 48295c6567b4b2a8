/*
   rescmaskc - surface-syntax emitter

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

// Package emitter renders a final Region as surface source text: a function
// signature with every parameter defaulted to 0, local declarations for
// every non-parameter, non-RND symbol-table entry, one line per
// instruction, and a final return statement.
package emitter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rescmask/rescmaskc/ir"
)

// Sanitizer rewrites identifier characters the target surface syntax
// cannot carry. Loose mode folds everything to '_'; Strict substitutes the
// named replacements so the result stays legible.
type Sanitizer struct {
	Strict bool
}

// Sanitize rewrites name into a valid [A-Za-z0-9_]* identifier.
func (s Sanitizer) Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '#':
			if s.Strict {
				b.WriteString("_hash_")
			} else {
				b.WriteByte('_')
			}
		case r == '!':
			if s.Strict {
				b.WriteString("_not_")
			} else {
				b.WriteByte('_')
			}
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Emit renders name(params...) { ...region... return ret; } using the
// given sanitizer for every identifier.
func Emit(name string, params []string, r ir.Region, ret ir.Value, s Sanitizer) string {
	var b strings.Builder

	sanitizedParams := make([]string, len(params))
	for i, p := range params {
		sanitizedParams[i] = s.Sanitize(p)
	}
	fmt.Fprintf(&b, "bool %s(", s.Sanitize(name))
	for i, p := range sanitizedParams {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "bool %s=0", p)
	}
	b.WriteString(") {\n")

	isParam := make(map[string]bool, len(params))
	for _, p := range params {
		isParam[p] = true
	}

	locals := make([]string, 0, len(r.Syms))
	for name, v := range r.Syms {
		if isParam[name] || v.Prop == ir.PropRandom {
			continue
		}
		locals = append(locals, name)
	}
	sort.Strings(locals)
	for _, name := range locals {
		fmt.Fprintf(&b, "  bool %s;\n", s.Sanitize(name))
	}

	for _, inst := range r.Insts {
		b.WriteString("  ")
		b.WriteString(sanitizeInstruction(inst, s))
		if inst.Op != ir.OpComment && inst.Op != ir.OpSep {
			b.WriteString(";")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "  return %s;\n}\n", s.Sanitize(ret.Name))
	return b.String()
}

// sanitizeInstruction renders an instruction with every identifier
// sanitized, reusing Instruction.String for the operator-specific shape.
func sanitizeInstruction(inst ir.Instruction, s Sanitizer) string {
	sanitized := inst
	sanitized.Res = s.Sanitize(inst.Res)
	sanitized.Lhs = s.Sanitize(inst.Lhs)
	if inst.Rhs != "" {
		sanitized.Rhs = s.Sanitize(inst.Rhs)
	}
	text := sanitized.String()
	return strings.TrimSuffix(text, ";")
}
