/*
   rescmaskc - front-end parser

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

// Package frontend reads a small C-dialect function body — parameter
// declarations, local declarations, straight-line three-address
// assignments and a single return — and produces the (Region, SymbolTable,
// return ValueInfo) triple the pipeline consumes.
//
// Grammar:
//
//	func   := <type> <name> '(' [param (',' param)*] ')' '{' stmt* 'return' <name> ';' '}'
//	param  := <type> ['*'] <name>
//	stmt   := <type> <name> ';' | <name> '=' <expr> ';'
//	expr   := <name> <binop> <name> | <unop> <name> | <name>
//	binop  := '^' | '&' | '|' | '==' | '&&' | '||' | '+' | '-' | '*'
//	unop   := '!' | '~'
package frontend

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/rescmask/rescmaskc/ir"
	"github.com/rescmask/rescmaskc/rescerr"
)

const stage = "frontend"

// Function is what the parser hands to the pipeline for one source
// function: its body Region (with symbol table), the original parameter
// order, and the return value.
type Function struct {
	Name    string
	Params  []string
	Region  ir.Region
	Return  ir.Value
}

// widths recognizes the uintN/intN family; anything else defaults to 1.
var widths = map[string]ir.Width{
	"bool":  1,
	"uint2": 2, "uint8": 8, "uint16": 16, "uint32": 32, "uint64": 64,
	"int2": -2, "int8": -8, "int16": -16, "int32": -32, "int64": -64,
}

func widthOf(typeName string) ir.Width {
	if w, ok := widths[typeName]; ok {
		return w
	}
	return 1
}

// propOf classifies a parameter name per the external interface contract:
// a leading 'r' marks RND, 'k' marks SECRET, anything else PUB; a pointer
// type marks OUTPUT regardless of name.
func propOf(name string, pointer bool) ir.Prop {
	if pointer {
		return ir.PropOutput
	}
	switch {
	case strings.HasPrefix(name, "r"):
		return ir.PropRandom
	case strings.HasPrefix(name, "k"):
		return ir.PropSecret
	default:
		return ir.PropPublic
	}
}

// cursor is a cursor-over-string scanner, the same shape the rest of this
// codebase's hand-rolled lexers use.
type cursor struct {
	src string
	pos int
}

func (c *cursor) skipSpace() {
	for c.pos < len(c.src) && unicode.IsSpace(rune(c.src[c.pos])) {
		c.pos++
	}
}

func (c *cursor) peek() byte {
	if c.pos >= len(c.src) {
		return 0
	}
	return c.src[c.pos]
}

func (c *cursor) eof() bool {
	c.skipSpace()
	return c.pos >= len(c.src)
}

// getIdent reads a [A-Za-z_][A-Za-z0-9_]* identifier.
func (c *cursor) getIdent() string {
	c.skipSpace()
	start := c.pos
	for c.pos < len(c.src) && (unicode.IsLetter(rune(c.src[c.pos])) || unicode.IsDigit(rune(c.src[c.pos])) || c.src[c.pos] == '_') {
		c.pos++
	}
	return c.src[start:c.pos]
}

// expect consumes tok (after skipping space) or returns an error.
func (c *cursor) expect(tok string) error {
	c.skipSpace()
	if !strings.HasPrefix(c.src[c.pos:], tok) {
		return rescerr.New(rescerr.KindInput, stage, "expected "+tok+" near \""+c.context()+"\"")
	}
	c.pos += len(tok)
	return nil
}

func (c *cursor) context() string {
	end := c.pos + 16
	if end > len(c.src) {
		end = len(c.src)
	}
	return c.src[c.pos:end]
}

// getOp reads one of the recognized binary/unary operator tokens, longest
// match first so "==" is not mistaken for two '='.
var binOps = []string{"==", "&&", "||", "^", "&", "|", "+", "-", "*"}
var unOps = []string{"!", "~"}

func (c *cursor) tryOp(ops []string) (ir.Op, bool) {
	c.skipSpace()
	for _, op := range ops {
		if strings.HasPrefix(c.src[c.pos:], op) {
			c.pos += len(op)
			return ir.Op(op), true
		}
	}
	return "", false
}

// Parse reads one function body from src.
func Parse(src string) (Function, error) {
	c := &cursor{src: src}
	fn := Function{Region: ir.NewRegion()}

	retType := c.getIdent()
	if retType == "" {
		return Function{}, rescerr.New(rescerr.KindInput, stage, "expected return type")
	}
	fn.Name = c.getIdent()
	if fn.Name == "" {
		return Function{}, rescerr.New(rescerr.KindInput, stage, "expected function name")
	}

	if err := c.expect("("); err != nil {
		return Function{}, err
	}
	c.skipSpace()
	if c.peek() != ')' {
		for {
			paramType := c.getIdent()
			if paramType == "" {
				return Function{}, rescerr.New(rescerr.KindInput, stage, "expected parameter type")
			}
			c.skipSpace()
			pointer := false
			if c.peek() == '*' {
				pointer = true
				c.pos++
			}
			name := c.getIdent()
			if name == "" {
				return Function{}, rescerr.New(rescerr.KindInput, stage, "expected parameter name")
			}
			if _, reserved := fn.Region.Syms.Lookup(name); reserved {
				return Function{}, rescerr.New(rescerr.KindInput, stage, "duplicate parameter "+name)
			}
			if reservedName(name) {
				return Function{}, rescerr.New(rescerr.KindInput, stage, "parameter name "+name+" collides with a reserved prefix")
			}
			fn.Region.Syms.Declare(ir.Value{Name: name, Width: widthOf(paramType), Prop: propOf(name, pointer)})
			fn.Params = append(fn.Params, name)
			c.skipSpace()
			if c.peek() == ',' {
				c.pos++
				continue
			}
			break
		}
	}
	if err := c.expect(")"); err != nil {
		return Function{}, err
	}
	if err := c.expect("{"); err != nil {
		return Function{}, err
	}

	for {
		c.skipSpace()
		if strings.HasPrefix(c.src[c.pos:], "return") {
			c.pos += len("return")
			name := c.getIdent()
			if name == "" {
				return Function{}, rescerr.New(rescerr.KindInput, stage, "non-DeclRef return value")
			}
			if err := c.expect(";"); err != nil {
				return Function{}, err
			}
			v, ok := fn.Region.Syms.Lookup(name)
			if !ok {
				return Function{}, rescerr.New(rescerr.KindInput, stage, "return of undeclared name "+name)
			}
			v.Prop = ir.PropOutput
			isParam := false
			for _, p := range fn.Params {
				if p == name {
					isParam = true
				}
			}
			// A returned parameter keeps its input classification in the
			// symbol table; only the Return value carries OUTPUT.
			if !isParam {
				fn.Region.Syms.Declare(v)
			}
			fn.Return = v
			break
		}

		if decl, ok := tryDecl(c); ok {
			if reservedName(decl.Name) {
				return Function{}, rescerr.New(rescerr.KindInput, stage, "local "+decl.Name+" collides with a reserved prefix")
			}
			fn.Region.Syms.Declare(decl)
			continue
		}

		inst, err := parseStmt(c, fn.Region.Syms)
		if err != nil {
			return Function{}, err
		}
		fn.Region.Append(inst)
	}

	c.skipSpace()
	if err := c.expect("}"); err != nil {
		return Function{}, err
	}
	return fn, nil
}

// reservedName rejects any input identifier that collides with a name the
// pipeline mints for itself (fresh random bits, scratch temporaries, and
// every name ending in one of the suffixes the masker's templates append to
// an instruction's result name). It does not
// reject every "r<digits>" name: ID_START=10 (ir.go's NewCompiler) leaves
// r1..r9 free precisely so hand-written random-bit parameters can coexist
// with minted r10, r11, ...; only the minted namespace is reserved here.
func reservedName(name string) bool {
	if len(name) > 1 && name[0] == 'r' && isDigits(name[1:]) {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 10 {
			return true
		}
	}
	if len(name) > 1 && name[0] == 't' && isDigits(name[1:]) {
		return true
	}
	reservedSuffixes := []string{
		"xormA", "xormB", "xormT", "xormR", "xormT_", "xormTr3", "xormC",
		"notmA", "notmT",
		"andmA", "andmB", "andneg1", "andneg2", "andr2",
		"andtmp1", "andtmp2", "andtmp3", "andtmp4", "andtmp5", "andtmp6",
		"ornA", "ornB", "orand",
	}
	for _, s := range reservedSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
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

// tryDecl attempts "<type> <name> ;" at the cursor, restoring position on
// failure so the caller can try a statement instead.
func tryDecl(c *cursor) (ir.Value, bool) {
	save := c.pos
	typeName := c.getIdent()
	if _, known := widths[typeName]; !known {
		c.pos = save
		return ir.Value{}, false
	}
	name := c.getIdent()
	if name == "" {
		c.pos = save
		return ir.Value{}, false
	}
	c.skipSpace()
	if c.peek() != ';' {
		c.pos = save
		return ir.Value{}, false
	}
	c.pos++
	return ir.Value{Name: name, Width: widthOf(typeName), Prop: ir.PropUnknown}, true
}

func parseStmt(c *cursor, syms ir.SymbolTable) (ir.Instruction, error) {
	res := c.getIdent()
	if res == "" {
		return ir.Instruction{}, rescerr.New(rescerr.KindInput, stage, "expected assignment near \""+c.context()+"\"")
	}
	if err := c.expect("="); err != nil {
		return ir.Instruction{}, err
	}

	c.skipSpace()
	if op, ok := c.tryOp(unOps); ok {
		lhs := c.getIdent()
		if err := c.expect(";"); err != nil {
			return ir.Instruction{}, err
		}
		return ir.Instruction{Op: op, Res: res, Lhs: lhs}, nil
	}

	lhs := c.getIdent()
	if lhs == "" {
		return ir.Instruction{}, rescerr.New(rescerr.KindInput, stage, "assignment RHS is not a binary/unary/ref expression")
	}
	c.skipSpace()
	if op, ok := c.tryOp(binOps); ok {
		rhs := c.getIdent()
		if err := c.expect(";"); err != nil {
			return ir.Instruction{}, err
		}
		return ir.Instruction{Op: op, Res: res, Lhs: lhs, Rhs: rhs}, nil
	}
	if err := c.expect(";"); err != nil {
		return ir.Instruction{}, err
	}
	return ir.Instruction{Op: ir.OpAssign, Res: res, Lhs: lhs}, nil
}
