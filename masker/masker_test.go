package masker

import (
	"testing"

	"github.com/rescmask/rescmaskc/ir"
)

func oneInst(inst ir.Instruction, syms ir.SymbolTable) ir.Region {
	r := ir.Region{Syms: syms}
	r.Append(inst)
	return r
}

func newSyms(names ...string) ir.SymbolTable {
	s := ir.NewSymbolTable()
	for _, n := range names {
		s.Declare(ir.Value{Name: n, Width: ir.BoolWidth, Prop: ir.PropPublic})
	}
	return s
}

func TestMaskXorGadgetIsFiveInstructions(t *testing.T) {
	c := ir.NewCompiler()
	r := oneInst(ir.Instruction{Op: ir.OpXor, Res: "t", Lhs: "a", Rhs: "b"}, newSyms("a", "b"))

	out, ins, outs, err := Gadget{}.Mask(r, c)
	if err != nil {
		t.Fatalf("Mask() error: %v", err)
	}
	if len(out.Insts) != 5 {
		t.Fatalf("len(Insts) = %d, want 5", len(out.Insts))
	}
	if len(ins) != 2 || ins[0] != "a" || ins[1] != "b" {
		t.Errorf("inputs = %v, want [a b]", ins)
	}
	if len(outs) != 1 || outs[0] != "t" {
		t.Errorf("outputs = %v, want [t]", outs)
	}
	last := out.Insts[len(out.Insts)-1]
	if last.Res != "t" {
		t.Errorf("final instruction writes %q, want \"t\"", last.Res)
	}
}

func TestMaskNotGadgetIsThreeInstructions(t *testing.T) {
	c := ir.NewCompiler()
	r := oneInst(ir.Instruction{Op: ir.OpNot, Res: "t", Lhs: "a"}, newSyms("a"))

	out, ins, outs, err := Gadget{}.Mask(r, c)
	if err != nil {
		t.Fatalf("Mask() error: %v", err)
	}
	if len(out.Insts) != 3 {
		t.Fatalf("len(Insts) = %d, want 3", len(out.Insts))
	}
	if len(ins) != 1 || ins[0] != "a" {
		t.Errorf("inputs = %v, want [a]", ins)
	}
	if len(outs) != 1 || outs[0] != "t" {
		t.Errorf("outputs = %v, want [t]", outs)
	}
}

func TestMaskAndGadgetIsTwelveInstructions(t *testing.T) {
	c := ir.NewCompiler()
	r := oneInst(ir.Instruction{Op: ir.OpAnd, Res: "t", Lhs: "a", Rhs: "b"}, newSyms("a", "b"))

	out, _, _, err := Gadget{}.Mask(r, c)
	if err != nil {
		t.Fatalf("Mask() error: %v", err)
	}
	if len(out.Insts) != 12 {
		t.Fatalf("len(Insts) = %d, want 12", len(out.Insts))
	}
	wantOps := []ir.Op{
		ir.OpXor, ir.OpXor,
		ir.OpNot, ir.OpAnd, ir.OpNot,
		ir.OpAnd, ir.OpAnd, ir.OpNot,
		ir.OpOr, ir.OpOr,
		ir.OpXor, ir.OpXor,
	}
	for i, op := range wantOps {
		if out.Insts[i].Op != op {
			t.Errorf("Insts[%d].Op = %q, want %q", i, out.Insts[i].Op, op)
		}
	}
	last := out.Insts[len(out.Insts)-1]
	if last.Res != "t" {
		t.Errorf("final instruction writes %q, want \"t\"", last.Res)
	}
}

func TestMaskAndGadgetInternalOrsAreNotRecursivelyMasked(t *testing.T) {
	c := ir.NewCompiler()
	r := oneInst(ir.Instruction{Op: ir.OpAnd, Res: "t", Lhs: "a", Rhs: "b"}, newSyms("a", "b"))

	out, _, _, err := Gadget{}.Mask(r, c)
	if err != nil {
		t.Fatalf("Mask() error: %v", err)
	}
	orCount := 0
	for _, inst := range out.Insts {
		if inst.Op == ir.OpOr {
			orCount++
		}
	}
	if orCount != 2 {
		t.Errorf("OR instruction count in AND gadget = %d, want 2 (plain, not recursively masked)", orCount)
	}
}

func TestMaskEqGadgetIsEightInstructions(t *testing.T) {
	c := ir.NewCompiler()
	r := oneInst(ir.Instruction{Op: ir.OpEq, Res: "t", Lhs: "a", Rhs: "b"}, newSyms("a", "b"))

	out, _, _, err := Gadget{}.Mask(r, c)
	if err != nil {
		t.Fatalf("Mask() error: %v", err)
	}
	if len(out.Insts) != 8 {
		t.Fatalf("len(Insts) = %d, want 8", len(out.Insts))
	}
	if out.Insts[5].Op != ir.OpXor || out.Insts[6].Op != ir.OpNot || out.Insts[7].Op != ir.OpXor {
		t.Errorf("unexpected NOT-chain tail shape: %v %v %v", out.Insts[5].Op, out.Insts[6].Op, out.Insts[7].Op)
	}
}

func TestMaskOrGadgetRecursesThroughMiniPipeline(t *testing.T) {
	c := ir.NewCompiler()
	r := oneInst(ir.Instruction{Op: ir.OpOr, Res: "t", Lhs: "a", Rhs: "b"}, newSyms("a", "b"))

	out, ins, outs, err := Gadget{}.Mask(r, c)
	if err != nil {
		t.Fatalf("Mask() error: %v", err)
	}
	if len(out.Insts) == 0 {
		t.Fatal("OR gadget produced no instructions")
	}
	if len(ins) != 2 || ins[0] != "a" || ins[1] != "b" {
		t.Errorf("inputs = %v, want [a b]", ins)
	}
	if len(outs) != 1 || outs[0] != "t" {
		t.Errorf("outputs = %v, want [t]", outs)
	}
	// De Morgan expansion is NOT/NOT/AND/NOT: three NOT gadgets and one AND
	// gadget (3+3+12+3) fully masked plus the divider's separators.
	if len(out.Insts) < 3+3+12+3 {
		t.Errorf("len(Insts) = %d, want at least %d (3 NOT gadgets folded with one AND gadget)", len(out.Insts), 3+3+12+3)
	}
}

func TestMaskLogicalAliasesDispatchLikeBitwise(t *testing.T) {
	c := ir.NewCompiler()
	land := oneInst(ir.Instruction{Op: ir.OpLAnd, Res: "t", Lhs: "a", Rhs: "b"}, newSyms("a", "b"))
	out, _, _, err := Gadget{}.Mask(land, c)
	if err != nil {
		t.Fatalf("Mask(&&) error: %v", err)
	}
	if len(out.Insts) != 12 {
		t.Errorf("&& gadget len(Insts) = %d, want 12 (same as &)", len(out.Insts))
	}

	lor := oneInst(ir.Instruction{Op: ir.OpLOr, Res: "t", Lhs: "a", Rhs: "b"}, newSyms("a", "b"))
	out, _, _, err = Gadget{}.Mask(lor, ir.NewCompiler())
	if err != nil {
		t.Fatalf("Mask(||) error: %v", err)
	}
	if len(out.Insts) == 0 {
		t.Error("|| gadget produced no instructions")
	}

	lnot := oneInst(ir.Instruction{Op: ir.OpLNot, Res: "t", Lhs: "a"}, newSyms("a"))
	out, _, _, err = Gadget{}.Mask(lnot, ir.NewCompiler())
	if err != nil {
		t.Fatalf("Mask(!) error: %v", err)
	}
	if len(out.Insts) != 3 {
		t.Errorf("! gadget len(Insts) = %d, want 3 (same as ~)", len(out.Insts))
	}
}

func TestMaskMoveIsPassthrough(t *testing.T) {
	c := ir.NewCompiler()
	r := oneInst(ir.Instruction{Op: ir.OpAssign, Res: "t", Lhs: "a"}, newSyms("a"))

	out, ins, outs, err := Gadget{}.Mask(r, c)
	if err != nil {
		t.Fatalf("Mask() error: %v", err)
	}
	if len(out.Insts) != 1 {
		t.Fatalf("len(Insts) = %d, want 1", len(out.Insts))
	}
	if len(ins) != 1 || ins[0] != "a" {
		t.Errorf("inputs = %v, want [a]", ins)
	}
	if len(outs) != 1 || outs[0] != "t" {
		t.Errorf("outputs = %v, want [t]", outs)
	}
}

func TestMaskUnsupportedOperatorIsRejected(t *testing.T) {
	c := ir.NewCompiler()
	r := oneInst(ir.Instruction{Op: ir.OpAdd, Res: "t", Lhs: "a", Rhs: "b"}, newSyms("a", "b"))

	_, _, _, err := Gadget{}.Mask(r, c)
	if err == nil {
		t.Error("Mask() on an arithmetic operator should be rejected, got nil error")
	}
}

func TestMaskPassesThroughDividerSeparator(t *testing.T) {
	c := ir.NewCompiler()
	r := ir.Region{Syms: newSyms("a", "b")}
	r.Append(ir.Instruction{Op: ir.OpXor, Res: "t", Lhs: "a", Rhs: "b"})
	r.Append(ir.Instruction{Op: ir.OpSep})

	out, ins, outs, err := Gadget{}.Mask(r, c)
	if err != nil {
		t.Fatalf("Mask() error: %v", err)
	}
	if len(ins) != 2 || len(outs) != 1 {
		t.Errorf("ins/outs = %v/%v, want 2/1 even with a trailing separator", ins, outs)
	}
	last := out.Insts[len(out.Insts)-1]
	if last.Op != ir.OpSep {
		t.Errorf("last instruction op = %q, want the trailing separator preserved", last.Op)
	}
	if len(out.Insts) != 6 {
		t.Fatalf("len(Insts) = %d, want 6 (5-instruction xor gadget + separator)", len(out.Insts))
	}
}

func TestMaskRejectsTrailingNonSeparator(t *testing.T) {
	c := ir.NewCompiler()
	r := ir.Region{Syms: newSyms("a", "b")}
	r.Append(ir.Instruction{Op: ir.OpXor, Res: "t0", Lhs: "a", Rhs: "b"})
	r.Append(ir.Instruction{Op: ir.OpNot, Res: "t1", Lhs: "t0"})

	_, _, _, err := Gadget{}.Mask(r, c)
	if err == nil {
		t.Error("Mask() with a non-separator second instruction should be rejected, got nil error")
	}
}

func TestMaskRejectsMultiInstructionRegion(t *testing.T) {
	c := ir.NewCompiler()
	r := ir.Region{Syms: newSyms("a", "b")}
	r.Append(ir.Instruction{Op: ir.OpXor, Res: "t0", Lhs: "a", Rhs: "b"})
	r.Append(ir.Instruction{Op: ir.OpNot, Res: "t1", Lhs: "t0"})

	_, _, _, err := Gadget{}.Mask(r, c)
	if err == nil {
		t.Error("Mask() on a multi-instruction region should be rejected, got nil error")
	}
}
