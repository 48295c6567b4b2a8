package ir

import "testing"

func TestCompilerFreshRandomStartsAtTen(t *testing.T) {
	c := NewCompiler()
	r1 := c.FreshRandom()
	if r1.Name != "r10" {
		t.Errorf("first FreshRandom() = %q, want %q", r1.Name, "r10")
	}
	if r1.Prop != PropRandom {
		t.Errorf("FreshRandom() Prop = %v, want PropRandom", r1.Prop)
	}
	r2 := c.FreshRandom()
	if r2.Name != "r11" {
		t.Errorf("second FreshRandom() = %q, want %q", r2.Name, "r11")
	}
}

func TestCompilerFreshTempAndTopoIndependent(t *testing.T) {
	c := NewCompiler()
	if got := c.FreshTemp(); got != "t0" {
		t.Errorf("FreshTemp() = %q, want %q", got, "t0")
	}
	if got := c.FreshTemp(); got != "t1" {
		t.Errorf("FreshTemp() = %q, want %q", got, "t1")
	}
	if got := c.NextTopo(); got != 0 {
		t.Errorf("NextTopo() = %d, want 0", got)
	}
	if got := c.NextTopo(); got != 1 {
		t.Errorf("NextTopo() = %d, want 1", got)
	}
}

func TestSymbolTableMergeKeepsExisting(t *testing.T) {
	dst := NewSymbolTable()
	dst.Declare(Value{Name: "a", Width: BoolWidth, Prop: PropPublic})
	src := NewSymbolTable()
	src.Declare(Value{Name: "a", Width: BoolWidth, Prop: PropSecret})
	src.Declare(Value{Name: "b", Width: BoolWidth, Prop: PropRandom})

	dst.Merge(src)

	a, _ := dst.Lookup("a")
	if a.Prop != PropPublic {
		t.Errorf("Merge() overwrote existing entry: Prop = %v, want PropPublic", a.Prop)
	}
	if _, ok := dst.Lookup("b"); !ok {
		t.Error("Merge() did not copy new entry \"b\"")
	}
}

func TestInstructionStringBinary(t *testing.T) {
	inst := Instruction{Op: OpXor, Res: "t", Lhs: "a", Rhs: "b"}
	want := "t = a ^ b"
	if got := inst.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestInstructionStringUnary(t *testing.T) {
	inst := Instruction{Op: OpNot, Res: "t", Lhs: "a"}
	want := "t = ~a"
	if got := inst.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if !inst.IsUnary() {
		t.Error("IsUnary() = false, want true")
	}
}

func TestInstructionIsMove(t *testing.T) {
	move := Instruction{Op: OpAssign, Res: "t", Lhs: "a"}
	if !move.IsMove() {
		t.Error("IsMove() = false, want true")
	}
	notMove := Instruction{Op: OpAssign, Res: "t", Lhs: "a", Rhs: "b"}
	if notMove.IsMove() {
		t.Error("IsMove() = true, want false for an instruction carrying rhs")
	}
}

func TestOpClassification(t *testing.T) {
	bitwise := []Op{OpXor, OpAnd, OpOr, OpNot, OpLNot, OpEq, OpLAnd, OpLOr, OpAssign}
	for _, op := range bitwise {
		if !op.IsBitwise() {
			t.Errorf("%q.IsBitwise() = false, want true", op)
		}
		if op.IsArithmetic() {
			t.Errorf("%q.IsArithmetic() = true, want false", op)
		}
	}
	arith := []Op{OpAdd, OpSub, OpMul}
	for _, op := range arith {
		if !op.IsArithmetic() {
			t.Errorf("%q.IsArithmetic() = false, want true", op)
		}
		if op.IsBitwise() {
			t.Errorf("%q.IsBitwise() = true, want false", op)
		}
	}
}

func TestWidthBitsAndSigned(t *testing.T) {
	if Width(8).Bits() != 8 {
		t.Errorf("Width(8).Bits() = %d, want 8", Width(8).Bits())
	}
	if Width(-8).Bits() != 8 {
		t.Errorf("Width(-8).Bits() = %d, want 8", Width(-8).Bits())
	}
	if Width(-8).Signed() != true {
		t.Error("Width(-8).Signed() = false, want true")
	}
	if Width(8).Signed() != false {
		t.Error("Width(8).Signed() = true, want false")
	}
}

func TestValueIsNone(t *testing.T) {
	if !None.IsNone() {
		t.Error("None.IsNone() = false, want true")
	}
	v := Value{Name: "a"}
	if v.IsNone() {
		t.Error("IsNone() = true for a named value, want false")
	}
}

func TestRegionAppendAndDump(t *testing.T) {
	r := NewRegion()
	r.Append(Instruction{Op: OpXor, Res: "t", Lhs: "a", Rhs: "b"})
	if len(r.Insts) != 1 {
		t.Fatalf("len(Insts) = %d, want 1", len(r.Insts))
	}
	want := "t = a ^ b\n"
	if got := r.Dump(); got != want {
		t.Errorf("Dump() = %q, want %q", got, want)
	}
}
