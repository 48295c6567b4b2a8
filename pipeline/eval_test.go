package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rescmask/rescmaskc/ir"
)

// bitIndex extracts the trailing "#N" bit index the bit-blaster encodes into
// a per-bit name, e.g. bitIndex("t#3") == (3, true).
func bitIndex(name string) (int, bool) {
	i := strings.LastIndexByte(name, '#')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(name[i+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// evalRegion is a small bit-level interpreter over the 3AIR a masked Region
// is made of. It exists purely to let tests check functional equivalence and
// first-order masking by brute-force enumeration instead of trusting
// instruction counts: boolInputs seeds single-bit values directly, intInputs
// seeds the full-width integer value of any parameter the bit-blaster later
// decomposes with /var=>z3/ and reassembles with /clear/ + /z3=>var/.
func evalRegion(r ir.Region, boolInputs map[string]bool, intInputs map[string]int) (map[string]bool, map[string]int, error) {
	bools := make(map[string]bool, len(boolInputs))
	for k, v := range boolInputs {
		bools[k] = v
	}
	ints := make(map[string]int, len(intInputs))
	for k, v := range intInputs {
		ints[k] = v
	}

	for _, inst := range r.Insts {
		switch inst.Op {
		case ir.OpComment, ir.OpSep:
			continue
		case ir.OpVarToZ3:
			idx, ok := bitIndex(inst.Res)
			if !ok {
				return nil, nil, fmt.Errorf("evalRegion: /var=>z3/ result %q has no bit index", inst.Res)
			}
			bools[inst.Res] = (ints[inst.Lhs]>>idx)&1 == 1
		case ir.OpZ3ToVar:
			idx, ok := bitIndex(inst.Lhs)
			if !ok {
				return nil, nil, fmt.Errorf("evalRegion: /z3=>var/ operand %q has no bit index", inst.Lhs)
			}
			if bools[inst.Lhs] {
				ints[inst.Res] |= 1 << idx
			}
		case ir.OpClear:
			ints[inst.Res] = 0
		case ir.OpAssign:
			if inst.IsMove() {
				bools[inst.Res] = bools[inst.Lhs]
			}
		case ir.OpNot, ir.OpLNot:
			bools[inst.Res] = !bools[inst.Lhs]
		case ir.OpXor:
			bools[inst.Res] = bools[inst.Lhs] != bools[inst.Rhs]
		case ir.OpAnd, ir.OpLAnd:
			bools[inst.Res] = bools[inst.Lhs] && bools[inst.Rhs]
		case ir.OpOr, ir.OpLOr:
			bools[inst.Res] = bools[inst.Lhs] || bools[inst.Rhs]
		case ir.OpEq:
			bools[inst.Res] = bools[inst.Lhs] == bools[inst.Rhs]
		default:
			return nil, nil, fmt.Errorf("evalRegion: unsupported op %q", inst.Op)
		}
	}
	return bools, ints, nil
}

// randomNames returns every PropRandom symbol in syms, in a stable order.
func randomNames(syms ir.SymbolTable) []string {
	var names []string
	for name, v := range syms {
		if v.Prop == ir.PropRandom {
			names = append(names, name)
		}
	}
	sortStrings(names)
	return names
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// enumerateBools returns every assignment of the given names to {false,
// true}, 2^len(names) of them. Only used with small random-bit counts (the
// gadget library spends at most 6 fresh random bits per operator, for OR),
// so the exhaustive enumeration stays cheap.
func enumerateBools(names []string) []map[string]bool {
	n := len(names)
	out := make([]map[string]bool, 0, 1<<uint(n))
	for mask := 0; mask < (1 << uint(n)); mask++ {
		m := make(map[string]bool, n)
		for i, name := range names {
			m[name] = mask&(1<<uint(i)) != 0
		}
		out = append(out, m)
	}
	return out
}

// firstOperandRandom finds the instruction that defines resName and returns
// whichever of its operands is a random bit, per syms.
func firstOperandRandom(r ir.Region, syms ir.SymbolTable, resName string) (string, bool) {
	for _, inst := range r.Insts {
		if inst.Res != resName {
			continue
		}
		if v, ok := syms.Lookup(inst.Lhs); ok && v.Prop == ir.PropRandom {
			return inst.Lhs, true
		}
		if v, ok := syms.Lookup(inst.Rhs); ok && v.Prop == ir.PropRandom {
			return inst.Rhs, true
		}
	}
	return "", false
}
