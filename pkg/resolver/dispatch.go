package resolver

import (
	"github.com/vam2p/prolog/pkg/instr"
	"github.com/vam2p/prolog/pkg/term"
)

// verdict coarsely classifies a (goal-step-kind, head-instruction-kind)
// pair: the "read the opcode at hip and at gip, dispatch by the sum"
// mechanism, adapted to a runtime goal argument instead of a second
// compiled instruction stream, since the goal side's Kind is projected from
// the dereferenced runtime term (see stepKind) rather than read off a
// second CompiledClause.
//
// Head-instruction kinds that denote a variable occurrence (first_*/next_*)
// are resolved through the active Frame before this table is ever
// consulted (see Machine.unifyArgAgainstHead), since which action applies
// depends on per-activation state (has this VarID been seen yet?) the table
// cannot express as a pure function of two Kinds.
type verdict int

const (
	vUnknown verdict = iota
	vMismatch
	vAtomEq
	vIntEq
	vRealEq
	vStructRecurse
	vAlwaysMatch // head side is void, or goal side is an open variable
)

var dispatchTable = buildDispatchTable()

func buildDispatchTable() map[instr.Op]verdict {
	table := make(map[instr.Op]verdict)
	set := func(goalKind, headKind instr.Kind, v verdict) {
		table[instr.OpOf(goalKind)+instr.OpOf(headKind)] = v
	}

	concrete := []instr.Kind{instr.KindAtom, instr.KindInt, instr.KindReal, instr.KindStruct}
	for _, gk := range concrete {
		for _, hk := range concrete {
			if gk != hk {
				set(gk, hk, vMismatch)
				continue
			}
			switch gk {
			case instr.KindAtom:
				set(gk, hk, vAtomEq)
			case instr.KindInt:
				set(gk, hk, vIntEq)
			case instr.KindReal:
				set(gk, hk, vRealEq)
			case instr.KindStruct:
				set(gk, hk, vStructRecurse)
			}
		}
		set(gk, instr.KindVoid, vAlwaysMatch)
		// Generic "goal side is an open variable" uses KindFirstVar as its
		// projection (see stepKind); it always matches a concrete head.
		set(instr.KindFirstVar, gk, vAlwaysMatch)
	}
	set(instr.KindFirstVar, instr.KindVoid, vAlwaysMatch)

	return table
}

// verdictFor looks up the coarse action for a (goal, head) kind pair.
func verdictFor(goalKind, headKind instr.Kind) (verdict, bool) {
	v, ok := dispatchTable[instr.OpOf(goalKind)+instr.OpOf(headKind)]
	return v, ok
}

// stepKind projects an already-dereferenced runtime term onto the
// instr.Kind space so it can be compared against a compiled head
// instruction's Kind. An open (unbound) variable is projected to
// KindFirstVar, used generically here as "an open variable", without
// regard to first/next occurrence: that distinction only matters for
// codegen's storage-class choice, not for resolution semantics.
func stepKind(t term.Term) instr.Kind {
	switch v := t.(type) {
	case *term.Functor:
		if v.IsAtom() {
			return instr.KindAtom
		}
		return instr.KindStruct
	case term.Int:
		return instr.KindInt
	case term.Real:
		return instr.KindReal
	case *term.Variable:
		return instr.KindFirstVar
	default:
		return instr.KindVoid
	}
}

// headIsConcrete reports whether ins is one of the kinds the dispatch table
// covers (as opposed to a variable occurrence or a control instruction that
// should never appear in argument position).
func headIsConcrete(ins instr.Instr) bool {
	switch ins.Kind() {
	case instr.KindAtom, instr.KindInt, instr.KindReal, instr.KindStruct:
		return true
	default:
		return false
	}
}
