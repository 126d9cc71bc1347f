package resolver

import (
	"fmt"

	"github.com/vam2p/prolog/pkg/compiler"
	"github.com/vam2p/prolog/pkg/instr"
	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
)

// Frame is one clause activation. It plays the role of gfp/hfp (the current
// goal's and head's frame pointers): rather than an array offset into a
// shared environment stack, a Frame here is a renaming-apart environment (a
// map from the clause's compile-time VarIDs to this activation's own
// runtime variables), plus the continuation to resume when the clause's
// body is fully executed.
type Frame struct {
	Clause *compiler.CompiledClause
	Vars   map[intern.VarID]*term.Variable

	// Parent/ResumePos identify where to continue once this frame's body
	// finishes: position ResumePos within Parent's own instruction stream.
	// Parent == nil means finishing this frame completes the whole query.
	Parent    *Frame
	ResumePos int

	// CutBarrier is the choice-point stack height recorded when this
	// predicate call began (before any choice point for trying this call's
	// own alternative clauses was pushed). Cut truncates back to it.
	CutBarrier int
}

func newFrame(cc *compiler.CompiledClause, parent *Frame, resumePos, cutBarrier int) *Frame {
	return &Frame{
		Clause:     cc,
		Vars:       make(map[intern.VarID]*term.Variable),
		Parent:     parent,
		ResumePos:  resumePos,
		CutBarrier: cutBarrier,
	}
}

// resolveVar returns the runtime variable standing in for id within this
// activation, allocating a fresh Bindings slot and Variable the first time
// id is seen and reusing it for every later occurrence. This is what makes
// first_var/next_var (or first_temp/next_temp) pairs alias correctly.
func (f *Frame) resolveVar(m *Machine, id intern.VarID) *term.Variable {
	if v, ok := f.Vars[id]; ok {
		return v
	}
	v := term.NewVariable(symtab.NoKey, id, false)
	v.Slot = m.Bindings.Alloc()
	f.Vars[id] = v
	return v
}

// freshAnonymous returns a brand new variable that is never reused, for a
// Void instruction: anonymous variables never alias another occurrence.
func (f *Frame) freshAnonymous(m *Machine) *term.Variable {
	v := term.NewVariable(symtab.NoKey, 0, true)
	v.Slot = m.Bindings.Alloc()
	return v
}

// materialize reads one term's worth of instructions starting at *pos
// (recursing for a Struct's arguments) and returns the runtime term.Term it
// denotes, resolving variable occurrences through frame. It is the runtime
// counterpart of pkg/compiler's decompiler, built for execution rather than
// for reconstructing surface clauses.
func (m *Machine) materialize(frame *Frame, code []instr.Instr, pos *int) (term.Term, error) {
	if *pos >= len(code) {
		return nil, fmt.Errorf("%w: instruction stream ended while materializing a term", ErrInternalInvariant)
	}
	ins := code[*pos]
	*pos++

	switch v := ins.(type) {
	case instr.Atom:
		return term.NewFunctor(symtab.NoKey, v.Name), nil
	case instr.IntConst:
		return term.NewInt(symtab.NoKey, v.Value), nil
	case instr.RealConst:
		return term.NewReal(symtab.NoKey, v.Value), nil
	case instr.Struct:
		_, arity, err := m.Names.FunctorName(v.Name)
		if err != nil {
			return nil, fmt.Errorf("resolver: struct functor: %w", err)
		}
		args := make([]term.Term, arity)
		for i := range args {
			args[i], err = m.materialize(frame, code, pos)
			if err != nil {
				return nil, fmt.Errorf("resolver: struct arg %d: %w", i, err)
			}
		}
		return term.NewFunctor(symtab.NoKey, v.Name, args...), nil
	case instr.Void:
		return frame.freshAnonymous(m), nil
	case instr.FirstTemp:
		return frame.resolveVar(m, v.Var), nil
	case instr.NextTemp:
		return frame.resolveVar(m, v.Var), nil
	case instr.FirstVar:
		return frame.resolveVar(m, v.Var), nil
	case instr.NextVar:
		return frame.resolveVar(m, v.Var), nil
	default:
		return nil, fmt.Errorf("%w: unexpected instruction %T in term position", ErrInternalInvariant, ins)
	}
}

// unifyArgAgainstHead unifies goal (already belonging to the calling
// frame's environment) against the term described by code starting at
// *pos, advancing *pos past everything it consumes. The dispatch table
// gives a cheap mismatch short-circuit for concrete-vs-concrete kind pairs
// before paying for a full materialize of a head structure that could never
// have unified anyway; the authoritative comparison is always Unify itself.
func (m *Machine) unifyArgAgainstHead(goal term.Term, frame *Frame, code []instr.Instr, pos *int) (bool, error) {
	if *pos >= len(code) {
		return false, fmt.Errorf("%w: instruction stream ended during head unification", ErrInternalInvariant)
	}
	goal = term.Deref(m.Bindings, goal)
	ins := code[*pos]

	if headIsConcrete(ins) {
		gk := stepKind(goal)
		if v, ok := verdictFor(gk, ins.Kind()); ok && v == vMismatch {
			return false, nil
		}
	}

	headTerm, err := m.materialize(frame, code, pos)
	if err != nil {
		return false, err
	}
	return Unify(goal, headTerm, m.Bindings, m.Trail), nil
}
