package compiler

import (
	"fmt"

	"github.com/vam2p/prolog/pkg/instr"
	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
)

// Decompiler reconstructs a Clause from a linear VAM2P instruction stream.
// It needs the Interner that minted the stream's FunctorIDs/VarIDs, both to
// recover each struct/goal's arity (arity is not self-describing in a
// FunctorID) and to assign fresh, mutually distinct symbol keys to the
// rebuilt term nodes.
type Decompiler struct {
	Names  *intern.Interner
	Symtab *symtab.Table

	CutFunctor intern.FunctorID
	HasCut     bool
}

// NewDecompiler builds a Decompiler reading functor/variable names from
// names and minting fresh symbol keys from tbl.
func NewDecompiler(names *intern.Interner, tbl *symtab.Table) *Decompiler {
	return &Decompiler{Names: names, Symtab: tbl}
}

// SetCutFunctor mirrors Compiler.SetCutFunctor: Decompile needs the same id
// to rebuild a standalone Cut instruction back into the "!"/0 atom.
func (d *Decompiler) SetCutFunctor(id intern.FunctorID) {
	d.CutFunctor = id
	d.HasCut = true
}

// Decompile rebuilds the clause that produced code, given the externally
// tracked (name, arity) of its head: codegen never emits an instruction
// for the head functor itself, so that metadata must come from the
// CompiledClause it was compiled into, not from the stream.
//
// Two occurrences sharing a VarID (first_*/next_* pairs) become the same
// *term.Variable pointer in the result, so the rebuilt clause is
// structurally equal to the original modulo variable renaming, see
// Equivalent.
func (d *Decompiler) Decompile(name intern.FunctorID, arity int, isQuery bool, code []instr.Instr) (*term.Clause, error) {
	st := &decompileState{d: d, code: code, vars: make(map[intern.VarID]*term.Variable)}

	var head *term.Functor
	if !isQuery {
		args := make([]term.Term, arity)
		for i := range args {
			arg, err := st.readTerm()
			if err != nil {
				return nil, fmt.Errorf("compiler: decompile head arg %d: %w", i, err)
			}
			args[i] = arg
		}
		head = term.NewFunctor(d.freshKey(), name, args...)
	}

	body, err := st.readBody()
	if err != nil {
		return nil, fmt.Errorf("compiler: decompile body: %w", err)
	}

	return &term.Clause{Head: head, Body: body}, nil
}

func (d *Decompiler) freshKey() symtab.Key { return d.Symtab.GetSymbolKey(new(struct{})) }

type decompileState struct {
	d    *Decompiler
	code []instr.Instr
	pos  int
	vars map[intern.VarID]*term.Variable
}

func (s *decompileState) next() (instr.Instr, error) {
	if s.pos >= len(s.code) {
		return nil, fmt.Errorf("compiler: instruction stream ended unexpectedly")
	}
	ins := s.code[s.pos]
	s.pos++
	return ins, nil
}

// readBody consumes goal/arg.../call-or-lastcall groups until lastcall (or
// nogoal, for an empty body).
func (s *decompileState) readBody() ([]*term.Functor, error) {
	var body []*term.Functor
	for {
		ins, err := s.next()
		if err != nil {
			return nil, err
		}
		if _, ok := ins.(instr.NoGoal); ok {
			return body, nil
		}
		if _, ok := ins.(instr.Cut); ok {
			if !s.d.HasCut {
				return nil, fmt.Errorf("compiler: encountered Cut but no cut functor was configured")
			}
			body = append(body, term.NewFunctor(s.d.freshKey(), s.d.CutFunctor))
			closing, err := s.next()
			if err != nil {
				return nil, err
			}
			switch closing.(type) {
			case instr.LastCall:
				return body, nil
			case instr.Call:
				continue
			default:
				return nil, fmt.Errorf("compiler: expected call or lastcall after cut, got %T", closing)
			}
		}
		goal, ok := ins.(instr.Goal)
		if !ok {
			return nil, fmt.Errorf("compiler: expected goal, cut or nogoal, got %T", ins)
		}

		_, arity, err := s.d.Names.FunctorName(goal.Name)
		if err != nil {
			return nil, fmt.Errorf("compiler: goal functor: %w", err)
		}
		args := make([]term.Term, arity)
		for i := range args {
			arg, err := s.readTerm()
			if err != nil {
				return nil, fmt.Errorf("compiler: goal arg %d: %w", i, err)
			}
			args[i] = arg
		}
		body = append(body, term.NewFunctor(s.d.freshKey(), goal.Name, args...))

		closing, err := s.next()
		if err != nil {
			return nil, err
		}
		switch closing.(type) {
		case instr.LastCall:
			return body, nil
		case instr.Call:
			continue
		default:
			return nil, fmt.Errorf("compiler: expected call or lastcall, got %T", closing)
		}
	}
}

// readTerm consumes one term and its recursively nested argument
// instructions, returning the rebuilt term.
func (s *decompileState) readTerm() (term.Term, error) {
	ins, err := s.next()
	if err != nil {
		return nil, err
	}

	switch v := ins.(type) {
	case instr.Atom:
		return term.NewFunctor(s.d.freshKey(), v.Name), nil
	case instr.IntConst:
		return term.NewInt(s.d.freshKey(), v.Value), nil
	case instr.RealConst:
		return term.NewReal(s.d.freshKey(), v.Value), nil
	case instr.Struct:
		_, arity, err := s.d.Names.FunctorName(v.Name)
		if err != nil {
			return nil, fmt.Errorf("compiler: struct functor: %w", err)
		}
		args := make([]term.Term, arity)
		for i := range args {
			args[i], err = s.readTerm()
			if err != nil {
				return nil, fmt.Errorf("compiler: struct arg %d: %w", i, err)
			}
		}
		return term.NewFunctor(s.d.freshKey(), v.Name, args...), nil
	case instr.Void:
		return term.NewVariable(s.d.freshKey(), s.d.Names.InternFreshVariable("_"), true), nil
	case instr.FirstTemp:
		return s.bindVar(v.Var), nil
	case instr.NextTemp:
		return s.reuseVar(v.Var)
	case instr.FirstVar:
		return s.bindVar(v.Var), nil
	case instr.NextVar:
		return s.reuseVar(v.Var)
	default:
		return nil, fmt.Errorf("compiler: unexpected instruction %T in term position", ins)
	}
}

func (s *decompileState) bindVar(id intern.VarID) *term.Variable {
	v := term.NewVariable(s.d.freshKey(), id, false)
	s.vars[id] = v
	return v
}

func (s *decompileState) reuseVar(id intern.VarID) (*term.Variable, error) {
	v, ok := s.vars[id]
	if !ok {
		return nil, fmt.Errorf("compiler: next_* occurrence of variable %d before any first_*", id)
	}
	return v, nil
}
