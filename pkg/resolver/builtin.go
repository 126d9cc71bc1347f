package resolver

import (
	"fmt"

	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/term"
)

// tryBuiltin evaluates name/len(args) if it is one of the reserved control
// or arithmetic predicates, setting m.cur/m.state for the outcome exactly
// as callUserPredicate would. It reports handled=false for anything else,
// leaving dispatchCall to fall through to the clause database.
//
// This is the package's one deliberate scope boundary: ','/2 and ';'/2 are
// not given control-construct semantics here (a body's top-level
// conjunction is already sequenced by the compiled Call/LastCall chain
// pkg/codegen emits, and a nested ','/2 or ';'/2 discovered inside a
// dynamically constructed call/1 or not/1 argument falls through to
// callUserPredicate, where it has no clauses and reports
// ErrUnknownPredicate rather than being interpreted).
func (m *Machine) tryBuiltin(name intern.FunctorID, args []term.Term, resumeFrame *Frame, resumePos int) (bool, error) {
	r := m.Reserved

	switch name {
	case r.True:
		m.succeed(resumeFrame, resumePos)
		return true, nil

	case r.Fail:
		m.fail()
		return true, nil

	case r.Unify:
		if Unify(args[0], args[1], m.Bindings, m.Trail) {
			m.succeed(resumeFrame, resumePos)
		} else {
			m.fail()
		}
		return true, nil

	case r.NotUnify:
		mark := m.Trail.Mark()
		ok := Unify(args[0], args[1], m.Bindings, m.Trail)
		m.Trail.Undo(m.Bindings, mark)
		if ok {
			m.fail()
		} else {
			m.succeed(resumeFrame, resumePos)
		}
		return true, nil

	case r.Is:
		value, err := m.Builtins.Eval(args[1], m.Bindings)
		if err != nil {
			return true, err
		}
		if Unify(args[0], value, m.Bindings, m.Trail) {
			m.succeed(resumeFrame, resumePos)
		} else {
			m.fail()
		}
		return true, nil

	case r.Lt, r.Le, r.Gt, r.Ge:
		ok, err := m.Builtins.Compare(name, args[0], args[1], m.Bindings)
		if err != nil {
			return true, err
		}
		if ok {
			m.succeed(resumeFrame, resumePos)
		} else {
			m.fail()
		}
		return true, nil

	case r.IntegerP, r.FloatP, r.VarP:
		if m.Builtins.TypeCheck(name, args[0], m.Bindings) {
			m.succeed(resumeFrame, resumePos)
		} else {
			m.fail()
		}
		return true, nil

	case r.Call:
		return true, m.handleCall(args[0], resumeFrame, resumePos)

	case r.Not:
		ok, err := m.prove(args[0])
		if err != nil {
			return true, err
		}
		if ok {
			m.fail()
		} else {
			m.succeed(resumeFrame, resumePos)
		}
		return true, nil

	default:
		return false, nil
	}
}

func (m *Machine) succeed(resumeFrame *Frame, resumePos int) {
	m.cur = cursor{frame: resumeFrame, pos: resumePos}
	m.state = StateRunning
}

// handleCall implements call/1: its argument, once dereferenced, must be a
// callable functor, dispatched exactly as a compiled Goal step would be,
// including full choice-point semantics if it names a user predicate with
// more than one matching clause.
func (m *Machine) handleCall(goal term.Term, resumeFrame *Frame, resumePos int) error {
	goal = term.Deref(m.Bindings, goal)
	f, ok := goal.(*term.Functor)
	if !ok {
		return fmt.Errorf("%w: call/1 argument must be callable, got %T", ErrType, goal)
	}
	return m.dispatchCall(f.Name, f.Args, resumeFrame, resumePos)
}

// prove determines whether goal has at least one solution, used by not/1's
// negation-as-failure. It runs goal to its first solution (or exhaustion)
// in an independent choice-point stack so the outer query's own
// choicePoints are never touched, then unconditionally undoes every
// binding the attempt made: not/1 never leaves bindings behind on success
// or failure, matching classical negation-as-failure semantics.
func (m *Machine) prove(goal term.Term) (bool, error) {
	goal = term.Deref(m.Bindings, goal)
	f, ok := goal.(*term.Functor)
	if !ok {
		return false, fmt.Errorf("%w: not/1 argument must be callable, got %T", ErrType, goal)
	}

	mark := m.Trail.Mark()
	defer m.Trail.Undo(m.Bindings, mark)

	sub := &Machine{
		Program:  m.Program,
		Names:    m.Names,
		Reserved: m.Reserved,
		Bindings: m.Bindings,
		Trail:    m.Trail,
		Builtins: m.Builtins,
		MaxSteps: m.MaxSteps,
		Logger:   m.Logger,
	}
	if err := sub.dispatchCall(f.Name, f.Args, nil, 0); err != nil {
		return false, err
	}
	ok, err := sub.run()
	if err != nil {
		return false, err
	}
	return ok, nil
}
