// Package resolver implements the VAM2P two-pointer abstract machine:
// compiled-bytecode resolution with choice points, a binding trail, and
// cut. It interprets the instructions pkg/codegen produces rather than
// re-walking the original clause AST.
package resolver

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/vam2p/prolog/pkg/builtins"
	"github.com/vam2p/prolog/pkg/compiler"
	"github.com/vam2p/prolog/pkg/instr"
	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/term"
)

// QueryState is the resolver's lifecycle: running, choice-pushed, failed,
// succeeded, exhausted. ChoicePushed is never observable from outside:
// tryClauseFrom sets it while pushing a choice point and moves straight
// on to Running, never pausing on it.
type QueryState int

const (
	StateRunning QueryState = iota
	StateChoicePushed
	StateFailed
	StateSucceeded
	StateExhausted
)

func (s QueryState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateChoicePushed:
		return "choice-pushed"
	case StateFailed:
		return "failed"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// cursor is the machine's execution position, gip in the two-pointer
// scheme's naming: the frame currently executing and its next instruction
// offset.
type cursor struct {
	frame *Frame
	pos   int
}

// choicePoint is the classic `{gip_retry, hip_alt_clause, gfp_mark,
// hfp_mark, esp_mark, tsp_mark, prev_lcp}` record, adapted to this
// package's Frame-chain continuation model: resumeFrame/resumePos play
// gip_retry, clauses/nextIdx play hip_alt_clause, trailMark plays tsp_mark.
// There is no separate esp_mark: a Frame's per-activation Vars map is
// garbage whenever the Frame itself is unreachable, so nothing needs
// explicit truncation the way a real array-backed environment stack would.
type choicePoint struct {
	clauses     []*compiler.CompiledClause
	nextIdx     int
	args        []term.Term
	resumeFrame *Frame
	resumePos   int
	barrier     int
	trailMark   int
}

// Solution is one set of bindings for the query's own variables. Bindings
// is shared with the Machine that produced it, so it must be read (via
// term.Deref) before the next Next() call, which may mutate it while
// backtracking to search for another solution.
type Solution struct {
	Bindings *term.Bindings
	Vars     []*term.Variable
}

// Machine is one query's resolver state: one Bindings arena, one Trail, one
// choice-point stack. A Machine is not safe for concurrent use; each query
// gets its own instance.
type Machine struct {
	Program  *compiler.CodeMachine
	Names    *intern.Interner
	Reserved term.Reserved
	Bindings *term.Bindings
	Trail    *Trail
	Builtins builtins.Evaluator

	// MaxSteps bounds execution (0 = unlimited), mirroring
	// engine.Options.MaxSteps.
	MaxSteps int
	Logger   hclog.Logger

	cur          cursor
	state        QueryState
	choicePoints []*choicePoint
	vars         []*term.Variable
	steps        int
	queryFrame   *Frame
}

// New builds a Machine ready to Start a query against program.
func New(program *compiler.CodeMachine, names *intern.Interner, reserved term.Reserved, eval builtins.Evaluator) *Machine {
	return &Machine{
		Program:  program,
		Names:    names,
		Reserved: reserved,
		Bindings: term.NewBindings(64),
		Trail:    NewTrail(),
		Builtins: eval,
		Logger:   hclog.NewNullLogger(),
	}
}

// Start begins resolving goal (the query's top-level callable term). vars
// are the query's own variables, reported back on each Solution. Start
// itself never runs a single resolution step beyond the initial call
// dispatch; call Next to drive execution to the first solution.
//
// Unlike a clause's own variables (allocated lazily by Frame.resolveVar as
// compiled first_*/next_* instructions are read), the query's variables
// are ordinary *term.Variable values the caller built directly; nothing
// else ever allocates their Bindings slot, so Start does it here before
// anything can try to dereference or bind one.
func (m *Machine) Start(goal *term.Functor, vars []*term.Variable) error {
	m.vars = vars
	allocateFreeVars(m.Bindings, goal)
	return m.dispatchCall(goal.Name, goal.Args, nil, 0)
}

// StartQuery begins resolving a compiled, headless query clause (the
// result of compiler.Compile on a term.Clause with Head == nil and Body
// the query's own goal sequence). Unlike Start, it builds a root Frame
// directly over cc's instructions rather than going through dispatchCall:
// a query clause has no head to unify args against, and is never itself an
// alternative a choice point could retry, so tryClauseFrom's machinery does
// not apply to it. Call ResolveQueryVariable after a solution to read back
// bindings for the query's own surface variables.
func (m *Machine) StartQuery(cc *compiler.CompiledClause) {
	frame := newFrame(cc, nil, 0, 0)
	m.queryFrame = frame
	m.cur = cursor{frame: frame, pos: 0}
	m.state = StateRunning
}

// ResolveQueryVariable returns the runtime variable standing in for id
// within the most recently started query's root frame, the same renaming
// Frame.resolveVar applies to every other compiled variable occurrence.
func (m *Machine) ResolveQueryVariable(id intern.VarID) *term.Variable {
	return m.queryFrame.resolveVar(m, id)
}

// allocateFreeVars walks t, giving every *term.Variable with no slot yet a
// fresh one. A variable reused across multiple occurrences (the same Go
// value) is only ever visited once since its Slot is no longer NoSlot
// after the first.
func allocateFreeVars(bindings *term.Bindings, t term.Term) {
	switch v := t.(type) {
	case *term.Variable:
		if v.Slot == term.NoSlot {
			v.Slot = bindings.Alloc()
		}
	case *term.Functor:
		for _, a := range v.Args {
			allocateFreeVars(bindings, a)
		}
	}
}

// Next drives the machine to its next solution, or reports that the query
// is exhausted. A query already in StateSucceeded is forced to fail at its
// last choice point first, per the lifecycle above.
func (m *Machine) Next() (*Solution, bool, error) {
	if m.state == StateSucceeded {
		m.state = StateFailed
	}
	ok, err := m.run()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return &Solution{Bindings: m.Bindings, Vars: m.vars}, true, nil
}

// State reports the machine's current lifecycle state.
func (m *Machine) State() QueryState { return m.state }

// run drives execution until the query succeeds or is exhausted.
func (m *Machine) run() (bool, error) {
	for {
		switch m.state {
		case StateRunning, StateChoicePushed:
			if m.cur.frame == nil {
				m.state = StateSucceeded
				continue
			}
			if m.MaxSteps > 0 {
				m.steps++
				if m.steps > m.MaxSteps {
					return false, fmt.Errorf("%w: after %d steps", ErrMaxSteps, m.steps)
				}
			}
			if err := m.execOneStep(); err != nil {
				return false, err
			}
		case StateFailed:
			ok, err := m.backtrack()
			if err != nil {
				return false, err
			}
			if !ok {
				m.state = StateExhausted
				return false, nil
			}
		case StateSucceeded:
			return true, nil
		case StateExhausted:
			return false, nil
		}
	}
}

// execOneStep executes exactly one body-level step of the current frame:
// a clause's close (nogoal), a cut, or a goal call.
func (m *Machine) execOneStep() error {
	f := m.cur.frame
	code := f.Clause.Instructions
	pos := m.cur.pos

	// A rule's last body goal closes with lastcall and no trailing nogoal
	// (pkg/codegen only emits nogoal for a fact's empty body), so reaching
	// the end of the stream here is exactly equivalent to having just read
	// one, so it is handled the same way: resume this frame's continuation.
	if pos >= len(code) {
		m.returnFromFrame()
		return nil
	}

	switch ins := code[pos].(type) {
	case instr.NoGoal:
		m.returnFromFrame()
		return nil

	case instr.Cut:
		m.choicePoints = m.choicePoints[:f.CutBarrier]
		pos++
		if pos >= len(code) {
			return fmt.Errorf("%w: cut with no closing call/lastcall", ErrInternalInvariant)
		}
		switch code[pos].(type) {
		case instr.Call, instr.LastCall:
			pos++
		default:
			return fmt.Errorf("%w: expected call/lastcall after cut, got %T", ErrInternalInvariant, code[pos])
		}
		m.cur.pos = pos
		return nil

	case instr.Goal:
		pos++
		_, arity, err := m.Names.FunctorName(ins.Name)
		if err != nil {
			return fmt.Errorf("resolver: goal functor: %w", err)
		}
		args := make([]term.Term, arity)
		for i := range args {
			args[i], err = m.materialize(f, code, &pos)
			if err != nil {
				return err
			}
		}
		if pos >= len(code) {
			return fmt.Errorf("%w: goal with no closing call/lastcall", ErrInternalInvariant)
		}
		switch code[pos].(type) {
		case instr.Call, instr.LastCall:
			pos++
		default:
			return fmt.Errorf("%w: expected call/lastcall after goal, got %T", ErrInternalInvariant, code[pos])
		}
		return m.dispatchCall(ins.Name, args, f, pos)

	default:
		return fmt.Errorf("%w: unexpected instruction %T at body position", ErrInternalInvariant, ins)
	}
}

// returnFromFrame pops the current frame's continuation: resume the parent
// at its recorded position, or signal overall success if there is none.
func (m *Machine) returnFromFrame() {
	f := m.cur.frame
	if f.Parent == nil {
		m.cur = cursor{}
		return
	}
	m.cur = cursor{frame: f.Parent, pos: f.ResumePos}
}

// dispatchCall resolves one call, whether from a compiled Goal step,
// call/1's argument, or a query's own top-level goal: a reserved built-in
// is evaluated immediately; anything else is looked up as a user predicate.
// On return, m.state and m.cur describe the outcome (Running with a new
// cursor on success, Failed otherwise); the error return is reserved for
// conditions resolution failure does not cover (unknown predicate, a
// malformed instruction stream, a type/instantiation error from a
// built-in).
func (m *Machine) dispatchCall(name intern.FunctorID, args []term.Term, resumeFrame *Frame, resumePos int) error {
	if handled, err := m.tryBuiltin(name, args, resumeFrame, resumePos); handled || err != nil {
		return err
	}
	return m.callUserPredicate(name, len(args), args, resumeFrame, resumePos)
}

func (m *Machine) fail() {
	m.state = StateFailed
}

// callUserPredicate looks up (name, arity)'s clauses and tries them in
// load order, preserving the clause-order-is-solution-order property.
func (m *Machine) callUserPredicate(name intern.FunctorID, arity int, args []term.Term, resumeFrame *Frame, resumePos int) error {
	clauses := m.Program.ClausesFor(name, arity)
	if len(clauses) == 0 {
		nameStr, _, err := m.Names.FunctorName(name)
		if err != nil {
			nameStr = fmt.Sprintf("<functor %d>", name)
		}
		return fmt.Errorf("%w: %s/%d", ErrUnknownPredicate, nameStr, arity)
	}
	barrier := len(m.choicePoints)
	return m.tryClauseFrom(clauses, 0, args, resumeFrame, resumePos, barrier)
}

// tryClauseFrom attempts clauses[idx:] in order, committing to the first
// whose head unifies with args and pushing a choice point for the rest
// when more than one could have matched.
func (m *Machine) tryClauseFrom(clauses []*compiler.CompiledClause, idx int, args []term.Term, resumeFrame *Frame, resumePos, barrier int) error {
	mark := m.Trail.Mark()
	for i := idx; i < len(clauses); i++ {
		cc := clauses[i]
		frame := newFrame(cc, resumeFrame, resumePos, barrier)
		hip := 0
		matched := true
		for _, a := range args {
			ok, err := m.unifyArgAgainstHead(a, frame, cc.Instructions, &hip)
			if err != nil {
				return err
			}
			if !ok {
				matched = false
				break
			}
		}
		if matched {
			if i+1 < len(clauses) {
				m.choicePoints = append(m.choicePoints, &choicePoint{
					clauses: clauses, nextIdx: i + 1, args: args,
					resumeFrame: resumeFrame, resumePos: resumePos,
					barrier: barrier, trailMark: mark,
				})
				m.state = StateChoicePushed
			}
			m.cur = cursor{frame: frame, pos: hip}
			m.state = StateRunning
			return nil
		}
		m.Trail.Undo(m.Bindings, mark)
	}
	m.fail()
	return nil
}

// backtrack pops choice points until one yields a new attempt that
// succeeds (setting m.cur/m.state) or the stack is exhausted.
func (m *Machine) backtrack() (bool, error) {
	for len(m.choicePoints) > 0 {
		cp := m.choicePoints[len(m.choicePoints)-1]
		m.choicePoints = m.choicePoints[:len(m.choicePoints)-1]
		m.Trail.Undo(m.Bindings, cp.trailMark)

		if err := m.tryClauseFrom(cp.clauses, cp.nextIdx, cp.args, cp.resumeFrame, cp.resumePos, cp.barrier); err != nil {
			return false, err
		}
		if m.state != StateFailed {
			return true, nil
		}
	}
	return false, nil
}
