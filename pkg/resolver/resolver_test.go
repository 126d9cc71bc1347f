package resolver_test

import (
	"testing"

	"github.com/vam2p/prolog/pkg/builtins"
	"github.com/vam2p/prolog/pkg/compiler"
	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/resolver"
	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
	"github.com/vam2p/prolog/pkg/traverse"
)

// testProgram wires together an Interner with the reserved names
// registered, a fresh symbol table, and a linked CodeMachine, mirroring
// the pipeline pkg/engine will eventually assemble.
type testProgram struct {
	t        *testing.T
	in       *intern.Interner
	tbl      *symtab.Table
	reserved term.Reserved
	compiler *compiler.Compiler
	code     *compiler.CodeMachine
	keySeq   int
}

func newTestProgram(t *testing.T) *testProgram {
	t.Helper()
	in := intern.New()
	reserved, err := term.RegisterReserved(in)
	if err != nil {
		t.Fatalf("RegisterReserved: %v", err)
	}
	tbl := symtab.New()
	c := compiler.New(tbl, traverse.DefaultFlags())
	c.SetCutFunctor(reserved.Cut)

	return &testProgram{
		t: t, in: in, tbl: tbl, reserved: reserved,
		compiler: c, code: compiler.NewCodeMachine(),
	}
}

func (p *testProgram) key(hint string) symtab.Key {
	p.keySeq++
	return p.tbl.GetSymbolKey(hint)
}

func (p *testProgram) functor(name string, arity int) intern.FunctorID {
	id, err := p.in.InternFunctor(name, arity)
	if err != nil {
		p.t.Fatalf("InternFunctor(%s/%d): %v", name, arity, err)
	}
	return id
}

func (p *testProgram) atom(name string) term.Term {
	return term.NewFunctor(p.key(name), p.functor(name, 0))
}

func (p *testProgram) variable(name string) *term.Variable {
	return term.NewVariable(p.key(name), p.in.InternVariable(name), false)
}

func (p *testProgram) compound(name string, args ...term.Term) *term.Functor {
	return term.NewFunctor(p.key(name), p.functor(name, len(args)), args...)
}

// load compiles clause and links it into the program's CodeMachine.
func (p *testProgram) load(clause *term.Clause) {
	p.t.Helper()
	cc, err := p.compiler.Compile(clause)
	if err != nil {
		p.t.Fatalf("Compile: %v", err)
	}
	p.code.Link(cc)
}

func (p *testProgram) machine() *resolver.Machine {
	return resolver.New(p.code, p.in, p.reserved, builtins.New(p.reserved))
}

func TestFactLookupSucceeds(t *testing.T) {
	p := newTestProgram(t)
	p.load(&term.Clause{Head: p.compound("likes", p.atom("tom"), p.atom("jerry"))})

	m := p.machine()
	if err := m.Start(p.compound("likes", p.atom("tom"), p.atom("jerry")), nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, ok, err := m.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !ok {
		t.Fatalf("expected a solution, got none")
	}
	_, ok, err = m.Next()
	if err != nil {
		t.Fatalf("Next (2nd): %v", err)
	}
	if ok {
		t.Fatalf("expected exhaustion after the single fact, got another solution")
	}
}

func TestFactLookupFailsOnMismatch(t *testing.T) {
	p := newTestProgram(t)
	p.load(&term.Clause{Head: p.compound("likes", p.atom("tom"), p.atom("jerry"))})

	m := p.machine()
	if err := m.Start(p.compound("likes", p.atom("tom"), p.atom("spike")), nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, ok, err := m.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ok {
		t.Fatalf("expected no solution for a mismatched fact")
	}
}

// grandparent program:
//   parent(tom, bob).
//   parent(tom, liz).
//   parent(bob, ann).
//   grandparent(X, Z) :- parent(X, Y), parent(Y, Z).
func loadGrandparent(p *testProgram) {
	parent := func(a, b string) *term.Clause {
		return &term.Clause{Head: p.compound("parent", p.atom(a), p.atom(b))}
	}
	p.load(parent("tom", "bob"))
	p.load(parent("tom", "liz"))
	p.load(parent("bob", "ann"))

	x, y, z := p.variable("X"), p.variable("Y"), p.variable("Z")
	gpHead := p.compound("grandparent", x, z)
	body := []*term.Functor{
		p.compound("parent", x, y),
		p.compound("parent", y, z),
	}
	p.load(&term.Clause{Head: gpHead, Body: body})
}

func TestBacktracksAcrossClausesAndVariableBindings(t *testing.T) {
	p := newTestProgram(t)
	loadGrandparent(p)

	w := p.variable("W")
	m := p.machine()
	goal := p.compound("grandparent", p.atom("tom"), w)
	if err := m.Start(goal, []*term.Variable{w}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	sol, ok, err := m.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !ok {
		t.Fatalf("expected a solution")
	}
	bound := term.Deref(sol.Bindings, sol.Vars[0])
	f, isFunctor := bound.(*term.Functor)
	if !isFunctor || !f.IsAtom() {
		t.Fatalf("expected W bound to an atom, got %#v", bound)
	}
	name, _, err := p.in.FunctorName(f.Name)
	if err != nil {
		t.Fatalf("FunctorName: %v", err)
	}
	if name != "ann" {
		t.Fatalf("expected W = ann, got %s", name)
	}

	_, ok, err = m.Next()
	if err != nil {
		t.Fatalf("Next (2nd): %v", err)
	}
	if ok {
		t.Fatalf("expected exactly one grandchild of tom, got a second solution")
	}
}

// Disjunction-with-cut scenario from the resolver's testable properties:
// f(x) :- !, true.
// f(y).
// ?- f(X).  must succeed exactly once, with X = x.
func TestCutPreventsBacktrackingIntoSiblingClause(t *testing.T) {
	p := newTestProgram(t)

	cutAtom := term.NewFunctor(p.key("cut"), p.reserved.Cut)
	trueAtom := term.NewFunctor(p.key("true"), p.reserved.True)
	p.load(&term.Clause{
		Head: p.compound("f", p.atom("x")),
		Body: []*term.Functor{cutAtom, trueAtom},
	})
	p.load(&term.Clause{Head: p.compound("f", p.atom("y"))})

	qx := p.variable("X")
	m := p.machine()
	if err := m.Start(p.compound("f", qx), []*term.Variable{qx}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	sol, ok, err := m.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !ok {
		t.Fatalf("expected a solution")
	}
	bound := term.Deref(sol.Bindings, sol.Vars[0]).(*term.Functor)
	name, _, _ := p.in.FunctorName(bound.Name)
	if name != "x" {
		t.Fatalf("expected X = x, got %s", name)
	}

	_, ok, err = m.Next()
	if err != nil {
		t.Fatalf("Next (2nd): %v", err)
	}
	if ok {
		t.Fatalf("cut should have discarded the f(y) alternative")
	}
}

// double(X, Y) :- Y is X * 2.
// ?- double(21, Y).
func TestIsEvaluatesArithmetic(t *testing.T) {
	p := newTestProgram(t)

	xh, yh := p.variable("X"), p.variable("Y")
	isGoal := p.compound("is", yh,
		p.compound("*", xh, term.NewInt(p.key("two"), 2)))
	p.load(&term.Clause{
		Head: p.compound("double", xh, yh),
		Body: []*term.Functor{isGoal},
	})

	y := p.variable("Y")
	m := p.machine()
	goal := p.compound("double", term.NewInt(p.key("21"), 21), y)
	if err := m.Start(goal, []*term.Variable{y}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sol, ok, err := m.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !ok {
		t.Fatalf("expected a solution")
	}
	bound := term.Deref(sol.Bindings, sol.Vars[0])
	i, isInt := bound.(term.Int)
	if !isInt || i.Value != 42 {
		t.Fatalf("expected Y = 42, got %#v", bound)
	}
}

// even(X) :- X mod 2 is handled via not(odd(X)).
// odd(1). odd(3).
// ?- not(odd(2)) succeeds; ?- not(odd(1)) fails.
func TestNotIsNegationAsFailure(t *testing.T) {
	p := newTestProgram(t)
	p.load(&term.Clause{Head: p.compound("odd", term.NewInt(p.key("1"), 1))})
	p.load(&term.Clause{Head: p.compound("odd", term.NewInt(p.key("3"), 3))})

	notOddGoal := func(n int64) *term.Functor {
		return p.compound("not", p.compound("odd", term.NewInt(p.key("n"), n)))
	}

	m := p.machine()
	if err := m.Start(notOddGoal(2), nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, ok, err := m.Next(); err != nil || !ok {
		t.Fatalf("expected not(odd(2)) to succeed, ok=%v err=%v", ok, err)
	}

	m2 := p.machine()
	if err := m2.Start(notOddGoal(1), nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, ok, err := m2.Next(); err != nil || ok {
		t.Fatalf("expected not(odd(1)) to fail, ok=%v err=%v", ok, err)
	}
}

func TestUnknownPredicateIsAnError(t *testing.T) {
	p := newTestProgram(t)
	m := p.machine()
	if err := m.Start(p.compound("nosuchpredicate", p.atom("a")), nil); err == nil {
		t.Fatalf("expected an error dispatching an unknown predicate")
	}
}
