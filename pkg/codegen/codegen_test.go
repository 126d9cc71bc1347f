package codegen_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vam2p/prolog/pkg/annotate"
	"github.com/vam2p/prolog/pkg/codegen"
	"github.com/vam2p/prolog/pkg/instr"
	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
	"github.com/vam2p/prolog/pkg/traverse"
)

// f(x). is a fact: one atom argument, empty body.
func TestFactEmitsConstAndNoGoal(t *testing.T) {
	in := intern.New()
	tbl := symtab.New()
	key := func(h string) symtab.Key { return tbl.GetSymbolKey(h) }

	fID, _ := in.InternFunctor("f", 1)
	xID, _ := in.InternFunctor("x", 0)
	head := term.NewFunctor(key("head"), fID, term.NewFunctor(key("x"), xID))
	clause := &term.Clause{Head: head}

	if err := annotate.New(tbl).Annotate(clause, traverse.DefaultFlags()); err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	code, err := codegen.New(tbl).Generate(clause, traverse.DefaultFlags())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := []instr.Instr{instr.Atom{Name: xID}, instr.NoGoal{}}
	assertEqual(t, code, want)
}

// f(X) :- g(X), h(X). X occurs in a non-last body goal (g/1), so it is
// NOT temporary: a choice point could still be pushed there before control
// ever reaches h/1, so its binding must be trailed.
func TestRuleEmitsGoalCallLastcallAndVarForms(t *testing.T) {
	in := intern.New()
	tbl := symtab.New()
	key := func(h string) symtab.Key { return tbl.GetSymbolKey(h) }

	fID, _ := in.InternFunctor("f", 1)
	gID, _ := in.InternFunctor("g", 1)
	hID, _ := in.InternFunctor("h", 1)
	xID := in.InternVariable("X")

	head := term.NewFunctor(key("head"), fID, term.NewVariable(key("x-head"), xID, false))
	g := term.NewFunctor(key("g-goal"), gID, term.NewVariable(key("x-g"), xID, false))
	h := term.NewFunctor(key("h-goal"), hID, term.NewVariable(key("x-h"), xID, false))
	clause := &term.Clause{Head: head, Body: []*term.Functor{g, h}}

	if err := annotate.New(tbl).Annotate(clause, traverse.DefaultFlags()); err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	code, err := codegen.New(tbl).Generate(clause, traverse.DefaultFlags())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := []instr.Instr{
		instr.FirstVar{Var: xID}, // head argument, first occurrence, non-temp
		instr.Goal{Name: gID},
		instr.NextVar{Var: xID},
		instr.Call{},
		instr.Goal{Name: hID},
		instr.NextVar{Var: xID},
		instr.LastCall{},
	}
	assertEqual(t, code, want)
}

// f(X) :- g(X). X's only body occurrence is the last (and only) body
// goal, so it IS temporary.
func TestSoleLastBodyOccurrenceIsTemporary(t *testing.T) {
	in := intern.New()
	tbl := symtab.New()
	key := func(h string) symtab.Key { return tbl.GetSymbolKey(h) }

	fID, _ := in.InternFunctor("f", 1)
	gID, _ := in.InternFunctor("g", 1)
	xID := in.InternVariable("X")

	head := term.NewFunctor(key("head"), fID, term.NewVariable(key("x-head"), xID, false))
	g := term.NewFunctor(key("g-goal"), gID, term.NewVariable(key("x-g"), xID, false))
	clause := &term.Clause{Head: head, Body: []*term.Functor{g}}

	if err := annotate.New(tbl).Annotate(clause, traverse.DefaultFlags()); err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	code, err := codegen.New(tbl).Generate(clause, traverse.DefaultFlags())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := []instr.Instr{
		instr.FirstTemp{Var: xID},
		instr.Goal{Name: gID},
		instr.NextTemp{Var: xID},
		instr.LastCall{},
	}
	assertEqual(t, code, want)
}

func TestAnonymousVariableEmitsVoid(t *testing.T) {
	in := intern.New()
	tbl := symtab.New()
	key := func(h string) symtab.Key { return tbl.GetSymbolKey(h) }

	fID, _ := in.InternFunctor("f", 1)
	anon := in.InternFreshVariable("_")
	head := term.NewFunctor(key("head"), fID, term.NewVariable(key("anon"), anon, true))
	clause := &term.Clause{Head: head}

	if err := annotate.New(tbl).Annotate(clause, traverse.DefaultFlags()); err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	code, err := codegen.New(tbl).Generate(clause, traverse.DefaultFlags())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := []instr.Instr{instr.Void{}, instr.NoGoal{}}
	assertEqual(t, code, want)
}

func assertEqual(t *testing.T, got, want []instr.Instr) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("generated instructions mismatch (-want +got):\n%s", diff)
	}
}
