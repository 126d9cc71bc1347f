package annotate_test

import (
	"testing"

	"github.com/vam2p/prolog/pkg/annotate"
	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
	"github.com/vam2p/prolog/pkg/traverse"
)

// f(X, a) :- g(X).
// X occurs once in the head and once in the (only, hence last) body goal,
// so it should come out temporary; the atom `a` should come out ground and
// the functor `f(X, a)` non-ground because X is never known to be bound.
func buildClause(t *testing.T) (*term.Clause, *symtab.Table) {
	t.Helper()
	in := intern.New()
	tbl := symtab.New()
	key := func(hint string) symtab.Key { return tbl.GetSymbolKey(hint) }

	fID, _ := in.InternFunctor("f", 2)
	gID, _ := in.InternFunctor("g", 1)
	aID, _ := in.InternFunctor("a", 0)
	xID := in.InternVariable("X")

	xInHead := term.NewVariable(key("x-head"), xID, false)
	a := term.NewFunctor(key("a-atom"), aID)
	head := term.NewFunctor(key("head"), fID, xInHead, a)

	xInBody := term.NewVariable(key("x-body"), xID, false)
	g := term.NewFunctor(key("g-goal"), gID, xInBody)

	return &term.Clause{Head: head, Body: []*term.Functor{g}}, tbl
}

func TestVariableTemporaryWhenAllOccurrencesDeterminate(t *testing.T) {
	clause, tbl := buildClause(t)
	a := annotate.New(tbl)
	if err := a.Annotate(clause, traverse.DefaultFlags()); err != nil {
		t.Fatalf("Annotate: %v", err)
	}

	xID := clause.Head.Args[0].(*term.Variable).Name
	raw, ok, err := tbl.Get(tbl.GetSymbolKey(xID), annotate.FieldVarDomain)
	if err != nil || !ok {
		t.Fatalf("expected varDomain for head X, got ok=%v err=%v", ok, err)
	}
	vd := raw.(annotate.VarDomain)
	if !vd.Temporary {
		t.Fatalf("expected X to be temporary (head + last-body occurrences only)")
	}
}

func TestVariableNotTemporaryWhenAnEarlierBodyOccurrenceExists(t *testing.T) {
	in := intern.New()
	tbl := symtab.New()
	key := func(hint string) symtab.Key { return tbl.GetSymbolKey(hint) }

	fID, _ := in.InternFunctor("f", 1)
	gID, _ := in.InternFunctor("g", 1)
	hID, _ := in.InternFunctor("h", 1)
	xID := in.InternVariable("X")

	head := term.NewFunctor(key("head"), fID, term.NewVariable(key("x-head"), xID, false))
	g := term.NewFunctor(key("g-goal"), gID, term.NewVariable(key("x-g"), xID, false))
	h := term.NewFunctor(key("h-goal"), hID, term.NewVariable(key("x-h"), xID, false))
	clause := &term.Clause{Head: head, Body: []*term.Functor{g, h}}

	a := annotate.New(tbl)
	if err := a.Annotate(clause, traverse.DefaultFlags()); err != nil {
		t.Fatalf("Annotate: %v", err)
	}

	raw, _, _ := tbl.Get(tbl.GetSymbolKey(xID), annotate.FieldVarDomain)
	vd := raw.(annotate.VarDomain)
	if vd.Temporary {
		t.Fatalf("expected X to NOT be temporary: it occurs in g/1, a non-last body goal with a choice point behind it")
	}
}

func TestGroundnessFoldsBottomUp(t *testing.T) {
	clause, tbl := buildClause(t)
	a := annotate.New(tbl)
	if err := a.Annotate(clause, traverse.DefaultFlags()); err != nil {
		t.Fatalf("Annotate: %v", err)
	}

	atomKey := clause.Head.Args[1].Key()
	raw, ok, _ := tbl.Get(atomKey, annotate.FieldTermDomain)
	if !ok || !raw.(annotate.TermDomain).Ground {
		t.Fatalf("expected the atom `a` to be ground")
	}

	headRaw, ok, _ := tbl.Get(clause.Head.Key(), annotate.FieldTermDomain)
	if !ok {
		t.Fatalf("expected head functor to have a termDomain entry")
	}
	if headRaw.(annotate.TermDomain).Ground {
		t.Fatalf("expected f(X, a) to be non-ground because X is never bound")
	}
}
