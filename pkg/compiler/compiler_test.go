package compiler_test

import (
	"testing"

	"github.com/vam2p/prolog/pkg/compiler"
	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
	"github.com/vam2p/prolog/pkg/traverse"
)

// buildRule builds: f(X, a) :- g(X), h(X).
func buildRule(t *testing.T) (*term.Clause, *intern.Interner, *symtab.Table) {
	t.Helper()
	in := intern.New()
	tbl := symtab.New()
	key := func(h string) symtab.Key { return tbl.GetSymbolKey(h) }

	fID, _ := in.InternFunctor("f", 2)
	gID, _ := in.InternFunctor("g", 1)
	hID, _ := in.InternFunctor("h", 1)
	aID, _ := in.InternFunctor("a", 0)
	xID := in.InternVariable("X")

	head := term.NewFunctor(key("head"), fID,
		term.NewVariable(key("x-head"), xID, false),
		term.NewFunctor(key("a-atom"), aID),
	)
	g := term.NewFunctor(key("g-goal"), gID, term.NewVariable(key("x-g"), xID, false))
	h := term.NewFunctor(key("h-goal"), hID, term.NewVariable(key("x-h"), xID, false))

	return &term.Clause{Head: head, Body: []*term.Functor{g, h}}, in, tbl
}

func TestCompileThenDecompileIsEquivalent(t *testing.T) {
	clause, in, tbl := buildRule(t)

	c := compiler.New(tbl, traverse.DefaultFlags())
	cc, err := c.Compile(clause)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	d := compiler.NewDecompiler(in, symtab.New())
	got, err := d.Decompile(cc.Name, cc.Arity, cc.IsQuery, cc.Instructions)
	if err != nil {
		t.Fatalf("Decompile: %v", err)
	}

	if !compiler.ClauseEquivalent(clause, got) {
		t.Fatalf("decompiled clause not equivalent to original:\norig: %+v\ngot:  %+v", clause, got)
	}
}

func TestCompileThenDecompileFact(t *testing.T) {
	in := intern.New()
	tbl := symtab.New()
	key := func(h string) symtab.Key { return tbl.GetSymbolKey(h) }

	fID, _ := in.InternFunctor("f", 1)
	xID, _ := in.InternFunctor("x", 0)
	head := term.NewFunctor(key("head"), fID, term.NewFunctor(key("x"), xID))
	clause := &term.Clause{Head: head}

	c := compiler.New(tbl, traverse.DefaultFlags())
	cc, err := c.Compile(clause)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	d := compiler.NewDecompiler(in, symtab.New())
	got, err := d.Decompile(cc.Name, cc.Arity, cc.IsQuery, cc.Instructions)
	if err != nil {
		t.Fatalf("Decompile: %v", err)
	}
	if !compiler.ClauseEquivalent(clause, got) {
		t.Fatalf("decompiled fact not equivalent to original:\norig: %+v\ngot:  %+v", clause, got)
	}
}

func TestCodeMachineLinksInOrderAndIndexesFirstEntry(t *testing.T) {
	in := intern.New()
	tbl := symtab.New()
	key := func(h string) symtab.Key { return tbl.GetSymbolKey(h) }
	fID, _ := in.InternFunctor("f", 1)
	aID, _ := in.InternFunctor("a", 0)
	bID, _ := in.InternFunctor("b", 0)

	c1 := &term.Clause{Head: term.NewFunctor(key("h1"), fID, term.NewFunctor(key("a"), aID))}
	c2 := &term.Clause{Head: term.NewFunctor(key("h2"), fID, term.NewFunctor(key("b"), bID))}

	comp := compiler.New(tbl, traverse.DefaultFlags())
	cc1, err := comp.Compile(c1)
	if err != nil {
		t.Fatalf("Compile c1: %v", err)
	}
	cc2, err := comp.Compile(c2)
	if err != nil {
		t.Fatalf("Compile c2: %v", err)
	}

	m := compiler.NewCodeMachine()
	m.Link(cc1)
	m.Link(cc2)

	if cc1.Offset != 0 {
		t.Fatalf("expected first clause offset 0, got %d", cc1.Offset)
	}
	if cc2.Offset != len(cc1.Bytes) {
		t.Fatalf("expected second clause offset %d, got %d", len(cc1.Bytes), cc2.Offset)
	}

	entry, ok := m.EntryOffset(fID, 1)
	if !ok || entry != 0 {
		t.Fatalf("expected entry offset 0 for f/1, got %d ok=%v", entry, ok)
	}

	clauses := m.ClausesFor(fID, 1)
	if len(clauses) != 2 || clauses[0] != cc1 || clauses[1] != cc2 {
		t.Fatalf("expected ClausesFor to return [cc1, cc2] in load order")
	}
}

func TestEquivalentRejectsDifferentVariableAliasing(t *testing.T) {
	in := intern.New()
	tbl := symtab.New()
	key := func(h string) symtab.Key { return tbl.GetSymbolKey(h) }

	fID, _ := in.InternFunctor("f", 2)
	xID := in.InternVariable("X")
	yID := in.InternVariable("Y")

	// f(X, X): same variable twice.
	sameVar := term.NewFunctor(key("a"), fID,
		term.NewVariable(key("a1"), xID, false),
		term.NewVariable(key("a2"), xID, false),
	)
	// f(X, Y): two distinct variables.
	distinctVars := term.NewFunctor(key("b"), fID,
		term.NewVariable(key("b1"), xID, false),
		term.NewVariable(key("b2"), yID, false),
	)

	if compiler.Equivalent(sameVar, distinctVars) {
		t.Fatalf("f(X,X) must not be equivalent to f(X,Y): aliasing differs")
	}
}
