package term_test

import (
	"testing"

	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
)

func setup(t *testing.T) (*intern.Interner, term.Reserved) {
	t.Helper()
	in := intern.New()
	r, err := term.RegisterReserved(in)
	if err != nil {
		t.Fatalf("RegisterReserved: %v", err)
	}
	return in, r
}

func TestFunctorIdentity(t *testing.T) {
	in, _ := setup(t)
	nameID, err := in.InternFunctor("f", 2)
	if err != nil {
		t.Fatalf("intern: %v", err)
	}
	f := term.NewFunctor(symtab.NoKey, nameID, term.Int{}, term.Int{})
	if f.Arity() != 2 {
		t.Fatalf("expected arity 2, got %d", f.Arity())
	}
	if f.IsAtom() {
		t.Fatalf("expected non-atom")
	}
}

func TestDerefWalksChain(t *testing.T) {
	in, _ := setup(t)
	bindings := term.NewBindings(4)

	x := term.NewVariable(symtab.NoKey, in.InternVariable("X"), false)
	x.Slot = bindings.Alloc()
	y := term.NewVariable(symtab.NoKey, in.InternVariable("Y"), false)
	y.Slot = bindings.Alloc()

	bindings.Bind(x.Slot, y)
	bindings.Bind(y.Slot, term.NewInt(symtab.NoKey, 42))

	got := term.Deref(bindings, x)
	i, ok := got.(term.Int)
	if !ok || i.Value != 42 {
		t.Fatalf("expected Deref to resolve to Int(42), got %#v", got)
	}
}

func TestDerefSelfLoopIsNoop(t *testing.T) {
	in, _ := setup(t)
	bindings := term.NewBindings(1)
	x := term.NewVariable(symtab.NoKey, in.InternVariable("X"), false)
	x.Slot = bindings.Alloc()
	bindings.Bind(x.Slot, x) // bound to itself

	got := term.Deref(bindings, x)
	v, ok := got.(*term.Variable)
	if !ok || v.Slot != x.Slot {
		t.Fatalf("expected self-bound variable to deref to itself, got %#v", got)
	}
}

func TestListPrinting(t *testing.T) {
	in, r := setup(t)
	a, _ := in.InternFunctor("a", 0)
	b, _ := in.InternFunctor("b", 0)
	list := term.FromSlice(r, []term.Term{
		term.NewFunctor(symtab.NoKey, a),
		term.NewFunctor(symtab.NoKey, b),
	})
	p := term.Printer{Names: in, Reserved: r}
	got := p.Sprint(list)
	if got != "[a, b]" {
		t.Fatalf("got %q, want [a, b]", got)
	}
}

func TestPartialListPrinting(t *testing.T) {
	in, r := setup(t)
	a, _ := in.InternFunctor("a", 0)
	tail := term.NewVariable(symtab.NoKey, in.InternVariable("T"), false)
	list := r.NewCons(symtab.NoKey, term.NewFunctor(symtab.NoKey, a), tail)

	p := term.Printer{Names: in, Reserved: r}
	got := p.Sprint(list)
	if got != "[a|T]" {
		t.Fatalf("got %q, want [a|T]", got)
	}
}
