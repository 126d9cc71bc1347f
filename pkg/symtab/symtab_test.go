package symtab_test

import (
	"errors"
	"testing"

	"github.com/vam2p/prolog/pkg/symtab"
)

func TestGetPutRoundtrip(t *testing.T) {
	root := symtab.New()
	key := root.GetSymbolKey("term-1")

	if err := root.Put(key, "termDomain", true); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, ok, err := root.Get(key, "termDomain")
	if err != nil || !ok || v != true {
		t.Fatalf("got (%v, %v, %v), want (true, true, nil)", v, ok, err)
	}
}

func TestGetSymbolKeyIsStableAcrossScopes(t *testing.T) {
	root := symtab.New()
	k1 := root.GetSymbolKey("x")
	child, _ := root.EnterScope(k1)
	k2 := child.GetSymbolKey("x")
	if k1 != k2 {
		t.Fatalf("expected same key for same primary across scopes, got %d and %d", k1, k2)
	}
}

func TestEnterLeaveScopeLIFO(t *testing.T) {
	root := symtab.New()
	k := root.GetSymbolKey("scope-a")
	child, err := root.EnterScope(k)
	if err != nil {
		t.Fatalf("EnterScope: %v", err)
	}
	parent, err := child.LeaveScope()
	if err != nil {
		t.Fatalf("LeaveScope: %v", err)
	}
	if parent != root {
		t.Fatalf("expected LeaveScope to return the root")
	}
}

func TestDetachedScopeRejectsOps(t *testing.T) {
	root := symtab.New()
	k := root.GetSymbolKey("scope-a")
	child, _ := root.EnterScope(k)
	if _, err := child.LeaveScope(); err != nil {
		t.Fatalf("LeaveScope: %v", err)
	}

	if err := child.Put(k, "field", 1); !errors.Is(err, symtab.ErrScopeDetached) {
		t.Fatalf("expected ErrScopeDetached, got %v", err)
	}
	if _, _, err := child.Get(k, "field"); !errors.Is(err, symtab.ErrScopeDetached) {
		t.Fatalf("expected ErrScopeDetached, got %v", err)
	}
	if _, err := child.EnterScope(k); !errors.Is(err, symtab.ErrScopeDetached) {
		t.Fatalf("expected ErrScopeDetached, got %v", err)
	}
}

func TestDepth(t *testing.T) {
	root := symtab.New()
	if root.Depth() != 0 {
		t.Fatalf("expected root depth 0, got %d", root.Depth())
	}
	k1 := root.GetSymbolKey("a")
	child, _ := root.EnterScope(k1)
	if child.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", child.Depth())
	}
	k2 := child.GetSymbolKey("b")
	grandchild, _ := child.EnterScope(k2)
	if grandchild.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", grandchild.Depth())
	}
}

func TestValuesWalksEntireTree(t *testing.T) {
	root := symtab.New()
	kRoot := root.GetSymbolKey("root-term")
	root.Put(kRoot, "termDomain", "root")

	k := root.GetSymbolKey("scope-a")
	child, _ := root.EnterScope(k)
	kChild := child.GetSymbolKey("child-term")
	child.Put(kChild, "termDomain", "child")

	got := root.Values("termDomain")
	if len(got) != 2 {
		t.Fatalf("expected 2 values across the tree, got %d: %v", len(got), got)
	}
}

func TestClearUpToPreservesOtherFields(t *testing.T) {
	root := symtab.New()
	k1 := root.GetSymbolKey("a")
	k2 := root.GetSymbolKey("b")
	root.Put(k1, "termDomain", "ground")
	root.Put(k1, "varDomain", "temp")
	root.Put(k2, "termDomain", "ground")

	if err := root.ClearUpTo(k1, "termDomain"); err != nil {
		t.Fatalf("ClearUpTo: %v", err)
	}

	if _, ok, _ := root.Get(k1, "termDomain"); ok {
		t.Fatalf("expected k1's termDomain to be cleared")
	}
	if _, ok, _ := root.Get(k2, "termDomain"); !ok {
		t.Fatalf("expected k2's termDomain to survive (it was recorded after k1)")
	}
	if v, ok, _ := root.Get(k1, "varDomain"); !ok || v != "temp" {
		t.Fatalf("expected varDomain to survive clearing termDomain, got %v %v", v, ok)
	}
}

func TestSetLowMarkAndClearUpToLowMark(t *testing.T) {
	root := symtab.New()
	k1 := root.GetSymbolKey("a")
	k2 := root.GetSymbolKey("b")
	k3 := root.GetSymbolKey("c")
	root.Put(k1, "f", 1)
	root.Put(k2, "f", 2)
	root.Put(k3, "f", 3)

	if err := root.SetLowMark(k2, "f"); err != nil {
		t.Fatalf("SetLowMark: %v", err)
	}
	if err := root.ClearUpToLowMark("f"); err != nil {
		t.Fatalf("ClearUpToLowMark: %v", err)
	}

	if _, ok, _ := root.Get(k1, "f"); ok {
		t.Fatalf("expected k1 cleared")
	}
	if _, ok, _ := root.Get(k2, "f"); ok {
		t.Fatalf("expected k2 cleared")
	}
	if v, ok, _ := root.Get(k3, "f"); !ok || v != 3 {
		t.Fatalf("expected k3 to survive, got %v %v", v, ok)
	}
}
