package compiler

import "github.com/vam2p/prolog/pkg/term"

// Equivalent reports whether a and b have the same shape up to a consistent
// renaming of variables, the compile/decompile round-trip property.
// Anonymous variables are always mutually equivalent: they never alias, so
// their identity carries no information.
func Equivalent(a, b term.Term) bool {
	return equivalent(a, b, make(map[uint32]uint32), make(map[uint32]uint32))
}

func equivalent(a, b term.Term, fwd, bwd map[uint32]uint32) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Tag() != b.Tag() {
		return false
	}

	switch av := a.(type) {
	case *term.Functor:
		bv := b.(*term.Functor)
		if av.Name != bv.Name || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if !equivalent(av.Args[i], bv.Args[i], fwd, bwd) {
				return false
			}
		}
		return true
	case term.Int:
		bv := b.(term.Int)
		return av.Value == bv.Value
	case term.Real:
		bv := b.(term.Real)
		return av.Value.Equal(bv.Value)
	case *term.Variable:
		bv := b.(*term.Variable)
		if av.Anonymous || bv.Anonymous {
			return av.Anonymous == bv.Anonymous
		}
		an, bn := uint32(av.Name), uint32(bv.Name)
		if mapped, ok := fwd[an]; ok {
			return mapped == bn
		}
		if _, ok := bwd[bn]; ok {
			return false // b's name already claimed by a different a-variable
		}
		fwd[an] = bn
		bwd[bn] = an
		return true
	default:
		return false
	}
}

// ClauseEquivalent reports whether two clauses are equivalent per
// Equivalent, threading one renaming across the head and the whole body so
// that a variable shared between them must rename consistently everywhere.
func ClauseEquivalent(a, b *term.Clause) bool {
	if (a.Head == nil) != (b.Head == nil) {
		return false
	}
	if len(a.Body) != len(b.Body) {
		return false
	}

	fwd, bwd := make(map[uint32]uint32), make(map[uint32]uint32)
	if a.Head != nil {
		if !equivalentFunctor(a.Head, b.Head, fwd, bwd) {
			return false
		}
	}
	for i := range a.Body {
		if !equivalentFunctor(a.Body[i], b.Body[i], fwd, bwd) {
			return false
		}
	}
	return true
}

func equivalentFunctor(a, b *term.Functor, fwd, bwd map[uint32]uint32) bool {
	if a.Name != b.Name || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if !equivalent(a.Args[i], b.Args[i], fwd, bwd) {
			return false
		}
	}
	return true
}
