package resolver

import "github.com/vam2p/prolog/pkg/term"

// Unify attempts to make a and b identical under bindings, trailing every
// binding it makes through trail so a later Trail.Undo can reverse exactly
// this attempt. It returns false (not an error) on mismatch: resolution
// failure is not an error, and that rule applies here too.
func Unify(a, b term.Term, bindings *term.Bindings, trail *Trail) bool {
	a = term.Deref(bindings, a)
	b = term.Deref(bindings, b)

	av, aIsVar := a.(*term.Variable)
	bv, bIsVar := b.(*term.Variable)

	switch {
	case aIsVar && bIsVar:
		if av.Slot == bv.Slot {
			return true
		}
		trail.Bind(bindings, av.Slot, b)
		return true
	case aIsVar:
		trail.Bind(bindings, av.Slot, b)
		return true
	case bIsVar:
		trail.Bind(bindings, bv.Slot, a)
		return true
	}

	if a.Tag() != b.Tag() {
		return false
	}

	switch av2 := a.(type) {
	case *term.Functor:
		bv2 := b.(*term.Functor)
		if av2.Name != bv2.Name || len(av2.Args) != len(bv2.Args) {
			return false
		}
		for i := range av2.Args {
			if !Unify(av2.Args[i], bv2.Args[i], bindings, trail) {
				return false
			}
		}
		return true
	case term.Int:
		return av2.Value == b.(term.Int).Value
	case term.Real:
		return av2.Value.Equal(b.(term.Real).Value)
	default:
		return false
	}
}
