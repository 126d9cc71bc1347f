package term

// VarSlot indexes a binding cell in a Bindings arena. Binding a variable
// writes its Slot into the arena rather than mutating the Variable value
// itself, so that the resolver's trail can undo a single write by
// recording (Slot, previous value) and restoring it on backtrack.
type VarSlot int

// NoSlot marks a Variable that has not yet been allocated an arena slot.
const NoSlot VarSlot = -1

// Bindings is an arena of binding cells, indexed by VarSlot. Dereferencing
// walks the chain of bindings without allocation; Variable-to-Variable
// chains can be cyclic (a variable bound to itself), which Deref treats as
// a no-op rather than looping forever.
type Bindings struct {
	cells []Term
}

// NewBindings returns an empty arena with room for capacity slots.
func NewBindings(capacity int) *Bindings {
	return &Bindings{cells: make([]Term, 0, capacity)}
}

// Alloc reserves a new, unbound slot and returns its index.
func (b *Bindings) Alloc() VarSlot {
	b.cells = append(b.cells, nil)
	return VarSlot(len(b.cells) - 1)
}

// Len reports how many slots have been allocated.
func (b *Bindings) Len() int { return len(b.cells) }

// Truncate shrinks the arena back to n slots, discarding any allocated
// beyond it. The resolver does not call it: a choice point records only a
// trail mark, so slots allocated after it stay allocated on backtrack.
func (b *Bindings) Truncate(n int) {
	for i := n; i < len(b.cells); i++ {
		b.cells[i] = nil
	}
	b.cells = b.cells[:n]
}

// Get returns the term bound to slot, or nil if it is unbound.
func (b *Bindings) Get(slot VarSlot) Term {
	if slot < 0 || int(slot) >= len(b.cells) {
		return nil
	}
	return b.cells[slot]
}

// Bind writes t into slot, returning the previous value so a caller (the
// resolver's trail) can restore it later.
func (b *Bindings) Bind(slot VarSlot, t Term) Term {
	prev := b.cells[slot]
	b.cells[slot] = t
	return prev
}

// Unbind restores slot to a previously saved value (typically nil),
// exactly mirroring a trail entry's undo.
func (b *Bindings) Unbind(slot VarSlot, prev Term) {
	b.cells[slot] = prev
}

// Deref walks a chain of variable bindings until it reaches a non-variable
// term or an unbound variable, detecting a variable bound to itself (a
// self-loop) and treating it as unbound rather than looping.
func Deref(b *Bindings, t Term) Term {
	for {
		v, ok := t.(*Variable)
		if !ok || v.Slot == NoSlot {
			return t
		}
		bound := b.Get(v.Slot)
		if bound == nil {
			return t
		}
		if bv, ok := bound.(*Variable); ok && bv.Slot == v.Slot {
			return t
		}
		t = bound
	}
}

// IsGroundLeaf reports whether a dereferenced term is one of the leaf
// shapes that are trivially ground (everything but an unbound Variable and
// a compound Functor whose arguments must themselves be checked).
func IsGroundLeaf(t Term) bool {
	switch v := t.(type) {
	case Int, Real:
		return true
	case *Functor:
		return v.IsAtom()
	default:
		return false
	}
}
