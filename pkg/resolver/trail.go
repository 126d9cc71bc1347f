package resolver

import "github.com/vam2p/prolog/pkg/term"

// trailEntry is one undo record: the slot that was written and the value it
// held immediately before the write.
type trailEntry struct {
	slot term.VarSlot
	prev term.Term
}

// Trail is the variable-binding undo log. Binding through the trail rather
// than mutating term.Bindings directly is what lets a choice point rewind
// every binding made since it was pushed, by recording (Slot, previous
// value) pairs, the same mechanism the choice-point design relies on.
type Trail struct {
	entries []trailEntry
}

// NewTrail returns an empty trail.
func NewTrail() *Trail { return &Trail{} }

// NewTrailWithCapacity returns an empty trail whose backing array is
// presized to capacity, for callers (pkg/engine's Options.TrailCapacity)
// that know roughly how many bindings a query will make and want to avoid
// the growth reallocations NewTrail's zero-value slice would otherwise pay.
func NewTrailWithCapacity(capacity int) *Trail {
	return &Trail{entries: make([]trailEntry, 0, capacity)}
}

// Mark returns the current trail length, to be passed to Undo later.
func (t *Trail) Mark() int { return len(t.entries) }

// Bind writes value into slot through bindings, recording the previous
// value so Undo can restore it.
func (t *Trail) Bind(bindings *term.Bindings, slot term.VarSlot, value term.Term) {
	prev := bindings.Bind(slot, value)
	t.entries = append(t.entries, trailEntry{slot: slot, prev: prev})
}

// Undo restores every binding recorded since mark, in reverse order, then
// truncates the trail back to mark.
func (t *Trail) Undo(bindings *term.Bindings, mark int) {
	for i := len(t.entries) - 1; i >= mark; i-- {
		e := t.entries[i]
		bindings.Unbind(e.slot, e.prev)
	}
	t.entries = t.entries[:mark]
}

// Len reports how many bindings are currently on the trail.
func (t *Trail) Len() int { return len(t.entries) }
