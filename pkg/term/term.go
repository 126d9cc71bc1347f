// Package term implements the logic-term model: functors, variables,
// integer and real literals, and lists, plus the clause/predicate shapes
// built out of them. Every term carries an opaque symtab.Key assigned at
// parse time and stable across the compilation pipeline.
package term

import (
	"github.com/shopspring/decimal"

	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/symtab"
)

// Tag identifies the concrete shape of a Term without a type switch.
type Tag int

const (
	TagFunctor Tag = iota
	TagVariable
	TagInt
	TagReal
)

// Term is the common interface for every term shape. Lists and the empty
// list are not a separate Go type: they are Functors built with the
// reserved cons/nil functor ids (see Reserved), so non-arithmetic contexts
// treat them as ordinary functors.
type Term interface {
	Tag() Tag
	// Key returns the opaque symbol key assigned to this term at parse time.
	Key() symtab.Key
}

// Functor is a named term of fixed arity; arity 0 is conventionally called
// an atom. Identity is (Name, len(Args)).
type Functor struct {
	Name intern.FunctorID
	Args []Term
	key  symtab.Key
}

// NewFunctor builds a Functor, assigning it the given symbol key.
func NewFunctor(key symtab.Key, name intern.FunctorID, args ...Term) *Functor {
	return &Functor{Name: name, Args: args, key: key}
}

func (f *Functor) Tag() Tag         { return TagFunctor }
func (f *Functor) Key() symtab.Key  { return f.key }
func (f *Functor) Arity() int       { return len(f.Args) }
func (f *Functor) IsAtom() bool     { return len(f.Args) == 0 }

// Variable is a logic variable. Its binding, if any, lives in a Bindings
// arena indexed by Slot (see bindings.go) rather than inline, so the
// resolver's trail can undo a binding by (Slot, previous value) alone.
type Variable struct {
	Name      intern.VarID
	Anonymous bool
	Slot      VarSlot
	key       symtab.Key
}

// NewVariable builds a Variable with an as-yet unallocated slot (Slot must
// be set from Bindings.Alloc, typically by the resolver, before binding).
func NewVariable(key symtab.Key, name intern.VarID, anonymous bool) *Variable {
	return &Variable{Name: name, Anonymous: anonymous, Slot: NoSlot, key: key}
}

func (v *Variable) Tag() Tag        { return TagVariable }
func (v *Variable) Key() symtab.Key { return v.key }

// Int is an integer literal leaf.
type Int struct {
	Value int64
	key   symtab.Key
}

func NewInt(key symtab.Key, v int64) Int { return Int{Value: v, key: key} }
func (i Int) Tag() Tag                   { return TagInt }
func (i Int) Key() symtab.Key            { return i.key }

// Real is a floating-point literal leaf, represented with arbitrary decimal
// precision so that chains of is/2 arithmetic don't accumulate binary-float
// rounding error (see SPEC_FULL.md domain stack).
type Real struct {
	Value decimal.Decimal
	key   symtab.Key
}

func NewReal(key symtab.Key, v decimal.Decimal) Real { return Real{Value: v, key: key} }
func (r Real) Tag() Tag                              { return TagReal }
func (r Real) Key() symtab.Key                        { return r.key }

// Clause has a head functor and zero or more body functors. A fact has an
// empty body; a query has no head (Head is nil), which is the only thing
// that marks it as a query.
type Clause struct {
	Head *Functor
	Body []*Functor
}

// IsFact reports whether the clause has no body.
func (c *Clause) IsFact() bool { return len(c.Body) == 0 }

// IsQuery reports whether the clause is headless (a query).
func (c *Clause) IsQuery() bool { return c.Head == nil }

// Predicate is an ordered sequence of clauses sharing one (name, arity).
// Iteration order is source order: it defines both first-solution search
// and backtracking order.
type Predicate struct {
	Name    intern.FunctorID
	Clauses []*Clause
}
