// Package intern maps printable functor and variable names to compact
// integer identifiers, the way the rest of the compiler and the resolver
// want to compare and hash them.
package intern

import (
	"errors"
	"fmt"
)

// ErrInvalidName is returned when interning an empty functor name.
var ErrInvalidName = errors.New("intern: invalid name")

// ErrUnknownID is returned by the reverse lookups for an id that was never
// produced by this Interner.
var ErrUnknownID = errors.New("intern: unknown id")

// FunctorID identifies a (name, arity) pair. Functor ids are always even.
type FunctorID uint32

// VarID identifies a variable name. Variable ids are always odd, so a
// FunctorID and a VarID can never collide even when printed as plain
// integers in diagnostics.
type VarID uint32

type functorKey struct {
	name  string
	arity int
}

// Interner is a bidirectional map between printable names and ids. It is
// scoped to a single engine instance, never process-global, so that two
// concurrently running engines never alias each other's ids.
type Interner struct {
	functors    map[functorKey]FunctorID
	functorRev  map[FunctorID]functorKey
	nextFunctor FunctorID

	variables   map[string]VarID
	variableRev map[VarID]string
	nextVar     VarID
}

// New returns a fresh, empty Interner.
func New() *Interner {
	return &Interner{
		functors:    make(map[functorKey]FunctorID),
		functorRev:  make(map[FunctorID]functorKey),
		variables:   make(map[string]VarID),
		variableRev: make(map[VarID]string),
		nextFunctor: 0,
		nextVar:     1,
	}
}

// InternFunctor returns the id for (name, arity), minting a new one on first
// use and returning the same id for every subsequent call with the same pair.
func (in *Interner) InternFunctor(name string, arity int) (FunctorID, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty functor name", ErrInvalidName)
	}
	key := functorKey{name: name, arity: arity}
	if id, ok := in.functors[key]; ok {
		return id, nil
	}
	id := in.nextFunctor
	in.nextFunctor += 2
	in.functors[key] = id
	in.functorRev[id] = key
	return id, nil
}

// InternVariable returns the id for a variable name, minting a new one on
// first use. Two occurrences of the same name within the same clause must
// be interned through the same Interner call so they share an id; callers
// that need fresh, never-before-seen variables (e.g. clause renaming) should
// use InternFreshVariable instead.
func (in *Interner) InternVariable(name string) VarID {
	if id, ok := in.variables[name]; ok {
		return id
	}
	id := in.nextVar
	in.nextVar += 2
	in.variables[name] = id
	in.variableRev[id] = name
	return id
}

// InternFreshVariable mints a brand new variable id that is never returned
// again by InternVariable, even if later called with the same synthesized
// name. Used for anonymous variables ("_") and for clause/rule renaming.
func (in *Interner) InternFreshVariable(hint string) VarID {
	id := in.nextVar
	in.nextVar += 2
	in.variableRev[id] = hint
	return id
}

// FunctorName reverses a FunctorID back to its (name, arity) pair.
func (in *Interner) FunctorName(id FunctorID) (string, int, error) {
	key, ok := in.functorRev[id]
	if !ok {
		return "", 0, fmt.Errorf("%w: functor %d", ErrUnknownID, id)
	}
	return key.name, key.arity, nil
}

// VariableName reverses a VarID back to its name.
func (in *Interner) VariableName(id VarID) (string, error) {
	name, ok := in.variableRev[id]
	if !ok {
		return "", fmt.Errorf("%w: variable %d", ErrUnknownID, id)
	}
	return name, nil
}

// Len reports how many distinct functors and variables have been interned.
func (in *Interner) Len() (functors, variables int) {
	return len(in.functors), len(in.variables)
}

// Reset clears every interned name, keeping the Interner usable for a fresh
// engine generation. Ids already handed out become invalid; callers must not
// retain them across Reset.
func (in *Interner) Reset() {
	in.functors = make(map[functorKey]FunctorID)
	in.functorRev = make(map[FunctorID]functorKey)
	in.variables = make(map[string]VarID)
	in.variableRev = make(map[VarID]string)
	in.nextFunctor = 0
	in.nextVar = 1
}
