package resolver

import "errors"

// ErrType is returned when a built-in receives an argument of the wrong kind
// (call/1 or not/1 given a term that is not callable). Arithmetic type
// errors from is/2 and comparisons are builtins.ErrType instead.
var ErrType = errors.New("resolver: type error")

// ErrInstantiation names an unbound-argument error. The resolver itself
// does not return it: an unbound variable inside an is/2 expression is
// reported as builtins.ErrInstantiation.
var ErrInstantiation = errors.New("resolver: instantiation error")

// ErrUnknownPredicate is returned when a goal calls a (name, arity) with no
// clauses loaded for it.
var ErrUnknownPredicate = errors.New("resolver: unknown predicate")

// ErrMaxSteps is returned when a query exceeds its configured step budget.
var ErrMaxSteps = errors.New("resolver: exceeded max steps")

// ErrInternalInvariant is returned for states the bytecode and its own
// invariants should make unreachable (a corrupted instruction stream, a
// next_* occurrence with no matching first_*, trail underflow). Unlike
// resolution failure, this always aborts the query rather than driving
// backtracking: it is treated as a fatal abort, not part of search.
var ErrInternalInvariant = errors.New("resolver: internal invariant violated")
