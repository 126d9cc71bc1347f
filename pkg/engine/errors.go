package engine

import "errors"

// ErrNoClauses is returned by Query when nothing has ever been loaded,
// distinct from resolver.ErrUnknownPredicate, which fires per call site once
// resolution is already underway.
var ErrNoClauses = errors.New("engine: no clauses loaded")

// ErrClauseAfterQuery marks an implicit sequencing rule: a query source that
// parses to a fact/rule instead of a "?-" sentence (or vice versa) is a
// caller error, not a resolution failure.
var ErrClauseAfterQuery = errors.New("engine: query source did not parse to a query sentence")
