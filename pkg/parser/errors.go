package parser

import "errors"

// ErrSyntax reports that the combinator grammar could not match the input
// at all (goparsec gave up before reaching pc.End()).
var ErrSyntax = errors.New("parser: syntax error")

// ErrUnexpectedNode reports an AST shape the conversion pass does not
// recognize, a goparsec grammar/conversion mismatch, never something
// triggerable by source text alone.
var ErrUnexpectedNode = errors.New("parser: unexpected AST node")

// ErrQueryDisjunction reports a query whose body has a top-level ';'. A
// rule's body can be split into several independent term.Clause values
// (see handleRule and expandBody in convert.go), but a query is a single resolution
// request: there is no clause to split it into, so it is rejected rather
// than silently resolving to only its first disjunct.
var ErrQueryDisjunction = errors.New("parser: query body may not contain a top-level disjunction")
