package builtins

import "errors"

// ErrType is returned when an operand dereferences to something that
// cannot participate in the requested operation (e.g. mod/2 on a Real).
var ErrType = errors.New("builtins: type error")

// ErrInstantiation is returned when an arithmetic expression contains an
// unbound variable.
var ErrInstantiation = errors.New("builtins: instantiation error")
