package builtins

import (
	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/term"
)

// Compare evaluates both sides as arithmetic expressions and reports
// whether op (one of Reserved's Lt/Le/Gt/Ge) holds between them.
func (e Evaluator) Compare(op intern.FunctorID, a, b term.Term, bindings *term.Bindings) (bool, error) {
	left, err := e.Eval(a, bindings)
	if err != nil {
		return false, err
	}
	right, err := e.Eval(b, bindings)
	if err != nil {
		return false, err
	}

	cmp := toDecimal(left).Cmp(toDecimal(right))
	r := e.Reserved
	switch op {
	case r.Lt:
		return cmp < 0, nil
	case r.Le:
		return cmp <= 0, nil
	case r.Gt:
		return cmp > 0, nil
	case r.Ge:
		return cmp >= 0, nil
	default:
		return false, ErrType
	}
}

// TypeCheck evaluates kind (one of Reserved's IntegerP/FloatP/VarP) against
// t's dereferenced shape. Unlike Eval/Compare it never errors: a check
// whose shape does not match (integer/1 on a variable or a compound term,
// say) is simply false, not an error.
func (e Evaluator) TypeCheck(kind intern.FunctorID, t term.Term, bindings *term.Bindings) bool {
	t = term.Deref(bindings, t)
	r := e.Reserved
	switch kind {
	case r.IntegerP:
		_, ok := t.(term.Int)
		return ok
	case r.FloatP:
		_, ok := t.(term.Real)
		return ok
	case r.VarP:
		_, ok := t.(*term.Variable)
		return ok
	default:
		return false
	}
}
