// Package builtins implements the resolver's pure, side-effect-free
// predicates: arithmetic evaluation for is/2 and the comparison operators,
// and the type-check predicates. None of it touches the trail; a result
// is always either a fresh term.Term or a plain bool, leaving unification
// and backtracking to the caller.
package builtins

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
)

// Evaluator is the operator-keyed dispatch table behind Eval/Compare, one
// value type holding the reserved functor ids it needs to recognize
// operators by identity rather than by re-interning their names on every
// call.
type Evaluator struct {
	Reserved term.Reserved
}

// New builds an Evaluator bound to a program's reserved functor ids.
func New(reserved term.Reserved) Evaluator {
	return Evaluator{Reserved: reserved}
}

// Eval reduces an arithmetic expression term to its Int or Real value.
// Unbound variables and non-arithmetic functors are errors, not failures:
// an is/2 with an unevaluable expression is treated as an error, distinct
// from an ordinary resolution failure.
func (e Evaluator) Eval(expr term.Term, bindings *term.Bindings) (term.Term, error) {
	expr = term.Deref(bindings, expr)

	switch v := expr.(type) {
	case term.Int:
		return v, nil
	case term.Real:
		return v, nil
	case *term.Variable:
		return nil, fmt.Errorf("%w: unbound variable in arithmetic expression", ErrInstantiation)
	case *term.Functor:
		return e.evalFunctor(v, bindings)
	default:
		return nil, fmt.Errorf("%w: %T is not an arithmetic expression", ErrType, expr)
	}
}

func (e Evaluator) evalFunctor(f *term.Functor, bindings *term.Bindings) (term.Term, error) {
	r := e.Reserved
	if len(f.Args) == 1 && f.Name == r.UnaryMin {
		x, err := e.Eval(f.Args[0], bindings)
		if err != nil {
			return nil, err
		}
		return negate(x), nil
	}

	if len(f.Args) != 2 {
		return nil, fmt.Errorf("%w: %s/%d is not an arithmetic operator", ErrType, functorLabel(f), len(f.Args))
	}

	left, err := e.Eval(f.Args[0], bindings)
	if err != nil {
		return nil, err
	}
	right, err := e.Eval(f.Args[1], bindings)
	if err != nil {
		return nil, err
	}

	switch f.Name {
	case r.Plus:
		return combine(left, right, func(a, b int64) int64 { return a + b }, decimal.Decimal.Add)
	case r.Minus:
		return combine(left, right, func(a, b int64) int64 { return a - b }, decimal.Decimal.Sub)
	case r.Times:
		return combine(left, right, func(a, b int64) int64 { return a * b }, decimal.Decimal.Mul)
	case r.Mod:
		li, lok := left.(term.Int)
		ri, rok := right.(term.Int)
		if !lok || !rok {
			return nil, fmt.Errorf("%w: mod/2 requires integer operands", ErrType)
		}
		if ri.Value == 0 {
			return nil, fmt.Errorf("%w: division by zero in mod/2", ErrType)
		}
		return term.NewInt(symtab.NoKey, li.Value%ri.Value), nil
	case r.Divide:
		ld, rd := toDecimal(left), toDecimal(right)
		if rd.IsZero() {
			return nil, fmt.Errorf("%w: division by zero in /2", ErrType)
		}
		q := ld.DivRound(rd, 20)
		if li, lok := left.(term.Int); lok {
			if ri, rok := right.(term.Int); rok && ri.Value != 0 && li.Value%ri.Value == 0 {
				return term.NewInt(symtab.NoKey, li.Value/ri.Value), nil
			}
		}
		return term.NewReal(symtab.NoKey, q), nil
	case r.Power:
		ld, rd := toDecimal(left), toDecimal(right)
		result := ld.Pow(rd)
		if isInt(left) && isInt(right) && result.Equal(result.Truncate(0)) {
			return term.NewInt(symtab.NoKey, result.IntPart()), nil
		}
		return term.NewReal(symtab.NoKey, result), nil
	default:
		return nil, fmt.Errorf("%w: %s/2 is not an arithmetic operator", ErrType, functorLabel(f))
	}
}

func negate(x term.Term) term.Term {
	switch v := x.(type) {
	case term.Int:
		return term.NewInt(symtab.NoKey, -v.Value)
	case term.Real:
		return term.NewReal(symtab.NoKey, v.Value.Neg())
	default:
		return x
	}
}

func isInt(t term.Term) bool { _, ok := t.(term.Int); return ok }

func toDecimal(t term.Term) decimal.Decimal {
	switch v := t.(type) {
	case term.Int:
		return decimal.NewFromInt(v.Value)
	case term.Real:
		return v.Value
	default:
		return decimal.Zero
	}
}

// combine applies intOp when both operands are Int, promoting to Real via
// decOp otherwise: the ordinary numeric-tower rule, where a Real operand on
// either side of +, -, or * makes the whole expression Real.
func combine(left, right term.Term, intOp func(a, b int64) int64, decOp func(a, b decimal.Decimal) decimal.Decimal) (term.Term, error) {
	li, lok := left.(term.Int)
	ri, rok := right.(term.Int)
	if lok && rok {
		return term.NewInt(symtab.NoKey, intOp(li.Value, ri.Value)), nil
	}
	return term.NewReal(symtab.NoKey, decOp(toDecimal(left), toDecimal(right))), nil
}

func functorLabel(f *term.Functor) string {
	return fmt.Sprintf("<functor %d>", f.Name)
}
