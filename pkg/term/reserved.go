package term

import (
	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/symtab"
)

// Reserved holds the functor ids for the handful of names the resolver and
// built-ins must recognize by identity rather than by spelling: list cons
// and nil, and the arithmetic/comparison operator names. Interning these
// first, before any user clause is loaded, guarantees they always resolve
// to the same ids for the lifetime of an engine.
type Reserved struct {
	Cons intern.FunctorID // "."/2
	Nil  intern.FunctorID // "[]"/0

	Plus     intern.FunctorID // "+"/2
	Minus    intern.FunctorID // "-"/2
	Times    intern.FunctorID // "*"/2
	Divide   intern.FunctorID // "/"/2
	Power    intern.FunctorID // "**"/2
	Mod      intern.FunctorID // "mod"/2
	UnaryMin intern.FunctorID // "-"/1

	True intern.FunctorID // "true"/0
	Fail intern.FunctorID // "fail"/0
	Cut  intern.FunctorID // "!"/0

	Call intern.FunctorID // "call"/1
	Not  intern.FunctorID // "not"/1

	Is        intern.FunctorID // "is"/2
	Unify     intern.FunctorID // "="/2
	NotUnify  intern.FunctorID // "\\="/2
	Lt        intern.FunctorID // "<"/2
	Le        intern.FunctorID // "=<"/2
	Gt        intern.FunctorID // ">"/2
	Ge        intern.FunctorID // ">="/2
	IntegerP  intern.FunctorID // "integer"/1
	FloatP    intern.FunctorID // "float"/1
	VarP      intern.FunctorID // "var"/1
	Conjunct  intern.FunctorID // ","/2
	Disjunct  intern.FunctorID // ";"/2
}

// RegisterReserved interns every reserved name exactly once, in a stable
// order, so that Reserved ids are deterministic for a freshly constructed
// Interner. It must run before any user clause is interned.
func RegisterReserved(in *intern.Interner) (Reserved, error) {
	var r Reserved
	var err error
	intern2 := func(name string, arity int) intern.FunctorID {
		if err != nil {
			return 0
		}
		var id intern.FunctorID
		id, err = in.InternFunctor(name, arity)
		return id
	}

	r.Cons = intern2(".", 2)
	r.Nil = intern2("[]", 0)

	r.Plus = intern2("+", 2)
	r.Minus = intern2("-", 2)
	r.Times = intern2("*", 2)
	r.Divide = intern2("/", 2)
	r.Power = intern2("**", 2)
	r.Mod = intern2("mod", 2)
	r.UnaryMin = intern2("-", 1)

	r.True = intern2("true", 0)
	r.Fail = intern2("fail", 0)
	r.Cut = intern2("!", 0)

	r.Call = intern2("call", 1)
	r.Not = intern2("not", 1)

	r.Is = intern2("is", 2)
	r.Unify = intern2("=", 2)
	r.NotUnify = intern2("\\=", 2)
	r.Lt = intern2("<", 2)
	r.Le = intern2("=<", 2)
	r.Gt = intern2(">", 2)
	r.Ge = intern2(">=", 2)
	r.IntegerP = intern2("integer", 1)
	r.FloatP = intern2("float", 1)
	r.VarP = intern2("var", 1)
	r.Conjunct = intern2(",", 2)
	r.Disjunct = intern2(";", 2)

	if err != nil {
		return Reserved{}, err
	}
	return r, nil
}

// NewCons builds a list cell "."(head, tail) with the given symbol key.
func (r Reserved) NewCons(key symtab.Key, head, tail Term) *Functor {
	return NewFunctor(key, r.Cons, head, tail)
}

// NewNil builds the empty list "[]" with the given symbol key.
func (r Reserved) NewNil(key symtab.Key) *Functor {
	return NewFunctor(key, r.Nil)
}

// IsCons reports whether f is a list cell.
func (r Reserved) IsCons(f *Functor) bool { return f.Name == r.Cons && len(f.Args) == 2 }

// IsNil reports whether f is the empty list.
func (r Reserved) IsNil(f *Functor) bool { return f.Name == r.Nil && len(f.Args) == 0 }
