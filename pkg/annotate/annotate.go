// Package annotate implements the annotating visitor: a single pass over
// pkg/traverse that fills in a clause's groundness and variable-temporariness
// bits before pkg/codegen ever runs. Both fields are written into the shared
// pkg/symtab table, keyed by each term's own symbol key, so pkg/codegen can
// look them up without re-walking the clause.
package annotate

import (
	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
	"github.com/vam2p/prolog/pkg/traverse"
)

// Field names under which annotations are stored in the symbol table.
const (
	FieldTermDomain = "termDomain"
	FieldVarDomain  = "varDomain"
)

// TermDomain is the groundness annotation recorded for every term.
type TermDomain struct {
	Ground bool
}

// VarDomain is the temporariness annotation recorded for every distinct
// variable symbol key. RefChainLength, Aliased and Aliasable are carried
// here for pkg/absint to refine once it can see across clause boundaries;
// the first annotating pass leaves them at their zero values.
type VarDomain struct {
	Temporary      bool
	RefChainLength int
	Aliased        bool
	Aliasable      bool

	seen bool // internal: has a prior occurrence already been folded in
}

// Annotator fills termDomain/varDomain for the clauses it walks.
type Annotator struct {
	Symtab *symtab.Table
}

// New builds an Annotator that writes into tbl.
func New(tbl *symtab.Table) *Annotator {
	return &Annotator{Symtab: tbl}
}

// Annotate walks clause with a fresh traverser built from flags, recording
// groundness bottom-up on leave and conjoining temporariness across
// occurrences on enter. The traverser visits the head's arguments but not
// the head functor itself, so the head's groundness is folded from its
// arguments after the walk.
func (a *Annotator) Annotate(clause *term.Clause, flags traverse.Flags) error {
	tr := traverse.New(clause, flags)
	var firstErr error
	tr.SetContextChangeVisitor(func(ctx *traverse.Context, entering bool) {
		if firstErr != nil || ctx.IsClauseRoot() {
			return
		}
		if entering {
			a.onEnter(ctx)
			return
		}
		if err := a.onLeave(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	tr.Run()
	if firstErr == nil && clause.Head != nil {
		ground := true
		for _, arg := range clause.Head.Args {
			argGround, err := a.isGround(arg)
			if err != nil {
				return err
			}
			ground = ground && argGround
		}
		return a.Symtab.Put(clause.Head.Key(), FieldTermDomain, TermDomain{Ground: ground})
	}
	return firstErr
}

// onEnter updates a variable's running temporariness bit. A variable is
// temporary only if every occurrence seen so far lies in the clause head or
// in a determinate (no-choice-point) body position; the first occurrence
// seeds the bit, later ones conjoin into it.
//
// Every occurrence of a variable is its own term node with its own symbol
// key, but temporariness is a property of the variable itself, not of one
// occurrence, so this is recorded under the key of the variable's VarID
// identity (shared by every occurrence of that name in the clause), not
// under the occurrence's own key.
func (a *Annotator) onEnter(ctx *traverse.Context) {
	v, ok := ctx.Term().(*term.Variable)
	if !ok {
		return
	}
	key := a.Symtab.GetSymbolKey(v.Name)
	determinate := ctx.IsInHead() || isDeterminatePosition(ctx)

	raw, found, _ := a.Symtab.Get(key, FieldVarDomain)
	vd, _ := raw.(VarDomain)
	if !found || !vd.seen {
		vd.Temporary = determinate
	} else {
		vd.Temporary = vd.Temporary && determinate
	}
	vd.seen = true
	a.Symtab.Put(key, FieldVarDomain, vd)
}

// isDeterminatePosition reports whether ctx's occurrence lies in a body
// position known not to leave a choice point behind it: the final goal of
// the clause body, which runs with no later alternative to backtrack into.
func isDeterminatePosition(ctx *traverse.Context) bool {
	return ctx.IsLastBodyFunctor()
}

// onLeave folds a term's own groundness out of its already-annotated
// children (traverse guarantees children leave before their parent).
func (a *Annotator) onLeave(ctx *traverse.Context) error {
	switch v := ctx.Term().(type) {
	case *term.Functor:
		ground := true
		for _, arg := range v.Args {
			argGround, err := a.isGround(arg)
			if err != nil {
				return err
			}
			if !argGround {
				ground = false
			}
		}
		return a.Symtab.Put(v.Key(), FieldTermDomain, TermDomain{Ground: ground})
	case term.Int:
		return a.Symtab.Put(v.Key(), FieldTermDomain, TermDomain{Ground: true})
	case term.Real:
		return a.Symtab.Put(v.Key(), FieldTermDomain, TermDomain{Ground: true})
	case *term.Variable:
		// A bare variable is never ground on first sight; pkg/absint
		// refines this once a call site is known to bind it.
		return a.Symtab.Put(v.Key(), FieldTermDomain, TermDomain{Ground: false})
	}
	return nil
}

func (a *Annotator) isGround(t term.Term) (bool, error) {
	raw, ok, err := a.Symtab.Get(t.Key(), FieldTermDomain)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	td, _ := raw.(TermDomain)
	return td.Ground, nil
}
