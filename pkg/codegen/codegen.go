// Package codegen implements the instruction generator: a visitor driven by
// pkg/traverse that emits exactly one VAM2P instruction per distinct
// sub-term visit, plus closing instructions for top-level body functors and
// a clause-closing nogoal. It follows a
// one-Handle<Shape>-method-per-node-shape design, dispatched from a single
// entry point driven by the traversal rather than by a recursive-descent
// walk of its own.
package codegen

import (
	"fmt"

	"github.com/vam2p/prolog/pkg/annotate"
	"github.com/vam2p/prolog/pkg/instr"
	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
	"github.com/vam2p/prolog/pkg/traverse"
)

// Generator walks an already-annotated clause and produces its VAM2P
// instruction sequence. The Symtab passed in must be the same one (or one
// sharing the same scope) that an annotate.Annotator filled via Annotate.
type Generator struct {
	Symtab *symtab.Table

	// CutFunctor, when HasCut is set, is the reserved "!"/0 functor id: a
	// top-level body occurrence of it compiles to a standalone Cut
	// instruction, a dedicated dispatch row, instead of the ordinary
	// goal/call pair every other body functor gets, since cut is never
	// resolved against a predicate's clauses.
	CutFunctor intern.FunctorID
	HasCut     bool

	code []instr.Instr
	err  error
	seen map[symtab.Key]bool
}

// New builds a Generator reading annotations from tbl.
func New(tbl *symtab.Table) *Generator {
	return &Generator{Symtab: tbl}
}

// SetCutFunctor tells the Generator which functor id is the reserved cut
// atom, enabling the Cut-instruction special case in body position.
func (g *Generator) SetCutFunctor(id intern.FunctorID) {
	g.CutFunctor = id
	g.HasCut = true
}

// Generate walks clause with a fresh traverser built from flags (which must
// match the flags used to annotate the clause) and returns its linear
// instruction sequence.
func (g *Generator) Generate(clause *term.Clause, flags traverse.Flags) ([]instr.Instr, error) {
	g.code = nil
	g.err = nil
	g.seen = nil

	emptyBody := len(clause.Body) == 0

	tr := traverse.New(clause, flags)
	tr.SetContextChangeVisitor(func(ctx *traverse.Context, entering bool) {
		if g.err != nil {
			return
		}
		if entering {
			g.handleEnter(ctx)
			return
		}
		g.handleLeave(ctx, emptyBody)
	})
	tr.Run()

	if g.err != nil {
		return nil, g.err
	}
	return g.code, nil
}

func (g *Generator) emit(i instr.Instr) { g.code = append(g.code, i) }

func (g *Generator) fail(err error) {
	if g.err == nil {
		g.err = err
	}
}

// handleEnter emits the "entering" instruction for ctx: goal(name) for a
// top-level body functor, or the shape-driven const/struct/void/first_*/
// next_*/int form for anything else.
func (g *Generator) handleEnter(ctx *traverse.Context) {
	if ctx.IsClauseRoot() {
		return
	}

	if ctx.IsTopLevel() && !ctx.IsInHead() {
		g.handleBodyGoalEnter(ctx)
		return
	}

	switch v := ctx.Term().(type) {
	case *term.Functor:
		g.handleFunctor(v)
	case term.Int:
		g.emit(instr.IntConst{Value: v.Value})
	case term.Real:
		g.emit(instr.RealConst{Value: v.Value})
	case *term.Variable:
		g.handleVariable(v)
	default:
		g.fail(fmt.Errorf("codegen: unhandled term type %T", v))
	}
}

// handleLeave emits the "leaving" instruction for ctx: call/lastcall for a
// top-level body functor, or nogoal when leaving the clause root of an
// empty-body clause. Every other leave is a no-op: non-top functors,
// literals and variables emit nothing on the way out.
func (g *Generator) handleLeave(ctx *traverse.Context, emptyBody bool) {
	if ctx.IsClauseRoot() {
		if emptyBody {
			g.emit(instr.NoGoal{})
		}
		return
	}

	if ctx.IsTopLevel() && !ctx.IsInHead() {
		if ctx.IsLastBodyFunctor() {
			g.emit(instr.LastCall{})
		} else {
			g.emit(instr.Call{})
		}
	}
}

func (g *Generator) handleBodyGoalEnter(ctx *traverse.Context) {
	f, ok := ctx.Term().(*term.Functor)
	if !ok {
		g.fail(fmt.Errorf("codegen: top-level body term is not a functor: %T", ctx.Term()))
		return
	}
	if g.HasCut && f.Name == g.CutFunctor && f.IsAtom() {
		g.emit(instr.Cut{})
		return
	}
	g.emit(instr.Goal{Name: f.Name})
}

func (g *Generator) handleFunctor(f *term.Functor) {
	if f.IsAtom() {
		g.emit(instr.Atom{Name: f.Name})
	} else {
		g.emit(instr.Struct{Name: f.Name})
	}
}

func (g *Generator) handleVariable(v *term.Variable) {
	if v.Anonymous {
		g.emit(instr.Void{})
		return
	}

	// Temporariness and first/next occurrence are properties of the
	// variable's identity (VarID), shared across every occurrence in the
	// clause, not of this particular occurrence's own symbol key.
	varKey := g.Symtab.GetSymbolKey(v.Name)

	raw, found, err := g.Symtab.Get(varKey, annotate.FieldVarDomain)
	if err != nil {
		g.fail(fmt.Errorf("codegen: reading varDomain for variable %d: %w", v.Name, err))
		return
	}
	var vd annotate.VarDomain
	if found {
		vd, _ = raw.(annotate.VarDomain)
	}

	first := !g.seen[varKey]
	switch {
	case first && vd.Temporary:
		g.emit(instr.FirstTemp{Var: v.Name})
	case first && !vd.Temporary:
		g.emit(instr.FirstVar{
			Var:            v.Name,
			RefChainLength: uint16(vd.RefChainLength),
			Aliased:        vd.Aliased,
			Aliasable:      vd.Aliasable,
		})
	case !first && vd.Temporary:
		g.emit(instr.NextTemp{Var: v.Name})
	default:
		g.emit(instr.NextVar{
			Var:            v.Name,
			RefChainLength: uint16(vd.RefChainLength),
			Aliased:        vd.Aliased,
			Aliasable:      vd.Aliasable,
		})
	}

	if g.seen == nil {
		g.seen = make(map[symtab.Key]bool)
	}
	g.seen[varKey] = true
}
