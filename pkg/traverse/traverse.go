// Package traverse implements the reversible, stack-based positional
// traversal used by the annotating visitor and the instruction generator.
// It visits a clause's head arguments and body goals depth-first, calling
// a visitor twice per sub-term (once entering, once leaving) and reporting
// whether the current term is top-level, in the head, and/or the last body
// goal.
package traverse

import (
	"github.com/vam2p/prolog/pkg/internal/stack"
	"github.com/vam2p/prolog/pkg/term"
)

// Flags select traversal order; all default to left-to-right, head-first.
type Flags struct {
	ClauseHeadFirst         bool
	LeftToRightClauseBodies bool
	LeftToRightFunctorArgs  bool
}

// DefaultFlags returns the conventional left-to-right, head-first order.
func DefaultFlags() Flags {
	return Flags{ClauseHeadFirst: true, LeftToRightClauseBodies: true, LeftToRightFunctorArgs: true}
}

// ctxState is the mutable, restorable state for one visited node. The
// enclosing *Context is pushed onto the traverser's operator stack on
// entry and popped (restoring it as tr.cur) on leave, which is
// the "reversible operator" design note: push on enter, pop-and-undo on
// leave, with no global mutable state surviving past the pop.
type ctxState struct {
	t               term.Term // nil for the synthetic clause-root context
	topLevel        bool
	inHead          bool
	lastBodyFunctor bool
	position        int
	parent          *Context
}

// Context is the read-only view of a ctxState handed to visitors.
type Context struct{ *ctxState }

func (c *Context) Term() term.Term         { return c.t }
func (c *Context) IsTopLevel() bool        { return c.topLevel }
func (c *Context) IsInHead() bool          { return c.inHead }
func (c *Context) IsLastBodyFunctor() bool { return c.lastBodyFunctor }
func (c *Context) Position() int           { return c.position }
func (c *Context) Parent() *Context        { return c.parent }

// IsClauseRoot reports whether this context is the synthetic wrapper
// around the whole clause (Term() is nil), used by the generator to know
// when it is safe to emit `nogoal` for an empty body.
func (c *Context) IsClauseRoot() bool { return c.t == nil }

// Visitor is called once on entry and once on leave for every context.
// The entering argument tells which.
type Visitor func(ctx *Context, entering bool)

// Traverser walks one clause, depth-first, honoring Flags for ordering.
type Traverser struct {
	clause  *term.Clause
	flags   Flags
	visitor Visitor

	ops stack.Stack[*Context] // previous context, restored on leave
	cur *Context
}

// New builds a Traverser over clause using flags.
func New(clause *term.Clause, flags Flags) *Traverser {
	return &Traverser{clause: clause, flags: flags}
}

// SetContextChangeVisitor installs the visitor invoked on every
// entering/leaving context-change during Run.
func (tr *Traverser) SetContextChangeVisitor(v Visitor) { tr.visitor = v }

// Run walks the whole clause, calling the installed visitor twice per
// sub-term. It never fails: the traversal is purely functional.
func (tr *Traverser) Run() {
	root := &Context{&ctxState{t: nil}}
	tr.enter(root)

	if tr.flags.ClauseHeadFirst {
		tr.walkHead(root)
		tr.walkBody(root)
	} else {
		tr.walkBody(root)
		tr.walkHead(root)
	}

	tr.leave(root)
}

func (tr *Traverser) walkHead(parent *Context) {
	if tr.clause.Head == nil {
		return
	}
	args := tr.clause.Head.Args
	for i := range args {
		idx := i
		if !tr.flags.LeftToRightFunctorArgs {
			idx = len(args) - 1 - i
		}
		tr.walkTerm(args[idx], parent, true /*topLevel*/, true /*inHead*/, false, idx)
	}
}

func (tr *Traverser) walkBody(parent *Context) {
	body := tr.clause.Body
	n := len(body)
	for i := 0; i < n; i++ {
		idx := i
		if !tr.flags.LeftToRightClauseBodies {
			idx = n - 1 - i
		}
		last := idx == n-1
		tr.walkTerm(body[idx], parent, true /*topLevel*/, false /*inHead*/, last, idx)
	}
}

// walkTerm visits t and, if it is a compound Functor, recurses into its
// arguments (always non-top-level, inheriting inHead and the
// last-body-functor flag of the goal they sit in).
func (tr *Traverser) walkTerm(t term.Term, parent *Context, topLevel, inHead, lastBody bool, position int) {
	ctx := &Context{&ctxState{
		t: t, topLevel: topLevel, inHead: inHead, lastBodyFunctor: lastBody,
		position: position, parent: parent,
	}}
	tr.enter(ctx)

	if f, ok := t.(*term.Functor); ok {
		args := f.Args
		for i := range args {
			idx := i
			if !tr.flags.LeftToRightFunctorArgs {
				idx = len(args) - 1 - i
			}
			tr.walkTerm(args[idx], ctx, false, inHead, lastBody, idx)
		}
	}

	tr.leave(ctx)
}

func (tr *Traverser) enter(ctx *Context) {
	tr.ops.Push(tr.cur)
	tr.cur = ctx
	if tr.visitor != nil {
		tr.visitor(ctx, true)
	}
}

func (tr *Traverser) leave(ctx *Context) {
	if tr.visitor != nil {
		tr.visitor(ctx, false)
	}
	prev, err := tr.ops.Pop()
	if err == nil {
		tr.cur = prev
	}
}
