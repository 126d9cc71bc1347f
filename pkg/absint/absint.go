// Package absint implements VAMAI, the abstract-interpretation pass that
// refines the groundness and aliasing bits pkg/annotate leaves conservative
// (every bare variable unknown, every RefChainLength/Aliased/Aliasable at
// its zero value). Where annotate sees one clause at a time, VAMAI sees the
// whole loaded program: it propagates "this argument is always bound to a
// ground term whenever this predicate is called" across predicate-call
// boundaries, to a fixpoint, then writes the refined bits back into the
// shared pkg/symtab so pkg/codegen's later Generate pass picks them up
// before pkg/resolver ever runs.
//
// VAMAI adds no runtime semantics of its own: a wrong guess here costs a
// missed optimization, never a wrong answer, since pkg/resolver's Unify
// remains the sole authority over whether two terms actually match. It
// dispatches per term shape through the same pkg/instr Kind tags
// pkg/resolver's VAM2P loop and pkg/codegen's Generate switch use, an
// operation-keyed dispatch table (kindOf/consumeTerm below) rather than a
// bare recursive-descent type switch with no shared vocabulary with the
// rest of the pipeline, reading operands as abstract groundness bits
// instead of concrete values.
package absint

import (
	"github.com/vam2p/prolog/pkg/annotate"
	"github.com/vam2p/prolog/pkg/instr"
	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
)

// predKey identifies one predicate by (name, arity), the same pairing
// pkg/compiler's own unexported entryKey uses to index a CodeMachine.
type predKey struct {
	Name  intern.FunctorID
	Arity int
}

// argDomain is the per-argument-position groundness fact proven about a
// predicate so far: argDomain[i] is true only once every call site
// observed up to this point in the fixpoint passes a provably-ground term
// in argument position i. It starts optimistic (all true) and only ever
// narrows, so the fixpoint is a monotone descent in a finite lattice and is
// guaranteed to terminate.
type argDomain []bool

func allGround(arity int) argDomain {
	d := make(argDomain, arity)
	for i := range d {
		d[i] = true
	}
	return d
}

// meet narrows d in place with an observed call site's domain, reporting
// whether anything changed.
func (d argDomain) meet(obs argDomain) bool {
	changed := false
	for i := range d {
		if i < len(obs) && d[i] && !obs[i] {
			d[i] = false
			changed = true
		}
	}
	return changed
}

// Interpreter runs the VAMAI fixpoint over a whole set of loaded clauses,
// writing refined annotate.TermDomain/annotate.VarDomain values back into
// Symtab. It must run after every clause has been annotated (pkg/annotate)
// and before any of them is handed to pkg/codegen.
type Interpreter struct {
	Names    *intern.Interner
	Symtab   *symtab.Table
	Reserved term.Reserved

	clauses []*term.Clause
	preds   map[predKey]argDomain
}

// New builds an Interpreter sharing names/tbl/reserved with the rest of a
// program's pipeline.
func New(names *intern.Interner, tbl *symtab.Table, reserved term.Reserved) *Interpreter {
	return &Interpreter{Names: names, Symtab: tbl, Reserved: reserved, preds: map[predKey]argDomain{}}
}

// Load registers clauses for analysis. Queries (Head == nil) are kept too:
// they act as call sites that seed the fixpoint but are never themselves a
// callee.
func (in *Interpreter) Load(clauses ...*term.Clause) {
	for _, c := range clauses {
		in.clauses = append(in.clauses, c)
		if c.Head == nil {
			continue
		}
		key := predKey{c.Head.Name, c.Head.Arity()}
		if _, ok := in.preds[key]; !ok {
			in.preds[key] = allGround(key.Arity)
		}
	}
}

// Run performs the fixpoint: repeatedly walking every loaded clause,
// narrowing each predicate's argument domain from the call sites reached,
// until a full pass changes none of them, then makes one final pass to
// write the converged groundness, reference-chain length and aliasing bits
// into Symtab.
func (in *Interpreter) Run() error {
	for changed := true; changed; {
		changed = false
		for _, c := range in.clauses {
			stepChanged, err := in.walk(c, nil)
			if err != nil {
				return err
			}
			changed = changed || stepChanged
		}
	}

	for _, c := range in.clauses {
		rec := newRecorder()
		if _, err := in.walk(c, rec); err != nil {
			return err
		}
		if err := in.writeBack(rec); err != nil {
			return err
		}
	}
	return nil
}

// clauseState is the abstract store threaded through one pass over one
// clause: which variables (by identity, not by occurrence) are currently
// known ground.
type clauseState struct {
	ground map[intern.VarID]bool
}

func newClauseState() *clauseState { return &clauseState{ground: map[intern.VarID]bool{}} }

// recorder accumulates the final-pass bookkeeping a fixpoint pass doesn't
// need: per-variable occurrence counts and whether a variable was ever
// seen in a bare (non-nested) argument position, the two facts RefChainLength
// and Aliased are computed from.
type recorder struct {
	occurrences map[intern.VarID]int
	bareCount   map[intern.VarID]int
	groundLeaf  map[symtab.Key]bool   // per-occurrence-node groundness, keyed like annotate's TermDomain
	groundVar   map[intern.VarID]bool // final per-identity groundness, filled in as walk proceeds
}

func newRecorder() *recorder {
	return &recorder{
		occurrences: map[intern.VarID]int{},
		bareCount:   map[intern.VarID]int{},
		groundLeaf:  map[symtab.Key]bool{},
		groundVar:   map[intern.VarID]bool{},
	}
}

// walk runs one pass over clause's head arguments (forced-ground where the
// predicate's current argDomain says so) and then its body goals in
// declared order, narrowing callee argDomains as it goes. rec is nil during
// the plain fixpoint passes and non-nil only on the final bookkeeping pass.
func (in *Interpreter) walk(c *term.Clause, rec *recorder) (bool, error) {
	cs := newClauseState()
	changed := false

	if c.Head != nil {
		dom := in.preds[predKey{c.Head.Name, c.Head.Arity()}]
		for i, arg := range c.Head.Args {
			forced := i < len(dom) && dom[i]
			in.consumeTerm(arg, cs, rec, forced, true)
		}
	}

	for _, goal := range c.Body {
		if goal.Name == in.Reserved.Cut {
			continue
		}
		obs := make(argDomain, len(goal.Args))
		for i, arg := range goal.Args {
			obs[i] = in.consumeTerm(arg, cs, rec, false, true)
		}
		in.applyGroundingBuiltin(goal, obs, cs)

		key := predKey{goal.Name, len(goal.Args)}
		dom, known := in.preds[key]
		if !known {
			// Called predicate has no loaded clauses of its own yet (e.g. a
			// builtin, or a forward reference never defined): nothing can be
			// assumed ground on its behalf, so it gets no entry and every
			// future observation at this key is simply discarded.
			continue
		}
		if dom.meet(obs) {
			changed = true
		}
	}

	return changed, nil
}

// kindOf tags t with the pkg/instr Kind its codegen counterpart would carry,
// so consumeTerm's dispatch below is keyed by the same Kind space
// pkg/resolver's VAM2P loop and pkg/codegen's Generate switch use, rather
// than by an absint-private tag of its own.
func kindOf(t term.Term) instr.Kind {
	switch v := t.(type) {
	case *term.Functor:
		if v.IsAtom() {
			return instr.KindAtom
		}
		return instr.KindStruct
	case term.Int:
		return instr.KindInt
	case term.Real:
		return instr.KindReal
	case *term.Variable:
		return instr.KindFirstVar
	default:
		return instr.KindVoid
	}
}

// consumeTerm determines t's groundness under cs, recording bookkeeping
// into rec when present. forced means an enclosing predicate's argDomain
// already guarantees this whole subtree is bound to a ground term; it
// propagates unchanged into every nested argument, since a ground compound
// can only be built from ground parts. bare means t itself occupies a
// top-level argument slot (a head argument or a goal argument), not a
// position nested inside another compound, the fact recorder.Aliased is
// built from.
func (in *Interpreter) consumeTerm(t term.Term, cs *clauseState, rec *recorder, forced, bare bool) bool {
	switch kindOf(t) {
	case instr.KindAtom:
		return true

	case instr.KindStruct:
		v := t.(*term.Functor)
		ground := true
		for _, arg := range v.Args {
			if !in.consumeTerm(arg, cs, rec, forced, false) {
				ground = false
			}
		}
		return ground || forced

	case instr.KindInt, instr.KindReal:
		return true

	case instr.KindFirstVar:
		v := t.(*term.Variable)
		if forced {
			cs.ground[v.Name] = true
		}
		g := cs.ground[v.Name]
		if rec != nil {
			rec.occurrences[v.Name]++
			if bare {
				rec.bareCount[v.Name]++
			}
			rec.groundLeaf[v.Key()] = g
			if g {
				rec.groundVar[v.Name] = true
			}
		}
		return g

	default:
		return false
	}
}

// applyGroundingBuiltin models the two built-ins that bind a previously
// unbound variable to a value VAMAI can see is ground without running the
// resolver: X is <ground arithmetic expr> and X = <ground term>. Every
// other built-in and every user predicate is opaque to this analysis: its
// effect on its arguments' groundness is only ever observed through the
// call-site argDomain fixpoint above, never assumed here.
func (in *Interpreter) applyGroundingBuiltin(goal *term.Functor, obs argDomain, cs *clauseState) {
	if len(goal.Args) != 2 {
		return
	}
	if goal.Name != in.Reserved.Is && goal.Name != in.Reserved.Unify {
		return
	}
	lhs, ok := goal.Args[0].(*term.Variable)
	if !ok || !obs[1] {
		return
	}
	cs.ground[lhs.Name] = true
}

// writeBack folds rec's per-variable bookkeeping into annotate.VarDomain
// (preserving the Temporary bit annotate already computed) and refreshes
// every variable occurrence's annotate.TermDomain with the groundness
// VAMAI proved, both keyed exactly as pkg/annotate and pkg/codegen already
// key them so neither has to know VAMAI ran at all.
func (in *Interpreter) writeBack(rec *recorder) error {
	for key, ground := range rec.groundLeaf {
		if err := in.Symtab.Put(key, annotate.FieldTermDomain, annotate.TermDomain{Ground: ground}); err != nil {
			return err
		}
	}

	for varID, count := range rec.occurrences {
		key := in.Symtab.GetSymbolKey(varID)
		raw, _, err := in.Symtab.Get(key, annotate.FieldVarDomain)
		if err != nil {
			return err
		}
		vd, _ := raw.(annotate.VarDomain)

		vd.RefChainLength = count
		vd.Aliased = rec.bareCount[varID] >= 2
		// Aliasable only matters for a variable VAMAI could not already
		// prove ground: a provably-ground variable's binding is established
		// exactly once and never needs a cheaper aliasing path.
		vd.Aliasable = vd.Aliased && !rec.groundVar[varID]

		if err := in.Symtab.Put(key, annotate.FieldVarDomain, vd); err != nil {
			return err
		}
	}
	return nil
}
