// Package engine is the programmatic facade in place of a core-level CLI:
// Engine::new(), load_clause(source), query(source), reset(). It owns the
// whole pipeline (intern, symtab, parse, annotate, VAMAI, codegen, link),
// the way cmd/hack_assembler/main.go's Handler owns
// asm.NewParser -> asm.NewLowerer -> hack.NewCodeGenerator, but as a
// reusable object rather than a one-shot CLI handler, since a program here
// is built up incrementally across many LoadClause calls interleaved with
// queries rather than compiled once from a single input file.
//
// pkg/compiler.Compiler.Compile bundles annotate+generate+encode into one
// atomic call per clause, which is the right shape for a single clause
// compiled in isolation but wrong here: pkg/absint.Interpreter.Run needs to
// see every clause a program has, already annotated, before any of them is
// handed to pkg/codegen, so a later LoadClause can still refine a groundness
// fact an earlier clause's call site established. Engine therefore does not
// call compiler.Compile at all; rebuild below calls pkg/annotate,
// pkg/absint and pkg/codegen/pkg/instr directly, in that order, over the
// whole accumulated clause set every time it changes.
package engine

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-uuid"

	"github.com/vam2p/prolog/pkg/absint"
	"github.com/vam2p/prolog/pkg/annotate"
	"github.com/vam2p/prolog/pkg/builtins"
	"github.com/vam2p/prolog/pkg/codegen"
	"github.com/vam2p/prolog/pkg/compiler"
	"github.com/vam2p/prolog/pkg/instr"
	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/parser"
	"github.com/vam2p/prolog/pkg/resolver"
	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
	"github.com/vam2p/prolog/pkg/traverse"
)

// Engine is one program's whole pipeline state: the interner/symtab/
// reserved-functor triple every clause it has ever loaded shares, the
// linked CodeMachine those clauses compile to, and the options new queries
// inherit. It is not safe for concurrent use (that restriction is scoped to
// one resolver.Machine), but Engine's rebuild-on-load design
// mutates Names/Symtab/Program in place, so the same rule extends to the
// whole facade.
type Engine struct {
	opts   Options
	Logger hclog.Logger

	names    *intern.Interner
	symtab   *symtab.Table
	reserved term.Reserved
	eval     builtins.Evaluator
	program  *compiler.CodeMachine

	sources [][]byte // accumulated fact/rule source, replayed in full by rebuild
	epoch   string    // go-uuid tag stamped on every Solution, refreshed by Reset
}

// New builds an Engine with no clauses loaded yet.
func New(opts Options) (*Engine, error) {
	e := &Engine{opts: opts, Logger: hclog.NewNullLogger()}
	if err := e.reset(); err != nil {
		return nil, err
	}
	return e, nil
}

// SetLogger installs a named root logger; Engine threads a subsystem-named
// child down to the resolver.Machine each Query builds (e.g. "resolver"),
// matching the teacher's convention of one hclog.Logger per package rather
// than a single flat log stream.
func (e *Engine) SetLogger(l hclog.Logger) { e.Logger = l }

// Epoch returns the go-uuid tag stamped on this Engine's current lifetime,
// refreshed by Reset. Two Engines (or the same Engine across a Reset) never
// share one, so a Solution or diagnostic carrying it can never be mistaken
// for one produced by a different engine history: the observable half of
// reset idempotence, where the tag changes across a reset even though the
// solutions themselves must not.
func (e *Engine) Epoch() string { return e.epoch }

// LoadClause parses source as one or more fact/rule sentences and adds them
// to the program, recompiling the whole accumulated clause set so VAMAI's
// cross-clause fixpoint can see every clause that exists so far. A source
// containing a "?-" query sentence is rejected; use Query for those, since
// a loaded query clause would otherwise sit in the CodeMachine forever,
// replayed on every future rebuild for no reason.
func (e *Engine) LoadClause(source []byte) error {
	p := parser.New(e.names, e.symtab, e.reserved)
	clauses, err := p.Parse(source)
	if err != nil {
		return fmt.Errorf("engine: load: %w", err)
	}
	for _, c := range clauses {
		if c.IsQuery() {
			return ErrClauseAfterQuery
		}
	}

	e.sources = append(e.sources, append([]byte(nil), source...))
	return e.rebuild()
}

// rebuild re-parses every source chunk ever accepted by LoadClause against
// a fresh Interner/Symtab/Reserved triple, annotates every resulting
// clause, runs VAMAI's fixpoint once over the whole set, then codegens and
// links each clause into a fresh CodeMachine. Discarding and re-deriving
// all program-lifetime state on every load is what makes Reset (an empty
// rebuild) trivially correct: there is no incremental state left over from
// a prior load or query for a stale value to hide in.
func (e *Engine) rebuild() error {
	names := intern.New()
	reserved, err := term.RegisterReserved(names)
	if err != nil {
		return fmt.Errorf("engine: rebuild: register reserved: %w", err)
	}
	tbl := symtab.New()
	p := parser.New(names, tbl, reserved)

	var errs *multierror.Error
	var clauses []*term.Clause
	for _, src := range e.sources {
		cs, err := p.Parse(src)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		clauses = append(clauses, cs...)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("engine: rebuild: %w", err)
	}

	flags := e.opts.traverseFlags()
	ann := annotate.New(tbl)
	for _, c := range clauses {
		if err := ann.Annotate(c, flags); err != nil {
			return fmt.Errorf("engine: rebuild: annotate: %w", err)
		}
	}

	ai := absint.New(names, tbl, reserved)
	ai.Load(clauses...)
	if err := ai.Run(); err != nil {
		return fmt.Errorf("engine: rebuild: absint: %w", err)
	}

	program := compiler.NewCodeMachine()
	for _, c := range clauses {
		cc, err := generate(tbl, reserved, flags, c)
		if err != nil {
			return fmt.Errorf("engine: rebuild: generate: %w", err)
		}
		program.Link(cc)
	}

	e.names, e.symtab, e.reserved, e.program = names, tbl, reserved, program
	e.eval = builtins.New(reserved)
	return nil
}

// generate runs the codegen+encode half of the pipeline pkg/compiler.Compile
// would otherwise own, for one already-annotated clause, deliberately
// skipping Compile's own annotate call since rebuild/Query already ran it
// (possibly refined further by VAMAI in between) over the whole clause set.
func generate(tbl *symtab.Table, reserved term.Reserved, flags traverse.Flags, c *term.Clause) (*compiler.CompiledClause, error) {
	gen := codegen.New(tbl)
	gen.SetCutFunctor(reserved.Cut)
	code, err := gen.Generate(c, flags)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	var buf []byte
	for _, ins := range code {
		buf, err = instr.Encode(buf, ins)
		if err != nil {
			return nil, fmt.Errorf("encode: %w", err)
		}
	}

	cc := &compiler.CompiledClause{Instructions: code, Bytes: buf, IsQuery: c.IsQuery()}
	if c.Head != nil {
		cc.Name, cc.Arity = c.Head.Name, c.Head.Arity()
	}
	return cc, nil
}

// reset discards all accumulated state, as if no LoadClause had ever been
// called, and mints a fresh epoch tag.
func (e *Engine) reset() error {
	e.sources = nil
	names := intern.New()
	reserved, err := term.RegisterReserved(names)
	if err != nil {
		return fmt.Errorf("engine: reset: %w", err)
	}
	e.names = names
	e.reserved = reserved
	e.symtab = symtab.New()
	e.program = compiler.NewCodeMachine()
	e.eval = builtins.New(reserved)

	tag, err := uuid.GenerateUUID()
	if err != nil {
		return fmt.Errorf("engine: reset: epoch: %w", err)
	}
	e.epoch = tag
	return nil
}

// Sprint formats t the way the query that produced it would be echoed back
// to a user, using this Engine's own Names/Reserved (the same pairing
// term.Printer always needs), since an atom or functor name only means
// anything relative to the Interner that minted its id.
func (e *Engine) Sprint(t term.Term) string {
	p := term.Printer{Names: e.names, Reserved: e.reserved}
	return p.Sprint(t)
}

// Reset discards every loaded clause, returning the Engine to the state
// New left it in. reset();load(P);query(Q) yields the same solution stream
// regardless of what this Engine resolved before the reset.
func (e *Engine) Reset() error { return e.reset() }

// Solution is one query answer: every one of the query's own named
// variables, dereferenced to its current binding (or left unbound, if the
// query succeeded without constraining it), plus the epoch of the Engine
// that produced it.
type Solution struct {
	Epoch    string
	Bindings map[string]term.Term
}

// Query parses source as exactly one "?-" sentence and starts it, returning
// a Cursor whose first Next call yields the first solution and whose later
// calls yield the subsequent ones.
func (e *Engine) Query(source []byte) (*Cursor, error) {
	if len(e.sources) == 0 {
		return nil, ErrNoClauses
	}

	p := parser.New(e.names, e.symtab, e.reserved)
	clauses, err := p.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("engine: query: %w", err)
	}
	if len(clauses) != 1 || !clauses[0].IsQuery() {
		return nil, ErrClauseAfterQuery
	}
	q := clauses[0]

	flags := e.opts.traverseFlags()
	if err := annotate.New(e.symtab).Annotate(q, flags); err != nil {
		return nil, fmt.Errorf("engine: query: annotate: %w", err)
	}
	cc, err := generate(e.symtab, e.reserved, flags, q)
	if err != nil {
		return nil, fmt.Errorf("engine: query: generate: %w", err)
	}

	names := queryVarNames(q)

	m := resolver.New(e.program, e.names, e.reserved, e.eval)
	m.MaxSteps = e.opts.MaxSteps
	m.Bindings = term.NewBindings(e.opts.EnvCapacity)
	m.Trail = resolver.NewTrailWithCapacity(e.opts.TrailCapacity)
	m.Logger = e.Logger.Named("resolver")
	m.StartQuery(cc)

	return &Cursor{machine: m, names: names, epoch: e.epoch}, nil
}

// queryVarNames collects the surface variables a query names, in first
// occurrence order, deduplicated by identity: the set Cursor reports back
// through ResolveQueryVariable after each solution.
func queryVarNames(q *term.Clause) []intern.VarID {
	var order []intern.VarID
	seen := map[intern.VarID]bool{}
	var walk func(t term.Term)
	walk = func(t term.Term) {
		switch v := t.(type) {
		case *term.Variable:
			if v.Anonymous || seen[v.Name] {
				return
			}
			seen[v.Name] = true
			order = append(order, v.Name)
		case *term.Functor:
			for _, a := range v.Args {
				walk(a)
			}
		}
	}
	for _, goal := range q.Body {
		walk(goal)
	}
	return order
}

// Cursor iterates a query's solution stream. Each call to Next invalidates
// the Solution returned by the previous call, the same rule
// resolver.Solution's own doc comment states, since both read the same
// Bindings arena the underlying Machine may rewrite while backtracking.
type Cursor struct {
	machine *resolver.Machine
	names   []intern.VarID
	epoch   string
}

// Next advances to the next solution, or reports false once the query is
// exhausted.
func (c *Cursor) Next() (*Solution, bool, error) {
	_, ok, err := c.machine.Next()
	if err != nil || !ok {
		return nil, false, err
	}

	bindings := make(map[string]term.Term, len(c.names))
	for _, id := range c.names {
		name, err := c.machine.Names.VariableName(id)
		if err != nil {
			return nil, false, fmt.Errorf("engine: solution: %w", err)
		}
		v := c.machine.ResolveQueryVariable(id)
		bindings[name] = term.Deref(c.machine.Bindings, v)
	}
	return &Solution{Epoch: c.epoch, Bindings: bindings}, true, nil
}
