// Package compiler orchestrates parse (external) -> annotate -> generate
// for one clause at a time and links the results into a CodeMachine, in the
// three-stage pipeline shape of cmd/hack_assembler/main.go
// (Parser.Parse -> Lowerer.Lower -> CodeGenerator.Generate).
package compiler

import (
	"fmt"

	"github.com/vam2p/prolog/pkg/annotate"
	"github.com/vam2p/prolog/pkg/codegen"
	"github.com/vam2p/prolog/pkg/instr"
	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
	"github.com/vam2p/prolog/pkg/traverse"
)

// CompiledClause is one clause's linear instruction sequence, its
// byte-encoded form, and the offset it occupies once linked into a
// CodeMachine.
type CompiledClause struct {
	Name         intern.FunctorID // 0 for a headless query clause
	Arity        int
	IsQuery      bool
	Instructions []instr.Instr
	Bytes        []byte
	Offset       int // set by CodeMachine.Link
}

// Compiler runs the annotate -> generate -> encode pipeline for one clause
// at a time against a shared symbol table and traversal flags.
type Compiler struct {
	Symtab *symtab.Table
	Flags  traverse.Flags

	CutFunctor intern.FunctorID
	HasCut     bool
}

// New builds a Compiler sharing tbl for every clause it compiles.
func New(tbl *symtab.Table, flags traverse.Flags) *Compiler {
	return &Compiler{Symtab: tbl, Flags: flags}
}

// SetCutFunctor tells the Compiler which functor id is the reserved cut
// atom, so its generated clauses special-case "!"/0 to a Cut instruction.
// Callers that registered pkg/term's Reserved ids pass Reserved.Cut here.
func (c *Compiler) SetCutFunctor(id intern.FunctorID) {
	c.CutFunctor = id
	c.HasCut = true
}

// Compile annotates and generates instructions for clause and encodes them
// to bytes. It does not assign Offset; CodeMachine.Link does that once the
// clause is appended to a machine.
func (c *Compiler) Compile(clause *term.Clause) (*CompiledClause, error) {
	if err := annotate.New(c.Symtab).Annotate(clause, c.Flags); err != nil {
		return nil, fmt.Errorf("compiler: annotate: %w", err)
	}
	gen := codegen.New(c.Symtab)
	if c.HasCut {
		gen.SetCutFunctor(c.CutFunctor)
	}
	code, err := gen.Generate(clause, c.Flags)
	if err != nil {
		return nil, fmt.Errorf("compiler: generate: %w", err)
	}

	var buf []byte
	for _, ins := range code {
		buf, err = instr.Encode(buf, ins)
		if err != nil {
			return nil, fmt.Errorf("compiler: encode: %w", err)
		}
	}

	cc := &CompiledClause{Instructions: code, Bytes: buf, IsQuery: clause.IsQuery()}
	if clause.Head != nil {
		cc.Name, cc.Arity = clause.Head.Name, clause.Head.Arity()
	}
	return cc, nil
}

// entryKey identifies a predicate entry point by (name, arity).
type entryKey struct {
	name  intern.FunctorID
	arity int
}

// CodeMachine is the linked code area: a contiguous byte buffer plus a
// (name,arity) -> entry offset index, the same Program+SymbolTable pairing
// shape a label table resolving jump targets at codegen time would use,
// generalized from labels to predicate entry points.
type CodeMachine struct {
	Code    []byte
	entries map[entryKey]int
	byPred  map[entryKey][]*CompiledClause
	order   []*CompiledClause
}

// NewCodeMachine returns an empty code area.
func NewCodeMachine() *CodeMachine {
	return &CodeMachine{
		entries: make(map[entryKey]int),
		byPred:  make(map[entryKey][]*CompiledClause),
	}
}

// Link appends cc's bytes to the machine, recording its Offset and indexing
// it under its (name,arity), preserving load order: the first matching
// clause is always tried first.
func (m *CodeMachine) Link(cc *CompiledClause) {
	cc.Offset = len(m.Code)
	m.Code = append(m.Code, cc.Bytes...)

	key := entryKey{cc.Name, cc.Arity}
	if _, exists := m.entries[key]; !exists {
		m.entries[key] = cc.Offset
	}
	m.byPred[key] = append(m.byPred[key], cc)
	m.order = append(m.order, cc)
}

// EntryOffset returns the code offset of the first clause ever loaded for
// (name, arity).
func (m *CodeMachine) EntryOffset(name intern.FunctorID, arity int) (int, bool) {
	off, ok := m.entries[entryKey{name, arity}]
	return off, ok
}

// ClausesFor returns every linked clause for (name, arity) in load order,
// the alternative set the resolver walks through on backtracking.
func (m *CodeMachine) ClausesFor(name intern.FunctorID, arity int) []*CompiledClause {
	return m.byPred[entryKey{name, arity}]
}

// Clauses returns every linked clause in load order, queries included.
func (m *CodeMachine) Clauses() []*CompiledClause {
	return m.order
}
