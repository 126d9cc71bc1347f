package parser

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	pc "github.com/prataprc/goparsec"

	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
)

// Parser converts Prolog source text into term.Clause values against a
// single Interner/Table/Reserved triple. Like pkg/compiler.Compiler, one
// Parser is meant to be reused across every clause a program loads, since
// the Interner and Table are themselves program-lifetime state; vars holds
// the current clause's name-to-Variable scope and is reset between
// sentences (see resetVars), which is how two occurrences of "X" in one
// clause become the same term.Variable while "X" in the next clause does
// not alias it.
type Parser struct {
	Names    *intern.Interner
	Symtab   *symtab.Table
	Reserved term.Reserved

	vars map[string]*term.Variable
}

// New builds a Parser sharing an Interner/Table/Reserved with the rest of
// a program's pipeline (compiler, resolver).
func New(names *intern.Interner, tbl *symtab.Table, reserved term.Reserved) *Parser {
	return &Parser{Names: names, Symtab: tbl, Reserved: reserved}
}

func (p *Parser) resetVars() { p.vars = make(map[string]*term.Variable) }

func (p *Parser) freshKey() symtab.Key { return p.Symtab.GetSymbolKey(new(struct{})) }

// Parse reads an entire source file, returning every fact/rule/query it
// contains, in source order, expanded per handleRule's disjunction
// splitting. A sentence that fails to convert does not abort the rest of
// the file: every such error is collected into the returned error via
// go-multierror, so a caller loading a whole file gets every problem at
// once rather than stopping at the first.
func (p *Parser) Parse(source []byte) ([]*term.Clause, error) {
	root, ok := p.fromSource(source)
	if !ok {
		return nil, ErrSyntax
	}
	return p.fromAST(root)
}

// fromSource runs the grammar, producing a traversable AST. It honors the
// same PARSEC_DEBUG/PRINT_AST environment toggles as the teacher's asm/vm
// parsers for inspecting the combinator match in place.
func (p *Parser) fromSource(source []byte) (pc.Queryable, bool) {
	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}
	root, _ := ast.Parsewith(pProgram, pc.NewScanner(source))
	if os.Getenv("PRINT_AST") != "" && root != nil {
		ast.Prettyprint()
	}
	return root, root != nil
}

// fromAST walks the parsed program's top-level sentences, converting each
// into one or more term.Clause values.
func (p *Parser) fromAST(root pc.Queryable) ([]*term.Clause, error) {
	if root.GetName() != "program" {
		return nil, fmt.Errorf("%w: expected node 'program', found %s", ErrUnexpectedNode, root.GetName())
	}

	var clauses []*term.Clause
	var errs *multierror.Error
	for _, child := range root.GetChildren() {
		switch child.GetName() {
		case "comment", "sl_comment", "ml_comment":
			continue

		case "fact":
			p.resetVars()
			c, err := p.handleFact(child)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			clauses = append(clauses, c)

		case "rule":
			p.resetVars()
			cs, err := p.handleRule(child)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			clauses = append(clauses, cs...)

		case "query":
			p.resetVars()
			c, err := p.handleQuery(child)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			clauses = append(clauses, c)

		default:
			errs = multierror.Append(errs, fmt.Errorf("%w: %q", ErrUnexpectedNode, child.GetName()))
		}
	}
	return clauses, errs.ErrorOrNil()
}
