package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pc "github.com/prataprc/goparsec"

	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/term"
)

// isPresent reports whether a Maybe-wrapped grammar slot actually matched.
// goparsec's ast.Maybe does not wrap its result under its own given name
// (it passes through whatever the inner parser produced, exactly like
// ast.OrdChoice), so an absent slot is distinguished from a present one by
// name alone: a genuine match is always the inner And's given name, which
// an absent slot cannot coincidentally produce.
func isPresent(node pc.Queryable, innerName string) bool {
	return node != nil && node.GetName() == innerName
}

// --- clause/sentence level ---------------------------------------------

func (p *Parser) handleHead(node pc.Queryable) (*term.Functor, error) {
	switch node.GetName() {
	case "compound":
		return p.handleCompound(node)
	case "QUOTED_ATOM":
		name, err := unquoteAtom(node.GetValue())
		if err != nil {
			return nil, err
		}
		return p.atomFunctor(name)
	case "ATOM":
		return p.atomFunctor(node.GetValue())
	default:
		return nil, fmt.Errorf("%w: head %q", ErrUnexpectedNode, node.GetName())
	}
}

func (p *Parser) handleFact(node pc.Queryable) (*term.Clause, error) {
	head, err := p.handleHead(node.GetChildren()[0])
	if err != nil {
		return nil, err
	}
	return &term.Clause{Head: head}, nil
}

// handleRule converts one "head :- body." sentence. A top-level
// disjunction in body (at any nesting under conjunction) is expanded into
// multiple independent term.Clause values sharing the same head, rather
// than given runtime ';'/2 semantics; see expandBody and
// pkg/resolver/builtin.go's documented scope boundary.
func (p *Parser) handleRule(node pc.Queryable) ([]*term.Clause, error) {
	children := node.GetChildren()
	head, err := p.handleHead(children[0])
	if err != nil {
		return nil, err
	}
	bodyTerm, err := p.handleDisjunctionNode(children[2])
	if err != nil {
		return nil, err
	}
	alts, err := p.expandBody(bodyTerm)
	if err != nil {
		return nil, err
	}
	clauses := make([]*term.Clause, len(alts))
	for i, seq := range alts {
		clauses[i] = &term.Clause{Head: head, Body: seq}
	}
	return clauses, nil
}

// handleQuery converts one "?- body." sentence. Unlike a rule, a query is
// a single resolution request with nowhere to put a second alternative, so
// a body that expands to more than one goal sequence is rejected rather
// than silently running only the first.
func (p *Parser) handleQuery(node pc.Queryable) (*term.Clause, error) {
	bodyTerm, err := p.handleDisjunctionNode(node.GetChildren()[1])
	if err != nil {
		return nil, err
	}
	alts, err := p.expandBody(bodyTerm)
	if err != nil {
		return nil, err
	}
	if len(alts) != 1 {
		return nil, ErrQueryDisjunction
	}
	return &term.Clause{Body: alts[0]}, nil
}

// expandBody distributes ';'/2 over ','/2 (and over itself), turning an
// arbitrarily nested disjunction/conjunction tree into the flat set of
// goal sequences it denotes, standard clausal-form expansion, the same
// transform that lets "a, (b;c), d" become the two clause bodies
// "a,b,d" and "a,c,d" without the resolver ever seeing a ';'/2 goal.
func (p *Parser) expandBody(t term.Term) ([][]*term.Functor, error) {
	f, isFunctor := t.(*term.Functor)
	if !isFunctor {
		return nil, fmt.Errorf("%w: goal must be callable, got %T", ErrUnexpectedNode, t)
	}

	if f.Name == p.Reserved.Disjunct && len(f.Args) == 2 {
		left, err := p.expandBody(f.Args[0])
		if err != nil {
			return nil, err
		}
		right, err := p.expandBody(f.Args[1])
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	}

	if f.Name == p.Reserved.Conjunct && len(f.Args) == 2 {
		left, err := p.expandBody(f.Args[0])
		if err != nil {
			return nil, err
		}
		right, err := p.expandBody(f.Args[1])
		if err != nil {
			return nil, err
		}
		out := make([][]*term.Functor, 0, len(left)*len(right))
		for _, l := range left {
			for _, r := range right {
				seq := make([]*term.Functor, 0, len(l)+len(r))
				seq = append(seq, l...)
				seq = append(seq, r...)
				out = append(out, seq)
			}
		}
		return out, nil
	}

	return [][]*term.Functor{{f}}, nil
}

// --- operator precedence chain ------------------------------------------

func (p *Parser) handleDisjunctionNode(node pc.Queryable) (term.Term, error) {
	children := node.GetChildren()
	left, err := p.handleConjunctionNode(children[0])
	if err != nil {
		return nil, err
	}
	rhs := children[1]
	if !isPresent(rhs, "or_term") {
		return left, nil
	}
	right, err := p.handleDisjunctionNode(rhs.GetChildren()[1])
	if err != nil {
		return nil, err
	}
	return p.binOp(p.Reserved.Disjunct, left, right), nil
}

func (p *Parser) handleConjunctionNode(node pc.Queryable) (term.Term, error) {
	children := node.GetChildren()
	left, err := p.handleCompareNode(children[0])
	if err != nil {
		return nil, err
	}
	rhs := children[1]
	if !isPresent(rhs, "and_term") {
		return left, nil
	}
	right, err := p.handleConjunctionNode(rhs.GetChildren()[1])
	if err != nil {
		return nil, err
	}
	return p.binOp(p.Reserved.Conjunct, left, right), nil
}

func (p *Parser) handleCompareNode(node pc.Queryable) (term.Term, error) {
	children := node.GetChildren()
	left, err := p.handleAddNode(children[0])
	if err != nil {
		return nil, err
	}
	rhs := children[1]
	if !isPresent(rhs, "compare_term") {
		return left, nil
	}
	rc := rhs.GetChildren()
	right, err := p.handleAddNode(rc[1])
	if err != nil {
		return nil, err
	}
	fn, err := p.compareOpFunctor(rc[0].GetName())
	if err != nil {
		return nil, err
	}
	return p.binOp(fn, left, right), nil
}

// handleAddNode and handleMulNode walk a right-recursive parse chain and
// fold it left-associatively: "10 - 3 - 2" parses as add(10, add_rhs=(- ,
// add(3, add_rhs=(-, add(2, none))))), but means (10-3)-2, not 10-(3-2), so
// each step applies its operator to the running total as it walks rather
// than recursing into the remainder first.
func (p *Parser) handleAddNode(node pc.Queryable) (term.Term, error) {
	children := node.GetChildren()
	acc, err := p.handleMulNode(children[0])
	if err != nil {
		return nil, err
	}
	cur := children[1]
	for isPresent(cur, "add_term") {
		oc := cur.GetChildren()
		next := oc[1]
		nc := next.GetChildren()
		operand, err := p.handleMulNode(nc[0])
		if err != nil {
			return nil, err
		}
		fn, err := p.addOpFunctor(oc[0].GetName())
		if err != nil {
			return nil, err
		}
		acc = p.binOp(fn, acc, operand)
		cur = nc[1]
	}
	return acc, nil
}

func (p *Parser) handleMulNode(node pc.Queryable) (term.Term, error) {
	children := node.GetChildren()
	acc, err := p.handlePowNode(children[0])
	if err != nil {
		return nil, err
	}
	cur := children[1]
	for isPresent(cur, "mul_term") {
		oc := cur.GetChildren()
		next := oc[1]
		nc := next.GetChildren()
		operand, err := p.handlePowNode(nc[0])
		if err != nil {
			return nil, err
		}
		fn, err := p.mulOpFunctor(oc[0].GetName())
		if err != nil {
			return nil, err
		}
		acc = p.binOp(fn, acc, operand)
		cur = nc[1]
	}
	return acc, nil
}

// handlePowNode is genuinely right-associative ("2**3**2" is "2**(3**2)"),
// so unlike add/mul it recurses into its remainder before combining.
func (p *Parser) handlePowNode(node pc.Queryable) (term.Term, error) {
	children := node.GetChildren()
	base, err := p.handlePrimaryNode(children[0])
	if err != nil {
		return nil, err
	}
	rhs := children[1]
	if !isPresent(rhs, "pow_term") {
		return base, nil
	}
	exp, err := p.handlePowNode(rhs.GetChildren()[1])
	if err != nil {
		return nil, err
	}
	return p.binOp(p.Reserved.Power, base, exp), nil
}

func (p *Parser) handlePrimaryNode(node pc.Queryable) (term.Term, error) {
	switch node.GetName() {
	case "!":
		return p.cutFunctor(), nil
	case "FLOAT":
		return p.parseFloat(node.GetValue())
	case "INT":
		return p.parseInt(node.GetValue())
	case "VARIABLE":
		return p.variable(node.GetValue()), nil
	case "compound":
		return p.handleCompound(node)
	case "QUOTED_ATOM":
		name, err := unquoteAtom(node.GetValue())
		if err != nil {
			return nil, err
		}
		return p.atomFunctor(name)
	case "ATOM":
		return p.atomFunctor(node.GetValue())
	case "list":
		return p.handleList(node)
	case "STRING":
		return p.handleCharString(node.GetValue())
	case "paren":
		return p.handleDisjunctionNode(node.GetChildren()[1])
	case "unary_minus":
		inner, err := p.handlePrimaryNode(node.GetChildren()[1])
		if err != nil {
			return nil, err
		}
		return p.unaryMinus(inner), nil
	default:
		return nil, fmt.Errorf("%w: primary %q", ErrUnexpectedNode, node.GetName())
	}
}

func (p *Parser) handleCompound(node pc.Queryable) (*term.Functor, error) {
	children := node.GetChildren()
	name, err := atomNameFromLeaf(children[0])
	if err != nil {
		return nil, err
	}
	argNodes := children[2].GetChildren()
	args := make([]term.Term, len(argNodes))
	for i, an := range argNodes {
		t, err := p.handleCompareNode(an)
		if err != nil {
			return nil, fmt.Errorf("parser: argument %d of %s: %w", i, name, err)
		}
		args[i] = t
	}
	id, err := p.Names.InternFunctor(name, len(args))
	if err != nil {
		return nil, fmt.Errorf("parser: interning %s/%d: %w", name, len(args), err)
	}
	return term.NewFunctor(p.freshKey(), id, args...), nil
}

// handleList reads "[ h1, h2, ... | tail ]" into nested Cons/Nil functors,
// the same shape pkg/term.Reserved's NewCons/NewNil build for any other
// list the resolver or builtins construct at runtime.
func (p *Parser) handleList(node pc.Queryable) (term.Term, error) {
	children := node.GetChildren()
	nilTerm := term.Term(p.Reserved.NewNil(p.freshKey()))
	bodySlot := children[1]
	if !isPresent(bodySlot, "list_items") {
		return nilTerm, nil
	}

	bc := bodySlot.GetChildren()
	headNodes := bc[0].GetChildren()
	elems := make([]term.Term, len(headNodes))
	for i, hn := range headNodes {
		t, err := p.handleCompareNode(hn)
		if err != nil {
			return nil, err
		}
		elems[i] = t
	}

	tail := nilTerm
	tailSlot := bc[1]
	if isPresent(tailSlot, "tail") {
		t, err := p.handleCompareNode(tailSlot.GetChildren()[1])
		if err != nil {
			return nil, err
		}
		tail = t
	}

	result := tail
	for i := len(elems) - 1; i >= 0; i-- {
		result = p.Reserved.NewCons(p.freshKey(), elems[i], result)
	}
	return result, nil
}

// handleCharString desugars a double-quoted literal into a list of
// character-code integers, the ISO default for double_quotes=codes: the
// data model (pkg/term) has no separate string term, so this is how
// surface-syntax strings become something pkg/resolver already knows how
// to unify and traverse.
func (p *Parser) handleCharString(raw string) (term.Term, error) {
	s, err := unescape(raw[1 : len(raw)-1])
	if err != nil {
		return nil, err
	}
	result := term.Term(p.Reserved.NewNil(p.freshKey()))
	runes := []rune(s)
	for i := len(runes) - 1; i >= 0; i-- {
		result = p.Reserved.NewCons(p.freshKey(), term.NewInt(p.freshKey(), int64(runes[i])), result)
	}
	return result, nil
}

// --- leaves ---------------------------------------------------------------

// variable resolves a surface name to a term.Variable scoped to the
// current clause: repeated occurrences of "X" share one Variable (and
// therefore one VarID), while "_" never aliases anything, even itself.
func (p *Parser) variable(name string) *term.Variable {
	if name == "_" {
		return term.NewVariable(p.freshKey(), p.Names.InternFreshVariable("_"), true)
	}
	if v, ok := p.vars[name]; ok {
		return v
	}
	v := term.NewVariable(p.freshKey(), p.Names.InternFreshVariable(name), false)
	p.vars[name] = v
	return v
}

func (p *Parser) atomFunctor(name string) (*term.Functor, error) {
	id, err := p.Names.InternFunctor(name, 0)
	if err != nil {
		return nil, fmt.Errorf("parser: interning atom %q: %w", name, err)
	}
	return term.NewFunctor(p.freshKey(), id), nil
}

func (p *Parser) binOp(id intern.FunctorID, a, b term.Term) *term.Functor {
	return term.NewFunctor(p.freshKey(), id, a, b)
}

func (p *Parser) unaryMinus(x term.Term) term.Term {
	return term.NewFunctor(p.freshKey(), p.Reserved.UnaryMin, x)
}

func (p *Parser) cutFunctor() term.Term {
	return term.NewFunctor(p.freshKey(), p.Reserved.Cut)
}

func (p *Parser) parseFloat(raw string) (term.Term, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("parser: invalid float %q: %w", raw, err)
	}
	return term.NewReal(p.freshKey(), d), nil
}

func (p *Parser) parseInt(raw string) (term.Term, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parser: invalid integer %q: %w", raw, err)
	}
	return term.NewInt(p.freshKey(), n), nil
}

func (p *Parser) compareOpFunctor(op string) (intern.FunctorID, error) {
	switch op {
	case "=<":
		return p.Reserved.Le, nil
	case ">=":
		return p.Reserved.Ge, nil
	case "\\=":
		return p.Reserved.NotUnify, nil
	case "=":
		return p.Reserved.Unify, nil
	case "<":
		return p.Reserved.Lt, nil
	case ">":
		return p.Reserved.Gt, nil
	case "is":
		return p.Reserved.Is, nil
	default:
		return 0, fmt.Errorf("%w: comparison operator %q", ErrUnexpectedNode, op)
	}
}

func (p *Parser) addOpFunctor(op string) (intern.FunctorID, error) {
	switch op {
	case "+":
		return p.Reserved.Plus, nil
	case "-":
		return p.Reserved.Minus, nil
	default:
		return 0, fmt.Errorf("%w: additive operator %q", ErrUnexpectedNode, op)
	}
}

func (p *Parser) mulOpFunctor(op string) (intern.FunctorID, error) {
	switch op {
	case "*":
		return p.Reserved.Times, nil
	case "/":
		return p.Reserved.Divide, nil
	case "mod":
		return p.Reserved.Mod, nil
	default:
		return 0, fmt.Errorf("%w: multiplicative operator %q", ErrUnexpectedNode, op)
	}
}

func atomNameFromLeaf(node pc.Queryable) (string, error) {
	switch node.GetName() {
	case "QUOTED_ATOM":
		return unquoteAtom(node.GetValue())
	case "ATOM":
		return node.GetValue(), nil
	default:
		return "", fmt.Errorf("%w: atom name %q", ErrUnexpectedNode, node.GetName())
	}
}

func unquoteAtom(raw string) (string, error) {
	if len(raw) < 2 {
		return "", fmt.Errorf("%w: malformed quoted atom %q", ErrUnexpectedNode, raw)
	}
	return unescape(raw[1 : len(raw)-1])
}

// unescape processes the small set of backslash escapes the quoted-atom
// and string token regexes admit, just enough to round-trip \\, \', \"
// and \n, not the full ISO escape table.
func unescape(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '\\', '\'', '"':
			b.WriteByte(s[i])
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}
