package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vam2p/prolog/pkg/intern"
	"github.com/vam2p/prolog/pkg/parser"
	"github.com/vam2p/prolog/pkg/symtab"
	"github.com/vam2p/prolog/pkg/term"
)

func newParser(t *testing.T) (*parser.Parser, *intern.Interner) {
	t.Helper()
	in := intern.New()
	reserved, err := term.RegisterReserved(in)
	require.NoError(t, err)
	return parser.New(in, symtab.New(), reserved), in
}

func functorName(t *testing.T, in *intern.Interner, f *term.Functor) string {
	t.Helper()
	name, _, err := in.FunctorName(f.Name)
	require.NoError(t, err)
	return name
}

func TestParseFact(t *testing.T) {
	p, in := newParser(t)
	clauses, err := p.Parse([]byte(`likes(tom, jerry).`))
	require.NoError(t, err)
	require.Len(t, clauses, 1)

	c := clauses[0]
	require.True(t, c.IsFact())
	require.Equal(t, "likes", functorName(t, in, c.Head))
	require.Len(t, c.Head.Args, 2)
}

func TestParseRuleSharesVariableBetweenHeadAndBody(t *testing.T) {
	p, in := newParser(t)
	clauses, err := p.Parse([]byte(`grandparent(X, Z) :- parent(X, Y), parent(Y, Z).`))
	require.NoError(t, err)
	require.Len(t, clauses, 1)

	c := clauses[0]
	require.Equal(t, "grandparent", functorName(t, in, c.Head))
	require.Len(t, c.Body, 2)

	headX := c.Head.Args[0].(*term.Variable)
	firstGoalX := c.Body[0].Args[0].(*term.Variable)
	require.Equal(t, headX.Name, firstGoalX.Name, "X in the head and the first body goal must be the same variable")

	goal1Y := c.Body[0].Args[1].(*term.Variable)
	goal2Y := c.Body[1].Args[0].(*term.Variable)
	require.Equal(t, goal1Y.Name, goal2Y.Name, "Y must be shared between the two body goals")
}

func TestParseArithmeticPrecedence(t *testing.T) {
	p, in := newParser(t)
	clauses, err := p.Parse([]byte(`?- Y is 1 + 2 * 3.`))
	require.NoError(t, err)
	require.Len(t, clauses, 1)

	body := clauses[0].Body
	require.Len(t, body, 1)
	require.Equal(t, "is", functorName(t, in, body[0]))

	rhs := body[0].Args[1].(*term.Functor)
	require.Equal(t, "+", functorName(t, in, rhs))

	left := rhs.Args[0].(term.Int)
	require.EqualValues(t, 1, left.Value)

	right := rhs.Args[1].(*term.Functor)
	require.Equal(t, "*", functorName(t, in, right))
}

func TestParseLeftAssociativeSubtraction(t *testing.T) {
	p, in := newParser(t)
	clauses, err := p.Parse([]byte(`?- X is 10 - 3 - 2.`))
	require.NoError(t, err)

	rhs := clauses[0].Body[0].Args[1].(*term.Functor)
	require.Equal(t, "-", functorName(t, in, rhs))
	// (10 - 3) - 2: the outer minus' left operand must itself be a minus.
	left := rhs.Args[0].(*term.Functor)
	require.Equal(t, "-", functorName(t, in, left))
	right := rhs.Args[1].(term.Int)
	require.EqualValues(t, 2, right.Value)
}

func TestParseListWithTail(t *testing.T) {
	p, in := newParser(t)
	clauses, err := p.Parse([]byte(`f([a, b | T]).`))
	require.NoError(t, err)

	cons1 := clauses[0].Head.Args[0].(*term.Functor)
	require.Equal(t, ".", functorName(t, in, cons1))
	require.Equal(t, "a", functorName(t, in, cons1.Args[0].(*term.Functor)))

	cons2 := cons1.Args[1].(*term.Functor)
	require.Equal(t, ".", functorName(t, in, cons2))
	require.Equal(t, "b", functorName(t, in, cons2.Args[0].(*term.Functor)))

	_, isVar := cons2.Args[1].(*term.Variable)
	require.True(t, isVar, "list tail must remain an unbound variable")
}

func TestParseDisjunctionSplitsIntoMultipleClauses(t *testing.T) {
	p, in := newParser(t)
	clauses, err := p.Parse([]byte(`f(x) :- (a ; b).`))
	require.NoError(t, err)
	require.Len(t, clauses, 2)
	require.Equal(t, "a", functorName(t, in, clauses[0].Body[0]))
	require.Equal(t, "b", functorName(t, in, clauses[1].Body[0]))
	require.Equal(t, clauses[0].Head, clauses[1].Head, "split clauses keep the same head")
}

func TestParseDisjunctionInsideConjunctionDistributes(t *testing.T) {
	p, in := newParser(t)
	clauses, err := p.Parse([]byte(`f(x) :- a, (b ; c), d.`))
	require.NoError(t, err)
	require.Len(t, clauses, 2)
	require.Len(t, clauses[0].Body, 3)
	require.Equal(t, "a", functorName(t, in, clauses[0].Body[0]))
	require.Equal(t, "b", functorName(t, in, clauses[0].Body[1]))
	require.Equal(t, "d", functorName(t, in, clauses[0].Body[2]))
	require.Equal(t, "c", functorName(t, in, clauses[1].Body[1]))
}

func TestParseQueryWithDisjunctionIsRejected(t *testing.T) {
	p, _ := newParser(t)
	_, err := p.Parse([]byte(`?- (a ; b).`))
	require.ErrorIs(t, err, parser.ErrQueryDisjunction)
}

func TestParseCutInBody(t *testing.T) {
	p, in := newParser(t)
	clauses, err := p.Parse([]byte(`f(x) :- !, true.`))
	require.NoError(t, err)
	require.Len(t, clauses, 1)
	require.Len(t, clauses[0].Body, 2)
	require.Equal(t, "!", functorName(t, in, clauses[0].Body[0]))
}

func TestParseAnonymousVariablesNeverAlias(t *testing.T) {
	p, _ := newParser(t)
	clauses, err := p.Parse([]byte(`f(_, _).`))
	require.NoError(t, err)
	a := clauses[0].Head.Args[0].(*term.Variable)
	b := clauses[0].Head.Args[1].(*term.Variable)
	require.True(t, a.Anonymous && b.Anonymous)
	require.NotEqual(t, a.Name, b.Name)
}
