package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vam2p/prolog/pkg/engine"
	"github.com/vam2p/prolog/pkg/term"
)

func TestQueryFindsSingleSolution(t *testing.T) {
	e, err := engine.New(engine.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, e.LoadClause([]byte(`likes(mia, wine).`)))

	cur, err := e.Query([]byte(`?- likes(mia, What).`))
	require.NoError(t, err)

	sol, ok, err := cur.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "wine", e.Sprint(sol.Bindings["What"]))

	_, ok, err = cur.Next()
	require.NoError(t, err)
	require.False(t, ok, "likes/2 has exactly one matching clause")
}

func TestQueryBacktracksThroughMultipleClauses(t *testing.T) {
	e, err := engine.New(engine.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, e.LoadClause([]byte(`
color(red).
color(green).
color(blue).
`)))

	cur, err := e.Query([]byte(`?- color(X).`))
	require.NoError(t, err)

	var seen []string
	for {
		sol, ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, e.Sprint(sol.Bindings["X"]))
	}
	require.Equal(t, []string{"red", "green", "blue"}, seen, "clause order is solution order")
}

func TestLoadClauseRejectsQuerySentence(t *testing.T) {
	e, err := engine.New(engine.DefaultOptions())
	require.NoError(t, err)
	err = e.LoadClause([]byte(`?- foo(bar).`))
	require.ErrorIs(t, err, engine.ErrClauseAfterQuery)
}

func TestQueryBeforeAnyLoadFails(t *testing.T) {
	e, err := engine.New(engine.DefaultOptions())
	require.NoError(t, err)
	_, err = e.Query([]byte(`?- foo(bar).`))
	require.ErrorIs(t, err, engine.ErrNoClauses)
}

// Groundness proven across a call boundary by VAMAI must never change what
// a query actually resolves to, only how cheaply codegen gets there.
func TestVAMAIRefinementDoesNotChangeSolutions(t *testing.T) {
	e, err := engine.New(engine.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, e.LoadClause([]byte(`
double(X, Y) :- Y is X * 2.
`)))

	cur, err := e.Query([]byte(`?- double(21, Result).`))
	require.NoError(t, err)
	sol, ok, err := cur.Next()
	require.NoError(t, err)
	require.True(t, ok)
	result, ok := sol.Bindings["Result"].(term.Int)
	require.True(t, ok, "expected an integer, got %T", sol.Bindings["Result"])
	require.Equal(t, int64(42), result.Value)
}

// Reset discards every loaded clause: a query that succeeded before a
// Reset must find nothing loaded afterward, and the engine must accept an
// entirely fresh program as if it were new.
func TestResetDiscardsLoadedClausesAndChangesEpoch(t *testing.T) {
	e, err := engine.New(engine.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, e.LoadClause([]byte(`fact(a).`)))
	epochBefore := e.Epoch()

	cur, err := e.Query([]byte(`?- fact(X).`))
	require.NoError(t, err)
	_, ok, err := cur.Next()
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, e.Reset())
	require.NotEqual(t, epochBefore, e.Epoch(), "reset mints a fresh epoch tag")

	_, err = e.Query([]byte(`?- fact(X).`))
	require.ErrorIs(t, err, engine.ErrNoClauses, "reset must discard fact/1 entirely")

	require.NoError(t, e.LoadClause([]byte(`fact(b).`)))
	cur, err = e.Query([]byte(`?- fact(X).`))
	require.NoError(t, err)
	sol, ok, err := cur.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "b", e.Sprint(sol.Bindings["X"]))
}
