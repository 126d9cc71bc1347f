package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"github.com/vam2p/prolog/pkg/engine"
)

// loadCommand checks that a program file parses and compiles cleanly,
// reporting that it loaded (no clause count), a quick sanity check before
// handing the same file to query or repl.
var loadCommand = cli.NewCommand("load", "Parse and compile a program file, reporting any errors").
	WithArg(cli.NewArg("program", "Path to a Prolog source file")).
	WithOption(configOption()).
	WithAction(handleLoad)

func handleLoad(args []string, options map[string]string) int {
	if len(args) < 1 {
		return fail("expected a program file, use --help")
	}
	e, err := buildEngine(options)
	if err != nil {
		return fail("%s", err)
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fail("unable to read program file: %s", err)
	}
	if err := e.LoadClause(source); err != nil {
		return fail("unable to load program: %s", err)
	}
	fmt.Printf("OK: %s loaded cleanly\n", args[0])
	return 0
}

// queryCommand loads a program file, runs one query against it, and prints
// every solution it finds.
var queryCommand = cli.NewCommand("query", "Load a program file and run one query against it").
	WithArg(cli.NewArg("program", "Path to a Prolog source file")).
	WithArg(cli.NewArg("goal", "The goal to resolve, e.g. \"likes(mia, What)\"")).
	WithOption(configOption()).
	WithAction(handleQuery)

func handleQuery(args []string, options map[string]string) int {
	if len(args) < 2 {
		return fail("expected a program file and a goal, use --help")
	}
	e, err := buildEngine(options)
	if err != nil {
		return fail("%s", err)
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fail("unable to read program file: %s", err)
	}
	if err := e.LoadClause(source); err != nil {
		return fail("unable to load program: %s", err)
	}

	goal := asQuerySentence(args[1])
	cur, err := e.Query([]byte(goal))
	if err != nil {
		return fail("unable to start query: %s", err)
	}
	printSolutions(e, cur)
	return 0
}

// replCommand drives an interactive session: an optional program file is
// loaded up front, then every subsequent line read from stdin is either a
// query (a "?-" sentence) or another clause to load.
var replCommand = cli.NewCommand("repl", "Start an interactive load/query session").
	WithArg(cli.NewArg("program", "Path to a Prolog source file to preload").AsOptional()).
	WithOption(configOption()).
	WithAction(handleRepl)

func handleRepl(args []string, options map[string]string) int {
	e, err := buildEngine(options)
	if err != nil {
		return fail("%s", err)
	}
	if len(args) > 0 && args[0] != "" {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fail("unable to read program file: %s", err)
		}
		if err := e.LoadClause(source); err != nil {
			return fail("unable to load program: %s", err)
		}
	}
	runRepl(e, os.Stdin, os.Stdout)
	return 0
}

// asQuerySentence wraps goal in a "?- ...." sentence unless the caller
// already wrote one out in full.
func asQuerySentence(goal string) string {
	trimmed := strings.TrimSpace(goal)
	if strings.HasPrefix(trimmed, "?-") {
		return trimmed
	}
	return "?- " + trimmed + "."
}

func printSolutions(e *engine.Engine, cur *engine.Cursor) {
	count := 0
	for {
		sol, ok, err := cur.Next()
		if err != nil {
			fail("resolution error: %s", err)
			return
		}
		if !ok {
			break
		}
		count++
		printSolution(e, sol, os.Stdout)
	}
	if count == 0 {
		fmt.Println("false.")
	}
}
