package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/vam2p/prolog/pkg/engine"
)

// runRepl reads one sentence per line from in, printing a prompt and each
// solution's bindings to out. A line starting with "?-" runs as a query
// and prints only its first solution (or "false."); later solutions are
// not offered. Anything else is handed to
// LoadClause as a fact/rule to add to the running program. Lines that are
// blank or start with "%" (a comment) are skipped.
func runRepl(e *engine.Engine, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "?- ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "%"):
			// skip
		case strings.HasPrefix(line, "?-"):
			runReplQuery(e, asQuerySentence(line), out)
		default:
			sentence := line
			if !strings.HasSuffix(sentence, ".") {
				sentence += "."
			}
			if err := e.LoadClause([]byte(sentence)); err != nil {
				fmt.Fprintf(out, "ERROR: %s\n", err)
			}
		}
		fmt.Fprint(out, "?- ")
	}
	fmt.Fprintln(out)
}

func runReplQuery(e *engine.Engine, sentence string, out io.Writer) {
	cur, err := e.Query([]byte(sentence))
	if err != nil {
		fmt.Fprintf(out, "ERROR: %s\n", err)
		return
	}
	sol, ok, err := cur.Next()
	if err != nil {
		fmt.Fprintf(out, "ERROR: %s\n", err)
		return
	}
	if !ok {
		fmt.Fprintln(out, "false.")
		return
	}
	printSolution(e, sol, out)
}

func printSolution(e *engine.Engine, sol *engine.Solution, out io.Writer) {
	if len(sol.Bindings) == 0 {
		fmt.Fprintln(out, "true.")
		return
	}
	first := true
	for name, val := range sol.Bindings {
		if !first {
			fmt.Fprint(out, ", ")
		}
		first = false
		fmt.Fprintf(out, "%s = %s", name, e.Sprint(val))
	}
	fmt.Fprintln(out)
}
