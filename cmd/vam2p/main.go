package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
vam2p loads Prolog clauses compiled through the VAM2P abstract machine and
runs queries against them, either one-shot from the command line or
interactively from a read-eval-print loop.
`, "\n", " ")

var Vam2p = cli.New(Description).
	WithCommand(loadCommand).
	WithCommand(queryCommand).
	WithCommand(replCommand)

// configOption is attached to every subcommand individually rather than to
// the top-level App: teris-io/cli resolves options per invoked Command, not
// inherited from the parent App, the same way hack_assembler/vm_translator
// each declare their own options rather than sharing a global set.
func configOption() cli.Option {
	return cli.NewOption("config", "Path to a vam2p.json options file (see engine.Options)").
		WithType(cli.TypeString)
}

func main() {
	if completeAndExit() {
		return
	}
	os.Exit(Vam2p.Run(os.Args, os.Stdout))
}

func fail(format string, args ...interface{}) int {
	fmt.Printf("ERROR: "+format+"\n", args...)
	return -1
}
