package main

import (
	"github.com/posener/complete"
)

// completeAndExit registers vam2p's subcommands and their flags as a
// posener/complete command tree and, if this process was invoked as a
// shell completion request (COMP_LINE set), answers it and reports true so
// main skips running the command for real. Otherwise it reports false and
// leaves stdin/stdout untouched.
func completeAndExit() bool {
	fileArg := complete.PredictFiles("*.pl")
	withConfig := complete.Flags{"-config": complete.PredictFiles("*.json")}

	cmd := complete.Command{
		Sub: complete.Commands{
			"load":  {Args: complete.PredictOr(fileArg), Flags: withConfig},
			"query": {Args: complete.PredictOr(fileArg), Flags: withConfig},
			"repl":  {Args: complete.PredictOr(fileArg), Flags: withConfig},
		},
	}
	return complete.New("vam2p", cmd).Complete()
}
