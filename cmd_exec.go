package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"vela/bytecode"
)

// execCmd implements "vela exec": deserialise a .vbc Program file and
// interpret it directly, skipping lex/parse/compile entirely.
type execCmd struct{}

func (*execCmd) Name() string     { return "exec" }
func (*execCmd) Synopsis() string { return "Interpret a serialised .vbc bytecode file" }
func (*execCmd) Usage() string {
	return `exec <path.vbc>:
  Deserialise and interpret a Program previously written by "vela emit".
`
}
func (e *execCmd) SetFlags(f *flag.FlagSet) {}

func (e *execCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	program, err := bytecode.Deserialize(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	if err := interpret(program, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
