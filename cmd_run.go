package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"vela/bytecode"
	"vela/prettyprint"
	"vela/vm"
)

// runCmd implements "vela run": lex, parse, compile, pretty-print the
// resulting Program to stderr, then interpret it to stdout.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Compile and execute a vela source file" }
func (*runCmd) Usage() string {
	return `run [path]:
  Lex, parse, compile and interpret a vela source file.
  With no path, source is read from stdin.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	source, err := readSource(f.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}

	program, err := compileSource(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Fprint(os.Stderr, prettyprint.Disassemble(program))

	if err := interpret(program, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// readSource reads source text from args[0] if present, otherwise from
// stdin ("vela run"'s "path, else stdin" convention).
func readSource(args []string) (string, error) {
	if len(args) < 1 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

// interpret builds a fresh VM over program and runs it to completion,
// writing Print output to out.
func interpret(program bytecode.Program, out io.Writer) error {
	machine, err := vm.New(program, out, vm.DefaultMemoryLimit)
	if err != nil {
		return err
	}
	return machine.Run()
}
