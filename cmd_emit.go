package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"vela/bytecode"
	"vela/prettyprint"
)

// emitCmd implements "vela emit": compile a source file and write the
// serialised Program alongside its disassembly, without running it.
type emitCmd struct{}

func (*emitCmd) Name() string     { return "emit" }
func (*emitCmd) Synopsis() string { return "Compile a vela source file to a .vbc bytecode file" }
func (*emitCmd) Usage() string {
	return `emit <path>:
  Compile <path> and write <name>.vbc (binary) and <name>.vbc.txt
  (disassembly), where <name> is <path> without its extension, without
  interpreting the result.
`
}
func (e *emitCmd) SetFlags(f *flag.FlagSet) {}

func (e *emitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	program, err := compileSource(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	outPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".vbc"
	if err := os.WriteFile(outPath, bytecode.Serialize(program), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to write %s: %v\n", outPath, err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(outPath+".txt", []byte(prettyprint.Disassemble(program)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to write %s.txt: %v\n", outPath, err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
