package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"
	"golang.org/x/sys/unix"

	"vela/vm"
)

// replCmd implements "vela repl": a readline-backed interactive session
// that compiles and interprets each entry as its own program. compiler.Compile
// has no notion of linking against an already-running Program, so each
// line gets a fresh VM rather than sharing globals across entries.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive vela session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive read-compile-interpret loop. Each line is
  compiled and run as its own program. Type "exit"
  or send EOF to quit.
`
}
func (r *replCmd) SetFlags(f *flag.FlagSet) {}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if isTerminal(os.Stdin) {
		return runInteractive(os.Stdout)
	}
	return runPiped(os.Stdin, os.Stdout)
}

// isTerminal reports whether f is attached to a real terminal, the same
// ioctl-based check a shell uses to decide whether to show a prompt.
func isTerminal(f *os.File) bool {
	_, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	return err == nil
}

// runInteractive drives the REPL with readline, giving history and line
// editing when stdin is a terminal.
func runInteractive(out io.Writer) subcommands.ExitStatus {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "vela> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to start readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	session := newReplSession(out)
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return subcommands.ExitSuccess
		}
		if line == "exit" {
			return subcommands.ExitSuccess
		}
		session.evalLine(line)
	}
}

// runPiped drives the REPL off a plain line scanner when stdin is not a
// terminal, so piped scripts still run line by line without readline's
// interactive escape sequences.
func runPiped(in io.Reader, out io.Writer) subcommands.ExitStatus {
	session := newReplSession(out)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "exit" {
			break
		}
		session.evalLine(line)
	}
	return subcommands.ExitSuccess
}

// replSession holds the output writer a single "vela repl" invocation
// shares across entries; no VM state carries over between them.
type replSession struct {
	out io.Writer
}

func newReplSession(out io.Writer) *replSession {
	return &replSession{out: out}
}

// evalLine compiles and interprets one line of input, reporting any
// error to stderr without aborting the session.
func (s *replSession) evalLine(line string) {
	if line == "" {
		return
	}
	program, err := compileSource(line)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	machine, err := vm.New(program, s.out, vm.DefaultMemoryLimit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if err := machine.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
