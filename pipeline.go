package main

import (
	"errors"

	"vela/bytecode"
	"vela/compiler"
	"vela/lexer"
	"vela/parser"
)

// compileSource drives the full lex -> parse -> compile pipeline over
// source text, the front end SPEC_FULL.md adds around the core the
// distilled spec specifies directly in terms of bytecode.Program.
func compileSource(source string) (bytecode.Program, error) {
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		return bytecode.Program{}, err
	}

	tree, parseErrs := parser.Make(tokens).Parse()
	if len(parseErrs) > 0 {
		return bytecode.Program{}, errors.Join(parseErrs...)
	}

	return compiler.Compile(tree)
}
