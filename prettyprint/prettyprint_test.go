package prettyprint

import (
	"strings"
	"testing"

	"vela/bytecode"
)

func TestDisassembleIsDeterministic(t *testing.T) {
	code := []bytecode.OpCode{
		bytecode.Literal{Index: 0},
		bytecode.Print{Format: 1, Arguments: 0},
		bytecode.Return{},
	}
	p := bytecode.Program{
		Constants: []bytecode.ProgramObject{
			bytecode.Integer(5),
			bytecode.String("hi\n"),
			bytecode.Method{Name: 1, Arity: 0, Locals: 0, Code: bytecode.AddressRange{Start: 0, Length: uint32(len(code))}},
		},
		Code:    code,
		Globals: []bytecode.ConstantPoolIndex{2},
		Entry:   2,
	}

	first := Disassemble(p)
	second := Disassemble(p)
	if first != second {
		t.Fatalf("Disassemble is not deterministic:\n%s\n---\n%s", first, second)
	}

	for _, want := range []string{"Constants :", "Globals :", "Entry : #2", "nargs:0, nlocals:0", "lit #0", "printf #1, 0", "return"} {
		if !strings.Contains(first, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, first)
		}
	}
}
