// Package prettyprint renders a bytecode.Program as the deterministic,
// human-readable debug dump described by §4.2: a "Constants / Globals /
// Entry" block, with each Method constant showing its arity, local
// count and an indented, #index-keyed instruction listing.
package prettyprint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"vela/bytecode"
)

// Disassemble renders p in the §4.2 debug format.
func Disassemble(p bytecode.Program) string {
	var b strings.Builder

	fmt.Fprintln(&b, "Constants :")
	for i, c := range p.Constants {
		fmt.Fprintf(&b, "  #%d = %s\n", i, describeConstant(p, bytecode.ConstantPoolIndex(i), c))
	}

	fmt.Fprintln(&b, "Globals :")
	globalRefs := lo.Map(p.Globals, func(g bytecode.ConstantPoolIndex, _ int) string {
		return "#" + strconv.Itoa(int(g))
	})
	fmt.Fprintln(&b, "  "+strings.Join(globalRefs, ", "))

	fmt.Fprintf(&b, "Entry : #%d\n", p.Entry)
	return b.String()
}

func describeConstant(p bytecode.Program, index bytecode.ConstantPoolIndex, c bytecode.ProgramObject) string {
	switch v := c.(type) {
	case bytecode.Integer:
		return fmt.Sprintf("Integer(%d)", int32(v))
	case bytecode.Null:
		return "Null"
	case bytecode.Boolean:
		return fmt.Sprintf("Boolean(%t)", bool(v))
	case bytecode.String:
		return fmt.Sprintf("String(%q)", string(v))
	case bytecode.Slot:
		return fmt.Sprintf("Slot(name: #%d)", v.Name)
	case bytecode.Class:
		members := lo.Map(v.Members, func(m bytecode.ConstantPoolIndex, _ int) string {
			return "#" + strconv.Itoa(int(m))
		})
		return fmt.Sprintf("Class(%s)", strings.Join(members, ", "))
	case bytecode.Method:
		var body strings.Builder
		fmt.Fprintf(&body, "Method(name: #%d, nargs:%d, nlocals:%d)\n", v.Name, v.Arity, v.Locals)
		for i := uint32(0); i < v.Code.Length; i++ {
			op := p.Code[uint32(v.Code.Start)+i]
			fmt.Fprintf(&body, "    #%d: %s\n", i, op)
		}
		return strings.TrimRight(body.String(), "\n")
	default:
		return fmt.Sprintf("<unknown %T>", c)
	}
}
