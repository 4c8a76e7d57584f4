package bytecode

import "fmt"

// LinkageError reports a Program that violates §3.4's invariants: a
// dangling constant-pool index, an unresolved label, or a constant
// referenced at the wrong kind (e.g. a Globals entry that names
// neither a Slot nor a Method).
type LinkageError struct {
	Message string
}

func (e LinkageError) Error() string {
	return fmt.Sprintf("💥 LinkageError: %s", e.Message)
}

func (p Program) constant(i ConstantPoolIndex) (ProgramObject, error) {
	if int(i) >= len(p.Constants) {
		return nil, LinkageError{Message: fmt.Sprintf("constant pool index %d out of range (pool has %d entries)", i, len(p.Constants))}
	}
	return p.Constants[i], nil
}

// Validate checks the static invariants a well-formed Program must
// hold: every constant-pool index used by the code and by Globals/Entry
// is in range, every Globals/Entry CPI names a Slot or a Method, and
// every Method's code range is contained in the code vector.
func Validate(p Program) error {
	for i, op := range p.Code {
		if err := validateOpCode(p, op); err != nil {
			return fmt.Errorf("at code index %d: %w", i, err)
		}
	}

	for _, c := range p.Constants {
		m, ok := c.(Method)
		if !ok {
			continue
		}
		end := uint64(m.Code.Start) + uint64(m.Code.Length)
		if end > uint64(len(p.Code)) {
			return LinkageError{Message: fmt.Sprintf("method code range [%d, %d) exceeds code length %d", m.Code.Start, end, len(p.Code))}
		}
	}

	for _, g := range p.Globals {
		obj, err := p.constant(g)
		if err != nil {
			return err
		}
		switch obj.(type) {
		case Slot, Method:
		default:
			return LinkageError{Message: fmt.Sprintf("globals entry #%d names a %T, expected Slot or Method", g, obj)}
		}
	}

	entry, err := p.constant(p.Entry)
	if err != nil {
		return err
	}
	if _, ok := entry.(Method); !ok {
		return LinkageError{Message: fmt.Sprintf("entry #%d is a %T, expected Method", p.Entry, entry)}
	}

	return nil
}

func validateOpCode(p Program, op OpCode) error {
	check := func(i ConstantPoolIndex) error {
		_, err := p.constant(i)
		return err
	}
	switch o := op.(type) {
	case Label:
		return check(o.Name)
	case Literal:
		return check(o.Index)
	case Print:
		return check(o.Format)
	case Object:
		c, err := p.constant(o.Class)
		if err != nil {
			return err
		}
		if _, ok := c.(Class); !ok {
			return LinkageError{Message: fmt.Sprintf("Object opcode references #%d which is a %T, expected Class", o.Class, c)}
		}
	case GetSlot:
		return check(o.Name)
	case SetSlot:
		return check(o.Name)
	case CallMethod:
		return check(o.Name)
	case CallFunction:
		return check(o.Name)
	case SetGlobal:
		return check(o.Name)
	case GetGlobal:
		return check(o.Name)
	case Branch:
		return check(o.Label)
	case Jump:
		return check(o.Label)
	}
	return nil
}
