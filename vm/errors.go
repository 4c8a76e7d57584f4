package vm

import "fmt"

// RuntimeError reports a fatal condition the interpreter cannot recover
// from: a corrupt operand stack, an out-of-range instruction pointer, or
// any other violation of the fetch-decode-execute loop's own invariants
// rather than of the running program's values.
type RuntimeError struct {
	Message string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: %s", e.Message)
}

// TypeError reports an operation applied to a runtime value of the wrong
// kind: a non-Boolean popped for Branch, a non-Instance receiver for
// GetSlot/SetSlot, a non-Integer size for Array, or a missing field or
// method lookup.
type TypeError struct {
	Message string
}

func (e TypeError) Error() string {
	return fmt.Sprintf("💥 TypeError: %s", e.Message)
}

// ArityError reports a call whose argument count does not match the
// callee's declared arity.
type ArityError struct {
	Message string
}

func (e ArityError) Error() string {
	return fmt.Sprintf("💥 ArityError: %s", e.Message)
}

// ArithmeticError reports division or modulo by zero.
type ArithmeticError struct {
	Message string
}

func (e ArithmeticError) Error() string {
	return fmt.Sprintf("💥 ArithmeticError: %s", e.Message)
}

// DeveloperError reports a defect in the vm itself (an opcode or
// ProgramObject kind reached a switch arm with no matching case) rather
// than anything wrong with the program being run; it should never fire
// against a Program that passed bytecode.Validate.
type DeveloperError struct {
	Message string
}

func (e DeveloperError) Error() string {
	return fmt.Sprintf("🤖 DeveloperError: %s", e.Message)
}

// fault wraps err with the interpreter's current ip and operand-stack
// depth, per §7's policy that every fatal error mentions both.
func (vm *VM) fault(err error) error {
	return fmt.Errorf("%w (ip=%d, stack depth=%d)", err, vm.ip, len(vm.stack))
}
