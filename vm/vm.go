// Package vm implements the stack-machine interpreter: it executes a
// bytecode.Program's fetch-decode-execute loop against a managed object
// arena, a call-frame stack, and a globals table (§3.5, §3.6, §4.4).
package vm

import (
	"fmt"
	"io"
	"strings"

	"vela/bytecode"
)

// DefaultMemoryLimit bounds the object arena so a non-terminating
// allocation loop fails fast rather than growing without end (§9 Q3).
// Zero or negative disables the cap.
const DefaultMemoryLimit = 4_000_000

// VM is a stack-based interpreter for one bytecode.Program. It owns all
// mutable runtime state: the object arena, the operand stack, the call
// frames, and the globals table (§3.6). Not safe for concurrent use.
type VM struct {
	program bytecode.Program
	memory  *Memory
	out     io.Writer

	stack  []Pointer
	frames []*Frame

	globals   map[string]Pointer
	functions map[string]bytecode.Method
	labels    map[string]bytecode.Address

	ip     bytecode.Address
	halted bool
}

// New validates program and builds a VM ready to Run it: it scans every
// Label once, populates Globals/Functions from Program.Globals, and
// pushes the entry method's initial frame (§4.4 Start-up).
func New(program bytecode.Program, out io.Writer, memoryLimit int) (*VM, error) {
	if err := bytecode.Validate(program); err != nil {
		return nil, err
	}

	m := &VM{
		program:   program,
		memory:    NewMemory(memoryLimit),
		out:       out,
		globals:   map[string]Pointer{},
		functions: map[string]bytecode.Method{},
		labels:    map[string]bytecode.Address{},
	}

	for i, op := range program.Code {
		if l, ok := op.(bytecode.Label); ok {
			name, err := m.constantString(l.Name)
			if err != nil {
				return nil, err
			}
			m.labels[name] = bytecode.Address(i)
		}
	}

	entryFound := false
	for _, g := range program.Globals {
		switch c := m.constant(g).(type) {
		case bytecode.Slot:
			name, err := m.constantString(c.Name)
			if err != nil {
				return nil, err
			}
			p, err := m.memory.Alloc(ObjNull{})
			if err != nil {
				return nil, err
			}
			m.globals[name] = p
		case bytecode.Method:
			name, err := m.constantString(c.Name)
			if err != nil {
				return nil, err
			}
			m.functions[name] = c
			if g == program.Entry {
				m.ip = c.Code.Start
				entryFound = true
			}
		default:
			return nil, bytecode.LinkageError{Message: fmt.Sprintf("globals entry #%d names a %T, expected Slot or Method", g, c)}
		}
	}
	if !entryFound {
		return nil, bytecode.LinkageError{Message: "entry method is not listed in Program.Globals"}
	}

	// Validate already confirmed Program.Entry names a Method.
	entry := m.constant(program.Entry).(bytecode.Method)
	locals, err := m.nullLocals(int(entry.Locals))
	if err != nil {
		return nil, err
	}
	m.frames = append(m.frames, &Frame{Locals: locals})

	return m, nil
}

// Run steps the interpreter until it halts (the outermost frame
// Returns) or a fatal error occurs.
func (vm *VM) Run() error {
	for !vm.halted {
		if err := vm.step(); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) nullLocals(n int) ([]Pointer, error) {
	locals := make([]Pointer, n)
	for i := range locals {
		p, err := vm.memory.Alloc(ObjNull{})
		if err != nil {
			return nil, err
		}
		locals[i] = p
	}
	return locals, nil
}

func (vm *VM) frame() *Frame {
	return vm.frames[len(vm.frames)-1]
}

func (vm *VM) push(p Pointer) {
	vm.stack = append(vm.stack, p)
}

func (vm *VM) pop() (Pointer, error) {
	if len(vm.stack) == 0 {
		return 0, vm.fault(RuntimeError{Message: "pop from an empty operand stack"})
	}
	n := len(vm.stack) - 1
	p := vm.stack[n]
	vm.stack = vm.stack[:n]
	return p, nil
}

func (vm *VM) top() (Pointer, error) {
	if len(vm.stack) == 0 {
		return 0, vm.fault(RuntimeError{Message: "peek on an empty operand stack"})
	}
	return vm.stack[len(vm.stack)-1], nil
}

func (vm *VM) constant(i bytecode.ConstantPoolIndex) bytecode.ProgramObject {
	return vm.program.Constants[i]
}

func (vm *VM) constantString(i bytecode.ConstantPoolIndex) (string, error) {
	s, ok := vm.constant(i).(bytecode.String)
	if !ok {
		return "", vm.fault(DeveloperError{Message: fmt.Sprintf("constant #%d is a %T, expected String", i, vm.constant(i))})
	}
	return string(s), nil
}

// step executes the single opcode at the current ip, per §4.4's
// per-instruction semantics table.
func (vm *VM) step() error {
	if int(vm.ip) >= len(vm.program.Code) {
		return vm.fault(RuntimeError{Message: "instruction pointer ran past the end of code"})
	}

	switch o := vm.program.Code[vm.ip].(type) {
	case bytecode.Label:
		vm.ip++

	case bytecode.Literal:
		p, err := vm.allocLiteral(o.Index)
		if err != nil {
			return err
		}
		vm.push(p)
		vm.ip++

	case bytecode.Drop:
		if _, err := vm.pop(); err != nil {
			return err
		}
		vm.ip++

	case bytecode.GetLocal:
		f := vm.frame()
		if int(o.Index) >= len(f.Locals) {
			return vm.fault(RuntimeError{Message: fmt.Sprintf("local index %d out of range (frame has %d locals)", o.Index, len(f.Locals))})
		}
		vm.push(f.Locals[o.Index])
		vm.ip++

	case bytecode.SetLocal:
		p, err := vm.top()
		if err != nil {
			return err
		}
		f := vm.frame()
		if int(o.Index) >= len(f.Locals) {
			return vm.fault(RuntimeError{Message: fmt.Sprintf("local index %d out of range (frame has %d locals)", o.Index, len(f.Locals))})
		}
		f.Locals[o.Index] = p
		vm.ip++

	case bytecode.GetGlobal:
		name, err := vm.constantString(o.Name)
		if err != nil {
			return err
		}
		p, ok := vm.globals[name]
		if !ok {
			return vm.fault(TypeError{Message: fmt.Sprintf("undefined global %q", name)})
		}
		vm.push(p)
		vm.ip++

	case bytecode.SetGlobal:
		p, err := vm.top()
		if err != nil {
			return err
		}
		name, err := vm.constantString(o.Name)
		if err != nil {
			return err
		}
		vm.globals[name] = p
		vm.ip++

	case bytecode.Jump:
		addr, err := vm.resolveLabel(o.Label)
		if err != nil {
			return err
		}
		vm.ip = addr

	case bytecode.Branch:
		p, err := vm.pop()
		if err != nil {
			return err
		}
		b, ok := vm.memory.Get(p).(ObjBoolean)
		if !ok {
			return vm.fault(TypeError{Message: fmt.Sprintf("branch condition is a %T, expected Boolean", vm.memory.Get(p))})
		}
		if bool(b) {
			addr, err := vm.resolveLabel(o.Label)
			if err != nil {
				return err
			}
			vm.ip = addr
		} else {
			vm.ip++
		}

	case bytecode.Print:
		return vm.execPrint(o)

	case bytecode.Array:
		return vm.execArray()

	case bytecode.Object:
		return vm.execObject(o)

	case bytecode.GetSlot:
		return vm.execGetSlot(o)

	case bytecode.SetSlot:
		return vm.execSetSlot(o)

	case bytecode.CallFunction:
		return vm.execCallFunction(o)

	case bytecode.CallMethod:
		return vm.execCallMethod(o)

	case bytecode.Return:
		return vm.execReturn()

	default:
		return vm.fault(DeveloperError{Message: fmt.Sprintf("unhandled opcode %T", o)})
	}
	return nil
}

func (vm *VM) resolveLabel(cpi bytecode.ConstantPoolIndex) (bytecode.Address, error) {
	name, err := vm.constantString(cpi)
	if err != nil {
		return 0, err
	}
	addr, ok := vm.labels[name]
	if !ok {
		return 0, vm.fault(bytecode.LinkageError{Message: fmt.Sprintf("no Label opcode matches name %q", name)})
	}
	return addr, nil
}

// allocLiteral wraps a constant-pool entry into a fresh runtime Object
// (§4.4 Literal). There is no runtime String variant, so a String
// constant used as a Literal operand (i.e. a StringLiteral AST node, via
// the compiler's interning) yields Null.
func (vm *VM) allocLiteral(i bytecode.ConstantPoolIndex) (Pointer, error) {
	switch c := vm.constant(i).(type) {
	case bytecode.Integer:
		return vm.memory.Alloc(ObjInteger(c))
	case bytecode.Boolean:
		return vm.memory.Alloc(ObjBoolean(c))
	case bytecode.Null:
		return vm.memory.Alloc(ObjNull{})
	case bytecode.String:
		return vm.memory.Alloc(ObjNull{})
	default:
		return 0, vm.fault(DeveloperError{Message: fmt.Sprintf("constant #%d is a %T, not valid as a Literal operand", i, c)})
	}
}

func (vm *VM) execArray() error {
	value, err := vm.pop()
	if err != nil {
		return err
	}
	sizePtr, err := vm.pop()
	if err != nil {
		return err
	}
	size, ok := vm.memory.Get(sizePtr).(ObjInteger)
	if !ok {
		return vm.fault(TypeError{Message: fmt.Sprintf("array size is a %T, expected Integer", vm.memory.Get(sizePtr))})
	}
	if size < 0 {
		return vm.fault(TypeError{Message: fmt.Sprintf("array size %d is negative", size)})
	}

	elements := make([]Pointer, size)
	for i := range elements {
		copied, err := vm.copyObject(value)
		if err != nil {
			return err
		}
		elements[i] = copied
	}
	arr, err := vm.memory.Alloc(&ObjArray{Elements: elements})
	if err != nil {
		return err
	}
	vm.push(arr)
	vm.ip++
	return nil
}

// copyObject allocates a fresh Pointer holding a shallow copy of the
// object at p, per Array's "each a fresh allocation copying the value"
// rule: independent elements for value kinds, a shared reference for
// Array/Instance (mutating one element's graph still affects any alias
// the initialiser itself held).
func (vm *VM) copyObject(p Pointer) (Pointer, error) {
	return vm.memory.Alloc(vm.memory.Get(p))
}

func (vm *VM) execObject(o bytecode.Object) error {
	class, ok := vm.constant(o.Class).(bytecode.Class)
	if !ok {
		return vm.fault(DeveloperError{Message: fmt.Sprintf("Object opcode's class #%d is a %T, expected Class", o.Class, vm.constant(o.Class))})
	}

	parent, err := vm.pop()
	if err != nil {
		return err
	}

	// Only VariableDefinition members push a runtime value (their
	// initialiser); FunctionDefinition members compile to a guarded
	// Method constant with no runtime stack effect. Pop in reverse
	// declaration order to undo the forward-order pushes.
	popped := make([]Pointer, len(class.Members))
	for i := len(class.Members) - 1; i >= 0; i-- {
		if _, ok := vm.constant(class.Members[i]).(bytecode.Slot); !ok {
			continue
		}
		p, err := vm.pop()
		if err != nil {
			return err
		}
		popped[i] = p
	}

	flds := newFields()
	methods := map[string]bytecode.Method{}
	for i, cpi := range class.Members {
		switch member := vm.constant(cpi).(type) {
		case bytecode.Slot:
			name, err := vm.constantString(member.Name)
			if err != nil {
				return err
			}
			flds.set(name, popped[i])
		case bytecode.Method:
			name, err := vm.constantString(member.Name)
			if err != nil {
				return err
			}
			methods[name] = member
		default:
			return vm.fault(DeveloperError{Message: fmt.Sprintf("class member #%d is a %T, expected Slot or Method", cpi, member)})
		}
	}

	instance, err := vm.memory.Alloc(&ObjInstance{Parent: parent, Fields: flds, Methods: methods})
	if err != nil {
		return err
	}
	vm.push(instance)
	vm.ip++
	return nil
}

func (vm *VM) execGetSlot(o bytecode.GetSlot) error {
	receiver, err := vm.pop()
	if err != nil {
		return err
	}
	name, err := vm.constantString(o.Name)
	if err != nil {
		return err
	}
	p, err := vm.lookupField(receiver, name)
	if err != nil {
		return err
	}
	vm.push(p)
	vm.ip++
	return nil
}

// lookupField walks the parent chain for name, per GetSlot's rule.
func (vm *VM) lookupField(receiver Pointer, name string) (Pointer, error) {
	for {
		instance, ok := vm.memory.Get(receiver).(*ObjInstance)
		if !ok {
			return 0, vm.fault(TypeError{Message: fmt.Sprintf("cannot get field %q of a %T", name, vm.memory.Get(receiver))})
		}
		if p, ok := instance.Fields.get(name); ok {
			return p, nil
		}
		if _, ok := vm.memory.Get(instance.Parent).(*ObjInstance); !ok {
			return 0, vm.fault(TypeError{Message: fmt.Sprintf("no field %q found on the parent chain", name)})
		}
		receiver = instance.Parent
	}
}

func (vm *VM) execSetSlot(o bytecode.SetSlot) error {
	receiver, err := vm.pop()
	if err != nil {
		return err
	}
	value, err := vm.pop()
	if err != nil {
		return err
	}
	instance, ok := vm.memory.Get(receiver).(*ObjInstance)
	if !ok {
		return vm.fault(TypeError{Message: fmt.Sprintf("cannot set a field on a %T", vm.memory.Get(receiver))})
	}
	name, err := vm.constantString(o.Name)
	if err != nil {
		return err
	}
	instance.Fields.set(name, value)
	vm.push(value)
	vm.ip++
	return nil
}

func (vm *VM) execCallFunction(o bytecode.CallFunction) error {
	name, err := vm.constantString(o.Name)
	if err != nil {
		return err
	}
	method, ok := vm.functions[name]
	if !ok {
		return vm.fault(TypeError{Message: fmt.Sprintf("undefined function %q", name)})
	}
	if bytecode.Arity(o.Arguments) != method.Arity {
		return vm.fault(ArityError{Message: fmt.Sprintf("function %q expects %d arguments, got %d", name, method.Arity, o.Arguments)})
	}
	return vm.invoke(method, int(o.Arguments))
}

func (vm *VM) execCallMethod(o bytecode.CallMethod) error {
	name, err := vm.constantString(o.Name)
	if err != nil {
		return err
	}
	receiver, err := vm.top()
	if err != nil {
		return err
	}
	argCount := int(o.Arguments) - 1

	switch v := vm.memory.Get(receiver).(type) {
	case ObjInteger, ObjBoolean, ObjNull:
		return vm.execPrimitiveCall(name, argCount)
	case *ObjArray:
		return vm.execArrayCall(v, name, argCount)
	case *ObjInstance:
		return vm.execInstanceCall(v, name, argCount)
	default:
		return vm.fault(DeveloperError{Message: fmt.Sprintf("CallMethod receiver is an unrecognised %T", v)})
	}
}

// popArgs pops the receiver (top of stack) followed by argCount
// arguments, returning the arguments restored to source order (arg0
// first): every CallMethod site pushes arguments left-to-right and the
// receiver last, so the receiver is always the top-of-stack operand.
func (vm *VM) popArgs(argCount int) (Pointer, []Pointer, error) {
	receiver, err := vm.pop()
	if err != nil {
		return 0, nil, err
	}
	args := make([]Pointer, argCount)
	for i := argCount - 1; i >= 0; i-- {
		p, err := vm.pop()
		if err != nil {
			return 0, nil, err
		}
		args[i] = p
	}
	return receiver, args, nil
}

func (vm *VM) finishCall(result Pointer) {
	vm.push(result)
	vm.ip++
}

// boolPointer allocates a fresh Boolean, since the arena has no interned
// singletons: every Object reached by reference equality must itself be
// a distinct Pointer.
func (vm *VM) boolPointer(b bool) (Pointer, error) {
	return vm.memory.Alloc(ObjBoolean(b))
}

// execPrimitiveCall dispatches the operator and comparison methods
// defined directly on Integer, Boolean and Null receivers (§4.4's
// primitive method tables). Cross-type comparisons fall back to the
// universal rule: == is always false, != is always true.
func (vm *VM) execPrimitiveCall(name string, argCount int) error {
	receiver, args, err := vm.popArgs(argCount)
	if err != nil {
		return err
	}
	receiverObj := vm.memory.Get(receiver)

	if argCount != 1 {
		return vm.fault(ArityError{Message: fmt.Sprintf("method %q on a primitive expects 1 argument, got %d", name, argCount)})
	}
	argObj := vm.memory.Get(args[0])

	switch recv := receiverObj.(type) {
	case ObjInteger:
		if arg, ok := argObj.(ObjInteger); ok {
			p, err := vm.integerMethod(recv, name, arg)
			if err != nil {
				return err
			}
			vm.finishCall(p)
			return nil
		}
		return vm.crossTypeCompare(name)

	case ObjBoolean:
		if arg, ok := argObj.(ObjBoolean); ok {
			p, err := vm.booleanMethod(recv, name, arg)
			if err != nil {
				return err
			}
			vm.finishCall(p)
			return nil
		}
		return vm.crossTypeCompare(name)

	case ObjNull:
		if _, ok := argObj.(ObjNull); ok {
			p, err := vm.nullMethod(name)
			if err != nil {
				return err
			}
			vm.finishCall(p)
			return nil
		}
		return vm.crossTypeCompare(name)

	default:
		return vm.fault(DeveloperError{Message: fmt.Sprintf("execPrimitiveCall called with a %T receiver", recv)})
	}
}

// crossTypeCompare implements the universal equality rule for operands
// whose dynamic types differ: == is always false, != is always true, and
// every other operator name is a TypeError.
func (vm *VM) crossTypeCompare(name string) error {
	switch name {
	case "==":
		p, err := vm.boolPointer(false)
		if err != nil {
			return err
		}
		vm.finishCall(p)
		return nil
	case "!=":
		p, err := vm.boolPointer(true)
		if err != nil {
			return err
		}
		vm.finishCall(p)
		return nil
	default:
		return vm.fault(TypeError{Message: fmt.Sprintf("method %q is not defined between operands of different types", name)})
	}
}

func (vm *VM) integerMethod(a ObjInteger, name string, b ObjInteger) (Pointer, error) {
	switch name {
	case "+":
		return vm.memory.Alloc(ObjInteger(int32(a) + int32(b)))
	case "-":
		return vm.memory.Alloc(ObjInteger(int32(a) - int32(b)))
	case "*":
		return vm.memory.Alloc(ObjInteger(int32(a) * int32(b)))
	case "/":
		if b == 0 {
			return 0, vm.fault(ArithmeticError{Message: "integer division by zero"})
		}
		return vm.memory.Alloc(ObjInteger(int32(a) / int32(b)))
	case "%":
		if b == 0 {
			return 0, vm.fault(ArithmeticError{Message: "integer modulo by zero"})
		}
		return vm.memory.Alloc(ObjInteger(int32(a) % int32(b)))
	case "==":
		return vm.boolPointer(a == b)
	case "!=":
		return vm.boolPointer(a != b)
	case "<":
		return vm.boolPointer(a < b)
	case "<=":
		return vm.boolPointer(a <= b)
	case ">":
		return vm.boolPointer(a > b)
	case ">=":
		return vm.boolPointer(a >= b)
	default:
		return 0, vm.fault(TypeError{Message: fmt.Sprintf("Integer has no method %q", name)})
	}
}

func (vm *VM) booleanMethod(a ObjBoolean, name string, b ObjBoolean) (Pointer, error) {
	switch name {
	case "&":
		return vm.boolPointer(bool(a) && bool(b))
	case "|":
		return vm.boolPointer(bool(a) || bool(b))
	case "==":
		return vm.boolPointer(a == b)
	case "!=":
		return vm.boolPointer(a != b)
	default:
		return 0, vm.fault(TypeError{Message: fmt.Sprintf("Boolean has no method %q", name)})
	}
}

func (vm *VM) nullMethod(name string) (Pointer, error) {
	switch name {
	case "==":
		return vm.boolPointer(true)
	case "!=":
		return vm.boolPointer(false)
	default:
		return 0, vm.fault(TypeError{Message: fmt.Sprintf("Null has no method %q", name)})
	}
}

// execArrayCall implements the two methods Array responds to: get(index)
// and set(index, value). Both are grounded in the compiler's synthesised
// initialiser loop and user-written `expr[index]`/`expr[index] = value`
// surface syntax.
func (vm *VM) execArrayCall(arr *ObjArray, name string, argCount int) error {
	_, args, err := vm.popArgs(argCount)
	if err != nil {
		return err
	}

	switch name {
	case "get":
		if argCount != 1 {
			return vm.fault(ArityError{Message: fmt.Sprintf("array get expects 1 argument, got %d", argCount)})
		}
		idx, err := vm.arrayIndex(arr, args[0])
		if err != nil {
			return err
		}
		vm.finishCall(arr.Elements[idx])
		return nil

	case "set":
		if argCount != 2 {
			return vm.fault(ArityError{Message: fmt.Sprintf("array set expects 2 arguments, got %d", argCount)})
		}
		idx, err := vm.arrayIndex(arr, args[0])
		if err != nil {
			return err
		}
		arr.Elements[idx] = args[1]
		vm.finishCall(args[1])
		return nil

	default:
		return vm.fault(TypeError{Message: fmt.Sprintf("Array has no method %q", name)})
	}
}

func (vm *VM) arrayIndex(arr *ObjArray, p Pointer) (int, error) {
	i, ok := vm.memory.Get(p).(ObjInteger)
	if !ok {
		return 0, vm.fault(TypeError{Message: fmt.Sprintf("array index is a %T, expected Integer", vm.memory.Get(p))})
	}
	if int(i) < 0 || int(i) >= len(arr.Elements) {
		return 0, vm.fault(RuntimeError{Message: fmt.Sprintf("array index %d out of range (length %d)", i, len(arr.Elements))})
	}
	return int(i), nil
}

// execInstanceCall dispatches a method call on an Instance: its own
// Methods table first, then its parent chain, falling back to the
// universal cross-type comparison rule for == and != when no method is
// found anywhere on the chain.
func (vm *VM) execInstanceCall(inst *ObjInstance, name string, argCount int) error {
	_, args, err := vm.popArgs(argCount)
	if err != nil {
		return err
	}

	method, found := vm.resolveMethod(inst, name)
	if !found {
		switch name {
		case "==":
			p, err := vm.boolPointer(false)
			if err != nil {
				return err
			}
			vm.finishCall(p)
			return nil
		case "!=":
			p, err := vm.boolPointer(true)
			if err != nil {
				return err
			}
			vm.finishCall(p)
			return nil
		default:
			return vm.fault(TypeError{Message: fmt.Sprintf("no method %q found on this object or its parent chain", name)})
		}
	}

	if bytecode.Arity(argCount) != method.Arity {
		return vm.fault(ArityError{Message: fmt.Sprintf("method %q expects %d arguments, got %d", name, method.Arity, argCount)})
	}

	// The receiver selects which object's Methods table to dispatch
	// through but is not itself bound to a local: a FunctionDefinition's
	// Parameters are the only locals 0..n-1 a method body can name.
	for _, a := range args {
		vm.push(a)
	}
	return vm.invoke(method, argCount)
}

func (vm *VM) resolveMethod(inst *ObjInstance, name string) (bytecode.Method, bool) {
	for {
		if m, ok := inst.Methods[name]; ok {
			return m, true
		}
		parent, ok := vm.memory.Get(inst.Parent).(*ObjInstance)
		if !ok {
			return bytecode.Method{}, false
		}
		inst = parent
	}
}

// invoke pushes a new Frame with its first `arity` locals populated from
// the operand stack (arguments in source order, first argument at
// locals[0]) and the rest Null, then transfers control to method's code
// (§4.4 CallFunction/CallMethod). For a method call the receiver has
// already been consumed by dispatch and is not itself a local.
func (vm *VM) invoke(method bytecode.Method, arity int) error {
	locals := make([]Pointer, method.Locals)
	for i := arity - 1; i >= 0; i-- {
		p, err := vm.pop()
		if err != nil {
			return err
		}
		locals[i] = p
	}
	for i := arity; i < len(locals); i++ {
		p, err := vm.memory.Alloc(ObjNull{})
		if err != nil {
			return err
		}
		locals[i] = p
	}

	returnAddr := vm.ip + 1
	vm.frames = append(vm.frames, &Frame{Return: &returnAddr, Locals: locals})
	vm.ip = method.Code.Start
	return nil
}

func (vm *VM) execReturn() error {
	f := vm.frame()
	vm.frames = vm.frames[:len(vm.frames)-1]
	if f.Return == nil {
		vm.halted = true
		return nil
	}
	vm.ip = *f.Return
	return nil
}

func (vm *VM) render(p Pointer) (string, error) {
	switch o := vm.memory.Get(p).(type) {
	case ObjNull:
		return "null", nil
	case ObjInteger:
		return fmt.Sprintf("%d", int32(o)), nil
	case ObjBoolean:
		if o {
			return "true", nil
		}
		return "false", nil
	case *ObjArray:
		parts := make([]string, len(o.Elements))
		for i, e := range o.Elements {
			s, err := vm.render(e)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case *ObjInstance:
		parts := make([]string, 0, len(o.Fields.order))
		for _, name := range o.Fields.order {
			v, _ := o.Fields.get(name)
			s, err := vm.render(v)
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%s: %s", name, s))
		}
		return "object(" + strings.Join(parts, ", ") + ")", nil
	default:
		return "", vm.fault(DeveloperError{Message: fmt.Sprintf("cannot render a %T", o)})
	}
}

// execPrint scans format, substituting each unescaped `~` with the next
// rendered argument and collapsing `\~` to a literal tilde, then writes
// the result verbatim to the output sink (§4.4, §6.3).
func (vm *VM) execPrint(o bytecode.Print) error {
	format, err := vm.constantString(o.Format)
	if err != nil {
		return err
	}

	args := make([]Pointer, o.Arguments)
	for i := int(o.Arguments) - 1; i >= 0; i-- {
		p, err := vm.pop()
		if err != nil {
			return err
		}
		args[i] = p
	}

	var b strings.Builder
	argIdx := 0
	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' && i+1 < len(runes) && runes[i+1] == '~' {
			b.WriteRune('~')
			i++
			continue
		}
		if r == '~' {
			if argIdx >= len(args) {
				return vm.fault(RuntimeError{Message: "print format references more arguments than were supplied"})
			}
			rendered, err := vm.render(args[argIdx])
			if err != nil {
				return err
			}
			b.WriteString(rendered)
			argIdx++
			continue
		}
		b.WriteRune(r)
	}
	fmt.Fprint(vm.out, b.String())

	null, err := vm.memory.Alloc(ObjNull{})
	if err != nil {
		return err
	}
	vm.push(null)
	vm.ip++
	return nil
}
