// Package compiler lowers an ast.Node tree to a bytecode.Program, following
// the rules laid out for each node kind: literals become interned
// constants, scopes become Bookkeeping frames, and control flow becomes
// Jump/Branch/Label triples resolved by address at vm startup.
package compiler

import (
	"fmt"

	"vela/ast"
	"vela/bytecode"
)

// Compiler is a one-shot ast.Visitor: Compile drives a fresh Compiler over
// a full program and returns the resulting bytecode.Program.
type Compiler struct {
	program     bytecode.Program
	bookkeeping *Bookkeeping
	counter     int

	integers map[int32]bytecode.ConstantPoolIndex
	booleans map[bool]bytecode.ConstantPoolIndex
	strings  map[string]bytecode.ConstantPoolIndex
	null     *bytecode.ConstantPoolIndex
}

func newCompiler() *Compiler {
	return &Compiler{
		bookkeeping: NewBookkeeping(),
		integers:    map[int32]bytecode.ConstantPoolIndex{},
		booleans:    map[bool]bytecode.ConstantPoolIndex{},
		strings:     map[string]bytecode.ConstantPoolIndex{},
	}
}

// Compile lowers program (the root of a parsed source file) to a
// bytecode.Program, wrapping it in a synthesised entry method per §4.3's
// top-level rule. Names are never checked statically: one that is not a
// known local compiles to a global access. A node shape the compiler
// cannot lower surfaces as a DeveloperError.
func Compile(program ast.Node) (p bytecode.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case SemanticError:
				err = v
			case DeveloperError:
				err = v
			default:
				panic(r)
			}
		}
	}()

	c := newCompiler()
	start := bytecode.Address(len(c.program.Code))
	program.Accept(c)
	c.emit(bytecode.Literal{Index: c.nullConstant()})
	c.emit(bytecode.Return{})
	length := uint32(len(c.program.Code)) - uint32(start)

	entryName := c.internString(fmt.Sprintf("entry%d", c.fresh()))
	entry := bytecode.Method{Name: entryName, Arity: 0, Locals: 0, Code: bytecode.AddressRange{Start: start, Length: length}}
	entryCPI := c.addConstant(entry)
	c.program.Globals = append(c.program.Globals, entryCPI)
	c.program.Entry = entryCPI

	return c.program, nil
}

func (c *Compiler) emit(op bytecode.OpCode) {
	c.program.Code = append(c.program.Code, op)
}

func (c *Compiler) addConstant(obj bytecode.ProgramObject) bytecode.ConstantPoolIndex {
	c.program.Constants = append(c.program.Constants, obj)
	return bytecode.ConstantPoolIndex(len(c.program.Constants) - 1)
}

// fresh returns a monotonically increasing counter, shared by label
// generation and the compiler's own synthesised names (§9).
func (c *Compiler) fresh() int {
	c.counter++
	return c.counter
}

func (c *Compiler) freshLabel(prefix string) bytecode.ConstantPoolIndex {
	return c.internString(fmt.Sprintf("%s%d", prefix, c.fresh()))
}

func (c *Compiler) internString(s string) bytecode.ConstantPoolIndex {
	if i, ok := c.strings[s]; ok {
		return i
	}
	i := c.addConstant(bytecode.String(s))
	c.strings[s] = i
	return i
}

func (c *Compiler) integerConstant(n int32) bytecode.ConstantPoolIndex {
	if i, ok := c.integers[n]; ok {
		return i
	}
	i := c.addConstant(bytecode.Integer(n))
	c.integers[n] = i
	return i
}

func (c *Compiler) booleanConstant(b bool) bytecode.ConstantPoolIndex {
	if i, ok := c.booleans[b]; ok {
		return i
	}
	i := c.addConstant(bytecode.Boolean(b))
	c.booleans[b] = i
	return i
}

func (c *Compiler) nullConstant() bytecode.ConstantPoolIndex {
	if c.null != nil {
		return *c.null
	}
	i := c.addConstant(bytecode.Null{})
	c.null = &i
	return i
}

func (c *Compiler) VisitNumber(n ast.Number) any {
	c.emit(bytecode.Literal{Index: c.integerConstant(n.Value)})
	return nil
}

func (c *Compiler) VisitBoolean(n ast.Boolean) any {
	c.emit(bytecode.Literal{Index: c.booleanConstant(n.Value)})
	return nil
}

func (c *Compiler) VisitUnit(n ast.Unit) any {
	c.emit(bytecode.Literal{Index: c.nullConstant()})
	return nil
}

func (c *Compiler) VisitStringLiteral(n ast.StringLiteral) any {
	c.emit(bytecode.Literal{Index: c.internString(n.Value)})
	return nil
}

func (c *Compiler) VisitVariableAccess(n ast.VariableAccess) any {
	if idx, ok := c.bookkeeping.ResolveLocal(n.Name); ok {
		c.emit(bytecode.GetLocal{Index: idx})
		return nil
	}
	c.emit(bytecode.GetGlobal{Name: c.internString(n.Name)})
	return nil
}

func (c *Compiler) VisitVariableDefinition(n ast.VariableDefinition) any {
	n.Value.Accept(c)
	if c.bookkeeping.HasFrame() {
		idx := c.bookkeeping.DefineLocal(n.Name)
		c.emit(bytecode.SetLocal{Index: idx})
		return nil
	}
	c.emit(bytecode.SetGlobal{Name: c.internString(n.Name)})
	c.bookkeeping.DefineGlobal(n.Name)
	return nil
}

func (c *Compiler) VisitAssignVariable(n ast.AssignVariable) any {
	n.Value.Accept(c)
	if idx, ok := c.bookkeeping.ResolveLocal(n.Name); ok {
		c.emit(bytecode.SetLocal{Index: idx})
		return nil
	}
	c.emit(bytecode.SetGlobal{Name: c.internString(n.Name)})
	return nil
}

func (c *Compiler) VisitConditional(n ast.Conditional) any {
	thenLabel := c.freshLabel("then")
	endLabel := c.freshLabel("end")

	n.Condition.Accept(c)
	c.emit(bytecode.Branch{Label: thenLabel})

	alternative := n.Alternative
	if alternative == nil {
		alternative = ast.Unit{}
	}
	alternative.Accept(c)
	c.emit(bytecode.Jump{Label: endLabel})

	c.emit(bytecode.Label{Name: thenLabel})
	n.Consequent.Accept(c)

	c.emit(bytecode.Label{Name: endLabel})
	return nil
}

func (c *Compiler) VisitLoop(n ast.Loop) any {
	condLabel := c.freshLabel("cond")
	bodyLabel := c.freshLabel("body")

	c.emit(bytecode.Jump{Label: condLabel})
	c.emit(bytecode.Label{Name: bodyLabel})
	n.Body.Accept(c)
	c.emit(bytecode.Drop{})
	c.emit(bytecode.Label{Name: condLabel})
	n.Condition.Accept(c)
	c.emit(bytecode.Branch{Label: bodyLabel})

	// The loop as a whole is Unit; see §9 on why this Literal sits here
	// rather than being folded into the Branch.
	c.emit(bytecode.Literal{Index: c.nullConstant()})
	return nil
}

func (c *Compiler) VisitBlock(n ast.Block) any {
	c.bookkeeping.EnterScope()
	defer c.bookkeeping.LeaveScope()

	for i, stmt := range n.Statements {
		stmt.Accept(c)
		last := i == len(n.Statements)-1
		// A FunctionDefinition pushes no value: there is nothing to Drop
		// after it, and as the last child it is replaced by Null.
		if _, isFunction := stmt.(ast.FunctionDefinition); isFunction {
			if last {
				c.emit(bytecode.Literal{Index: c.nullConstant()})
			}
			continue
		}
		if !last {
			c.emit(bytecode.Drop{})
		}
	}
	return nil
}

func isPureLiteral(n ast.Node) bool {
	switch n.(type) {
	case ast.Number, ast.Boolean, ast.Unit, ast.StringLiteral:
		return true
	}
	return false
}

func (c *Compiler) VisitArrayDefinition(n ast.ArrayDefinition) any {
	if isPureLiteral(n.Value) {
		n.Size.Accept(c)
		n.Value.Accept(c)
		c.emit(bytecode.Array{})
		return nil
	}

	if !c.bookkeeping.HasFrame() {
		panic(DeveloperError{Message: "array definition with a non-literal initialiser compiled outside a function frame"})
	}

	id := c.fresh()
	sizeIdx := c.bookkeeping.AllocateLocal()
	arrayIdx := c.bookkeeping.AllocateLocal()
	iIdx := c.bookkeeping.AllocateLocal()

	n.Size.Accept(c)
	c.emit(bytecode.SetLocal{Index: sizeIdx})
	c.emit(bytecode.Drop{})

	c.emit(bytecode.GetLocal{Index: sizeIdx})
	c.emit(bytecode.Literal{Index: c.nullConstant()})
	c.emit(bytecode.Array{})
	c.emit(bytecode.SetLocal{Index: arrayIdx})
	c.emit(bytecode.Drop{})

	c.emit(bytecode.Literal{Index: c.integerConstant(0)})
	c.emit(bytecode.SetLocal{Index: iIdx})
	c.emit(bytecode.Drop{})

	condLabel := c.freshLabel(fmt.Sprintf("?arraycond_%d_", id))
	bodyLabel := c.freshLabel(fmt.Sprintf("?arraybody_%d_", id))
	c.emit(bytecode.Jump{Label: condLabel})
	c.emit(bytecode.Label{Name: bodyLabel})

	c.emit(bytecode.GetLocal{Index: iIdx})
	n.Value.Accept(c)
	c.emit(bytecode.GetLocal{Index: arrayIdx})
	c.emit(bytecode.CallMethod{Name: c.internString("set"), Arguments: 3})
	c.emit(bytecode.Drop{})

	c.emit(bytecode.GetLocal{Index: iIdx})
	c.emit(bytecode.Literal{Index: c.integerConstant(1)})
	c.emit(bytecode.CallMethod{Name: c.internString("+"), Arguments: 2})
	c.emit(bytecode.SetLocal{Index: iIdx})
	c.emit(bytecode.Drop{})

	c.emit(bytecode.Label{Name: condLabel})
	c.emit(bytecode.GetLocal{Index: sizeIdx})
	c.emit(bytecode.GetLocal{Index: iIdx})
	c.emit(bytecode.CallMethod{Name: c.internString("<"), Arguments: 2})
	c.emit(bytecode.Branch{Label: bodyLabel})

	c.emit(bytecode.GetLocal{Index: arrayIdx})
	return nil
}

// ArrayAccess/ArrayMutation push the array last so it lands, like every
// other CallMethod receiver, as the final (and therefore first-popped)
// operand; see DESIGN.md for why this reorders the literal §4.3 prose.

func (c *Compiler) VisitArrayAccess(n ast.ArrayAccess) any {
	n.Index.Accept(c)
	n.Array.Accept(c)
	c.emit(bytecode.CallMethod{Name: c.internString("get"), Arguments: 2})
	return nil
}

func (c *Compiler) VisitArrayMutation(n ast.ArrayMutation) any {
	n.Index.Accept(c)
	n.Value.Accept(c)
	n.Array.Accept(c)
	c.emit(bytecode.CallMethod{Name: c.internString("set"), Arguments: 3})
	return nil
}

func (c *Compiler) VisitFieldAccess(n ast.FieldAccess) any {
	n.Object.Accept(c)
	c.emit(bytecode.GetSlot{Name: c.internString(n.Field)})
	return nil
}

func (c *Compiler) VisitFieldMutation(n ast.FieldMutation) any {
	n.Value.Accept(c)
	n.Object.Accept(c)
	c.emit(bytecode.SetSlot{Name: c.internString(n.Field)})
	return nil
}

func (c *Compiler) VisitMethodCall(n ast.MethodCall) any {
	for _, arg := range n.Arguments {
		arg.Accept(c)
	}
	n.Object.Accept(c)
	c.emit(bytecode.CallMethod{Name: c.internString(n.Method), Arguments: bytecode.Arity(len(n.Arguments) + 1)})
	return nil
}

func (c *Compiler) VisitFunctionCall(n ast.FunctionCall) any {
	for _, arg := range n.Arguments {
		arg.Accept(c)
	}
	c.emit(bytecode.CallFunction{Name: c.internString(n.Function), Arguments: bytecode.Arity(len(n.Arguments))})
	return nil
}

// compileMethodBody lowers a FunctionDefinition to a Method constant
// guarded by a Jump so its instructions are never fallen into, per §4.3.
// It never touches the globals list; callers decide that.
func (c *Compiler) compileMethodBody(n ast.FunctionDefinition) bytecode.ConstantPoolIndex {
	guard := c.freshLabel("guard")
	c.emit(bytecode.Jump{Label: guard})

	start := bytecode.Address(len(c.program.Code))
	c.bookkeeping.EnterFunction()
	c.bookkeeping.EnterScope()
	for _, param := range n.Parameters {
		c.bookkeeping.DefineLocal(param)
	}
	n.Body.Accept(c)
	c.emit(bytecode.Return{})
	locals := c.bookkeeping.LeaveFunction()
	length := uint32(len(c.program.Code)) - uint32(start)

	c.emit(bytecode.Label{Name: guard})

	method := bytecode.Method{
		Name:   c.internString(n.Function),
		Arity:  bytecode.Arity(len(n.Parameters)),
		Locals: locals,
		Code:   bytecode.AddressRange{Start: start, Length: length},
	}
	return c.addConstant(method)
}

func (c *Compiler) VisitFunctionDefinition(n ast.FunctionDefinition) any {
	topLevel := !c.bookkeeping.HasFrame()
	cpi := c.compileMethodBody(n)
	if topLevel {
		c.program.Globals = append(c.program.Globals, cpi)
		c.bookkeeping.DefineGlobal(n.Function)
	}
	return nil
}

func (c *Compiler) VisitObjectDefinition(n ast.ObjectDefinition) any {
	members := make([]bytecode.ConstantPoolIndex, 0, len(n.Members))
	for _, member := range n.Members {
		switch m := member.(type) {
		case ast.FunctionDefinition:
			members = append(members, c.compileMethodBody(m))
		case ast.VariableDefinition:
			m.Value.Accept(c)
			members = append(members, c.addConstant(bytecode.Slot{Name: c.internString(m.Name)}))
		default:
			panic(DeveloperError{Message: fmt.Sprintf("object member of unexpected kind %T", member)})
		}
	}

	if n.Extends != nil {
		n.Extends.Accept(c)
	} else {
		c.emit(bytecode.Literal{Index: c.nullConstant()})
	}

	class := c.addConstant(bytecode.Class{Members: members})
	c.emit(bytecode.Object{Class: class})
	return nil
}

func (c *Compiler) VisitOperatorCall(n ast.OperatorCall) any {
	for _, arg := range n.Arguments {
		arg.Accept(c)
	}
	n.Object.Accept(c)
	c.emit(bytecode.CallMethod{Name: c.internString(n.Operator), Arguments: bytecode.Arity(len(n.Arguments) + 1)})
	return nil
}

func (c *Compiler) VisitOperation(n ast.Operation) any {
	n.Right.Accept(c)
	n.Left.Accept(c)
	c.emit(bytecode.CallMethod{Name: c.internString(n.Operator), Arguments: 2})
	return nil
}

func (c *Compiler) VisitPrint(n ast.Print) any {
	format, ok := n.Format.(ast.StringLiteral)
	if !ok {
		panic(DeveloperError{Message: fmt.Sprintf("print format must be a string literal, got %T", n.Format)})
	}
	formatCPI := c.internString(format.Value)
	for _, arg := range n.Arguments {
		arg.Accept(c)
	}
	c.emit(bytecode.Print{Format: formatCPI, Arguments: bytecode.Arity(len(n.Arguments))})
	return nil
}
