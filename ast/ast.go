// Package ast defines the node shapes the vela compiler consumes (§3.7).
// Every node is an expression. Most nodes leave exactly one value on the
// operand stack; two do not: a FunctionDefinition emits its Method out of
// line and pushes nothing, and an empty Block emits no instructions. The
// Compiler's Block lowering places a Drop after every child but the last,
// skipping FunctionDefinition children (and pushing Null when one is the
// last child); an empty Block used as a child is not compensated for.
//
// Nodes follow the visitor pattern used throughout this codebase: each
// node implements Accept, dispatching to the matching method of a
// Visitor so traversal behaviour (compiling, pretty-printing) lives
// outside the node types themselves.
package ast

// Node is the interface every AST node implements.
type Node interface {
	Accept(v Visitor) any
}

// Visitor defines one Visit method per node kind in §3.7. A Compiler is
// the canonical implementation; a debug AST-printer is another.
type Visitor interface {
	VisitNumber(Number) any
	VisitBoolean(Boolean) any
	VisitUnit(Unit) any
	VisitStringLiteral(StringLiteral) any
	VisitVariableAccess(VariableAccess) any
	VisitVariableDefinition(VariableDefinition) any
	VisitAssignVariable(AssignVariable) any
	VisitConditional(Conditional) any
	VisitLoop(Loop) any
	VisitBlock(Block) any
	VisitArrayDefinition(ArrayDefinition) any
	VisitArrayAccess(ArrayAccess) any
	VisitArrayMutation(ArrayMutation) any
	VisitFieldAccess(FieldAccess) any
	VisitFieldMutation(FieldMutation) any
	VisitMethodCall(MethodCall) any
	VisitFunctionCall(FunctionCall) any
	VisitFunctionDefinition(FunctionDefinition) any
	VisitObjectDefinition(ObjectDefinition) any
	VisitOperatorCall(OperatorCall) any
	VisitOperation(Operation) any
	VisitPrint(Print) any
}

// Number is an integer literal.
type Number struct{ Value int32 }

func (n Number) Accept(v Visitor) any { return v.VisitNumber(n) }

// Boolean is a `true`/`false` literal.
type Boolean struct{ Value bool }

func (n Boolean) Accept(v Visitor) any { return v.VisitBoolean(n) }

// Unit is the `null` literal.
type Unit struct{}

func (n Unit) Accept(v Visitor) any { return v.VisitUnit(n) }

// StringLiteral is a double-quoted string literal.
type StringLiteral struct{ Value string }

func (n StringLiteral) Accept(v Visitor) any { return v.VisitStringLiteral(n) }

// VariableAccess reads a previously bound name, local or global.
type VariableAccess struct{ Name string }

func (n VariableAccess) Accept(v Visitor) any { return v.VisitVariableAccess(n) }

// VariableDefinition introduces a new binding (local in a frame, global
// at top level) for Name with the value of Value.
type VariableDefinition struct {
	Name  string
	Value Node
}

func (n VariableDefinition) Accept(v Visitor) any { return v.VisitVariableDefinition(n) }

// AssignVariable updates an existing binding. Result value is the
// assigned value.
type AssignVariable struct {
	Name  string
	Value Node
}

func (n AssignVariable) Accept(v Visitor) any { return v.VisitAssignVariable(n) }

// Conditional is an if/else expression.
type Conditional struct {
	Condition   Node
	Consequent  Node
	Alternative Node
}

func (n Conditional) Accept(v Visitor) any { return v.VisitConditional(n) }

// Loop is a while loop; as an expression its value is always Unit (§9 Q2).
type Loop struct {
	Condition Node
	Body      Node
}

func (n Loop) Accept(v Visitor) any { return v.VisitLoop(n) }

// Block sequences child nodes; its value is the last child's value (Null
// when that child is a FunctionDefinition). An empty Block emits nothing
// and leaves no value.
type Block struct{ Statements []Node }

func (n Block) Accept(v Visitor) any { return v.VisitBlock(n) }

// ArrayDefinition allocates an array of Size elements each initialised
// from Value (evaluated once per element unless Value is a pure literal).
type ArrayDefinition struct {
	Size  Node
	Value Node
}

func (n ArrayDefinition) Accept(v Visitor) any { return v.VisitArrayDefinition(n) }

// ArrayAccess reads Array[Index].
type ArrayAccess struct {
	Array Node
	Index Node
}

func (n ArrayAccess) Accept(v Visitor) any { return v.VisitArrayAccess(n) }

// ArrayMutation writes Value into Array[Index].
type ArrayMutation struct {
	Array Node
	Index Node
	Value Node
}

func (n ArrayMutation) Accept(v Visitor) any { return v.VisitArrayMutation(n) }

// FieldAccess reads Object.Field.
type FieldAccess struct {
	Object Node
	Field  string
}

func (n FieldAccess) Accept(v Visitor) any { return v.VisitFieldAccess(n) }

// FieldMutation writes Value into Object.Field.
type FieldMutation struct {
	Object Node
	Field  string
	Value  Node
}

func (n FieldMutation) Accept(v Visitor) any { return v.VisitFieldMutation(n) }

// MethodCall sends Method to Object with Arguments.
type MethodCall struct {
	Object    Node
	Method    string
	Arguments []Node
}

func (n MethodCall) Accept(v Visitor) any { return v.VisitMethodCall(n) }

// FunctionCall invokes the top-level function named Function.
type FunctionCall struct {
	Function  string
	Arguments []Node
}

func (n FunctionCall) Accept(v Visitor) any { return v.VisitFunctionCall(n) }

// FunctionDefinition declares a function or method named Function, with
// Parameters bound as locals 0..n-1 inside Body.
type FunctionDefinition struct {
	Function   string
	Parameters []string
	Body       Node
}

func (n FunctionDefinition) Accept(v Visitor) any { return v.VisitFunctionDefinition(n) }

// ObjectDefinition builds an object literal. Members are
// FunctionDefinition or VariableDefinition nodes in source order; Extends
// is nil when the object has no explicit parent (compiles to Null).
type ObjectDefinition struct {
	Extends Node
	Members []Node
}

func (n ObjectDefinition) Accept(v Visitor) any { return v.VisitObjectDefinition(n) }

// OperatorCall sends the Operator symbol as a message to Object, exactly
// like MethodCall.
type OperatorCall struct {
	Operator  string
	Object    Node
	Arguments []Node
}

func (n OperatorCall) Accept(v Visitor) any { return v.VisitOperatorCall(n) }

// Operation is an infix binary expression; Left and Right are compiled
// right-then-left (§4.3).
type Operation struct {
	Operator string
	Left     Node
	Right    Node
}

func (n Operation) Accept(v Visitor) any { return v.VisitOperation(n) }

// Print formats Format, consuming one Arguments entry per `~`.
type Print struct {
	Format    Node
	Arguments []Node
}

func (n Print) Accept(v Visitor) any { return v.VisitPrint(n) }
