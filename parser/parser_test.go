package parser

import (
	"testing"

	"vela/ast"
	"vela/lexer"
)

// parse lexes and parses source, failing the test on any parse error.
func parse(t *testing.T, source string) ast.Node {
	t.Helper()
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		t.Fatalf("lex(%q): %v", source, err)
	}
	node, errs := Make(tokens).Parse()
	if len(errs) > 0 {
		t.Fatalf("parse(%q): %v", source, errs)
	}
	return node
}

// single unwraps the sole top-level form out of the ast.Block Parse wraps
// everything in.
func single(t *testing.T, source string) ast.Node {
	t.Helper()
	block, ok := parse(t, source).(ast.Block)
	if !ok {
		t.Fatalf("Parse(%q) did not return an ast.Block", source)
	}
	if len(block.Statements) != 1 {
		t.Fatalf("expected exactly one top-level form in %q, got %d", source, len(block.Statements))
	}
	return block.Statements[0]
}

func TestParseIntegerLiteral(t *testing.T) {
	got := single(t, "42")
	if n, ok := got.(ast.Number); !ok || n.Value != 42 {
		t.Errorf("expected Number{42}, got %#v", got)
	}
}

func TestParseBooleanAndNullLiterals(t *testing.T) {
	cases := map[string]ast.Node{
		"true":  ast.Boolean{Value: true},
		"false": ast.Boolean{Value: false},
		"null":  ast.Unit{},
	}
	for src, want := range cases {
		if got := single(t, src); got != want {
			t.Errorf("single(%q) = %#v, want %#v", src, got, want)
		}
	}
}

func TestParseStringLiteralUnescaped(t *testing.T) {
	got := single(t, `"hello\n"`)
	s, ok := got.(ast.StringLiteral)
	if !ok || s.Value != "hello\n" {
		t.Errorf("expected StringLiteral{\"hello\\n\"}, got %#v", got)
	}
}

func TestParseFloatLiteralIsRejected(t *testing.T) {
	tokens, err := lexer.New("1.5").Scan()
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	_, errs := Make(tokens).Parse()
	if len(errs) == 0 {
		t.Fatalf("expected a parse error for a float literal, got none")
	}
}

func TestParseVariableDefinitionAndAccess(t *testing.T) {
	got := single(t, "var x = 1")
	def, ok := got.(ast.VariableDefinition)
	if !ok || def.Name != "x" {
		t.Fatalf("expected VariableDefinition{x}, got %#v", got)
	}
	if n, ok := def.Value.(ast.Number); !ok || n.Value != 1 {
		t.Errorf("expected initialiser Number{1}, got %#v", def.Value)
	}

	got = single(t, "x")
	if access, ok := got.(ast.VariableAccess); !ok || access.Name != "x" {
		t.Errorf("expected VariableAccess{x}, got %#v", got)
	}
}

func TestParseAssignVariable(t *testing.T) {
	got := single(t, "x = 5")
	assign, ok := got.(ast.AssignVariable)
	if !ok || assign.Name != "x" {
		t.Fatalf("expected AssignVariable{x}, got %#v", got)
	}
}

func TestParseInvalidAssignmentTargetErrors(t *testing.T) {
	tokens, err := lexer.New("1 = 2").Scan()
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	_, errs := Make(tokens).Parse()
	if len(errs) == 0 {
		t.Fatalf("expected a syntax error assigning to a literal")
	}
}

func TestParseOperationPrecedence(t *testing.T) {
	got := single(t, "1 + 2 * 3")
	op, ok := got.(ast.Operation)
	if !ok || op.Operator != "+" {
		t.Fatalf("expected top-level '+' Operation, got %#v", got)
	}
	if n, ok := op.Left.(ast.Number); !ok || n.Value != 1 {
		t.Errorf("expected left operand Number{1}, got %#v", op.Left)
	}
	mul, ok := op.Right.(ast.Operation)
	if !ok || mul.Operator != "*" {
		t.Fatalf("expected right operand to be a '*' Operation, got %#v", op.Right)
	}
}

func TestParseComparisonAndBitwiseOperators(t *testing.T) {
	cases := []string{"1 < 2", "1 <= 2", "1 > 2", "1 >= 2", "1 == 2", "1 != 2", "1 & 2", "1 | 2"}
	for _, src := range cases {
		got := single(t, src)
		if _, ok := got.(ast.Operation); !ok {
			t.Errorf("single(%q) = %#v, want ast.Operation", src, got)
		}
	}
}

func TestParseArrayAccessAndMutation(t *testing.T) {
	got := single(t, "a[0]")
	access, ok := got.(ast.ArrayAccess)
	if !ok {
		t.Fatalf("expected ArrayAccess, got %#v", got)
	}
	if idx, ok := access.Index.(ast.Number); !ok || idx.Value != 0 {
		t.Errorf("expected index Number{0}, got %#v", access.Index)
	}

	got = single(t, "a[0] = 9")
	mutation, ok := got.(ast.ArrayMutation)
	if !ok {
		t.Fatalf("expected ArrayMutation, got %#v", got)
	}
	if val, ok := mutation.Value.(ast.Number); !ok || val.Value != 9 {
		t.Errorf("expected assigned value Number{9}, got %#v", mutation.Value)
	}
}

func TestParseFieldAccessAndMutation(t *testing.T) {
	got := single(t, "obj.field")
	access, ok := got.(ast.FieldAccess)
	if !ok || access.Field != "field" {
		t.Fatalf("expected FieldAccess{field}, got %#v", got)
	}

	got = single(t, "obj.field = 1")
	mutation, ok := got.(ast.FieldMutation)
	if !ok || mutation.Field != "field" {
		t.Fatalf("expected FieldMutation{field}, got %#v", got)
	}
}

func TestParseMethodCall(t *testing.T) {
	got := single(t, "obj.push(1, 2)")
	call, ok := got.(ast.MethodCall)
	if !ok || call.Method != "push" || len(call.Arguments) != 2 {
		t.Fatalf("expected MethodCall{push, 2 args}, got %#v", got)
	}
}

func TestParseOperatorCall(t *testing.T) {
	got := single(t, "a.+(b)")
	call, ok := got.(ast.OperatorCall)
	if !ok || call.Operator != "+" {
		t.Fatalf("expected OperatorCall{+}, got %#v", got)
	}
}

func TestParseFunctionCall(t *testing.T) {
	got := single(t, "add(1, 2)")
	call, ok := got.(ast.FunctionCall)
	if !ok || call.Function != "add" || len(call.Arguments) != 2 {
		t.Fatalf("expected FunctionCall{add, 2 args}, got %#v", got)
	}
}

func TestParseFunctionDefinition(t *testing.T) {
	got := single(t, "function add(a, b) { a + b }")
	def, ok := got.(ast.FunctionDefinition)
	if !ok || def.Function != "add" {
		t.Fatalf("expected FunctionDefinition{add}, got %#v", got)
	}
	if len(def.Parameters) != 2 || def.Parameters[0] != "a" || def.Parameters[1] != "b" {
		t.Errorf("expected parameters [a b], got %v", def.Parameters)
	}
	body, ok := def.Body.(ast.Block)
	if !ok || len(body.Statements) != 1 {
		t.Fatalf("expected a one-statement Block body, got %#v", def.Body)
	}
}

func TestParseConditionalWithElse(t *testing.T) {
	got := single(t, "if (true) { 1 } else { 2 }")
	cond, ok := got.(ast.Conditional)
	if !ok {
		t.Fatalf("expected Conditional, got %#v", got)
	}
	if cond.Alternative == nil {
		t.Errorf("expected a non-nil Alternative for an explicit else-branch")
	}
}

func TestParseConditionalWithoutElseLeavesAlternativeNil(t *testing.T) {
	got := single(t, "if (true) { 1 }")
	cond, ok := got.(ast.Conditional)
	if !ok {
		t.Fatalf("expected Conditional, got %#v", got)
	}
	if cond.Alternative != nil {
		t.Errorf("expected nil Alternative when no else-branch is written, got %#v", cond.Alternative)
	}
}

func TestParseElseIfChain(t *testing.T) {
	got := single(t, "if (false) { 1 } else if (true) { 2 } else { 3 }")
	cond, ok := got.(ast.Conditional)
	if !ok {
		t.Fatalf("expected Conditional, got %#v", got)
	}
	elseIf, ok := cond.Alternative.(ast.Conditional)
	if !ok {
		t.Fatalf("expected chained Conditional in Alternative, got %#v", cond.Alternative)
	}
	if elseIf.Alternative == nil {
		t.Errorf("expected the inner conditional's else-branch to survive")
	}
}

func TestParseLoop(t *testing.T) {
	got := single(t, "while (true) { 1 }")
	if _, ok := got.(ast.Loop); !ok {
		t.Fatalf("expected Loop, got %#v", got)
	}
}

func TestParseArrayDefinition(t *testing.T) {
	got := single(t, "array(3, 0)")
	def, ok := got.(ast.ArrayDefinition)
	if !ok {
		t.Fatalf("expected ArrayDefinition, got %#v", got)
	}
	if size, ok := def.Size.(ast.Number); !ok || size.Value != 3 {
		t.Errorf("expected size Number{3}, got %#v", def.Size)
	}
}

func TestParsePrint(t *testing.T) {
	got := single(t, `print("x is ~", x)`)
	p, ok := got.(ast.Print)
	if !ok {
		t.Fatalf("expected Print, got %#v", got)
	}
	format, ok := p.Format.(ast.StringLiteral)
	if !ok || format.Value != "x is ~" {
		t.Fatalf("expected format StringLiteral{\"x is ~\"}, got %#v", p.Format)
	}
	if len(p.Arguments) != 1 {
		t.Errorf("expected one Print argument, got %d", len(p.Arguments))
	}
}

func TestParsePrintRequiresStringLiteralFormat(t *testing.T) {
	tokens, err := lexer.New("print(x)").Scan()
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	_, errs := Make(tokens).Parse()
	if len(errs) == 0 {
		t.Fatalf("expected a parse error for a non-literal print format")
	}
}

func TestParseObjectDefinitionWithExtendsAndMembers(t *testing.T) {
	got := single(t, `object extends null {
		var count = 0;
		function get() { count }
	}`)
	def, ok := got.(ast.ObjectDefinition)
	if !ok {
		t.Fatalf("expected ObjectDefinition, got %#v", got)
	}
	if def.Extends == nil {
		t.Errorf("expected a non-nil Extends expression")
	}
	if len(def.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(def.Members))
	}
	if _, ok := def.Members[0].(ast.VariableDefinition); !ok {
		t.Errorf("expected first member to be a VariableDefinition, got %#v", def.Members[0])
	}
	if _, ok := def.Members[1].(ast.FunctionDefinition); !ok {
		t.Errorf("expected second member to be a FunctionDefinition, got %#v", def.Members[1])
	}
}

func TestParseObjectDefinitionRejectsNonMemberForms(t *testing.T) {
	tokens, err := lexer.New("object { 1 + 1 }").Scan()
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	_, errs := Make(tokens).Parse()
	if len(errs) == 0 {
		t.Fatalf("expected a parse error for a non-member object body expression")
	}
}

func TestParseBlockOfMultipleForms(t *testing.T) {
	block, ok := parse(t, "var x = 1; var y = 2; x + y").(ast.Block)
	if !ok {
		t.Fatalf("expected top-level ast.Block")
	}
	if len(block.Statements) != 3 {
		t.Fatalf("expected 3 top-level forms, got %d", len(block.Statements))
	}
}

func TestParseCollectsMultipleErrors(t *testing.T) {
	tokens, err := lexer.New("1 = 2; 3 = 4").Scan()
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	_, errs := Make(tokens).Parse()
	if len(errs) != 2 {
		t.Fatalf("expected 2 collected parse errors, got %d: %v", len(errs), errs)
	}
}
