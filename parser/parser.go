// Recursive descent parser
// https://en.wikipedia.org/wiki/Recursive_descent_parser
//
// A Recursive descent parser is a top-down parser because it starts from the top
// grammar rule and works its way down in to the nested sub-experessions before reaching
// the leaves of the syntax tree (terminal rules).
//
// vela has no statement/expression split: every production in §4 of
// SPEC_FULL.md yields an ast.Node, so this parser has a single
// `expression` entry point rather than the usual declaration/statement/
// expression three-tier grammar.
package parser

import (
	"vela/ast"
	"vela/token"
)

var equalityTokenTypes = []token.TokenType{
	token.NOT_EQUAL,
	token.EQUAL_EQUAL,
}

var comparisonTokenTypes = []token.TokenType{
	token.LARGER,
	token.LARGER_EQUAL,
	token.LESS,
	token.LESS_EQUAL,
}

var bitwiseOrTokenTypes = []token.TokenType{
	token.PIPE,
}

var bitwiseAndTokenTypes = []token.TokenType{
	token.AMP,
}

var termTokenTypes = []token.TokenType{
	token.SUB,
	token.ADD,
}

var factorTokenTypes = []token.TokenType{
	token.MULT,
	token.DIV,
	token.MOD,
}

// operatorSymbols maps the tokens that may also appear as an explicit
// operator message name (§4 `expr.op(args)`) to their lexeme.
var operatorSymbols = map[token.TokenType]string{
	token.ADD:          "+",
	token.SUB:          "-",
	token.MULT:         "*",
	token.DIV:          "/",
	token.MOD:          "%",
	token.EQUAL_EQUAL:  "==",
	token.NOT_EQUAL:    "!=",
	token.LESS:         "<",
	token.LESS_EQUAL:   "<=",
	token.LARGER:       ">",
	token.LARGER_EQUAL: ">=",
	token.AMP:          "&",
	token.PIPE:         "|",
}

type Parser struct {
	tokens   []token.Token
	position int
}

// NOTE: The parsers position is always one unit ahead of the
// current token

// Make initializes and returns a new Parser instance over tokens produced
// by the lexer.
func Make(tokens []token.Token) *Parser {
	return &Parser{
		tokens:   tokens,
		position: 0,
	}
}

// Peeks the token at the parser's current position,
// without advancing the parser's position.
func (parser *Parser) peek() token.Token {
	return parser.tokens[parser.position]
}

// Retrieves the token at the parser's previous position
// (position -1)
func (parser *Parser) previous() token.Token {
	return parser.tokens[parser.position-1]
}

// Increments the parser's position by one unit and
// consumes the current token
func (parser *Parser) advance() token.Token {
	if !parser.isFinished() {
		parser.position++
	}
	return parser.previous()
}

// Determines if the parser has finished scanning all the tokens.
func (parser *Parser) isFinished() bool {
	tok := parser.peek()
	return tok.TokenType == token.EOF
}

// Determines if the provided tokenType matches the TokenType
// at the parser's current position
func (parser *Parser) checkType(tokenType token.TokenType) bool {
	if parser.isFinished() {
		return false
	}
	tok := parser.peek()
	return tok.TokenType == tokenType
}

// Determines if the TokenType at the current
// position matches any of the provided tokenTypes. If a match is
// found the parser increments its position and consumes the
// current token
func (parser *Parser) isMatch(tokenTypes []token.TokenType) bool {
	for i := range tokenTypes {
		if parser.checkType(tokenTypes[i]) {
			parser.advance()
			return true
		}
	}
	return false
}

// Consumes the current token by advancing the parsers current position by
// one unit if the `tokenType` matches the token type of the parsers current
// position.
//
//	Returns:
//	- A SyntaxError if the provided `tokenType` does not match the `TokenType`
//		at the parsers current position
func (parser *Parser) consume(tokenType token.TokenType, errorMessage string) (token.Token, error) {
	if parser.checkType(tokenType) {
		return parser.advance(), nil
	}
	currentToken := parser.peek()
	return token.CreateToken(token.EOF, 0, 0), CreateSyntaxError(currentToken.Line, currentToken.Column, errorMessage)
}

// Parse parses the entire token stream into a single ast.Block node (every
// top-level form, in source order), continuing past errors to collect as
// many as possible.
//
// Returns:
//   - ast.Node: an ast.Block wrapping the successfully parsed top-level forms.
//   - []error: all errors that occurred during parsing.
func (parser *Parser) Parse() (ast.Node, []error) {
	statements := []ast.Node{}
	errors := []error{}

	for !parser.isFinished() {
		statement, err := parser.expression()
		if err != nil {
			errors = append(errors, err)
			if !parser.isFinished() {
				parser.position++
			}
			continue
		}
		statements = append(statements, statement)
		parser.isMatch([]token.TokenType{token.SEMICOLON})
	}

	return ast.Block{Statements: statements}, errors
}

// expression is the entry point for parsing a single vela form.
func (parser *Parser) expression() (ast.Node, error) {
	return parser.assignment()
}

// assignment parses an assignment expression. The left-hand side is parsed
// as a full equality expression first; if it is followed by '=' and turns
// out to be one of the three lvalue shapes (VariableAccess, ArrayAccess,
// FieldAccess), it is rewritten into the matching mutation node. Any other
// left-hand side followed by '=' is a syntax error.
func (parser *Parser) assignment() (ast.Node, error) {
	expr, err := parser.equality()
	if err != nil {
		return nil, err
	}
	if !parser.isMatch([]token.TokenType{token.ASSIGN}) {
		return expr, nil
	}
	equalsToken := parser.previous()

	value, err := parser.assignment()
	if err != nil {
		return nil, err
	}

	switch target := expr.(type) {
	case ast.VariableAccess:
		return ast.AssignVariable{Name: target.Name, Value: value}, nil
	case ast.ArrayAccess:
		return ast.ArrayMutation{Array: target.Array, Index: target.Index, Value: value}, nil
	case ast.FieldAccess:
		return ast.FieldMutation{Object: target.Object, Field: target.Field, Value: value}, nil
	default:
		return nil, CreateSyntaxError(equalsToken.Line, equalsToken.Column, "invalid assignment target")
	}
}

// equality parses "==" and "!=".
func (parser *Parser) equality() (ast.Node, error) {
	return parser.binary(equalityTokenTypes, parser.comparison)
}

// comparison parses "<", "<=", ">", ">=".
func (parser *Parser) comparison() (ast.Node, error) {
	return parser.binary(comparisonTokenTypes, parser.bitwiseOr)
}

// bitwiseOr parses "|".
func (parser *Parser) bitwiseOr() (ast.Node, error) {
	return parser.binary(bitwiseOrTokenTypes, parser.bitwiseAnd)
}

// bitwiseAnd parses "&".
func (parser *Parser) bitwiseAnd() (ast.Node, error) {
	return parser.binary(bitwiseAndTokenTypes, parser.term)
}

// term parses "+" and "-".
func (parser *Parser) term() (ast.Node, error) {
	return parser.binary(termTokenTypes, parser.factor)
}

// factor parses "*", "/" and "%".
func (parser *Parser) factor() (ast.Node, error) {
	return parser.binary(factorTokenTypes, parser.postfix)
}

// binary parses a left-associative chain of infix operators drawn from
// tokenTypes, with each operand parsed by next. Every match lowers to an
// ast.Operation, compiled right-then-left (§4.3).
func (parser *Parser) binary(tokenTypes []token.TokenType, next func() (ast.Node, error)) (ast.Node, error) {
	expr, err := next()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(tokenTypes) {
		operator := parser.previous()
		right, err := next()
		if err != nil {
			return nil, err
		}
		expr = ast.Operation{Operator: operator.Lexeme, Left: expr, Right: right}
	}
	return expr, nil
}

// postfix parses a primary expression followed by any sequence of field
// access/mutation, method calls, operator message sends, and array
// indexing, e.g. `a.b.c(1)[2]`.
func (parser *Parser) postfix() (ast.Node, error) {
	expr, err := parser.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case parser.isMatch([]token.TokenType{token.DOT}):
			expr, err = parser.dotSuffix(expr)
			if err != nil {
				return nil, err
			}
		case parser.isMatch([]token.TokenType{token.LBRACKET}):
			index, err := parser.expression()
			if err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.RBRACKET, "expected ']' after array index"); err != nil {
				return nil, err
			}
			expr = ast.ArrayAccess{Array: expr, Index: index}
		default:
			return expr, nil
		}
	}
}

// dotSuffix parses what follows a '.': either an explicit operator message
// send (`.op(args)`) or a field access/method call (`.name` / `.name(args)`).
func (parser *Parser) dotSuffix(receiver ast.Node) (ast.Node, error) {
	if symbol, ok := operatorSymbols[parser.peek().TokenType]; ok {
		parser.advance()
		if _, err := parser.consume(token.LPA, "expected '(' after operator message"); err != nil {
			return nil, err
		}
		args, err := parser.arguments()
		if err != nil {
			return nil, err
		}
		return ast.OperatorCall{Operator: symbol, Object: receiver, Arguments: args}, nil
	}

	name, err := parser.consume(token.IDENTIFIER, "expected field or method name after '.'")
	if err != nil {
		return nil, err
	}

	if !parser.isMatch([]token.TokenType{token.LPA}) {
		return ast.FieldAccess{Object: receiver, Field: name.Lexeme}, nil
	}
	args, err := parser.arguments()
	if err != nil {
		return nil, err
	}
	return ast.MethodCall{Object: receiver, Method: name.Lexeme, Arguments: args}, nil
}

// arguments parses a comma-separated expression list up to and including
// the closing ')'. The opening '(' must already have been consumed.
func (parser *Parser) arguments() ([]ast.Node, error) {
	args := []ast.Node{}
	if !parser.checkType(token.RPA) {
		for {
			arg, err := parser.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RPA, "expected ')' after arguments"); err != nil {
		return nil, err
	}
	return args, nil
}

// primary parses the leaves of the grammar: literals, identifiers,
// parenthesised expressions, and the keyword-led forms (var, if, while,
// function, object, array, print, and block expressions).
func (parser *Parser) primary() (ast.Node, error) {
	switch {
	case parser.isMatch([]token.TokenType{token.FALSE}):
		return ast.Boolean{Value: false}, nil
	case parser.isMatch([]token.TokenType{token.TRUE}):
		return ast.Boolean{Value: true}, nil
	case parser.isMatch([]token.TokenType{token.NULL}):
		return ast.Unit{}, nil
	case parser.isMatch([]token.TokenType{token.INT}):
		return ast.Number{Value: int32(parser.previous().Literal.(int64))}, nil
	case parser.isMatch([]token.TokenType{token.FLOAT}):
		tok := parser.previous()
		return nil, CreateSyntaxError(tok.Line, tok.Column, "floating point literals are not supported")
	case parser.isMatch([]token.TokenType{token.STRING}):
		return ast.StringLiteral{Value: parser.previous().Literal.(string)}, nil
	case parser.isMatch([]token.TokenType{token.IDENTIFIER}):
		return parser.identifierOrCall()
	case parser.isMatch([]token.TokenType{token.LPA}):
		expr, err := parser.expression()
		if err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.RPA, "expected ')' after expression"); err != nil {
			return nil, err
		}
		return expr, nil
	case parser.isMatch([]token.TokenType{token.LCUR}):
		return parser.block()
	case parser.isMatch([]token.TokenType{token.VAR}):
		return parser.variableDefinition()
	case parser.isMatch([]token.TokenType{token.IF}):
		return parser.conditional()
	case parser.isMatch([]token.TokenType{token.WHILE}):
		return parser.loop()
	case parser.isMatch([]token.TokenType{token.FUNC}):
		return parser.functionDefinition()
	case parser.isMatch([]token.TokenType{token.OBJECT}):
		return parser.objectDefinition()
	case parser.isMatch([]token.TokenType{token.ARRAY}):
		return parser.arrayDefinition()
	case parser.isMatch([]token.TokenType{token.PRINT}):
		return parser.printExpression()
	}

	currentToken := parser.peek()
	return nil, CreateSyntaxError(currentToken.Line, currentToken.Column, "unrecognised expression")
}

// identifierOrCall distinguishes a bare variable access from a top-level
// function call; both start with a consumed IDENTIFIER token.
func (parser *Parser) identifierOrCall() (ast.Node, error) {
	name := parser.previous().Lexeme
	if !parser.isMatch([]token.TokenType{token.LPA}) {
		return ast.VariableAccess{Name: name}, nil
	}
	args, err := parser.arguments()
	if err != nil {
		return nil, err
	}
	return ast.FunctionCall{Function: name, Arguments: args}, nil
}

// block parses a "{ ... }" body; the opening '{' must already be consumed.
// Each member form may be followed by an optional ';' separator.
func (parser *Parser) block() (ast.Node, error) {
	statements := []ast.Node{}

	for !parser.checkType(token.RCUR) && !parser.isFinished() {
		stmt, err := parser.expression()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
		parser.isMatch([]token.TokenType{token.SEMICOLON})
	}

	if _, err := parser.consume(token.RCUR, "expected '}' to close block"); err != nil {
		return nil, err
	}
	return ast.Block{Statements: statements}, nil
}

// variableDefinition parses "var name = value"; the VAR keyword must
// already be consumed. Unlike the untyped initial-value-optional form some
// languages allow, a vela VariableDefinition always carries a Value.
func (parser *Parser) variableDefinition() (ast.Node, error) {
	name, err := parser.consume(token.IDENTIFIER, "expected variable name")
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.ASSIGN, "expected '=' after variable name"); err != nil {
		return nil, err
	}
	value, err := parser.expression()
	if err != nil {
		return nil, err
	}
	return ast.VariableDefinition{Name: name.Lexeme, Value: value}, nil
}

// conditional parses "if (cond) { ... } [else ({ ... } | if ...)]"; the IF
// keyword must already be consumed.
func (parser *Parser) conditional() (ast.Node, error) {
	if _, err := parser.consume(token.LPA, "expected '(' after 'if'"); err != nil {
		return nil, err
	}
	condition, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.RPA, "expected ')' after condition"); err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LCUR, "expected '{' to start if-branch"); err != nil {
		return nil, err
	}
	consequent, err := parser.block()
	if err != nil {
		return nil, err
	}

	var alternative ast.Node
	if parser.isMatch([]token.TokenType{token.ELSE}) {
		if parser.isMatch([]token.TokenType{token.IF}) {
			alternative, err = parser.conditional()
		} else {
			if _, err := parser.consume(token.LCUR, "expected '{' to start else-branch"); err != nil {
				return nil, err
			}
			alternative, err = parser.block()
		}
		if err != nil {
			return nil, err
		}
	}

	return ast.Conditional{Condition: condition, Consequent: consequent, Alternative: alternative}, nil
}

// loop parses "while (cond) { ... }"; the WHILE keyword must already be
// consumed.
func (parser *Parser) loop() (ast.Node, error) {
	if _, err := parser.consume(token.LPA, "expected '(' after 'while'"); err != nil {
		return nil, err
	}
	condition, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.RPA, "expected ')' after condition"); err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LCUR, "expected '{' to start loop body"); err != nil {
		return nil, err
	}
	body, err := parser.block()
	if err != nil {
		return nil, err
	}
	return ast.Loop{Condition: condition, Body: body}, nil
}

// functionDefinition parses "function name(params) { body }"; the FUNCTION
// keyword must already be consumed.
func (parser *Parser) functionDefinition() (ast.Node, error) {
	name, err := parser.consume(token.IDENTIFIER, "expected function name")
	if err != nil {
		return nil, err
	}
	params, err := parser.parameters()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LCUR, "expected '{' to start function body"); err != nil {
		return nil, err
	}
	body, err := parser.block()
	if err != nil {
		return nil, err
	}
	return ast.FunctionDefinition{Function: name.Lexeme, Parameters: params, Body: body}, nil
}

// parameters parses a "(a, b, c)" parameter list.
func (parser *Parser) parameters() ([]string, error) {
	if _, err := parser.consume(token.LPA, "expected '(' before parameter list"); err != nil {
		return nil, err
	}
	params := []string{}
	if !parser.checkType(token.RPA) {
		for {
			tok, err := parser.consume(token.IDENTIFIER, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, tok.Lexeme)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RPA, "expected ')' after parameter list"); err != nil {
		return nil, err
	}
	return params, nil
}

// objectDefinition parses "object [extends expr] { members }"; the OBJECT
// keyword must already be consumed. Members are restricted to function and
// variable definitions, the only two kinds compiler.VisitObjectDefinition
// accepts.
func (parser *Parser) objectDefinition() (ast.Node, error) {
	var extends ast.Node
	if parser.isMatch([]token.TokenType{token.EXTENDS}) {
		var err error
		extends, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}

	if _, err := parser.consume(token.LCUR, "expected '{' to start object body"); err != nil {
		return nil, err
	}

	members := []ast.Node{}
	for !parser.checkType(token.RCUR) && !parser.isFinished() {
		member, err := parser.objectMember()
		if err != nil {
			return nil, err
		}
		members = append(members, member)
		parser.isMatch([]token.TokenType{token.SEMICOLON})
	}
	if _, err := parser.consume(token.RCUR, "expected '}' to close object body"); err != nil {
		return nil, err
	}

	return ast.ObjectDefinition{Extends: extends, Members: members}, nil
}

// objectMember parses a single object member: a function or a variable
// definition. No other expression kind is a valid member.
func (parser *Parser) objectMember() (ast.Node, error) {
	switch {
	case parser.isMatch([]token.TokenType{token.FUNC}):
		return parser.functionDefinition()
	case parser.isMatch([]token.TokenType{token.VAR}):
		return parser.variableDefinition()
	}
	currentToken := parser.peek()
	return nil, CreateSyntaxError(currentToken.Line, currentToken.Column, "expected a function or variable definition inside object body")
}

// arrayDefinition parses "array(size, init)"; the ARRAY keyword must
// already be consumed.
func (parser *Parser) arrayDefinition() (ast.Node, error) {
	if _, err := parser.consume(token.LPA, "expected '(' after 'array'"); err != nil {
		return nil, err
	}
	size, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.COMMA, "expected ',' after array size"); err != nil {
		return nil, err
	}
	value, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.RPA, "expected ')' after array initialiser"); err != nil {
		return nil, err
	}
	return ast.ArrayDefinition{Size: size, Value: value}, nil
}

// printExpression parses "print(format, args...)"; the PRINT keyword must
// already be consumed. The format must be a string literal, matching the
// restriction compiler.VisitPrint enforces.
func (parser *Parser) printExpression() (ast.Node, error) {
	if _, err := parser.consume(token.LPA, "expected '(' after 'print'"); err != nil {
		return nil, err
	}
	formatTok, err := parser.consume(token.STRING, "expected a string literal as the print format")
	if err != nil {
		return nil, err
	}
	format := ast.StringLiteral{Value: formatTok.Literal.(string)}

	args := []ast.Node{}
	for parser.isMatch([]token.TokenType{token.COMMA}) {
		arg, err := parser.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := parser.consume(token.RPA, "expected ')' after print arguments"); err != nil {
		return nil, err
	}
	return ast.Print{Format: format, Arguments: args}, nil
}
