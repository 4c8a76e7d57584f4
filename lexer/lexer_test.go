package lexer

import (
	"reflect"
	"testing"

	"vela/token"
)

func scanTokenTypes(t *testing.T, input string) []token.TokenType {
	t.Helper()
	lexer := New(input)
	tokens, err := lexer.Scan()
	if err != nil {
		t.Fatalf("Scan(%q): %v", input, err)
	}
	types := make([]token.TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.TokenType
	}
	return types
}

func TestScanOperators(t *testing.T) {
	got := scanTokenTypes(t, "==/=*+>-<!=<=>=!")
	want := []token.TokenType{
		token.EQUAL_EQUAL,
		token.DIV,
		token.ASSIGN,
		token.MULT,
		token.ADD,
		token.LARGER,
		token.SUB,
		token.LESS,
		token.NOT_EQUAL,
		token.LESS_EQUAL,
		token.LARGER_EQUAL,
		token.BANG,
		token.EOF,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestScanPunctuation(t *testing.T) {
	got := scanTokenTypes(t, "(){}[];,.%&|")
	want := []token.TokenType{
		token.LPA,
		token.RPA,
		token.LCUR,
		token.RCUR,
		token.LBRACKET,
		token.RBRACKET,
		token.SEMICOLON,
		token.COMMA,
		token.DOT,
		token.MOD,
		token.AMP,
		token.PIPE,
		token.EOF,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestScanDotDisambiguatesFieldAccessFromFloat(t *testing.T) {
	got := scanTokenTypes(t, "obj.field")
	want := []token.TokenType{token.IDENTIFIER, token.DOT, token.IDENTIFIER, token.EOF}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got = scanTokenTypes(t, ".5")
	want = []token.TokenType{token.FLOAT, token.EOF}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestScanKeywords(t *testing.T) {
	got := scanTokenTypes(t, "function object extends array print")
	want := []token.TokenType{
		token.FUNC,
		token.OBJECT,
		token.EXTENDS,
		token.ARRAY,
		token.PRINT,
		token.EOF,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestScanStringLiteralEscapes(t *testing.T) {
	lexer := New(`"line\nbreak\ttab\\slash\"quote\~tilde"`)
	tokens, err := lexer.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected STRING + EOF, got %v", tokens)
	}
	if tokens[0].TokenType != token.STRING {
		t.Fatalf("expected STRING, got %v", tokens[0].TokenType)
	}
	want := "line\nbreak\ttab\\slash\"quote\\~tilde"
	if tokens[0].Literal != want {
		t.Errorf("got %q, want %q", tokens[0].Literal, want)
	}
}

func TestScanUnclosedStringLiteralErrors(t *testing.T) {
	lexer := New(`"unterminated`)
	if _, err := lexer.Scan(); err == nil {
		t.Fatalf("expected an error for an unclosed string literal")
	}
}

func TestScanUnknownEscapeErrors(t *testing.T) {
	lexer := New(`"bad \q escape"`)
	if _, err := lexer.Scan(); err == nil {
		t.Fatalf("expected an error for an unknown escape sequence")
	}
}

func TestScanIntegerAndFloat(t *testing.T) {
	lexer := New("42 3.14")
	tokens, err := lexer.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if tokens[0].TokenType != token.INT || tokens[0].Literal != int64(42) {
		t.Errorf("expected INT 42, got %v", tokens[0])
	}
	if tokens[1].TokenType != token.FLOAT || tokens[1].Literal != float64(3.14) {
		t.Errorf("expected FLOAT 3.14, got %v", tokens[1])
	}
}
