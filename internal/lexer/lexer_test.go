package lexer

import (
	"lox/internal/token"
	"strings"
	"testing"
)

type lexError struct {
	line    int
	message string
}

type recorder struct {
	errors []lexError
}

func (r *recorder) Error(line int, message string) {
	r.errors = append(r.errors, lexError{line, message})
}

func TestNextToken(t *testing.T) {
	input := `var five = 5;
var ten = 10.25;

fun add(x, y) {
  return x + y;
}

var result = add(five, ten);
!-/*5;
5 < 10 > 5;
5 <= 10 >= 5;
if (5 != 10) { print true; } else { print false; }
// comment
10 == 10; // trailing comment
"foobar"
"foo bar"
nil and or while for class this super.`

	tests := []struct {
		expectedType   token.TokenType
		expectedLexeme string
	}{
		{token.VAR, "var"},
		{token.IDENTIFIER, "five"},
		{token.EQUAL, "="},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.VAR, "var"},
		{token.IDENTIFIER, "ten"},
		{token.EQUAL, "="},
		{token.NUMBER, "10.25"},
		{token.SEMICOLON, ";"},
		{token.FUN, "fun"},
		{token.IDENTIFIER, "add"},
		{token.LEFT_PAREN, "("},
		{token.IDENTIFIER, "x"},
		{token.COMMA, ","},
		{token.IDENTIFIER, "y"},
		{token.RIGHT_PAREN, ")"},
		{token.LEFT_BRACE, "{"},
		{token.RETURN, "return"},
		{token.IDENTIFIER, "x"},
		{token.PLUS, "+"},
		{token.IDENTIFIER, "y"},
		{token.SEMICOLON, ";"},
		{token.RIGHT_BRACE, "}"},
		{token.VAR, "var"},
		{token.IDENTIFIER, "result"},
		{token.EQUAL, "="},
		{token.IDENTIFIER, "add"},
		{token.LEFT_PAREN, "("},
		{token.IDENTIFIER, "five"},
		{token.COMMA, ","},
		{token.IDENTIFIER, "ten"},
		{token.RIGHT_PAREN, ")"},
		{token.SEMICOLON, ";"},
		{token.BANG, "!"},
		{token.MINUS, "-"},
		{token.SLASH, "/"},
		{token.STAR, "*"},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.NUMBER, "5"},
		{token.LESS, "<"},
		{token.NUMBER, "10"},
		{token.GREATER, ">"},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.NUMBER, "5"},
		{token.LESS_EQUAL, "<="},
		{token.NUMBER, "10"},
		{token.GREATER_EQUAL, ">="},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.IF, "if"},
		{token.LEFT_PAREN, "("},
		{token.NUMBER, "5"},
		{token.BANG_EQUAL, "!="},
		{token.NUMBER, "10"},
		{token.RIGHT_PAREN, ")"},
		{token.LEFT_BRACE, "{"},
		{token.PRINT, "print"},
		{token.TRUE, "true"},
		{token.SEMICOLON, ";"},
		{token.RIGHT_BRACE, "}"},
		{token.ELSE, "else"},
		{token.LEFT_BRACE, "{"},
		{token.PRINT, "print"},
		{token.FALSE, "false"},
		{token.SEMICOLON, ";"},
		{token.RIGHT_BRACE, "}"},
		{token.NUMBER, "10"},
		{token.EQUAL_EQUAL, "=="},
		{token.NUMBER, "10"},
		{token.SEMICOLON, ";"},
		{token.STRING, `"foobar"`},
		{token.STRING, `"foo bar"`},
		{token.NIL, "nil"},
		{token.AND, "and"},
		{token.OR, "or"},
		{token.WHILE, "while"},
		{token.FOR, "for"},
		{token.CLASS, "class"},
		{token.THIS, "this"},
		{token.SUPER, "super"},
		{token.DOT, "."},
		{token.EOF, ""},
	}

	rec := &recorder{}
	l := New(input, rec)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q '%q', got=%q: '%q'",
				i, tt.expectedType, tt.expectedLexeme, tok.Type, tok.Lexeme)
		}

		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q",
				i, tt.expectedLexeme, tok.Lexeme)
		}
	}

	if len(rec.errors) != 0 {
		t.Fatalf("unexpected lexical errors: %v", rec.errors)
	}
}

func TestLiterals(t *testing.T) {
	tokens := New(`12.34 7 "hi there"`, nil).ScanTokens()

	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d: %v", len(tokens), tokens)
	}
	if v, ok := tokens[0].Literal.(float64); !ok || v != 12.34 {
		t.Errorf("expected 12.34, got %#v", tokens[0].Literal)
	}
	if v, ok := tokens[1].Literal.(float64); !ok || v != 7 {
		t.Errorf("expected 7, got %#v", tokens[1].Literal)
	}
	if v, ok := tokens[2].Literal.(string); !ok || v != "hi there" {
		t.Errorf("expected %q, got %#v", "hi there", tokens[2].Literal)
	}
	if tokens[3].Literal != nil {
		t.Errorf("EOF should carry no literal, got %#v", tokens[3].Literal)
	}
}

func TestTrailingDecimalPoint(t *testing.T) {
	tokens := New("12.", nil).ScanTokens()

	expected := []token.TokenType{token.NUMBER, token.DOT, token.EOF}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, typ := range expected {
		if tokens[i].Type != typ {
			t.Errorf("tokens[%d] expected %q, got %q", i, typ, tokens[i].Type)
		}
	}
	if tokens[0].Lexeme != "12" {
		t.Errorf("expected lexeme 12, got %q", tokens[0].Lexeme)
	}
}

func TestLineNumbers(t *testing.T) {
	input := "a\nb\n\n\"multi\nline\"\nc // comment\nd"
	tokens := New(input, nil).ScanTokens()

	expected := []int{1, 2, 5, 6, 7, 7}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, line := range expected {
		if tokens[i].Line != line {
			t.Errorf("tokens[%d] %q expected line %d, got %d", i, tokens[i].Lexeme, line, tokens[i].Line)
		}
	}
}

func TestLexicalErrorsContinueScanning(t *testing.T) {
	rec := &recorder{}
	tokens := New("var a = 1 @ 2;\n# x\n\"open", rec).ScanTokens()

	expectedErrors := []lexError{
		{1, "Unexpected character."},
		{2, "Unexpected character."},
		{3, "Unterminated string."},
	}
	if len(rec.errors) != len(expectedErrors) {
		t.Fatalf("expected %d errors, got %v", len(expectedErrors), rec.errors)
	}
	for i, e := range expectedErrors {
		if rec.errors[i] != e {
			t.Errorf("errors[%d] expected %v, got %v", i, e, rec.errors[i])
		}
	}

	var types []token.TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	expectedTypes := []token.TokenType{
		token.VAR, token.IDENTIFIER, token.EQUAL, token.NUMBER, token.NUMBER,
		token.SEMICOLON, token.IDENTIFIER, token.EOF,
	}
	if len(types) != len(expectedTypes) {
		t.Fatalf("expected types %v, got %v", expectedTypes, types)
	}
	for i := range expectedTypes {
		if types[i] != expectedTypes[i] {
			t.Errorf("types[%d] expected %q, got %q", i, expectedTypes[i], types[i])
		}
	}
}

func TestExactlyOneEOF(t *testing.T) {
	for _, input := range []string{"", "   ", "// only a comment", "print 1;"} {
		tokens := New(input, nil).ScanTokens()
		eofs := 0
		for _, tok := range tokens {
			if tok.Type == token.EOF {
				eofs++
			}
		}
		if eofs != 1 || tokens[len(tokens)-1].Type != token.EOF {
			t.Errorf("input %q: expected exactly one trailing EOF, got %v", input, tokens)
		}
	}
}

func TestLexemeRoundTrip(t *testing.T) {
	input := `fun fib(n) {
  // recursive
  if (n <= 1) return n;
  return fib(n - 2) + fib(n - 1);
}
print fib(10) == 55 and !false;
print "a" + "b";`

	var sb strings.Builder
	for _, tok := range New(input, nil).ScanTokens() {
		sb.WriteString(tok.Lexeme)
	}

	var significant strings.Builder
	for _, line := range strings.Split(input, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		significant.WriteString(strings.Join(strings.Fields(line), ""))
	}

	if sb.String() != significant.String() {
		t.Errorf("round trip mismatch:\n got: %s\nwant: %s", sb.String(), significant.String())
	}
}
