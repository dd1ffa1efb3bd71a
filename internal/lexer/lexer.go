package lexer

import (
	"lox/internal/token"
	"unicode/utf8"
)

// ErrorReporter receives lexical errors. Scanning continues after a report so
// one pass can surface every bad character in the input.
type ErrorReporter interface {
	Error(line int, message string)
}

type Lexer struct {
	input        string
	position     int  // current byte position in input (points to start of current rune)
	readPosition int  // next byte position in input (start of next rune)
	ch           rune // current rune under examination; 0 means EOF
	start        int  // byte position where the token being scanned begins
	line         int

	reporter ErrorReporter
}

func New(input string, reporter ErrorReporter) *Lexer {
	l := &Lexer{input: input, line: 1, reporter: reporter}
	l.readChar()
	return l
}

// ScanTokens drains the lexer. The result always ends with exactly one EOF token.
func (l *Lexer) ScanTokens() []token.Token {
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func (l *Lexer) report(message string) {
	if l.reporter != nil {
		l.reporter.Error(l.line, message)
	}
}

// emit builds a token whose lexeme spans from the token start to the current position.
func (l *Lexer) emit(t token.TokenType, literal any) token.Token {
	return token.Token{
		Type:    t,
		Lexeme:  l.input[l.start:l.position],
		Literal: literal,
		Line:    l.line,
	}
}

func (l *Lexer) single(t token.TokenType) token.Token {
	l.readChar()
	return l.emit(t, nil)
}

// handleCompoundToken scans t, or t1 when the next rune is ch1.
func (l *Lexer) handleCompoundToken(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
) token.Token {
	if l.peekChar() == ch1 {
		l.readChar()
		l.readChar()
		return l.emit(t1, nil)
	}
	l.readChar()
	return l.emit(t, nil)
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() {
		switch l.ch {
		case ' ', '\t', '\r':
			l.readChar()
		case '\n':
			l.line++
			l.readChar()
		case '/':
			if l.peekChar() == '/' {
				l.skipToLineEnd()
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && !l.atEnd() {
		l.readChar()
	}
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

// readChar advances by one UTF-8 rune, updating byte positions
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input)
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

// peekChar returns the next rune without advancing; returns 0 at EOF
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
