package lexer

import (
	"lox/internal/token"
	"strconv"
)

// readString scans a double-quoted literal. Strings may span lines and have no
// escape sequences; the literal value excludes the quotes.
func (l *Lexer) readString() (token.Token, bool) {
	l.readChar() // consume the opening "

	for l.ch != '"' && !l.atEnd() {
		if l.ch == '\n' {
			l.line++
		}
		l.readChar()
	}

	if l.atEnd() {
		l.report("Unterminated string.")
		return token.Token{}, false
	}

	l.readChar() // consume the closing "

	value := l.input[l.start+1 : l.position-1]
	return l.emit(token.STRING, value), true
}

// readNumber accepts digits with an optional fractional part. A trailing '.'
// with no digits after it is left for the next token.
func (l *Lexer) readNumber() token.Token {
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	// only digits and one '.' reach here, so the sole possible error is a range
	// overflow, for which ParseFloat still returns ±Inf
	value, _ := strconv.ParseFloat(l.input[l.start:l.position], 64)
	return l.emit(token.NUMBER, value)
}
