package lexer

import (
	"lox/internal/token"
)

// NextToken returns the next significant token, skipping whitespace, comments
// and anything that was reported as a lexical error.
func (l *Lexer) NextToken() token.Token {
	for {
		l.skipWhitespace()
		l.start = l.position

		if l.atEnd() {
			return token.Token{Type: token.EOF, Lexeme: "", Line: l.line}
		}

		if tok, ok := l.scanToken(); ok {
			return tok
		}
	}
}

func (l *Lexer) scanToken() (token.Token, bool) {
	switch l.ch {
	case '(':
		return l.single(token.LEFT_PAREN), true
	case ')':
		return l.single(token.RIGHT_PAREN), true
	case '{':
		return l.single(token.LEFT_BRACE), true
	case '}':
		return l.single(token.RIGHT_BRACE), true
	case ',':
		return l.single(token.COMMA), true
	case '.':
		return l.single(token.DOT), true
	case '-':
		return l.single(token.MINUS), true
	case '+':
		return l.single(token.PLUS), true
	case ';':
		return l.single(token.SEMICOLON), true
	case '*':
		return l.single(token.STAR), true
	case '/':
		// comments were consumed by skipWhitespace
		return l.single(token.SLASH), true
	case '!':
		return l.handleCompoundToken(token.BANG, '=', token.BANG_EQUAL), true
	case '=':
		return l.handleCompoundToken(token.EQUAL, '=', token.EQUAL_EQUAL), true
	case '<':
		return l.handleCompoundToken(token.LESS, '=', token.LESS_EQUAL), true
	case '>':
		return l.handleCompoundToken(token.GREATER, '=', token.GREATER_EQUAL), true
	case '"':
		return l.readString()
	default:
		if isLetter(l.ch) {
			return l.readIdentifier(), true
		}
		if isDigit(l.ch) {
			return l.readNumber(), true
		}
		l.report("Unexpected character.")
		l.readChar()
		return token.Token{}, false
	}
}

func (l *Lexer) readIdentifier() token.Token {
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.emit(token.LookupIdent(l.input[l.start:l.position]), nil)
}
