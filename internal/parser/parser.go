package parser

import (
	"fmt"
	"log/slog"
	"lox/internal/ast"
	"lox/internal/token"
)

// maxArguments caps both parameter lists and call argument lists.
const maxArguments = 255

// ErrorReporter receives syntax errors anchored at the offending token.
type ErrorReporter interface {
	ErrorAt(tok token.Token, message string)
}

// parseError unwinds the current declaration; the parser then synchronizes.
type parseError struct {
	tok     token.Token
	message string
}

func (e *parseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.tok.Line, e.message)
}

type Parser struct {
	tokens   []token.Token
	current  int
	reporter ErrorReporter
}

func New(tokens []token.Token, reporter ErrorReporter) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		line := 1
		if len(tokens) > 0 {
			line = tokens[len(tokens)-1].Line
		}
		tokens = append(tokens, token.Token{Type: token.EOF, Line: line})
	}
	return &Parser{
		tokens:   tokens,
		reporter: reporter,
	}
}

func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	program.Statements = []ast.Statement{}

	for !p.isAtEnd() {
		stmt := p.declaration()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
	}

	slog.Debug("parsed program", slog.Int("statements", len(program.Statements)))
	return program
}

// Parse returns the top-level statements. Statements that failed to parse are
// left out; ask the reporter whether any were found before evaluating.
func (p *Parser) Parse() []ast.Statement {
	return p.ParseProgram().Statements
}

func (p *Parser) declaration() ast.Statement {
	var (
		stmt ast.Statement
		err  error
	)

	switch {
	case p.match(token.FUN):
		var fn *ast.FunctionStatement
		if fn, err = p.function("function"); err == nil {
			stmt = fn
		}
	case p.match(token.VAR):
		stmt, err = p.varDeclaration()
	default:
		stmt, err = p.statement()
	}

	if err != nil {
		p.synchronize()
		return nil
	}
	return stmt
}

func (p *Parser) function(kind string) (*ast.FunctionStatement, error) {
	name, err := p.consume(token.IDENTIFIER, "Expect "+kind+" name.")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LEFT_PAREN, "Expect '(' after "+kind+" name."); err != nil {
		return nil, err
	}

	params := []token.Token{}
	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(params) >= maxArguments {
				p.report(p.peek(), fmt.Sprintf("Can't have more than %d parameters.", maxArguments))
			}
			param, err := p.consume(token.IDENTIFIER, "Expect parameter name.")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.consume(token.RIGHT_PAREN, "Expect ')' after parameters."); err != nil {
		return nil, err
	}

	if _, err := p.consume(token.LEFT_BRACE, "Expect '{' before "+kind+" body."); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}

	return &ast.FunctionStatement{Name: name, Params: params, Body: body}, nil
}

func (p *Parser) varDeclaration() (ast.Statement, error) {
	name, err := p.consume(token.IDENTIFIER, "Expect variable name.")
	if err != nil {
		return nil, err
	}

	var initializer ast.Expression
	if p.match(token.EQUAL) {
		if initializer, err = p.expression(); err != nil {
			return nil, err
		}
	}

	if _, err := p.consume(token.SEMICOLON, "Expect ';' after variable declaration."); err != nil {
		return nil, err
	}
	return &ast.VarStatement{Name: name, Initializer: initializer}, nil
}

func (p *Parser) statement() (ast.Statement, error) {
	switch {
	case p.match(token.FOR):
		return p.forStatement()
	case p.match(token.IF):
		return p.ifStatement()
	case p.match(token.PRINT):
		return p.printStatement()
	case p.match(token.RETURN):
		return p.returnStatement()
	case p.match(token.WHILE):
		return p.whileStatement()
	case p.match(token.LEFT_BRACE):
		brace := p.previous()
		statements, err := p.block()
		if err != nil {
			return nil, err
		}
		return &ast.BlockStatement{Token: brace, Statements: statements}, nil
	default:
		return p.expressionStatement()
	}
}

// forStatement desugars `for (init; cond; incr) body` into
// `{ init; while (cond) { body; incr; } }` with cond defaulting to true.
func (p *Parser) forStatement() (ast.Statement, error) {
	keyword := p.previous()
	if _, err := p.consume(token.LEFT_PAREN, "Expect '(' after 'for'."); err != nil {
		return nil, err
	}

	var (
		initializer ast.Statement
		err         error
	)
	switch {
	case p.match(token.SEMICOLON):
	case p.match(token.VAR):
		initializer, err = p.varDeclaration()
	default:
		initializer, err = p.expressionStatement()
	}
	if err != nil {
		return nil, err
	}

	var condition ast.Expression
	if !p.check(token.SEMICOLON) {
		if condition, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.SEMICOLON, "Expect ';' after loop condition."); err != nil {
		return nil, err
	}

	var increment ast.Expression
	if !p.check(token.RIGHT_PAREN) {
		if increment, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses."); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	if increment != nil {
		body = &ast.BlockStatement{
			Token: keyword,
			Statements: []ast.Statement{
				body,
				&ast.ExpressionStatement{Token: keyword, Expression: increment},
			},
		}
	}

	if condition == nil {
		condition = &ast.Literal{Token: keyword, Value: true}
	}
	body = &ast.WhileStatement{Token: keyword, Condition: condition, Body: body}

	if initializer != nil {
		body = &ast.BlockStatement{Token: keyword, Statements: []ast.Statement{initializer, body}}
	}

	return body, nil
}

func (p *Parser) ifStatement() (ast.Statement, error) {
	keyword := p.previous()
	if _, err := p.consume(token.LEFT_PAREN, "Expect '(' after 'if'."); err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RIGHT_PAREN, "Expect ')' after if condition."); err != nil {
		return nil, err
	}

	thenBranch, err := p.statement()
	if err != nil {
		return nil, err
	}

	// the else binds to the nearest if
	var elseBranch ast.Statement
	if p.match(token.ELSE) {
		if elseBranch, err = p.statement(); err != nil {
			return nil, err
		}
	}

	return &ast.IfStatement{Token: keyword, Condition: condition, Then: thenBranch, Else: elseBranch}, nil
}

func (p *Parser) printStatement() (ast.Statement, error) {
	keyword := p.previous()
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "Expect ';' after value."); err != nil {
		return nil, err
	}
	return &ast.PrintStatement{Token: keyword, Expression: value}, nil
}

func (p *Parser) returnStatement() (ast.Statement, error) {
	keyword := p.previous()

	var (
		value ast.Expression
		err   error
	)
	if !p.check(token.SEMICOLON) {
		if value, err = p.expression(); err != nil {
			return nil, err
		}
	}

	if _, err := p.consume(token.SEMICOLON, "Expect ';' after return value."); err != nil {
		return nil, err
	}
	return &ast.ReturnStatement{Keyword: keyword, Value: value}, nil
}

func (p *Parser) whileStatement() (ast.Statement, error) {
	keyword := p.previous()
	if _, err := p.consume(token.LEFT_PAREN, "Expect '(' after 'while'."); err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RIGHT_PAREN, "Expect ')' after condition."); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStatement{Token: keyword, Condition: condition, Body: body}, nil
}

// block parses declarations up to and including the closing brace; the opening
// brace has already been consumed.
func (p *Parser) block() ([]ast.Statement, error) {
	statements := []ast.Statement{}

	for !p.check(token.RIGHT_BRACE) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			statements = append(statements, stmt)
		}
	}

	if _, err := p.consume(token.RIGHT_BRACE, "Expect '}' after block."); err != nil {
		return nil, err
	}
	return statements, nil
}

func (p *Parser) expressionStatement() (ast.Statement, error) {
	first := p.peek()
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "Expect ';' after expression."); err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Token: first, Expression: expr}, nil
}

// synchronize discards tokens until just after a ';' or just before a token
// that starts a declaration or statement.
func (p *Parser) synchronize() {
	p.advance()

	for !p.isAtEnd() {
		if p.previous().Type == token.SEMICOLON {
			return
		}

		switch p.peek().Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF,
			token.WHILE, token.PRINT, token.RETURN:
			return
		}

		p.advance()
	}
}

func (p *Parser) match(types ...token.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(t token.TokenType, message string) (token.Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return token.Token{}, p.error(p.peek(), message)
}

func (p *Parser) check(t token.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.current-1]
}

// error reports and returns a parseError for the caller to unwind with.
func (p *Parser) error(tok token.Token, message string) error {
	p.report(tok, message)
	return &parseError{tok: tok, message: message}
}

// report records a syntax error without unwinding.
func (p *Parser) report(tok token.Token, message string) {
	if p.reporter != nil {
		p.reporter.ErrorAt(tok, message)
	}
}
