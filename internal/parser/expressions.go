package parser

import (
	"fmt"
	"lox/internal/ast"
	"lox/internal/token"
)

// Precedence climbs from assignment (lowest) down to primary (highest); each
// level is one method.

func (p *Parser) expression() (ast.Expression, error) {
	return p.assignment()
}

func (p *Parser) assignment() (ast.Expression, error) {
	expr, err := p.or()
	if err != nil {
		return nil, err
	}

	if p.match(token.EQUAL) {
		equals := p.previous()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}

		if v, ok := expr.(*ast.Variable); ok {
			return &ast.Assign{Name: v.Name, Value: value}, nil
		}

		// not fatal: the parser is still in a sane state
		p.report(equals, "Invalid assignment target.")
		return &ast.BadExpression{Token: equals}, nil
	}

	return expr, nil
}

func (p *Parser) or() (ast.Expression, error) {
	expr, err := p.and()
	if err != nil {
		return nil, err
	}

	for p.match(token.OR) {
		operator := p.previous()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		expr = &ast.Logical{Left: expr, Operator: operator, Right: right}
	}

	return expr, nil
}

func (p *Parser) and() (ast.Expression, error) {
	expr, err := p.equality()
	if err != nil {
		return nil, err
	}

	for p.match(token.AND) {
		operator := p.previous()
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		expr = &ast.Logical{Left: expr, Operator: operator, Right: right}
	}

	return expr, nil
}

func (p *Parser) equality() (ast.Expression, error) {
	return p.binary(p.comparison, token.BANG_EQUAL, token.EQUAL_EQUAL)
}

func (p *Parser) comparison() (ast.Expression, error) {
	return p.binary(p.term, token.GREATER, token.GREATER_EQUAL, token.LESS, token.LESS_EQUAL)
}

func (p *Parser) term() (ast.Expression, error) {
	return p.binary(p.factor, token.MINUS, token.PLUS)
}

func (p *Parser) factor() (ast.Expression, error) {
	return p.binary(p.unary, token.SLASH, token.STAR)
}

// binary parses a left-associative chain of operands joined by any of operators.
func (p *Parser) binary(
	operand func() (ast.Expression, error),
	operators ...token.TokenType,
) (ast.Expression, error) {
	expr, err := operand()
	if err != nil {
		return nil, err
	}

	for p.match(operators...) {
		operator := p.previous()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Operator: operator, Right: right}
	}

	return expr, nil
}

func (p *Parser) unary() (ast.Expression, error) {
	if p.match(token.BANG, token.MINUS) {
		operator := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Operator: operator, Right: right}, nil
	}

	return p.call()
}

func (p *Parser) call() (ast.Expression, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	for p.match(token.LEFT_PAREN) {
		if expr, err = p.finishCall(expr); err != nil {
			return nil, err
		}
	}

	return expr, nil
}

func (p *Parser) finishCall(callee ast.Expression) (ast.Expression, error) {
	args := []ast.Expression{}

	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(args) >= maxArguments {
				p.report(p.peek(), fmt.Sprintf("Can't have more than %d arguments.", maxArguments))
			}
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	paren, err := p.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	if err != nil {
		return nil, err
	}

	return &ast.Call{Callee: callee, Paren: paren, Arguments: args}, nil
}

func (p *Parser) primary() (ast.Expression, error) {
	switch {
	case p.match(token.FALSE):
		return &ast.Literal{Token: p.previous(), Value: false}, nil
	case p.match(token.TRUE):
		return &ast.Literal{Token: p.previous(), Value: true}, nil
	case p.match(token.NIL):
		return &ast.Literal{Token: p.previous(), Value: nil}, nil
	case p.match(token.NUMBER, token.STRING):
		tok := p.previous()
		return &ast.Literal{Token: tok, Value: tok.Literal}, nil
	case p.match(token.IDENTIFIER):
		return &ast.Variable{Name: p.previous()}, nil
	case p.match(token.LEFT_PAREN):
		paren := p.previous()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RIGHT_PAREN, "Expect ')' after expression."); err != nil {
			return nil, err
		}
		return &ast.Grouping{Token: paren, Expression: expr}, nil
	}

	return nil, p.error(p.peek(), "Expect expression.")
}
