package parser

import (
	"lox/internal/ast"
	"strconv"
	"strings"
)

// RenderASTAsText renders a node in fully parenthesized prefix form, e.g.
// `-123 * (45.67)` becomes `(* (- 123) (group 45.67))`. It makes precedence
// and desugaring visible when debugging the parser.
func RenderASTAsText(node ast.Node) string {
	switch n := node.(type) {
	case nil:
		return "nil"

	case *ast.Program:
		lines := make([]string, len(n.Statements))
		for i, s := range n.Statements {
			lines[i] = RenderASTAsText(s)
		}
		return strings.Join(lines, "\n")

	case *ast.ExpressionStatement:
		return parenthesize(";", n.Expression)

	case *ast.PrintStatement:
		return parenthesize("print", n.Expression)

	case *ast.VarStatement:
		if n.Initializer == nil {
			return "(var " + n.Name.Lexeme + ")"
		}
		return "(var " + n.Name.Lexeme + " " + RenderASTAsText(n.Initializer) + ")"

	case *ast.BlockStatement:
		return renderStatements("block", n.Statements)

	case *ast.IfStatement:
		if n.Else == nil {
			return parenthesize("if", n.Condition, n.Then)
		}
		return parenthesize("if", n.Condition, n.Then, n.Else)

	case *ast.WhileStatement:
		return parenthesize("while", n.Condition, n.Body)

	case *ast.FunctionStatement:
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = p.Lexeme
		}
		head := "fun " + n.Name.Lexeme + " (" + strings.Join(params, " ") + ")"
		return renderStatements(head, n.Body)

	case *ast.ReturnStatement:
		if n.Value == nil {
			return "(return)"
		}
		return parenthesize("return", n.Value)

	case *ast.Literal:
		switch v := n.Value.(type) {
		case nil:
			return "nil"
		case bool:
			return strconv.FormatBool(v)
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case string:
			return v
		}
		return n.Token.Lexeme

	case *ast.Grouping:
		return parenthesize("group", n.Expression)

	case *ast.Unary:
		return parenthesize(n.Operator.Lexeme, n.Right)

	case *ast.Binary:
		return parenthesize(n.Operator.Lexeme, n.Left, n.Right)

	case *ast.Logical:
		return parenthesize(n.Operator.Lexeme, n.Left, n.Right)

	case *ast.Variable:
		return n.Name.Lexeme

	case *ast.Assign:
		return parenthesize("= "+n.Name.Lexeme, n.Value)

	case *ast.Call:
		nodes := make([]ast.Node, 0, len(n.Arguments)+1)
		nodes = append(nodes, n.Callee)
		for _, a := range n.Arguments {
			nodes = append(nodes, a)
		}
		return parenthesize("call", nodes...)

	default:
		return n.String()
	}
}

func parenthesize(name string, nodes ...ast.Node) string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(name)
	for _, node := range nodes {
		sb.WriteString(" ")
		sb.WriteString(RenderASTAsText(node))
	}
	sb.WriteString(")")
	return sb.String()
}

func renderStatements(name string, statements []ast.Statement) string {
	nodes := make([]ast.Node, len(statements))
	for i, s := range statements {
		nodes[i] = s
	}
	return parenthesize(name, nodes...)
}
