package parser

import (
	"encoding/json"
	"fmt"
	"lox/internal/ast"
	"os"
)

// WalkAST recursively traverses an AST and serializes it into a map structure for JSON output.
// Keys carry a numeric prefix so encoding/json's sorted output keeps a readable field order.
func WalkAST(node ast.Node) interface{} {
	switch n := node.(type) {
	case nil:
		return nil

	case *ast.Program:
		return map[string]interface{}{
			"0.type":       "Program",
			"1.statements": walkStatements(n.Statements),
		}

	case *ast.ExpressionStatement:
		return map[string]interface{}{
			"0.type":       "ExpressionStatement",
			"1.line":       n.Token.Line,
			"2.expression": WalkAST(n.Expression),
		}

	case *ast.PrintStatement:
		return map[string]interface{}{
			"0.type":       "PrintStatement",
			"1.line":       n.Token.Line,
			"2.expression": WalkAST(n.Expression),
		}

	case *ast.VarStatement:
		var initializer interface{}
		if n.Initializer != nil {
			initializer = WalkAST(n.Initializer)
		}
		return map[string]interface{}{
			"0.type":        "VarStatement",
			"1.line":        n.Name.Line,
			"2.name":        n.Name.Lexeme,
			"3.initializer": initializer,
		}

	case *ast.BlockStatement:
		return map[string]interface{}{
			"0.type":       "BlockStatement",
			"1.line":       n.Token.Line,
			"2.statements": walkStatements(n.Statements),
		}

	case *ast.IfStatement:
		var elseBranch interface{}
		if n.Else != nil {
			elseBranch = WalkAST(n.Else)
		}
		return map[string]interface{}{
			"0.type":      "IfStatement",
			"1.line":      n.Token.Line,
			"2.condition": WalkAST(n.Condition),
			"3.then":      WalkAST(n.Then),
			"4.else":      elseBranch,
		}

	case *ast.WhileStatement:
		return map[string]interface{}{
			"0.type":      "WhileStatement",
			"1.line":      n.Token.Line,
			"2.condition": WalkAST(n.Condition),
			"3.body":      WalkAST(n.Body),
		}

	case *ast.FunctionStatement:
		params := make([]string, len(n.Params))
		for i, param := range n.Params {
			params[i] = param.Lexeme
		}
		return map[string]interface{}{
			"0.type":       "FunctionStatement",
			"1.line":       n.Name.Line,
			"2.name":       n.Name.Lexeme,
			"3.parameters": params,
			"4.body":       walkStatements(n.Body),
		}

	case *ast.ReturnStatement:
		var value interface{}
		if n.Value != nil {
			value = WalkAST(n.Value)
		}
		return map[string]interface{}{
			"0.type":  "ReturnStatement",
			"1.line":  n.Keyword.Line,
			"2.value": value,
		}

	case *ast.Literal:
		return map[string]interface{}{
			"0.type":  "Literal",
			"1.line":  n.Token.Line,
			"2.value": n.Value,
		}

	case *ast.Grouping:
		return map[string]interface{}{
			"0.type":       "Grouping",
			"1.line":       n.Token.Line,
			"2.expression": WalkAST(n.Expression),
		}

	case *ast.Unary:
		return map[string]interface{}{
			"0.type":     "Unary",
			"1.line":     n.Operator.Line,
			"2.operator": n.Operator.Lexeme,
			"3.right":    WalkAST(n.Right),
		}

	case *ast.Binary:
		return map[string]interface{}{
			"0.type":     "Binary",
			"1.line":     n.Operator.Line,
			"2.left":     WalkAST(n.Left),
			"3.operator": n.Operator.Lexeme,
			"4.right":    WalkAST(n.Right),
		}

	case *ast.Logical:
		return map[string]interface{}{
			"0.type":     "Logical",
			"1.line":     n.Operator.Line,
			"2.left":     WalkAST(n.Left),
			"3.operator": n.Operator.Lexeme,
			"4.right":    WalkAST(n.Right),
		}

	case *ast.Variable:
		return map[string]interface{}{
			"0.type": "Variable",
			"1.line": n.Name.Line,
			"2.name": n.Name.Lexeme,
		}

	case *ast.Assign:
		return map[string]interface{}{
			"0.type":  "Assign",
			"1.line":  n.Name.Line,
			"2.name":  n.Name.Lexeme,
			"3.value": WalkAST(n.Value),
		}

	case *ast.Call:
		args := make([]interface{}, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = WalkAST(a)
		}
		return map[string]interface{}{
			"0.type":      "Call",
			"1.line":      n.Paren.Line,
			"2.callee":    WalkAST(n.Callee),
			"3.arguments": args,
		}

	default:
		return map[string]interface{}{
			"0.type": "Unknown: " + n.String(),
		}
	}
}

func walkStatements(statements []ast.Statement) []interface{} {
	out := make([]interface{}, len(statements))
	for i, s := range statements {
		out[i] = WalkAST(s)
	}
	return out
}

// WriteASTToJSON takes a root AST node and writes it to a JSON file.
func WriteASTToJSON(node ast.Node, filename string) error {
	astMap := WalkAST(node)

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %v", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")  // Pretty-print the JSON
	encoder.SetEscapeHTML(false) // Disable escaping of characters like <, >, &

	if err := encoder.Encode(astMap); err != nil {
		return fmt.Errorf("failed to write JSON: %v", err)
	}
	return nil
}
