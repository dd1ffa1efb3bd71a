package evaluator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"lox/internal/ast"
	"lox/internal/object"
	"lox/internal/token"
	"os"

	"github.com/pkg/errors"
)

// DefaultMaxCallDepth bounds nested calls so runaway recursion surfaces as a
// runtime error instead of exhausting the Go stack.
const DefaultMaxCallDepth = 10000

type Option func(*Evaluator)

// WithOutput directs `print` to w. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Evaluator) { e.out = w }
}

// WithMaxCallDepth sets the call depth cap. Zero or less disables it.
func WithMaxCallDepth(depth int) Option {
	return func(e *Evaluator) { e.maxDepth = depth }
}

type Evaluator struct {
	ctx      context.Context
	globals  *object.Environment
	envStack []*object.Environment // scope stack; the bottom entry is always globals
	out      io.Writer
	depth    int
	maxDepth int
}

func New(opts ...Option) *Evaluator {
	globals := object.NewEnvironment()
	e := &Evaluator{
		ctx:      context.Background(),
		globals:  globals,
		envStack: []*object.Environment{globals},
		out:      os.Stdout,
		maxDepth: DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	for name, fn := range builtins {
		globals.Define(name, fn)
	}
	return e
}

// Globals is the scope shared by every unit this evaluator interprets.
func (e *Evaluator) Globals() *object.Environment {
	return e.globals
}

func (e *Evaluator) PushEnv(env *object.Environment) {
	e.envStack = append(e.envStack, env)
}

func (e *Evaluator) CurrentEnv() *object.Environment {
	if len(e.envStack) == 0 {
		panic("Environment stack is empty")
	}
	return e.envStack[len(e.envStack)-1]
}

func (e *Evaluator) PopEnv() {
	if len(e.envStack) <= 1 {
		panic("Attempted to pop the global environment")
	}
	e.envStack = e.envStack[:len(e.envStack)-1]
}

// Interpret executes statements in order and stops at the first error. A
// *object.RuntimeError is a failure of the Lox program; any other error is a
// defect in the interpreter or its output. A top-level return ends the unit.
//
// Cancelling ctx stops the program at the next loop iteration or call with
// the runtime error "Interrupted.".
func (e *Evaluator) Interpret(ctx context.Context, statements []ast.Statement) error {
	e.ctx = ctx
	defer func() { e.ctx = context.Background() }()

	for _, stmt := range statements {
		outcome, err := e.Exec(stmt)
		if err != nil {
			return err
		}
		if outcome.Returned {
			slog.Debug("top-level return ends the unit")
			return nil
		}
	}
	return nil
}

// ExecuteBlock runs statements with env as the current scope and restores the
// previous scope on every exit path.
func (e *Evaluator) ExecuteBlock(statements []ast.Statement, env *object.Environment) (object.Outcome, error) {
	slog.Debug("entering block", slog.Uint64("env", env.ID), slog.Int("depth", env.Depth()))
	e.PushEnv(env)
	defer e.PopEnv()

	for _, stmt := range statements {
		outcome, err := e.Exec(stmt)
		if err != nil || outcome.Returned {
			return outcome, err
		}
	}
	return object.Normal, nil
}

func (e *Evaluator) Exec(stmt ast.Statement) (object.Outcome, error) {
	switch node := stmt.(type) {

	case *ast.ExpressionStatement:
		_, err := e.Eval(node.Expression)
		return object.Normal, err

	case *ast.PrintStatement:
		val, err := e.Eval(node.Expression)
		if err != nil {
			return object.Normal, err
		}
		if _, err := fmt.Fprintln(e.out, object.Stringify(val)); err != nil {
			return object.Normal, errors.Wrap(err, "print")
		}
		return object.Normal, nil

	case *ast.VarStatement:
		var val object.Object = object.NIL
		if node.Initializer != nil {
			v, err := e.Eval(node.Initializer)
			if err != nil {
				return object.Normal, err
			}
			val = v
		}
		e.CurrentEnv().Define(node.Name.Lexeme, val)
		return object.Normal, nil

	case *ast.BlockStatement:
		return e.ExecuteBlock(node.Statements, object.NewEnclosedEnvironment(e.CurrentEnv()))

	case *ast.IfStatement:
		cond, err := e.Eval(node.Condition)
		if err != nil {
			return object.Normal, err
		}
		if object.IsTruthy(cond) {
			return e.Exec(node.Then)
		}
		if node.Else != nil {
			return e.Exec(node.Else)
		}
		return object.Normal, nil

	case *ast.WhileStatement:
		return e.evalWhileStatement(node)

	case *ast.FunctionStatement:
		fn := &object.Function{Declaration: node, Closure: e.CurrentEnv()}
		e.CurrentEnv().Define(node.Name.Lexeme, fn)
		return object.Normal, nil

	case *ast.ReturnStatement:
		var val object.Object = object.NIL
		if node.Value != nil {
			v, err := e.Eval(node.Value)
			if err != nil {
				return object.Normal, err
			}
			val = v
		}
		return object.Returned(val), nil
	}

	return object.Normal, errors.Errorf("unknown statement %T", stmt)
}

func (e *Evaluator) evalWhileStatement(node *ast.WhileStatement) (object.Outcome, error) {
	for {
		if err := e.checkInterrupt(node.Token); err != nil {
			return object.Normal, err
		}
		cond, err := e.Eval(node.Condition)
		if err != nil {
			return object.Normal, err
		}
		if !object.IsTruthy(cond) {
			return object.Normal, nil
		}

		outcome, err := e.Exec(node.Body)
		if err != nil || outcome.Returned {
			return outcome, err
		}
	}
}

func (e *Evaluator) Eval(expr ast.Expression) (object.Object, error) {
	switch node := expr.(type) {

	case *ast.Literal:
		return literalToObject(node)

	case *ast.Grouping:
		return e.Eval(node.Expression)

	case *ast.Unary:
		right, err := e.Eval(node.Right)
		if err != nil {
			return nil, err
		}
		return e.evalUnaryExpression(node.Operator, right)

	case *ast.Binary:
		left, err := e.Eval(node.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.Eval(node.Right)
		if err != nil {
			return nil, err
		}
		return e.evalBinaryExpression(node.Operator, left, right)

	case *ast.Logical:
		left, err := e.Eval(node.Left)
		if err != nil {
			return nil, err
		}
		if node.Operator.Type == token.OR {
			if object.IsTruthy(left) {
				return left, nil
			}
		} else if !object.IsTruthy(left) {
			return left, nil
		}
		return e.Eval(node.Right)

	case *ast.Variable:
		val, err := e.CurrentEnv().Get(node.Name.Lexeme)
		if err != nil {
			return nil, e.scopeError(node.Name, err)
		}
		return val, nil

	case *ast.Assign:
		val, err := e.Eval(node.Value)
		if err != nil {
			return nil, err
		}
		if err := e.CurrentEnv().Assign(node.Name.Lexeme, val); err != nil {
			return nil, e.scopeError(node.Name, err)
		}
		return val, nil

	case *ast.Call:
		return e.evalCall(node)

	case *ast.BadExpression:
		return nil, errors.Errorf("line %d: evaluated an invalid assignment target", node.Token.Line)
	}

	return nil, errors.Errorf("unknown expression %T", expr)
}

func (e *Evaluator) checkInterrupt(tok token.Token) error {
	if err := e.ctx.Err(); err != nil {
		slog.Debug("interrupted", slog.Int("line", tok.Line), slog.Any("cause", err))
		return object.NewRuntimeError(tok, "Interrupted.")
	}
	return nil
}

func literalToObject(node *ast.Literal) (object.Object, error) {
	switch v := node.Value.(type) {
	case nil:
		return object.NIL, nil
	case bool:
		return nativeBoolToBooleanObject(v), nil
	case float64:
		return &object.Number{Value: v}, nil
	case string:
		return &object.String{Value: v}, nil
	}
	return nil, errors.Errorf("line %d: unsupported literal %T", node.Token.Line, node.Value)
}

func nativeBoolToBooleanObject(input bool) *object.Boolean {
	if input {
		return object.TRUE
	}
	return object.FALSE
}

// scopeError attaches the failing name's token to an environment lookup error.
func (e *Evaluator) scopeError(name token.Token, err error) error {
	var undefined *object.UndefinedVariableError
	if errors.As(err, &undefined) {
		return object.NewRuntimeError(name, "%s", undefined.Error())
	}
	return errors.WithStack(err)
}

func (e *Evaluator) evalUnaryExpression(operator token.Token, right object.Object) (object.Object, error) {
	switch operator.Type {
	case token.BANG:
		return nativeBoolToBooleanObject(!object.IsTruthy(right)), nil
	case token.MINUS:
		n, ok := right.(*object.Number)
		if !ok {
			return nil, object.NewRuntimeError(operator,
				"Operand of '%s' must be a number, got %s.", operator.Lexeme, object.Describe(right))
		}
		return &object.Number{Value: -n.Value}, nil
	}
	return nil, errors.Errorf("unknown unary operator %s", operator.Lexeme)
}

func (e *Evaluator) evalBinaryExpression(operator token.Token, left, right object.Object) (object.Object, error) {
	switch operator.Type {
	case token.EQUAL_EQUAL:
		return nativeBoolToBooleanObject(object.Equal(left, right)), nil
	case token.BANG_EQUAL:
		return nativeBoolToBooleanObject(!object.Equal(left, right)), nil
	case token.PLUS:
		return e.evalPlusExpression(operator, left, right)
	}

	l, lok := left.(*object.Number)
	r, rok := right.(*object.Number)
	if !lok || !rok {
		return nil, object.NewRuntimeError(operator,
			"Operands of '%s' must be numbers, got %s and %s.",
			operator.Lexeme, object.KindOf(left), object.KindOf(right))
	}

	switch operator.Type {
	case token.MINUS:
		return &object.Number{Value: l.Value - r.Value}, nil
	case token.STAR:
		return &object.Number{Value: l.Value * r.Value}, nil
	case token.SLASH:
		// IEEE division: x/0 is an infinity, 0/0 is NaN
		return &object.Number{Value: l.Value / r.Value}, nil
	case token.GREATER:
		return nativeBoolToBooleanObject(l.Value > r.Value), nil
	case token.GREATER_EQUAL:
		return nativeBoolToBooleanObject(l.Value >= r.Value), nil
	case token.LESS:
		return nativeBoolToBooleanObject(l.Value < r.Value), nil
	case token.LESS_EQUAL:
		return nativeBoolToBooleanObject(l.Value <= r.Value), nil
	}
	return nil, errors.Errorf("unknown binary operator %s", operator.Lexeme)
}

func (e *Evaluator) evalPlusExpression(operator token.Token, left, right object.Object) (object.Object, error) {
	switch l := left.(type) {
	case *object.Number:
		if r, ok := right.(*object.Number); ok {
			return &object.Number{Value: l.Value + r.Value}, nil
		}
	case *object.String:
		if r, ok := right.(*object.String); ok {
			return &object.String{Value: l.Value + r.Value}, nil
		}
	}
	return nil, object.NewRuntimeError(operator, "Operands of '+' must be two numbers or two strings.")
}

func (e *Evaluator) evalCall(node *ast.Call) (object.Object, error) {
	callee, err := e.Eval(node.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]object.Object, 0, len(node.Arguments))
	for _, a := range node.Arguments {
		val, err := e.Eval(a)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}

	fn, ok := callee.(object.Callable)
	if !ok {
		return nil, object.NewRuntimeError(node.Paren, "Can only call functions and classes.")
	}
	if len(args) != fn.Arity() {
		return nil, object.NewRuntimeError(node.Paren,
			"Expected %d arguments but got %d.", fn.Arity(), len(args))
	}
	if err := e.checkInterrupt(node.Paren); err != nil {
		return nil, err
	}
	if e.maxDepth > 0 && e.depth >= e.maxDepth {
		return nil, object.NewRuntimeError(node.Paren, "Stack overflow.")
	}

	e.depth++
	defer func() { e.depth-- }()

	slog.Debug("calling function",
		slog.String("callee", fn.Inspect()),
		slog.Int("args", len(args)),
		slog.Int("depth", e.depth),
		slog.Int("line", node.Paren.Line))

	return fn.Call(e, args)
}
