package object

import (
	"fmt"
	"lox/internal/ast"
	"lox/internal/token"
	"math"
	"strconv"
)

const (
	NIL_OBJ      = "NIL"
	BOOLEAN_OBJ  = "BOOLEAN"
	NUMBER_OBJ   = "NUMBER"
	STRING_OBJ   = "STRING"
	FUNCTION_OBJ = "FUNCTION"
	NATIVE_OBJ   = "NATIVE"
)

var (
	NIL   = &Nil{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

// EvaluatorContext is the part of the interpreter a callable needs in order to
// run: the current scope and a way to execute a body in a fresh one.
type EvaluatorContext interface {
	CurrentEnv() *Environment
	ExecuteBlock(statements []ast.Statement, env *Environment) (Outcome, error)
}

// NativeFunction is the host implementation behind a Native. The argument
// count has already been checked against the declared arity.
type NativeFunction func(ctx EvaluatorContext, args ...Object) (Object, error)

type ObjectType string

type Object interface {
	Type() ObjectType
	Inspect() string
}

// Callable is implemented by every value that can appear before `(`.
type Callable interface {
	Object
	Arity() int
	Call(ctx EvaluatorContext, args []Object) (Object, error)
}

type Nil struct{}

func (n *Nil) Type() ObjectType { return NIL_OBJ }
func (n *Nil) Inspect() string  { return "nil" }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

type Number struct {
	Value float64
}

func (n *Number) Type() ObjectType { return NUMBER_OBJ }

// Inspect prints integral values without a fractional part, so 3.0 prints as
// 3. Negative zero prints as 0; non-finite values print as Infinity,
// -Infinity and NaN.
func (n *Number) Inspect() string {
	switch {
	case n.Value == 0:
		return "0"
	case math.IsNaN(n.Value):
		return "NaN"
	case math.IsInf(n.Value, 1):
		return "Infinity"
	case math.IsInf(n.Value, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// Function is a user-declared function closed over the environment that was
// current when its declaration executed.
type Function struct {
	Declaration *ast.FunctionStatement
	Closure     *Environment
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string  { return "<fn " + f.Declaration.Name.Lexeme + ">" }
func (f *Function) Arity() int       { return len(f.Declaration.Params) }

// Call binds the arguments in a new scope parented at the closure, not at the
// caller, and runs the body there. A return outcome becomes the call's value.
func (f *Function) Call(ctx EvaluatorContext, args []Object) (Object, error) {
	env := NewEnclosedEnvironment(f.Closure)
	for i, param := range f.Declaration.Params {
		env.Define(param.Lexeme, args[i])
	}

	outcome, err := ctx.ExecuteBlock(f.Declaration.Body, env)
	if err != nil {
		return nil, err
	}
	if outcome.Returned && outcome.Value != nil {
		return outcome.Value, nil
	}
	return NIL, nil
}

type Native struct {
	Name       string
	ParamCount int
	Fn         NativeFunction
}

func (n *Native) Type() ObjectType { return NATIVE_OBJ }
func (n *Native) Inspect() string  { return "<native " + n.Name + " fn>" }
func (n *Native) Arity() int       { return n.ParamCount }
func (n *Native) Call(ctx EvaluatorContext, args []Object) (Object, error) {
	return n.Fn(ctx, args...)
}

// Outcome is how a statement finished: normally, or by executing `return`.
// It travels up the statement executor until a function call consumes it.
type Outcome struct {
	Returned bool
	Value    Object
}

var Normal = Outcome{}

func Returned(value Object) Outcome {
	return Outcome{Returned: true, Value: value}
}

// RuntimeError halts the current unit of source. Token locates the operator,
// name or closing paren that caused it.
type RuntimeError struct {
	Token   token.Token
	Message string
}

func NewRuntimeError(tok token.Token, format string, a ...interface{}) *RuntimeError {
	return &RuntimeError{Token: tok, Message: fmt.Sprintf(format, a...)}
}

func (re *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", re.Message, re.Token.Line)
}

// UndefinedVariableError is returned by Environment lookups that exhaust the
// chain. The evaluator turns it into a RuntimeError at the offending token.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("Undefined variable '%s'.", e.Name)
}
