package object

import (
	"errors"
	"lox/internal/ast"
	"lox/internal/token"
	"math"
	"testing"
)

func TestNumberInspect(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{3, "3"},
		{-3, "-3"},
		{2.5, "2.5"},
		{0.1 + 0.2, "0.30000000000000004"},
		{1e21, "1000000000000000000000"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{math.NaN(), "NaN"},
		{0, "0"},
		{math.Copysign(0, -1), "0"},
	}

	for _, tt := range tests {
		n := &Number{Value: tt.input}
		if n.Inspect() != tt.expected {
			t.Errorf("Number(%v).Inspect() expected=%q, got=%q", tt.input, tt.expected, n.Inspect())
		}
	}
}

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		input    Object
		expected bool
	}{
		{nil, false},
		{NIL, false},
		{FALSE, false},
		{TRUE, true},
		{&Number{Value: 0}, true},
		{&String{Value: ""}, true},
		{&Native{Name: "clock"}, true},
	}

	for _, tt := range tests {
		if IsTruthy(tt.input) != tt.expected {
			t.Errorf("IsTruthy(%v) expected %t", Stringify(tt.input), tt.expected)
		}
	}
}

func TestEqual(t *testing.T) {
	fn := &Native{Name: "clock"}
	other := &Native{Name: "clock"}

	tests := []struct {
		a, b     Object
		expected bool
	}{
		{NIL, NIL, true},
		{nil, NIL, true},
		{NIL, FALSE, false},
		{FALSE, NIL, false},
		{TRUE, &Boolean{Value: true}, true},
		{&Number{Value: 1}, &Number{Value: 1}, true},
		{&Number{Value: 1}, &String{Value: "1"}, false},
		{&String{Value: "a"}, &String{Value: "a"}, true},
		{&String{Value: "a"}, &String{Value: "b"}, false},
		{&Number{Value: math.NaN()}, &Number{Value: math.NaN()}, false},
		{fn, fn, true},
		{fn, other, false},
	}

	for _, tt := range tests {
		if Equal(tt.a, tt.b) != tt.expected {
			t.Errorf("Equal(%s, %s) expected %t", Describe(tt.a), Describe(tt.b), tt.expected)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		input    Object
		expected string
	}{
		{NIL, "nil"},
		{TRUE, "boolean true"},
		{&Number{Value: 1.5}, "number 1.5"},
		{&String{Value: "hi"}, `string "hi"`},
		{&Native{Name: "clock"}, "<native clock fn>"},
		{&Function{Declaration: &ast.FunctionStatement{Name: token.Token{Lexeme: "f"}}}, "<fn f>"},
	}

	for _, tt := range tests {
		if got := Describe(tt.input); got != tt.expected {
			t.Errorf("expected=%q, got=%q", tt.expected, got)
		}
	}
}

func TestFunctionInspect(t *testing.T) {
	fn := &Function{Declaration: &ast.FunctionStatement{
		Name:   token.Token{Type: token.IDENTIFIER, Lexeme: "add", Line: 1},
		Params: []token.Token{{Lexeme: "a"}, {Lexeme: "b"}},
	}}

	if fn.Inspect() != "<fn add>" {
		t.Errorf("expected <fn add>, got %q", fn.Inspect())
	}
	if fn.Arity() != 2 {
		t.Errorf("expected arity 2, got %d", fn.Arity())
	}
}

func TestEnvironmentDefineShadowsOuter(t *testing.T) {
	global := NewEnvironment()
	global.Define("a", &Number{Value: 1})

	inner := NewEnclosedEnvironment(global)
	inner.Define("a", &Number{Value: 2})

	got, err := inner.Get("a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Stringify(got) != "2" {
		t.Errorf("inner a expected 2, got %s", Stringify(got))
	}

	got, _ = global.Get("a")
	if Stringify(got) != "1" {
		t.Errorf("global a expected 1, got %s", Stringify(got))
	}
}

func TestEnvironmentRedeclaration(t *testing.T) {
	env := NewEnvironment()
	env.Define("a", &Number{Value: 1})
	env.Define("a", &String{Value: "again"})

	got, _ := env.Get("a")
	if Stringify(got) != "again" {
		t.Errorf("expected redeclared value, got %s", Stringify(got))
	}
}

func TestEnvironmentAssignUpdatesNearestBinding(t *testing.T) {
	global := NewEnvironment()
	global.Define("a", &Number{Value: 1})
	middle := NewEnclosedEnvironment(global)
	inner := NewEnclosedEnvironment(middle)

	if err := inner.Assign("a", &Number{Value: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := inner.Bindings["a"]; ok {
		t.Errorf("assign must not create a binding in the inner scope")
	}

	got, _ := global.Get("a")
	if Stringify(got) != "5" {
		t.Errorf("expected global a to be 5, got %s", Stringify(got))
	}
	if inner.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", inner.Depth())
	}
}

func TestEnvironmentUndefined(t *testing.T) {
	env := NewEnclosedEnvironment(NewEnvironment())

	_, err := env.Get("missing")
	var undefined *UndefinedVariableError
	if !errors.As(err, &undefined) || undefined.Name != "missing" {
		t.Fatalf("expected UndefinedVariableError for 'missing', got %v", err)
	}
	if err.Error() != "Undefined variable 'missing'." {
		t.Errorf("unexpected message %q", err.Error())
	}

	if err := env.Assign("missing", NIL); err == nil {
		t.Errorf("expected assign to an undefined name to fail")
	}
	if _, err := env.Get("missing"); err == nil {
		t.Errorf("failed assign must not create a binding")
	}
}

func TestRuntimeErrorFormat(t *testing.T) {
	err := NewRuntimeError(token.Token{Type: token.MINUS, Lexeme: "-", Line: 3},
		"Operand of '%s' must be a number, got %s.", "-", Describe(&String{Value: "x"}))

	expected := "Operand of '-' must be a number, got string \"x\".\n[line 3]"
	if err.Error() != expected {
		t.Errorf("expected=%q, got=%q", expected, err.Error())
	}
}
