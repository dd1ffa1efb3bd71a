package object

import (
	"log/slog"
	"sync/atomic"
)

var nextID atomic.Uint64

// Environment is one lexical scope. Scopes form a chain through Outer ending at
// the global scope. Closures keep their defining scope reachable, so there is
// no explicit teardown.
type Environment struct {
	ID       uint64
	Bindings map[string]Object
	Outer    *Environment
}

func nextEnvID() uint64 {
	return nextID.Add(1)
}

func NewEnvironment() *Environment {
	return &Environment{
		ID:       nextEnvID(),
		Bindings: make(map[string]Object),
	}
}

// NewEnclosedEnvironment creates a child scope of outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.Outer = outer
	slog.Debug("new env",
		slog.Uint64("id", env.ID),
		slog.Uint64("outer", outer.ID))
	return env
}

// Define binds name in this scope, replacing any earlier binding of the same
// name here.
func (e *Environment) Define(name string, val Object) {
	if val == nil {
		val = NIL
	}
	e.Bindings[name] = val

	slog.Debug("binding value",
		slog.Uint64("env", e.ID),
		slog.String("name", name),
		slog.Any("type", val.Type()))
}

func (e *Environment) Get(name string) (Object, error) {
	for env := e; env != nil; env = env.Outer {
		if val, ok := env.Bindings[name]; ok {
			return val, nil
		}
	}
	return nil, &UndefinedVariableError{Name: name}
}

// Assign updates the nearest scope that already binds name. It never creates
// a binding.
func (e *Environment) Assign(name string, val Object) error {
	if val == nil {
		val = NIL
	}
	for env := e; env != nil; env = env.Outer {
		if _, ok := env.Bindings[name]; ok {
			env.Bindings[name] = val
			slog.Debug("assigning bound value",
				slog.Uint64("env", env.ID),
				slog.String("name", name),
				slog.Any("type", val.Type()))
			return nil
		}
	}
	return &UndefinedVariableError{Name: name}
}

// Depth counts the scopes between e and the global scope.
func (e *Environment) Depth() int {
	depth := 0
	for env := e.Outer; env != nil; env = env.Outer {
		depth++
	}
	return depth
}
