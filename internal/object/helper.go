package object

import (
	"strconv"
	"strings"
)

// IsTruthy reports whether a value counts as true in a condition. Only nil and
// false are falsy.
func IsTruthy(obj Object) bool {
	switch o := obj.(type) {
	case nil, *Nil:
		return false
	case *Boolean:
		return o.Value
	default:
		return true
	}
}

// Equal compares by value for nil, booleans, numbers and strings, and by
// identity for callables. It never fails. NaN is not equal to itself.
func Equal(a, b Object) bool {
	a, b = orNil(a), orNil(b)

	switch x := a.(type) {
	case *Nil:
		_, ok := b.(*Nil)
		return ok
	case *Boolean:
		y, ok := b.(*Boolean)
		return ok && x.Value == y.Value
	case *Number:
		y, ok := b.(*Number)
		return ok && x.Value == y.Value
	case *String:
		y, ok := b.(*String)
		return ok && x.Value == y.Value
	default:
		return a == b
	}
}

// Stringify renders a value the way `print` shows it.
func Stringify(obj Object) string {
	return orNil(obj).Inspect()
}

// KindOf names the kind of a value for error messages.
func KindOf(obj Object) string {
	switch orNil(obj).(type) {
	case *Nil:
		return "nil"
	case *Boolean:
		return "boolean"
	case *Number:
		return "number"
	case *String:
		return "string"
	case *Function, *Native:
		return "function"
	default:
		return strings.ToLower(string(obj.Type()))
	}
}

// Describe renders a value with its kind for error messages, e.g.
// `string "abc"` or `boolean true`. Nil and callables render as themselves:
// `nil`, `<fn f>`, `<native clock fn>`.
func Describe(obj Object) string {
	obj = orNil(obj)
	switch o := obj.(type) {
	case *Nil, *Function, *Native:
		return obj.Inspect()
	case *String:
		return "string " + strconv.Quote(o.Value)
	default:
		return KindOf(obj) + " " + obj.Inspect()
	}
}

func orNil(obj Object) Object {
	if obj == nil {
		return NIL
	}
	return obj
}
