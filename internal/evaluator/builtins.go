package evaluator

import (
	"lox/internal/object"
	"time"
)

var builtins = map[string]*object.Native{
	"clock": fnTimeClock(),
}

// fnTimeClock returns the wall clock in seconds since the Unix epoch, with
// sub-second precision.
func fnTimeClock() *object.Native {
	return &object.Native{
		Name:       "clock",
		ParamCount: 0,
		Fn: func(ctx object.EvaluatorContext, args ...object.Object) (object.Object, error) {
			return &object.Number{Value: float64(time.Now().UnixNano()) / float64(time.Second)}, nil
		},
	}
}
