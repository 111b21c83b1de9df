package functions

import (
	"fmt"

	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/types"
)

// param describes one positional argument of a function.
type param struct {
	name    string
	what    string
	accepts func(types.ValueType) bool
}

func kindIs(ks ...types.Kind) func(types.ValueType) bool {
	return func(t types.ValueType) bool {
		for _, k := range ks {
			if t.Kind() == k {
				return true
			}
		}
		return false
	}
}

func number(name string) param {
	return param{name: name, what: "INTEGER or FLOAT", accepts: types.IsNumeric}
}

func integer(name string) param {
	return param{name: name, what: "INTEGER", accepts: kindIs(types.KindInteger)}
}

func str(name string) param {
	return param{name: name, what: "STRING", accepts: kindIs(types.KindString)}
}

func boolean(name string) param {
	return param{name: name, what: "BOOLEAN", accepts: kindIs(types.KindBoolean)}
}

func withDate(name string) param {
	return param{name: name, what: "a date or date-time", accepts: types.HasDatePart}
}

func withTime(name string) param {
	return param{name: name, what: "a time or date-time", accepts: types.HasTimePart}
}

// checkArgs matches args against params. Optional types are accepted, the
// MISSING type is not. The result reports whether any argument is optional.
func checkArgs(args []types.ValueType, params ...param) (bool, error) {
	if len(args) != len(params) {
		return false, fmt.Errorf("expected %d arguments, got %d", len(params), len(args))
	}
	optional := false
	for i, p := range params {
		a := args[i]
		if a.IsMissing() || !p.accepts(a) {
			return false, fmt.Errorf("argument '%s' must be %s, got %s", p.name, p.what, a.Name())
		}
		optional = optional || a.IsOptional()
	}
	return optional, nil
}

// fixed returns a return type check for a function with a fixed signature.
// The result is optional if any argument is.
func fixed(result types.ValueType, params ...param) func([]types.ValueType) (types.ValueType, error) {
	return func(args []types.ValueType) (types.ValueType, error) {
		opt, err := checkArgs(args, params...)
		if err != nil {
			return types.ValueType{}, err
		}
		return result.WithOptional(opt), nil
	}
}

// partialType is like fixed for functions that may produce MISSING for
// present arguments.
func partialType(result types.ValueType, params ...param) func([]types.ValueType) (types.ValueType, error) {
	return func(args []types.ValueType) (types.ValueType, error) {
		if _, err := checkArgs(args, params...); err != nil {
			return types.ValueType{}, err
		}
		return result.Optional(), nil
	}
}

// sameAsArg returns a return type check for functions of one numeric argument
// whose result has the argument type.
func sameAsArg(p param) func([]types.ValueType) (types.ValueType, error) {
	return func(args []types.ValueType) (types.ValueType, error) {
		if _, err := checkArgs(args, p); err != nil {
			return types.ValueType{}, err
		}
		return args[0], nil
	}
}

// typedArg views c as a computer of T. INTEGER computers are widened when T
// is float64.
func typedArg[T any](c computer.Computer) (computer.Typed[T], error) {
	if t, ok := c.(computer.Typed[T]); ok {
		return t, nil
	}
	var zero T
	if _, wantFloat := any(zero).(float64); wantFloat {
		if _, isInt := c.(computer.Integer); isInt {
			return any(computer.ToFloat(c)).(computer.Typed[T]), nil
		}
	}
	return nil, fmt.Errorf("unexpected argument computer %T", c)
}

type applyFunc = func([]computer.Computer) (computer.Computer, error)

func apply0[R any](f func(computer.EvaluationContext) (R, error)) applyFunc {
	return func([]computer.Computer) (computer.Computer, error) {
		return computer.Of(f, computer.Never), nil
	}
}

func apply1[A, R any](f func(computer.EvaluationContext, A) (R, error)) applyFunc {
	return func(args []computer.Computer) (computer.Computer, error) {
		a, err := typedArg[A](args[0])
		if err != nil {
			return nil, err
		}
		return computer.Of(func(ctx computer.EvaluationContext) (R, error) {
			av, err := a.Compute(ctx)
			if err != nil {
				var zero R
				return zero, err
			}
			return f(ctx, av)
		}, computer.AnyMissing(a)), nil
	}
}

func apply2[A, B, R any](f func(computer.EvaluationContext, A, B) (R, error)) applyFunc {
	return func(args []computer.Computer) (computer.Computer, error) {
		a, err := typedArg[A](args[0])
		if err != nil {
			return nil, err
		}
		b, err := typedArg[B](args[1])
		if err != nil {
			return nil, err
		}
		return computer.Of(func(ctx computer.EvaluationContext) (R, error) {
			var zero R
			av, err := a.Compute(ctx)
			if err != nil {
				return zero, err
			}
			bv, err := b.Compute(ctx)
			if err != nil {
				return zero, err
			}
			return f(ctx, av, bv)
		}, computer.AnyMissing(a, b)), nil
	}
}

func apply3[A, B, C, R any](f func(computer.EvaluationContext, A, B, C) (R, error)) applyFunc {
	return func(args []computer.Computer) (computer.Computer, error) {
		a, err := typedArg[A](args[0])
		if err != nil {
			return nil, err
		}
		b, err := typedArg[B](args[1])
		if err != nil {
			return nil, err
		}
		c, err := typedArg[C](args[2])
		if err != nil {
			return nil, err
		}
		return computer.Of(func(ctx computer.EvaluationContext) (R, error) {
			var zero R
			av, err := a.Compute(ctx)
			if err != nil {
				return zero, err
			}
			bv, err := b.Compute(ctx)
			if err != nil {
				return zero, err
			}
			cv, err := c.Compute(ctx)
			if err != nil {
				return zero, err
			}
			return f(ctx, av, bv, cv)
		}, computer.AnyMissing(a, b, c)), nil
	}
}

// partial wraps a function of present arguments that may itself produce
// MISSING by returning ok == false.
type partial[R any] func(ctx computer.EvaluationContext) (v R, ok bool, err error)

func (p partial[R]) computer(args ...computer.Computer) computer.Typed[R] {
	argsMissing := computer.AnyMissing(args...)
	return computer.Of(
		func(ctx computer.EvaluationContext) (R, error) {
			v, _, err := p(ctx)
			return v, err
		},
		func(ctx computer.EvaluationContext) (bool, error) {
			if m, err := argsMissing(ctx); err != nil || m {
				return m, err
			}
			_, ok, err := p(ctx)
			return !ok, err
		},
	)
}

func partial1[A, R any](f func(computer.EvaluationContext, A) (R, bool, error)) applyFunc {
	return func(args []computer.Computer) (computer.Computer, error) {
		a, err := typedArg[A](args[0])
		if err != nil {
			return nil, err
		}
		p := partial[R](func(ctx computer.EvaluationContext) (R, bool, error) {
			av, err := a.Compute(ctx)
			if err != nil {
				var zero R
				return zero, false, err
			}
			return f(ctx, av)
		})
		return p.computer(a), nil
	}
}

func partial3[A, B, C, R any](f func(computer.EvaluationContext, A, B, C) (R, bool, error)) applyFunc {
	return func(args []computer.Computer) (computer.Computer, error) {
		a, err := typedArg[A](args[0])
		if err != nil {
			return nil, err
		}
		b, err := typedArg[B](args[1])
		if err != nil {
			return nil, err
		}
		c, err := typedArg[C](args[2])
		if err != nil {
			return nil, err
		}
		p := partial[R](func(ctx computer.EvaluationContext) (R, bool, error) {
			var zero R
			av, err := a.Compute(ctx)
			if err != nil {
				return zero, false, err
			}
			bv, err := b.Compute(ctx)
			if err != nil {
				return zero, false, err
			}
			cv, err := c.Compute(ctx)
			if err != nil {
				return zero, false, err
			}
			return f(ctx, av, bv, cv)
		})
		return p.computer(a, b, c), nil
	}
}
