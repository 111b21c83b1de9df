package functions

import (
	"fmt"
	"math"

	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/types"
)

func mathFunctions() []ast.Function {
	return []ast.Function{
		New("abs", "Absolute value of a number.",
			sameAsArg(number("x")),
			byNumericKind(
				apply1(func(_ computer.EvaluationContext, x int64) (int64, error) {
					if x < 0 {
						return -x, nil
					}
					return x, nil
				}),
				floatApply(math.Abs),
			)),
		New("sqrt", "Square root of a number. Negative numbers give NaN.",
			fixed(types.Float, number("x")),
			apply1(func(ctx computer.EvaluationContext, x float64) (float64, error) {
				if x < 0 {
					warn(ctx, "sqrt", "NaN", "the argument was negative")
					return math.NaN(), nil
				}
				return math.Sqrt(x), nil
			})),
		floatFunction("exp", "Euler's number raised to the power of x.", math.Exp),
		logarithm("ln", "Natural logarithm of a number.", math.Log),
		logarithm("log10", "Base 10 logarithm of a number.", math.Log10),
		floatFunction("sin", "Sine of an angle in radians.", math.Sin),
		floatFunction("cos", "Cosine of an angle in radians.", math.Cos),
		floatFunction("tan", "Tangent of an angle in radians.", math.Tan),
		rounding("floor", "Largest integer not greater than x.", math.Floor),
		rounding("ceil", "Smallest integer not less than x.", math.Ceil),
		rounding("round", "Nearest integer to x, ties to even.", math.RoundToEven),
		extremum("max", "Largest of the arguments.", func(a, b int64) int64 { return max(a, b) }, math.Max),
		extremum("min", "Smallest of the arguments.", func(a, b int64) int64 { return min(a, b) }, math.Min),
		New("is_nan", "Whether x is NaN.",
			fixed(types.Boolean, number("x")),
			apply1(func(_ computer.EvaluationContext, x float64) (bool, error) {
				return math.IsNaN(x), nil
			})),
	}
}

func floatApply(f func(float64) float64) applyFunc {
	return apply1(func(_ computer.EvaluationContext, x float64) (float64, error) {
		return f(x), nil
	})
}

func floatFunction(name, description string, f func(float64) float64) ast.Function {
	return New(name, description, fixed(types.Float, number("x")), floatApply(f))
}

// byNumericKind picks the implementation for the kind of the first argument.
func byNumericKind(ints, floats applyFunc) applyFunc {
	return func(args []computer.Computer) (computer.Computer, error) {
		if _, ok := args[0].(computer.Integer); ok {
			return ints(args)
		}
		return floats(args)
	}
}

func logarithm(name, description string, f func(float64) float64) ast.Function {
	return New(name, description,
		fixed(types.Float, number("x")),
		apply1(func(ctx computer.EvaluationContext, x float64) (float64, error) {
			switch {
			case x == 0:
				warn(ctx, name, "-INFINITY", "the argument was 0")
			case x < 0:
				warn(ctx, name, "NaN", "the argument was negative")
			}
			return f(x), nil
		}))
}

func rounding(name, description string, f func(float64) float64) ast.Function {
	return New(name, description,
		fixed(types.Integer, number("x")),
		byNumericKind(
			apply1(func(_ computer.EvaluationContext, x int64) (int64, error) {
				return x, nil
			}),
			apply1(func(ctx computer.EvaluationContext, x float64) (int64, error) {
				return toInteger(ctx, name, f(x)), nil
			}),
		))
}

// toInteger truncates f, saturating at the INTEGER bounds. NaN becomes 0.
func toInteger(ctx computer.EvaluationContext, name string, f float64) int64 {
	switch {
	case math.IsNaN(f):
		warn(ctx, name, "0", "the argument was NaN")
		return 0
	case f >= math.MaxInt64:
		warn(ctx, name, fmt.Sprint(int64(math.MaxInt64)), "the result was too large for an INTEGER")
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func extremum(name, description string, ints func(int64, int64) int64, floats func(float64, float64) float64) ast.Function {
	returnType := func(args []types.ValueType) (types.ValueType, error) {
		if len(args) < 2 {
			return types.ValueType{}, fmt.Errorf("expected at least 2 arguments, got %d", len(args))
		}
		params := make([]param, len(args))
		allInts := true
		for i, a := range args {
			params[i] = number(fmt.Sprintf("x%d", i+1))
			allInts = allInts && a.Kind() == types.KindInteger
		}
		opt, err := checkArgs(args, params...)
		if err != nil {
			return types.ValueType{}, err
		}
		if allInts {
			return types.Integer.WithOptional(opt), nil
		}
		return types.Float.WithOptional(opt), nil
	}
	apply := func(args []computer.Computer) (computer.Computer, error) {
		for _, a := range args {
			if _, ok := a.(computer.Integer); !ok {
				return foldOf(args, floats)
			}
		}
		return foldOf(args, ints)
	}
	return New(name, description, returnType, apply)
}

func foldOf[T any](args []computer.Computer, f func(T, T) T) (computer.Computer, error) {
	cs := make([]computer.Typed[T], len(args))
	for i, a := range args {
		c, err := typedArg[T](a)
		if err != nil {
			return nil, err
		}
		cs[i] = c
	}
	return computer.Of(func(ctx computer.EvaluationContext) (T, error) {
		acc, err := cs[0].Compute(ctx)
		if err != nil {
			return acc, err
		}
		for _, c := range cs[1:] {
			v, err := c.Compute(ctx)
			if err != nil {
				return acc, err
			}
			acc = f(acc, v)
		}
		return acc, nil
	}, computer.AnyMissing(args...)), nil
}
