package functions

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/temporal"
	"github.com/razeghi71/dqexpr/types"
)

func controlFunctions() []ast.Function {
	return []ast.Function{
		New("if", "then if the condition is true, otherwise else. A MISSING condition gives MISSING.",
			ifType, applyIf),
		New("is_missing", "Whether the value is MISSING.",
			func(args []types.ValueType) (types.ValueType, error) {
				if len(args) != 1 {
					return types.ValueType{}, fmt.Errorf("expected 1 argument, got %d", len(args))
				}
				return types.Boolean, nil
			},
			func(args []computer.Computer) (computer.Computer, error) {
				arg := args[0]
				return computer.Of(func(ctx computer.EvaluationContext) (bool, error) {
					return arg.IsMissing(ctx)
				}, computer.Never), nil
			}),
		New("coalesce", "The first argument that is not MISSING.",
			coalesceType, applyCoalesce),
	}
}

// commonType is the type all present values of args can be represented in.
// MISSING arguments are skipped; INTEGER and FLOAT meet in FLOAT.
func commonType(args []types.ValueType) (types.ValueType, error) {
	var result types.ValueType
	found := false
	for _, a := range args {
		switch {
		case a.IsMissing():
		case !found:
			result, found = a.Base(), true
		case result.Kind() == a.Kind():
		case types.IsNumeric(result) && types.IsNumeric(a):
			result = types.Float
		default:
			return types.ValueType{}, fmt.Errorf("incompatible argument types %s and %s", result.Name(), a.Base().Name())
		}
	}
	if !found {
		return types.Missing, nil
	}
	return result, nil
}

func ifType(args []types.ValueType) (types.ValueType, error) {
	if len(args) != 3 {
		return types.ValueType{}, fmt.Errorf("expected 3 arguments, got %d", len(args))
	}
	if _, err := checkArgs(args[:1], boolean("condition")); err != nil {
		return types.ValueType{}, err
	}
	result, err := commonType(args[1:])
	if err != nil {
		return types.ValueType{}, err
	}
	optional := false
	for _, a := range args {
		optional = optional || a.IsOptional() || a.IsMissing()
	}
	return result.WithOptional(optional), nil
}

func applyIf(args []computer.Computer) (computer.Computer, error) {
	cond, ok := args[0].(computer.Boolean)
	if !ok {
		return nil, fmt.Errorf("unexpected condition computer %T", args[0])
	}
	branches, kind, err := unifyComputers(args[1:])
	if err != nil || kind == types.KindMissing {
		return computer.Missing{}, err
	}
	return pickByKind(kind, func(ctx computer.EvaluationContext) (computer.Computer, error) {
		v, missing, err := computer.Value(ctx, cond)
		switch {
		case err != nil || missing:
			return nil, err
		case v:
			return branches[0], nil
		}
		return branches[1], nil
	})
}

func coalesceType(args []types.ValueType) (types.ValueType, error) {
	if len(args) == 0 {
		return types.ValueType{}, fmt.Errorf("expected at least 1 argument")
	}
	result, err := commonType(args)
	if err != nil {
		return types.ValueType{}, err
	}
	for _, a := range args {
		if !a.IsOptional() && !a.IsMissing() {
			return result, nil
		}
	}
	return result.Optional(), nil
}

func applyCoalesce(args []computer.Computer) (computer.Computer, error) {
	cs, kind, err := unifyComputers(args)
	if err != nil || kind == types.KindMissing {
		return computer.Missing{}, err
	}
	return pickByKind(kind, func(ctx computer.EvaluationContext) (computer.Computer, error) {
		for _, c := range cs {
			missing, err := c.IsMissing(ctx)
			if err != nil {
				return nil, err
			}
			if !missing {
				return c, nil
			}
		}
		return nil, nil
	})
}

// unifyComputers widens INTEGER computers to FLOAT when the common kind of cs
// is FLOAT.
func unifyComputers(cs []computer.Computer) ([]computer.Computer, types.Kind, error) {
	ts := make([]types.ValueType, len(cs))
	for i, c := range cs {
		ts[i] = computer.TypeOf(c)
	}
	common, err := commonType(ts)
	if err != nil {
		return nil, types.KindMissing, err
	}
	out := make([]computer.Computer, len(cs))
	for i, c := range cs {
		if _, isInt := c.(computer.Integer); isInt && common.Kind() == types.KindFloat {
			c = computer.ToFloat(c)
		}
		out[i] = c
	}
	return out, common.Kind(), nil
}

// chooser selects the computer that provides the value for the current
// context, or nil if the value is MISSING.
type chooser func(ctx computer.EvaluationContext) (computer.Computer, error)

func pickOf[T any](choose chooser) computer.Typed[T] {
	return computer.Of(
		func(ctx computer.EvaluationContext) (T, error) {
			c, err := choose(ctx)
			if err != nil {
				var zero T
				return zero, err
			}
			return c.(computer.Typed[T]).Compute(ctx)
		},
		func(ctx computer.EvaluationContext) (bool, error) {
			c, err := choose(ctx)
			if err != nil || c == nil {
				return true, err
			}
			return c.IsMissing(ctx)
		},
	)
}

func pickByKind(k types.Kind, choose chooser) (computer.Computer, error) {
	switch k {
	case types.KindBoolean:
		return pickOf[bool](choose), nil
	case types.KindInteger:
		return pickOf[int64](choose), nil
	case types.KindFloat:
		return pickOf[float64](choose), nil
	case types.KindString:
		return pickOf[string](choose), nil
	case types.KindLocalDate:
		return pickOf[civil.Date](choose), nil
	case types.KindLocalTime:
		return pickOf[civil.Time](choose), nil
	case types.KindLocalDateTime:
		return pickOf[civil.DateTime](choose), nil
	case types.KindZonedDateTime:
		return pickOf[time.Time](choose), nil
	case types.KindTimeDuration:
		return pickOf[time.Duration](choose), nil
	case types.KindDateDuration:
		return pickOf[temporal.Period](choose), nil
	}
	return nil, fmt.Errorf("cannot select values of kind %s", k)
}
