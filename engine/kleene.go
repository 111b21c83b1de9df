package engine

import "github.com/razeghi71/dqexpr/computer"

// kleene is a truth value of three-valued logic. Missing booleans are unknown.
type kleene int

const (
	kleeneFalse kleene = iota
	kleeneTrue
	kleeneUnknown
)

func (k kleene) String() string {
	switch k {
	case kleeneTrue:
		return "TRUE"
	case kleeneFalse:
		return "FALSE"
	}
	return "UNKNOWN"
}

func kleeneNot(a kleene) kleene {
	switch a {
	case kleeneTrue:
		return kleeneFalse
	case kleeneFalse:
		return kleeneTrue
	}
	return kleeneUnknown
}

func kleeneAnd(a, b kleene) kleene {
	switch {
	case a == kleeneFalse || b == kleeneFalse:
		return kleeneFalse
	case a == kleeneTrue && b == kleeneTrue:
		return kleeneTrue
	}
	return kleeneUnknown
}

func kleeneOr(a, b kleene) kleene {
	switch {
	case a == kleeneTrue || b == kleeneTrue:
		return kleeneTrue
	case a == kleeneFalse && b == kleeneFalse:
		return kleeneFalse
	}
	return kleeneUnknown
}

func toKleene(c computer.Boolean) func(computer.EvaluationContext) (kleene, error) {
	return func(ctx computer.EvaluationContext) (kleene, error) {
		v, missing, err := computer.Value(ctx, c)
		switch {
		case err != nil:
			return kleeneUnknown, err
		case missing:
			return kleeneUnknown, nil
		case v:
			return kleeneTrue, nil
		}
		return kleeneFalse, nil
	}
}

func fromKleene(f func(computer.EvaluationContext) (kleene, error)) computer.Boolean {
	return computer.Of(
		func(ctx computer.EvaluationContext) (bool, error) {
			k, err := f(ctx)
			return k == kleeneTrue, err
		},
		func(ctx computer.EvaluationContext) (bool, error) {
			k, err := f(ctx)
			return k == kleeneUnknown, err
		},
	)
}
