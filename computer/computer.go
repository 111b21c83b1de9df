package computer

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/razeghi71/dqexpr/temporal"
	"github.com/razeghi71/dqexpr/types"
)

// Computer is the runtime form of one expression node. It is side effect free
// apart from warnings sent to the context, and can be invoked many times.
type Computer interface {
	IsMissing(ctx EvaluationContext) (bool, error)
}

// Typed is a Computer that produces values of type T. Compute may only be
// called after IsMissing reported false.
type Typed[T any] interface {
	Computer
	Compute(ctx EvaluationContext) (T, error)
}

// One specialization per base type.
type (
	Boolean       = Typed[bool]
	Integer       = Typed[int64]
	Float         = Typed[float64]
	String        = Typed[string]
	LocalDate     = Typed[civil.Date]
	LocalTime     = Typed[civil.Time]
	LocalDateTime = Typed[civil.DateTime]
	ZonedDateTime = Typed[time.Time]
	TimeDuration  = Typed[time.Duration]
	DateDuration  = Typed[temporal.Period]
)

// Predicate computes the missing state of a computer.
type Predicate func(ctx EvaluationContext) (bool, error)

// Never is a Predicate that is always false.
func Never(EvaluationContext) (bool, error) { return false, nil }

// AnyMissing returns a Predicate that is true if any of cs is missing. The
// computers are asked in order and the first missing one short-circuits.
func AnyMissing(cs ...Computer) Predicate {
	return func(ctx EvaluationContext) (bool, error) {
		for _, c := range cs {
			m, err := c.IsMissing(ctx)
			if err != nil || m {
				return m, err
			}
		}
		return false, nil
	}
}

type funcComputer[T any] struct {
	value   func(EvaluationContext) (T, error)
	missing func(EvaluationContext) (bool, error)
}

func (c *funcComputer[T]) Compute(ctx EvaluationContext) (T, error) {
	return c.value(ctx)
}

func (c *funcComputer[T]) IsMissing(ctx EvaluationContext) (bool, error) {
	return c.missing(ctx)
}

// Of builds a computer from a value function and a missing predicate.
func Of[T any](value func(EvaluationContext) (T, error), missing func(EvaluationContext) (bool, error)) Typed[T] {
	return &funcComputer[T]{value: value, missing: missing}
}

// Const returns a computer that always produces v and is never missing.
func Const[T any](v T) Typed[T] {
	return Of(func(EvaluationContext) (T, error) { return v, nil }, Never)
}

// Missing is the computer of the MISSING literal. It is always missing and has
// no value; the evaluation pass recognises it by type to skip value comparisons.
type Missing struct{}

func (Missing) IsMissing(EvaluationContext) (bool, error) { return true, nil }

// Value checks IsMissing first and only computes the value if c is present.
func Value[T any](ctx EvaluationContext, c Typed[T]) (v T, missing bool, err error) {
	missing, err = c.IsMissing(ctx)
	if err != nil || missing {
		return v, missing, err
	}
	v, err = c.Compute(ctx)
	return v, false, err
}

// ToFloat views a numeric computer as FLOAT. Integers are widened on every call.
func ToFloat(c Computer) Float {
	switch n := c.(type) {
	case Float:
		return n
	case Integer:
		return Of(func(ctx EvaluationContext) (float64, error) {
			v, err := n.Compute(ctx)
			return float64(v), err
		}, n.IsMissing)
	}
	panic(fmt.Sprintf("cannot convert %T to a FLOAT computer (this is an implementation error)", c))
}

// TypeOf returns the base ValueType tag of a computer.
func TypeOf(c Computer) types.ValueType {
	switch c.(type) {
	case Missing:
		return types.Missing
	case Boolean:
		return types.Boolean
	case Integer:
		return types.Integer
	case Float:
		return types.Float
	case String:
		return types.String
	case LocalDate:
		return types.LocalDate
	case LocalTime:
		return types.LocalTime
	case LocalDateTime:
		return types.LocalDateTime
	case ZonedDateTime:
		return types.ZonedDateTime
	case TimeDuration:
		return types.TimeDuration
	case DateDuration:
		return types.DateDuration
	}
	panic(fmt.Sprintf("unknown computer %T (this is an implementation error)", c))
}

// EvaluationError reports a failure while computing a value, e.g. an
// arithmetic overflow in temporal math.
type EvaluationError struct {
	Message string
	Err     error
}

func (e *EvaluationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Errorf builds an EvaluationError.
func Errorf(format string, args ...any) error {
	return &EvaluationError{Message: fmt.Sprintf(format, args...)}
}
