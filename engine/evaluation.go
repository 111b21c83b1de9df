package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/temporal"
	"github.com/razeghi71/dqexpr/types"
)

// ColumnResolver supplies the computer for a column access.
type ColumnResolver func(*ast.ColumnAccess) (computer.Computer, bool)

// FlowVarResolver supplies the computer for a flow variable access.
type FlowVarResolver func(*ast.FlowVarAccess) (computer.Computer, bool)

// AggregationResolver supplies the result computer of an aggregation call.
// Aggregations are computed over the whole table before row evaluation.
type AggregationResolver func(*ast.AggregationCall) (computer.Computer, bool)

// Evaluate builds the computer of a typed expression. Every node must carry
// the type set by InferTypes. A resolver that cannot supply a computer makes
// Evaluate return *CompileErrors for the offending node.
func Evaluate(root ast.Node, columns ColumnResolver, flowVars FlowVarResolver, aggregations AggregationResolver) (computer.Computer, error) {
	e := &evaluator{columns: columns, flowVars: flowVars, aggregations: aggregations}
	return e.eval(root)
}

type evaluator struct {
	columns      ColumnResolver
	flowVars     FlowVarResolver
	aggregations AggregationResolver
}

func (e *evaluator) eval(n ast.Node) (computer.Computer, error) {
	switch n := n.(type) {
	case *ast.MissingConstant:
		return computer.Missing{}, nil
	case *ast.BooleanConstant:
		return computer.Const(n.Value), nil
	case *ast.IntegerConstant:
		return computer.Const(n.Value), nil
	case *ast.FloatConstant:
		return computer.Const(n.Value), nil
	case *ast.StringConstant:
		return computer.Const(n.Value), nil
	case *ast.ColumnAccess:
		if e.columns != nil {
			if c, ok := e.columns(n); ok {
				return c, nil
			}
		}
		return nil, compileErrors(newError(MissingColumn, n, "Column %s is not available.", n.ToExpression()))
	case *ast.FlowVarAccess:
		if e.flowVars != nil {
			if c, ok := e.flowVars(n); ok {
				return c, nil
			}
		}
		return nil, compileErrors(newError(MissingFlowVariable, n, "Flow variable %s is not available.", n.ToExpression()))
	case *ast.AggregationCall:
		if e.aggregations != nil {
			if c, ok := e.aggregations(n); ok {
				return c, nil
			}
		}
		return nil, compileErrors(newError(AggregationNotEvaluated, n,
			"Aggregation %s has not been evaluated.", n.ToExpression()))
	case *ast.UnaryOp:
		arg, err := e.eval(n.Arg)
		if err != nil {
			return nil, err
		}
		return unary(n.Op, Type(n), arg), nil
	case *ast.BinaryOp:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		out := Type(n)
		if n.Op == ast.MissingFallback {
			return missingFallback(out, left, right), nil
		}
		return binary(n.Op, out, left, right), nil
	case *ast.FunctionCall:
		args := make([]computer.Computer, len(n.Args))
		for i, a := range n.Args {
			c, err := e.eval(a)
			if err != nil {
				return nil, err
			}
			args[i] = c
		}
		c, err := n.Function.Apply(args)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", n.Function.Name(), err)
		}
		return c, nil
	}
	implementationError("unknown node %T", n)
	return nil, nil
}

// as asserts the runtime family of c.
func as[T any](c computer.Computer) computer.Typed[T] {
	t, ok := c.(computer.Typed[T])
	if !ok {
		var zero T
		implementationError("expected a computer of %T, got %T", zero, c)
	}
	return t
}

func is[T any](c computer.Computer) bool {
	_, ok := c.(computer.Typed[T])
	return ok
}

func isStaticMissing(c computer.Computer) bool {
	_, ok := c.(computer.Missing)
	return ok
}

func unaryOf[A, R any](arg computer.Typed[A], f func(A) (R, error)) computer.Typed[R] {
	return computer.Of(func(ctx computer.EvaluationContext) (R, error) {
		a, err := arg.Compute(ctx)
		if err != nil {
			var zero R
			return zero, err
		}
		return f(a)
	}, arg.IsMissing)
}

func binaryOf[A, B, R any](a computer.Typed[A], b computer.Typed[B], f func(computer.EvaluationContext, A, B) (R, error)) computer.Typed[R] {
	return computer.Of(func(ctx computer.EvaluationContext) (R, error) {
		var zero R
		x, err := a.Compute(ctx)
		if err != nil {
			return zero, err
		}
		y, err := b.Compute(ctx)
		if err != nil {
			return zero, err
		}
		return f(ctx, x, y)
	}, computer.AnyMissing(a, b))
}

func outOfRange(kind types.Kind, err error) error {
	return &computer.EvaluationError{
		Message: fmt.Sprintf("Result was outside the range of values representable by `%s`", kind),
		Err:     err,
	}
}

func unsupportedOutput(op fmt.Stringer, out types.ValueType) {
	implementationError("output of operator %s cannot be %s", op, out.Name())
}

func unary(op ast.UnaryOperator, out types.ValueType, arg computer.Computer) computer.Computer {
	switch {
	case out.Kind() == types.KindBoolean && op == ast.Not:
		a := toKleene(as[bool](arg))
		return fromKleene(func(ctx computer.EvaluationContext) (kleene, error) {
			k, err := a(ctx)
			return kleeneNot(k), err
		})
	case out.Kind() == types.KindInteger && op == ast.Negate:
		return unaryOf(as[int64](arg), func(v int64) (int64, error) { return -v, nil })
	case out.Kind() == types.KindFloat && op == ast.Negate:
		return unaryOf(computer.ToFloat(arg), func(v float64) (float64, error) { return -v, nil })
	case out.Kind() == types.KindTimeDuration && op == ast.Negate:
		return unaryOf(as[time.Duration](arg), func(d time.Duration) (time.Duration, error) {
			r, err := temporal.NegateDuration(d)
			if err != nil {
				return 0, outOfRange(types.KindTimeDuration, err)
			}
			return r, nil
		})
	case out.Kind() == types.KindDateDuration && op == ast.Negate:
		return unaryOf(as[temporal.Period](arg), func(p temporal.Period) (temporal.Period, error) {
			r, err := p.Negate()
			if err != nil {
				return temporal.Period{}, outOfRange(types.KindDateDuration, err)
			}
			return r, nil
		})
	}
	unsupportedOutput(op, out)
	return nil
}

func binary(op ast.BinaryOperator, out types.ValueType, a, b computer.Computer) computer.Computer {
	switch out.Kind() {
	case types.KindBoolean:
		switch {
		case op.IsOrderingComparison():
			return comparison(op, a, b)
		case op.IsEqualityComparison():
			return equality(op, a, b)
		case op.IsLogical():
			return logical(op, a, b)
		}
	case types.KindInteger:
		return integerArithmetic(op, as[int64](a), as[int64](b))
	case types.KindFloat:
		return floatArithmetic(op, computer.ToFloat(a), computer.ToFloat(b))
	case types.KindString:
		if op == ast.Plus {
			return concat(a, b)
		}
	case types.KindTimeDuration:
		return durations(op, a, b)
	case types.KindDateDuration:
		return periods(op, a, b)
	case types.KindLocalDate:
		return localDates(op, a, b)
	case types.KindLocalTime:
		return localTimes(op, a, b)
	case types.KindLocalDateTime:
		return localDateTimes(op, a, b)
	case types.KindZonedDateTime:
		return zonedDateTimes(op, a, b)
	}
	unsupportedOutput(op, out)
	return nil
}

// --- MISSING_FALLBACK ---

func missingFallback(out types.ValueType, a, b computer.Computer) computer.Computer {
	switch out.Kind() {
	case types.KindBoolean:
		return fallbackOf(orMissing[bool](a), orMissing[bool](b))
	case types.KindInteger:
		return fallbackOf(orMissing[int64](a), orMissing[int64](b))
	case types.KindFloat:
		return fallbackOf(floatOrMissing(a), floatOrMissing(b))
	case types.KindString:
		return fallbackOf(orMissing[string](a), orMissing[string](b))
	case types.KindLocalDate:
		return fallbackOf(orMissing[civil.Date](a), orMissing[civil.Date](b))
	case types.KindLocalTime:
		return fallbackOf(orMissing[civil.Time](a), orMissing[civil.Time](b))
	case types.KindLocalDateTime:
		return fallbackOf(orMissing[civil.DateTime](a), orMissing[civil.DateTime](b))
	case types.KindZonedDateTime:
		return fallbackOf(orMissing[time.Time](a), orMissing[time.Time](b))
	case types.KindTimeDuration:
		return fallbackOf(orMissing[time.Duration](a), orMissing[time.Duration](b))
	case types.KindDateDuration:
		return fallbackOf(orMissing[temporal.Period](a), orMissing[temporal.Period](b))
	}
	unsupportedOutput(ast.MissingFallback, out)
	return nil
}

// fallbackOf picks its value source at call time so that a missing operand
// is never computed.
func fallbackOf[T any](a, b computer.Typed[T]) computer.Typed[T] {
	return computer.Of(
		func(ctx computer.EvaluationContext) (T, error) {
			missing, err := a.IsMissing(ctx)
			if err != nil {
				var zero T
				return zero, err
			}
			if missing {
				return b.Compute(ctx)
			}
			return a.Compute(ctx)
		},
		func(ctx computer.EvaluationContext) (bool, error) {
			missing, err := a.IsMissing(ctx)
			if err != nil || !missing {
				return false, err
			}
			return b.IsMissing(ctx)
		},
	)
}

func alwaysMissing[T any]() computer.Typed[T] {
	return computer.Of(
		func(computer.EvaluationContext) (T, error) {
			var zero T
			return zero, computer.Errorf("MISSING has no value")
		},
		func(computer.EvaluationContext) (bool, error) { return true, nil },
	)
}

func orMissing[T any](c computer.Computer) computer.Typed[T] {
	if isStaticMissing(c) {
		return alwaysMissing[T]()
	}
	return as[T](c)
}

func floatOrMissing(c computer.Computer) computer.Float {
	if isStaticMissing(c) {
		return alwaysMissing[float64]()
	}
	return computer.ToFloat(c)
}

// --- BOOLEAN ---

func logical(op ast.BinaryOperator, a, b computer.Computer) computer.Boolean {
	ka, kb := toKleene(as[bool](a)), toKleene(as[bool](b))
	combine := kleeneAnd
	if op == ast.ConditionalOr {
		combine = kleeneOr
	}
	return fromKleene(func(ctx computer.EvaluationContext) (kleene, error) {
		x, err := ka(ctx)
		if err != nil {
			return kleeneUnknown, err
		}
		y, err := kb(ctx)
		if err != nil {
			return kleeneUnknown, err
		}
		return combine(x, y), nil
	})
}

type comparator func(ctx computer.EvaluationContext) (int, error)

func compareWith[T any](a, b computer.Typed[T], cmp func(T, T) int) comparator {
	return func(ctx computer.EvaluationContext) (int, error) {
		x, err := a.Compute(ctx)
		if err != nil {
			return 0, err
		}
		y, err := b.Compute(ctx)
		if err != nil {
			return 0, err
		}
		return cmp(x, y), nil
	}
}

func compareInts(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// compareFloats orders NaN above every other value and -0.0 below 0.0.
func compareFloats(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	xNaN, yNaN := math.IsNaN(x), math.IsNaN(y)
	switch {
	case xNaN && yNaN:
		return 0
	case xNaN:
		return 1
	case yNaN:
		return -1
	}
	switch sx, sy := math.Signbit(x), math.Signbit(y); {
	case sx && !sy:
		return -1
	case !sx && sy:
		return 1
	}
	return 0
}

func compareDurations(x, y time.Duration) int {
	return compareInts(int64(x), int64(y))
}

func compareZoned(x, y time.Time) int {
	return x.Compare(y)
}

func comparison(op ast.BinaryOperator, a, b computer.Computer) computer.Boolean {
	var cmp comparator
	switch {
	case is[float64](a) || is[float64](b):
		cmp = compareWith(computer.ToFloat(a), computer.ToFloat(b), compareFloats)
	case is[int64](a) && is[int64](b):
		cmp = compareWith(as[int64](a), as[int64](b), compareInts)
	case is[time.Duration](a) && is[time.Duration](b):
		cmp = compareWith(as[time.Duration](a), as[time.Duration](b), compareDurations)
	case is[civil.Date](a) && is[civil.Date](b):
		cmp = compareWith(as[civil.Date](a), as[civil.Date](b), temporal.CompareDate)
	case is[civil.DateTime](a) && is[civil.DateTime](b):
		cmp = compareWith(as[civil.DateTime](a), as[civil.DateTime](b), temporal.CompareDateTime)
	case is[time.Time](a) && is[time.Time](b):
		cmp = compareWith(as[time.Time](a), as[time.Time](b), compareZoned)
	case is[civil.Time](a) && is[civil.Time](b):
		cmp = compareWith(as[civil.Time](a), as[civil.Time](b), temporal.CompareTime)
	default:
		implementationError("arguments %T and %T are not comparable", a, b)
	}

	var test func(int) bool
	switch op {
	case ast.LessThan:
		test = func(c int) bool { return c < 0 }
	case ast.LessThanEqual:
		test = func(c int) bool { return c <= 0 }
	case ast.GreaterThan:
		test = func(c int) bool { return c > 0 }
	case ast.GreaterThanEqual:
		test = func(c int) bool { return c >= 0 }
	default:
		implementationError("binary operator %s is not a comparison", op)
	}

	if op == ast.LessThan || op == ast.GreaterThan {
		return computer.Of(func(ctx computer.EvaluationContext) (bool, error) {
			c, err := cmp(ctx)
			return test(c), err
		}, computer.AnyMissing(a, b))
	}

	// Inclusive comparisons hold when both sides are missing and are missing
	// when exactly one side is.
	return computer.Of(
		func(ctx computer.EvaluationContext) (bool, error) {
			m1, m2, err := missingStates(ctx, a, b)
			if err != nil {
				return false, err
			}
			if m1 || m2 {
				return m1 && m2, nil
			}
			c, err := cmp(ctx)
			return test(c), err
		},
		func(ctx computer.EvaluationContext) (bool, error) {
			m1, m2, err := missingStates(ctx, a, b)
			return m1 != m2, err
		},
	)
}

func missingStates(ctx computer.EvaluationContext, a, b computer.Computer) (bool, bool, error) {
	m1, err := a.IsMissing(ctx)
	if err != nil {
		return false, false, err
	}
	m2, err := b.IsMissing(ctx)
	return m1, m2, err
}

func valuesEqualWith[T comparable](a, b computer.Computer) comparator {
	return compareWith(as[T](a), as[T](b), func(x, y T) int {
		if x == y {
			return 0
		}
		return 1
	})
}

func equality(op ast.BinaryOperator, a, b computer.Computer) computer.Boolean {
	var valuesEqual comparator
	switch {
	case isStaticMissing(a) || isStaticMissing(b):
		// the values are irrelevant, only both-missing is equal
		valuesEqual = func(computer.EvaluationContext) (int, error) { return 1, nil }
	case is[bool](a) && is[bool](b):
		valuesEqual = valuesEqualWith[bool](a, b)
	case is[string](a) && is[string](b):
		valuesEqual = valuesEqualWith[string](a, b)
	case is[float64](a) || is[float64](b):
		valuesEqual = compareWith(computer.ToFloat(a), computer.ToFloat(b), func(x, y float64) int {
			if x == y {
				return 0
			}
			return 1
		})
	case is[int64](a) && is[int64](b):
		valuesEqual = valuesEqualWith[int64](a, b)
	case is[time.Duration](a) && is[time.Duration](b):
		valuesEqual = valuesEqualWith[time.Duration](a, b)
	case is[temporal.Period](a) && is[temporal.Period](b):
		valuesEqual = valuesEqualWith[temporal.Period](a, b)
	case is[civil.Date](a) && is[civil.Date](b):
		valuesEqual = valuesEqualWith[civil.Date](a, b)
	case is[civil.Time](a) && is[civil.Time](b):
		valuesEqual = valuesEqualWith[civil.Time](a, b)
	case is[civil.DateTime](a) && is[civil.DateTime](b):
		valuesEqual = valuesEqualWith[civil.DateTime](a, b)
	default:
		implementationError("arguments %T and %T are not equality comparable", a, b)
	}

	equal := func(ctx computer.EvaluationContext) (bool, error) {
		m1, m2, err := missingStates(ctx, a, b)
		if err != nil {
			return false, err
		}
		if m1 || m2 {
			return m1 && m2, nil
		}
		c, err := valuesEqual(ctx)
		return c == 0, err
	}

	switch op {
	case ast.EqualTo:
		return computer.Of(equal, computer.Never)
	case ast.NotEqualTo:
		return computer.Of(func(ctx computer.EvaluationContext) (bool, error) {
			eq, err := equal(ctx)
			return !eq, err
		}, computer.Never)
	}
	implementationError("binary operator %s is not an equality check", op)
	return nil
}

// --- INTEGER / FLOAT ---

// truncate converts a float to int64 with saturation, NaN becoming 0.
func truncate(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func integerArithmetic(op ast.BinaryOperator, a, b computer.Integer) computer.Integer {
	var f func(ctx computer.EvaluationContext, x, y int64) (int64, error)
	switch op {
	case ast.Plus:
		f = func(_ computer.EvaluationContext, x, y int64) (int64, error) { return x + y, nil }
	case ast.Minus:
		f = func(_ computer.EvaluationContext, x, y int64) (int64, error) { return x - y, nil }
	case ast.Multiply:
		f = func(_ computer.EvaluationContext, x, y int64) (int64, error) { return x * y, nil }
	case ast.FloorDivide:
		f = func(ctx computer.EvaluationContext, x, y int64) (int64, error) {
			if y == 0 {
				ctx.AddWarning("INTEGER division returned 0 because divisor was 0.")
				return 0, nil
			}
			return x / y, nil
		}
	case ast.Remainder:
		f = func(ctx computer.EvaluationContext, x, y int64) (int64, error) {
			if y == 0 {
				ctx.AddWarning("INTEGER modulo returned 0 because divisor was 0.")
				return 0, nil
			}
			return x % y, nil
		}
	case ast.Exponential:
		f = func(_ computer.EvaluationContext, x, y int64) (int64, error) {
			return truncate(math.Pow(float64(x), float64(y))), nil
		}
	default:
		unsupportedOutput(op, types.Integer)
	}
	return binaryOf(a, b, f)
}

func floatArithmetic(op ast.BinaryOperator, a, b computer.Float) computer.Float {
	var f func(ctx computer.EvaluationContext, x, y float64) (float64, error)
	switch op {
	case ast.Plus:
		f = func(_ computer.EvaluationContext, x, y float64) (float64, error) { return x + y, nil }
	case ast.Minus:
		f = func(_ computer.EvaluationContext, x, y float64) (float64, error) { return x - y, nil }
	case ast.Multiply:
		f = func(_ computer.EvaluationContext, x, y float64) (float64, error) { return x * y, nil }
	case ast.Divide:
		f = func(ctx computer.EvaluationContext, x, y float64) (float64, error) {
			r := x / y
			if y == 0 {
				ctx.AddWarning(fmt.Sprintf("FLOAT division returned %s because divisor was 0.",
					computer.FormatFloatWarning(r)))
			}
			return r, nil
		}
	case ast.Remainder:
		f = func(ctx computer.EvaluationContext, x, y float64) (float64, error) {
			r := math.Mod(x, y)
			if y == 0 {
				ctx.AddWarning(fmt.Sprintf("FLOAT modulo returned %s because divisor was 0.",
					computer.FormatFloatWarning(r)))
			}
			return r, nil
		}
	case ast.Exponential:
		f = func(_ computer.EvaluationContext, x, y float64) (float64, error) { return math.Pow(x, y), nil }
	default:
		unsupportedOutput(op, types.Float)
	}
	return binaryOf(a, b, f)
}

// --- STRING ---

func concat(a, b computer.Computer) computer.String {
	return computer.Of(func(ctx computer.EvaluationContext) (string, error) {
		var sb strings.Builder
		for _, c := range []computer.Computer{a, b} {
			s, err := computer.StringRepresentation(ctx, c)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		}
		return sb.String(), nil
	}, computer.Never)
}

// --- temporal ---

// rangeChecked wraps overflow errors of temporal arithmetic.
func rangeChecked[T any](kind types.Kind) func(T, error) (T, error) {
	return func(v T, err error) (T, error) {
		if err != nil {
			var zero T
			return zero, outOfRange(kind, err)
		}
		return v, nil
	}
}

func durations(op ast.BinaryOperator, a, b computer.Computer) computer.TimeDuration {
	check := rangeChecked[time.Duration](types.KindTimeDuration)
	switch {
	case is[time.Duration](a) && is[time.Duration](b):
		switch op {
		case ast.Plus:
			return binaryOf(as[time.Duration](a), as[time.Duration](b),
				func(_ computer.EvaluationContext, x, y time.Duration) (time.Duration, error) {
					return check(temporal.AddDurations(x, y))
				})
		case ast.Minus:
			return binaryOf(as[time.Duration](a), as[time.Duration](b),
				func(_ computer.EvaluationContext, x, y time.Duration) (time.Duration, error) {
					return check(temporal.SubtractDurations(x, y))
				})
		}
	case is[time.Duration](a) && is[int64](b) && op == ast.Multiply:
		return binaryOf(as[time.Duration](a), as[int64](b),
			func(_ computer.EvaluationContext, d time.Duration, n int64) (time.Duration, error) {
				return check(temporal.MultiplyDuration(d, n))
			})
	case is[int64](a) && is[time.Duration](b) && op == ast.Multiply:
		return binaryOf(as[int64](a), as[time.Duration](b),
			func(_ computer.EvaluationContext, n int64, d time.Duration) (time.Duration, error) {
				return check(temporal.MultiplyDuration(d, n))
			})
	case is[civil.Time](a) && is[civil.Time](b) && op == ast.Minus:
		return binaryOf(as[civil.Time](a), as[civil.Time](b),
			func(_ computer.EvaluationContext, x, y civil.Time) (time.Duration, error) {
				return temporal.TimeBetween(y, x), nil
			})
	case is[civil.DateTime](a) && is[civil.DateTime](b) && op == ast.Minus:
		return binaryOf(as[civil.DateTime](a), as[civil.DateTime](b),
			func(_ computer.EvaluationContext, x, y civil.DateTime) (time.Duration, error) {
				return check(temporal.DateTimeBetween(y, x))
			})
	case is[time.Time](a) && is[time.Time](b) && op == ast.Minus:
		return binaryOf(as[time.Time](a), as[time.Time](b),
			func(_ computer.EvaluationContext, x, y time.Time) (time.Duration, error) {
				return check(temporal.ZonedBetween(y, x))
			})
	}
	implementationError("arguments %T and %T of %s are not duration compatible", a, b, op)
	return nil
}

func periods(op ast.BinaryOperator, a, b computer.Computer) computer.DateDuration {
	check := rangeChecked[temporal.Period](types.KindDateDuration)
	switch {
	case is[temporal.Period](a) && is[temporal.Period](b):
		switch op {
		case ast.Plus:
			return binaryOf(as[temporal.Period](a), as[temporal.Period](b),
				func(_ computer.EvaluationContext, x, y temporal.Period) (temporal.Period, error) {
					return check(x.Plus(y))
				})
		case ast.Minus:
			return binaryOf(as[temporal.Period](a), as[temporal.Period](b),
				func(_ computer.EvaluationContext, x, y temporal.Period) (temporal.Period, error) {
					return check(x.Minus(y))
				})
		}
	case is[temporal.Period](a) && is[int64](b) && op == ast.Multiply:
		return binaryOf(as[temporal.Period](a), as[int64](b),
			func(_ computer.EvaluationContext, p temporal.Period, n int64) (temporal.Period, error) {
				return check(p.MultipliedBy(n))
			})
	case is[int64](a) && is[temporal.Period](b) && op == ast.Multiply:
		return binaryOf(as[int64](a), as[temporal.Period](b),
			func(_ computer.EvaluationContext, n int64, p temporal.Period) (temporal.Period, error) {
				return check(p.MultipliedBy(n))
			})
	case is[civil.Date](a) && is[civil.Date](b) && op == ast.Minus:
		return binaryOf(as[civil.Date](a), as[civil.Date](b),
			func(_ computer.EvaluationContext, x, y civil.Date) (temporal.Period, error) {
				return temporal.Between(y, x), nil
			})
	}
	implementationError("arguments %T and %T of %s are not period compatible", a, b, op)
	return nil
}

func localDates(op ast.BinaryOperator, a, b computer.Computer) computer.LocalDate {
	if is[civil.Date](a) && is[temporal.Period](b) {
		switch op {
		case ast.Plus:
			return binaryOf(as[civil.Date](a), as[temporal.Period](b),
				func(_ computer.EvaluationContext, d civil.Date, p temporal.Period) (civil.Date, error) {
					return temporal.AddToDate(d, p), nil
				})
		case ast.Minus:
			return binaryOf(as[civil.Date](a), as[temporal.Period](b),
				func(_ computer.EvaluationContext, d civil.Date, p temporal.Period) (civil.Date, error) {
					return temporal.SubtractFromDate(d, p), nil
				})
		}
	}
	implementationError("arguments %T and %T of %s are not date compatible", a, b, op)
	return nil
}

func localTimes(op ast.BinaryOperator, a, b computer.Computer) computer.LocalTime {
	if is[civil.Time](a) && is[time.Duration](b) {
		sign := time.Duration(1)
		switch op {
		case ast.Plus:
		case ast.Minus:
			sign = -1
		default:
			implementationError("output of operator %s cannot be LOCAL_TIME", op)
		}
		return binaryOf(as[civil.Time](a), as[time.Duration](b),
			func(_ computer.EvaluationContext, t civil.Time, d time.Duration) (civil.Time, error) {
				// reduce first so negating cannot overflow
				return temporal.AddToTime(t, sign*(d%(24*time.Hour))), nil
			})
	}
	implementationError("arguments %T and %T of %s are not time compatible", a, b, op)
	return nil
}

func localDateTimes(op ast.BinaryOperator, a, b computer.Computer) computer.LocalDateTime {
	switch {
	case is[civil.DateTime](a) && is[time.Duration](b):
		switch op {
		case ast.Plus:
			return binaryOf(as[civil.DateTime](a), as[time.Duration](b),
				func(_ computer.EvaluationContext, dt civil.DateTime, d time.Duration) (civil.DateTime, error) {
					return temporal.AddToDateTime(dt, d), nil
				})
		case ast.Minus:
			return binaryOf(as[civil.DateTime](a), as[time.Duration](b),
				func(_ computer.EvaluationContext, dt civil.DateTime, d time.Duration) (civil.DateTime, error) {
					neg, err := temporal.NegateDuration(d)
					if err != nil {
						return civil.DateTime{}, outOfRange(types.KindLocalDateTime, err)
					}
					return temporal.AddToDateTime(dt, neg), nil
				})
		}
	case is[civil.DateTime](a) && is[temporal.Period](b):
		switch op {
		case ast.Plus:
			return binaryOf(as[civil.DateTime](a), as[temporal.Period](b),
				func(_ computer.EvaluationContext, dt civil.DateTime, p temporal.Period) (civil.DateTime, error) {
					return temporal.AddPeriodToDateTime(dt, p), nil
				})
		case ast.Minus:
			return binaryOf(as[civil.DateTime](a), as[temporal.Period](b),
				func(_ computer.EvaluationContext, dt civil.DateTime, p temporal.Period) (civil.DateTime, error) {
					return temporal.SubtractPeriodFromDateTime(dt, p), nil
				})
		}
	}
	implementationError("arguments %T and %T of %s are not date-time compatible", a, b, op)
	return nil
}

func zonedDateTimes(op ast.BinaryOperator, a, b computer.Computer) computer.ZonedDateTime {
	switch {
	case is[time.Time](a) && is[time.Duration](b):
		switch op {
		case ast.Plus:
			return binaryOf(as[time.Time](a), as[time.Duration](b),
				func(_ computer.EvaluationContext, t time.Time, d time.Duration) (time.Time, error) {
					return t.Add(d), nil
				})
		case ast.Minus:
			return binaryOf(as[time.Time](a), as[time.Duration](b),
				func(_ computer.EvaluationContext, t time.Time, d time.Duration) (time.Time, error) {
					neg, err := temporal.NegateDuration(d)
					if err != nil {
						return time.Time{}, outOfRange(types.KindZonedDateTime, err)
					}
					return t.Add(neg), nil
				})
		}
	case is[time.Time](a) && is[temporal.Period](b):
		switch op {
		case ast.Plus:
			return binaryOf(as[time.Time](a), as[temporal.Period](b),
				func(_ computer.EvaluationContext, t time.Time, p temporal.Period) (time.Time, error) {
					return temporal.AddPeriodToZoned(t, p), nil
				})
		case ast.Minus:
			return binaryOf(as[time.Time](a), as[temporal.Period](b),
				func(_ computer.EvaluationContext, t time.Time, p temporal.Period) (time.Time, error) {
					return temporal.SubtractPeriodFromZoned(t, p), nil
				})
		}
	}
	implementationError("arguments %T and %T of %s are not zoned date-time compatible", a, b, op)
	return nil
}
