package computer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/razeghi71/dqexpr/temporal"
)

// StringRepresentation returns the canonical text of the current value of c,
// or "MISSING" if it is missing.
func StringRepresentation(ctx EvaluationContext, c Computer) (string, error) {
	missing, err := c.IsMissing(ctx)
	if err != nil {
		return "", err
	}
	if missing {
		return "MISSING", nil
	}
	switch v := c.(type) {
	case Boolean:
		return format(ctx, v, strconv.FormatBool)
	case Integer:
		return format(ctx, v, func(i int64) string { return strconv.FormatInt(i, 10) })
	case Float:
		return format(ctx, v, FormatFloat)
	case String:
		return v.Compute(ctx)
	case LocalDate:
		return format(ctx, v, temporal.FormatDate)
	case LocalTime:
		return format(ctx, v, temporal.FormatTime)
	case LocalDateTime:
		return format(ctx, v, temporal.FormatDateTime)
	case ZonedDateTime:
		return format(ctx, v, temporal.FormatZoned)
	case TimeDuration:
		return format(ctx, v, temporal.FormatDuration)
	case DateDuration:
		return format(ctx, v, temporal.Period.String)
	}
	panic(fmt.Sprintf("cannot stringify %T (this is an implementation error)", c))
}

func format[T any](ctx EvaluationContext, c Typed[T], f func(T) string) (string, error) {
	v, err := c.Compute(ctx)
	if err != nil {
		return "", err
	}
	return f(v), nil
}

// FormatFloat renders f the way the language prints floats: at least one
// fractional digit, scientific notation outside [1e-3, 1e7), and the words
// NaN and Infinity.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	if abs := math.Abs(f); abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(f, 'E', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	e, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(e)
}

// FormatFloatWarning renders a float for warning messages, spelling infinity
// in upper case.
func FormatFloatWarning(f float64) string {
	return strings.ReplaceAll(FormatFloat(f), "Infinity", "INFINITY")
}
