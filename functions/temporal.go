package functions

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/temporal"
	"github.com/razeghi71/dqexpr/types"
	"github.com/spf13/cast"
)

func temporalFunctions() []ast.Function {
	return []ast.Function{
		New("now", "The execution start time as ZONED_DATE_TIME in UTC.",
			fixed(types.ZonedDateTime),
			apply0(func(ctx computer.EvaluationContext) (time.Time, error) {
				return ctx.ExecutionStartTime().UTC(), nil
			})),
		New("today", "The date of the execution start time.",
			fixed(types.LocalDate),
			apply0(func(ctx computer.EvaluationContext) (civil.Date, error) {
				return civil.DateOf(ctx.ExecutionStartTime()), nil
			})),
		New("make_date", "The date of the given year, month and day. Invalid dates give MISSING.",
			partialType(types.LocalDate, integer("year"), integer("month"), integer("day")),
			partial3(func(ctx computer.EvaluationContext, y, m, d int64) (civil.Date, bool, error) {
				date := civil.Date{Year: int(y), Month: time.Month(m), Day: int(d)}
				if !date.IsValid() || int64(date.Year) != y {
					warn(ctx, "make_date", "MISSING", "%d-%d-%d is not a valid date", y, m, d)
					return civil.Date{}, false, nil
				}
				return date, true, nil
			})),
		New("make_time", "The time of the given hour, minute and second. Invalid times give MISSING.",
			partialType(types.LocalTime, integer("hour"), integer("minute"), integer("second")),
			partial3(func(ctx computer.EvaluationContext, h, m, s int64) (civil.Time, bool, error) {
				t := civil.Time{Hour: int(h), Minute: int(m), Second: int(s)}
				if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
					warn(ctx, "make_time", "MISSING", "%d:%d:%d is not a valid time", h, m, s)
					return civil.Time{}, false, nil
				}
				return t, true, nil
			})),
		New("make_time_duration", "A TIME_DURATION of the given hours, minutes and seconds.",
			fixed(types.TimeDuration, integer("hours"), integer("minutes"), integer("seconds")),
			apply3(func(_ computer.EvaluationContext, h, m, s int64) (time.Duration, error) {
				d, err := makeDuration(h, m, s)
				if err != nil {
					return 0, &computer.EvaluationError{
						Message: "Result was outside the range of values representable by `TIME_DURATION`",
						Err:     err,
					}
				}
				return d, nil
			})),
		New("make_date_duration", "A DATE_DURATION of the given years, months and days.",
			fixed(types.DateDuration, integer("years"), integer("months"), integer("days")),
			apply3(func(_ computer.EvaluationContext, y, m, d int64) (temporal.Period, error) {
				p, err := temporal.PeriodOf(y, m, d)
				if err != nil {
					return temporal.Period{}, &computer.EvaluationError{
						Message: "Result was outside the range of values representable by `DATE_DURATION`",
						Err:     err,
					}
				}
				return p, nil
			})),
		extractDatePart("extract_year", "The year of a date.", func(d civil.Date) int64 { return int64(d.Year) }),
		extractDatePart("extract_month", "The month of a date, 1 to 12.", func(d civil.Date) int64 { return int64(d.Month) }),
		extractDatePart("extract_day_of_month", "The day of month of a date.", func(d civil.Date) int64 { return int64(d.Day) }),
		extractTimePart("extract_hour", "The hour of a time, 0 to 23.", func(t civil.Time) int64 { return int64(t.Hour) }),
		extractTimePart("extract_minute", "The minute of a time, 0 to 59.", func(t civil.Time) int64 { return int64(t.Minute) }),
		parseFunction("parse_date", "Parses YYYY-MM-DD. Unparsable text gives MISSING.",
			types.LocalDate, "a date", civil.ParseDate),
		parseFunction("parse_time", "Parses HH:MM[:SS[.fff]]. Unparsable text gives MISSING.",
			types.LocalTime, "a time", parseTime),
		parseFunction("parse_date_time", "Parses YYYY-MM-DDTHH:MM[:SS[.fff]]. Unparsable text gives MISSING.",
			types.LocalDateTime, "a date-time", parseDateTime),
		parseFunction("parse_duration", "Parses an ISO-8601 duration such as PT1H30M or a duration such as 1h30m. Unparsable text gives MISSING.",
			types.TimeDuration, "a duration", parseDuration),
	}
}

func makeDuration(h, m, s int64) (time.Duration, error) {
	total := time.Duration(0)
	for _, part := range []struct {
		n    int64
		unit time.Duration
	}{{h, time.Hour}, {m, time.Minute}, {s, time.Second}} {
		d, err := temporal.MultiplyDuration(part.unit, part.n)
		if err != nil {
			return 0, err
		}
		if total, err = temporal.AddDurations(total, d); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func extractDatePart(name, description string, part func(civil.Date) int64) ast.Function {
	return New(name, description,
		fixed(types.Integer, withDate("date")),
		func(args []computer.Computer) (computer.Computer, error) {
			switch c := args[0].(type) {
			case computer.LocalDate:
				return apply1(func(_ computer.EvaluationContext, d civil.Date) (int64, error) {
					return part(d), nil
				})(args)
			case computer.LocalDateTime:
				return apply1(func(_ computer.EvaluationContext, dt civil.DateTime) (int64, error) {
					return part(dt.Date), nil
				})(args)
			case computer.ZonedDateTime:
				return apply1(func(_ computer.EvaluationContext, t time.Time) (int64, error) {
					return part(civil.DateOf(t)), nil
				})(args)
			default:
				return nil, fmt.Errorf("unexpected argument computer %T", c)
			}
		})
}

func extractTimePart(name, description string, part func(civil.Time) int64) ast.Function {
	return New(name, description,
		fixed(types.Integer, withTime("time")),
		func(args []computer.Computer) (computer.Computer, error) {
			switch c := args[0].(type) {
			case computer.LocalTime:
				return apply1(func(_ computer.EvaluationContext, t civil.Time) (int64, error) {
					return part(t), nil
				})(args)
			case computer.LocalDateTime:
				return apply1(func(_ computer.EvaluationContext, dt civil.DateTime) (int64, error) {
					return part(dt.Time), nil
				})(args)
			case computer.ZonedDateTime:
				return apply1(func(_ computer.EvaluationContext, t time.Time) (int64, error) {
					return part(civil.TimeOf(t)), nil
				})(args)
			default:
				return nil, fmt.Errorf("unexpected argument computer %T", c)
			}
		})
}

// parseFunction builds a function that parses its STRING argument and gives MISSING
// with a warning when parse fails.
func parseFunction[T any](name, description string, result types.ValueType, what string, parse func(string) (T, error)) ast.Function {
	return New(name, description,
		partialType(result, str("s")),
		partial1(func(ctx computer.EvaluationContext, s string) (T, bool, error) {
			v, err := parse(strings.TrimSpace(s))
			if err != nil {
				warn(ctx, name, "MISSING", "%q is not %s", s, what)
				return v, false, nil
			}
			return v, true, nil
		}))
}

func parseTime(s string) (civil.Time, error) {
	if len(s) == len("15:04") {
		s += ":00"
	}
	return civil.ParseTime(s)
}

func parseDateTime(s string) (civil.DateTime, error) {
	date, clock, ok := strings.Cut(s, "T")
	if !ok {
		date, clock, ok = strings.Cut(s, " ")
	}
	if !ok {
		return civil.DateTime{}, fmt.Errorf("missing time part in %q", s)
	}
	d, err := civil.ParseDate(date)
	if err != nil {
		return civil.DateTime{}, err
	}
	t, err := parseTime(clock)
	if err != nil {
		return civil.DateTime{}, err
	}
	return civil.DateTime{Date: d, Time: t}, nil
}

func parseDuration(s string) (time.Duration, error) {
	if d, err := temporal.ParseDuration(s); err == nil {
		return d, nil
	}
	return cast.ToDurationE(s)
}
