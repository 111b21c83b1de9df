package loader

import (
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/razeghi71/dqexpr/table"
	"github.com/razeghi71/dqexpr/temporal"
	"github.com/spf13/cast"
)

// ParseValue infers the kind of a text cell. It tries, in order: INTEGER,
// FLOAT, BOOLEAN, the date and time kinds, TIME_DURATION (ISO-8601 or Go
// notation) and DATE_DURATION. Anything else is a STRING. The empty string,
// null and MISSING are missing.
func ParseValue(s string) table.Value {
	if s == "" || strings.EqualFold(s, "null") || s == "MISSING" {
		return table.Null()
	}

	// Try integer
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return table.IntVal(v)
	}

	// Try float
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return table.FloatVal(v)
	}

	// Try boolean
	if isBoolText(s) {
		if b, err := cast.ToBoolE(s); err == nil {
			return table.BoolVal(b)
		}
	}

	if v, ok := parseTemporal(s); ok {
		return v
	}

	if d, err := temporal.ParseDuration(s); err == nil {
		return table.DurationVal(d)
	}
	if d, err := time.ParseDuration(s); err == nil {
		return table.DurationVal(d)
	}
	if p, err := temporal.ParsePeriod(s); err == nil {
		return table.PeriodVal(p)
	}

	return table.StrVal(s)
}

func isBoolText(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}

// parseTemporal recognises dates, times, local date-times and RFC 3339
// timestamps.
func parseTemporal(s string) (table.Value, bool) {
	if d, err := civil.ParseDate(s); err == nil {
		return table.DateVal(d), true
	}
	if strings.Count(s, ":") >= 1 && len(s) <= len("15:04:05.000000000") {
		clock := s
		if len(clock) == len("15:04") {
			clock += ":00"
		}
		if t, err := civil.ParseTime(clock); err == nil {
			return table.TimeVal(t), true
		}
	}
	if dt, err := civil.ParseDateTime(s); err == nil {
		return table.DateTimeVal(dt), true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return table.ZonedVal(t), true
	}
	return table.Value{}, false
}
