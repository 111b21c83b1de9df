package temporal

import (
	"math"
	"time"

	"cloud.google.com/go/civil"
)

const day = 24 * time.Hour

// NanosOfDay returns the number of nanoseconds since midnight.
func NanosOfDay(t civil.Time) int64 {
	return int64(t.Hour)*int64(time.Hour) +
		int64(t.Minute)*int64(time.Minute) +
		int64(t.Second)*int64(time.Second) +
		int64(t.Nanosecond)
}

// TimeOfNanos is the inverse of NanosOfDay for values in [0, 24h).
func TimeOfNanos(n int64) civil.Time {
	d := time.Duration(n)
	return civil.Time{
		Hour:       int(d / time.Hour),
		Minute:     int(d % time.Hour / time.Minute),
		Second:     int(d % time.Minute / time.Second),
		Nanosecond: int(d % time.Second),
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CompareTime orders two wall clock times.
func CompareTime(a, b civil.Time) int {
	return cmpInt64(NanosOfDay(a), NanosOfDay(b))
}

// CompareDate orders two calendar dates.
func CompareDate(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// CompareDateTime orders two local date-times.
func CompareDateTime(a, b civil.DateTime) int {
	if c := CompareDate(a.Date, b.Date); c != 0 {
		return c
	}
	return CompareTime(a.Time, b.Time)
}

// AddToTime adds d to t, wrapping around midnight.
func AddToTime(t civil.Time, d time.Duration) civil.Time {
	n := (NanosOfDay(t) + int64(d%day)) % int64(day)
	if n < 0 {
		n += int64(day)
	}
	return TimeOfNanos(n)
}

// TimeBetween returns end - start for two wall clock times.
func TimeBetween(start, end civil.Time) time.Duration {
	return time.Duration(NanosOfDay(end) - NanosOfDay(start))
}

// AddToDateTime adds an exact duration to a local date-time.
func AddToDateTime(dt civil.DateTime, d time.Duration) civil.DateTime {
	return civil.DateTimeOf(dt.In(time.UTC).Add(d))
}

// AddPeriodToDateTime adds a calendar period to the date part, keeping the clock.
func AddPeriodToDateTime(dt civil.DateTime, p Period) civil.DateTime {
	return civil.DateTime{Date: AddToDate(dt.Date, p), Time: dt.Time}
}

// SubtractPeriodFromDateTime subtracts a calendar period from the date part.
func SubtractPeriodFromDateTime(dt civil.DateTime, p Period) civil.DateTime {
	return civil.DateTime{Date: SubtractFromDate(dt.Date, p), Time: dt.Time}
}

// DateTimeBetween returns end - start for local date-times, failing when the
// result does not fit a time.Duration.
func DateTimeBetween(start, end civil.DateTime) (time.Duration, error) {
	return instantsBetween(start.In(time.UTC), end.In(time.UTC))
}

// ZonedBetween returns end - start for two instants.
func ZonedBetween(start, end time.Time) (time.Duration, error) {
	return instantsBetween(start, end)
}

func instantsBetween(start, end time.Time) (time.Duration, error) {
	d := end.Sub(start)
	if d == math.MaxInt64 || d == math.MinInt64 {
		return 0, ErrOverflow
	}
	return d, nil
}

// AddPeriodToZoned adds a calendar period to the local date of t and resolves
// the result in the same zone.
func AddPeriodToZoned(t time.Time, p Period) time.Time {
	return zonedWithDate(t, AddToDate(civil.DateOf(t), p))
}

// SubtractPeriodFromZoned subtracts a calendar period from the local date of t.
func SubtractPeriodFromZoned(t time.Time, p Period) time.Time {
	return zonedWithDate(t, SubtractFromDate(civil.DateOf(t), p))
}

func zonedWithDate(t time.Time, d civil.Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddDurations adds two durations, failing on overflow.
func AddDurations(a, b time.Duration) (time.Duration, error) {
	c := a + b
	if (a > 0 && b > 0 && c < 0) || (a < 0 && b < 0 && c >= 0) {
		return 0, ErrOverflow
	}
	return c, nil
}

// SubtractDurations returns a - b, failing on overflow.
func SubtractDurations(a, b time.Duration) (time.Duration, error) {
	if b == math.MinInt64 {
		if a >= 0 {
			return 0, ErrOverflow
		}
		return a - b, nil
	}
	return AddDurations(a, -b)
}

// NegateDuration returns -d, failing for the most negative duration.
func NegateDuration(d time.Duration) (time.Duration, error) {
	if d == math.MinInt64 {
		return 0, ErrOverflow
	}
	return -d, nil
}

// MultiplyDuration returns d * n, failing on overflow.
func MultiplyDuration(d time.Duration, n int64) (time.Duration, error) {
	v, ok := mulExact(int64(d), n)
	if !ok {
		return 0, ErrOverflow
	}
	return time.Duration(v), nil
}
