package temporal

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ErrOverflow is returned when a temporal amount leaves its representable range.
var ErrOverflow = errors.New("temporal value out of range")

// Period is a calendar based amount of time (DATE_DURATION). Components are
// independent: one month is not a fixed number of days.
type Period struct {
	Years  int
	Months int
	Days   int
}

// PeriodOf builds a period, rejecting components outside the 32-bit range.
func PeriodOf(years, months, days int64) (Period, error) {
	y, err := narrow(years)
	if err != nil {
		return Period{}, err
	}
	m, err := narrow(months)
	if err != nil {
		return Period{}, err
	}
	d, err := narrow(days)
	if err != nil {
		return Period{}, err
	}
	return Period{Years: y, Months: m, Days: d}, nil
}

func narrow(v int64) (int, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, ErrOverflow
	}
	return int(v), nil
}

// IsZero reports whether all components are zero.
func (p Period) IsZero() bool {
	return p == Period{}
}

// TotalMonths returns years*12 + months.
func (p Period) TotalMonths() int64 {
	return int64(p.Years)*12 + int64(p.Months)
}

// Negate flips the sign of every component.
func (p Period) Negate() (Period, error) {
	return p.MultipliedBy(-1)
}

// Plus adds two periods component-wise.
func (p Period) Plus(o Period) (Period, error) {
	return PeriodOf(
		int64(p.Years)+int64(o.Years),
		int64(p.Months)+int64(o.Months),
		int64(p.Days)+int64(o.Days),
	)
}

// Minus subtracts o from p component-wise.
func (p Period) Minus(o Period) (Period, error) {
	return PeriodOf(
		int64(p.Years)-int64(o.Years),
		int64(p.Months)-int64(o.Months),
		int64(p.Days)-int64(o.Days),
	)
}

// MultipliedBy scales every component by n.
func (p Period) MultipliedBy(n int64) (Period, error) {
	y, ok1 := mulExact(int64(p.Years), n)
	m, ok2 := mulExact(int64(p.Months), n)
	d, ok3 := mulExact(int64(p.Days), n)
	if !ok1 || !ok2 || !ok3 {
		return Period{}, ErrOverflow
	}
	return PeriodOf(y, m, d)
}

func mulExact(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return c, true
}

// String returns the ISO-8601 form, e.g. P1Y2M3D or P0D.
func (p Period) String() string {
	if p.IsZero() {
		return "P0D"
	}
	var sb strings.Builder
	sb.WriteByte('P')
	if p.Years != 0 {
		sb.WriteString(strconv.Itoa(p.Years))
		sb.WriteByte('Y')
	}
	if p.Months != 0 {
		sb.WriteString(strconv.Itoa(p.Months))
		sb.WriteByte('M')
	}
	if p.Days != 0 {
		sb.WriteString(strconv.Itoa(p.Days))
		sb.WriteByte('D')
	}
	return sb.String()
}

var periodPattern = regexp.MustCompile(`(?i)^([-+]?)P(?:([-+]?[0-9]+)Y)?(?:([-+]?[0-9]+)M)?(?:([-+]?[0-9]+)W)?(?:([-+]?[0-9]+)D)?$`)

// ParsePeriod parses the ISO-8601 period form PnYnMnWnD.
func ParsePeriod(s string) (Period, error) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil || (m[2] == "" && m[3] == "" && m[4] == "" && m[5] == "") {
		return Period{}, fmt.Errorf("invalid period %q", s)
	}
	var parts [4]int64
	for i := range parts {
		if m[i+2] == "" {
			continue
		}
		v, err := strconv.ParseInt(m[i+2], 10, 64)
		if err != nil {
			return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
		}
		parts[i] = v
	}
	days, ok := mulExact(parts[2], 7)
	if !ok {
		return Period{}, ErrOverflow
	}
	p, err := PeriodOf(parts[0], parts[1], days+parts[3])
	if err != nil {
		return Period{}, err
	}
	if m[1] == "-" {
		return p.Negate()
	}
	return p, nil
}

// Between returns the calendar period from start (inclusive) to end (exclusive).
// Whole months are counted first, the remainder is expressed in days.
func Between(start, end civil.Date) Period {
	totalMonths := prolepticMonth(end) - prolepticMonth(start)
	days := end.Day - start.Day
	if totalMonths > 0 && days < 0 {
		totalMonths--
		calc := plusMonths(start, totalMonths)
		days = end.DaysSince(calc)
	} else if totalMonths < 0 && days > 0 {
		totalMonths++
		days -= daysIn(end.Year, end.Month)
	}
	return Period{Years: int(totalMonths / 12), Months: int(totalMonths % 12), Days: days}
}

// AddToDate adds p to d. Months are added first with the day clamped to the
// length of the resulting month, then days are added.
func AddToDate(d civil.Date, p Period) civil.Date {
	if months := p.TotalMonths(); months != 0 {
		d = plusMonths(d, months)
	}
	if p.Days != 0 {
		d = d.AddDays(p.Days)
	}
	return d
}

// SubtractFromDate subtracts p from d with the same clamping rules as AddToDate.
func SubtractFromDate(d civil.Date, p Period) civil.Date {
	if months := p.TotalMonths(); months != 0 {
		d = plusMonths(d, -months)
	}
	if p.Days != 0 {
		d = d.AddDays(-p.Days)
	}
	return d
}

func prolepticMonth(d civil.Date) int64 {
	return int64(d.Year)*12 + int64(d.Month) - 1
}

func plusMonths(d civil.Date, n int64) civil.Date {
	total := prolepticMonth(d) + n
	year := floorDiv(total, 12)
	month := time.Month(total-year*12) + 1
	day := d.Day
	if last := daysIn(int(year), month); day > last {
		day = last
	}
	return civil.Date{Year: int(year), Month: month, Day: day}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
