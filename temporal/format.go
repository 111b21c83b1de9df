package temporal

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// FormatDuration renders d in ISO-8601 form: PT8H6M12.345S, PT0S, PT-1H-30M.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}
	seconds := int64(d / time.Second)
	nanos := int64(d % time.Second)
	if nanos < 0 {
		seconds--
		nanos += int64(time.Second)
	}

	effective := seconds
	if seconds < 0 && nanos > 0 {
		effective++
	}
	hours := effective / 3600
	minutes := (effective % 3600) / 60
	secs := effective % 60

	var sb strings.Builder
	sb.WriteString("PT")
	if hours != 0 {
		sb.WriteString(strconv.FormatInt(hours, 10))
		sb.WriteByte('H')
	}
	if minutes != 0 {
		sb.WriteString(strconv.FormatInt(minutes, 10))
		sb.WriteByte('M')
	}
	if secs == 0 && nanos == 0 && sb.Len() > 2 {
		return sb.String()
	}
	if seconds < 0 && nanos > 0 {
		if secs == 0 {
			sb.WriteString("-0")
		} else {
			sb.WriteString(strconv.FormatInt(secs, 10))
		}
	} else {
		sb.WriteString(strconv.FormatInt(secs, 10))
	}
	if nanos > 0 {
		frac := nanos
		if seconds < 0 {
			frac = int64(time.Second) - nanos
		}
		digits := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
		sb.WriteByte('.')
		sb.WriteString(digits)
	}
	sb.WriteByte('S')
	return sb.String()
}

var durationPattern = regexp.MustCompile(`(?i)^([-+]?)P(?:([-+]?[0-9]+)D)?(T(?:([-+]?[0-9]+)H)?(?:([-+]?[0-9]+)M)?(?:([-+]?[0-9]+)(?:[.,]([0-9]{0,9}))?S)?)?$`)

// ParseDuration parses the ISO-8601 form PnDTnHnMn.nS, where a day is 24 hours.
func ParseDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil || m[3] == "T" || (m[2] == "" && m[4] == "" && m[5] == "" && m[6] == "") {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	units := []struct {
		text string
		unit time.Duration
	}{
		{m[2], 24 * time.Hour},
		{m[4], time.Hour},
		{m[5], time.Minute},
		{m[6], time.Second},
	}
	var total float64
	var d time.Duration
	for _, u := range units {
		if u.text == "" {
			continue
		}
		v, err := strconv.ParseInt(u.text, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		total += float64(v) * float64(u.unit)
		d += time.Duration(v) * u.unit
	}
	if m[7] != "" {
		frac, err := strconv.ParseInt((m[7] + "000000000")[:9], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if strings.HasPrefix(m[6], "-") {
			frac = -frac
		}
		total += float64(frac)
		d += time.Duration(frac)
	}
	if math.Abs(total) > math.MaxInt64 {
		return 0, ErrOverflow
	}
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}

// FormatTime renders a wall clock time as HH:MM, HH:MM:SS or HH:MM:SS.fff with
// the fraction in groups of three digits.
func FormatTime(t civil.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%02d:%02d", t.Hour, t.Minute)
	if t.Second > 0 || t.Nanosecond > 0 {
		fmt.Fprintf(&sb, ":%02d", t.Second)
		switch n := t.Nanosecond; {
		case n == 0:
		case n%1_000_000 == 0:
			fmt.Fprintf(&sb, ".%03d", n/1_000_000)
		case n%1_000 == 0:
			fmt.Fprintf(&sb, ".%06d", n/1_000)
		default:
			fmt.Fprintf(&sb, ".%09d", n)
		}
	}
	return sb.String()
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(d civil.Date) string {
	return d.String()
}

// FormatDateTime renders a local date-time as YYYY-MM-DDTHH:MM[:SS[.fff]].
func FormatDateTime(dt civil.DateTime) string {
	return FormatDate(dt.Date) + "T" + FormatTime(dt.Time)
}

// FormatZoned renders a zoned date-time with its offset and, for named zones,
// the zone id: 2024-01-01T10:00+01:00[Europe/Berlin].
func FormatZoned(t time.Time) string {
	s := FormatDateTime(civil.DateTimeOf(t)) + formatOffset(t)
	switch name := t.Location().String(); name {
	case "", "UTC", "Local":
		return s
	default:
		return s + "[" + name + "]"
	}
}

func formatOffset(t time.Time) string {
	_, offset := t.Zone()
	if offset == 0 {
		return "Z"
	}
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	s := fmt.Sprintf("%c%02d:%02d", sign, offset/3600, (offset/60)%60)
	if sec := offset % 60; sec != 0 {
		s += fmt.Sprintf(":%02d", sec)
	}
	return s
}
