package functions

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"
	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/types"
)

func zoned(name string) param {
	return param{name: name, what: "ZONED_DATE_TIME", accepts: kindIs(types.KindZonedDateTime)}
}

func localDateTime(name string) param {
	return param{name: name, what: "LOCAL_DATE_TIME", accepts: kindIs(types.KindLocalDateTime)}
}

func zonedFunctions() []ast.Function {
	return []ast.Function{
		New("is_same_instant", "Whether two ZONED_DATE_TIME values are the same instant. Two MISSING values are the same, one MISSING value is not.",
			func(args []types.ValueType) (types.ValueType, error) {
				if _, err := checkArgs(args, zoned("first"), zoned("second")); err != nil {
					return types.ValueType{}, err
				}
				return types.Boolean, nil
			},
			applySameInstant),
		New("make_zoned", "The datetime in the given zone. The zone is an IANA name such as Europe/Berlin or an offset such as +02:00, UTC+7 or GMT-3. Invalid zones give MISSING.",
			partialType(types.ZonedDateTime, localDateTime("datetime"), str("zone")),
			applyMakeZoned),
		parseFunction("parse_zoned_datetime", "Parses YYYY-MM-DDTHH:MM[:SS[.fff]] with an offset and an optional [zone]. Unparsable text gives MISSING.",
			types.ZonedDateTime, "a zoned date-time", parseZoned),
	}
}

func applySameInstant(args []computer.Computer) (computer.Computer, error) {
	a, err := typedArg[time.Time](args[0])
	if err != nil {
		return nil, err
	}
	b, err := typedArg[time.Time](args[1])
	if err != nil {
		return nil, err
	}
	return computer.Of(func(ctx computer.EvaluationContext) (bool, error) {
		aMissing, err := a.IsMissing(ctx)
		if err != nil {
			return false, err
		}
		bMissing, err := b.IsMissing(ctx)
		if err != nil {
			return false, err
		}
		if aMissing || bMissing {
			return aMissing && bMissing, nil
		}
		av, err := a.Compute(ctx)
		if err != nil {
			return false, err
		}
		bv, err := b.Compute(ctx)
		if err != nil {
			return false, err
		}
		return av.Equal(bv), nil
	}, computer.Never), nil
}

func applyMakeZoned(args []computer.Computer) (computer.Computer, error) {
	dt, err := typedArg[civil.DateTime](args[0])
	if err != nil {
		return nil, err
	}
	zone, err := typedArg[string](args[1])
	if err != nil {
		return nil, err
	}
	p := partial[time.Time](func(ctx computer.EvaluationContext) (time.Time, bool, error) {
		dv, err := dt.Compute(ctx)
		if err != nil {
			return time.Time{}, false, err
		}
		zv, err := zone.Compute(ctx)
		if err != nil {
			return time.Time{}, false, err
		}
		loc, ok := parseZone(zv)
		if !ok {
			warn(ctx, "make_zoned", "MISSING", "'%s' is not a valid zone id", zv)
			return time.Time{}, false, nil
		}
		return dv.In(loc), true, nil
	})
	return p.computer(dt, zone), nil
}

var offsetPattern = regexp.MustCompile(`^([+-])(\d{1,2})(?::?(\d{2}))?(?::?(\d{2}))?$`)

// parseZone reads an IANA zone name, ignoring case where the canonical
// spelling can be recovered, or a fixed offset with an optional UTC, GMT or
// UT prefix.
func parseZone(s string) (*time.Location, bool) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	switch upper {
	case "":
		return nil, false
	case "Z", "UTC", "GMT", "UT":
		return time.UTC, true
	}
	rest := s
	for _, prefix := range []string{"UTC", "GMT", "UT"} {
		if strings.HasPrefix(upper, prefix) {
			rest = s[len(prefix):]
			break
		}
	}
	if m := offsetPattern.FindStringSubmatch(rest); m != nil {
		h, _ := strconv.Atoi(m[2])
		mins, _ := strconv.Atoi("0" + m[3])
		secs, _ := strconv.Atoi("0" + m[4])
		if h > 18 || mins > 59 || secs > 59 {
			return nil, false
		}
		offset := h*3600 + mins*60 + secs
		if m[1] == "-" {
			offset = -offset
		}
		if offset == 0 {
			return time.UTC, true
		}
		return time.FixedZone("", offset), true
	}
	if upper == "LOCAL" {
		return nil, false
	}
	if loc, err := time.LoadLocation(canonicalZoneName(s)); err == nil {
		return loc, true
	}
	if loc, err := time.LoadLocation(s); err == nil {
		return loc, true
	}
	return nil, false
}

// canonicalZoneName capitalises every word of an IANA name, so
// america/new_york becomes America/New_York.
func canonicalZoneName(s string) string {
	b := []byte(strings.ToLower(s))
	start := true
	for i, c := range b {
		if start && c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
		start = c == '/' || c == '_' || c == '-'
	}
	return string(b)
}

func parseZoned(s string) (time.Time, error) {
	var zone string
	if strings.HasSuffix(s, "]") {
		i := strings.LastIndex(s, "[")
		if i < 0 {
			return time.Time{}, fmt.Errorf("unbalanced zone in %q", s)
		}
		s, zone = s[:i], s[i+1:len(s)-1]
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t, err = time.Parse("2006-01-02T15:04Z07:00", s); err != nil {
			return time.Time{}, err
		}
	}
	if zone == "" {
		return t, nil
	}
	loc, ok := parseZone(zone)
	if !ok {
		return time.Time{}, fmt.Errorf("unknown zone %q", zone)
	}
	return t.In(loc), nil
}
