package functions_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/engine"
	"github.com/razeghi71/dqexpr/functions"
	"github.com/razeghi71/dqexpr/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type flowVar struct {
	vt types.ValueType
	c  computer.Computer
}

var flowVars = map[string]flowVar{
	"missing_int": {types.OptInteger, computer.Of(
		func(computer.EvaluationContext) (int64, error) { return 0, nil },
		func(computer.EvaluationContext) (bool, error) { return true, nil },
	)},
	"name": {types.String, computer.Const("Ada")},
}

type result struct {
	typ      string
	value    string
	warnings []string
}

func evaluate(t *testing.T, expression string) (result, error) {
	t.Helper()
	root, err := engine.Parse(expression)
	require.NoError(t, err)
	vt, err := engine.InferTypes(root, nil, func(name string) (types.ValueType, error) {
		v, ok := flowVars[name]
		if !ok {
			return types.ValueType{}, fmt.Errorf("no flow variable %s", name)
		}
		return v.vt, nil
	})
	if err != nil {
		return result{}, err
	}
	c, err := engine.Evaluate(root, nil, func(n *ast.FlowVarAccess) (computer.Computer, bool) {
		v, ok := flowVars[n.Name]
		return v.c, ok
	}, nil)
	require.NoError(t, err)
	ctx := computer.NewWarningCollector(start)
	s, err := computer.StringRepresentation(ctx, c)
	require.NoError(t, err)
	return result{typ: vt.Name(), value: s, warnings: ctx.Warnings}, nil
}

func TestBuiltIns(t *testing.T) {
	tests := []struct {
		expression string
		typ        string
		value      string
		warnings   []string
	}{
		{"abs(-3)", "INTEGER", "3", nil},
		{"abs(-2.5)", "FLOAT", "2.5", nil},
		{"sqrt(4)", "FLOAT", "2.0", nil},
		{"sqrt(-1)", "FLOAT", "NaN", []string{"sqrt returned NaN because the argument was negative."}},
		{"ln(0)", "FLOAT", "-Infinity", []string{"ln returned -INFINITY because the argument was 0."}},
		{"exp(0)", "FLOAT", "1.0", nil},
		{"floor(2.7)", "INTEGER", "2", nil},
		{"ceil(2.1)", "INTEGER", "3", nil},
		{"round(2.5)", "INTEGER", "2", nil},
		{"round(3.5)", "INTEGER", "4", nil},
		{"floor(NaN)", "INTEGER", "0", []string{"floor returned 0 because the argument was NaN."}},
		{"max(1, 5, 3)", "INTEGER", "5", nil},
		{"min(2, 1.5)", "FLOAT", "1.5", nil},
		{"max($$[\"missing_int\"], 1)", "INTEGER | MISSING", "MISSING", nil},
		{"is_nan(NaN)", "BOOLEAN", "true", nil},
		{"is_nan(1)", "BOOLEAN", "false", nil},

		{`upper_case("abc")`, "STRING", "ABC", nil},
		{`lower_case($$["name"])`, "STRING", "ada", nil},
		{`length("héllo")`, "INTEGER", "5", nil},
		{`strip("  x ")`, "STRING", "x", nil},
		{`contains("hello", "ell")`, "BOOLEAN", "true", nil},
		{`starts_with("hello", "lo")`, "BOOLEAN", "false", nil},
		{`ends_with("hello", "lo")`, "BOOLEAN", "true", nil},
		{`substr("hello", 1, 3)`, "STRING", "ell", nil},
		{`substr("hi", 5, 1)`, "STRING", "", nil},
		{`replace("a-b-c", "-", "+")`, "STRING", "a+b+c", nil},
		{`to_string(MISSING)`, "STRING", "MISSING", nil},
		{`to_string(1.5)`, "STRING", "1.5", nil},

		{"if(true, 1, 2.5)", "FLOAT", "1.0", nil},
		{`if(false, "a", MISSING)`, "STRING | MISSING", "MISSING", nil},
		{`if(1 < 2, "yes", "no")`, "STRING", "yes", nil},
		{"is_missing(MISSING)", "BOOLEAN", "true", nil},
		{`is_missing($$["missing_int"])`, "BOOLEAN", "true", nil},
		{"coalesce(MISSING, 3)", "INTEGER", "3", nil},
		{`coalesce($$["missing_int"], 1)`, "INTEGER", "1", nil},
		{`coalesce($$["missing_int"], MISSING)`, "INTEGER | MISSING", "MISSING", nil},

		{"now()", "ZONED_DATE_TIME", "2024-03-01T10:00Z", nil},
		{"today()", "LOCAL_DATE", "2024-03-01", nil},
		{"make_date(2024, 2, 29)", "LOCAL_DATE | MISSING", "2024-02-29", nil},
		{"make_date(2023, 2, 29)", "LOCAL_DATE | MISSING", "MISSING",
			[]string{"make_date returned MISSING because 2023-2-29 is not a valid date."}},
		{"make_time(13, 5, 0)", "LOCAL_TIME | MISSING", "13:05", nil},
		{"make_time_duration(1, 30, 0)", "TIME_DURATION", "PT1H30M", nil},
		{"make_date_duration(1, 2, 3)", "DATE_DURATION", "P1Y2M3D", nil},
		{"extract_year(make_date(2024, 5, 6))", "INTEGER | MISSING", "2024", nil},
		{"extract_month(now())", "INTEGER", "3", nil},
		{"extract_day_of_month(make_date(2024, 5, 6))", "INTEGER | MISSING", "6", nil},
		{"extract_hour(now())", "INTEGER", "10", nil},
		{`parse_date("2024-01-15")`, "LOCAL_DATE | MISSING", "2024-01-15", nil},
		{`parse_date("nope")`, "LOCAL_DATE | MISSING", "MISSING",
			[]string{`parse_date returned MISSING because "nope" is not a date.`}},
		{`parse_time("08:30")`, "LOCAL_TIME | MISSING", "08:30", nil},
		{`parse_date_time("2024-01-15 08:30:15")`, "LOCAL_DATE_TIME | MISSING", "2024-01-15T08:30:15", nil},
		{`parse_duration("1h30m")`, "TIME_DURATION | MISSING", "PT1H30M", nil},
		{`parse_duration("PT2H")`, "TIME_DURATION | MISSING", "PT2H", nil},

		{`parse_zoned_datetime("1970-01-01T00:00:00Z")`, "ZONED_DATE_TIME | MISSING", "1970-01-01T00:00Z", nil},
		{`parse_zoned_datetime("1970-01-01T00:00:00+01:00[Europe/Paris]")`, "ZONED_DATE_TIME | MISSING",
			"1970-01-01T00:00+01:00[Europe/Paris]", nil},
		{`parse_zoned_datetime("1970-01-01T00:00")`, "ZONED_DATE_TIME | MISSING", "MISSING",
			[]string{`parse_zoned_datetime returned MISSING because "1970-01-01T00:00" is not a zoned date-time.`}},
		{`make_zoned(parse_date_time("1970-01-01T00:00"), "UTC")`, "ZONED_DATE_TIME | MISSING", "1970-01-01T00:00Z", nil},
		{`make_zoned(parse_date_time("1970-01-01T00:00"), "europe/berlin")`, "ZONED_DATE_TIME | MISSING",
			"1970-01-01T00:00+01:00[Europe/Berlin]", nil},
		{`make_zoned(parse_date_time("1970-01-01T00:00"), "UTC+07:15")`, "ZONED_DATE_TIME | MISSING", "1970-01-01T00:00+07:15", nil},
		{`make_zoned(parse_date_time("1970-01-01T00:00"), "GMT-3")`, "ZONED_DATE_TIME | MISSING", "1970-01-01T00:00-03:00", nil},
		{`make_zoned(parse_date_time("1970-01-01T00:00"), "Invalid/Zone")`, "ZONED_DATE_TIME | MISSING", "MISSING",
			[]string{"make_zoned returned MISSING because 'Invalid/Zone' is not a valid zone id."}},
		{`is_same_instant(now(), now())`, "BOOLEAN", "true", nil},
		{`is_same_instant(parse_zoned_datetime("1970-01-01T00:00:00Z"), parse_zoned_datetime("1970-01-01T01:00:00+01:00"))`,
			"BOOLEAN", "true", nil},
		{`is_same_instant(parse_zoned_datetime("1970-01-01T00:00:00Z"), parse_zoned_datetime("1970-01-01T01:00:00Z"))`,
			"BOOLEAN", "false", nil},
		{`is_same_instant(parse_zoned_datetime("a"), parse_zoned_datetime("b"))`, "BOOLEAN", "true",
			[]string{
				`parse_zoned_datetime returned MISSING because "a" is not a zoned date-time.`,
				`parse_zoned_datetime returned MISSING because "b" is not a zoned date-time.`,
			}},
		{`is_same_instant(now(), parse_zoned_datetime("b"))`, "BOOLEAN", "false",
			[]string{`parse_zoned_datetime returned MISSING because "b" is not a zoned date-time.`}},

		{`parse_int("42")`, "INTEGER | MISSING", "42", nil},
		{`parse_int(" -007 ")`, "INTEGER | MISSING", "-7", nil},
		{`parse_int("010")`, "INTEGER | MISSING", "10", nil},
		{`parse_int("+0")`, "INTEGER | MISSING", "0", nil},
		{`parse_int("x")`, "INTEGER | MISSING", "MISSING",
			[]string{`parse_int returned MISSING because "x" is not an integer.`}},
		{`parse_int("0x1F")`, "INTEGER | MISSING", "MISSING",
			[]string{`parse_int returned MISSING because "0x1F" is not an integer.`}},
		{`parse_int("1_000")`, "INTEGER | MISSING", "MISSING",
			[]string{`parse_int returned MISSING because "1_000" is not an integer.`}},
		{`parse_int("0b11")`, "INTEGER | MISSING", "MISSING",
			[]string{`parse_int returned MISSING because "0b11" is not an integer.`}},
		{`parse_int("99999999999999999999")`, "INTEGER | MISSING", "MISSING",
			[]string{`parse_int returned MISSING because "99999999999999999999" is not an integer.`}},
		{`parse_float("2.5")`, "FLOAT | MISSING", "2.5", nil},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			got, err := evaluate(t, tt.expression)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, got.typ)
			assert.Equal(t, tt.value, got.value)
			assert.Equal(t, tt.warnings, got.warnings)
		})
	}
}

func TestTypingErrors(t *testing.T) {
	tests := []struct {
		expression string
		message    string
	}{
		{`abs("x")`, "In function 'abs': argument 'x' must be INTEGER or FLOAT, got STRING"},
		{`abs(MISSING)`, "In function 'abs': argument 'x' must be INTEGER or FLOAT, got MISSING"},
		{`max(1)`, "In function 'max': expected at least 2 arguments, got 1"},
		{`if(1, 2, 3)`, "In function 'if': argument 'condition' must be BOOLEAN, got INTEGER"},
		{`if(true, 2, "x")`, "In function 'if': incompatible argument types INTEGER and STRING"},
		{`substr("x", 1)`, "In function 'substr': expected 3 arguments, got 2"},
		{`extract_hour(today())`, "In function 'extract_hour': argument 'time' must be a time or date-time, got LOCAL_DATE"},
		{`is_same_instant(now(), today())`, "In function 'is_same_instant': argument 'second' must be ZONED_DATE_TIME, got LOCAL_DATE"},
		{`make_zoned(today(), "UTC")`, "In function 'make_zoned': argument 'datetime' must be LOCAL_DATE_TIME, got LOCAL_DATE"},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			_, err := evaluate(t, tt.expression)
			var errs *engine.CompileErrors
			require.ErrorAs(t, err, &errs)
			require.Len(t, errs.Errors, 1)
			assert.Equal(t, engine.Typing, errs.Errors[0].Kind)
			assert.Equal(t, tt.message, errs.Errors[0].Message)
		})
	}
}

func TestRegistryLookupIgnoresCase(t *testing.T) {
	f, ok := functions.BuiltIns.LookupFunction("UPPER_CASE")
	require.True(t, ok)
	assert.Equal(t, "upper_case", f.Name())

	_, ok = functions.BuiltIns.LookupFunction("no_such_function")
	assert.False(t, ok)

	custom := functions.New("answer", "The answer.",
		func([]types.ValueType) (types.ValueType, error) { return types.Integer, nil },
		func([]computer.Computer) (computer.Computer, error) { return computer.Const(int64(42)), nil })
	r := functions.NewRegistry(custom)
	f, ok = r.LookupFunction("Answer")
	require.True(t, ok)
	assert.Equal(t, "The answer.", f.(*functions.Function).Description())
	assert.Equal(t, []string{"answer"}, r.Names())
}
