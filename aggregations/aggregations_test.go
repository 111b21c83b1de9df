package aggregations_test

import (
	"math"
	"testing"
	"time"

	"github.com/razeghi71/dqexpr/aggregations"
	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/engine"
	"github.com/razeghi71/dqexpr/parser"
	"github.com/razeghi71/dqexpr/table"
	"github.com/razeghi71/dqexpr/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.NewTable([]string{"ints", "floats", "empty", "strs"})
	tbl.AddRow([]table.Value{table.IntVal(1), table.FloatVal(1.5), table.Null(), table.StrVal("a")})
	tbl.AddRow([]table.Value{table.IntVal(5), table.FloatVal(math.NaN()), table.Null(), table.StrVal("b")})
	tbl.AddRow([]table.Value{table.Null(), table.FloatVal(2.5), table.Null(), table.Null()})
	tbl.AddRow([]table.Value{table.IntVal(3), table.Null(), table.Null(), table.StrVal("c")})
	tbl.Declare("empty", types.KindInteger)
	coerced, err := tbl.Coerce()
	require.NoError(t, err)
	return coerced
}

func parse(t *testing.T, expression string) *ast.AggregationCall {
	t.Helper()
	root, err := parser.Parse(expression, parser.WithAggregations(aggregations.BuiltIns))
	require.NoError(t, err)
	call, ok := root.(*ast.AggregationCall)
	require.True(t, ok, "expected an aggregation call, got %T", root)
	return call
}

func columnTypes(tbl *table.Table) engine.TypeResolver {
	schema := tbl.Schema()
	return func(name string) (types.ValueType, error) {
		idx := tbl.ColIndex(name)
		if idx < 0 {
			return types.ValueType{}, assert.AnError
		}
		return schema[idx], nil
	}
}

func aggregate(t *testing.T, tbl *table.Table, expression string) (computer.Computer, string) {
	t.Helper()
	call := parse(t, expression)
	vt, err := engine.InferTypes(call, columnTypes(tbl), nil)
	require.NoError(t, err)

	agg, err := aggregations.New(call, tbl)
	require.NoError(t, err)
	for i := range tbl.Rows {
		agg.AddRow(i)
	}
	return agg.Result(), vt.Name()
}

func TestAggregations(t *testing.T) {
	tbl := testTable(t)
	tests := []struct {
		expression string
		typ        string
		value      string
	}{
		{`COLUMN_MIN("ints")`, "INTEGER | MISSING", "1"},
		{`COLUMN_MAX("ints")`, "INTEGER | MISSING", "5"},
		{`COLUMN_SUM("ints")`, "INTEGER | MISSING", "9"},
		{`COLUMN_AVERAGE("ints")`, "FLOAT | MISSING", "3.0"},
		{`COLUMN_MEDIAN("ints")`, "FLOAT | MISSING", "3.0"},
		{`COLUMN_COUNT("ints")`, "INTEGER", "4"},
		{`COLUMN_COUNT("ints", ignore_missing=true)`, "INTEGER", "3"},
		{`COLUMN_COUNT("strs", true)`, "INTEGER", "3"},
		{`COLUMN_MIN("floats")`, "FLOAT | MISSING", "NaN"},
		{`COLUMN_MIN("floats", ignore_nan=true)`, "FLOAT | MISSING", "1.5"},
		{`COLUMN_MAX("floats", ignore_nan=true)`, "FLOAT | MISSING", "2.5"},
		{`COLUMN_SUM("floats", ignore_nan=true)`, "FLOAT | MISSING", "4.0"},
		{`COLUMN_AVERAGE("floats", ignore_nan=true)`, "FLOAT | MISSING", "2.0"},
		{`COLUMN_MEDIAN("floats", ignore_nan=true)`, "FLOAT | MISSING", "2.0"},
		{`COLUMN_MEDIAN("floats")`, "FLOAT | MISSING", "NaN"},
		{`column_sum(column="ints")`, "INTEGER | MISSING", "9"},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			c, typ := aggregate(t, tbl, tt.expression)
			assert.Equal(t, tt.typ, typ)
			ctx := computer.NewWarningCollector(time.Now())
			s, err := computer.StringRepresentation(ctx, c)
			require.NoError(t, err)
			assert.Equal(t, tt.value, s)
			assert.Empty(t, ctx.Warnings)
		})
	}
}

func TestVariance(t *testing.T) {
	tbl := testTable(t)
	ctx := computer.NewWarningCollector(time.Now())

	c, _ := aggregate(t, tbl, `COLUMN_VARIANCE("ints")`)
	v, missing, err := computer.Value(ctx, c.(computer.Float))
	require.NoError(t, err)
	require.False(t, missing)
	assert.InDelta(t, 8.0/3.0, v, 1e-9)

	c, _ = aggregate(t, tbl, `COLUMN_STD_DEV("ints")`)
	v, _, err = computer.Value(ctx, c.(computer.Float))
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(8.0/3.0), v, 1e-9)
}

func TestAllMissingColumnWarns(t *testing.T) {
	tbl := testTable(t)
	for _, name := range []string{"COLUMN_SUM", "COLUMN_MIN", "COLUMN_AVERAGE", "COLUMN_STD_DEV"} {
		t.Run(name, func(t *testing.T) {
			c, _ := aggregate(t, tbl, name+`("empty")`)
			ctx := computer.NewWarningCollector(time.Now())
			missing, err := c.IsMissing(ctx)
			require.NoError(t, err)
			assert.True(t, missing)
			assert.Equal(t, []string{name + " returned MISSING because all values were MISSING."}, ctx.Warnings)
		})
	}
}

func TestAllNaNIgnored(t *testing.T) {
	tbl := table.NewTable([]string{"x"})
	tbl.AddRow([]table.Value{table.FloatVal(math.NaN())})
	tbl.AddRow([]table.Value{table.Null()})

	c, _ := aggregate(t, tbl, `COLUMN_MAX("x", ignore_nan=true)`)
	ctx := computer.NewWarningCollector(time.Now())
	missing, err := c.IsMissing(ctx)
	require.NoError(t, err)
	assert.True(t, missing)
	assert.Equal(t, []string{"COLUMN_MAX returned MISSING because all values were either MISSING or NaN."}, ctx.Warnings)

	c, _ = aggregate(t, tbl, `COLUMN_SUM("x", ignore_nan=true)`)
	ctx.Reset()
	s, err := computer.StringRepresentation(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "0.0", s)
	assert.Equal(t, []string{"COLUMN_SUM returned 0 because all values were NaN."}, ctx.Warnings)
}

func TestArgumentErrors(t *testing.T) {
	tbl := testTable(t)
	tests := []struct {
		expression string
		message    string
	}{
		{`COLUMN_SUM("strs")`, "In aggregation 'COLUMN_SUM': column 'strs' must be INTEGER or FLOAT, got STRING | MISSING"},
		{`COLUMN_MIN(ignore_nan=true)`, "In aggregation 'COLUMN_MIN': missing argument 'column'"},
		{`COLUMN_MIN("ints", foo=true)`, "In aggregation 'COLUMN_MIN': unknown argument 'foo'"},
		{`COLUMN_MIN("ints", ignore_nan=1)`, "In aggregation 'COLUMN_MIN': argument 'ignore_nan' must be BOOLEAN"},
		{`COLUMN_MIN(1)`, "In aggregation 'COLUMN_MIN': argument 'column' must be a STRING naming a column"},
		{`COLUMN_MIN("ints", true, column="ints")`, "In aggregation 'COLUMN_MIN': argument 'column' is given twice"},
		{`COLUMN_COUNT("ints", true, 1)`, "In aggregation 'COLUMN_COUNT': expected at most 2 arguments, got 3"},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			_, err := engine.InferTypes(parse(t, tt.expression), columnTypes(tbl), nil)
			var errs *engine.CompileErrors
			require.ErrorAs(t, err, &errs)
			require.Len(t, errs.Errors, 1)
			assert.Equal(t, tt.message, errs.Errors[0].Message)
		})
	}
}

func TestLookupIgnoresCase(t *testing.T) {
	agg, ok := aggregations.BuiltIns.LookupAggregation("column_median")
	require.True(t, ok)
	assert.Equal(t, "COLUMN_MEDIAN", agg.Name())

	_, ok = aggregations.BuiltIns.LookupAggregation("COLUMN_MODE")
	assert.False(t, ok)
}
