package parser

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/types"
)

type testFunction string

func (f testFunction) Name() string { return string(f) }
func (f testFunction) ReturnType([]types.ValueType) (types.ValueType, error) {
	return types.Float, nil
}
func (f testFunction) Apply([]computer.Computer) (computer.Computer, error) {
	return computer.Const(0.0), nil
}

type testAggregation string

func (a testAggregation) Name() string { return string(a) }
func (a testAggregation) ReturnType(ast.AggregationArgs, ast.ColumnTypeResolver) (types.ValueType, error) {
	return types.OptFloat, nil
}

type registry map[string]bool

func (r registry) LookupFunction(name string) (ast.Function, bool) {
	if r[name] {
		return testFunction(name), true
	}
	return nil, false
}

func (r registry) LookupAggregation(name string) (ast.Aggregation, bool) {
	if r[name] {
		return testAggregation(name), true
	}
	return nil, false
}

func parse(t *testing.T, input string) ast.Node {
	t.Helper()
	n, err := Parse(input,
		WithFunctions(registry{"sin": true, "max": true}),
		WithAggregations(registry{"COLUMN_SUM": true}))
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return n
}

func parseErr(t *testing.T, input string) *SyntaxError {
	t.Helper()
	_, err := Parse(input,
		WithFunctions(registry{"sin": true}),
		WithAggregations(registry{"COLUMN_SUM": true}))
	if err == nil {
		t.Fatalf("expected error for %q", input)
	}
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SyntaxError, got %T: %v", err, err)
	}
	return se
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"- 2 ** 2", "(- (2 ** 2))"},
		{"2 ** -1", "(2 ** -1)"},
		{"$a ?? 0 + 1", `($["a"] ?? (0 + 1))`},
		{"$a + 1 ?? 0", `(($["a"] + 1) ?? 0)`},
		{"$a < 1 ?? 2", `($["a"] < (1 ?? 2))`},
		{"not $a == 1", `(not ($["a"] == 1))`},
		{"not $a and $b", `((not $["a"]) and $["b"])`},
		{"$a or $b and $c", `($["a"] or ($["b"] and $["c"]))`},
		{"7 // 2 % 3", "((7 // 2) % 3)"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"1 + # comment\n 2", "(1 + 2)"},
	}
	for _, tt := range tests {
		got := parse(t, tt.input).ToExpression()
		if got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

func TestParseAccesses(t *testing.T) {
	n := parse(t, `$["my col", -2]`)
	c, ok := n.(*ast.ColumnAccess)
	if !ok {
		t.Fatalf("expected *ast.ColumnAccess, got %T", n)
	}
	if c.ID.Name != "my col" || c.Offset != -2 {
		t.Errorf("unexpected access %+v", c)
	}

	if c := parse(t, "$[ROW_ID]").(*ast.ColumnAccess); c.ID.Type != ast.RowID {
		t.Errorf("expected ROW_ID, got %v", c.ID.Type)
	}
	if f := parse(t, `$$["limit"]`).(*ast.FlowVarAccess); f.Name != "limit" {
		t.Errorf("expected flow variable limit, got %q", f.Name)
	}
	if f := parse(t, "$$limit").(*ast.FlowVarAccess); f.Name != "limit" {
		t.Errorf("expected flow variable limit, got %q", f.Name)
	}
}

func TestParseRowNumber(t *testing.T) {
	n := parse(t, "$[ROW_NUMBER]")
	if got := n.ToExpression(); got != "($[ROW_INDEX] + 1)" {
		t.Errorf("expected ($[ROW_INDEX] + 1), got %s", got)
	}
}

func TestParseConstants(t *testing.T) {
	tests := []struct {
		input string
		check func(float64) bool
	}{
		{"NaN", math.IsNaN},
		{"INFINITY", func(v float64) bool { return math.IsInf(v, 1) }},
		{"-INFINITY", func(v float64) bool { return math.IsInf(v, -1) }},
		{"PI", func(v float64) bool { return v == math.Pi }},
		{"E", func(v float64) bool { return v == math.E }},
		{"2.5E-3", func(v float64) bool { return v == 0.0025 }},
	}
	for _, tt := range tests {
		n := parse(t, tt.input)
		f, ok := n.(*ast.FloatConstant)
		if !ok {
			t.Errorf("%s: expected *ast.FloatConstant, got %T", tt.input, n)
			continue
		}
		if !tt.check(f.Value) {
			t.Errorf("%s: unexpected value %v", tt.input, f.Value)
		}
	}

	if _, ok := parse(t, "MISSING").(*ast.MissingConstant); !ok {
		t.Error("expected MISSING constant")
	}
	if b := parse(t, "TRUE").(*ast.BooleanConstant); !b.Value {
		t.Error("expected true")
	}
	if s := parse(t, `'it\'s'`).(*ast.StringConstant); s.Value != "it's" {
		t.Errorf("expected it's, got %q", s.Value)
	}
}

func TestParseCalls(t *testing.T) {
	n := parse(t, `max(sin($a), 2)`)
	fc, ok := n.(*ast.FunctionCall)
	if !ok {
		t.Fatalf("expected *ast.FunctionCall, got %T", n)
	}
	if fc.Function.Name() != "max" || len(fc.Args) != 2 {
		t.Errorf("unexpected call %s", fc.ToExpression())
	}

	n = parse(t, `COLUMN_SUM("a", ignore_nan=true)`)
	ac, ok := n.(*ast.AggregationCall)
	if !ok {
		t.Fatalf("expected *ast.AggregationCall, got %T", n)
	}
	if len(ac.Args.Positional) != 1 {
		t.Fatalf("expected 1 positional argument, got %d", len(ac.Args.Positional))
	}
	v, ok := ac.Args.Get("ignore_nan")
	if !ok {
		t.Fatal("expected named argument ignore_nan")
	}
	if b, ok := v.(*ast.BooleanConstant); !ok || !b.Value {
		t.Errorf("expected ignore_nan=true, got %s", v.ToExpression())
	}

	if fc := parse(t, "sin()").(*ast.FunctionCall); len(fc.Args) != 0 {
		t.Errorf("expected no arguments, got %d", len(fc.Args))
	}
}

func TestParseLocations(t *testing.T) {
	n := parse(t, `$a + sin(1.5)`)
	loc := n.Annotations().Location
	if loc == nil || loc.Start != 0 || loc.End != 13 {
		t.Fatalf("expected [0,13), got %v", loc)
	}
	call := n.(*ast.BinaryOp).Right
	if loc := call.Annotations().Location; loc.Start != 5 || loc.End != 13 {
		t.Errorf("expected call at [5,13), got %s", loc)
	}
	arg := call.Children()[0]
	if loc := arg.Annotations().Location; loc.Start != 9 || loc.End != 12 {
		t.Errorf("expected argument at [9,12), got %s", loc)
	}
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		`$["a"] + $["b", -1] * 2.0`,
		`not ($a < 1.5e300 or $$["v"] >= -3) and true`,
		`$[ROW_ID] + "x\n\"y\"" + 'z'`,
		`($[ROW_INDEX] // 2) % 3 ** 2`,
		`- $a ?? MISSING`,
		`sin(-INFINITY) != NaN`,
		`COLUMN_SUM("a", ignore_nan=false) / max(1, -9223372036854775808)`,
		`-1.5 - -2 - (- 3)`,
	}
	for _, in := range inputs {
		first := parse(t, in)
		text := first.ToExpression()
		second := parse(t, text)
		if !ast.Equal(first, second) {
			t.Errorf("round-trip of %q changed the tree: %s vs %s", in, text, second.ToExpression())
		}
		if again := second.ToExpression(); again != text {
			t.Errorf("toExpression is not stable: %s vs %s", text, again)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
		pos   int
	}{
		{"1 +", "unexpected token EOF", 3},
		{"(1 + 2", "expected )", 6},
		{"1 2", "unexpected token INT", 2},
		{"foo(1)", `unknown function "foo"`, 0},
		{"FOO", `unknown identifier "FOO"`, 0},
		{`$[1]`, "expected a column name", 2},
		{`$["a", x]`, "expected INT", 7},
		{`COLUMN_SUM($a)`, "must be constants", 11},
		{`COLUMN_SUM(ignore_nan=true, "a")`, "positional argument follows named argument", 28},
		{`sin(x=1)`, "does not accept named argument", 6},
		{`"open`, "unterminated string", 0},
	}
	for _, tt := range tests {
		se := parseErr(t, tt.input)
		if !strings.Contains(se.Msg, tt.msg) {
			t.Errorf("%q: expected message containing %q, got %q", tt.input, tt.msg, se.Msg)
		}
		if se.Pos != tt.pos {
			t.Errorf("%q: expected position %d, got %d", tt.input, tt.pos, se.Pos)
		}
	}
}

func TestParseWithoutRegistries(t *testing.T) {
	if _, err := Parse("sin(1)"); err == nil {
		t.Error("expected unknown function error without a function registry")
	}
	if _, err := Parse("1 + 2"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
