package table

import (
	"math"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/razeghi71/dqexpr/types"
)

func usersTable() *Table {
	t := NewTable([]string{"name", "age", "score"})
	t.AddRow([]Value{StrVal("Alice"), IntVal(30), FloatVal(1.5)})
	t.AddRow([]Value{StrVal("Bob"), IntVal(25), IntVal(2)})
	t.AddRow([]Value{StrVal("Charlie"), Null(), FloatVal(3.25)})
	t.AddRow([]Value{StrVal("Diana"), IntVal(28), Null()})
	return t
}

func TestRowIDs(t *testing.T) {
	tbl := usersTable()
	for i, r := range tbl.Rows {
		if r.ID != DefaultRowID(i) {
			t.Errorf("row %d: expected id %s, got %s", i, DefaultRowID(i), r.ID)
		}
	}
	tbl.AddRowWithID("custom", []Value{StrVal("Eve"), IntVal(22), Null()})
	if tbl.Rows[4].ID != "custom" {
		t.Errorf("expected custom row id, got %s", tbl.Rows[4].ID)
	}
}

func TestSchema(t *testing.T) {
	tbl := usersTable()
	tbl.Columns = append(tbl.Columns, "mixed", "empty")
	kinds := []Value{IntVal(1), StrVal("x"), BoolVal(true), Null()}
	for i := range tbl.Rows {
		tbl.Rows[i].Values = append(tbl.Rows[i].Values, kinds[i], Null())
	}

	want := []types.ValueType{types.OptString, types.OptInteger, types.OptFloat, types.OptString, types.OptString}
	got := tbl.Schema()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %s: expected %s, got %s", tbl.Columns[i], want[i], got[i])
		}
	}

	tbl.Declare("empty", types.KindDateDuration)
	if got := tbl.Schema()[4]; got != types.OptDateDuration {
		t.Errorf("expected declared kind to win, got %s", got)
	}
}

func TestCoerce(t *testing.T) {
	tbl := usersTable()
	coerced, err := tbl.Coerce()
	if err != nil {
		t.Fatalf("coerce: %v", err)
	}
	v := coerced.Rows[1].Values[2]
	if v.Kind != types.KindFloat || v.Float != 2 {
		t.Errorf("expected the INTEGER score to become 2.0, got %s %s", v.Kind, v.AsString())
	}
	if tbl.Rows[1].Values[2].Kind != types.KindInteger {
		t.Errorf("coerce must not modify the original table")
	}

	tbl.Declare("name", types.KindInteger)
	if _, err := tbl.Coerce(); err == nil {
		t.Errorf("expected an error when text cannot become INTEGER")
	}
}

func TestSetColumn(t *testing.T) {
	tbl := usersTable()
	vals := []Value{BoolVal(true), BoolVal(false), BoolVal(true), Null()}

	added, err := tbl.SetColumn("adult", vals)
	if err != nil {
		t.Fatalf("set column: %v", err)
	}
	if len(added.Columns) != 4 || added.Columns[3] != "adult" {
		t.Fatalf("unexpected columns: %v", added.Columns)
	}
	if !added.Rows[0].Values[3].Bool {
		t.Errorf("expected the new value in row 0")
	}
	if len(tbl.Columns) != 3 {
		t.Errorf("set column must not modify the original table")
	}

	replaced, err := tbl.SetColumn("age", vals)
	if err != nil {
		t.Fatalf("set column: %v", err)
	}
	if len(replaced.Columns) != 3 || replaced.Rows[0].Values[1].Kind != types.KindBoolean {
		t.Errorf("expected age to be replaced in place")
	}

	if _, err := tbl.SetColumn("short", vals[:2]); err == nil {
		t.Errorf("expected an error for a wrong number of values")
	}
}

func TestFilterKeepsRowIDs(t *testing.T) {
	tbl := usersTable()
	result, err := tbl.Filter(func(row int) (bool, error) {
		return row%2 == 1, nil
	})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	if result.Rows[0].ID != "Row1" || result.Rows[1].ID != "Row3" {
		t.Errorf("unexpected row ids %s, %s", result.Rows[0].ID, result.Rows[1].ID)
	}
}

func TestHeadTail(t *testing.T) {
	tbl := usersTable()
	if got := tbl.Head(2); len(got.Rows) != 2 || got.Rows[1].Values[0].Str != "Bob" {
		t.Errorf("unexpected head: %s", got)
	}
	if got := tbl.Head(10); len(got.Rows) != 4 {
		t.Errorf("expected head beyond the end to return all rows")
	}
	if got := tbl.Tail(1); len(got.Rows) != 1 || got.Rows[0].ID != "Row3" {
		t.Errorf("unexpected tail: %s", got)
	}
}

func TestSelect(t *testing.T) {
	result, err := usersTable().Select("score", "name")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if result.Columns[0] != "score" || result.Columns[1] != "name" {
		t.Errorf("unexpected columns: %v", result.Columns)
	}
	if result.Rows[2].Values[1].Str != "Charlie" {
		t.Errorf("unexpected value %s", result.Rows[2].Values[1].AsString())
	}
	if _, err := usersTable().Select("nope"); err == nil {
		t.Errorf("expected an error for an unknown column")
	}
}

func TestSortBy(t *testing.T) {
	asc, err := usersTable().SortBy([]string{"age"}, true)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	var names []string
	for _, r := range asc.Rows {
		names = append(names, r.Values[0].Str)
	}
	if got := names[0] + "," + names[1] + "," + names[2] + "," + names[3]; got != "Bob,Diana,Alice,Charlie" {
		t.Errorf("unexpected ascending order %s", got)
	}

	desc, err := usersTable().SortBy([]string{"age"}, false)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if desc.Rows[0].Values[0].Str != "Alice" || desc.Rows[3].Values[0].Str != "Charlie" {
		t.Errorf("expected missing ages last when descending too, got %s", desc)
	}
}

func TestCompare(t *testing.T) {
	d1 := DateVal(civil.Date{Year: 2024, Month: 1, Day: 2})
	d2 := DateVal(civil.Date{Year: 2023, Month: 12, Day: 31})
	tests := []struct {
		a, b Value
		want int
	}{
		{IntVal(1), FloatVal(1.5), -1},
		{FloatVal(2), IntVal(2), 0},
		{Null(), IntVal(1), 1},
		{d1, d2, 1},
		{BoolVal(false), BoolVal(true), -1},
		{StrVal("a"), StrVal("b"), -1},
		{FloatVal(math.Inf(1)), FloatVal(1), 1},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a.AsString(), tt.b.AsString(), got, tt.want)
		}
	}
}

func TestAsString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Null(), "MISSING"},
		{IntVal(-4), "-4"},
		{FloatVal(2), "2.0"},
		{BoolVal(true), "true"},
		{DateVal(civil.Date{Year: 2024, Month: 3, Day: 9}), "2024-03-09"},
		{TimeVal(civil.Time{Hour: 8, Minute: 5}), "08:05"},
	}
	for _, tt := range tests {
		if got := tt.v.AsString(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
