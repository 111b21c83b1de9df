package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	goavro "github.com/linkedin/goavro/v2"
	parquet "github.com/parquet-go/parquet-go"
	"github.com/razeghi71/dqexpr/types"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		kind types.Kind
		str  string
	}{
		{"42", types.KindInteger, "42"},
		{"-7", types.KindInteger, "-7"},
		{"1.5", types.KindFloat, "1.5"},
		{"true", types.KindBoolean, "true"},
		{"FALSE", types.KindBoolean, "false"},
		{"2024-01-02", types.KindLocalDate, "2024-01-02"},
		{"08:30", types.KindLocalTime, "08:30"},
		{"08:30:15", types.KindLocalTime, "08:30:15"},
		{"2024-01-02T08:30:00", types.KindLocalDateTime, "2024-01-02T08:30"},
		{"2024-01-02T08:30:00Z", types.KindZonedDateTime, "2024-01-02T08:30Z"},
		{"PT1H30M", types.KindTimeDuration, "PT1H30M"},
		{"90m", types.KindTimeDuration, "PT1H30M"},
		{"P1Y2M", types.KindDateDuration, "P1Y2M"},
		{"hello", types.KindString, "hello"},
		{"F", types.KindString, "F"},
		{"t", types.KindString, "t"},
		{"yes", types.KindString, "yes"},
		{"1", types.KindInteger, "1"},
	}
	for _, tt := range tests {
		v := ParseValue(tt.in)
		if v.IsNull() || v.Kind != tt.kind {
			t.Errorf("ParseValue(%q): expected %s, got %s", tt.in, tt.kind, v.Kind)
			continue
		}
		if got := v.AsString(); got != tt.str {
			t.Errorf("ParseValue(%q): expected %q, got %q", tt.in, tt.str, got)
		}
	}

	for _, in := range []string{"", "null", "NULL", "MISSING"} {
		if v := ParseValue(in); !v.IsNull() {
			t.Errorf("ParseValue(%q): expected missing, got %s", in, v.AsString())
		}
	}
}

func TestReadCSV(t *testing.T) {
	input := "name, age, joined\nAlice,30,2024-01-02\nBob,,2024-02-03\nCharlie,35\n"
	tbl, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(tbl.Columns) != 3 || tbl.Columns[1] != "age" {
		t.Fatalf("unexpected columns %v", tbl.Columns)
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(tbl.Rows))
	}
	if !tbl.Rows[1].Values[1].IsNull() || !tbl.Rows[2].Values[2].IsNull() {
		t.Errorf("expected empty and absent cells to be missing")
	}

	want := []types.ValueType{types.OptString, types.OptInteger, types.OptLocalDate}
	for i, vt := range tbl.Schema() {
		if vt != want[i] {
			t.Errorf("column %s: expected %s, got %s", tbl.Columns[i], want[i], vt)
		}
	}
}

func TestReadCSVRaggedRows(t *testing.T) {
	input := "a,b,c\n1\n1,2\n1,2,3\n"
	tbl, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(tbl.Rows))
	}
	for i, row := range tbl.Rows {
		if len(row.Values) != 3 {
			t.Errorf("row %d: expected 3 values, got %d", i, len(row.Values))
		}
		for j := i + 1; j < 3; j++ {
			if !row.Values[j].IsNull() {
				t.Errorf("row %d column %d: expected missing, got %s", i, j, row.Values[j].AsString())
			}
		}
	}
}

func TestFlagLettersAreStrings(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("flag\nF\nT\nF\n"))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if got := tbl.Schema()[0]; got != types.OptString {
		t.Errorf("expected %s, got %s", types.OptString, got)
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	data := `[{"name": "a", "n": 1, "when": "2024-01-02"}, {"name": "b", "n": 2.5, "extra": true}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := strings.Join(tbl.Columns, ","); got != "n,name,when,extra" {
		t.Errorf("unexpected columns %s", got)
	}
	if tbl.Schema()[0] != types.OptFloat {
		t.Errorf("expected n to be FLOAT, got %s", tbl.Schema()[0])
	}
	if v := tbl.Get(0, "when"); v.Kind != types.KindLocalDate {
		t.Errorf("expected a date, got %s", v.Kind)
	}
	if v := tbl.Get(0, "extra"); !v.IsNull() {
		t.Errorf("expected extra to be missing in row 0")
	}
}

func TestLoadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	data := "{\"x\": 1}\n\n{\"x\": 2}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tbl.Rows) != 2 || tbl.Get(1, "x").Int != 2 {
		t.Errorf("unexpected table %s", tbl)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := Load("data.xlsx"); err == nil {
		t.Errorf("expected an error for .xlsx")
	}
}

const userSchema = `{
	"type": "record",
	"name": "User",
	"fields": [
		{"name": "name", "type": "string"},
		{"name": "age", "type": "long"},
		{"name": "score", "type": ["null", "double"]},
		{"name": "joined", "type": {"type": "int", "logicalType": "date"}}
	]
}`

func TestReadAvro(t *testing.T) {
	var buf bytes.Buffer
	w, err := goavro.NewOCFWriter(goavro.OCFConfig{W: &buf, Schema: userSchema})
	if err != nil {
		t.Fatalf("avro writer: %v", err)
	}
	joined := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	err = w.Append([]interface{}{
		map[string]interface{}{"name": "Alice", "age": int64(30), "score": goavro.Union("double", 1.5), "joined": joined},
		map[string]interface{}{"name": "Bob", "age": int64(25), "score": nil, "joined": joined},
	})
	if err != nil {
		t.Fatalf("avro append: %v", err)
	}

	tbl, err := ReadAvro(&buf)
	if err != nil {
		t.Fatalf("read avro: %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	want := []types.ValueType{types.OptString, types.OptInteger, types.OptFloat, types.OptLocalDate}
	for i, vt := range tbl.Schema() {
		if vt != want[i] {
			t.Errorf("column %s: expected %s, got %s", tbl.Columns[i], want[i], vt)
		}
	}
	if v := tbl.Get(0, "score"); v.Float != 1.5 {
		t.Errorf("expected score 1.5, got %s", v.AsString())
	}
	if !tbl.Get(1, "score").IsNull() {
		t.Errorf("expected Bob's score to be missing")
	}
	if v := tbl.Get(1, "joined"); v.Date != (civil.Date{Year: 2024, Month: 5, Day: 6}) {
		t.Errorf("unexpected date %s", v.AsString())
	}
}

type parquetUser struct {
	Name  string   `parquet:"name"`
	Age   int32    `parquet:"age"`
	Score *float64 `parquet:"score,optional"`
}

func TestReadParquet(t *testing.T) {
	var buf bytes.Buffer
	w := parquet.NewWriter(&buf)
	score := 2.5
	for _, u := range []parquetUser{{"Alice", 30, &score}, {"Bob", 25, nil}} {
		if err := w.Write(u); err != nil {
			t.Fatalf("parquet write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("parquet close: %v", err)
	}

	tbl, err := ReadParquet(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	if got := strings.Join(tbl.Columns, ","); got != "name,age,score" {
		t.Errorf("unexpected columns %s", got)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if v := tbl.Get(0, "age"); v.Kind != types.KindInteger || v.Int != 30 {
		t.Errorf("unexpected age %s", v.AsString())
	}
	if v := tbl.Get(0, "name"); v.Str != "Alice" {
		t.Errorf("unexpected name %s", v.AsString())
	}
	if v := tbl.Get(0, "score"); v.Float != 2.5 {
		t.Errorf("unexpected score %s", v.AsString())
	}
	if !tbl.Get(1, "score").IsNull() {
		t.Errorf("expected Bob's score to be missing")
	}
	if tbl.Schema()[2] != types.OptFloat {
		t.Errorf("expected score to be FLOAT, got %s", tbl.Schema()[2])
	}
}
