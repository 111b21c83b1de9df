package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/temporal"
	"github.com/razeghi71/dqexpr/types"
)

// Value is a typed cell in a table. A null value is MISSING.
type Value struct {
	Kind     types.Kind
	Null     bool
	Int      int64
	Float    float64
	Str      string
	Bool     bool
	Date     civil.Date
	Time     civil.Time
	DateTime civil.DateTime
	Zoned    time.Time
	Duration time.Duration
	Period   temporal.Period
}

// Null returns a missing value.
func Null() Value {
	return Value{Kind: types.KindMissing, Null: true}
}

// IntVal creates an integer value.
func IntVal(v int64) Value {
	return Value{Kind: types.KindInteger, Int: v}
}

// FloatVal creates a float value.
func FloatVal(v float64) Value {
	return Value{Kind: types.KindFloat, Float: v}
}

// StrVal creates a string value.
func StrVal(v string) Value {
	return Value{Kind: types.KindString, Str: v}
}

// BoolVal creates a boolean value.
func BoolVal(v bool) Value {
	return Value{Kind: types.KindBoolean, Bool: v}
}

// DateVal creates a local date value.
func DateVal(v civil.Date) Value {
	return Value{Kind: types.KindLocalDate, Date: v}
}

// TimeVal creates a local time value.
func TimeVal(v civil.Time) Value {
	return Value{Kind: types.KindLocalTime, Time: v}
}

// DateTimeVal creates a local date-time value.
func DateTimeVal(v civil.DateTime) Value {
	return Value{Kind: types.KindLocalDateTime, DateTime: v}
}

// ZonedVal creates a zoned date-time value.
func ZonedVal(v time.Time) Value {
	return Value{Kind: types.KindZonedDateTime, Zoned: v}
}

// DurationVal creates a time duration value.
func DurationVal(v time.Duration) Value {
	return Value{Kind: types.KindTimeDuration, Duration: v}
}

// PeriodVal creates a date duration value.
func PeriodVal(v temporal.Period) Value {
	return Value{Kind: types.KindDateDuration, Period: v}
}

// IsNull returns true if the value is missing.
func (v Value) IsNull() bool {
	return v.Null
}

// AsFloat attempts to coerce to float64 for arithmetic.
func (v Value) AsFloat() (float64, bool) {
	if v.Null {
		return 0, false
	}
	switch v.Kind {
	case types.KindInteger:
		return float64(v.Int), true
	case types.KindFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) {
	if v.Null || v.Kind != types.KindBoolean {
		return false, false
	}
	return v.Bool, true
}

// AsString returns the canonical text of the value.
func (v Value) AsString() string {
	if v.Null {
		return "MISSING"
	}
	switch v.Kind {
	case types.KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case types.KindFloat:
		return computer.FormatFloat(v.Float)
	case types.KindString:
		return v.Str
	case types.KindBoolean:
		return strconv.FormatBool(v.Bool)
	case types.KindLocalDate:
		return temporal.FormatDate(v.Date)
	case types.KindLocalTime:
		return temporal.FormatTime(v.Time)
	case types.KindLocalDateTime:
		return temporal.FormatDateTime(v.DateTime)
	case types.KindZonedDateTime:
		return temporal.FormatZoned(v.Zoned)
	case types.KindTimeDuration:
		return temporal.FormatDuration(v.Duration)
	case types.KindDateDuration:
		return v.Period.String()
	default:
		return "?"
	}
}

// Convert returns v as a value of kind k. Integers widen to floats and every
// kind converts to STRING via its canonical text.
func (v Value) Convert(k types.Kind) (Value, error) {
	switch {
	case v.Null || v.Kind == k:
		return v, nil
	case k == types.KindFloat && v.Kind == types.KindInteger:
		return FloatVal(float64(v.Int)), nil
	case k == types.KindString:
		return StrVal(v.AsString()), nil
	}
	return Value{}, fmt.Errorf("cannot convert %s value %q to %s", v.Kind, v.AsString(), k)
}

// Row is a single row in a table, mapping column index to value.
type Row struct {
	ID     string
	Values []Value
}

// Table is the core data structure: columns + rows.
type Table struct {
	Columns []string
	Rows    []Row
	// Declared holds a kind per column known from the source format.
	// KindMissing, or a nil slice, means the kind is inferred from the cells.
	Declared []types.Kind
}

// NewTable creates an empty table with the given columns.
func NewTable(columns []string) *Table {
	return &Table{
		Columns: columns,
		Rows:    nil,
	}
}

// DefaultRowID returns the id given to the row at index i.
func DefaultRowID(i int) string {
	return "Row" + strconv.Itoa(i)
}

// ColIndex returns the index of a column by name, or -1.
func (t *Table) ColIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AddRow appends a row with the default row id.
func (t *Table) AddRow(values []Value) {
	t.AddRowWithID(DefaultRowID(len(t.Rows)), values)
}

// AddRowWithID appends a row with the given row id.
func (t *Table) AddRowWithID(id string, values []Value) {
	t.Rows = append(t.Rows, Row{ID: id, Values: values})
}

// Get returns the value at a given row and column name.
func (t *Table) Get(row int, col string) Value {
	idx := t.ColIndex(col)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return Null()
	}
	return t.Rows[row].Values[idx]
}

// Column returns the values of the column at idx.
func (t *Table) Column(idx int) []Value {
	vals := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		vals[i] = r.Values[idx]
	}
	return vals
}

// Schema infers the type of every column. Columns are always optional. Mixed
// INTEGER and FLOAT cells give FLOAT, any other mix gives STRING, and a column
// without values is STRING.
func (t *Table) Schema() []types.ValueType {
	schema := make([]types.ValueType, len(t.Columns))
	for c := range t.Columns {
		kind, seen := types.KindMissing, false
		for _, r := range t.Rows {
			v := r.Values[c]
			if v.Null {
				continue
			}
			switch {
			case !seen:
				kind, seen = v.Kind, true
			case kind == v.Kind:
			case isNumericKind(kind) && isNumericKind(v.Kind):
				kind = types.KindFloat
			default:
				kind = types.KindString
			}
		}
		if d := t.declared(c); d != types.KindMissing {
			kind, seen = d, true
		}
		if !seen {
			kind = types.KindString
		}
		schema[c] = types.Of(kind).Optional()
	}
	return schema
}

// Declare records the kind of the named column.
func (t *Table) Declare(name string, kind types.Kind) {
	idx := t.ColIndex(name)
	if idx < 0 {
		return
	}
	for len(t.Declared) < len(t.Columns) {
		t.Declared = append(t.Declared, types.KindMissing)
	}
	t.Declared[idx] = kind
}

func (t *Table) declared(c int) types.Kind {
	if c < len(t.Declared) {
		return t.Declared[c]
	}
	return types.KindMissing
}

func isNumericKind(k types.Kind) bool {
	return k == types.KindInteger || k == types.KindFloat
}

// Coerce returns a copy of the table in which every cell has the kind of its
// column in Schema.
func (t *Table) Coerce() (*Table, error) {
	schema := t.Schema()
	result := t.Clone()
	for i := range result.Rows {
		for c, v := range result.Rows[i].Values {
			cv, err := v.Convert(schema[c].Kind())
			if err != nil {
				return nil, fmt.Errorf("column %q, row %s: %w", t.Columns[c], result.Rows[i].ID, err)
			}
			result.Rows[i].Values[c] = cv
		}
	}
	return result, nil
}

// SetColumn returns a copy of the table in which the named column holds
// values. An existing column is replaced in place, a new one is appended.
func (t *Table) SetColumn(name string, values []Value) (*Table, error) {
	if len(values) != len(t.Rows) {
		return nil, fmt.Errorf("column %q: expected %d values, got %d", name, len(t.Rows), len(values))
	}
	result := t.Clone()
	idx := result.ColIndex(name)
	if idx < 0 {
		result.Columns = append(result.Columns, name)
		for i := range result.Rows {
			result.Rows[i].Values = append(result.Rows[i].Values, values[i])
		}
		return result, nil
	}
	for i := range result.Rows {
		result.Rows[i].Values[idx] = values[i]
	}
	return result, nil
}

// Filter returns the rows for which keep returns true. Row ids are preserved.
func (t *Table) Filter(keep func(row int) (bool, error)) (*Table, error) {
	result := NewTable(t.Columns)
	result.Declared = t.Declared
	for i, row := range t.Rows {
		ok, err := keep(i)
		if err != nil {
			return nil, err
		}
		if ok {
			result.AddRowWithID(row.ID, row.Values)
		}
	}
	return result, nil
}

// Clone creates a deep copy of the table structure (shares Value data).
func (t *Table) Clone() *Table {
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		vals := make([]Value, len(r.Values))
		copy(vals, r.Values)
		rows[i] = Row{ID: r.ID, Values: vals}
	}
	var declared []types.Kind
	if t.Declared != nil {
		declared = make([]types.Kind, len(t.Declared))
		copy(declared, t.Declared)
	}
	return &Table{Columns: cols, Rows: rows, Declared: declared}
}

// String returns a compact representation of the table.
func (t *Table) String() string {
	if len(t.Rows) == 0 {
		return "[" + strings.Join(t.Columns, ", ") + "] (0 rows)"
	}

	var sb strings.Builder
	sb.WriteString("[ ")
	for i, r := range t.Rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(r.ID)
		sb.WriteString("{")
		for j, v := range r.Values {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(t.Columns[j])
			sb.WriteString(":")
			sb.WriteString(v.AsString())
		}
		sb.WriteString("}")
	}
	sb.WriteString(" ]")
	return sb.String()
}
