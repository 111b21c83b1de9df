package table

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/razeghi71/dqexpr/temporal"
	"github.com/razeghi71/dqexpr/types"
)

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	result := t.Clone()
	result.Rows = result.Rows[:max(n, 0)]
	return result
}

// Tail returns the last n rows.
func (t *Table) Tail(n int) *Table {
	start := len(t.Rows) - n
	if start < 0 {
		start = 0
	}
	result := t.Clone()
	result.Rows = result.Rows[start:]
	return result
}

// Select returns the named columns in the given order.
func (t *Table) Select(cols ...string) (*Table, error) {
	indices := make([]int, len(cols))
	for i, c := range cols {
		idx := t.ColIndex(c)
		if idx < 0 {
			return nil, fmt.Errorf("select: column %q not found", c)
		}
		indices[i] = idx
	}

	result := NewTable(cols)
	for _, idx := range indices {
		result.Declared = append(result.Declared, t.declared(idx))
	}
	for _, row := range t.Rows {
		vals := make([]Value, len(indices))
		for i, idx := range indices {
			vals[i] = row.Values[idx]
		}
		result.AddRowWithID(row.ID, vals)
	}
	return result, nil
}

// SortBy orders the rows by the given columns. The sort is stable and
// missing values sort last in both directions.
func (t *Table) SortBy(cols []string, asc bool) (*Table, error) {
	indices := make([]int, len(cols))
	for i, c := range cols {
		idx := t.ColIndex(c)
		if idx < 0 {
			return nil, fmt.Errorf("sort: column %q not found", c)
		}
		indices[i] = idx
	}

	result := t.Clone()
	sort.SliceStable(result.Rows, func(i, j int) bool {
		for _, idx := range indices {
			a := result.Rows[i].Values[idx]
			b := result.Rows[j].Values[idx]
			if a.IsNull() || b.IsNull() {
				if a.IsNull() != b.IsNull() {
					return b.IsNull()
				}
				continue
			}
			cmp := Compare(a, b)
			if cmp != 0 {
				if asc {
					return cmp < 0
				}
				return cmp > 0
			}
		}
		return false
	})
	return result, nil
}

// Compare orders two values. Missing values sort last, numbers compare by
// value, values of the same temporal kind chronologically and everything
// else by text.
func Compare(a, b Value) int {
	// Nulls sort last
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return 1
	}
	if b.IsNull() {
		return -1
	}

	// Numeric comparison
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if aok && bok {
		if af < bf {
			return -1
		}
		if af > bf {
			return 1
		}
		return 0
	}

	if a.Kind == b.Kind {
		switch a.Kind {
		case types.KindLocalDate:
			return temporal.CompareDate(a.Date, b.Date)
		case types.KindLocalTime:
			return temporal.CompareTime(a.Time, b.Time)
		case types.KindLocalDateTime:
			return temporal.CompareDateTime(a.DateTime, b.DateTime)
		case types.KindZonedDateTime:
			return a.Zoned.Compare(b.Zoned)
		case types.KindTimeDuration:
			return compareDurations(a.Duration, b.Duration)
		case types.KindBoolean:
			return compareBools(a.Bool, b.Bool)
		}
	}

	// String comparison
	return strings.Compare(a.AsString(), b.AsString())
}

func compareDurations(a, b time.Duration) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
