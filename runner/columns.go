package runner

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/engine"
	"github.com/razeghi71/dqexpr/table"
	"github.com/razeghi71/dqexpr/temporal"
	"github.com/razeghi71/dqexpr/types"
)

// cursor is the row the computers of one expression currently read.
type cursor struct {
	table *table.Table
	row   int
}

// value returns the cell of column idx, offset rows away from the current
// row. Cells outside the table are missing.
func (c *cursor) value(idx int, offset int64) table.Value {
	row := int64(c.row) + offset
	if row < 0 || row >= int64(len(c.table.Rows)) {
		return table.Null()
	}
	return c.table.Rows[row].Values[idx]
}

// column returns the column resolver of the evaluation pass. Accesses with
// different offsets to the same column get separate computers.
func (c *cursor) column(schema []types.ValueType) engine.ColumnResolver {
	return func(n *ast.ColumnAccess) (computer.Computer, bool) {
		switch n.ID.Type {
		case ast.RowID:
			return computer.Of(func(computer.EvaluationContext) (string, error) {
				return c.table.Rows[c.row].ID, nil
			}, computer.Never), true
		case ast.RowIndex:
			return computer.Of(func(computer.EvaluationContext) (int64, error) {
				return int64(c.row), nil
			}, computer.Never), true
		}
		idx := engine.ResolvedColumnIndex(n)
		offset := n.Offset
		return computerOf(schema[idx].Kind(), func() table.Value { return c.value(idx, offset) }), true
	}
}

// computerOf adapts a cell supplier to the computer of the given kind.
func computerOf(kind types.Kind, get func() table.Value) computer.Computer {
	switch kind {
	case types.KindBoolean:
		return cell(get, func(v table.Value) bool { return v.Bool })
	case types.KindInteger:
		return cell(get, func(v table.Value) int64 { return v.Int })
	case types.KindFloat:
		return cell(get, func(v table.Value) float64 {
			f, _ := v.AsFloat()
			return f
		})
	case types.KindString:
		return cell(get, table.Value.AsString)
	case types.KindLocalDate:
		return cell(get, func(v table.Value) civil.Date { return v.Date })
	case types.KindLocalTime:
		return cell(get, func(v table.Value) civil.Time { return v.Time })
	case types.KindLocalDateTime:
		return cell(get, func(v table.Value) civil.DateTime { return v.DateTime })
	case types.KindZonedDateTime:
		return cell(get, func(v table.Value) time.Time { return v.Zoned })
	case types.KindTimeDuration:
		return cell(get, func(v table.Value) time.Duration { return v.Duration })
	case types.KindDateDuration:
		return cell(get, func(v table.Value) temporal.Period { return v.Period })
	}
	return computer.Missing{}
}

func cell[T any](get func() table.Value, field func(table.Value) T) computer.Typed[T] {
	return computer.Of(
		func(computer.EvaluationContext) (T, error) { return field(get()), nil },
		func(computer.EvaluationContext) (bool, error) { return get().IsNull(), nil },
	)
}

// valueOf computes the current value of c as a table cell.
func valueOf(ctx computer.EvaluationContext, c computer.Computer) (table.Value, error) {
	missing, err := c.IsMissing(ctx)
	if err != nil {
		return table.Value{}, err
	}
	if missing {
		return table.Null(), nil
	}
	switch c := c.(type) {
	case computer.Boolean:
		return compute(ctx, c, table.BoolVal)
	case computer.Integer:
		return compute(ctx, c, table.IntVal)
	case computer.Float:
		return compute(ctx, c, table.FloatVal)
	case computer.String:
		return compute(ctx, c, table.StrVal)
	case computer.LocalDate:
		return compute(ctx, c, table.DateVal)
	case computer.LocalTime:
		return compute(ctx, c, table.TimeVal)
	case computer.LocalDateTime:
		return compute(ctx, c, table.DateTimeVal)
	case computer.ZonedDateTime:
		return compute(ctx, c, table.ZonedVal)
	case computer.TimeDuration:
		return compute(ctx, c, table.DurationVal)
	case computer.DateDuration:
		return compute(ctx, c, table.PeriodVal)
	}
	return table.Value{}, fmt.Errorf("unsupported computer %T", c)
}

func compute[T any](ctx computer.EvaluationContext, c computer.Typed[T], wrap func(T) table.Value) (table.Value, error) {
	v, err := c.Compute(ctx)
	if err != nil {
		return table.Value{}, err
	}
	return wrap(v), nil
}
