package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	parquet "github.com/parquet-go/parquet-go"
	"github.com/razeghi71/dqexpr/table"
	"github.com/razeghi71/dqexpr/types"
)

func loadParquet(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()
	return ReadParquet(f)
}

// ReadParquet reads the leaf columns of a Parquet file. Nested columns are
// named by their dotted path.
func ReadParquet(r io.ReaderAt) (*table.Table, error) {
	reader := parquet.NewReader(r)
	defer reader.Close()

	schema := reader.Schema()
	paths := schema.Columns()
	columns := make([]string, len(paths))
	kinds := make([]types.Kind, len(paths))
	for _, path := range paths {
		leaf, ok := schema.Lookup(path...)
		if !ok {
			return nil, fmt.Errorf("parquet column %s not found in schema", strings.Join(path, "."))
		}
		columns[leaf.ColumnIndex] = strings.Join(path, ".")
		kinds[leaf.ColumnIndex] = parquetKind(leaf.Node)
	}

	t := table.NewTable(columns)
	t.Declared = kinds

	rows := make([]parquet.Row, 64)
	for {
		n, err := reader.ReadRows(rows)
		for _, row := range rows[:n] {
			vals := make([]table.Value, len(columns))
			for i := range vals {
				vals[i] = table.Null()
			}
			for _, v := range row {
				c := v.Column()
				if c < 0 || c >= len(vals) || v.IsNull() {
					continue
				}
				vals[c] = parquetValue(v, kinds[c])
			}
			t.AddRow(vals)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading Parquet rows: %w", err)
		}
	}

	return t, nil
}

var unixEpoch = civil.Date{Year: 1970, Month: time.January, Day: 1}

func parquetKind(node parquet.Node) types.Kind {
	typ := node.Type()
	if lt := typ.LogicalType(); lt != nil {
		switch {
		case lt.Date != nil:
			return types.KindLocalDate
		case lt.UTF8 != nil:
			return types.KindString
		}
	}
	switch typ.Kind() {
	case parquet.Boolean:
		return types.KindBoolean
	case parquet.Int32, parquet.Int64:
		return types.KindInteger
	case parquet.Float, parquet.Double:
		return types.KindFloat
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return types.KindString
	}
	return types.KindMissing
}

func parquetValue(v parquet.Value, kind types.Kind) table.Value {
	switch v.Kind() {
	case parquet.Boolean:
		return table.BoolVal(v.Boolean())
	case parquet.Int32:
		if kind == types.KindLocalDate {
			return table.DateVal(unixEpoch.AddDays(int(v.Int32())))
		}
		return table.IntVal(int64(v.Int32()))
	case parquet.Int64:
		return table.IntVal(v.Int64())
	case parquet.Float:
		return table.FloatVal(float64(v.Float()))
	case parquet.Double:
		return table.FloatVal(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return table.StrVal(string(v.ByteArray()))
	default:
		return table.StrVal(v.String())
	}
}
