package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/civil"
	goavro "github.com/linkedin/goavro/v2"
	"github.com/razeghi71/dqexpr/table"
	"github.com/razeghi71/dqexpr/temporal"
	"github.com/razeghi71/dqexpr/types"
)

func loadAvro(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()
	return ReadAvro(f)
}

type avroField struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

type avroType struct {
	Type        string `json:"type"`
	LogicalType string `json:"logicalType"`
}

// kind maps the field type to a value kind. Unions with null use the kind
// of their other branch.
func (f avroField) kind() types.Kind {
	var branches []json.RawMessage
	if err := json.Unmarshal(f.Type, &branches); err != nil {
		branches = []json.RawMessage{f.Type}
	}
	for _, b := range branches {
		var name string
		if err := json.Unmarshal(b, &name); err == nil {
			if name != "null" {
				return kindOfName(name)
			}
			continue
		}
		var t avroType
		if err := json.Unmarshal(b, &t); err != nil {
			continue
		}
		switch t.LogicalType {
		case "date":
			return types.KindLocalDate
		case "time-millis", "time-micros":
			return types.KindLocalTime
		case "timestamp-millis", "timestamp-micros":
			return types.KindZonedDateTime
		}
		return kindOfName(t.Type)
	}
	return types.KindMissing
}

// ReadAvro reads an Avro object container file. Field types of the writer
// schema become the declared column kinds.
func ReadAvro(r io.Reader) (*table.Table, error) {
	ocfr, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read Avro OCF: %w", err)
	}

	// Extract column names from the schema
	var schemaDef struct {
		Fields []avroField `json:"fields"`
	}
	if err := json.Unmarshal([]byte(ocfr.Codec().Schema()), &schemaDef); err != nil {
		return nil, fmt.Errorf("cannot parse Avro schema: %w", err)
	}

	columns := make([]string, len(schemaDef.Fields))
	kinds := make([]types.Kind, len(schemaDef.Fields))
	for i, field := range schemaDef.Fields {
		columns[i] = field.Name
		kinds[i] = field.kind()
	}

	t := table.NewTable(columns)
	t.Declared = kinds

	for ocfr.Scan() {
		datum, err := ocfr.Read()
		if err != nil {
			return nil, fmt.Errorf("error reading Avro record: %w", err)
		}

		rec, ok := datum.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected Avro record type %T", datum)
		}

		vals := make([]table.Value, len(columns))
		for i, col := range columns {
			v, exists := rec[col]
			if !exists || v == nil {
				vals[i] = table.Null()
				continue
			}
			vals[i] = avroValue(v, kinds[i])
		}
		t.AddRow(vals)
	}

	if err := ocfr.Err(); err != nil {
		return nil, fmt.Errorf("error reading Avro file: %w", err)
	}

	return t, nil
}

func avroValue(v interface{}, kind types.Kind) table.Value {
	if v == nil {
		return table.Null()
	}
	switch val := v.(type) {
	case int32:
		return table.IntVal(int64(val))
	case int64:
		return table.IntVal(val)
	case float32:
		return table.FloatVal(float64(val))
	case float64:
		return table.FloatVal(val)
	case string:
		return table.StrVal(val)
	case bool:
		return table.BoolVal(val)
	case []byte:
		return table.StrVal(string(val))
	case time.Time:
		if kind == types.KindLocalDate {
			return table.DateVal(civil.DateOf(val.UTC()))
		}
		return table.ZonedVal(val.UTC())
	case time.Duration:
		return table.TimeVal(temporal.TimeOfNanos(int64(val)))
	case map[string]interface{}:
		// Avro unions decode as {"type": value} - extract the value
		for _, inner := range val {
			return avroValue(inner, kind)
		}
		return table.Null()
	default:
		return table.StrVal(fmt.Sprintf("%v", val))
	}
}
