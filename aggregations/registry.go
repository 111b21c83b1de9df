// Package aggregations holds the column aggregations of the expression
// language. An aggregation reduces a whole column to one value that every row
// of the expression sees.
package aggregations

import (
	"fmt"
	"slices"
	"strings"

	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/types"
)

// Version of the aggregation library.
const Version = 1

const (
	argColumn        = "column"
	argIgnoreNaN     = "ignore_nan"
	argIgnoreMissing = "ignore_missing"
)

type definition struct {
	name        string
	description string
	option      string
	returnType  func(column string, vt types.ValueType) (types.ValueType, error)
	newState    func(name string, kind types.Kind, option bool) state
}

func (d *definition) Name() string        { return d.name }
func (d *definition) Description() string { return d.description }

func (d *definition) ReturnType(args ast.AggregationArgs, columnType ast.ColumnTypeResolver) (types.ValueType, error) {
	matched, err := d.match(args)
	if err != nil {
		return types.ValueType{}, err
	}
	vt, err := columnType(matched.column)
	if err != nil {
		return types.ValueType{}, err
	}
	return d.returnType(matched.column, vt)
}

type arguments struct {
	column string
	option bool
}

// match binds positional and named arguments to the parameters column and
// the definition's option.
func (d *definition) match(args ast.AggregationArgs) (arguments, error) {
	params := []string{argColumn, d.option}
	if len(args.Positional) > len(params) {
		return arguments{}, fmt.Errorf("expected at most %d arguments, got %d", len(params), len(args.Positional))
	}
	values := make(map[string]ast.Node, len(params))
	for i, p := range args.Positional {
		values[params[i]] = p
	}
	for _, n := range args.Named {
		if !slices.Contains(params, n.Name) {
			return arguments{}, fmt.Errorf("unknown argument '%s'", n.Name)
		}
		if _, dup := values[n.Name]; dup {
			return arguments{}, fmt.Errorf("argument '%s' is given twice", n.Name)
		}
		values[n.Name] = n.Value
	}

	var matched arguments
	col, ok := values[argColumn]
	if !ok {
		return arguments{}, fmt.Errorf("missing argument '%s'", argColumn)
	}
	name, ok := col.(*ast.StringConstant)
	if !ok {
		return arguments{}, fmt.Errorf("argument '%s' must be a STRING naming a column", argColumn)
	}
	matched.column = name.Value
	if v, ok := values[d.option]; ok {
		b, ok := v.(*ast.BooleanConstant)
		if !ok {
			return arguments{}, fmt.Errorf("argument '%s' must be BOOLEAN", d.option)
		}
		matched.option = b.Value
	}
	return matched, nil
}

func numeric(column string, vt types.ValueType) error {
	if !types.IsNumeric(vt) {
		return fmt.Errorf("column '%s' must be INTEGER or FLOAT, got %s", column, vt.Name())
	}
	return nil
}

func sameAsColumn(column string, vt types.ValueType) (types.ValueType, error) {
	if err := numeric(column, vt); err != nil {
		return types.ValueType{}, err
	}
	return vt.Base().Optional(), nil
}

func optFloat(column string, vt types.ValueType) (types.ValueType, error) {
	if err := numeric(column, vt); err != nil {
		return types.ValueType{}, err
	}
	return types.OptFloat, nil
}

func anyColumn(string, types.ValueType) (types.ValueType, error) {
	return types.Integer, nil
}

// Registry resolves aggregation names case-insensitively.
type Registry struct {
	byName map[string]*definition
}

func newRegistry(defs ...*definition) *Registry {
	r := &Registry{byName: make(map[string]*definition, len(defs))}
	for _, d := range defs {
		r.byName[strings.ToUpper(d.name)] = d
	}
	return r
}

func (r *Registry) LookupAggregation(name string) (ast.Aggregation, bool) {
	d, ok := r.byName[strings.ToUpper(name)]
	if !ok {
		return nil, false
	}
	return d, true
}

// BuiltIns is the default aggregation library.
var BuiltIns = newRegistry(
	&definition{
		name:        "COLUMN_MIN",
		description: "Smallest value of a numeric column.",
		option:      argIgnoreNaN,
		returnType:  sameAsColumn,
		newState:    extremum(-1),
	},
	&definition{
		name:        "COLUMN_MAX",
		description: "Largest value of a numeric column.",
		option:      argIgnoreNaN,
		returnType:  sameAsColumn,
		newState:    extremum(1),
	},
	&definition{
		name:        "COLUMN_SUM",
		description: "Sum of a numeric column.",
		option:      argIgnoreNaN,
		returnType:  sameAsColumn,
		newState:    newSum,
	},
	&definition{
		name:        "COLUMN_AVERAGE",
		description: "Arithmetic mean of a numeric column.",
		option:      argIgnoreNaN,
		returnType:  optFloat,
		newState:    newAverage,
	},
	&definition{
		name:        "COLUMN_MEDIAN",
		description: "Median of a numeric column.",
		option:      argIgnoreNaN,
		returnType:  optFloat,
		newState:    newMedian,
	},
	&definition{
		name:        "COLUMN_VARIANCE",
		description: "Population variance of a numeric column.",
		option:      argIgnoreNaN,
		returnType:  optFloat,
		newState:    variance(false),
	},
	&definition{
		name:        "COLUMN_STD_DEV",
		description: "Population standard deviation of a numeric column.",
		option:      argIgnoreNaN,
		returnType:  optFloat,
		newState:    variance(true),
	},
	&definition{
		name:        "COLUMN_COUNT",
		description: "Number of rows. With ignore_missing only rows where the column is present are counted.",
		option:      argIgnoreMissing,
		returnType:  anyColumn,
		newState:    newCount,
	},
)
