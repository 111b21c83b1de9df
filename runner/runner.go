// Package runner evaluates expressions over the rows of a table. It is the
// row-driving caller of the engine: it types an expression against the table
// schema, computes the column aggregations, and then evaluates the expression
// once per row.
package runner

import (
	"fmt"
	"time"

	"github.com/razeghi71/dqexpr/aggregations"
	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/engine"
	"github.com/razeghi71/dqexpr/functions"
	"github.com/razeghi71/dqexpr/logger"
	"github.com/razeghi71/dqexpr/parser"
	"github.com/razeghi71/dqexpr/table"
	"github.com/razeghi71/dqexpr/types"
)

// Runner evaluates expressions against one input table and a set of flow
// variables.
type Runner struct {
	table        *table.Table
	flowVars     map[string]table.Value
	log          logger.Logger
	start        time.Time
	functions    ast.FunctionLookup
	aggregations ast.AggregationLookup
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger warnings are reported to. The default is
// logger.GetDefault().
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithStartTime fixes the execution start time seen by now() and today().
func WithStartTime(t time.Time) Option {
	return func(r *Runner) { r.start = t }
}

// WithFunctions replaces the built-in function library.
func WithFunctions(l ast.FunctionLookup) Option {
	return func(r *Runner) { r.functions = l }
}

// WithAggregations replaces the built-in aggregation library.
func WithAggregations(l ast.AggregationLookup) Option {
	return func(r *Runner) { r.aggregations = l }
}

// New returns a runner over t. flowVars may be nil.
func New(t *table.Table, flowVars map[string]table.Value, opts ...Option) *Runner {
	r := &Runner{
		table:        t,
		flowVars:     flowVars,
		log:          logger.GetDefault(),
		start:        time.Now(),
		functions:    functions.BuiltIns,
		aggregations: aggregations.BuiltIns,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Parse parses an expression with the runner's libraries.
func (r *Runner) Parse(expression string) (ast.Node, error) {
	return parser.Parse(expression,
		parser.WithFunctions(r.functions),
		parser.WithAggregations(r.aggregations))
}

// Map evaluates each assignment over every row and stores the results in the
// assigned column. An existing column is replaced; a new one is appended.
// Assignments run in order, so later expressions see earlier outputs. Map
// returns the new table and the warnings of all rows.
func (r *Runner) Map(outputs ...ast.Assignment) (*table.Table, []string, error) {
	current, err := r.table.Coerce()
	if err != nil {
		return nil, nil, err
	}
	warnings := r.newWarnings()
	for _, out := range outputs {
		cur := &cursor{table: current}
		vt, c, err := r.compile(cur, out.Expr)
		if err != nil {
			return nil, nil, err
		}
		r.log.Debug("map %q = %s (%s)", out.Column, out.Expr.ToExpression(), vt.Name())

		values := make([]table.Value, len(current.Rows))
		for row := range current.Rows {
			cur.row = row
			v, err := valueOf(warnings.at(row), c)
			if err != nil {
				return nil, nil, fmt.Errorf("column %q, row %d: %w", out.Column, row, err)
			}
			values[row] = v
		}

		current, err = current.SetColumn(out.Column, values)
		if err != nil {
			return nil, nil, err
		}
		current.Declare(out.Column, vt.Kind())
	}
	return current, warnings.messages, nil
}

// Filter keeps the rows for which expression is true. The expression must be
// of type BOOLEAN; an optional BOOLEAN has to be resolved with ?? first.
func (r *Runner) Filter(expression ast.Node) (*table.Table, []string, error) {
	current, err := r.table.Coerce()
	if err != nil {
		return nil, nil, err
	}
	cur := &cursor{table: current}
	vt, c, err := r.compile(cur, expression)
	if err != nil {
		return nil, nil, err
	}
	if vt != types.Boolean {
		return nil, nil, fmt.Errorf("The expression must evaluate to BOOLEAN. Got %s.", vt.Name())
	}

	pred := c.(computer.Boolean)
	warnings := r.newWarnings()
	result, err := current.Filter(func(row int) (bool, error) {
		cur.row = row
		// a missing result drops the row
		keep, missing, err := computer.Value(warnings.at(row), pred)
		if err != nil {
			return false, fmt.Errorf("row %d: %w", row, err)
		}
		return keep && !missing, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, warnings.messages, nil
}

// EvalFlowVariable evaluates an expression that only reads flow variables.
// Column accesses and aggregations fail to compile.
func (r *Runner) EvalFlowVariable(expression ast.Node) (table.Value, []string, error) {
	vt, err := engine.InferTypes(expression, nil, r.flowVarType)
	if err != nil {
		return table.Value{}, nil, err
	}
	c, err := engine.Evaluate(expression, nil, r.flowVar, nil)
	if err != nil {
		return table.Value{}, nil, err
	}
	r.log.Debug("flow variable expression %s (%s)", expression.ToExpression(), vt.Name())

	warnings := r.newWarnings()
	ctx := warnings.at(-1)
	v, err := valueOf(ctx, c)
	if err != nil {
		return table.Value{}, nil, err
	}
	return v, warnings.messages, nil
}

// compile runs both passes of the engine for expression over cur.table and
// computes its aggregations.
func (r *Runner) compile(cur *cursor, expression ast.Node) (types.ValueType, computer.Computer, error) {
	schema := cur.table.Schema()
	columnType := func(name string) (types.ValueType, error) {
		idx := cur.table.ColIndex(name)
		if idx < 0 {
			return types.ValueType{}, fmt.Errorf("No column with the name '%s' is available.", name)
		}
		return schema[idx], nil
	}

	vt, err := engine.InferTypes(expression, columnType, r.flowVarType)
	if err != nil {
		return vt, nil, err
	}
	err = engine.ResolveColumnIndices(expression, func(c *ast.ColumnAccess) (int, bool) {
		idx := cur.table.ColIndex(c.ID.Name)
		return idx, idx >= 0
	})
	if err != nil {
		return vt, nil, err
	}
	r.log.Debug("compiled %s as %s: %d column accesses, row index %t",
		expression.ToExpression(), vt.Name(),
		len(engine.CollectColumnAccesses(expression)), engine.RequiresRowIndexColumn(expression))
	if err := r.runAggregations(cur.table, expression); err != nil {
		return vt, nil, err
	}

	c, err := engine.Evaluate(expression, cur.column(schema), r.flowVar, cachedAggregation)
	if err != nil {
		return vt, nil, err
	}
	return vt, c, nil
}

// runAggregations feeds every row of t to each aggregation of the expression
// and caches the results on the call nodes.
func (r *Runner) runAggregations(t *table.Table, expression ast.Node) error {
	var calls []*ast.AggregationCall
	ast.Walk(expression, func(n ast.Node) bool {
		if call, ok := n.(*ast.AggregationCall); ok {
			calls = append(calls, call)
		}
		return true
	})
	for _, call := range calls {
		agg, err := aggregations.New(call, t)
		if err != nil {
			return err
		}
		for row := range t.Rows {
			agg.AddRow(row)
		}
		call.Annotations().SetAggregationResult(agg.Result())
		r.log.Debug("aggregated %s over %d rows", call.ToExpression(), len(t.Rows))
	}
	return nil
}

func cachedAggregation(call *ast.AggregationCall) (computer.Computer, bool) {
	return call.Annotations().AggregationResult()
}

func (r *Runner) flowVarType(name string) (types.ValueType, error) {
	v, ok := r.flowVars[name]
	if !ok {
		return types.ValueType{}, fmt.Errorf("No flow variable with the name '%s' is available.", name)
	}
	if v.IsNull() {
		return types.Missing, nil
	}
	return types.Of(v.Kind), nil
}

func (r *Runner) flowVar(n *ast.FlowVarAccess) (computer.Computer, bool) {
	v, ok := r.flowVars[n.Name]
	if !ok {
		return nil, false
	}
	if v.IsNull() {
		return computer.Missing{}, true
	}
	return computerOf(v.Kind, func() table.Value { return v }), true
}
