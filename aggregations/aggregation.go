package aggregations

import (
	"fmt"
	"math"
	"slices"

	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/table"
	"github.com/razeghi71/dqexpr/types"
)

// Aggregation accumulates one column of a table. AddRow is called for every
// row before Result is asked for the aggregated value.
type Aggregation interface {
	AddRow(row int)
	Result() computer.Computer
}

// New prepares the runtime aggregation of call over t. The call must have
// passed typing against the schema of t.
func New(call *ast.AggregationCall, t *table.Table) (Aggregation, error) {
	d, ok := call.Aggregation.(*definition)
	if !ok {
		return nil, fmt.Errorf("aggregation %s is not a built-in aggregation", call.Aggregation.Name())
	}
	args, err := d.match(call.Args)
	if err != nil {
		return nil, fmt.Errorf("aggregation %s: %w", d.name, err)
	}
	idx := t.ColIndex(args.column)
	if idx < 0 {
		return nil, fmt.Errorf("aggregation %s: no column with the name '%s'", d.name, args.column)
	}
	kind := t.Schema()[idx].Kind()
	return &accumulator{table: t, column: idx, state: d.newState(d.name, kind, args.option)}, nil
}

type accumulator struct {
	table  *table.Table
	column int
	state  state
}

func (a *accumulator) AddRow(row int) {
	a.state.add(a.table.Rows[row].Values[a.column])
}

func (a *accumulator) Result() computer.Computer {
	return a.state.result()
}

type state interface {
	add(v table.Value)
	result() computer.Computer
}

// missingWithWarning is a computer that is always MISSING and warns every
// time it is asked.
func missingWithWarning[T any](format string, args ...any) computer.Typed[T] {
	message := fmt.Sprintf(format, args...)
	return computer.Of(
		func(computer.EvaluationContext) (T, error) {
			var zero T
			return zero, nil
		},
		func(ctx computer.EvaluationContext) (bool, error) {
			ctx.AddWarning(message)
			return true, nil
		},
	)
}

func allMissing[T any](name string) computer.Typed[T] {
	return missingWithWarning[T]("%s returned MISSING because all values were MISSING.", name)
}

func allMissingOrNaN[T any](name string) computer.Typed[T] {
	return missingWithWarning[T]("%s returned MISSING because all values were either MISSING or NaN.", name)
}

// floats tracks the NaN state shared by all FLOAT aggregations.
type floats struct {
	name      string
	ignoreNaN bool
	seen      bool
	anyNaN    bool
	allNaN    bool
}

func newFloats(name string, ignoreNaN bool) floats {
	return floats{name: name, ignoreNaN: ignoreNaN, allNaN: true}
}

// observe records v and returns its float value and whether it takes part
// in the aggregation.
func (f *floats) observe(v table.Value) (float64, bool) {
	x, ok := v.AsFloat()
	if !ok {
		return 0, false
	}
	nan := math.IsNaN(x)
	f.seen = true
	f.anyNaN = f.anyNaN || nan
	f.allNaN = f.allNaN && nan
	return x, !(nan && f.ignoreNaN)
}

// special returns the result forced by the missing and NaN state, if any.
func (f *floats) special() (computer.Computer, bool) {
	switch {
	case !f.seen:
		return allMissing[float64](f.name), true
	case f.ignoreNaN && f.allNaN:
		return allMissingOrNaN[float64](f.name), true
	case !f.ignoreNaN && f.anyNaN:
		return computer.Const(math.NaN()), true
	}
	return nil, false
}

func extremum(sign int) func(string, types.Kind, bool) state {
	return func(name string, kind types.Kind, ignoreNaN bool) state {
		if kind == types.KindInteger {
			return &intExtremum{name: name, sign: sign}
		}
		return &floatExtremum{floats: newFloats(name, ignoreNaN), sign: sign, v: math.Inf(-sign)}
	}
}

type intExtremum struct {
	name string
	sign int
	seen bool
	v    int64
}

func (s *intExtremum) add(v table.Value) {
	if v.IsNull() {
		return
	}
	if !s.seen || (s.sign < 0 && v.Int < s.v) || (s.sign > 0 && v.Int > s.v) {
		s.v = v.Int
	}
	s.seen = true
}

func (s *intExtremum) result() computer.Computer {
	if !s.seen {
		return allMissing[int64](s.name)
	}
	return computer.Const(s.v)
}

type floatExtremum struct {
	floats
	sign int
	v    float64
}

func (s *floatExtremum) add(v table.Value) {
	x, ok := s.observe(v)
	if ok && ((s.sign < 0 && x < s.v) || (s.sign > 0 && x > s.v)) {
		s.v = x
	}
}

func (s *floatExtremum) result() computer.Computer {
	if c, ok := s.special(); ok {
		return c
	}
	return computer.Const(s.v)
}

func newSum(name string, kind types.Kind, ignoreNaN bool) state {
	if kind == types.KindInteger {
		return &intSum{name: name}
	}
	return &floatSum{floats: newFloats(name, ignoreNaN)}
}

type intSum struct {
	name string
	seen bool
	sum  int64
}

func (s *intSum) add(v table.Value) {
	if v.IsNull() {
		return
	}
	s.seen = true
	s.sum += v.Int
}

func (s *intSum) result() computer.Computer {
	if !s.seen {
		return allMissing[int64](s.name)
	}
	return computer.Const(s.sum)
}

type floatSum struct {
	floats
	sum float64
}

func (s *floatSum) add(v table.Value) {
	if x, ok := s.observe(v); ok {
		s.sum += x
	}
}

func (s *floatSum) result() computer.Computer {
	if s.seen && s.ignoreNaN && s.allNaN {
		message := fmt.Sprintf("%s returned 0 because all values were NaN.", s.name)
		return computer.Of(func(ctx computer.EvaluationContext) (float64, error) {
			ctx.AddWarning(message)
			return 0, nil
		}, computer.Never)
	}
	if c, ok := s.special(); ok {
		return c
	}
	return computer.Const(s.sum)
}

func newAverage(name string, _ types.Kind, ignoreNaN bool) state {
	return &average{floats: newFloats(name, ignoreNaN)}
}

type average struct {
	floats
	sum   float64
	count int64
}

func (s *average) add(v table.Value) {
	if x, ok := s.observe(v); ok {
		s.sum += x
		s.count++
	}
}

func (s *average) result() computer.Computer {
	if c, ok := s.special(); ok {
		return c
	}
	return computer.Const(s.sum / float64(s.count))
}

func newMedian(name string, _ types.Kind, ignoreNaN bool) state {
	return &median{floats: newFloats(name, ignoreNaN)}
}

type median struct {
	floats
	values []float64
}

func (s *median) add(v table.Value) {
	if x, ok := s.observe(v); ok {
		s.values = append(s.values, x)
	}
}

func (s *median) result() computer.Computer {
	if c, ok := s.special(); ok {
		return c
	}
	slices.Sort(s.values)
	n := len(s.values)
	if n%2 == 0 {
		return computer.Const((s.values[n/2-1] + s.values[n/2]) / 2)
	}
	return computer.Const(s.values[n/2])
}

func variance(stdDev bool) func(string, types.Kind, bool) state {
	return func(name string, _ types.Kind, ignoreNaN bool) state {
		return &runningVariance{floats: newFloats(name, ignoreNaN), stdDev: stdDev}
	}
}

// runningVariance keeps the running means of x and x² so that the variance
// of large columns does not need the values.
type runningVariance struct {
	floats
	stdDev bool
	mean   float64
	meanSq float64
	count  float64
}

func (s *runningVariance) add(v table.Value) {
	x, ok := s.observe(v)
	if !ok {
		return
	}
	n := s.count
	s.mean = s.mean*(n/(n+1)) + x/(n+1)
	s.meanSq = s.meanSq*(n/(n+1)) + x*(x/(n+1))
	s.count++
}

func (s *runningVariance) result() computer.Computer {
	if c, ok := s.special(); ok {
		return c
	}
	v := max(s.meanSq-s.mean*s.mean, 0)
	if s.stdDev {
		v = math.Sqrt(v)
	}
	return computer.Const(v)
}

func newCount(_ string, _ types.Kind, ignoreMissing bool) state {
	return &count{ignoreMissing: ignoreMissing}
}

type count struct {
	ignoreMissing bool
	n             int64
}

func (s *count) add(v table.Value) {
	if s.ignoreMissing && v.IsNull() {
		return
	}
	s.n++
}

func (s *count) result() computer.Computer {
	return computer.Const(s.n)
}
