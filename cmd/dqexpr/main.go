package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/engine"
	"github.com/razeghi71/dqexpr/loader"
	"github.com/razeghi71/dqexpr/logger"
	"github.com/razeghi71/dqexpr/parser"
	"github.com/razeghi71/dqexpr/runner"
	"github.com/razeghi71/dqexpr/store"
	"github.com/razeghi71/dqexpr/table"
)

const usage = `usage: dqexpr [flags] <file> <expression>...
       dqexpr -mode var [flags] <expression>

examples:
  dqexpr -o total users.csv '$["price"] * $["qty"]'
  dqexpr -mode filter users.csv '$["age"] > 20 and $["city"] == "NY"'
  dqexpr -mode var -var n=3 '$$["n"] * 2'

flags:
`

// varFlags collects repeated -var name=value flags.
type varFlags map[string]table.Value

func (v varFlags) String() string {
	parts := make([]string, 0, len(v))
	for name, val := range v {
		parts = append(parts, name+"="+val.AsString())
	}
	return strings.Join(parts, ",")
}

func (v varFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	v[name] = loader.ParseValue(value)
	return nil
}

type options struct {
	mode     string
	outputs  []string
	vars     varFlags
	store    string
	save     string
	load     string
	logLevel string
	head     int
	tail     int
	cols     []string
	sort     []string
	desc     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts := options{vars: varFlags{}}
	fs := flag.NewFlagSet("dqexpr", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	var outputs, sortCols, cols string
	fs.StringVar(&opts.mode, "mode", "map", "map, filter or var")
	fs.StringVar(&outputs, "o", "", "comma separated output columns of map mode")
	fs.Var(opts.vars, "var", "flow variable name=value (repeatable)")
	fs.StringVar(&opts.store, "store", "dqexpr.db", "expression store")
	fs.StringVar(&opts.save, "save", "", "save the expression under this name")
	fs.StringVar(&opts.load, "load", "", "run the stored expression with this name")
	fs.StringVar(&opts.logLevel, "log", "warn", "log level: debug, info, warn, error or off")
	fs.IntVar(&opts.head, "head", 0, "print only the first n rows")
	fs.IntVar(&opts.tail, "tail", 0, "print only the last n rows")
	fs.StringVar(&cols, "cols", "", "comma separated columns to print")
	fs.StringVar(&sortCols, "sort", "", "comma separated columns to sort the result by")
	fs.BoolVar(&opts.desc, "desc", false, "sort descending")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	opts.outputs = splitList(outputs)
	opts.sort = splitList(sortCols)
	opts.cols = splitList(cols)

	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	log := logger.NewLogger(level, stderr)
	logger.SetDefault(log)

	rest := fs.Args()
	var input *table.Table
	if opts.mode != "var" {
		if len(rest) == 0 {
			fs.Usage()
			return 2
		}
		input, err = loader.Load(rest[0])
		if err != nil {
			fmt.Fprintf(stderr, "load error: %v\n", err)
			return 1
		}
		log.Info("loaded %s: %d columns, %d rows", rest[0], len(input.Columns), len(input.Rows))
		rest = rest[1:]
	} else {
		input = table.NewTable(nil)
	}

	expressions, err := expressionsOf(opts, rest)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if len(expressions) == 0 {
		fs.Usage()
		return 2
	}

	r := runner.New(input, opts.vars, runner.WithLogger(log))
	nodes := make([]ast.Node, len(expressions))
	for i, expr := range expressions {
		nodes[i], err = r.Parse(expr)
		if err != nil {
			printError(stderr, err)
			return 1
		}
	}

	var result *table.Table
	switch opts.mode {
	case "map":
		assignments := make([]ast.Assignment, len(nodes))
		for i, n := range nodes {
			assignments[i] = ast.Assignment{Column: outputName(opts.outputs, i), Expr: n}
		}
		result, _, err = r.Map(assignments...)
	case "filter":
		if len(nodes) != 1 {
			fmt.Fprintln(stderr, "error: filter mode takes exactly one expression")
			return 2
		}
		result, _, err = r.Filter(nodes[0])
	case "var":
		var v table.Value
		for _, n := range nodes {
			v, _, err = r.EvalFlowVariable(n)
			if err != nil {
				break
			}
			fmt.Fprintln(stdout, v.AsString())
		}
	default:
		fmt.Fprintf(stderr, "error: unknown mode %q (expected map, filter or var)\n", opts.mode)
		return 2
	}
	if err != nil {
		printError(stderr, err)
		return 1
	}

	if opts.save != "" {
		if err := saveExpression(opts, expressions); err != nil {
			fmt.Fprintf(stderr, "store error: %v\n", err)
			return 1
		}
		log.Info("saved expression %q to %s", opts.save, opts.store)
	}

	if result == nil {
		return 0
	}
	if len(opts.sort) > 0 {
		result, err = result.SortBy(opts.sort, !opts.desc)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
	}
	if opts.head > 0 {
		result = result.Head(opts.head)
	}
	if opts.tail > 0 {
		result = result.Tail(opts.tail)
	}
	if len(opts.cols) > 0 {
		result, err = result.Select(opts.cols...)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
	}
	printTable(stdout, result)
	return 0
}

// expressionsOf returns the expressions given on the command line, or the
// stored one when -load is set.
func expressionsOf(opts options, args []string) ([]string, error) {
	if opts.load == "" {
		return args, nil
	}
	if len(args) > 0 {
		return nil, errors.New("-load cannot be combined with expressions on the command line")
	}
	s, err := store.Open(opts.store)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	rec, err := s.Get(opts.load)
	if err != nil {
		return nil, err
	}
	return []string{rec.Expression}, nil
}

func saveExpression(opts options, expressions []string) error {
	if len(expressions) != 1 {
		return errors.New("-save needs exactly one expression")
	}
	s, err := store.Open(opts.store)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Save(opts.save, store.NewRecord(expressions[0]))
}

func outputName(outputs []string, i int) string {
	if i < len(outputs) {
		return outputs[i]
	}
	if i == 0 {
		return "result"
	}
	return fmt.Sprintf("result%d", i+1)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// printError prints compile and syntax errors with their source range.
func printError(w io.Writer, err error) {
	var syntax *parser.SyntaxError
	if errors.As(err, &syntax) {
		fmt.Fprintf(w, "error at %s: %s\n", syntax.Location(), syntax.Msg)
		return
	}
	var compile *engine.CompileErrors
	if errors.As(err, &compile) {
		for _, e := range compile.Errors {
			if e.Location != nil {
				fmt.Fprintf(w, "error at %s: %s\n", e.Location, e.Message)
			} else {
				fmt.Fprintf(w, "error: %s\n", e.Message)
			}
		}
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

func printTable(w io.Writer, t *table.Table) {
	if len(t.Columns) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = len(col)
	}

	// Format all cell values
	cells := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = make([]string, len(t.Columns))
		for j := range t.Columns {
			if j < len(row.Values) {
				cells[i][j] = row.Values[j].AsString()
			} else {
				cells[i][j] = "MISSING"
			}
			if len(cells[i][j]) > widths[j] {
				widths[j] = len(cells[i][j])
			}
		}
	}

	row := func(values []string) {
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = padRight(v, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, " | "), " "))
	}

	row(t.Columns)
	sepParts := make([]string, len(t.Columns))
	for i := range t.Columns {
		sepParts[i] = strings.Repeat("-", widths[i])
	}
	fmt.Fprintln(w, strings.Join(sepParts, "-+-"))
	for _, r := range cells {
		row(r)
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
