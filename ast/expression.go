package ast

import (
	"math"
	"strconv"
	"strings"
)

func (n *MissingConstant) ToExpression() string { return "MISSING" }

func (n *BooleanConstant) ToExpression() string { return strconv.FormatBool(n.Value) }

func (n *IntegerConstant) ToExpression() string { return strconv.FormatInt(n.Value, 10) }

func (n *FloatConstant) ToExpression() string {
	switch {
	case math.IsNaN(n.Value):
		return "NaN"
	case math.IsInf(n.Value, 1):
		return "INFINITY"
	case math.IsInf(n.Value, -1):
		return "-INFINITY"
	}
	s := strconv.FormatFloat(n.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func (n *StringConstant) ToExpression() string { return Quote(n.Value) }

func (n *ColumnAccess) ToExpression() string {
	switch n.ID.Type {
	case RowID:
		return "$[ROW_ID]"
	case RowIndex:
		return "$[ROW_INDEX]"
	}
	if n.Offset != 0 {
		return "$[" + Quote(n.ID.Name) + ", " + strconv.FormatInt(n.Offset, 10) + "]"
	}
	return "$[" + Quote(n.ID.Name) + "]"
}

func (n *FlowVarAccess) ToExpression() string { return "$$[" + Quote(n.Name) + "]" }

func (n *UnaryOp) ToExpression() string {
	return "(" + n.Op.Symbol() + " " + n.Arg.ToExpression() + ")"
}

func (n *BinaryOp) ToExpression() string {
	return "(" + n.Left.ToExpression() + " " + n.Op.Symbol() + " " + n.Right.ToExpression() + ")"
}

func (n *FunctionCall) ToExpression() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.ToExpression()
	}
	return n.Function.Name() + "(" + strings.Join(args, ", ") + ")"
}

func (n *AggregationCall) ToExpression() string {
	args := make([]string, 0, len(n.Args.Positional)+len(n.Args.Named))
	for _, a := range n.Args.Positional {
		args = append(args, a.ToExpression())
	}
	for _, a := range n.Args.Named {
		args = append(args, a.Name+"="+a.Value.ToExpression())
	}
	return n.Aggregation.Name() + "(" + strings.Join(args, ", ") + ")"
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\b", `\b`,
	"\f", `\f`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Escape escapes backslashes, quotes and control characters so that s can be
// embedded in a string literal.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Quote returns s as a double quoted string literal.
func Quote(s string) string {
	return `"` + Escape(s) + `"`
}
