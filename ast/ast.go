package ast

import (
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/types"
)

// Node is one node of an expression tree. Nodes are never changed structurally
// after construction; only their annotations are written by the compiler passes.
type Node interface {
	// Children returns the direct operands in evaluation order.
	Children() []Node
	// ToExpression renders the node back to canonical source text.
	ToExpression() string
	// Annotations returns the mutable side table of the node.
	Annotations() *Annotations
	node()
}

type annotated struct {
	data Annotations
}

func (a *annotated) Annotations() *Annotations { return &a.data }
func (a *annotated) node()                     {}

// MissingConstant is the literal MISSING.
type MissingConstant struct {
	annotated
}

// BooleanConstant is a true/false literal.
type BooleanConstant struct {
	annotated
	Value bool
}

// IntegerConstant is a 64-bit integer literal.
type IntegerConstant struct {
	annotated
	Value int64
}

// FloatConstant is a 64-bit float literal.
type FloatConstant struct {
	annotated
	Value float64
}

// StringConstant is a string literal.
type StringConstant struct {
	annotated
	Value string
}

// ColumnIDType distinguishes named columns from the row id and row index.
type ColumnIDType int

const (
	Named ColumnIDType = iota
	RowID
	RowIndex
)

// ColumnID identifies the target of a column access.
type ColumnID struct {
	Type ColumnIDType
	Name string // only for Named
}

// NamedColumn returns the id of the column with the given name.
func NamedColumn(name string) ColumnID {
	return ColumnID{Type: Named, Name: name}
}

// ColumnAccess reads a column. Offset shifts the row relative to the current
// one, e.g. -1 reads the previous row.
type ColumnAccess struct {
	annotated
	ID     ColumnID
	Offset int64
}

// FlowVarAccess reads a flow variable.
type FlowVarAccess struct {
	annotated
	Name string
}

// UnaryOp applies a unary operator.
type UnaryOp struct {
	annotated
	Op  UnaryOperator
	Arg Node
}

// BinaryOp applies a binary operator.
type BinaryOp struct {
	annotated
	Op    BinaryOperator
	Left  Node
	Right Node
}

// FunctionCall calls a registered function.
type FunctionCall struct {
	annotated
	Function Function
	Args     []Node
}

// AggregationCall calls a registered column aggregation. All arguments are
// constants.
type AggregationCall struct {
	annotated
	Aggregation Aggregation
	Args        AggregationArgs
}

// AggregationArgs holds the positional and named arguments of an aggregation.
type AggregationArgs struct {
	Positional []Node
	Named      []NamedArg
}

// NamedArg is a name=value argument.
type NamedArg struct {
	Name  string
	Value Node
}

// Get returns the named argument with the given name.
func (a AggregationArgs) Get(name string) (Node, bool) {
	for _, n := range a.Named {
		if n.Name == name {
			return n.Value, true
		}
	}
	return nil, false
}

// Assignment binds an expression to an output column.
type Assignment struct {
	Column string
	Expr   Node
}

func (n *MissingConstant) Children() []Node { return nil }
func (n *BooleanConstant) Children() []Node { return nil }
func (n *IntegerConstant) Children() []Node { return nil }
func (n *FloatConstant) Children() []Node   { return nil }
func (n *StringConstant) Children() []Node  { return nil }
func (n *ColumnAccess) Children() []Node    { return nil }
func (n *FlowVarAccess) Children() []Node   { return nil }
func (n *UnaryOp) Children() []Node         { return []Node{n.Arg} }
func (n *BinaryOp) Children() []Node        { return []Node{n.Left, n.Right} }
func (n *FunctionCall) Children() []Node    { return n.Args }

func (n *AggregationCall) Children() []Node {
	children := make([]Node, 0, len(n.Args.Positional)+len(n.Args.Named))
	children = append(children, n.Args.Positional...)
	for _, a := range n.Args.Named {
		children = append(children, a.Value)
	}
	return children
}

// Function is the contract of a registered function.
type Function interface {
	Name() string
	// ReturnType checks the argument types and returns the result type or a
	// human readable reason why the function is not applicable.
	ReturnType(args []types.ValueType) (types.ValueType, error)
	// Apply builds the computer of a call from its argument computers.
	Apply(args []computer.Computer) (computer.Computer, error)
}

// ColumnTypeResolver maps a column name to its type.
type ColumnTypeResolver func(name string) (types.ValueType, error)

// Aggregation is the contract of a registered column aggregation.
type Aggregation interface {
	Name() string
	ReturnType(args AggregationArgs, columnType ColumnTypeResolver) (types.ValueType, error)
}

// FunctionLookup resolves function names.
type FunctionLookup interface {
	LookupFunction(name string) (Function, bool)
}

// AggregationLookup resolves aggregation names.
type AggregationLookup interface {
	LookupAggregation(name string) (Aggregation, bool)
}
