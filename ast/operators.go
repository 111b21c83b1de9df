package ast

import "fmt"

// UnaryOperator is MINUS or NOT.
type UnaryOperator int

const (
	Negate UnaryOperator = iota
	Not
)

// Symbol returns the source form of the operator.
func (op UnaryOperator) Symbol() string {
	switch op {
	case Negate:
		return "-"
	case Not:
		return "not"
	}
	return fmt.Sprintf("UnaryOperator(%d)", int(op))
}

func (op UnaryOperator) String() string {
	switch op {
	case Negate:
		return "MINUS"
	case Not:
		return "NOT"
	}
	return op.Symbol()
}

// BinaryOperator enumerates the binary operators.
type BinaryOperator int

const (
	Plus BinaryOperator = iota
	Minus
	Multiply
	Divide
	FloorDivide
	Exponential
	Remainder
	EqualTo
	NotEqualTo
	LessThan
	LessThanEqual
	GreaterThan
	GreaterThanEqual
	ConditionalAnd
	ConditionalOr
	MissingFallback
)

var binarySymbols = map[BinaryOperator]string{
	Plus: "+", Minus: "-", Multiply: "*", Divide: "/", FloorDivide: "//",
	Exponential: "**", Remainder: "%",
	EqualTo: "==", NotEqualTo: "!=",
	LessThan: "<", LessThanEqual: "<=", GreaterThan: ">", GreaterThanEqual: ">=",
	ConditionalAnd: "and", ConditionalOr: "or", MissingFallback: "??",
}

var binaryNames = map[BinaryOperator]string{
	Plus: "PLUS", Minus: "MINUS", Multiply: "MULTIPLY", Divide: "DIVIDE",
	FloorDivide: "FLOOR_DIVIDE", Exponential: "EXPONENTIAL", Remainder: "REMAINDER",
	EqualTo: "EQUAL_TO", NotEqualTo: "NOT_EQUAL_TO",
	LessThan: "LESS_THAN", LessThanEqual: "LESS_THAN_EQUAL",
	GreaterThan: "GREATER_THAN", GreaterThanEqual: "GREATER_THAN_EQUAL",
	ConditionalAnd: "CONDITIONAL_AND", ConditionalOr: "CONDITIONAL_OR",
	MissingFallback: "MISSING_FALLBACK",
}

// Symbol returns the source form of the operator.
func (op BinaryOperator) Symbol() string {
	if s, ok := binarySymbols[op]; ok {
		return s
	}
	return fmt.Sprintf("BinaryOperator(%d)", int(op))
}

func (op BinaryOperator) String() string {
	if s, ok := binaryNames[op]; ok {
		return s
	}
	return op.Symbol()
}

// IsArithmetic reports + - * / // ** %.
func (op BinaryOperator) IsArithmetic() bool {
	return op >= Plus && op <= Remainder
}

// IsEqualityComparison reports == and !=.
func (op BinaryOperator) IsEqualityComparison() bool {
	return op == EqualTo || op == NotEqualTo
}

// IsOrderingComparison reports < <= > >=.
func (op BinaryOperator) IsOrderingComparison() bool {
	return op >= LessThan && op <= GreaterThanEqual
}

// IsLogical reports and / or.
func (op BinaryOperator) IsLogical() bool {
	return op == ConditionalAnd || op == ConditionalOr
}
