package engine

import (
	"fmt"
	"strings"

	"github.com/razeghi71/dqexpr/ast"
)

// ErrorKind classifies a compile error.
type ErrorKind int

const (
	MissingColumn ErrorKind = iota
	MissingFlowVariable
	Typing
	AggregationNotEvaluated
)

func (k ErrorKind) String() string {
	switch k {
	case MissingColumn:
		return "MISSING_COLUMN"
	case MissingFlowVariable:
		return "MISSING_FLOW_VARIABLE"
	case Typing:
		return "TYPING"
	case AggregationNotEvaluated:
		return "AGGREGATION_NOT_EVALUATED"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// CompileError is one problem found while typing or evaluating an expression.
// Location is nil for nodes that were not produced by the parser.
type CompileError struct {
	Kind     ErrorKind
	Message  string
	Location *ast.TextRange
}

func (e *CompileError) Error() string {
	if e.Location != nil {
		return fmt.Sprintf("%s %s", e.Location, e.Message)
	}
	return e.Message
}

func newError(kind ErrorKind, node ast.Node, format string, args ...any) *CompileError {
	return &CompileError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Location: node.Annotations().Location,
	}
}

// CompileErrors is returned when an expression cannot be compiled. It holds
// every error of the expression in node order.
type CompileErrors struct {
	Errors []*CompileError
}

func (e *CompileErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *CompileErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

func compileErrors(errs ...*CompileError) *CompileErrors {
	return &CompileErrors{Errors: errs}
}

// implementationError panics for contract violations between the passes.
func implementationError(format string, args ...any) {
	panic(fmt.Sprintf(format, args...) + " (this is an implementation error)")
}
