// Package functions holds the built-in function library of the expression
// language.
package functions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/types"
)

// Version of the function library. It changes when the meaning of an existing
// function changes.
const Version = 1

// Function is a function implemented by a return type check and a computer
// factory.
type Function struct {
	name        string
	description string
	returnType  func(args []types.ValueType) (types.ValueType, error)
	apply       func(args []computer.Computer) (computer.Computer, error)
}

// New creates a function. returnType is called during typing, apply during
// evaluation with computers whose types passed returnType.
func New(
	name, description string,
	returnType func(args []types.ValueType) (types.ValueType, error),
	apply func(args []computer.Computer) (computer.Computer, error),
) *Function {
	return &Function{name: name, description: description, returnType: returnType, apply: apply}
}

func (f *Function) Name() string        { return f.name }
func (f *Function) Description() string { return f.description }

func (f *Function) ReturnType(args []types.ValueType) (types.ValueType, error) {
	return f.returnType(args)
}

func (f *Function) Apply(args []computer.Computer) (computer.Computer, error) {
	return f.apply(args)
}

// Registry resolves function names case-insensitively.
type Registry struct {
	byName map[string]ast.Function
}

// NewRegistry creates a registry of fns. A later function replaces an earlier
// one with the same name.
func NewRegistry(fns ...ast.Function) *Registry {
	r := &Registry{byName: make(map[string]ast.Function, len(fns))}
	for _, f := range fns {
		r.byName[strings.ToLower(f.Name())] = f
	}
	return r
}

func (r *Registry) LookupFunction(name string) (ast.Function, bool) {
	f, ok := r.byName[strings.ToLower(name)]
	return f, ok
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// BuiltIns is the default function library.
var BuiltIns = NewRegistry(builtIns()...)

func builtIns() []ast.Function {
	var fns []ast.Function
	fns = append(fns, mathFunctions()...)
	fns = append(fns, stringFunctions()...)
	fns = append(fns, controlFunctions()...)
	fns = append(fns, temporalFunctions()...)
	fns = append(fns, zonedFunctions()...)
	fns = append(fns, conversionFunctions()...)
	return fns
}

func warn(ctx computer.EvaluationContext, name, value, reason string, args ...any) {
	ctx.AddWarning(fmt.Sprintf("%s returned %s because %s.", name, value, fmt.Sprintf(reason, args...)))
}
