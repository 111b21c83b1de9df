package engine

import (
	"fmt"

	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/types"
)

// TypeResolver maps a column or flow variable name to its type. The message
// of a returned error is reported as the compile error.
type TypeResolver func(name string) (types.ValueType, error)

// InferTypes annotates every node of root with its type and returns the type
// of the root. All problems of the tree are collected and returned together
// as *CompileErrors.
func InferTypes(root ast.Node, columnType, flowVarType TypeResolver) (types.ValueType, error) {
	if columnType == nil {
		columnType = noColumns
	}
	if flowVarType == nil {
		flowVarType = noFlowVariables
	}
	t := &typer{
		columnType:  columnType,
		flowVarType: flowVarType,
		errs:        make(map[ast.Node][]*CompileError),
	}
	err := ast.Decorate(root, func(n ast.Node) error {
		vt, errs := t.typeOf(n)
		if len(errs) > 0 {
			t.errs[n] = errs
			n.Annotations().ClearType()
			return nil
		}
		n.Annotations().SetType(vt)
		return nil
	})
	if err != nil {
		return types.ValueType{}, err
	}
	if errs := t.errs[root]; len(errs) > 0 {
		return types.ValueType{}, compileErrors(errs...)
	}
	return Type(root), nil
}

// Type returns the type InferTypes stored on n. It panics if n is untyped.
func Type(n ast.Node) types.ValueType {
	vt, ok := n.Annotations().Type()
	if !ok {
		implementationError("node %s has no type", n.ToExpression())
	}
	return vt
}

func noColumns(name string) (types.ValueType, error) {
	return types.ValueType{}, fmt.Errorf("No column with the name '%s' is available.", name)
}

func noFlowVariables(name string) (types.ValueType, error) {
	return types.ValueType{}, fmt.Errorf("No flow variable with the name '%s' is available.", name)
}

type typer struct {
	columnType  TypeResolver
	flowVarType TypeResolver
	errs        map[ast.Node][]*CompileError
}

// childErrors combines the errors of the given nodes in order.
func (t *typer) childErrors(nodes ...ast.Node) []*CompileError {
	var errs []*CompileError
	for _, n := range nodes {
		errs = append(errs, t.errs[n]...)
	}
	return errs
}

func fail(kind ErrorKind, node ast.Node, format string, args ...any) (types.ValueType, []*CompileError) {
	return types.ValueType{}, []*CompileError{newError(kind, node, format, args...)}
}

func typingError(node ast.Node, format string, args ...any) (types.ValueType, []*CompileError) {
	return fail(Typing, node, format, args...)
}

func (t *typer) typeOf(n ast.Node) (types.ValueType, []*CompileError) {
	switch n := n.(type) {
	case *ast.MissingConstant:
		return types.Missing, nil
	case *ast.BooleanConstant:
		return types.Boolean, nil
	case *ast.IntegerConstant:
		return types.Integer, nil
	case *ast.FloatConstant:
		return types.Float, nil
	case *ast.StringConstant:
		return types.String, nil
	case *ast.ColumnAccess:
		switch n.ID.Type {
		case ast.RowID:
			return types.String, nil
		case ast.RowIndex:
			return types.Integer, nil
		}
		vt, err := t.columnType(n.ID.Name)
		if err != nil {
			return fail(MissingColumn, n, "%s", err.Error())
		}
		return vt, nil
	case *ast.FlowVarAccess:
		vt, err := t.flowVarType(n.Name)
		if err != nil {
			return fail(MissingFlowVariable, n, "%s", err.Error())
		}
		return vt, nil
	case *ast.UnaryOp:
		return t.unaryType(n)
	case *ast.BinaryOp:
		return t.binaryType(n)
	case *ast.FunctionCall:
		if errs := t.childErrors(n.Args...); len(errs) > 0 {
			return types.ValueType{}, errs
		}
		argTypes := make([]types.ValueType, len(n.Args))
		for i, a := range n.Args {
			argTypes[i] = Type(a)
		}
		vt, err := n.Function.ReturnType(argTypes)
		if err != nil {
			return typingError(n, "In function '%s': %s", n.Function.Name(), err.Error())
		}
		return vt, nil
	case *ast.AggregationCall:
		vt, err := n.Aggregation.ReturnType(n.Args, ast.ColumnTypeResolver(t.columnType))
		if err != nil {
			return typingError(n, "In aggregation '%s': %s", n.Aggregation.Name(), err.Error())
		}
		return vt, nil
	}
	implementationError("unknown node %T", n)
	return types.ValueType{}, nil
}

func (t *typer) unaryType(n *ast.UnaryOp) (types.ValueType, []*CompileError) {
	if errs := t.childErrors(n.Arg); len(errs) > 0 {
		return types.ValueType{}, errs
	}
	vt := Type(n.Arg)
	switch {
	case n.Op == ast.Negate && (types.IsNumeric(vt) || types.IsAmount(vt)):
		return vt, nil
	case n.Op == ast.Not && vt.Kind() == types.KindBoolean:
		return vt, nil
	}
	return typingError(n, "Operator '%s' is not applicable for %s.", n.Op.Symbol(), vt.Name())
}

func (t *typer) binaryType(n *ast.BinaryOp) (types.ValueType, []*CompileError) {
	if errs := t.childErrors(n.Left, n.Right); len(errs) > 0 {
		return types.ValueType{}, errs
	}
	op := n.Op
	t1, t2 := Type(n.Left), Type(n.Right)

	switch {
	case op == ast.Plus && isAnyString(t1, t2) && !t1.IsMissing() && !t2.IsMissing():
		return types.String, nil
	case op.IsArithmetic() && types.IsNumeric(t1) && types.IsNumeric(t2):
		return arithmeticType(n, t1, t2)
	case op.IsOrderingComparison() && (types.IsNumeric(t1) && types.IsNumeric(t2) || isMutuallyOrdered(t1, t2)):
		return types.Boolean, nil
	case op.IsEqualityComparison():
		return equalityType(n, t1, t2)
	case op.IsLogical() && t1.Kind() == types.KindBoolean && t2.Kind() == types.KindBoolean:
		return types.Boolean.WithOptional(t1.IsOptional() || t2.IsOptional()), nil
	case op == ast.MissingFallback:
		return missingFallbackType(n, t1, t2)
	}

	var (
		out  types.ValueType
		errs []*CompileError
		ok   bool
	)
	switch op {
	case ast.Minus:
		out, errs, ok = temporalSubtractionType(n, t1, t2)
	case ast.Plus:
		out, errs, ok = temporalAdditionType(n, t1, t2)
	case ast.Multiply:
		out, ok = temporalMultiplicationType(t1, t2)
	}
	if ok {
		return out, errs
	}
	return binaryNotApplicable(n, t1, t2)
}

func binaryNotApplicable(n *ast.BinaryOp, t1, t2 types.ValueType) (types.ValueType, []*CompileError) {
	return typingError(n, "Operator '%s' is not applicable for %s and %s.", n.Op.Symbol(), t1.Name(), t2.Name())
}

func isAnyString(t1, t2 types.ValueType) bool {
	return t1.Kind() == types.KindString || t2.Kind() == types.KindString
}

func isMutuallyOrdered(t1, t2 types.ValueType) bool {
	return t1.Kind() == t2.Kind() && types.IsOrderedTemporal(t1)
}

func arithmeticType(n *ast.BinaryOp, t1, t2 types.ValueType) (types.ValueType, []*CompileError) {
	optional := t1.IsOptional() || t2.IsOptional()
	bothInts := t1.Kind() == types.KindInteger && t2.Kind() == types.KindInteger

	switch {
	case n.Op == ast.Divide:
		return types.Float.WithOptional(optional), nil
	case n.Op == ast.FloorDivide:
		if bothInts {
			return types.Integer.WithOptional(optional), nil
		}
		return binaryNotApplicable(n, t1, t2)
	case bothInts:
		return types.Integer.WithOptional(optional), nil
	}
	return types.Float.WithOptional(optional), nil
}

func equalityType(n *ast.BinaryOp, t1, t2 types.ValueType) (types.ValueType, []*CompileError) {
	switch {
	case t1.Kind() == types.KindZonedDateTime && t2.Kind() == types.KindZonedDateTime:
		return typingError(n, "Equality comparison is not supported for ZONED_DATE_TIME.")
	case t1.Kind() == t2.Kind():
		return types.Boolean, nil
	case t1.IsMissing() || t2.IsMissing():
		return types.Boolean, nil
	case types.IsNumeric(t1) && types.IsNumeric(t2):
		return types.Boolean, nil
	}
	return binaryNotApplicable(n, t1, t2)
}

func missingFallbackType(n *ast.BinaryOp, t1, t2 types.ValueType) (types.ValueType, []*CompileError) {
	switch {
	case t1.IsMissing() && t2.IsMissing():
		// fall through to the error below
	case t1.IsMissing():
		return t2, nil
	case t2.IsMissing():
		return t1, nil
	case t1.Kind() == t2.Kind():
		// optional iff both sides are optional
		return t1.WithOptional(t1.IsOptional() && t2.IsOptional()), nil
	case types.IsNumeric(t1) && types.IsNumeric(t2):
		return types.Float.WithOptional(t1.IsOptional() && t2.IsOptional()), nil
	}
	return typingError(n, "Operator '??' is not applicable for %s and %s. "+
		"Types must be compatible, and at most one can be MISSING.", t1.Name(), t2.Name())
}

// The temporal helpers return ok=false when no temporal rule applies. A
// matching rule may still produce an error with a dedicated message.

func temporalSubtractionType(n *ast.BinaryOp, t1, t2 types.ValueType) (types.ValueType, []*CompileError, bool) {
	b1, b2 := t1.Base(), t2.Base()
	var out types.ValueType
	switch {
	case b1 == types.LocalDate && b2 == types.LocalDate:
		out = types.DateDuration
	case b1 == types.DateDuration && b2 == types.DateDuration:
		out = types.DateDuration
	case types.HasDatePart(b1) && b2 == types.DateDuration,
		types.HasTimePart(b1) && b2 == types.TimeDuration:
		out = b1
	case types.HasTimePart(b1) && b1 == b2:
		out = types.TimeDuration
	case b1 == types.TimeDuration && b2 == types.TimeDuration:
		out = types.TimeDuration
	case b1 == types.DateDuration && types.HasDatePart(b2),
		b1 == types.TimeDuration && types.HasTimePart(b2):
		_, errs := typingError(n, "When subtracting a duration and date-time, the date-time must be first")
		return types.ValueType{}, errs, true
	case b1 == types.DateDuration && b2 == types.TimeDuration,
		b1 == types.TimeDuration && b2 == types.DateDuration:
		_, errs := typingError(n, "Cannot subtract a duration from a different type of duration.")
		return types.ValueType{}, errs, true
	default:
		return types.ValueType{}, nil, false
	}
	return out.WithOptional(t1.IsOptional() || t2.IsOptional()), nil, true
}

func temporalAdditionType(n *ast.BinaryOp, t1, t2 types.ValueType) (types.ValueType, []*CompileError, bool) {
	b1, b2 := t1.Base(), t2.Base()
	var out types.ValueType
	switch {
	case types.HasDatePart(b1) && b2 == types.DateDuration,
		types.HasTimePart(b1) && b2 == types.TimeDuration:
		out = b1
	case b1 == types.DateDuration && b2 == types.DateDuration:
		out = types.DateDuration
	case b1 == types.TimeDuration && b2 == types.TimeDuration:
		out = types.TimeDuration
	case b1 == types.DateDuration && types.HasDatePart(b2),
		b1 == types.TimeDuration && types.HasTimePart(b2):
		_, errs := typingError(n, "When adding a duration and date-time, the date-time must be first.")
		return types.ValueType{}, errs, true
	case b1 == types.DateDuration && b2 == types.TimeDuration,
		b1 == types.TimeDuration && b2 == types.DateDuration:
		_, errs := typingError(n, "Cannot add two different types of duration.")
		return types.ValueType{}, errs, true
	default:
		return types.ValueType{}, nil, false
	}
	return out.WithOptional(t1.IsOptional() || t2.IsOptional()), nil, true
}

func temporalMultiplicationType(t1, t2 types.ValueType) (types.ValueType, bool) {
	b1, b2 := t1.Base(), t2.Base()
	var out types.ValueType
	switch {
	case b1 == types.TimeDuration && b2 == types.Integer,
		b1 == types.Integer && b2 == types.TimeDuration:
		out = types.TimeDuration
	case b1 == types.DateDuration && b2 == types.Integer,
		b1 == types.Integer && b2 == types.DateDuration:
		out = types.DateDuration
	default:
		return types.ValueType{}, false
	}
	return out.WithOptional(t1.IsOptional() || t2.IsOptional()), true
}
