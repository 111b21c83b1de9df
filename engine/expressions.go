package engine

import (
	"github.com/razeghi71/dqexpr/aggregations"
	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/functions"
	"github.com/razeghi71/dqexpr/parser"
)

// LanguageVersion is stored next to persisted expressions. It changes when the
// meaning of an existing expression changes.
const LanguageVersion = 1

// Parse parses an expression with the built-in functions and aggregations.
func Parse(expression string) (ast.Node, error) {
	return parser.Parse(expression,
		parser.WithFunctions(functions.BuiltIns),
		parser.WithAggregations(aggregations.BuiltIns))
}

// RequiresRowIndexColumn reports whether the expression reads $[ROW_INDEX].
func RequiresRowIndexColumn(root ast.Node) bool {
	found := false
	ast.Walk(root, func(n ast.Node) bool {
		if c, ok := n.(*ast.ColumnAccess); ok && c.ID.Type == ast.RowIndex {
			found = true
		}
		return !found
	})
	return found
}

// CollectColumnAccesses returns the column accesses of the expression in
// source order. Repeated accesses to the same column and offset are returned
// once.
func CollectColumnAccesses(root ast.Node) []*ast.ColumnAccess {
	type key struct {
		id     ast.ColumnID
		offset int64
	}
	seen := make(map[key]bool)
	var accesses []*ast.ColumnAccess
	ast.Walk(root, func(n ast.Node) bool {
		c, ok := n.(*ast.ColumnAccess)
		if !ok {
			return true
		}
		k := key{c.ID, c.Offset}
		if !seen[k] {
			seen[k] = true
			accesses = append(accesses, c)
		}
		return true
	})
	return accesses
}

// ResolveColumnIndices stores the index of every named column access on the
// node. Accesses that indexOf cannot resolve are reported together.
func ResolveColumnIndices(root ast.Node, indexOf func(*ast.ColumnAccess) (int, bool)) error {
	var errs []*CompileError
	ast.Walk(root, func(n ast.Node) bool {
		c, ok := n.(*ast.ColumnAccess)
		if !ok || c.ID.Type != ast.Named {
			return true
		}
		idx, ok := indexOf(c)
		if !ok {
			errs = append(errs, newError(MissingColumn, c, "No column with the name '%s' is available.", c.ID.Name))
			return true
		}
		c.Annotations().SetColumnIndex(idx)
		return true
	})
	if len(errs) > 0 {
		return compileErrors(errs...)
	}
	return nil
}

// ResolvedColumnIndex returns the index stored by ResolveColumnIndices.
func ResolvedColumnIndex(access *ast.ColumnAccess) int {
	idx, ok := access.Annotations().ColumnIndex()
	if !ok {
		implementationError("column %s has no resolved index", access.ToExpression())
	}
	return idx
}

// TextLocation returns the source range of a parsed node, or nil.
func TextLocation(n ast.Node) *ast.TextRange {
	return n.Annotations().Location
}
