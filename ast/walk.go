package ast

import "math"

// Postorder returns all nodes of the tree, children before parents and left
// before right.
func Postorder(root Node) []Node {
	var nodes []Node
	var visit func(Node)
	visit = func(n Node) {
		for _, c := range n.Children() {
			visit(c)
		}
		nodes = append(nodes, n)
	}
	visit(root)
	return nodes
}

// Decorate calls fn for every node in postorder, so every descendant of a
// node has been decorated when fn runs for it. It stops at the first error.
func Decorate(root Node, fn func(Node) error) error {
	for _, c := range root.Children() {
		if err := Decorate(c, fn); err != nil {
			return err
		}
	}
	return fn(root)
}

// Walk calls fn for every node in preorder. Children are skipped when fn
// returns false.
func Walk(root Node, fn func(Node) bool) {
	if !fn(root) {
		return
	}
	for _, c := range root.Children() {
		Walk(c, fn)
	}
}

// Equal reports whether two trees are structurally equal, ignoring
// annotations. Functions and aggregations are compared by name.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *MissingConstant:
		_, ok := b.(*MissingConstant)
		return ok
	case *BooleanConstant:
		y, ok := b.(*BooleanConstant)
		return ok && x.Value == y.Value
	case *IntegerConstant:
		y, ok := b.(*IntegerConstant)
		return ok && x.Value == y.Value
	case *FloatConstant:
		y, ok := b.(*FloatConstant)
		return ok && (x.Value == y.Value || math.IsNaN(x.Value) && math.IsNaN(y.Value))
	case *StringConstant:
		y, ok := b.(*StringConstant)
		return ok && x.Value == y.Value
	case *ColumnAccess:
		y, ok := b.(*ColumnAccess)
		return ok && x.ID == y.ID && x.Offset == y.Offset
	case *FlowVarAccess:
		y, ok := b.(*FlowVarAccess)
		return ok && x.Name == y.Name
	case *UnaryOp:
		y, ok := b.(*UnaryOp)
		return ok && x.Op == y.Op && Equal(x.Arg, y.Arg)
	case *BinaryOp:
		y, ok := b.(*BinaryOp)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *FunctionCall:
		y, ok := b.(*FunctionCall)
		return ok && x.Function.Name() == y.Function.Name() && equalAll(x.Args, y.Args)
	case *AggregationCall:
		y, ok := b.(*AggregationCall)
		if !ok || x.Aggregation.Name() != y.Aggregation.Name() ||
			!equalAll(x.Args.Positional, y.Args.Positional) ||
			len(x.Args.Named) != len(y.Args.Named) {
			return false
		}
		for i := range x.Args.Named {
			if x.Args.Named[i].Name != y.Args.Named[i].Name || !Equal(x.Args.Named[i].Value, y.Args.Named[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func equalAll(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
