package ast

import (
	"fmt"

	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/types"
)

// TextRange is a half-open rune range [Start, End) in the source text.
type TextRange struct {
	Start int
	End   int
}

func (r TextRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Annotations is the side table attached to every node.
type Annotations struct {
	valueType types.ValueType
	typed     bool

	columnIndex int
	resolved    bool

	aggregationResult computer.Computer

	// Location is where the node appears in the source, nil for nodes that
	// were built in code.
	Location *TextRange
}

// SetType records the inferred type.
func (a *Annotations) SetType(t types.ValueType) {
	a.valueType = t
	a.typed = true
}

// Type returns the inferred type and whether one was recorded.
func (a *Annotations) Type() (types.ValueType, bool) {
	return a.valueType, a.typed
}

// ClearType forgets the inferred type.
func (a *Annotations) ClearType() {
	a.valueType = types.ValueType{}
	a.typed = false
}

// SetColumnIndex records the table column a ColumnAccess resolved to.
func (a *Annotations) SetColumnIndex(idx int) {
	a.columnIndex = idx
	a.resolved = true
}

// ColumnIndex returns the resolved column index.
func (a *Annotations) ColumnIndex() (int, bool) {
	return a.columnIndex, a.resolved
}

// SetAggregationResult caches the computed result of an AggregationCall.
func (a *Annotations) SetAggregationResult(c computer.Computer) {
	a.aggregationResult = c
}

// AggregationResult returns the cached aggregation result.
func (a *Annotations) AggregationResult() (computer.Computer, bool) {
	return a.aggregationResult, a.aggregationResult != nil
}

// At sets the source location of n and returns it, for use by parsers.
func At[N Node](n N, start, end int) N {
	n.Annotations().Location = &TextRange{Start: start, End: end}
	return n
}
