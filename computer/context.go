package computer

import "time"

// EvaluationContext is the per-run side channel of an evaluation: a sink for
// non-fatal warnings and a fixed execution start time.
type EvaluationContext interface {
	AddWarning(message string)
	ExecutionStartTime() time.Time
}

type evalContext struct {
	start     time.Time
	onWarning func(string)
}

// NewContext returns a context that forwards warnings to onWarning. A nil
// onWarning drops warnings.
func NewContext(start time.Time, onWarning func(string)) EvaluationContext {
	return &evalContext{start: start, onWarning: onWarning}
}

func (c *evalContext) AddWarning(message string) {
	if c.onWarning != nil {
		c.onWarning(message)
	}
}

func (c *evalContext) ExecutionStartTime() time.Time {
	return c.start
}

// WarningCollector is an EvaluationContext that records every warning.
type WarningCollector struct {
	Start    time.Time
	Warnings []string
}

// NewWarningCollector returns a collector with the given start time.
func NewWarningCollector(start time.Time) *WarningCollector {
	return &WarningCollector{Start: start}
}

func (w *WarningCollector) AddWarning(message string) {
	w.Warnings = append(w.Warnings, message)
}

func (w *WarningCollector) ExecutionStartTime() time.Time {
	return w.Start
}

// Reset drops all recorded warnings.
func (w *WarningCollector) Reset() {
	w.Warnings = w.Warnings[:0]
}
