package runner

import (
	"fmt"
	"time"

	"github.com/razeghi71/dqexpr/logger"
)

// warnings collects the warnings of one run. Every message is kept with its
// row; each distinct message is logged only the first time it occurs.
type warnings struct {
	start    time.Time
	log      logger.Logger
	logged   map[string]bool
	messages []string
}

func (r *Runner) newWarnings() *warnings {
	return &warnings{start: r.start, log: r.log, logged: make(map[string]bool)}
}

// at returns the evaluation context for row. A negative row has no row
// context.
func (w *warnings) at(row int) *rowContext {
	return &rowContext{warnings: w, row: row}
}

type rowContext struct {
	*warnings
	row int
}

func (c *rowContext) AddWarning(message string) {
	full := message
	if c.row >= 0 {
		full = fmt.Sprintf("%s [at row %d]", message, c.row)
	}
	c.messages = append(c.messages, full)
	if !c.logged[message] {
		c.logged[message] = true
		c.log.Warn("%s", full)
	}
}

func (c *rowContext) ExecutionStartTime() time.Time {
	return c.start
}
