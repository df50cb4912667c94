package health

import (
	"context"
	"fmt"

	"github.com/MrWong99/glyphoxa/pkg/processor"
)

// ProcessorChecker builds a [Checker] from a pipeline processor's lifecycle
// state and error counters. It fails readiness when the processor is not in
// the [processor.Running] state, or when its cumulative error count has
// risen past a configured threshold.
type ProcessorChecker struct {
	// Processor is the processor being monitored. Must not be nil.
	Processor *processor.Processor

	// MaxErrors is the cumulative error count above which the check fails.
	// Zero means any recorded error fails the check.
	MaxErrors uint64
}

// Checker returns a [Checker] wired to c's processor under the given name.
func (c ProcessorChecker) Checker(name string) Checker {
	return Checker{
		Name: name,
		Check: func(_ context.Context) error {
			if state := c.Processor.State(); state != processor.Running {
				return fmt.Errorf("processor %q not running: state=%s", c.Processor.Name(), state)
			}
			m := c.Processor.Metrics()
			if m.Errors > c.MaxErrors {
				return fmt.Errorf("processor %q exceeded error threshold: %d errors (max %d)",
					c.Processor.Name(), m.Errors, c.MaxErrors)
			}
			return nil
		},
	}
}

// PipelineCheckers builds one [Checker] per processor in procs, named after
// each processor's [processor.Processor.Name]. maxErrors is applied to every
// checker.
func PipelineCheckers(procs []*processor.Processor, maxErrors uint64) []Checker {
	checkers := make([]Checker, 0, len(procs))
	for _, p := range procs {
		pc := ProcessorChecker{Processor: p, MaxErrors: maxErrors}
		checkers = append(checkers, pc.Checker(p.Name()))
	}
	return checkers
}
