package pipeline

import (
	"errors"
	"fmt"
)

// ErrDegenerateStatistics matches any DegenerateStatsError via errors.Is.
var ErrDegenerateStatistics = errors.New("degenerate statistics")

// DegenerateStatsError reports that a z-score cannot be computed for a
// column: too few values, or a zero or non-finite spread. Callers choose
// between skipping the filter and aborting.
type DegenerateStatsError struct {
	Column string
	Method Method
	Count  int
	Scale  float64
}

func (e *DegenerateStatsError) Error() string {
	if e.Count < 2 {
		return fmt.Sprintf("%s: column %q has %d usable value(s), z-score undefined", ErrDegenerateStatistics, e.Column, e.Count)
	}
	return fmt.Sprintf("%s: column %q has %s spread %g over %d values, z-score undefined", ErrDegenerateStatistics, e.Column, e.Method.spreadName(), e.Scale, e.Count)
}

func (e *DegenerateStatsError) Is(target error) bool { return target == ErrDegenerateStatistics }

// ColumnError reports a target column that is absent or has the wrong kind.
type ColumnError struct {
	Column string
	Reason string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}
