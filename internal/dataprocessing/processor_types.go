package dataprocessing

import (
	"marketpipe/internal/dataset"
	"marketpipe/pkg/contracts/domain"
)

// Step names, in execution order
const (
	StepNullHandling     = "null_handling"
	StepCategoricalSplit = "categorical_split"
	StepGroupedAggregate = "grouped_aggregate"
	StepPivot            = "pivot"
	StepMelt             = "melt"
	StepStack            = "stack"
	StepOuterMerge       = "outer_merge"
	StepConcatUnion      = "concat_union"
)

// UnknownLabel fills missing categorical cells
const UnknownLabel = "Unknown"

// GroupedSuffix is appended to aggregate columns that collide with raw columns
const GroupedSuffix = domain.GroupedSuffix

// ProcessingOptions configures transformation behavior
type ProcessingOptions struct {
	// Diagnostics runs the pivot, melt, stack and concat/union steps.
	// Their results never reach the derived dataset.
	Diagnostics bool

	// LegacyWholeFrameFill chooses one fill value for the whole frame from
	// the dominant column kind instead of filling per column.
	LegacyWholeFrameFill bool
}

// DefaultOptions returns default processing options
func DefaultOptions() ProcessingOptions {
	return ProcessingOptions{
		Diagnostics:          true,
		LegacyWholeFrameFill: false,
	}
}

// StepRecord describes what one transformation step did
type StepRecord struct {
	Step     string
	Action   string
	Rows     int
	Columns  int
	Degraded bool
	Skipped  bool
}

// Report collects the step records of one transformation run along with the
// diagnostic frames, which are kept for inspection only.
type Report struct {
	Steps       []StepRecord
	Categorical []string
	Numeric     []string
	Diagnostics map[string]*dataset.Frame
}

func newReport() *Report {
	return &Report{Diagnostics: make(map[string]*dataset.Frame)}
}

func (r *Report) record(rec StepRecord) {
	r.Steps = append(r.Steps, rec)
}

// Step returns the record of the named step
func (r *Report) Step(name string) (StepRecord, bool) {
	for _, s := range r.Steps {
		if s.Step == name {
			return s, true
		}
	}
	return StepRecord{}, false
}

// Degraded reports whether any step fell back to its degraded path
func (r *Report) Degraded() bool {
	for _, s := range r.Steps {
		if s.Degraded {
			return true
		}
	}
	return false
}
