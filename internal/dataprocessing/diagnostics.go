package dataprocessing

import (
	"marketpipe/internal/dataset"
)

// Pivot indexes the frame by the first categorical column and takes the mean
// of the first numeric column, filling empty groups with 0. It reports
// degraded when either kind of column is absent.
func Pivot(frame *dataset.Frame, categorical, numeric []string) (*dataset.Frame, bool) {
	if len(categorical) == 0 || len(numeric) == 0 {
		return nil, true
	}
	out, err := frame.PivotTable(categorical[0], numeric[0], 0)
	if err != nil {
		return nil, true
	}
	return out, false
}

// Melt returns the (variable, value) long form of every column
func Melt(frame *dataset.Frame) *dataset.Frame {
	return frame.Melt()
}

// Stack returns the (level_0, level_1, value) long form without missing cells
func Stack(frame *dataset.Frame) *dataset.Frame {
	return frame.Stack()
}

// ConcatUnion returns the frame stacked onto itself and the frame stacked
// onto its deduplicated self
func ConcatUnion(frame *dataset.Frame) (concatenated, union *dataset.Frame) {
	return dataset.Concat(frame, frame), dataset.Concat(frame, frame.DropDuplicates())
}
