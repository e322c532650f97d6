package dataset

import (
	"fmt"

	"github.com/samber/lo"
)

// Kind classifies a column as categorical (string) or numeric (int, float)
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
)

// Numeric reports whether the kind is summed and filled with zero
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat
}

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "string"
	}
}

// Zero returns the typed zero value used to fill missing numeric cells
func (k Kind) Zero() any {
	switch k {
	case KindInt:
		return int64(0)
	case KindFloat:
		return float64(0)
	default:
		return ""
	}
}

// Column is a named, classified column of a Frame
type Column struct {
	Name string
	Kind Kind
}

// Frame is an in-memory tabular dataset: ordered rows over ordered columns.
// Cells hold nil (missing), string, int64 or float64. Frame operations never
// mutate their receiver.
type Frame struct {
	columns []Column
	index   map[string]int
	rows    [][]any
}

// New creates an empty frame with the given columns
func New(columns []Column) *Frame {
	f := &Frame{
		columns: append([]Column{}, columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]any, 0),
	}
	for i, c := range f.columns {
		f.index[c.Name] = i
	}
	return f
}

// FromRows creates a frame from typed rows; cells are normalized
func FromRows(columns []Column, rows [][]any) (*Frame, error) {
	if dup, ok := duplicateName(columns); ok {
		return nil, fmt.Errorf("duplicate column name %q", dup)
	}
	f := New(columns)
	for i, row := range rows {
		if err := f.Append(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return f, nil
}

// FromStrings builds a frame from text records (CSV, spreadsheet rows) and
// infers each column's kind from its values.
func FromStrings(header []string, records [][]string) (*Frame, error) {
	columns := lo.Map(header, func(name string, _ int) Column {
		return Column{Name: name, Kind: KindString}
	})
	if dup, ok := duplicateName(columns); ok {
		return nil, fmt.Errorf("duplicate column name %q", dup)
	}

	f := New(columns)
	for i, record := range records {
		if len(record) > len(header) {
			return nil, fmt.Errorf("record %d has %d fields, header has %d", i+1, len(record), len(header))
		}
		row := make([]any, len(header))
		for j := range header {
			if j < len(record) {
				row[j] = ParseCell(record[j])
			}
		}
		f.rows = append(f.rows, row)
	}

	// Columns mixing numbers and text stay textual with their original spelling
	for j := range columns {
		if !f.columnIsNumeric(j) {
			for i, record := range records {
				if j < len(record) && f.rows[i][j] != nil {
					f.rows[i][j] = record[j]
				}
			}
		}
	}
	return f.Reclassify(), nil
}

func duplicateName(columns []Column) (string, bool) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c.Name] {
			return c.Name, true
		}
		seen[c.Name] = true
	}
	return "", false
}

// Append adds a row; the row must have one cell per column
func (f *Frame) Append(row []any) error {
	if len(row) != len(f.columns) {
		return fmt.Errorf("row has %d cells, frame has %d columns", len(row), len(f.columns))
	}
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = Normalize(v)
	}
	f.rows = append(f.rows, cells)
	return nil
}

// Len returns the number of rows
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.rows)
}

// Width returns the number of columns
func (f *Frame) Width() int {
	if f == nil {
		return 0
	}
	return len(f.columns)
}

// Shape returns rows and columns
func (f *Frame) Shape() (int, int) {
	return f.Len(), f.Width()
}

// Columns returns a copy of the column list
func (f *Frame) Columns() []Column {
	return append([]Column{}, f.columns...)
}

// ColumnNames returns the column names in order
func (f *Frame) ColumnNames() []string {
	return lo.Map(f.columns, func(c Column, _ int) string { return c.Name })
}

// ColumnIndex returns the position of a column, or -1
func (f *Frame) ColumnIndex(name string) int {
	if i, ok := f.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether the frame has a column with this name
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Row returns a copy of row i
func (f *Frame) Row(i int) []any {
	return append([]any{}, f.rows[i]...)
}

// Value returns the cell at row i of the named column
func (f *Frame) Value(i int, name string) any {
	j, ok := f.index[name]
	if !ok {
		return nil
	}
	return f.rows[i][j]
}

// Values returns a copy of all cells of the named column
func (f *Frame) Values(name string) ([]any, bool) {
	j, ok := f.index[name]
	if !ok {
		return nil, false
	}
	out := make([]any, len(f.rows))
	for i, row := range f.rows {
		out[i] = row[j]
	}
	return out, true
}

// Clone returns a deep copy of the frame
func (f *Frame) Clone() *Frame {
	c := New(f.columns)
	c.rows = make([][]any, len(f.rows))
	for i, row := range f.rows {
		c.rows[i] = append([]any{}, row...)
	}
	return c
}

// Categorical returns the names of string columns
func (f *Frame) Categorical() []string {
	return f.namesWhere(func(c Column) bool { return !c.Kind.Numeric() })
}

// Numeric returns the names of int and float columns
func (f *Frame) Numeric() []string {
	return f.namesWhere(func(c Column) bool { return c.Kind.Numeric() })
}

func (f *Frame) namesWhere(pred func(Column) bool) []string {
	return lo.FilterMap(f.columns, func(c Column, _ int) (string, bool) {
		return c.Name, pred(c)
	})
}

// Reclassify returns a copy whose column kinds are recomputed from the
// values: a column is numeric when every present value is a number, and
// int when all of those are integers. Columns with no present values keep
// their current kind. Ints in float columns are widened to float64.
func (f *Frame) Reclassify() *Frame {
	out := f.Clone()
	for j := range out.columns {
		present, numeric, allInt := 0, true, true
		for _, row := range out.rows {
			v := row[j]
			if IsMissing(v) {
				continue
			}
			present++
			switch v.(type) {
			case int64:
			case float64:
				allInt = false
			default:
				numeric = false
			}
		}
		if present == 0 {
			continue
		}
		switch {
		case !numeric:
			out.columns[j].Kind = KindString
		case allInt:
			out.columns[j].Kind = KindInt
		default:
			out.columns[j].Kind = KindFloat
			for _, row := range out.rows {
				if i, ok := row[j].(int64); ok {
					row[j] = float64(i)
				}
			}
		}
	}
	return out
}

func (f *Frame) columnIsNumeric(j int) bool {
	for _, row := range f.rows {
		if v := row[j]; v != nil && !isNumeric(v) {
			return false
		}
	}
	return true
}

// String summarizes the frame shape for logs
func (f *Frame) String() string {
	rows, cols := f.Shape()
	return fmt.Sprintf("Frame[%d rows x %d columns]", rows, cols)
}
