package dataset

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// FillNA returns a copy where every missing cell is replaced with the value
// chosen for its column. A nil fill leaves the column untouched.
func (f *Frame) FillNA(fill func(Column) any) *Frame {
	out := f.Clone()
	for j, c := range out.columns {
		v := Normalize(fill(c))
		if v == nil {
			continue
		}
		for _, row := range out.rows {
			if IsMissing(row[j]) {
				row[j] = v
			}
		}
	}
	return out
}

// MissingCount returns the number of missing cells in the frame
func (f *Frame) MissingCount() int {
	n := 0
	for _, row := range f.rows {
		n += lo.CountBy(row, IsMissing)
	}
	return n
}

func (f *Frame) indexesOf(names []string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		j, ok := f.index[name]
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		idx[i] = j
	}
	return idx, nil
}

func pick(row []any, idx []int) []any {
	out := make([]any, len(idx))
	for i, j := range idx {
		out[i] = row[j]
	}
	return out
}

type group struct {
	key  []any
	rows []int
}

// groupRows buckets row positions by the tuple of key cells, in ascending key order
func (f *Frame) groupRows(keyIdx []int) []*group {
	byKey := make(map[string]*group)
	var groups []*group
	for i, row := range f.rows {
		key := pick(row, keyIdx)
		k := encodeKey(key)
		g, ok := byKey[k]
		if !ok {
			g = &group{key: key}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, i)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return compareTuples(groups[a].key, groups[b].key) < 0
	})
	return groups
}

// GroupBySum groups rows by the key columns and sums the value columns,
// producing one row per distinct key combination in ascending key order.
// Missing values are skipped; an all-missing group sums to zero.
func (f *Frame) GroupBySum(keys, values []string) (*Frame, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("group by needs at least one key column")
	}
	keyIdx, err := f.indexesOf(keys)
	if err != nil {
		return nil, err
	}
	valIdx, err := f.indexesOf(values)
	if err != nil {
		return nil, err
	}

	columns := append(pickColumns(f.columns, keyIdx), pickColumns(f.columns, valIdx)...)
	out := New(columns)
	for _, g := range f.groupRows(keyIdx) {
		row := append([]any{}, g.key...)
		for _, j := range valIdx {
			row = append(row, f.sum(g.rows, j))
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}

func (f *Frame) sum(rows []int, j int) any {
	if f.columns[j].Kind == KindInt {
		var total int64
		for _, i := range rows {
			if v, ok := f.rows[i][j].(int64); ok {
				total += v
			}
		}
		return total
	}
	var total float64
	for _, i := range rows {
		total += ToFloat(f.rows[i][j])
	}
	return total
}

func pickColumns(columns []Column, idx []int) []Column {
	return lo.Map(idx, func(j int, _ int) Column { return columns[j] })
}

// PivotTable indexes the frame by one column and aggregates another with
// the mean, one row per distinct index value. Groups without any present
// value take the fill value.
func (f *Frame) PivotTable(index, value string, fill float64) (*Frame, error) {
	idx, err := f.indexesOf([]string{index, value})
	if err != nil {
		return nil, err
	}
	out := New([]Column{f.columns[idx[0]], {Name: value, Kind: KindFloat}})
	for _, g := range f.groupRows(idx[:1]) {
		var total float64
		present := 0
		for _, i := range g.rows {
			if v := f.rows[i][idx[1]]; !IsMissing(v) {
				total += ToFloat(v)
				present++
			}
		}
		mean := fill
		if present > 0 {
			mean = total / float64(present)
		}
		out.rows = append(out.rows, []any{g.key[0], mean})
	}
	return out, nil
}

// Melt unpivots every column into (variable, value) rows, column by column
func (f *Frame) Melt() *Frame {
	out := New([]Column{{Name: "variable", Kind: KindString}, {Name: "value", Kind: KindString}})
	for j, c := range f.columns {
		for _, row := range f.rows {
			out.rows = append(out.rows, []any{c.Name, row[j]})
		}
	}
	return out.Reclassify()
}

// Stack produces the long form (level_0 row position, level_1 column, value)
// row by row, dropping missing cells.
func (f *Frame) Stack() *Frame {
	out := New([]Column{
		{Name: "level_0", Kind: KindInt},
		{Name: "level_1", Kind: KindString},
		{Name: "value", Kind: KindString},
	})
	for i, row := range f.rows {
		for j, c := range f.columns {
			if IsMissing(row[j]) {
				continue
			}
			out.rows = append(out.rows, []any{int64(i), c.Name, row[j]})
		}
	}
	return out.Reclassify()
}

// Merge outer-joins f (left) with right on the key columns. Non-key columns
// present on both sides are renamed with the left and right suffixes. Rows
// without a partner keep missing cells for the other side's columns. The
// result is ordered by key, left rows before right-only rows within a key.
func (f *Frame) Merge(right *Frame, on []string, leftSuffix, rightSuffix string) (*Frame, error) {
	if len(on) == 0 {
		return nil, fmt.Errorf("merge needs at least one key column")
	}
	leftKeys, err := f.indexesOf(on)
	if err != nil {
		return nil, fmt.Errorf("left side: %w", err)
	}
	rightKeys, err := right.indexesOf(on)
	if err != nil {
		return nil, fmt.Errorf("right side: %w", err)
	}

	isKey := lo.SliceToMap(on, func(name string) (string, bool) { return name, true })
	rightCols := lo.Filter(right.columns, func(c Column, _ int) bool { return !isKey[c.Name] })
	rightIdx := lo.Map(rightCols, func(c Column, _ int) int { return right.index[c.Name] })
	rightNames := lo.SliceToMap(rightCols, func(c Column) (string, bool) { return c.Name, true })

	columns := make([]Column, 0, len(f.columns)+len(rightCols))
	for _, c := range f.columns {
		if !isKey[c.Name] && rightNames[c.Name] {
			c.Name += leftSuffix
		}
		columns = append(columns, c)
	}
	for _, c := range rightCols {
		if f.Has(c.Name) {
			c.Name += rightSuffix
		}
		columns = append(columns, c)
	}
	if dup, ok := duplicateName(columns); ok {
		return nil, fmt.Errorf("merge produces duplicate column %q", dup)
	}

	matches := make(map[string][]int)
	for i, row := range right.rows {
		k := encodeKey(pick(row, rightKeys))
		matches[k] = append(matches[k], i)
	}

	type joined struct {
		key []any
		row []any
	}
	var result []joined
	matched := make([]bool, len(right.rows))

	for _, lrow := range f.rows {
		key := pick(lrow, leftKeys)
		partners := matches[encodeKey(key)]
		if len(partners) == 0 {
			row := append(append([]any{}, lrow...), make([]any, len(rightIdx))...)
			result = append(result, joined{key: key, row: row})
			continue
		}
		for _, ri := range partners {
			matched[ri] = true
			row := append(append([]any{}, lrow...), pick(right.rows[ri], rightIdx)...)
			result = append(result, joined{key: key, row: row})
		}
	}

	for ri, rrow := range right.rows {
		if matched[ri] {
			continue
		}
		key := pick(rrow, rightKeys)
		row := make([]any, len(f.columns), len(columns))
		for n, j := range leftKeys {
			row[j] = key[n]
		}
		row = append(row, pick(rrow, rightIdx)...)
		result = append(result, joined{key: key, row: row})
	}

	sort.SliceStable(result, func(a, b int) bool {
		return compareTuples(result[a].key, result[b].key) < 0
	})

	out := New(columns)
	out.rows = lo.Map(result, func(j joined, _ int) []any { return j.row })
	return out, nil
}

// Concat stacks frames vertically. Columns are the union of all inputs in
// first-seen order; cells of columns absent from an input are missing.
func Concat(frames ...*Frame) *Frame {
	var columns []Column
	seen := make(map[string]bool)
	for _, fr := range frames {
		for _, c := range fr.columns {
			if !seen[c.Name] {
				seen[c.Name] = true
				columns = append(columns, c)
			}
		}
	}

	out := New(columns)
	for _, fr := range frames {
		for _, row := range fr.rows {
			cells := make([]any, len(columns))
			for j, c := range fr.columns {
				cells[out.index[c.Name]] = row[j]
			}
			out.rows = append(out.rows, cells)
		}
	}
	return out
}

// DropDuplicates keeps the first occurrence of each distinct row
func (f *Frame) DropDuplicates() *Frame {
	out := New(f.columns)
	seen := make(map[string]bool, len(f.rows))
	for _, row := range f.rows {
		k := encodeKey(row)
		if seen[k] {
			continue
		}
		seen[k] = true
		out.rows = append(out.rows, append([]any{}, row...))
	}
	return out
}

// Project selects the named columns in the given order. Names not present
// in the frame are returned as missing and left out of the projection.
func (f *Frame) Project(names []string) (*Frame, []string) {
	var (
		idx     []int
		missing []string
	)
	for _, name := range names {
		if j, ok := f.index[name]; ok {
			idx = append(idx, j)
		} else {
			missing = append(missing, name)
		}
	}
	out := New(pickColumns(f.columns, idx))
	for _, row := range f.rows {
		out.rows = append(out.rows, pick(row, idx))
	}
	return out, missing
}
