// Copyright 2025 The BI-System Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package datatable

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/sirupsen/logrus"

	"github.com/DIK2022/BI-System/logging"
)

// Gradient holds the two endpoint colors the background hint
// interpolates between.
type Gradient struct {
	Low  color.NRGBA
	High color.NRGBA
}

// DefaultGradient runs from cool blue for column minima to warm red
// for maxima, with the green channel pinned.
var DefaultGradient = Gradient{
	Low:  color.NRGBA{R: 0, G: 200, B: 255, A: 255},
	High: color.NRGBA{R: 255, G: 200, B: 0, A: 255},
}

type columnRange struct {
	min, max float64
	numeric  bool
}

// TableModel composes a backend source with a row filter, a column
// selection and an optional view-local sort. The source's own row
// order is never touched by the model; view sorting permutes only the
// visible index list.
//
// The model is not safe for concurrent mutation. All calls are
// expected on the goroutine that owns the display.
type TableModel struct {
	LayoutNotifier

	source DataSource
	names  []string

	filter Filter

	visible     *roaring.Bitmap
	visibleRows []int
	visibleCols []int
	limit       int

	sortState SortState
	gradient  Gradient
	ranges    map[int]columnRange

	logger *logrus.Entry
}

// NewTableModel creates a model over the given source with no filter,
// all columns visible and no view sort. If the source supports layout
// notifications the model subscribes to them and re-derives its
// visible set whenever the backend reorders rows.
func NewTableModel(source DataSource) (*TableModel, error) {
	if source == nil {
		return nil, ErrNoDataSource
	}

	names := make([]string, source.ColumnCount())
	for i := range names {
		name, err := source.ColumnName(i)
		if err != nil {
			return nil, fmt.Errorf("reading column names: %w", err)
		}
		names[i] = name
	}

	m := &TableModel{
		source:    source,
		names:     names,
		visible:   roaring.New(),
		sortState: SortState{Column: -1},
		gradient:  DefaultGradient,
		ranges:    make(map[int]columnRange),
		logger:    logging.Component("view"),
	}
	m.resetColumns()
	m.recompute()

	if adapter, ok := source.(Adapter); ok {
		adapter.AddLayoutObserver(m)
	}
	return m, nil
}

// Source returns the underlying backend source.
func (m *TableModel) Source() DataSource { return m.source }

// OriginalRowCount returns the unfiltered source row count.
func (m *TableModel) OriginalRowCount() int { return m.source.RowCount() }

// OriginalColumnCount returns the unfiltered source column count.
func (m *TableModel) OriginalColumnCount() int { return m.source.ColumnCount() }

// VisibleRowCount returns the number of rows passing the active
// filter, capped by the row limit when one is set.
func (m *TableModel) VisibleRowCount() int {
	n := int(m.visible.GetCardinality())
	if m.limit > 0 && n > m.limit {
		return m.limit
	}
	return n
}

// VisibleColumnCount returns the number of selected columns.
func (m *TableModel) VisibleColumnCount() int { return len(m.visibleCols) }

// VisibleColumnName returns the name of a view-coordinate column.
func (m *TableModel) VisibleColumnName(col int) (string, error) {
	src, err := m.MapColumnToSource(col)
	if err != nil {
		return "", err
	}
	return m.names[src], nil
}

// VisibleColumnType returns the type of a view-coordinate column.
func (m *TableModel) VisibleColumnType(col int) (DataType, error) {
	src, err := m.MapColumnToSource(col)
	if err != nil {
		return TypeString, err
	}
	return m.source.ColumnType(src)
}

// VisibleCell returns the value at a view coordinate.
func (m *TableModel) VisibleCell(row, col int) (Value, error) {
	srcRow, err := m.MapToSource(row)
	if err != nil {
		return Value{}, err
	}
	srcCol, err := m.MapColumnToSource(col)
	if err != nil {
		return Value{}, err
	}
	return m.source.Cell(srcRow, srcCol)
}

// VisibleRow returns all selected-column values of a view row.
func (m *TableModel) VisibleRow(row int) ([]Value, error) {
	srcRow, err := m.MapToSource(row)
	if err != nil {
		return nil, err
	}
	values := make([]Value, len(m.visibleCols))
	for i, srcCol := range m.visibleCols {
		v, err := m.source.Cell(srcRow, srcCol)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// CellString returns the display string at a view coordinate, or the
// empty string when the coordinate is out of range. Redraw paths call
// this without error handling.
func (m *TableModel) CellString(row, col int) string {
	v, err := m.VisibleCell(row, col)
	if err != nil {
		return ""
	}
	return v.Formatted
}

// HeaderLabel returns the header text for a view index: the column
// name horizontally, the 1-based row ordinal vertically.
func (m *TableModel) HeaderLabel(index int, axis Axis) string {
	if axis == Vertical {
		if index < 0 || index >= m.VisibleRowCount() {
			return ""
		}
		return strconv.Itoa(index + 1)
	}
	name, err := m.VisibleColumnName(index)
	if err != nil {
		return ""
	}
	return name
}

// Alignment returns the alignment hint for a view column. Unknown
// columns align left.
func (m *TableModel) Alignment(col int) Alignment {
	dt, err := m.VisibleColumnType(col)
	if err != nil {
		return AlignLeft
	}
	return AlignmentFor(dt)
}

// SetGradient replaces the background hint colors.
func (m *TableModel) SetGradient(g Gradient) { m.gradient = g }

// BackgroundHint returns a color for a cell interpolated between the
// gradient endpoints by the cell value's position inside its column's
// min/max range. The second result is false for non-numeric columns,
// nulls and out-of-range coordinates. A column with equal min and max
// maps every value to the neutral midpoint.
func (m *TableModel) BackgroundHint(row, col int) (color.NRGBA, bool) {
	srcRow, err := m.MapToSource(row)
	if err != nil {
		return color.NRGBA{}, false
	}
	srcCol, err := m.MapColumnToSource(col)
	if err != nil {
		return color.NRGBA{}, false
	}

	r := m.columnRangeFor(srcCol)
	if !r.numeric {
		return color.NRGBA{}, false
	}
	v, err := m.source.Cell(srcRow, srcCol)
	if err != nil || v.IsNull {
		return color.NRGBA{}, false
	}
	f, ok := toFloat64(v.Raw)
	if !ok {
		return color.NRGBA{}, false
	}

	t := 0.5
	if r.max > r.min {
		t = (f - r.min) / (r.max - r.min)
	}
	return lerpColor(m.gradient.Low, m.gradient.High, t), true
}

func lerpColor(low, high color.NRGBA, t float64) color.NRGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t)
	}
	return color.NRGBA{
		R: lerp(low.R, high.R),
		G: lerp(low.G, high.G),
		B: lerp(low.B, high.B),
		A: lerp(low.A, high.A),
	}
}

// columnRangeFor scans and caches a source column's numeric extent.
// Row order does not affect it, so a cached entry survives sorts.
func (m *TableModel) columnRangeFor(srcCol int) columnRange {
	if r, ok := m.ranges[srcCol]; ok {
		return r
	}

	var r columnRange
	dt, err := m.source.ColumnType(srcCol)
	if err == nil && dt.IsNumeric() {
		first := true
		for row := 0; row < m.source.RowCount(); row++ {
			v, err := m.source.Cell(row, srcCol)
			if err != nil || v.IsNull {
				continue
			}
			f, ok := toFloat64(v.Raw)
			if !ok {
				continue
			}
			if first {
				r.min, r.max = f, f
				r.numeric = true
				first = false
				continue
			}
			if f < r.min {
				r.min = f
			}
			if f > r.max {
				r.max = f
			}
		}
	}
	m.ranges[srcCol] = r
	return r
}

// SetFilter replaces the active filter and recomputes the visible row
// set. A nil filter makes every row visible. An active view sort is
// re-applied to the new set.
func (m *TableModel) SetFilter(f Filter) {
	m.filter = f
	m.NotifyLayoutAboutToChange()
	m.recompute()
	m.applyViewSort()
	m.NotifyLayoutChanged()
}

// ActiveFilter returns the currently applied filter, or nil.
func (m *TableModel) ActiveFilter() Filter { return m.filter }

// recompute re-evaluates the filter over every source row.
//
// Parse-style rejections arrive as a plain false from the filter and
// hide the row. An evaluation error retains the row: a broken filter
// must degrade to showing too much rather than silently hiding data.
func (m *TableModel) recompute() {
	m.visible.Clear()
	rows := m.source.RowCount()
	indices := make([]int, 0, rows)

	for r := 0; r < rows; r++ {
		if m.filter != nil {
			row, err := m.source.Row(r)
			if err != nil {
				m.logger.WithError(err).WithField("row", r).
					Debug("row read failed during filtering, keeping row")
			} else {
				pass, err := m.filter.Evaluate(row, m.names)
				if err != nil {
					m.logger.WithError(err).WithField("row", r).
						Debug("filter evaluation failed, keeping row")
				} else if !pass {
					continue
				}
			}
		}
		m.visible.Add(uint32(r))
		indices = append(indices, r)
	}
	m.visibleRows = indices
}

// Sort orders the view by a view-coordinate column without touching
// the backend's row order. SortNone restores source order. Invalid
// columns are logged and ignored.
func (m *TableModel) Sort(col int, direction SortDirection) {
	if direction == SortNone {
		m.sortState = SortState{Column: -1}
		m.NotifyLayoutAboutToChange()
		m.recompute()
		m.NotifyLayoutChanged()
		return
	}
	if _, err := m.MapColumnToSource(col); err != nil {
		m.logger.WithField("column", col).Debug("view sort on invalid column ignored")
		return
	}
	m.sortState = SortState{Column: col, Direction: direction}
	m.NotifyLayoutAboutToChange()
	m.applyViewSort()
	m.NotifyLayoutChanged()
}

// GetSortState returns the view's sort state. The column index is in
// view coordinates.
func (m *TableModel) GetSortState() SortState { return m.sortState }

func (m *TableModel) applyViewSort() {
	if !m.sortState.IsSorted() {
		return
	}
	srcCol, err := m.MapColumnToSource(m.sortState.Column)
	if err != nil {
		return
	}

	type keyed struct {
		src   int
		value Value
		err   bool
	}
	keys := make([]keyed, len(m.visibleRows))
	for i, src := range m.visibleRows {
		v, err := m.source.Cell(src, srcCol)
		keys[i] = keyed{src: src, value: v, err: err != nil}
	}

	descending := m.sortState.Direction == SortDescending
	sort.SliceStable(keys, func(a, b int) bool {
		ka, kb := keys[a], keys[b]
		an := ka.err || ka.value.IsNull
		bn := kb.err || kb.value.IsNull
		if an || bn {
			return !an && bn
		}
		cmp := compareValues(ka.value, kb.value)
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})

	for i, k := range keys {
		m.visibleRows[i] = k.src
	}
}

// compareValues orders two non-null values of the same column type.
func compareValues(a, b Value) int {
	switch a.Type.Tag() {
	case TagInt:
		av, aok := toInt64(a.Raw)
		bv, bok := toInt64(b.Raw)
		if aok && bok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case TagFloat:
		av, aok := toFloat64(a.Raw)
		bv, bok := toFloat64(b.Raw)
		if aok && bok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case TagBool:
		av, aok := a.Raw.(bool)
		bv, bok := b.Raw.(bool)
		if aok && bok {
			switch {
			case !av && bv:
				return -1
			case av && !bv:
				return 1
			}
			return 0
		}
	case TagDatetime:
		av, aok := a.Raw.(time.Time)
		bv, bok := b.Raw.(time.Time)
		if aok && bok {
			switch {
			case av.Before(bv):
				return -1
			case av.After(bv):
				return 1
			}
			return 0
		}
	}

	switch {
	case a.Formatted < b.Formatted:
		return -1
	case a.Formatted > b.Formatted:
		return 1
	}
	return 0
}

// MapToSource resolves a view row index to the source row index.
func (m *TableModel) MapToSource(row int) (int, error) {
	if row < 0 || row >= m.VisibleRowCount() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRow, row)
	}
	return m.visibleRows[row], nil
}

// MapFromSource resolves a source row to its view position, if the
// row is currently visible.
func (m *TableModel) MapFromSource(srcRow int) (int, bool) {
	if srcRow < 0 || !m.visible.Contains(uint32(srcRow)) {
		return 0, false
	}
	for i, r := range m.visibleRows {
		if i >= m.VisibleRowCount() {
			break
		}
		if r == srcRow {
			return i, true
		}
	}
	return 0, false
}

// MapColumnToSource resolves a view column index to the source index.
func (m *TableModel) MapColumnToSource(col int) (int, error) {
	if col < 0 || col >= len(m.visibleCols) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	return m.visibleCols[col], nil
}

// GetVisibleRowIndices returns the source indices of visible rows in
// display order. The slice is a copy.
func (m *TableModel) GetVisibleRowIndices() []int {
	n := m.VisibleRowCount()
	out := make([]int, n)
	copy(out, m.visibleRows[:n])
	return out
}

// GetVisibleColumnIndices returns the source indices of selected
// columns in display order. The slice is a copy.
func (m *TableModel) GetVisibleColumnIndices() []int {
	out := make([]int, len(m.visibleCols))
	copy(out, m.visibleCols)
	return out
}

// SetColumnSelection restricts the view to the named columns, in the
// given order. Unknown names are an error and leave the selection
// unchanged.
func (m *TableModel) SetColumnSelection(names []string) error {
	cols := make([]int, 0, len(names))
	for _, want := range names {
		found := -1
		for i, have := range m.names {
			if have == want {
				found = i
				break
			}
		}
		if found < 0 {
			return fmt.Errorf("%w: %q", ErrColumnNotFound, want)
		}
		cols = append(cols, found)
	}
	if len(cols) == 0 {
		return ErrEmptyData
	}
	m.NotifyLayoutAboutToChange()
	m.visibleCols = cols
	m.NotifyLayoutChanged()
	return nil
}

// ResetColumnSelection restores all source columns.
func (m *TableModel) ResetColumnSelection() {
	m.NotifyLayoutAboutToChange()
	m.resetColumns()
	m.NotifyLayoutChanged()
}

func (m *TableModel) resetColumns() {
	m.visibleCols = make([]int, m.source.ColumnCount())
	for i := range m.visibleCols {
		m.visibleCols[i] = i
	}
}

// SetRowLimit caps the number of rows the view presents. Zero or a
// negative limit means unlimited.
func (m *TableModel) SetRowLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	m.NotifyLayoutAboutToChange()
	m.limit = limit
	m.NotifyLayoutChanged()
}

// MaterializeDataset copies the visible window into a standalone
// dataset: current column selection, display order, row limit applied.
// Later changes to the view or its backend do not reach the copy.
func (m *TableModel) MaterializeDataset() (*Dataset, error) {
	rows := m.VisibleRowCount()
	cols := make([]*Column, m.VisibleColumnCount())

	for c := range cols {
		name, err := m.VisibleColumnName(c)
		if err != nil {
			return nil, err
		}
		dt, err := m.VisibleColumnType(c)
		if err != nil {
			return nil, err
		}

		valid := make([]bool, rows)
		values := make([]Value, rows)
		for r := 0; r < rows; r++ {
			v, err := m.VisibleCell(r, c)
			if err != nil {
				return nil, err
			}
			values[r] = v
			valid[r] = !v.IsNull
		}

		switch dt.Tag() {
		case TagInt:
			ints := make([]int64, rows)
			for r, v := range values {
				if valid[r] {
					ints[r], _ = toInt64(v.Raw)
				}
			}
			cols[c] = NewIntColumn(name, ints, valid)
		case TagFloat:
			floats := make([]float64, rows)
			for r, v := range values {
				if valid[r] {
					floats[r], _ = toFloat64(v.Raw)
				}
			}
			cols[c] = NewFloatColumn(name, floats, valid)
		case TagBool:
			bools := make([]bool, rows)
			for r, v := range values {
				if valid[r] {
					bools[r], _ = v.Raw.(bool)
				}
			}
			cols[c] = NewBoolColumn(name, bools, valid)
		case TagDatetime:
			times := make([]time.Time, rows)
			for r, v := range values {
				if valid[r] {
					times[r], _ = v.Raw.(time.Time)
				}
			}
			cols[c] = NewTimeColumn(name, dt, times, valid)
		default:
			strs := make([]string, rows)
			for r, v := range values {
				if valid[r] {
					strs[r] = v.Formatted
				}
			}
			cols[c] = NewStringColumn(name, strs, valid)
		}
	}

	return NewDataset(cols...)
}

// LayoutAboutToChange implements LayoutObserver; the model relays the
// backend's pre-mutation notification to its own observers.
func (m *TableModel) LayoutAboutToChange() {
	m.NotifyLayoutAboutToChange()
}

// LayoutChanged implements LayoutObserver. After the backend reorders
// its rows the visible set is re-derived under the unchanged filter
// and the active view sort is re-applied.
func (m *TableModel) LayoutChanged() {
	m.recompute()
	m.applyViewSort()
	m.NotifyLayoutChanged()
}
