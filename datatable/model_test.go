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

package datatable_test

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIK2022/BI-System/adapters/slice"
	"github.com/DIK2022/BI-System/datatable"
	"github.com/DIK2022/BI-System/internal/filter"
)

func fp(v float64) *float64 { return &v }

func bp(v bool) *bool { return &v }

func newModel(t *testing.T, cols ...*datatable.Column) (*slice.Adapter, *datatable.TableModel) {
	t.Helper()
	ds, err := datatable.NewDataset(cols...)
	require.NoError(t, err)
	adapter, err := slice.NewFromDataset(ds)
	require.NoError(t, err)
	model, err := datatable.NewTableModel(adapter)
	require.NoError(t, err)
	return adapter, model
}

func compileSpec(t *testing.T, spec filter.Spec) datatable.Filter {
	t.Helper()
	f, err := spec.Compile()
	require.NoError(t, err)
	return f
}

func visibleColumn(t *testing.T, m *datatable.TableModel, col int) []string {
	t.Helper()
	out := make([]string, m.VisibleRowCount())
	for r := range out {
		out[r] = m.CellString(r, col)
	}
	return out
}

func TestNewTableModelRequiresSource(t *testing.T) {
	_, err := datatable.NewTableModel(nil)
	require.ErrorIs(t, err, datatable.ErrNoDataSource)
}

func TestRangeFilterThroughView(t *testing.T) {
	_, model := newModel(t, datatable.NewIntColumn("value", []int64{3, 5, 7, 10, 12}, nil))

	model.SetFilter(compileSpec(t, filter.Spec{
		"value": {Kind: filter.KindRange, Min: fp(5), Max: fp(10)},
	}))

	assert.Equal(t, 3, model.VisibleRowCount())
	assert.Equal(t, 5, model.OriginalRowCount())
	assert.Equal(t, []string{"5", "7", "10"}, visibleColumn(t, model, 0))

	src, err := model.MapToSource(0)
	require.NoError(t, err)
	assert.Equal(t, 1, src)
}

func TestTextFilterThroughView(t *testing.T) {
	_, model := newModel(t, datatable.NewStringColumn("region",
		[]string{"North", "South", "East", "West"}, nil))

	model.SetFilter(compileSpec(t, filter.Spec{
		"region": {Kind: filter.KindText, Text: "no"},
	}))
	assert.Equal(t, []string{"North"}, visibleColumn(t, model, 0))

	model.SetFilter(compileSpec(t, filter.Spec{
		"region": {Kind: filter.KindText, Text: "NO"},
	}))
	assert.Equal(t, []string{"North"}, visibleColumn(t, model, 0))
}

func TestBoolFilterOverTextTokens(t *testing.T) {
	_, model := newModel(t, datatable.NewStringColumn("flag",
		[]string{"True", "False", "1", "0"}, nil))

	model.SetFilter(compileSpec(t, filter.Spec{
		"flag": {Kind: filter.KindBool, Value: bp(true)},
	}))
	assert.Equal(t, []string{"True", "1"}, visibleColumn(t, model, 0))

	model.SetFilter(compileSpec(t, filter.Spec{
		"flag": {Kind: filter.KindBool, Value: bp(false)},
	}))
	assert.Equal(t, []string{"False", "0"}, visibleColumn(t, model, 0))
}

func TestRangeFilterSkipsUnparsableCells(t *testing.T) {
	_, model := newModel(t, datatable.NewStringColumn("value",
		[]string{"5", "abc", "7"}, nil))

	model.SetFilter(compileSpec(t, filter.Spec{
		"value": {Kind: filter.KindRange, Min: fp(1), Max: fp(10)},
	}))

	assert.Equal(t, []string{"5", "7"}, visibleColumn(t, model, 0))
}

func TestEmptyFilterKeepsEveryRow(t *testing.T) {
	_, model := newModel(t, datatable.NewIntColumn("n", []int64{1, 2, 3}, nil))

	model.SetFilter(compileSpec(t, filter.Spec{}))
	assert.Equal(t, 3, model.VisibleRowCount())

	model.SetFilter(nil)
	assert.Equal(t, 3, model.VisibleRowCount())
	assert.Nil(t, model.ActiveFilter())
}

func TestFilterOnMissingColumnIsInert(t *testing.T) {
	_, model := newModel(t, datatable.NewIntColumn("n", []int64{1, 2, 3}, nil))

	model.SetFilter(compileSpec(t, filter.Spec{
		"ghost": {Kind: filter.KindText, Text: "x"},
	}))

	assert.Equal(t, 3, model.VisibleRowCount())
}

func TestFilterIsIdempotent(t *testing.T) {
	_, model := newModel(t, datatable.NewIntColumn("value", []int64{3, 5, 7, 10, 12}, nil))
	spec := filter.Spec{"value": {Kind: filter.KindRange, Min: fp(5), Max: fp(10)}}

	model.SetFilter(compileSpec(t, spec))
	first := model.GetVisibleRowIndices()

	model.SetFilter(compileSpec(t, spec))
	assert.Equal(t, first, model.GetVisibleRowIndices())
	assert.Equal(t, len(first), model.VisibleRowCount())
}

type explodingFilter struct{}

func (explodingFilter) Evaluate([]datatable.Value, []string) (bool, error) {
	return false, assert.AnError
}

func (explodingFilter) Description() string { return "exploding" }

type hideAllFilter struct{}

func (hideAllFilter) Evaluate([]datatable.Value, []string) (bool, error) {
	return false, nil
}

func (hideAllFilter) Description() string { return "hide all" }

func TestFilterFailureKeepsRows(t *testing.T) {
	t.Run("evaluation errors keep every row", func(t *testing.T) {
		_, model := newModel(t, datatable.NewIntColumn("n", []int64{1, 2, 3}, nil))
		model.SetFilter(explodingFilter{})
		assert.Equal(t, 3, model.VisibleRowCount())
	})

	t.Run("clean rejections hide rows", func(t *testing.T) {
		_, model := newModel(t, datatable.NewIntColumn("n", []int64{1, 2, 3}, nil))
		model.SetFilter(hideAllFilter{})
		assert.Equal(t, 0, model.VisibleRowCount())
	})
}

func TestLayoutNotificationPairs(t *testing.T) {
	_, model := newModel(t,
		datatable.NewStringColumn("region", []string{"North", "South"}, nil),
		datatable.NewIntColumn("sales", []int64{250, 50}, nil),
	)

	var events []string
	model.AddLayoutObserver(&datatable.LayoutHook{
		Before: func() { events = append(events, "before") },
		After:  func() { events = append(events, "after") },
	})
	pair := []string{"before", "after"}

	t.Run("set filter", func(t *testing.T) {
		events = nil
		model.SetFilter(nil)
		assert.Equal(t, pair, events)
	})

	t.Run("sort", func(t *testing.T) {
		events = nil
		model.Sort(1, datatable.SortAscending)
		assert.Equal(t, pair, events)
	})

	t.Run("sort reset", func(t *testing.T) {
		events = nil
		model.Sort(0, datatable.SortNone)
		assert.Equal(t, pair, events)
	})

	t.Run("sort on invalid column stays silent", func(t *testing.T) {
		events = nil
		model.Sort(99, datatable.SortAscending)
		assert.Empty(t, events)
	})

	t.Run("row limit", func(t *testing.T) {
		events = nil
		model.SetRowLimit(1)
		assert.Equal(t, pair, events)
	})

	t.Run("column selection", func(t *testing.T) {
		events = nil
		require.NoError(t, model.SetColumnSelection([]string{"sales"}))
		assert.Equal(t, pair, events)
	})

	t.Run("failed column selection stays silent", func(t *testing.T) {
		events = nil
		require.Error(t, model.SetColumnSelection([]string{"ghost"}))
		assert.Empty(t, events)
	})

	t.Run("column reset", func(t *testing.T) {
		events = nil
		model.ResetColumnSelection()
		assert.Equal(t, pair, events)
	})
}

func TestViewSortStableAndReversible(t *testing.T) {
	_, model := newModel(t, datatable.NewIntColumn("n",
		[]int64{3, 1, 3, 0, 2}, []bool{true, true, true, false, true}))

	model.Sort(0, datatable.SortAscending)
	assert.Equal(t, []int{1, 4, 0, 2, 3}, model.GetVisibleRowIndices())
	assert.Equal(t, []string{"1", "2", "3", "3", ""}, visibleColumn(t, model, 0))
	assert.Equal(t, datatable.SortState{Column: 0, Direction: datatable.SortAscending},
		model.GetSortState())

	model.Sort(0, datatable.SortDescending)
	assert.Equal(t, []int{0, 2, 4, 1, 3}, model.GetVisibleRowIndices())
	assert.Equal(t, []string{"3", "3", "2", "1", ""}, visibleColumn(t, model, 0))

	model.Sort(0, datatable.SortNone)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, model.GetVisibleRowIndices())
	assert.False(t, model.GetSortState().IsSorted())
}

func TestViewSortLeavesBackendAlone(t *testing.T) {
	adapter, model := newModel(t, datatable.NewIntColumn("n", []int64{3, 1, 2}, nil))

	model.Sort(0, datatable.SortAscending)

	v, err := adapter.Cell(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "3", v.Formatted)
	assert.Equal(t, -1, adapter.SortState().Column)
}

func TestViewSortIgnoresInvalidColumn(t *testing.T) {
	_, model := newModel(t, datatable.NewIntColumn("n", []int64{3, 1, 2}, nil))

	model.Sort(99, datatable.SortAscending)

	assert.False(t, model.GetSortState().IsSorted())
	assert.Equal(t, []int{0, 1, 2}, model.GetVisibleRowIndices())
}

func TestBackendSortRefreshesView(t *testing.T) {
	adapter, model := newModel(t, datatable.NewIntColumn("n", []int64{3, 1, 2}, nil))

	var events []string
	model.AddLayoutObserver(&datatable.LayoutHook{
		Before: func() { events = append(events, "before") },
		After:  func() { events = append(events, "after") },
	})

	model.SetFilter(compileSpec(t, filter.Spec{
		"n": {Kind: filter.KindRange, Min: fp(2)},
	}))
	assert.Equal(t, []string{"3", "2"}, visibleColumn(t, model, 0))

	events = nil
	adapter.Sort(0, datatable.SortAscending)

	assert.Equal(t, []string{"before", "after"}, events)
	assert.Equal(t, []string{"2", "3"}, visibleColumn(t, model, 0))
}

func TestColumnSelection(t *testing.T) {
	_, model := newModel(t,
		datatable.NewStringColumn("region", []string{"North", "South"}, nil),
		datatable.NewIntColumn("sales", []int64{250, 50}, nil),
		datatable.NewBoolColumn("flag", []bool{true, false}, nil),
	)

	t.Run("selection reorders the view", func(t *testing.T) {
		require.NoError(t, model.SetColumnSelection([]string{"sales", "region"}))
		assert.Equal(t, 2, model.VisibleColumnCount())

		name, err := model.VisibleColumnName(0)
		require.NoError(t, err)
		assert.Equal(t, "sales", name)

		dt, err := model.VisibleColumnType(0)
		require.NoError(t, err)
		assert.Equal(t, datatable.TypeInt, dt)

		assert.Equal(t, "250", model.CellString(0, 0))
		assert.Equal(t, "North", model.CellString(0, 1))
		assert.Equal(t, datatable.AlignRight, model.Alignment(0))
		assert.Equal(t, datatable.AlignLeft, model.Alignment(1))
	})

	t.Run("unknown name leaves selection unchanged", func(t *testing.T) {
		err := model.SetColumnSelection([]string{"sales", "ghost"})
		require.ErrorIs(t, err, datatable.ErrColumnNotFound)
		assert.Equal(t, 2, model.VisibleColumnCount())

		name, err := model.VisibleColumnName(0)
		require.NoError(t, err)
		assert.Equal(t, "sales", name)
	})

	t.Run("empty selection rejected", func(t *testing.T) {
		require.ErrorIs(t, model.SetColumnSelection(nil), datatable.ErrEmptyData)
	})

	t.Run("reset restores source order", func(t *testing.T) {
		model.ResetColumnSelection()
		assert.Equal(t, 3, model.VisibleColumnCount())

		name, err := model.VisibleColumnName(0)
		require.NoError(t, err)
		assert.Equal(t, "region", name)
	})
}

func TestRowLimit(t *testing.T) {
	_, model := newModel(t, datatable.NewIntColumn("n", []int64{1, 2, 3, 4, 5}, nil))

	model.SetRowLimit(2)
	assert.Equal(t, 2, model.VisibleRowCount())
	assert.Equal(t, "1", model.HeaderLabel(0, datatable.Vertical))
	assert.Equal(t, "2", model.HeaderLabel(1, datatable.Vertical))
	assert.Equal(t, "", model.HeaderLabel(2, datatable.Vertical))
	assert.Equal(t, "", model.CellString(2, 0))

	_, err := model.MapToSource(2)
	require.ErrorIs(t, err, datatable.ErrInvalidRow)

	_, ok := model.MapFromSource(4)
	assert.False(t, ok)

	model.SetRowLimit(99)
	assert.Equal(t, 5, model.VisibleRowCount())

	model.SetRowLimit(-3)
	assert.Equal(t, 5, model.VisibleRowCount())
}

func TestHeaderLabels(t *testing.T) {
	_, model := newModel(t,
		datatable.NewStringColumn("region", []string{"North", "South"}, nil),
		datatable.NewIntColumn("sales", []int64{250, 50}, nil),
	)

	assert.Equal(t, "region", model.HeaderLabel(0, datatable.Horizontal))
	assert.Equal(t, "sales", model.HeaderLabel(1, datatable.Horizontal))
	assert.Equal(t, "", model.HeaderLabel(5, datatable.Horizontal))
	assert.Equal(t, "1", model.HeaderLabel(0, datatable.Vertical))
	assert.Equal(t, "2", model.HeaderLabel(1, datatable.Vertical))
	assert.Equal(t, "", model.HeaderLabel(-1, datatable.Vertical))
}

func TestMapFromSource(t *testing.T) {
	_, model := newModel(t, datatable.NewIntColumn("n", []int64{5, 50, 7}, nil))

	model.SetFilter(compileSpec(t, filter.Spec{
		"n": {Kind: filter.KindRange, Max: fp(10)},
	}))

	view, ok := model.MapFromSource(0)
	require.True(t, ok)
	assert.Equal(t, 0, view)

	_, ok = model.MapFromSource(1)
	assert.False(t, ok)

	view, ok = model.MapFromSource(2)
	require.True(t, ok)
	assert.Equal(t, 1, view)

	_, ok = model.MapFromSource(-1)
	assert.False(t, ok)
	_, ok = model.MapFromSource(99)
	assert.False(t, ok)
}

func TestBackgroundHint(t *testing.T) {
	t.Run("gradient endpoints and midpoint", func(t *testing.T) {
		_, model := newModel(t,
			datatable.NewIntColumn("n", []int64{0, 50, 100}, nil),
			datatable.NewStringColumn("s", []string{"a", "b", "c"}, nil),
		)

		c, ok := model.BackgroundHint(0, 0)
		require.True(t, ok)
		assert.Equal(t, datatable.DefaultGradient.Low, c)

		c, ok = model.BackgroundHint(2, 0)
		require.True(t, ok)
		assert.Equal(t, datatable.DefaultGradient.High, c)

		c, ok = model.BackgroundHint(1, 0)
		require.True(t, ok)
		assert.Equal(t, color.NRGBA{R: 127, G: 200, B: 127, A: 255}, c)
	})

	t.Run("no hint for text, nulls and bad coordinates", func(t *testing.T) {
		_, model := newModel(t,
			datatable.NewIntColumn("n", []int64{10, 0, 20}, []bool{true, false, true}),
			datatable.NewStringColumn("s", []string{"a", "b", "c"}, nil),
		)

		_, ok := model.BackgroundHint(0, 1)
		assert.False(t, ok)
		_, ok = model.BackgroundHint(1, 0)
		assert.False(t, ok)
		_, ok = model.BackgroundHint(99, 0)
		assert.False(t, ok)
		_, ok = model.BackgroundHint(0, 99)
		assert.False(t, ok)
	})

	t.Run("constant column maps to the midpoint", func(t *testing.T) {
		_, model := newModel(t, datatable.NewIntColumn("n", []int64{42, 42}, nil))

		c, ok := model.BackgroundHint(0, 0)
		require.True(t, ok)
		assert.Equal(t, color.NRGBA{R: 127, G: 200, B: 127, A: 255}, c)
	})

	t.Run("custom gradient", func(t *testing.T) {
		_, model := newModel(t, datatable.NewIntColumn("n", []int64{0, 50, 100}, nil))
		model.SetGradient(datatable.Gradient{
			Low:  color.NRGBA{A: 255},
			High: color.NRGBA{R: 100, G: 100, B: 100, A: 255},
		})

		c, ok := model.BackgroundHint(2, 0)
		require.True(t, ok)
		assert.Equal(t, color.NRGBA{R: 100, G: 100, B: 100, A: 255}, c)

		c, ok = model.BackgroundHint(1, 0)
		require.True(t, ok)
		assert.Equal(t, color.NRGBA{R: 50, G: 50, B: 50, A: 255}, c)
	})

	t.Run("range covers hidden rows too", func(t *testing.T) {
		_, model := newModel(t, datatable.NewIntColumn("n", []int64{0, 50, 100}, nil))
		model.SetFilter(compileSpec(t, filter.Spec{
			"n": {Kind: filter.KindRange, Max: fp(60)},
		}))
		require.Equal(t, 2, model.VisibleRowCount())

		c, ok := model.BackgroundHint(1, 0)
		require.True(t, ok)
		assert.Equal(t, color.NRGBA{R: 127, G: 200, B: 127, A: 255}, c)
	})
}

func TestMaterializeDataset(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	build := func(t *testing.T) (*slice.Adapter, *datatable.TableModel) {
		return newModel(t,
			datatable.NewStringColumn("region", []string{"North", "South", "East", "West"}, nil),
			datatable.NewIntColumn("sales", []int64{250, 50, 300, 120}, nil),
			datatable.NewFloatColumn("margin", []float64{0.2, 0.1, 0, 0.4}, []bool{true, true, false, true}),
			datatable.NewTimeColumn("when", datatable.TypeDate,
				[]time.Time{day(1), day(2), day(3), day(4)}, nil),
		)
	}

	t.Run("copies the visible window with its types", func(t *testing.T) {
		_, model := build(t)
		model.SetFilter(compileSpec(t, filter.Spec{
			"sales": {Kind: filter.KindRange, Min: fp(100)},
		}))
		require.NoError(t, model.SetColumnSelection([]string{"sales", "margin", "when"}))

		ds, err := model.MaterializeDataset()
		require.NoError(t, err)
		assert.Equal(t, 3, ds.RowCount())
		assert.Equal(t, []string{"sales", "margin", "when"}, ds.ColumnNames())

		sales, err := ds.ColumnByName("sales")
		require.NoError(t, err)
		assert.Equal(t, datatable.TypeInt, sales.Type())
		n, ok := sales.Int(0)
		require.True(t, ok)
		assert.Equal(t, int64(250), n)

		margin, err := ds.ColumnByName("margin")
		require.NoError(t, err)
		assert.Equal(t, datatable.TypeFloat, margin.Type())
		assert.True(t, margin.IsNull(1))

		when, err := ds.ColumnByName("when")
		require.NoError(t, err)
		assert.Equal(t, datatable.TypeDate, when.Type())
		assert.Equal(t, "2024-01-01", when.Value(0).Formatted)
	})

	t.Run("honors the row limit", func(t *testing.T) {
		_, model := build(t)
		model.SetRowLimit(2)

		ds, err := model.MaterializeDataset()
		require.NoError(t, err)
		assert.Equal(t, 2, ds.RowCount())
	})

	t.Run("copy is independent of later backend changes", func(t *testing.T) {
		adapter, model := build(t)

		ds, err := model.MaterializeDataset()
		require.NoError(t, err)

		adapter.Sort(1, datatable.SortDescending)

		v, err := ds.Cell(0, 1)
		require.NoError(t, err)
		assert.Equal(t, "250", v.Formatted)
	})
}

func TestSnapshotImmuneToViewAndBackendChanges(t *testing.T) {
	adapter, model := newModel(t, datatable.NewIntColumn("n", []int64{3, 1, 2}, nil))

	snap := adapter.Snapshot()

	model.SetFilter(compileSpec(t, filter.Spec{
		"n": {Kind: filter.KindRange, Min: fp(2)},
	}))
	model.Sort(0, datatable.SortAscending)
	adapter.Sort(0, datatable.SortAscending)

	assert.Equal(t, 3, snap.RowCount())
	v, err := snap.Cell(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "3", v.Formatted)
}

func TestVisibleAccessErrors(t *testing.T) {
	_, model := newModel(t, datatable.NewIntColumn("n", []int64{1, 2}, nil))

	_, err := model.VisibleCell(99, 0)
	require.ErrorIs(t, err, datatable.ErrInvalidRow)
	_, err = model.VisibleCell(0, 99)
	require.ErrorIs(t, err, datatable.ErrInvalidColumn)
	_, err = model.VisibleColumnName(99)
	require.ErrorIs(t, err, datatable.ErrInvalidColumn)

	row, err := model.VisibleRow(0)
	require.NoError(t, err)
	assert.Len(t, row, 1)

	assert.Equal(t, datatable.AlignLeft, model.Alignment(99))
}

func TestSourceHelpers(t *testing.T) {
	adapter, _ := newModel(t,
		datatable.NewStringColumn("region", []string{"North", "South"}, nil),
		datatable.NewIntColumn("sales", []int64{250, 50}, nil),
	)

	assert.Equal(t, "region", datatable.HeaderLabel(adapter, 0, datatable.Horizontal))
	assert.Equal(t, "", datatable.HeaderLabel(adapter, 9, datatable.Horizontal))
	assert.Equal(t, "2", datatable.HeaderLabel(adapter, 1, datatable.Vertical))
	assert.Equal(t, "", datatable.HeaderLabel(adapter, 2, datatable.Vertical))

	assert.Equal(t, "250", datatable.CellString(adapter, 0, 1))
	assert.Equal(t, "", datatable.CellString(adapter, 9, 9))
}
