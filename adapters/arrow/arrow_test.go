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

package arrow

import (
	"fmt"
	"testing"
	"time"

	arrowlib "github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIK2022/BI-System/adapters/slice"
	"github.com/DIK2022/BI-System/datatable"
)

func cityTable(t *testing.T) arrowlib.Table {
	t.Helper()

	mem := memory.NewGoAllocator()
	schema := arrowlib.NewSchema([]arrowlib.Field{
		{Name: "city", Type: arrowlib.BinaryTypes.String, Nullable: true},
		{Name: "population", Type: arrowlib.PrimitiveTypes.Int64, Nullable: true},
		{Name: "area", Type: arrowlib.PrimitiveTypes.Float64, Nullable: true},
		{Name: "founded", Type: arrowlib.FixedWidthTypes.Date32, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).AppendValues([]string{"Oslo", "Bergen", "Tromso"}, nil)
	b.Field(1).(*array.Int64Builder).AppendValues([]int64{709037, 291189, 0}, []bool{true, true, false})
	b.Field(2).(*array.Float64Builder).AppendValues([]float64{480.75, 465.3, 2521}, nil)
	b.Field(3).(*array.Date32Builder).AppendValues([]arrowlib.Date32{
		arrowlib.Date32FromTime(time.Date(1048, 1, 1, 0, 0, 0, 0, time.UTC)),
		arrowlib.Date32FromTime(time.Date(1070, 1, 1, 0, 0, 0, 0, time.UTC)),
		arrowlib.Date32FromTime(time.Date(1794, 6, 20, 0, 0, 0, 0, time.UTC)),
	}, nil)

	rec := b.NewRecord()
	defer rec.Release()
	return array.NewTableFromRecords(schema, []arrowlib.Record{rec})
}

func tradesDataset(t *testing.T) *datatable.Dataset {
	t.Helper()

	ds, err := datatable.NewDataset(
		datatable.NewStringColumn("symbol", []string{"AAPL", "MSFT", "GOOG", "AAPL", "MSFT"}, nil),
		datatable.NewIntColumn("volume", []int64{1500000, 900, 900, 42, 7_654_321}, nil),
		datatable.NewFloatColumn("price", []float64{187.44, 0, 2750.5, 186.1, 411.22},
			[]bool{true, false, true, true, true}),
		datatable.NewBoolColumn("filled", []bool{true, false, true, true, false}, nil),
		datatable.NewTimeColumn("at", datatable.TypeTimestamp, []time.Time{
			time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
			time.Date(2024, 5, 1, 9, 31, 15, 0, time.UTC),
			time.Date(2024, 5, 1, 9, 29, 59, 0, time.UTC),
			time.Date(2024, 5, 1, 16, 0, 0, 0, time.UTC),
			time.Date(2024, 5, 1, 12, 45, 30, 0, time.UTC),
		}, nil),
	)
	require.NoError(t, err)
	return ds
}

func TestNewFromTableCells(t *testing.T) {
	table := cityTable(t)
	defer table.Release()

	a, err := NewFromTable(table)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 3, a.RowCount())
	assert.Equal(t, 4, a.ColumnCount())

	name, err := a.ColumnName(1)
	require.NoError(t, err)
	assert.Equal(t, "population", name)

	v, err := a.Cell(0, 1)
	require.NoError(t, err)
	assert.Equal(t, "709,037", v.Formatted)

	v, err = a.Cell(2, 1)
	require.NoError(t, err)
	assert.True(t, v.IsNull)
	assert.Equal(t, "", v.Formatted)

	v, err = a.Cell(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "465.30", v.Formatted)

	v, err = a.Cell(2, 3)
	require.NoError(t, err)
	assert.Equal(t, "1794-06-20", v.Formatted)

	_, err = a.Cell(9, 0)
	assert.ErrorIs(t, err, datatable.ErrInvalidRow)
	_, err = a.Cell(0, 9)
	assert.ErrorIs(t, err, datatable.ErrInvalidColumn)
}

func TestColumnTypeNormalization(t *testing.T) {
	table := cityTable(t)
	defer table.Release()

	a, err := NewFromTable(table)
	require.NoError(t, err)
	defer a.Close()

	tests := []struct {
		col  int
		want datatable.TypeTag
	}{
		{0, datatable.TagText},
		{1, datatable.TagInt},
		{2, datatable.TagFloat},
		{3, datatable.TagDatetime},
	}
	for _, tt := range tests {
		dt, err := a.ColumnType(tt.col)
		require.NoError(t, err)
		assert.Equal(t, tt.want, dt.Tag(), "column %d", tt.col)
	}
}

func TestSortNullsLastBothDirections(t *testing.T) {
	for _, dir := range []datatable.SortDirection{datatable.SortAscending, datatable.SortDescending} {
		t.Run(dir.String(), func(t *testing.T) {
			table := cityTable(t)
			defer table.Release()

			a, err := NewFromTable(table)
			require.NoError(t, err)
			defer a.Close()

			a.Sort(1, dir)

			v, err := a.Cell(a.RowCount()-1, 1)
			require.NoError(t, err)
			assert.True(t, v.IsNull, "null must sort last")
		})
	}
}

func TestSortNotificationPair(t *testing.T) {
	table := cityTable(t)
	defer table.Release()

	a, err := NewFromTable(table)
	require.NoError(t, err)
	defer a.Close()

	var calls []string
	a.AddLayoutObserver(&datatable.LayoutHook{
		Before: func() { calls = append(calls, "before") },
		After:  func() { calls = append(calls, "after") },
	})

	a.Sort(2, datatable.SortDescending)
	assert.Equal(t, []string{"before", "after"}, calls)

	calls = nil
	a.Sort(42, datatable.SortAscending)
	assert.Empty(t, calls, "failed sort must not notify")
}

func TestSortUnorderableColumnIgnored(t *testing.T) {
	mem := memory.NewGoAllocator()
	schema := arrowlib.NewSchema([]arrowlib.Field{
		{Name: "id", Type: arrowlib.PrimitiveTypes.Int64},
		{Name: "tags", Type: arrowlib.ListOf(arrowlib.BinaryTypes.String)},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{2, 1}, nil)
	lb := b.Field(1).(*array.ListBuilder)
	vb := lb.ValueBuilder().(*array.StringBuilder)
	lb.Append(true)
	vb.Append("x")
	lb.Append(true)
	vb.Append("y")

	rec := b.NewRecord()
	defer rec.Release()
	table := array.NewTableFromRecords(schema, []arrowlib.Record{rec})
	defer table.Release()

	a, err := NewFromTable(table)
	require.NoError(t, err)
	defer a.Close()

	a.Sort(1, datatable.SortAscending)

	v, err := a.Cell(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "2", v.Formatted, "unorderable column must leave rows untouched")
	assert.Equal(t, -1, a.SortState().Column)
}

func TestSnapshotDetached(t *testing.T) {
	a, err := NewFromDataset(tradesDataset(t))
	require.NoError(t, err)
	defer a.Close()

	snap := a.Snapshot()
	before, err := snap.Cell(0, 0)
	require.NoError(t, err)

	a.Sort(1, datatable.SortAscending)

	after, err := snap.Cell(0, 0)
	require.NoError(t, err)
	assert.Equal(t, before.Formatted, after.Formatted)
	assert.Equal(t, "AAPL", after.Formatted)
}

func TestDatasetRoundTrip(t *testing.T) {
	ds := tradesDataset(t)

	mem := memory.NewGoAllocator()
	table, err := FromDataset(ds, mem)
	require.NoError(t, err)
	defer table.Release()

	back, err := ToDataset(table)
	require.NoError(t, err)

	require.Equal(t, ds.RowCount(), back.RowCount())
	require.Equal(t, ds.ColumnCount(), back.ColumnCount())
	for row := 0; row < ds.RowCount(); row++ {
		for col := 0; col < ds.ColumnCount(); col++ {
			want, err := ds.Cell(row, col)
			require.NoError(t, err)
			got, err := back.Cell(row, col)
			require.NoError(t, err)
			assert.Equal(t, want.Formatted, got.Formatted, "row %d col %d", row, col)
			assert.Equal(t, want.IsNull, got.IsNull, "row %d col %d", row, col)
		}
	}
}

func TestEmptyTable(t *testing.T) {
	mem := memory.NewGoAllocator()
	schema := arrowlib.NewSchema([]arrowlib.Field{
		{Name: "a", Type: arrowlib.PrimitiveTypes.Int64},
	}, nil)
	b := array.NewRecordBuilder(mem, schema)
	rec := b.NewRecord()
	table := array.NewTableFromRecords(schema, []arrowlib.Record{rec})
	rec.Release()
	b.Release()
	defer table.Release()

	a, err := NewFromTable(table)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 0, a.RowCount())
	assert.Equal(t, 1, a.ColumnCount())
	a.Sort(0, datatable.SortAscending)

	snap := a.Snapshot()
	assert.Equal(t, 0, snap.RowCount())
}

// Both backends must be indistinguishable through the shared
// contract: same cell text, same normalized types, same header
// labels, same row order after the same sort.
func TestBackendEquivalence(t *testing.T) {
	ds := tradesDataset(t)

	native, err := slice.NewFromDataset(ds)
	require.NoError(t, err)
	columnar, err := NewFromDataset(ds)
	require.NoError(t, err)
	defer columnar.Close()

	assertSameGrid := func(t *testing.T) {
		t.Helper()
		require.Equal(t, native.RowCount(), columnar.RowCount())
		require.Equal(t, native.ColumnCount(), columnar.ColumnCount())
		for col := 0; col < native.ColumnCount(); col++ {
			nt, err := native.ColumnType(col)
			require.NoError(t, err)
			ct, err := columnar.ColumnType(col)
			require.NoError(t, err)
			assert.Equal(t, nt.Tag(), ct.Tag(), "column %d type", col)
			assert.Equal(t,
				datatable.HeaderLabel(native, col, datatable.Horizontal),
				datatable.HeaderLabel(columnar, col, datatable.Horizontal))
		}
		for row := 0; row < native.RowCount(); row++ {
			for col := 0; col < native.ColumnCount(); col++ {
				assert.Equal(t,
					datatable.CellString(native, row, col),
					datatable.CellString(columnar, row, col),
					"row %d col %d", row, col)
			}
		}
	}

	t.Run("unsorted", assertSameGrid)

	for col := 0; col < ds.ColumnCount(); col++ {
		for _, dir := range []datatable.SortDirection{datatable.SortAscending, datatable.SortDescending} {
			native.Sort(col, dir)
			columnar.Sort(col, dir)
			t.Run(fmt.Sprintf("col%d %s", col, dir), assertSameGrid)
		}
	}
}
