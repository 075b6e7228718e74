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

// Package arrow adapts an Apache Arrow table as a table backend.
// Cell formatting, column type normalization and sort order follow
// the shared backend contract, so a grid cannot tell this variant
// apart from the native one.
package arrow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/sirupsen/logrus"

	"github.com/DIK2022/BI-System/datatable"
	"github.com/DIK2022/BI-System/logging"
)

// Adapter presents an Arrow table through the backend contract. The
// table is retained for the adapter's lifetime; Close releases it.
// Sorting rebuilds the table in permuted row order through builders,
// it never mutates shared Arrow buffers.
type Adapter struct {
	datatable.LayoutNotifier

	table arrow.Table
	// rec is the table flattened to a single record for positional
	// cell access across chunk boundaries. Nil for empty tables.
	rec arrow.Record

	colTypes  []datatable.DataType
	sortState datatable.SortState
	mem       memory.Allocator
	logger    *logrus.Entry
}

// NewFromTable creates an adapter over an Arrow table. The table is
// retained; the caller keeps its own reference.
func NewFromTable(table arrow.Table) (*Adapter, error) {
	if table == nil {
		return nil, datatable.ErrNoDataSource
	}

	mem := memory.NewGoAllocator()
	rec, err := flattenTable(mem, table)
	if err != nil {
		return nil, fmt.Errorf("flattening table: %w", err)
	}

	table.Retain()
	a := &Adapter{
		table:     table,
		rec:       rec,
		mem:       mem,
		sortState: datatable.SortState{Column: -1},
		logger:    logging.Component("arrow"),
	}
	a.colTypes = make([]datatable.DataType, table.Schema().NumFields())
	for i := range a.colTypes {
		a.colTypes[i] = mapDataType(table.Schema().Field(i).Type)
	}
	return a, nil
}

// NewFromDataset converts a dataset into an Arrow table and adapts
// it. The adapter owns the converted table.
func NewFromDataset(ds *datatable.Dataset) (*Adapter, error) {
	if ds == nil {
		return nil, datatable.ErrNoDataSource
	}
	mem := memory.NewGoAllocator()
	table, err := FromDataset(ds, mem)
	if err != nil {
		return nil, err
	}
	a, err := NewFromTable(table)
	table.Release()
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases the underlying Arrow buffers. The adapter must not
// be used afterwards.
func (a *Adapter) Close() {
	if a.rec != nil {
		a.rec.Release()
		a.rec = nil
	}
	if a.table != nil {
		a.table.Release()
		a.table = nil
	}
}

// Table returns the adapter's current Arrow table, reflecting any
// applied sort. The caller must Retain it to hold it beyond the
// adapter's lifetime.
func (a *Adapter) Table() arrow.Table { return a.table }

// RowCount implements datatable.DataSource.
func (a *Adapter) RowCount() int { return int(a.table.NumRows()) }

// ColumnCount implements datatable.DataSource.
func (a *Adapter) ColumnCount() int { return a.table.Schema().NumFields() }

// ColumnName implements datatable.DataSource.
func (a *Adapter) ColumnName(col int) (string, error) {
	if col < 0 || col >= a.ColumnCount() {
		return "", fmt.Errorf("%w: %d", datatable.ErrInvalidColumn, col)
	}
	return a.table.Schema().Field(col).Name, nil
}

// ColumnType implements datatable.DataSource.
func (a *Adapter) ColumnType(col int) (datatable.DataType, error) {
	if col < 0 || col >= len(a.colTypes) {
		return datatable.TypeString, fmt.Errorf("%w: %d", datatable.ErrInvalidColumn, col)
	}
	return a.colTypes[col], nil
}

// Cell implements datatable.DataSource.
func (a *Adapter) Cell(row, col int) (datatable.Value, error) {
	if col < 0 || col >= a.ColumnCount() {
		return datatable.Value{}, fmt.Errorf("%w: %d", datatable.ErrInvalidColumn, col)
	}
	if row < 0 || row >= a.RowCount() || a.rec == nil {
		return datatable.Value{}, fmt.Errorf("%w: %d", datatable.ErrInvalidRow, row)
	}
	return cellValue(a.rec.Column(col), row, a.colTypes[col]), nil
}

// Row implements datatable.DataSource.
func (a *Adapter) Row(row int) ([]datatable.Value, error) {
	if row < 0 || row >= a.RowCount() || a.rec == nil {
		return nil, fmt.Errorf("%w: %d", datatable.ErrInvalidRow, row)
	}
	values := make([]datatable.Value, a.ColumnCount())
	for col := range values {
		values[col] = cellValue(a.rec.Column(col), row, a.colTypes[col])
	}
	return values, nil
}

// Metadata implements datatable.DataSource.
func (a *Adapter) Metadata() datatable.Metadata {
	return datatable.Metadata{"backend": "arrow"}
}

// SortState implements datatable.Adapter.
func (a *Adapter) SortState() datatable.SortState { return a.sortState }

// Sort implements datatable.Adapter. The reorder is stable with nulls
// last in both directions. Columns without a natural order (structs,
// lists, intervals) and out-of-range columns leave the table
// untouched; the failure goes to the diagnostic log only.
func (a *Adapter) Sort(col int, direction datatable.SortDirection) {
	if direction == datatable.SortNone {
		a.sortState = datatable.SortState{Column: -1}
		return
	}
	if col < 0 || col >= a.ColumnCount() {
		a.logger.WithField("column", col).Debug("sort on invalid column ignored")
		return
	}
	if a.rec == nil || a.RowCount() == 0 {
		a.sortState = datatable.SortState{Column: col, Direction: direction}
		return
	}

	arr := a.rec.Column(col)
	if !orderable(arr) {
		a.logger.WithField("column", col).WithField("type", arr.DataType().Name()).
			Debug("column values are not orderable, sort ignored")
		return
	}

	perm := make([]int, a.RowCount())
	for i := range perm {
		perm[i] = i
	}
	descending := direction == datatable.SortDescending
	sort.SliceStable(perm, func(x, y int) bool {
		i, j := perm[x], perm[y]
		in, jn := arr.IsNull(i), arr.IsNull(j)
		if in || jn {
			return !in && jn
		}
		cmp := compareAt(arr, i, j)
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})

	a.NotifyLayoutAboutToChange()
	sorted, err := rebuildTable(a.mem, a.table.Schema(), a.rec, perm)
	if err != nil {
		a.logger.WithError(err).Warn("sort rebuild failed, order unchanged")
		a.NotifyLayoutChanged()
		return
	}
	rec, err := flattenTable(a.mem, sorted)
	if err != nil {
		sorted.Release()
		a.logger.WithError(err).Warn("sort rebuild failed, order unchanged")
		a.NotifyLayoutChanged()
		return
	}

	if a.rec != nil {
		a.rec.Release()
	}
	a.table.Release()
	a.table = sorted
	a.rec = rec
	a.sortState = datatable.SortState{Column: col, Direction: direction}
	a.NotifyLayoutChanged()
}

// Snapshot implements datatable.Adapter. The copy is fully detached
// from the adapter's Arrow buffers.
func (a *Adapter) Snapshot() *datatable.Dataset {
	ds, err := ToDataset(a.table)
	if err != nil {
		a.logger.WithError(err).Warn("snapshot conversion failed, returning empty dataset")
		empty, _ := datatable.NewDataset()
		return empty
	}
	return ds
}

// cellValue extracts one cell as a typed, formatted value.
func cellValue(col arrow.Array, pos int, dt datatable.DataType) datatable.Value {
	if col.IsNull(pos) {
		return datatable.NewNullValue(dt)
	}

	switch col.DataType().ID() {
	case arrow.STRING:
		return datatable.NewValue(col.(*array.String).Value(pos), dt)
	case arrow.LARGE_STRING:
		return datatable.NewValue(col.(*array.LargeString).Value(pos), dt)
	case arrow.BINARY:
		return datatable.NewValue(string(col.(*array.Binary).Value(pos)), dt)
	case arrow.BOOL:
		return datatable.NewValue(col.(*array.Boolean).Value(pos), dt)
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		n, _ := intAt(col, pos)
		return datatable.NewValue(n, dt)
	case arrow.FLOAT32, arrow.FLOAT64, arrow.FLOAT16:
		f, _ := floatAt(col, pos)
		return datatable.NewValue(f, dt)
	case arrow.DATE32:
		return datatable.NewValue(col.(*array.Date32).Value(pos).ToTime(), dt)
	case arrow.DATE64:
		return datatable.NewValue(col.(*array.Date64).Value(pos).ToTime(), dt)
	case arrow.TIMESTAMP:
		ts := col.(*array.Timestamp)
		unit := col.DataType().(*arrow.TimestampType).Unit
		return datatable.NewValue(ts.Value(pos).ToTime(unit), dt)
	case arrow.DECIMAL128:
		d := col.(*array.Decimal128)
		scale := col.DataType().(*arrow.Decimal128Type).Scale
		return datatable.NewValue(d.Value(pos).ToFloat64(scale), dt)
	case arrow.STRUCT:
		slice := array.NewSlice(col, int64(pos), int64(pos+1))
		defer slice.Release()
		b, _ := slice.(*array.Struct).MarshalJSON()
		return datatable.NewValue(string(b), dt)
	case arrow.LIST:
		slice := array.NewSlice(col, int64(pos), int64(pos+1))
		defer slice.Release()
		return datatable.NewValue(fmt.Sprintf("%v", slice), dt)
	default:
		return datatable.NewValue(fmt.Sprintf("%v", col.ValueStr(pos)), dt)
	}
}

// intAt widens any integer array element to int64.
func intAt(col arrow.Array, pos int) (int64, bool) {
	switch arr := col.(type) {
	case *array.Int8:
		return int64(arr.Value(pos)), true
	case *array.Int16:
		return int64(arr.Value(pos)), true
	case *array.Int32:
		return int64(arr.Value(pos)), true
	case *array.Int64:
		return arr.Value(pos), true
	case *array.Uint8:
		return int64(arr.Value(pos)), true
	case *array.Uint16:
		return int64(arr.Value(pos)), true
	case *array.Uint32:
		return int64(arr.Value(pos)), true
	case *array.Uint64:
		return int64(arr.Value(pos)), true
	}
	return 0, false
}

// floatAt widens any floating-point array element to float64.
func floatAt(col arrow.Array, pos int) (float64, bool) {
	switch arr := col.(type) {
	case *array.Float32:
		return float64(arr.Value(pos)), true
	case *array.Float64:
		return arr.Value(pos), true
	case *array.Float16:
		return float64(arr.Value(pos).Float32()), true
	}
	return 0, false
}

// orderable reports whether array elements have a natural order the
// sort can use.
func orderable(col arrow.Array) bool {
	switch col.DataType().ID() {
	case arrow.STRING, arrow.LARGE_STRING, arrow.BINARY, arrow.BOOL,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64,
		arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP, arrow.DECIMAL128:
		return true
	}
	return false
}

// compareAt orders two non-null elements of an orderable array.
func compareAt(col arrow.Array, i, j int) int {
	switch arr := col.(type) {
	case *array.String:
		return strings.Compare(arr.Value(i), arr.Value(j))
	case *array.LargeString:
		return strings.Compare(arr.Value(i), arr.Value(j))
	case *array.Binary:
		return strings.Compare(string(arr.Value(i)), string(arr.Value(j)))
	case *array.Boolean:
		a, b := arr.Value(i), arr.Value(j)
		switch {
		case !a && b:
			return -1
		case a && !b:
			return 1
		}
		return 0
	case *array.Date32:
		return compareInt64(int64(arr.Value(i)), int64(arr.Value(j)))
	case *array.Date64:
		return compareInt64(int64(arr.Value(i)), int64(arr.Value(j)))
	case *array.Timestamp:
		return compareInt64(int64(arr.Value(i)), int64(arr.Value(j)))
	case *array.Decimal128:
		scale := arr.DataType().(*arrow.Decimal128Type).Scale
		return compareFloat64(arr.Value(i).ToFloat64(scale), arr.Value(j).ToFloat64(scale))
	}

	if a, ok := intAt(col, i); ok {
		b, _ := intAt(col, j)
		return compareInt64(a, b)
	}
	if a, ok := floatAt(col, i); ok {
		b, _ := floatAt(col, j)
		return compareFloat64(a, b)
	}
	return 0
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
