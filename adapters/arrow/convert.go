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
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/DIK2022/BI-System/datatable"
)

// mapDataType normalizes an Arrow field type to a backend data type.
func mapDataType(dt arrow.DataType) datatable.DataType {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return datatable.TypeInt
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return datatable.TypeFloat
	case arrow.BOOL:
		return datatable.TypeBool
	case arrow.DATE32, arrow.DATE64:
		return datatable.TypeDate
	case arrow.TIMESTAMP:
		return datatable.TypeTimestamp
	case arrow.DECIMAL128:
		return datatable.TypeDecimal
	case arrow.BINARY:
		return datatable.TypeBinary
	case arrow.STRUCT:
		return datatable.TypeStruct
	case arrow.LIST:
		return datatable.TypeList
	default:
		return datatable.TypeString
	}
}

// flattenTable reads the whole table into a single record so rows can
// be addressed positionally across chunk boundaries. Returns nil for
// an empty table. The caller releases the record.
func flattenTable(mem memory.Allocator, table arrow.Table) (arrow.Record, error) {
	if table.NumRows() == 0 {
		return nil, nil
	}

	tr := array.NewTableReader(table, table.NumRows())
	defer tr.Release()

	var recs []arrow.Record
	for tr.Next() {
		rec := tr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()

	if len(recs) == 0 {
		return nil, datatable.ErrEmptyData
	}
	if len(recs) == 1 {
		recs[0].Retain()
		return recs[0], nil
	}

	// Rare path: the reader split the table despite the full-size
	// chunk request. Concatenate through builders.
	schema := table.Schema()
	builders := make([]array.Builder, schema.NumFields())
	for i, field := range schema.Fields() {
		builders[i] = array.NewBuilder(mem, field.Type)
		defer builders[i].Release()
	}
	for _, rec := range recs {
		for i := range builders {
			col := rec.Column(i)
			for pos := 0; pos < col.Len(); pos++ {
				if err := appendValue(builders[i], col, pos); err != nil {
					return nil, err
				}
			}
		}
	}

	arrays := make([]arrow.Array, len(builders))
	for i, b := range builders {
		arrays[i] = b.NewArray()
		defer arrays[i].Release()
	}
	return array.NewRecord(schema, arrays, table.NumRows()), nil
}

// rebuildTable materializes a new table whose rows follow perm. Each
// column is rebuilt through a builder so the result owns its buffers.
func rebuildTable(mem memory.Allocator, schema *arrow.Schema, rec arrow.Record, perm []int) (arrow.Table, error) {
	columns := make([]arrow.Column, schema.NumFields())
	for i, field := range schema.Fields() {
		builder := array.NewBuilder(mem, field.Type)
		src := rec.Column(i)
		for _, pos := range perm {
			if err := appendValue(builder, src, pos); err != nil {
				builder.Release()
				return nil, err
			}
		}
		arr := builder.NewArray()
		chunked := arrow.NewChunked(field.Type, []arrow.Array{arr})
		columns[i] = *arrow.NewColumn(field, chunked)
		chunked.Release()
		arr.Release()
		builder.Release()
	}
	return array.NewTable(schema, columns, int64(len(perm))), nil
}

// appendValue copies one element from an array into a builder of the
// same type.
func appendValue(builder array.Builder, col arrow.Array, pos int) error {
	if col.IsNull(pos) {
		builder.AppendNull()
		return nil
	}

	switch b := builder.(type) {
	case *array.StringBuilder:
		b.Append(col.(*array.String).Value(pos))
	case *array.LargeStringBuilder:
		b.Append(col.(*array.LargeString).Value(pos))
	case *array.BinaryBuilder:
		b.Append(col.(*array.Binary).Value(pos))
	case *array.BooleanBuilder:
		b.Append(col.(*array.Boolean).Value(pos))
	case *array.Int8Builder:
		b.Append(col.(*array.Int8).Value(pos))
	case *array.Int16Builder:
		b.Append(col.(*array.Int16).Value(pos))
	case *array.Int32Builder:
		b.Append(col.(*array.Int32).Value(pos))
	case *array.Int64Builder:
		b.Append(col.(*array.Int64).Value(pos))
	case *array.Uint8Builder:
		b.Append(col.(*array.Uint8).Value(pos))
	case *array.Uint16Builder:
		b.Append(col.(*array.Uint16).Value(pos))
	case *array.Uint32Builder:
		b.Append(col.(*array.Uint32).Value(pos))
	case *array.Uint64Builder:
		b.Append(col.(*array.Uint64).Value(pos))
	case *array.Float16Builder:
		b.Append(col.(*array.Float16).Value(pos))
	case *array.Float32Builder:
		b.Append(col.(*array.Float32).Value(pos))
	case *array.Float64Builder:
		b.Append(col.(*array.Float64).Value(pos))
	case *array.Date32Builder:
		b.Append(col.(*array.Date32).Value(pos))
	case *array.Date64Builder:
		b.Append(col.(*array.Date64).Value(pos))
	case *array.TimestampBuilder:
		b.Append(col.(*array.Timestamp).Value(pos))
	case *array.Decimal128Builder:
		b.Append(col.(*array.Decimal128).Value(pos))
	case *array.StructBuilder:
		b.Append(true)
		src := col.(*array.Struct)
		for f := 0; f < b.NumField(); f++ {
			if err := appendValue(b.FieldBuilder(f), src.Field(f), pos); err != nil {
				return err
			}
		}
	case *array.ListBuilder:
		b.Append(true)
		src := col.(*array.List)
		start, end := src.ValueOffsets(pos)
		values := src.ListValues()
		vb := b.ValueBuilder()
		for v := int(start); v < int(end); v++ {
			if err := appendValue(vb, values, v); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: builder %T", datatable.ErrTypeMismatch, builder)
	}
	return nil
}

// FromDataset converts a dataset into an Arrow table. The caller
// releases the table.
func FromDataset(ds *datatable.Dataset, mem memory.Allocator) (arrow.Table, error) {
	if ds == nil {
		return nil, datatable.ErrNoDataSource
	}

	fields := make([]arrow.Field, ds.ColumnCount())
	for i := range fields {
		col, err := ds.Column(i)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{
			Name:     col.Name(),
			Type:     arrowType(col.Type()),
			Nullable: true,
		}
	}
	schema := arrow.NewSchema(fields, nil)

	columns := make([]arrow.Column, len(fields))
	for i, field := range fields {
		col, _ := ds.Column(i)
		arr, err := buildArray(mem, field.Type, col)
		if err != nil {
			return nil, err
		}
		chunked := arrow.NewChunked(field.Type, []arrow.Array{arr})
		columns[i] = *arrow.NewColumn(field, chunked)
		chunked.Release()
		arr.Release()
	}
	return array.NewTable(schema, columns, int64(ds.RowCount())), nil
}

// arrowType maps a backend data type to the Arrow type used when
// exporting a dataset. Exotic types round-trip as strings.
func arrowType(dt datatable.DataType) arrow.DataType {
	switch dt {
	case datatable.TypeInt:
		return arrow.PrimitiveTypes.Int64
	case datatable.TypeFloat, datatable.TypeDecimal:
		return arrow.PrimitiveTypes.Float64
	case datatable.TypeBool:
		return arrow.FixedWidthTypes.Boolean
	case datatable.TypeDate:
		return arrow.FixedWidthTypes.Date32
	case datatable.TypeTimestamp:
		return &arrow.TimestampType{Unit: arrow.Microsecond}
	default:
		return arrow.BinaryTypes.String
	}
}

// buildArray materializes one dataset column as an Arrow array.
func buildArray(mem memory.Allocator, at arrow.DataType, col *datatable.Column) (arrow.Array, error) {
	n := col.Len()
	switch b := array.NewBuilder(mem, at).(type) {
	case *array.Int64Builder:
		defer b.Release()
		for row := 0; row < n; row++ {
			if v, ok := col.Int(row); ok {
				b.Append(v)
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case *array.Float64Builder:
		defer b.Release()
		for row := 0; row < n; row++ {
			if v, ok := col.Float(row); ok {
				b.Append(v)
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case *array.BooleanBuilder:
		defer b.Release()
		for row := 0; row < n; row++ {
			if v, ok := col.Bool(row); ok {
				b.Append(v)
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case *array.Date32Builder:
		defer b.Release()
		for row := 0; row < n; row++ {
			if v, ok := col.Time(row); ok {
				b.Append(arrow.Date32FromTime(v))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case *array.TimestampBuilder:
		defer b.Release()
		for row := 0; row < n; row++ {
			if v, ok := col.Time(row); ok {
				b.Append(arrow.Timestamp(v.UnixMicro()))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case *array.StringBuilder:
		defer b.Release()
		for row := 0; row < n; row++ {
			if col.IsNull(row) {
				b.AppendNull()
				continue
			}
			b.Append(col.Value(row).Formatted)
		}
		return b.NewArray(), nil
	default:
		b.Release()
		return nil, fmt.Errorf("%w: %s", datatable.ErrUnsupportedFormat, at.Name())
	}
}

// ToDataset copies an Arrow table into a detached dataset. Exotic
// column types land as formatted strings.
func ToDataset(table arrow.Table) (*datatable.Dataset, error) {
	if table == nil {
		return nil, datatable.ErrNoDataSource
	}

	mem := memory.NewGoAllocator()
	rec, err := flattenTable(mem, table)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		defer rec.Release()
	}

	n := int(table.NumRows())
	cols := make([]*datatable.Column, table.Schema().NumFields())
	for i, field := range table.Schema().Fields() {
		var arr arrow.Array
		if rec != nil {
			arr = rec.Column(i)
		}
		cols[i] = datasetColumn(field.Name, mapDataType(field.Type), arr, n)
	}
	return datatable.NewDataset(cols...)
}

// datasetColumn converts one flattened Arrow column to a typed
// dataset column.
func datasetColumn(name string, dt datatable.DataType, arr arrow.Array, n int) *datatable.Column {
	valid := make([]bool, n)
	for row := 0; row < n; row++ {
		valid[row] = !arr.IsNull(row)
	}

	switch dt {
	case datatable.TypeInt:
		values := make([]int64, n)
		for row := 0; row < n; row++ {
			if valid[row] {
				values[row], _ = intAt(arr, row)
			}
		}
		return datatable.NewIntColumn(name, values, valid)
	case datatable.TypeFloat, datatable.TypeDecimal:
		values := make([]float64, n)
		for row := 0; row < n; row++ {
			if valid[row] {
				values[row] = floatCell(arr, row)
			}
		}
		return datatable.NewFloatColumn(name, values, valid)
	case datatable.TypeBool:
		values := make([]bool, n)
		for row := 0; row < n; row++ {
			if valid[row] {
				values[row] = arr.(*array.Boolean).Value(row)
			}
		}
		return datatable.NewBoolColumn(name, values, valid)
	case datatable.TypeDate, datatable.TypeTimestamp:
		values := make([]time.Time, n)
		for row := 0; row < n; row++ {
			if valid[row] {
				values[row] = timeCell(arr, row)
			}
		}
		return datatable.NewTimeColumn(name, dt, values, valid)
	default:
		values := make([]string, n)
		for row := 0; row < n; row++ {
			if valid[row] {
				values[row] = cellValue(arr, row, dt).Formatted
			}
		}
		return datatable.NewStringColumn(name, values, valid)
	}
}

// floatCell widens a numeric or decimal element to float64.
func floatCell(arr arrow.Array, row int) float64 {
	if d, ok := arr.(*array.Decimal128); ok {
		scale := d.DataType().(*arrow.Decimal128Type).Scale
		return d.Value(row).ToFloat64(scale)
	}
	f, _ := floatAt(arr, row)
	return f
}

// timeCell converts a temporal element to time.Time.
func timeCell(arr arrow.Array, row int) time.Time {
	switch a := arr.(type) {
	case *array.Date32:
		return a.Value(row).ToTime()
	case *array.Date64:
		return a.Value(row).ToTime()
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(row).ToTime(unit)
	}
	return time.Time{}
}
