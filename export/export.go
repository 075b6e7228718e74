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

// Package export writes datasets to CSV, JSON, Excel and Parquet.
// CSV carries display-formatted cells; JSON and Excel keep typed
// values; Parquet goes through an Arrow table with snappy
// compression.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/xuri/excelize/v2"

	arrowadapter "github.com/DIK2022/BI-System/adapters/arrow"
	"github.com/DIK2022/BI-System/datatable"
)

// Format identifies a supported output format.
type Format int

const (
	FormatCSV Format = iota
	FormatJSON
	FormatExcel
	FormatParquet
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatExcel:
		return "excel"
	case FormatParquet:
		return "parquet"
	default:
		return "unknown"
	}
}

// FormatForPath picks the output format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatExcel, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return FormatCSV, fmt.Errorf("%w: %s", datatable.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// WriteFile exports the dataset to a file, picking the format from
// the extension.
func WriteFile(ctx context.Context, ds *datatable.Dataset, path string) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", datatable.ErrExportFailed, err)
	}
	defer f.Close()

	return Write(ctx, ds, f, format)
}

// Write exports the dataset to a writer in the given format.
func Write(ctx context.Context, ds *datatable.Dataset, w io.Writer, format Format) error {
	if ds == nil {
		return fmt.Errorf("%w: %w", datatable.ErrExportFailed, datatable.ErrNoDataSource)
	}

	var err error
	switch format {
	case FormatCSV:
		err = writeCSV(ctx, ds, w)
	case FormatJSON:
		err = writeJSON(ctx, ds, w)
	case FormatExcel:
		err = writeExcel(ctx, ds, w)
	case FormatParquet:
		err = writeParquet(ds, w)
	default:
		err = fmt.Errorf("%w: format %d", datatable.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", datatable.ErrExportFailed, err)
	}
	return nil
}

func writeCSV(ctx context.Context, ds *datatable.Dataset, w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(ds.ColumnNames()); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	cells := make([]string, ds.ColumnCount())
	for row := 0; row < ds.RowCount(); row++ {
		if row%2048 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		values, err := ds.Row(row)
		if err != nil {
			return err
		}
		for col, v := range values {
			cells[col] = v.Formatted
		}
		if err := writer.Write(cells); err != nil {
			return fmt.Errorf("writing csv row %d: %w", row, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeJSON(ctx context.Context, ds *datatable.Dataset, w io.Writer) error {
	names := ds.ColumnNames()
	records := make([]map[string]interface{}, 0, ds.RowCount())
	for row := 0; row < ds.RowCount(); row++ {
		if row%2048 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		values, err := ds.Row(row)
		if err != nil {
			return err
		}
		record := make(map[string]interface{}, len(names))
		for col, v := range values {
			record[names[col]] = typedValue(v)
		}
		records = append(records, record)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

func writeExcel(ctx context.Context, ds *datatable.Dataset, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("creating stream writer: %w", err)
	}

	names := ds.ColumnNames()
	header := make([]interface{}, len(names))
	for i, name := range names {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("writing xlsx header: %w", err)
	}

	for row := 0; row < ds.RowCount(); row++ {
		if row%2048 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		values, err := ds.Row(row)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(values))
		for col, v := range values {
			cells[col] = typedValue(v)
		}
		anchor, err := excelize.CoordinatesToCellName(1, row+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(anchor, cells); err != nil {
			return fmt.Errorf("writing xlsx row %d: %w", row, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing xlsx: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}

func writeParquet(ds *datatable.Dataset, w io.Writer) error {
	mem := memory.NewGoAllocator()
	table, err := arrowadapter.FromDataset(ds, mem)
	if err != nil {
		return err
	}
	defer table.Release()
	return writeTableParquet(table, w)
}

// WriteTableParquet writes an Arrow table as Parquet, letting the
// Arrow backend export without a dataset conversion.
func WriteTableParquet(table arrow.Table, w io.Writer) error {
	if err := writeTableParquet(table, w); err != nil {
		return fmt.Errorf("%w: %w", datatable.ErrExportFailed, err)
	}
	return nil
}

func writeTableParquet(table arrow.Table, w io.Writer) error {
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(table.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}

	if err := writer.WriteTable(table, table.NumRows()); err != nil {
		writer.Close()
		return fmt.Errorf("writing parquet: %w", err)
	}
	return writer.Close()
}

// typedValue maps a cell to its JSON or spreadsheet representation.
// Temporal values keep their display text, everything else exports
// the raw typed value.
func typedValue(v datatable.Value) interface{} {
	if v.IsNull {
		return nil
	}
	switch v.Type {
	case datatable.TypeDate, datatable.TypeTimestamp:
		return v.Formatted
	default:
		return v.Raw
	}
}
