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

package loader

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/file"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	arrowadapter "github.com/DIK2022/BI-System/adapters/arrow"
	"github.com/DIK2022/BI-System/datatable"
)

// ReadParquetTable reads a Parquet file into an Arrow table. The
// caller releases the table. This is the entry point for the Arrow
// backend; LoadParquet converts the result for the native one.
func ReadParquetTable(ctx context.Context, path string) (arrow.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f, file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return nil, fmt.Errorf("reading parquet %s: %w", path, err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("reading parquet %s: %w", path, err)
	}

	table, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading parquet %s: %w", path, err)
	}
	return table, nil
}

// LoadParquet reads a Parquet file into a dataset.
func LoadParquet(ctx context.Context, path string) (*datatable.Dataset, error) {
	table, err := ReadParquetTable(ctx, path)
	if err != nil {
		return nil, err
	}
	defer table.Release()
	return arrowadapter.ToDataset(table)
}
