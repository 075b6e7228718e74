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

package main

import (
	"fmt"

	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/DIK2022/BI-System/datatable"
	"github.com/DIK2022/BI-System/export"
	"github.com/DIK2022/BI-System/internal/filter"
	"github.com/DIK2022/BI-System/loader"
)

var (
	export_cmd = app.Command("export", "Convert a data file to another format")
	export_src = export_cmd.Arg("source", "Input data file").Required().String()
	export_dst = export_cmd.Arg("dest",
		"Output file; the extension picks the format (csv, json, xlsx, parquet)").Required().String()

	export_where = export_cmd.Flag("where",
		"Export only rows matching this filter expression").String()

	export_columns = export_cmd.Flag("column",
		"Columns to export, in order (repeatable)").Strings()
)

func doExport() {
	cfg := loadConfigOrDefault()

	ctx, cancel := timeoutContext(0)
	defer cancel()

	ds, err := loader.LoadWithOptions(ctx, *export_src, loaderOptions(cfg))
	kingpin.FatalIfError(err, "Load data ")

	if *export_where != "" || len(*export_columns) > 0 {
		ds, err = applyViewState(ds, *export_where, *export_columns)
		kingpin.FatalIfError(err, "Apply view ")
	}

	err = export.WriteFile(ctx, ds, *export_dst)
	kingpin.FatalIfError(err, "Export ")

	fmt.Printf("wrote %d rows to %s\n", ds.RowCount(), *export_dst)
}

// applyViewState narrows a dataset through a table view: filter rows by
// a query expression, keep only the selected columns, and materialize
// the result.
func applyViewState(ds *datatable.Dataset, where string, columns []string) (*datatable.Dataset, error) {
	adapter, err := buildAdapter("native", ds)
	if err != nil {
		return nil, err
	}
	model, err := datatable.NewTableModel(adapter)
	if err != nil {
		return nil, err
	}

	if where != "" {
		query, err := filter.ParseQuery(where, ds.ColumnNames())
		if err != nil {
			return nil, err
		}
		if query != nil {
			model.SetFilter(query)
		}
	}
	if len(columns) > 0 {
		if err := model.SetColumnSelection(columns); err != nil {
			return nil, err
		}
	}

	return model.MaterializeDataset()
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case export_cmd.FullCommand():
			doExport()

		default:
			return false
		}
		return true
	})
}
