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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/DIK2022/BI-System/datatable"
	"github.com/DIK2022/BI-System/internal/filter"
	"github.com/DIK2022/BI-System/loader"
	"github.com/DIK2022/BI-System/theme"
)

var (
	show_cmd  = app.Command("show", "Display a data file as a table")
	show_file = show_cmd.Arg("file", "Data file to display").Required().String()

	show_backend = show_cmd.Flag("backend", "Table backend").
			Default("native").Enum("native", "arrow")

	show_where = show_cmd.Flag("where",
		"A filter expression, like 'sales > 100 AND region ~ no'").String()

	show_filters = show_cmd.Flag("filters",
		"Structured filter specification as JSON").String()

	show_sort = show_cmd.Flag("sort", "Column to sort by").String()
	show_desc = show_cmd.Flag("desc", "Sort descending").Bool()

	show_columns = show_cmd.Flag("column",
		"Columns to display, in order (repeatable)").Strings()

	show_limit = show_cmd.Flag("limit", "Maximum rows to display").Int()

	show_heat = show_cmd.Flag("heatmap",
		"Annotate numeric cells with their heat color").Bool()
)

func doShow() {
	cfg := loadConfigOrDefault()

	if *show_where != "" && *show_filters != "" {
		kingpin.Fatalf("use either --where or --filters, not both")
	}

	ctx, cancel := timeoutContext(0)
	defer cancel()

	ds, err := loader.LoadWithOptions(ctx, *show_file, loaderOptions(cfg))
	kingpin.FatalIfError(err, "Load data ")

	adapter, err := buildAdapter(*show_backend, ds)
	kingpin.FatalIfError(err, "Open backend ")
	defer closeAdapter(adapter)

	model, err := datatable.NewTableModel(adapter)
	kingpin.FatalIfError(err, "Build view ")

	variant, err := theme.ParseVariant(cfg.Theme)
	kingpin.FatalIfError(err, "Theme ")
	palette := theme.PaletteFor(variant)
	model.SetGradient(datatable.Gradient{Low: palette.GradientLow, High: palette.GradientHigh})

	if *show_filters != "" {
		var spec filter.Spec
		err := json.Unmarshal([]byte(*show_filters), &spec)
		kingpin.FatalIfError(err, "Parse filters ")
		compiled, err := spec.Compile()
		kingpin.FatalIfError(err, "Compile filters ")
		model.SetFilter(compiled)
	}
	if *show_where != "" {
		query, err := filter.ParseQuery(*show_where, ds.ColumnNames())
		kingpin.FatalIfError(err, "Parse query ")
		if query != nil {
			model.SetFilter(query)
		}
	}

	if len(*show_columns) > 0 {
		err := model.SetColumnSelection(*show_columns)
		kingpin.FatalIfError(err, "Select columns ")
	}

	if *show_sort != "" {
		col := -1
		for i := 0; i < model.VisibleColumnCount(); i++ {
			name, _ := model.VisibleColumnName(i)
			if strings.EqualFold(name, *show_sort) {
				col = i
				break
			}
		}
		if col < 0 {
			kingpin.Fatalf("unknown sort column %q", *show_sort)
		}
		direction := datatable.SortAscending
		if *show_desc {
			direction = datatable.SortDescending
		}
		model.Sort(col, direction)
	}

	switch {
	case *show_limit > 0:
		model.SetRowLimit(*show_limit)
	case cfg.RowLimit > 0:
		model.SetRowLimit(cfg.RowLimit)
	}

	caption := fmt.Sprintf("%d of %d rows", model.VisibleRowCount(), model.OriginalRowCount())
	if f := model.ActiveFilter(); f != nil {
		caption += " where " + f.Description()
	}

	renderModel(os.Stdout, model, *show_heat, caption)
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case show_cmd.FullCommand():
			doShow()

		default:
			return false
		}
		return true
	})
}
