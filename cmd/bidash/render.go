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
	"io"

	"github.com/olekukonko/tablewriter"

	arrowadapter "github.com/DIK2022/BI-System/adapters/arrow"
	"github.com/DIK2022/BI-System/adapters/slice"
	"github.com/DIK2022/BI-System/datatable"
	"github.com/DIK2022/BI-System/theme"
)

// buildAdapter opens a dataset under the requested table backend.
func buildAdapter(backend string, ds *datatable.Dataset) (datatable.Adapter, error) {
	if backend == "arrow" {
		return arrowadapter.NewFromDataset(ds)
	}
	return slice.NewFromDataset(ds)
}

// closeAdapter releases backend buffers for adapters that hold any.
func closeAdapter(adapter datatable.Adapter) {
	if c, ok := adapter.(interface{ Close() }); ok {
		c.Close()
	}
}

// renderModel writes the visible window of a table view as a text
// table. The leading column carries the 1-based row ordinals. With heat
// enabled, numeric cells are annotated with their computed background
// color.
func renderModel(out io.Writer, model *datatable.TableModel, heat bool, caption string) {
	table := tablewriter.NewWriter(out)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	if caption != "" {
		table.SetCaption(true, caption)
	}

	headers := []string{"#"}
	aligns := []int{tablewriter.ALIGN_RIGHT}
	for col := 0; col < model.VisibleColumnCount(); col++ {
		headers = append(headers, model.HeaderLabel(col, datatable.Horizontal))
		if model.Alignment(col) == datatable.AlignRight {
			aligns = append(aligns, tablewriter.ALIGN_RIGHT)
		} else {
			aligns = append(aligns, tablewriter.ALIGN_LEFT)
		}
	}
	table.SetHeader(headers)
	table.SetColumnAlignment(aligns)

	for row := 0; row < model.VisibleRowCount(); row++ {
		string_row := []string{model.HeaderLabel(row, datatable.Vertical)}
		for col := 0; col < model.VisibleColumnCount(); col++ {
			cell := model.CellString(row, col)
			if heat {
				if c, ok := model.BackgroundHint(row, col); ok {
					cell = fmt.Sprintf("%s %s", cell, theme.Hex(c))
				}
			}
			string_row = append(string_row, cell)
		}
		table.Append(string_row)
	}

	table.Render()
}

// renderDataset shows a plain dataset without any view state.
func renderDataset(out io.Writer, ds *datatable.Dataset) error {
	src, err := slice.NewFromDataset(ds)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	headers := []string{"#"}
	aligns := []int{tablewriter.ALIGN_RIGHT}
	for col := 0; col < src.ColumnCount(); col++ {
		headers = append(headers, datatable.HeaderLabel(src, col, datatable.Horizontal))
		dt, err := src.ColumnType(col)
		if err == nil && datatable.AlignmentFor(dt) == datatable.AlignRight {
			aligns = append(aligns, tablewriter.ALIGN_RIGHT)
		} else {
			aligns = append(aligns, tablewriter.ALIGN_LEFT)
		}
	}
	table.SetHeader(headers)
	table.SetColumnAlignment(aligns)

	for row := 0; row < src.RowCount(); row++ {
		string_row := []string{datatable.HeaderLabel(src, row, datatable.Vertical)}
		for col := 0; col < src.ColumnCount(); col++ {
			string_row = append(string_row, datatable.CellString(src, row, col))
		}
		table.Append(string_row)
	}

	table.Render()
	return nil
}
