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

// Package slice adapts an in-memory columnar dataset as a table
// backend. It is the native counterpart of the Arrow variant and
// honors the same cell, type and sort contract.
package slice

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/DIK2022/BI-System/datatable"
	"github.com/DIK2022/BI-System/logging"
)

// Adapter presents a dataset through the backend contract. The
// adapter owns a private copy, so later mutation of the caller's
// dataset never shows through.
type Adapter struct {
	datatable.LayoutNotifier

	ds        *datatable.Dataset
	sortState datatable.SortState
	logger    *logrus.Entry
}

// NewFromDataset creates an adapter over a copy of the dataset.
func NewFromDataset(ds *datatable.Dataset) (*Adapter, error) {
	if ds == nil {
		return nil, datatable.ErrNoDataSource
	}
	return &Adapter{
		ds:        ds.Clone(),
		sortState: datatable.SortState{Column: -1},
		logger:    logging.Component("slice"),
	}, nil
}

// NewFromMaps builds an adapter from row maps, such as decoded JSON
// objects. Columns form the union of all keys in name order; missing
// keys become nulls. Column types come from the first value seen.
func NewFromMaps(rows []map[string]interface{}) (*Adapter, error) {
	seen := make(map[string]bool)
	var names []string
	for _, row := range rows {
		for name := range row {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	cols := make([]*datatable.Column, len(names))
	for i, name := range names {
		raws := make([]interface{}, len(rows))
		for r, row := range rows {
			raws[r] = row[name]
		}
		cols[i] = datatable.NewColumnFromInterfaces(name, raws)
	}

	ds, err := datatable.NewDataset(cols...)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		ds:        ds,
		sortState: datatable.SortState{Column: -1},
		logger:    logging.Component("slice"),
	}, nil
}

// RowCount implements datatable.DataSource.
func (a *Adapter) RowCount() int { return a.ds.RowCount() }

// ColumnCount implements datatable.DataSource.
func (a *Adapter) ColumnCount() int { return a.ds.ColumnCount() }

// ColumnName implements datatable.DataSource.
func (a *Adapter) ColumnName(col int) (string, error) {
	c, err := a.ds.Column(col)
	if err != nil {
		return "", err
	}
	return c.Name(), nil
}

// ColumnType implements datatable.DataSource.
func (a *Adapter) ColumnType(col int) (datatable.DataType, error) {
	c, err := a.ds.Column(col)
	if err != nil {
		return datatable.TypeString, err
	}
	return c.Type(), nil
}

// Cell implements datatable.DataSource.
func (a *Adapter) Cell(row, col int) (datatable.Value, error) {
	return a.ds.Cell(row, col)
}

// Row implements datatable.DataSource.
func (a *Adapter) Row(row int) ([]datatable.Value, error) {
	return a.ds.Row(row)
}

// Metadata implements datatable.DataSource.
func (a *Adapter) Metadata() datatable.Metadata {
	return datatable.Metadata{"backend": "native"}
}

// SortState implements datatable.Adapter.
func (a *Adapter) SortState() datatable.SortState { return a.sortState }

// Sort implements datatable.Adapter. The reorder is stable with nulls
// last in both directions. Failures leave the row order untouched and
// go to the diagnostic log only.
func (a *Adapter) Sort(col int, direction datatable.SortDirection) {
	if direction == datatable.SortNone {
		a.sortState = datatable.SortState{Column: -1}
		return
	}

	perm, err := a.ds.SortPermutation(col, direction)
	if err != nil {
		a.logger.WithError(err).WithField("column", col).Debug("sort ignored")
		return
	}

	a.NotifyLayoutAboutToChange()
	if err := a.ds.Reorder(perm); err != nil {
		a.logger.WithError(err).Warn(fmt.Sprintf("reorder failed on column %d", col))
		a.NotifyLayoutChanged()
		return
	}
	a.sortState = datatable.SortState{Column: col, Direction: direction}
	a.NotifyLayoutChanged()
}

// Snapshot implements datatable.Adapter. The copy shares no storage
// with the adapter.
func (a *Adapter) Snapshot() *datatable.Dataset { return a.ds.Clone() }
