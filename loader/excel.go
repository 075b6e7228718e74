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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/DIK2022/BI-System/datatable"
)

// LoadExcel reads a workbook into a dataset, applying the same type
// inference as the CSV path.
func LoadExcel(ctx context.Context, path string, opts Options) (*datatable.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ParseExcel(f, opts)
}

// ParseExcel reads workbook content from a reader. The sheet named in
// the options is used, otherwise the first sheet.
func ParseExcel(r io.Reader, opts Options) (*datatable.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]
	if opts.Sheet != "" {
		sheet = opts.Sheet
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if len(records) == 0 {
		return nil, datatable.ErrEmptyData
	}

	var headers []string
	var rows [][]string
	if opts.HasHeader {
		headers = records[0]
		rows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("col%d", i+1)
		}
		rows = records
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "﻿")
	}

	return rowsToDataset(headers, rows, opts)
}
