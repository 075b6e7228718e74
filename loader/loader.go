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

// Package loader reads tabular files into datasets. Supported formats
// are CSV, Parquet, JSON and Excel; unrecognized extensions fall back
// to the CSV path. A deterministic synthetic generator covers demos
// and tests that need data without a file.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/DIK2022/BI-System/datatable"
	"github.com/DIK2022/BI-System/logging"
)

// FileType identifies a supported input format.
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeCSV
	FileTypeParquet
	FileTypeJSON
	FileTypeExcel
)

// String returns the format name.
func (ft FileType) String() string {
	switch ft {
	case FileTypeCSV:
		return "csv"
	case FileTypeParquet:
		return "parquet"
	case FileTypeJSON:
		return "json"
	case FileTypeExcel:
		return "excel"
	default:
		return "unknown"
	}
}

// DetectFileType determines the format from the file extension.
func DetectFileType(path string) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return FileTypeCSV
	case ".parquet":
		return FileTypeParquet
	case ".json":
		return FileTypeJSON
	case ".xlsx", ".xlsm":
		return FileTypeExcel
	default:
		return FileTypeUnknown
	}
}

// Options controls parsing of delimited and sheet inputs.
type Options struct {
	// Delimiter for CSV input. Zero means sniff it from the first
	// line.
	Delimiter rune

	// HasHeader treats the first row as column names. Without it
	// columns are named col1, col2, and so on.
	HasHeader bool

	// TrimSpace strips surrounding whitespace from every cell before
	// inference.
	TrimSpace bool

	// NullTokens are cell texts treated as null.
	NullTokens []string

	// Sheet selects the Excel worksheet by name. Empty means the
	// first sheet.
	Sheet string
}

// DefaultOptions returns the options used by Load.
func DefaultOptions() Options {
	return Options{
		HasHeader:  true,
		TrimSpace:  true,
		NullTokens: []string{"", "null", "NULL", "N/A", "n/a"},
	}
}

// Load reads a file into a dataset, dispatching on the detected
// format with default options.
func Load(ctx context.Context, path string) (*datatable.Dataset, error) {
	return LoadWithOptions(ctx, path, DefaultOptions())
}

// LoadWithOptions reads a file into a dataset. Files with an
// unrecognized extension go through the CSV path.
func LoadWithOptions(ctx context.Context, path string, opts Options) (*datatable.Dataset, error) {
	switch DetectFileType(path) {
	case FileTypeParquet:
		return LoadParquet(ctx, path)
	case FileTypeJSON:
		return LoadJSON(ctx, path)
	case FileTypeExcel:
		return LoadExcel(ctx, path, opts)
	case FileTypeCSV:
		return LoadCSV(ctx, path, opts)
	default:
		logging.Component("loader").WithField("path", path).
			Warn("unrecognized extension, trying CSV")
		ds, err := LoadCSV(ctx, path, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", datatable.ErrUnsupportedFormat, filepath.Ext(path))
		}
		return ds, nil
	}
}
