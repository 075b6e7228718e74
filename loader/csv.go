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
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/DIK2022/BI-System/datatable"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Candidate delimiters in tie-break order.
var delimiters = []rune{',', ';', '\t', '|'}

// Share of non-null values that must match for a column to leave the
// text type.
const inferenceThreshold = 0.8

// LoadCSV reads a delimited file into a dataset.
func LoadCSV(ctx context.Context, path string, opts Options) (*datatable.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ParseCSV(ctx, f, opts)
}

// ParseCSV reads delimited content into a dataset. A leading UTF-8
// byte order mark is discarded and the delimiter is sniffed from the
// first line unless the options pin one.
func ParseCSV(ctx context.Context, r io.Reader, opts Options) (*datatable.Dataset, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = br.Discard(len(byteOrderMark))
	}

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = sniffDelimiter(br)
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		if len(records)%2048 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		records = append(records, record)
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

	return rowsToDataset(headers, rows, opts)
}

// sniffDelimiter picks the candidate occurring most often in the
// first line. Ties and a clean miss both fall back to comma.
func sniffDelimiter(br *bufio.Reader) rune {
	peeked, _ := br.Peek(4096)
	line := string(peeked)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	best := ','
	bestCount := 0
	for _, sep := range delimiters {
		if count := strings.Count(line, string(sep)); count > bestCount {
			best = sep
			bestCount = count
		}
	}
	return best
}

// rowsToDataset turns header and cell text into typed columns. Short
// rows are padded with nulls; each column's type comes from value
// inference.
func rowsToDataset(headers []string, rows [][]string, opts Options) (*datatable.Dataset, error) {
	nulls := make(map[string]bool, len(opts.NullTokens))
	for _, tok := range opts.NullTokens {
		nulls[tok] = true
	}

	cols := make([]*datatable.Column, len(headers))
	for i, name := range headers {
		raw := make([]string, len(rows))
		isNull := make([]bool, len(rows))
		for r, row := range rows {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			if opts.TrimSpace {
				v = strings.TrimSpace(v)
			}
			if nulls[v] {
				isNull[r] = true
				continue
			}
			raw[r] = v
		}
		cols[i] = inferColumn(strings.TrimSpace(name), raw, isNull)
	}
	return datatable.NewDataset(cols...)
}

// inferColumn classifies a column from its non-null values and
// builds typed storage. Boolean wins over date wins over numeric;
// anything below the match threshold stays text. Values that miss
// the chosen type become nulls.
func inferColumn(name string, raw []string, isNull []bool) *datatable.Column {
	n := len(raw)
	valid := make([]bool, n)
	for r := range valid {
		valid[r] = !isNull[r]
	}

	total := 0
	boolCount, dateCount, intCount, floatCount := 0, 0, 0, 0
	parsedTimes := make([]time.Time, n)
	timeOK := make([]bool, n)
	for r := 0; r < n; r++ {
		if isNull[r] {
			continue
		}
		total++
		v := raw[r]
		if _, ok := parseBoolToken(v); ok {
			boolCount++
		}
		if t, ok := parseDateText(v); ok {
			parsedTimes[r], timeOK[r] = t, true
			dateCount++
		}
		if isNumericText(v) {
			floatCount++
			if isIntegerText(v) {
				intCount++
			}
		}
	}
	if total == 0 {
		return datatable.NewStringColumn(name, raw, valid)
	}

	threshold := int(float64(total) * inferenceThreshold)
	if threshold < 1 {
		threshold = 1
	}

	switch {
	case boolCount >= threshold:
		values := make([]bool, n)
		for r := 0; r < n; r++ {
			if !valid[r] {
				continue
			}
			b, ok := parseBoolToken(raw[r])
			if !ok {
				valid[r] = false
				continue
			}
			values[r] = b
		}
		return datatable.NewBoolColumn(name, values, valid)

	case dateCount >= threshold:
		allMidnight := true
		for r := 0; r < n; r++ {
			if !valid[r] {
				continue
			}
			if !timeOK[r] {
				valid[r] = false
				continue
			}
			t := parsedTimes[r]
			if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
				allMidnight = false
			}
		}
		dt := datatable.TypeTimestamp
		if allMidnight {
			dt = datatable.TypeDate
		}
		return datatable.NewTimeColumn(name, dt, parsedTimes, valid)

	case intCount >= threshold:
		values := make([]int64, n)
		for r := 0; r < n; r++ {
			if !valid[r] {
				continue
			}
			v, err := strconv.ParseInt(stripNumericText(raw[r]), 10, 64)
			if err != nil {
				valid[r] = false
				continue
			}
			values[r] = v
		}
		return datatable.NewIntColumn(name, values, valid)

	case floatCount >= threshold:
		values := make([]float64, n)
		for r := 0; r < n; r++ {
			if !valid[r] {
				continue
			}
			v, err := strconv.ParseFloat(stripNumericText(raw[r]), 64)
			if err != nil {
				valid[r] = false
				continue
			}
			values[r] = v
		}
		return datatable.NewFloatColumn(name, values, valid)

	default:
		return datatable.NewStringColumn(name, raw, valid)
	}
}

// parseBoolToken recognizes the common boolean spellings.
func parseBoolToken(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "1":
		return true, true
	case "false", "no", "0":
		return false, true
	}
	return false, false
}

// stripNumericText removes grouping commas and currency prefixes so
// "1,234.56" and "$99" both parse.
func stripNumericText(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimPrefix(s, "£")
	return s
}

func isNumericText(s string) bool {
	_, err := strconv.ParseFloat(stripNumericText(s), 64)
	return err == nil
}

func isIntegerText(s string) bool {
	_, err := strconv.ParseInt(stripNumericText(s), 10, 64)
	return err == nil
}

// Explicit layouts tried before the liberal fallback.
var inferDateLayouts = []string{
	datatable.DateOnlyFormat,
	datatable.TimestampFormat,
	time.RFC3339,
	"02.01.2006",
	"01/02/2006",
}

// parseDateText parses a cell as a date. Numeric and very short
// values never qualify, which keeps ids and plain numbers out of the
// liberal fallback parser.
func parseDateText(s string) (time.Time, bool) {
	if len(s) < 6 || isNumericText(s) {
		return time.Time{}, false
	}
	for _, layout := range inferDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
