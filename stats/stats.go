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

// Package stats computes summaries over datasets: a full text
// analysis report, numeric describe tables, Pearson correlation and
// grouped aggregation.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/DIK2022/BI-System/datatable"
)

// Aggregation names accepted by GroupBy.
const (
	AggSum   = "sum"
	AggMean  = "mean"
	AggCount = "count"
	AggMin   = "min"
	AggMax   = "max"
	AggStd   = "std"
)

// NumericSummary describes one numeric column.
type NumericSummary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Median float64
	Max    float64
}

// Describe summarizes every numeric column. Non-numeric columns are
// skipped; null cells do not contribute.
func Describe(ds *datatable.Dataset) ([]NumericSummary, error) {
	if ds == nil {
		return nil, datatable.ErrNoDataSource
	}

	var summaries []NumericSummary
	for i := 0; i < ds.ColumnCount(); i++ {
		col, err := ds.Column(i)
		if err != nil {
			return nil, err
		}
		if !col.Type().IsNumeric() {
			continue
		}
		values := columnFloats(col)
		summaries = append(summaries, NumericSummary{
			Column: col.Name(),
			Count:  len(values),
			Mean:   mean(values),
			Std:    sampleStd(values),
			Min:    minOf(values),
			Median: median(values),
			Max:    maxOf(values),
		})
	}
	return summaries, nil
}

// Correlation computes the pairwise Pearson matrix over numeric
// columns. The result has a leading name column followed by one
// float column per numeric input. Pairs without variance come out
// as zero.
func Correlation(ds *datatable.Dataset) (*datatable.Dataset, error) {
	if ds == nil {
		return nil, datatable.ErrNoDataSource
	}

	var numeric []*datatable.Column
	for i := 0; i < ds.ColumnCount(); i++ {
		col, err := ds.Column(i)
		if err != nil {
			return nil, err
		}
		if col.Type().IsNumeric() {
			numeric = append(numeric, col)
		}
	}
	if len(numeric) < 2 {
		return nil, errors.New("correlation needs at least two numeric columns")
	}

	names := make([]string, len(numeric))
	for i, col := range numeric {
		names[i] = col.Name()
	}

	cols := make([]*datatable.Column, 0, len(numeric)+1)
	cols = append(cols, datatable.NewStringColumn("column", names, nil))
	for j, right := range numeric {
		values := make([]float64, len(numeric))
		for i, left := range numeric {
			values[i] = pearson(left, right)
		}
		cols = append(cols, datatable.NewFloatColumn(names[j], values, nil))
	}
	return datatable.NewDataset(cols...)
}

// GroupBy aggregates a measure per distinct value of the group
// column. Groups keep first-appearance order; count counts non-null
// measure cells.
func GroupBy(ds *datatable.Dataset, groupCol, measureCol, agg string) (*datatable.Dataset, error) {
	if ds == nil {
		return nil, datatable.ErrNoDataSource
	}
	switch agg {
	case AggSum, AggMean, AggCount, AggMin, AggMax, AggStd:
	default:
		return nil, fmt.Errorf("unknown aggregation %q", agg)
	}

	group, err := ds.ColumnByName(groupCol)
	if err != nil {
		return nil, fmt.Errorf("group column %s: %w", groupCol, err)
	}
	measure, err := ds.ColumnByName(measureCol)
	if err != nil {
		return nil, fmt.Errorf("measure column %s: %w", measureCol, err)
	}
	if agg != AggCount && !measure.Type().IsNumeric() {
		return nil, fmt.Errorf("%w: %s aggregation needs a numeric measure", datatable.ErrTypeMismatch, agg)
	}

	var keys []string
	buckets := make(map[string][]float64)
	for row := 0; row < ds.RowCount(); row++ {
		key := group.Value(row).Formatted
		if _, seen := buckets[key]; !seen {
			keys = append(keys, key)
			buckets[key] = nil
		}
		if v, ok := measure.Float(row); ok {
			buckets[key] = append(buckets[key], v)
		} else if agg == AggCount && !measure.IsNull(row) {
			buckets[key] = append(buckets[key], 0)
		}
	}

	results := make([]float64, len(keys))
	for i, key := range keys {
		results[i] = aggregate(agg, buckets[key])
	}

	resultName := measureCol + "_" + agg
	if agg == AggCount {
		return datatable.NewDataset(
			datatable.NewStringColumn(groupCol, keys, nil),
			intColumnFromFloats(resultName, results),
		)
	}
	return datatable.NewDataset(
		datatable.NewStringColumn(groupCol, keys, nil),
		datatable.NewFloatColumn(resultName, results, nil),
	)
}

func aggregate(agg string, values []float64) float64 {
	switch agg {
	case AggSum:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum
	case AggMean:
		return mean(values)
	case AggCount:
		return float64(len(values))
	case AggMin:
		return minOf(values)
	case AggMax:
		return maxOf(values)
	case AggStd:
		return sampleStd(values)
	}
	return 0
}

func intColumnFromFloats(name string, values []float64) *datatable.Column {
	ints := make([]int64, len(values))
	for i, v := range values {
		ints[i] = int64(v)
	}
	return datatable.NewIntColumn(name, ints, nil)
}

func columnFloats(col *datatable.Column) []float64 {
	var values []float64
	for row := 0; row < col.Len(); row++ {
		if v, ok := col.Float(row); ok {
			values = append(values, v)
		}
	}
	return values
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd is the n-1 standard deviation.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// pearson correlates two columns over rows where both are non-null.
func pearson(a, b *datatable.Column) float64 {
	var xs, ys []float64
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	for row := 0; row < n; row++ {
		x, okx := a.Float(row)
		y, oky := b.Float(row)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return 0
	}

	mx, my := mean(xs), mean(ys)
	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

// Analyze renders the full text report: size, column types, missing
// values, numeric statistics and categorical breakdowns.
func Analyze(ds *datatable.Dataset) (string, error) {
	if ds == nil {
		return "", datatable.ErrNoDataSource
	}

	var b strings.Builder
	banner := strings.Repeat("=", 60)
	fmt.Fprintln(&b, banner)
	fmt.Fprintln(&b, "DATA ANALYSIS REPORT")
	fmt.Fprintln(&b, banner)

	fmt.Fprintf(&b, "\n1. Dataset size: %d rows, %d columns\n", ds.RowCount(), ds.ColumnCount())

	fmt.Fprintln(&b, "\n2. Column types:")
	for i := 0; i < ds.ColumnCount(); i++ {
		col, err := ds.Column(i)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "   %-20s %s\n", col.Name(), col.Type())
	}

	fmt.Fprintln(&b, "\n3. Missing values:")
	for i := 0; i < ds.ColumnCount(); i++ {
		col, _ := ds.Column(i)
		missing := 0
		for row := 0; row < col.Len(); row++ {
			if col.IsNull(row) {
				missing++
			}
		}
		percent := 0.0
		if ds.RowCount() > 0 {
			percent = float64(missing) / float64(ds.RowCount()) * 100
		}
		fmt.Fprintf(&b, "   %-20s %d (%.1f%%)\n", col.Name(), missing, percent)
	}

	fmt.Fprintln(&b, "\n4. Numeric statistics:")
	summaries, err := Describe(ds)
	if err != nil {
		return "", err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(&b, "   (no numeric columns)")
	}
	for _, s := range summaries {
		fmt.Fprintf(&b, "   %-20s min=%.2f max=%.2f mean=%.2f median=%.2f std=%.2f\n",
			s.Column, s.Min, s.Max, s.Mean, s.Median, s.Std)
	}

	fmt.Fprintln(&b, "\n5. Categorical columns:")
	hasCategorical := false
	for i := 0; i < ds.ColumnCount(); i++ {
		col, _ := ds.Column(i)
		if col.Type() != datatable.TypeString {
			continue
		}
		hasCategorical = true
		counts := make(map[string]int)
		var order []string
		for row := 0; row < col.Len(); row++ {
			if col.IsNull(row) {
				continue
			}
			v := col.Value(row).Formatted
			if counts[v] == 0 {
				order = append(order, v)
			}
			counts[v]++
		}
		sort.SliceStable(order, func(x, y int) bool {
			return counts[order[x]] > counts[order[y]]
		})
		top := order
		if len(top) > 3 {
			top = top[:3]
		}
		parts := make([]string, len(top))
		for j, v := range top {
			parts[j] = fmt.Sprintf("%s(%d)", v, counts[v])
		}
		fmt.Fprintf(&b, "   %-20s %d unique, top: %s\n",
			col.Name(), len(order), strings.Join(parts, ", "))
	}
	if !hasCategorical {
		fmt.Fprintln(&b, "   (no categorical columns)")
	}

	return b.String(), nil
}
