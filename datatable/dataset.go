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

package datatable

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Column is a named, typed sequence of cell values with a validity
// mask. Exactly one of the typed slices is populated, selected by the
// column type. A nil mask means every value is valid.
type Column struct {
	name string
	typ  DataType

	ints    []int64
	floats  []float64
	strs    []string
	bools   []bool
	times   []time.Time

	valid []bool
}

// NewIntColumn creates an integer column. The values and mask slices
// are copied; a nil mask marks all values valid.
func NewIntColumn(name string, values []int64, valid []bool) *Column {
	c := &Column{name: name, typ: TypeInt, ints: append([]int64(nil), values...)}
	c.valid = copyMask(valid, len(values))
	return c
}

// NewFloatColumn creates a floating-point column.
func NewFloatColumn(name string, values []float64, valid []bool) *Column {
	c := &Column{name: name, typ: TypeFloat, floats: append([]float64(nil), values...)}
	c.valid = copyMask(valid, len(values))
	return c
}

// NewStringColumn creates a text column.
func NewStringColumn(name string, values []string, valid []bool) *Column {
	c := &Column{name: name, typ: TypeString, strs: append([]string(nil), values...)}
	c.valid = copyMask(valid, len(values))
	return c
}

// NewBoolColumn creates a boolean column.
func NewBoolColumn(name string, values []bool, valid []bool) *Column {
	c := &Column{name: name, typ: TypeBool, bools: append([]bool(nil), values...)}
	c.valid = copyMask(valid, len(values))
	return c
}

// NewTimeColumn creates a date or timestamp column. The dataType must
// be TypeDate or TypeTimestamp; anything else is coerced to TypeTimestamp.
func NewTimeColumn(name string, dataType DataType, values []time.Time, valid []bool) *Column {
	if dataType != TypeDate {
		dataType = TypeTimestamp
	}
	c := &Column{name: name, typ: dataType, times: append([]time.Time(nil), values...)}
	c.valid = copyMask(valid, len(values))
	return c
}

// NewColumnFromInterfaces builds a typed column from loosely typed
// values, such as decoded JSON or script results. The type is sniffed
// from the first non-nil value; integers promote to float when the
// values mix, and anything unrecognized falls back to its string form.
func NewColumnFromInterfaces(name string, raws []interface{}) *Column {
	typ := sniffType(raws)

	n := len(raws)
	valid := make([]bool, n)
	switch typ {
	case TypeInt:
		values := make([]int64, n)
		for i, raw := range raws {
			if raw == nil {
				continue
			}
			v, _ := toInt64(raw)
			values[i] = v
			valid[i] = true
		}
		return &Column{name: name, typ: typ, ints: values, valid: valid}
	case TypeFloat:
		values := make([]float64, n)
		for i, raw := range raws {
			if raw == nil {
				continue
			}
			v, _ := toFloat64(raw)
			values[i] = v
			valid[i] = true
		}
		return &Column{name: name, typ: typ, floats: values, valid: valid}
	case TypeBool:
		values := make([]bool, n)
		for i, raw := range raws {
			b, ok := raw.(bool)
			if !ok {
				continue
			}
			values[i] = b
			valid[i] = true
		}
		return &Column{name: name, typ: typ, bools: values, valid: valid}
	case TypeDate, TypeTimestamp:
		values := make([]time.Time, n)
		for i, raw := range raws {
			t, ok := raw.(time.Time)
			if !ok {
				continue
			}
			values[i] = t
			valid[i] = true
		}
		return &Column{name: name, typ: typ, times: values, valid: valid}
	default:
		values := make([]string, n)
		for i, raw := range raws {
			if raw == nil {
				continue
			}
			if s, ok := raw.(string); ok {
				values[i] = s
			} else {
				values[i] = fmt.Sprintf("%v", raw)
			}
			valid[i] = true
		}
		return &Column{name: name, typ: TypeString, strs: values, valid: valid}
	}
}

// sniffType picks a column type for loosely typed values.
func sniffType(raws []interface{}) DataType {
	typ := TypeString
	decided := false
	midnightOnly := true

	for _, raw := range raws {
		if raw == nil {
			continue
		}
		var current DataType
		switch v := raw.(type) {
		case int, int8, int16, int32, int64, uint8, uint16, uint32, uint64:
			current = TypeInt
		case float32, float64:
			current = TypeFloat
		case bool:
			current = TypeBool
		case time.Time:
			current = TypeTimestamp
			h, m, s := v.Clock()
			if h != 0 || m != 0 || s != 0 {
				midnightOnly = false
			}
		default:
			return TypeString
		}

		if !decided {
			typ = current
			decided = true
			continue
		}
		if typ == current {
			continue
		}
		// Numeric widening is the only tolerated mix.
		if (typ == TypeInt && current == TypeFloat) || (typ == TypeFloat && current == TypeInt) {
			typ = TypeFloat
			continue
		}
		return TypeString
	}

	if typ == TypeTimestamp && midnightOnly {
		return TypeDate
	}
	return typ
}

func copyMask(valid []bool, n int) []bool {
	if valid == nil {
		return nil
	}
	mask := make([]bool, n)
	copy(mask, valid)
	for i := len(valid); i < n; i++ {
		mask[i] = true
	}
	return mask
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the column data type.
func (c *Column) Type() DataType { return c.typ }

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	switch c.typ {
	case TypeInt:
		return len(c.ints)
	case TypeFloat:
		return len(c.floats)
	case TypeBool:
		return len(c.bools)
	case TypeDate, TypeTimestamp:
		return len(c.times)
	default:
		return len(c.strs)
	}
}

// IsNull reports whether the cell at row is null.
func (c *Column) IsNull(row int) bool {
	if row < 0 || row >= c.Len() {
		return true
	}
	return c.valid != nil && !c.valid[row]
}

// Value returns the typed cell at row, formatted for display.
// Out-of-range rows yield a null value.
func (c *Column) Value(row int) Value {
	if row < 0 || row >= c.Len() || c.IsNull(row) {
		return NewNullValue(c.typ)
	}
	switch c.typ {
	case TypeInt:
		return NewValue(c.ints[row], c.typ)
	case TypeFloat:
		return NewValue(c.floats[row], c.typ)
	case TypeBool:
		return NewValue(c.bools[row], c.typ)
	case TypeDate, TypeTimestamp:
		return NewValue(c.times[row], c.typ)
	default:
		return NewValue(c.strs[row], c.typ)
	}
}

// Float returns the cell as a float64 where the column is numeric.
// The second result is false for nulls and non-numeric columns.
func (c *Column) Float(row int) (float64, bool) {
	if c.IsNull(row) {
		return 0, false
	}
	switch c.typ {
	case TypeInt:
		return float64(c.ints[row]), true
	case TypeFloat:
		return c.floats[row], true
	default:
		return 0, false
	}
}

// Int returns the cell as an int64 for integer columns.
func (c *Column) Int(row int) (int64, bool) {
	if c.typ != TypeInt || c.IsNull(row) {
		return 0, false
	}
	return c.ints[row], true
}

// Bool returns the cell for boolean columns.
func (c *Column) Bool(row int) (bool, bool) {
	if c.typ != TypeBool || c.IsNull(row) {
		return false, false
	}
	return c.bools[row], true
}

// Time returns the cell for date and timestamp columns.
func (c *Column) Time(row int) (time.Time, bool) {
	if !c.typ.IsTemporal() || c.IsNull(row) {
		return time.Time{}, false
	}
	return c.times[row], true
}

// String returns the cell for text columns.
func (c *Column) String(row int) (string, bool) {
	if c.typ != TypeString || c.IsNull(row) {
		return "", false
	}
	return c.strs[row], true
}

// Compare orders two non-null cells of the column by natural value
// order. Both indices must be in range and non-null.
func (c *Column) Compare(i, j int) int {
	switch c.typ {
	case TypeInt:
		switch {
		case c.ints[i] < c.ints[j]:
			return -1
		case c.ints[i] > c.ints[j]:
			return 1
		}
	case TypeFloat:
		switch {
		case c.floats[i] < c.floats[j]:
			return -1
		case c.floats[i] > c.floats[j]:
			return 1
		}
	case TypeBool:
		switch {
		case !c.bools[i] && c.bools[j]:
			return -1
		case c.bools[i] && !c.bools[j]:
			return 1
		}
	case TypeDate, TypeTimestamp:
		switch {
		case c.times[i].Before(c.times[j]):
			return -1
		case c.times[i].After(c.times[j]):
			return 1
		}
	default:
		return strings.Compare(c.strs[i], c.strs[j])
	}
	return 0
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	clone := &Column{name: c.name, typ: c.typ}
	clone.ints = append([]int64(nil), c.ints...)
	clone.floats = append([]float64(nil), c.floats...)
	clone.strs = append([]string(nil), c.strs...)
	clone.bools = append([]bool(nil), c.bools...)
	clone.times = append([]time.Time(nil), c.times...)
	if c.valid != nil {
		clone.valid = append([]bool(nil), c.valid...)
	}
	return clone
}

// take rebuilds the column in permutation order. Every element of
// perm must be a valid row index.
func (c *Column) take(perm []int) {
	switch c.typ {
	case TypeInt:
		values := make([]int64, len(perm))
		for i, p := range perm {
			values[i] = c.ints[p]
		}
		c.ints = values
	case TypeFloat:
		values := make([]float64, len(perm))
		for i, p := range perm {
			values[i] = c.floats[p]
		}
		c.floats = values
	case TypeBool:
		values := make([]bool, len(perm))
		for i, p := range perm {
			values[i] = c.bools[p]
		}
		c.bools = values
	case TypeDate, TypeTimestamp:
		values := make([]time.Time, len(perm))
		for i, p := range perm {
			values[i] = c.times[p]
		}
		c.times = values
	default:
		values := make([]string, len(perm))
		for i, p := range perm {
			values[i] = c.strs[p]
		}
		c.strs = values
	}
	if c.valid != nil {
		mask := make([]bool, len(perm))
		for i, p := range perm {
			mask[i] = c.valid[p]
		}
		c.valid = mask
	}
}

// Dataset is an ordered collection of equal-length named columns.
// Column order is display order; row order is mutable via Reorder.
type Dataset struct {
	cols []*Column
}

// NewDataset assembles columns into a dataset, enforcing equal column
// lengths and unique column names.
func NewDataset(cols ...*Column) (*Dataset, error) {
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		if seen[c.Name()] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name())
		}
		seen[c.Name()] = true
		if i > 0 && c.Len() != cols[0].Len() {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d",
				ErrColumnLength, c.Name(), c.Len(), cols[0].Len())
		}
	}
	return &Dataset{cols: cols}, nil
}

// RowCount returns the number of rows.
func (d *Dataset) RowCount() int {
	if len(d.cols) == 0 {
		return 0
	}
	return d.cols[0].Len()
}

// ColumnCount returns the number of columns.
func (d *Dataset) ColumnCount() int { return len(d.cols) }

// Column returns the column at index col.
func (d *Dataset) Column(col int) (*Column, error) {
	if col < 0 || col >= len(d.cols) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	return d.cols[col], nil
}

// ColumnIndex returns the index of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.cols {
		if c.Name() == name {
			return i
		}
	}
	return -1
}

// ColumnByName returns the named column.
func (d *Dataset) ColumnByName(name string) (*Column, error) {
	if i := d.ColumnIndex(name); i >= 0 {
		return d.cols[i], nil
	}
	return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// ColumnNames returns the column names in display order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name()
	}
	return names
}

// Cell returns the value at row, col.
func (d *Dataset) Cell(row, col int) (Value, error) {
	c, err := d.Column(col)
	if err != nil {
		return Value{}, err
	}
	if row < 0 || row >= c.Len() {
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidRow, row)
	}
	return c.Value(row), nil
}

// Row returns all values of a row in column order.
func (d *Dataset) Row(row int) ([]Value, error) {
	if row < 0 || row >= d.RowCount() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRow, row)
	}
	values := make([]Value, len(d.cols))
	for i, c := range d.cols {
		values[i] = c.Value(row)
	}
	return values, nil
}

// AddColumn appends a column, enforcing the dataset invariants.
func (d *Dataset) AddColumn(c *Column) error {
	if d.ColumnIndex(c.Name()) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name())
	}
	if len(d.cols) > 0 && c.Len() != d.RowCount() {
		return fmt.Errorf("%w: column %q has %d rows, expected %d",
			ErrColumnLength, c.Name(), c.Len(), d.RowCount())
	}
	d.cols = append(d.cols, c)
	return nil
}

// Clone returns a deep, independent copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	cols := make([]*Column, len(d.cols))
	for i, c := range d.cols {
		cols[i] = c.Clone()
	}
	return &Dataset{cols: cols}
}

// Reorder permutes all rows of the dataset. perm must hold each row
// index exactly once.
func (d *Dataset) Reorder(perm []int) error {
	n := d.RowCount()
	if len(perm) != n {
		return fmt.Errorf("%w: permutation has %d entries, expected %d",
			ErrInvalidRow, len(perm), n)
	}
	seen := make([]bool, n)
	for _, p := range perm {
		if p < 0 || p >= n || seen[p] {
			return fmt.Errorf("%w: bad permutation index %d", ErrInvalidRow, p)
		}
		seen[p] = true
	}
	for _, c := range d.cols {
		c.take(perm)
	}
	return nil
}

// SortPermutation computes the stable row order that sorts the dataset
// by the given column. Nulls order after every value in both
// directions. The dataset itself is not modified.
func (d *Dataset) SortPermutation(col int, direction SortDirection) ([]int, error) {
	c, err := d.Column(col)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSortColumn, col)
	}
	perm := make([]int, d.RowCount())
	for i := range perm {
		perm[i] = i
	}
	if direction == SortNone {
		return perm, nil
	}

	sort.SliceStable(perm, func(a, b int) bool {
		i, j := perm[a], perm[b]
		in, jn := c.IsNull(i), c.IsNull(j)
		if in || jn {
			return !in && jn
		}
		cmp := c.Compare(i, j)
		if direction == SortDescending {
			return cmp > 0
		}
		return cmp < 0
	})
	return perm, nil
}
