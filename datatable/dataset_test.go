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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnConstructors(t *testing.T) {
	t.Run("nil mask marks all valid", func(t *testing.T) {
		c := NewIntColumn("n", []int64{1, 2, 3}, nil)
		assert.Equal(t, "n", c.Name())
		assert.Equal(t, TypeInt, c.Type())
		assert.Equal(t, 3, c.Len())
		for row := 0; row < 3; row++ {
			assert.False(t, c.IsNull(row))
		}
	})

	t.Run("mask controls nulls", func(t *testing.T) {
		c := NewFloatColumn("f", []float64{1.5, 2.5}, []bool{true, false})
		assert.False(t, c.IsNull(0))
		assert.True(t, c.IsNull(1))
		assert.Equal(t, "", c.Value(1).Formatted)
	})

	t.Run("short mask pads remaining rows valid", func(t *testing.T) {
		c := NewIntColumn("n", []int64{1, 2, 3}, []bool{false})
		assert.True(t, c.IsNull(0))
		assert.False(t, c.IsNull(1))
		assert.False(t, c.IsNull(2))
	})

	t.Run("values and mask are copied", func(t *testing.T) {
		values := []int64{10, 20}
		mask := []bool{true, false}
		c := NewIntColumn("n", values, mask)

		values[0] = 99
		mask[1] = true

		got, ok := c.Int(0)
		require.True(t, ok)
		assert.Equal(t, int64(10), got)
		assert.True(t, c.IsNull(1))
	})

	t.Run("time column keeps date type", func(t *testing.T) {
		day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		c := NewTimeColumn("d", TypeDate, []time.Time{day}, nil)
		assert.Equal(t, TypeDate, c.Type())
		assert.Equal(t, "2024-03-01", c.Value(0).Formatted)
	})

	t.Run("time column coerces other types to timestamp", func(t *testing.T) {
		c := NewTimeColumn("d", TypeString, []time.Time{time.Now()}, nil)
		assert.Equal(t, TypeTimestamp, c.Type())
	})
}

func TestColumnAccessors(t *testing.T) {
	ints := NewIntColumn("i", []int64{5}, nil)
	floats := NewFloatColumn("f", []float64{2.5}, nil)
	bools := NewBoolColumn("b", []bool{true}, nil)
	times := NewTimeColumn("t", TypeTimestamp, []time.Time{time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}, nil)
	strs := NewStringColumn("s", []string{"hi"}, nil)

	t.Run("typed getters", func(t *testing.T) {
		i, ok := ints.Int(0)
		require.True(t, ok)
		assert.Equal(t, int64(5), i)

		f, ok := floats.Float(0)
		require.True(t, ok)
		assert.Equal(t, 2.5, f)

		b, ok := bools.Bool(0)
		require.True(t, ok)
		assert.True(t, b)

		ts, ok := times.Time(0)
		require.True(t, ok)
		assert.Equal(t, 2024, ts.Year())

		s, ok := strs.String(0)
		require.True(t, ok)
		assert.Equal(t, "hi", s)
	})

	t.Run("float reads integer columns too", func(t *testing.T) {
		f, ok := ints.Float(0)
		require.True(t, ok)
		assert.Equal(t, 5.0, f)
	})

	t.Run("getters refuse foreign types", func(t *testing.T) {
		_, ok := floats.Int(0)
		assert.False(t, ok)
		_, ok = ints.Bool(0)
		assert.False(t, ok)
		_, ok = strs.Time(0)
		assert.False(t, ok)
		_, ok = ints.String(0)
		assert.False(t, ok)
	})

	t.Run("null cells read as missing", func(t *testing.T) {
		c := NewIntColumn("i", []int64{1}, []bool{false})
		_, ok := c.Int(0)
		assert.False(t, ok)
		_, ok = c.Float(0)
		assert.False(t, ok)
	})

	t.Run("out of range reads are null", func(t *testing.T) {
		assert.True(t, ints.IsNull(-1))
		assert.True(t, ints.IsNull(5))
		v := ints.Value(5)
		assert.True(t, v.IsNull)
		assert.Equal(t, TypeInt, v.Type)
	})
}

func TestColumnCompare(t *testing.T) {
	t.Run("integers", func(t *testing.T) {
		c := NewIntColumn("i", []int64{1, 3, 3}, nil)
		assert.Equal(t, -1, c.Compare(0, 1))
		assert.Equal(t, 1, c.Compare(1, 0))
		assert.Equal(t, 0, c.Compare(1, 2))
	})

	t.Run("bools order false before true", func(t *testing.T) {
		c := NewBoolColumn("b", []bool{false, true}, nil)
		assert.Equal(t, -1, c.Compare(0, 1))
		assert.Equal(t, 1, c.Compare(1, 0))
		assert.Equal(t, 0, c.Compare(0, 0))
	})

	t.Run("times order chronologically", func(t *testing.T) {
		early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		late := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		c := NewTimeColumn("t", TypeDate, []time.Time{late, early}, nil)
		assert.Equal(t, 1, c.Compare(0, 1))
		assert.Equal(t, -1, c.Compare(1, 0))
	})

	t.Run("strings order lexicographically", func(t *testing.T) {
		c := NewStringColumn("s", []string{"alpha", "beta"}, nil)
		assert.Equal(t, -1, c.Compare(0, 1))
		assert.Equal(t, 1, c.Compare(1, 0))
	})
}

func TestNewColumnFromInterfaces(t *testing.T) {
	t.Run("integers with gaps", func(t *testing.T) {
		c := NewColumnFromInterfaces("n", []interface{}{1, int64(2), nil})
		assert.Equal(t, TypeInt, c.Type())
		got, ok := c.Int(1)
		require.True(t, ok)
		assert.Equal(t, int64(2), got)
		assert.True(t, c.IsNull(2))
	})

	t.Run("mixed numerics widen to float", func(t *testing.T) {
		c := NewColumnFromInterfaces("n", []interface{}{1, 2.5})
		assert.Equal(t, TypeFloat, c.Type())
		got, ok := c.Float(0)
		require.True(t, ok)
		assert.Equal(t, 1.0, got)
	})

	t.Run("bools", func(t *testing.T) {
		c := NewColumnFromInterfaces("b", []interface{}{true, nil, false})
		assert.Equal(t, TypeBool, c.Type())
		assert.True(t, c.IsNull(1))
	})

	t.Run("midnight-only times become dates", func(t *testing.T) {
		c := NewColumnFromInterfaces("d", []interface{}{
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		})
		assert.Equal(t, TypeDate, c.Type())
	})

	t.Run("times with a clock stay timestamps", func(t *testing.T) {
		c := NewColumnFromInterfaces("d", []interface{}{
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 2, 12, 30, 0, 0, time.UTC),
		})
		assert.Equal(t, TypeTimestamp, c.Type())
	})

	t.Run("incompatible mix falls back to text", func(t *testing.T) {
		c := NewColumnFromInterfaces("m", []interface{}{1, "x"})
		assert.Equal(t, TypeString, c.Type())
		s, ok := c.String(0)
		require.True(t, ok)
		assert.Equal(t, "1", s)
	})

	t.Run("all nil stays text and null", func(t *testing.T) {
		c := NewColumnFromInterfaces("m", []interface{}{nil, nil})
		assert.Equal(t, TypeString, c.Type())
		assert.True(t, c.IsNull(0))
		assert.True(t, c.IsNull(1))
	})
}

func testDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, err := NewDataset(
		NewStringColumn("region", []string{"North", "South", "East"}, nil),
		NewIntColumn("sales", []int64{250, 50, 300}, nil),
		NewFloatColumn("margin", []float64{0.2, 0, 0.5}, []bool{true, false, true}),
	)
	require.NoError(t, err)
	return ds
}

func TestNewDataset(t *testing.T) {
	t.Run("valid columns", func(t *testing.T) {
		ds := testDataset(t)
		assert.Equal(t, 3, ds.RowCount())
		assert.Equal(t, 3, ds.ColumnCount())
		assert.Equal(t, []string{"region", "sales", "margin"}, ds.ColumnNames())
	})

	t.Run("duplicate names rejected", func(t *testing.T) {
		_, err := NewDataset(
			NewIntColumn("a", []int64{1}, nil),
			NewIntColumn("a", []int64{2}, nil),
		)
		require.ErrorIs(t, err, ErrDuplicateColumn)
		assert.Contains(t, err.Error(), `"a"`)
	})

	t.Run("unequal lengths rejected", func(t *testing.T) {
		_, err := NewDataset(
			NewIntColumn("a", []int64{1, 2}, nil),
			NewIntColumn("b", []int64{1}, nil),
		)
		require.ErrorIs(t, err, ErrColumnLength)
	})

	t.Run("empty dataset", func(t *testing.T) {
		ds, err := NewDataset()
		require.NoError(t, err)
		assert.Equal(t, 0, ds.RowCount())
		assert.Equal(t, 0, ds.ColumnCount())
	})
}

func TestDatasetAccess(t *testing.T) {
	ds := testDataset(t)

	t.Run("column lookups", func(t *testing.T) {
		c, err := ds.Column(1)
		require.NoError(t, err)
		assert.Equal(t, "sales", c.Name())

		assert.Equal(t, 2, ds.ColumnIndex("margin"))
		assert.Equal(t, -1, ds.ColumnIndex("ghost"))

		c, err = ds.ColumnByName("region")
		require.NoError(t, err)
		assert.Equal(t, TypeString, c.Type())
	})

	t.Run("column errors", func(t *testing.T) {
		_, err := ds.Column(-1)
		require.ErrorIs(t, err, ErrInvalidColumn)
		_, err = ds.Column(9)
		require.ErrorIs(t, err, ErrInvalidColumn)
		_, err = ds.ColumnByName("ghost")
		require.ErrorIs(t, err, ErrColumnNotFound)
	})

	t.Run("cell and row", func(t *testing.T) {
		v, err := ds.Cell(0, 1)
		require.NoError(t, err)
		assert.Equal(t, "250", v.Formatted)

		row, err := ds.Row(1)
		require.NoError(t, err)
		require.Len(t, row, 3)
		assert.Equal(t, "South", row[0].Formatted)
		assert.True(t, row[2].IsNull)
	})

	t.Run("cell and row errors", func(t *testing.T) {
		_, err := ds.Cell(9, 0)
		require.ErrorIs(t, err, ErrInvalidRow)
		_, err = ds.Cell(0, 9)
		require.ErrorIs(t, err, ErrInvalidColumn)
		_, err = ds.Row(-1)
		require.ErrorIs(t, err, ErrInvalidRow)
	})
}

func TestDatasetAddColumn(t *testing.T) {
	ds := testDataset(t)

	t.Run("appends matching column", func(t *testing.T) {
		err := ds.AddColumn(NewBoolColumn("flag", []bool{true, false, true}, nil))
		require.NoError(t, err)
		assert.Equal(t, 4, ds.ColumnCount())
		assert.Equal(t, 3, ds.ColumnIndex("flag"))
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		err := ds.AddColumn(NewIntColumn("sales", []int64{1, 2, 3}, nil))
		require.ErrorIs(t, err, ErrDuplicateColumn)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		err := ds.AddColumn(NewIntColumn("extra", []int64{1}, nil))
		require.ErrorIs(t, err, ErrColumnLength)
	})
}

func TestDatasetClone(t *testing.T) {
	ds := testDataset(t)
	clone := ds.Clone()

	require.NoError(t, ds.Reorder([]int{2, 1, 0}))

	v, err := ds.Cell(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "East", v.Formatted)

	v, err = clone.Cell(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "North", v.Formatted)
}

func TestDatasetReorder(t *testing.T) {
	t.Run("permutes every column together", func(t *testing.T) {
		ds := testDataset(t)
		require.NoError(t, ds.Reorder([]int{1, 2, 0}))

		region, err := ds.ColumnByName("region")
		require.NoError(t, err)
		sales, err := ds.ColumnByName("sales")
		require.NoError(t, err)
		margin, err := ds.ColumnByName("margin")
		require.NoError(t, err)

		s, _ := region.String(0)
		assert.Equal(t, "South", s)
		n, _ := sales.Int(0)
		assert.Equal(t, int64(50), n)
		assert.True(t, margin.IsNull(0))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		ds := testDataset(t)
		require.ErrorIs(t, ds.Reorder([]int{0, 1}), ErrInvalidRow)
	})

	t.Run("rejects repeated index", func(t *testing.T) {
		ds := testDataset(t)
		require.ErrorIs(t, ds.Reorder([]int{0, 0, 1}), ErrInvalidRow)
	})

	t.Run("rejects out of range index", func(t *testing.T) {
		ds := testDataset(t)
		require.ErrorIs(t, ds.Reorder([]int{0, 1, 9}), ErrInvalidRow)
	})
}

func TestSortPermutation(t *testing.T) {
	ds, err := NewDataset(
		NewIntColumn("n", []int64{3, 0, 1, 3}, []bool{true, false, true, true}),
	)
	require.NoError(t, err)

	t.Run("ascending is stable with nulls last", func(t *testing.T) {
		perm, err := ds.SortPermutation(0, SortAscending)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 0, 3, 1}, perm)
	})

	t.Run("descending keeps nulls last", func(t *testing.T) {
		perm, err := ds.SortPermutation(0, SortDescending)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 3, 2, 1}, perm)
	})

	t.Run("sort none is the identity", func(t *testing.T) {
		perm, err := ds.SortPermutation(0, SortNone)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 3}, perm)
	})

	t.Run("invalid column", func(t *testing.T) {
		_, err := ds.SortPermutation(7, SortAscending)
		require.ErrorIs(t, err, ErrInvalidSortColumn)
	})

	t.Run("dataset itself is untouched", func(t *testing.T) {
		_, err := ds.SortPermutation(0, SortAscending)
		require.NoError(t, err)
		v, err := ds.Cell(0, 0)
		require.NoError(t, err)
		assert.Equal(t, "3", v.Formatted)
	})
}
