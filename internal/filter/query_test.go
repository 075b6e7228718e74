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

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIK2022/BI-System/datatable"
)

var queryHeaders = []string{"region", "sales", "android"}

func queryRow(region string, sales int64, android string) []datatable.Value {
	return []datatable.Value{
		datatable.NewValue(region, datatable.TypeString),
		datatable.NewValue(sales, datatable.TypeInt),
		datatable.NewValue(android, datatable.TypeString),
	}
}

func TestParseQuery(t *testing.T) {
	t.Run("single comparison", func(t *testing.T) {
		q, err := ParseQuery("sales >= 100", queryHeaders)
		require.NoError(t, err)
		require.NotNil(t, q)
		require.Len(t, q.Expressions, 1)
		assert.Equal(t, Expression{Column: "sales", Op: OpGreaterEqual, Value: "100"}, q.Expressions[0])
	})

	t.Run("AND and OR", func(t *testing.T) {
		q, err := ParseQuery("sales > 100 AND region ~ no OR region = East", queryHeaders)
		require.NoError(t, err)
		require.Len(t, q.Expressions, 3)
		assert.Equal(t, []LogicOp{LogicAND, LogicOR}, q.LogicOps)
	})

	t.Run("keywords only at word boundaries", func(t *testing.T) {
		q, err := ParseQuery("android = yes", queryHeaders)
		require.NoError(t, err)
		require.Len(t, q.Expressions, 1)
		assert.Equal(t, "android", q.Expressions[0].Column)
		assert.Empty(t, q.LogicOps)
	})

	t.Run("quotes stripped from values", func(t *testing.T) {
		q, err := ParseQuery(`region = "North"`, queryHeaders)
		require.NoError(t, err)
		assert.Equal(t, "North", q.Expressions[0].Value)
	})

	t.Run("bare term is a contains search", func(t *testing.T) {
		q, err := ParseQuery("north", queryHeaders)
		require.NoError(t, err)
		require.Len(t, q.Expressions, 1)
		assert.Equal(t, Expression{Op: OpContains, Value: "north"}, q.Expressions[0])
	})

	t.Run("empty query is nil", func(t *testing.T) {
		q, err := ParseQuery("   ", queryHeaders)
		require.NoError(t, err)
		assert.Nil(t, q)
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := ParseQuery("ghost = 1", queryHeaders)
		require.ErrorIs(t, err, datatable.ErrColumnNotFound)
	})

	t.Run("column names match case-insensitively", func(t *testing.T) {
		q, err := ParseQuery("SALES > 5", queryHeaders)
		require.NoError(t, err)
		assert.Equal(t, "SALES", q.Expressions[0].Column)
	})
}

func TestQueryEvaluate(t *testing.T) {
	eval := func(t *testing.T, queryStr string, row []datatable.Value) bool {
		t.Helper()
		q, err := ParseQuery(queryStr, queryHeaders)
		require.NoError(t, err)
		pass, err := q.Evaluate(row, queryHeaders)
		require.NoError(t, err)
		return pass
	}

	t.Run("numeric comparison strips separators", func(t *testing.T) {
		row := queryRow("North", 1234567, "no")
		assert.True(t, eval(t, "sales > 1000000", row))
		assert.False(t, eval(t, "sales < 1000000", row))
	})

	t.Run("equality is case-insensitive", func(t *testing.T) {
		row := queryRow("North", 10, "no")
		assert.True(t, eval(t, "region = north", row))
		assert.True(t, eval(t, "region != south", row))
	})

	t.Run("lexicographic fallback", func(t *testing.T) {
		row := queryRow("North", 10, "no")
		assert.True(t, eval(t, "region > Alpha", row))
		assert.False(t, eval(t, "region > Zulu", row))
	})

	t.Run("AND folds left to right", func(t *testing.T) {
		row := queryRow("North", 250, "no")
		assert.True(t, eval(t, "sales > 100 AND region ~ no", row))
		assert.False(t, eval(t, "sales > 300 AND region ~ no", row))
		assert.True(t, eval(t, "sales > 300 OR region ~ no", row))
	})

	t.Run("bare term searches every column", func(t *testing.T) {
		row := queryRow("West", 42, "maybe")
		assert.True(t, eval(t, "maybe", row))
		assert.True(t, eval(t, "42", row))
		assert.False(t, eval(t, "zzz", row))
	})

	t.Run("nil query matches everything", func(t *testing.T) {
		var q *Query
		pass, err := q.Evaluate(queryRow("North", 1, "x"), queryHeaders)
		require.NoError(t, err)
		assert.True(t, pass)
	})
}

func TestQueryDescription(t *testing.T) {
	q, err := ParseQuery("sales > 100 AND region ~ no", queryHeaders)
	require.NoError(t, err)
	assert.Equal(t, `sales > "100" AND region ~ "no"`, q.Description())

	bare, err := ParseQuery("north", queryHeaders)
	require.NoError(t, err)
	assert.Equal(t, `any ~ "north"`, bare.Description())
}
