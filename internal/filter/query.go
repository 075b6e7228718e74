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
	"fmt"
	"strconv"
	"strings"

	"github.com/DIK2022/BI-System/datatable"
)

// CompOp is a comparison operator of the query language.
type CompOp int

const (
	OpEqual CompOp = iota
	OpNotEqual
	OpGreater
	OpLess
	OpGreaterEqual
	OpLessEqual
	OpContains
)

func (op CompOp) String() string {
	switch op {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpGreater:
		return ">"
	case OpLess:
		return "<"
	case OpGreaterEqual:
		return ">="
	case OpLessEqual:
		return "<="
	case OpContains:
		return "~"
	default:
		return fmt.Sprintf("op(%d)", op)
	}
}

// Expression is a single comparison, like `value_int >= 10` or
// `region ~ north`. An empty Column means a bare term matched as a
// contains search across every column.
type Expression struct {
	Column string
	Op     CompOp
	Value  string
}

// Query is a parsed search expression combining comparisons with AND
// and OR, evaluated left to right. It implements the row filter
// contract, so a parsed query drops into the same slot as a compiled
// structured specification.
type Query struct {
	Expressions []Expression
	LogicOps    []LogicOp
}

// ParseQuery parses a query string like `sales > 100 AND region ~ no`
// against the given headers. Column names are matched
// case-insensitively and unknown columns are an error. An empty query
// yields a nil Query, which matches everything.
func ParseQuery(queryStr string, headers []string) (*Query, error) {
	if strings.TrimSpace(queryStr) == "" {
		return nil, nil
	}

	query := &Query{
		Expressions: make([]Expression, 0),
		LogicOps:    make([]LogicOp, 0),
	}

	// Split by AND/OR (case-insensitive)
	parts := splitByLogicOps(queryStr)

	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty query", datatable.ErrInvalidFilter)
	}

	for _, part := range parts {
		if part.isOperator {
			if strings.ToUpper(part.text) == "AND" {
				query.LogicOps = append(query.LogicOps, LogicAND)
			} else if strings.ToUpper(part.text) == "OR" {
				query.LogicOps = append(query.LogicOps, LogicOR)
			}
		} else {
			expr, err := parseExpression(part.text, headers)
			if err != nil {
				return nil, err
			}
			query.Expressions = append(query.Expressions, expr)
		}
	}

	// Should have N expressions and N-1 operators.
	if len(query.LogicOps) != len(query.Expressions)-1 {
		return nil, fmt.Errorf("%w: mismatched expressions and operators", datatable.ErrInvalidFilter)
	}

	return query, nil
}

type queryPart struct {
	text       string
	isOperator bool
}

// splitByLogicOps splits the query by AND/OR while preserving the
// operators. The keywords only count at word boundaries, so a column
// called "android" is not an operator.
func splitByLogicOps(query string) []queryPart {
	parts := make([]queryPart, 0)
	current := ""
	i := 0

	for i < len(query) {
		if i+3 <= len(query) && strings.ToUpper(query[i:i+3]) == "AND" {
			if (i == 0 || isWhitespace(query[i-1])) && (i+3 >= len(query) || isWhitespace(query[i+3])) {
				if strings.TrimSpace(current) != "" {
					parts = append(parts, queryPart{text: strings.TrimSpace(current)})
					current = ""
				}
				parts = append(parts, queryPart{text: "AND", isOperator: true})
				i += 3
				continue
			}
		}

		if i+2 <= len(query) && strings.ToUpper(query[i:i+2]) == "OR" {
			if (i == 0 || isWhitespace(query[i-1])) && (i+2 >= len(query) || isWhitespace(query[i+2])) {
				if strings.TrimSpace(current) != "" {
					parts = append(parts, queryPart{text: strings.TrimSpace(current)})
					current = ""
				}
				parts = append(parts, queryPart{text: "OR", isOperator: true})
				i += 2
				continue
			}
		}

		current += string(query[i])
		i++
	}

	if strings.TrimSpace(current) != "" {
		parts = append(parts, queryPart{text: strings.TrimSpace(current)})
	}

	return parts
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// comparison operators ordered by symbol length, so >= matches before =.
var operators = []struct {
	op     CompOp
	symbol string
}{
	{OpGreaterEqual, ">="},
	{OpLessEqual, "<="},
	{OpNotEqual, "!="},
	{OpEqual, "="},
	{OpGreater, ">"},
	{OpLess, "<"},
	{OpContains, "~"},
}

// parseExpression parses a single comparison like `column = value`.
// A part without any operator becomes a bare contains term.
func parseExpression(exprStr string, headers []string) (Expression, error) {
	exprStr = strings.TrimSpace(exprStr)

	for _, opInfo := range operators {
		idx := strings.Index(exprStr, opInfo.symbol)
		if idx > 0 {
			column := strings.TrimSpace(exprStr[:idx])
			value := strings.TrimSpace(exprStr[idx+len(opInfo.symbol):])
			value = strings.Trim(value, "\"'")

			if !hasHeader(headers, column) {
				return Expression{}, fmt.Errorf("%w: unknown column %q",
					datatable.ErrColumnNotFound, column)
			}

			return Expression{Column: column, Op: opInfo.op, Value: value}, nil
		}
	}

	return Expression{Op: OpContains, Value: exprStr}, nil
}

func hasHeader(headers []string, column string) bool {
	for _, h := range headers {
		if strings.EqualFold(h, column) {
			return true
		}
	}
	return false
}

// Evaluate implements the Filter interface, folding the comparisons
// left to right with their logical operators.
func (q *Query) Evaluate(row []datatable.Value, columnNames []string) (bool, error) {
	if q == nil || len(q.Expressions) == 0 {
		return true, nil
	}

	result := evaluateExpression(q.Expressions[0], row, columnNames)
	for i := 0; i < len(q.LogicOps) && i+1 < len(q.Expressions); i++ {
		next := evaluateExpression(q.Expressions[i+1], row, columnNames)
		switch q.LogicOps[i] {
		case LogicAND:
			result = result && next
		case LogicOR:
			result = result || next
		}
	}
	return result, nil
}

// Description implements the Filter interface.
func (q *Query) Description() string {
	if q == nil || len(q.Expressions) == 0 {
		return "empty query"
	}
	var b strings.Builder
	for i, expr := range q.Expressions {
		if i > 0 && i-1 < len(q.LogicOps) {
			b.WriteString(" " + q.LogicOps[i-1].String() + " ")
		}
		if expr.Column == "" {
			fmt.Fprintf(&b, "any ~ %q", expr.Value)
		} else {
			fmt.Fprintf(&b, "%s %s %q", expr.Column, expr.Op, expr.Value)
		}
	}
	return b.String()
}

// evaluateExpression applies one comparison to a row of displayed
// values.
func evaluateExpression(expr Expression, row []datatable.Value, columnNames []string) bool {
	// A bare term searches every column.
	if expr.Column == "" && expr.Op == OpContains {
		term := strings.ToLower(expr.Value)
		for _, cell := range row {
			if strings.Contains(strings.ToLower(cell.Formatted), term) {
				return true
			}
		}
		return false
	}

	idx := -1
	for i, name := range columnNames {
		if strings.EqualFold(name, expr.Column) {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(row) {
		return false
	}

	cell := row[idx].Formatted

	switch expr.Op {
	case OpEqual:
		return strings.EqualFold(cell, expr.Value)
	case OpNotEqual:
		return !strings.EqualFold(cell, expr.Value)
	case OpContains:
		return strings.Contains(strings.ToLower(cell), strings.ToLower(expr.Value))
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
		return compareOrdered(cell, expr.Value, expr.Op)
	}

	return false
}

// compareOrdered compares numerically when both sides parse as
// numbers, falling back to case-insensitive lexicographic order.
// Displayed numbers carry thousands separators, so commas are
// stripped before parsing.
func compareOrdered(cellValue, compareValue string, op CompOp) bool {
	cell, err1 := strconv.ParseFloat(stripSeparators(cellValue), 64)
	compare, err2 := strconv.ParseFloat(stripSeparators(compareValue), 64)

	if err1 != nil || err2 != nil {
		cmp := strings.Compare(strings.ToLower(cellValue), strings.ToLower(compareValue))
		switch op {
		case OpGreater:
			return cmp > 0
		case OpLess:
			return cmp < 0
		case OpGreaterEqual:
			return cmp >= 0
		case OpLessEqual:
			return cmp <= 0
		}
		return false
	}

	switch op {
	case OpGreater:
		return cell > compare
	case OpLess:
		return cell < compare
	case OpGreaterEqual:
		return cell >= compare
	case OpLessEqual:
		return cell <= compare
	}
	return false
}

func stripSeparators(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}
