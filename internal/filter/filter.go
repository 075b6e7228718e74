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

// Package filter implements row predicates over displayed cell
// values: per-column range, substring, date and boolean constraints,
// their composition, and a small query language for interactive use.
//
// Predicates work on the formatted cell text, not raw values, so a
// filter matches exactly what the user sees in the grid. A cell whose
// text cannot be parsed for a range or date constraint is excluded by
// that constraint; only genuine evaluation errors (malformed rows)
// are reported upward, where the view retains the row.
package filter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/DIK2022/BI-System/datatable"
)

// Kind discriminates predicate descriptors.
type Kind string

const (
	// KindRange is a numeric interval constraint.
	KindRange Kind = "range"
	// KindText is a case-insensitive substring constraint.
	KindText Kind = "text"
	// KindDate is an inclusive calendar date interval constraint.
	KindDate Kind = "date"
	// KindBool is a boolean token constraint.
	KindBool Kind = "bool"
)

// Predicate is the declarative, serializable form of a single-column
// constraint. Which fields matter depends on Kind; the rest are
// ignored.
type Predicate struct {
	Kind  Kind     `json:"type"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Text  string   `json:"text,omitempty"`
	From  string   `json:"from,omitempty"`
	To    string   `json:"to,omitempty"`
	Value *bool    `json:"value,omitempty"`
}

// Spec maps column names to predicates. A row is visible iff it
// satisfies every predicate; an empty spec keeps every row. A
// predicate naming a column the data does not have is inert.
type Spec map[string]Predicate

// Compile lowers the specification into an executable filter.
// Predicates are combined with AND in column name order so repeated
// compilations of the same spec behave identically. Malformed
// descriptors (unknown kind, unparsable date bound) are an error.
func (s Spec) Compile() (datatable.Filter, error) {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	filters := make([]datatable.Filter, 0, len(names))
	for _, col := range names {
		p := s[col]
		switch p.Kind {
		case KindRange:
			filters = append(filters, &Range{Column: col, Min: p.Min, Max: p.Max})
		case KindText:
			filters = append(filters, &Text{Column: col, Substring: p.Text})
		case KindDate:
			df, err := parseBound(p.From)
			if err != nil {
				return nil, fmt.Errorf("%w: column %q: %v", datatable.ErrInvalidFilter, col, err)
			}
			dt, err := parseBound(p.To)
			if err != nil {
				return nil, fmt.Errorf("%w: column %q: %v", datatable.ErrInvalidFilter, col, err)
			}
			filters = append(filters, &DateRange{Column: col, From: df, To: dt})
		case KindBool:
			if p.Value == nil {
				continue
			}
			filters = append(filters, &Bool{Column: col, Value: *p.Value})
		default:
			return nil, fmt.Errorf("%w: unknown predicate type %q for column %q",
				datatable.ErrInvalidFilter, p.Kind, col)
		}
	}
	return &CompositeFilter{Filters: filters, Logic: LogicAND}, nil
}

// dateLayouts are tried in order against displayed cell text.
var dateLayouts = []string{
	datatable.TimestampFormat,
	datatable.DateOnlyFormat,
	"02.01.2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseBound(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	if t, ok := parseDate(s); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparsable date bound %q", s)
}

// dateOnly strips the time component for calendar comparison.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// columnIndex resolves a column by scanning the header names.
// A missing column yields -1 and the owning predicate passes.
func columnIndex(names []string, col string) int {
	for i, n := range names {
		if n == col {
			return i
		}
	}
	return -1
}

// Range keeps rows whose displayed cell parses to a number within the
// inclusive [Min, Max] interval. Thousands separators are stripped
// before parsing; a cell that still fails to parse is excluded. Nil
// bounds are open.
type Range struct {
	Column string
	Min    *float64
	Max    *float64
}

// Evaluate implements the Filter interface.
func (f *Range) Evaluate(row []datatable.Value, columnNames []string) (bool, error) {
	idx := columnIndex(columnNames, f.Column)
	if idx < 0 {
		return true, nil
	}
	if idx >= len(row) {
		return false, fmt.Errorf("%w: row has %d cells, need column %d",
			datatable.ErrInvalidRow, len(row), idx)
	}

	text := strings.ReplaceAll(strings.TrimSpace(row[idx].Formatted), ",", "")
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return false, nil
	}
	if f.Min != nil && v < *f.Min {
		return false, nil
	}
	if f.Max != nil && v > *f.Max {
		return false, nil
	}
	return true, nil
}

// Description implements the Filter interface.
func (f *Range) Description() string {
	lo, hi := "-inf", "+inf"
	if f.Min != nil {
		lo = strconv.FormatFloat(*f.Min, 'g', -1, 64)
	}
	if f.Max != nil {
		hi = strconv.FormatFloat(*f.Max, 'g', -1, 64)
	}
	return fmt.Sprintf("%s in [%s, %s]", f.Column, lo, hi)
}

// Text keeps rows whose displayed cell contains the substring,
// case-insensitively. An empty substring keeps every row.
type Text struct {
	Column    string
	Substring string
}

// Evaluate implements the Filter interface.
func (f *Text) Evaluate(row []datatable.Value, columnNames []string) (bool, error) {
	if f.Substring == "" {
		return true, nil
	}
	idx := columnIndex(columnNames, f.Column)
	if idx < 0 {
		return true, nil
	}
	if idx >= len(row) {
		return false, fmt.Errorf("%w: row has %d cells, need column %d",
			datatable.ErrInvalidRow, len(row), idx)
	}
	return strings.Contains(
		strings.ToLower(row[idx].Formatted),
		strings.ToLower(f.Substring),
	), nil
}

// Description implements the Filter interface.
func (f *Text) Description() string {
	return fmt.Sprintf("%s contains %q", f.Column, f.Substring)
}

// DateRange keeps rows whose displayed cell parses as a date within
// the inclusive [From, To] calendar range. Time components are
// discarded before comparison; a cell matching none of the accepted
// layouts is excluded. Zero bounds are open.
type DateRange struct {
	Column string
	From   time.Time
	To     time.Time
}

// Evaluate implements the Filter interface.
func (f *DateRange) Evaluate(row []datatable.Value, columnNames []string) (bool, error) {
	idx := columnIndex(columnNames, f.Column)
	if idx < 0 {
		return true, nil
	}
	if idx >= len(row) {
		return false, fmt.Errorf("%w: row has %d cells, need column %d",
			datatable.ErrInvalidRow, len(row), idx)
	}

	t, ok := parseDate(row[idx].Formatted)
	if !ok {
		return false, nil
	}
	d := dateOnly(t)
	if !f.From.IsZero() && d.Before(dateOnly(f.From)) {
		return false, nil
	}
	if !f.To.IsZero() && d.After(dateOnly(f.To)) {
		return false, nil
	}
	return true, nil
}

// Description implements the Filter interface.
func (f *DateRange) Description() string {
	lo, hi := "*", "*"
	if !f.From.IsZero() {
		lo = f.From.Format(datatable.DateOnlyFormat)
	}
	if !f.To.IsZero() {
		hi = f.To.Format(datatable.DateOnlyFormat)
	}
	return fmt.Sprintf("%s between %s and %s", f.Column, lo, hi)
}

// Truthy and falsy cell tokens, matched after lowercasing. The sets
// deliberately cover localized spellings alongside the plain ones.
var (
	truthyTokens = map[string]bool{"true": true, "1": true, "да": true, "yes": true}
	falsyTokens  = map[string]bool{"false": true, "0": true, "нет": true, "no": true}
)

// Bool keeps rows whose displayed cell normalizes to the requested
// boolean. A cell matching neither token set is excluded.
type Bool struct {
	Column string
	Value  bool
}

// Evaluate implements the Filter interface.
func (f *Bool) Evaluate(row []datatable.Value, columnNames []string) (bool, error) {
	idx := columnIndex(columnNames, f.Column)
	if idx < 0 {
		return true, nil
	}
	if idx >= len(row) {
		return false, fmt.Errorf("%w: row has %d cells, need column %d",
			datatable.ErrInvalidRow, len(row), idx)
	}

	token := strings.ToLower(strings.TrimSpace(row[idx].Formatted))
	if f.Value {
		return truthyTokens[token], nil
	}
	return falsyTokens[token], nil
}

// Description implements the Filter interface.
func (f *Bool) Description() string {
	return fmt.Sprintf("%s is %t", f.Column, f.Value)
}
