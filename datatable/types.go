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

// Package datatable provides the columnar dataset model, the backend
// adapter contract and the filtered table view used by the rest of
// the application.
package datatable

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// DataType represents the type of data in a column.
type DataType int

const (
	// TypeString represents string data.
	TypeString DataType = iota
	// TypeInt represents integer data (any size).
	TypeInt
	// TypeFloat represents floating-point data (any precision).
	TypeFloat
	// TypeBool represents boolean data.
	TypeBool
	// TypeDate represents date data (without time).
	TypeDate
	// TypeTimestamp represents timestamp data (date + time).
	TypeTimestamp
	// TypeBinary represents binary/blob data.
	TypeBinary
	// TypeDecimal represents decimal/numeric data (fixed precision).
	TypeDecimal
	// TypeStruct represents structured data (nested fields).
	TypeStruct
	// TypeList represents list/array data.
	TypeList
)

// String returns the string representation of a DataType.
func (dt DataType) String() string {
	switch dt {
	case TypeString:
		return "String"
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeBool:
		return "Bool"
	case TypeDate:
		return "Date"
	case TypeTimestamp:
		return "Timestamp"
	case TypeBinary:
		return "Binary"
	case TypeDecimal:
		return "Decimal"
	case TypeStruct:
		return "Struct"
	case TypeList:
		return "List"
	default:
		return fmt.Sprintf("Unknown(%d)", dt)
	}
}

// IsNumeric reports whether values of this type order and align as numbers.
func (dt DataType) IsNumeric() bool {
	return dt == TypeInt || dt == TypeFloat || dt == TypeDecimal
}

// IsTemporal reports whether values of this type carry calendar time.
func (dt DataType) IsTemporal() bool {
	return dt == TypeDate || dt == TypeTimestamp
}

// TypeTag is the normalized type vocabulary shared by both backend
// variants. The filter layer and any other backend-agnostic consumer
// should reason in tags, never in backend column types.
type TypeTag int

const (
	// TagText covers strings and anything without a narrower tag.
	TagText TypeTag = iota
	// TagInt covers integers of any width.
	TagInt
	// TagFloat covers floating-point and decimal data.
	TagFloat
	// TagBool covers booleans.
	TagBool
	// TagDatetime covers dates and timestamps.
	TagDatetime
)

// String returns the string representation of a TypeTag.
func (t TypeTag) String() string {
	switch t {
	case TagText:
		return "text"
	case TagInt:
		return "integer"
	case TagFloat:
		return "float"
	case TagBool:
		return "boolean"
	case TagDatetime:
		return "datetime"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// Tag folds a DataType into the normalized TypeTag vocabulary.
// The mapping is total: every DataType has a tag, so normalization
// never fails regardless of what a backend reports for a column.
func (dt DataType) Tag() TypeTag {
	switch dt {
	case TypeInt:
		return TagInt
	case TypeFloat, TypeDecimal:
		return TagFloat
	case TypeBool:
		return TagBool
	case TypeDate, TypeTimestamp:
		return TagDatetime
	default:
		return TagText
	}
}

// Display layouts shared by both backends. DateOnlyFormat is also the
// first layout the date filter tries, so formatting and filtering stay
// in agreement about what a formatted cell looks like.
const (
	DateOnlyFormat  = "2006-01-02"
	TimestampFormat = "2006-01-02 15:04:05"
)

// Value is a typed container for cell values.
// It holds the raw value, type information, and a pre-formatted string for display.
type Value struct {
	// Raw holds the underlying value.
	// The type depends on the DataType field.
	Raw interface{}

	// Type indicates the data type of this value.
	Type DataType

	// IsNull indicates whether this value is null/nil.
	IsNull bool

	// Formatted is a pre-formatted string representation for display.
	// This improves UI performance by avoiding repeated formatting.
	Formatted string
}

// NewValue creates a new Value from a raw value and type.
func NewValue(raw interface{}, dataType DataType) Value {
	if raw == nil {
		return Value{
			Raw:       nil,
			Type:      dataType,
			IsNull:    true,
			Formatted: "",
		}
	}

	return Value{
		Raw:       raw,
		Type:      dataType,
		IsNull:    false,
		Formatted: formatValue(raw, dataType),
	}
}

// NewNullValue creates a null value of the specified type.
func NewNullValue(dataType DataType) Value {
	return Value{
		Raw:       nil,
		Type:      dataType,
		IsNull:    true,
		Formatted: "",
	}
}

// formatValue converts a raw value to its display string.
//
// These rules are the display contract both backends must agree on:
// null is empty, integers group thousands, floats group thousands and
// always carry exactly two decimals, dates and timestamps use fixed
// layouts, everything else falls back to plain string conversion.
func formatValue(raw interface{}, dataType DataType) string {
	if raw == nil {
		return ""
	}

	switch dataType {
	case TypeInt:
		if n, ok := toInt64(raw); ok {
			return humanize.Comma(n)
		}
	case TypeFloat, TypeDecimal:
		if f, ok := toFloat64(raw); ok {
			return humanize.FormatFloat("#,###.##", f)
		}
	case TypeDate:
		if t, ok := raw.(time.Time); ok {
			return t.Format(DateOnlyFormat)
		}
	case TypeTimestamp:
		if t, ok := raw.(time.Time); ok {
			return t.Format(TimestampFormat)
		}
	case TypeBool:
		if b, ok := raw.(bool); ok {
			return strconv.FormatBool(b)
		}
	}

	return fmt.Sprintf("%v", raw)
}

func toInt64(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

func toFloat64(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Metadata holds optional metadata about a data source.
type Metadata map[string]interface{}

// Axis selects a header direction: Horizontal asks for column names,
// Vertical for row ordinals.
type Axis int

const (
	// Horizontal addresses column headers.
	Horizontal Axis = iota
	// Vertical addresses row headers.
	Vertical
)

// Alignment is a display hint for cell content.
type Alignment int

const (
	// AlignLeft is the default alignment for textual content.
	AlignLeft Alignment = iota
	// AlignRight is used for numeric content.
	AlignRight
)

// AlignmentFor returns the alignment hint for a column type.
func AlignmentFor(dt DataType) Alignment {
	if dt.IsNumeric() {
		return AlignRight
	}
	return AlignLeft
}

// SortDirection specifies the direction of sorting.
type SortDirection int

const (
	// SortNone indicates no sorting.
	SortNone SortDirection = iota
	// SortAscending indicates ascending sort order.
	SortAscending
	// SortDescending indicates descending sort order.
	SortDescending
)

// String returns the string representation of a SortDirection.
func (sd SortDirection) String() string {
	switch sd {
	case SortNone:
		return "None"
	case SortAscending:
		return "Ascending"
	case SortDescending:
		return "Descending"
	default:
		return fmt.Sprintf("Unknown(%d)", sd)
	}
}

// SortState represents the current sorting configuration.
type SortState struct {
	// Column is the index of the sorted column (-1 if unsorted).
	Column int
	// Direction is the sort direction.
	Direction SortDirection
}

// IsSorted returns true if this state represents an active sort.
func (s SortState) IsSorted() bool {
	return s.Column >= 0 && s.Direction != SortNone
}
