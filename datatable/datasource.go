package datatable

import "strconv"

// DataSource provides read-only access to tabular data.
// Implementations must be thread-safe for concurrent reads.
// All methods should return errors rather than panic.
type DataSource interface {
	// RowCount returns the total number of rows in the data source.
	RowCount() int

	// ColumnCount returns the total number of columns in the data source.
	ColumnCount() int

	// ColumnName returns the name of the column at the given index.
	// Returns ErrInvalidColumn if col is out of range.
	ColumnName(col int) (string, error)

	// ColumnType returns the data type of the column at the given index.
	// Returns ErrInvalidColumn if col is out of range.
	ColumnType(col int) (DataType, error)

	// Cell returns the value at the specified row and column.
	// Returns ErrInvalidRow if row is out of range.
	// Returns ErrInvalidColumn if col is out of range.
	Cell(row, col int) (Value, error)

	// Row returns all values for the specified row.
	// Returns ErrInvalidRow if row is out of range.
	Row(row int) ([]Value, error)

	// Metadata returns optional metadata about the data source.
	// Returns an empty Metadata map if no metadata is available.
	Metadata() Metadata
}

// Adapter is the full backend contract: a DataSource whose rows can
// be reordered in place and copied out. Both backend variants satisfy
// it and must agree on formatting, column types and sort order for
// equivalent data.
type Adapter interface {
	DataSource

	// Sort stably reorders all rows by the given column. A failed or
	// invalid sort leaves the row order unchanged and is reported only
	// through the diagnostic log, never to the caller. Observers are
	// notified before and after a successful reorder.
	Sort(col int, direction SortDirection)

	// SortState reports the currently applied sort.
	SortState() SortState

	// Snapshot returns an independent copy of the current, possibly
	// sorted data. Later mutation of the adapter does not affect it.
	Snapshot() *Dataset

	// AddLayoutObserver registers an observer for the notification
	// pair emitted around row reorders.
	AddLayoutObserver(LayoutObserver)

	// RemoveLayoutObserver unregisters a previously added observer.
	RemoveLayoutObserver(LayoutObserver)
}

// Filter decides row visibility. Implementations resolve the columns
// they mention by scanning columnNames; a name that does not resolve
// makes the filter pass, so stale specifications degrade silently.
type Filter interface {
	// Evaluate returns whether the row passes the filter.
	Evaluate(row []Value, columnNames []string) (bool, error)

	// Description returns a human-readable form for diagnostics.
	Description() string
}

// HeaderLabel returns the grid header for an index along an axis:
// the column name horizontally, the 1-based row ordinal vertically.
// Out-of-range indices yield an empty string.
func HeaderLabel(src DataSource, index int, axis Axis) string {
	if axis == Vertical {
		if index < 0 || index >= src.RowCount() {
			return ""
		}
		return strconv.Itoa(index + 1)
	}
	name, err := src.ColumnName(index)
	if err != nil {
		return ""
	}
	return name
}

// CellString returns the display string for a cell, or the empty
// string when the address is out of range. Display hosts can call it
// blindly during redraw without error plumbing.
func CellString(src DataSource, row, col int) string {
	v, err := src.Cell(row, col)
	if err != nil {
		return ""
	}
	return v.Formatted
}
