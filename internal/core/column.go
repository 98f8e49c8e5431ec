package core

import (
	"fmt"
	"strings"
)

// Row is one unit of input: the ordered cell values of a source row.
// Cells are strings for text sources, but may be any scalar (numbers, bools, time.Time, nil).
type Row []any

// CleanFunc converts a raw cell value into its typed, cleaned form.
type CleanFunc func(value any) (any, error)

// Validator checks a cleaned value and returns an error if it is not acceptable.
type Validator func(value any) error

// Column describes how to extract, clean and validate one field of a row.
//
// Index is 0-based. A Column is a plain value: it holds no state between rows
// and can be shared by any number of parsers.
type Column struct {
	Name       string      // Key in the output record
	Index      int         // 0-based cell position in the row
	Required   bool        // Empty or absent cell is an error
	Default    any         // Value used for an empty optional cell (nil if unset)
	Clean      CleanFunc   // Optional conversion; identity when nil
	Validators []Validator // Applied in order; the first failure wins
}

// Extract returns the cleaned and validated value of the column for row.
func (c Column) Extract(row Row) (any, *ColumnError) {
	raw, ok := c.cell(row)
	if !ok {
		if c.Required {
			return nil, newColumnError(c.Name, raw, ErrMissingValue)
		}
		return c.Default, nil
	}

	value, err := c.clean(raw)
	if err != nil {
		return nil, newColumnError(c.Name, raw, err)
	}

	for _, validate := range c.Validators {
		if err := validate(value); err != nil {
			return nil, newColumnError(c.Name, raw, err)
		}
	}

	return value, nil
}

// cell returns the raw value at the column index and whether it holds data.
func (c Column) cell(row Row) (any, bool) {
	if c.Index < 0 || c.Index >= len(row) {
		return nil, false
	}
	v := row[c.Index]
	return v, !isEmptyCell(v)
}

// clean applies the clean func, turning a panic into an error so one bad
// cell cannot take down the run.
func (c Column) clean(raw any) (value any, err error) {
	if c.Clean == nil {
		return raw, nil
	}
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("clean failed: %v", r)
		}
	}()
	return c.Clean(raw)
}

// isEmptyCell reports whether a cell carries no data.
// nil and blank strings are empty; zero numbers and false are data.
func isEmptyCell(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []byte:
		return strings.TrimSpace(string(v)) == ""
	default:
		return false
	}
}

// isEmptyRow reports whether every cell of the row is empty.
func isEmptyRow(row Row) bool {
	for _, v := range row {
		if !isEmptyCell(v) {
			return false
		}
	}
	return true
}
