package core

import (
	"errors"
	"fmt"
)

// Keys injected into every record when the matching Config flag is set.
const (
	FilePathKey = "file_path"
	RowIndexKey = "row_index"
)

// Record is the validated output for one row, keyed by column name.
type Record map[string]any

// Config is the parser configuration. It is copied by New, so changing a
// Config after building a parser has no effect on that parser.
type Config struct {
	// Columns defines the output schema, in order.
	Columns []Column

	// HeaderRows is the number of leading rows (titles, header) skipped
	// before data rows begin. Skipped rows still count toward row indices.
	HeaderRows int

	// SkipEmptyRows drops rows whose cells are all empty. Dropped rows
	// produce neither a record nor an error.
	SkipEmptyRows bool

	// AddFilePath stores the source path under FilePathKey in every record.
	AddFilePath bool

	// AddRowIndex stores the 1-based source row number under RowIndexKey.
	AddRowIndex bool

	// UniqueTogether lists column name sets whose cleaned values must be
	// unique across the source. Later duplicates become row errors.
	UniqueTogether [][]string

	// Source tunes the concrete row source.
	Source SourceOptions
}

// Validate checks the configuration and returns every problem found.
func (c Config) Validate() error {
	var errs []error

	if len(c.Columns) == 0 {
		errs = append(errs, errors.New("at least one column is required"))
	}
	if c.HeaderRows < 0 {
		errs = append(errs, fmt.Errorf("header rows (%d) must be non-negative", c.HeaderRows))
	}

	names := make(map[string]bool, len(c.Columns))
	for i, col := range c.Columns {
		switch {
		case col.Name == "":
			errs = append(errs, fmt.Errorf("column %d has no name", i))
		case names[col.Name]:
			errs = append(errs, fmt.Errorf("duplicate column name %q", col.Name))
		case c.AddFilePath && col.Name == FilePathKey, c.AddRowIndex && col.Name == RowIndexKey:
			errs = append(errs, fmt.Errorf("column name %q is reserved", col.Name))
		}
		if col.Index < 0 {
			errs = append(errs, fmt.Errorf("column %q has negative index %d", col.Name, col.Index))
		}
		names[col.Name] = true
	}

	for _, set := range c.UniqueTogether {
		if len(set) == 0 {
			errs = append(errs, errors.New("empty unique-together set"))
		}
		for _, name := range set {
			if !names[name] {
				errs = append(errs, fmt.Errorf("unique-together references unknown column %q", name))
			}
		}
	}

	return errors.Join(errs...)
}

// clone returns a deep enough copy that the parser never shares slices with the caller.
func (c Config) clone() Config {
	out := c
	out.Columns = make([]Column, len(c.Columns))
	for i, col := range c.Columns {
		col.Validators = append([]Validator(nil), col.Validators...)
		out.Columns[i] = col
	}
	out.UniqueTogether = make([][]string, len(c.UniqueTogether))
	for i, set := range c.UniqueTogether {
		out.UniqueTogether[i] = append([]string(nil), set...)
	}
	return out
}

// ColumnNames returns the configured column names in order.
func (c Config) ColumnNames() []string {
	names := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		names[i] = col.Name
	}
	return names
}

// ParseResult holds the outcome of one run. Every data row lands in exactly
// one of Records or Errors, unless it was an empty row that was skipped.
type ParseResult struct {
	Records []Record   `json:"records"`
	Errors  []RowError `json:"errors"`

	rows    int
	skipped int
}

// Summary contains the counts of a run.
type Summary struct {
	Rows    int `json:"rows"`    // Data rows after the header offset
	Skipped int `json:"skipped"` // Empty rows dropped
	Records int `json:"records"`
	Errors  int `json:"errors"`
}

// Summary returns the counts of the run.
func (r *ParseResult) Summary() Summary {
	return Summary{
		Rows:    r.rows,
		Skipped: r.skipped,
		Records: len(r.Records),
		Errors:  len(r.Errors),
	}
}

// OK reports whether the run produced no row errors.
func (r *ParseResult) OK() bool {
	return len(r.Errors) == 0
}
