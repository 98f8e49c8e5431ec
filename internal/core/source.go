package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// RowSource yields the rows of one tabular source in order.
//
// Usage follows database/sql.Rows:
//
//	for src.Next() {
//	    row, err := src.Row() // err is a failure of this row only
//	}
//	if err := src.Err(); err != nil { ... } // the source could not be iterated
//
// Close must be called when iteration finishes, on every path.
type RowSource interface {
	Next() bool
	Row() (Row, error)
	Err() error
	Close() error
}

// SourceOptions tune the concrete row sources.
type SourceOptions struct {
	Delimiter  rune   // CSV field delimiter (default ',')
	Sheet      string // XLSX sheet name; wins over SheetIndex
	SheetIndex int    // XLSX 0-based sheet position (default first sheet)
}

// OpenSource opens the file at path with the source matching its extension.
func OpenSource(path string, opts SourceOptions) (RowSource, error) {
	switch ext := sourceExt(path); ext {
	case ".csv", ".txt", ".tsv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		var size int64
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
		if ext == ".tsv" && opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
		return newCSVSource(f, size, f, opts), nil
	case ".xlsx", ".xlsm":
		return openXLSXFile(path, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, ext)
	}
}

// OpenReader reads an already open stream, choosing the source by the
// extension of name. The caller keeps ownership of r.
func OpenReader(name string, r io.Reader, size int64, opts SourceOptions) (RowSource, error) {
	switch ext := sourceExt(name); ext {
	case ".csv", ".txt", ".tsv":
		if ext == ".tsv" && opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
		return newCSVSource(r, size, nil, opts), nil
	case ".xlsx", ".xlsm":
		return openXLSXReader(r, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, ext)
	}
}

func sourceExt(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// sliceSource serves rows held in memory. Useful for tests and for callers
// that already have their data decoded.
type sliceSource struct {
	rows   []Row
	cursor int
}

// FromRows returns a RowSource over rows.
func FromRows(rows []Row) RowSource {
	return &sliceSource{rows: rows}
}

func (s *sliceSource) Next() bool {
	if s.cursor >= len(s.rows) {
		return false
	}
	s.cursor++
	return true
}

func (s *sliceSource) Row() (Row, error) {
	if s.cursor == 0 || s.cursor > len(s.rows) {
		return nil, fmt.Errorf("row called without calling Next")
	}
	return s.rows[s.cursor-1], nil
}

func (s *sliceSource) Err() error   { return nil }
func (s *sliceSource) Close() error { return nil }
