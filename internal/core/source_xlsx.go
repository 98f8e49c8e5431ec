package core

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// xlsxSource streams the rows of one worksheet. Cells arrive as the
// formatted text Excel would display; blank rows inside the used range are
// returned as empty rows so row positions match the sheet.
type xlsxSource struct {
	file *excelize.File
	rows *excelize.Rows

	row    Row
	rowErr error
	err    error
}

func openXLSXFile(path string, opts SourceOptions) (RowSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return newXLSXSource(f, opts)
}

func openXLSXReader(r io.Reader, opts SourceOptions) (RowSource, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return newXLSXSource(f, opts)
}

func newXLSXSource(f *excelize.File, opts SourceOptions) (RowSource, error) {
	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if opts.SheetIndex < 0 || opts.SheetIndex >= len(sheets) {
			f.Close()
			return nil, fmt.Errorf("workbook has no sheet at index %d", opts.SheetIndex)
		}
		sheet = sheets[opts.SheetIndex]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	return &xlsxSource{file: f, rows: rows}, nil
}

func (s *xlsxSource) Next() bool {
	if s.err != nil {
		return false
	}
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			s.err = fmt.Errorf("read workbook: %w", err)
		}
		return false
	}

	s.row, s.rowErr = nil, nil
	cols, err := s.rows.Columns()
	if err != nil {
		s.rowErr = fmt.Errorf("read workbook row: %w", err)
		return true
	}
	s.row = toRow(cols)
	return true
}

func (s *xlsxSource) Row() (Row, error) {
	return s.row, s.rowErr
}

func (s *xlsxSource) Err() error {
	return s.err
}

func (s *xlsxSource) Close() error {
	return errors.Join(s.rows.Close(), s.file.Close())
}
