// Package fixtures writes CSV and workbook files for tests.
package fixtures

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// Table lays out a header and data rows the way exports do in the wild:
// the header may sit below padding rows, data may start after a gap, and
// rows may carry trailing empty columns.
//
// Row positions are 0-based. Padding rows are as wide as the header (or the
// first data row) and hold empty cells.
type Table struct {
	Header []any
	Data   [][]any

	HeaderRowIndex int // Padding rows written before the header
	DataRowIndex   int // Row of the first data row; ignored unless past the header
	Columns        int // Data rows are padded with empty cells to this width
}

// Rows returns every row of the table in file order.
func (t Table) Rows() [][]any {
	width := len(t.Header)
	if width == 0 && len(t.Data) > 0 {
		width = len(t.Data[0])
	}

	var rows [][]any
	if t.Header != nil {
		for range t.HeaderRowIndex {
			rows = append(rows, make([]any, width))
		}
		rows = append(rows, t.Header)
	}
	for len(rows) < t.DataRowIndex {
		rows = append(rows, make([]any, width))
	}
	for _, row := range t.Data {
		padded := append([]any{}, row...)
		for len(padded) < t.Columns {
			padded = append(padded, nil)
		}
		rows = append(rows, padded)
	}
	return rows
}

// WriteCSV writes rows to name inside a fresh temp dir and returns the path.
func WriteCSV(tb testing.TB, name string, rows [][]string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("create %s: %v", name, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		tb.Fatalf("write %s: %v", name, err)
	}
	if err := f.Close(); err != nil {
		tb.Fatalf("close %s: %v", name, err)
	}
	return path
}

// WriteCSVTable writes table as CSV. Cells are rendered with cast.ToString,
// so nil becomes an empty field.
func WriteCSVTable(tb testing.TB, name string, table Table) string {
	tb.Helper()

	var rows [][]string
	for _, row := range table.Rows() {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = cast.ToString(v)
		}
		rows = append(rows, record)
	}
	return WriteCSV(tb, name, rows)
}

// WriteText writes raw content to name inside a fresh temp dir and returns the path.
func WriteText(tb testing.TB, name, content string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		tb.Fatalf("write %s: %v", name, err)
	}
	return path
}

// Sheet is one worksheet of a workbook fixture. Cells may be any value
// excelize can store (string, number, bool, time.Time, nil).
type Sheet struct {
	Name string
	Rows [][]any
}

// TableSheet builds a sheet from a table layout.
func TableSheet(name string, table Table) Sheet {
	return Sheet{Name: name, Rows: table.Rows()}
}

// WriteWorkbook writes sheets to an .xlsx file and returns the path.
// The first sheet replaces the default "Sheet1". Nil cells are left unset.
func WriteWorkbook(tb testing.TB, name string, sheets ...Sheet) string {
	tb.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				tb.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			tb.Fatalf("new sheet %s: %v", sheet.Name, err)
		}

		for r, row := range sheet.Rows {
			for c, value := range row {
				if value == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					tb.Fatalf("cell name: %v", err)
				}
				if err := f.SetCellValue(sheet.Name, cell, value); err != nil {
					tb.Fatalf("set %s!%s: %v", sheet.Name, cell, err)
				}
			}
		}
	}

	path := filepath.Join(tb.TempDir(), name)
	if err := f.SaveAs(path); err != nil {
		tb.Fatalf("save %s: %v", name, err)
	}
	return path
}
