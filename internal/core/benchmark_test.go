package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"testing"
)

// ============================================================================
// Clean Function Benchmarks
// ============================================================================

// BenchmarkDecimal benchmarks money-style numeric cells.
// This is a hot path for any numeric column.
func BenchmarkDecimal(b *testing.B) {
	testCases := []string{
		"123",
		"-456.78",
		"$1,234.56",
		"(123.45)",      // Accounting negative
		"1,234,567.89",  // Thousands separators
		"  999.99  ",    // Whitespace
		"\u20ac1234.56", // Euro
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			_, _ = Decimal(tc)
		}
	}
}

func BenchmarkInt_Simple(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Int("12345")
	}
}

// BenchmarkDate benchmarks date parsing across the supported layouts.
// ISO dates hit the first layout; two-digit years fall through all of them.
func BenchmarkDate(b *testing.B) {
	testCases := []string{
		"2024-01-15",   // ISO format
		"01/15/2024",   // US format
		"Jan 15, 2024", // Text month
		"20240115",     // Compact
		"1/5/24",       // 2-digit year
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			_, _ = Date(tc)
		}
	}
}

func BenchmarkCleanCell_ExcelFormula(b *testing.B) {
	for i := 0; i < b.N; i++ {
		CleanCell(`="00123"`)
	}
}

func BenchmarkDateParallel(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = Date("2024-01-15")
		}
	})
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

func benchConfig() Config {
	return Config{
		HeaderRows:    1,
		SkipEmptyRows: true,
		AddRowIndex:   true,
		Columns: []Column{
			{Name: "id", Index: 0, Required: true, Clean: Int},
			{Name: "name", Index: 1, Required: true, Clean: String, Validators: []Validator{MaxLength(100)}},
			{Name: "email", Index: 2, Clean: Email},
			{Name: "date", Index: 3, Clean: Date},
			{Name: "amount", Index: 4, Clean: Decimal},
			{Name: "status", Index: 5, Clean: String, Validators: []Validator{OneOf("active", "inactive")}},
		},
	}
}

func benchmarkRun(b *testing.B, rows int) {
	data := generateTestCSV(rows)
	p, err := New("bench.csv", benchConfig(),
		WithLogger(quietLogger),
		WithOpener(func() (RowSource, error) {
			return OpenReader("bench.csv", bytes.NewReader(data), int64(len(data)), SourceOptions{})
		}),
	)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Run(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRun_1k(b *testing.B)   { benchmarkRun(b, 1_000) }
func BenchmarkRun_100k(b *testing.B) { benchmarkRun(b, 100_000) }

// BenchmarkWrapForStreaming measures the reader stack under the CSV source.
func BenchmarkWrapForStreaming(b *testing.B) {
	data := generateTestCSV(10_000)
	b.SetBytes(int64(len(data)))

	for i := 0; i < b.N; i++ {
		r, _ := WrapForStreaming(bytes.NewReader(data), int64(len(data)))
		if _, err := io.Copy(io.Discard, r); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateTestCSV generates CSV data with the specified number of rows.
func generateTestCSV(rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	// Header
	w.Write([]string{"ID", "Name", "Email", "Date", "Amount", "Status"})

	// Data rows
	for i := 0; i < rows; i++ {
		w.Write([]string{
			strconv.Itoa(1000 + i),
			"John Doe",
			"john@example.com",
			"2024-01-15",
			"$1,234.56",
			"active",
		})
	}
	w.Flush()

	return buf.Bytes()
}
