package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// csvSource reads rows with encoding/csv over the streaming wrappers.
// Quoting is lenient and rows may have any number of fields; a malformed
// record is reported as a row error and reading continues.
//
// encoding/csv drops blank lines. The source puts them back as empty rows,
// using the line each record starts on, so every physical row of the file is
// yielded once and row positions match what a spreadsheet shows.
type csvSource struct {
	reader  *csv.Reader
	counter *CountingReader
	lines   *lineCounter
	closer  io.Closer

	nextLine int // line the next record should start on
	blanks   int // empty rows still owed before the held record
	held     *csvRecord
	eof      bool

	row    Row
	rowErr error
	err    error
}

type csvRecord struct {
	row Row
	err error
}

func newCSVSource(r io.Reader, size int64, closer io.Closer, opts SourceOptions) *csvSource {
	wrapped, counter := WrapForStreaming(r, size)
	lines := &lineCounter{r: wrapped}

	reader := csv.NewReader(lines)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	return &csvSource{reader: reader, counter: counter, lines: lines, closer: closer, nextLine: 1}
}

func (s *csvSource) Next() bool {
	if s.err != nil {
		return false
	}
	s.row, s.rowErr = nil, nil

	if s.blanks > 0 {
		s.blanks--
		s.row = Row{}
		return true
	}
	if s.held != nil {
		s.row, s.rowErr = s.held.row, s.held.err
		s.held = nil
		return true
	}
	if s.eof {
		return false
	}

	record, err := s.reader.Read()

	var parseErr *csv.ParseError
	switch {
	case err == nil:
		start, _ := s.reader.FieldPos(0)
		end, _ := s.reader.FieldPos(len(record) - 1)
		end += strings.Count(record[len(record)-1], "\n")
		return s.emit(start, end, csvRecord{row: toRow(record)})
	case errors.Is(err, io.EOF):
		s.eof = true
		// Blank lines after the last record.
		if trailing := s.lines.total() - s.nextLine + 1; trailing > 0 {
			s.blanks = trailing - 1
			s.row = Row{}
			return true
		}
		return false
	case errors.As(err, &parseErr):
		return s.emit(parseErr.StartLine, parseErr.Line, csvRecord{
			err: fmt.Errorf("invalid csv record: %w", parseErr.Err),
		})
	default:
		s.err = fmt.Errorf("read csv: %w", err)
		return false
	}
}

// emit yields rec, preceded by one empty row per blank line skipped since
// the previous record. start and end are the record's first and last lines.
func (s *csvSource) emit(start, end int, rec csvRecord) bool {
	gap := start - s.nextLine
	s.nextLine = end + 1

	if gap <= 0 {
		s.row, s.rowErr = rec.row, rec.err
		return true
	}
	s.blanks = gap - 1
	s.held = &rec
	s.row = Row{}
	return true
}

func (s *csvSource) Row() (Row, error) {
	return s.row, s.rowErr
}

func (s *csvSource) Err() error {
	return s.err
}

func (s *csvSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// BytesRead reports how much of the underlying stream has been consumed.
func (s *csvSource) BytesRead() int64 {
	return s.counter.BytesRead
}

// lineCounter counts the lines of the text passing through it. The count is
// exact once the stream has been read to the end.
type lineCounter struct {
	r        io.Reader
	newlines int
	last     byte
	any      bool
}

func (c *lineCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.newlines += bytes.Count(p[:n], []byte{'\n'})
		c.last = p[n-1]
		c.any = true
	}
	return n, err
}

// total returns the number of lines read; an unterminated last line counts.
func (c *lineCounter) total() int {
	if c.any && c.last != '\n' {
		return c.newlines + 1
	}
	return c.newlines
}

func toRow(record []string) Row {
	row := make(Row, len(record))
	for i, v := range record {
		row[i] = v
	}
	return row
}
