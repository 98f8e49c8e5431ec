package core

// parser.go drives a run: rows are pulled from a RowSource, header rows and
// empty rows are skipped, every column is applied, and each row ends up as
// either a Record or a RowError.
//
// Row numbering is 1-based and counts every row the source yields, including
// header rows and skipped empty rows, so a row index matches the row a person
// sees when opening the file.

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ContextCheckInterval is how often (in rows) the run checks for cancellation.
const ContextCheckInterval = 100

// Opener opens a fresh RowSource for one run.
type Opener func() (RowSource, error)

// Parser turns the rows of one source into records and row errors.
// A Parser may be run any number of times; every run reopens the source.
type Parser struct {
	filePath string
	cfg      Config
	open     Opener
	logger   *slog.Logger
}

// Option customizes a Parser.
type Option func(*Parser)

// WithOpener replaces the default file opener, e.g. to read an upload stream.
func WithOpener(open Opener) Option {
	return func(p *Parser) {
		p.open = open
	}
}

// WithRows makes the parser read rows from memory instead of filePath.
func WithRows(rows []Row) Option {
	return WithOpener(func() (RowSource, error) {
		return FromRows(rows), nil
	})
}

// WithLogger sets the logger used for run-level messages.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// New creates a parser for filePath. filePath identifies the source in
// records and errors; unless an opener is given it is also the file to read.
func New(filePath string, cfg Config, opts ...Option) (*Parser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parser config: %w", err)
	}

	p := &Parser{
		filePath: filePath,
		cfg:      cfg.clone(),
		logger:   slog.Default(),
	}
	p.open = func() (RowSource, error) {
		return OpenSource(p.filePath, p.cfg.Source)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// FilePath returns the source identifier of the parser.
func (p *Parser) FilePath() string {
	return p.filePath
}

// Config returns a copy of the parser configuration.
func (p *Parser) Config() Config {
	return p.cfg.clone()
}

// Run parses every row of the source.
//
// Column and row failures are collected in the result. A non-nil error is
// always a *ParseError: the source could not be opened or read, or ctx was
// cancelled. In that case the result is nil.
func (p *Parser) Run(ctx context.Context) (*ParseResult, error) {
	start := time.Now()
	logger := p.logger.With("source", p.filePath)

	if err := ctx.Err(); err != nil {
		return nil, &ParseError{Source: p.filePath, Err: err}
	}

	src, err := p.open()
	if err != nil {
		logger.Warn("open source failed", "error", err)
		return nil, &ParseError{Source: p.filePath, Err: err}
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warn("close source failed", "error", err)
		}
	}()

	result := &ParseResult{
		Records: []Record{},
		Errors:  []RowError{},
	}
	unique := newUniqueIndex(p.cfg.UniqueTogether)

	rowIndex := 0
	for src.Next() {
		rowIndex++

		if rowIndex%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &ParseError{Source: p.filePath, Err: err}
			}
		}

		if rowIndex <= p.cfg.HeaderRows {
			continue
		}
		result.rows++

		row, err := src.Row()
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: rowIndex, Message: err.Error()})
			continue
		}

		if p.cfg.SkipEmptyRows && isEmptyRow(row) {
			result.skipped++
			continue
		}

		record, rowErr := p.processRow(row, rowIndex)
		if rowErr != nil {
			logger.Debug("row rejected", "row", rowIndex, "error", rowErr)
			result.Errors = append(result.Errors, *rowErr)
			continue
		}

		if err := unique.check(record, rowIndex); err != nil {
			result.Errors = append(result.Errors, RowError{Row: rowIndex, Message: err.Error()})
			continue
		}

		result.Records = append(result.Records, record)
	}

	if err := src.Err(); err != nil {
		logger.Warn("read source failed", "row", rowIndex, "error", err)
		return nil, &ParseError{Source: p.filePath, Err: err}
	}

	logger.Info("parse complete",
		"rows", result.rows,
		"skipped", result.skipped,
		"records", len(result.Records),
		"errors", len(result.Errors),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

// processRow applies every column to row. Column errors are gathered in
// declaration order; a panic while assembling becomes a row-level error.
func (p *Parser) processRow(row Row, rowIndex int) (record Record, rowErr *RowError) {
	defer func() {
		if r := recover(); r != nil {
			record = nil
			rowErr = &RowError{Row: rowIndex, Message: fmt.Sprintf("process row: %v", r)}
		}
	}()

	record = make(Record, len(p.cfg.Columns)+2)
	var columnErrs []ColumnError

	for _, col := range p.cfg.Columns {
		value, err := col.Extract(row)
		if err != nil {
			columnErrs = append(columnErrs, *err)
			continue
		}
		record[col.Name] = value
	}

	if len(columnErrs) > 0 {
		return nil, &RowError{Row: rowIndex, Columns: columnErrs}
	}

	if p.cfg.AddFilePath {
		record[FilePathKey] = p.filePath
	}
	if p.cfg.AddRowIndex {
		record[RowIndexKey] = rowIndex
	}
	return record, nil
}
