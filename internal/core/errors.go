package core

// errors.go defines the failure records produced by a parse run.
//
// There are three kinds of failure:
//  1. ColumnError: one column of one row could not be extracted, cleaned or validated
//  2. RowError: a row was rejected, either because of column errors or because of
//     a failure not tied to a column (unreadable row, duplicate key)
//  3. ParseError: the source could not be opened or iterated at all
//
// Column and row errors are data: they are collected into the ParseResult and
// never returned from Run. A ParseError is returned from Run and no result is produced.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingValue is wrapped by the ColumnError of a required column whose cell is empty or absent.
	ErrMissingValue = errors.New("missing required value")

	// ErrUnsupportedSource is returned when no row source can read the file type.
	ErrUnsupportedSource = errors.New("unsupported source type")

	// ErrSchemaNotFound is returned when a schema key is not registered.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrRunNotFound is returned when a stored run does not exist or no store is configured.
	ErrRunNotFound = errors.New("run not found")
)

// ColumnError describes one failed extraction, clean or validation for one row.
type ColumnError struct {
	Column  string `json:"column"`
	Value   any    `json:"value"`
	Message string `json:"message"`

	err error
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: %s", e.Column, e.Message)
}

func (e *ColumnError) Unwrap() error {
	return e.err
}

// newColumnError builds a ColumnError from the cause, keeping the cause for errors.Is.
func newColumnError(column string, value any, err error) *ColumnError {
	return &ColumnError{
		Column:  column,
		Value:   value,
		Message: err.Error(),
		err:     err,
	}
}

// RowError describes a rejected row. Columns is in column declaration order.
// Message is set for failures that are not tied to a column.
type RowError struct {
	Row     int           `json:"row_index"`
	Columns []ColumnError `json:"column_errors,omitempty"`
	Message string        `json:"message,omitempty"`
}

func (e RowError) Error() string {
	var parts []string
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	for _, ce := range e.Columns {
		parts = append(parts, ce.Error())
	}
	return fmt.Sprintf("row %d: %s", e.Row, strings.Join(parts, "; "))
}

// ParseError is a fatal failure: the source could not be opened or iterated.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse: %v", e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err is (or wraps) a ParseError.
func IsFatal(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
