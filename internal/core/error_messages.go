package core

// error_messages.go maps technical errors to messages a person uploading a
// file can act on. Each message carries a code that can be quoted to support.
//
// Codes are grouped by category:
//
//	VAL001-VAL099   cell values that fail cleaning or validation
//	ROW001-ROW099   rows rejected for reasons not tied to one column
//	FILE001-FILE099 files that cannot be read
//	PRS001-PRS099   runs that could not start or finish
//	DB001-DB099     storage failures
//	ERR000          fallback when nothing matches
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones. When a code is
// ERR000, the logs hold the original technical error.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Values
	{"missing required value", UserMessage{"Required value is empty", "Fill in every required column", "VAL001"}},
	{"invalid number", UserMessage{"Invalid number format detected", "Remove currency symbols and use a standard decimal format", "VAL002"}},
	{"is not a whole number", UserMessage{"A whole number was expected", "Remove the fractional part", "VAL002"}},
	{"invalid date", UserMessage{"Invalid date format detected", "Use YYYY-MM-DD, MM/DD/YYYY, or Jan 15, 2024", "VAL003"}},
	{"yes/no", UserMessage{"Invalid yes/no value", "Use yes/no, true/false, or 1/0", "VAL004"}},
	{"invalid enum", UserMessage{"Value is not in the allowed list", "Check the allowed values for this field", "VAL005"}},
	{"invalid uuid", UserMessage{"Invalid identifier", "Use a UUID such as 123e4567-e89b-12d3-a456-426614174000", "VAL006"}},
	{"invalid email", UserMessage{"Invalid email address", "Use a single address such as name@example.com", "VAL007"}},
	{"must be between", UserMessage{"Value is out of range", "Check the allowed range for this field", "VAL008"}},
	{"characters", UserMessage{"Value has the wrong length", "Shorten or lengthen the value", "VAL009"}},
	{"does not match pattern", UserMessage{"Value has the wrong format", "Check the expected format for this field", "VAL010"}},
	{"clean failed", UserMessage{"Value could not be processed", "Check the value or contact support", "VAL011"}},

	// Rows
	{"duplicate value for", UserMessage{"Row duplicates an earlier row", "Remove or merge duplicate rows", "ROW001"}},
	{"invalid csv record", UserMessage{"Row is not valid CSV", "Check quoting on this row", "ROW002"}},
	{"read workbook row", UserMessage{"Row could not be read from the workbook", "Re-save the workbook and try again", "ROW003"}},
	{"process row", UserMessage{"Row could not be processed", "Check the row or contact support", "ROW004"}},

	// Files
	{"unsupported source type", UserMessage{"File type is not supported", "Upload a .csv, .tsv or .xlsx file", "FILE001"}},
	{"file too large", UserMessage{"File exceeds maximum size limit", "Split the file into smaller chunks", "FILE002"}},
	{"no file provided", UserMessage{"No file was selected", "Select a file to upload", "FILE003"}},
	{"open workbook", UserMessage{"Workbook could not be opened", "Save the file as .xlsx and try again", "FILE004"}},
	{"no sheet", UserMessage{"Worksheet not found", "Check the sheet name or index", "FILE005"}},
	{"read sheet", UserMessage{"Worksheet not found", "Check the sheet name or index", "FILE005"}},
	{"read csv", UserMessage{"File could not be read", "Save the file as UTF-8 CSV and try again", "FILE006"}},
	{"open file", UserMessage{"File could not be opened", "Check the path and permissions", "FILE007"}},

	// Runs
	{"schema not found", UserMessage{"Unknown schema", "Choose one of the listed schemas", "PRS001"}},
	{"too many parses", UserMessage{"System is busy processing other files", "Please wait a moment and try again", "PRS002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "PRS003"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or try again later", "PRS004"}},
	{"invalid parser config", UserMessage{"Schema is misconfigured", "Contact support", "PRS005"}},

	// Storage
	{"run not found", UserMessage{"Run not found", "Check the run id", "DB001"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB002"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB003"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB004"}},
	{"timeout", UserMessage{"Operation timed out", "Try again later", "DB005"}},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
//
// Example:
//
//	msg := MapError(errors.New("invalid enum: value must be one of: a, b"))
//	// msg.Code == "VAL005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	return mapMessage(err.Error())
}

func mapMessage(s string) UserMessage {
	s = strings.ToLower(s)
	for _, ep := range errorPatterns {
		if strings.Contains(s, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// MapColumnError maps a column failure using its message.
func MapColumnError(ce ColumnError) UserMessage {
	return mapMessage(ce.Message)
}

// FormatUserError creates a display string: "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
