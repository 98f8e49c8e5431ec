package core

// cleaners.go provides the built-in CleanFuncs for Column.Clean.
//
// They handle the messy reality of spreadsheet exports:
//   - Multiple date formats (US, EU, ISO, etc.) and Excel serial dates
//   - Currency symbols, thousand separators and accounting negatives in numbers
//   - Various boolean representations (yes/no, true/false, 1/0)
//   - Excel formula prefixes (="value") and stray quotes
//
// Cells may arrive as strings (CSV, XLSX) or as native scalars (in-memory
// sources); non-string scalars are coerced with spf13/cast.

import (
	"errors"
	"fmt"
	"math"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years more than this many years in the future land in the previous century.
var TwoDigitYearPivot = 20

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "01-02-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006", "January 2, 2006",
		"2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05",
		"20060102",
	}
)

var (
	errInvalidNumber = errors.New("invalid number format")
	errInvalidDate   = errors.New("invalid date format (use YYYY-MM-DD or similar)")
	errInvalidBool   = errors.New("must be yes/no, true/false, or 1/0")
)

// CleanCell removes common spreadsheet artifacts from a text cell:
// surrounding whitespace, the Excel formula prefix (="...") and surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// Chain composes clean funcs left to right. The first error stops the chain.
func Chain(fns ...CleanFunc) CleanFunc {
	return func(v any) (any, error) {
		var err error
		for _, fn := range fns {
			if v, err = fn(v); err != nil {
				return nil, err
			}
		}
		return v, nil
	}
}

// String returns the cell as cleaned text.
func String(v any) (any, error) {
	return text(v)
}

// Int parses a whole number. "1,200" and "12.0" are accepted; "12.5" is not.
func Int(v any) (any, error) {
	switch v := v.(type) {
	case string:
		s, ok := normalizeNumber(CleanCell(v))
		if !ok {
			return nil, errInvalidNumber
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("%w: %q is out of range", errInvalidNumber, v)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) {
			return nil, fmt.Errorf("%w: %q is not a whole number", errInvalidNumber, v)
		}
		return floatToInt(f)
	case float32, float64:
		f := cast.ToFloat64(v)
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("%w: %v is not a whole number", errInvalidNumber, f)
		}
		return floatToInt(f)
	}

	n, err := cast.ToInt64E(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidNumber, err)
	}
	return n, nil
}

// floatToInt converts a whole float, rejecting values int64 cannot hold.
// 2^63 itself is out of range; -2^63 is not.
func floatToInt(f float64) (any, error) {
	if math.IsInf(f, 0) || f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, fmt.Errorf("%w: %v is out of range", errInvalidNumber, f)
	}
	return int64(f), nil
}

// Float parses a floating point number.
func Float(v any) (any, error) {
	if s, ok := v.(string); ok {
		n, ok := normalizeNumber(CleanCell(s))
		if !ok {
			return nil, errInvalidNumber
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidNumber, err)
		}
		return f, nil
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidNumber, err)
	}
	return f, nil
}

// Decimal parses an exact decimal, suitable for money.
func Decimal(v any) (any, error) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		n, ok := normalizeNumber(CleanCell(v))
		if !ok {
			return nil, errInvalidNumber
		}
		d, err := decimal.NewFromString(n)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidNumber, err)
		}
		return d, nil
	case float32, float64:
		return decimal.NewFromFloat(cast.ToFloat64(v)), nil
	}

	n, err := cast.ToInt64E(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidNumber, err)
	}
	return decimal.NewFromInt(n), nil
}

// Bool parses true/false, yes/no, t/f, y/n and 1/0.
func Bool(v any) (any, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(CleanCell(v)) {
		case "true", "t", "yes", "y", "1":
			return true, nil
		case "false", "f", "no", "n", "0":
			return false, nil
		}
		return nil, errInvalidBool
	}

	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil, errInvalidBool
	}
	return b, nil
}

// Date parses a calendar date. time.Time cells pass through, numeric cells are
// read as Excel serial dates, and text is tried against the known layouts.
func Date(v any) (any, error) {
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case float32, float64, int, int32, int64:
		t, err := excelize.ExcelDateToTime(cast.ToFloat64(v), false)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidDate, err)
		}
		return t, nil
	}

	s, err := text(v)
	if err != nil {
		return nil, err
	}
	t, ok := parseDate(s.(string))
	if !ok {
		return nil, errInvalidDate
	}
	return t, nil
}

// UUID parses a UUID in any of the forms accepted by google/uuid.
func UUID(v any) (any, error) {
	s, err := text(v)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(s.(string))
	if err != nil {
		return nil, fmt.Errorf("invalid uuid: %w", err)
	}
	return id, nil
}

// Email parses a bare address ("a@b.com", no display name) and lowercases it.
func Email(v any) (any, error) {
	s, err := text(v)
	if err != nil {
		return nil, err
	}
	addr, err := mail.ParseAddress(s.(string))
	if err != nil || addr.Address != s.(string) {
		return nil, fmt.Errorf("invalid email address %q", s)
	}
	return strings.ToLower(addr.Address), nil
}

// text coerces a cell to cleaned text.
func text(v any) (any, error) {
	if s, ok := v.(string); ok {
		return CleanCell(s), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, fmt.Errorf("expected text: %w", err)
	}
	return strings.TrimSpace(s), nil
}

// normalizeNumber strips currency symbols, thousands separators and the
// accounting negative form "(123.45)", and reports whether the result is numeric.
func normalizeNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "").Replace(s)
	if negative {
		s = "-" + s
	}

	return s, numericRegex.MatchString(s)
}

// parseDate tries 4-digit year layouts first, then 2-digit layouts with the pivot.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}
