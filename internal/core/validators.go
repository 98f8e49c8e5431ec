package core

// validators.go provides the built-in Validators for Column.Validators.
//
// Validators run on the cleaned value, after Column.Clean. A column stops at
// its first failing validator, so put cheap structural checks first.

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// MinLength rejects text shorter than n runes.
func MinLength(n int) Validator {
	return func(v any) error {
		if utf8.RuneCountInString(cast.ToString(v)) < n {
			return fmt.Errorf("must be at least %d characters", n)
		}
		return nil
	}
}

// MaxLength rejects text longer than n runes.
func MaxLength(n int) Validator {
	return func(v any) error {
		if utf8.RuneCountInString(cast.ToString(v)) > n {
			return fmt.Errorf("must be at most %d characters", n)
		}
		return nil
	}
}

// Range rejects numbers outside [min, max]. Decimals are compared exactly.
func Range(min, max float64) Validator {
	return func(v any) error {
		if d, ok := v.(decimal.Decimal); ok {
			if d.LessThan(decimal.NewFromFloat(min)) || d.GreaterThan(decimal.NewFromFloat(max)) {
				return fmt.Errorf("must be between %v and %v", min, max)
			}
			return nil
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return fmt.Errorf("%w: %v", errInvalidNumber, err)
		}
		if f < min || f > max {
			return fmt.Errorf("must be between %v and %v", min, max)
		}
		return nil
	}
}

// OneOf rejects text that is not one of values. Matching is case-insensitive.
func OneOf(values ...string) Validator {
	return func(v any) error {
		s := cast.ToString(v)
		for _, allowed := range values {
			if strings.EqualFold(allowed, s) {
				return nil
			}
		}
		return fmt.Errorf("invalid enum: value must be one of: %s", strings.Join(values, ", "))
	}
}

// Match rejects text that does not match re.
func Match(re *regexp.Regexp) Validator {
	return func(v any) error {
		if !re.MatchString(cast.ToString(v)) {
			return fmt.Errorf("does not match pattern %s", re.String())
		}
		return nil
	}
}

// NotZero rejects the zero value of the cleaned type (0, "", false, zero time).
func NotZero(v any) error {
	if d, ok := v.(decimal.Decimal); ok {
		if d.IsZero() {
			return fmt.Errorf("must not be zero")
		}
		return nil
	}
	if v == nil || reflect.ValueOf(v).IsZero() {
		return fmt.Errorf("must not be zero")
	}
	return nil
}
