package core

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name     string
		validate Validator
		value    any
		wantErr  string
	}{
		{name: "min length ok", validate: MinLength(2), value: "ab"},
		{name: "min length short", validate: MinLength(3), value: "ab", wantErr: "must be at least 3 characters"},
		{name: "min length counts runes", validate: MinLength(2), value: "né"},
		{name: "max length ok", validate: MaxLength(3), value: "abc"},
		{name: "max length long", validate: MaxLength(3), value: "abcd", wantErr: "must be at most 3 characters"},
		{name: "range int", validate: Range(0, 150), value: int64(30)},
		{name: "range bounds inclusive", validate: Range(0, 150), value: int64(150)},
		{name: "range below", validate: Range(0, 150), value: int64(-1), wantErr: "must be between 0 and 150"},
		{name: "range decimal", validate: Range(0, 1), value: decimal.RequireFromString("0.99")},
		{name: "range decimal above", validate: Range(0, 1), value: decimal.RequireFromString("1.01"), wantErr: "must be between 0 and 1"},
		{name: "range non number", validate: Range(0, 1), value: "abc", wantErr: "invalid number format"},
		{name: "one of", validate: OneOf("home", "work"), value: "Work"},
		{name: "one of missing", validate: OneOf("home", "work"), value: "moon", wantErr: "invalid enum: value must be one of: home, work"},
		{name: "match", validate: Match(regexp.MustCompile(`^\d{5}$`)), value: "12345"},
		{name: "match fails", validate: Match(regexp.MustCompile(`^\d{5}$`)), value: "1234", wantErr: `does not match pattern ^\d{5}$`},
		{name: "not zero int", validate: NotZero, value: int64(0), wantErr: "must not be zero"},
		{name: "not zero string", validate: NotZero, value: "x"},
		{name: "not zero time", validate: NotZero, value: time.Time{}, wantErr: "must not be zero"},
		{name: "not zero decimal", validate: NotZero, value: decimal.Zero, wantErr: "must not be zero"},
		{name: "not zero nil", validate: NotZero, value: nil, wantErr: "must not be zero"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validate(tt.value)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
