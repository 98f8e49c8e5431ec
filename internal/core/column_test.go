package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnExtract(t *testing.T) {
	age := Column{Name: "age", Index: 1, Required: true, Clean: Int, Validators: []Validator{Range(0, 150)}}

	t.Run("clean and validate", func(t *testing.T) {
		v, err := age.Extract(Row{"Ann", " 42 "})
		require.Nil(t, err)
		assert.Equal(t, int64(42), v)
	})

	t.Run("required missing cell", func(t *testing.T) {
		_, err := age.Extract(Row{"Ann"})
		require.NotNil(t, err)
		assert.Equal(t, "age", err.Column)
		assert.True(t, errors.Is(err, ErrMissingValue))
	})

	t.Run("required blank cell", func(t *testing.T) {
		_, err := age.Extract(Row{"Ann", "   "})
		require.NotNil(t, err)
		assert.True(t, errors.Is(err, ErrMissingValue))
		assert.Equal(t, "   ", err.Value)
	})

	t.Run("clean failure keeps raw value", func(t *testing.T) {
		_, err := age.Extract(Row{"Ann", "abc"})
		require.NotNil(t, err)
		assert.Equal(t, "abc", err.Value)
		assert.Equal(t, "invalid number format", err.Message)
	})

	t.Run("validator failure", func(t *testing.T) {
		_, err := age.Extract(Row{"Ann", "200"})
		require.NotNil(t, err)
		assert.Equal(t, "must be between 0 and 150", err.Message)
	})

	t.Run("optional uses default", func(t *testing.T) {
		col := Column{Name: "kind", Index: 3, Default: "home"}
		v, err := col.Extract(Row{"a"})
		require.Nil(t, err)
		assert.Equal(t, "home", v)
	})

	t.Run("optional without default is nil", func(t *testing.T) {
		col := Column{Name: "note", Index: 0, Clean: Int}
		v, err := col.Extract(Row{""})
		require.Nil(t, err)
		assert.Nil(t, v)
	})

	t.Run("no clean is identity", func(t *testing.T) {
		col := Column{Name: "raw", Index: 0}
		v, err := col.Extract(Row{" x "})
		require.Nil(t, err)
		assert.Equal(t, " x ", v)
	})

	t.Run("zero is data", func(t *testing.T) {
		col := Column{Name: "n", Index: 0, Required: true}
		v, err := col.Extract(Row{0})
		require.Nil(t, err)
		assert.Equal(t, 0, v)
	})

	t.Run("first failing validator wins", func(t *testing.T) {
		second := false
		col := Column{Name: "s", Index: 0, Validators: []Validator{
			MinLength(5),
			func(any) error { second = true; return nil },
		}}
		_, err := col.Extract(Row{"abc"})
		require.NotNil(t, err)
		assert.Equal(t, "must be at least 5 characters", err.Message)
		assert.False(t, second)
	})

	t.Run("panicking clean becomes column error", func(t *testing.T) {
		col := Column{Name: "p", Index: 0, Clean: func(any) (any, error) { panic("bad cell") }}
		_, err := col.Extract(Row{"x"})
		require.NotNil(t, err)
		assert.Equal(t, "clean failed: bad cell", err.Message)
	})
}

func TestIsEmptyRow(t *testing.T) {
	assert.True(t, isEmptyRow(Row{}))
	assert.True(t, isEmptyRow(Row{"", "  ", nil}))
	assert.False(t, isEmptyRow(Row{"", 0}))
	assert.False(t, isEmptyRow(Row{"", "x"}))
}
