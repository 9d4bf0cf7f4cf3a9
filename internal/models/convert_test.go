package models

import (
	"encoding/json"
	"testing"

	"github.com/mcncl/gotoon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny(t *testing.T) {
	input := map[string]any{
		"zeta":  int8(1),
		"alpha": []any{"x", true, nil, 2.5, uint64(7), json.Number("1e2")},
		"mid":   map[string]any{"n": float32(0.5)},
	}

	got, err := FromAny(input)
	require.NoError(t, err)

	want := NewObject(
		F("alpha", NewArray(
			NewString("x"),
			NewBool(true),
			NewNull(),
			MustNumber("2.5"),
			MustNumber("7"),
			MustNumber("1e2"),
		)),
		F("mid", NewObject(F("n", MustNumber("0.5")))),
		F("zeta", NewInt(1)),
	)
	assert.True(t, Equal(want, got), "got %s", got)
}

func TestFromAny_PassesValuesThrough(t *testing.T) {
	v := NewObject(F("k", NewString("v")))
	got, err := FromAny([]any{v})
	require.NoError(t, err)
	assert.True(t, Equal(NewArray(v), got))
}

func TestFromAny_SharedNotCyclic(t *testing.T) {
	shared := []any{1}
	got, err := FromAny([]any{shared, shared})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestFromAny_SharedPrefixNotCyclic(t *testing.T) {
	s := []any{1, nil}
	s[1] = s[:1]

	got, err := FromAny(s)
	require.NoError(t, err)
	assert.True(t, Equal(NewArray(NewInt(1), NewArray(NewInt(1))), got), "got %s", got)
}

func TestFromAny_Errors(t *testing.T) {
	loop := make([]any, 1)
	loop[0] = loop

	self := map[string]any{}
	self["self"] = self

	tests := []struct {
		name  string
		input any
		want  error
	}{
		{"slice cycle", loop, errors.ErrCycle},
		{"map cycle", self, errors.ErrCycle},
		{"unsupported type", struct{}{}, errors.ErrUnsupportedValue},
		{"unsupported nested", map[string]any{"ch": make(chan int)}, errors.ErrUnsupportedValue},
		{"bad json number", json.Number("1.2.3"), errors.ErrInvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromAny(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestToAny(t *testing.T) {
	v := NewObject(
		F("n", MustNumber("1.50")),
		F("list", NewArray(NewNull(), NewBool(true), NewString("s"))),
	)

	got := ToAny(v)
	assert.Equal(t, map[string]any{
		"n":    json.Number("1.50"),
		"list": []any{nil, true, "s"},
	}, got)

	back, err := FromAny(got)
	require.NoError(t, err)
	// keys come back sorted
	assert.Equal(t, []string{"list", "n"}, back.Keys())
}
