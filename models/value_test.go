package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueVariants(t *testing.T) {
	assert.True(t, Value{}.IsMissing())
	assert.True(t, TextValue("  ").IsBlank())
	assert.False(t, NumberValue(0).IsBlank())

	s, ok := TextValue("abc").Text()
	assert.True(t, ok)
	assert.Equal(t, "abc", s)

	_, ok = TextValue("abc").Number()
	assert.False(t, ok)

	assert.Equal(t, "1234.5", NumberValue(1234.5).String())
	assert.Equal(t, "12", NumberValue(12).String())
	assert.Nil(t, MissingValue().Interface())
}

func TestValueJSON(t *testing.T) {
	var row []Value
	require.NoError(t, json.Unmarshal([]byte(`["x", 3.5, null]`), &row))
	require.Len(t, row, 3)
	assert.Equal(t, KindText, row[0].Kind())
	assert.Equal(t, KindNumber, row[1].Kind())
	assert.Equal(t, KindMissing, row[2].Kind())

	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `["x", 3.5, null]`, string(out))
}

func TestParseUpsertMode(t *testing.T) {
	for in, want := range map[string]UpsertMode{
		"insert":      UpsertModeInsert,
		"Insert-Only": UpsertModeInsert,
		"update-only": UpsertModeUpdate,
		" upsert ":    UpsertModeUpsert,
	} {
		got, err := ParseUpsertMode(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseUpsertMode("merge")
	assert.Error(t, err)
}

func TestImportResultAccounting(t *testing.T) {
	r := ImportResult{
		Inserted: 2,
		Updated:  1,
		Errors:   []RowError{{Row: 4, Error: "a"}, {Row: 4, Error: "b"}, {Row: 6, Error: "c"}},
	}
	assert.Equal(t, 2, r.FailedRows())
	assert.Equal(t, 5, r.Total())
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, NormalizeKey(" ABC "), NormalizeKey("abc"))
	assert.Equal(t, "", NormalizeKey("   "))
	assert.Equal(t, "đà nẵng", NormalizeKey("\u00a0ĐÀ NẴNG\t"))
	// lower-casing only, the way SQL LOWER compares
	assert.Equal(t, "straße", NormalizeKey("STRAßE"))
	assert.NotEqual(t, NormalizeKey("Straße"), NormalizeKey("STRASSE"))
	assert.Equal(t, "οδοσ", NormalizeKey("ΟΔΟΣ"))
}
