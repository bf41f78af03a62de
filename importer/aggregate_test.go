package importer

import (
	"testing"

	"github.com/admin5fedu/duraval-app-sub010/models"
	"github.com/stretchr/testify/assert"
)

func TestAggregateMergesResults(t *testing.T) {
	a := models.ImportResult{Inserted: 2, Errors: []models.RowError{{Row: 7, Error: "duplicate"}}}
	b := models.ImportResult{Updated: 3, Errors: []models.RowError{{Row: 2, Error: "Tên is required"}, {Row: 7, Error: "not found"}}}
	c := models.ImportResult{Cancelled: true, Warnings: []models.RowError{{Row: 1, Error: "w"}}}

	got := Aggregate(a, b, c)

	assert.Equal(t, 2, got.Inserted)
	assert.Equal(t, 3, got.Updated)
	assert.True(t, got.Cancelled)
	// concatenated as produced, not ordered by row
	assert.Equal(t, []models.RowError{
		{Row: 7, Error: "duplicate"},
		{Row: 2, Error: "Tên is required"},
		{Row: 7, Error: "not found"},
	}, got.Errors)
	assert.Len(t, got.Warnings, 1)
}

func TestAggregateOfNothingHasEmptyErrors(t *testing.T) {
	got := Aggregate()
	assert.NotNil(t, got.Errors)
	assert.Zero(t, got.Inserted+got.Updated)
}
