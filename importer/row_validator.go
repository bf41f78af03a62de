package importer

import (
	"fmt"

	"github.com/admin5fedu/duraval-app-sub010/models"
)

// RowRule is a module-specific check composed after the built-in ones.
type RowRule func(row models.ExtractedRow) []string

const msgEmptyRow = "Row is empty"

// ValidateRow returns every problem found on the row. It never stops at the
// first error. A row with no value in any mapped column yields only msgEmptyRow.
func ValidateRow(row models.ExtractedRow, mappings []models.ColumnMapping, rules ...RowRule) []string {
	if isBlankRow(row) {
		return []string{msgEmptyRow}
	}

	var errs []string
	for _, m := range mappings {
		if !m.Required {
			continue
		}
		v, ok := row.Fields[m.Field]
		if !ok || v.IsBlank() {
			errs = append(errs, fmt.Sprintf("%s is required", m.DisplayName()))
			continue
		}
		if m.Type == models.ValueTypeNumber {
			if _, ok := ParseNumber(v); !ok {
				errs = append(errs, fmt.Sprintf("%s must be a number", m.DisplayName()))
			}
		}
	}
	for _, rule := range rules {
		errs = append(errs, rule(row)...)
	}
	return errs
}

// ValidateRows annotates each row's Errors in place.
func ValidateRows(rows []models.ExtractedRow, mappings []models.ColumnMapping, rules ...RowRule) {
	for i := range rows {
		rows[i].Errors = ValidateRow(rows[i], mappings, rules...)
	}
}

func isBlankRow(row models.ExtractedRow) bool {
	for _, v := range row.Fields {
		if !v.IsBlank() {
			return false
		}
	}
	return true
}
