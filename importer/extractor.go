package importer

import (
	"github.com/admin5fedu/duraval-app-sub010/models"
)

// Extraction is the outcome of mapping a sheet onto domain fields.
type Extraction struct {
	Rows []models.ExtractedRow
	// Columns maps sheet column index to domain field.
	Columns map[int]string
	// UnmappedHeaders lists headers that resolved to no field, or to a field
	// already taken by a column further left.
	UnmappedHeaders []string
	// MissingColumns lists labels of required fields with no column at all.
	MissingColumns []string
}

// Extract turns every data row into an ExtractedRow numbered 1..N in sheet
// order. Blank rows are kept. Only fields whose column exists appear in
// Fields; a blank or absent cell in such a column is Missing.
func Extract(sheet models.Sheet, mappings []models.ColumnMapping) Extraction {
	resolver := NewHeaderResolver(mappings)
	ext := Extraction{
		Rows:            make([]models.ExtractedRow, 0, len(sheet.Rows)),
		Columns:         make(map[int]string),
		UnmappedHeaders: []string{},
		MissingColumns:  []string{},
	}

	taken := make(map[string]bool)
	for i, h := range sheet.Headers {
		field, ok := resolver.Resolve(h)
		if !ok || taken[field] {
			if NormalizeHeader(h) != "" {
				ext.UnmappedHeaders = append(ext.UnmappedHeaders, h)
			}
			continue
		}
		taken[field] = true
		ext.Columns[i] = field
	}

	for _, m := range mappings {
		if m.Required && !taken[m.Field] {
			ext.MissingColumns = append(ext.MissingColumns, m.DisplayName())
		}
	}

	for n, cells := range sheet.Rows {
		fields := make(map[string]models.Value, len(ext.Columns))
		for col, field := range ext.Columns {
			v := models.MissingValue()
			if col < len(cells) {
				v = cells[col]
			}
			if v.IsBlank() {
				v = models.MissingValue()
			}
			fields[field] = v
		}
		ext.Rows = append(ext.Rows, models.ExtractedRow{RowNumber: n + 1, Fields: fields})
	}
	return ext
}
