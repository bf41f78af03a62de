package importer

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/admin5fedu/duraval-app-sub010/models"
	"github.com/xuri/excelize/v2"
)

const dateLayout = "2006-01-02"

// Transform converts a validated row into typed field values. Fields whose
// column is absent from the sheet are never written. A blank or unparsable
// value is absent: omitted when SkipEmptyCells is set, explicit null otherwise.
func Transform(row models.ExtractedRow, mappings []models.ColumnMapping, opts models.ImportOptions) models.TransformedRecord {
	rec := models.TransformedRecord{
		RowNumber: row.RowNumber,
		Fields:    make(map[string]models.Value, len(row.Fields)),
	}
	for _, m := range mappings {
		raw, present := row.Fields[m.Field]
		if !present {
			continue
		}
		v := convert(raw, m.Type)
		if v.IsMissing() && opts.SkipEmptyCells {
			continue
		}
		rec.Fields[m.Field] = v
	}
	return rec
}

// TransformRows transforms the rows that passed validation.
func TransformRows(rows []models.ExtractedRow, mappings []models.ColumnMapping, opts models.ImportOptions) []models.TransformedRecord {
	out := make([]models.TransformedRecord, 0, len(rows))
	for _, r := range rows {
		if !r.Valid() {
			continue
		}
		out = append(out, Transform(r, mappings, opts))
	}
	return out
}

func convert(raw models.Value, typ models.ValueType) models.Value {
	switch typ {
	case models.ValueTypeNumber:
		if f, ok := ParseNumber(raw); ok {
			return models.NumberValue(f)
		}
		return models.MissingValue()
	case models.ValueTypeDate:
		if f, ok := raw.Number(); ok {
			t, err := excelize.ExcelDateToTime(f, false)
			if err != nil {
				return models.MissingValue()
			}
			return models.TextValue(t.Format(dateLayout))
		}
		return trimmedText(raw)
	default:
		return trimmedText(raw)
	}
}

func trimmedText(raw models.Value) models.Value {
	s := strings.TrimSpace(raw.String())
	if s == "" {
		return models.MissingValue()
	}
	return models.TextValue(s)
}

// ParseNumber reads a number cell, or text with thousands separators and
// surrounding whitespace such as " 1,234.5 ".
func ParseNumber(v models.Value) (float64, bool) {
	if f, ok := v.Number(); ok {
		return f, true
	}
	s, ok := v.Text()
	if !ok {
		return 0, false
	}
	s = strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
