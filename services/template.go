package services

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/admin5fedu/duraval-app-sub010/models"
	"github.com/admin5fedu/duraval-app-sub010/registry"
	"github.com/xuri/excelize/v2"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	templateDataSheet  = "Data"
	templateGuideSheet = "Guide"
	requiredMarker     = " *"
)

// TemplateHeader is the header cell written for a column: its label, with a
// trailing marker when the column is required. The marker is ignored when the
// header is read back.
func TemplateHeader(col models.TemplateColumn) string {
	if col.Required {
		return col.Header + requiredMarker
	}
	return col.Header
}

// BuildTemplate renders a blank import workbook for m: a data sheet with the
// header row and one example row, and a guide sheet describing each column.
func BuildTemplate(m *registry.Module) (*bytes.Buffer, error) {
	cols := models.TemplateColumns(m.Mappings)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateDataSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	headers := make([]interface{}, len(cols))
	example := make([]interface{}, len(cols))
	hasExample := false
	for i, c := range cols {
		headers[i] = TemplateHeader(c)
		example[i] = exampleCell(c)
		if c.Example != "" {
			hasExample = true
		}
	}
	if err := f.SetSheetRow(templateDataSheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}
	if hasExample {
		if err := f.SetSheetRow(templateDataSheet, "A2", &example); err != nil {
			return nil, fmt.Errorf("write example row: %w", err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(templateDataSheet, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("style header row: %w", err)
	}
	lastCol, _, _ := excelize.SplitCellName(last)
	if err := f.SetColWidth(templateDataSheet, "A", lastCol, 22); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	if err := writeGuide(f, cols, bold); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func writeGuide(f *excelize.File, cols []models.TemplateColumn, style int) error {
	if _, err := f.NewSheet(templateGuideSheet); err != nil {
		return fmt.Errorf("create guide sheet: %w", err)
	}
	header := []interface{}{"Column", "Field", "Type", "Required", "Description", "Example"}
	if err := f.SetSheetRow(templateGuideSheet, "A1", &header); err != nil {
		return fmt.Errorf("write guide header: %w", err)
	}
	if err := f.SetCellStyle(templateGuideSheet, "A1", "F1", style); err != nil {
		return fmt.Errorf("style guide header: %w", err)
	}
	for i, c := range cols {
		required := "no"
		if c.Required {
			required = "yes"
		}
		row := []interface{}{c.Header, c.Field, string(c.Type), required, c.Description, c.Example}
		if err := f.SetSheetRow(templateGuideSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("write guide row: %w", err)
		}
	}
	return f.SetColWidth(templateGuideSheet, "A", "F", 24)
}

// exampleCell writes numeric examples as numbers so the template round-trips.
func exampleCell(c models.TemplateColumn) interface{} {
	if c.Type == models.ValueTypeNumber {
		if f, err := strconv.ParseFloat(c.Example, 64); err == nil {
			return f
		}
	}
	return c.Example
}
