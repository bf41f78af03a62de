package services

import (
	"bytes"
	"fmt"

	"github.com/admin5fedu/duraval-app-sub010/models"
	"github.com/xuri/excelize/v2"
)

const (
	errorsSheet   = "Errors"
	warningsSheet = "Warnings"
)

// BuildErrorWorkbook lists the error rows of result, plus its warnings on a
// second sheet when there are any.
func BuildErrorWorkbook(result models.ImportResult) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", errorsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRowErrors(f, errorsSheet, result.Errors); err != nil {
		return nil, err
	}
	if len(result.Warnings) > 0 {
		if _, err := f.NewSheet(warningsSheet); err != nil {
			return nil, fmt.Errorf("create warnings sheet: %w", err)
		}
		if err := writeRowErrors(f, warningsSheet, result.Warnings); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func writeRowErrors(f *excelize.File, sheet string, entries []models.RowError) error {
	header := []interface{}{"Row", "Error"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, e := range entries {
		row := []interface{}{e.Row, e.Error}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("write %s row: %w", sheet, err)
		}
	}
	if err := f.SetColWidth(sheet, "B", "B", 80); err != nil {
		return fmt.Errorf("size %s column: %w", sheet, err)
	}
	return nil
}
