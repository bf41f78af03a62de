package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/admin5fedu/duraval-app-sub010/common/errors"
	"github.com/admin5fedu/duraval-app-sub010/models"
	"github.com/xuri/excelize/v2"
)

var sheetExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

// IsSupportedSheet reports whether filename has an importable extension.
func IsSupportedSheet(filename string) bool {
	return sheetExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ReadSheet decodes the first worksheet of an xlsx/xlsm workbook, or a csv
// file, into a Sheet. The first row is the header row.
func ReadSheet(r io.Reader, filename string) (models.Sheet, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(r)
	case ".csv":
		return readCSV(r)
	default:
		return models.Sheet{}, apperrors.Withf(apperrors.ErrInvalidSheet, "unsupported file type %q", filepath.Ext(filename))
	}
}

func readWorkbook(r io.Reader) (models.Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return models.Sheet{}, apperrors.Wrap(apperrors.ErrInvalidSheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return models.Sheet{}, apperrors.Withf(apperrors.ErrInvalidSheet, "workbook has no sheets")
	}
	name := sheets[0]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return models.Sheet{}, apperrors.Wrap(apperrors.ErrInvalidSheet, err)
	}
	if len(rows) == 0 {
		return models.Sheet{}, apperrors.Withf(apperrors.ErrInvalidSheet, "file is empty")
	}

	sheet := models.Sheet{Headers: trimAll(rows[0]), Rows: make([][]models.Value, 0, len(rows)-1)}
	for i, row := range rows[1:] {
		cells := make([]models.Value, len(row))
		for j, raw := range row {
			axis, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return models.Sheet{}, apperrors.Wrap(apperrors.ErrInvalidSheet, err)
			}
			typ, err := f.GetCellType(name, axis)
			if err != nil {
				return models.Sheet{}, apperrors.Wrap(apperrors.ErrInvalidSheet, err)
			}
			cells[j] = cellValue(raw, typ)
		}
		sheet.Rows = append(sheet.Rows, cells)
	}
	return sheet, nil
}

// cellValue keeps numeric cells numeric (so serial dates and large codes are
// not reformatted) and everything else as text.
func cellValue(raw string, typ excelize.CellType) models.Value {
	if raw == "" {
		return models.MissingValue()
	}
	if typ == excelize.CellTypeNumber || typ == excelize.CellTypeUnset {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return models.NumberValue(f)
		}
	}
	return models.TextValue(raw)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV keeps empty lines as blank rows so row numbers match what a
// spreadsheet program shows for the same file.
func readCSV(r io.Reader) (models.Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Sheet{}, fmt.Errorf("read csv: %w", err)
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return models.Sheet{}, apperrors.Withf(apperrors.ErrInvalidSheet, "file is empty")
	}
	if err != nil {
		return models.Sheet{}, apperrors.Wrap(apperrors.ErrInvalidSheet, err)
	}
	sheet := models.Sheet{Headers: trimAll(header), Rows: [][]models.Value{}}
	next := nextLine(cr, header)

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.Sheet{}, apperrors.Wrap(apperrors.ErrInvalidSheet, err)
		}
		line, _ := cr.FieldPos(0)
		for ; next < line; next++ {
			sheet.Rows = append(sheet.Rows, nil)
		}
		next = nextLine(cr, rec)

		cells := make([]models.Value, len(rec))
		for j, s := range rec {
			cells[j] = models.TextValue(s)
		}
		sheet.Rows = append(sheet.Rows, cells)
	}
	return sheet, nil
}

// nextLine is the line following the record just read, accounting for quoted
// fields that span lines.
func nextLine(cr *csv.Reader, rec []string) int {
	last := len(rec) - 1
	line, _ := cr.FieldPos(last)
	return line + strings.Count(rec[last], "\n") + 1
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
