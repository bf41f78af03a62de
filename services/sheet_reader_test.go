package services

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/admin5fedu/duraval-app-sub010/common/errors"
	"github.com/admin5fedu/duraval-app-sub010/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows map[string]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for cell, v := range rows {
		require.NoError(t, f.SetCellValue("Sheet1", cell, v))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadSheet_Workbook(t *testing.T) {
	buf := workbook(t, map[string]interface{}{
		"A1": " Mã ", "B1": "Giá",
		"A2": "SP01", "B2": 1500,
		"A4": "00123", "B4": "1,200",
	})

	sheet, err := ReadSheet(buf, "products.XLSX")
	require.NoError(t, err)

	assert.Equal(t, []string{"Mã", "Giá"}, sheet.Headers)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, models.TextValue("SP01"), sheet.Rows[0][0])
	n, ok := sheet.Rows[0][1].Number()
	assert.True(t, ok)
	assert.Equal(t, 1500.0, n)

	// the gap row is kept so numbering matches the sheet
	assert.Empty(t, sheet.Rows[1])

	// text cells stay text even when they look numeric
	assert.Equal(t, models.TextValue("00123"), sheet.Rows[2][0])
	assert.Equal(t, models.TextValue("1,200"), sheet.Rows[2][1])
}

func TestReadSheet_CSVWithBOMAndBlankLines(t *testing.T) {
	data := "\xEF\xBB\xBFMã,Tên\nA,x\n\n\"B\",\"y\nz\"\nC,w\n"

	sheet, err := ReadSheet(strings.NewReader(data), "in.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Mã", "Tên"}, sheet.Headers)
	require.Len(t, sheet.Rows, 4)
	assert.Equal(t, []models.Value{models.TextValue("A"), models.TextValue("x")}, sheet.Rows[0])
	assert.Nil(t, sheet.Rows[1])
	assert.Equal(t, models.TextValue("y\nz"), sheet.Rows[2][1])
	assert.Equal(t, models.TextValue("C"), sheet.Rows[3][0])
}

func TestReadSheet_Rejects(t *testing.T) {
	_, err := ReadSheet(strings.NewReader("a,b"), "data.json")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSheet))

	_, err = ReadSheet(strings.NewReader(""), "empty.csv")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSheet))

	_, err = ReadSheet(strings.NewReader("not a zip"), "broken.xlsx")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSheet))
}

func TestIsSupportedSheet(t *testing.T) {
	assert.True(t, IsSupportedSheet("a.xlsx"))
	assert.True(t, IsSupportedSheet("a.XLSM"))
	assert.True(t, IsSupportedSheet("a.csv"))
	assert.False(t, IsSupportedSheet("a.xls"))
	assert.False(t, IsSupportedSheet("xlsx"))
}
