package registry

import (
	"github.com/admin5fedu/duraval-app-sub010/importer"
	"github.com/admin5fedu/duraval-app-sub010/models"
)

// Departments is the phong-ban import. Rows may reference a parent department by code.
func Departments() Module {
	return Module{
		Name:         "phong-ban",
		Title:        "Phòng ban",
		Table:        "phong_ban",
		KeyField:     "ma_phong_ban",
		CreatorField: "nguoi_tao_id",
		Mappings: []models.ColumnMapping{
			{
				Field:       "tt",
				Label:       "Số thứ tự",
				Aliases:     []string{"STT", "TT", "Thứ tự", "Order", "Index", "No"},
				Required:    true,
				Type:        models.ValueTypeNumber,
				Description: "Số thứ tự (bắt buộc)",
				Example:     "1",
			},
			{
				Field:       "ma_phong_ban",
				Label:       "Mã phòng ban",
				Aliases:     []string{"Mã_PB", "Department Code", "DepartmentCode", "dept_code", "Code"},
				Required:    true,
				Type:        models.ValueTypeText,
				Description: "Mã phòng ban (bắt buộc)",
				Example:     "KT",
			},
			{
				Field:       "ten_phong_ban",
				Label:       "Tên phòng ban",
				Aliases:     []string{"Tên_PB", "Department Name", "DepartmentName", "dept_name", "Name"},
				Required:    true,
				Type:        models.ValueTypeText,
				Description: "Tên phòng ban (bắt buộc)",
				Example:     "Kế toán",
			},
			{
				Field:       "cap_do",
				Label:       "Cấp độ",
				Aliases:     []string{"Cấp_độ", "Level", "Grade"},
				Required:    true,
				Type:        models.ValueTypeText,
				Description: "Cấp độ (bắt buộc)",
				Example:     "Phòng",
			},
			{
				Field:       "truc_thuoc_ma",
				Label:       "Trực thuộc mã",
				Aliases:     []string{"Mã_Trực_Thuộc", "Parent Code", "ParentCode", "parent_code", "Parent"},
				Type:        models.ValueTypeText,
				Description: "Mã phòng ban cấp trên",
			},
		},
		DuplicatePolicy: models.DuplicatePolicyWarn,
		DefaultOptions:  models.ImportOptions{SkipEmptyCells: true, UpsertMode: models.UpsertModeUpsert},
		Rules:           []importer.RowRule{notOwnParent},
	}
}

func notOwnParent(row models.ExtractedRow) []string {
	code := models.NormalizeKey(row.Fields["ma_phong_ban"].String())
	parent := models.NormalizeKey(row.Fields["truc_thuoc_ma"].String())
	if code != "" && code == parent {
		return []string{"Trực thuộc mã cannot be the department itself"}
	}
	return nil
}
