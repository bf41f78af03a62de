package registry

import (
	"math"

	"github.com/admin5fedu/duraval-app-sub010/importer"
	"github.com/admin5fedu/duraval-app-sub010/models"
)

// Positions is the chuc-vu (job position) import.
func Positions() Module {
	return Module{
		Name:         "chuc-vu",
		Title:        "Chức vụ",
		Table:        "chuc_vu",
		KeyField:     "ma_chuc_vu",
		CreatorField: "nguoi_tao_id",
		Mappings: []models.ColumnMapping{
			{
				Field:       "ma_chuc_vu",
				Label:       "Mã chức vụ",
				Aliases:     []string{"Mã_CV", "Position Code", "PositionCode", "position_code", "Code"},
				Required:    true,
				Type:        models.ValueTypeText,
				Description: "Mã chức vụ (bắt buộc)",
				Example:     "GD",
			},
			{
				Field:       "ten_chuc_vu",
				Label:       "Tên chức vụ",
				Aliases:     []string{"Tên_CV", "Position Name", "PositionName", "position_name", "Name"},
				Required:    true,
				Type:        models.ValueTypeText,
				Description: "Tên chức vụ (bắt buộc)",
				Example:     "Giám đốc",
			},
			{
				Field:       "cap_bac",
				Label:       "Cấp bậc",
				Aliases:     []string{"Level", "Grade"},
				Required:    true,
				Type:        models.ValueTypeNumber,
				Description: "Số cấp bậc (bắt buộc, ví dụ: 1, 2, 3)",
				Example:     "1",
			},
			{
				Field:       "ten_cap_bac",
				Label:       "Tên cấp bậc",
				Aliases:     []string{"Level Name", "level_name", "Ten_CB"},
				Type:        models.ValueTypeText,
				Description: "Tên cấp bậc",
			},
			{
				Field:       "ma_phong_ban",
				Label:       "Mã phòng ban",
				Aliases:     []string{"Department Code", "dept_code", "Ma_PB"},
				Required:    true,
				Type:        models.ValueTypeText,
				Description: "Mã phòng ban (bắt buộc)",
				Example:     "BGD",
			},
			{
				Field:       "ngach_luong",
				Label:       "Ngạch lương",
				Aliases:     []string{"Salary Grade", "salary_grade"},
				Type:        models.ValueTypeText,
				Description: "Ngạch lương",
			},
			{
				Field:       "muc_dong_bao_hiem",
				Label:       "Mức đóng bảo hiểm",
				Aliases:     []string{"Insurance Rate", "insurance_rate"},
				Type:        models.ValueTypeNumber,
				Description: "Mức đóng bảo hiểm",
				Example:     "5,000,000",
			},
			{
				Field:       "so_ngay_nghi_thu_7",
				Label:       "Số ngày nghỉ thứ 7",
				Aliases:     []string{"Saturday Leave", "saturday_leave"},
				Type:        models.ValueTypeText,
				Description: "Số ngày nghỉ thứ 7",
			},
			{
				Field:       "nhom_thuong",
				Label:       "Nhóm thưởng",
				Aliases:     []string{"Bonus Group", "bonus_group"},
				Type:        models.ValueTypeText,
				Description: "Nhóm thưởng",
			},
			{
				Field:       "diem_thuong",
				Label:       "Điểm thưởng",
				Aliases:     []string{"Bonus Points", "bonus_points"},
				Type:        models.ValueTypeNumber,
				Description: "Điểm thưởng",
			},
		},
		DuplicatePolicy: models.DuplicatePolicyWarn,
		DefaultOptions:  models.ImportOptions{SkipEmptyCells: true, UpsertMode: models.UpsertModeUpsert},
		Rules:           []importer.RowRule{wholeLevel},
	}
}

func wholeLevel(row models.ExtractedRow) []string {
	f, ok := importer.ParseNumber(row.Fields["cap_bac"])
	if ok && (f < 1 || f != math.Trunc(f)) {
		return []string{"Cấp bậc must be a positive whole number"}
	}
	return nil
}
