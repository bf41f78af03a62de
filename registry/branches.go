package registry

import "github.com/admin5fedu/duraval-app-sub010/models"

// Branches is the chi-nhanh import: insert only, duplicates in one file are rejected.
func Branches() Module {
	return Module{
		Name:         "chi-nhanh",
		Title:        "Chi nhánh",
		Table:        "chi_nhanh",
		KeyField:     "ma_chi_nhanh",
		CreatorField: "nguoi_tao_id",
		Mappings: []models.ColumnMapping{
			{
				Field:       "ma_chi_nhanh",
				Label:       "Mã chi nhánh",
				Aliases:     []string{"Mã_CN", "Branch Code", "BranchCode", "branch_code", "Code"},
				Required:    true,
				Type:        models.ValueTypeText,
				Description: "Mã chi nhánh (bắt buộc)",
				Example:     "HN01",
			},
			{
				Field:       "ten_chi_nhanh",
				Label:       "Tên chi nhánh",
				Aliases:     []string{"Tên_CN", "Branch Name", "BranchName", "branch_name", "Name"},
				Required:    true,
				Type:        models.ValueTypeText,
				Description: "Tên chi nhánh (bắt buộc)",
				Example:     "Chi nhánh Hà Nội",
			},
			{
				Field:       "dia_chi",
				Label:       "Địa chỉ",
				Aliases:     []string{"Address", "Addr"},
				Type:        models.ValueTypeText,
				Description: "Địa chỉ",
			},
			{
				Field:       "dinh_vi",
				Label:       "Định vị",
				Aliases:     []string{"Location", "Map", "GPS"},
				Type:        models.ValueTypeText,
				Description: "Định vị",
			},
			{
				Field:       "hinh_anh",
				Label:       "Hình ảnh",
				Aliases:     []string{"Image", "Photo"},
				Type:        models.ValueTypeText,
				Description: "Đường dẫn hình ảnh",
			},
			{
				Field:       "mo_ta",
				Label:       "Mô tả",
				Aliases:     []string{"Description", "Note"},
				Type:        models.ValueTypeText,
				Description: "Mô tả",
			},
		},
		DuplicatePolicy: models.DuplicatePolicyReject,
		DefaultOptions:  models.ImportOptions{SkipEmptyCells: true, UpsertMode: models.UpsertModeInsert},
	}
}
