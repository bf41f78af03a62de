package controllers

import (
	"context"
	"io"
	"time"

	"github.com/admin5fedu/duraval-app-sub010/models"
	"github.com/admin5fedu/duraval-app-sub010/registry"
	"github.com/admin5fedu/duraval-app-sub010/services"
)

const DefaultContextTimeout = 30 * time.Second

// ImportServiceAPI defines the import operations the handlers need.
type ImportServiceAPI interface {
	Modules() []*registry.Module
	Module(name string) (*registry.Module, error)
	PreviewFile(ctx context.Context, module string, r io.Reader, filename string, opts *models.ImportOptions) (*models.ValidationReport, error)
	ImportFile(ctx context.Context, r io.Reader, filename string, req services.ImportRequest) (*models.ImportResult, error)
	SubmitJob(ctx context.Context, data []byte, filename string, req services.ImportRequest) (*models.ImportJob, error)
	GetJob(ctx context.Context, id string) (*models.ImportJob, error)
	JobErrors(ctx context.Context, id string) (*models.ImportResult, error)
}

// ModuleSummary is the public view of a registered module.
type ModuleSummary struct {
	Name            string                  `json:"name"`
	Title           string                  `json:"title"`
	KeyField        string                  `json:"key_field"`
	DuplicatePolicy models.DuplicatePolicy  `json:"duplicate_policy"`
	DefaultOptions  models.ImportOptions    `json:"default_options"`
	Columns         []models.TemplateColumn `json:"columns"`
}

func summarize(m *registry.Module) ModuleSummary {
	return ModuleSummary{
		Name:            m.Name,
		Title:           m.Title,
		KeyField:        m.KeyField,
		DuplicatePolicy: m.DuplicatePolicy,
		DefaultOptions:  m.DefaultOptions,
		Columns:         models.TemplateColumns(m.Mappings),
	}
}
