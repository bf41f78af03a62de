package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/admin5fedu/duraval-app-sub010/common/errors"
	"github.com/admin5fedu/duraval-app-sub010/importer"
	"github.com/admin5fedu/duraval-app-sub010/models"
	awspkg "github.com/admin5fedu/duraval-app-sub010/pkg/aws"
	"github.com/admin5fedu/duraval-app-sub010/registry"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const DefaultMaxRows = 10000

// ImportService runs the import pipeline for registered modules:
// extract, validate, transform, detect duplicates, reconcile, aggregate.
type ImportService struct {
	registry   *registry.Registry
	reconciler *importer.Reconciler
	validate   *validator.Validate
	events     EventPublisher
	metrics    *awspkg.MetricsClient
	maxRows    int
	logger     *zap.Logger

	files FileStore
	jobs  JobStore
	queue JobQueue
	now   func() time.Time
}

type ServiceOption func(*ImportService)

func WithEvents(p EventPublisher) ServiceOption {
	return func(s *ImportService) {
		if p != nil {
			s.events = p
		}
	}
}

func WithMetrics(m *awspkg.MetricsClient) ServiceOption {
	return func(s *ImportService) { s.metrics = m }
}

// WithMaxRows bounds data rows per file; 0 or less keeps the default.
func WithMaxRows(n int) ServiceOption {
	return func(s *ImportService) {
		if n > 0 {
			s.maxRows = n
		}
	}
}

func WithServiceLogger(l *zap.Logger) ServiceOption {
	return func(s *ImportService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithJobs enables async submission.
func WithJobs(files FileStore, jobs JobStore, queue JobQueue) ServiceOption {
	return func(s *ImportService) {
		s.files, s.jobs, s.queue = files, jobs, queue
	}
}

func NewImportService(reg *registry.Registry, rec *importer.Reconciler, opts ...ServiceOption) *ImportService {
	s := &ImportService{
		registry:   reg,
		reconciler: rec,
		validate:   validator.New(),
		events:     NopEventPublisher{},
		maxRows:    DefaultMaxRows,
		logger:     zap.L(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *ImportService) Modules() []*registry.Module {
	return s.registry.List()
}

func (s *ImportService) Module(name string) (*registry.Module, error) {
	m, ok := s.registry.Get(name)
	if !ok {
		return nil, apperrors.Withf(apperrors.ErrModuleNotFound, "import module %q not found", name)
	}
	return m, nil
}

// ResolveOptions returns the module defaults overridden by opts, validated.
func (s *ImportService) ResolveOptions(m *registry.Module, opts *models.ImportOptions) (models.ImportOptions, error) {
	resolved := m.DefaultOptions
	if opts != nil {
		resolved = *opts
		if resolved.UpsertMode == "" {
			resolved.UpsertMode = m.DefaultOptions.UpsertMode
		}
	}
	if err := s.validate.Struct(resolved); err != nil {
		return resolved, apperrors.Wrap(apperrors.ErrInvalidOptions, err)
	}
	return resolved, nil
}

func (s *ImportService) checkRows(sheet models.Sheet) error {
	if len(sheet.Rows) > s.maxRows {
		return apperrors.Withf(apperrors.ErrTooManyRows, "file has %d rows, the limit is %d", len(sheet.Rows), s.maxRows)
	}
	return nil
}

// staged is the pipeline state before reconciliation.
type staged struct {
	extraction importer.Extraction
	records    []models.TransformedRecord
	duplicates []models.DuplicateGroup
	pre        models.ImportResult
}

// stage runs every pipeline step that does not touch the store. Rows failing
// validation, and duplicated rows under the reject policy, land in pre.Errors;
// the remaining records are ready for reconciliation.
func stage(m *registry.Module, sheet models.Sheet, opts models.ImportOptions) staged {
	ext := importer.Extract(sheet, m.Mappings)
	importer.ValidateRows(ext.Rows, m.Mappings, m.Rules...)

	st := staged{extraction: ext, pre: models.ImportResult{Errors: []models.RowError{}}}
	for _, row := range ext.Rows {
		if !row.Valid() {
			st.pre.Errors = append(st.pre.Errors, models.RowError{Row: row.RowNumber, Error: strings.Join(row.Errors, "; ")})
		}
	}

	records := importer.TransformRows(ext.Rows, m.Mappings, opts)
	dups := importer.FindDuplicates(records, m.KeyFn)
	st.duplicates = importer.DuplicateGroups(records, m.KeyFn, dups)

	excluded := make(map[int]bool)
	for _, g := range st.duplicates {
		msg := duplicateMessage(g)
		for _, row := range g.Rows {
			entry := models.RowError{Row: row, Error: msg}
			if m.DuplicatePolicy == models.DuplicatePolicyReject {
				st.pre.Errors = append(st.pre.Errors, entry)
				excluded[row] = true
			} else {
				st.pre.Warnings = append(st.pre.Warnings, entry)
			}
		}
	}

	st.records = make([]models.TransformedRecord, 0, len(records))
	for _, rec := range records {
		if !excluded[rec.RowNumber] {
			st.records = append(st.records, rec)
		}
	}
	return st
}

func duplicateMessage(g models.DuplicateGroup) string {
	rows := make([]string, len(g.Rows))
	for i, r := range g.Rows {
		rows[i] = strconv.Itoa(r)
	}
	return fmt.Sprintf("duplicate key %q in rows %s", g.Key, strings.Join(rows, ", "))
}

// Preview validates an upload without writing anything. opts are resolved the
// same way Import resolves them, so the dry run stages rows identically.
func (s *ImportService) Preview(ctx context.Context, module string, sheet models.Sheet, opts *models.ImportOptions) (*models.ValidationReport, error) {
	m, err := s.Module(module)
	if err != nil {
		return nil, err
	}
	resolved, err := s.ResolveOptions(m, opts)
	if err != nil {
		return nil, err
	}
	if err := s.checkRows(sheet); err != nil {
		return nil, err
	}

	st := stage(m, sheet, resolved)
	res := importer.Aggregate(st.pre)
	invalid := res.FailedRows()
	return &models.ValidationReport{
		Module:          m.Name,
		Options:         &resolved,
		TotalRows:       len(st.extraction.Rows),
		ValidRows:       len(st.extraction.Rows) - invalid,
		InvalidRows:     invalid,
		MissingColumns:  st.extraction.MissingColumns,
		UnmappedHeaders: st.extraction.UnmappedHeaders,
		Duplicates:      st.duplicates,
		Errors:          res.Errors,
	}, nil
}

// Import runs the whole pipeline for sheet. Row level problems are reported in
// the result; an error is returned only for an unknown module, invalid options
// or an oversized file, in which case nothing was written.
func (s *ImportService) Import(ctx context.Context, sheet models.Sheet, req ImportRequest) (*models.ImportResult, error) {
	m, err := s.Module(req.Module)
	if err != nil {
		return nil, err
	}
	opts, err := s.ResolveOptions(m, req.Options)
	if err != nil {
		return nil, err
	}
	if err := s.checkRows(sheet); err != nil {
		return nil, err
	}

	start := s.now()
	st := stage(m, sheet, opts)
	reconciled := s.reconciler.Reconcile(ctx, st.records, importer.ReconcileRequest{
		Table:        m.Table,
		KeyField:     m.KeyField,
		KeyFn:        m.KeyFn,
		CreatorField: m.CreatorField,
		ActorID:      req.ActorID,
		Options:      opts,
		OnChunk:      req.OnChunk,
	})
	result := importer.Aggregate(st.pre, reconciled)
	elapsed := s.now().Sub(start)

	s.logger.Info("import finished",
		zap.String("module", m.Name),
		zap.String("actor_id", req.ActorID),
		zap.String("job_id", req.JobID),
		zap.Int("rows", len(sheet.Rows)),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.FailedRows()),
		zap.Int("warnings", len(result.Warnings)),
		zap.Bool("cancelled", result.Cancelled),
		zap.Duration("duration", elapsed),
	)
	s.report(ctx, m.Name, req, result, elapsed)
	return &result, nil
}

// ImportFile decodes r according to filename and imports it.
func (s *ImportService) ImportFile(ctx context.Context, r io.Reader, filename string, req ImportRequest) (*models.ImportResult, error) {
	sheet, err := ReadSheet(r, filename)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, sheet, req)
}

// PreviewFile decodes r according to filename and validates it.
func (s *ImportService) PreviewFile(ctx context.Context, module string, r io.Reader, filename string, opts *models.ImportOptions) (*models.ValidationReport, error) {
	sheet, err := ReadSheet(r, filename)
	if err != nil {
		return nil, err
	}
	return s.Preview(ctx, module, sheet, opts)
}

// report sends metrics and the completion event. Failures are logged only.
func (s *ImportService) report(ctx context.Context, module string, req ImportRequest, result models.ImportResult, elapsed time.Duration) {
	ctx = context.WithoutCancel(ctx)

	if s.metrics.IsEnabled() {
		dims := map[string]string{"Service": "import-service", "Module": module}
		for name, n := range map[string]int{
			awspkg.MetricImportRowsInserted: result.Inserted,
			awspkg.MetricImportRowsUpdated:  result.Updated,
			awspkg.MetricImportRowsFailed:   result.FailedRows(),
		} {
			if err := s.metrics.RecordTotal(ctx, name, n, dims); err != nil {
				s.logger.Warn("failed to record import metric", zap.String("metric", name), zap.Error(err))
			}
		}
		if err := s.metrics.RecordLatency(ctx, awspkg.MetricImportDuration, elapsed, dims); err != nil {
			s.logger.Warn("failed to record import metric", zap.String("metric", awspkg.MetricImportDuration), zap.Error(err))
		}
	}

	evt := models.ImportCompletedEvent{
		Type:       models.EventImportCompleted,
		Module:     module,
		ActorID:    req.ActorID,
		JobID:      req.JobID,
		Inserted:   result.Inserted,
		Updated:    result.Updated,
		Failed:     result.FailedRows(),
		Cancelled:  result.Cancelled,
		FinishedAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Error("failed to publish import event", zap.String("module", module), zap.Error(err))
	}
}
