package services

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	apperrors "github.com/admin5fedu/duraval-app-sub010/common/errors"
	"github.com/admin5fedu/duraval-app-sub010/models"
	awspkg "github.com/admin5fedu/duraval-app-sub010/pkg/aws"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const msgWorkerInterrupted = "import was interrupted before it finished, check the data and upload again"

// ErrAsyncDisabled is returned by job operations when no job backend is configured.
var ErrAsyncDisabled = apperrors.New(http.StatusServiceUnavailable, "Async imports are not enabled", nil)

func (s *ImportService) asyncEnabled() bool {
	return s.files != nil && s.jobs != nil && s.queue != nil
}

// SubmitJob stores the upload, records a pending job and queues it. Module and
// options are checked up front so a bad request fails synchronously.
func (s *ImportService) SubmitJob(ctx context.Context, data []byte, filename string, req ImportRequest) (*models.ImportJob, error) {
	if !s.asyncEnabled() {
		return nil, ErrAsyncDisabled
	}
	m, err := s.Module(req.Module)
	if err != nil {
		return nil, err
	}
	opts, err := s.ResolveOptions(m, req.Options)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	job := &models.ImportJob{
		ID:        uuid.NewString(),
		Module:    m.Name,
		ActorID:   req.ActorID,
		FileName:  filename,
		Options:   opts,
		Status:    models.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.FileKey = job.ID + strings.ToLower(filepath.Ext(filename))

	if err := s.files.Save(ctx, job.FileKey, data); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		_ = s.files.Delete(ctx, job.FileKey)
		return nil, err
	}
	if err := s.queue.Enqueue(ctx, job.ID); err != nil {
		_ = s.files.Delete(ctx, job.FileKey)
		_ = s.jobs.Delete(ctx, job.ID)
		return nil, err
	}

	if s.metrics.IsEnabled() {
		_ = s.metrics.RecordCount(ctx, awspkg.MetricImportJobsQueued, map[string]string{"Service": "import-service", "Module": m.Name})
	}
	s.logger.Info("import job queued", zap.String("job_id", job.ID), zap.String("module", m.Name), zap.String("actor_id", req.ActorID))
	return job, nil
}

func (s *ImportService) GetJob(ctx context.Context, id string) (*models.ImportJob, error) {
	if !s.asyncEnabled() {
		return nil, ErrAsyncDisabled
	}
	return s.jobs.Get(ctx, id)
}

// RunJob processes a queued job: it marks the job processing, writes chunk
// progress back as it goes and stores the result or the failure. The uploaded
// file is removed afterwards either way.
func (s *ImportService) RunJob(ctx context.Context, id string) error {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return err
	}
	switch job.Status {
	case models.JobStatusPending:
	case models.JobStatusProcessing:
		// Redelivered after the previous worker died mid-run; its partial
		// writes are unknown, so the job is closed rather than repeated.
		s.setStatus(ctx, job, models.JobStatusFailed, msgWorkerInterrupted)
		_ = s.files.Delete(context.WithoutCancel(ctx), job.FileKey)
		return nil
	default:
		s.logger.Warn("skipping finished import job", zap.String("job_id", id), zap.String("status", string(job.Status)))
		return nil
	}
	defer func() {
		if err := s.files.Delete(context.WithoutCancel(ctx), job.FileKey); err != nil {
			s.logger.Warn("failed to remove job file", zap.String("job_id", id), zap.Error(err))
		}
	}()

	s.setStatus(ctx, job, models.JobStatusProcessing, "")

	f, err := s.files.Open(ctx, job.FileKey)
	if err != nil {
		s.setStatus(ctx, job, models.JobStatusFailed, err.Error())
		return fmt.Errorf("open job file: %w", err)
	}
	defer f.Close()

	opts := job.Options
	result, err := s.ImportFile(ctx, f, job.FileName, ImportRequest{
		Module:  job.Module,
		ActorID: job.ActorID,
		Options: &opts,
		JobID:   job.ID,
		OnChunk: func(p models.ChunkProgress) {
			job.Progress = &p
			if err := s.saveJob(ctx, job); err != nil {
				s.logger.Warn("failed to save job progress", zap.String("job_id", id), zap.Error(err))
			}
		},
	})
	if err != nil {
		s.setStatus(ctx, job, models.JobStatusFailed, apperrors.As(err).Message)
		return err
	}

	job.Result = result
	s.setStatus(ctx, job, models.JobStatusDone, "")
	return nil
}

func (s *ImportService) setStatus(ctx context.Context, job *models.ImportJob, status models.JobStatus, msg string) {
	job.Status = status
	job.Error = msg
	if err := s.saveJob(ctx, job); err != nil {
		s.logger.Error("failed to save job status", zap.String("job_id", job.ID), zap.String("status", string(status)), zap.Error(err))
	}
}

func (s *ImportService) saveJob(ctx context.Context, job *models.ImportJob) error {
	job.UpdatedAt = s.now().UTC()
	return s.jobs.Save(context.WithoutCancel(ctx), job)
}

// JobErrors returns the error rows of a finished job.
func (s *ImportService) JobErrors(ctx context.Context, id string) (*models.ImportResult, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Result == nil {
		return nil, apperrors.Withf(apperrors.ErrBadRequest, "job %s has no result yet", id)
	}
	return job.Result, nil
}
