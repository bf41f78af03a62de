package services

import (
	"context"
	"io"

	"github.com/admin5fedu/duraval-app-sub010/models"
)

// FileStore keeps uploaded files between submission and processing of an async job.
type FileStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// JobStore persists async job state. Get returns ErrJobNotFound for unknown ids.
type JobStore interface {
	Save(ctx context.Context, job *models.ImportJob) error
	Get(ctx context.Context, id string) (*models.ImportJob, error)
	Delete(ctx context.Context, id string) error
}

// JobQueue hands job ids to workers. Dequeue blocks for a bounded wait and
// returns an empty id when nothing arrived; ack confirms the job was handled.
type JobQueue interface {
	Enqueue(ctx context.Context, jobID string) error
	Dequeue(ctx context.Context) (jobID string, ack func(context.Context) error, err error)
}

// EventPublisher delivers import completion events.
type EventPublisher interface {
	Publish(ctx context.Context, evt models.ImportCompletedEvent) error
}

// ImportRequest describes one import run.
type ImportRequest struct {
	Module  string
	ActorID string
	// Options overrides the module defaults when non-nil.
	Options *models.ImportOptions
	JobID   string
	OnChunk func(models.ChunkProgress)
}
