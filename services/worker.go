package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// JobRunner processes one queued job.
type JobRunner interface {
	RunJob(ctx context.Context, id string) error
}

// Worker consumes job ids from a queue and runs them one at a time.
type Worker struct {
	queue   JobQueue
	runner  JobRunner
	logger  *zap.Logger
	backoff time.Duration
}

func NewWorker(queue JobQueue, runner JobRunner) *Worker {
	return &Worker{queue: queue, runner: runner, logger: zap.L(), backoff: 500 * time.Millisecond}
}

// Start runs the consume loop in a goroutine until ctx is cancelled. A job
// already running when ctx is cancelled stops at its next chunk boundary.
func (w *Worker) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.logger.Info("import worker started")
		for {
			if ctx.Err() != nil {
				w.logger.Info("import worker stopping")
				return
			}
			w.poll(ctx)
		}
	}()
	return done
}

func (w *Worker) poll(ctx context.Context) {
	id, ack, err := w.queue.Dequeue(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		w.logger.Error("dequeue failed", zap.Error(err))
		select {
		case <-ctx.Done():
		case <-time.After(w.backoff):
		}
		return
	}
	if id == "" {
		return
	}

	if err := w.runner.RunJob(ctx, id); err != nil {
		w.logger.Error("import job failed", zap.String("job_id", id), zap.Error(err))
	}
	// The job record holds the outcome either way; redelivery would only repeat it.
	if err := ack(context.WithoutCancel(ctx)); err != nil {
		w.logger.Warn("failed to ack import job", zap.String("job_id", id), zap.Error(err))
	}
}
