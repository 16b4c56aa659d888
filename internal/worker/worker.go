package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fathima-sithara/files-service/internal/metrics"
	"github.com/fathima-sithara/files-service/internal/queue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type JobProcessor interface {
	ProcessFileJob(ctx context.Context, job queue.FileJob) error
	ProcessUserJob(ctx context.Context, job queue.UserJob) error
}

// JobSource delivers job payloads to a handler until its context ends.
type JobSource interface {
	Run(ctx context.Context, handle queue.Handler) error
}

// Worker drains the thumbnail and welcome topics until its context ends.
type Worker struct {
	fileJobs JobSource
	userJobs JobSource
	proc     JobProcessor
	logger   *zap.Logger
}

func New(fileJobs, userJobs JobSource, proc JobProcessor, logger *zap.Logger) *Worker {
	return &Worker{fileJobs: fileJobs, userJobs: userJobs, proc: proc, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.fileJobs.Run(ctx, w.HandleFileJob) })
	g.Go(func() error { return w.userJobs.Run(ctx, w.HandleUserJob) })
	return g.Wait()
}

func (w *Worker) HandleFileJob(ctx context.Context, payload []byte) error {
	var job queue.FileJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return w.done("file", queue.Permanent(fmt.Errorf("decode file job: %w", err)))
	}
	return w.done("file", w.proc.ProcessFileJob(ctx, job))
}

func (w *Worker) HandleUserJob(ctx context.Context, payload []byte) error {
	var job queue.UserJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return w.done("user", queue.Permanent(fmt.Errorf("decode user job: %w", err)))
	}
	return w.done("user", w.proc.ProcessUserJob(ctx, job))
}

func (w *Worker) done(kind string, err error) error {
	result := "ok"
	if err != nil {
		result = "failed"
		w.logger.Warn("job failed", zap.String("kind", kind), zap.Error(err))
	}
	metrics.JobsProcessed.WithLabelValues(kind, result).Inc()
	return err
}
