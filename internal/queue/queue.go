package queue

import (
	"context"
	"log/slog"

	"filevault/internal/model"
)

// Publisher hands thumbnail jobs to the worker pool.
// Publish must return without waiting for the job to be processed.
type Publisher interface {
	Publish(ctx context.Context, job model.ThumbnailJob) error
	Close() error
}

// noopPublisher drops jobs. It is used when no queue is configured.
type noopPublisher struct {
	log *slog.Logger
}

// NewNoop returns a Publisher that only logs the jobs it receives.
func NewNoop(log *slog.Logger) Publisher {
	return &noopPublisher{log: log}
}

func (n *noopPublisher) Publish(ctx context.Context, job model.ThumbnailJob) error {
	n.log.DebugContext(ctx, "thumbnail queue disabled, dropping job", "file_id", job.FileID)
	return nil
}

func (n *noopPublisher) Close() error { return nil }
