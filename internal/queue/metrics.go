package queue

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"filevault/internal/model"
)

type instrumented struct {
	next      Publisher
	published *prometheus.CounterVec
}

// WithMetrics counts publish attempts by result ("ok" or "error").
func WithMetrics(next Publisher, reg prometheus.Registerer) (Publisher, error) {
	published := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbnail_jobs_published_total",
			Help: "Thumbnail jobs handed to the queue, by result.",
		},
		[]string{"result"},
	)
	if err := reg.Register(published); err != nil {
		return nil, err
	}
	return &instrumented{next: next, published: published}, nil
}

func (i *instrumented) Publish(ctx context.Context, job model.ThumbnailJob) error {
	err := i.next.Publish(ctx, job)
	result := "ok"
	if err != nil {
		result = "error"
	}
	i.published.WithLabelValues(result).Inc()
	return err
}

func (i *instrumented) Close() error {
	return i.next.Close()
}
