package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"filevault/internal/config"
	"filevault/internal/model"
)

// NATSPublisher publishes thumbnail jobs to a JetStream work-queue stream.
type NATSPublisher struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
	log     *slog.Logger
}

// NewNATS connects to NATS, creates the job stream if it does not exist
// and returns a publisher bound to cfg.Subject.
func NewNATS(cfg config.NATSConfig, log *slog.Logger) (*NATSPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url is required")
	}
	if cfg.Subject == "" || cfg.Stream == "" {
		return nil, errors.New("nats stream and subject are required")
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("filevault"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := nc.JetStream(
		nats.PublishAsyncMaxPending(256),
		nats.PublishAsyncErrHandler(func(_ nats.JetStream, msg *nats.Msg, err error) {
			log.Error("thumbnail job not acknowledged", "subject", msg.Subject, "error", err)
		}),
	)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	if err := ensureStream(js, cfg.Stream, cfg.Subject); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", cfg.Stream, err)
	}

	log.Info("nats connected", "url", nc.ConnectedUrl(), "stream", cfg.Stream, "subject", cfg.Subject)
	return &NATSPublisher{nc: nc, js: js, subject: cfg.Subject, log: log}, nil
}

func ensureStream(js nats.JetStreamContext, name, subject string) error {
	if _, err := js.StreamInfo(name); err == nil {
		return nil
	} else if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      name,
		Subjects:  []string{subject},
		Storage:   nats.FileStorage,
		Retention: nats.WorkQueuePolicy,
		MaxAge:    7 * 24 * time.Hour,
	})
	return err
}

// Publish queues the job without waiting for the server acknowledgement.
// Late failures are reported through the async error handler.
func (p *NATSPublisher) Publish(ctx context.Context, job model.ThumbnailJob) error {
	data, err := encodeJob(job)
	if err != nil {
		return err
	}
	// The file id doubles as the dedup id so a retried upload handler cannot enqueue twice.
	if _, err := p.js.PublishAsync(p.subject, data, nats.MsgId(job.FileID)); err != nil {
		return fmt.Errorf("publish thumbnail job: %w", err)
	}
	return nil
}

// Close waits briefly for outstanding acknowledgements and drains the connection.
func (p *NATSPublisher) Close() error {
	select {
	case <-p.js.PublishAsyncComplete():
	case <-time.After(5 * time.Second):
		p.log.Warn("closing nats with unacknowledged thumbnail jobs", "pending", p.js.PublishAsyncPending())
	}
	return p.nc.Drain()
}

func encodeJob(job model.ThumbnailJob) ([]byte, error) {
	if job.FileID == "" || job.UserID == "" {
		return nil, errors.New("thumbnail job requires file and user ids")
	}
	return json.Marshal(job)
}
