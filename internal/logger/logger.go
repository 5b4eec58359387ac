package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// New builds the service logger.
// Development: text output at Debug level.
// Production: JSON output at Info level.
// When sentryDSN is set, records at Error level are also sent to Sentry.
func New(w io.Writer, isDev bool, sentryDSN string) *slog.Logger {
	var handlers []slog.Handler

	if isDev {
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	if sentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: sentryDSN}); err != nil {
			// Keep running on the local handler only; the DSN is not logged.
			slog.New(handlers[0]).Error("sentry init failed, errors will not be reported", "error", err)
		} else {
			handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
		}
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0])
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

// Init builds the logger on stdout and installs it as the slog default.
func Init(isDev bool, sentryDSN string) *slog.Logger {
	l := New(os.Stdout, isDev, sentryDSN)
	slog.SetDefault(l)
	return l
}

// Flush waits up to timeout for buffered Sentry events to be sent.
// Without a Sentry client it returns false immediately.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// Discard returns a logger that drops every record. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
