package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"filevault/docs"
	"filevault/internal/config"
	"filevault/internal/database"
	"filevault/internal/database/migration"
	handlers "filevault/internal/http/handler"
	"filevault/internal/http/middleware"
	"filevault/internal/logger"
	"filevault/internal/otel"
	"filevault/internal/queue"
	"filevault/internal/repository/postgres"
	"filevault/internal/service"
	"filevault/internal/storage"
)

// maxBodySize bounds upload requests; file content travels base64 encoded in the JSON body.
const maxBodySize = 64 << 20

// @title File Vault API
// @version 1.0
// @BasePath /
func main() {
	cfg := config.Load()
	log := logger.Init(cfg.IsDev(), cfg.SentryDSN)

	err := run(cfg, log)
	if err != nil {
		log.Error("server stopped", "error", err)
	}
	logger.Flush(2 * time.Second)
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log); err != nil {
		return err
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	publisher, err := newPublisher(cfg.NATS, reg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("thumbnail queue close", "error", err)
		}
	}()

	fileSvc := service.NewFileService(store, postgres.NewFilePostgres(db), publisher, log)
	resolver := service.NewSessionResolver(postgres.NewSessionPostgres(db))

	app, err := newApp(cfg, db, fileSvc, resolver, reg, log)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "storage_driver", cfg.Storage.Driver)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(sctx)
}

func newPublisher(cfg config.NATSConfig, reg prometheus.Registerer, log *slog.Logger) (queue.Publisher, error) {
	var p queue.Publisher = queue.NewNoop(log)
	if cfg.URL != "" {
		np, err := queue.NewNATS(cfg, log)
		if err != nil {
			return nil, err
		}
		p = np
	} else {
		log.Warn("NATS_URL not set, thumbnail jobs will be dropped")
	}
	return queue.WithMetrics(p, reg)
}

func newApp(cfg *config.AppConfig, db *sql.DB, fileSvc service.FileService, resolver middleware.TokenResolver, reg *prometheus.Registry, log *slog.Logger) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    maxBodySize,
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(otelfiber.Middleware())

	if cfg.MetricsEnabled {
		prom, err := middleware.NewPrometheusMiddleware(reg)
		if err != nil {
			return nil, err
		}
		app.Use(prom.Handler())
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	handlers.RegisterRoutes(app, db, fileSvc, resolver, log)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	return app, nil
}

