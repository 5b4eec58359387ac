package handler

import (
	"database/sql"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"filevault/internal/http/middleware"
	"filevault/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Every /files route runs behind the session middleware; handlers decide
// whether an anonymous caller is acceptable.
func RegisterRoutes(app *fiber.App, db *sql.DB, fileSvc service.FileService, resolver middleware.TokenResolver, log *slog.Logger) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", Liveness())

	files := app.Group("/files", middleware.Session(resolver, log))
	files.Post("", UploadFile(fileSvc, log))
	files.Get("", ListFiles(fileSvc, log))
	files.Get("/:id", GetFile(fileSvc, log))
	files.Put("/:id/publish", PublishFile(fileSvc, log))
	files.Put("/:id/unpublish", UnpublishFile(fileSvc, log))
	files.Get("/:id/data", GetFileData(fileSvc, log))
}
