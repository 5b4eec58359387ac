package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"filevault/internal/http/middleware"
	"filevault/internal/model"
	"filevault/internal/service"
	"filevault/internal/storage"
)

// UploadFile stores a new folder, file or image for the caller.
//
// @Summary  Upload a file
// @Tags     files
// @Accept   json
// @Produce  json
// @Param    X-Token header string              true "session token"
// @Param    body    body   service.UploadInput true "file to create; data is base64"
// @Success  201 {object} model.File
// @Failure  400 {object} errorPayload
// @Failure  401 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /files [post]
func UploadFile(svc service.FileService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		if userID == "" {
			return writeServiceError(c, log, "upload", service.ErrUnauthorized)
		}

		var in service.UploadInput
		if len(c.Body()) == 0 {
			return writeServiceError(c, log, "upload", service.ErrMissingName)
		}
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON object")
		}

		f, err := svc.Upload(c.UserContext(), userID, in)
		if err != nil {
			return writeServiceError(c, log, "upload", err, "user_id", userID)
		}
		return c.Status(fiber.StatusCreated).JSON(f)
	}
}

// GetFile returns the metadata of one file.
//
// @Summary  Show a file
// @Tags     files
// @Produce  json
// @Param    X-Token header string true "session token"
// @Param    id      path   string true "file id"
// @Success  200 {object} model.File
// @Failure  401 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /files/{id} [get]
func GetFile(svc service.FileService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		if userID == "" {
			return writeServiceError(c, log, "show", service.ErrUnauthorized)
		}
		id := c.Params("id")
		f, err := svc.Get(c.UserContext(), userID, id)
		if err != nil {
			return writeServiceError(c, log, "show", err, "file_id", id)
		}
		return c.JSON(f)
	}
}

// ListFiles returns one page of the children of parentId.
//
// @Summary  List files
// @Tags     files
// @Produce  json
// @Param    X-Token  header string true  "session token"
// @Param    parentId query  string false "parent folder id, 0 for the root"
// @Param    page     query  int    false "page index, 20 items per page"
// @Success  200 {array}  model.File
// @Failure  400 {object} errorPayload
// @Failure  401 {object} errorPayload
// @Router   /files [get]
func ListFiles(svc service.FileService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		if userID == "" {
			return writeServiceError(c, log, "index", service.ErrUnauthorized)
		}
		parentID := c.Query("parentId", model.RootParentID)
		items, err := svc.List(c.UserContext(), userID, parentID, service.ParsePage(c.Query("page")))
		if err != nil {
			return writeServiceError(c, log, "index", err, "parent_id", parentID)
		}
		if items == nil {
			items = []model.File{}
		}
		return c.JSON(items)
	}
}

// PublishFile marks a file as public.
//
// @Summary  Publish a file
// @Tags     files
// @Produce  json
// @Param    X-Token header string true "session token"
// @Param    id      path   string true "file id"
// @Success  200 {object} model.File
// @Failure  401 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /files/{id}/publish [put]
func PublishFile(svc service.FileService, log *slog.Logger) fiber.Handler {
	return setPublic(svc.Publish, log, "publish")
}

// UnpublishFile marks a file as private.
//
// @Summary  Unpublish a file
// @Tags     files
// @Produce  json
// @Param    X-Token header string true "session token"
// @Param    id      path   string true "file id"
// @Success  200 {object} model.File
// @Failure  401 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /files/{id}/unpublish [put]
func UnpublishFile(svc service.FileService, log *slog.Logger) fiber.Handler {
	return setPublic(svc.Unpublish, log, "unpublish")
}

type setPublicFunc func(ctx context.Context, userID, id string) (*model.File, error)

func setPublic(fn setPublicFunc, log *slog.Logger, op string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		if userID == "" {
			return writeServiceError(c, log, op, service.ErrUnauthorized)
		}
		id := c.Params("id")
		f, err := fn(c.UserContext(), userID, id)
		if err != nil {
			return writeServiceError(c, log, op, err, "file_id", id)
		}
		return c.JSON(f)
	}
}

// GetFileData streams the content of a file, or of one of its thumbnails.
// Public files are served without a session.
//
// @Summary  Download file content
// @Tags     files
// @Produce  octet-stream
// @Param    X-Token header string false "session token"
// @Param    id      path   string true  "file id"
// @Param    size    query  int    false "thumbnail width" Enums(500, 250, 100)
// @Param    strict  query  bool   false "404 instead of the original when the thumbnail is missing"
// @Success  200 {file}   binary
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /files/{id}/data [get]
func GetFileData(svc service.FileService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := model.ParseVariant(c.Query("size"))
		if err != nil {
			return writeServiceError(c, log, "content", service.ErrInvalidSize)
		}
		id := c.Params("id")
		content, err := svc.Content(c.UserContext(), middleware.UserID(c), id, v, c.Query("strict") == "true")
		if err != nil {
			return writeServiceError(c, log, "content", err, "file_id", id, "size", int(v))
		}

		c.Set(fiber.HeaderContentType, storage.ContentTypeFor(content.File.Name))
		// fasthttp closes the body once it has been written.
		return c.SendStream(content.Body, int(content.Size))
	}
}
