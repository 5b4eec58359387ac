package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"filevault/internal/http/middleware"
	"filevault/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "MISSING_NAME", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

var serviceErrors = []errorMapping{
	{service.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized"},
	{service.ErrMissingName, fiber.StatusBadRequest, "MISSING_NAME", "Missing name"},
	{service.ErrInvalidType, fiber.StatusBadRequest, "MISSING_TYPE", "Missing type"},
	{service.ErrMissingData, fiber.StatusBadRequest, "MISSING_DATA", "Missing data"},
	{service.ErrInvalidData, fiber.StatusBadRequest, "INVALID_DATA", "Data is not valid base64"},
	{service.ErrParentNotFound, fiber.StatusBadRequest, "PARENT_NOT_FOUND", "Parent not found"},
	{service.ErrInvalidParentID, fiber.StatusBadRequest, "INVALID_PARENT_ID", "Invalid parentId"},
	{service.ErrInvalidSize, fiber.StatusBadRequest, "INVALID_SIZE", "Invalid size"},
	{service.ErrFolderContent, fiber.StatusBadRequest, "FOLDER_HAS_NO_CONTENT", "A folder doesn't have content"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "Not found"},
}

// writeServiceError maps a service error onto the error envelope. Errors the
// service does not name are logged with op and answered with a generic 500.
func writeServiceError(c *fiber.Ctx, log *slog.Logger, op string, err error, attrs ...any) error {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			return writeError(c, m.status, m.code, m.message)
		}
	}
	args := append([]any{"op", op, "request_id", requestIDFromCtx(c), "error", err}, attrs...)
	log.ErrorContext(c.UserContext(), "request failed", args...)
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "Unauthorized")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "BODY_TOO_LARGE", "request body too large")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}
