package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"filevault/internal/http/middleware"
	"filevault/internal/logger"
	"filevault/internal/model"
	"filevault/internal/service"
	serviceMocks "filevault/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	ownerToken = "owner-token"
	ownerID    = "user-1"
)

type tokenTable map[string]string

func (t tokenTable) Resolve(_ context.Context, token string) (string, bool, error) {
	id, ok := t[token]
	return id, ok, nil
}

func newTestApp(t *testing.T, svc service.FileService) *fiber.App {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	RegisterRoutes(app, db, svc, tokenTable{ownerToken: ownerID}, logger.Discard())
	return app
}

func do(t *testing.T, app *fiber.App, method, target, token, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.RequestID)
	return body.Error.Code
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLiveness(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", Liveness())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadFile(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)

		resp := do(t, app, http.MethodPost, "/files", "", `{"name":"a.txt","type":"file","data":"aGVsbG8="}`)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, resp))
		mockSvc.AssertNotCalled(t, "Upload")
	})

	t.Run("unknown token", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)

		resp := do(t, app, http.MethodPost, "/files", "stale", `{"name":"a.txt"}`)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)

		in := service.UploadInput{Name: "a.txt", Type: model.FileTypeFile, Data: "aGVsbG8=", ParentID: "0"}
		created := &model.File{ID: uuid.New().String(), UserID: ownerID, Name: "a.txt", Type: model.FileTypeFile, ParentID: "0"}
		mockSvc.On("Upload", mock.Anything, ownerID, in).Return(created, nil).Once()

		resp := do(t, app, http.MethodPost, "/files", ownerToken, `{"name":"a.txt","type":"file","data":"aGVsbG8=","parentId":0}`)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var got map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, created.ID, got["id"])
		assert.Equal(t, ownerID, got["userId"])
		assert.Equal(t, false, got["isPublic"])
		assert.NotContains(t, got, "localPath")
		mockSvc.AssertExpectations(t)
	})

	t.Run("validation errors", func(t *testing.T) {
		cases := []struct {
			err  error
			code string
		}{
			{service.ErrMissingName, "MISSING_NAME"},
			{service.ErrInvalidType, "MISSING_TYPE"},
			{service.ErrMissingData, "MISSING_DATA"},
			{service.ErrParentNotFound, "PARENT_NOT_FOUND"},
		}
		for _, tc := range cases {
			t.Run(tc.code, func(t *testing.T) {
				mockSvc := new(serviceMocks.MockFileService)
				app := newTestApp(t, mockSvc)
				mockSvc.On("Upload", mock.Anything, ownerID, mock.Anything).Return(nil, tc.err).Once()

				resp := do(t, app, http.MethodPost, "/files", ownerToken, `{"type":"file"}`)

				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.Equal(t, tc.code, errorCode(t, resp))
			})
		}
	})

	t.Run("empty body", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)

		resp := do(t, app, http.MethodPost, "/files", ownerToken, "")

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "MISSING_NAME", errorCode(t, resp))
	})

	t.Run("malformed body", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)

		resp := do(t, app, http.MethodPost, "/files", ownerToken, `{"name":`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", errorCode(t, resp))
	})

	t.Run("service failure is hidden", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		mockSvc.On("Upload", mock.Anything, ownerID, mock.Anything).
			Return(nil, errors.New("db save failed: connection reset")).Once()

		resp := do(t, app, http.MethodPost, "/files", ownerToken, `{"name":"a","type":"folder"}`)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		raw, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(raw), "INTERNAL_ERROR")
		assert.NotContains(t, string(raw), "connection reset")
	})
}

func TestGetFile(t *testing.T) {
	id := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		mockSvc.On("Get", mock.Anything, ownerID, id).Return(&model.File{ID: id, Name: "a.txt"}, nil).Once()

		resp := do(t, app, http.MethodGet, "/files/"+id, ownerToken, "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var got model.File
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, id, got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		mockSvc.On("Get", mock.Anything, ownerID, "not-a-uuid").Return(nil, service.ErrNotFound).Once()

		resp := do(t, app, http.MethodGet, "/files/not-a-uuid", ownerToken, "")

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", errorCode(t, resp))
	})

	t.Run("anonymous", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)

		resp := do(t, app, http.MethodGet, "/files/"+id, "", "")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		mockSvc.AssertNotCalled(t, "Get")
	})
}

func TestListFiles(t *testing.T) {
	t.Run("defaults to the root and page 0", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		mockSvc.On("List", mock.Anything, ownerID, model.RootParentID, 0).Return([]model.File{}, nil).Once()

		resp := do(t, app, http.MethodGet, "/files?page=abc", ownerToken, "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		raw, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `[]`, string(raw))
		mockSvc.AssertExpectations(t)
	})

	t.Run("page and parent", func(t *testing.T) {
		parent := uuid.New().String()
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		items := []model.File{{ID: uuid.New().String(), ParentID: parent}}
		mockSvc.On("List", mock.Anything, ownerID, parent, 2).Return(items, nil).Once()

		resp := do(t, app, http.MethodGet, "/files?parentId="+parent+"&page=2", ownerToken, "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var got []model.File
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Len(t, got, 1)
	})

	t.Run("nil page renders as empty array", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		mockSvc.On("List", mock.Anything, ownerID, model.RootParentID, 0).Return(nil, nil).Once()

		resp := do(t, app, http.MethodGet, "/files", ownerToken, "")

		raw, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `[]`, string(raw))
	})

	t.Run("invalid parent", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		mockSvc.On("List", mock.Anything, ownerID, "xyz", 0).Return(nil, service.ErrInvalidParentID).Once()

		resp := do(t, app, http.MethodGet, "/files?parentId=xyz", ownerToken, "")

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_PARENT_ID", errorCode(t, resp))
	})
}

func TestPublishFile(t *testing.T) {
	id := uuid.New().String()

	t.Run("publish", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		mockSvc.On("Publish", mock.Anything, ownerID, id).Return(&model.File{ID: id, IsPublic: true}, nil).Once()

		resp := do(t, app, http.MethodPut, "/files/"+id+"/publish", ownerToken, "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var got model.File
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.True(t, got.IsPublic)
	})

	t.Run("unpublish", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		mockSvc.On("Unpublish", mock.Anything, ownerID, id).Return(&model.File{ID: id}, nil).Once()

		resp := do(t, app, http.MethodPut, "/files/"+id+"/unpublish", ownerToken, "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not the owner", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		mockSvc.On("Publish", mock.Anything, ownerID, id).Return(nil, service.ErrNotFound).Once()

		resp := do(t, app, http.MethodPut, "/files/"+id+"/publish", ownerToken, "")

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("anonymous", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)

		resp := do(t, app, http.MethodPut, "/files/"+id+"/unpublish", "", "")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestGetFileData(t *testing.T) {
	id := uuid.New().String()

	t.Run("streams the original", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		mockSvc.On("Content", mock.Anything, ownerID, id, model.VariantOriginal, false).Return(&service.Content{
			File: &model.File{ID: id, Name: "notes.txt", Type: model.FileTypeFile},
			Body: io.NopCloser(strings.NewReader("hello")),
			Size: 5,
		}, nil).Once()

		resp := do(t, app, http.MethodGet, "/files/"+id+"/data", ownerToken, "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/plain")
		raw, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "hello", string(raw))
	})

	t.Run("public file without session", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		mockSvc.On("Content", mock.Anything, "", id, model.Variant250, true).Return(&service.Content{
			File: &model.File{ID: id, Name: "photo.png", Type: model.FileTypeImage, IsPublic: true},
			Body: io.NopCloser(strings.NewReader("png")),
			Size: 3,
		}, nil).Once()

		resp := do(t, app, http.MethodGet, "/files/"+id+"/data?size=250&strict=true", "", "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
	})

	t.Run("unknown extension", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		mockSvc.On("Content", mock.Anything, ownerID, id, model.VariantOriginal, false).Return(&service.Content{
			File: &model.File{ID: id, Name: "blob", Type: model.FileTypeFile},
			Body: io.NopCloser(strings.NewReader("x")),
			Size: 1,
		}, nil).Once()

		resp := do(t, app, http.MethodGet, "/files/"+id+"/data", ownerToken, "")

		assert.Equal(t, fiber.MIMEOctetStream, resp.Header.Get(fiber.HeaderContentType))
	})

	t.Run("invalid size", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)

		resp := do(t, app, http.MethodGet, "/files/"+id+"/data?size=42", ownerToken, "")

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_SIZE", errorCode(t, resp))
		mockSvc.AssertNotCalled(t, "Content")
	})

	t.Run("folder", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		mockSvc.On("Content", mock.Anything, ownerID, id, model.VariantOriginal, false).Return(nil, service.ErrFolderContent).Once()

		resp := do(t, app, http.MethodGet, "/files/"+id+"/data", ownerToken, "")

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FOLDER_HAS_NO_CONTENT", errorCode(t, resp))
	})

	t.Run("private file", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFileService)
		app := newTestApp(t, mockSvc)
		mockSvc.On("Content", mock.Anything, "", id, model.VariantOriginal, false).Return(nil, service.ErrNotFound).Once()

		resp := do(t, app, http.MethodGet, "/files/"+id+"/data", "", "")

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRouting(t *testing.T) {
	app := newTestApp(t, new(serviceMocks.MockFileService))

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})
}
