package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"filevault/internal/model"
	"filevault/internal/queue"
	"filevault/internal/repository"
	"filevault/internal/storage"
)

// PageSize is the number of files returned per listing page.
const PageSize = 20

// MaxPage is the largest page index whose offset fits in an int.
const MaxPage = math.MaxInt / PageSize

var tracer = otel.Tracer("filevault/internal/service")

// Content is an open file body ready to be streamed to the client.
// The caller must close Body.
type Content struct {
	File *model.File
	Body io.ReadCloser
	Size int64
}

// FileService defines the use cases for handling files.
type FileService interface {
	// Upload validates the input, writes the blob (for non-folders), stores the record
	// and queues a thumbnail job for images. If the record cannot be stored the blob is removed.
	Upload(ctx context.Context, userID string, in UploadInput) (*model.File, error)

	// Get returns a file visible to userID.
	Get(ctx context.Context, userID, id string) (*model.File, error)

	// List returns one page of the files under parentID that userID may see.
	List(ctx context.Context, userID, parentID string, page int) ([]model.File, error)

	// Publish and Unpublish set isPublic on a file owned by userID.
	Publish(ctx context.Context, userID, id string) (*model.File, error)
	Unpublish(ctx context.Context, userID, id string) (*model.File, error)

	// Content opens the body of a file or of one of its thumbnails. userID may be empty.
	// A missing thumbnail falls back to the original unless strict is set.
	Content(ctx context.Context, userID, id string, v model.Variant, strict bool) (*Content, error)
}

// fileService is a concrete implementation of FileService.
type fileService struct {
	store     storage.Storage
	repo      repository.FileRepository
	publisher queue.Publisher
	log       *slog.Logger
}

// NewFileService constructs a new FileService.
func NewFileService(store storage.Storage, repo repository.FileRepository, publisher queue.Publisher, log *slog.Logger) FileService {
	return &fileService{store: store, repo: repo, publisher: publisher, log: log}
}

func (s *fileService) Upload(ctx context.Context, userID string, in UploadInput) (*model.File, error) {
	ctx, span := tracer.Start(ctx, "FileService.Upload", trace.WithAttributes(
		attribute.String("file.type", string(in.Type)),
	))
	defer span.End()

	if userID == "" {
		return nil, ErrUnauthorized
	}
	params, err := validateUpload(ctx, s.repo, userID, in)
	if err != nil {
		return nil, err
	}

	f := &model.File{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      params.name,
		Type:      params.fileType,
		IsPublic:  params.isPublic,
		ParentID:  params.parentID,
		CreatedAt: time.Now().UTC(),
	}

	if f.IsFolder() {
		stored, err := s.repo.Create(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("db save failed: %w", err)
		}
		return stored, nil
	}

	key := uuid.New().String()
	if _, err := s.store.Put(ctx, key, bytes.NewReader(params.content), storage.PutObjectOptions{
		Size:        int64(len(params.content)),
		ContentType: storage.ContentTypeFor(params.name),
	}); err != nil {
		return nil, fmt.Errorf("write blob: %w", err)
	}
	f.LocalPath = key

	stored, err := s.repo.Create(ctx, f)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if stored.Type == model.FileTypeImage {
		job := model.ThumbnailJob{FileID: stored.ID, UserID: stored.UserID}
		if err := s.publisher.Publish(ctx, job); err != nil {
			s.log.WarnContext(ctx, "thumbnail job not queued", "file_id", stored.ID, "user_id", stored.UserID, "error", err)
		}
	}
	return stored, nil
}

func (s *fileService) Get(ctx context.Context, userID, id string) (*model.File, error) {
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanRead(f, userID) {
		return nil, ErrNotFound
	}
	return f, nil
}

func (s *fileService) List(ctx context.Context, userID, parentID string, page int) ([]model.File, error) {
	parentID = normalizeParentID(parentID)
	if parentID != model.RootParentID {
		if _, err := uuid.Parse(parentID); err != nil {
			return nil, ErrInvalidParentID
		}
	}
	if page < 0 {
		page = 0
	}
	if page > MaxPage {
		return []model.File{}, nil
	}
	items, err := s.repo.ListByParent(ctx, repository.ListQuery{
		ParentID: parentID,
		ViewerID: userID,
		Limit:    PageSize,
		Offset:   page * PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return items, nil
}

func (s *fileService) Publish(ctx context.Context, userID, id string) (*model.File, error) {
	return s.setPublic(ctx, userID, id, true)
}

func (s *fileService) Unpublish(ctx context.Context, userID, id string) (*model.File, error) {
	return s.setPublic(ctx, userID, id, false)
}

func (s *fileService) setPublic(ctx context.Context, userID, id string, public bool) (*model.File, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	f, err := s.repo.SetPublic(ctx, id, userID, public)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("set public: %w", err)
	}
	return f, nil
}

func (s *fileService) Content(ctx context.Context, userID, id string, v model.Variant, strict bool) (*Content, error) {
	ctx, span := tracer.Start(ctx, "FileService.Content", trace.WithAttributes(
		attribute.Int("file.variant", int(v)),
	))
	defer span.End()

	f, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if f.IsFolder() {
		return nil, ErrFolderContent
	}

	body, info, err := s.store.Get(ctx, v.Key(f.LocalPath))
	if errors.Is(err, storage.ErrObjectNotFound) && v != model.VariantOriginal && !strict {
		// Thumbnail not rendered yet.
		body, info, err = s.store.Get(ctx, f.LocalPath)
	}
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return &Content{File: f, Body: body, Size: info.Size}, nil
}

func (s *fileService) find(ctx context.Context, id string) (*model.File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find file: %w", err)
	}
	return f, nil
}
