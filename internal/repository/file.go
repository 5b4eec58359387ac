package repository

import (
	"context"
	"errors"

	"filevault/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// FileRepository defines data access for file records using SQL queries only.
// ListByParent applies the owner-or-public filter itself; single-record reads are checked by the service.
type FileRepository interface {
	// Create inserts a new file record and returns the stored row.
	Create(ctx context.Context, f *model.File) (*model.File, error)

	// FindByID returns a file by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.File, error)

	// ListByParent returns one page of files whose parent_id equals q.ParentID exactly
	// and that are owned by q.ViewerID or public, in insertion order.
	ListByParent(ctx context.Context, q ListQuery) ([]model.File, error)

	// SetPublic flips is_public on a file owned by ownerID and returns the updated row.
	// It returns ErrNotFound when no file with that id belongs to ownerID.
	SetPublic(ctx context.Context, id, ownerID string, public bool) (*model.File, error)
}

// SessionRepository resolves session tokens written by the account service.
type SessionRepository interface {
	// UserIDByToken returns the user behind an unexpired token, or ErrNotFound.
	UserIDByToken(ctx context.Context, token string) (string, error)
}

// ListQuery holds the parent scope, the requester and limit/offset pagination parameters.
type ListQuery struct {
	ParentID string
	ViewerID string
	Limit    int
	Offset   int
}
