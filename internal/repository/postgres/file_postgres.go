package postgres

import (
	"context"
	"database/sql"
	"errors"

	"filevault/internal/model"
	"filevault/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

const fileColumns = `id, user_id, name, type, is_public, parent_id, local_path, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*model.File, error) {
	var (
		f         model.File
		localPath sql.NullString
	)
	if err := row.Scan(
		&f.ID,
		&f.UserID,
		&f.Name,
		&f.Type,
		&f.IsPublic,
		&f.ParentID,
		&localPath,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	f.LocalPath = localPath.String
	return &f, nil
}

// Create inserts a new file row and returns the stored record.
// Folders are stored with a NULL local_path.
func (r *FilePostgres) Create(ctx context.Context, f *model.File) (*model.File, error) {
	const q = `
		INSERT INTO files (id, user_id, name, type, is_public, parent_id, local_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + fileColumns
	localPath := sql.NullString{String: f.LocalPath, Valid: f.LocalPath != ""}
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.UserID,
		f.Name,
		f.Type,
		f.IsPublic,
		f.ParentID,
		localPath,
		f.CreatedAt,
	)
	return scanFile(row)
}

// FindByID fetches a single file by its ID.
func (r *FilePostgres) FindByID(ctx context.Context, id string) (*model.File, error) {
	const q = `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	f, err := scanFile(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// ListByParent returns one page of the files under a parent that the viewer may see.
func (r *FilePostgres) ListByParent(ctx context.Context, lq repository.ListQuery) ([]model.File, error) {
	const q = `SELECT ` + fileColumns + `
		FROM files
		WHERE parent_id = $1 AND (user_id = $2 OR is_public)
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, q, lq.ParentID, lq.ViewerID, lq.Limit, lq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SetPublic updates is_public on a file owned by ownerID.
func (r *FilePostgres) SetPublic(ctx context.Context, id, ownerID string, public bool) (*model.File, error) {
	const q = `
		UPDATE files SET is_public = $3
		WHERE id = $1 AND user_id = $2
		RETURNING ` + fileColumns
	f, err := scanFile(r.db.QueryRowContext(ctx, q, id, ownerID, public))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}
