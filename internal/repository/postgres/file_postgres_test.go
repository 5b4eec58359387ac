package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"filevault/internal/model"
	"filevault/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fileRowColumns = []string{"id", "user_id", "name", "type", "is_public", "parent_id", "local_path", "created_at"}

func TestFilePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("file with blob", func(t *testing.T) {
		f := &model.File{
			ID:        "file-id",
			UserID:    "user-id",
			Name:      "a.txt",
			Type:      model.FileTypeFile,
			ParentID:  model.RootParentID,
			LocalPath: "blob-key",
			CreatedAt: now,
		}
		rows := sqlmock.NewRows(fileRowColumns).
			AddRow(f.ID, f.UserID, f.Name, "file", false, "0", "blob-key", now)

		mock.ExpectQuery("INSERT INTO files").
			WithArgs(f.ID, f.UserID, f.Name, model.FileTypeFile, false, "0", "blob-key", now).
			WillReturnRows(rows)

		got, err := repo.Create(ctx, f)

		require.NoError(t, err)
		assert.Equal(t, "file-id", got.ID)
		assert.Equal(t, model.FileTypeFile, got.Type)
		assert.Equal(t, "blob-key", got.LocalPath)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("folder stores null local_path", func(t *testing.T) {
		f := &model.File{
			ID:        "folder-id",
			UserID:    "user-id",
			Name:      "docs",
			Type:      model.FileTypeFolder,
			ParentID:  model.RootParentID,
			CreatedAt: now,
		}
		rows := sqlmock.NewRows(fileRowColumns).
			AddRow(f.ID, f.UserID, f.Name, "folder", false, "0", nil, now)

		mock.ExpectQuery("INSERT INTO files").
			WithArgs(f.ID, f.UserID, f.Name, model.FileTypeFolder, false, "0", nil, now).
			WillReturnRows(rows)

		got, err := repo.Create(ctx, f)

		require.NoError(t, err)
		assert.Empty(t, got.LocalPath)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFilePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(fileRowColumns).
			AddRow("test-id", "user-id", "pic.png", "image", true, "0", "blob", time.Now())

		mock.ExpectQuery("SELECT (.+) FROM files WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(rows)

		f, err := repo.FindByID(ctx, "test-id")

		require.NoError(t, err)
		assert.Equal(t, "test-id", f.ID)
		assert.True(t, f.IsPublic)
		assert.Equal(t, model.FileTypeImage, f.Type)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM files WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		f, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, f)
	})

	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM files WHERE id = ?").
			WithArgs("broken").
			WillReturnError(errors.New("conn reset"))

		_, err := repo.FindByID(ctx, "broken")

		assert.EqualError(t, err, "conn reset")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_ListByParent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("page", func(t *testing.T) {
		rows := sqlmock.NewRows(fileRowColumns).
			AddRow("id1", "user-id", "a", "file", false, "parent", "b1", time.Now()).
			AddRow("id2", "other", "b", "folder", true, "parent", nil, time.Now())

		mock.ExpectQuery("SELECT (.+) FROM files WHERE parent_id = (.+) LIMIT (.+) OFFSET").
			WithArgs("parent", "user-id", 20, 40).
			WillReturnRows(rows)

		items, err := repo.ListByParent(ctx, repository.ListQuery{ParentID: "parent", ViewerID: "user-id", Limit: 20, Offset: 40})

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "id1", items[0].ID)
		assert.Empty(t, items[1].LocalPath)
	})

	t.Run("empty page is not an error", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM files").
			WithArgs("0", "user-id", 20, 0).
			WillReturnRows(sqlmock.NewRows(fileRowColumns))

		items, err := repo.ListByParent(ctx, repository.ListQuery{ParentID: "0", ViewerID: "user-id", Limit: 20})

		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM files").
			WillReturnError(errors.New("query error"))

		_, err := repo.ListByParent(ctx, repository.ListQuery{ParentID: "0", ViewerID: "u", Limit: 20})

		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_ListByParent_WalksPages(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()
	const parent, total, limit = "folder-id", 25, 20

	base := time.Now().UTC()
	pageRows := func(offset int) *sqlmock.Rows {
		rows := sqlmock.NewRows(fileRowColumns)
		for i := offset; i < total && i < offset+limit; i++ {
			rows.AddRow(fmt.Sprintf("id-%02d", i), "user-id", fmt.Sprintf("f%02d", i), "file", false, parent,
				fmt.Sprintf("blob-%02d", i), base.Add(time.Duration(i)*time.Second))
		}
		return rows
	}

	var seen []string
	for page, want := range []int{20, 5, 0} {
		offset := page * limit
		mock.ExpectQuery("SELECT (.+) FROM files WHERE parent_id = (.+) ORDER BY created_at, id LIMIT (.+) OFFSET").
			WithArgs(parent, "user-id", limit, offset).
			WillReturnRows(pageRows(offset))

		items, err := repo.ListByParent(ctx, repository.ListQuery{ParentID: parent, ViewerID: "user-id", Limit: limit, Offset: offset})

		require.NoError(t, err)
		assert.Len(t, items, want, "page %d", page)
		for _, f := range items {
			assert.Equal(t, parent, f.ParentID)
			seen = append(seen, f.ID)
		}
	}

	assert.Len(t, seen, total)
	assert.Equal(t, "id-00", seen[0])
	assert.Equal(t, "id-24", seen[total-1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_SetPublic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("owner", func(t *testing.T) {
		rows := sqlmock.NewRows(fileRowColumns).
			AddRow("id", "owner", "a.txt", "file", true, "0", "blob", time.Now())

		mock.ExpectQuery("UPDATE files SET is_public").
			WithArgs("id", "owner", true).
			WillReturnRows(rows)

		f, err := repo.SetPublic(ctx, "id", "owner", true)

		require.NoError(t, err)
		assert.True(t, f.IsPublic)
	})

	t.Run("not owner", func(t *testing.T) {
		mock.ExpectQuery("UPDATE files SET is_public").
			WithArgs("id", "intruder", false).
			WillReturnError(sql.ErrNoRows)

		f, err := repo.SetPublic(ctx, "id", "intruder", false)

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, f)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
