package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowstudio/store"
)

func TestCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO documents (id, user_id, filename, content, created_at)")).
		WithArgs("doc-1", "alice", "report.pdf", "page one").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	repo := NewDocumentRepository(db)
	doc := &store.Document{ID: "doc-1", OwnerID: "alice", Filename: "report.pdf", Content: "page one"}
	require.NoError(t, repo.Create(context.Background(), doc))
	assert.Equal(t, created, doc.CreatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetIsOwnerScoped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	query := regexp.QuoteMeta("SELECT id, user_id, filename, content, created_at FROM documents WHERE id = $1 AND user_id = $2")
	created := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	mock.ExpectQuery(query).
		WithArgs("doc-1", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "filename", "content", "created_at"}).
			AddRow("doc-1", "alice", "report.pdf", "page one", created))
	mock.ExpectQuery(query).
		WithArgs("doc-1", "bob").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "filename", "content", "created_at"}))

	repo := NewDocumentRepository(db)

	doc, err := repo.Get(context.Background(), "alice", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "page one", doc.Content)

	_, err = repo.Get(context.Background(), "bob", "doc-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, user_id").WillReturnError(errors.New("connection reset"))

	_, err = NewDocumentRepository(db).Get(context.Background(), "alice", "doc-1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, store.ErrNotFound))
}
