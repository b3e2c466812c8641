package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"flowstudio/pkg/logger"
	"flowstudio/store"
)

type DocumentRepository struct {
	DB *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

// Create inserts the document and fills in its creation time.
func (r *DocumentRepository) Create(ctx context.Context, doc *store.Document) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO documents (id, user_id, filename, content, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at`,
		doc.ID, doc.OwnerID, doc.Filename, doc.Content,
	).Scan(&doc.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create document %s: %v", doc.ID, err)
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// Get returns the document only if it belongs to ownerID.
func (r *DocumentRepository) Get(ctx context.Context, ownerID, id string) (*store.Document, error) {
	var doc store.Document
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, filename, content, created_at
		FROM documents
		WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	).Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.Content, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find document %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get document %s: %v", id, err)
		return nil, fmt.Errorf("find document %s: %w", id, err)
	}
	return &doc, nil
}
