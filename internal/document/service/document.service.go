package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"flowstudio/internal/extract"
	"flowstudio/pkg/logger"
	"flowstudio/pkg/metrics"
	"flowstudio/store"
)

// Repository persists documents. Get must return store.ErrNotFound both for a missing
// id and for a document owned by someone else.
type Repository interface {
	Create(ctx context.Context, doc *store.Document) error
	Get(ctx context.Context, ownerID, id string) (*store.Document, error)
}

type DocumentService struct {
	Repo Repository
}

func NewDocumentService(repo Repository) *DocumentService {
	return &DocumentService{Repo: repo}
}

// Upload extracts the PDF text and stores it. Nothing is stored when extraction fails.
func (s *DocumentService) Upload(ctx context.Context, ownerID, filename string, data []byte) (*store.Document, error) {
	pages, err := extract.Pages(data)
	if err != nil {
		logger.Sugar.Infof("Rejected upload %q from %s: %v", filename, ownerID, err)
		return nil, err
	}
	metrics.ExtractedPages.Observe(float64(len(pages)))

	return s.Store(ctx, ownerID, filename, strings.Join(pages, ""))
}

// Store saves already extracted text under a fresh id.
func (s *DocumentService) Store(ctx context.Context, ownerID, filename, content string) (*store.Document, error) {
	doc := &store.Document{
		ID:       uuid.NewString(),
		OwnerID:  ownerID,
		Filename: filename,
		Content:  content,
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, ownerID, id string) (*store.Document, error) {
	return s.Repo.Get(ctx, ownerID, id)
}
