package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"flowstudio/internal/workflow/model"
	"flowstudio/pkg/logger"
	"flowstudio/pkg/metrics"
	"flowstudio/store"
)

// Fixed answers for executions that cannot reach the model. They are answers, not errors.
const (
	NoDocumentAnswer       = "No document uploaded for this workflow."
	DocumentNotFoundAnswer = "Document not found."
)

type Repository interface {
	Create(ctx context.Context, wf *store.Workflow) error
	ListByOwner(ctx context.Context, ownerID string) ([]store.Workflow, error)
	Get(ctx context.Context, ownerID, id string) (*store.Workflow, error)
}

// DocumentLookup resolves a knowledge-base file id for its owner.
type DocumentLookup interface {
	Get(ctx context.Context, ownerID, id string) (*store.Document, error)
}

// Answerer answers a query from a document's text.
type Answerer interface {
	Answer(ctx context.Context, query, documentText string) (string, error)
}

type WorkflowService struct {
	Repo      Repository
	Documents DocumentLookup
	Answerer  Answerer
}

func NewWorkflowService(repo Repository, documents DocumentLookup, answerer Answerer) *WorkflowService {
	return &WorkflowService{Repo: repo, Documents: documents, Answerer: answerer}
}

// Save stores data as given under a fresh id. Nothing is deduplicated.
func (s *WorkflowService) Save(ctx context.Context, ownerID, name, data string) (*store.Workflow, error) {
	wf := &store.Workflow{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    name,
		Data:    data,
	}
	if err := s.Repo.Create(ctx, wf); err != nil {
		return nil, err
	}
	return wf, nil
}

func (s *WorkflowService) List(ctx context.Context, ownerID string) ([]store.Workflow, error) {
	return s.Repo.ListByOwner(ctx, ownerID)
}

func (s *WorkflowService) Get(ctx context.Context, ownerID, id string) (*store.Workflow, error) {
	return s.Repo.Get(ctx, ownerID, id)
}

// Execute answers query from the document linked by the first knowledgeBase node.
// Edges and all other node types are ignored.
func (s *WorkflowService) Execute(ctx context.Context, ownerID, query string, nodes []model.Node) (string, error) {
	var fileID string
	for _, node := range nodes {
		if node.Type == model.KnowledgeBaseType {
			fileID = node.FileID()
			break
		}
	}
	if fileID == "" {
		metrics.WorkflowExecutions.WithLabelValues("no_document").Inc()
		return NoDocumentAnswer, nil
	}

	doc, err := s.Documents.Get(ctx, ownerID, fileID)
	if errors.Is(err, store.ErrNotFound) {
		metrics.WorkflowExecutions.WithLabelValues("document_not_found").Inc()
		return DocumentNotFoundAnswer, nil
	}
	if err != nil {
		metrics.WorkflowExecutions.WithLabelValues("error").Inc()
		return "", err
	}

	answer, err := s.Answerer.Answer(ctx, query, doc.Content)
	if err != nil {
		metrics.WorkflowExecutions.WithLabelValues("error").Inc()
		return "", err
	}

	logger.Sugar.Debugf("Answered query for user %s from document %s", ownerID, doc.ID)
	metrics.WorkflowExecutions.WithLabelValues("answered").Inc()
	return answer, nil
}
