package service

import (
	"context"

	"github.com/google/uuid"

	"flowstudio/store"
)

type Repository interface {
	Create(ctx context.Context, log *store.ChatLog) error
	ListByWorkflow(ctx context.Context, ownerID, workflowID string) ([]store.ChatLog, error)
}

type ChatService struct {
	Repo Repository
}

func NewChatService(repo Repository) *ChatService {
	return &ChatService{Repo: repo}
}

// Save appends one exchange to the workflow's transcript.
func (s *ChatService) Save(ctx context.Context, ownerID, workflowID, query, answer string) (*store.ChatLog, error) {
	log := &store.ChatLog{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		WorkflowID: workflowID,
		Query:      query,
		Answer:     answer,
	}
	if err := s.Repo.Create(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *ChatService) History(ctx context.Context, ownerID, workflowID string) ([]store.ChatLog, error) {
	return s.Repo.ListByWorkflow(ctx, ownerID, workflowID)
}
