package repository

import (
	"context"
	"database/sql"
	"fmt"

	"flowstudio/pkg/logger"
	"flowstudio/store"
)

type ChatRepository struct {
	DB *sql.DB
}

func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{DB: db}
}

func (r *ChatRepository) Create(ctx context.Context, log *store.ChatLog) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO chat_logs (id, user_id, workflow_id, query, answer, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at`,
		log.ID, log.OwnerID, log.WorkflowID, log.Query, log.Answer,
	).Scan(&log.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to save chat log for workflow %s: %v", log.WorkflowID, err)
		return fmt.Errorf("create chat log: %w", err)
	}
	return nil
}

// ListByWorkflow returns the owner's transcript for a workflow, oldest first.
// The workflow id is not checked against the workflows table.
func (r *ChatRepository) ListByWorkflow(ctx context.Context, ownerID, workflowID string) ([]store.ChatLog, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, workflow_id, query, answer, created_at
		FROM chat_logs
		WHERE user_id = $1 AND workflow_id = $2
		ORDER BY created_at ASC, id ASC`, ownerID, workflowID)
	if err != nil {
		logger.Sugar.Errorf("Failed to fetch chat history of workflow %s: %v", workflowID, err)
		return nil, fmt.Errorf("list chat logs: %w", err)
	}
	defer rows.Close()

	logs := []store.ChatLog{}
	for rows.Next() {
		var l store.ChatLog
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.WorkflowID, &l.Query, &l.Answer, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list chat logs: %w", err)
	}
	return logs, nil
}
