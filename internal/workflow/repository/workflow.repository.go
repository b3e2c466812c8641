package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"flowstudio/pkg/logger"
	"flowstudio/store"
)

type WorkflowRepository struct {
	DB *sql.DB
}

func NewWorkflowRepository(db *sql.DB) *WorkflowRepository {
	return &WorkflowRepository{DB: db}
}

// Create always inserts a new row; saving the same name twice yields two workflows.
func (r *WorkflowRepository) Create(ctx context.Context, wf *store.Workflow) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO workflows (id, user_id, name, data, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at`,
		wf.ID, wf.OwnerID, wf.Name, wf.Data,
	).Scan(&wf.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create workflow %s: %v", wf.ID, err)
		return fmt.Errorf("create workflow: %w", err)
	}
	return nil
}

func (r *WorkflowRepository) ListByOwner(ctx context.Context, ownerID string) ([]store.Workflow, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, name, data, created_at
		FROM workflows
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list workflows for user %s: %v", ownerID, err)
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	workflows := []store.Workflow{}
	for rows.Next() {
		var wf store.Workflow
		if err := rows.Scan(&wf.ID, &wf.OwnerID, &wf.Name, &wf.Data, &wf.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		workflows = append(workflows, wf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	return workflows, nil
}

func (r *WorkflowRepository) Get(ctx context.Context, ownerID, id string) (*store.Workflow, error) {
	var wf store.Workflow
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, name, data, created_at
		FROM workflows
		WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	).Scan(&wf.ID, &wf.OwnerID, &wf.Name, &wf.Data, &wf.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find workflow %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get workflow %s: %v", id, err)
		return nil, fmt.Errorf("find workflow %s: %w", id, err)
	}
	return &wf, nil
}
