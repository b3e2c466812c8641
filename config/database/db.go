package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"flowstudio/config"
	"flowstudio/pkg/logger"
)

const (
	pingAttempts = 5
	pingInterval = 2 * time.Second
)

// Connect opens the Postgres pool and pings it, retrying a few times in case of
// temporary DNS or network blips.
func Connect(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	for i := 0; i < pingAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db, nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", pingInterval, err)

		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(pingInterval):
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", pingAttempts, err)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS documents_user_id_idx ON documents (user_id)`,
	`CREATE TABLE IF NOT EXISTS workflows (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS workflows_user_id_idx ON workflows (user_id, created_at)`,
	// workflow_id does not reference workflows(id).
	`CREATE TABLE IF NOT EXISTS chat_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		workflow_id TEXT NOT NULL,
		query TEXT NOT NULL,
		answer TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS chat_logs_user_id_workflow_id_idx ON chat_logs (user_id, workflow_id, created_at)`,
}

// EnsureSchema creates the tables and indexes if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Sugar.Errorf("Failed to apply schema: %v", err)
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
