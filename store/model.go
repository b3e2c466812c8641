// Package store holds the persisted records shared by every storage backend.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist or is not owned by the caller.
// The two cases are never told apart.
var ErrNotFound = errors.New("not found")

// Document is the extracted text of an uploaded file.
type Document struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"user_id"`
	Filename  string    `json:"filename"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Workflow is a named, serialized node/edge graph. Data is never interpreted by storage.
type Workflow struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"user_id"`
	Name      string    `json:"name"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatLog is one saved query/answer pair of a workflow conversation.
type ChatLog struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"user_id"`
	WorkflowID string    `json:"workflow_id"`
	Query      string    `json:"query"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}
