// Package memory implements the document, workflow and chat stores on an in-memory
// database. It backs the server when DB_DRIVER=memory and most service tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-memdb"

	"flowstudio/store"
)

// ErrAlreadyExists is returned when a record id is reused. Records are never overwritten.
var ErrAlreadyExists = errors.New("already exists")

// DB is an in-memory database for testing or temporarily.
type DB struct {
	db  *memdb.MemDB
	seq atomic.Uint64
	now func() time.Time
}

// New returns a new in-memory database.
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &DB{
		db:  memDB,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return nil
}

// Documents returns the document store view of the database.
func (d *DB) Documents() *DocumentStore { return &DocumentStore{d: d} }

// Workflows returns the workflow store view of the database.
func (d *DB) Workflows() *WorkflowStore { return &WorkflowStore{d: d} }

// ChatLogs returns the chat history store view of the database.
func (d *DB) ChatLogs() *ChatLogStore { return &ChatLogStore{d: d} }

// seq orders records created within the same clock tick.
type documentRecord struct {
	store.Document
	Seq uint64
}

type workflowRecord struct {
	store.Workflow
	Seq uint64
}

type chatLogRecord struct {
	store.ChatLog
	Seq uint64
}

func (d *DB) insert(table, id string, record interface{}) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(table, "id", id)
	if err != nil {
		return fmt.Errorf("insert %s %s: %w", table, id, err)
	}
	if existing != nil {
		return fmt.Errorf("insert %s %s: %w", table, id, ErrAlreadyExists)
	}
	if err := txn.Insert(table, record); err != nil {
		return fmt.Errorf("insert %s %s: %w", table, id, err)
	}
	txn.Commit()
	return nil
}

// DocumentStore keeps extracted documents.
type DocumentStore struct {
	d *DB
}

// Create stores the document and stamps its creation time.
func (s *DocumentStore) Create(_ context.Context, doc *store.Document) error {
	doc.CreatedAt = s.d.now()
	record := &documentRecord{Document: *doc, Seq: s.d.seq.Add(1)}
	return s.d.insert(tblDocuments, doc.ID, record)
}

// Get returns the document only when both id and owner match.
func (s *DocumentStore) Get(_ context.Context, ownerID, id string) (*store.Document, error) {
	txn := s.d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "owner_id_id", ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("find document %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find document %s: %w", id, store.ErrNotFound)
	}

	doc := raw.(*documentRecord).Document
	return &doc, nil
}

// WorkflowStore keeps saved workflow definitions.
type WorkflowStore struct {
	d *DB
}

// Create always inserts a new workflow and stamps its creation time.
func (s *WorkflowStore) Create(_ context.Context, wf *store.Workflow) error {
	wf.CreatedAt = s.d.now()
	record := &workflowRecord{Workflow: *wf, Seq: s.d.seq.Add(1)}
	return s.d.insert(tblWorkflows, wf.ID, record)
}

// ListByOwner returns the owner's workflows, most recent first.
func (s *WorkflowStore) ListByOwner(_ context.Context, ownerID string) ([]store.Workflow, error) {
	txn := s.d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblWorkflows, "owner_id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list workflows of %s: %w", ownerID, err)
	}

	var records []*workflowRecord
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		records = append(records, raw.(*workflowRecord))
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].Seq > records[j].Seq
	})

	workflows := make([]store.Workflow, 0, len(records))
	for _, r := range records {
		workflows = append(workflows, r.Workflow)
	}
	return workflows, nil
}

// Get returns the workflow only when both id and owner match.
func (s *WorkflowStore) Get(_ context.Context, ownerID, id string) (*store.Workflow, error) {
	txn := s.d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblWorkflows, "owner_id_id", ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("find workflow %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find workflow %s: %w", id, store.ErrNotFound)
	}

	wf := raw.(*workflowRecord).Workflow
	return &wf, nil
}

// ChatLogStore keeps saved chat exchanges.
type ChatLogStore struct {
	d *DB
}

// Create inserts a chat log and stamps its creation time.
func (s *ChatLogStore) Create(_ context.Context, log *store.ChatLog) error {
	log.CreatedAt = s.d.now()
	record := &chatLogRecord{ChatLog: *log, Seq: s.d.seq.Add(1)}
	return s.d.insert(tblChatLogs, log.ID, record)
}

// ListByWorkflow returns the owner's chat logs of a workflow, oldest first.
func (s *ChatLogStore) ListByWorkflow(_ context.Context, ownerID, workflowID string) ([]store.ChatLog, error) {
	txn := s.d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblChatLogs, "owner_id_workflow_id", ownerID, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list chat logs of workflow %s: %w", workflowID, err)
	}

	var records []*chatLogRecord
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		records = append(records, raw.(*chatLogRecord))
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].Seq < records[j].Seq
	})

	logs := make([]store.ChatLog, 0, len(records))
	for _, r := range records {
		logs = append(logs, r.ChatLog)
	}
	return logs, nil
}
