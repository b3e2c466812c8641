package memory

import "github.com/hashicorp/go-memdb"

var (
	tblDocuments = "documents"
	tblWorkflows = "workflows"
	tblChatLogs  = "chat_logs"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblDocuments: {
			Name: tblDocuments,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"owner_id_id": {
					Name:   "owner_id_id",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "OwnerID"},
							&memdb.StringFieldIndex{Field: "ID"},
						},
					},
				},
			},
		},
		tblWorkflows: {
			Name: tblWorkflows,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"owner_id": {
					Name:    "owner_id",
					Indexer: &memdb.StringFieldIndex{Field: "OwnerID"},
				},
				"owner_id_id": {
					Name:   "owner_id_id",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "OwnerID"},
							&memdb.StringFieldIndex{Field: "ID"},
						},
					},
				},
			},
		},
		tblChatLogs: {
			Name: tblChatLogs,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"owner_id_workflow_id": {
					Name: "owner_id_workflow_id",
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "OwnerID"},
							&memdb.StringFieldIndex{Field: "WorkflowID"},
						},
					},
				},
			},
		},
	},
}
