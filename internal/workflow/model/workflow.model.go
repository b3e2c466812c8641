package model

import (
	"bytes"
	"encoding/json"
)

// KnowledgeBaseType is the only node type that affects execution.
const KnowledgeBaseType = "knowledgeBase"

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one node of the editor graph. Data is kept as sent; only
// data.config.fileId is ever read.
type Node struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Position Position               `json:"position"`
	Data     map[string]interface{} `json:"data"`
}

// FileID returns data.config.fileId, or "" when it is absent or not a string.
func (n Node) FileID() string {
	cfg, ok := n.Data["config"].(map[string]interface{})
	if !ok {
		return ""
	}
	fileID, _ := cfg["fileId"].(string)
	return fileID
}

// Edge is accepted with the graph but never traversed or checked.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type ExecuteRequest struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Query string `json:"query"`
}

type ExecuteResponse struct {
	Answer string `json:"answer"`
}

// SaveRequest carries any JSON as data; it is stored as its serialized text.
type SaveRequest struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// SerializedData returns the request data as stored. A missing value is stored as null.
func (r SaveRequest) SerializedData() string {
	if len(bytes.TrimSpace(r.Data)) == 0 {
		return "null"
	}
	return string(r.Data)
}
