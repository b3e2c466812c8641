package model

type SaveRequest struct {
	WorkflowID string `json:"workflow_id" validate:"required"`
	Query      string `json:"query"`
	Answer     string `json:"answer"`
}
