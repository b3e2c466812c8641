package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"flowstudio/internal/llm"
	"flowstudio/internal/workflow/model"
	"flowstudio/internal/workflow/service"
	"flowstudio/middleware"
	"flowstudio/pkg/httpx"
	"flowstudio/pkg/logger"
	"flowstudio/store"
)

type WorkflowHandler struct {
	Service *service.WorkflowService
}

func NewWorkflowHandler(service *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{Service: service}
}

func (h *WorkflowHandler) ExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	var req model.ExecuteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	answer, err := h.Service.Execute(r.Context(), userID, req.Query, req.Nodes)
	if err != nil {
		var genErr *llm.GenerationError
		if errors.As(err, &genErr) {
			logger.Sugar.Errorf("Handler: Generation failed for user %s: %v", userID, err)
			http.Error(w, "Answer generation failed", http.StatusBadGateway)
			return
		}
		logger.Sugar.Errorf("Handler: Failed to execute workflow for user %s: %v", userID, err)
		http.Error(w, "Failed to execute workflow", http.StatusInternalServerError)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, model.ExecuteResponse{Answer: answer})
}

func (h *WorkflowHandler) SaveWorkflow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	var req model.SaveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	wf, err := h.Service.Save(r.Context(), userID, req.Name, req.SerializedData())
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to save workflow %q for user %s: %v", req.Name, userID, err)
		http.Error(w, "Failed to save workflow", http.StatusInternalServerError)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, wf)
}

func (h *WorkflowHandler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	workflows, err := h.Service.List(r.Context(), userID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list workflows for user %s: %v", userID, err)
		http.Error(w, "Failed to list workflows", http.StatusInternalServerError)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, workflows)
}

func (h *WorkflowHandler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	wf, err := h.Service.Get(r.Context(), userID, id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Workflow not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to get workflow %s: %v", id, err)
		http.Error(w, "Failed to get workflow", http.StatusInternalServerError)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, wf)
}
