package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"flowstudio/internal/chat/model"
	"flowstudio/internal/chat/service"
	"flowstudio/middleware"
	"flowstudio/pkg/httpx"
	"flowstudio/pkg/logger"
)

type ChatHandler struct {
	Service *service.ChatService
}

func NewChatHandler(service *service.ChatService) *ChatHandler {
	return &ChatHandler{Service: service}
}

func (h *ChatHandler) SaveChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	var req model.SaveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log, err := h.Service.Save(r.Context(), userID, req.WorkflowID, req.Query, req.Answer)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to save chat for workflow %s: %v", req.WorkflowID, err)
		http.Error(w, "Failed to save chat", http.StatusInternalServerError)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, log)
}

func (h *ChatHandler) GetChatHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	workflowID := mux.Vars(r)["workflowId"]
	history, err := h.Service.History(r.Context(), userID, workflowID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to fetch chat history of workflow %s: %v", workflowID, err)
		http.Error(w, "Failed to fetch chat history", http.StatusInternalServerError)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, history)
}
