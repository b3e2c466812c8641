package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flowstudio/config"
	chatHandler "flowstudio/internal/chat"
	chatService "flowstudio/internal/chat/service"
	docHandler "flowstudio/internal/document"
	docService "flowstudio/internal/document/service"
	workflowHandler "flowstudio/internal/workflow"
	workflowService "flowstudio/internal/workflow/service"
	"flowstudio/middleware"
	"flowstudio/pkg/httpx"
)

type Services struct {
	Documents *docService.DocumentService
	Workflows *workflowService.WorkflowService
	Chats     *chatService.ChatService
}

func Setup(cfg *config.Config, services Services) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "Backend running"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	auth := middleware.Auth(cfg.Auth.JWTSecret, cfg.Auth.Audience)

	docs := docHandler.NewDocumentHandler(services.Documents, cfg.Server.UploadMaxBytes)
	workflows := workflowHandler.NewWorkflowHandler(services.Workflows)
	chats := chatHandler.NewChatHandler(services.Chats)

	r.Handle("/workflow/upload", auth(http.HandlerFunc(docs.UploadDocument))).Methods(http.MethodPost)
	r.Handle("/workflow/execute", auth(http.HandlerFunc(workflows.ExecuteWorkflow))).Methods(http.MethodPost)
	r.Handle("/workflow/save", auth(http.HandlerFunc(workflows.SaveWorkflow))).Methods(http.MethodPost)
	// list must be registered before {id}
	r.Handle("/workflow/list", auth(http.HandlerFunc(workflows.ListWorkflows))).Methods(http.MethodGet)
	r.Handle("/workflow/{id}", auth(http.HandlerFunc(workflows.GetWorkflow))).Methods(http.MethodGet)

	r.Handle("/chat/save", auth(http.HandlerFunc(chats.SaveChat))).Methods(http.MethodPost)
	r.Handle("/chat/{workflowId}", auth(http.HandlerFunc(chats.GetChatHistory))).Methods(http.MethodGet)

	return middleware.CORS(cfg.Server.AllowedOrigin)(r)
}
