package handler

import (
	"errors"
	"io"
	"net/http"

	"flowstudio/internal/document/model"
	"flowstudio/internal/document/service"
	"flowstudio/internal/extract"
	"flowstudio/middleware"
	"flowstudio/pkg/httpx"
	"flowstudio/pkg/logger"
)

// multipart parts beyond this size spill to temporary files.
const maxMemory = 32 << 20

type DocumentHandler struct {
	Service        *service.DocumentService
	MaxUploadBytes int64
}

func NewDocumentHandler(service *service.DocumentService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{Service: service, MaxUploadBytes: maxUploadBytes}
}

func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to read upload %q: %v", header.Filename, err)
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}

	doc, err := h.Service.Upload(r.Context(), userID, header.Filename, data)
	if err != nil {
		if errors.Is(err, extract.ErrExtraction) {
			http.Error(w, "Could not extract text from PDF: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}
		logger.Sugar.Errorf("Handler: Failed to store document %q: %v", header.Filename, err)
		http.Error(w, "Failed to store document", http.StatusInternalServerError)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, model.UploadResponse{FileID: doc.ID, FileName: doc.Filename})
}
