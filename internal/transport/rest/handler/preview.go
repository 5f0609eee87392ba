package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"bizplanner/internal/model"
	"bizplanner/internal/service"
	"bizplanner/internal/transport/rest/middleware"
)

// PreviewHandler handles preview endpoints
type PreviewHandler struct {
	wizardSvc  *service.WizardService
	previewSvc *service.PreviewService
}

// NewPreviewHandler creates a new preview handler
func NewPreviewHandler(wizardSvc *service.WizardService, previewSvc *service.PreviewService) *PreviewHandler {
	return &PreviewHandler{
		wizardSvc:  wizardSvc,
		previewSvc: previewSvc,
	}
}

// Get handles GET /v1/sessions/{id}/preview
func (h *PreviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.wizardSvc.Get(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}

	p, err := h.previewSvc.Current(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Document handles POST /v1/preview/document
func (h *PreviewHandler) Document(w http.ResponseWriter, r *http.Request) {
	var req model.DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"document": h.previewSvc.Document(&req)})
}

// Render handles POST /v1/preview/render
func (h *PreviewHandler) Render(w http.ResponseWriter, r *http.Request) {
	var req model.RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": h.previewSvc.Render(&req)})
}
