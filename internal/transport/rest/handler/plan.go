package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"bizplanner/internal/service"
	"bizplanner/internal/transport/rest/middleware"
)

// PlanHandler handles plan generation endpoints
type PlanHandler struct {
	generationSvc *service.GenerationService
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(generationSvc *service.GenerationService) *PlanHandler {
	return &PlanHandler{generationSvc: generationSvc}
}

// Generate handles POST /v1/sessions/{id}/generate
func (h *PlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	status, err := h.generationSvc.Start(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, status)
}

// Status handles GET /v1/sessions/{id}/generation
func (h *PlanHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.generationSvc.Status(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Sections handles GET /v1/plans/{planId}/sections
func (h *PlanHandler) Sections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.generationSvc.Sections(r.Context(), mux.Vars(r)["planId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sections": sections})
}
