package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"bizplanner/internal/model"
	"bizplanner/internal/preview"
	"bizplanner/internal/service"
	"bizplanner/internal/transport/rest/middleware"
)

// SessionHandler handles wizard session endpoints
type SessionHandler struct {
	wizardSvc *service.WizardService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(wizardSvc *service.WizardService) *SessionHandler {
	return &SessionHandler{wizardSvc: wizardSvc}
}

// SessionResponse is a wizard session with its questions grouped by step
type SessionResponse struct {
	*model.WizardSession
	Steps []model.Step `json:"steps"`
}

func sessionResponse(s *model.WizardSession) *SessionResponse {
	return &SessionResponse{WizardSession: s, Steps: preview.Steps(s.Questions, s.Locale)}
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req model.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.wizardSvc.Create(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse(session))
}

// List handles GET /v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.wizardSvc.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.wizardSvc.Get(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(session))
}

// Delete handles DELETE /v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.wizardSvc.Teardown(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateAnswer handles PUT /v1/sessions/{id}/answers/{questionId}
func (h *SessionHandler) UpdateAnswer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req model.UpdateAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.wizardSvc.UpdateAnswer(r.Context(), vars["id"], middleware.GetUserID(r.Context()), vars["questionId"], req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"questionId": vars["questionId"],
		"accepted":   true,
	})
}

// SetStep handles PUT /v1/sessions/{id}/step
func (h *SessionHandler) SetStep(w http.ResponseWriter, r *http.Request) {
	var req model.SetStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.wizardSvc.SetStep(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context()), req.Step)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(session))
}
