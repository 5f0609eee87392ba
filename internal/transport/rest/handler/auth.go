package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"bizplanner/internal/model"
	"bizplanner/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrSessionNotFound, http.StatusNotFound},
	{service.ErrQuestionNotFound, http.StatusNotFound},
	{service.ErrNoGeneration, http.StatusNotFound},
	{service.ErrNoTemplates, http.StatusNotFound},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrInvalidPersona, http.StatusBadRequest},
	{service.ErrInvalidLocale, http.StatusBadRequest},
	{service.ErrInvalidStep, http.StatusBadRequest},
	{service.ErrGenerationRunning, http.StatusConflict},
}

// writeServiceError maps service errors to HTTP statuses. Anything else
// comes from a collaborator and is reported as a bad gateway.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatus {
		if eris.Is(err, e.err) {
			writeError(w, e.status, e.err.Error())
			return
		}
	}
	zap.L().Error("handler: request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusBadGateway, "upstream service error")
}
