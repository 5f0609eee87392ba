package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"bizplanner/internal/logging"
	"bizplanner/internal/service"
	"bizplanner/internal/transport/rest/handler"
	"bizplanner/internal/transport/rest/middleware"
	"bizplanner/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService        *service.AuthService
	WizardService      *service.WizardService
	PreviewService     *service.PreviewService
	GenerationService  *service.GenerationService
	WSHub              *ws.Hub
	CORSAllowedOrigins string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	sessionHandler := handler.NewSessionHandler(c.WizardService)
	previewHandler := handler.NewPreviewHandler(c.WizardService, c.PreviewService)
	planHandler := handler.NewPlanHandler(c.GenerationService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.WizardService, c.PreviewService, c.CORSAllowedOrigins)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSAllowedOrigins))
	r.Use(middleware.AccessLog(logging.Component("http")))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/sessions/{id}", wsHandler.SessionWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// User routes (require user auth)
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/sessions", sessionHandler.List).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{id}", sessionHandler.Delete).Methods("DELETE", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{id}/answers/{questionId}", sessionHandler.UpdateAnswer).Methods("PUT", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{id}/step", sessionHandler.SetStep).Methods("PUT", "OPTIONS")

	// Preview routes
	userRoutes.HandleFunc("/sessions/{id}/preview", previewHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/preview/document", previewHandler.Document).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/preview/render", previewHandler.Render).Methods("POST", "OPTIONS")

	// Plan generation routes
	userRoutes.HandleFunc("/sessions/{id}/generate", planHandler.Generate).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/sessions/{id}/generation", planHandler.Status).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/plans/{planId}/sections", planHandler.Sections).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
