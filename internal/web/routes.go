package web

import (
	"encoding/json"
	"net/http"

	"github.com/buemura/contractlens/internal/web/api"
	"github.com/go-chi/chi/v5"
)

// registerRoutes mounts all route groups on the server's router.
func (s *Server) registerRoutes() {
	apiHandlers := api.NewHandlers(s.manager, s.registry)

	// Health check
	s.router.Get("/health", s.handleHealth)

	// REST API
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/rules", apiHandlers.ListRules)

		r.Post("/sessions", apiHandlers.CreateSession)
		r.Get("/sessions", apiHandlers.ListSessions)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", apiHandlers.GetSession)
			r.Delete("/", apiHandlers.DeleteSession)
			r.Put("/source", apiHandlers.PutSource)
			r.Post("/analyze", apiHandlers.Analyze)
			r.Get("/report", apiHandlers.GetReport)
			r.Delete("/report", apiHandlers.ClearReport)
			r.Patch("/config", apiHandlers.PatchConfig)
			r.Post("/fix", apiHandlers.Fix)
			r.Post("/jump", apiHandlers.Jump)
		})
	})
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "ok",
		"sessions": s.manager.Len(),
	})
}
