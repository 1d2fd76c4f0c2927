package session

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers intake session routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/catalog", h.GetCatalog)

	r.Route("/intake-session", func(r chi.Router) {
		r.Post("/", h.StartSession)
		r.Get("/{id}", h.GetSession)
		r.Post("/{id}/answer/{question_id}", h.SubmitAnswer)
		r.Post("/{id}/advance", h.Advance)
		r.Post("/{id}/retreat", h.Retreat)
		r.Post("/{id}/restart", h.Restart)
		r.Get("/{id}/result", h.GetSessionResult)
		r.Post("/{id}/cancel", h.CancelSession)
	})
}
