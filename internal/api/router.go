package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notesift/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, metrics *Metrics, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, metrics)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes, read-only. Edits happen in the user's editor.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)
	r.Get("/render/*", h.RenderNote)

	r.Get("/search", h.Search)
	r.Get("/categories", h.Categories)
	r.Get("/stats", h.Stats)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
