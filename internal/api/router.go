package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okvist/stele/internal/postservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *postservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Post queries.
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/*", h.GetPost)

	// Search.
	r.Get("/search", h.Search)

	// Path resolution (diagnostics for the serving layer).
	r.Get("/resolve", h.ResolvePath)

	// Explicit snapshot reload.
	r.Post("/reload", h.Reload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewContentHandler returns the public, non-preview serving handler mounted
// at the site root.
func NewContentHandler(svc *postservice.Service) http.HandlerFunc {
	h := NewHandler(svc)
	return h.Serve
}
