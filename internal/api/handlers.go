package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okvist/stele/internal/apperr"
	"github.com/okvist/stele/internal/postservice"
	"github.com/okvist/stele/internal/resolver"
	"github.com/okvist/stele/internal/store"
)

// Handler holds API route handlers.
type Handler struct {
	svc *postservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *postservice.Service) *Handler {
	return &Handler{svc: svc}
}

// slugParam extracts the slug from the URL wildcard (everything after
// /posts/). Supports encoded slashes from OpenAPI clients.
func slugParam(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func previewParam(r *http.Request) bool {
	p, _ := strconv.ParseBool(r.URL.Query().Get("preview"))
	return p
}

// ListPosts handles GET /api/posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	category := q.Get("category")
	sort := q.Get("sort")

	items, total, err := h.svc.ListPosts(r.Context(), limit, offset, category, sort, previewParam(r))
	if err != nil {
		slog.Error("list posts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: items, Total: total})
}

// GetPost handles GET /api/posts/*.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := slugParam(r)
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}
	post, err := h.svc.GetPost(r.Context(), slug, previewParam(r))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get post failed", slog.String("slug", slug), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit, previewParam(r))
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	out := make([]SearchResult, len(results))
	for i, res := range results {
		out[i] = SearchResult{Slug: res.Slug, Title: res.Title, Snippet: res.Snippet}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: out})
}

// ResolvePath handles GET /api/resolve?path=.
func (h *Handler) ResolvePath(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	res := h.svc.Resolve(r.Context(), path, previewParam(r))

	resp := ResolveResponse{Kind: res.Kind.String()}
	switch res.Kind {
	case resolver.KindContent:
		resp.Slug = res.Post.Slug
	case resolver.KindRedirect:
		resp.Target = res.Target
		resp.Permanent = res.Permanent
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reload handles POST /api/reload.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Reload(r.Context())
	if err != nil {
		var le *store.LoadError
		if errors.As(err, &le) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(le.Error()))
			return
		}
		slog.Error("reload failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ReloadResponse{Posts: n})
}

// Serve handles GET /* on the public site: resolver-driven content delivery.
// Preview is never honoured here; drafts stay invisible to the public surface.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	res := h.svc.Resolve(r.Context(), path, false)

	switch res.Kind {
	case resolver.KindContent:
		writeJSON(w, http.StatusOK, res.Post)
	case resolver.KindRedirect:
		http.Redirect(w, r, "/"+res.Target, http.StatusMovedPermanently)
	default:
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	}
}
