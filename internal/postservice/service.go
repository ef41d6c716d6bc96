// Package postservice coordinates snapshot, index, and notification
// operations behind the query surfaces (HTTP, MCP).
package postservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/okvist/stele/internal/apperr"
	"github.com/okvist/stele/internal/index"
	"github.com/okvist/stele/internal/models"
	"github.com/okvist/stele/internal/resolver"
	"github.com/okvist/stele/internal/sse"
	"github.com/okvist/stele/internal/storage"
	"github.com/okvist/stele/internal/store"
)

// Service coordinates the snapshot holder, search index, and SSE broker.
type Service struct {
	files     storage.Provider
	snapshots *store.Holder
	db        *index.DB
	broker    *sse.Broker // may be nil (MCP mode)
	logger    *slog.Logger
}

// NewService creates a new post service.
func NewService(files storage.Provider, snapshots *store.Holder, db *index.DB, broker *sse.Broker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{files: files, snapshots: snapshots, db: db, broker: broker, logger: logger}
}

// Snapshot returns the current snapshot. Callers use one snapshot for the
// whole of a logical operation.
func (s *Service) Snapshot() *store.Snapshot {
	return s.snapshots.Current()
}

// GetPost returns the record for a slug. Unpublished records are not found
// outside preview.
func (s *Service) GetPost(_ context.Context, slug string, preview bool) (*models.Post, error) {
	post, err := s.Snapshot().GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if !post.Published && !preview {
		return nil, fmt.Errorf("postservice: slug %q unpublished: %w", slug, apperr.ErrNotFound)
	}
	return post, nil
}

// ListPosts returns paginated post summaries from the index.
func (s *Service) ListPosts(_ context.Context, limit, offset int, category, sort string, preview bool) ([]models.PostSummary, int, error) {
	rows, total, err := s.db.ListPosts(limit, offset, category, sort, preview)
	if err != nil {
		return nil, 0, err
	}
	items := make([]models.PostSummary, len(rows))
	for i, r := range rows {
		items[i] = models.PostSummary{
			Slug:        r.Slug,
			Title:       r.Title,
			Description: r.Description,
			Date:        r.Date,
			Categories:  nonNilSlice(r.Categories),
			Published:   r.Published,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int, preview bool) ([]index.SearchResult, error) {
	return s.db.Search(query, limit, preview)
}

// Resolve maps a request path to content, a redirect, or not-found against
// the current snapshot.
func (s *Service) Resolve(_ context.Context, path string, preview bool) resolver.Resolution {
	return resolver.Resolve(s.Snapshot(), path, resolver.Context{Preview: preview})
}

// Reload builds a fresh snapshot from the content directory. On success the
// holder is swapped, the index synced, and subscribers notified; the post
// count of the new snapshot is returned. On failure the previous snapshot
// stays in place untouched.
func (s *Service) Reload(_ context.Context) (int, error) {
	snap, err := store.Load(s.files)
	if err != nil {
		return 0, err
	}

	s.snapshots.Replace(snap)

	if err := index.Sync(s.db, snap, s.logger); err != nil {
		// The snapshot already serves; a sync failure only degrades search.
		s.logger.Warn("reload: index sync failed", slog.String("error", err.Error()))
	}
	if s.broker != nil {
		s.broker.PublishReload(snap.Len())
	}

	s.logger.Info("reload: snapshot replaced", slog.Int("posts", snap.Len()))
	return snap.Len(), nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
