// Package store builds immutable, validated snapshots of all article records.
//
// A Snapshot is a value: once built it never changes, so readers need no
// locking. Reloading produces a fresh Snapshot that replaces the old one via
// Holder in a single pointer swap.
package store

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/okvist/stele/internal/apperr"
	"github.com/okvist/stele/internal/models"
	"github.com/okvist/stele/internal/parser"
	"github.com/okvist/stele/internal/storage"
)

// Document is one raw source consumed by Build.
type Document struct {
	Path string
	Data []byte
}

// Snapshot is an immutable view of all loaded article records with slug and
// alias indices built once at construction.
type Snapshot struct {
	bySlug    map[string]*models.Post
	byAlias   map[string][]*models.Post
	published []*models.Post // date descending, slug ascending on ties
	loadedAt  time.Time
}

// SlugFromPath derives a record's slug from its source path: separators
// normalised to forward slashes, the .md extension stripped.
func SlugFromPath(path string) string {
	s := strings.ReplaceAll(path, "\\", "/")
	s = strings.TrimSuffix(s, ".md")
	return NormalizePath(s)
}

// NormalizePath trims whitespace and surrounding slashes so that "/old-b",
// "old-b" and "old-b/" identify the same path.
func NormalizePath(p string) string {
	return strings.Trim(strings.TrimSpace(p), "/")
}

// Load reads every source document from the provider and builds a snapshot.
func Load(provider storage.Provider) (*Snapshot, error) {
	metas, err := provider.List("")
	if err != nil {
		return nil, fmt.Errorf("store: list sources: %w", err)
	}
	slices.SortFunc(metas, func(a, b models.SourceMetadata) int {
		return cmp.Compare(a.Path, b.Path)
	})

	docs := make([]Document, 0, len(metas))
	for _, m := range metas {
		data, err := provider.Read(m.Path)
		if err != nil {
			return nil, fmt.Errorf("store: read %s: %w", m.Path, err)
		}
		docs = append(docs, Document{Path: m.Path, Data: data})
	}
	return Build(docs)
}

// Build validates and indexes an ordered set of source documents.
// It fails with a *LoadError on the first duplicate slug, alias collision,
// or malformed document; no partially valid snapshot is ever returned.
func Build(docs []Document) (*Snapshot, error) {
	snap := &Snapshot{
		bySlug:   make(map[string]*models.Post, len(docs)),
		byAlias:  make(map[string][]*models.Post),
		loadedAt: time.Now(),
	}

	for _, doc := range docs {
		res, err := parser.Parse(doc.Data)
		if err != nil {
			return nil, &LoadError{Reason: ErrMalformedMetadata, Path: doc.Path, Detail: err.Error()}
		}

		slug := SlugFromPath(doc.Path)
		if prev, ok := snap.bySlug[slug]; ok {
			return nil, &LoadError{
				Reason: ErrDuplicateSlug,
				Path:   doc.Path,
				Detail: fmt.Sprintf("slug %q already claimed by %s", slug, prev.SourcePath),
			}
		}

		aliases := make([]string, 0, len(res.Meta.RedirectFrom))
		for _, a := range res.Meta.RedirectFrom {
			aliases = append(aliases, NormalizePath(a))
		}

		snap.bySlug[slug] = &models.Post{
			Slug:          slug,
			SourcePath:    doc.Path,
			Title:         res.Meta.Title,
			Description:   res.Meta.Description,
			Date:          res.Meta.Date,
			Categories:    res.Meta.Categories,
			Published:     res.Meta.Published,
			CanonicalLink: res.Meta.CanonicalLink,
			RedirectFrom:  aliases,
			Body:          res.Body,
			Checksum:      digest(doc.Data),
		}
	}

	if err := snap.indexAliases(); err != nil {
		return nil, err
	}
	snap.indexPublished()

	return snap, nil
}

// indexAliases builds the alias → record index and rejects any alias claimed
// twice or shadowing an existing slug.
func (s *Snapshot) indexAliases() error {
	for _, post := range s.sortedPosts() {
		for _, alias := range post.RedirectFrom {
			if alias == "" {
				continue
			}
			if owner, ok := s.bySlug[alias]; ok {
				return &LoadError{
					Reason: ErrDuplicateAlias,
					Path:   post.SourcePath,
					Detail: fmt.Sprintf("alias %q shadows slug of %s", alias, owner.SourcePath),
				}
			}
			if claimants := s.byAlias[alias]; len(claimants) > 0 {
				return &LoadError{
					Reason: ErrDuplicateAlias,
					Path:   post.SourcePath,
					Detail: fmt.Sprintf("alias %q already claimed by %s", alias, claimants[0].SourcePath),
				}
			}
			s.byAlias[alias] = append(s.byAlias[alias], post)
		}
	}
	return nil
}

// indexPublished builds the date-descending published list.
func (s *Snapshot) indexPublished() {
	for _, p := range s.bySlug {
		if p.Published {
			s.published = append(s.published, p)
		}
	}
	slices.SortFunc(s.published, func(a, b *models.Post) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Slug, b.Slug)
	})
}

// GetBySlug returns the record with the given slug, or apperr.ErrNotFound.
func (s *Snapshot) GetBySlug(slug string) (*models.Post, error) {
	p, ok := s.bySlug[NormalizePath(slug)]
	if !ok {
		return nil, fmt.Errorf("store: slug %q: %w", slug, apperr.ErrNotFound)
	}
	return p, nil
}

// AliasClaimants returns every record claiming the given path as a redirect
// alias, ordered by slug. A valid snapshot has at most one claimant per
// alias; the slice form exists so resolution stays deterministic even if a
// collision escapes load-time validation.
func (s *Snapshot) AliasClaimants(path string) []*models.Post {
	claimants := slices.Clone(s.byAlias[NormalizePath(path)])
	slices.SortFunc(claimants, func(a, b *models.Post) int {
		return cmp.Compare(a.Slug, b.Slug)
	})
	return claimants
}

// ListPublished yields published records in date-descending order. The
// sequence is finite and restartable: each range over it replays the same
// order for the same snapshot.
func (s *Snapshot) ListPublished() iter.Seq[*models.Post] {
	return func(yield func(*models.Post) bool) {
		for _, p := range s.published {
			if !yield(p) {
				return
			}
		}
	}
}

// All yields every record, published or not, in slug order.
func (s *Snapshot) All() iter.Seq[*models.Post] {
	posts := s.sortedPosts()
	return func(yield func(*models.Post) bool) {
		for _, p := range posts {
			if !yield(p) {
				return
			}
		}
	}
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int { return len(s.bySlug) }

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

func (s *Snapshot) sortedPosts() []*models.Post {
	posts := make([]*models.Post, 0, len(s.bySlug))
	for _, p := range s.bySlug {
		posts = append(posts, p)
	}
	slices.SortFunc(posts, func(a, b *models.Post) int {
		return cmp.Compare(a.Slug, b.Slug)
	})
	return posts
}

func digest(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
