// Package resolver decides what a requested path serves: a record, a
// permanent redirect to a record's slug, or nothing.
package resolver

import (
	"log/slog"

	"github.com/okvist/stele/internal/models"
)

// Snapshot is the read surface the resolver needs from a loaded snapshot.
type Snapshot interface {
	GetBySlug(slug string) (*models.Post, error)
	AliasClaimants(path string) []*models.Post
}

// Context carries per-request resolution flags.
type Context struct {
	// Preview makes unpublished records servable (authoring mode).
	Preview bool
}

// Kind classifies a resolution outcome.
type Kind int

const (
	KindNotFound Kind = iota
	KindContent
	KindRedirect
)

func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindRedirect:
		return "redirect"
	default:
		return "not_found"
	}
}

// Resolution is the outcome of resolving one path against one snapshot.
type Resolution struct {
	Kind      Kind
	Post      *models.Post // set when Kind is KindContent
	Target    string       // owning slug, set when Kind is KindRedirect
	Permanent bool         // legacy aliases always redirect permanently
}

// Resolve maps a requested path to content, a redirect, or not-found.
//
// A slug match wins over an alias match. Unpublished records are invisible
// outside preview. Aliases redirect regardless of the owner's published
// state; visibility is enforced when the redirect target is fetched.
func Resolve(snap Snapshot, path string, rctx Context) Resolution {
	if post, err := snap.GetBySlug(path); err == nil {
		if rctx.Preview || post.Published {
			return Resolution{Kind: KindContent, Post: post}
		}
		return Resolution{Kind: KindNotFound}
	}

	claimants := snap.AliasClaimants(path)
	if len(claimants) == 0 {
		return Resolution{Kind: KindNotFound}
	}
	// More than one claimant means a collision escaped load-time validation.
	// Serving must not crash on bad data: take the lexicographically smallest
	// slug and flag the condition.
	if len(claimants) > 1 {
		slog.Warn("resolver: ambiguous alias",
			slog.String("path", path),
			slog.String("chosen", claimants[0].Slug),
			slog.Int("claimants", len(claimants)))
	}
	return Resolution{Kind: KindRedirect, Target: claimants[0].Slug, Permanent: true}
}
