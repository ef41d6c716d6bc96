package api

import "github.com/okvist/stele/internal/models"

// PostDetail is the full post response type (aliased from the domain layer).
type PostDetail = models.Post

// PostListItem is a lightweight item in a list response (aliased from the domain layer).
type PostListItem = models.PostSummary

// PostListResponse wraps paginated post listings.
type PostListResponse struct {
	Posts []PostListItem `json:"posts"`
	Total int            `json:"total"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// ResolveResponse describes the outcome of resolving a path.
type ResolveResponse struct {
	Kind      string `json:"kind"` // content, redirect, not_found
	Slug      string `json:"slug,omitempty"`
	Target    string `json:"target,omitempty"`
	Permanent bool   `json:"permanent,omitempty"`
}

// ReloadResponse reports the size of the freshly loaded snapshot.
type ReloadResponse struct {
	Posts int `json:"posts"`
}
