// Package models defines the domain types for Stele.
package models

import "time"

// Post represents one article loaded from the content directory.
//
// A Post is immutable once its snapshot is built; mutating queries operate
// on copies of the slice fields, never on the record itself.
type Post struct {
	Slug          string    `json:"slug"`
	SourcePath    string    `json:"source_path"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Date          time.Time `json:"date"`
	Categories    []string  `json:"categories,omitempty"`
	Published     bool      `json:"published"`
	CanonicalLink string    `json:"canonical_link,omitempty"`
	RedirectFrom  []string  `json:"redirect_from,omitempty"`
	Body          string    `json:"body"`
	Checksum      string    `json:"checksum"`
}

// PostSummary is a lightweight representation returned by list operations.
type PostSummary struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Categories  []string  `json:"categories"`
	Published   bool      `json:"published"`
}

// Summary returns the list representation of a post.
func (p *Post) Summary() PostSummary {
	cats := p.Categories
	if cats == nil {
		cats = []string{}
	}
	return PostSummary{
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		Date:        p.Date,
		Categories:  cats,
		Published:   p.Published,
	}
}

// SourceMetadata is a lightweight representation of an on-disk source file
// returned by storage list operations.
type SourceMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
