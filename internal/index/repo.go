package index

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PostRow represents a row in the posts table.
type PostRow struct {
	Slug        string
	Title       string
	Description string
	Categories  []string
	Published   bool
	Date        time.Time
	Checksum    string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Slug    string
	Title   string
	Snippet string
}

// UpsertPost inserts or replaces a post row and its FTS entry within a transaction.
func (db *DB) UpsertPost(r PostRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	catsJSON, _ := json.Marshal(r.Categories)

	// Upsert posts table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO posts (slug, title, description, categories, published, date, checksum, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title       = excluded.title,
			description = excluded.description,
			categories  = excluded.categories,
			published   = excluded.published,
			date        = excluded.date,
			checksum    = excluded.checksum,
			body        = excluded.body
	`, r.Slug, r.Title, r.Description, string(catsJSON), boolInt(r.Published), r.Date, r.Checksum, body)
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, r.Slug, r.Title, body, r.Categories, r.Published); err != nil {
		return err
	}

	return tx.Commit()
}

// DeletePost removes a post row and its FTS entry.
func (db *DB) DeletePost(slug string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, slug)
	_, _ = tx.Exec(`DELETE FROM posts WHERE slug = ?`, slug)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a slug, or empty string if not found.
func (db *DB) GetChecksum(slug string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM posts WHERE slug = ?`, slug).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed post keyed by slug.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT slug, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var slug, cs string
		if err := rows.Scan(&slug, &cs); err != nil {
			return nil, err
		}
		out[slug] = cs
	}
	return out, rows.Err()
}

// ListPosts returns paginated post rows with optional category filtering.
// Unpublished rows are excluded unless preview is true.
func (db *DB) ListPosts(limit, offset int, category, sort string, preview bool) ([]PostRow, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := []string{"1=1"}
	var args []any
	if !preview {
		where = append(where, "published = 1")
	}
	if category != "" {
		// Categories are stored as a JSON array of strings.
		where = append(where, "categories LIKE ?")
		args = append(args, `%"`+category+`"%`)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count posts: %w", err)
	}

	order := "date DESC, slug ASC"
	switch sort {
	case "title":
		order = "title ASC, slug ASC"
	case "slug":
		order = "slug ASC"
	}

	queryArgs := append(append([]any{}, args...), limit, offset)
	rows, err := db.conn.Query(`
		SELECT slug, title, description, categories, published, date, checksum
		FROM posts
		WHERE `+cond+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?
	`, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list posts: %w", err)
	}
	defer rows.Close()

	var out []PostRow
	for rows.Next() {
		var r PostRow
		var catsJSON string
		var published int
		if err := rows.Scan(&r.Slug, &r.Title, &r.Description, &catsJSON, &published, &r.Date, &r.Checksum); err != nil {
			return nil, 0, err
		}
		r.Published = published != 0
		_ = json.Unmarshal([]byte(catsJSON), &r.Categories)
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
