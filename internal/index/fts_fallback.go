//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; full-text search uses LIKE fallback on posts.body.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string, _ bool) error {
	// Body is already stored in the posts table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
// Unpublished posts are excluded unless preview is true.
func (db *DB) Search(query string, limit int, preview bool) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	published := 0
	if !preview {
		published = 1
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT slug, title, substr(body, 1, 200)
		FROM posts
		WHERE published >= ? AND (title LIKE ? OR description LIKE ? OR body LIKE ? OR categories LIKE ?)
		ORDER BY date DESC
		LIMIT ?
	`, published, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Slug, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
