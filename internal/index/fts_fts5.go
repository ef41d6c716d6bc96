//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
			slug UNINDEXED,
			published UNINDEXED,
			title,
			body,
			categories,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, slug, title, body string, categories []string, published bool) error {
	_, _ = tx.Exec(`DELETE FROM posts_fts WHERE slug = ?`, slug)
	_, err := tx.Exec(`INSERT INTO posts_fts (slug, published, title, body, categories) VALUES (?, ?, ?, ?, ?)`,
		slug, boolInt(published), title, body, strings.Join(categories, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, slug string) {
	_, _ = tx.Exec(`DELETE FROM posts_fts WHERE slug = ?`, slug)
}

// Search performs an FTS5 full-text search and returns matching results with
// snippets. Unpublished posts are excluded unless preview is true.
func (db *DB) Search(query string, limit int, preview bool) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	published := 0
	if !preview {
		published = 1
	}
	rows, err := db.conn.Query(`
		SELECT slug,
		       title,
		       snippet(posts_fts, 3, '<b>', '</b>', '...', 64)
		FROM posts_fts
		WHERE posts_fts MATCH ? AND published >= ?
		ORDER BY rank
		LIMIT ?
	`, query, published, limit)
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
