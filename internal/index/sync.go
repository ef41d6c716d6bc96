package index

import (
	"log/slog"

	"github.com/okvist/stele/internal/store"
)

// Sync brings the index in line with a snapshot:
//   - new/changed records (checksum mismatch) are upserted
//   - rows whose slug is absent from the snapshot are deleted
func Sync(db *DB, snap *store.Snapshot, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	current := make(map[string]struct{}, snap.Len())
	for p := range snap.All() {
		current[p.Slug] = struct{}{}

		if checksums[p.Slug] == p.Checksum {
			continue
		}
		row := PostRow{
			Slug:        p.Slug,
			Title:       p.Title,
			Description: p.Description,
			Categories:  p.Categories,
			Published:   p.Published,
			Date:        p.Date,
			Checksum:    p.Checksum,
		}
		if err := db.UpsertPost(row, p.Body); err != nil {
			logger.Warn("sync: upsert failed", slog.String("slug", p.Slug), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("slug", p.Slug))
		}
	}

	// Remove stale entries.
	for slug := range checksums {
		if _, ok := current[slug]; !ok {
			if err := db.DeletePost(slug); err != nil {
				logger.Warn("sync: delete failed", slog.String("slug", slug), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("slug", slug))
			}
		}
	}

	return nil
}
