package index

import (
	"log/slog"

	"github.com/latazadehomero/cornell-marginalia/internal/checksum"
	"github.com/latazadehomero/cornell-marginalia/internal/graph"
	"github.com/latazadehomero/cornell-marginalia/internal/models"
	"github.com/latazadehomero/cornell-marginalia/internal/storage"
)

// Scanner binds the corpus scan settings used when (re)indexing files.
type Scanner struct {
	Tags            []models.Tag
	IgnoredPrefixes []string
}

// Sync walks the vault and brings the index up to date:
//   - new/changed files are scanned and replaced
//   - files removed from disk are deleted from the index
//
// Documents under an ignored prefix are indexed with an empty item list
// so their checksum is still tracked.
func Sync(db *DB, store storage.Provider, sc Scanner, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, sc, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile scans data for annotation spans and replaces the document's
// index rows.
func indexFile(db *DB, sc Scanner, path string, data []byte) error {
	cs := checksum.Sum(data)

	if graph.Ignored(path, sc.IgnoredPrefixes) {
		return db.ReplaceDocument(path, cs, nil)
	}

	items := graph.ScanDocument(models.Document{Path: path, Text: string(data)}, sc.Tags)
	return db.ReplaceDocument(path, cs, items)
}
