package index

import (
	"fmt"
	"time"

	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

// SearchResult represents one search hit.
type SearchResult struct {
	Document string `json:"document"`
	Line     int    `json:"line"`
	Text     string `json:"text"`
	Snippet  string `json:"snippet"`
}

// ItemRef locates one indexed item.
type ItemRef struct {
	Document string `json:"document"`
	Line     int    `json:"line"`
}

// ReplaceDocument swaps a document's indexed items wholesale within one
// transaction: the cache is fully replaced per rescan, never patched.
func (db *DB) ReplaceDocument(path, checksum string, items []models.MarginaliaItem) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO documents (path, checksum, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, path, checksum, time.Now())
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	_, _ = tx.Exec(`DELETE FROM items WHERE document = ?`, path)
	_, _ = tx.Exec(`DELETE FROM threads WHERE source_document = ?`, path)
	if err := ftsDelete(tx, path); err != nil {
		return err
	}

	if len(items) > 0 {
		itemStmt, err := tx.Prepare(`
			INSERT INTO items (document, line, ord, text, raw_text, color, block_id, flashcard)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare item insert: %w", err)
		}
		defer itemStmt.Close()

		linkStmt, err := tx.Prepare(`
			INSERT OR IGNORE INTO threads (source_document, source_line, source_ord, target)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare thread insert: %w", err)
		}
		defer linkStmt.Close()

		ord := 0
		lastLine := -1
		for _, item := range items {
			if item.Line != lastLine {
				ord = 0
				lastLine = item.Line
			} else {
				ord++
			}
			if _, err := itemStmt.Exec(path, item.Line, ord, item.Text, item.RawText,
				item.Color, item.BlockID, boolInt(item.IsFlashcard)); err != nil {
				return fmt.Errorf("index: insert item: %w", err)
			}
			for _, target := range item.OutgoingLinks {
				if _, err := linkStmt.Exec(path, item.Line, ord, target); err != nil {
					return fmt.Errorf("index: insert thread: %w", err)
				}
			}
			if err := ftsUpsert(tx, path, item.Line, item.Text); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document, its items, threads, and FTS rows.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_ = ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM threads WHERE source_document = ?`, path)
	_, _ = tx.Exec(`DELETE FROM items WHERE document = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty
// string if not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// AllItems returns the full flat item list, outgoing links attached, in
// document/line order. This is the scan-pass view the tree builder and
// stitcher consume.
func (db *DB) AllItems() ([]models.MarginaliaItem, error) {
	return db.queryItems(`
		SELECT document, line, ord, text, raw_text, color, block_id, flashcard
		FROM items ORDER BY document, line, ord
	`)
}

// ItemsForDocument returns the indexed items of one document.
func (db *DB) ItemsForDocument(path string) ([]models.MarginaliaItem, error) {
	return db.queryItems(`
		SELECT document, line, ord, text, raw_text, color, block_id, flashcard
		FROM items WHERE document = ? ORDER BY line, ord
	`, path)
}

func (db *DB) queryItems(query string, args ...any) ([]models.MarginaliaItem, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query items: %w", err)
	}
	defer rows.Close()

	type key struct {
		doc  string
		line int
		ord  int
	}
	var items []models.MarginaliaItem
	var keys []key
	for rows.Next() {
		var it models.MarginaliaItem
		var k key
		var flashcard int
		if err := rows.Scan(&k.doc, &k.line, &k.ord, &it.Text, &it.RawText,
			&it.Color, &it.BlockID, &flashcard); err != nil {
			return nil, err
		}
		it.Document = k.doc
		it.Line = k.line
		it.IsFlashcard = flashcard != 0
		items = append(items, it)
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	linkRows, err := db.conn.Query(`
		SELECT source_document, source_line, source_ord, target FROM threads
	`)
	if err != nil {
		return nil, fmt.Errorf("index: query threads: %w", err)
	}
	defer linkRows.Close()

	byKey := make(map[key]*models.MarginaliaItem, len(items))
	for i := range items {
		byKey[keys[i]] = &items[i]
	}
	for linkRows.Next() {
		var k key
		var target string
		if err := linkRows.Scan(&k.doc, &k.line, &k.ord, &target); err != nil {
			return nil, err
		}
		if it, ok := byKey[k]; ok {
			it.OutgoingLinks = append(it.OutgoingLinks, target)
		}
	}
	return items, linkRows.Err()
}

// Backlinks returns the items whose outgoing links carry the given
// target reference.
func (db *DB) Backlinks(target string) ([]ItemRef, error) {
	rows, err := db.conn.Query(`
		SELECT source_document, source_line FROM threads WHERE target = ?
	`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []ItemRef
	for rows.Next() {
		var r ItemRef
		if err := rows.Scan(&r.Document, &r.Line); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
