// Package graph builds the cross-document thread graph: a read-only
// corpus scan producing flat marginalia items, and a cycle-safe tree
// builder over their link references.
package graph

import (
	"strings"

	"github.com/latazadehomero/cornell-marginalia/internal/annotation"
	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

// Ignored reports whether a vault path falls under any ignored folder
// prefix.
func Ignored(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Scan indexes every document not matching an ignored prefix. The pass
// is read-only: documents are never mutated during a scan.
func Scan(docs []models.Document, ignoredPrefixes []string, tags []models.Tag) []models.MarginaliaItem {
	var items []models.MarginaliaItem
	for _, doc := range docs {
		if Ignored(doc.Path, ignoredPrefixes) {
			continue
		}
		items = append(items, ScanDocument(doc, tags)...)
	}
	return items
}

// ScanDocument runs the annotation parser per logical line and emits one
// item per accepted note. Stable identifiers anchor to lines, so graph
// indexing is line-scoped even though decoration scanning is not.
func ScanDocument(doc models.Document, tags []models.Tag) []models.MarginaliaItem {
	var items []models.MarginaliaItem
	for i, line := range strings.Split(doc.Text, "\n") {
		for _, span := range annotation.Scan(line) {
			note, ok := annotation.ParseNote(span.RawContent, tags)
			if !ok {
				continue
			}
			items = append(items, models.MarginaliaItem{
				Text:          note.DisplayText,
				RawText:       span.RawContent,
				Color:         note.Color,
				Document:      doc.Path,
				Line:          i + 1,
				BlockID:       annotation.ReadBlockID(line),
				OutgoingLinks: note.Links,
				Images:        note.Images,
				IsFlashcard:   note.IsFlashcard,
			})
		}
	}
	return items
}
