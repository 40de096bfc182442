package models

import (
	"path"
	"strings"
	"time"
)

// Document is one corpus member handed to a scan: a vault-relative path
// plus its full text.
type Document struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// Name returns the link-target name of the document: the base filename
// without the .md extension, the form used inside [[wikilinks]].
func (d Document) Name() string {
	return DocumentName(d.Path)
}

// DocumentName derives the wikilink target name from a vault path.
func DocumentName(p string) string {
	return strings.TrimSuffix(path.Base(p), ".md")
}

// DocumentMetadata is a lightweight representation returned by list
// operations.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
