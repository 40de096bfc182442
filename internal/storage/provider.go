// Package storage defines the vault file-system abstraction consumed by
// the marginalia engine. The engine never owns document CRUD; it reads
// documents and rewrites single lines through Mutate.
package storage

import "github.com/latazadehomero/cornell-marginalia/internal/models"

// MutateFunc transforms document text. The second return reports whether
// the text changed; unchanged text is not written back.
type MutateFunc func(text string) (string, bool)

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]models.DocumentMetadata, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
	// Mutate reads path, applies fn, and atomically writes the result
	// back when fn reports a change.
	Mutate(path string, fn MutateFunc) error
}
