package index

import "github.com/latazadehomero/cornell-marginalia/internal/models"

// ItemIndex defines the interface for marginalia indexing operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type ItemIndex interface {
	ReplaceDocument(path, checksum string, items []models.MarginaliaItem) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	AllItems() ([]models.MarginaliaItem, error)
	ItemsForDocument(path string) ([]models.MarginaliaItem, error)
	Backlinks(target string) ([]ItemRef, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies ItemIndex at compile time.
var _ ItemIndex = (*DB)(nil)
