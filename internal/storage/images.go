package storage

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// ImageLookup resolves image file names referenced from annotations to
// vault-relative paths. Matching is by base name, first hit wins.
type ImageLookup struct {
	root string
}

// NewImageLookup creates a lookup rooted at the vault directory.
func NewImageLookup(root string) *ImageLookup {
	return &ImageLookup{root: root}
}

// Resolve walks the vault for a file whose base name matches name.
func (l *ImageLookup) Resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	var found string
	_ = filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if filepath.Base(path) == name {
			rel, relErr := filepath.Rel(l.root, path)
			if relErr != nil {
				return nil
			}
			found = filepath.ToSlash(rel)
			return filepath.SkipAll
		}
		return nil
	})
	return found, found != ""
}
