package storage

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

// Cached decorates a Provider with an LRU read cache. It implements the
// host's readCached contract: fast reads that may be one write behind
// an external edit. Writes and mutations through this provider
// invalidate the affected entry; external edits are invalidated by the
// vault watcher via Invalidate.
type Cached struct {
	inner Provider
	cache *lru.Cache[string, []byte]
}

// NewCached wraps inner with a read cache holding up to size documents.
func NewCached(inner Provider, size int) (*Cached, error) {
	if size <= 0 {
		size = 256
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: c}, nil
}

// List delegates to the inner provider; listings are never cached.
func (c *Cached) List(dir string) ([]models.DocumentMetadata, error) {
	return c.inner.List(dir)
}

// Read returns the cached content for path, falling back to the inner
// provider on miss.
func (c *Cached) Read(path string) ([]byte, error) {
	if data, ok := c.cache.Get(path); ok {
		return data, nil
	}
	data, err := c.inner.Read(path)
	if err != nil {
		return nil, err
	}
	c.cache.Add(path, data)
	return data, nil
}

// Write passes through and refreshes the cache entry.
func (c *Cached) Write(path string, content []byte) error {
	if err := c.inner.Write(path, content); err != nil {
		return err
	}
	c.cache.Add(path, content)
	return nil
}

// Mutate reads through the inner provider (never a stale cache copy,
// the rewrite must see the latest text), then refreshes the cache.
func (c *Cached) Mutate(path string, fn MutateFunc) error {
	data, err := c.inner.Read(path)
	if err != nil {
		return err
	}
	next, changed := fn(string(data))
	if !changed {
		return nil
	}
	if err := c.inner.Write(path, []byte(next)); err != nil {
		return err
	}
	c.cache.Add(path, []byte(next))
	return nil
}

// Invalidate drops the cache entry for path.
func (c *Cached) Invalidate(path string) {
	c.cache.Remove(path)
}
