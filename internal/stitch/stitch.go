// Package stitch injects thread links between marginalia items by
// rewriting their source lines. Mutations are best-effort per source:
// a substring invalidated by a concurrent edit is skipped silently, and
// already-written sources are never rolled back.
package stitch

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/latazadehomero/cornell-marginalia/internal/apperr"
	"github.com/latazadehomero/cornell-marginalia/internal/graph"
	"github.com/latazadehomero/cornell-marginalia/internal/models"
	"github.com/latazadehomero/cornell-marginalia/internal/storage"
)

var blockTokenRe = regexp.MustCompile(`\^([A-Za-z0-9]+)`)

const (
	blockIDLen      = 6
	blockIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// ConfirmFunc is the safety gate for bulk mutations. It receives the
// total edge count and returns whether the batch may proceed. It is
// consulted before any write.
type ConfirmFunc func(edges int) bool

// Result reports what a stitch actually changed.
type Result struct {
	Edges          int      `json:"edges"`
	AssignedIDs    int      `json:"assigned_ids"`
	LinkedSources  int      `json:"linked_sources"`
	SkippedSources []string `json:"skipped_sources,omitempty"`
}

// Stitcher performs batch edge creation over a storage provider.
type Stitcher struct {
	store  storage.Provider
	logger *slog.Logger
}

// New creates a Stitcher.
func New(store storage.Provider, logger *slog.Logger) *Stitcher {
	return &Stitcher{store: store, logger: logger}
}

// Stitch creates |sources| x |targets| edges, minus self-pairs. Targets
// lacking a stable identifier get a fresh one persisted to their source
// line first. When the edge count exceeds one, confirm gates the whole
// batch; declining aborts with zero mutations. The caller must trigger
// a full rescan afterwards.
func (s *Stitcher) Stitch(_ context.Context, sources, targets []models.MarginaliaItem, confirm ConfirmFunc) (*Result, error) {
	res := &Result{}

	res.Edges = countEdges(sources, targets)
	if res.Edges == 0 {
		return res, nil
	}
	if res.Edges > 1 {
		if confirm == nil || !confirm(res.Edges) {
			return nil, fmt.Errorf("stitch: %d edges: %w", res.Edges, apperr.ErrDeclined)
		}
	}

	for i := range targets {
		if targets[i].BlockID != "" {
			continue
		}
		if err := s.assignBlockID(&targets[i]); err != nil {
			return res, err
		}
		if targets[i].BlockID != "" {
			res.AssignedIDs++
		}
	}

	for i := range sources {
		src := &sources[i]
		suffix := linkSuffix(src, targets)
		if suffix == "" {
			continue
		}
		written := false
		err := s.store.Mutate(src.Document, func(text string) (string, bool) {
			if !strings.Contains(text, src.RawText) {
				return text, false
			}
			written = true
			return strings.Replace(text, src.RawText, src.RawText+suffix, 1), true
		})
		if err != nil {
			return res, fmt.Errorf("stitch: rewrite %s: %w", src.Document, err)
		}
		if written {
			res.LinkedSources++
		} else {
			// Concurrent edit moved the substring; skip this source.
			res.SkippedSources = append(res.SkippedSources, src.Document)
			s.logger.Warn("stitch: source substring not found, skipped",
				slog.String("document", src.Document),
				slog.Int("line", src.Line))
		}
	}

	return res, nil
}

// countEdges is |sources| x |targets| excluding self-pairs.
func countEdges(sources, targets []models.MarginaliaItem) int {
	edges := 0
	for i := range sources {
		for j := range targets {
			if !sources[i].Equal(&targets[j]) {
				edges++
			}
		}
	}
	return edges
}

// linkSuffix builds the combined suffix injected into one source's
// annotation: one link token per non-self target carrying an id.
func linkSuffix(src *models.MarginaliaItem, targets []models.MarginaliaItem) string {
	var b strings.Builder
	for j := range targets {
		tgt := &targets[j]
		if src.Equal(tgt) || tgt.BlockID == "" {
			continue
		}
		b.WriteString(" [[")
		b.WriteString(graph.Ref(tgt))
		b.WriteString("]]")
	}
	return b.String()
}

// assignBlockID generates a fresh identifier, unique within the target's
// document, and appends it to the target's source line. A target whose
// raw substring has gone missing keeps an empty id and drops out of the
// batch.
func (s *Stitcher) assignBlockID(target *models.MarginaliaItem) error {
	var assigned string
	err := s.store.Mutate(target.Document, func(text string) (string, bool) {
		idx := strings.Index(text, target.RawText)
		if idx < 0 {
			return text, false
		}

		existing := make(map[string]bool)
		for _, m := range blockTokenRe.FindAllStringSubmatch(text, -1) {
			existing[m[1]] = true
		}
		id := freshBlockID(existing)

		lineEnd := strings.IndexByte(text[idx:], '\n')
		insertAt := len(text)
		if lineEnd >= 0 {
			insertAt = idx + lineEnd
		}
		assigned = id
		return text[:insertAt] + " ^" + id + text[insertAt:], true
	})
	if err != nil {
		return fmt.Errorf("stitch: assign id in %s: %w", target.Document, err)
	}
	target.BlockID = assigned
	return nil
}

// freshBlockID draws random tokens until one avoids every identifier
// already present in the document.
func freshBlockID(existing map[string]bool) string {
	for {
		buf := make([]byte, blockIDLen)
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("stitch: rand: %v", err))
		}
		for i := range buf {
			buf[i] = blockIDAlphabet[int(buf[i])%len(blockIDAlphabet)]
		}
		id := string(buf)
		if !existing[id] {
			return id
		}
	}
}
