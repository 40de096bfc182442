// Package itemservice coordinates storage, index, stitching, flashcard,
// and pinboard operations behind one domain service shared by the HTTP
// API and the MCP server.
package itemservice

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/latazadehomero/cornell-marginalia/internal/apperr"
	"github.com/latazadehomero/cornell-marginalia/internal/checksum"
	"github.com/latazadehomero/cornell-marginalia/internal/decor"
	"github.com/latazadehomero/cornell-marginalia/internal/flashcards"
	"github.com/latazadehomero/cornell-marginalia/internal/graph"
	"github.com/latazadehomero/cornell-marginalia/internal/index"
	"github.com/latazadehomero/cornell-marginalia/internal/models"
	"github.com/latazadehomero/cornell-marginalia/internal/pinboard"
	"github.com/latazadehomero/cornell-marginalia/internal/stitch"
	"github.com/latazadehomero/cornell-marginalia/internal/storage"
)

// ItemLocator identifies one indexed annotation by document and line.
type ItemLocator struct {
	Document string `json:"document"`
	Line     int    `json:"line"`
}

// Service is the shared domain service.
type Service struct {
	store    storage.Provider
	db       *index.DB
	stitcher *stitch.Stitcher
	board    *pinboard.Board
	clip     pinboard.Clipboard
	images   decor.ImageLookup
	render   decor.Renderer
	scanner  index.Scanner
	logger   *slog.Logger
}

// NewService creates the domain service. images and clip may be nil when
// the corresponding feature is not wired (tests, headless servers).
func NewService(store storage.Provider, db *index.DB, sc index.Scanner, images decor.ImageLookup, clip pinboard.Clipboard, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		db:       db,
		stitcher: stitch.New(store, logger),
		board:    pinboard.NewBoard(),
		clip:     clip,
		images:   images,
		render:   decor.NewRenderer(),
		scanner:  sc,
		logger:   logger,
	}
}

// Items returns indexed items, optionally restricted to one document or
// to flashcard-flagged items.
func (s *Service) Items(_ context.Context, document string, flashcardsOnly bool) ([]models.MarginaliaItem, error) {
	var items []models.MarginaliaItem
	var err error
	if document != "" {
		items, err = s.db.ItemsForDocument(document)
	} else {
		items, err = s.db.AllItems()
	}
	if err != nil {
		return nil, err
	}
	if !flashcardsOnly {
		return items, nil
	}
	out := items[:0]
	for _, it := range items {
		if it.IsFlashcard {
			out = append(out, it)
		}
	}
	return out, nil
}

// Threads builds the cross-document thread forest from the current
// index, optionally narrowed by a text/color filter.
func (s *Service) Threads(_ context.Context, query string) ([]*graph.Node, error) {
	items, err := s.db.AllItems()
	if err != nil {
		return nil, err
	}
	var filter graph.Filter
	if query != "" {
		filter = graph.TextFilter(query)
	}
	return graph.Forest(items, filter), nil
}

// Backlinks returns the items linking to the given target reference.
func (s *Service) Backlinks(_ context.Context, target string) ([]index.ItemRef, error) {
	return s.db.Backlinks(target)
}

// Search delegates to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Decorate computes the overlay set for an editor snapshot. When the
// request carries no text the stored document content is used with a
// full-document viewport.
func (s *Service) Decorate(_ context.Context, snap decor.Snapshot) (decor.OverlaySet, error) {
	if snap.Text == "" {
		data, err := s.store.Read(snap.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, apperr.ErrNotFound
			}
			return nil, err
		}
		snap.Text = string(data)
	}
	if len(snap.Viewport) == 0 {
		snap.Viewport = []decor.Range{{From: 0, To: len(snap.Text)}}
	}
	cfg := decor.Config{Tags: s.scanner.Tags, IgnoredPrefixes: s.scanner.IgnoredPrefixes}
	return decor.Build(snap, cfg, s.images, s.render), nil
}

// Stitch connects source items to target items and reindexes the
// touched documents. confirmed stands in for the interactive batch
// confirmation: a multi-edge stitch with confirmed=false is declined.
func (s *Service) Stitch(ctx context.Context, sources, targets []ItemLocator, confirmed bool) (*stitch.Result, error) {
	srcItems, err := s.resolveLocators(sources)
	if err != nil {
		return nil, err
	}
	tgtItems, err := s.resolveLocators(targets)
	if err != nil {
		return nil, err
	}

	res, err := s.stitcher.Stitch(ctx, srcItems, tgtItems, func(int) bool { return confirmed })
	if err != nil {
		return nil, err
	}

	touched := make(map[string]bool)
	for _, it := range srcItems {
		touched[it.Document] = true
	}
	for _, it := range tgtItems {
		touched[it.Document] = true
	}
	for path := range touched {
		if err := s.Reindex(path); err != nil {
			s.logger.Warn("stitch: reindex failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	return res, nil
}

// GenerateFlashcards extracts flashcard-flagged annotations in the
// document and appends missing cards to its flashcard section.
func (s *Service) GenerateFlashcards(_ context.Context, path string) (flashcards.Result, error) {
	var res flashcards.Result
	err := s.store.Mutate(path, func(text string) (string, bool) {
		res = flashcards.Apply(text, s.scanner.Tags)
		return res.Text, res.Added > 0
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, apperr.ErrNotFound
		}
		return res, err
	}
	if res.Added > 0 {
		if err := s.Reindex(path); err != nil {
			s.logger.Warn("flashcards: reindex failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	return res, nil
}

// PinItem resolves a locator and pins the item at the given depth.
func (s *Service) PinItem(_ context.Context, loc ItemLocator, indent int) error {
	item, err := s.resolveLocator(loc)
	if err != nil {
		return err
	}
	s.board.PinItem(item, indent)
	return nil
}

// PinTitle pins a section title.
func (s *Service) PinTitle(_ context.Context, title string, level int) {
	s.board.PinTitle(title, level)
}

// PinboardEntries returns the current board contents.
func (s *Service) PinboardEntries(_ context.Context) []models.PinboardEntry {
	return s.board.Entries()
}

// ClearPinboard empties the board.
func (s *Service) ClearPinboard(_ context.Context) {
	s.board.Clear()
}

// ExportPinboard renders the board in the requested format. Canvas
// output is JSON, the others markdown text.
func (s *Service) ExportPinboard(_ context.Context, format string) ([]byte, string, error) {
	switch format {
	case "markdown", "":
		return []byte(s.board.ExportMarkdown()), "text/markdown; charset=utf-8", nil
	case "outline":
		return []byte(s.board.ExportOutline()), "text/markdown; charset=utf-8", nil
	case "canvas":
		data, err := s.board.ExportCanvas()
		return data, "application/json; charset=utf-8", err
	default:
		return nil, "", apperr.ErrNotFound
	}
}

// CopyPinboard writes the outline export to the configured clipboard.
func (s *Service) CopyPinboard(_ context.Context) error {
	if s.clip == nil {
		return errors.New("clipboard not available")
	}
	return s.board.CopyOutline(s.clip)
}

// Reindex rescans one document from storage into the index.
func (s *Service) Reindex(path string) error {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.db.DeleteDocument(path)
		}
		return err
	}
	cs := checksum.Sum(data)
	if graph.Ignored(path, s.scanner.IgnoredPrefixes) {
		return s.db.ReplaceDocument(path, cs, nil)
	}
	items := graph.ScanDocument(models.Document{Path: path, Text: string(data)}, s.scanner.Tags)
	return s.db.ReplaceDocument(path, cs, items)
}

func (s *Service) resolveLocators(locs []ItemLocator) ([]models.MarginaliaItem, error) {
	out := make([]models.MarginaliaItem, 0, len(locs))
	for _, loc := range locs {
		item, err := s.resolveLocator(loc)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) resolveLocator(loc ItemLocator) (models.MarginaliaItem, error) {
	items, err := s.db.ItemsForDocument(loc.Document)
	if err != nil {
		return models.MarginaliaItem{}, err
	}
	for _, it := range items {
		if it.Line == loc.Line {
			return it, nil
		}
	}
	return models.MarginaliaItem{}, apperr.ErrNotFound
}
