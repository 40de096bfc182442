package api

import (
	"github.com/latazadehomero/cornell-marginalia/internal/decor"
	"github.com/latazadehomero/cornell-marginalia/internal/graph"
	"github.com/latazadehomero/cornell-marginalia/internal/index"
	"github.com/latazadehomero/cornell-marginalia/internal/itemservice"
	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

// ItemLocator identifies one indexed annotation (aliased from the domain layer).
type ItemLocator = itemservice.ItemLocator

// DecorateRequest is the request body for computing editor overlays.
// Text is optional; when empty the stored document content is used.
type DecorateRequest struct {
	Path       string        `json:"path" example:"sources/plato.md" validate:"required"`
	Text       string        `json:"text,omitempty"`
	Viewport   []decor.Range `json:"viewport,omitempty"`
	Cursors    []decor.Range `json:"cursors,omitempty"`
	RecallMode bool          `json:"recall_mode,omitempty"`
}

// DecorateResponse wraps the computed overlay set.
type DecorateResponse struct {
	Overlays []decor.Overlay `json:"overlays" validate:"required"`
}

// StitchRequest is the request body for linking annotations.
// Confirmed acknowledges a multi-edge batch; a batch with more than one
// edge is declined without it.
type StitchRequest struct {
	Sources   []ItemLocator `json:"sources" validate:"required"`
	Targets   []ItemLocator `json:"targets" validate:"required"`
	Confirmed bool          `json:"confirmed"`
}

// FlashcardsResponse reports the outcome of flashcard generation.
type FlashcardsResponse struct {
	Found int `json:"found" example:"3" validate:"required"`
	Added int `json:"added" example:"2" validate:"required"`
}

// PinItemRequest pins one annotation onto the board.
type PinItemRequest struct {
	Document string `json:"document" example:"sources/plato.md" validate:"required"`
	Line     int    `json:"line" example:"12" validate:"required"`
	Indent   int    `json:"indent" example:"0"`
}

// PinTitleRequest pins a section title onto the board.
type PinTitleRequest struct {
	Title string `json:"title" example:"Chapter One" validate:"required"`
	Level int    `json:"level" example:"2"`
}

// ItemListResponse wraps item listings.
type ItemListResponse struct {
	Items []models.MarginaliaItem `json:"items" validate:"required"`
	Total int                     `json:"total" example:"42" validate:"required"`
}

// ThreadsResponse wraps the thread forest.
type ThreadsResponse struct {
	Threads []*graph.Node `json:"threads" validate:"required"`
}

// BacklinksResponse wraps backlink lookups.
type BacklinksResponse struct {
	Backlinks []index.ItemRef `json:"backlinks" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// PinboardResponse wraps the current pinboard contents.
type PinboardResponse struct {
	Entries []models.PinboardEntry `json:"entries" validate:"required"`
}
