package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/latazadehomero/cornell-marginalia/internal/itemservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *itemservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Item listing and graph queries.
	r.Get("/items", h.ListItems)
	r.Get("/threads", h.Threads)
	r.Get("/backlinks", h.Backlinks)
	r.Get("/search", h.Search)

	// Decoration preview.
	r.Post("/decorate", h.Decorate)

	// Stitching.
	r.Post("/stitch", h.Stitch)

	// Flashcard extraction.
	r.Post("/flashcards/*", h.GenerateFlashcards)

	// Pinboard.
	r.Get("/pinboard", h.Pinboard)
	r.Delete("/pinboard", h.ClearPinboard)
	r.Post("/pinboard/items", h.PinItem)
	r.Post("/pinboard/titles", h.PinTitle)
	r.Get("/pinboard/export", h.ExportPinboard)
	r.Post("/pinboard/copy", h.CopyPinboard)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
