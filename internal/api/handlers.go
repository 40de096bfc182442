package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/latazadehomero/cornell-marginalia/internal/apperr"
	"github.com/latazadehomero/cornell-marginalia/internal/decor"
	"github.com/latazadehomero/cornell-marginalia/internal/graph"
	"github.com/latazadehomero/cornell-marginalia/internal/index"
	"github.com/latazadehomero/cornell-marginalia/internal/itemservice"
	"github.com/latazadehomero/cornell-marginalia/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *itemservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *itemservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. sources%2Fplato.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListItems handles GET /api/items.
//
//	@Summary		List indexed annotations
//	@Tags			items
//	@Produce		json
//	@Param			document	query		string	false	"Restrict to one document"
//	@Param			flashcards	query		bool	false	"Only flashcard-flagged items"
//	@Success		200			{object}	ItemListResponse
//	@Security		BearerAuth
//	@Router			/items [get]
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	flashcardsOnly, _ := strconv.ParseBool(q.Get("flashcards"))

	items, err := h.svc.Items(r.Context(), q.Get("document"), flashcardsOnly)
	if err != nil {
		slog.Error("list items failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if items == nil {
		items = []models.MarginaliaItem{}
	}
	writeJSON(w, http.StatusOK, ItemListResponse{Items: items, Total: len(items)})
}

// Threads handles GET /api/threads.
//
//	@Summary		Get the cross-document thread forest
//	@Tags			threads
//	@Produce		json
//	@Param			q	query		string	false	"Filter by text substring or exact color"
//	@Success		200	{object}	ThreadsResponse
//	@Security		BearerAuth
//	@Router			/threads [get]
func (h *Handler) Threads(w http.ResponseWriter, r *http.Request) {
	forest, err := h.svc.Threads(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		slog.Error("threads failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if forest == nil {
		forest = []*graph.Node{}
	}
	writeJSON(w, http.StatusOK, ThreadsResponse{Threads: forest})
}

// Backlinks handles GET /api/backlinks.
//
//	@Summary		List annotations linking to a target reference
//	@Tags			threads
//	@Produce		json
//	@Param			target	query		string	true	"Target reference, e.g. plato#^ab12cd"
//	@Success		200		{object}	BacklinksResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	if target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'target' is required"))
		return
	}
	refs, err := h.svc.Backlinks(r.Context(), target)
	if err != nil {
		slog.Error("backlinks failed", slog.String("target", target), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if refs == nil {
		refs = []index.ItemRef{}
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Backlinks: refs})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across annotation texts
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Decorate handles POST /api/decorate.
//
//	@Summary		Compute editor overlays for a document snapshot
//	@Tags			decor
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DecorateRequest	true	"Snapshot to decorate"
//	@Success		200		{object}	DecorateResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/decorate [post]
func (h *Handler) Decorate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req DecorateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	set, err := h.svc.Decorate(r.Context(), decor.Snapshot{
		Path:       req.Path,
		Text:       req.Text,
		Viewport:   req.Viewport,
		Cursors:    req.Cursors,
		RecallMode: req.RecallMode,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("decorate failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	if set == nil {
		set = decor.OverlaySet{}
	}
	writeJSON(w, http.StatusOK, DecorateResponse{Overlays: set})
}

// Stitch handles POST /api/stitch.
//
//	@Summary		Link source annotations to target annotations
//	@Tags			threads
//	@Accept			json
//	@Produce		json
//	@Param			body	body		StitchRequest	true	"Items to connect"
//	@Success		200		{object}	stitch.Result
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/stitch [post]
func (h *Handler) Stitch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req StitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Sources) == 0 || len(req.Targets) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("sources and targets are required"))
		return
	}
	res, err := h.svc.Stitch(r.Context(), req.Sources, req.Targets, req.Confirmed)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("item not found"))
		case errors.Is(err, apperr.ErrDeclined):
			writeJSON(w, http.StatusConflict, errorBody("batch stitch requires confirmation"))
		default:
			slog.Error("stitch failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GenerateFlashcards handles POST /api/flashcards/*.
//
//	@Summary		Extract flashcards into the document's flashcard section
//	@Tags			flashcards
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	FlashcardsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/flashcards/{path} [post]
func (h *Handler) GenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	res, err := h.svc.GenerateFlashcards(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("flashcards failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, FlashcardsResponse{Found: res.Found, Added: res.Added})
}

// Pinboard handles GET /api/pinboard.
//
//	@Summary		Get the current pinboard contents
//	@Tags			pinboard
//	@Produce		json
//	@Success		200	{object}	PinboardResponse
//	@Security		BearerAuth
//	@Router			/pinboard [get]
func (h *Handler) Pinboard(w http.ResponseWriter, r *http.Request) {
	entries := h.svc.PinboardEntries(r.Context())
	if entries == nil {
		entries = []models.PinboardEntry{}
	}
	writeJSON(w, http.StatusOK, PinboardResponse{Entries: entries})
}

// PinItem handles POST /api/pinboard/items.
//
//	@Summary		Pin an annotation onto the board
//	@Tags			pinboard
//	@Accept			json
//	@Param			body	body	PinItemRequest	true	"Item to pin"
//	@Success		204		"Pinned"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pinboard/items [post]
func (h *Handler) PinItem(w http.ResponseWriter, r *http.Request) {
	var req PinItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Document == "" || req.Line <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("document and line are required"))
		return
	}
	err := h.svc.PinItem(r.Context(), ItemLocator{Document: req.Document, Line: req.Line}, req.Indent)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("item not found"))
		} else {
			slog.Error("pin item failed", slog.String("document", req.Document), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PinTitle handles POST /api/pinboard/titles.
//
//	@Summary		Pin a section title onto the board
//	@Tags			pinboard
//	@Accept			json
//	@Param			body	body	PinTitleRequest	true	"Title to pin"
//	@Success		204		"Pinned"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pinboard/titles [post]
func (h *Handler) PinTitle(w http.ResponseWriter, r *http.Request) {
	var req PinTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	h.svc.PinTitle(r.Context(), req.Title, req.Level)
	w.WriteHeader(http.StatusNoContent)
}

// ClearPinboard handles DELETE /api/pinboard.
//
//	@Summary		Empty the pinboard
//	@Tags			pinboard
//	@Success		204	"Cleared"
//	@Security		BearerAuth
//	@Router			/pinboard [delete]
func (h *Handler) ClearPinboard(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearPinboard(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// ExportPinboard handles GET /api/pinboard/export.
//
//	@Summary		Export the pinboard
//	@Tags			pinboard
//	@Produce		json
//	@Param			format	query		string	false	"Export format"	Enums(markdown, outline, canvas)
//	@Success		200		{string}	string	"Rendered export"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pinboard/export [get]
func (h *Handler) ExportPinboard(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	data, contentType, err := h.svc.ExportPinboard(r.Context(), format)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown format"))
		} else {
			slog.Error("pinboard export failed", slog.String("format", format), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// CopyPinboard handles POST /api/pinboard/copy.
//
//	@Summary		Copy the pinboard outline to the system clipboard
//	@Tags			pinboard
//	@Success		204	"Copied"
//	@Failure		500	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pinboard/copy [post]
func (h *Handler) CopyPinboard(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CopyPinboard(r.Context()); err != nil {
		slog.Error("pinboard copy failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("clipboard unavailable"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
