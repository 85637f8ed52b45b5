package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notesift/internal/apperr"
	"github.com/starford/notesift/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc     *noteservice.Service
	metrics *Metrics
}

// NewHandler creates a new Handler. metrics may be nil.
func NewHandler(svc *noteservice.Service, metrics *Metrics) *Handler {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Handler{svc: svc, metrics: metrics}
}

// notePath extracts the note path from the URL (everything after the route prefix).
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
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

// writeNoteError maps service errors for single-note routes.
func writeNoteError(w http.ResponseWriter, op, path string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidPath):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
	default:
		slog.Error(op+" failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes with optional filtering
//	@Tags			notes
//	@Produce		json
//	@Param			category	query		string	false	"Category prefix, slash separated"
//	@Param			tag			query		string	false	"Filter by tag"
//	@Success		200			{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := strings.Trim(q.Get("category"), "/")
	tag := q.Get("tag")

	items, err := h.svc.ListNotes(r.Context(), category, tag)
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a single note by path
//	@Tags			notes
//	@Produce		json
//	@Param			path			path		string	true	"Note path"
//	@Param			If-None-Match	header		string	false	"Checksum from a previous response"
//	@Success		200				{object}	NoteDetail
//	@Success		304				"Not modified"
//	@Failure		404				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		writeNoteError(w, "get note", path, err)
		return
	}

	etag := `"` + note.Checksum + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Trim(match, `"`) == note.Checksum {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// RenderNote handles GET /api/render/*.
//
//	@Summary		Render a note body to HTML
//	@Tags			notes
//	@Produce		html
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{string}	string
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/render/{path} [get]
func (h *Handler) RenderNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	html, err := h.svc.RenderNote(r.Context(), path)
	if err != nil {
		writeNoteError(w, "render note", path, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

// Search handles GET /api/search.
//
//	@Summary		Regular-expression search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Pattern matched against filename, title, tags, category and content"
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

	started := time.Now()
	results, err := h.svc.Search(r.Context(), q)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidPattern) {
			h.metrics.observeSearch(outcomeInvalid, started)
			writeJSON(w, http.StatusBadRequest, errorBody("invalid pattern"))
			return
		}
		h.metrics.observeSearch(outcomeError, started)
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	outcome := outcomeMatched
	if len(results) == 0 {
		outcome = outcomeEmpty
	}
	h.metrics.observeSearch(outcome, started)

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Categories handles GET /api/categories.
//
//	@Summary		Get the category tree
//	@Tags			categories
//	@Produce		json
//	@Success		200	{object}	CategoryNode
//	@Security		BearerAuth
//	@Router			/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.Categories(r.Context())
	if err != nil {
		slog.Error("categories failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// Stats handles GET /api/stats.
//
//	@Summary		Note counts per category and tag
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Stats(r.Context())
	if err != nil {
		slog.Error("stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
