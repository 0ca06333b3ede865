package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/auth"
	"github.com/starford/laguz/internal/bookservice"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/payload"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *bookservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *bookservice.Service) *Handler {
	return &Handler{svc: svc}
}

func principal(r *http.Request) string {
	id, _ := auth.UserID(r.Context())
	return id
}

func bookSlug(r *http.Request) string {
	return chi.URLParam(r, "slug")
}

func entryID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// occurredAtFormats accepts RFC3339 and the datetime-local form value.
var occurredAtFormats = []string{time.RFC3339, "2006-01-02T15:04"}

func parseOccurredAt(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range occurredAtFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, &apperr.ValidationError{Field: "occurred_at", Value: s, Msg: "invalid timestamp"}
}

func decodeEntryInput(w http.ResponseWriter, r *http.Request) (bookservice.EntryInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return bookservice.EntryInput{}, false
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return bookservice.EntryInput{}, false
	}
	occurredAt, err := parseOccurredAt(req.OccurredAt)
	if err != nil {
		writeErr(w, err, "parse occurred_at")
		return bookservice.EntryInput{}, false
	}
	return bookservice.EntryInput{
		OccurredAt: occurredAt,
		Payload: payload.Input{
			Kind:            models.Kind(req.Kind),
			Number:          req.Number,
			NumberArrayText: req.NumberArrayText,
			ShortText:       req.ShortText,
			LongText:        req.LongText,
		},
	}, true
}

// ListBooks handles GET /api/books.
//
//	@Summary		List the principal's log books ordered by title
//	@Tags			books
//	@Produce		json
//	@Success		200	{object}	BookListResponse
//	@Security		BearerAuth
//	@Router			/books [get]
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.svc.ListBooks(r.Context(), principal(r))
	if err != nil {
		writeErr(w, err, "list books failed")
		return
	}
	if books == nil {
		books = []models.LogBook{}
	}
	writeJSON(w, http.StatusOK, BookListResponse{Books: books, Total: len(books)})
}

// GetBook handles GET /api/books/{slug}.
//
//	@Summary		Get a log book with its entries, newest first
//	@Tags			books
//	@Produce		json
//	@Param			slug	path		string	true	"Book slug"
//	@Success		200		{object}	BookDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/books/{slug} [get]
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.svc.GetBook(r.Context(), principal(r), bookSlug(r))
	if err != nil {
		writeErr(w, err, "get book failed")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// CreateBook handles POST /api/books.
//
//	@Summary		Create a log book; the slug is derived from the title
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			body	body		BookRequest	true	"Book to create"
//	@Success		201		{object}	models.LogBook
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/books [post]
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	book, err := h.svc.CreateBook(r.Context(), principal(r), req.Title, req.Description)
	if err != nil {
		writeErr(w, err, "create book failed")
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

// UpdateBook handles PUT /api/books/{slug}.
//
//	@Summary		Update a log book's title and description; slug is immutable
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string		true	"Book slug"
//	@Param			body	body		BookRequest	true	"Updated fields"
//	@Success		200		{object}	models.LogBook
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/books/{slug} [put]
func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	book, err := h.svc.UpdateBook(r.Context(), principal(r), bookSlug(r), req.Title, req.Description)
	if err != nil {
		writeErr(w, err, "update book failed")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/{slug}.
//
//	@Summary		Delete a log book and all of its entries
//	@Tags			books
//	@Param			slug	path	string	true	"Book slug"
//	@Success		204		"Book deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/books/{slug} [delete]
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteBook(r.Context(), principal(r), bookSlug(r)); err != nil {
		writeErr(w, err, "delete book failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateEntry handles POST /api/books/{slug}/entries.
//
//	@Summary		Append an entry holding one payload variant
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string			true	"Parent book slug"
//	@Param			body	body		EntryRequest	true	"Entry to create"
//	@Success		201		{object}	EntryDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/books/{slug}/entries [post]
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeEntryInput(w, r)
	if !ok {
		return
	}
	entry, err := h.svc.CreateEntry(r.Context(), principal(r), bookSlug(r), in)
	if err != nil {
		writeErr(w, err, "create entry failed")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// GetEntry handles GET /api/books/{slug}/entries/{id}.
//
//	@Summary		Get a single entry
//	@Tags			entries
//	@Produce		json
//	@Param			slug	path		string	true	"Parent book slug"
//	@Param			id		path		int		true	"Entry id"
//	@Success		200		{object}	EntryDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/books/{slug}/entries/{id} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	entry, err := h.svc.GetEntry(r.Context(), principal(r), bookSlug(r), id)
	if err != nil {
		writeErr(w, err, "get entry failed")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// UpdateEntry handles PUT /api/books/{slug}/entries/{id}.
//
//	@Summary		Replace an entry's payload; inactive variant fields are cleared
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string			true	"Parent book slug"
//	@Param			id		path		int				true	"Entry id"
//	@Param			body	body		EntryRequest	true	"Updated entry"
//	@Success		200		{object}	EntryDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/books/{slug}/entries/{id} [put]
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	in, ok := decodeEntryInput(w, r)
	if !ok {
		return
	}
	entry, err := h.svc.UpdateEntry(r.Context(), principal(r), bookSlug(r), id, in)
	if err != nil {
		writeErr(w, err, "update entry failed")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// DeleteEntry handles DELETE /api/books/{slug}/entries/{id}.
//
//	@Summary		Delete a single entry
//	@Tags			entries
//	@Param			slug	path	string	true	"Parent book slug"
//	@Param			id		path	int		true	"Entry id"
//	@Success		204		"Entry deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/books/{slug}/entries/{id} [delete]
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if err := h.svc.DeleteEntry(r.Context(), principal(r), bookSlug(r), id); err != nil {
		writeErr(w, err, "delete entry failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
