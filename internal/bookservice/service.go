// Package bookservice implements the log-book and entry operations on top
// of the ownership-scoped store.
package bookservice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/auth"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/payload"
	"github.com/starford/laguz/internal/slug"
	"github.com/starford/laguz/internal/store"
)

// slugRetries bounds how often a create retries allocation after losing a
// slug race to a concurrent insert.
const slugRetries = 3

// Notifier receives mutation events after successful writes. A nil
// Notifier disables notifications.
type Notifier interface {
	PublishBookEvent(ownerID, kind, slug string)
	PublishEntryEvent(ownerID, kind, slug string, entryID int64)
}

// Service coordinates store, slug allocation, and payload logic.
type Service struct {
	store    store.Store
	notifier Notifier
}

// NewService creates a new book service.
func NewService(st store.Store, notifier Notifier) *Service {
	return &Service{store: st, notifier: notifier}
}

// BookDetail is a book together with its entries, newest first.
type BookDetail struct {
	models.LogBook
	Entries []EntryDetail `json:"entries"`
}

// EntryDetail is the API representation of an entry. Kind is the active
// variant (stored discriminator, or precedence inference for rows without
// one) and NumberArrayText the editable text form of a number array.
type EntryDetail struct {
	models.Entry
	NumberArrayText string `json:"number_array_text,omitempty"`
}

// EntryInput carries a new or updated entry: an optional occurred-at
// override and the multiplexed payload.
type EntryInput struct {
	OccurredAt *time.Time
	Payload    payload.Input
}

func entryDetail(e models.Entry) EntryDetail {
	d := EntryDetail{Entry: e}
	d.Kind = payload.ActiveKind(&e)
	if d.Kind == models.KindNumberArray {
		d.NumberArrayText = payload.FormatNumberList(e.NumberArray)
	}
	return d
}

// --- Users ---

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &apperr.ValidationError{Field: "username", Msg: "is required"}
	}
	if len(password) < 8 {
		return nil, &apperr.ValidationError{Field: "password", Msg: "must be at least 8 characters"}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies credentials and returns the user. Unknown users
// and bad passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, err
	}
	if err := auth.ComparePassword(u.PasswordHash, password); err != nil {
		return nil, apperr.ErrUnauthorized
	}
	return u, nil
}

// UserByUsername resolves a user by login name.
func (s *Service) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.store.GetUserByUsername(ctx, username)
}

// --- Log books ---

// ListBooks returns the owner's books ordered by title.
func (s *Service) ListBooks(ctx context.Context, ownerID string) ([]models.LogBook, error) {
	return s.store.ListBooks(ctx, ownerID)
}

// GetBook returns one book with its entries ordered by occurred_at desc,
// then id desc.
func (s *Service) GetBook(ctx context.Context, ownerID, bookSlug string) (*BookDetail, error) {
	b, err := s.store.GetBook(ctx, ownerID, bookSlug)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListEntries(ctx, ownerID, bookSlug)
	if err != nil {
		return nil, err
	}
	entries := make([]EntryDetail, len(rows))
	for i, e := range rows {
		entries[i] = entryDetail(e)
	}
	return &BookDetail{LogBook: *b, Entries: entries}, nil
}

// CreateBook allocates a slug for title and persists the book. The
// allocator's exists-probe is optimistic; when a concurrent create wins the
// unique index, allocation is retried before the conflict is surfaced.
func (s *Service) CreateBook(ctx context.Context, ownerID, title, description string) (*models.LogBook, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &apperr.ValidationError{Field: "title", Msg: "is required"}
	}
	if len(title) > 120 {
		return nil, &apperr.ValidationError{Field: "title", Msg: "exceeds 120 characters"}
	}

	var lastErr error
	for attempt := 0; attempt <= slugRetries; attempt++ {
		chosen, err := slug.Allocate(ctx, title, func(ctx context.Context, candidate string) (bool, error) {
			return s.store.SlugExists(ctx, ownerID, candidate)
		})
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		b := &models.LogBook{
			OwnerID:     ownerID,
			Title:       title,
			Slug:        chosen,
			Description: description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.CreateBook(ctx, b); err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		if s.notifier != nil {
			s.notifier.PublishBookEvent(ownerID, "created", b.Slug)
		}
		return b, nil
	}
	return nil, lastErr
}

// UpdateBook persists a title/description change. The slug never changes.
func (s *Service) UpdateBook(ctx context.Context, ownerID, bookSlug, title, description string) (*models.LogBook, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &apperr.ValidationError{Field: "title", Msg: "is required"}
	}
	b, err := s.store.GetBook(ctx, ownerID, bookSlug)
	if err != nil {
		return nil, err
	}
	b.Title = title
	b.Description = description
	b.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateBook(ctx, b); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.PublishBookEvent(ownerID, "updated", b.Slug)
	}
	return b, nil
}

// DeleteBook removes a book and, via the FK cascade, all of its entries.
func (s *Service) DeleteBook(ctx context.Context, ownerID, bookSlug string) error {
	if err := s.store.DeleteBook(ctx, ownerID, bookSlug); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.PublishBookEvent(ownerID, "deleted", bookSlug)
	}
	return nil
}

// --- Entries ---

// CreateEntry appends an entry to the owner's book named by bookSlug.
func (s *Service) CreateEntry(ctx context.Context, ownerID, bookSlug string, in EntryInput) (*EntryDetail, error) {
	b, err := s.store.GetBook(ctx, ownerID, bookSlug)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	e := &models.Entry{
		BookID:     b.ID,
		OccurredAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.OccurredAt != nil {
		e.OccurredAt = in.OccurredAt.UTC()
	}
	if err := payload.Apply(e, in.Payload); err != nil {
		return nil, err
	}
	if err := s.store.CreateEntry(ctx, e); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.PublishEntryEvent(ownerID, "created", bookSlug, e.ID)
	}
	d := entryDetail(*e)
	return &d, nil
}

// GetEntry fetches one entry through the owner+slug gate.
func (s *Service) GetEntry(ctx context.Context, ownerID, bookSlug string, id int64) (*EntryDetail, error) {
	e, err := s.store.GetEntry(ctx, ownerID, bookSlug, id)
	if err != nil {
		return nil, err
	}
	d := entryDetail(*e)
	return &d, nil
}

// UpdateEntry replaces an entry's payload and occurred-at. Applying the
// payload clears the inactive variant fields, so switching kinds cannot
// leave stale values behind.
func (s *Service) UpdateEntry(ctx context.Context, ownerID, bookSlug string, id int64, in EntryInput) (*EntryDetail, error) {
	e, err := s.store.GetEntry(ctx, ownerID, bookSlug, id)
	if err != nil {
		return nil, err
	}
	if in.OccurredAt != nil {
		e.OccurredAt = in.OccurredAt.UTC()
	}
	if err := payload.Apply(e, in.Payload); err != nil {
		return nil, err
	}
	e.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateEntry(ctx, ownerID, bookSlug, e); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.PublishEntryEvent(ownerID, "updated", bookSlug, e.ID)
	}
	d := entryDetail(*e)
	return &d, nil
}

// DeleteEntry removes one entry through the owner+slug gate.
func (s *Service) DeleteEntry(ctx context.Context, ownerID, bookSlug string, id int64) error {
	if err := s.store.DeleteEntry(ctx, ownerID, bookSlug, id); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.PublishEntryEvent(ownerID, "deleted", bookSlug, id)
	}
	return nil
}
