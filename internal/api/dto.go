package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/laguz/internal/bookservice"
	"github.com/starford/laguz/internal/models"
)

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Username string `json:"username" example:"alice" validate:"required"`
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" validate:"required"`
}

// Validate validates the registration payload.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 150)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
	)
}

// LoginRequest is the request body for opening a session.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Validate validates the login payload.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// SessionResponse is returned after a successful login.
type SessionResponse struct {
	Token string       `json:"token" validate:"required"`
	User  *models.User `json:"user" validate:"required"`
}

// BookRequest is the request body for creating or updating a log book.
type BookRequest struct {
	Title       string `json:"title" example:"Trip Notes" validate:"required"`
	Description string `json:"description,omitempty"`
}

// Validate validates the book payload.
func (r BookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 120)),
	)
}

// EntryRequest is the request body for creating or updating an entry. Kind
// selects the payload variant; only the matching value field is read.
type EntryRequest struct {
	Kind            string   `json:"kind" example:"number" validate:"required"`
	Number          *float64 `json:"number,omitempty" example:"72.5"`
	NumberArrayText string   `json:"number_array_text,omitempty" example:"1, 2.5, 3"`
	ShortText       string   `json:"short_text,omitempty"`
	LongText        string   `json:"long_text,omitempty"`
	OccurredAt      string   `json:"occurred_at,omitempty" example:"2026-01-15T09:30:00Z"`
}

// Validate validates the entry payload shape; variant-specific rules live
// in the payload package.
func (r EntryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind, validation.Required, validation.In(
			string(models.KindNumber), string(models.KindNumberArray),
			string(models.KindShortText), string(models.KindLongText))),
	)
}

// BookDetail is the full book response type (aliased from the domain
// layer).
type BookDetail = bookservice.BookDetail

// EntryDetail is the entry response type (aliased from the domain layer).
type EntryDetail = bookservice.EntryDetail

// BookListResponse wraps book listings.
type BookListResponse struct {
	Books []models.LogBook `json:"books" validate:"required"`
	Total int              `json:"total" example:"3" validate:"required"`
}
