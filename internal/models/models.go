// Package models defines the domain types for Laguz.
package models

import "time"

// Kind identifies which payload variant an Entry carries.
type Kind string

const (
	KindNumber      Kind = "number"
	KindNumberArray Kind = "number_array"
	KindShortText   Kind = "short_text"
	KindLongText    Kind = "long_text"
)

// Valid reports whether k is one of the four recognized payload kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindNumber, KindNumberArray, KindShortText, KindLongText:
		return true
	}
	return false
}

// User is an authenticated principal. Every LogBook belongs to exactly one.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// LogBook is a named collection of entries owned by one user. The slug is
// derived from the title at creation time and never changes afterwards;
// (owner, slug) is unique.
type LogBook struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"-"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Entry is a single timestamped record in a log book. Kind names the active
// payload variant; the other payload fields are kept empty on save.
type Entry struct {
	ID          int64     `json:"id"`
	BookID      int64     `json:"-"`
	OccurredAt  time.Time `json:"occurred_at"`
	Kind        Kind      `json:"kind"`
	Number      *float64  `json:"number,omitempty"`
	NumberArray []float64 `json:"number_array,omitempty"`
	ShortText   string    `json:"short_text,omitempty"`
	LongText    string    `json:"long_text,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
