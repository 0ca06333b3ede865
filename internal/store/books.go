package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

// SlugExists reports whether the owner already has a book with this slug.
func (db *DB) SlugExists(ctx context.Context, ownerID, slug string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx, `
		SELECT 1 FROM log_books WHERE owner_id = ? AND slug = ?
	`, ownerID, slug).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: slug exists: %w", err)
	}
	return true, nil
}

// CreateBook inserts a book and fills in its assigned id. Losing a slug
// race to a concurrent insert surfaces as ErrConflict.
func (db *DB) CreateBook(ctx context.Context, b *models.LogBook) error {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO log_books (owner_id, title, slug, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, b.OwnerID, b.Title, b.Slug, b.Description, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if mapped := mapConstraintErr(err); errors.Is(mapped, apperr.ErrConflict) {
			return mapped
		}
		return fmt.Errorf("store: create book: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: create book id: %w", err)
	}
	return nil
}

// ListBooks returns all books owned by ownerID, ordered by title.
func (db *DB) ListBooks(ctx context.Context, ownerID string) ([]models.LogBook, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, owner_id, title, slug, description, created_at, updated_at
		FROM log_books WHERE owner_id = ?
		ORDER BY title
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store: list books: %w", err)
	}
	defer rows.Close()

	var out []models.LogBook
	for rows.Next() {
		var b models.LogBook
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Title, &b.Slug, &b.Description, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBook fetches one book by owner and slug. A slug that resolves under a
// different owner is indistinguishable from one that does not exist.
func (db *DB) GetBook(ctx context.Context, ownerID, slug string) (*models.LogBook, error) {
	b := &models.LogBook{}
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, owner_id, title, slug, description, created_at, updated_at
		FROM log_books WHERE owner_id = ? AND slug = ?
	`, ownerID, slug).Scan(&b.ID, &b.OwnerID, &b.Title, &b.Slug, &b.Description, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: get book: %w", err)
	}
	return b, nil
}

// UpdateBook persists title/description changes. The slug is immutable and
// deliberately absent from the SET clause.
func (db *DB) UpdateBook(ctx context.Context, b *models.LogBook) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE log_books SET title = ?, description = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`, b.Title, b.Description, b.UpdatedAt, b.ID, b.OwnerID)
	if err != nil {
		return fmt.Errorf("store: update book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update book: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteBook removes a book; its entries go with it via the FK cascade.
func (db *DB) DeleteBook(ctx context.Context, ownerID, slug string) error {
	res, err := db.conn.ExecContext(ctx, `
		DELETE FROM log_books WHERE owner_id = ? AND slug = ?
	`, ownerID, slug)
	if err != nil {
		return fmt.Errorf("store: delete book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete book: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
