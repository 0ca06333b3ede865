package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

const entryColumns = `e.id, e.book_id, e.occurred_at, e.kind, e.number, e.number_array,
	e.short_text, e.long_text, e.created_at, e.updated_at`

// CreateEntry inserts an entry under an already-resolved book. Callers must
// obtain BookID through GetBook so the owner filter has been applied.
func (db *DB) CreateEntry(ctx context.Context, e *models.Entry) error {
	arr, err := marshalNumberArray(e.NumberArray)
	if err != nil {
		return err
	}
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO entries (book_id, occurred_at, kind, number, number_array,
			short_text, long_text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.BookID, e.OccurredAt, string(e.Kind), nullFloat(e.Number), arr,
		e.ShortText, e.LongText, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: create entry: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: create entry id: %w", err)
	}
	return nil
}

// ListEntries returns a book's entries newest first (occurred_at desc, then
// id desc), owner-gated through the log_books join.
func (db *DB) ListEntries(ctx context.Context, ownerID, slug string) ([]models.Entry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries e
		JOIN log_books b ON b.id = e.book_id
		WHERE b.owner_id = ? AND b.slug = ?
		ORDER BY e.occurred_at DESC, e.id DESC
	`, ownerID, slug)
	if err != nil {
		return nil, fmt.Errorf("store: list entries: %w", err)
	}
	defer rows.Close()

	var out []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetEntry fetches a single entry through its parent book. A mismatched
// parent slug or foreign owner yields ErrNotFound.
func (db *DB) GetEntry(ctx context.Context, ownerID, slug string, id int64) (*models.Entry, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries e
		JOIN log_books b ON b.id = e.book_id
		WHERE b.owner_id = ? AND b.slug = ? AND e.id = ?
	`, ownerID, slug, id)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// UpdateEntry persists entry changes, again gated through the parent join.
func (db *DB) UpdateEntry(ctx context.Context, ownerID, slug string, e *models.Entry) error {
	arr, err := marshalNumberArray(e.NumberArray)
	if err != nil {
		return err
	}
	res, err := db.conn.ExecContext(ctx, `
		UPDATE entries SET occurred_at = ?, kind = ?, number = ?, number_array = ?,
			short_text = ?, long_text = ?, updated_at = ?
		WHERE id = ? AND book_id IN (
			SELECT id FROM log_books WHERE owner_id = ? AND slug = ?
		)
	`, e.OccurredAt, string(e.Kind), nullFloat(e.Number), arr,
		e.ShortText, e.LongText, e.UpdatedAt, e.ID, ownerID, slug)
	if err != nil {
		return fmt.Errorf("store: update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update entry: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteEntry removes a single entry, gated through the parent join.
func (db *DB) DeleteEntry(ctx context.Context, ownerID, slug string, id int64) error {
	res, err := db.conn.ExecContext(ctx, `
		DELETE FROM entries
		WHERE id = ? AND book_id IN (
			SELECT id FROM log_books WHERE owner_id = ? AND slug = ?
		)
	`, id, ownerID, slug)
	if err != nil {
		return fmt.Errorf("store: delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete entry: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	e := &models.Entry{}
	var (
		kind   string
		number sql.NullFloat64
		arr    sql.NullString
	)
	err := row.Scan(&e.ID, &e.BookID, &e.OccurredAt, &kind, &number, &arr,
		&e.ShortText, &e.LongText, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan entry: %w", err)
	}
	e.Kind = models.Kind(kind)
	if number.Valid {
		n := number.Float64
		e.Number = &n
	}
	if arr.Valid && arr.String != "" {
		if err := json.Unmarshal([]byte(arr.String), &e.NumberArray); err != nil {
			return nil, fmt.Errorf("store: decode number_array for entry %d: %w", e.ID, err)
		}
	}
	return e, nil
}

func marshalNumberArray(values []float64) (sql.NullString, error) {
	if len(values) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("store: encode number_array: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
