package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

// CreateUser inserts a new user. A duplicate username maps to
// ErrAlreadyExists.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if errors.Is(mapConstraintErr(err), apperr.ErrConflict) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("store: create user: %w", err)
	}
	return nil
}

// GetUserByUsername looks a user up by their login name.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users WHERE username = ?
	`, username))
}

// GetUserByID looks a user up by id.
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users WHERE id = ?
	`, id))
}

func (db *DB) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: scan user: %w", err)
	}
	return u, nil
}
