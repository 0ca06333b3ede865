// Package store provides the SQLite-backed persistence layer. Every query
// that touches owned data is filtered by owner here, not at call sites:
// book reads carry an owner_id predicate and entry reads join through
// log_books, so a request can never see another principal's records.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store defines the persistence operations. Consumers should depend on
// this interface rather than the concrete *DB type to facilitate testing.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	SlugExists(ctx context.Context, ownerID, slug string) (bool, error)
	CreateBook(ctx context.Context, b *models.LogBook) error
	ListBooks(ctx context.Context, ownerID string) ([]models.LogBook, error)
	GetBook(ctx context.Context, ownerID, slug string) (*models.LogBook, error)
	UpdateBook(ctx context.Context, b *models.LogBook) error
	DeleteBook(ctx context.Context, ownerID, slug string) error

	CreateEntry(ctx context.Context, e *models.Entry) error
	ListEntries(ctx context.Context, ownerID, slug string) ([]models.Entry, error)
	GetEntry(ctx context.Context, ownerID, slug string, id int64) (*models.Entry, error)
	UpdateEntry(ctx context.Context, ownerID, slug string, e *models.Entry) error
	DeleteEntry(ctx context.Context, ownerID, slug string, id int64) error

	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// DB wraps a sql.DB with laguz-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies pending
// migrations.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &DB{conn: conn}, nil
}

// NewWithConn wraps an existing connection without running migrations.
// Used by tests that inject a mock connection.
func NewWithConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

func migrate(conn *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	goose.SetLogger(goose.NopLogger())
	return goose.Up(conn, "migrations")
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// mapConstraintErr translates SQLite unique-constraint violations into the
// apperr taxonomy so callers can distinguish a lost slug race from a
// genuine failure.
func mapConstraintErr(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		if se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return apperr.ErrConflict
		}
	}
	return err
}
