// Package testutil provides shared test helpers for setting up databases
// and users.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "laguz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestUser inserts a user with the given username and returns it.
func TestUser(t *testing.T, db *store.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}
