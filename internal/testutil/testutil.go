// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/serranito-society/serranito/internal/auth"
	"github.com/serranito-society/serranito/internal/store"
)

// ServiceRoleKey is the elevated credential registered by TestDB.
const ServiceRoleKey = "test-service-role-key-0123456789abcdef"

// CommonPassword is the shared login password registered by TestDB.
const CommonPassword = "serranito-en-su-punto"

// TestLogger creates a logger that discards everything below ERROR.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a SQLite database in a temp dir with migrations applied,
// the test service key registered and the shared password set.
// The database is closed when the test ends.
func TestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "serranito-test.db")
	db, err := store.NewDB(store.DriverSQLite, dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	ctx := context.Background()
	if err := store.Seed(ctx, db, store.SeedOptions{ServiceRoleKey: ServiceRoleKey}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	hash, err := auth.HashPassword(CommonPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := store.NewProvisioning(db).SetConfig(ctx, store.ConfigKeyCommonPassword, hash); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}

	return db
}

// CreateUser provisions an account directly, bypassing login.
func CreateUser(t *testing.T, db *sqlx.DB, email string, isAdmin bool) store.User {
	t.Helper()

	u, err := store.NewProvisioning(db).CreateUser(context.Background(), store.CreateUserParams{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: email,
		IsAdmin:     isAdmin,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

// CreatePost inserts a post authored by authorID.
func CreatePost(t *testing.T, db *sqlx.DB, authorID, title string) store.Post {
	t.Helper()

	p, err := store.NewProvisioning(db).CreatePost(context.Background(), store.CreatePostParams{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   "<p>" + title + "</p>",
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreatePost(%s): %v", title, err)
	}
	return p
}
