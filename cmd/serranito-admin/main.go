// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Command serranito-admin provisions privileges and credentials out of
// band. It is the only writer of the admin flag.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/serranito-society/serranito/internal/auth"
	"github.com/serranito-society/serranito/internal/config"
	"github.com/serranito-society/serranito/internal/model"
	"github.com/serranito-society/serranito/internal/service"
	"github.com/serranito-society/serranito/internal/store"
)

const usage = `serranito-admin - provisioning for the Serranito Society server

Usage: %s <command> [arguments]

Commands:
  grant-admin <email>       Grant the admin role (creates the account if needed)
  revoke-admin <email>      Revoke the admin role
  set-password <password>   Set the community's shared login password
  set-service-key <key>     Register the fingerprint of a new service role key
  list-admins               List accounts with the admin role
  migrate                   Apply database migrations

The database is taken from SERRANITO_DB_DRIVER and SERRANITO_DB_URL.
`

func main() {
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, usage, os.Args[0])
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	db, err := store.NewDB(cfg.DBDriver, cfg.DBURL)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: opening database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := runCommand(context.Background(), db, flag.Args(), os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// errUsage reports a malformed command line.
var errUsage = errors.New("invalid usage; run with -h for help")

func runCommand(ctx context.Context, db *sqlx.DB, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]

	if cmd == "migrate" {
		if err := store.Migrate(db); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, "migrations applied")
		return nil
	}

	q := store.NewProvisioning(db)
	audit := service.NewEventService(q)

	switch cmd {
	case "grant-admin", "revoke-admin":
		if len(rest) != 1 {
			return errUsage
		}
		u, err := setAdmin(ctx, q, rest[0], cmd == "grant-admin")
		if err != nil {
			return err
		}
		_ = audit.LogUserEvent(ctx, model.EventLevelWarning, "Admin role changed", u.ID,
			map[string]any{"email": u.Email, "is_admin": u.IsAdmin, "source": "cli"})
		_, _ = fmt.Fprintf(out, "%s: is_admin=%t\n", u.Email, u.IsAdmin)
		return nil

	case "set-password":
		if len(rest) != 1 || rest[0] == "" {
			return errUsage
		}
		hash, err := auth.HashPassword(rest[0])
		if err != nil {
			return err
		}
		if err := q.SetConfig(ctx, store.ConfigKeyCommonPassword, hash); err != nil {
			return fmt.Errorf("storing password hash: %w", err)
		}
		_ = audit.LogConfigEvent(ctx, model.EventLevelWarning, "Shared password changed", "",
			map[string]any{"source": "cli"})
		_, _ = fmt.Fprintln(out, "shared password updated")
		return nil

	case "set-service-key":
		if len(rest) != 1 {
			return errUsage
		}
		if len(rest[0]) < config.MinServiceRoleKeyLength {
			return fmt.Errorf("service key must be at least %d bytes long", config.MinServiceRoleKeyLength)
		}
		if err := q.SetConfig(ctx, store.ConfigKeyServiceRoleKey, auth.Fingerprint(rest[0])); err != nil {
			return fmt.Errorf("storing service key fingerprint: %w", err)
		}
		_ = audit.LogConfigEvent(ctx, model.EventLevelWarning, "Service role key replaced", "",
			map[string]any{"source": "cli"})
		_, _ = fmt.Fprintln(out, "service key registered; restart the server with the new SERRANITO_SERVICE_ROLE_KEY")
		return nil

	case "list-admins":
		users, err := q.ListUsers(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.IsAdmin {
				_, _ = fmt.Fprintf(out, "%s\t%s\n", u.Email, u.ID)
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// setAdmin sets the privilege flag. Granting to an unknown email creates
// the account so admins can be provisioned before their first login.
func setAdmin(ctx context.Context, q *store.Queries, email string, isAdmin bool) (store.User, error) {
	email = service.NormalizeIdentity(email)
	if email == "" {
		return store.User{}, errUsage
	}

	u, err := q.SetUserAdmin(ctx, email, isAdmin)
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows) && isAdmin:
		local, _, _ := strings.Cut(email, "@")
		u, err = q.CreateUser(ctx, store.CreateUserParams{
			ID:          uuid.NewString(),
			Email:       email,
			DisplayName: local,
			IsAdmin:     true,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			return store.User{}, fmt.Errorf("creating account: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		return store.User{}, fmt.Errorf("no account for %s", email)
	default:
		return store.User{}, err
	}
	return u, nil
}
