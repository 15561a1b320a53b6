// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/serranito-society/serranito/internal/auth"
)

// SeedOptions controls first-boot provisioning.
type SeedOptions struct {
	// ServiceRoleKey is registered (as a fingerprint) when no key is registered yet.
	ServiceRoleKey string
}

// Seed registers the service key fingerprint on first boot. An already
// registered fingerprint is left alone; rotating it is the provisioning
// CLI's job.
func Seed(ctx context.Context, db *sqlx.DB, opts SeedOptions) error {
	if opts.ServiceRoleKey == "" {
		return nil
	}

	queries := NewProvisioning(db)

	existing, err := queries.GetConfig(ctx, ConfigKeyServiceRoleKey)
	if err == nil {
		if !auth.MatchFingerprint(opts.ServiceRoleKey, existing) {
			slog.Warn("configured service key does not match the registered fingerprint",
				"category", "config")
		}
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking service key fingerprint: %w", err)
	}

	if err := queries.SetConfig(ctx, ConfigKeyServiceRoleKey, auth.Fingerprint(opts.ServiceRoleKey)); err != nil {
		return fmt.Errorf("registering service key: %w", err)
	}

	slog.Info("registered service key fingerprint")
	return nil
}
