// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/serranito-society/serranito/internal/store"
)

// Identity is a caller resolved against the accounts table.
type Identity struct {
	AccountID    string
	Email        string
	IsPrivileged bool
}

// AccountReader is the store surface the resolver needs.
type AccountReader interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
}

// IdentityResolver maps a claimed identity to an account and its current
// privilege flag. It keeps no state between calls: every Resolve reads the
// account row again, so a revoked flag applies to the very next request.
type IdentityResolver struct {
	accounts AccountReader
}

// NewIdentityResolver creates a resolver reading from accounts.
func NewIdentityResolver(accounts AccountReader) *IdentityResolver {
	return &IdentityResolver{accounts: accounts}
}

var identityCaser = cases.Lower(language.Und)

// NormalizeIdentity trims and lower-cases a claimed identity.
func NormalizeIdentity(claimed string) string {
	return identityCaser.String(strings.TrimSpace(claimed))
}

// Resolve looks up the account for a claimed identity.
func (r *IdentityResolver) Resolve(ctx context.Context, claimed string) (Identity, error) {
	email := NormalizeIdentity(claimed)
	if email == "" {
		return Identity{}, ErrMissingIdentity
	}

	u, err := r.accounts.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, ErrUnknownAccount
	}
	if err != nil {
		return Identity{}, StoreError(err)
	}

	return Identity{
		AccountID:    u.ID,
		Email:        u.Email,
		IsPrivileged: u.IsAdmin,
	}, nil
}
