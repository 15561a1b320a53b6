// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/serranito-society/serranito/internal/auth"
	"github.com/serranito-society/serranito/internal/model"
	"github.com/serranito-society/serranito/internal/store"
)

// AccountStore is the store surface AccountService needs. The restricted
// handle satisfies it: none of these writes touch the privilege flag.
type AccountStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	UpsertLogin(ctx context.Context, arg store.UpsertLoginParams) (store.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) (store.User, error)
}

// AccountLister lists accounts for the admin panel.
type AccountLister interface {
	ListUsers(ctx context.Context) ([]store.User, error)
}

// AccountService handles member login and profile changes.
type AccountService struct {
	accounts AccountStore
	events   *EventService
	now      func() time.Time
}

// NewAccountService creates an AccountService. events may be nil.
func NewAccountService(accounts AccountStore, events *EventService) *AccountService {
	return &AccountService{
		accounts: accounts,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Login checks password against the community's shared password and
// upserts the account for email. New accounts are never privileged.
func (s *AccountService) Login(ctx context.Context, email, password string) (store.User, error) {
	email = NormalizeIdentity(email)
	if email == "" {
		return store.User{}, ValidationError("email is required")
	}
	if password == "" {
		return store.User{}, ValidationError("password is required")
	}

	hash, err := s.accounts.GetConfig(ctx, store.ConfigKeyCommonPassword)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, MisconfiguredError(errors.New("shared password is not set"))
	}
	if err != nil {
		return store.User{}, StoreError(err)
	}

	ok, err := auth.CheckPassword(password, hash)
	if err != nil {
		return store.User{}, MisconfiguredError(err)
	}
	if !ok {
		if s.events != nil {
			_ = s.events.LogAuthEvent(ctx, model.EventLevelWarning, "Failed login", "",
				map[string]any{"email": email})
		}
		return store.User{}, ErrBadCredentials
	}

	u, err := s.accounts.UpsertLogin(ctx, store.UpsertLoginParams{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: defaultDisplayName(email),
		LoginAt:     s.now(),
	})
	if err != nil {
		return store.User{}, StoreError(err)
	}

	if s.events != nil {
		_ = s.events.LogAuthEvent(ctx, model.EventLevelInfo, "Login", u.ID, nil)
	}
	return u, nil
}

// UpdateDisplayName sets the caller's display name.
func (s *AccountService) UpdateDisplayName(ctx context.Context, id Identity, displayName string) (store.User, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return store.User{}, ValidationError("display_name is required")
	}
	if utf8.RuneCountInString(name) > model.MaxDisplayNameLength {
		return store.User{}, ValidationError("display_name must be at most %d characters", model.MaxDisplayNameLength)
	}

	u, err := s.accounts.UpdateDisplayName(ctx, id.AccountID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrUnknownAccount
	}
	if err != nil {
		return store.User{}, StoreError(err)
	}
	return u, nil
}

// ListAccounts returns every account. Only privileged callers may list.
func ListAccounts(ctx context.Context, id Identity, accounts AccountLister) ([]store.User, error) {
	if err := Authorize(ctx, id, "list accounts"); err != nil {
		return nil, err
	}
	users, err := accounts.ListUsers(ctx)
	if err != nil {
		return nil, StoreError(err)
	}
	return users, nil
}

// defaultDisplayName is the local part of an email address.
func defaultDisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if utf8.RuneCountInString(local) > model.MaxDisplayNameLength {
		local = string([]rune(local)[:model.MaxDisplayNameLength])
	}
	return local
}
