// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const userColumns = `id, email, display_name, is_admin, last_login, created_at`

// GetUserByEmail looks an account up by its normalized email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return u, err
}

// GetUserByID looks an account up by its primary key.
func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := q.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return u, err
}

// ListUsers returns all accounts, most recent login first.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := q.selectAll(ctx, &users, `SELECT `+userColumns+` FROM users
		ORDER BY CASE WHEN last_login IS NULL THEN 1 ELSE 0 END, last_login DESC, email`)
	return users, err
}

// UpsertLoginParams holds the fields written on a successful login.
type UpsertLoginParams struct {
	ID          string
	Email       string
	DisplayName string
	LoginAt     time.Time
}

// UpsertLogin creates the account on first login and refreshes last_login
// afterwards. It never writes is_admin, so it is allowed on the restricted
// handle.
func (q *Queries) UpsertLogin(ctx context.Context, arg UpsertLoginParams) (User, error) {
	_, err := q.exec(ctx, `INSERT INTO users (id, email, display_name, last_login, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET last_login = excluded.last_login`,
		arg.ID, arg.Email, arg.DisplayName, arg.LoginAt, arg.LoginAt)
	if err != nil {
		return User{}, err
	}
	return q.GetUserByEmail(ctx, arg.Email)
}

// UpdateDisplayName sets an account's display name.
func (q *Queries) UpdateDisplayName(ctx context.Context, id, displayName string) (User, error) {
	if err := q.execOne(ctx, `UPDATE users SET display_name = ? WHERE id = ?`, displayName, id); err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, id)
}

// CreateUserParams holds the fields for provisioning an account directly.
type CreateUserParams struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
}

// CreateUser inserts an account. Requires the elevated credential because
// it may set the privilege flag.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	if err := q.requireElevated("users"); err != nil {
		return User{}, err
	}
	_, err := q.exec(ctx, `INSERT INTO users (id, email, display_name, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		arg.ID, arg.Email, arg.DisplayName, arg.IsAdmin, arg.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, arg.ID)
}

// SetUserAdmin changes the privilege flag of the account with the given
// email. Returns sql.ErrNoRows when no account matches.
func (q *Queries) SetUserAdmin(ctx context.Context, email string, isAdmin bool) (User, error) {
	if err := q.requireElevated("users.is_admin"); err != nil {
		return User{}, err
	}
	if err := q.execOne(ctx, `UPDATE users SET is_admin = ? WHERE email = ?`, isAdmin, email); err != nil {
		return User{}, err
	}
	return q.GetUserByEmail(ctx, email)
}
