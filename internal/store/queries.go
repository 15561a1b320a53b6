// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/serranito-society/serranito/internal/auth"
)

var (
	// ErrRowPolicy is returned when a restricted handle attempts a write that
	// only the elevated credential may perform.
	ErrRowPolicy = errors.New("row-level policy violation")

	// ErrInvalidCredential is returned by Elevate when the service key is
	// empty or does not match the registered fingerprint.
	ErrInvalidCredential = errors.New("invalid service credential")
)

// Queries runs statements against the database with either the restricted
// or the elevated credential. The zero value is not usable; use New,
// Elevate or NewProvisioning.
type Queries struct {
	conn     *sqlx.DB
	ext      sqlx.ExtContext
	tx       *sqlx.Tx
	elevated bool
}

// New returns a restricted handle. It may read everything and write member
// data (accounts' login fields, comments, reactions, events), but every
// write guarded by a row policy fails with ErrRowPolicy.
func New(db *sqlx.DB) *Queries {
	return &Queries{conn: db, ext: db}
}

// Elevate returns a handle that bypasses row policies. The key must match
// the fingerprint registered under ConfigKeyServiceRoleKey.
func Elevate(ctx context.Context, db *sqlx.DB, key string) (*Queries, error) {
	if key == "" {
		return nil, ErrInvalidCredential
	}

	fingerprint, err := New(db).GetConfig(ctx, ConfigKeyServiceRoleKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no service key registered", ErrInvalidCredential)
	}
	if err != nil {
		return nil, fmt.Errorf("loading service key fingerprint: %w", err)
	}

	if !auth.MatchFingerprint(key, fingerprint) {
		return nil, ErrInvalidCredential
	}

	return &Queries{conn: db, ext: db, elevated: true}, nil
}

// NewProvisioning returns an elevated handle without a key check. It is
// meant for processes that own the database directly: the provisioning
// CLI, seeding and the in-process scheduler. Request handlers use Elevate.
func NewProvisioning(db *sqlx.DB) *Queries {
	return &Queries{conn: db, ext: db, elevated: true}
}

// IsElevated reports whether the handle bypasses row policies.
func (q *Queries) IsElevated() bool {
	return q.elevated
}

// InTx runs fn inside a transaction, committing when fn returns nil.
// Nested calls reuse the outer transaction.
func (q *Queries) InTx(ctx context.Context, fn func(*Queries) error) error {
	if q.tx != nil {
		return fn(q)
	}

	tx, err := q.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	txq := &Queries{conn: q.conn, ext: tx, tx: tx, elevated: q.elevated}
	if err := fn(txq); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// requireElevated enforces the row policy for a protected table.
func (q *Queries) requireElevated(table string) error {
	if !q.elevated {
		return fmt.Errorf("%w: writes to %s require the service credential", ErrRowPolicy, table)
	}
	return nil
}

func (q *Queries) get(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q.ext, dest, q.ext.Rebind(query), args...)
}

func (q *Queries) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q.ext, dest, q.ext.Rebind(query), args...)
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.ext.ExecContext(ctx, q.ext.Rebind(query), args...)
}

// execOne runs a statement that must affect exactly one row and returns
// sql.ErrNoRows when it affected none.
func (q *Queries) execOne(ctx context.Context, query string, args ...any) error {
	res, err := q.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
