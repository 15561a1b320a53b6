// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// Config keys.
const (
	ConfigKeyCommonPassword = "common_password_hash"
	ConfigKeyServiceRoleKey = "service_role_key_sha256"
)

// GetConfig returns a configuration value. Returns sql.ErrNoRows when unset.
func (q *Queries) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := q.get(ctx, &value, `SELECT value FROM config WHERE key = ?`, key)
	return value, err
}

// SetConfig writes a configuration value. Requires the elevated credential.
func (q *Queries) SetConfig(ctx context.Context, key, value string) error {
	if err := q.requireElevated("config"); err != nil {
		return err
	}
	_, err := q.exec(ctx, `INSERT INTO config (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	return err
}
