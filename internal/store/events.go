// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// CreateEventParams holds the fields for an audit log entry.
type CreateEventParams struct {
	ID        string
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent appends an entry to the event log.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	_, err := q.exec(ctx, `INSERT INTO events (id, level, category, message, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.Level, arg.Category, arg.Message, arg.Metadata, arg.CreatedAt)
	return err
}

// ListEvents returns the most recent events, newest first.
func (q *Queries) ListEvents(ctx context.Context, limit int) ([]Event, error) {
	var events []Event
	err := q.selectAll(ctx, &events, `SELECT id, level, category, message, metadata, created_at
		FROM events ORDER BY created_at DESC LIMIT ?`, limit)
	return events, err
}

// DeleteEventsBefore purges events older than cutoff. Requires the
// elevated credential.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := q.requireElevated("events"); err != nil {
		return 0, err
	}
	res, err := q.exec(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
