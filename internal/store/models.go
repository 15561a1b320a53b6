// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User is an account row. IsAdmin is the privilege flag.
type User struct {
	ID          string       `db:"id"`
	Email       string       `db:"email"`
	DisplayName string       `db:"display_name"`
	IsAdmin     bool         `db:"is_admin"`
	LastLogin   sql.NullTime `db:"last_login"`
	CreatedAt   time.Time    `db:"created_at"`
}

// Post is a content record, optionally describing a calendar event.
type Post struct {
	ID               string         `db:"id"`
	Title            string         `db:"title"`
	Content          string         `db:"content"`
	AuthorID         string         `db:"author_id"`
	IsEvent          bool           `db:"is_event"`
	EventDate        sql.NullTime   `db:"event_date"`
	EventEndDate     sql.NullTime   `db:"event_end_date"`
	EventLocation    sql.NullString `db:"event_location"`
	EventDescription sql.NullString `db:"event_description"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

// Comment is a member comment on a post, optionally replying to another comment.
type Comment struct {
	ID        string         `db:"id"`
	PostID    string         `db:"post_id"`
	UserID    string         `db:"user_id"`
	ParentID  sql.NullString `db:"parent_id"`
	Content   string         `db:"content"`
	CreatedAt time.Time      `db:"created_at"`
}

// CommentWithAuthor is a comment joined with its author's display name.
type CommentWithAuthor struct {
	Comment
	UserDisplayName string `db:"user_display_name"`
}

// Reaction is one member's emoji on a post or a comment.
type Reaction struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	PostID    sql.NullString `db:"post_id"`
	CommentID sql.NullString `db:"comment_id"`
	Emoji     string         `db:"emoji"`
	CreatedAt time.Time      `db:"created_at"`
}

// ReactionCount aggregates reactions per emoji.
type ReactionCount struct {
	Emoji string `db:"emoji"`
	Count int64  `db:"count"`
}

// Event is an audit log entry.
type Event struct {
	ID        string    `db:"id"`
	Level     string    `db:"level"`
	Category  string    `db:"category"`
	Message   string    `db:"message"`
	Metadata  string    `db:"metadata"`
	CreatedAt time.Time `db:"created_at"`
}
