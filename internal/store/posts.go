// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const postColumns = `id, title, content, author_id, is_event, event_date, event_end_date,
	event_location, event_description, created_at, updated_at`

// EventFields are the optional calendar fields of a post.
type EventFields struct {
	IsEvent          bool
	EventDate        sql.NullTime
	EventEndDate     sql.NullTime
	EventLocation    sql.NullString
	EventDescription sql.NullString
}

// CreatePostParams holds the fields for inserting a post.
type CreatePostParams struct {
	ID       string
	Title    string
	Content  string
	AuthorID string
	EventFields
	CreatedAt time.Time
}

// UpdatePostParams replaces every mutable field of a post.
type UpdatePostParams struct {
	ID      string
	Title   string
	Content string
	EventFields
	UpdatedAt time.Time
}

// GetPost returns a post by id.
func (q *Queries) GetPost(ctx context.Context, id string) (Post, error) {
	var p Post
	err := q.get(ctx, &p, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return p, err
}

// ListPosts returns all posts, newest first.
func (q *Queries) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	err := q.selectAll(ctx, &posts, `SELECT `+postColumns+` FROM posts ORDER BY created_at DESC, id`)
	return posts, err
}

// CountPosts returns the number of posts.
func (q *Queries) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	err := q.get(ctx, &n, `SELECT COUNT(*) FROM posts`)
	return n, err
}

// CreatePost inserts a post and returns the stored row.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	if err := q.requireElevated("posts"); err != nil {
		return Post{}, err
	}

	var post Post
	err := q.InTx(ctx, func(tx *Queries) error {
		_, err := tx.exec(ctx, `INSERT INTO posts (id, title, content, author_id, is_event, event_date,
			event_end_date, event_location, event_description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			arg.ID, arg.Title, arg.Content, arg.AuthorID, arg.IsEvent, arg.EventDate,
			arg.EventEndDate, arg.EventLocation, arg.EventDescription, arg.CreatedAt, arg.CreatedAt)
		if err != nil {
			return err
		}
		post, err = tx.GetPost(ctx, arg.ID)
		return err
	})
	return post, err
}

// UpdatePost replaces title, content and all event fields of a post.
// Returns sql.ErrNoRows when the post does not exist.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	if err := q.requireElevated("posts"); err != nil {
		return Post{}, err
	}

	var post Post
	err := q.InTx(ctx, func(tx *Queries) error {
		err := tx.execOne(ctx, `UPDATE posts SET title = ?, content = ?, is_event = ?, event_date = ?,
			event_end_date = ?, event_location = ?, event_description = ?, updated_at = ?
			WHERE id = ?`,
			arg.Title, arg.Content, arg.IsEvent, arg.EventDate, arg.EventEndDate,
			arg.EventLocation, arg.EventDescription, arg.UpdatedAt, arg.ID)
		if err != nil {
			return err
		}
		post, err = tx.GetPost(ctx, arg.ID)
		return err
	})
	return post, err
}

// DeletePost removes a post; comments and reactions go with it through
// ON DELETE CASCADE. Returns sql.ErrNoRows when the post does not exist.
func (q *Queries) DeletePost(ctx context.Context, id string) error {
	if err := q.requireElevated("posts"); err != nil {
		return err
	}
	return q.execOne(ctx, `DELETE FROM posts WHERE id = ?`, id)
}
