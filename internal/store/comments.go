// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// CreateCommentParams holds the fields for inserting a comment.
type CreateCommentParams struct {
	ID        string
	PostID    string
	UserID    string
	ParentID  sql.NullString
	Content   string
	CreatedAt time.Time
}

// GetComment returns a comment by id.
func (q *Queries) GetComment(ctx context.Context, id string) (Comment, error) {
	var c Comment
	err := q.get(ctx, &c, `SELECT id, post_id, user_id, parent_id, content, created_at
		FROM comments WHERE id = ?`, id)
	return c, err
}

// ListCommentsForPost returns a post's comments, oldest first, with the
// author's display name.
func (q *Queries) ListCommentsForPost(ctx context.Context, postID string) ([]CommentWithAuthor, error) {
	var comments []CommentWithAuthor
	err := q.selectAll(ctx, &comments, `SELECT c.id, c.post_id, c.user_id, c.parent_id, c.content,
			c.created_at, u.display_name AS user_display_name
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ?
		ORDER BY c.created_at, c.id`, postID)
	return comments, err
}

// CreateComment inserts a comment. Member data: allowed on the restricted handle.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (CommentWithAuthor, error) {
	var out CommentWithAuthor
	err := q.InTx(ctx, func(tx *Queries) error {
		_, err := tx.exec(ctx, `INSERT INTO comments (id, post_id, user_id, parent_id, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			arg.ID, arg.PostID, arg.UserID, arg.ParentID, arg.Content, arg.CreatedAt)
		if err != nil {
			return err
		}
		return tx.get(ctx, &out, `SELECT c.id, c.post_id, c.user_id, c.parent_id, c.content,
				c.created_at, u.display_name AS user_display_name
			FROM comments c JOIN users u ON u.id = c.user_id
			WHERE c.id = ?`, arg.ID)
	})
	return out, err
}
