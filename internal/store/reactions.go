// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// CreateReactionParams holds the fields for a reaction. PostID is used by
// CreatePostReaction and CommentID by CreateCommentReaction.
type CreateReactionParams struct {
	ID        string
	UserID    string
	PostID    string
	CommentID string
	Emoji     string
	CreatedAt time.Time
}

// FindPostReaction returns the caller's reaction with the given emoji on a post.
func (q *Queries) FindPostReaction(ctx context.Context, userID, postID, emoji string) (Reaction, error) {
	var r Reaction
	err := q.get(ctx, &r, `SELECT id, user_id, post_id, comment_id, emoji, created_at
		FROM reactions
		WHERE user_id = ? AND post_id = ? AND comment_id IS NULL AND emoji = ?`,
		userID, postID, emoji)
	return r, err
}

// CreatePostReaction adds a reaction to a post.
func (q *Queries) CreatePostReaction(ctx context.Context, arg CreateReactionParams) error {
	_, err := q.exec(ctx, `INSERT INTO reactions (id, user_id, post_id, emoji, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		arg.ID, arg.UserID, arg.PostID, arg.Emoji, arg.CreatedAt)
	return err
}

// DeleteReaction removes a reaction owned by userID. Returns sql.ErrNoRows
// when the reaction does not exist or belongs to someone else.
func (q *Queries) DeleteReaction(ctx context.Context, id, userID string) error {
	return q.execOne(ctx, `DELETE FROM reactions WHERE id = ? AND user_id = ?`, id, userID)
}

// CountPostReactions aggregates a post's reactions per emoji.
func (q *Queries) CountPostReactions(ctx context.Context, postID string) ([]ReactionCount, error) {
	var counts []ReactionCount
	err := q.selectAll(ctx, &counts, `SELECT emoji, COUNT(*) AS count
		FROM reactions
		WHERE post_id = ? AND comment_id IS NULL
		GROUP BY emoji`, postID)
	return counts, err
}

// ListUserPostEmojis returns the emojis a member has used on a post.
func (q *Queries) ListUserPostEmojis(ctx context.Context, userID, postID string) ([]string, error) {
	var emojis []string
	err := q.selectAll(ctx, &emojis, `SELECT emoji FROM reactions
		WHERE user_id = ? AND post_id = ? AND comment_id IS NULL`, userID, postID)
	return emojis, err
}

// FindCommentReaction returns the caller's reaction with the given emoji on a comment.
func (q *Queries) FindCommentReaction(ctx context.Context, userID, commentID, emoji string) (Reaction, error) {
	var r Reaction
	err := q.get(ctx, &r, `SELECT id, user_id, post_id, comment_id, emoji, created_at
		FROM reactions
		WHERE user_id = ? AND comment_id = ? AND emoji = ?`,
		userID, commentID, emoji)
	return r, err
}

// CreateCommentReaction adds a reaction to a comment.
func (q *Queries) CreateCommentReaction(ctx context.Context, arg CreateReactionParams) error {
	_, err := q.exec(ctx, `INSERT INTO reactions (id, user_id, comment_id, emoji, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		arg.ID, arg.UserID, arg.CommentID, arg.Emoji, arg.CreatedAt)
	return err
}

// CountCommentReactions aggregates a comment's reactions per emoji.
func (q *Queries) CountCommentReactions(ctx context.Context, commentID string) ([]ReactionCount, error) {
	var counts []ReactionCount
	err := q.selectAll(ctx, &counts, `SELECT emoji, COUNT(*) AS count
		FROM reactions
		WHERE comment_id = ?
		GROUP BY emoji`, commentID)
	return counts, err
}

// ListUserCommentEmojis returns the emojis a member has used on a comment.
func (q *Queries) ListUserCommentEmojis(ctx context.Context, userID, commentID string) ([]string, error) {
	var emojis []string
	err := q.selectAll(ctx, &emojis, `SELECT emoji FROM reactions
		WHERE user_id = ? AND comment_id = ?`, userID, commentID)
	return emojis, err
}
