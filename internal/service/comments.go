// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/serranito-society/serranito/internal/store"
)

// Comments are plain text.
var commentSanitizer = bluemonday.StrictPolicy()

// CommentStore is the store surface CommentService needs.
type CommentStore interface {
	GetPost(ctx context.Context, id string) (store.Post, error)
	GetComment(ctx context.Context, id string) (store.Comment, error)
	ListCommentsForPost(ctx context.Context, postID string) ([]store.CommentWithAuthor, error)
	CreateComment(ctx context.Context, arg store.CreateCommentParams) (store.CommentWithAuthor, error)
}

// CreateCommentInput is the payload of a new comment.
type CreateCommentInput struct {
	PostID   string
	ParentID string
	Content  string
}

// CommentService handles member comments.
type CommentService struct {
	comments CommentStore
	now      func() time.Time
}

// NewCommentService creates a CommentService.
func NewCommentService(comments CommentStore) *CommentService {
	return &CommentService{
		comments: comments,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns a post's comments, oldest first.
func (s *CommentService) List(ctx context.Context, postID string) ([]store.CommentWithAuthor, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListCommentsForPost(ctx, postID)
	if err != nil {
		return nil, StoreError(err)
	}
	return comments, nil
}

// Create adds a comment by the caller. A reply's parent must belong to
// the same post.
func (s *CommentService) Create(ctx context.Context, id Identity, in CreateCommentInput) (store.CommentWithAuthor, error) {
	content := strings.TrimSpace(commentSanitizer.Sanitize(in.Content))
	if content == "" {
		return store.CommentWithAuthor{}, ValidationError("content is required")
	}
	if err := s.requirePost(ctx, in.PostID); err != nil {
		return store.CommentWithAuthor{}, err
	}

	var parent sql.NullString
	if in.ParentID != "" {
		p, err := s.comments.GetComment(ctx, in.ParentID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && p.PostID != in.PostID) {
			return store.CommentWithAuthor{}, ValidationError("parent_id does not belong to this post")
		}
		if err != nil {
			return store.CommentWithAuthor{}, StoreError(err)
		}
		parent = sql.NullString{String: p.ID, Valid: true}
	}

	c, err := s.comments.CreateComment(ctx, store.CreateCommentParams{
		ID:        uuid.NewString(),
		PostID:    in.PostID,
		UserID:    id.AccountID,
		ParentID:  parent,
		Content:   content,
		CreatedAt: s.now(),
	})
	if err != nil {
		return store.CommentWithAuthor{}, StoreError(err)
	}
	return c, nil
}

func (s *CommentService) requirePost(ctx context.Context, postID string) error {
	if postID == "" {
		return ErrMissingTarget
	}
	_, err := s.comments.GetPost(ctx, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return NotFoundError("post")
	}
	if err != nil {
		return StoreError(err)
	}
	return nil
}
