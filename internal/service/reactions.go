// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/serranito-society/serranito/internal/model"
	"github.com/serranito-society/serranito/internal/store"
)

// ReactionStore is the store surface ReactionService needs.
type ReactionStore interface {
	GetPost(ctx context.Context, id string) (store.Post, error)
	GetComment(ctx context.Context, id string) (store.Comment, error)
	DeleteReaction(ctx context.Context, id, userID string) error

	FindPostReaction(ctx context.Context, userID, postID, emoji string) (store.Reaction, error)
	CreatePostReaction(ctx context.Context, arg store.CreateReactionParams) error
	CountPostReactions(ctx context.Context, postID string) ([]store.ReactionCount, error)
	ListUserPostEmojis(ctx context.Context, userID, postID string) ([]string, error)

	FindCommentReaction(ctx context.Context, userID, commentID, emoji string) (store.Reaction, error)
	CreateCommentReaction(ctx context.Context, arg store.CreateReactionParams) error
	CountCommentReactions(ctx context.Context, commentID string) ([]store.ReactionCount, error)
	ListUserCommentEmojis(ctx context.Context, userID, commentID string) ([]string, error)
}

// ReactionSummary is the count of one emoji on a post or comment and
// whether the caller used it.
type ReactionSummary struct {
	Emoji   string `json:"emoji"`
	Count   int64  `json:"count"`
	Reacted bool   `json:"reacted"`
}

// ReactionService handles emoji reactions on posts and comments.
type ReactionService struct {
	reactions ReactionStore
	now       func() time.Time
}

// NewReactionService creates a ReactionService.
func NewReactionService(reactions ReactionStore) *ReactionService {
	return &ReactionService{
		reactions: reactions,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// reactionTarget binds the store queries for one kind of reactable row.
type reactionTarget struct {
	name    string
	id      string
	exists  func(ctx context.Context, id string) error
	find    func(ctx context.Context, userID, id, emoji string) (store.Reaction, error)
	create  func(ctx context.Context, arg store.CreateReactionParams) error
	count   func(ctx context.Context, id string) ([]store.ReactionCount, error)
	emojis  func(ctx context.Context, userID, id string) ([]string, error)
	newArgs func(id string) store.CreateReactionParams
}

func (s *ReactionService) postTarget(postID string) reactionTarget {
	return reactionTarget{
		name: "post",
		id:   postID,
		exists: func(ctx context.Context, id string) error {
			_, err := s.reactions.GetPost(ctx, id)
			return err
		},
		find:    s.reactions.FindPostReaction,
		create:  s.reactions.CreatePostReaction,
		count:   s.reactions.CountPostReactions,
		emojis:  s.reactions.ListUserPostEmojis,
		newArgs: func(id string) store.CreateReactionParams { return store.CreateReactionParams{PostID: id} },
	}
}

func (s *ReactionService) commentTarget(commentID string) reactionTarget {
	return reactionTarget{
		name: "comment",
		id:   commentID,
		exists: func(ctx context.Context, id string) error {
			_, err := s.reactions.GetComment(ctx, id)
			return err
		},
		find:    s.reactions.FindCommentReaction,
		create:  s.reactions.CreateCommentReaction,
		count:   s.reactions.CountCommentReactions,
		emojis:  s.reactions.ListUserCommentEmojis,
		newArgs: func(id string) store.CreateReactionParams { return store.CreateReactionParams{CommentID: id} },
	}
}

// Summary returns one entry per allowed emoji on a post, in display order.
// accountID may be empty for anonymous readers.
func (s *ReactionService) Summary(ctx context.Context, postID, accountID string) ([]ReactionSummary, error) {
	return s.summary(ctx, s.postTarget(postID), accountID)
}

// Toggle adds the caller's reaction to a post, or removes it when already
// present. It returns the post's summary after the change.
func (s *ReactionService) Toggle(ctx context.Context, id Identity, postID, emoji string) ([]ReactionSummary, error) {
	return s.toggle(ctx, s.postTarget(postID), id, emoji)
}

// CommentSummary is Summary for a comment.
func (s *ReactionService) CommentSummary(ctx context.Context, commentID, accountID string) ([]ReactionSummary, error) {
	return s.summary(ctx, s.commentTarget(commentID), accountID)
}

// ToggleComment is Toggle for a comment.
func (s *ReactionService) ToggleComment(ctx context.Context, id Identity, commentID, emoji string) ([]ReactionSummary, error) {
	return s.toggle(ctx, s.commentTarget(commentID), id, emoji)
}

func (s *ReactionService) summary(ctx context.Context, t reactionTarget, accountID string) ([]ReactionSummary, error) {
	if err := s.require(ctx, t); err != nil {
		return nil, err
	}

	counts, err := t.count(ctx, t.id)
	if err != nil {
		return nil, StoreError(err)
	}
	byEmoji := make(map[string]int64, len(counts))
	for _, c := range counts {
		byEmoji[c.Emoji] = c.Count
	}

	mine := make(map[string]bool)
	if accountID != "" {
		emojis, err := t.emojis(ctx, accountID, t.id)
		if err != nil {
			return nil, StoreError(err)
		}
		for _, e := range emojis {
			mine[e] = true
		}
	}

	allowed := model.ReactionEmojis()
	out := make([]ReactionSummary, 0, len(allowed))
	for _, e := range allowed {
		out = append(out, ReactionSummary{Emoji: e, Count: byEmoji[e], Reacted: mine[e]})
	}
	return out, nil
}

func (s *ReactionService) toggle(ctx context.Context, t reactionTarget, id Identity, emoji string) ([]ReactionSummary, error) {
	if !model.IsReactionEmoji(emoji) {
		return nil, ValidationError("unsupported reaction %q", emoji)
	}
	if err := s.require(ctx, t); err != nil {
		return nil, err
	}

	existing, err := t.find(ctx, id.AccountID, t.id, emoji)
	switch {
	case err == nil:
		if err := s.reactions.DeleteReaction(ctx, existing.ID, id.AccountID); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, StoreError(err)
		}
	case errors.Is(err, sql.ErrNoRows):
		arg := t.newArgs(t.id)
		arg.ID = uuid.NewString()
		arg.UserID = id.AccountID
		arg.Emoji = emoji
		arg.CreatedAt = s.now()
		if err := t.create(ctx, arg); err != nil {
			return nil, StoreError(err)
		}
	default:
		return nil, StoreError(err)
	}

	return s.summary(ctx, t, id.AccountID)
}

func (s *ReactionService) require(ctx context.Context, t reactionTarget) error {
	if t.id == "" {
		return ErrMissingTarget
	}
	err := t.exists(ctx, t.id)
	if errors.Is(err, sql.ErrNoRows) {
		return NotFoundError(t.name)
	}
	if err != nil {
		return StoreError(err)
	}
	return nil
}
