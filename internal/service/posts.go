// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/serranito-society/serranito/internal/model"
	"github.com/serranito-society/serranito/internal/store"
)

// postSanitizer allows the formatting the rich-text editor produces and
// strips scripts, event handlers and the like.
var postSanitizer = bluemonday.UGCPolicy()

// EventTimeLayouts are the accepted formats for event start and end times.
var EventTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04"}

// ParseEventTime parses an event time in any of EventTimeLayouts. Times
// without a zone are taken as UTC.
func ParseEventTime(field, value string) (time.Time, error) {
	for _, layout := range EventTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ValidationError("%s: invalid time %q", field, value)
}

// PostWriter is the store surface privileged post mutations need. Only an
// elevated store handle satisfies it without ErrRowPolicy.
type PostWriter interface {
	CreatePost(ctx context.Context, arg store.CreatePostParams) (store.Post, error)
	UpdatePost(ctx context.Context, arg store.UpdatePostParams) (store.Post, error)
	DeletePost(ctx context.Context, id string) error
}

// PostChangeNotifier is told about every successful post mutation.
type PostChangeNotifier interface {
	PostsChanged(ctx context.Context)
}

// EventInput carries the optional calendar fields of a post. Nil pointers
// are stored as NULL.
type EventInput struct {
	IsEvent          bool
	EventDate        *time.Time
	EventEndDate     *time.Time
	EventLocation    *string
	EventDescription *string
}

// CreatePostInput is the payload of a create.
type CreatePostInput struct {
	Title   string
	Content string
	Event   EventInput
}

// UpdatePostInput is the payload of an update. Every field replaces the
// stored value.
type UpdatePostInput struct {
	ID      string
	Title   string
	Content string
	Event   EventInput
}

// PostService performs privilege-gated post mutations.
type PostService struct {
	posts    PostWriter
	notifier PostChangeNotifier
	events   *EventService
	now      func() time.Time
	newID    func() string
}

// NewPostService creates a PostService writing through posts. notifier
// and events may be nil.
func NewPostService(posts PostWriter, notifier PostChangeNotifier, events *EventService) *PostService {
	return &PostService{
		posts:    posts,
		notifier: notifier,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Authorize is the privilege half of the double gate. It runs before any
// store access.
func Authorize(ctx context.Context, id Identity, action string) error {
	if id.IsPrivileged {
		return nil
	}
	slog.WarnContext(ctx, "privileged action refused",
		"category", model.EventCategoryAuth,
		"action", action,
		"account_id", id.AccountID,
		"email", id.Email)
	return ErrForbidden
}

// Create inserts a post authored by the caller.
func (s *PostService) Create(ctx context.Context, id Identity, in CreatePostInput) (store.Post, error) {
	if err := Authorize(ctx, id, "create post"); err != nil {
		return store.Post{}, err
	}

	title, content, err := validatePostBody(in.Title, in.Content)
	if err != nil {
		return store.Post{}, err
	}
	event, err := eventFields(in.Event)
	if err != nil {
		return store.Post{}, err
	}

	post, err := s.posts.CreatePost(ctx, store.CreatePostParams{
		ID:          s.newID(),
		Title:       title,
		Content:     content,
		AuthorID:    id.AccountID,
		EventFields: event,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return store.Post{}, StoreError(err)
	}

	s.changed(ctx, id, "Post created", post.ID)
	return post, nil
}

// Update replaces title, content and every event field of an existing
// post. Author and creation time are never touched.
func (s *PostService) Update(ctx context.Context, id Identity, in UpdatePostInput) (store.Post, error) {
	if err := Authorize(ctx, id, "update post"); err != nil {
		return store.Post{}, err
	}

	postID := strings.TrimSpace(in.ID)
	if postID == "" {
		return store.Post{}, ErrMissingTarget
	}
	title, content, err := validatePostBody(in.Title, in.Content)
	if err != nil {
		return store.Post{}, err
	}
	event, err := eventFields(in.Event)
	if err != nil {
		return store.Post{}, err
	}

	post, err := s.posts.UpdatePost(ctx, store.UpdatePostParams{
		ID:          postID,
		Title:       title,
		Content:     content,
		EventFields: event,
		UpdatedAt:   s.now(),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return store.Post{}, NotFoundError("post")
	}
	if err != nil {
		return store.Post{}, StoreError(err)
	}

	s.changed(ctx, id, "Post updated", post.ID)
	return post, nil
}

// Delete removes a post together with its comments and reactions.
func (s *PostService) Delete(ctx context.Context, id Identity, postID string) error {
	if err := Authorize(ctx, id, "delete post"); err != nil {
		return err
	}

	postID = strings.TrimSpace(postID)
	if postID == "" {
		return ErrMissingTarget
	}

	err := s.posts.DeletePost(ctx, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return NotFoundError("post")
	}
	if err != nil {
		return StoreError(err)
	}

	s.changed(ctx, id, "Post deleted", postID)
	return nil
}

func (s *PostService) changed(ctx context.Context, id Identity, message, postID string) {
	if s.notifier != nil {
		s.notifier.PostsChanged(ctx)
	}
	if s.events != nil {
		_ = s.events.LogPostEvent(ctx, model.EventLevelInfo, message, id.AccountID,
			map[string]any{"post_id": postID})
	}
}

// validatePostBody sanitizes content before the emptiness check so markup
// the sanitizer drops entirely counts as missing content.
func validatePostBody(title, content string) (string, string, error) {
	if strings.TrimSpace(title) == "" {
		return "", "", ValidationError("title is required")
	}
	content = postSanitizer.Sanitize(content)
	if strings.TrimSpace(content) == "" {
		return "", "", ValidationError("content is required")
	}
	return title, content, nil
}

func eventFields(in EventInput) (store.EventFields, error) {
	f := store.EventFields{IsEvent: in.IsEvent}
	if in.EventDate != nil {
		f.EventDate = sql.NullTime{Time: in.EventDate.UTC(), Valid: true}
	}
	if in.EventEndDate != nil {
		f.EventEndDate = sql.NullTime{Time: in.EventEndDate.UTC(), Valid: true}
	}
	if f.EventDate.Valid && f.EventEndDate.Valid && f.EventEndDate.Time.Before(f.EventDate.Time) {
		return store.EventFields{}, ValidationError("event_end_date must not be before event_date")
	}
	if in.EventLocation != nil {
		f.EventLocation = sql.NullString{String: *in.EventLocation, Valid: true}
	}
	if in.EventDescription != nil {
		f.EventDescription = sql.NullString{String: *in.EventDescription, Valid: true}
	}
	return f, nil
}
