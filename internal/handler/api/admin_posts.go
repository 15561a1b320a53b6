// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/serranito-society/serranito/internal/middleware"
	"github.com/serranito-society/serranito/internal/service"
	"github.com/serranito-society/serranito/internal/store"
)

// PostResponse represents a post in API responses. Absent event fields are
// null.
type PostResponse struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Content          string     `json:"content"`
	AuthorID         string     `json:"author_id"`
	IsEvent          bool       `json:"is_event"`
	EventDate        *time.Time `json:"event_date"`
	EventEndDate     *time.Time `json:"event_end_date"`
	EventLocation    *string    `json:"event_location"`
	EventDescription *string    `json:"event_description"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// storePostToResponse converts a store.Post to PostResponse.
func storePostToResponse(p store.Post) PostResponse {
	resp := PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		AuthorID:  p.AuthorID,
		IsEvent:   p.IsEvent,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.EventDate.Valid {
		resp.EventDate = &p.EventDate.Time
	}
	if p.EventEndDate.Valid {
		resp.EventEndDate = &p.EventEndDate.Time
	}
	if p.EventLocation.Valid {
		resp.EventLocation = &p.EventLocation.String
	}
	if p.EventDescription.Valid {
		resp.EventDescription = &p.EventDescription.String
	}
	return resp
}

// PostRequest is the body of an admin create or update. author_id,
// created_at and updated_at are accepted so that clients may echo a post
// back, but they are never applied.
type PostRequest struct {
	ID               *string `json:"id"`
	Title            string  `json:"title" validate:"notblank"`
	Content          string  `json:"content" validate:"notblank"`
	IsEvent          bool    `json:"is_event"`
	EventDate        *string `json:"event_date"`
	EventEndDate     *string `json:"event_end_date"`
	EventLocation    *string `json:"event_location"`
	EventDescription *string `json:"event_description"`

	AuthorID  json.RawMessage `json:"author_id"`
	CreatedAt json.RawMessage `json:"created_at"`
	UpdatedAt json.RawMessage `json:"updated_at"`
}

// targetID returns the trimmed id, or "" when absent.
func (req PostRequest) targetID() string {
	if req.ID == nil {
		return ""
	}
	return strings.TrimSpace(*req.ID)
}

func (req PostRequest) eventInput() (service.EventInput, error) {
	in := service.EventInput{
		IsEvent:          req.IsEvent,
		EventLocation:    req.EventLocation,
		EventDescription: req.EventDescription,
	}

	var err error
	if in.EventDate, err = parseOptionalTime("event_date", req.EventDate); err != nil {
		return service.EventInput{}, err
	}
	if in.EventEndDate, err = parseOptionalTime("event_end_date", req.EventEndDate); err != nil {
		return service.EventInput{}, err
	}
	return in, nil
}

// parseOptionalTime treats a missing or empty value as no time.
func parseOptionalTime(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := service.ParseEventTime(field, strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeletePostRequest is the optional body of an admin delete.
type DeletePostRequest struct {
	ID string `json:"id"`
}

// AdminPosts handles /functions/v1/admin-posts.
//
// Evaluation order: preflight, server configuration, caller identity,
// caller privilege, method, body. Every failure before the method switch
// leaves the store untouched.
func (h *Handler) AdminPosts(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Content-Type", "application/json")
		middleware.WritePreflight(w, h.cors)
		return
	}
	middleware.SetCORSHeaders(w.Header(), h.cors)

	q, id, err := h.privilegedIdentity(r, "mutate post")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	posts := service.NewPostService(q, h.postNotifier(), service.NewEventService(q))

	switch r.Method {
	case http.MethodPost:
		h.createPost(w, r, posts, id)
	case http.MethodPut:
		h.updatePost(w, r, posts, id)
	case http.MethodDelete:
		h.deletePost(w, r, posts, id)
	default:
		WriteServiceError(w, r, service.ErrUnsupportedOperation)
	}
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request, posts *service.PostService, id service.Identity) {
	var req PostRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if err := validateRequest(req); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	event, err := req.eventInput()
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	post, err := posts.Create(r.Context(), id, service.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
		Event:   event,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteSuccess(w, storePostToResponse(post))
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request, posts *service.PostService, id service.Identity) {
	var req PostRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	postID := req.targetID()
	if postID == "" {
		WriteServiceError(w, r, service.ErrMissingTarget)
		return
	}
	if err := validateRequest(req); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	event, err := req.eventInput()
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	post, err := posts.Update(r.Context(), id, service.UpdatePostInput{
		ID:      postID,
		Title:   req.Title,
		Content: req.Content,
		Event:   event,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteSuccess(w, storePostToResponse(post))
}

// deletePost takes the id from the "id" query parameter or the body.
func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request, posts *service.PostService, id service.Identity) {
	postID := strings.TrimSpace(r.URL.Query().Get("id"))
	if postID == "" {
		var req DeletePostRequest
		if err := decodeJSON(r, &req, true); err != nil {
			WriteServiceError(w, r, err)
			return
		}
		postID = req.ID
	}

	if err := posts.Delete(r.Context(), id, postID); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteSuccess(w, map[string]string{"id": strings.TrimSpace(postID)})
}

// AdminUsers handles GET /api/admin/users behind the same double gate as
// AdminPosts.
func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	middleware.SetCORSHeaders(w.Header(), h.cors)

	q, id, err := h.privilegedIdentity(r, "list accounts")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	users, err := service.ListAccounts(r.Context(), id, q)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	resp := make([]AccountResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, storeUserToResponse(u))
	}
	WriteSuccess(w, resp)
}

// postNotifier returns the post-list cache as a change notifier, or nil
// when caching is off.
func (h *Handler) postNotifier() service.PostChangeNotifier {
	if h.postCache == nil {
		return nil
	}
	return h.postCache
}
