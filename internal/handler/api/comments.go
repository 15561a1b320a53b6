// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/serranito-society/serranito/internal/service"
	"github.com/serranito-society/serranito/internal/store"
)

// CommentResponse represents a comment in API responses.
type CommentResponse struct {
	ID              string    `json:"id"`
	PostID          string    `json:"post_id"`
	UserID          string    `json:"user_id"`
	ParentID        *string   `json:"parent_id"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
	UserDisplayName string    `json:"user_display_name"`
}

func storeCommentToResponse(c store.CommentWithAuthor) CommentResponse {
	resp := CommentResponse{
		ID:              c.ID,
		PostID:          c.PostID,
		UserID:          c.UserID,
		Content:         c.Content,
		CreatedAt:       c.CreatedAt,
		UserDisplayName: c.UserDisplayName,
	}
	if c.ParentID.Valid {
		resp.ParentID = &c.ParentID.String
	}
	return resp
}

// CreateCommentRequest is the body of POST /api/posts/{id}/comments.
type CreateCommentRequest struct {
	Content  string  `json:"content" validate:"notblank"`
	ParentID *string `json:"parent_id"`
}

// ListComments handles GET /api/posts/{id}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}
	comments, err := h.comments.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	resp := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		resp = append(resp, storeCommentToResponse(c))
	}
	WriteSuccess(w, resp)
}

// CreateComment handles POST /api/posts/{id}/comments.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, err := h.resolveIdentity(r)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	var req CreateCommentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if err := validateRequest(req); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	in := service.CreateCommentInput{
		PostID:  chi.URLParam(r, "id"),
		Content: req.Content,
	}
	if req.ParentID != nil {
		in.ParentID = *req.ParentID
	}

	comment, err := h.comments.Create(r.Context(), id, in)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteCreated(w, storeCommentToResponse(comment))
}
