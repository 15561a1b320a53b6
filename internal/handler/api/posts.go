// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/serranito-society/serranito/internal/service"
	"github.com/serranito-society/serranito/internal/store"
)

// ListPosts handles GET /api/posts, newest first.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}
	var (
		posts []store.Post
		err   error
	)
	if h.postCache != nil {
		posts, err = h.postCache.List(r.Context(), h.queries)
	} else {
		posts, err = h.queries.ListPosts(r.Context())
	}
	if err != nil {
		WriteServiceError(w, r, service.StoreError(err))
		return
	}

	resp := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, storePostToResponse(p))
	}
	WriteSuccess(w, resp)
}

// GetPost handles GET /api/posts/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, storePostToResponse(post))
}

// requirePost fetches the post named by the {id} URL parameter. It writes
// the error response and returns false when the post cannot be loaded.
func (h *Handler) requirePost(w http.ResponseWriter, r *http.Request) (store.Post, bool) {
	if !h.requireStore(w, r) {
		return store.Post{}, false
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteServiceError(w, r, service.ErrMissingTarget)
		return store.Post{}, false
	}

	post, err := h.queries.GetPost(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		WriteServiceError(w, r, service.NotFoundError("post"))
		return store.Post{}, false
	}
	if err != nil {
		WriteServiceError(w, r, service.StoreError(err))
		return store.Post{}, false
	}
	return post, true
}
