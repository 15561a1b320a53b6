// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/serranito-society/serranito/internal/service"
)

// ToggleReactionRequest is the body of POST /api/posts/{id}/reactions and
// POST /api/comments/{id}/reactions.
type ToggleReactionRequest struct {
	Emoji string `json:"emoji" validate:"required,reaction_emoji"`
}

// ListReactions handles GET /api/posts/{id}/reactions. The reacted flags
// are filled in when the identity header names a known account.
func (h *Handler) ListReactions(w http.ResponseWriter, r *http.Request) {
	h.listReactions(w, r, h.reactions.Summary)
}

// ListCommentReactions handles GET /api/comments/{id}/reactions.
func (h *Handler) ListCommentReactions(w http.ResponseWriter, r *http.Request) {
	h.listReactions(w, r, h.reactions.CommentSummary)
}

// ToggleReaction handles POST /api/posts/{id}/reactions.
func (h *Handler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	h.toggleReaction(w, r, h.reactions.Toggle)
}

// ToggleCommentReaction handles POST /api/comments/{id}/reactions.
func (h *Handler) ToggleCommentReaction(w http.ResponseWriter, r *http.Request) {
	h.toggleReaction(w, r, h.reactions.ToggleComment)
}

type summaryFunc func(ctx context.Context, targetID, accountID string) ([]service.ReactionSummary, error)

type toggleFunc func(ctx context.Context, id service.Identity, targetID, emoji string) ([]service.ReactionSummary, error)

func (h *Handler) listReactions(w http.ResponseWriter, r *http.Request, summarize summaryFunc) {
	if !h.requireStore(w, r) {
		return
	}
	var accountID string
	if r.Header.Get(h.identityHeader) != "" {
		if id, err := h.resolveIdentity(r); err == nil {
			accountID = id.AccountID
		}
	}

	summary, err := summarize(r.Context(), chi.URLParam(r, "id"), accountID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteSuccess(w, summary)
}

func (h *Handler) toggleReaction(w http.ResponseWriter, r *http.Request, toggle toggleFunc) {
	id, err := h.resolveIdentity(r)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	var req ToggleReactionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if err := validateRequest(req); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	summary, err := toggle(r.Context(), id, chi.URLParam(r, "id"), req.Emoji)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteSuccess(w, summary)
}
