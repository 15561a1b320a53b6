// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/serranito-society/serranito/internal/middleware"
)

// AdminPostsPath is the privileged post management endpoint.
const AdminPostsPath = "/functions/v1/admin-posts"

// Routes registers the API on r. loginLimit, when not nil, wraps the login
// endpoint.
func (h *Handler) Routes(r chi.Router, loginLimit func(http.Handler) http.Handler) {
	// The admin gate answers every method itself so that unsupported
	// methods still pass the credential and privilege checks first.
	r.HandleFunc(AdminPostsPath, h.AdminPosts)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(h.cors))

		r.Get("/posts", h.ListPosts)
		r.Get("/posts/{id}", h.GetPost)
		r.Get("/posts/{id}/comments", h.ListComments)
		r.Post("/posts/{id}/comments", h.CreateComment)
		r.Get("/posts/{id}/reactions", h.ListReactions)
		r.Post("/posts/{id}/reactions", h.ToggleReaction)
		r.Get("/comments/{id}/reactions", h.ListCommentReactions)
		r.Post("/comments/{id}/reactions", h.ToggleCommentReaction)

		r.Group(func(r chi.Router) {
			if loginLimit != nil {
				r.Use(loginLimit)
			}
			r.Post("/login", h.Login)
		})

		r.Get("/me", h.Me)
		r.Put("/me", h.UpdateMe)

		r.Get("/admin/users", h.AdminUsers)
	})
}
