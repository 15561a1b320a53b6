// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/serranito-society/serranito/internal/service"
	"github.com/serranito-society/serranito/internal/testutil"
)

func TestRoutes(t *testing.T) {
	env := testSetup(t)
	post := testutil.CreatePost(t, env.db, env.admin.ID, "Routed")

	r := chi.NewRouter()
	env.handler.Routes(r, nil)

	tests := []struct {
		name     string
		method   string
		path     string
		identity string
		body     string
		wantCode int
	}{
		{"list posts", http.MethodGet, "/api/posts", "", "", http.StatusOK},
		{"get post", http.MethodGet, "/api/posts/" + post.ID, "", "", http.StatusOK},
		{"list comments", http.MethodGet, "/api/posts/" + post.ID + "/comments", "", "", http.StatusOK},
		{"list reactions", http.MethodGet, "/api/posts/" + post.ID + "/reactions", memberEmail, "", http.StatusOK},
		{"comment reactions unknown", http.MethodGet, "/api/comments/nope/reactions", memberEmail, "", http.StatusNotFound},
		{"api preflight", http.MethodOptions, "/api/posts", "", "", http.StatusNoContent},
		{"admin preflight", http.MethodOptions, adminPostsPath, "", "", http.StatusNoContent},
		{"admin create", http.MethodPost, adminPostsPath, adminEmail, `{"title":"Hi","content":"Body"}`, http.StatusOK},
		{"admin patch", http.MethodPatch, adminPostsPath, adminEmail, `{}`, http.StatusMethodNotAllowed},
		{"member patch", http.MethodPatch, adminPostsPath, memberEmail, `{}`, http.StatusForbidden},
		{"admin users", http.MethodGet, "/api/admin/users", adminEmail, "", http.StatusOK},
		{"me", http.MethodGet, "/api/me", memberEmail, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.identity != "" {
				req.Header.Set(testIdentityHeader, tt.identity)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assertStatus(t, w, tt.wantCode)
			if w.Header().Get("Access-Control-Allow-Origin") != "*" {
				t.Error("missing Access-Control-Allow-Origin")
			}
		})
	}
}

func TestRoutes_NoDatabase(t *testing.T) {
	h := NewHandler(nil, Options{ServiceRoleKey: "k"})
	r := chi.NewRouter()
	h.Routes(r, nil)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/posts", ""},
		{http.MethodGet, "/api/posts/p1", ""},
		{http.MethodGet, "/api/posts/p1/comments", ""},
		{http.MethodPost, "/api/posts/p1/comments", `{"content":"hola"}`},
		{http.MethodGet, "/api/posts/p1/reactions", ""},
		{http.MethodPost, "/api/posts/p1/reactions", `{"emoji":"👍"}`},
		{http.MethodGet, "/api/comments/c1/reactions", ""},
		{http.MethodPost, "/api/comments/c1/reactions", `{"emoji":"👍"}`},
		{http.MethodPost, "/api/login", `{"email":"a@x.com","password":"secret"}`},
		{http.MethodGet, "/api/me", ""},
		{http.MethodPut, "/api/me", `{"display_name":"Ana"}`},
		{http.MethodGet, "/api/admin/users", ""},
		{http.MethodPost, adminPostsPath, `{"title":"t","content":"c"}`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set(testIdentityHeader, memberEmail)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assertStatus(t, w, http.StatusInternalServerError)
			if msg := unmarshalError(t, w); msg != "server misconfiguration" {
				t.Errorf("error = %q; want server misconfiguration", msg)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrMissingIdentity, http.StatusUnauthorized},
		{service.ErrBadCredentials, http.StatusUnauthorized},
		{service.ErrUnknownAccount, http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrUnsupportedOperation, http.StatusMethodNotAllowed},
		{service.ErrMissingTarget, http.StatusBadRequest},
		{service.ValidationError("x"), http.StatusBadRequest},
		{service.NotFoundError("post"), http.StatusNotFound},
		{service.StoreError(errors.New("constraint failed")), http.StatusBadRequest},
		{service.MisconfiguredError(errors.New("no key")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(service.KindOf(tt.err)); got != tt.want {
			t.Errorf("StatusFor(%v) = %d; want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"store message surfaced", service.StoreError(errors.New("UNIQUE constraint failed")), "UNIQUE constraint failed"},
		{"misconfiguration hides cause", service.MisconfiguredError(errors.New("secret detail")), "server misconfiguration"},
		{"unclassified hidden", errors.New("secret detail"), "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteServiceError(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			if msg := unmarshalError(t, w); msg != tt.wantMsg {
				t.Errorf("error = %q; want %q", msg, tt.wantMsg)
			}
		})
	}
}
