// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/serranito-society/serranito/internal/store"
	"github.com/serranito-society/serranito/internal/testutil"
)

const (
	testIdentityHeader = "X-User-Email"
	adminEmail         = "admin@x.com"
	memberEmail        = "user@x.com"
)

// testEnv bundles a migrated database, a handler wired to it and the two
// seeded accounts.
type testEnv struct {
	db      *sqlx.DB
	handler *Handler
	admin   store.User
	member  store.User
}

// testSetup creates a test database with an admin and a member account and
// an API handler holding the matching service key.
func testSetup(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.TestDB(t)
	return &testEnv{
		db:      db,
		handler: NewHandler(db, Options{ServiceRoleKey: testutil.ServiceRoleKey, IdentityHeader: testIdentityHeader}),
		admin:   testutil.CreateUser(t, db, adminEmail, true),
		member:  testutil.CreateUser(t, db, memberEmail, false),
	}
}

// countPosts returns the number of post rows.
func countPosts(t *testing.T, db *sqlx.DB) int64 {
	t.Helper()
	n, err := store.New(db).CountPosts(context.Background())
	if err != nil {
		t.Fatalf("CountPosts: %v", err)
	}
	return n
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// newJSONRequest creates an HTTP request with a JSON body, an optional
// identity and optional URL params.
func newJSONRequest(t *testing.T, method, path, identity, body string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if identity != "" {
		req.Header.Set(testIdentityHeader, identity)
	}
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// newGetRequest creates an HTTP GET request with an optional identity and
// optional URL params.
func newGetRequest(t *testing.T, path, identity string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if identity != "" {
		req.Header.Set(testIdentityHeader, identity)
	}
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// dataResponse is a generic wrapper for API responses with a "data" field.
type dataResponse[T any] struct {
	Data T `json:"data"`
}

// unmarshalData unmarshals a JSON response body into the specified type.
func unmarshalData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp dataResponse[T]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v (body %q)", err, w.Body.String())
	}
	return resp.Data
}

// unmarshalError returns the "error" field of a failure response.
func unmarshalError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v (body %q)", err, w.Body.String())
	}
	return resp.Error
}

// executeHandler executes a handler and returns the response recorder.
func executeHandler(t *testing.T, handler func(http.ResponseWriter, *http.Request), req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

// assertStatus fails the test when the recorded status differs from want.
func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d; want %d (body %s)", w.Code, want, w.Body.String())
	}
}
