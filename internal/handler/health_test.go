// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/serranito-society/serranito/internal/cache"
	"github.com/serranito-society/serranito/internal/service"
	"github.com/serranito-society/serranito/internal/store"
	"github.com/serranito-society/serranito/internal/testutil"
)

func newTestHealthHandler(t *testing.T) *HealthHandler {
	t.Helper()
	db := testutil.TestDB(t)
	testutil.CreateUser(t, db, "admin@x.com", true)
	testutil.CreateUser(t, db, "user@x.com", false)
	return NewHealthHandler(db, nil, service.NewIdentityResolver(store.New(db)), "X-User-Email")
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

func TestHealthHandler_Health(t *testing.T) {
	h := newTestHealthHandler(t)

	tests := []struct {
		name        string
		identity    string
		wantDetails bool
	}{
		{"anonymous", "", false},
		{"member", "user@x.com", false},
		{"unknown", "nobody@x.com", false},
		{"admin", "admin@x.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.identity != "" {
				req.Header.Set("X-User-Email", tt.identity)
			}
			w := httptest.NewRecorder()

			h.Health(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d; want 200", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q; want application/json", ct)
			}

			resp := decodeBody(t, w)
			if resp["status"] != "ok" {
				t.Errorf("status = %v; want ok", resp["status"])
			}
			if _, has := resp["checks"]; has != tt.wantDetails {
				t.Errorf("checks present = %v; want %v", has, tt.wantDetails)
			}
		})
	}
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })
	h := NewHealthHandler(down, nil, nil, "X-User-Email")

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d; want 503", w.Code)
	}
	if resp := decodeBody(t, w); resp["status"] != "degraded" {
		t.Errorf("status = %v; want degraded", resp["status"])
	}

	w = httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness status = %d; want 503", w.Code)
	}
}

func TestHealthHandler_CacheDownIsNotFatal(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	closed := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	_ = closed.Close()
	h := NewHealthHandler(up, closed, nil, "X-User-Email")

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d; want 200", w.Code)
	}
}

func TestHealthHandler_CacheHitRate(t *testing.T) {
	db := testutil.TestDB(t)
	testutil.CreateUser(t, db, "admin@x.com", true)

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	defer func() { _ = mem.Close() }()
	ctx := context.Background()
	_ = mem.Set(ctx, "k", []byte("v"), 0)
	_, _ = mem.Get(ctx, "k")
	_, _ = mem.Get(ctx, "missing")

	h := NewHealthHandler(db, mem, service.NewIdentityResolver(store.New(db)), "X-User-Email")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-User-Email", "admin@x.com")
	w := httptest.NewRecorder()
	h.Health(w, req)

	var resp HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := resp.Checks["cache"]; got.Status != "healthy" || got.Message != "hit rate 50.0%" {
		t.Errorf("cache check = %+v", got)
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler(nil, nil, nil, "X-User-Email")

	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d; want 200", w.Code)
	}
	if resp := decodeBody(t, w); resp["status"] != "alive" {
		t.Errorf("status = %v; want alive", resp["status"])
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
