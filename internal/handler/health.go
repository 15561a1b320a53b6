// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the health endpoints. The JSON API lives in
// the api subpackage.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/serranito-society/serranito/internal/cache"
	"github.com/serranito-society/serranito/internal/service"
	"github.com/serranito-society/serranito/internal/version"
)

// Pinger checks a backend's connectivity.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// PingContext calls f.
func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// CacheBackend is the part of the post-list cache the health check reads.
type CacheBackend interface {
	Ping(ctx context.Context) error
	Stats() cache.Stats
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db             Pinger
	cache          CacheBackend
	resolver       *service.IdentityResolver
	identityHeader string
	startTime      time.Time
}

// NewHealthHandler creates a new health handler. cache and resolver may
// be nil; without a resolver every caller gets the public response.
func NewHealthHandler(db Pinger, cache CacheBackend, resolver *service.IdentityResolver, identityHeader string) *HealthHandler {
	return &HealthHandler{
		db:             db,
		cache:          cache,
		resolver:       resolver,
		identityHeader: identityHeader,
		startTime:      time.Now(),
	}
}

// HealthStatusPublic is the minimal health response.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the detailed response for privileged callers.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   version.Info     `json:"version"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health. Privileged callers (resolved from the
// identity header) get per-check details.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{"database": checkPinger(r.Context(), h.db)}
	if h.cache != nil {
		checks["cache"] = checkCache(r.Context(), h.cache)
	}

	overall := "ok"
	if checks["database"].Status != "healthy" {
		overall = "degraded"
	}

	status := http.StatusOK
	if overall != "ok" {
		status = http.StatusServiceUnavailable
	}

	if !h.isPrivileged(r) {
		writeJSON(w, status, HealthStatusPublic{Status: overall})
		return
	}

	resp := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   version.Get(),
		Checks:    checks,
	}
	if r.URL.Query().Get("verbose") == "true" {
		resp.System = systemInfo()
	}
	writeJSON(w, status, resp)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if checkPinger(r.Context(), h.db).Status == "healthy" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}

func (h *HealthHandler) isPrivileged(r *http.Request) bool {
	if h.resolver == nil {
		return false
	}
	claimed := r.Header.Get(h.identityHeader)
	if claimed == "" {
		return false
	}
	id, err := h.resolver.Resolve(r.Context(), claimed)
	return err == nil && id.IsPrivileged
}

func checkPinger(ctx context.Context, p Pinger) Check {
	if p == nil {
		return Check{Status: "unhealthy", Message: "not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := p.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{Status: "unhealthy", Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: "healthy", Message: "Connected", Latency: latency.String()}
}

// checkCache never degrades the overall status: reads fall through to
// the database when the cache is gone.
func checkCache(ctx context.Context, c CacheBackend) Check {
	check := checkPinger(ctx, PingFunc(c.Ping))
	if check.Status == "healthy" {
		check.Message = fmt.Sprintf("hit rate %.1f%%", c.Stats().HitRate())
	}
	return check
}

func systemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
