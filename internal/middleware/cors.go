// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for the Serranito server:
// permissive CORS, security headers, request timeouts and per-IP rate
// limiting of the login endpoint.
package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig controls the permissive cross-origin policy.
type CORSConfig struct {
	// IdentityHeader is added to the allowed request headers.
	IdentityHeader string
	MaxAge         int
}

var baseAllowedHeaders = []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"}

// SetCORSHeaders writes the permissive cross-origin headers every response
// carries.
func SetCORSHeaders(h http.Header, cfg CORSConfig) {
	allowed := baseAllowedHeaders
	if cfg.IdentityHeader != "" {
		allowed = append(allowed[:len(allowed):len(allowed)], cfg.IdentityHeader)
	}

	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", strings.Join(allowed, ", "))
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
}

// WritePreflight answers an OPTIONS request with an empty 204.
func WritePreflight(w http.ResponseWriter, cfg CORSConfig) {
	SetCORSHeaders(w.Header(), cfg)
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 3600
	}
	w.Header().Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
	w.WriteHeader(http.StatusNoContent)
}

// CORS adds the cross-origin headers to every response and answers
// preflight requests without calling next.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				WritePreflight(w, cfg)
				return
			}

			SetCORSHeaders(w.Header(), cfg)
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSONError writes the {"error": message} envelope the API uses.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
