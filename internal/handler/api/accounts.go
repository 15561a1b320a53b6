// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/serranito-society/serranito/internal/middleware"
	"github.com/serranito-society/serranito/internal/service"
	"github.com/serranito-society/serranito/internal/store"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	IsAdmin     bool       `json:"is_admin"`
	LastLogin   *time.Time `json:"last_login"`
	CreatedAt   time.Time  `json:"created_at"`
}

func storeUserToResponse(u store.User) AccountResponse {
	resp := AccountResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		IsAdmin:     u.IsAdmin,
		CreatedAt:   u.CreatedAt,
	}
	if u.LastLogin.Valid {
		resp.LastLogin = &u.LastLogin.Time
	}
	return resp
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateMeRequest is the body of PUT /api/me.
type UpdateMeRequest struct {
	DisplayName string `json:"display_name" validate:"notblank"`
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}
	var req LoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	req.Email = service.NormalizeIdentity(req.Email)
	if err := validateRequest(req); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	ip := middleware.ClientIP(r)
	if h.loginProtection != nil {
		if d := h.loginProtection.Locked(req.Email, ip); d > 0 {
			writeLockedOut(w, d)
			return
		}
	}

	user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrBadCredentials) && h.loginProtection != nil {
			if d := h.loginProtection.Fail(req.Email, ip); d > 0 {
				writeLockedOut(w, d)
				return
			}
		}
		WriteServiceError(w, r, err)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.Succeed(req.Email, ip)
	}
	slog.InfoContext(r.Context(), "member logged in", "category", "auth", "account_id", user.ID)

	WriteSuccess(w, storeUserToResponse(user))
}

func writeLockedOut(w http.ResponseWriter, d time.Duration) {
	WriteError(w, http.StatusTooManyRequests,
		fmt.Sprintf("too many failed attempts, try again in %s", d.Round(time.Second)))
}

// Me handles GET /api/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := h.resolveIdentity(r)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), id.AccountID)
	if err != nil {
		WriteServiceError(w, r, service.StoreError(err))
		return
	}
	WriteSuccess(w, storeUserToResponse(user))
}

// UpdateMe handles PUT /api/me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, err := h.resolveIdentity(r)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	var req UpdateMeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if err := validateRequest(req); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	user, err := h.accounts.UpdateDisplayName(r.Context(), id, req.DisplayName)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteSuccess(w, storeUserToResponse(user))
}
