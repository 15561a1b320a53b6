// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON API handlers: the privileged admin-posts
// gate and the member endpoints for posts, comments, reactions and login.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/serranito-society/serranito/internal/cache"
	"github.com/serranito-society/serranito/internal/middleware"
	"github.com/serranito-society/serranito/internal/service"
	"github.com/serranito-society/serranito/internal/store"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// Options configures a Handler.
type Options struct {
	// ServiceRoleKey is the elevated store credential. When empty the
	// privileged endpoints answer with a server misconfiguration.
	ServiceRoleKey string
	// IdentityHeader carries the caller's claimed email.
	IdentityHeader string
	// PostCache caches the public post list. Optional.
	PostCache *cache.PostListCache
	// LoginProtection tracks failed logins per email. Optional.
	LoginProtection *middleware.LoginProtection
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db             *sqlx.DB
	queries        *store.Queries
	serviceKey     string
	identityHeader string
	cors           middleware.CORSConfig

	resolver  *service.IdentityResolver
	events    *service.EventService
	accounts  *service.AccountService
	comments  *service.CommentService
	reactions *service.ReactionService

	postCache       *cache.PostListCache
	loginProtection *middleware.LoginProtection
}

// NewHandler creates a new API handler. db may be nil, in which case every
// endpoint that needs the store reports a server misconfiguration.
func NewHandler(db *sqlx.DB, opts Options) *Handler {
	header := opts.IdentityHeader
	if header == "" {
		header = "X-User-Email"
	}

	h := &Handler{
		db:              db,
		serviceKey:      opts.ServiceRoleKey,
		identityHeader:  header,
		cors:            middleware.CORSConfig{IdentityHeader: header},
		postCache:       opts.PostCache,
		loginProtection: opts.LoginProtection,
	}

	if db != nil {
		h.queries = store.New(db)
		h.resolver = service.NewIdentityResolver(h.queries)
		h.events = service.NewEventService(h.queries)
		h.accounts = service.NewAccountService(h.queries, h.events)
		h.comments = service.NewCommentService(h.queries)
		h.reactions = service.NewReactionService(h.queries)
	}

	return h
}

func errNoDatabase() error {
	return service.MisconfiguredError(errors.New("database is not configured"))
}

// requireStore writes a server misconfiguration and returns false when
// the handler was built without a database.
func (h *Handler) requireStore(w http.ResponseWriter, r *http.Request) bool {
	if h.queries == nil {
		WriteServiceError(w, r, errNoDatabase())
		return false
	}
	return true
}

// elevate returns the elevated store handle for a privileged request. Any
// failure to obtain it is a server misconfiguration.
func (h *Handler) elevate(ctx context.Context) (*store.Queries, error) {
	if h.db == nil {
		return nil, errNoDatabase()
	}
	if h.serviceKey == "" {
		return nil, service.MisconfiguredError(errors.New("service role key is not configured"))
	}
	q, err := store.Elevate(ctx, h.db, h.serviceKey)
	if err != nil {
		return nil, service.MisconfiguredError(err)
	}
	return q, nil
}

// resolveIdentity resolves the caller named by the identity header.
func (h *Handler) resolveIdentity(r *http.Request) (service.Identity, error) {
	if h.resolver == nil {
		return service.Identity{}, errNoDatabase()
	}
	return h.resolver.Resolve(r.Context(), r.Header.Get(h.identityHeader))
}

// privilegedIdentity runs the double gate: elevated credential first, then
// the caller's privilege flag. No store write happens before both pass.
func (h *Handler) privilegedIdentity(r *http.Request, action string) (*store.Queries, service.Identity, error) {
	q, err := h.elevate(r.Context())
	if err != nil {
		return nil, service.Identity{}, err
	}
	id, err := h.resolveIdentity(r)
	if err != nil {
		return nil, service.Identity{}, err
	}
	if err := service.Authorize(r.Context(), id, action); err != nil {
		return nil, service.Identity{}, err
	}
	return q, id, nil
}

// Response is the success envelope.
type Response struct {
	Data any `json:"data"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 {"data": ...} response.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{Data: data})
}

// WriteCreated writes a 201 {"data": ...} response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes a {"error": message} response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// StatusFor maps a service error kind to its HTTP status.
func StatusFor(kind service.Kind) int {
	switch kind {
	case service.KindMissingIdentity, service.KindBadCredentials:
		return http.StatusUnauthorized
	case service.KindUnknownAccount, service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindUnsupportedOperation:
		return http.StatusMethodNotAllowed
	case service.KindMissingTarget, service.KindValidation, service.KindStore:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError writes err using the error taxonomy. Unclassified
// errors are logged and reported as "internal error".
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		slog.ErrorContext(r.Context(), "unhandled error", "error", err, "path", r.URL.Path)
		WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := StatusFor(se.Kind)
	switch se.Kind {
	case service.KindMisconfigured:
		slog.ErrorContext(r.Context(), "server misconfiguration",
			"category", "config", "error", se.Err, "path", r.URL.Path)
	case service.KindStore:
		slog.WarnContext(r.Context(), "store error", "error", se.Err, "path", r.URL.Path)
	}
	WriteError(w, status, se.Error())
}

// decodeJSON decodes the request body into dst, rejecting unknown fields
// and trailing data. An empty body is an error unless allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	if r.Body == nil {
		if allowEmpty {
			return nil
		}
		return service.ValidationError("invalid request body")
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return service.ValidationError("invalid request body: %s", decodeErrorMessage(err))
	}
	if dec.More() {
		return service.ValidationError("invalid request body: unexpected data after JSON object")
	}
	return nil
}

func decodeErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return "empty body"
	case errors.As(err, &typeErr):
		return typeErr.Field + " has the wrong type"
	default:
		return err.Error()
	}
}
