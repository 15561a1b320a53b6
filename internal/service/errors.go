// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. Transport layers map kinds to status
// codes; the service package never deals with HTTP.
type Kind int

// Failure kinds.
const (
	KindInternal Kind = iota
	KindMissingIdentity
	KindUnknownAccount
	KindBadCredentials
	KindForbidden
	KindUnsupportedOperation
	KindMissingTarget
	KindValidation
	KindNotFound
	KindStore
	KindMisconfigured
)

var kindNames = map[Kind]string{
	KindInternal:             "internal",
	KindMissingIdentity:      "missing_identity",
	KindUnknownAccount:       "unknown_account",
	KindBadCredentials:       "bad_credentials",
	KindForbidden:            "forbidden",
	KindUnsupportedOperation: "unsupported_operation",
	KindMissingTarget:        "missing_target",
	KindValidation:           "validation",
	KindNotFound:             "not_found",
	KindStore:                "store",
	KindMisconfigured:        "server_misconfiguration",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified service failure. Message is safe to show to the
// caller; Err keeps the underlying cause for logs and errors.Is.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrMissingIdentity      = &Error{Kind: KindMissingIdentity, Message: "missing identity header"}
	ErrUnknownAccount       = &Error{Kind: KindUnknownAccount, Message: "account not found"}
	ErrBadCredentials       = &Error{Kind: KindBadCredentials, Message: "incorrect password"}
	ErrForbidden            = &Error{Kind: KindForbidden, Message: "not authorized: admin role required"}
	ErrUnsupportedOperation = &Error{Kind: KindUnsupportedOperation, Message: "method not allowed"}
	ErrMissingTarget        = &Error{Kind: KindMissingTarget, Message: "missing post id"}
	ErrNotFound             = &Error{Kind: KindNotFound, Message: "not found"}
	ErrMisconfigured        = &Error{Kind: KindMisconfigured, Message: "server misconfiguration"}
)

// ValidationError reports a malformed request field.
func ValidationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing entity by name.
func NotFoundError(entity string) error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// StoreError wraps a store failure; its message is surfaced to the caller.
func StoreError(err error) error {
	return &Error{Kind: KindStore, Message: err.Error(), Err: err}
}

// MisconfiguredError wraps the cause of a server misconfiguration. The
// caller only ever sees ErrMisconfigured's message.
func MisconfiguredError(err error) error {
	return &Error{Kind: KindMisconfigured, Message: ErrMisconfigured.Message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
