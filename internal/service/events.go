// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the business logic of the server: identity
// resolution, privilege-gated post mutations, member features and the
// audit event log.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/serranito-society/serranito/internal/model"
	"github.com/serranito-society/serranito/internal/store"
)

// EventWriter is the store surface the event log needs.
type EventWriter interface {
	CreateEvent(ctx context.Context, arg store.CreateEventParams) error
}

// EventService provides event logging functionality.
type EventService struct {
	events EventWriter
}

// NewEventService creates a new EventService.
func NewEventService(events EventWriter) *EventService {
	return &EventService{events: events}
}

// LogEvent creates a new event log entry. accountID is recorded in the
// metadata when not empty.
func (s *EventService) LogEvent(ctx context.Context, level, category, message, accountID string, metadata map[string]any) error {
	if accountID != "" {
		if metadata == nil {
			metadata = make(map[string]any, 1)
		}
		metadata["account_id"] = accountID
	}

	metadataJSON := "{}"
	if metadata != nil {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	err := s.events.CreateEvent(ctx, store.CreateEventParams{
		ID:        uuid.NewString(),
		Level:     level,
		Category:  category,
		Message:   message,
		Metadata:  metadataJSON,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to log event", "error", err, "category", category)
		return err
	}

	return nil
}

// LogAuthEvent logs an authentication-related event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message, accountID string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, accountID, metadata)
}

// LogPostEvent logs a post-related event.
func (s *EventService) LogPostEvent(ctx context.Context, level, message, accountID string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryPost, message, accountID, metadata)
}

// LogUserEvent logs an account-related event.
func (s *EventService) LogUserEvent(ctx context.Context, level, message, accountID string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryUser, message, accountID, metadata)
}

// LogConfigEvent logs a config-related event.
func (s *EventService) LogConfigEvent(ctx context.Context, level, message, accountID string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryConfig, message, accountID, metadata)
}
