// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// EventRetentionJob is the name of the event-log pruning job.
const EventRetentionJob = "event-retention"

// EventPruner deletes audit events. It needs the elevated store handle.
type EventPruner interface {
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneEvents returns a job that deletes events older than retention.
func PruneEvents(events EventPruner, retention time.Duration, logger *slog.Logger) JobFunc {
	return func(ctx context.Context) error {
		cutoff := time.Now().UTC().Add(-retention)
		n, err := events.DeleteEventsBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("pruning events: %w", err)
		}
		if n > 0 {
			logger.Info("pruned old events", "count", n, "cutoff", cutoff.Format(time.RFC3339))
		}
		return nil
	}
}

// RegisterEventRetention schedules PruneEvents keeping retentionDays of
// history.
func (s *Scheduler) RegisterEventRetention(events EventPruner, schedule string, retentionDays int) error {
	if retentionDays < 1 {
		return fmt.Errorf("retention must be at least one day, got %d", retentionDays)
	}
	retention := time.Duration(retentionDays) * 24 * time.Hour
	return s.Register(EventRetentionJob, schedule, PruneEvents(events, retention, s.logger))
}
