// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPrefix namespaces Redis keys when Config.Prefix is empty.
const DefaultPrefix = "serranito:"

// Config selects and sizes the cache backend.
type Config struct {
	// RedisURL selects the Redis backend when set.
	RedisURL string

	// Prefix namespaces Redis keys.
	Prefix string

	DefaultTTL time.Duration

	// MaxSize bounds the memory backend (0 = unlimited).
	MaxSize int

	// RequireShared forbids the per-process memory backend. Replicated
	// deployments set it: without Redis they run uncached rather than
	// serve lists another replica already invalidated.
	RequireShared bool
}

// New returns a Redis cache when one is configured and reachable. Without
// Redis it returns a memory cache, or a NopCache when cfg.RequireShared
// is set. The server keeps running either way.
func New(ctx context.Context, cfg Config) Cache {
	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(ctx, cfg)
		if err == nil {
			slog.Info("cache backend: redis", "prefix", rc.prefix)
			return rc
		}
		slog.Warn("redis unavailable",
			"category", "cache", "error", err)
	}

	if cfg.RequireShared {
		slog.Warn("no shared cache available, post list caching disabled", "category", "cache")
		return NopCache{}
	}

	slog.Info("cache backend: memory", "max_size", cfg.MaxSize)
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: time.Minute,
	})
}

// NopCache stores nothing; every Get is a miss.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }

func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NopCache) Delete(context.Context, string) error { return nil }

func (NopCache) Clear(context.Context) error { return nil }

func (NopCache) Ping(context.Context) error { return nil }

func (NopCache) Stats() Stats { return Stats{} }

func (NopCache) Close() error { return nil }

var _ Cache = NopCache{}
