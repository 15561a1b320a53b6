// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/serranito-society/serranito/internal/store"
)

// TypedCache stores JSON-encoded values of type T.
type TypedCache[T any] struct {
	cache      Cache
	defaultTTL time.Duration
}

// NewTypedCache creates a new TypedCache wrapping the given cache implementation.
func NewTypedCache[T any](cache Cache, defaultTTL time.Duration) *TypedCache[T] {
	return &TypedCache[T]{cache: cache, defaultTTL: defaultTTL}
}

// Get returns the cached value and true, or false on a miss or a decode
// failure.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var value T
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		return value, false
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false
	}
	return value, true
}

// Set stores a value with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, key, data, c.defaultTTL)
}

// Delete removes a key from the cache.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, key)
}

// GetOrSet returns the cached value or computes, stores and returns it.
// A failed store write does not fail the call.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, fn func() (T, error)) (T, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return value, err
	}

	_ = c.Set(ctx, key, value)
	return value, nil
}

const (
	postListGenKey = "posts:gen"
	postListPrefix = "posts:list:"

	// postListGenTTL outlives any list TTL so a live generation is never
	// dropped while lists cached under it remain.
	postListGenTTL = 7 * 24 * time.Hour
)

// PostLister loads the post list on a cache miss.
type PostLister interface {
	ListPosts(ctx context.Context) ([]store.Post, error)
}

// PostListCache caches the public post list under a generation token.
// PostsChanged writes a new token, so a load that raced an invalidation
// is stored under a generation nobody reads anymore. The token lives in
// the backend, which keeps replicas sharing a Redis cache consistent.
type PostListCache struct {
	backend Cache
	typed   *TypedCache[[]store.Post]
}

// NewPostListCache creates a PostListCache over c.
func NewPostListCache(c Cache, ttl time.Duration) *PostListCache {
	return &PostListCache{backend: c, typed: NewTypedCache[[]store.Post](c, ttl)}
}

// generation returns the current token, starting a new one when none is
// stored.
func (p *PostListCache) generation(ctx context.Context) string {
	if gen, err := p.backend.Get(ctx, postListGenKey); err == nil && len(gen) > 0 {
		return string(gen)
	}
	return p.bump(ctx)
}

func (p *PostListCache) bump(ctx context.Context) string {
	gen := uuid.NewString()
	if err := p.backend.Set(ctx, postListGenKey, []byte(gen), postListGenTTL); err != nil {
		slog.Warn("failed to store post list generation", "category", "cache", "error", err)
	}
	return gen
}

// List returns the cached post list, loading it from posts on a miss.
func (p *PostListCache) List(ctx context.Context, posts PostLister) ([]store.Post, error) {
	key := postListPrefix + p.generation(ctx)
	return p.typed.GetOrSet(ctx, key, func() ([]store.Post, error) {
		list, err := posts.ListPosts(ctx)
		if list == nil && err == nil {
			list = []store.Post{}
		}
		return list, err
	})
}

// PostsChanged starts a new generation and drops the previous list.
func (p *PostListCache) PostsChanged(ctx context.Context) {
	old, err := p.backend.Get(ctx, postListGenKey)
	p.bump(ctx)
	if err == nil && len(old) > 0 {
		if err := p.typed.Delete(ctx, postListPrefix+string(old)); err != nil {
			slog.Warn("failed to invalidate post list cache", "category", "cache", "error", err)
		}
	}
}
