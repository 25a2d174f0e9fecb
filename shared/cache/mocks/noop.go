package mocks

import (
	"context"

	"fleet/shared/cache"
)

// noopCache always misses and swallows writes. Services treat the cache as
// best-effort, so tests run against this instead of a Redis instance.
type noopCache struct {
}

func NewNoopCache() cache.RedisCache {
	return &noopCache{}
}

// Get implements cache.RedisCache.
func (c *noopCache) Get(_ context.Context, _ string, _ any) error {
	return cache.Nil
}

// Save implements cache.RedisCache.
func (c *noopCache) Save(_ context.Context, _ string, _ any, _ int) error {
	return nil
}

// Delete implements cache.RedisCache.
func (c *noopCache) Delete(_ context.Context, _ string) error {
	return nil
}

// Clear implements cache.RedisCache.
func (c *noopCache) Clear(_ context.Context, _ string) error {
	return nil
}
