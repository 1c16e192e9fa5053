package store

import (
	"context"

	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/models"
)

// Cached is a Store that serves Read from a cache when it can. Raw
// content never changes once non-empty, so cached values stay valid;
// empty content is never cached so a failed fetch can be retried.
type Cached struct {
	next      Store
	cache     cache.Cache
	namespace string
}

// NewCached wraps next. namespace separates databases sharing one cache.
func NewCached(next Store, c cache.Cache, namespace string) *Cached {
	return &Cached{next: next, cache: c, namespace: namespace}
}

func (s *Cached) key(k string) string {
	return cache.Key(s.namespace, k)
}

// Read returns cached content or falls through to the wrapped store.
func (s *Cached) Read(ctx context.Context, key string) (string, error) {
	if v, ok := s.cache.Get(ctx, s.key(key)); ok {
		return v, nil
	}
	content, err := s.next.Read(ctx, key)
	if err != nil {
		return "", err
	}
	if content != "" {
		s.cache.Set(ctx, s.key(key), content)
	}
	return content, nil
}

// Write stores content and caches it when non-empty.
func (s *Cached) Write(ctx context.Context, key, url, content string) error {
	if err := s.next.Write(ctx, key, url, content); err != nil {
		return err
	}
	if content != "" {
		s.cache.Set(ctx, s.key(key), content)
	}
	return nil
}

// UpdateFields passes through to the wrapped store.
func (s *Cached) UpdateFields(ctx context.Context, key string, patch Patch) error {
	return s.next.UpdateFields(ctx, key, patch)
}

// Get passes through to the wrapped store.
func (s *Cached) Get(ctx context.Context, key string) (*models.Record, error) {
	return s.next.Get(ctx, key)
}
