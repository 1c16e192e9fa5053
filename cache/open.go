package cache

import (
	"context"
	"log/slog"

	"github.com/use-agent/harvest/config"
)

// Open builds the cache described by cfg: Redis when an address is set,
// in-memory otherwise. It returns a nil Cache when caching is disabled.
// The returned func releases the backend.
func Open(ctx context.Context, cfg config.CacheConfig) (Cache, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}
	if cfg.RedisAddr != "" {
		r, err := NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("content cache ready", "backend", "redis", "addr", cfg.RedisAddr)
		return r, func() { _ = r.Close() }, nil
	}
	m := NewMemory(cfg.MaxEntries, cfg.TTL)
	slog.Info("content cache ready", "backend", "memory", "max_entries", cfg.MaxEntries)
	return m, m.Close, nil
}
